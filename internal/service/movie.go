package service

import (
	"context"
	"strings"

	"github.com/user/tastekid/internal/model"
	"github.com/user/tastekid/internal/repository"
)

// MovieService 电影查询服务
type MovieService struct {
	repos *repository.Repositories
}

// NewMovieService 创建电影查询服务
func NewMovieService(repos *repository.Repositories) *MovieService {
	return &MovieService{repos: repos}
}

// Get 电影详情
func (s *MovieService) Get(ctx context.Context, id int64) (*model.Movie, error) {
	var movie *model.Movie
	err := retryRead(ctx, func() error {
		var err error
		movie, err = s.repos.Movie.FindByID(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	if movie == nil {
		return nil, ErrMovieNotFound
	}
	return movie, nil
}

// Lookup 按标题查找电影：精确命中优先，其次前缀、子串
func (s *MovieService) Lookup(ctx context.Context, title string) (*model.Movie, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, ErrInvalidArgument
	}

	var movie *model.Movie
	err := retryRead(ctx, func() error {
		var err error
		movie, err = s.repos.Movie.LookupByTitle(ctx, title)
		return err
	})
	if err != nil {
		return nil, err
	}
	if movie == nil {
		return nil, ErrMovieNotFound
	}
	return movie, nil
}
