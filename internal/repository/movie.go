package repository

import (
	"context"
	"errors"

	"github.com/user/tastekid/internal/model"
	"gorm.io/gorm"
)

type MovieRepository struct {
	db *gorm.DB
}

func NewMovieRepository(db *gorm.DB) *MovieRepository {
	return &MovieRepository{db: db}
}

// FindByID 根据 ID 查找电影，未找到返回 nil
func (r *MovieRepository) FindByID(ctx context.Context, id int64) (*model.Movie, error) {
	var movie model.Movie
	err := r.db.WithContext(ctx).First(&movie, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &movie, nil
}

// FindByIDs 批量查找电影
func (r *MovieRepository) FindByIDs(ctx context.Context, ids []int64) ([]model.Movie, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var movies []model.Movie
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&movies).Error
	return movies, err
}

// LookupByTitle 按标题查找：精确 > 前缀 > 子串，
// 同级按 vote_count 降序、release_date 降序、id 升序
func (r *MovieRepository) LookupByTitle(ctx context.Context, title string) (*model.Movie, error) {
	var movie model.Movie
	err := r.db.WithContext(ctx).Raw(`
		SELECT *
		FROM movies
		WHERE lower(title) = lower(@q)
		   OR lower(original_title) = lower(@q)
		   OR title ILIKE @prefix
		   OR original_title ILIKE @prefix
		   OR title ILIKE @sub
		   OR original_title ILIKE @sub
		ORDER BY
			CASE
				WHEN lower(title) = lower(@q) THEN 0
				WHEN lower(original_title) = lower(@q) THEN 1
				WHEN title ILIKE @prefix OR original_title ILIKE @prefix THEN 2
				ELSE 3
			END,
			vote_count DESC,
			release_date DESC NULLS LAST,
			id ASC
		LIMIT 1
	`, map[string]interface{}{
		"q":      title,
		"prefix": title + "%",
		"sub":    "%" + title + "%",
	}).Scan(&movie).Error
	if err != nil {
		return nil, err
	}
	if movie.ID == 0 {
		return nil, nil
	}
	return &movie, nil
}

// PopularityQueue 热度队列：排除该用户已有评分记录的电影，
// 按 vote_count 降序、vote_average 降序、id 升序
func (r *MovieRepository) PopularityQueue(ctx context.Context, userID int64, limit, offset int) ([]model.Movie, error) {
	var movies []model.Movie
	err := r.db.WithContext(ctx).Raw(`
		SELECT m.*
		FROM movies m
		LEFT JOIN user_movie_ratings r
		  ON r.movie_id = m.id
		 AND r.user_id = ?
		WHERE r.movie_id IS NULL
		ORDER BY m.vote_count DESC, m.vote_average DESC, m.id ASC
		LIMIT ? OFFSET ?
	`, userID, limit, offset).Scan(&movies).Error
	return movies, err
}

// NextByProfile 口味向量最近邻的未评分电影（必然带向量）
func (r *MovieRepository) NextByProfile(ctx context.Context, userID int64) (*model.Movie, error) {
	var movie model.Movie
	err := r.db.WithContext(ctx).Raw(`
		SELECT m.*
		FROM user_profiles p
		JOIN movie_embeddings e ON TRUE
		JOIN movies m ON m.id = e.movie_id
		LEFT JOIN user_movie_ratings r
		  ON r.movie_id = m.id
		 AND r.user_id = ?
		WHERE p.user_id = ?
		  AND r.movie_id IS NULL
		ORDER BY e.embedding <=> p.embedding
		LIMIT 1
	`, userID, userID).Scan(&movie).Error
	if err != nil {
		return nil, err
	}
	if movie.ID == 0 {
		return nil, nil
	}
	return &movie, nil
}
