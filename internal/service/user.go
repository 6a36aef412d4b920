package service

import (
	"context"
	"math"
	"time"

	"github.com/user/tastekid/internal/model"
	"github.com/user/tastekid/internal/repository"
)

// UserSummary 用户概要
type UserSummary struct {
	ID               int64
	DisplayName      *string
	NumRatings       int
	ProfileUpdatedAt *time.Time
}

// ProfileStats 画像统计
type ProfileStats struct {
	UserID        int64
	HasProfile    bool
	NumRatings    int // 贡献评分数（watched 且 rating >= 3）
	NumLiked      int // rating >= 4 的数量
	EmbeddingNorm *float64
	UpdatedAt     *time.Time
}

// UserService 用户服务
type UserService struct {
	repos *repository.Repositories
}

// NewUserService 创建用户服务
func NewUserService(repos *repository.Repositories) *UserService {
	return &UserService{repos: repos}
}

// Create 创建用户
func (s *UserService) Create(ctx context.Context, displayName *string) (*model.User, error) {
	return s.repos.User.Create(ctx, displayName)
}

// Get 用户概要（num_ratings 取画像行，无画像为 0）
func (s *UserService) Get(ctx context.Context, id int64) (*UserSummary, error) {
	var row *repository.UserSummaryRow
	err := retryRead(ctx, func() error {
		var err error
		row, err = s.repos.User.Summary(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, ErrUserNotFound
	}
	return &UserSummary{
		ID:               row.ID,
		DisplayName:      row.DisplayName,
		NumRatings:       row.NumRatings,
		ProfileUpdatedAt: row.ProfileUpdatedAt,
	}, nil
}

// Stats 画像统计。无画像时 NumRatings 从评分表现算，
// 覆盖"有贡献评分但都缺向量"的情况。
func (s *UserService) Stats(ctx context.Context, userID int64) (*ProfileStats, error) {
	var exists bool
	err := retryRead(ctx, func() error {
		var err error
		exists, err = s.repos.User.Exists(ctx, userID)
		return err
	})
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrUserNotFound
	}

	var numLiked int
	err = retryRead(ctx, func() error {
		var err error
		numLiked, err = s.repos.Rating.CountLiked(ctx, userID)
		return err
	})
	if err != nil {
		return nil, err
	}

	var profile *model.UserProfile
	err = retryRead(ctx, func() error {
		var err error
		profile, err = s.repos.Profile.Find(ctx, userID)
		return err
	})
	if err != nil {
		return nil, err
	}

	stats := &ProfileStats{UserID: userID, NumLiked: numLiked}
	if profile == nil {
		err = retryRead(ctx, func() error {
			var err error
			stats.NumRatings, err = s.repos.Rating.CountContributors(ctx, userID)
			return err
		})
		if err != nil {
			return nil, err
		}
		return stats, nil
	}

	stats.HasProfile = true
	stats.NumRatings = profile.NumRatings
	norm := embeddingNorm(profile.Embedding.Slice())
	stats.EmbeddingNorm = &norm
	updatedAt := profile.UpdatedAt
	stats.UpdatedAt = &updatedAt
	return stats, nil
}

// embeddingNorm 向量的 L2 范数（画像落库前已归一化，应接近 1.0）
func embeddingNorm(vec []float32) float64 {
	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}
	return math.Sqrt(sum)
}
