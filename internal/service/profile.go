package service

import (
	"context"

	"github.com/pgvector/pgvector-go"
	"github.com/user/tastekid/internal/config"
	"github.com/user/tastekid/internal/model"
	"github.com/user/tastekid/internal/repository"
)

// ProfileBuilder 画像构建器：从评分历史重算用户口味向量
type ProfileBuilder struct {
	neutralWeight float64
}

// NewProfileBuilder 创建画像构建器
func NewProfileBuilder(cfg *config.Config) *ProfileBuilder {
	return &ProfileBuilder{neutralWeight: cfg.NeutralRatingWeight}
}

// Rebuild 重建画像。必须在评分写入的同一事务内调用，
// 提交后 user_profiles 才与评分历史一致。
//
// 贡献评分 = watched 且 rating >= 3；加权均值做 L2 归一化后落库；
// 没有可聚合向量时删除画像行。
func (b *ProfileBuilder) Rebuild(ctx context.Context, repos *repository.Repositories, userID int64) error {
	rows, err := repos.Rating.ContributorEmbeddings(ctx, userID)
	if err != nil {
		return err
	}

	vec := BuildWeightedEmbedding(rows, func(r *int) float64 {
		return profileWeight(r, b.neutralWeight)
	})
	if vec == nil {
		return repos.Profile.Delete(ctx, userID)
	}

	numRatings, err := repos.Rating.CountContributors(ctx, userID)
	if err != nil {
		return err
	}

	return repos.Profile.Upsert(ctx, &model.UserProfile{
		UserID:     userID,
		Embedding:  pgvector.NewVector(L2Normalize(vec)),
		NumRatings: numRatings,
	})
}
