package repository

import (
	"context"
	"errors"
	"time"

	"github.com/user/tastekid/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ProfileRepository struct {
	db *gorm.DB
}

func NewProfileRepository(db *gorm.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

// Find 查找用户画像，不存在返回 nil
func (r *ProfileRepository) Find(ctx context.Context, userID int64) (*model.UserProfile, error) {
	var profile model.UserProfile
	err := r.db.WithContext(ctx).First(&profile, "user_id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

// Exists 画像行是否存在
func (r *ProfileRepository) Exists(ctx context.Context, userID int64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.UserProfile{}).
		Where("user_id = ?", userID).
		Count(&count).Error
	return count > 0, err
}

// Upsert 写入画像
func (r *ProfileRepository) Upsert(ctx context.Context, profile *model.UserProfile) error {
	profile.UpdatedAt = time.Now()
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"embedding", "num_ratings", "updated_at"}),
	}).Create(profile).Error
}

// Delete 删除画像行（最后一个贡献评分被移除时调用）
func (r *ProfileRepository) Delete(ctx context.Context, userID int64) error {
	return r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&model.UserProfile{}).Error
}
