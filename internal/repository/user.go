package repository

import (
	"context"
	"errors"
	"time"

	"github.com/user/tastekid/internal/model"
	"gorm.io/gorm"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// UserSummaryRow 用户概要（关联画像）
type UserSummaryRow struct {
	ID               int64      `db:"id"`
	DisplayName      *string    `db:"display_name"`
	NumRatings       int        `db:"num_ratings"`
	ProfileUpdatedAt *time.Time `db:"profile_updated_at"`
}

// Create 创建用户
func (r *UserRepository) Create(ctx context.Context, displayName *string) (*model.User, error) {
	user := &model.User{
		DisplayName: displayName,
		CreatedAt:   time.Now(),
	}
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// FindByID 根据 ID 查找用户，不存在返回 nil
func (r *UserRepository) FindByID(ctx context.Context, id int64) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).First(&user, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// Exists 用户是否存在
func (r *UserRepository) Exists(ctx context.Context, id int64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.User{}).
		Where("id = ?", id).
		Count(&count).Error
	return count > 0, err
}

// LockForUpdate 行级锁，用于串行化同一用户的评分写入
// 必须在事务内调用
func (r *UserRepository) LockForUpdate(ctx context.Context, id int64) error {
	var lockedID int64
	err := r.db.WithContext(ctx).Raw(
		"SELECT id FROM users WHERE id = ? FOR UPDATE", id,
	).Scan(&lockedID).Error
	if err != nil {
		return err
	}
	if lockedID == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Summary 用户概要（num_ratings 来自画像行，无画像时为 0）
func (r *UserRepository) Summary(ctx context.Context, id int64) (*UserSummaryRow, error) {
	var row UserSummaryRow
	err := r.db.WithContext(ctx).Raw(`
		SELECT u.id,
		       u.display_name,
		       COALESCE(p.num_ratings, 0) AS num_ratings,
		       p.updated_at AS profile_updated_at
		FROM users u
		LEFT JOIN user_profiles p ON p.user_id = u.id
		WHERE u.id = ?
	`, id).Scan(&row).Error
	if err != nil {
		return nil, err
	}
	if row.ID == 0 {
		return nil, nil
	}
	return &row, nil
}
