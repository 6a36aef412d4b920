package model

import (
	"time"

	"github.com/pgvector/pgvector-go"
)

// 评分状态
const (
	StatusWatched   = "watched"
	StatusUnwatched = "unwatched"
)

// User 用户模型（ID 对服务而言是不透明标识）
type User struct {
	ID          int64     `json:"id" db:"id" gorm:"primaryKey"`
	DisplayName *string   `json:"display_name" db:"display_name"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// TableName 表名
func (User) TableName() string {
	return "users"
}

// UserMovieRating 用户评分，(user_id, movie_id) 联合主键
// rating 为空表示"标记看过但未打分"或 unwatched
type UserMovieRating struct {
	UserID    int64     `json:"user_id" db:"user_id" gorm:"primaryKey"`
	MovieID   int64     `json:"movie_id" db:"movie_id" gorm:"primaryKey"`
	Rating    *int      `json:"rating" db:"rating"`
	Status    string    `json:"status" db:"status"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at" gorm:"index"`
}

// TableName 表名
func (UserMovieRating) TableName() string {
	return "user_movie_ratings"
}

// IsContributor 是否参与画像聚合（看过且评分 >= 3）
func (r *UserMovieRating) IsContributor() bool {
	return r.Status == StatusWatched && r.Rating != nil && *r.Rating >= 3
}

// UserProfile 用户口味向量（贡献评分的加权质心，持久化前做 L2 归一化）
type UserProfile struct {
	UserID     int64           `json:"user_id" db:"user_id" gorm:"primaryKey"`
	Embedding  pgvector.Vector `json:"embedding" db:"embedding" gorm:"type:vector(768)"`
	NumRatings int             `json:"num_ratings" db:"num_ratings"`
	UpdatedAt  time.Time       `json:"updated_at" db:"updated_at"`
}

// TableName 表名
func (UserProfile) TableName() string {
	return "user_profiles"
}
