package repository

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/user/tastekid/internal/model"
)

// sqlite 内存库上跑可移植的 SQL 路径；
// 向量列退化为 TEXT，pgvector.Vector 的 Valuer/Scanner 照常工作
const testSchema = `
CREATE TABLE users (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    display_name TEXT,
    created_at DATETIME
);
CREATE TABLE movies (
    id INTEGER PRIMARY KEY,
    title TEXT NOT NULL DEFAULT '',
    original_title TEXT NOT NULL DEFAULT '',
    release_date DATETIME,
    runtime INTEGER NOT NULL DEFAULT 0,
    original_language TEXT NOT NULL DEFAULT '',
    vote_average REAL NOT NULL DEFAULT 0,
    vote_count INTEGER NOT NULL DEFAULT 0,
    genres TEXT NOT NULL DEFAULT '',
    keywords TEXT NOT NULL DEFAULT '',
    overview TEXT NOT NULL DEFAULT '',
    tagline TEXT NOT NULL DEFAULT '',
    poster_path TEXT NOT NULL DEFAULT '',
    backdrop_path TEXT NOT NULL DEFAULT ''
);
CREATE TABLE movie_embeddings (
    movie_id INTEGER PRIMARY KEY,
    embedding TEXT,
    embedding_model TEXT NOT NULL DEFAULT '',
    doc_hash TEXT NOT NULL DEFAULT '',
    created_at DATETIME
);
CREATE TABLE user_movie_ratings (
    user_id INTEGER NOT NULL,
    movie_id INTEGER NOT NULL,
    rating INTEGER,
    status TEXT NOT NULL DEFAULT 'watched',
    created_at DATETIME,
    updated_at DATETIME,
    PRIMARY KEY (user_id, movie_id)
);
CREATE TABLE user_profiles (
    user_id INTEGER PRIMARY KEY,
    embedding TEXT,
    num_ratings INTEGER NOT NULL DEFAULT 0,
    updated_at DATETIME
);
`

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// :memory: 库随连接走，钉死单连接
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.Exec(testSchema).Error)
	return db
}

func seedUser(t *testing.T, db *gorm.DB) int64 {
	t.Helper()
	user, err := NewUserRepository(db).Create(t.Context(), nil)
	require.NoError(t, err)
	return user.ID
}

func seedMovie(t *testing.T, db *gorm.DB, id int64, title string, voteCount int64) {
	t.Helper()
	require.NoError(t, db.Create(&model.Movie{
		ID:        id,
		Title:     title,
		VoteCount: voteCount,
	}).Error)
}

func seedRating(t *testing.T, db *gorm.DB, userID, movieID int64, rating *int, status string, updatedAt time.Time) {
	t.Helper()
	require.NoError(t, db.Create(&model.UserMovieRating{
		UserID:    userID,
		MovieID:   movieID,
		Rating:    rating,
		Status:    status,
		CreatedAt: updatedAt,
		UpdatedAt: updatedAt,
	}).Error)
}

func ratingPtr(n int) *int { return &n }
