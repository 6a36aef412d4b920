package service

import (
	"math"
	"testing"

	"github.com/pgvector/pgvector-go"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/user/tastekid/internal/model"
	"github.com/user/tastekid/internal/repository"
)

const profileTestSchema = `
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

func newProfileTestRepos(t *testing.T) *repository.Repositories {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.Exec(profileTestSchema).Error)
	return repository.NewRepositories(db)
}

func TestProfileRebuild(t *testing.T) {
	repos := newProfileTestRepos(t)
	ctx := t.Context()
	builder := NewProfileBuilder(testConfig())

	user, err := repos.User.Create(ctx, nil)
	require.NoError(t, err)

	vectors := map[int64][]float32{1: {1, 0}, 2: {0, 1}}
	for id, vec := range vectors {
		require.NoError(t, repos.DB.Create(&model.Movie{ID: id, Title: "m"}).Error)
		require.NoError(t, repos.DB.Create(&model.MovieEmbedding{
			MovieID:   id,
			Embedding: pgvector.NewVector(vec),
		}).Error)
	}

	require.NoError(t, repos.Rating.Upsert(ctx, &model.UserMovieRating{
		UserID: user.ID, MovieID: 1, Rating: intPtr(5), Status: model.StatusWatched,
	}))
	require.NoError(t, repos.Rating.Upsert(ctx, &model.UserMovieRating{
		UserID: user.ID, MovieID: 2, Rating: intPtr(4), Status: model.StatusWatched,
	}))

	require.NoError(t, builder.Rebuild(ctx, repos, user.ID))

	profile, err := repos.Profile.Find(ctx, user.ID)
	require.NoError(t, err)
	require.NotNil(t, profile)
	require.Equal(t, 2, profile.NumRatings)

	vec := profile.Embedding.Slice()
	require.Len(t, vec, 2)
	// 5 分的电影权重更高
	require.Greater(t, vec[0], vec[1])
	// 落库前做过 L2 归一化
	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	require.InDelta(t, 1.0, math.Sqrt(norm), 1e-5)
}

func TestProfileRebuildDeletesWhenNoContributors(t *testing.T) {
	repos := newProfileTestRepos(t)
	ctx := t.Context()
	builder := NewProfileBuilder(testConfig())

	user, err := repos.User.Create(ctx, nil)
	require.NoError(t, err)
	require.NoError(t, repos.DB.Create(&model.Movie{ID: 1, Title: "m"}).Error)
	require.NoError(t, repos.DB.Create(&model.MovieEmbedding{
		MovieID:   1,
		Embedding: pgvector.NewVector([]float32{1, 0}),
	}).Error)

	require.NoError(t, repos.Rating.Upsert(ctx, &model.UserMovieRating{
		UserID: user.ID, MovieID: 1, Rating: intPtr(5), Status: model.StatusWatched,
	}))
	require.NoError(t, builder.Rebuild(ctx, repos, user.ID))

	profile, err := repos.Profile.Find(ctx, user.ID)
	require.NoError(t, err)
	require.NotNil(t, profile)

	// 唯一的贡献评分降到 1 分，画像行应被删除
	require.NoError(t, repos.Rating.Upsert(ctx, &model.UserMovieRating{
		UserID: user.ID, MovieID: 1, Rating: intPtr(1), Status: model.StatusWatched,
	}))
	require.NoError(t, builder.Rebuild(ctx, repos, user.ID))

	profile, err = repos.Profile.Find(ctx, user.ID)
	require.NoError(t, err)
	require.Nil(t, profile)
}
