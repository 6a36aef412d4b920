package repository

import (
	"testing"
	"time"

	"github.com/pgvector/pgvector-go"
	"github.com/stretchr/testify/require"

	"github.com/user/tastekid/internal/model"
)

func TestProfileUpsertAndDelete(t *testing.T) {
	db := newTestDB(t)
	ctx := t.Context()
	repo := NewProfileRepository(db)

	userID := seedUser(t, db)

	got, err := repo.Find(ctx, userID)
	require.NoError(t, err)
	require.Nil(t, got)

	require.NoError(t, repo.Upsert(ctx, &model.UserProfile{
		UserID:     userID,
		Embedding:  pgvector.NewVector([]float32{0.6, 0.8}),
		NumRatings: 1,
	}))

	got, err = repo.Find(ctx, userID)
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, 1, got.NumRatings)
	require.InDelta(t, 0.6, got.Embedding.Slice()[0], 1e-6)

	exists, err := repo.Exists(ctx, userID)
	require.NoError(t, err)
	require.True(t, exists)

	// 同键重写覆盖向量与计数
	require.NoError(t, repo.Upsert(ctx, &model.UserProfile{
		UserID:     userID,
		Embedding:  pgvector.NewVector([]float32{1, 0}),
		NumRatings: 5,
	}))

	got, err = repo.Find(ctx, userID)
	require.NoError(t, err)
	require.Equal(t, 5, got.NumRatings)
	require.InDelta(t, 1.0, got.Embedding.Slice()[0], 1e-6)

	require.NoError(t, repo.Delete(ctx, userID))
	got, err = repo.Find(ctx, userID)
	require.NoError(t, err)
	require.Nil(t, got)

	// 删除不存在的行不报错
	require.NoError(t, repo.Delete(ctx, userID))
}

func TestUserSummary(t *testing.T) {
	db := newTestDB(t)
	ctx := t.Context()
	users := NewUserRepository(db)
	profiles := NewProfileRepository(db)

	name := "ada"
	user, err := users.Create(ctx, &name)
	require.NoError(t, err)

	// 无画像：num_ratings 为 0，更新时间为空
	row, err := users.Summary(ctx, user.ID)
	require.NoError(t, err)
	require.NotNil(t, row)
	require.Equal(t, "ada", *row.DisplayName)
	require.Equal(t, 0, row.NumRatings)
	require.Nil(t, row.ProfileUpdatedAt)

	require.NoError(t, profiles.Upsert(ctx, &model.UserProfile{
		UserID:     user.ID,
		Embedding:  pgvector.NewVector([]float32{1, 0}),
		NumRatings: 7,
	}))

	row, err = users.Summary(ctx, user.ID)
	require.NoError(t, err)
	require.Equal(t, 7, row.NumRatings)
	require.NotNil(t, row.ProfileUpdatedAt)

	// 不存在的用户
	row, err = users.Summary(ctx, 9999)
	require.NoError(t, err)
	require.Nil(t, row)
}

func TestPopularityQueueExcludesSeen(t *testing.T) {
	db := newTestDB(t)
	ctx := t.Context()
	movies := NewMovieRepository(db)

	userID := seedUser(t, db)
	seedMovie(t, db, 1, "Top", 1000)
	seedMovie(t, db, 2, "Mid", 500)
	seedMovie(t, db, 3, "Low", 100)
	seedRating(t, db, userID, 1, ratingPtr(5), model.StatusWatched, time.Now())

	queue, err := movies.PopularityQueue(ctx, userID, 10, 0)
	require.NoError(t, err)
	require.Len(t, queue, 2)
	require.Equal(t, "Mid", queue[0].Title)
	require.Equal(t, "Low", queue[1].Title)

	// offset 翻页
	queue, err = movies.PopularityQueue(ctx, userID, 10, 1)
	require.NoError(t, err)
	require.Len(t, queue, 1)
	require.Equal(t, "Low", queue[0].Title)
}

func TestMovieFindByIDs(t *testing.T) {
	db := newTestDB(t)
	ctx := t.Context()
	movies := NewMovieRepository(db)

	seedMovie(t, db, 1, "A", 0)
	seedMovie(t, db, 2, "B", 0)

	got, err := movies.FindByIDs(ctx, []int64{1, 2, 99})
	require.NoError(t, err)
	require.Len(t, got, 2)

	got, err = movies.FindByIDs(ctx, nil)
	require.NoError(t, err)
	require.Empty(t, got)

	one, err := movies.FindByID(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, "A", one.Title)

	none, err := movies.FindByID(ctx, 42)
	require.NoError(t, err)
	require.Nil(t, none)
}
