package service

import (
	"math"
	"testing"

	"github.com/pgvector/pgvector-go"
	"github.com/stretchr/testify/require"
	"github.com/user/tastekid/internal/repository"
)

func intPtr(n int) *int { return &n }

func TestProfileWeight(t *testing.T) {
	require.Equal(t, 0.0, profileWeight(nil, 0.2))
	require.Equal(t, 0.0, profileWeight(intPtr(2), 0.2))
	require.InDelta(t, 0.2, profileWeight(intPtr(3), 0.2), 1e-9)
	require.InDelta(t, 0.8, profileWeight(intPtr(4), 0.2), 1e-9)
	require.InDelta(t, 1.0, profileWeight(intPtr(5), 0.2), 1e-9)
}

func TestDislikeWeight(t *testing.T) {
	require.Equal(t, 0.0, dislikeWeight(nil))
	require.Equal(t, 0.0, dislikeWeight(intPtr(3)))
	require.InDelta(t, 1.0, dislikeWeight(intPtr(0)), 1e-9)
	require.InDelta(t, 1.0, dislikeWeight(intPtr(1)), 1e-9)
	require.InDelta(t, 0.5, dislikeWeight(intPtr(2)), 1e-9)
}

func TestTopTokensDeterministic(t *testing.T) {
	counts := map[string]float64{
		"drama":    3.0,
		"thriller": 2.0,
		"mystery":  2.0,
		"comedy":   1.0,
	}

	top := topTokens(counts, 3)
	require.Len(t, top, 3)
	require.True(t, top.Has("drama"))
	// 同权重按字典序，mystery 先于 thriller
	require.True(t, top.Has("mystery"))
	require.True(t, top.Has("thriller"))
	require.False(t, top.Has("comedy"))

	two := topTokens(counts, 2)
	require.True(t, two.Has("drama"))
	require.True(t, two.Has("mystery"))
	require.False(t, two.Has("thriller"))
}

func TestBuildWeightedContext(t *testing.T) {
	rows := []repository.ScoringRow{
		{Genres: "Thriller,Mystery", Keywords: "neo-noir", Runtime: 120, ReleaseDate: date(2000), OriginalLanguage: "en", Rating: intPtr(5)},
		{Genres: "Comedy", Keywords: "satire", Runtime: 90, ReleaseDate: date(2020), OriginalLanguage: "fr", Rating: intPtr(3)},
		{Genres: "Horror", Keywords: "slasher", Runtime: 80, ReleaseDate: date(1980), OriginalLanguage: "de", Rating: intPtr(2)}, // 权重 0，不参与
	}

	ctx := buildWeightedContext(rows, func(r *int) float64 {
		return profileWeight(r, 0.2)
	}, 8, 20)
	require.NotNil(t, ctx)

	require.True(t, ctx.Genres.Has("thriller"))
	require.True(t, ctx.Genres.Has("mystery"))
	require.True(t, ctx.Genres.Has("comedy"))
	require.False(t, ctx.Genres.Has("horror"))

	require.True(t, ctx.Style.Has("neo-noir"))
	require.True(t, ctx.Style.Has("satire"))

	// 加权均值: (120*1.0 + 90*0.2) / 1.2 = 115
	require.Equal(t, 115, ctx.Runtime)
	// (2000*1.0 + 2020*0.2) / 1.2 = 2003
	require.Equal(t, 2003, ctx.Year)
	// 权重最高的语言
	require.Equal(t, "en", ctx.Language)
}

func TestBuildWeightedContextEmpty(t *testing.T) {
	require.Nil(t, buildWeightedContext(nil, dislikeWeight, 8, 20))

	// 全部权重为 0
	rows := []repository.ScoringRow{{Genres: "Drama", Rating: intPtr(5)}}
	require.Nil(t, buildWeightedContext(rows, dislikeWeight, 8, 20))
}

func TestBuildWeightedEmbedding(t *testing.T) {
	rows := []repository.EmbeddingRatingRow{
		{Embedding: pgvector.NewVector([]float32{1, 0}), Rating: intPtr(5)},
		{Embedding: pgvector.NewVector([]float32{0, 1}), Rating: intPtr(4)},
		{Embedding: pgvector.NewVector([]float32{9, 9}), Rating: intPtr(1)}, // 权重 0
	}

	vec := BuildWeightedEmbedding(rows, func(r *int) float64 {
		return profileWeight(r, 0.2)
	})
	require.Len(t, vec, 2)
	// (1.0*1 + 0.8*0)/1.8, (1.0*0 + 0.8*1)/1.8
	require.InDelta(t, 1.0/1.8, vec[0], 1e-6)
	require.InDelta(t, 0.8/1.8, vec[1], 1e-6)
}

func TestBuildWeightedEmbeddingEmpty(t *testing.T) {
	require.Nil(t, BuildWeightedEmbedding(nil, dislikeWeight))

	rows := []repository.EmbeddingRatingRow{
		{Embedding: pgvector.NewVector([]float32{1, 2}), Rating: intPtr(5)},
	}
	require.Nil(t, BuildWeightedEmbedding(rows, dislikeWeight))
}

func TestL2Normalize(t *testing.T) {
	out := L2Normalize([]float32{3, 4})
	require.InDelta(t, 0.6, out[0], 1e-6)
	require.InDelta(t, 0.8, out[1], 1e-6)

	var norm float64
	for _, v := range out {
		norm += float64(v) * float64(v)
	}
	require.InDelta(t, 1.0, math.Sqrt(norm), 1e-6)

	// 零向量原样返回
	zero := L2Normalize([]float32{0, 0})
	require.Equal(t, []float32{0, 0}, zero)
}

func TestCosineDistance(t *testing.T) {
	require.InDelta(t, 0.0, CosineDistance([]float32{1, 0}, []float32{2, 0}), 1e-6)
	require.InDelta(t, 1.0, CosineDistance([]float32{1, 0}, []float32{0, 1}), 1e-6)
	require.InDelta(t, 2.0, CosineDistance([]float32{1, 0}, []float32{-1, 0}), 1e-6)

	// 维度不一致或空向量按最大不相似处理
	require.Equal(t, 1.0, CosineDistance([]float32{1}, []float32{1, 2}))
	require.Equal(t, 1.0, CosineDistance(nil, []float32{1}))
}
