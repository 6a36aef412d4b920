package service

import (
	"math"
	"sort"

	"github.com/user/tastekid/internal/model"
)

// 特征权重表：相似度为主项，内容特征做加减分
const (
	weightSimilarity = 1.00
	weightGenre      = 0.25
	weightStyle      = 0.15
	weightRuntime    = 0.05
	weightYear       = 0.05
	weightLanguage   = 0.05
	weightPopularity = 0.05
	weightTonal      = 0.10

	// 正向权重之和，单候选批次归一化时作分母
	totalPositiveWeight = weightSimilarity + weightGenre + weightStyle +
		weightRuntime + weightYear + weightLanguage + weightPopularity

	runtimeProximityScale = 60.0 // 分钟
	yearProximityScale    = 30.0 // 年
)

// 调性冲突判定：惊悚系 vs 合家欢系
var (
	tonalDark   = StringSet{"horror": {}, "thriller": {}}
	tonalFamily = StringSet{"family": {}, "animation": {}}
)

// ScoringContext 打分上下文：锚点电影或用户喜好聚合出的特征束
type ScoringContext struct {
	Genres   StringSet
	Keywords StringSet
	Style    StringSet
	Runtime  int    // 0 表示未知
	Year     int    // 0 表示未知
	Language string // 空表示未知
}

// BuildMovieContext 从电影元数据构建打分上下文
func BuildMovieContext(m *model.Movie) ScoringContext {
	keywords := ParseTokens(m.Keywords)
	return ScoringContext{
		Genres:   ParseTokens(m.Genres),
		Keywords: keywords,
		Style:    FilterStyle(keywords),
		Runtime:  m.Runtime,
		Year:     m.Year(),
		Language: NormalizeLanguage(m.OriginalLanguage),
	}
}

// Candidate 召回候选：索引距离 + 元数据，打分字段由 Rerank 填充
type Candidate struct {
	Movie           model.Movie
	Distance        float64
	DislikeDistance *float64 // 与负反馈质心的距离（仅用户模式且负反馈生效时）

	likeRaw    float64
	dislikeRaw *float64
	Score      float64 // 批内归一化后的最终得分 [0,1]
}

// DislikeSignal 负反馈信号：达到 DISLIKE_MIN_COUNT 后参与惩罚
type DislikeSignal struct {
	Context ScoringContext
	Count   int
}

// ScoreFeatures 确定性特征打分：
// 默认随余弦相似度单调，内容重合做加分，调性冲突做减分
func ScoreFeatures(anchor, candidate ScoringContext, distance float64, voteCount, voteCountCap int64) float64 {
	// <=> 给出的是余弦距离，相似度裁剪进 [0,1]
	sim := clamp01(1.0 - distance)

	genreJaccard := Jaccard(anchor.Genres, candidate.Genres)
	styleJaccard := Jaccard(anchor.Style, candidate.Style)

	runtimeProximity := 0.0
	if anchor.Runtime > 0 && candidate.Runtime > 0 {
		delta := math.Abs(float64(anchor.Runtime - candidate.Runtime))
		runtimeProximity = 1.0 - math.Min(1.0, delta/runtimeProximityScale)
	}

	yearProximity := 0.0
	if anchor.Year > 0 && candidate.Year > 0 {
		delta := math.Abs(float64(anchor.Year - candidate.Year))
		yearProximity = 1.0 - math.Min(1.0, delta/yearProximityScale)
	}

	langMatch := 0.0
	if anchor.Language != "" && anchor.Language == candidate.Language {
		langMatch = 1.0
	}

	quality := 0.0
	if voteCountCap > 0 && voteCount > 0 {
		quality = clamp01(math.Log10(1+float64(voteCount)) / math.Log10(1+float64(voteCountCap)))
	}

	tonalMismatch := 0.0
	if (intersects(anchor.Genres, tonalDark) && intersects(candidate.Genres, tonalFamily)) ||
		(intersects(anchor.Genres, tonalFamily) && intersects(candidate.Genres, tonalDark)) {
		tonalMismatch = 1.0
	}

	return weightSimilarity*sim +
		weightGenre*genreJaccard +
		weightStyle*styleJaccard +
		weightRuntime*runtimeProximity +
		weightYear*yearProximity +
		weightLanguage*langMatch +
		weightPopularity*quality -
		weightTonal*tonalMismatch
}

// Rerank 对候选批次打分并排序：
// 原始分在批内做 min-max 归一化，负反馈分同样归一化后按权重扣减；
// 排序键 final 降序 → 距离升序 → vote_count 降序 → id 升序，跨副本确定
func Rerank(anchor ScoringContext, candidates []*Candidate, dislike *DislikeSignal, dislikeWeight float64, voteCountCap int64, topN int) []*Candidate {
	if len(candidates) == 0 {
		return nil
	}

	likeRaw := make([]float64, len(candidates))
	for i, c := range candidates {
		ctx := BuildMovieContext(&c.Movie)
		c.likeRaw = ScoreFeatures(anchor, ctx, c.Distance, c.Movie.VoteCount, voteCountCap)
		likeRaw[i] = c.likeRaw

		if dislike != nil && c.DislikeDistance != nil {
			d := ScoreFeatures(dislike.Context, ctx, *c.DislikeDistance, c.Movie.VoteCount, voteCountCap)
			c.dislikeRaw = &d
		}
	}

	likeNorm := normalizeBatch(likeRaw)

	var dislikeNorm []float64
	if dislike != nil {
		raw := make([]float64, 0, len(candidates))
		for _, c := range candidates {
			if c.dislikeRaw != nil {
				raw = append(raw, *c.dislikeRaw)
			}
		}
		dislikeNorm = normalizeBatch(raw)
	}

	di := 0
	for i, c := range candidates {
		final := likeNorm[i]
		if dislike != nil && c.dislikeRaw != nil {
			final -= dislikeWeight * dislikeNorm[di]
			di++
		}
		c.Score = clamp01(final)
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.Distance != b.Distance {
			return a.Distance < b.Distance
		}
		if a.Movie.VoteCount != b.Movie.VoteCount {
			return a.Movie.VoteCount > b.Movie.VoteCount
		}
		return a.Movie.ID < b.Movie.ID
	})

	if topN > 0 && len(candidates) > topN {
		candidates = candidates[:topN]
	}
	return candidates
}

// normalizeBatch 批内 min-max 归一化；
// 单元素或全等批次退化为 raw/正向权重和 再裁剪
func normalizeBatch(raw []float64) []float64 {
	out := make([]float64, len(raw))
	if len(raw) == 0 {
		return out
	}

	min, max := raw[0], raw[0]
	for _, v := range raw[1:] {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}

	if max == min {
		for i, v := range raw {
			out[i] = clamp01(v / totalPositiveWeight)
		}
		return out
	}

	span := max - min
	for i, v := range raw {
		out[i] = (v - min) / span
	}
	return out
}

// MatchScore 单候选评分投影到 0..100 整数
func MatchScore(raw float64) int {
	score := clamp01(raw/totalPositiveWeight) * 100
	n := int(math.Round(score))
	if n < 0 {
		return 0
	}
	if n > 100 {
		return 100
	}
	return n
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func intersects(a, b StringSet) bool {
	for item := range a {
		if b.Has(item) {
			return true
		}
	}
	return false
}
