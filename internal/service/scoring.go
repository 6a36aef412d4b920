package service

import (
	"math"
	"sort"

	"github.com/user/tastekid/internal/repository"
)

// profileWeight 画像权重：5→1.0，4→0.8，3→中性权重，其余不参与
func profileWeight(rating *int, neutralWeight float64) float64 {
	if rating == nil {
		return 0
	}
	r := *rating
	if r < 3 {
		return 0
	}
	if r == 3 {
		return neutralWeight
	}
	return math.Max(0, float64(r)/5.0)
}

// dislikeWeight 负反馈权重：1 分全权重，2 分减半
func dislikeWeight(rating *int) float64 {
	if rating == nil || *rating > 2 {
		return 0
	}
	if *rating <= 1 {
		return 1.0
	}
	return 0.5
}

// weightedCount 加权计数器
type weightedCount struct {
	token  string
	weight float64
}

// topTokens 取权重最高的 N 个标签；权重相同按字典序，保证确定性
func topTokens(counts map[string]float64, n int) StringSet {
	if len(counts) == 0 || n <= 0 {
		return make(StringSet)
	}
	items := make([]weightedCount, 0, len(counts))
	for token, weight := range counts {
		items = append(items, weightedCount{token, weight})
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].weight != items[j].weight {
			return items[i].weight > items[j].weight
		}
		return items[i].token < items[j].token
	})
	if len(items) > n {
		items = items[:n]
	}
	set := make(StringSet, len(items))
	for _, item := range items {
		set[item.token] = struct{}{}
	}
	return set
}

// buildWeightedContext 从最近评分行聚合打分上下文；无有效行返回 nil
func buildWeightedContext(rows []repository.ScoringRow, weightFn func(*int) float64, maxGenres, maxKeywords int) *ScoringContext {
	if len(rows) == 0 {
		return nil
	}

	genreCounts := make(map[string]float64)
	keywordCounts := make(map[string]float64)
	languageCounts := make(map[string]float64)
	var runtimeTotal, runtimeWeight float64
	var yearTotal, yearWeight float64
	var totalWeight float64

	for i := range rows {
		row := &rows[i]
		weight := weightFn(row.Rating)
		if weight <= 0 {
			continue
		}
		totalWeight += weight

		for genre := range ParseTokens(row.Genres) {
			genreCounts[genre] += weight
		}
		for keyword := range ParseTokens(row.Keywords) {
			keywordCounts[keyword] += weight
		}

		if row.Runtime > 0 {
			runtimeTotal += float64(row.Runtime) * weight
			runtimeWeight += weight
		}
		if year := ExtractYear(row.ReleaseDate); year > 0 {
			yearTotal += float64(year) * weight
			yearWeight += weight
		}
		if lang := NormalizeLanguage(row.OriginalLanguage); lang != "" {
			languageCounts[lang] += weight
		}
	}

	if totalWeight <= 0 {
		return nil
	}

	avgRuntime := 0
	if runtimeWeight > 0 {
		avgRuntime = int(runtimeTotal / runtimeWeight)
	}
	avgYear := 0
	if yearWeight > 0 {
		avgYear = int(yearTotal / yearWeight)
	}

	keywords := topTokens(keywordCounts, maxKeywords)
	return &ScoringContext{
		Genres:   topTokens(genreCounts, maxGenres),
		Keywords: keywords,
		Style:    FilterStyle(keywords),
		Runtime:  avgRuntime,
		Year:     avgYear,
		Language: modeToken(languageCounts),
	}
}

// modeToken 权重最高的标签，同权重取字典序最小
func modeToken(counts map[string]float64) string {
	best := ""
	bestWeight := 0.0
	for token, weight := range counts {
		if weight > bestWeight || (weight == bestWeight && (best == "" || token < best)) {
			best = token
			bestWeight = weight
		}
	}
	return best
}

// BuildWeightedEmbedding 评分加权的向量均值；无有效输入返回 nil
func BuildWeightedEmbedding(rows []repository.EmbeddingRatingRow, weightFn func(*int) float64) []float32 {
	var vectorLen int
	for i := range rows {
		if slice := rows[i].Embedding.Slice(); len(slice) > 0 {
			vectorLen = len(slice)
			break
		}
	}
	if vectorLen == 0 {
		return nil
	}

	totals := make([]float64, vectorLen)
	var totalWeight float64

	for i := range rows {
		slice := rows[i].Embedding.Slice()
		if len(slice) != vectorLen {
			continue // 维度不一致的历史数据直接跳过
		}
		weight := weightFn(rows[i].Rating)
		if weight <= 0 {
			continue
		}
		totalWeight += weight
		for idx, value := range slice {
			totals[idx] += float64(value) * weight
		}
	}

	if totalWeight <= 0 {
		return nil
	}

	out := make([]float32, vectorLen)
	for idx, value := range totals {
		out[idx] = float32(value / totalWeight)
	}
	return out
}

// L2Normalize 单位化向量；零向量原样返回
func L2Normalize(vec []float32) []float32 {
	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}
	if sum == 0 {
		return vec
	}
	norm := math.Sqrt(sum)
	out := make([]float32, len(vec))
	for i, v := range vec {
		out[i] = float32(float64(v) / norm)
	}
	return out
}

// CosineDistance 余弦距离 1 - a·b/(|a||b|)，与 pgvector 的 <=> 一致
func CosineDistance(a, b []float32) float64 {
	if len(a) == 0 || len(b) == 0 || len(a) != len(b) {
		return 1.0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 1.0
	}
	return 1.0 - dot/(math.Sqrt(normA)*math.Sqrt(normB))
}
