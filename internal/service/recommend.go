package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/pgvector/pgvector-go"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/user/tastekid/internal/config"
	"github.com/user/tastekid/internal/model"
	"github.com/user/tastekid/internal/repository"
	"github.com/user/tastekid/internal/utils"
)

// ScoredMovie 推荐/相似结果行
type ScoredMovie struct {
	Movie      model.Movie
	Distance   *float64 // 余弦距离（向量召回路径才有）
	Similarity *float64 // 1 - distance，裁剪进 [0,1]
	Score      *float64 // 重排得分，重排关闭或热度兜底时为 nil
	Source     string   // profile / popularity，信息流接口使用
}

// NextResult 下一部建议
type NextResult struct {
	Movie  model.Movie
	Source string // profile / popularity
}

// scoredPage 分页缓存条目
type scoredPage struct {
	Items   []ScoredMovie
	HasMore bool
}

// RecommendService 推荐服务：相似检索、个性化推荐、评分写入
type RecommendService struct {
	db      *gorm.DB
	repos   *repository.Repositories
	cfg     *config.Config
	builder *ProfileBuilder

	// 相似结果只依赖电影库，可以放心缓存；
	// 用户相关结果不进这层缓存，兜底信息流走全局 go-cache
	simCache *utils.ResultCache[scoredPage]
}

// NewRecommendService 创建推荐服务
func NewRecommendService(db *gorm.DB, repos *repository.Repositories, cfg *config.Config) *RecommendService {
	return &RecommendService{
		db:       db,
		repos:    repos,
		cfg:      cfg,
		builder:  NewProfileBuilder(cfg),
		simCache: utils.NewResultCache[scoredPage](1024, 5*time.Minute),
	}
}

// Rate 写入或更新评分，并在同一事务内同步重建画像。
// 规则：rating 与 status 至少一个非空；status 缺省时有评分按 watched、
// 无评分按 unwatched；unwatched 强制清空已存评分。
func (s *RecommendService) Rate(ctx context.Context, userID, movieID int64, rating *int, status string) (*model.UserMovieRating, error) {
	if rating == nil && status == "" {
		return nil, ErrInvalidArgument
	}
	if rating != nil && (*rating < 0 || *rating > 5) {
		return nil, ErrInvalidArgument
	}
	switch status {
	case "":
		if rating != nil {
			status = model.StatusWatched
		} else {
			status = model.StatusUnwatched
		}
	case model.StatusWatched, model.StatusUnwatched:
	default:
		return nil, ErrInvalidArgument
	}
	if status == model.StatusUnwatched {
		rating = nil
	}

	rec := &model.UserMovieRating{
		UserID:  userID,
		MovieID: movieID,
		Rating:  rating,
		Status:  status,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txRepos := repository.NewRepositories(tx)

		// FOR UPDATE 串行化同一用户的并发评分写入，
		// 保证画像重建读到的评分集合与本次写入一致
		if err := txRepos.User.LockForUpdate(ctx, userID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrUserNotFound
			}
			return err
		}

		movie, err := txRepos.Movie.FindByID(ctx, movieID)
		if err != nil {
			return err
		}
		if movie == nil {
			return ErrMovieNotFound
		}

		if err := txRepos.Rating.Upsert(ctx, rec); err != nil {
			return err
		}
		return s.builder.Rebuild(ctx, txRepos, userID)
	})
	if err != nil {
		return nil, err
	}

	utils.CacheDeletePrefix(fmt.Sprintf("feed:%d:", userID))
	return rec, nil
}

// Similar 相似电影：向量召回 + 内容重排，offset 分页
func (s *RecommendService) Similar(ctx context.Context, movieID int64, k, offset int) ([]ScoredMovie, bool, error) {
	cacheKey := fmt.Sprintf("similar:%d:%d:%d:%t", movieID, k, offset, s.cfg.SimRerankEnabled)
	if page, ok := s.simCache.Get(cacheKey); ok {
		return page.Items, page.HasMore, nil
	}

	var anchor *model.Movie
	err := retryRead(ctx, func() error {
		var err error
		anchor, err = s.repos.Movie.FindByID(ctx, movieID)
		return err
	})
	if err != nil {
		return nil, false, err
	}
	if anchor == nil {
		return nil, false, ErrMovieNotFound
	}

	var anchorEmb *model.MovieEmbedding
	err = retryRead(ctx, func() error {
		var err error
		anchorEmb, err = s.repos.Embedding.FindByMovieID(ctx, movieID)
		return err
	})
	if err != nil {
		return nil, false, err
	}
	if anchorEmb == nil {
		return nil, false, ErrEmbeddingNotFound
	}

	// 多取一条判断 has_more
	kFinal := offset + k + 1
	kFetch := kFinal * s.cfg.RerankFetchMultiplier
	if kFetch < s.cfg.SimCandidatesK {
		kFetch = s.cfg.SimCandidatesK
	}
	if kFetch > s.cfg.MaxFetchCandidates {
		kFetch = s.cfg.MaxFetchCandidates
	}

	candidates, err := s.sourceCandidates(ctx, anchorEmb.Embedding, kFetch, movieID, 0)
	if err != nil {
		return nil, false, err
	}

	// 重排窗口至少保留 SIM_TOP_N，深翻页时随之扩大
	topN := kFinal
	if s.cfg.SimTopN > topN {
		topN = s.cfg.SimTopN
	}

	var ranked []*Candidate
	withScore := s.cfg.SimRerankEnabled
	if withScore {
		ranked = Rerank(BuildMovieContext(anchor), candidates, nil, 0, s.cfg.VoteCountCap, topN)
	} else {
		// 重排关闭：直接取索引序
		ranked = candidates
		if len(ranked) > kFinal {
			ranked = ranked[:kFinal]
		}
	}

	items, hasMore := paginate(ranked, k, offset, withScore, "")
	s.simCache.Set(cacheKey, scoredPage{Items: items, HasMore: hasMore})
	return items, hasMore, nil
}

// Recommendations 个性化推荐：画像向量召回 + 口味上下文重排 + 负反馈惩罚
func (s *RecommendService) Recommendations(ctx context.Context, userID int64, k, offset int) ([]ScoredMovie, bool, error) {
	var profile *model.UserProfile
	err := retryRead(ctx, func() error {
		var err error
		profile, err = s.repos.Profile.Find(ctx, userID)
		return err
	})
	if err != nil {
		return nil, false, err
	}
	if profile == nil {
		exists, err := s.userExists(ctx, userID)
		if err != nil {
			return nil, false, err
		}
		if !exists {
			return nil, false, ErrUserNotFound
		}
		return nil, false, ErrProfileNotFound
	}

	kFinal := offset + k + 1
	kFetch := kFinal * s.cfg.RerankFetchMultiplier
	if kFetch > s.cfg.MaxFetchCandidates {
		kFetch = s.cfg.MaxFetchCandidates
	}

	var (
		candidates  []*Candidate
		likeRows    []repository.ScoringRow
		dislikeRows []repository.ScoringRow
		dislikeEmbs []repository.EmbeddingRatingRow
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		candidates, err = s.sourceCandidates(gctx, profile.Embedding, kFetch, 0, userID)
		return err
	})
	g.Go(func() error {
		return retryRead(gctx, func() error {
			var err error
			likeRows, err = s.repos.Rating.ScoringRows(gctx, userID, 3, 5, s.cfg.ScoringContextLimit)
			return err
		})
	})
	g.Go(func() error {
		return retryRead(gctx, func() error {
			var err error
			dislikeRows, err = s.repos.Rating.ScoringRows(gctx, userID, 0, 2, s.cfg.ScoringContextLimit)
			return err
		})
	})
	g.Go(func() error {
		return retryRead(gctx, func() error {
			var err error
			dislikeEmbs, err = s.repos.Rating.DislikedEmbeddings(gctx, userID)
			return err
		})
	})
	if err := g.Wait(); err != nil {
		return nil, false, err
	}

	likeCtx := buildWeightedContext(likeRows, func(r *int) float64 {
		return profileWeight(r, s.cfg.NeutralRatingWeight)
	}, s.cfg.MaxScoringGenres, s.cfg.MaxScoringKeywords)

	dislike, err := s.dislikeSignal(ctx, candidates, dislikeRows, dislikeEmbs)
	if err != nil {
		return nil, false, err
	}

	var ranked []*Candidate
	withScore := likeCtx != nil
	if withScore {
		ranked = Rerank(*likeCtx, candidates, dislike, s.cfg.DislikeWeight, s.cfg.VoteCountCap, kFinal)
	} else {
		// 画像存在但上下文为空（理论上不会发生），退回索引序
		ranked = candidates
		if len(ranked) > kFinal {
			ranked = ranked[:kFinal]
		}
	}

	items, hasMore := paginate(ranked, k, offset, withScore, "profile")
	return items, hasMore, nil
}

// dislikeSignal 构建负反馈信号并给候选填充与质心的距离；
// 负反馈样本不足 DISLIKE_MIN_COUNT 时返回 nil，不做惩罚
func (s *RecommendService) dislikeSignal(ctx context.Context, candidates []*Candidate, rows []repository.ScoringRow, embs []repository.EmbeddingRatingRow) (*DislikeSignal, error) {
	if len(embs) < s.cfg.DislikeMinCount || len(candidates) == 0 {
		return nil, nil
	}

	centroid := BuildWeightedEmbedding(embs, dislikeWeight)
	dislikeCtx := buildWeightedContext(rows, dislikeWeight, s.cfg.MaxScoringGenres, s.cfg.MaxScoringKeywords)
	if centroid == nil || dislikeCtx == nil {
		return nil, nil
	}

	ids := make([]int64, 0, len(candidates))
	for _, c := range candidates {
		ids = append(ids, c.Movie.ID)
	}
	var candEmbs []model.MovieEmbedding
	err := retryRead(ctx, func() error {
		var err error
		candEmbs, err = s.repos.Embedding.FindByMovieIDs(ctx, ids)
		return err
	})
	if err != nil {
		return nil, err
	}
	byID := make(map[int64][]float32, len(candEmbs))
	for i := range candEmbs {
		byID[candEmbs[i].MovieID] = candEmbs[i].Embedding.Slice()
	}
	for _, c := range candidates {
		if vec, ok := byID[c.Movie.ID]; ok {
			d := CosineDistance(vec, centroid)
			c.DislikeDistance = &d
		}
	}

	return &DislikeSignal{Context: *dislikeCtx, Count: len(embs)}, nil
}

// Feed 信息流：有画像走个性化推荐，冷启动回退热度队列
func (s *RecommendService) Feed(ctx context.Context, userID int64, k, offset int) ([]ScoredMovie, bool, error) {
	items, hasMore, err := s.Recommendations(ctx, userID, k, offset)
	if err == nil {
		return items, hasMore, nil
	}
	if !errors.Is(err, ErrProfileNotFound) {
		return nil, false, err
	}

	cacheKey := fmt.Sprintf("feed:%d:%d:%d", userID, k, offset)
	if cached, ok := utils.CacheGet(cacheKey); ok {
		if page, ok := cached.(scoredPage); ok {
			return page.Items, page.HasMore, nil
		}
	}

	var movies []model.Movie
	err = retryRead(ctx, func() error {
		var err error
		movies, err = s.repos.Movie.PopularityQueue(ctx, userID, k+1, offset)
		return err
	})
	if err != nil {
		return nil, false, err
	}
	hasMore = len(movies) > k
	if hasMore {
		movies = movies[:k]
	}
	items = make([]ScoredMovie, 0, len(movies))
	for i := range movies {
		items = append(items, ScoredMovie{Movie: movies[i], Source: "popularity"})
	}

	utils.CacheSet(cacheKey, scoredPage{Items: items, HasMore: hasMore}, 1*time.Minute)
	return items, hasMore, nil
}

// RatingQueue 打分队列：按热度出未评分电影，供用户快速建立画像
func (s *RecommendService) RatingQueue(ctx context.Context, userID int64, k, offset int) ([]model.Movie, bool, error) {
	exists, err := s.userExists(ctx, userID)
	if err != nil {
		return nil, false, err
	}
	if !exists {
		return nil, false, ErrUserNotFound
	}

	var movies []model.Movie
	err = retryRead(ctx, func() error {
		var err error
		movies, err = s.repos.Movie.PopularityQueue(ctx, userID, k+1, offset)
		return err
	})
	if err != nil {
		return nil, false, err
	}
	hasMore := len(movies) > k
	if hasMore {
		movies = movies[:k]
	}
	return movies, hasMore, nil
}

// Next 下一部建议：有画像取口味最近邻，否则取热度第一
func (s *RecommendService) Next(ctx context.Context, userID int64) (*NextResult, error) {
	exists, err := s.userExists(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrUserNotFound
	}

	var movie *model.Movie
	err = retryRead(ctx, func() error {
		var err error
		movie, err = s.repos.Movie.NextByProfile(ctx, userID)
		return err
	})
	if err != nil {
		return nil, err
	}
	if movie != nil {
		return &NextResult{Movie: *movie, Source: "profile"}, nil
	}

	var movies []model.Movie
	err = retryRead(ctx, func() error {
		var err error
		movies, err = s.repos.Movie.PopularityQueue(ctx, userID, 1, 0)
		return err
	})
	if err != nil {
		return nil, err
	}
	if len(movies) == 0 {
		return nil, nil // 全库都评过了
	}
	return &NextResult{Movie: movies[0], Source: "popularity"}, nil
}

// Ratings 评分历史列表，支持状态/分数区间/时间窗过滤
func (s *RecommendService) Ratings(ctx context.Context, userID int64, f repository.RatingFilter, k, offset int) ([]repository.RatedMovieRow, bool, error) {
	exists, err := s.userExists(ctx, userID)
	if err != nil {
		return nil, false, err
	}
	if !exists {
		return nil, false, ErrUserNotFound
	}

	var rows []repository.RatedMovieRow
	err = retryRead(ctx, func() error {
		var err error
		rows, err = s.repos.Rating.ListByUser(ctx, userID, f, k+1, offset)
		return err
	})
	if err != nil {
		return nil, false, err
	}
	hasMore := len(rows) > k
	if hasMore {
		rows = rows[:k]
	}
	return rows, hasMore, nil
}

// Match 单部电影与用户口味的契合度（0..100）。
// 用户无画像或电影无向量时返回 nil，调用方渲染 score:null。
func (s *RecommendService) Match(ctx context.Context, userID, movieID int64) (*int, error) {
	var movie *model.Movie
	err := retryRead(ctx, func() error {
		var err error
		movie, err = s.repos.Movie.FindByID(ctx, movieID)
		return err
	})
	if err != nil {
		return nil, err
	}
	if movie == nil {
		return nil, ErrMovieNotFound
	}

	exists, err := s.userExists(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrUserNotFound
	}

	var profile *model.UserProfile
	err = retryRead(ctx, func() error {
		var err error
		profile, err = s.repos.Profile.Find(ctx, userID)
		return err
	})
	if err != nil {
		return nil, err
	}
	var emb *model.MovieEmbedding
	err = retryRead(ctx, func() error {
		var err error
		emb, err = s.repos.Embedding.FindByMovieID(ctx, movieID)
		return err
	})
	if err != nil {
		return nil, err
	}
	if profile == nil || emb == nil {
		return nil, nil
	}

	distance := CosineDistance(emb.Embedding.Slice(), profile.Embedding.Slice())
	candCtx := BuildMovieContext(movie)

	var likeRows []repository.ScoringRow
	err = retryRead(ctx, func() error {
		var err error
		likeRows, err = s.repos.Rating.ScoringRows(ctx, userID, 3, 5, s.cfg.ScoringContextLimit)
		return err
	})
	if err != nil {
		return nil, err
	}
	likeCtx := buildWeightedContext(likeRows, func(r *int) float64 {
		return profileWeight(r, s.cfg.NeutralRatingWeight)
	}, s.cfg.MaxScoringGenres, s.cfg.MaxScoringKeywords)

	if likeCtx == nil {
		// 无上下文时退化为纯相似度百分比
		percent := int(math.Round(clamp01(1.0-distance) * 100))
		return &percent, nil
	}

	rawLike := ScoreFeatures(*likeCtx, candCtx, distance, movie.VoteCount, s.cfg.VoteCountCap)

	var dislikeEmbs []repository.EmbeddingRatingRow
	err = retryRead(ctx, func() error {
		var err error
		dislikeEmbs, err = s.repos.Rating.DislikedEmbeddings(ctx, userID)
		return err
	})
	if err != nil {
		return nil, err
	}
	if len(dislikeEmbs) < s.cfg.DislikeMinCount {
		percent := MatchScore(rawLike)
		return &percent, nil
	}

	// 单候选没有批次，按正向权重和归一化
	final := clamp01(rawLike / totalPositiveWeight)

	var dislikeRows []repository.ScoringRow
	err = retryRead(ctx, func() error {
		var err error
		dislikeRows, err = s.repos.Rating.ScoringRows(ctx, userID, 0, 2, s.cfg.ScoringContextLimit)
		return err
	})
	if err != nil {
		return nil, err
	}
	centroid := BuildWeightedEmbedding(dislikeEmbs, dislikeWeight)
	dislikeCtx := buildWeightedContext(dislikeRows, dislikeWeight, s.cfg.MaxScoringGenres, s.cfg.MaxScoringKeywords)
	if centroid != nil && dislikeCtx != nil {
		dDislike := CosineDistance(emb.Embedding.Slice(), centroid)
		rawDislike := ScoreFeatures(*dislikeCtx, candCtx, dDislike, movie.VoteCount, s.cfg.VoteCountCap)
		final = clamp01(final - s.cfg.DislikeWeight*clamp01(rawDislike/totalPositiveWeight))
	}

	percent := int(math.Round(final * 100))
	return &percent, nil
}

// userExists 用户存在性检查，读路径统一走一次重试
func (s *RecommendService) userExists(ctx context.Context, userID int64) (bool, error) {
	var exists bool
	err := retryRead(ctx, func() error {
		var err error
		exists, err = s.repos.User.Exists(ctx, userID)
		return err
	})
	return exists, err
}

// sourceCandidates 候选召回：KNN over-fetch，裁掉锚点自身与该用户已评电影，
// 再批量水合元数据。userID 为 0 表示相似模式（无排除集）。
func (s *RecommendService) sourceCandidates(ctx context.Context, query pgvector.Vector, kFetch int, excludeID, userID int64) ([]*Candidate, error) {
	var (
		knn  []repository.KNNResult
		seen map[int64]struct{}
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return retryRead(gctx, func() error {
			var err error
			knn, err = s.repos.Embedding.KNN(gctx, query, kFetch)
			return err
		})
	})
	if userID > 0 {
		g.Go(func() error {
			return retryRead(gctx, func() error {
				var err error
				seen, err = s.repos.Rating.SeenMovieIDs(gctx, userID)
				return err
			})
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	ids := make([]int64, 0, len(knn))
	distances := make(map[int64]float64, len(knn))
	for _, r := range knn {
		if r.MovieID == excludeID {
			continue
		}
		if _, ok := seen[r.MovieID]; ok {
			continue
		}
		if _, dup := distances[r.MovieID]; dup {
			continue
		}
		ids = append(ids, r.MovieID)
		distances[r.MovieID] = r.Distance
	}
	if len(ids) == 0 {
		return nil, nil
	}

	var movies []model.Movie
	err := retryRead(ctx, func() error {
		var err error
		movies, err = s.repos.Movie.FindByIDs(ctx, ids)
		return err
	})
	if err != nil {
		return nil, err
	}
	byID := make(map[int64]*model.Movie, len(movies))
	for i := range movies {
		byID[movies[i].ID] = &movies[i]
	}

	// 按索引距离升序组装，元数据缺失的候选直接丢弃
	candidates := make([]*Candidate, 0, len(ids))
	for _, id := range ids {
		movie, ok := byID[id]
		if !ok {
			continue
		}
		candidates = append(candidates, &Candidate{
			Movie:    *movie,
			Distance: distances[id],
		})
	}
	return candidates, nil
}

// paginate 截取 [offset, offset+k)，并把候选转换为结果行
func paginate(ranked []*Candidate, k, offset int, withScore bool, source string) ([]ScoredMovie, bool) {
	hasMore := len(ranked) > offset+k
	if offset >= len(ranked) {
		return []ScoredMovie{}, false
	}
	end := offset + k
	if end > len(ranked) {
		end = len(ranked)
	}

	items := make([]ScoredMovie, 0, end-offset)
	for _, c := range ranked[offset:end] {
		distance := c.Distance
		similarity := clamp01(1.0 - c.Distance)
		row := ScoredMovie{
			Movie:      c.Movie,
			Distance:   &distance,
			Similarity: &similarity,
			Source:     source,
		}
		if withScore {
			score := c.Score
			row.Score = &score
		}
		items = append(items, row)
	}
	return items, hasMore
}
