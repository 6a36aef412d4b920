package handler

import (
	"fmt"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/user/tastekid/internal/model"
	"github.com/user/tastekid/internal/repository"
	"github.com/user/tastekid/internal/utils"
)

// createUserRequest 创建用户请求体
type createUserRequest struct {
	DisplayName *string `json:"display_name" binding:"omitempty,max=100"`
}

// putRatingRequest 评分请求体，rating/status 至少一个非空，由服务层裁决
type putRatingRequest struct {
	Rating *int   `json:"rating" binding:"omitempty,min=0,max=5"`
	Status string `json:"status" binding:"omitempty,oneof=watched unwatched"`
}

// CreateUser 创建用户
// POST /v1/users
func (h *Handler) CreateUser(c *gin.Context) {
	var req createUserRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			bindError(c, err)
			return
		}
	}

	user, err := h.users.Create(c.Request.Context(), req.DisplayName)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, userSummary{
		ID:          user.ID,
		DisplayName: user.DisplayName,
	})
}

// GetUser 用户概要
// GET /v1/users/:id
func (h *Handler) GetUser(c *gin.Context) {
	id, ok := h.pathUserID(c)
	if !ok {
		return
	}

	summary, err := h.users.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, userSummary{
		ID:               summary.ID,
		DisplayName:      summary.DisplayName,
		NumRatings:       summary.NumRatings,
		ProfileUpdatedAt: summary.ProfileUpdatedAt,
	})
}

// Profile 画像统计
// GET /v1/users/:id/profile
func (h *Handler) Profile(c *gin.Context) {
	id, ok := h.pathUserID(c)
	if !ok {
		return
	}

	stats, err := h.users.Stats(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, profileStats{
		UserID:        stats.UserID,
		NumRatings:    stats.NumRatings,
		NumLiked:      stats.NumLiked,
		EmbeddingNorm: stats.EmbeddingNorm,
		UpdatedAt:     stats.UpdatedAt,
	})
}

// PutRating 写入/更新评分（幂等，同体重放安全）
// PUT /v1/users/:id/ratings/:movie_id
func (h *Handler) PutRating(c *gin.Context) {
	userID, ok := h.pathUserID(c)
	if !ok {
		return
	}
	movieID, err := parseID(c, "movie_id")
	if err != nil {
		invalidArgument(c, err.Error())
		return
	}

	var req putRatingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	if _, err := h.recommend.Rate(c.Request.Context(), userID, movieID, req.Rating, req.Status); err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, gin.H{"status": "ok"})
}

// Ratings 评分历史
// GET /v1/users/:id/ratings?k=&cursor=&status=&rating_min=&rating_max=&days=
func (h *Handler) Ratings(c *gin.Context) {
	id, ok := h.pathUserID(c)
	if !ok {
		return
	}
	k, offset, err := parsePage(c)
	if err != nil {
		invalidArgument(c, err.Error())
		return
	}

	filter, err := parseRatingFilter(c)
	if err != nil {
		invalidArgument(c, err.Error())
		return
	}

	rows, hasMore, err := h.recommend.Ratings(c.Request.Context(), id, filter, k, offset)
	if err != nil {
		respondError(c, err)
		return
	}

	items := make([]ratedItem, 0, len(rows))
	for _, row := range rows {
		items = append(items, ratedItem{
			ID:          row.ID,
			Title:       row.Title,
			Rating:      row.Rating,
			Status:      row.Status,
			UpdatedAt:   row.UpdatedAt,
			PosterURL:   h.posterURL(row.PosterPath),
			BackdropURL: h.backdropURL(row.BackdropPath),
		})
	}
	utils.SuccessPage(c, items, offset+k, hasMore)
}

// RatingQueue 打分队列
// GET /v1/users/:id/rating-queue?k=&cursor=
func (h *Handler) RatingQueue(c *gin.Context) {
	id, ok := h.pathUserID(c)
	if !ok {
		return
	}
	k, offset, err := parsePage(c)
	if err != nil {
		invalidArgument(c, err.Error())
		return
	}

	movies, hasMore, err := h.recommend.RatingQueue(c.Request.Context(), id, k, offset)
	if err != nil {
		respondError(c, err)
		return
	}

	items := make([]queueItem, 0, len(movies))
	for i := range movies {
		m := &movies[i]
		items = append(items, queueItem{
			ID:          m.ID,
			Title:       m.Title,
			ReleaseDate: formatDate(m.ReleaseDate),
			Genres:      splitList(m.Genres),
			VoteAverage: m.VoteAverage,
			PosterURL:   h.posterURL(m.PosterPath),
			BackdropURL: h.backdropURL(m.BackdropPath),
		})
	}
	utils.SuccessPage(c, items, offset+k, hasMore)
}

// Next 下一部建议
// GET /v1/users/:id/next
func (h *Handler) Next(c *gin.Context) {
	id, ok := h.pathUserID(c)
	if !ok {
		return
	}

	next, err := h.recommend.Next(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	if next == nil {
		// 候选耗尽
		utils.Success(c, nil)
		return
	}
	utils.Success(c, nextItem{
		ID:          next.Movie.ID,
		Title:       next.Movie.Title,
		ReleaseDate: formatDate(next.Movie.ReleaseDate),
		Genres:      splitList(next.Movie.Genres),
		Source:      next.Source,
		PosterURL:   h.posterURL(next.Movie.PosterPath),
		BackdropURL: h.backdropURL(next.Movie.BackdropPath),
	})
}

// Recommendations 个性化推荐
// GET /v1/users/:id/recommendations?k=&cursor=
func (h *Handler) Recommendations(c *gin.Context) {
	id, ok := h.pathUserID(c)
	if !ok {
		return
	}
	k, offset, err := parsePage(c)
	if err != nil {
		invalidArgument(c, err.Error())
		return
	}

	rows, hasMore, err := h.recommend.Recommendations(c.Request.Context(), id, k, offset)
	if err != nil {
		respondError(c, err)
		return
	}

	items := make([]movieItem, 0, len(rows))
	for _, row := range rows {
		items = append(items, h.toMovieItem(row))
	}
	utils.SuccessPage(c, items, offset+k, hasMore)
}

// Feed 信息流（冷启动回退热度）
// GET /v1/users/:id/feed?k=&cursor=
func (h *Handler) Feed(c *gin.Context) {
	id, ok := h.pathUserID(c)
	if !ok {
		return
	}
	k, offset, err := parsePage(c)
	if err != nil {
		invalidArgument(c, err.Error())
		return
	}

	rows, hasMore, err := h.recommend.Feed(c.Request.Context(), id, k, offset)
	if err != nil {
		respondError(c, err)
		return
	}

	items := make([]movieItem, 0, len(rows))
	for _, row := range rows {
		items = append(items, h.toMovieItem(row))
	}
	utils.SuccessPage(c, items, offset+k, hasMore)
}

// Match 单部电影契合度
// GET /v1/users/:id/movies/:movie_id/match
func (h *Handler) Match(c *gin.Context) {
	userID, ok := h.pathUserID(c)
	if !ok {
		return
	}
	movieID, err := parseID(c, "movie_id")
	if err != nil {
		invalidArgument(c, err.Error())
		return
	}

	score, err := h.recommend.Match(c.Request.Context(), userID, movieID)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, gin.H{"score": score})
}

// parseRatingFilter 解析评分历史的过滤参数
func parseRatingFilter(c *gin.Context) (repository.RatingFilter, error) {
	var f repository.RatingFilter

	if status := c.Query("status"); status != "" {
		if status != model.StatusWatched && status != model.StatusUnwatched {
			return f, errInvalidFilter("status", status)
		}
		f.Status = status
	}
	if raw := c.Query("rating_min"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 || n > 5 {
			return f, errInvalidFilter("rating_min", raw)
		}
		f.RatingMin = &n
	}
	if raw := c.Query("rating_max"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 || n > 5 {
			return f, errInvalidFilter("rating_max", raw)
		}
		f.RatingMax = &n
	}
	if raw := c.Query("days"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return f, errInvalidFilter("days", raw)
		}
		f.Days = n
	}
	return f, nil
}

func errInvalidFilter(name, value string) error {
	return fmt.Errorf("过滤参数 %s 无效: %q", name, value)
}
