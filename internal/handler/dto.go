package handler

import (
	"strings"
	"time"

	"github.com/user/tastekid/internal/model"
	"github.com/user/tastekid/internal/service"
)

// movieItem 列表行（相似/推荐/信息流共用）
type movieItem struct {
	ID          int64    `json:"id"`
	Title       string   `json:"title"`
	ReleaseDate *string  `json:"release_date"`
	Genres      []string `json:"genres"`
	Distance    *float64 `json:"distance,omitempty"`
	Similarity  *float64 `json:"similarity,omitempty"`
	Score       *float64 `json:"score"`
	Source      string   `json:"source,omitempty"`
	PosterURL   *string  `json:"poster_url"`
	BackdropURL *string  `json:"backdrop_url"`
}

// movieDetail 电影详情
type movieDetail struct {
	ID               int64    `json:"id"`
	Title            string   `json:"title"`
	OriginalTitle    string   `json:"original_title"`
	ReleaseDate      *string  `json:"release_date"`
	Runtime          int      `json:"runtime"`
	OriginalLanguage string   `json:"original_language"`
	VoteAverage      float64  `json:"vote_average"`
	VoteCount        int64    `json:"vote_count"`
	Genres           []string `json:"genres"`
	Keywords         []string `json:"keywords"`
	Overview         string   `json:"overview"`
	Tagline          string   `json:"tagline"`
	PosterURL        *string  `json:"poster_url"`
	BackdropURL      *string  `json:"backdrop_url"`
}

// queueItem 打分队列行
type queueItem struct {
	ID          int64    `json:"id"`
	Title       string   `json:"title"`
	ReleaseDate *string  `json:"release_date"`
	Genres      []string `json:"genres"`
	VoteAverage float64  `json:"vote_average"`
	PosterURL   *string  `json:"poster_url"`
	BackdropURL *string  `json:"backdrop_url"`
}

// nextItem 下一部建议
type nextItem struct {
	ID          int64    `json:"id"`
	Title       string   `json:"title"`
	ReleaseDate *string  `json:"release_date"`
	Genres      []string `json:"genres"`
	Source      string   `json:"source"`
	PosterURL   *string  `json:"poster_url"`
	BackdropURL *string  `json:"backdrop_url"`
}

// ratedItem 评分历史行
type ratedItem struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Rating      *int      `json:"rating"`
	Status      string    `json:"status"`
	UpdatedAt   time.Time `json:"updated_at"`
	PosterURL   *string   `json:"poster_url"`
	BackdropURL *string   `json:"backdrop_url"`
}

// userSummary 用户概要
type userSummary struct {
	ID               int64      `json:"id"`
	DisplayName      *string    `json:"display_name"`
	NumRatings       int        `json:"num_ratings"`
	ProfileUpdatedAt *time.Time `json:"profile_updated_at"`
}

// profileStats 画像统计
type profileStats struct {
	UserID        int64      `json:"user_id"`
	NumRatings    int        `json:"num_ratings"`
	NumLiked      int        `json:"num_liked"`
	EmbeddingNorm *float64   `json:"embedding_norm"`
	UpdatedAt     *time.Time `json:"updated_at"`
}

// imageURL 拼接 TMDB 图片地址，path 为空返回 nil
func imageURL(base, size, path string) *string {
	if path == "" {
		return nil
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	url := strings.TrimRight(base, "/") + "/" + size + path
	return &url
}

func (h *Handler) posterURL(path string) *string {
	return imageURL(h.cfg.TMDBImageBaseURL, h.cfg.TMDBPosterSize, path)
}

func (h *Handler) backdropURL(path string) *string {
	return imageURL(h.cfg.TMDBImageBaseURL, h.cfg.TMDBBackdropSize, path)
}

// formatDate 输出 YYYY-MM-DD，未知返回 nil
func formatDate(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format("2006-01-02")
	return &s
}

// splitList 逗号分隔串转列表（保留原大小写）
func splitList(value string) []string {
	out := []string{}
	for _, part := range strings.Split(value, ",") {
		if token := strings.TrimSpace(part); token != "" {
			out = append(out, token)
		}
	}
	return out
}

func (h *Handler) toMovieItem(row service.ScoredMovie) movieItem {
	return movieItem{
		ID:          row.Movie.ID,
		Title:       row.Movie.Title,
		ReleaseDate: formatDate(row.Movie.ReleaseDate),
		Genres:      splitList(row.Movie.Genres),
		Distance:    row.Distance,
		Similarity:  row.Similarity,
		Score:       row.Score,
		Source:      row.Source,
		PosterURL:   h.posterURL(row.Movie.PosterPath),
		BackdropURL: h.backdropURL(row.Movie.BackdropPath),
	}
}

func (h *Handler) toMovieDetail(m *model.Movie) movieDetail {
	return movieDetail{
		ID:               m.ID,
		Title:            m.Title,
		OriginalTitle:    m.OriginalTitle,
		ReleaseDate:      formatDate(m.ReleaseDate),
		Runtime:          m.Runtime,
		OriginalLanguage: m.OriginalLanguage,
		VoteAverage:      m.VoteAverage,
		VoteCount:        m.VoteCount,
		Genres:           splitList(m.Genres),
		Keywords:         splitList(m.Keywords),
		Overview:         m.Overview,
		Tagline:          m.Tagline,
		PosterURL:        h.posterURL(m.PosterPath),
		BackdropURL:      h.backdropURL(m.BackdropPath),
	}
}
