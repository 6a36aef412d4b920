package model

import (
	"time"

	"github.com/pgvector/pgvector-go"
)

// Movie 电影模型（TMDB 元数据，热路径只读）
type Movie struct {
	ID               int64      `json:"id" db:"id" gorm:"primaryKey"`
	Title            string     `json:"title" db:"title"`
	OriginalTitle    string     `json:"original_title" db:"original_title"`
	ReleaseDate      *time.Time `json:"release_date" db:"release_date"`
	Runtime          int        `json:"runtime" db:"runtime"` // 分钟，0 表示未知
	OriginalLanguage string     `json:"original_language" db:"original_language"`
	VoteAverage      float64    `json:"vote_average" db:"vote_average"`
	VoteCount        int64      `json:"vote_count" db:"vote_count" gorm:"index"`
	Genres           string     `json:"genres" db:"genres"`     // 逗号分隔
	Keywords         string     `json:"keywords" db:"keywords"` // 逗号分隔
	Overview         string     `json:"overview" db:"overview"`
	Tagline          string     `json:"tagline" db:"tagline"`
	PosterPath       string     `json:"poster_path" db:"poster_path"`
	BackdropPath     string     `json:"backdrop_path" db:"backdrop_path"`
}

// TableName 表名
func (Movie) TableName() string {
	return "movies"
}

// Year 上映年份（0 表示未知）
func (m *Movie) Year() int {
	if m.ReleaseDate == nil {
		return 0
	}
	return m.ReleaseDate.Year()
}

// MovieEmbedding 电影向量（每部电影至多一条，由离线管线写入）
type MovieEmbedding struct {
	MovieID        int64           `json:"movie_id" db:"movie_id" gorm:"primaryKey"`
	Embedding      pgvector.Vector `json:"embedding" db:"embedding" gorm:"type:vector(768)"`
	EmbeddingModel string          `json:"embedding_model" db:"embedding_model"`
	DocHash        string          `json:"doc_hash" db:"doc_hash"`
	CreatedAt      time.Time       `json:"created_at" db:"created_at"`
}

// TableName 表名
func (MovieEmbedding) TableName() string {
	return "movie_embeddings"
}
