package repository

import (
	"context"
	"errors"
	"time"

	"github.com/pgvector/pgvector-go"
	"github.com/user/tastekid/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type RatingRepository struct {
	db *gorm.DB
}

func NewRatingRepository(db *gorm.DB) *RatingRepository {
	return &RatingRepository{db: db}
}

// RatingFilter 评分列表过滤条件
type RatingFilter struct {
	Status    string // 空表示不过滤
	RatingMin *int
	RatingMax *int
	Days      int // 最近 N 天，0 表示不过滤
}

// RatedMovieRow 评分列表行（关联电影元数据）
type RatedMovieRow struct {
	ID           int64     `db:"id"`
	Title        string    `db:"title"`
	PosterPath   string    `db:"poster_path"`
	BackdropPath string    `db:"backdrop_path"`
	Rating       *int      `db:"rating"`
	Status       string    `db:"status"`
	UpdatedAt    time.Time `db:"updated_at"`
}

// ScoringRow 打分上下文输入行
type ScoringRow struct {
	Genres           string     `db:"genres"`
	Keywords         string     `db:"keywords"`
	Runtime          int        `db:"runtime"`
	ReleaseDate      *time.Time `db:"release_date"`
	OriginalLanguage string     `db:"original_language"`
	Rating           *int       `db:"rating"`
}

// EmbeddingRatingRow 画像聚合输入行
type EmbeddingRatingRow struct {
	Embedding pgvector.Vector `db:"embedding" gorm:"type:vector(768)"`
	Rating    *int            `db:"rating"`
}

// Upsert 写入评分，冲突时覆盖 rating/status 并刷新 updated_at
func (r *RatingRepository) Upsert(ctx context.Context, rec *model.UserMovieRating) error {
	now := time.Now()
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now
	}
	rec.UpdatedAt = now
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "movie_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"rating", "status", "updated_at"}),
	}).Create(rec).Error
}

// Get 查询单条评分，不存在返回 nil
func (r *RatingRepository) Get(ctx context.Context, userID, movieID int64) (*model.UserMovieRating, error) {
	var rec model.UserMovieRating
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND movie_id = ?", userID, movieID).
		First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// ListByUser 分页列出评分（按 updated_at 降序、movie_id 升序）
// limit 由调用方传 k+1 以判断 has_more
func (r *RatingRepository) ListByUser(ctx context.Context, userID int64, f RatingFilter, limit, offset int) ([]RatedMovieRow, error) {
	q := r.db.WithContext(ctx).
		Table("user_movie_ratings r").
		Select("m.id, m.title, m.poster_path, m.backdrop_path, r.rating, r.status, r.updated_at").
		Joins("JOIN movies m ON m.id = r.movie_id").
		Where("r.user_id = ?", userID)

	if f.Status != "" {
		q = q.Where("r.status = ?", f.Status)
	}
	if f.RatingMin != nil {
		q = q.Where("r.rating >= ?", *f.RatingMin)
	}
	if f.RatingMax != nil {
		q = q.Where("r.rating <= ?", *f.RatingMax)
	}
	if f.Days > 0 {
		q = q.Where("r.updated_at >= ?", time.Now().AddDate(0, 0, -f.Days))
	}

	var rows []RatedMovieRow
	err := q.Order("r.updated_at DESC, r.movie_id ASC").
		Limit(limit).
		Offset(offset).
		Scan(&rows).Error
	return rows, err
}

// SeenMovieIDs 排除集：该用户所有有评分记录的电影（watched 或 unwatched）
func (r *RatingRepository) SeenMovieIDs(ctx context.Context, userID int64) (map[int64]struct{}, error) {
	var ids []int64
	err := r.db.WithContext(ctx).
		Model(&model.UserMovieRating{}).
		Where("user_id = ?", userID).
		Pluck("movie_id", &ids).Error
	if err != nil {
		return nil, err
	}
	seen := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		seen[id] = struct{}{}
	}
	return seen, nil
}

// CountContributors 画像贡献评分数（watched 且 rating >= 3）
func (r *RatingRepository) CountContributors(ctx context.Context, userID int64) (int, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.UserMovieRating{}).
		Where("user_id = ? AND status = ? AND rating >= ?", userID, model.StatusWatched, 3).
		Count(&count).Error
	return int(count), err
}

// CountLiked 喜欢数（watched 且 rating >= 4）
func (r *RatingRepository) CountLiked(ctx context.Context, userID int64) (int, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.UserMovieRating{}).
		Where("user_id = ? AND status = ? AND rating >= ?", userID, model.StatusWatched, 4).
		Count(&count).Error
	return int(count), err
}

// ContributorEmbeddings 画像贡献评分的向量（无向量的贡献者被自然排除）
func (r *RatingRepository) ContributorEmbeddings(ctx context.Context, userID int64) ([]EmbeddingRatingRow, error) {
	return r.embeddingRows(ctx, userID, 3, 5)
}

// DislikedEmbeddings 负反馈评分的向量（rating <= 2）
func (r *RatingRepository) DislikedEmbeddings(ctx context.Context, userID int64) ([]EmbeddingRatingRow, error) {
	return r.embeddingRows(ctx, userID, 0, 2)
}

func (r *RatingRepository) embeddingRows(ctx context.Context, userID int64, minRating, maxRating int) ([]EmbeddingRatingRow, error) {
	var rows []EmbeddingRatingRow
	err := r.db.WithContext(ctx).Raw(`
		SELECT e.embedding, r.rating
		FROM user_movie_ratings r
		JOIN movie_embeddings e ON e.movie_id = r.movie_id
		WHERE r.user_id = ?
		  AND r.status = ?
		  AND r.rating >= ?
		  AND r.rating <= ?
	`, userID, model.StatusWatched, minRating, maxRating).Scan(&rows).Error
	return rows, err
}

// ScoringRows 最近评分的特征行，供打分上下文聚合
func (r *RatingRepository) ScoringRows(ctx context.Context, userID int64, minRating, maxRating, limit int) ([]ScoringRow, error) {
	var rows []ScoringRow
	err := r.db.WithContext(ctx).Raw(`
		SELECT m.genres, m.keywords, m.runtime, m.release_date, m.original_language, r.rating
		FROM user_movie_ratings r
		JOIN movies m ON m.id = r.movie_id
		WHERE r.user_id = ?
		  AND r.status = ?
		  AND r.rating >= ?
		  AND r.rating <= ?
		ORDER BY r.updated_at DESC
		LIMIT ?
	`, userID, model.StatusWatched, minRating, maxRating, limit).Scan(&rows).Error
	return rows, err
}
