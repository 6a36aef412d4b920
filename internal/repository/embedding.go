package repository

import (
	"context"
	"errors"

	"github.com/pgvector/pgvector-go"
	"github.com/user/tastekid/internal/model"
	"gorm.io/gorm"
)

type EmbeddingRepository struct {
	db *gorm.DB
}

func NewEmbeddingRepository(db *gorm.DB) *EmbeddingRepository {
	return &EmbeddingRepository{db: db}
}

// KNNResult 向量检索结果
type KNNResult struct {
	MovieID  int64   `db:"movie_id"`
	Distance float64 `db:"distance"`
}

// FindByMovieID 查找电影向量，不存在返回 nil
func (r *EmbeddingRepository) FindByMovieID(ctx context.Context, movieID int64) (*model.MovieEmbedding, error) {
	var emb model.MovieEmbedding
	err := r.db.WithContext(ctx).First(&emb, "movie_id = ?", movieID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &emb, nil
}

// FindByMovieIDs 批量加载候选向量
func (r *EmbeddingRepository) FindByMovieIDs(ctx context.Context, movieIDs []int64) ([]model.MovieEmbedding, error) {
	if len(movieIDs) == 0 {
		return nil, nil
	}
	var embs []model.MovieEmbedding
	err := r.db.WithContext(ctx).Where("movie_id IN ?", movieIDs).Find(&embs).Error
	return embs, err
}

// KNN 余弦距离最近邻检索（HNSW 索引，<=> 即 1 - cosine_similarity）
// 排除集在召回后由上层裁剪，这里只负责 over-fetch
func (r *EmbeddingRepository) KNN(ctx context.Context, query pgvector.Vector, k int) ([]KNNResult, error) {
	var results []KNNResult
	err := r.db.WithContext(ctx).Raw(`
		SELECT movie_id, (embedding <=> ?) AS distance
		FROM movie_embeddings
		ORDER BY embedding <=> ?
		LIMIT ?
	`, query, query, k).Scan(&results).Error
	return results, err
}
