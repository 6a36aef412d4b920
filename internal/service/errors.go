package service

import (
	"context"
	"errors"
)

// 领域错误，由 handler 层统一映射为 HTTP 响应
var (
	ErrMovieNotFound     = errors.New("电影不存在")
	ErrUserNotFound      = errors.New("用户不存在")
	ErrEmbeddingNotFound = errors.New("电影缺少向量")
	ErrProfileNotFound   = errors.New("用户尚无画像")
	ErrInvalidArgument   = errors.New("参数无效")
)

// isTransient 是否可重试的瞬时错误：非领域错误且非取消/超时
func isTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	switch {
	case errors.Is(err, ErrMovieNotFound),
		errors.Is(err, ErrUserNotFound),
		errors.Is(err, ErrEmbeddingNotFound),
		errors.Is(err, ErrProfileNotFound),
		errors.Is(err, ErrInvalidArgument):
		return false
	}
	return true
}

// retryRead 读路径对瞬时错误重试一次；写路径不在内部重试
func retryRead(ctx context.Context, fn func() error) error {
	err := fn()
	if err == nil || !isTransient(err) {
		return err
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return fn()
}
