package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRetryReadTransient(t *testing.T) {
	// 瞬时错误重试一次后成功
	calls := 0
	err := retryRead(context.Background(), func() error {
		calls++
		if calls == 1 {
			return errors.New("connection reset")
		}
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, 2, calls)

	// 两次都失败：只重试一次，错误原样返回
	calls = 0
	transient := errors.New("connection reset")
	err = retryRead(context.Background(), func() error {
		calls++
		return transient
	})
	require.ErrorIs(t, err, transient)
	require.Equal(t, 2, calls)
}

func TestRetryReadDomainErrorsNotRetried(t *testing.T) {
	for _, sentinel := range []error{
		ErrMovieNotFound,
		ErrUserNotFound,
		ErrEmbeddingNotFound,
		ErrProfileNotFound,
		ErrInvalidArgument,
	} {
		calls := 0
		err := retryRead(context.Background(), func() error {
			calls++
			return fmt.Errorf("lookup: %w", sentinel)
		})
		require.ErrorIs(t, err, sentinel)
		require.Equal(t, 1, calls, sentinel.Error())
	}
}

func TestRetryReadContextNotRetried(t *testing.T) {
	calls := 0
	err := retryRead(context.Background(), func() error {
		calls++
		return context.DeadlineExceeded
	})
	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.Equal(t, 1, calls)

	// 上下文已取消时不再发起第二次查询
	ctx, cancel := context.WithCancel(context.Background())
	calls = 0
	err = retryRead(ctx, func() error {
		calls++
		cancel()
		return errors.New("connection reset")
	})
	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, 1, calls)
}
