package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/user/tastekid/internal/service"
	"github.com/user/tastekid/internal/utils"
)

func respond(t *testing.T, err error) (int, utils.ErrorBody) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest("GET", "/", nil)

	respondError(c, err)

	var body struct {
		Error utils.ErrorBody `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return w.Code, body.Error
}

func TestRespondErrorMapping(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{service.ErrMovieNotFound, http.StatusNotFound, "MOVIE_NOT_FOUND"},
		{service.ErrUserNotFound, http.StatusNotFound, "USER_NOT_FOUND"},
		{service.ErrProfileNotFound, http.StatusNotFound, "PROFILE_NOT_FOUND"},
		// 锚点电影存在但缺向量同样按 404 处理
		{service.ErrEmbeddingNotFound, http.StatusNotFound, "EMBEDDING_NOT_FOUND"},
		{service.ErrInvalidArgument, http.StatusBadRequest, "INVALID_ARGUMENT"},
		{context.DeadlineExceeded, http.StatusGatewayTimeout, "DEADLINE_EXCEEDED"},
		{errors.New("boom"), http.StatusInternalServerError, "INTERNAL"},
	}

	for _, tc := range cases {
		status, body := respond(t, tc.err)
		require.Equal(t, tc.status, status, tc.code)
		require.Equal(t, tc.code, body.Code)
		require.NotEmpty(t, body.Message)
	}
}

func TestRespondErrorWrapped(t *testing.T) {
	status, body := respond(t, fmt.Errorf("similar: %w", service.ErrEmbeddingNotFound))
	require.Equal(t, http.StatusNotFound, status)
	require.Equal(t, "EMBEDDING_NOT_FOUND", body.Code)
}
