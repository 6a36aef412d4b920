package utils

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func record(t *testing.T, fn func(c *gin.Context)) (*httptest.ResponseRecorder, map[string]json.RawMessage) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest("GET", "/", nil)
	fn(c)

	var body map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return w, body
}

func TestSuccessEnvelope(t *testing.T) {
	w, body := record(t, func(c *gin.Context) {
		Success(c, gin.H{"status": "ok"})
	})
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, body, "data")
	require.NotContains(t, body, "error")
}

func TestSuccessPageEnvelope(t *testing.T) {
	_, body := record(t, func(c *gin.Context) {
		SuccessPage(c, []int{1, 2}, 20, true)
	})

	var meta Meta
	require.NoError(t, json.Unmarshal(body["meta"], &meta))
	require.True(t, meta.HasMore)
	require.NotNil(t, meta.NextCursor)
	require.Equal(t, "20", *meta.NextCursor)

	// 最后一页 next_cursor 为 null
	_, body = record(t, func(c *gin.Context) {
		SuccessPage(c, []int{1}, 20, false)
	})
	require.NoError(t, json.Unmarshal(body["meta"], &meta))
	require.False(t, meta.HasMore)
	require.Nil(t, meta.NextCursor)
}

func TestFailEnvelope(t *testing.T) {
	w, body := record(t, func(c *gin.Context) {
		Fail(c, http.StatusNotFound, "MOVIE_NOT_FOUND", "movie not found")
	})
	require.Equal(t, http.StatusNotFound, w.Code)

	var e ErrorBody
	require.NoError(t, json.Unmarshal(body["error"], &e))
	require.Equal(t, "MOVIE_NOT_FOUND", e.Code)
	require.Equal(t, "movie not found", e.Message)
}
