package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/user/tastekid/internal/utils"
)

// Lookup 按标题查找电影
// GET /v1/movies/lookup?title=
func (h *Handler) Lookup(c *gin.Context) {
	movie, err := h.movies.Lookup(c.Request.Context(), c.Query("title"))
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, gin.H{"id": movie.ID, "title": movie.Title})
}

// Detail 电影详情
// GET /v1/movies/:id
func (h *Handler) Detail(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		invalidArgument(c, err.Error())
		return
	}

	movie, err := h.movies.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, h.toMovieDetail(movie))
}

// Similar 相似电影
// GET /v1/movies/:id/similar?k=&cursor=
func (h *Handler) Similar(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		invalidArgument(c, err.Error())
		return
	}
	k, offset, err := parsePage(c)
	if err != nil {
		invalidArgument(c, err.Error())
		return
	}

	rows, hasMore, err := h.recommend.Similar(c.Request.Context(), id, k, offset)
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
