package router

import (
	"github.com/gin-gonic/gin"

	"github.com/user/tastekid/internal/handler"
)

// RegisterRoutes 注册所有路由
func RegisterRoutes(r *gin.Engine, h *handler.Handler) {
	// 健康检查
	r.GET("/health", h.Health)

	v1 := r.Group("/v1")
	{
		// ==================== 电影 ====================
		movies := v1.Group("/movies")
		{
			movies.GET("/lookup", h.Lookup)
			movies.GET("/:id", h.Detail)
			movies.GET("/:id/similar", h.Similar)
		}

		// ==================== 用户 ====================
		users := v1.Group("/users")
		{
			users.POST("", h.CreateUser)
			users.GET("/:id", h.GetUser)
			users.GET("/:id/profile", h.Profile)
			users.PUT("/:id/ratings/:movie_id", h.PutRating)
			users.GET("/:id/ratings", h.Ratings)
			users.GET("/:id/rating-queue", h.RatingQueue)
			users.GET("/:id/next", h.Next)
			users.GET("/:id/recommendations", h.Recommendations)
			users.GET("/:id/feed", h.Feed)
			users.GET("/:id/movies/:movie_id/match", h.Match)
		}
	}
}
