package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/user/tastekid/internal/config"
	"github.com/user/tastekid/internal/service"
	"github.com/user/tastekid/internal/utils"
)

// Handler HTTP 处理器集合
type Handler struct {
	cfg       *config.Config
	movies    *service.MovieService
	users     *service.UserService
	recommend *service.RecommendService
}

// NewHandler 创建处理器
func NewHandler(cfg *config.Config, movies *service.MovieService, users *service.UserService, recommend *service.RecommendService) *Handler {
	return &Handler{
		cfg:       cfg,
		movies:    movies,
		users:     users,
		recommend: recommend,
	}
}

// Health 健康检查
func (h *Handler) Health(c *gin.Context) {
	utils.Success(c, gin.H{"status": "ok"})
}
