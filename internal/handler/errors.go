package handler

import (
	"context"
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/user/tastekid/internal/service"
	"github.com/user/tastekid/internal/utils"
)

// respondError 领域错误到 HTTP 的统一映射，错误码对客户端保持稳定
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrMovieNotFound):
		utils.Fail(c, http.StatusNotFound, "MOVIE_NOT_FOUND", "movie not found")
	case errors.Is(err, service.ErrUserNotFound):
		utils.Fail(c, http.StatusNotFound, "USER_NOT_FOUND", "user not found")
	case errors.Is(err, service.ErrProfileNotFound):
		utils.Fail(c, http.StatusNotFound, "PROFILE_NOT_FOUND", "user has no taste profile yet")
	case errors.Is(err, service.ErrEmbeddingNotFound):
		utils.Fail(c, http.StatusNotFound, "EMBEDDING_NOT_FOUND", "movie has no embedding")
	case errors.Is(err, service.ErrInvalidArgument):
		utils.Fail(c, http.StatusBadRequest, "INVALID_ARGUMENT", "invalid argument")
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		utils.Fail(c, http.StatusGatewayTimeout, "DEADLINE_EXCEEDED", "request deadline exceeded")
	default:
		log.Printf("[Handler] 内部错误 %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
		utils.Fail(c, http.StatusInternalServerError, "INTERNAL", "internal error")
	}
}

// invalidArgument 参数错误的便捷出口
func invalidArgument(c *gin.Context, message string) {
	utils.Fail(c, http.StatusBadRequest, "INVALID_ARGUMENT", message)
}

// bindError 请求体绑定失败的统一出口，校验错误附带字段明细
func bindError(c *gin.Context, err error) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		details := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			details = append(details, fe.Field()+": "+fe.Tag())
		}
		utils.FailWithDetails(c, http.StatusBadRequest, "INVALID_ARGUMENT", "请求体校验失败", details)
		return
	}
	invalidArgument(c, "请求体格式错误")
}
