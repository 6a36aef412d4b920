package handler

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/user/tastekid/internal/middleware"
	"github.com/user/tastekid/internal/utils"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// parseID 解析路径里的数字 ID
func parseID(c *gin.Context, name string) (int64, error) {
	raw := c.Param(name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("路径参数 %s 无效: %q", name, raw)
	}
	return id, nil
}

// pathUserID 解析路径用户 ID；请求带身份令牌时校验两者一致，
// 不一致按用户不存在处理，不给枚举他人数据留口子。
// 失败时已写好响应，调用方直接 return
func (h *Handler) pathUserID(c *gin.Context) (int64, bool) {
	id, err := parseID(c, "id")
	if err != nil {
		invalidArgument(c, err.Error())
		return 0, false
	}
	if tokenID := middleware.GetUserID(c); tokenID > 0 && tokenID != id {
		utils.Fail(c, http.StatusNotFound, "USER_NOT_FOUND", "user not found")
		return 0, false
	}
	return id, true
}

// parsePage 解析分页参数：k 1..100 默认 20，cursor 为非负整数偏移，默认 "0"
func parsePage(c *gin.Context) (k, offset int, err error) {
	k = defaultPageSize
	if raw := c.Query("k"); raw != "" {
		k, err = strconv.Atoi(raw)
		if err != nil || k < 1 || k > maxPageSize {
			return 0, 0, fmt.Errorf("k 必须在 1..%d 之间: %q", maxPageSize, raw)
		}
	}

	cursor := c.DefaultQuery("cursor", "0")
	offset, err = strconv.Atoi(cursor)
	if err != nil || offset < 0 {
		return 0, 0, fmt.Errorf("cursor 必须是非负整数: %q", cursor)
	}
	return k, offset, nil
}
