package utils

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// Meta 分页元信息
type Meta struct {
	NextCursor *string `json:"next_cursor"`
	HasMore    bool    `json:"has_more"`
}

// ErrorBody 错误响应体
type ErrorBody struct {
	Code    string      `json:"code"`    // 机器可读错误码，SCREAMING_SNAKE_CASE
	Message string      `json:"message"` // 人类可读描述
	Details interface{} `json:"details,omitempty"`
}

// Success 返回成功响应
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, gin.H{"data": data})
}

// SuccessPage 返回带分页元信息的成功响应
// hasMore 为 true 时 next_cursor 为下一页偏移，否则为 null
func SuccessPage(c *gin.Context, data interface{}, nextOffset int, hasMore bool) {
	var cursor *string
	if hasMore {
		v := strconv.Itoa(nextOffset)
		cursor = &v
	}
	c.JSON(http.StatusOK, gin.H{
		"data": data,
		"meta": Meta{NextCursor: cursor, HasMore: hasMore},
	})
}

// Fail 返回错误响应
func Fail(c *gin.Context, status int, code, message string) {
	c.JSON(status, gin.H{"error": ErrorBody{Code: code, Message: message}})
}

// FailWithDetails 返回带补充信息的错误响应
func FailWithDetails(c *gin.Context, status int, code, message string, details interface{}) {
	c.JSON(status, gin.H{"error": ErrorBody{Code: code, Message: message, Details: details}})
}
