package utils

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/user/moviesdb/internal/apperr"
)

// StatusFor 错误类别到 HTTP 状态码
func StatusFor(kind apperr.Kind) int {
	switch kind {
	case apperr.KindValidation, apperr.KindConflict:
		return http.StatusBadRequest
	case apperr.KindAuth:
		return http.StatusUnauthorized
	case apperr.KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// Fail 统一错误响应。认证和注册类错误用 message 字段，其余用 error 字段。
func Fail(c *gin.Context, err error) {
	fail(c, err, false)
}

// FailAuth 登录/注册接口的错误响应，一律使用 message 字段
func FailAuth(c *gin.Context, err error) {
	fail(c, err, true)
}

func fail(c *gin.Context, err error, messageKey bool) {
	var e *apperr.Error
	if !errors.As(err, &e) {
		e = &apperr.Error{Kind: apperr.KindInternal, Message: "internal server error", Err: err}
	}
	if e.Kind == apperr.KindUpstream || e.Kind == apperr.KindPersistence || e.Kind == apperr.KindInternal {
		c.Error(err)
	}

	key := "error"
	if messageKey || e.Kind == apperr.KindAuth || e.Kind == apperr.KindConflict {
		key = "message"
	}
	c.AbortWithStatusJSON(StatusFor(e.Kind), gin.H{key: e.Public()})
}

// Message 返回只带提示信息的成功响应
func Message(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"message": message})
}

// RawJSON 直接输出已经序列化好的 JSON
func RawJSON(c *gin.Context, body []byte) {
	c.Data(http.StatusOK, "application/json; charset=utf-8", body)
}

// InternalServerError 返回500错误
func InternalServerError(c *gin.Context, message string) {
	if message == "" {
		message = "internal server error"
	}
	c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": message})
}
