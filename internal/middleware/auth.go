package middleware

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/user/moviesdb/internal/apperr"
	"github.com/user/moviesdb/internal/service"
	"github.com/user/moviesdb/internal/utils"
	"go.uber.org/zap"
)

const userIDKey = "user_id"

// TokenValidator 令牌校验
type TokenValidator interface {
	Validate(token string) (int, error)
}

// Principal 通过认证的调用方
type Principal struct {
	UserID int
}

// Authenticate 从 Authorization 头解析调用方，失败时返回 Auth 类错误
func Authenticate(c *gin.Context, tokens TokenValidator) (Principal, error) {
	header := strings.TrimSpace(c.GetHeader("Authorization"))
	if header == "" {
		return Principal{}, apperr.Auth("token is missing", nil)
	}

	userID, err := tokens.Validate(header)
	switch {
	case err == nil:
		return Principal{UserID: userID}, nil
	case errors.Is(err, service.ErrTokenExpired):
		return Principal{}, apperr.Auth("token has expired", err)
	default:
		return Principal{}, apperr.Auth("token is invalid", err)
	}
}

// RequireAuth 必须登录中间件
func RequireAuth(tokens TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, err := Authenticate(c, tokens)
		if err != nil {
			utils.Fail(c, err)
			return
		}

		c.Set(userIDKey, p.UserID)
		c.Next()
	}
}

// OptionalAuth 可选登录中间件，令牌缺失或无效时按匿名用户处理
func OptionalAuth(tokens TokenValidator, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, err := Authenticate(c, tokens)
		if err == nil {
			c.Set(userIDKey, p.UserID)
		} else if c.GetHeader("Authorization") != "" {
			logger.Debug("optional auth ignored bad token",
				zap.String("request_id", GetRequestID(c)),
				zap.Error(err),
			)
		}
		c.Next()
	}
}

// GetUserID 从上下文获取用户 ID（未登录返回 0）
func GetUserID(c *gin.Context) int {
	if userID, exists := c.Get(userIDKey); exists {
		return userID.(int)
	}
	return 0
}

// GetUserIDPtr 从上下文获取用户 ID 指针（未登录返回 nil）
func GetUserIDPtr(c *gin.Context) *int {
	if userID, exists := c.Get(userIDKey); exists {
		id := userID.(int)
		return &id
	}
	return nil
}
