package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// CORS 跨域中间件，origins 包含 "*" 时允许任意来源
func CORS(origins []string) gin.HandlerFunc {
	config := cors.Config{
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowHeaders:  []string{"Origin", "Authorization", "Content-Type", RequestIDHeader},
		ExposeHeaders: []string{RequestIDHeader, "X-Cache"},
		MaxAge:        10 * time.Minute,
	}

	for _, o := range origins {
		if o == "*" {
			config.AllowAllOrigins = true
			config.AllowOrigins = nil
			break
		}
		config.AllowOrigins = append(config.AllowOrigins, strings.TrimRight(o, "/"))
	}

	return cors.New(config)
}
