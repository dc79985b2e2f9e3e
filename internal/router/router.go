package router

import (
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/user/moviesdb/internal/handler"
	"github.com/user/moviesdb/internal/middleware"
	"github.com/user/moviesdb/internal/utils"
)

// New 创建带全局中间件的 gin 引擎并注册路由
func New(h *handler.Handler) *gin.Engine {
	if h.Config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.CustomRecovery(func(c *gin.Context, recovered any) {
		utils.InternalServerError(c, "")
	}))
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(h.Logger))
	r.Use(middleware.CORS(h.Config.CORSOrigins))

	// 启用 gzip，默认压缩级别
	r.Use(gzip.Gzip(gzip.DefaultCompression))

	RegisterRoutes(r, h)
	return r
}

// RegisterRoutes 注册所有路由
func RegisterRoutes(r *gin.Engine, h *handler.Handler) {
	// 健康检查
	r.GET("/health", h.Health)

	api := r.Group("/api")

	// ==================== TMDB 代理（带缓存）====================
	api.GET("/search", h.Search)
	api.GET("/movies/popular", h.Popular)
	api.GET("/genres", h.Genres)
	api.GET("/discover", h.Discover)

	// 详情页可选登录，令牌无效时按匿名处理
	api.GET("/movie/:movieId", middleware.OptionalAuth(h.Tokens, h.Logger), h.Movie)

	// ==================== 认证 ====================
	api.POST("/register", h.Register)
	api.POST("/login", h.Login)

	// ==================== 评分（需要登录）====================
	ratings := api.Group("")
	ratings.Use(middleware.RequireAuth(h.Tokens))
	{
		ratings.GET("/ratings", h.ListRatings)
		ratings.POST("/rate", h.Rate)
		ratings.DELETE("/rate/:movieId", h.DeleteRating)
	}
}
