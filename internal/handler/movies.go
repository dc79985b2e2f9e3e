package handler

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/user/moviesdb/internal/apperr"
	"github.com/user/moviesdb/internal/middleware"
	"github.com/user/moviesdb/internal/service"
	"github.com/user/moviesdb/internal/utils"
)

// proxyCached 走缓存转发上游请求，key 由路由和转发参数组成
func (h *Handler) proxyCached(c *gin.Context, route string, params url.Values, ttl time.Duration, fetch func(ctx context.Context) ([]byte, error)) {
	// 同 key 的请求会共享一次上游调用，不能因为某个调用方断开而取消
	ctx := context.WithoutCancel(c.Request.Context())

	body, hit, err := h.Cache.Cached(utils.CacheKey(route, params), ttl, func() ([]byte, error) {
		return fetch(ctx)
	})
	if err != nil {
		utils.Fail(c, err)
		return
	}

	if hit {
		c.Header("X-Cache", "HIT")
	} else {
		c.Header("X-Cache", "MISS")
	}
	utils.RawJSON(c, body)
}

// Search 搜索电影
func (h *Handler) Search(c *gin.Context) {
	query := strings.TrimSpace(c.Query("q"))
	if query == "" {
		utils.Fail(c, apperr.Validation("query parameter 'q' is required"))
		return
	}
	page, err := parsePage(c)
	if err != nil {
		utils.Fail(c, err)
		return
	}

	h.proxyCached(c, "search", h.TMDB.SearchParams(query, page), listTTL, func(ctx context.Context) ([]byte, error) {
		return h.TMDB.Search(ctx, query, page)
	})
}

// Popular 热门电影
func (h *Handler) Popular(c *gin.Context) {
	page, err := parsePage(c)
	if err != nil {
		utils.Fail(c, err)
		return
	}

	h.proxyCached(c, "movies/popular", h.TMDB.PopularParams(page), listTTL, func(ctx context.Context) ([]byte, error) {
		return h.TMDB.Popular(ctx, page)
	})
}

// Genres 类型列表
func (h *Handler) Genres(c *gin.Context) {
	h.proxyCached(c, "genres", h.TMDB.GenresParams(), genresTTL, h.TMDB.Genres)
}

// Discover 按类型和年份发现电影
func (h *Handler) Discover(c *gin.Context) {
	page, err := parsePage(c)
	if err != nil {
		utils.Fail(c, err)
		return
	}
	genreID, err := optionalInt(c, "genre_id")
	if err != nil {
		utils.Fail(c, err)
		return
	}
	year, err := optionalInt(c, "year")
	if err != nil {
		utils.Fail(c, err)
		return
	}

	filter := service.DiscoverFilter{Page: page, GenreID: genreID, Year: year}
	h.proxyCached(c, "discover", h.TMDB.DiscoverParams(filter), listTTL, func(ctx context.Context) ([]byte, error) {
		return h.TMDB.Discover(ctx, filter)
	})
}

// Movie 电影详情，登录用户附带自己的评分
func (h *Handler) Movie(c *gin.Context) {
	movieID, err := parseMovieID(c)
	if err != nil {
		utils.Fail(c, err)
		return
	}

	details, err := h.TMDB.MovieDetails(c.Request.Context(), movieID, middleware.GetUserIDPtr(c))
	if err != nil {
		utils.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, details)
}
