package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/user/moviesdb/internal/apperr"
	"github.com/user/moviesdb/internal/config"
	"github.com/user/moviesdb/internal/repository"
	"github.com/user/moviesdb/internal/service"
	"github.com/user/moviesdb/internal/utils"
	"go.uber.org/zap"
)

// Handler HTTP 处理器
type Handler struct {
	Repos  *repository.Repositories
	Config *config.Config
	Tokens *service.TokenService
	TMDB   *service.TMDBService
	Cache  *utils.ResponseCache
	Logger *zap.Logger
}

// NewHandler 创建处理器
func NewHandler(repos *repository.Repositories, cfg *config.Config, cache *utils.ResponseCache, logger *zap.Logger) *Handler {
	client := utils.NewHTTPClient(cfg.TMDBTimeout, cfg.TMDBToken)

	return &Handler{
		Repos:  repos,
		Config: cfg,
		Tokens: service.NewTokenService(cfg.AppSecret, cfg.JWTExpiry),
		TMDB:   service.NewTMDBService(client, repos.Rating, cfg, logger),
		Cache:  cache,
		Logger: logger,
	}
}

// Health 健康检查，附带当前缓存条目数
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":        "ok",
		"cache_entries": h.Cache.Len(),
	})
}

// parsePage 解析分页参数，缺省为第 1 页
func parsePage(c *gin.Context) (int, error) {
	raw := strings.TrimSpace(c.Query("page"))
	if raw == "" {
		return 1, nil
	}
	page, err := strconv.Atoi(raw)
	if err != nil || page < 1 {
		return 0, apperr.Validation("page must be a positive integer")
	}
	return page, nil
}

// parseMovieID 解析路径中的电影 ID
func parseMovieID(c *gin.Context) (int, error) {
	id, err := strconv.Atoi(c.Param("movieId"))
	if err != nil || id < 1 {
		return 0, apperr.Validation("movie id must be a positive integer")
	}
	return id, nil
}

// optionalInt 可选的数字筛选参数，未提供时返回空字符串
func optionalInt(c *gin.Context, name string) (string, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return "", nil
	}
	if _, err := strconv.Atoi(raw); err != nil {
		return "", apperr.Validation(name + " must be an integer")
	}
	return raw, nil
}

// bindError 把 binding 错误转换成可读的校验错误
func bindError(err error, fallback string) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperr.Validation(fallback)
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := jsonName(fe.Field())
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, field+" is required")
		case "min", "gte":
			msgs = append(msgs, fmt.Sprintf("%s must be at least %s", field, fe.Param()))
		case "max", "lte":
			msgs = append(msgs, fmt.Sprintf("%s must be at most %s", field, fe.Param()))
		case "gt":
			msgs = append(msgs, fmt.Sprintf("%s must be greater than %s", field, fe.Param()))
		default:
			msgs = append(msgs, field+" is invalid")
		}
	}
	return apperr.Validation(strings.Join(msgs, "; "))
}

func jsonName(field string) string {
	switch field {
	case "MovieID":
		return "movie_id"
	case "PosterPath":
		return "poster_path"
	default:
		return strings.ToLower(field)
	}
}

// 上游响应缓存时长
const (
	listTTL   = 300 * time.Second
	genresTTL = 86400 * time.Second
)
