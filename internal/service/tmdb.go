package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/user/moviesdb/internal/apperr"
	"github.com/user/moviesdb/internal/config"
	"github.com/user/moviesdb/internal/model"
	"github.com/user/moviesdb/internal/utils"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// SynopsisUnavailable 主语言和备用语言都没有简介时的占位文本
const SynopsisUnavailable = "Synopsis not available."

// RatingLookup 详情页查询当前用户评分
type RatingLookup interface {
	GetByUserAndMovie(userID, movieID int) (*model.Rating, error)
}

// DiscoverFilter 发现页筛选条件，空字符串表示未指定
type DiscoverFilter struct {
	Page    int
	GenreID string
	Year    string
}

// TMDBService 转发请求到 TMDB
type TMDBService struct {
	client  *utils.HTTPClient
	ratings RatingLookup
	config  *config.Config
	logger  *zap.Logger
	group   singleflight.Group
}

func NewTMDBService(client *utils.HTTPClient, ratings RatingLookup, cfg *config.Config, logger *zap.Logger) *TMDBService {
	return &TMDBService{
		client:  client,
		ratings: ratings,
		config:  cfg,
		logger:  logger,
	}
}

// SearchParams 搜索请求转发给 TMDB 的查询参数，同时用作缓存键
func (s *TMDBService) SearchParams(query string, page int) url.Values {
	return url.Values{
		"query":         {query},
		"page":          {strconv.Itoa(page)},
		"language":      {s.config.TMDBLanguage},
		"include_adult": {"false"},
	}
}

// Search 按关键词搜索电影
func (s *TMDBService) Search(ctx context.Context, query string, page int) ([]byte, error) {
	if strings.TrimSpace(query) == "" {
		return nil, apperr.Validation("query parameter 'q' is required")
	}
	return s.get(ctx, "/search/movie", s.SearchParams(query, page))
}

func (s *TMDBService) PopularParams(page int) url.Values {
	return url.Values{
		"page":     {strconv.Itoa(page)},
		"language": {s.config.TMDBLanguage},
	}
}

// Popular 热门电影
func (s *TMDBService) Popular(ctx context.Context, page int) ([]byte, error) {
	return s.get(ctx, "/movie/popular", s.PopularParams(page))
}

func (s *TMDBService) GenresParams() url.Values {
	return url.Values{"language": {s.config.TMDBLanguage}}
}

// Genres 电影类型列表
func (s *TMDBService) Genres(ctx context.Context) ([]byte, error) {
	return s.get(ctx, "/genre/movie/list", s.GenresParams())
}

// DiscoverParams 只有调用方提供的筛选条件才会出现在参数里
func (s *TMDBService) DiscoverParams(f DiscoverFilter) url.Values {
	params := url.Values{
		"page":          {strconv.Itoa(f.Page)},
		"language":      {s.config.TMDBLanguage},
		"include_adult": {"false"},
		"sort_by":       {"popularity.desc"},
	}
	if f.GenreID != "" {
		params.Set("with_genres", f.GenreID)
	}
	if f.Year != "" {
		params.Set("primary_release_year", f.Year)
	}
	return params
}

// Discover 按类型/年份筛选
func (s *TMDBService) Discover(ctx context.Context, f DiscoverFilter) ([]byte, error) {
	return s.get(ctx, "/discover/movie", s.DiscoverParams(f))
}

// MovieDetails 获取电影详情。
// 主语言简介为空时用备用语言补全，备用请求失败只记日志；
// userID 非空且有评分时附带 user_rating，否则为 null。
func (s *TMDBService) MovieDetails(ctx context.Context, movieID int, userID *int) (map[string]interface{}, error) {
	details, err := s.fetchDetails(ctx, movieID, s.config.TMDBLanguage)
	if err != nil {
		return nil, err
	}

	if synopsis(details) == "" {
		details["overview"] = s.fallbackSynopsis(ctx, movieID)
	}

	details["user_rating"] = s.userRating(movieID, userID)
	return details, nil
}

func (s *TMDBService) fallbackSynopsis(ctx context.Context, movieID int) string {
	lang := s.config.TMDBFallbackLanguage
	if lang == "" || lang == s.config.TMDBLanguage {
		return SynopsisUnavailable
	}

	fallback, err := s.fetchDetails(ctx, movieID, lang)
	if err != nil {
		s.logger.Warn("fallback synopsis fetch failed",
			zap.Int("movie_id", movieID),
			zap.String("language", lang),
			zap.Error(err),
		)
		return SynopsisUnavailable
	}

	if text := synopsis(fallback); text != "" {
		return text
	}
	return SynopsisUnavailable
}

func (s *TMDBService) userRating(movieID int, userID *int) interface{} {
	if userID == nil || s.ratings == nil {
		return nil
	}
	rec, err := s.ratings.GetByUserAndMovie(*userID, movieID)
	if err != nil {
		s.logger.Warn("user rating lookup failed",
			zap.Int("movie_id", movieID),
			zap.Int("user_id", *userID),
			zap.Error(err),
		)
		return nil
	}
	if rec == nil {
		return nil
	}
	return rec.Score
}

// fetchDetails 同一电影同一语言的并发请求合并为一次
func (s *TMDBService) fetchDetails(ctx context.Context, movieID int, language string) (map[string]interface{}, error) {
	key := fmt.Sprintf("%d:%s", movieID, language)
	// 合并后的请求不随第一个调用方的断开而取消，超时由 HTTP 客户端控制
	shared := context.WithoutCancel(ctx)
	body, err, _ := s.group.Do(key, func() (interface{}, error) {
		return s.get(shared, fmt.Sprintf("/movie/%d", movieID), url.Values{"language": {language}})
	})
	if err != nil {
		return nil, err
	}

	// 每个调用方各自解码，避免共享 map
	dec := json.NewDecoder(bytes.NewReader(body.([]byte)))
	dec.UseNumber()
	var details map[string]interface{}
	if err := dec.Decode(&details); err != nil {
		return nil, apperr.Upstream(fmt.Errorf("decode movie %d: %w", movieID, err))
	}
	if details == nil {
		details = map[string]interface{}{}
	}
	return details, nil
}

func (s *TMDBService) get(ctx context.Context, path string, params url.Values) ([]byte, error) {
	u := s.config.TMDBBaseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	body, err := s.client.Get(ctx, u)
	if err != nil {
		s.logger.Error("provider request failed", zap.String("path", path), zap.Error(err))
		return nil, apperr.Upstream(err)
	}
	return body, nil
}

func synopsis(details map[string]interface{}) string {
	text, _ := details["overview"].(string)
	return strings.TrimSpace(text)
}
