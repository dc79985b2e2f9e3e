package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config 应用配置，启动时加载一次，之后只读
type Config struct {
	Env         string
	Port        string
	AppSecret   string
	JWTExpiry   time.Duration
	DatabaseURL string
	LogLevel    string
	CORSOrigins []string

	TMDBToken            string
	TMDBBaseURL          string
	TMDBLanguage         string
	TMDBFallbackLanguage string
	TMDBTimeout          time.Duration

	// CacheMaxEntries 为 0 时使用不限条数的缓存
	CacheMaxEntries int
}

// Load 加载配置。缺少签名密钥或 TMDB 令牌时直接返回错误，不再回退到默认值。
func Load() (*Config, error) {
	cfg := &Config{
		Env:                  getEnv("APP_ENV", "development"),
		Port:                 getEnv("PORT", "5000"),
		AppSecret:            getEnv("APP_SECRET", os.Getenv("JWT_SECRET")),
		JWTExpiry:            time.Duration(getEnvInt("JWT_EXPIRY_HOURS", 24)) * time.Hour,
		DatabaseURL:          getEnv("DATABASE_URL", "moviesdb.db"),
		LogLevel:             getEnv("LOG_LEVEL", "info"),
		CORSOrigins:          splitList(getEnv("CORS_ORIGINS", "*")),
		TMDBToken:            os.Getenv("TMDB_ACCESS_TOKEN"),
		TMDBBaseURL:          strings.TrimRight(getEnv("TMDB_BASE_URL", "https://api.themoviedb.org/3"), "/"),
		TMDBLanguage:         getEnv("TMDB_LANGUAGE", "pt-BR"),
		TMDBFallbackLanguage: getEnv("TMDB_FALLBACK_LANGUAGE", "en-US"),
		TMDBTimeout:          time.Duration(getEnvInt("TMDB_TIMEOUT_SECONDS", 10)) * time.Second,
		CacheMaxEntries:      getEnvInt("CACHE_MAX_ENTRIES", 0),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate 检查必填项
func (c *Config) Validate() error {
	var errs []error
	if c.AppSecret == "" {
		errs = append(errs, errors.New("APP_SECRET must be set"))
	}
	if c.TMDBToken == "" {
		errs = append(errs, errors.New("TMDB_ACCESS_TOKEN must be set"))
	}
	if c.JWTExpiry <= 0 {
		errs = append(errs, errors.New("JWT_EXPIRY_HOURS must be positive"))
	}
	if c.TMDBTimeout <= 0 {
		errs = append(errs, errors.New("TMDB_TIMEOUT_SECONDS must be positive"))
	}
	for _, o := range c.CORSOrigins {
		if o != "*" && !strings.HasPrefix(o, "http://") && !strings.HasPrefix(o, "https://") {
			errs = append(errs, fmt.Errorf("CORS_ORIGINS entry %q must be \"*\" or an http(s) origin", o))
		}
	}
	if c.CacheMaxEntries < 0 {
		errs = append(errs, errors.New("CACHE_MAX_ENTRIES must not be negative"))
	}
	return errors.Join(errs...)
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return v
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
