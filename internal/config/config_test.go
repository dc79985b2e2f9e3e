package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	for _, k := range []string{
		"APP_ENV", "PORT", "APP_SECRET", "JWT_SECRET", "JWT_EXPIRY_HOURS", "DATABASE_URL",
		"LOG_LEVEL", "CORS_ORIGINS", "TMDB_ACCESS_TOKEN", "TMDB_BASE_URL", "TMDB_LANGUAGE",
		"TMDB_FALLBACK_LANGUAGE", "TMDB_TIMEOUT_SECONDS", "CACHE_MAX_ENTRIES",
	} {
		t.Setenv(k, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("APP_SECRET", "s3cret")
	t.Setenv("TMDB_ACCESS_TOKEN", "tmdb-token")
	t.Setenv("TMDB_BASE_URL", "http://provider.local/3/")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "s3cret", cfg.AppSecret)
	assert.Equal(t, 24*time.Hour, cfg.JWTExpiry)
	assert.Equal(t, "http://provider.local/3", cfg.TMDBBaseURL)
	assert.Equal(t, "pt-BR", cfg.TMDBLanguage)
	assert.Equal(t, "en-US", cfg.TMDBFallbackLanguage)
	assert.Equal(t, []string{"*"}, cfg.CORSOrigins)
	assert.Equal(t, 0, cfg.CacheMaxEntries)
}

func TestLoadFallsBackToJWTSecret(t *testing.T) {
	clearEnv(t)
	t.Setenv("APP_SECRET", "")
	t.Setenv("JWT_SECRET", "legacy")
	t.Setenv("TMDB_ACCESS_TOKEN", "tmdb-token")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "legacy", cfg.AppSecret)
}

func TestLoadRejectsMissingSecret(t *testing.T) {
	clearEnv(t)
	t.Setenv("APP_SECRET", "")
	t.Setenv("JWT_SECRET", "")
	t.Setenv("TMDB_ACCESS_TOKEN", "tmdb-token")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "APP_SECRET")
}

func TestLoadRejectsMissingProviderToken(t *testing.T) {
	clearEnv(t)
	t.Setenv("APP_SECRET", "s3cret")
	t.Setenv("TMDB_ACCESS_TOKEN", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "TMDB_ACCESS_TOKEN")
}

func TestLoadParsesLists(t *testing.T) {
	clearEnv(t)
	t.Setenv("APP_SECRET", "s3cret")
	t.Setenv("TMDB_ACCESS_TOKEN", "tmdb-token")
	t.Setenv("CORS_ORIGINS", "http://localhost:5173, https://movies.example ,")
	t.Setenv("CACHE_MAX_ENTRIES", "500")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"http://localhost:5173", "https://movies.example"}, cfg.CORSOrigins)
	assert.Equal(t, 500, cfg.CacheMaxEntries)
}

func TestLoadRejectsNonPositiveProviderTimeout(t *testing.T) {
	for _, v := range []string{"0", "-5"} {
		t.Run(v, func(t *testing.T) {
			clearEnv(t)
			t.Setenv("APP_SECRET", "s3cret")
			t.Setenv("TMDB_ACCESS_TOKEN", "tmdb-token")
			t.Setenv("TMDB_TIMEOUT_SECONDS", v)

			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), "TMDB_TIMEOUT_SECONDS")
		})
	}
}

func TestLoadRejectsMalformedOrigin(t *testing.T) {
	clearEnv(t)
	t.Setenv("APP_SECRET", "s3cret")
	t.Setenv("TMDB_ACCESS_TOKEN", "tmdb-token")
	t.Setenv("CORS_ORIGINS", "localhost:5173")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CORS_ORIGINS")
}
