package service

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/user/moviesdb/internal/apperr"
	"github.com/user/moviesdb/internal/config"
	"github.com/user/moviesdb/internal/model"
	"github.com/user/moviesdb/internal/utils"
	"go.uber.org/zap"
)

type stubRatings struct {
	rating *model.Rating
	err    error
}

func (s stubRatings) GetByUserAndMovie(userID, movieID int) (*model.Rating, error) {
	return s.rating, s.err
}

func newTestTMDB(t *testing.T, handler http.HandlerFunc, ratings RatingLookup) *TMDBService {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := &config.Config{
		TMDBBaseURL:          srv.URL,
		TMDBToken:            "tmdb-token",
		TMDBLanguage:         "pt-BR",
		TMDBFallbackLanguage: "en-US",
	}
	client := utils.NewHTTPClient(2*time.Second, cfg.TMDBToken)
	return NewTMDBService(client, ratings, cfg, zap.NewNop())
}

func TestSearchForwardsParams(t *testing.T) {
	svc := newTestTMDB(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search/movie", r.URL.Path)
		assert.Equal(t, "Bearer tmdb-token", r.Header.Get("Authorization"))
		q := r.URL.Query()
		assert.Equal(t, "batman", q.Get("query"))
		assert.Equal(t, "2", q.Get("page"))
		assert.Equal(t, "pt-BR", q.Get("language"))
		assert.Equal(t, "false", q.Get("include_adult"))
		w.Write([]byte(`{"page":2,"results":[]}`))
	}, nil)

	body, err := svc.Search(context.Background(), "batman", 2)
	require.NoError(t, err)
	assert.JSONEq(t, `{"page":2,"results":[]}`, string(body))
}

func TestSearchRequiresQuery(t *testing.T) {
	var calls int32
	svc := newTestTMDB(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	}, nil)

	_, err := svc.Search(context.Background(), "  ", 1)
	assert.True(t, apperr.Is(err, apperr.KindValidation))
	assert.Zero(t, atomic.LoadInt32(&calls))
}

func TestUpstreamErrorCarriesProviderMessage(t *testing.T) {
	svc := newTestTMDB(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"status_code":7,"status_message":"Invalid API key"}`))
	}, nil)

	_, err := svc.Popular(context.Background(), 1)
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindUpstream))
	assert.Contains(t, err.Error(), "Invalid API key")

	var se *utils.StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusUnauthorized, se.StatusCode)
}

func TestDiscoverOptionalFilters(t *testing.T) {
	var (
		mu   sync.Mutex
		seen []string
	)
	svc := newTestTMDB(t, func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		seen = append(seen, r.URL.RawQuery)
		mu.Unlock()
		w.Write([]byte(`{}`))
	}, nil)

	_, err := svc.Discover(context.Background(), DiscoverFilter{Page: 1})
	require.NoError(t, err)
	_, err = svc.Discover(context.Background(), DiscoverFilter{Page: 3, GenreID: "28", Year: "1999"})
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, seen, 2)
	assert.NotContains(t, seen[0], "with_genres")
	assert.NotContains(t, seen[0], "primary_release_year")
	assert.Contains(t, seen[1], "with_genres=28")
	assert.Contains(t, seen[1], "primary_release_year=1999")
	assert.Contains(t, seen[1], "page=3")
}

func TestGenresUsesLanguage(t *testing.T) {
	svc := newTestTMDB(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/genre/movie/list", r.URL.Path)
		assert.Equal(t, "pt-BR", r.URL.Query().Get("language"))
		w.Write([]byte(`{"genres":[{"id":28,"name":"Ação"}]}`))
	}, nil)

	body, err := svc.Genres(context.Background())
	require.NoError(t, err)
	assert.Contains(t, string(body), "Ação")
}

func TestMovieDetailsKeepsPrimarySynopsis(t *testing.T) {
	var calls int32
	svc := newTestTMDB(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.Write([]byte(`{"id":42,"title":"X","overview":"Sinopse"}`))
	}, nil)

	details, err := svc.MovieDetails(context.Background(), 42, nil)
	require.NoError(t, err)
	assert.Equal(t, "Sinopse", details["overview"])
	assert.Nil(t, details["user_rating"])
	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))
}

func TestMovieDetailsFallbackSynopsis(t *testing.T) {
	svc := newTestTMDB(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/movie/42", r.URL.Path)
		if r.URL.Query().Get("language") == "en-US" {
			w.Write([]byte(`{"id":42,"overview":"English synopsis"}`))
			return
		}
		w.Write([]byte(`{"id":42,"title":"X","overview":""}`))
	}, nil)

	details, err := svc.MovieDetails(context.Background(), 42, nil)
	require.NoError(t, err)
	assert.Equal(t, "English synopsis", details["overview"])
	assert.Equal(t, "X", details["title"])
}

func TestMovieDetailsFallbackPlaceholder(t *testing.T) {
	svc := newTestTMDB(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("language") == "en-US" {
			w.Write([]byte(`{"id":42,"overview":""}`))
			return
		}
		w.Write([]byte(`{"id":42,"title":"X"}`))
	}, nil)

	details, err := svc.MovieDetails(context.Background(), 42, nil)
	require.NoError(t, err)
	assert.Equal(t, SynopsisUnavailable, details["overview"])
}

func TestMovieDetailsFallbackFailureIsSwallowed(t *testing.T) {
	svc := newTestTMDB(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("language") == "en-US" {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`{"id":42,"title":"X","overview":null}`))
	}, nil)

	details, err := svc.MovieDetails(context.Background(), 42, nil)
	require.NoError(t, err)
	assert.Equal(t, SynopsisUnavailable, details["overview"])
	assert.Equal(t, "X", details["title"])
}

func TestMovieDetailsPrimaryFailure(t *testing.T) {
	svc := newTestTMDB(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"status_code":34,"status_message":"The resource you requested could not be found."}`))
	}, nil)

	_, err := svc.MovieDetails(context.Background(), 42, nil)
	assert.True(t, apperr.Is(err, apperr.KindUpstream))
}

func TestMovieDetailsUserRating(t *testing.T) {
	handler := func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"id":42,"overview":"ok","vote_average":7.5}`))
	}
	uid := 1

	svc := newTestTMDB(t, handler, stubRatings{rating: &model.Rating{MovieID: 42, Score: 9}})
	details, err := svc.MovieDetails(context.Background(), 42, &uid)
	require.NoError(t, err)
	assert.Equal(t, 9, details["user_rating"])
	assert.Equal(t, json.Number("7.5"), details["vote_average"])

	svc = newTestTMDB(t, handler, stubRatings{})
	details, err = svc.MovieDetails(context.Background(), 42, &uid)
	require.NoError(t, err)
	assert.Nil(t, details["user_rating"])

	svc = newTestTMDB(t, handler, stubRatings{err: errors.New("db down")})
	details, err = svc.MovieDetails(context.Background(), 42, &uid)
	require.NoError(t, err)
	assert.Nil(t, details["user_rating"])
}

func TestMovieDetailsSurvivesOtherCallerDisconnect(t *testing.T) {
	var calls int32
	arrived := make(chan struct{}, 1)
	release := make(chan struct{})
	svc := newTestTMDB(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		arrived <- struct{}{}
		<-release
		w.Write([]byte(`{"id":42,"overview":"ok"}`))
	}, nil)

	ctxA, cancelA := context.WithCancel(context.Background())
	errA := make(chan error, 1)
	go func() {
		_, err := svc.MovieDetails(ctxA, 42, nil)
		errA <- err
	}()
	<-arrived

	type result struct {
		details map[string]interface{}
		err     error
	}
	resB := make(chan result, 1)
	go func() {
		details, err := svc.MovieDetails(context.Background(), 42, nil)
		resB <- result{details, err}
	}()

	// 让 B 加入进行中的请求后再断开 A
	time.Sleep(50 * time.Millisecond)
	cancelA()
	close(release)

	b := <-resB
	require.NoError(t, b.err)
	assert.Equal(t, "ok", b.details["overview"])
	<-errA
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}
