package rawg

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"catalog_syncer/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newTestSource(baseURL string) *Source {
	return New(Config{
		BaseURL:        baseURL,
		Key:            "test-key",
		Timeout:        5 * time.Second,
		MaxAttempts:    3,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     10 * time.Millisecond,
	}, testLogger())
}

const pageOneBody = `{
	"count": 3,
	"next": "https://api.example.com/games?page=2",
	"previous": null,
	"results": [
		{"id": 1, "slug": "alpha", "name": "Alpha", "released": "2020-05-15", "rating": 4.2},
		{"id": 2, "slug": "beta", "name": "Beta", "released": "1998"},
		{"id": 3, "slug": "", "name": "Broken"}
	]
}`

func TestFetchPage_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "test-key", q.Get("key"))
		assert.Equal(t, "1", q.Get("page"))
		assert.Equal(t, "40", q.Get("page_size"))
		assert.Equal(t, "application/json", r.Header.Get("Accept"))

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, pageOneBody)
	}))
	defer srv.Close()

	src := newTestSource(srv.URL)

	result, err := src.FetchPage(context.Background(), 1, 40)

	require.NoError(t, err)
	assert.True(t, result.HasNext)
	require.Len(t, result.Entries, 2)
	assert.Equal(t, "alpha", result.Entries[0].Slug)
	assert.Equal(t, "beta", result.Entries[1].Slug)
	require.Len(t, result.Rejected, 1)
	assert.Equal(t, "missing slug", result.Rejected[0].Reason)
}

func TestFetchPage_LastPageHasNoNext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"count": 1, "next": null, "results": [{"id": 9, "slug": "omega", "name": "Omega"}]}`)
	}))
	defer srv.Close()

	src := newTestSource(srv.URL)

	result, err := src.FetchPage(context.Background(), 5, 40)

	require.NoError(t, err)
	assert.False(t, result.HasNext)
	assert.Len(t, result.Entries, 1)
}

func TestFetchPage_NotFoundIsTerminal(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	src := newTestSource(srv.URL)

	_, err := src.FetchPage(context.Background(), 9999, 40)

	require.ErrorIs(t, err, domain.ErrNoMorePages)
	assert.Equal(t, int32(1), calls.Load(), "terminal pagination must not be retried")
}

func TestFetchPage_RetriesTransientErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		fmt.Fprint(w, `{"count": 1, "next": null, "results": [{"id": 1, "slug": "alpha", "name": "Alpha"}]}`)
	}))
	defer srv.Close()

	src := newTestSource(srv.URL)

	result, err := src.FetchPage(context.Background(), 1, 40)

	require.NoError(t, err)
	assert.Len(t, result.Entries, 1)
	assert.Equal(t, int32(3), calls.Load())
}

func TestFetchPage_RetryExhaustion(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	src := newTestSource(srv.URL)

	_, err := src.FetchPage(context.Background(), 1, 40)

	require.Error(t, err)
	assert.False(t, errors.Is(err, domain.ErrNoMorePages))
	assert.Equal(t, int32(3), calls.Load())
}

func TestFetchPage_PermanentClientErrorFailsFast(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	src := newTestSource(srv.URL)

	_, err := src.FetchPage(context.Background(), 1, 40)

	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load(), "a bad API key is not worth retrying")
}

func TestFetchPage_TooManyRequestsIsRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		fmt.Fprint(w, `{"count": 0, "next": null, "results": []}`)
	}))
	defer srv.Close()

	src := newTestSource(srv.URL)

	result, err := src.FetchPage(context.Background(), 1, 40)

	require.NoError(t, err)
	assert.Empty(t, result.Entries)
	assert.Equal(t, int32(2), calls.Load())
}

func TestFetchPage_MalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"results": [`)
	}))
	defer srv.Close()

	src := newTestSource(srv.URL)

	_, err := src.FetchPage(context.Background(), 1, 40)

	require.Error(t, err)
}
