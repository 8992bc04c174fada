package fetch

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/creamcroissant/autoconvert/internal/cache"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func fastRetry() RetryConfig {
	return RetryConfig{
		Enabled:         true,
		MaxRetries:      3,
		InitialInterval: time.Millisecond,
		MaxInterval:     2 * time.Millisecond,
		Multiplier:      2,
	}
}

func TestFetchRetriesTransientStatus(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "autoconvert-test", r.Header.Get("User-Agent"))
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte("ss://payload"))
	}))
	defer srv.Close()

	f := New(Options{UserAgent: "autoconvert-test", Retry: fastRetry(), Logger: quietLogger()})
	body, err := f.Fetch(context.Background(), srv.URL+"/sub?token=abc")
	require.NoError(t, err)
	assert.Equal(t, "ss://payload", string(body))
	assert.Equal(t, int32(3), calls.Load())
}

func TestFetchRetryLimits(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		wantCalls int32
	}{
		{name: "not found is permanent", status: http.StatusNotFound, wantCalls: 1},
		{name: "forbidden is permanent", status: http.StatusForbidden, wantCalls: 1},
		{name: "rate limited retries", status: http.StatusTooManyRequests, wantCalls: 4},
		{name: "server error retries", status: http.StatusBadGateway, wantCalls: 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls atomic.Int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				calls.Add(1)
				w.WriteHeader(tt.status)
			}))
			defer srv.Close()

			f := New(Options{Retry: fastRetry(), Logger: quietLogger()})
			_, err := f.Fetch(context.Background(), srv.URL)
			require.Error(t, err)
			var fetchErr *FetchError
			require.True(t, errors.As(err, &fetchErr))
			assert.Equal(t, tt.status, fetchErr.Status)
			assert.Equal(t, tt.wantCalls, calls.Load())
		})
	}
}

func TestFetchBodyLimit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(strings.Repeat("a", 64)))
	}))
	defer srv.Close()

	f := New(Options{MaxBytes: 16, Retry: fastRetry(), Logger: quietLogger()})
	_, err := f.Fetch(context.Background(), srv.URL)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTooLarge)
	assert.False(t, IsRetryable(err))
}

func TestFetchUsesCache(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		_, _ = w.Write([]byte("trojan://pw@host:443"))
	}))
	defer srv.Close()

	store := cache.NewStore(cache.Options{DefaultTTL: time.Minute})
	f := New(Options{Cache: store, CacheTTL: time.Minute, Logger: quietLogger()})
	for i := 0; i < 3; i++ {
		body, err := f.Fetch(context.Background(), srv.URL)
		require.NoError(t, err)
		assert.Equal(t, "trojan://pw@host:443", string(body))
	}
	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, 1, store.Namespace("fetch").Len())
}

func TestFetchRejectsScheme(t *testing.T) {
	f := New(Options{Logger: quietLogger()})
	_, err := f.Fetch(context.Background(), "ftp://example.com/sub")
	assert.ErrorIs(t, err, ErrUnsupportedScheme)

	_, err = f.Load(context.Background(), "file:///etc/passwd")
	assert.ErrorIs(t, err, ErrUnsupportedScheme)

	_, err = f.Load(context.Background(), "  ")
	assert.ErrorIs(t, err, ErrEmptySource)
}

func TestFetchCanceled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	f := New(Options{Retry: fastRetry(), Logger: quietLogger()})
	_, err := f.Fetch(ctx, srv.URL)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLoadLocalSources(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sub.txt")
	require.NoError(t, os.WriteFile(path, []byte("vmess://abc\n"), 0o600))

	f := New(Options{Stdin: strings.NewReader("ss://stdin"), Logger: quietLogger()})
	body, err := f.Load(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "vmess://abc\n", string(body))

	body, err = f.Load(context.Background(), StdinSource)
	require.NoError(t, err)
	assert.Equal(t, "ss://stdin", string(body))

	_, err = f.Load(context.Background(), filepath.Join(dir, "missing.txt"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestFetchErrorRedactsURL(t *testing.T) {
	err := &FetchError{URL: "https://sub.example.com/api/v1/client/subscribe?token=secret", Status: http.StatusNotFound}
	assert.Equal(t, "fetch https://sub.example.com/...: unexpected status 404 Not Found", err.Error())
	assert.NotContains(t, err.Error(), "secret")
	assert.Equal(t, "https://sub.example.com", Redact("https://sub.example.com"))
	assert.Equal(t, "<subscription>", Redact("not a url"))
}

func TestIsRetryable(t *testing.T) {
	assert.False(t, IsRetryable(nil))
	assert.False(t, IsRetryable(context.Canceled))
	assert.True(t, IsRetryable(&FetchError{Status: http.StatusInternalServerError}))
	assert.True(t, IsRetryable(&FetchError{Err: errors.New("connection reset")}))
	assert.False(t, IsRetryable(&FetchError{Status: http.StatusUnauthorized}))
	assert.False(t, IsRetryable(&FetchError{Err: ErrUnsupportedScheme}))
}
