package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type checkerFunc func(ctx context.Context) error

func (f checkerFunc) Check(ctx context.Context) error { return f(ctx) }

func TestHealthHandler(t *testing.T) {
	h := HealthHandler(map[string]HealthChecker{
		"minio": checkerFunc(func(context.Context) error { return nil }),
	})
	rec := httptest.NewRecorder()
	h(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	var got HealthStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "healthy", got.Status)
	assert.Equal(t, "healthy", got.Checks["minio"].Status)
}

func TestHealthHandlerUnhealthy(t *testing.T) {
	h := HealthHandler(map[string]HealthChecker{
		"minio":      checkerFunc(func(context.Context) error { return nil }),
		"references": checkerFunc(func(context.Context) error { return errors.New("dial tcp: refused") }),
	})
	rec := httptest.NewRecorder()
	h(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	var got HealthStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "unhealthy", got.Status)
	assert.Equal(t, "dial tcp: refused", got.Checks["references"].Message)
	assert.Equal(t, "healthy", got.Checks["minio"].Status)
}

func TestRateLimitDisabled(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) })
	h := RateLimitMiddleware(0)(ok)
	for i := 0; i < 5; i++ {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/upload", nil))
		assert.Equal(t, http.StatusNoContent, rec.Code)
	}
}

func TestHealthHandlerRunsChecksConcurrently(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{}, 2)
	slow := checkerFunc(func(ctx context.Context) error {
		started <- struct{}{}
		select {
		case <-release:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	})
	h := HealthHandler(map[string]HealthChecker{"a": slow, "b": slow})

	go func() {
		// both checks must be in flight before either is released
		<-started
		<-started
		close(release)
	}()

	rec := httptest.NewRecorder()
	h(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHealthHandlerNoCheckers(t *testing.T) {
	rec := httptest.NewRecorder()
	HealthHandler(nil)(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	var got HealthStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "healthy", got.Status)
	assert.Empty(t, got.Checks)
}
