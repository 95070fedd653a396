package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

type memStore struct {
	data     map[string]string
	counters map[string]int64
}

func newMemStore() *memStore {
	return &memStore{data: map[string]string{}, counters: map[string]int64{}}
}

func (m *memStore) Get(key string) (string, error) {
	v, ok := m.data[key]
	if !ok {
		return "", errors.New("redis: nil")
	}
	return v, nil
}

func (m *memStore) Set(key string, value string, _ time.Duration) error {
	m.data[key] = value
	return nil
}

func (m *memStore) Incr(key string) (int64, error) {
	m.counters[key]++
	return m.counters[key], nil
}

func (m *memStore) Expire(string, time.Duration) error { return nil }

func setupRouter(handlers ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(handlers...)
	r.POST("/orders", func(c *gin.Context) {
		c.JSON(http.StatusCreated, gin.H{"status": "ok"})
	})
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	return r
}

func TestRateLimiterPassesThroughWithoutRedis(t *testing.T) {
	r := setupRouter(RateLimiter(nil))

	for i := 0; i < RateLimit+5; i++ {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		r.ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			t.Fatalf("request %d blocked without redis: %d", i, w.Code)
		}
	}
}

func TestIdempotencyPassesThroughWithoutRedis(t *testing.T) {
	r := setupRouter(Idempotency(nil))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/orders", nil)
	req.Header.Set(IdempotencyKeyHeader, "abc-123")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", w.Code)
	}
	if w.Header().Get("X-Idempotency-Replayed") != "" {
		t.Fatal("replay header set without redis")
	}
}

func TestIdempotencyIgnoresRequestsWithoutKey(t *testing.T) {
	r := setupRouter(Idempotency(nil))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/orders", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", w.Code)
	}
}

func TestRateLimiterBlocksOverLimit(t *testing.T) {
	store := newMemStore()
	r := setupRouter(RateLimiter(store))

	var last *httptest.ResponseRecorder
	for i := 0; i < RateLimit+1; i++ {
		last = httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		r.ServeHTTP(last, req)
	}
	if last.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 past the limit, got %d", last.Code)
	}
	if last.Header().Get("X-RateLimit-Remaining") != "0" {
		t.Fatalf("unexpected remaining header: %q", last.Header().Get("X-RateLimit-Remaining"))
	}
}

func TestIdempotencyReplaysSuccessfulResponse(t *testing.T) {
	store := newMemStore()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Idempotency(store))
	hits := 0
	r.POST("/orders", func(c *gin.Context) {
		hits++
		c.JSON(http.StatusCreated, gin.H{"id": 101})
	})

	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/orders", nil)
		req.Header.Set(IdempotencyKeyHeader, "caja-enero")
		r.ServeHTTP(w, req)
		if w.Code != http.StatusCreated {
			t.Fatalf("request %d: expected 201, got %d", i, w.Code)
		}
		if i == 1 && w.Header().Get("X-Idempotency-Replayed") != "true" {
			t.Fatal("second request not replayed")
		}
	}
	if hits != 1 {
		t.Fatalf("handler ran %d times, want 1", hits)
	}
}

func TestIdempotencyDoesNotCacheErrors(t *testing.T) {
	store := newMemStore()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Idempotency(store))
	hits := 0
	r.POST("/orders", func(c *gin.Context) {
		hits++
		if hits == 1 {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "db caída"})
			return
		}
		c.JSON(http.StatusCreated, gin.H{"id": 101})
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/orders", nil)
	req.Header.Set(IdempotencyKeyHeader, "caja-febrero")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 first, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/orders", nil)
	req.Header.Set(IdempotencyKeyHeader, "caja-febrero")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusCreated {
		t.Fatalf("retry should reach the handler, got %d", w.Code)
	}
	if w.Header().Get("X-Idempotency-Replayed") == "true" {
		t.Fatal("error response was replayed")
	}
	if hits != 2 {
		t.Fatalf("handler ran %d times, want 2", hits)
	}
}
