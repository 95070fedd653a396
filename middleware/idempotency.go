package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const (
	IdempotencyKeyHeader = "Idempotency-Key"
	IdempotencyTTL       = 24 * time.Hour
)

type cachedResponse struct {
	StatusCode int    `json:"status_code"`
	Body       string `json:"body"`
}

type bodyRecorder struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (r *bodyRecorder) Write(b []byte) (int, error) {
	r.body.Write(b)
	return r.ResponseWriter.Write(b)
}

// Idempotency replays the stored response when a mutating request repeats
// the same Idempotency-Key within the TTL. Requests without the header pass
// through untouched, so only clients that opt in pay for it.
func Idempotency(store Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		if store == nil {
			c.Next()
			return
		}
		switch c.Request.Method {
		case http.MethodPost, http.MethodPut, http.MethodDelete:
		default:
			c.Next()
			return
		}
		key := c.GetHeader(IdempotencyKeyHeader)
		if key == "" {
			c.Next()
			return
		}

		cacheKey := "idempotency:" + key
		if cached, err := store.Get(cacheKey); err == nil && cached != "" {
			var resp cachedResponse
			if err := json.Unmarshal([]byte(cached), &resp); err == nil {
				c.Header("Content-Type", "application/json")
				c.Header("X-Idempotency-Replayed", "true")
				c.String(resp.StatusCode, resp.Body)
				c.Abort()
				return
			}
		}

		recorder := &bodyRecorder{ResponseWriter: c.Writer, body: &bytes.Buffer{}}
		c.Writer = recorder
		c.Next()

		// Only successful responses are worth replaying; a transient 5xx
		// must not be pinned for 24 hours.
		if recorder.Status() < 200 || recorder.Status() >= 300 {
			return
		}
		resp := cachedResponse{StatusCode: recorder.Status(), Body: recorder.body.String()}
		if respJSON, err := json.Marshal(resp); err == nil {
			store.Set(cacheKey, string(respJSON), IdempotencyTTL)
		}
	}
}
