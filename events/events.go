package events

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"pastafresca-backend/login"

	"github.com/gin-gonic/gin"
)

// Tipos de evento del ciclo de vida de un pedido.
const (
	OrderCreated   = "order_created"
	OrderModified  = "order_modified"
	OrderDelivered = "order_delivered"
	OrderCancelled = "order_cancelled"
)

type Event struct {
	Type    string    `json:"type"`
	OrderID int       `json:"order_id"`
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}

// Hub broadcasts order events to every connected dashboard. Slow consumers
// drop events instead of blocking the publisher.
type Hub struct {
	mu   sync.Mutex
	subs map[chan Event]bool
}

func NewHub() *Hub {
	return &Hub{subs: map[chan Event]bool{}}
}

func (h *Hub) Subscribe() chan Event {
	ch := make(chan Event, 16)
	h.mu.Lock()
	h.subs[ch] = true
	h.mu.Unlock()
	return ch
}

func (h *Hub) Unsubscribe(ch chan Event) {
	h.mu.Lock()
	if h.subs[ch] {
		delete(h.subs, ch)
		close(ch)
	}
	h.mu.Unlock()
}

func (h *Hub) Publish(eventType string, orderID int, message string) {
	e := Event{Type: eventType, OrderID: orderID, Message: message, At: time.Now()}
	h.mu.Lock()
	for ch := range h.subs {
		select {
		case ch <- e:
		default:
		}
	}
	h.mu.Unlock()
}

// StreamHandler streams events to the admin dashboard as SSE lines in the
// form "data: <json>\n\n", until the client disconnects.
func (h *Hub) StreamHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if login.RequireAdmin(c) == nil {
			return
		}
		c.Header("Content-Type", "text/event-stream")
		c.Header("Cache-Control", "no-cache")
		c.Header("Connection", "keep-alive")
		c.Status(http.StatusOK)

		flusher, ok := c.Writer.(http.Flusher)
		if !ok {
			c.AbortWithStatus(http.StatusInternalServerError)
			return
		}

		ch := h.Subscribe()
		defer h.Unsubscribe(ch)
		for {
			select {
			case <-c.Request.Context().Done():
				return
			case e, open := <-ch:
				if !open {
					return
				}
				payload, _ := json.Marshal(e)
				_, _ = c.Writer.Write([]byte("data: " + string(payload) + "\n\n"))
				flusher.Flush()
			}
		}
	}
}
