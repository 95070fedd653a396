package orders

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"pastafresca-backend/migrations"
	"pastafresca-backend/products"
	"pastafresca-backend/subscriptions"

	"github.com/gin-gonic/gin"
)

type stubOrderStore struct {
	existing      *Order
	created       *Order
	replacedID    int
	replacedItems []OrderItem
	deliveryDates []time.Time
}

func (s *stubOrderStore) ListAll() ([]Order, error)              { return nil, nil }
func (s *stubOrderStore) ListByUser(userID int) ([]Order, error) { return nil, nil }

func (s *stubOrderStore) ByID(id int) (*Order, error) {
	if s.created != nil && s.created.ID == id {
		return s.created, nil
	}
	if s.existing != nil && s.existing.ID == id {
		return s.existing, nil
	}
	return nil, nil
}

func (s *stubOrderStore) DeliveryDates(subscriptionID int) ([]time.Time, error) {
	return s.deliveryDates, nil
}

func (s *stubOrderStore) PendingBySubAndDate(subscriptionID int, date time.Time) (*Order, error) {
	if s.existing != nil && s.existing.DeliveryDate.Equal(date) {
		return s.existing, nil
	}
	return nil, nil
}

func (s *stubOrderStore) Create(o *Order) error {
	o.ID = 101
	s.created = o
	return nil
}

func (s *stubOrderStore) ReplaceItems(orderID int, items []OrderItem, total float64) error {
	s.replacedID = orderID
	s.replacedItems = items
	return nil
}

func (s *stubOrderStore) UpdateStatus(id int, status string) error { return nil }

type stubSubStore struct {
	sub *subscriptions.Subscription
}

func (s *stubSubStore) GetByID(id int) (*subscriptions.Subscription, error) {
	if s.sub != nil && s.sub.ID == id {
		return s.sub, nil
	}
	return nil, nil
}

func (s *stubSubStore) GetCurrentByUser(userID int) (*subscriptions.Subscription, error) {
	return s.sub, nil
}

type stubCatalog struct {
	*mockCatalog
}

func (s stubCatalog) All() ([]products.Product, error) {
	out := make([]products.Product, 0, len(s.items))
	for _, p := range s.items {
		out = append(out, *p)
	}
	return out, nil
}

func testUser() *migrations.User {
	return &migrations.User{
		ID:        10,
		FirstName: "Ana",
		LastName:  "Pérez",
		Email:     "ana@pastafresca.com.ar",
		Role:      "CLIENT",
		Street:    "San Martín",
		Number:    "450",
		City:      "Rosario",
	}
}

func activeSub() *subscriptions.Subscription {
	return &subscriptions.Subscription{
		ID:                 3,
		UserID:             10,
		Status:             subscriptions.StatusActive,
		DeliveryPreference: 2,
		Plan:               clasicoPlan(),
	}
}

func newOrderRouter(store *stubOrderStore, sub *subscriptions.Subscription, now time.Time) (*Handler, *gin.Engine) {
	gin.SetMode(gin.TestMode)
	cat := testCatalog()
	h := &Handler{
		repo:      store,
		subs:      &stubSubStore{sub: sub},
		products:  stubCatalog{cat},
		validator: NewBoxValidator(cat),
		now:       func() time.Time { return now },
		requireUser: func(c *gin.Context) *migrations.User {
			return testUser()
		},
		requireAdmin: func(c *gin.Context) *migrations.User {
			return nil
		},
	}
	r := gin.New()
	h.RegisterRoutes(r)
	return h, r
}

func postOrder(r *gin.Engine, payload map[string]any) *httptest.ResponseRecorder {
	b, _ := json.Marshal(payload)
	req := httptest.NewRequest(http.MethodPost, "/orders", bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestCreateOrderRejectsLockedDate(t *testing.T) {
	store := &stubOrderStore{}
	now := time.Date(2025, 1, 9, 12, 0, 0, 0, time.UTC)
	_, r := newOrderRouter(store, activeSub(), now)

	// Delivery tomorrow: inside the 48h window.
	w := postOrder(r, map[string]any{
		"subscriptionId": 3,
		"deliveryDate":   "2025-01-10",
		"items":          []map[string]any{{"productId": 1, "quantity": 2}},
	})
	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d: %s", w.Code, w.Body.String())
	}
	if store.created != nil {
		t.Fatal("order written despite the cutoff")
	}
}

func TestCreateOrderRequiresActiveSubscription(t *testing.T) {
	sub := activeSub()
	sub.Status = subscriptions.StatusPaused
	store := &stubOrderStore{}
	now := time.Date(2025, 1, 5, 12, 0, 0, 0, time.UTC)
	_, r := newOrderRouter(store, sub, now)

	w := postOrder(r, map[string]any{
		"subscriptionId": 3,
		"deliveryDate":   "2025-01-20",
		"items":          []map[string]any{{"productId": 1, "quantity": 2}},
	})
	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d: %s", w.Code, w.Body.String())
	}
}

func TestCreateOrderWritesNewOrder(t *testing.T) {
	store := &stubOrderStore{}
	now := time.Date(2025, 1, 5, 12, 0, 0, 0, time.UTC)
	_, r := newOrderRouter(store, activeSub(), now)

	w := postOrder(r, map[string]any{
		"subscriptionId": 3,
		"deliveryDate":   "2025-01-20",
		"items":          []map[string]any{{"productId": 1, "quantity": 3}},
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	if store.created == nil {
		t.Fatal("order not written")
	}
	if store.created.Status != StatusPending {
		t.Fatalf("expected PENDING, got %s", store.created.Status)
	}
	if store.created.DeliveryAddress != "San Martín 450, Rosario" {
		t.Fatalf("unexpected address: %q", store.created.DeliveryAddress)
	}
	if store.created.TotalAmount != 3*3500 {
		t.Fatalf("unexpected total: %.2f", store.created.TotalAmount)
	}
	if store.created.DeliveryTime != defaultDeliveryTime {
		t.Fatalf("unexpected delivery time: %q", store.created.DeliveryTime)
	}
}

func TestCreateOrderReplacesSameDateOrder(t *testing.T) {
	date := time.Date(2025, 1, 20, 0, 0, 0, 0, time.UTC)
	store := &stubOrderStore{
		existing: &Order{
			ID:             7,
			SubscriptionID: 3,
			UserID:         10,
			Status:         StatusPending,
			DeliveryDate:   date,
			Items:          []OrderItem{{ProductID: 1, Quantity: 1}},
		},
	}
	now := time.Date(2025, 1, 5, 12, 0, 0, 0, time.UTC)
	_, r := newOrderRouter(store, activeSub(), now)

	w := postOrder(r, map[string]any{
		"subscriptionId": 3,
		"deliveryDate":   "2025-01-20",
		"items":          []map[string]any{{"productId": 1, "quantity": 4}},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if store.created != nil {
		t.Fatal("duplicated order instead of replacing")
	}
	if store.replacedID != 7 {
		t.Fatalf("expected replace of order 7, got %d", store.replacedID)
	}
	if len(store.replacedItems) != 1 || store.replacedItems[0].Quantity != 4 {
		t.Fatalf("unexpected replacement items: %+v", store.replacedItems)
	}
}

func TestCreateOrderRejectsForeignSubscription(t *testing.T) {
	sub := activeSub()
	sub.UserID = 99
	store := &stubOrderStore{}
	now := time.Date(2025, 1, 5, 12, 0, 0, 0, time.UTC)
	_, r := newOrderRouter(store, sub, now)

	w := postOrder(r, map[string]any{
		"subscriptionId": 3,
		"deliveryDate":   "2025-01-20",
		"items":          []map[string]any{{"productId": 1, "quantity": 2}},
	})
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d: %s", w.Code, w.Body.String())
	}
}

func TestNextDateSkipsClaimedMonth(t *testing.T) {
	// January's second Friday is already claimed, so the resolver lands on
	// February's.
	store := &stubOrderStore{
		deliveryDates: []time.Time{time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)},
	}
	now := time.Date(2025, 1, 5, 12, 0, 0, 0, time.UTC)
	_, r := newOrderRouter(store, activeSub(), now)

	req := httptest.NewRequest(http.MethodGet, "/orders/next-date", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var resp struct {
		DeliveryDate string `json:"deliveryDate"`
		Locked       bool   `json:"locked"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp.DeliveryDate != "2025-02-14" {
		t.Fatalf("expected 2025-02-14, got %s", resp.DeliveryDate)
	}
	if resp.Locked {
		t.Fatal("date a month out reported as locked")
	}
}
