package products

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"pastafresca-backend/migrations"

	"github.com/gin-gonic/gin"
	"github.com/go-sql-driver/mysql"
)

type stubStore struct {
	deleteErr error
	toggled   *Product
}

func (s *stubStore) All() ([]Product, error)         { return nil, nil }
func (s *stubStore) ByID(id int) (*Product, error)   { return nil, nil }
func (s *stubStore) Create(p *Product) error         { return nil }
func (s *stubStore) Update(id int, p *Product) error { return nil }
func (s *stubStore) Delete(id int) error             { return s.deleteErr }

func (s *stubStore) ToggleStock(id int) (*Product, error) {
	return s.toggled, nil
}

type stubInvalidator struct {
	productID int
	name      string
	calls     int
}

func (s *stubInvalidator) InvalidateForProduct(productID int, productName string) (int, error) {
	s.calls++
	s.productID = productID
	s.name = productName
	return 2, nil
}

func newCatalogRouter(store *stubStore, inv OrderInvalidator) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := &Handler{
		repo:        store,
		invalidator: inv,
		requireAdmin: func(c *gin.Context) *migrations.User {
			return &migrations.User{ID: 1, Role: "ADMIN"}
		},
	}
	r := gin.New()
	h.RegisterRoutes(r)
	return r
}

func TestDeleteConflictsWhenProductHasOrders(t *testing.T) {
	store := &stubStore{deleteErr: &mysql.MySQLError{Number: 1451, Message: "a foreign key constraint fails"}}
	r := newCatalogRouter(store, nil)

	req := httptest.NewRequest(http.MethodDelete, "/products/4", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d: %s", w.Code, w.Body.String())
	}
}

func TestDeleteOtherErrorsAreServerErrors(t *testing.T) {
	store := &stubStore{deleteErr: errors.New("connection lost")}
	r := newCatalogRouter(store, nil)

	req := httptest.NewRequest(http.MethodDelete, "/products/4", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
}

func TestToggleStockOffNotifiesOrders(t *testing.T) {
	store := &stubStore{toggled: &Product{ID: 4, Name: "Sorrentinos", InStock: false}}
	inv := &stubInvalidator{}
	r := newCatalogRouter(store, inv)

	req := httptest.NewRequest(http.MethodPatch, "/products/4/stock", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if inv.calls != 1 || inv.productID != 4 || inv.name != "Sorrentinos" {
		t.Fatalf("invalidator not called as expected: %+v", inv)
	}
}

func TestToggleStockOnDoesNotNotify(t *testing.T) {
	store := &stubStore{toggled: &Product{ID: 4, Name: "Sorrentinos", InStock: true}}
	inv := &stubInvalidator{}
	r := newCatalogRouter(store, inv)

	req := httptest.NewRequest(http.MethodPatch, "/products/4/stock", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if inv.calls != 0 {
		t.Fatal("invalidator called for a product back in stock")
	}
}
