package products

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"pastafresca-backend/login"
	"pastafresca-backend/migrations"

	"github.com/gin-gonic/gin"
	"github.com/go-sql-driver/mysql"
)

// OrderInvalidator marks pending orders that contain a product which just ran
// out of stock. Implemented by the orders package; injected here so the
// catalog does not depend on order storage.
type OrderInvalidator interface {
	InvalidateForProduct(productID int, productName string) (int, error)
}

// Store is the catalog persistence the handler needs. *Repository satisfies it.
type Store interface {
	All() ([]Product, error)
	ByID(id int) (*Product, error)
	Create(p *Product) error
	Update(id int, p *Product) error
	ToggleStock(id int) (*Product, error)
	Delete(id int) error
}

type Handler struct {
	repo        Store
	invalidator OrderInvalidator

	requireAdmin func(c *gin.Context) *migrations.User
}

func NewHandler(repo *Repository, invalidator OrderInvalidator) *Handler {
	return &Handler{repo: repo, invalidator: invalidator, requireAdmin: login.RequireAdmin}
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/products", h.list)
	r.GET("/products/:id", h.get)
	r.POST("/products", h.create)
	r.PUT("/products/:id", h.update)
	r.PATCH("/products/:id/stock", h.toggleStock)
	r.DELETE("/products/:id", h.delete)
}

func (h *Handler) list(c *gin.Context) {
	list, err := h.repo.All()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *Handler) get(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id inválido"})
		return
	}
	p, err := h.repo.ByID(id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if p == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "producto no encontrado"})
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *Handler) create(c *gin.Context) {
	if h.requireAdmin(c) == nil {
		return
	}
	var p Product
	if err := c.ShouldBindJSON(&p); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "datos inválidos"})
		return
	}
	if p.Name == "" || !ValidCategory(p.Category) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "nombre o categoría inválidos"})
		return
	}
	if err := h.repo.Create(&p); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, p)
}

func (h *Handler) update(c *gin.Context) {
	if h.requireAdmin(c) == nil {
		return
	}
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id inválido"})
		return
	}
	cur, err := h.repo.ByID(id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if cur == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "producto no encontrado"})
		return
	}
	var p Product
	if err := c.ShouldBindJSON(&p); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "datos inválidos"})
		return
	}
	if !ValidCategory(p.Category) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "categoría inválida"})
		return
	}
	if err := h.repo.Update(id, &p); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	p.ID = id
	c.JSON(http.StatusOK, p)
}

// toggleStock flips availability. When a product goes OUT of stock, any
// pending order that contains it must be pushed back to the subscriber for
// re-confirmation; the invalidator takes care of that.
func (h *Handler) toggleStock(c *gin.Context) {
	if h.requireAdmin(c) == nil {
		return
	}
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id inválido"})
		return
	}
	p, err := h.repo.ToggleStock(id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if p == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "producto no encontrado"})
		return
	}
	if !p.InStock && h.invalidator != nil {
		n, err := h.invalidator.InvalidateForProduct(p.ID, p.Name)
		if err != nil {
			log.Printf("[PRODUCTS] invalidate orders for product %d failed: %v", p.ID, err)
		} else if n > 0 {
			log.Printf("[PRODUCTS] %d pedidos pasados a MODIFICADO por falta de stock de %q", n, p.Name)
		}
	}
	c.JSON(http.StatusOK, p)
}

func (h *Handler) delete(c *gin.Context) {
	if h.requireAdmin(c) == nil {
		return
	}
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id inválido"})
		return
	}
	if err := h.repo.Delete(id); err != nil {
		var me *mysql.MySQLError
		if errors.As(err, &me) && me.Number == 1451 {
			// Referenced by order_items: history stays intact, the product
			// can only be taken out of stock.
			c.JSON(http.StatusConflict, gin.H{"error": "el producto tiene pedidos asociados, marcarlo sin stock en su lugar"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
