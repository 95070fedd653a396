package orders

import (
	"log"
	"net/http"
	"strconv"
	"time"

	"pastafresca-backend/delivery"
	mailer "pastafresca-backend/email"
	"pastafresca-backend/events"
	"pastafresca-backend/login"
	"pastafresca-backend/migrations"
	"pastafresca-backend/products"
	"pastafresca-backend/reports"
	"pastafresca-backend/subscriptions"

	"github.com/gin-gonic/gin"
)

const defaultDeliveryTime = "09:00 - 13:00"

// OrderStore is what the handler needs from the order repository.
// *Repository satisfies it.
type OrderStore interface {
	ListAll() ([]Order, error)
	ListByUser(userID int) ([]Order, error)
	ByID(id int) (*Order, error)
	DeliveryDates(subscriptionID int) ([]time.Time, error)
	PendingBySubAndDate(subscriptionID int, date time.Time) (*Order, error)
	Create(o *Order) error
	ReplaceItems(orderID int, items []OrderItem, total float64) error
	UpdateStatus(id int, status string) error
}

// SubscriptionStore resolves the caller's subscription.
// *subscriptions.Repository satisfies it.
type SubscriptionStore interface {
	GetByID(id int) (*subscriptions.Subscription, error)
	GetCurrentByUser(userID int) (*subscriptions.Subscription, error)
}

// ProductCatalog extends the validator's lookup with the full listing the
// report endpoints need. *products.Repository satisfies it.
type ProductCatalog interface {
	Catalog
	All() ([]products.Product, error)
}

type Handler struct {
	repo      OrderStore
	subs      SubscriptionStore
	products  ProductCatalog
	validator *BoxValidator
	hub       *events.Hub
	now       func() time.Time

	requireUser  func(c *gin.Context) *migrations.User
	requireAdmin func(c *gin.Context) *migrations.User
}

func NewHandler(repo *Repository, subs *subscriptions.Repository, prodRepo *products.Repository, hub *events.Hub) *Handler {
	return &Handler{
		repo:         repo,
		subs:         subs,
		products:     prodRepo,
		validator:    NewBoxValidator(prodRepo),
		hub:          hub,
		now:          time.Now,
		requireUser:  login.RequireUser,
		requireAdmin: login.RequireAdmin,
	}
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.POST("/orders", h.create)
	r.GET("/orders", h.listAll)
	r.GET("/orders/me", h.listMine)
	r.GET("/orders/next-date", h.nextDate)
	r.GET("/orders/:id", h.get)
	r.PUT("/orders/:id/deliver", h.markDelivered)
	r.PUT("/orders/:id/cancel", h.cancel)

	r.GET("/reports/production", h.productionReport)
	r.GET("/reports/monthly", h.monthlyReport)
	r.GET("/reports/logistics", h.logisticsReport)
}

type createPayload struct {
	SubscriptionID int    `json:"subscriptionId"`
	DeliveryDate   string `json:"deliveryDate"` // YYYY-MM-DD
	DeliveryTime   string `json:"deliveryTime"`
	Items          []struct {
		ProductID int `json:"productId"`
		Quantity  int `json:"quantity"`
	} `json:"items"`
}

// create confirms a box for a delivery date. If the subscription already has
// an editable order for that date this is an edit: the contents are replaced
// in place instead of duplicating the order.
func (h *Handler) create(c *gin.Context) {
	user := h.requireUser(c)
	if user == nil {
		return
	}
	var p createPayload
	if err := c.ShouldBindJSON(&p); err != nil || p.SubscriptionID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "datos inválidos"})
		return
	}
	sub, err := h.subs.GetByID(p.SubscriptionID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if sub == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "suscripción no encontrada"})
		return
	}
	if sub.UserID != user.ID {
		c.JSON(http.StatusForbidden, gin.H{"error": "no autorizado"})
		return
	}
	if sub.Status != subscriptions.StatusActive {
		c.JSON(http.StatusConflict, gin.H{"error": "la suscripción no está activa"})
		return
	}
	if sub.Plan == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "plan no disponible"})
		return
	}
	date, err := time.Parse("2006-01-02", p.DeliveryDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "fecha de entrega inválida"})
		return
	}
	now := h.now()
	if delivery.IsLocked(date, now) {
		c.JSON(http.StatusConflict, gin.H{"error": "la edición cierra 48 horas antes de la entrega"})
		return
	}

	items := make([]OrderItem, 0, len(p.Items))
	for _, it := range p.Items {
		items = append(items, OrderItem{ProductID: it.ProductID, Quantity: it.Quantity})
	}
	total, err := h.validator.Validate(sub.Plan, items)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	existing, err := h.repo.PendingBySubAndDate(sub.ID, date)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if existing != nil {
		if err := h.repo.ReplaceItems(existing.ID, items, total); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		updated, err := h.repo.ByID(existing.ID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		if h.hub != nil {
			h.hub.Publish(events.OrderModified, existing.ID, "Caja re-confirmada")
		}
		c.JSON(http.StatusOK, updated)
		return
	}

	deliveryTime := p.DeliveryTime
	if deliveryTime == "" {
		deliveryTime = defaultDeliveryTime
	}
	o := &Order{
		SubscriptionID:  sub.ID,
		UserID:          user.ID,
		Status:          StatusPending,
		DeliveryDate:    date,
		DeliveryTime:    deliveryTime,
		DeliveryAddress: user.Address(),
		TotalAmount:     total,
		Items:           items,
	}
	if err := h.repo.Create(o); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if err := mailer.SendOrderConfirmed(user.Email, p.DeliveryDate); err != nil {
		log.Printf("[ORDERS] confirmation mail failed for %s: %v", user.Email, err)
	}
	if h.hub != nil {
		h.hub.Publish(events.OrderCreated, o.ID, "Nueva caja confirmada")
	}
	created, err := h.repo.ByID(o.ID)
	if err != nil {
		c.JSON(http.StatusCreated, o)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (h *Handler) listAll(c *gin.Context) {
	if h.requireAdmin(c) == nil {
		return
	}
	list, err := h.repo.ListAll()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *Handler) listMine(c *gin.Context) {
	user := h.requireUser(c)
	if user == nil {
		return
	}
	list, err := h.repo.ListByUser(user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *Handler) get(c *gin.Context) {
	user := h.requireUser(c)
	if user == nil {
		return
	}
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id inválido"})
		return
	}
	o, err := h.repo.ByID(id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if o == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "pedido no encontrado"})
		return
	}
	if o.UserID != user.ID && user.Role != "ADMIN" {
		c.JSON(http.StatusForbidden, gin.H{"error": "no autorizado"})
		return
	}
	c.JSON(http.StatusOK, o)
}

// nextDate resolves the delivery date the subscriber's next box should
// target, skipping months already claimed by an order.
func (h *Handler) nextDate(c *gin.Context) {
	user := h.requireUser(c)
	if user == nil {
		return
	}
	sub, err := h.subs.GetCurrentByUser(user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if sub == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "sin suscripción"})
		return
	}
	if sub.Status != subscriptions.StatusActive {
		c.JSON(http.StatusConflict, gin.H{"error": "la suscripción no está activa"})
		return
	}
	dates, err := h.repo.DeliveryDates(sub.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	now := h.now()
	next, err := delivery.NextDate(sub.DeliveryPreference, now, now, dates)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"deliveryDate": next.Format("2006-01-02"),
		"locked":       delivery.IsLocked(next, now),
	})
}

func (h *Handler) markDelivered(c *gin.Context) {
	if h.requireAdmin(c) == nil {
		return
	}
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id inválido"})
		return
	}
	if err := h.repo.UpdateStatus(id, StatusDelivered); err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	if h.hub != nil {
		h.hub.Publish(events.OrderDelivered, id, "Pedido entregado")
	}
	o, err := h.repo.ByID(id)
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
		return
	}
	c.JSON(http.StatusOK, o)
}

func (h *Handler) cancel(c *gin.Context) {
	user := h.requireUser(c)
	if user == nil {
		return
	}
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id inválido"})
		return
	}
	o, err := h.repo.ByID(id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if o == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "pedido no encontrado"})
		return
	}
	if o.UserID != user.ID && user.Role != "ADMIN" {
		c.JSON(http.StatusForbidden, gin.H{"error": "no autorizado"})
		return
	}
	if user.Role != "ADMIN" && delivery.IsLocked(o.DeliveryDate, h.now()) {
		c.JSON(http.StatusConflict, gin.H{"error": "la edición cierra 48 horas antes de la entrega"})
		return
	}
	if err := h.repo.UpdateStatus(id, StatusCancelled); err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	if h.hub != nil {
		h.hub.Publish(events.OrderCancelled, id, "Pedido cancelado")
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// --- Reportes (cocina y logística) ---

func (h *Handler) reportInputs(c *gin.Context) ([]reports.Order, map[int]reports.ProductInfo, time.Time, bool) {
	if h.requireAdmin(c) == nil {
		return nil, nil, time.Time{}, false
	}
	month := h.now()
	if v := c.Query("month"); v != "" {
		parsed, err := time.Parse("2006-01", v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "mes inválido, use YYYY-MM"})
			return nil, nil, time.Time{}, false
		}
		month = parsed
	}
	all, err := h.repo.ListAll()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return nil, nil, time.Time{}, false
	}
	catalog, err := h.products.All()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return nil, nil, time.Time{}, false
	}
	productMap := make(map[int]reports.ProductInfo, len(catalog))
	for _, p := range catalog {
		productMap[p.ID] = reports.ProductInfo{ID: p.ID, Name: p.Name, Category: p.Category, InStock: p.InStock}
	}
	return toReportOrders(all), productMap, month, true
}

func toReportOrders(list []Order) []reports.Order {
	out := make([]reports.Order, 0, len(list))
	for _, o := range list {
		items := make([]reports.OrderItem, 0, len(o.Items))
		for _, it := range o.Items {
			items = append(items, reports.OrderItem{ProductID: it.ProductID, Quantity: it.Quantity})
		}
		out = append(out, reports.Order{
			ID:           o.ID,
			Status:       o.Status,
			Customer:     o.CustomerName,
			Address:      o.DeliveryAddress,
			DeliveryDate: o.DeliveryDate,
			DeliveryTime: o.DeliveryTime,
			Items:        items,
		})
	}
	return out
}

func (h *Handler) productionReport(c *gin.Context) {
	orders, catalog, month, ok := h.reportInputs(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"month":  month.Format("2006-01"),
		"weeks":  reports.ProductionPlan(orders, catalog, month, h.now()),
		"totals": reports.Monthly(orders, catalog, month),
	})
}

func (h *Handler) monthlyReport(c *gin.Context) {
	orders, catalog, month, ok := h.reportInputs(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"month":  month.Format("2006-01"),
		"totals": reports.Monthly(orders, catalog, month),
	})
}

func (h *Handler) logisticsReport(c *gin.Context) {
	orders, _, month, ok := h.reportInputs(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"month": month.Format("2006-01"),
		"weeks": reports.LogisticsSchedule(orders, month, h.now()),
	})
}
