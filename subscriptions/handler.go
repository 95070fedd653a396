package subscriptions

import (
	"net/http"
	"strconv"

	"pastafresca-backend/login"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	repo   *Repository
	stripe *StripeService
}

func NewHandler(repo *Repository, stripe *StripeService) *Handler {
	return &Handler{repo: repo, stripe: stripe}
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/subscriptions", h.getSubscriptions)
	r.GET("/subscriptions/me", h.getMySubscription)
	r.POST("/subscriptions", h.createSubscription)
	r.PUT("/subscriptions/:id/preference", h.updatePreference)
	r.PUT("/subscriptions/:id/pause", h.pauseSubscription)
	r.PUT("/subscriptions/:id/cancel", h.cancelSubscription)

	// Payment link flow: the frontend redirects the browser to payment_url
	// and calls verify when the provider sends it back.
	r.POST("/payments/subscription/:id", h.createPaymentLink)
	r.GET("/payments/verify/:id", h.verifyPayment)
}

func (h *Handler) getSubscriptions(c *gin.Context) {
	if login.RequireAdmin(c) == nil {
		return
	}
	userID := 0
	if v := c.Query("user_id"); v != "" {
		if id, err := strconv.Atoi(v); err == nil {
			userID = id
		}
	}
	subs, err := h.repo.GetSubscriptions(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, subs)
}

func (h *Handler) getMySubscription(c *gin.Context) {
	user := login.RequireUser(c)
	if user == nil {
		return
	}
	sub, err := h.repo.GetCurrentByUser(user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if sub == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "sin suscripción"})
		return
	}
	c.JSON(http.StatusOK, sub)
}

type createPayload struct {
	PlanID             int `json:"planId"`
	DeliveryPreference int `json:"deliveryPreference"`
}

func (h *Handler) createSubscription(c *gin.Context) {
	user := login.RequireUser(c)
	if user == nil {
		return
	}
	var p createPayload
	if err := c.ShouldBindJSON(&p); err != nil || p.PlanID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "datos inválidos"})
		return
	}
	if p.DeliveryPreference == 0 {
		p.DeliveryPreference = 1
	}
	if p.DeliveryPreference < 1 || p.DeliveryPreference > 4 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "preferencia de entrega fuera de rango (1-4)"})
		return
	}
	plan, err := h.repo.plans.GetPlanByID(p.PlanID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if plan == nil || !plan.Active {
		c.JSON(http.StatusBadRequest, gin.H{"error": "plan inválido"})
		return
	}
	sub := &Subscription{UserID: user.ID, PlanID: p.PlanID, DeliveryPreference: p.DeliveryPreference}
	if err := h.repo.Create(sub); err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	sub.Plan = plan
	c.JSON(http.StatusCreated, sub)
}

type preferencePayload struct {
	DeliveryPreference int `json:"deliveryPreference"`
}

func (h *Handler) updatePreference(c *gin.Context) {
	sub := h.ownSubscription(c)
	if sub == nil {
		return
	}
	var p preferencePayload
	if err := c.ShouldBindJSON(&p); err != nil || p.DeliveryPreference < 1 || p.DeliveryPreference > 4 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "preferencia de entrega fuera de rango (1-4)"})
		return
	}
	if err := h.repo.UpdatePreference(sub.ID, p.DeliveryPreference); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) pauseSubscription(c *gin.Context) {
	sub := h.ownSubscription(c)
	if sub == nil {
		return
	}
	if sub.Status == StatusCancelled {
		c.JSON(http.StatusConflict, gin.H{"error": "la suscripción está cancelada"})
		return
	}
	if err := h.repo.UpdateStatus(sub.ID, StatusPaused); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) cancelSubscription(c *gin.Context) {
	sub := h.ownSubscription(c)
	if sub == nil {
		return
	}
	if err := h.repo.UpdateStatus(sub.ID, StatusCancelled); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// ownSubscription loads the :id subscription and checks it belongs to the
// requester (admins can touch any).
func (h *Handler) ownSubscription(c *gin.Context) *Subscription {
	u := login.RequireUser(c)
	if u == nil {
		return nil
	}
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id inválido"})
		return nil
	}
	sub, err := h.repo.GetByID(id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return nil
	}
	if sub == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "suscripción no encontrada"})
		return nil
	}
	if sub.UserID != u.ID && u.Role != "ADMIN" {
		c.JSON(http.StatusForbidden, gin.H{"error": "no autorizado"})
		return nil
	}
	return sub
}

func (h *Handler) createPaymentLink(c *gin.Context) {
	sub := h.ownSubscription(c)
	if sub == nil {
		return
	}
	if h.stripe == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "pagos no configurados"})
		return
	}
	url, ref, err := h.stripe.CreatePaymentLink(c.Request.Context(), sub)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"paymentUrl": url, "preferenceId": ref})
}

func (h *Handler) verifyPayment(c *gin.Context) {
	sub := h.ownSubscription(c)
	if sub == nil {
		return
	}
	if h.stripe == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "pagos no configurados"})
		return
	}
	paid, err := h.stripe.VerifyPayment(sub)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	status := StatusPaused
	if paid {
		status = StatusActive
	}
	c.JSON(http.StatusOK, gin.H{"status": status, "paid": paid})
}
