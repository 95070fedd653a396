package plans

import (
	"net/http"
	"strconv"

	"pastafresca-backend/login"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	repo *Repository
}

func NewHandler(repo *Repository) *Handler {
	return &Handler{repo: repo}
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/plans", h.getPlans)
	r.GET("/plans/:id", h.getPlan)
	r.POST("/plans", h.createPlan)
	r.PUT("/plans/:id", h.updatePlan)
	r.DELETE("/plans/:id", h.deletePlan)
}

func (h *Handler) getPlans(c *gin.Context) {
	plans, err := h.repo.GetPlans()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, plans)
}

func (h *Handler) getPlan(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id inválido"})
		return
	}
	p, err := h.repo.GetPlanByID(id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if p == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "plan no encontrado"})
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *Handler) createPlan(c *gin.Context) {
	if login.RequireAdmin(c) == nil {
		return
	}
	var p Plan
	if err := c.ShouldBindJSON(&p); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "datos inválidos"})
		return
	}
	if p.Name == "" || p.BoxesPerMonth <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "nombre y cantidad de cajas requeridos"})
		return
	}
	if err := h.repo.CreatePlan(&p); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, p)
}

func (h *Handler) updatePlan(c *gin.Context) {
	if login.RequireAdmin(c) == nil {
		return
	}
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id inválido"})
		return
	}
	var p Plan
	if err := c.ShouldBindJSON(&p); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "datos inválidos"})
		return
	}
	if err := h.repo.UpdatePlan(id, &p); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) deletePlan(c *gin.Context) {
	if login.RequireAdmin(c) == nil {
		return
	}
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id inválido"})
		return
	}
	if err := h.repo.DeletePlan(id); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
