// Package users exposes the profile endpoints of the storefront: the
// authenticated customer reads and edits their own delivery data, the
// back office lists everyone.
package users

import (
	"log"
	"net/http"

	"pastafresca-backend/login"
	"pastafresca-backend/migrations"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(r *gin.Engine) {
	r.GET("/users/me", getProfile)
	r.PUT("/users/me", updateProfile)
	r.GET("/users", listUsers)
}

func profileResponse(u *migrations.User) gin.H {
	return gin.H{
		"id":         u.ID,
		"first_name": u.FirstName,
		"last_name":  u.LastName,
		"email":      u.Email,
		"street":     u.Street,
		"number":     u.Number,
		"city":       u.City,
		"phone":      u.Phone,
		"role":       u.Role,
		"address":    u.Address(),
	}
}

func getProfile(c *gin.Context) {
	user := login.RequireUser(c)
	if user == nil {
		return
	}
	c.JSON(http.StatusOK, profileResponse(user))
}

type profilePayload struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Street    string `json:"street"`
	Number    string `json:"number"`
	City      string `json:"city"`
	Phone     string `json:"phone"`
}

func updateProfile(c *gin.Context) {
	user := login.RequireUser(c)
	if user == nil {
		return
	}
	var p profilePayload
	if err := c.ShouldBindJSON(&p); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "datos inválidos"})
		return
	}
	if p.FirstName == "" {
		p.FirstName = user.FirstName
	}
	if p.LastName == "" {
		p.LastName = user.LastName
	}
	if err := migrations.UpdateUserProfile(user.ID, p.FirstName, p.LastName, p.Street, p.Number, p.City, p.Phone); err != nil {
		log.Printf("[USERS] update profile failed for id=%d: %v", user.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	updated := migrations.GetUserByID(user.ID)
	if updated == nil {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
		return
	}
	c.JSON(http.StatusOK, profileResponse(updated))
}

func listUsers(c *gin.Context) {
	if login.RequireAdmin(c) == nil {
		return
	}
	list, err := migrations.ListUsers()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	out := make([]gin.H, 0, len(list))
	for i := range list {
		out = append(out, profileResponse(&list[i]))
	}
	c.JSON(http.StatusOK, out)
}
