package main

import (
	"log"
	"net/http"

	"pastafresca-backend/cache"
	"pastafresca-backend/conn"
	"pastafresca-backend/events"
	"pastafresca-backend/login"
	"pastafresca-backend/middleware"
	"pastafresca-backend/migrations"
	"pastafresca-backend/orders"
	"pastafresca-backend/plans"
	"pastafresca-backend/products"
	"pastafresca-backend/stats"
	"pastafresca-backend/subscriptions"
	"pastafresca-backend/users"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("[MAIN] .env no encontrado, se usan variables de entorno")
	}

	db, err := conn.NewMySQL()
	if err != nil {
		log.Fatalf("[MAIN] conexión MySQL falló: %v", err)
	}
	defer db.Close()

	migrations.Init(db)
	if err := migrations.Migrate(); err != nil {
		log.Fatalf("[MAIN] migraciones fallaron: %v", err)
	}
	if err := migrations.SeedDefaultAdmin(); err != nil {
		log.Printf("[MAIN] seed admin falló: %v", err)
	}
	if err := migrations.SeedDefaultPlans(); err != nil {
		log.Printf("[MAIN] seed planes falló: %v", err)
	}
	if err := migrations.SeedDefaultProducts(); err != nil {
		log.Printf("[MAIN] seed productos falló: %v", err)
	}
	stats.Init(db)

	var store middleware.Store
	if redisClient, err := cache.NewRedis(); err != nil {
		log.Printf("[MAIN] Redis no disponible, se continúa sin cache: %v", err)
	} else {
		defer redisClient.Close()
		store = redisClient
	}

	hub := events.NewHub()

	productRepo := products.NewRepository(db)
	planRepo := plans.NewRepository(db)
	subRepo := subscriptions.NewRepository(db, planRepo)
	orderRepo := orders.NewRepository(db)

	stripeSvc := subscriptions.NewStripeFromEnv(subRepo)

	invalidator := orders.NewStockInvalidator(orderRepo, hub)

	productHandler := products.NewHandler(productRepo, invalidator)
	planHandler := plans.NewHandler(planRepo)
	subHandler := subscriptions.NewHandler(subRepo, stripeSvc)
	orderHandler := orders.NewHandler(orderRepo, subRepo, productRepo, hub)

	r := gin.Default()
	r.Use(middleware.RateLimiter(store))
	r.Use(middleware.Idempotency(store))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.POST("/auth/login", login.Handler)
	r.GET("/auth/session", login.SessionHandler)
	r.POST("/auth/logout", login.LogoutHandler)
	r.POST("/auth/register", login.RegisterHandler)
	r.POST("/auth/change-password", login.ChangePasswordHandler)

	users.RegisterRoutes(r)
	productHandler.RegisterRoutes(r)
	planHandler.RegisterRoutes(r)
	subHandler.RegisterRoutes(r)
	orderHandler.RegisterRoutes(r)
	stats.RegisterAdminRoutes(r)
	r.GET("/admin/events", hub.StreamHandler())

	r.Run(":8080")
}
