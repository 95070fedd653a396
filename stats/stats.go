package stats

import (
	"database/sql"
	"log"
	"net/http"
	"time"

	"pastafresca-backend/login"

	"github.com/gin-gonic/gin"
)

var db *sql.DB

// Init sets the DB connection for stats queries
func Init(database *sql.DB) {
	db = database
}

// AdminStatsResponse represents the response structure for the admin dashboard
type AdminStatsResponse struct {
	Users          UserStats            `json:"users"`
	Financial      FinancialStats       `json:"financial"`
	Orders         OrderStats           `json:"orders"`
	Plans          []PlanStats          `json:"plans"`
	RecentActivity []RecentActivityItem `json:"recent_activity"`
}

type UserStats struct {
	Total         int     `json:"total"`
	Active        int     `json:"active"`
	NewThisMonth  int     `json:"new_this_month"`
	RetentionRate float64 `json:"retention_rate"`
}

type FinancialStats struct {
	TotalRevenue   float64 `json:"total_revenue"`
	MonthlyRevenue float64 `json:"monthly_revenue"`
	AverageTicket  float64 `json:"average_ticket"`
	GrowthPercent  float64 `json:"growth_percent"`
}

type OrderStats struct {
	Pending        int `json:"pending"`
	DeliveredMonth int `json:"delivered_this_month"`
	CancelledMonth int `json:"cancelled_this_month"`
	BoxesMonth     int `json:"boxes_this_month"`
}

type PlanStats struct {
	ID              int     `json:"id"`
	Name            string  `json:"name"`
	SubscriberCount int     `json:"subscriber_count"`
	Percentage      float64 `json:"percentage"`
}

type RecentActivityItem struct {
	Type        string    `json:"type"`
	Description string    `json:"description"`
	Timestamp   time.Time `json:"timestamp"`
	UserEmail   string    `json:"user_email"`
}

// RegisterAdminRoutes registers admin statistics endpoints
func RegisterAdminRoutes(r *gin.Engine) {
	r.GET("/admin/stats", getAdminStats)
}

func getAdminStats(c *gin.Context) {
	if login.RequireAdmin(c) == nil {
		return
	}
	if db == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "base de datos no inicializada"})
		return
	}

	response := AdminStatsResponse{
		Users:          getUserStats(),
		Financial:      getFinancialStats(),
		Orders:         getOrderStats(),
		Plans:          getPlanStats(),
		RecentActivity: getRecentActivity(10),
	}

	c.JSON(http.StatusOK, gin.H{"data": response})
}

func getUserStats() UserStats {
	stats := UserStats{}

	db.QueryRow("SELECT COUNT(*) FROM users WHERE role = 'CLIENT'").Scan(&stats.Total)

	db.QueryRow(`
		SELECT COUNT(DISTINCT s.user_id)
		FROM subscriptions s
		WHERE s.status = 'ACTIVE'
	`).Scan(&stats.Active)

	db.QueryRow(`
		SELECT COUNT(*)
		FROM users
		WHERE role = 'CLIENT'
		  AND created_at >= DATE_FORMAT(NOW(), '%Y-%m-01')
	`).Scan(&stats.NewThisMonth)

	if stats.Total > 0 {
		stats.RetentionRate = (float64(stats.Active) / float64(stats.Total)) * 100
	}

	log.Printf("[ADMIN_STATS] Users: total=%d active=%d new_month=%d retention=%.2f%%",
		stats.Total, stats.Active, stats.NewThisMonth, stats.RetentionRate)

	return stats
}

func getFinancialStats() FinancialStats {
	stats := FinancialStats{}

	// Revenue counts delivered boxes only; confirmed-but-pending orders are
	// not money yet.
	db.QueryRow(`
		SELECT IFNULL(SUM(total_amount), 0)
		FROM orders
		WHERE status = 'DELIVERED'
	`).Scan(&stats.TotalRevenue)

	db.QueryRow(`
		SELECT IFNULL(SUM(total_amount), 0)
		FROM orders
		WHERE status = 'DELIVERED'
		  AND delivery_date >= DATE_FORMAT(NOW(), '%Y-%m-01')
	`).Scan(&stats.MonthlyRevenue)

	var revenueLastMonth float64
	db.QueryRow(`
		SELECT IFNULL(SUM(total_amount), 0)
		FROM orders
		WHERE status = 'DELIVERED'
		  AND delivery_date >= DATE_FORMAT(DATE_SUB(NOW(), INTERVAL 1 MONTH), '%Y-%m-01')
		  AND delivery_date < DATE_FORMAT(NOW(), '%Y-%m-01')
	`).Scan(&revenueLastMonth)

	if revenueLastMonth > 0 {
		stats.GrowthPercent = ((stats.MonthlyRevenue - revenueLastMonth) / revenueLastMonth) * 100
	} else if stats.MonthlyRevenue > 0 {
		stats.GrowthPercent = 100
	}

	var deliveredCount int
	db.QueryRow("SELECT COUNT(*) FROM orders WHERE status = 'DELIVERED'").Scan(&deliveredCount)
	if deliveredCount > 0 {
		stats.AverageTicket = stats.TotalRevenue / float64(deliveredCount)
	}

	log.Printf("[ADMIN_STATS] Financial: total=%.2f month=%.2f avg=%.2f growth=%.2f%%",
		stats.TotalRevenue, stats.MonthlyRevenue, stats.AverageTicket, stats.GrowthPercent)

	return stats
}

func getOrderStats() OrderStats {
	stats := OrderStats{}

	db.QueryRow("SELECT COUNT(*) FROM orders WHERE status IN ('PENDING','MODIFIED')").Scan(&stats.Pending)

	db.QueryRow(`
		SELECT COUNT(*)
		FROM orders
		WHERE status = 'DELIVERED'
		  AND delivery_date >= DATE_FORMAT(NOW(), '%Y-%m-01')
	`).Scan(&stats.DeliveredMonth)

	db.QueryRow(`
		SELECT COUNT(*)
		FROM orders
		WHERE status = 'CANCELLED'
		  AND delivery_date >= DATE_FORMAT(NOW(), '%Y-%m-01')
	`).Scan(&stats.CancelledMonth)

	db.QueryRow(`
		SELECT IFNULL(SUM(oi.quantity), 0)
		FROM orders o
		JOIN order_items oi ON oi.order_id = o.id
		WHERE o.status <> 'CANCELLED'
		  AND o.delivery_date >= DATE_FORMAT(NOW(), '%Y-%m-01')
	`).Scan(&stats.BoxesMonth)

	return stats
}

func getPlanStats() []PlanStats {
	rows, err := db.Query(`
		SELECT p.id, p.name, COUNT(s.id) AS subscribers
		FROM plans p
		LEFT JOIN subscriptions s ON s.plan_id = p.id AND s.status = 'ACTIVE'
		GROUP BY p.id, p.name
		ORDER BY subscribers DESC
	`)
	if err != nil {
		log.Printf("[ADMIN_STATS] plan stats query failed: %v", err)
		return nil
	}
	defer rows.Close()

	var out []PlanStats
	total := 0
	for rows.Next() {
		var ps PlanStats
		if err := rows.Scan(&ps.ID, &ps.Name, &ps.SubscriberCount); err != nil {
			continue
		}
		total += ps.SubscriberCount
		out = append(out, ps)
	}
	for i := range out {
		if total > 0 {
			out[i].Percentage = (float64(out[i].SubscriberCount) / float64(total)) * 100
		}
	}
	return out
}

func getRecentActivity(limit int) []RecentActivityItem {
	rows, err := db.Query(`
		SELECT o.status, o.updated_at, u.email
		FROM orders o
		JOIN users u ON u.id = o.user_id
		ORDER BY o.updated_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		log.Printf("[ADMIN_STATS] recent activity query failed: %v", err)
		return nil
	}
	defer rows.Close()

	var out []RecentActivityItem
	for rows.Next() {
		var status string
		var when time.Time
		var email string
		if err := rows.Scan(&status, &when, &email); err != nil {
			continue
		}
		item := RecentActivityItem{Type: "order", Timestamp: when, UserEmail: email}
		switch status {
		case "PENDING":
			item.Description = "Caja confirmada"
		case "MODIFIED":
			item.Description = "Caja modificada"
		case "DELIVERED":
			item.Description = "Pedido entregado"
		case "CANCELLED":
			item.Description = "Pedido cancelado"
		default:
			item.Description = status
		}
		out = append(out, item)
	}
	return out
}
