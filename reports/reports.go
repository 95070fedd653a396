// Package reports derives the kitchen production plan and the delivery
// logistics schedule from a flat list of orders. Everything here is a pure
// computation: orders and the product catalog arrive already fetched, "now"
// is injected, and re-running with the same inputs yields the same output.
package reports

import (
	"log"
	"sort"
	"time"
)

// ProductInfo is the catalog data a report line needs. Stock is whatever the
// catalog says right now, not what it said when the order was placed: the
// kitchen works with current truth.
type ProductInfo struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	Category string `json:"category"`
	InStock  bool   `json:"in_stock"`
}

type OrderItem struct {
	ProductID int `json:"product_id"`
	Quantity  int `json:"quantity"`
}

// Order is the report-facing view of an order. Status uses the storefront
// states; CANCELLED orders never count.
type Order struct {
	ID           int         `json:"id"`
	Status       string      `json:"status"`
	Customer     string      `json:"customer"`
	Address      string      `json:"address"`
	DeliveryDate time.Time   `json:"delivery_date"`
	DeliveryTime string      `json:"delivery_time"`
	Items        []OrderItem `json:"items"`
}

const statusCancelled = "CANCELLED"

// Week identifies a Monday-start calendar week inside the target month.
type Week struct {
	StartDate     time.Time `json:"start_date"`
	EndDate       time.Time `json:"end_date"`
	IsCurrentWeek bool      `json:"is_current_week"`
	IsPast        bool      `json:"is_past"`
}

// ProductionLine is one row of the kitchen list: total units of a product
// across every order of the week.
type ProductionLine struct {
	ProductID int    `json:"product_id"`
	Name      string `json:"name"`
	Category  string `json:"category"`
	Units     int    `json:"units"`
	InStock   bool   `json:"in_stock"`
}

type ProductionWeek struct {
	Week
	Lines []ProductionLine `json:"lines"`
}

type LogisticsWeek struct {
	Week
	Orders []Order `json:"orders"`
}

// MonthTotals carries the month-wide unit count plus the per-category split.
// The category subtotals always add up to Total.
type MonthTotals struct {
	Total      int            `json:"total"`
	ByCategory map[string]int `json:"by_category"`
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func sameMonth(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month()
}

// sameDay and beforeDay compare calendar days by components, so a UTC date
// from the database and a local "now" still land on the same day.
func sameDay(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month() && a.Day() == b.Day()
}

func beforeDay(a, b time.Time) bool {
	if a.Year() != b.Year() {
		return a.Year() < b.Year()
	}
	if a.Month() != b.Month() {
		return a.Month() < b.Month()
	}
	return a.Day() < b.Day()
}

// weekStart returns the Monday on/before t, date-only.
func weekStart(t time.Time) time.Time {
	d := dateOnly(t)
	offset := (int(d.Weekday()) + 6) % 7
	return d.AddDate(0, 0, -offset)
}

// monthOrders filters to the orders that count for targetMonth.
func monthOrders(orders []Order, targetMonth time.Time) []Order {
	kept := make([]Order, 0, len(orders))
	for _, o := range orders {
		if o.Status == statusCancelled {
			continue
		}
		if !sameMonth(o.DeliveryDate, targetMonth) {
			continue
		}
		kept = append(kept, o)
	}
	return kept
}

func buildWeek(start time.Time, now time.Time) Week {
	end := start.AddDate(0, 0, 6)
	return Week{
		StartDate:     start,
		EndDate:       end,
		IsCurrentWeek: sameDay(start, weekStart(now)),
		IsPast:        beforeDay(end, now),
	}
}

// sortedWeekStarts returns the distinct week starts ascending; when
// targetMonth is now's month the current week is pinned first and the rest
// stay chronological.
func sortedWeekStarts(starts map[time.Time]bool, targetMonth, now time.Time) []time.Time {
	keys := make([]time.Time, 0, len(starts))
	for s := range starts {
		keys = append(keys, s)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Before(keys[j]) })
	if sameMonth(targetMonth, now) {
		cur := weekStart(now)
		for i, s := range keys {
			if sameDay(s, cur) && i > 0 {
				pinned := append([]time.Time{s}, keys[:i]...)
				keys = append(pinned, keys[i+1:]...)
				break
			}
		}
	}
	return keys
}

// ProductionPlan groups a month's orders into Monday-start weeks and merges
// line items per product within each week. Line items whose product is
// missing from the catalog are skipped and logged, never fatal.
func ProductionPlan(orders []Order, products map[int]ProductInfo, targetMonth, now time.Time) []ProductionWeek {
	byWeek := map[time.Time]map[int]int{} // week start -> product id -> units
	starts := map[time.Time]bool{}
	for _, o := range monthOrders(orders, targetMonth) {
		ws := weekStart(o.DeliveryDate)
		starts[ws] = true
		if byWeek[ws] == nil {
			byWeek[ws] = map[int]int{}
		}
		for _, it := range o.Items {
			if _, ok := products[it.ProductID]; !ok {
				log.Printf("[REPORTS] pedido %d referencia producto desconocido %d, ítem omitido", o.ID, it.ProductID)
				continue
			}
			byWeek[ws][it.ProductID] += it.Quantity
		}
	}

	plan := make([]ProductionWeek, 0, len(starts))
	for _, ws := range sortedWeekStarts(starts, targetMonth, now) {
		units := byWeek[ws]
		lines := make([]ProductionLine, 0, len(units))
		for pid, u := range units {
			p := products[pid]
			lines = append(lines, ProductionLine{
				ProductID: pid,
				Name:      p.Name,
				Category:  p.Category,
				Units:     u,
				InStock:   p.InStock,
			})
		}
		sort.Slice(lines, func(i, j int) bool {
			if lines[i].Category != lines[j].Category {
				return lines[i].Category < lines[j].Category
			}
			if lines[i].Name != lines[j].Name {
				return lines[i].Name < lines[j].Name
			}
			return lines[i].ProductID < lines[j].ProductID
		})
		plan = append(plan, ProductionWeek{Week: buildWeek(ws, now), Lines: lines})
	}
	return plan
}

// Monthly returns the grand unit total for targetMonth plus the per-category
// breakdown. Items without a catalog entry are excluded from both, keeping
// the subtotals consistent with the total.
func Monthly(orders []Order, products map[int]ProductInfo, targetMonth time.Time) MonthTotals {
	totals := MonthTotals{ByCategory: map[string]int{}}
	for _, o := range monthOrders(orders, targetMonth) {
		for _, it := range o.Items {
			p, ok := products[it.ProductID]
			if !ok {
				log.Printf("[REPORTS] pedido %d referencia producto desconocido %d, ítem omitido", o.ID, it.ProductID)
				continue
			}
			totals.Total += it.Quantity
			totals.ByCategory[p.Category] += it.Quantity
		}
	}
	return totals
}

// LogisticsSchedule buckets a month's orders into weeks keeping per-order
// granularity: dispatch needs each order's customer, address and item list,
// not a merged view.
func LogisticsSchedule(orders []Order, targetMonth, now time.Time) []LogisticsWeek {
	byWeek := map[time.Time][]Order{}
	starts := map[time.Time]bool{}
	for _, o := range monthOrders(orders, targetMonth) {
		ws := weekStart(o.DeliveryDate)
		starts[ws] = true
		byWeek[ws] = append(byWeek[ws], o)
	}

	schedule := make([]LogisticsWeek, 0, len(starts))
	for _, ws := range sortedWeekStarts(starts, targetMonth, now) {
		group := byWeek[ws]
		sort.Slice(group, func(i, j int) bool {
			if !group[i].DeliveryDate.Equal(group[j].DeliveryDate) {
				return group[i].DeliveryDate.Before(group[j].DeliveryDate)
			}
			return group[i].ID < group[j].ID
		})
		schedule = append(schedule, LogisticsWeek{Week: buildWeek(ws, now), Orders: group})
	}
	return schedule
}
