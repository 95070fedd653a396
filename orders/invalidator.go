package orders

import (
	"fmt"
	"log"

	mailer "pastafresca-backend/email"
	"pastafresca-backend/events"
)

// StockInvalidator reacts to a product running out of stock: affected pending
// orders fall back to MODIFIED, their owners get mailed, and the admin
// dashboard sees the event. Plugged into the products handler.
type StockInvalidator struct {
	repo *Repository
	hub  *events.Hub
}

func NewStockInvalidator(repo *Repository, hub *events.Hub) *StockInvalidator {
	return &StockInvalidator{repo: repo, hub: hub}
}

func (s *StockInvalidator) InvalidateForProduct(productID int, productName string) (int, error) {
	affected, err := s.repo.MarkModifiedForProduct(productID)
	if err != nil {
		return 0, err
	}
	for _, a := range affected {
		if err := mailer.SendOrderNeedsReview(a.Email, productName); err != nil {
			log.Printf("[ORDERS] review notice failed for %s: %v", a.Email, err)
		}
		if s.hub != nil {
			s.hub.Publish(events.OrderModified, a.OrderID, fmt.Sprintf("Pedido #%d requiere re-confirmación: %q sin stock", a.OrderID, productName))
		}
	}
	return len(affected), nil
}
