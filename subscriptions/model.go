package subscriptions

import (
	"time"

	"pastafresca-backend/plans"
)

// Estados de una suscripción. Nace PAUSED y pasa a ACTIVE cuando el pago
// se verifica; CANCELLED es terminal.
const (
	StatusActive    = "ACTIVE"
	StatusPaused    = "PAUSED"
	StatusCancelled = "CANCELLED"
)

type Subscription struct {
	ID                 int         `json:"id"`
	UserID             int         `json:"userId"`
	PlanID             int         `json:"planId"`
	Status             string      `json:"status"`
	DeliveryPreference int         `json:"deliveryPreference"` // 1-4: enésimo viernes del mes
	StartDate          time.Time   `json:"startDate"`
	EndDate            *time.Time  `json:"endDate,omitempty"`
	NextPaymentDate    *time.Time  `json:"nextPaymentDate,omitempty"`
	PaymentReference   string      `json:"-"`
	Plan               *plans.Plan `json:"plan,omitempty"`
}
