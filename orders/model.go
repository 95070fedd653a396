package orders

import "time"

// Estados de un pedido. MODIFIED significa que el sistema invalidó el
// contenido (un producto quedó sin stock) y el cliente debe re-confirmar.
// DELIVERED es inmutable.
const (
	StatusPending   = "PENDING"
	StatusModified  = "MODIFIED"
	StatusDelivered = "DELIVERED"
	StatusCancelled = "CANCELLED"
)

type OrderItem struct {
	ProductID   int     `json:"productId"`
	ProductName string  `json:"productName,omitempty"`
	Quantity    int     `json:"quantity"`
	Price       float64 `json:"price,omitempty"`
}

type Order struct {
	ID              int         `json:"id"`
	SubscriptionID  int         `json:"subscriptionId"`
	UserID          int         `json:"userId"`
	CustomerName    string      `json:"customerName,omitempty"`
	Status          string      `json:"status"`
	DeliveryDate    time.Time   `json:"deliveryDate"`
	DeliveryTime    string      `json:"deliveryTime"`
	DeliveryAddress string      `json:"deliveryAddress"`
	TotalAmount     float64     `json:"totalAmount"`
	Items           []OrderItem `json:"items"`
	CreatedAt       time.Time   `json:"createdAt"`
}

// TotalUnits suma las cantidades de la caja.
func (o *Order) TotalUnits() int {
	total := 0
	for _, it := range o.Items {
		total += it.Quantity
	}
	return total
}
