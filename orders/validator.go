package orders

import (
	"errors"
	"fmt"
	"log"

	"pastafresca-backend/plans"
	"pastafresca-backend/products"
)

// Catalog is the product lookup the validator needs. *products.Repository
// satisfies it.
type Catalog interface {
	ByID(id int) (*products.Product, error)
}

// BoxValidator checks a box selection against the subscriber's plan and the
// current catalog before an order is written.
type BoxValidator struct {
	products Catalog
}

func NewBoxValidator(catalog Catalog) *BoxValidator {
	return &BoxValidator{products: catalog}
}

var ErrEmptyBox = errors.New("la caja está vacía")

// Validate returns the order total when the selection is acceptable. Denials
// are logged with the reason, mirroring what the storefront shows.
func (v *BoxValidator) Validate(plan *plans.Plan, items []OrderItem) (float64, error) {
	if len(items) == 0 {
		return 0, ErrEmptyBox
	}
	units := 0
	for _, it := range items {
		if it.Quantity <= 0 {
			return 0, fmt.Errorf("cantidad inválida para el producto %d", it.ProductID)
		}
		units += it.Quantity
	}
	if units > plan.BoxesPerMonth {
		log.Printf("[BOX][deny] plan=%s limit=%d requested=%d", plan.Name, plan.BoxesPerMonth, units)
		return 0, fmt.Errorf("tu plan permite %d cajas por mes", plan.BoxesPerMonth)
	}

	total := 0.0
	for _, it := range items {
		p, err := v.products.ByID(it.ProductID)
		if err != nil {
			return 0, err
		}
		if p == nil {
			log.Printf("[BOX][deny] producto desconocido %d", it.ProductID)
			return 0, fmt.Errorf("producto %d no encontrado", it.ProductID)
		}
		if !p.InStock {
			log.Printf("[BOX][deny] producto sin stock %q", p.Name)
			return 0, fmt.Errorf("%q está sin stock", p.Name)
		}
		if !plan.Allows(p.Category) {
			log.Printf("[BOX][deny] plan=%s categoria=%s producto=%q", plan.Name, p.Category, p.Name)
			return 0, fmt.Errorf("tu plan no incluye la línea %s", p.Category)
		}
		total += p.Price * float64(it.Quantity)
	}
	return total, nil
}
