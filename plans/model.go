package plans

// Plan is a subscription tier: how many boxes a month and which product
// categories the subscriber may pick from.
type Plan struct {
	ID                int      `json:"id"`
	Name              string   `json:"name"`
	Description       string   `json:"description"`
	Price             float64  `json:"price"`
	BoxesPerMonth     int      `json:"boxesPerMonth"`
	Benefits          []string `json:"benefits"`
	AllowedCategories []string `json:"allowedCategories"`
	Active            bool     `json:"active"`
	StripeProductID   string   `json:"stripe_product_id,omitempty"`
	StripePriceID     string   `json:"stripe_price_id,omitempty"`
}

// Allows reports whether the plan unlocks the given product category.
func (p *Plan) Allows(category string) bool {
	for _, c := range p.AllowedCategories {
		if c == category {
			return true
		}
	}
	return false
}
