package products

// Categorías de la carta. PREMIUM queda restringida según el plan.
const (
	CategoryClasica = "CLASICA"
	CategoryRellena = "RELLENA"
	CategoryPremium = "PREMIUM"
)

func ValidCategory(c string) bool {
	return c == CategoryClasica || c == CategoryRellena || c == CategoryPremium
}

type Product struct {
	ID          int     `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Category    string  `json:"category"`
	Price       float64 `json:"price"`
	ImageURL    string  `json:"imageUrl"`
	InStock     bool    `json:"inStock"`
}
