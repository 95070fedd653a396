package plans

import (
	"database/sql"
	"encoding/json"
	"log"
)

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const selectCols = `id, name, IFNULL(description,''), price, boxes_per_month, IFNULL(benefits,'[]'), IFNULL(allowed_categories,'[]'), active, stripe_product_id, stripe_price_id`

func scanPlan(row interface{ Scan(...any) error }) (*Plan, error) {
	var p Plan
	var benefits, categories []byte
	if err := row.Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.BoxesPerMonth, &benefits, &categories, &p.Active, &p.StripeProductID, &p.StripePriceID); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(benefits, &p.Benefits); err != nil {
		log.Printf("[PLANS] plan %d: beneficios ilegibles: %v", p.ID, err)
		p.Benefits = []string{}
	}
	if err := json.Unmarshal(categories, &p.AllowedCategories); err != nil {
		log.Printf("[PLANS] plan %d: categorías ilegibles: %v", p.ID, err)
		p.AllowedCategories = []string{}
	}
	return &p, nil
}

func (r *Repository) GetPlans() ([]Plan, error) {
	rows, err := r.db.Query(`SELECT ` + selectCols + ` FROM plans ORDER BY price ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	plans := []Plan{}
	for rows.Next() {
		p, err := scanPlan(rows)
		if err != nil {
			return nil, err
		}
		plans = append(plans, *p)
	}
	return plans, rows.Err()
}

// GetPlanByID returns a plan by its ID, nil when missing
func (r *Repository) GetPlanByID(id int) (*Plan, error) {
	row := r.db.QueryRow(`SELECT `+selectCols+` FROM plans WHERE id=? LIMIT 1`, id)
	p, err := scanPlan(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return p, nil
}

func (r *Repository) CreatePlan(p *Plan) error {
	benefits, _ := json.Marshal(p.Benefits)
	categories, _ := json.Marshal(p.AllowedCategories)
	res, err := r.db.Exec(`INSERT INTO plans (name, description, price, boxes_per_month, benefits, allowed_categories, active) VALUES (?,?,?,?,?,?,?)`,
		p.Name, p.Description, p.Price, p.BoxesPerMonth, benefits, categories, p.Active)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	p.ID = int(id)
	return nil
}

func (r *Repository) UpdatePlan(id int, p *Plan) error {
	benefits, _ := json.Marshal(p.Benefits)
	categories, _ := json.Marshal(p.AllowedCategories)
	_, err := r.db.Exec(`UPDATE plans SET name=?, description=?, price=?, boxes_per_month=?, benefits=?, allowed_categories=?, active=?, stripe_product_id=?, stripe_price_id=? WHERE id=?`,
		p.Name, p.Description, p.Price, p.BoxesPerMonth, benefits, categories, p.Active, p.StripeProductID, p.StripePriceID, id)
	return err
}

func (r *Repository) DeletePlan(id int) error {
	_, err := r.db.Exec(`DELETE FROM plans WHERE id=?`, id)
	return err
}
