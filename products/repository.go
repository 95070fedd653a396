package products

import (
	"database/sql"
)

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const selectCols = `id, name, IFNULL(description,''), category, price, image_url, in_stock`

func scanProduct(row interface{ Scan(...any) error }) (*Product, error) {
	var p Product
	if err := row.Scan(&p.ID, &p.Name, &p.Description, &p.Category, &p.Price, &p.ImageURL, &p.InStock); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *Repository) All() ([]Product, error) {
	rows, err := r.db.Query(`SELECT ` + selectCols + ` FROM products ORDER BY category ASC, name ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	list := []Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *p)
	}
	return list, rows.Err()
}

// ByID returns a product or nil when it does not exist
func (r *Repository) ByID(id int) (*Product, error) {
	row := r.db.QueryRow(`SELECT `+selectCols+` FROM products WHERE id=? LIMIT 1`, id)
	p, err := scanProduct(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return p, nil
}

func (r *Repository) Create(p *Product) error {
	res, err := r.db.Exec(`INSERT INTO products (name, description, category, price, image_url, in_stock) VALUES (?,?,?,?,?,?)`,
		p.Name, p.Description, p.Category, p.Price, p.ImageURL, p.InStock)
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

func (r *Repository) Update(id int, p *Product) error {
	_, err := r.db.Exec(`UPDATE products SET name=?, description=?, category=?, price=?, image_url=?, in_stock=? WHERE id=?`,
		p.Name, p.Description, p.Category, p.Price, p.ImageURL, p.InStock, id)
	return err
}

// ToggleStock flips in_stock and returns the resulting product.
func (r *Repository) ToggleStock(id int) (*Product, error) {
	if _, err := r.db.Exec(`UPDATE products SET in_stock = NOT in_stock WHERE id=?`, id); err != nil {
		return nil, err
	}
	return r.ByID(id)
}

func (r *Repository) Delete(id int) error {
	_, err := r.db.Exec(`DELETE FROM products WHERE id=?`, id)
	return err
}
