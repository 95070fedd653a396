package orders

import (
	"database/sql"
	"fmt"
	"time"
)

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const selectCols = `o.id, o.subscription_id, o.user_id, o.status, o.delivery_date, o.delivery_time, o.delivery_address, o.total_amount, o.created_at,
	CONCAT(u.first_name, ' ', u.last_name)`

func (r *Repository) scan(row interface{ Scan(...any) error }) (*Order, error) {
	var o Order
	if err := row.Scan(&o.ID, &o.SubscriptionID, &o.UserID, &o.Status, &o.DeliveryDate, &o.DeliveryTime, &o.DeliveryAddress, &o.TotalAmount, &o.CreatedAt, &o.CustomerName); err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *Repository) loadItems(o *Order) error {
	rows, err := r.db.Query(`SELECT i.product_id, p.name, i.quantity, p.price
		FROM order_items i JOIN products p ON i.product_id = p.id
		WHERE i.order_id = ? ORDER BY i.id ASC`, o.ID)
	if err != nil {
		return err
	}
	defer rows.Close()
	o.Items = []OrderItem{}
	for rows.Next() {
		var it OrderItem
		if err := rows.Scan(&it.ProductID, &it.ProductName, &it.Quantity, &it.Price); err != nil {
			return err
		}
		o.Items = append(o.Items, it)
	}
	return rows.Err()
}

func (r *Repository) list(query string, args ...any) ([]Order, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	list := []Order{}
	for rows.Next() {
		o, err := r.scan(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range list {
		if err := r.loadItems(&list[i]); err != nil {
			return nil, err
		}
	}
	return list, nil
}

func (r *Repository) ListAll() ([]Order, error) {
	return r.list(`SELECT ` + selectCols + ` FROM orders o JOIN users u ON o.user_id = u.id ORDER BY o.delivery_date ASC, o.id ASC`)
}

func (r *Repository) ListByUser(userID int) ([]Order, error) {
	return r.list(`SELECT `+selectCols+` FROM orders o JOIN users u ON o.user_id = u.id WHERE o.user_id = ? ORDER BY o.delivery_date DESC, o.id DESC`, userID)
}

func (r *Repository) ByID(id int) (*Order, error) {
	row := r.db.QueryRow(`SELECT `+selectCols+` FROM orders o JOIN users u ON o.user_id = u.id WHERE o.id = ? LIMIT 1`, id)
	o, err := r.scan(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	if err := r.loadItems(o); err != nil {
		return nil, err
	}
	return o, nil
}

// DeliveryDates returns the delivery dates of a subscription's non-cancelled
// orders, for the resolver's collision avoidance.
func (r *Repository) DeliveryDates(subscriptionID int) ([]time.Time, error) {
	rows, err := r.db.Query(`SELECT delivery_date FROM orders WHERE subscription_id = ? AND status <> ?`, subscriptionID, StatusCancelled)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	dates := []time.Time{}
	for rows.Next() {
		var d time.Time
		if err := rows.Scan(&d); err != nil {
			return nil, err
		}
		dates = append(dates, d)
	}
	return dates, rows.Err()
}

// PendingBySubAndDate finds the editable (PENDING/MODIFIED) order a
// subscription already has for a delivery date, nil when there is none.
func (r *Repository) PendingBySubAndDate(subscriptionID int, date time.Time) (*Order, error) {
	row := r.db.QueryRow(`SELECT `+selectCols+` FROM orders o JOIN users u ON o.user_id = u.id
		WHERE o.subscription_id = ? AND o.delivery_date = ? AND o.status IN (?, ?) LIMIT 1`,
		subscriptionID, date.Format("2006-01-02"), StatusPending, StatusModified)
	o, err := r.scan(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	if err := r.loadItems(o); err != nil {
		return nil, err
	}
	return o, nil
}

// Create inserts the order with its items in one transaction.
func (r *Repository) Create(o *Order) error {
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	res, err := tx.Exec(`INSERT INTO orders (subscription_id, user_id, status, delivery_date, delivery_time, delivery_address, total_amount) VALUES (?,?,?,?,?,?,?)`,
		o.SubscriptionID, o.UserID, o.Status, o.DeliveryDate.Format("2006-01-02"), o.DeliveryTime, o.DeliveryAddress, o.TotalAmount)
	if err != nil {
		tx.Rollback()
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		tx.Rollback()
		return err
	}
	o.ID = int(id)
	for _, it := range o.Items {
		if _, err := tx.Exec(`INSERT INTO order_items (order_id, product_id, quantity) VALUES (?,?,?)`, o.ID, it.ProductID, it.Quantity); err != nil {
			tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

// ReplaceItems swaps the box contents of an editable order and brings it back
// to PENDING (a re-confirmation after a MODIFIED, or a plain edit).
func (r *Repository) ReplaceItems(orderID int, items []OrderItem, total float64) error {
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	if _, err := tx.Exec(`DELETE FROM order_items WHERE order_id = ?`, orderID); err != nil {
		tx.Rollback()
		return err
	}
	for _, it := range items {
		if _, err := tx.Exec(`INSERT INTO order_items (order_id, product_id, quantity) VALUES (?,?,?)`, orderID, it.ProductID, it.Quantity); err != nil {
			tx.Rollback()
			return err
		}
	}
	if _, err := tx.Exec(`UPDATE orders SET status = ?, total_amount = ? WHERE id = ?`, StatusPending, total, orderID); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

func (r *Repository) UpdateStatus(id int, status string) error {
	cur, err := r.ByID(id)
	if err != nil {
		return err
	}
	if cur == nil {
		return fmt.Errorf("pedido %d no encontrado", id)
	}
	if cur.Status == StatusDelivered {
		return fmt.Errorf("el pedido %d ya fue entregado", id)
	}
	_, err = r.db.Exec(`UPDATE orders SET status = ? WHERE id = ?`, status, id)
	return err
}

// AffectedOrder identifies an order invalidated by a stock change, with the
// data needed to notify its owner.
type AffectedOrder struct {
	OrderID int
	Email   string
}

// MarkModifiedForProduct flips future PENDING orders containing the product
// to MODIFIED and returns who must re-confirm.
func (r *Repository) MarkModifiedForProduct(productID int) ([]AffectedOrder, error) {
	rows, err := r.db.Query(`SELECT DISTINCT o.id, u.email
		FROM orders o
		JOIN order_items i ON i.order_id = o.id
		JOIN users u ON u.id = o.user_id
		WHERE i.product_id = ? AND o.status = ? AND o.delivery_date >= CURDATE()`, productID, StatusPending)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	affected := []AffectedOrder{}
	for rows.Next() {
		var a AffectedOrder
		if err := rows.Scan(&a.OrderID, &a.Email); err != nil {
			return nil, err
		}
		affected = append(affected, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for _, a := range affected {
		if _, err := r.db.Exec(`UPDATE orders SET status = ? WHERE id = ?`, StatusModified, a.OrderID); err != nil {
			return nil, err
		}
	}
	return affected, nil
}
