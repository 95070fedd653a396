package subscriptions

import (
	"database/sql"
	"fmt"
	"time"

	"pastafresca-backend/plans"
)

type Repository struct {
	db    *sql.DB
	plans *plans.Repository
}

func NewRepository(db *sql.DB, planRepo *plans.Repository) *Repository {
	return &Repository{db: db, plans: planRepo}
}

const selectCols = `s.id, s.user_id, s.plan_id, s.status, s.delivery_preference, s.start_date, s.end_date, s.next_payment_date, s.payment_reference`

func (r *Repository) scan(row interface{ Scan(...any) error }) (*Subscription, error) {
	var s Subscription
	var end, next sql.NullTime
	if err := row.Scan(&s.ID, &s.UserID, &s.PlanID, &s.Status, &s.DeliveryPreference, &s.StartDate, &end, &next, &s.PaymentReference); err != nil {
		return nil, err
	}
	if end.Valid {
		s.EndDate = &end.Time
	}
	if next.Valid {
		s.NextPaymentDate = &next.Time
	}
	return &s, nil
}

func (r *Repository) attachPlan(s *Subscription) {
	if s == nil {
		return
	}
	if p, err := r.plans.GetPlanByID(s.PlanID); err == nil {
		s.Plan = p
	}
}

// GetSubscriptions returns all subscriptions, or one user's when userID != 0.
func (r *Repository) GetSubscriptions(userID int) ([]Subscription, error) {
	rows, err := r.db.Query(`SELECT `+selectCols+` FROM subscriptions s WHERE (?=0 OR s.user_id=?) ORDER BY s.id DESC`, userID, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	subs := []Subscription{}
	for rows.Next() {
		s, err := r.scan(rows)
		if err != nil {
			return nil, err
		}
		r.attachPlan(s)
		subs = append(subs, *s)
	}
	return subs, rows.Err()
}

func (r *Repository) GetByID(id int) (*Subscription, error) {
	row := r.db.QueryRow(`SELECT `+selectCols+` FROM subscriptions s WHERE s.id=? LIMIT 1`, id)
	s, err := r.scan(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	r.attachPlan(s)
	return s, nil
}

// GetActiveByUser returns the user's ACTIVE subscription, nil when none.
func (r *Repository) GetActiveByUser(userID int) (*Subscription, error) {
	row := r.db.QueryRow(`SELECT `+selectCols+` FROM subscriptions s WHERE s.user_id=? AND s.status=? ORDER BY s.id DESC LIMIT 1`, userID, StatusActive)
	s, err := r.scan(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	r.attachPlan(s)
	return s, nil
}

// GetCurrentByUser returns the newest non-cancelled subscription (the one the
// dashboard shows, paid or still pending payment).
func (r *Repository) GetCurrentByUser(userID int) (*Subscription, error) {
	row := r.db.QueryRow(`SELECT `+selectCols+` FROM subscriptions s WHERE s.user_id=? AND s.status<>? ORDER BY s.id DESC LIMIT 1`, userID, StatusCancelled)
	s, err := r.scan(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	r.attachPlan(s)
	return s, nil
}

// Create inserts a PAUSED subscription awaiting payment. A user keeps at most
// one live (non-cancelled) subscription at a time.
func (r *Repository) Create(s *Subscription) error {
	existing, err := r.GetCurrentByUser(s.UserID)
	if err != nil {
		return err
	}
	if existing != nil {
		return fmt.Errorf("el usuario %d ya tiene una suscripción vigente", s.UserID)
	}
	if s.StartDate.IsZero() {
		s.StartDate = time.Now()
	}
	if s.Status == "" {
		s.Status = StatusPaused
	}
	res, err := r.db.Exec(`INSERT INTO subscriptions (user_id, plan_id, status, delivery_preference, start_date) VALUES (?,?,?,?,?)`,
		s.UserID, s.PlanID, s.Status, s.DeliveryPreference, s.StartDate)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	s.ID = int(id)
	return nil
}

func (r *Repository) UpdateStatus(id int, status string) error {
	if status == StatusCancelled {
		_, err := r.db.Exec(`UPDATE subscriptions SET status=?, end_date=NOW() WHERE id=?`, status, id)
		return err
	}
	_, err := r.db.Exec(`UPDATE subscriptions SET status=?, end_date=NULL WHERE id=?`, status, id)
	return err
}

func (r *Repository) UpdatePreference(id, preference int) error {
	_, err := r.db.Exec(`UPDATE subscriptions SET delivery_preference=? WHERE id=?`, preference, id)
	return err
}

func (r *Repository) SetPaymentReference(id int, ref string) error {
	_, err := r.db.Exec(`UPDATE subscriptions SET payment_reference=? WHERE id=?`, ref, id)
	return err
}

// Activate marks the subscription ACTIVE and schedules the next billing a
// month out. Idempotent: activating an ACTIVE subscription is a no-op.
func (r *Repository) Activate(id int) error {
	s, err := r.GetByID(id)
	if err != nil {
		return err
	}
	if s == nil {
		return fmt.Errorf("suscripción %d no encontrada", id)
	}
	if s.Status == StatusActive {
		return nil
	}
	next := time.Now().AddDate(0, 1, 0)
	_, err = r.db.Exec(`UPDATE subscriptions SET status=?, next_payment_date=?, end_date=NULL WHERE id=?`, StatusActive, next, id)
	return err
}
