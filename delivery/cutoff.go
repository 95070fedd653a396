package delivery

import "time"

// LockWindow is how long before a delivery the box contents freeze.
// Exact 48 hours, not two calendar days.
const LockWindow = 48 * time.Hour

// IsLocked reports whether the box for deliveryDate can no longer be edited:
// locked from deliveryDate - 48h onwards, boundary inclusive.
func IsLocked(deliveryDate, now time.Time) bool {
	return !now.Before(deliveryDate.Add(-LockWindow))
}
