package delivery

import (
	"errors"
	"time"
)

// ErrPreferenceRange se devuelve cuando la preferencia de entrega
// no está entre el 1º y el 4º viernes del mes.
var ErrPreferenceRange = errors.New("preferencia de entrega fuera de rango (1-4)")

// dateOnly drops the time-of-day component, keeping the location.
func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func sameMonth(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month()
}

// nthFriday returns the preference-th Friday of the month containing base:
// first Friday on/after the 1st, plus (preference-1) weeks. A preference that
// overflows a short month intentionally rolls into the next month; callers
// only pass 1-4 so that never happens in practice.
func nthFriday(base time.Time, preference int) time.Time {
	d := time.Date(base.Year(), base.Month(), 1, 0, 0, 0, 0, base.Location())
	for d.Weekday() != time.Friday {
		d = d.AddDate(0, 0, 1)
	}
	return d.AddDate(0, 0, (preference-1)*7)
}

// NextDate computes the delivery date the subscriber's next order should
// target: the preference-th Friday of the month of from, pushed forward month
// by month while it falls before today or collides with the latest existing
// order (same calendar month, or on/before its date). existing carries the
// delivery dates of the subscriber's past and pending orders.
//
// The result is always a Friday, never before now (date-only) and never in a
// month already claimed by an order.
func NextDate(preference int, from, now time.Time, existing []time.Time) (time.Time, error) {
	if preference < 1 || preference > 4 {
		return time.Time{}, ErrPreferenceRange
	}

	today := dateOnly(now)
	candidate := nthFriday(from, preference)
	// Regla de corte: si la fecha ya pasó, arrancamos desde el mes siguiente.
	for candidate.Before(today) {
		candidate = nthFriday(candidate.AddDate(0, 1, -candidate.Day()+1), preference)
	}

	var last time.Time
	for _, d := range existing {
		if d.After(last) {
			last = d
		}
	}
	if last.IsZero() {
		return candidate, nil
	}
	last = dateOnly(last)

	// Mientras choque con la última orden (mismo mes o anterior a ella),
	// seguimos empujando al viernes correcto del mes siguiente.
	for sameMonth(candidate, last) || !candidate.After(last) {
		candidate = nthFriday(candidate.AddDate(0, 1, -candidate.Day()+1), preference)
		for candidate.Before(today) {
			candidate = nthFriday(candidate.AddDate(0, 1, -candidate.Day()+1), preference)
		}
	}
	return candidate, nil
}
