package entity

import (
	"time"
)

// Tenant carries per-tenant booking policy. Policy is read fresh by the
// services that need it, not cached at process level.
type Tenant struct {
	ID                      int64     `json:"id" db:"id"`
	Name                    string    `json:"name" db:"name"`
	Currency                string    `json:"currency" db:"currency"`
	CurrencyDigits          int       `json:"currency_digits" db:"currency_digits"`
	MinBookingMinutes       int       `json:"min_booking_minutes" db:"min_booking_minutes"`
	MaxBookingHours         int       `json:"max_booking_hours" db:"max_booking_hours"`
	GraceWindowMinutes      int       `json:"grace_window_minutes" db:"grace_window_minutes"`
	GracePeriodMinutes      int       `json:"grace_period_minutes" db:"grace_period_minutes"`
	FreeCancellationMinutes int       `json:"free_cancellation_minutes" db:"free_cancellation_minutes"`
	NoShowPenaltyPercent    float64   `json:"no_show_penalty_percent" db:"no_show_penalty_percent"`
	AccessCodeLength        int       `json:"access_code_length" db:"access_code_length"`
	CreatedAt               time.Time `json:"created_at" db:"created_at"`
}

func (t *Tenant) GraceWindow() time.Duration {
	return time.Duration(t.GraceWindowMinutes) * time.Minute
}
