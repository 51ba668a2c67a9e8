package entity

import (
	"time"
)

type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "pending"
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusActive    BookingStatus = "active"
	BookingStatusCompleted BookingStatus = "completed"
	BookingStatusCancelled BookingStatus = "cancelled"
	BookingStatusNoShow    BookingStatus = "no_show"
)

// Terminal reports whether the status is a final one. Terminal bookings
// do not hold their time slot.
func (s BookingStatus) Terminal() bool {
	switch s {
	case BookingStatusCompleted, BookingStatusCancelled, BookingStatusNoShow:
		return true
	}
	return false
}

type Booking struct {
	ID                  int64         `json:"id" db:"id"`
	TenantID            int64         `json:"tenant_id" db:"tenant_id"`
	BoothID             int64         `json:"booth_id" db:"booth_id"`
	UserID              *int64        `json:"user_id,omitempty" db:"user_id"`
	GuestContact        string        `json:"guest_contact,omitempty" db:"guest_contact"`
	Date                string        `json:"date" db:"date"`
	StartTime           time.Time     `json:"start_time" db:"start_time"`
	EndTime             time.Time     `json:"end_time" db:"end_time"`
	Status              BookingStatus `json:"status" db:"status"`
	TotalPrice          float64       `json:"total_price" db:"total_price"`
	Currency            string        `json:"currency" db:"currency"`
	AppliedDiscountPct  float64       `json:"applied_discount_pct" db:"applied_discount_pct"`
	AppliedMultiplier   float64       `json:"applied_multiplier" db:"applied_multiplier"`
	AccessCode          *string       `json:"access_code,omitempty" db:"access_code"`
	AccessCodeExpiresAt *time.Time    `json:"access_code_expires_at,omitempty" db:"access_code_expires_at"`
	CheckedInAt         *time.Time    `json:"checked_in_at,omitempty" db:"checked_in_at"`
	CreatedAt           time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt           time.Time     `json:"updated_at" db:"updated_at"`
}

// AccessWindow is the interval during which an access code may exist on
// the booking: from graceWindow before start until the end of the slot.
func (b *Booking) AccessWindow(graceWindow time.Duration) (time.Time, time.Time) {
	return b.StartTime.Add(-graceWindow), b.EndTime
}

// InAccessWindow reports whether now falls inside the access window.
func (b *Booking) InAccessWindow(now time.Time, graceWindow time.Duration) bool {
	from, to := b.AccessWindow(graceWindow)
	return !now.Before(from) && !now.After(to)
}

// Covers reports whether the booking slot covers the given moment.
func (b *Booking) Covers(now time.Time) bool {
	return !now.Before(b.StartTime) && now.Before(b.EndTime)
}

func (b *Booking) DurationHours() float64 {
	return b.EndTime.Sub(b.StartTime).Hours()
}
