package entity

import (
	"time"
)

type BoothStatus string

const (
	BoothStatusAvailable   BoothStatus = "available"
	BoothStatusOccupied    BoothStatus = "occupied"
	BoothStatusMaintenance BoothStatus = "maintenance"
	BoothStatusOffline     BoothStatus = "offline"
)

type Booth struct {
	ID         int64       `json:"id" db:"id"`
	TenantID   int64       `json:"tenant_id" db:"tenant_id"`
	LocationID int64       `json:"location_id" db:"location_id"`
	Name       string      `json:"name" db:"name"`
	HourlyRate float64     `json:"hourly_rate" db:"hourly_rate"`
	Currency   string      `json:"currency" db:"currency"`
	Capacity   int         `json:"capacity" db:"capacity"`
	Status     BoothStatus `json:"status" db:"status"`
	CreatedAt  time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time   `json:"updated_at" db:"updated_at"`
}

// Bookable reports whether the booth can take new reservations.
// Occupied booths stay bookable for non-overlapping slots; only
// operator-set states block intake.
func (b *Booth) Bookable() bool {
	return b.Status == BoothStatusAvailable || b.Status == BoothStatusOccupied
}
