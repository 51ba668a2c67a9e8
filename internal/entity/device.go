package entity

import (
	"time"
)

type LockStatus string

const (
	LockStatusLocked   LockStatus = "locked"
	LockStatusUnlocked LockStatus = "unlocked"
)

// OnlineThreshold is how recent the last heartbeat must be for a device
// to count as online.
const OnlineThreshold = 5 * time.Minute

type Device struct {
	ID           int64      `json:"id" db:"id"`
	BoothID      int64      `json:"booth_id" db:"booth_id"`
	Status       LockStatus `json:"status" db:"status"`
	LastSeen     time.Time  `json:"last_seen" db:"last_seen"`
	BatteryLevel int        `json:"battery_level" db:"battery_level"`
	Firmware     string     `json:"firmware,omitempty" db:"firmware"`
	IsOnline     bool       `json:"is_online" db:"-"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at" db:"updated_at"`
}

// Online derives reachability from the last heartbeat.
func (d *Device) Online(now time.Time) bool {
	return now.Sub(d.LastSeen) < OnlineThreshold
}

// TelemetryUpdate is one push from the IoT bridge.
type TelemetryUpdate struct {
	DeviceID     int64      `json:"device_id" binding:"required"`
	LastSeen     time.Time  `json:"last_seen"`
	BatteryLevel int        `json:"battery_level" binding:"min=0,max=100"`
	LockStatus   LockStatus `json:"lock_status"`
	Firmware     string     `json:"firmware"`
}
