package service

import (
	"context"
	"time"

	"github.com/sserbin1/silentbox-cloud-sub000/internal/entity"
)

// PricingService computes the price of a prospective booking from the
// booth rate and the tenant's active pricing rules, loaded fresh on
// every call.
type PricingService interface {
	Quote(ctx context.Context, req *QuoteRequest) (*entity.Quote, error)

	// Управление правилами (операторская панель)
	CreateRule(ctx context.Context, rule entity.PricingRule) (int64, error)
	GetRule(ctx context.Context, id int64) (entity.PricingRule, error)
	GetTenantRules(ctx context.Context, tenantID int64) ([]entity.PricingRule, error)
	UpdateRule(ctx context.Context, rule entity.PricingRule) error
	DeleteRule(ctx context.Context, id int64) error
}

// BoothService определяет интерфейс для управления кабинами
type BoothService interface {
	CreateBooth(ctx context.Context, booth *entity.Booth) (*entity.Booth, error)
	GetBooth(ctx context.Context, id int64) (*entity.Booth, error)
	GetTenantBooths(ctx context.Context, tenantID int64) ([]*entity.Booth, error)
	// UpdateBoothStatus accepts operator states only; occupied is
	// system-managed and cannot be set here.
	UpdateBoothStatus(ctx context.Context, id int64, status entity.BoothStatus) error
}

// CreditsService определяет интерфейс для операций с кредитами
type CreditsService interface {
	Apply(ctx context.Context, userID int64, delta float64, reason string) (float64, error)
	Balance(ctx context.Context, userID int64) (float64, error)
	History(ctx context.Context, userID int64, limit int) ([]*entity.CreditTransaction, error)

	// Пакеты кредитов: покупка и операторский CRUD
	PurchasePackage(ctx context.Context, userID, packageID int64) (float64, error)
	CreatePackage(ctx context.Context, pkg *entity.CreditPackage) (*entity.CreditPackage, error)
	GetTenantPackages(ctx context.Context, tenantID int64) ([]*entity.CreditPackage, error)
	UpdatePackage(ctx context.Context, pkg *entity.CreditPackage) error
	DeletePackage(ctx context.Context, id int64) error
}

// ReservationService owns booth-time-slot allocation. Reserve admits a
// slot only when no non-terminal booking and no live hold overlaps it;
// calls for the same booth are serialized, different booths run in
// parallel.
type ReservationService interface {
	Reserve(ctx context.Context, boothID int64, start, end time.Time) (string, error)
	Confirm(holdID string)
	Release(holdID string)
	SetBoothOccupancy(ctx context.Context, boothID int64, occupied bool) error
}

// BookingService определяет интерфейс для жизненного цикла бронирований
type BookingService interface {
	// Основные операции
	CreateBooking(ctx context.Context, req *CreateBookingRequest) (*entity.Booking, error)
	ConfirmBooking(ctx context.Context, bookingID int64) error
	CheckIn(ctx context.Context, bookingID int64) error
	Checkout(ctx context.Context, bookingID int64) (*entity.Booking, error)
	CancelBooking(ctx context.Context, bookingID int64, reason string) (*CancellationResult, error)

	GetBooking(ctx context.Context, id int64) (*entity.Booking, error)
	GetUserBookings(ctx context.Context, userID int64) ([]*entity.Booking, error)
	GetBoothBookings(ctx context.Context, boothID int64) ([]*entity.Booking, error)

	// Операции фонового обхода
	IssueDueAccessCodes(ctx context.Context) (int, error)
	MarkNoShows(ctx context.Context) (int, error)
	CompleteElapsed(ctx context.Context) (int, error)
}

// DeviceService coordinates access codes and lock actuation against the
// booking validity window.
type DeviceService interface {
	AccessController

	// Unlock returns the ID of a confirmed booking whose first unlock
	// counts as the check-in signal, zero otherwise.
	Lock(ctx context.Context, deviceID int64) error
	Unlock(ctx context.Context, deviceID int64) (checkInBookingID int64, err error)
	Sync(ctx context.Context, deviceID int64) error

	// ReconcileLock re-locks a reachable device left unlocked with no
	// booking covering now. Reports whether a lock command was issued.
	ReconcileLock(ctx context.Context, deviceID int64) (bool, error)

	IngestTelemetry(ctx context.Context, update *entity.TelemetryUpdate) error
	RegisterDevice(ctx context.Context, device *entity.Device) (*entity.Device, error)
	GetDevice(ctx context.Context, deviceID int64) (*entity.Device, error)
	ListDevices(ctx context.Context) ([]*entity.Device, error)
}

// AccessController is the slice of DeviceService the booking lifecycle
// needs: code issuance is idempotent, revocation is best-effort with
// respect to the physical lock.
type AccessController interface {
	IssueAccess(ctx context.Context, booking *entity.Booking) (string, error)
	RevokeAccess(ctx context.Context, booking *entity.Booking) error
}

// LockCommander is the outbound contract to the IoT lock bridge. Every
// command carries a bounded timeout; commands are never retried here.
type LockCommander interface {
	Lock(ctx context.Context, deviceID int64) error
	Unlock(ctx context.Context, deviceID int64) error
	Sync(ctx context.Context, deviceID int64) error
}

// HeartbeatCache is the fast path for the online check
type HeartbeatCache interface {
	Touch(ctx context.Context, deviceID int64, seen time.Time) error
	LastSeen(ctx context.Context, deviceID int64) (time.Time, bool, error)
	Forget(ctx context.Context, deviceID int64) error
}

// QuoteRequest представляет данные для расчета стоимости
type QuoteRequest struct {
	TenantID      int64     `json:"tenant_id" binding:"required"`
	BoothID       int64     `json:"booth_id" binding:"required"`
	Start         time.Time `json:"start"`
	DurationHours float64   `json:"duration_hours" binding:"required"`
}

// CreateBookingRequest представляет данные для создания бронирования
type CreateBookingRequest struct {
	TenantID     int64  `json:"tenant_id" binding:"required"`
	BoothID      int64  `json:"booth_id" binding:"required"`
	UserID       *int64 `json:"user_id"`
	GuestContact string `json:"guest_contact"`
	Date         string `json:"date" binding:"required"`
	Start        string `json:"start" binding:"required"`
	End          string `json:"end" binding:"required"`
}

// CancellationResult is returned to the caller of a cancel request
type CancellationResult struct {
	Booking      *entity.Booking `json:"booking"`
	RefundAmount float64         `json:"refund_amount"`
	Currency     string          `json:"currency"`
}

// AdjustCreditsRequest представляет административную корректировку кредитов
type AdjustCreditsRequest struct {
	UserID int64   `json:"user_id" binding:"required"`
	Amount float64 `json:"amount" binding:"required"`
	Reason string  `json:"reason" binding:"required,min=1,max=255"`
}
