package repository

import (
	"context"
	"time"

	"github.com/sserbin1/silentbox-cloud-sub000/internal/entity"
)

type BookingRepository interface {
	// Basic CRUD operations
	Create(ctx context.Context, booking *entity.Booking) error
	GetByID(ctx context.Context, id int64) (*entity.Booking, error)
	Update(ctx context.Context, booking *entity.Booking) error
	UpdateStatus(ctx context.Context, id int64, status entity.BookingStatus) error

	// Access code operations
	SetAccessCode(ctx context.Context, id int64, code string, expiresAt time.Time) error
	ClearAccessCode(ctx context.Context, id int64) error
	SetCheckedIn(ctx context.Context, id int64, at time.Time) error

	// Query operations
	GetByUserID(ctx context.Context, userID int64) ([]*entity.Booking, error)
	GetByBoothID(ctx context.Context, boothID int64) ([]*entity.Booking, error)
	GetByStatus(ctx context.Context, status entity.BookingStatus) ([]*entity.Booking, error)
	CountOverlapping(ctx context.Context, boothID int64, start, end time.Time) (int, error)
	GetActiveForBooth(ctx context.Context, boothID int64, at time.Time) (*entity.Booking, error)
	GetAccessEligibleForBooth(ctx context.Context, boothID int64, at time.Time) (*entity.Booking, error)

	// Sweep operations; deadlines are evaluated against per-tenant policy
	GetAccessDue(ctx context.Context, now time.Time, limit int) ([]*entity.Booking, error)
	GetNoShowDue(ctx context.Context, now time.Time, limit int) ([]*entity.Booking, error)
	GetElapsedActive(ctx context.Context, now time.Time, limit int) ([]*entity.Booking, error)
}

type BoothRepository interface {
	Create(ctx context.Context, booth *entity.Booth) error
	GetByID(ctx context.Context, id int64) (*entity.Booth, error)
	GetByTenant(ctx context.Context, tenantID int64) ([]*entity.Booth, error)
	UpdateStatus(ctx context.Context, id int64, status entity.BoothStatus) error
}

type TenantRepository interface {
	GetByID(ctx context.Context, id int64) (*entity.Tenant, error)
}

type CreditsRepository interface {
	// Apply writes the ledger row and the cached balance in one
	// transaction; the two can never diverge.
	Apply(ctx context.Context, userID int64, delta float64, reason string) (*entity.CreditTransaction, error)
	GetBalance(ctx context.Context, userID int64) (float64, error)
	GetHistory(ctx context.Context, userID int64, limit int) ([]*entity.CreditTransaction, error)
}

type CreditPackageRepository interface {
	Create(ctx context.Context, pkg *entity.CreditPackage) error
	GetByID(ctx context.Context, id int64) (*entity.CreditPackage, error)
	GetByTenant(ctx context.Context, tenantID int64) ([]*entity.CreditPackage, error)
	Update(ctx context.Context, pkg *entity.CreditPackage) error
	Delete(ctx context.Context, id int64) error
}

type PricingRuleRepository interface {
	// GetActiveByTenant is called fresh on every pricing computation
	GetActiveByTenant(ctx context.Context, tenantID int64) ([]entity.PricingRule, error)

	// Операции CRUD для операторской панели
	Create(ctx context.Context, rule entity.PricingRule) (int64, error)
	GetByID(ctx context.Context, id int64) (entity.PricingRule, error)
	GetByTenant(ctx context.Context, tenantID int64) ([]entity.PricingRule, error)
	Update(ctx context.Context, rule entity.PricingRule) error
	Delete(ctx context.Context, id int64) error
}

type DeviceRepository interface {
	Create(ctx context.Context, device *entity.Device) error
	GetByID(ctx context.Context, id int64) (*entity.Device, error)
	GetByBoothID(ctx context.Context, boothID int64) (*entity.Device, error)
	GetAll(ctx context.Context) ([]*entity.Device, error)
	UpdateStatus(ctx context.Context, id int64, status entity.LockStatus) error
	ApplyTelemetry(ctx context.Context, update *entity.TelemetryUpdate) error
}
