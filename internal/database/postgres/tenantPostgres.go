package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/sserbin1/silentbox-cloud-sub000/internal/entity"
)

type tenantRepository struct {
	db *sql.DB
}

func NewTenantRepository(db *sql.DB) TenantRepository {
	return &tenantRepository{db: db}
}

func (r *tenantRepository) GetByID(ctx context.Context, id int64) (*entity.Tenant, error) {
	query := `
		SELECT id, name, currency, currency_digits,
		       min_booking_minutes, max_booking_hours,
		       grace_window_minutes, grace_period_minutes,
		       free_cancellation_minutes, no_show_penalty_percent,
		       access_code_length, created_at
		FROM tenants
		WHERE id = $1
	`

	var t entity.Tenant
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&t.ID,
		&t.Name,
		&t.Currency,
		&t.CurrencyDigits,
		&t.MinBookingMinutes,
		&t.MaxBookingHours,
		&t.GraceWindowMinutes,
		&t.GracePeriodMinutes,
		&t.FreeCancellationMinutes,
		&t.NoShowPenaltyPercent,
		&t.AccessCodeLength,
		&t.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, entity.ErrTenantNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get tenant: %v", err)
	}

	return &t, nil
}
