package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/sserbin1/silentbox-cloud-sub000/internal/entity"
)

type boothRepository struct {
	db *sql.DB
}

func NewBoothRepository(db *sql.DB) BoothRepository {
	return &boothRepository{db: db}
}

func (r *boothRepository) Create(ctx context.Context, booth *entity.Booth) error {
	query := `
		INSERT INTO booths (
			tenant_id, location_id, name, hourly_rate, currency,
			capacity, status, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id
	`

	now := time.Now()
	if booth.Status == "" {
		booth.Status = entity.BoothStatusAvailable
	}

	err := r.db.QueryRowContext(ctx, query,
		booth.TenantID,
		booth.LocationID,
		booth.Name,
		booth.HourlyRate,
		booth.Currency,
		booth.Capacity,
		booth.Status,
		now,
		now,
	).Scan(&booth.ID)

	if err != nil {
		return fmt.Errorf("failed to create booth: %v", err)
	}

	booth.CreatedAt = now
	booth.UpdatedAt = now
	return nil
}

func (r *boothRepository) GetByID(ctx context.Context, id int64) (*entity.Booth, error) {
	query := `
		SELECT id, tenant_id, location_id, name, hourly_rate, currency,
		       capacity, status, created_at, updated_at
		FROM booths
		WHERE id = $1
	`

	var booth entity.Booth
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&booth.ID,
		&booth.TenantID,
		&booth.LocationID,
		&booth.Name,
		&booth.HourlyRate,
		&booth.Currency,
		&booth.Capacity,
		&booth.Status,
		&booth.CreatedAt,
		&booth.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, entity.ErrBoothNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get booth: %v", err)
	}

	return &booth, nil
}

func (r *boothRepository) GetByTenant(ctx context.Context, tenantID int64) ([]*entity.Booth, error) {
	query := `
		SELECT id, tenant_id, location_id, name, hourly_rate, currency,
		       capacity, status, created_at, updated_at
		FROM booths
		WHERE tenant_id = $1
		ORDER BY name
	`

	rows, err := r.db.QueryContext(ctx, query, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to query booths: %v", err)
	}
	defer rows.Close()

	var booths []*entity.Booth
	for rows.Next() {
		var booth entity.Booth
		err := rows.Scan(
			&booth.ID,
			&booth.TenantID,
			&booth.LocationID,
			&booth.Name,
			&booth.HourlyRate,
			&booth.Currency,
			&booth.Capacity,
			&booth.Status,
			&booth.CreatedAt,
			&booth.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan booth: %v", err)
		}
		booths = append(booths, &booth)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate booths: %v", err)
	}
	return booths, nil
}

func (r *boothRepository) UpdateStatus(ctx context.Context, id int64, status entity.BoothStatus) error {
	query := `UPDATE booths SET status = $2, updated_at = $3 WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id, status, time.Now())
	if err != nil {
		return fmt.Errorf("failed to update booth status: %v", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %v", err)
	}
	if rows == 0 {
		return entity.ErrBoothNotFound
	}

	return nil
}
