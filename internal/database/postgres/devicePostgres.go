package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/sserbin1/silentbox-cloud-sub000/internal/entity"
)

type deviceRepository struct {
	db *sql.DB
}

func NewDeviceRepository(db *sql.DB) DeviceRepository {
	return &deviceRepository{db: db}
}

const deviceColumns = `
	id, booth_id, status, last_seen, battery_level, firmware,
	created_at, updated_at
`

func scanDevice(row interface{ Scan(...interface{}) error }) (*entity.Device, error) {
	var d entity.Device
	err := row.Scan(
		&d.ID,
		&d.BoothID,
		&d.Status,
		&d.LastSeen,
		&d.BatteryLevel,
		&d.Firmware,
		&d.CreatedAt,
		&d.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *deviceRepository) Create(ctx context.Context, device *entity.Device) error {
	query := `
		INSERT INTO devices (booth_id, status, last_seen, battery_level, firmware, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`

	now := time.Now()
	if device.Status == "" {
		device.Status = entity.LockStatusLocked
	}
	if device.LastSeen.IsZero() {
		device.LastSeen = now
	}

	err := r.db.QueryRowContext(ctx, query,
		device.BoothID,
		device.Status,
		device.LastSeen,
		device.BatteryLevel,
		device.Firmware,
		now,
		now,
	).Scan(&device.ID)

	if err != nil {
		return fmt.Errorf("failed to create device: %v", err)
	}

	device.CreatedAt = now
	device.UpdatedAt = now
	return nil
}

func (r *deviceRepository) GetByID(ctx context.Context, id int64) (*entity.Device, error) {
	query := `SELECT ` + deviceColumns + ` FROM devices WHERE id = $1`

	device, err := scanDevice(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, entity.ErrDeviceNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get device: %v", err)
	}
	return device, nil
}

func (r *deviceRepository) GetByBoothID(ctx context.Context, boothID int64) (*entity.Device, error) {
	query := `SELECT ` + deviceColumns + ` FROM devices WHERE booth_id = $1 LIMIT 1`

	device, err := scanDevice(r.db.QueryRowContext(ctx, query, boothID))
	if err == sql.ErrNoRows {
		return nil, entity.ErrDeviceNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get device by booth: %v", err)
	}
	return device, nil
}

func (r *deviceRepository) GetAll(ctx context.Context) ([]*entity.Device, error) {
	query := `SELECT ` + deviceColumns + ` FROM devices ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query devices: %v", err)
	}
	defer rows.Close()

	var devices []*entity.Device
	for rows.Next() {
		device, err := scanDevice(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan device: %v", err)
		}
		devices = append(devices, device)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate devices: %v", err)
	}
	return devices, nil
}

func (r *deviceRepository) UpdateStatus(ctx context.Context, id int64, status entity.LockStatus) error {
	query := `UPDATE devices SET status = $2, updated_at = $3 WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id, status, time.Now())
	if err != nil {
		return fmt.Errorf("failed to update device status: %v", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %v", err)
	}
	if rows == 0 {
		return entity.ErrDeviceNotFound
	}

	return nil
}

// ApplyTelemetry writes one telemetry push from the IoT bridge
func (r *deviceRepository) ApplyTelemetry(ctx context.Context, update *entity.TelemetryUpdate) error {
	query := `
		UPDATE devices
		SET last_seen = $2, battery_level = $3, status = $4,
		    firmware = CASE WHEN $5 <> '' THEN $5 ELSE firmware END,
		    updated_at = $6
		WHERE id = $1
	`

	lastSeen := update.LastSeen
	if lastSeen.IsZero() {
		lastSeen = time.Now()
	}

	result, err := r.db.ExecContext(ctx, query,
		update.DeviceID,
		lastSeen,
		update.BatteryLevel,
		update.LockStatus,
		update.Firmware,
		time.Now(),
	)
	if err != nil {
		return fmt.Errorf("failed to apply telemetry: %v", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %v", err)
	}
	if rows == 0 {
		return entity.ErrDeviceNotFound
	}

	return nil
}
