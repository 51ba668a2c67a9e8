package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/sserbin1/silentbox-cloud-sub000/internal/entity"
)

type bookingRepository struct {
	db *sql.DB
}

func NewBookingRepository(db *sql.DB) BookingRepository {
	return &bookingRepository{db: db}
}

const bookingColumns = `
	id, tenant_id, booth_id, user_id, guest_contact, date,
	start_time, end_time, status, total_price, currency,
	applied_discount_pct, applied_multiplier,
	access_code, access_code_expires_at, checked_in_at,
	created_at, updated_at
`

func scanBooking(row interface{ Scan(...interface{}) error }) (*entity.Booking, error) {
	var b entity.Booking
	var userID sql.NullInt64
	var accessCode sql.NullString
	var accessExpires, checkedIn sql.NullTime

	err := row.Scan(
		&b.ID,
		&b.TenantID,
		&b.BoothID,
		&userID,
		&b.GuestContact,
		&b.Date,
		&b.StartTime,
		&b.EndTime,
		&b.Status,
		&b.TotalPrice,
		&b.Currency,
		&b.AppliedDiscountPct,
		&b.AppliedMultiplier,
		&accessCode,
		&accessExpires,
		&checkedIn,
		&b.CreatedAt,
		&b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if userID.Valid {
		b.UserID = &userID.Int64
	}
	if accessCode.Valid {
		b.AccessCode = &accessCode.String
	}
	if accessExpires.Valid {
		b.AccessCodeExpiresAt = &accessExpires.Time
	}
	if checkedIn.Valid {
		b.CheckedInAt = &checkedIn.Time
	}
	return &b, nil
}

// Create inserts the booking row. The overlap check happens in the
// reservation service under the per-booth lock; the transaction here
// re-checks as a second line of defence.
func (r *bookingRepository) Create(ctx context.Context, booking *entity.Booking) error {
	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{
		Isolation: sql.LevelReadCommitted,
	})
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %v", err)
	}
	defer tx.Rollback()

	var overlapping int
	query := `
		SELECT COUNT(*) FROM bookings
		WHERE booth_id = $1
		  AND status NOT IN ('cancelled', 'no_show', 'completed')
		  AND start_time < $3 AND $2 < end_time
	`
	err = tx.QueryRowContext(ctx, query, booking.BoothID, booking.StartTime, booking.EndTime).Scan(&overlapping)
	if err != nil {
		return fmt.Errorf("failed to check overlapping bookings: %v", err)
	}
	if overlapping > 0 {
		return entity.ErrSlotConflict
	}

	query = `
		INSERT INTO bookings (
			tenant_id, booth_id, user_id, guest_contact, date,
			start_time, end_time, status, total_price, currency,
			applied_discount_pct, applied_multiplier, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING id
	`

	now := time.Now()
	var userID sql.NullInt64
	if booking.UserID != nil {
		userID = sql.NullInt64{Int64: *booking.UserID, Valid: true}
	}

	err = tx.QueryRowContext(ctx, query,
		booking.TenantID,
		booking.BoothID,
		userID,
		booking.GuestContact,
		booking.Date,
		booking.StartTime,
		booking.EndTime,
		booking.Status,
		booking.TotalPrice,
		booking.Currency,
		booking.AppliedDiscountPct,
		booking.AppliedMultiplier,
		now,
		now,
	).Scan(&booking.ID)

	if err != nil {
		return fmt.Errorf("failed to create booking: %v", err)
	}

	booking.CreatedAt = now
	booking.UpdatedAt = now

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %v", err)
	}

	return nil
}

// GetByID retrieves a booking by its ID
func (r *bookingRepository) GetByID(ctx context.Context, id int64) (*entity.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1`

	booking, err := scanBooking(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, entity.ErrBookingNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get booking: %v", err)
	}

	return booking, nil
}

// Update writes the mutable booking fields
func (r *bookingRepository) Update(ctx context.Context, booking *entity.Booking) error {
	query := `
		UPDATE bookings
		SET status = $2, total_price = $3,
		    applied_discount_pct = $4, applied_multiplier = $5,
		    updated_at = $6
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query,
		booking.ID,
		booking.Status,
		booking.TotalPrice,
		booking.AppliedDiscountPct,
		booking.AppliedMultiplier,
		time.Now(),
	)
	if err != nil {
		return fmt.Errorf("failed to update booking: %v", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %v", err)
	}
	if rows == 0 {
		return entity.ErrBookingNotFound
	}

	return nil
}

// UpdateStatus updates only the booking status
func (r *bookingRepository) UpdateStatus(ctx context.Context, id int64, status entity.BookingStatus) error {
	query := `UPDATE bookings SET status = $2, updated_at = $3 WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id, status, time.Now())
	if err != nil {
		return fmt.Errorf("failed to update booking status: %v", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %v", err)
	}
	if rows == 0 {
		return entity.ErrBookingNotFound
	}

	return nil
}

func (r *bookingRepository) SetAccessCode(ctx context.Context, id int64, code string, expiresAt time.Time) error {
	query := `
		UPDATE bookings
		SET access_code = $2, access_code_expires_at = $3, updated_at = $4
		WHERE id = $1
	`

	_, err := r.db.ExecContext(ctx, query, id, code, expiresAt, time.Now())
	if err != nil {
		return fmt.Errorf("failed to set access code: %v", err)
	}
	return nil
}

func (r *bookingRepository) ClearAccessCode(ctx context.Context, id int64) error {
	query := `
		UPDATE bookings
		SET access_code = NULL, access_code_expires_at = NULL, updated_at = $2
		WHERE id = $1
	`

	_, err := r.db.ExecContext(ctx, query, id, time.Now())
	if err != nil {
		return fmt.Errorf("failed to clear access code: %v", err)
	}
	return nil
}

func (r *bookingRepository) SetCheckedIn(ctx context.Context, id int64, at time.Time) error {
	query := `UPDATE bookings SET checked_in_at = $2, updated_at = $3 WHERE id = $1`

	_, err := r.db.ExecContext(ctx, query, id, at, time.Now())
	if err != nil {
		return fmt.Errorf("failed to set check-in time: %v", err)
	}
	return nil
}

func (r *bookingRepository) GetByUserID(ctx context.Context, userID int64) ([]*entity.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE user_id = $1 ORDER BY start_time DESC`
	return r.queryBookings(ctx, query, userID)
}

func (r *bookingRepository) GetByBoothID(ctx context.Context, boothID int64) ([]*entity.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE booth_id = $1 ORDER BY start_time DESC`
	return r.queryBookings(ctx, query, boothID)
}

func (r *bookingRepository) GetByStatus(ctx context.Context, status entity.BookingStatus) ([]*entity.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE status = $1 ORDER BY start_time`
	return r.queryBookings(ctx, query, status)
}

// CountOverlapping counts non-terminal bookings conflicting with
// [start, end) on the booth. Two slots conflict iff s1 < e2 AND s2 < e1.
func (r *bookingRepository) CountOverlapping(ctx context.Context, boothID int64, start, end time.Time) (int, error) {
	query := `
		SELECT COUNT(*) FROM bookings
		WHERE booth_id = $1
		  AND status NOT IN ('cancelled', 'no_show', 'completed')
		  AND start_time < $3 AND $2 < end_time
	`

	var count int
	err := r.db.QueryRowContext(ctx, query, boothID, start, end).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count overlapping bookings: %v", err)
	}
	return count, nil
}

// GetActiveForBooth returns the active booking covering the given moment
func (r *bookingRepository) GetActiveForBooth(ctx context.Context, boothID int64, at time.Time) (*entity.Booking, error) {
	query := `SELECT ` + bookingColumns + `
		FROM bookings
		WHERE booth_id = $1 AND status = 'active'
		  AND start_time <= $2 AND $2 < end_time
		LIMIT 1
	`

	booking, err := scanBooking(r.db.QueryRowContext(ctx, query, boothID, at))
	if err == sql.ErrNoRows {
		return nil, entity.ErrBookingNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get active booking: %v", err)
	}
	return booking, nil
}

// GetAccessEligibleForBooth returns a confirmed or active booking whose
// access window (per the tenant's grace window) covers the given moment.
func (r *bookingRepository) GetAccessEligibleForBooth(ctx context.Context, boothID int64, at time.Time) (*entity.Booking, error) {
	query := `SELECT ` + bookingColumns + `
		FROM bookings b
		WHERE b.booth_id = $1 AND b.status IN ('confirmed', 'active')
		  AND b.start_time - make_interval(mins => (
		      SELECT t.grace_window_minutes FROM tenants t WHERE t.id = b.tenant_id
		  )) <= $2
		  AND $2 < b.end_time
		ORDER BY b.start_time
		LIMIT 1
	`

	booking, err := scanBooking(r.db.QueryRowContext(ctx, query, boothID, at))
	if err == sql.ErrNoRows {
		return nil, entity.ErrBookingNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get access-eligible booking: %v", err)
	}
	return booking, nil
}

// GetAccessDue returns confirmed bookings whose access window has opened
// and which do not have a code yet
func (r *bookingRepository) GetAccessDue(ctx context.Context, now time.Time, limit int) ([]*entity.Booking, error) {
	query := `SELECT ` + bookingColumnsQualified("b") + `
		FROM bookings b
		JOIN tenants t ON t.id = b.tenant_id
		WHERE b.status = 'confirmed'
		  AND b.access_code IS NULL
		  AND b.start_time - make_interval(mins => t.grace_window_minutes) <= $1
		  AND $1 < b.end_time
		ORDER BY b.start_time
		LIMIT $2
	`
	return r.queryBookings(ctx, query, now, limit)
}

// GetNoShowDue returns confirmed bookings past the tenant's grace period
// with no check-in signal
func (r *bookingRepository) GetNoShowDue(ctx context.Context, now time.Time, limit int) ([]*entity.Booking, error) {
	query := `SELECT ` + bookingColumnsQualified("b") + `
		FROM bookings b
		JOIN tenants t ON t.id = b.tenant_id
		WHERE b.status = 'confirmed'
		  AND b.checked_in_at IS NULL
		  AND b.start_time + make_interval(mins => t.grace_period_minutes) <= $1
		ORDER BY b.start_time
		LIMIT $2
	`
	return r.queryBookings(ctx, query, now, limit)
}

// GetElapsedActive returns active bookings whose slot has ended
func (r *bookingRepository) GetElapsedActive(ctx context.Context, now time.Time, limit int) ([]*entity.Booking, error) {
	query := `SELECT ` + bookingColumns + `
		FROM bookings
		WHERE status = 'active' AND end_time <= $1
		ORDER BY end_time
		LIMIT $2
	`
	return r.queryBookings(ctx, query, now, limit)
}

func bookingColumnsQualified(alias string) string {
	return alias + `.id, ` + alias + `.tenant_id, ` + alias + `.booth_id, ` +
		alias + `.user_id, ` + alias + `.guest_contact, ` + alias + `.date, ` +
		alias + `.start_time, ` + alias + `.end_time, ` + alias + `.status, ` +
		alias + `.total_price, ` + alias + `.currency, ` +
		alias + `.applied_discount_pct, ` + alias + `.applied_multiplier, ` +
		alias + `.access_code, ` + alias + `.access_code_expires_at, ` +
		alias + `.checked_in_at, ` + alias + `.created_at, ` + alias + `.updated_at`
}

func (r *bookingRepository) queryBookings(ctx context.Context, query string, args ...interface{}) ([]*entity.Booking, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query bookings: %v", err)
	}
	defer rows.Close()

	var bookings []*entity.Booking
	for rows.Next() {
		booking, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan booking: %v", err)
		}
		bookings = append(bookings, booking)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate bookings: %v", err)
	}
	return bookings, nil
}
