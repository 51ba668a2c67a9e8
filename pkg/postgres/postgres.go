package postgres

import (
	"database/sql"
	"fmt"
	"log"

	"github.com/sserbin1/silentbox-cloud-sub000/config"

	_ "github.com/lib/pq"
)

func NewPostgresDB(cfg *config.DatabaseConfig) (*sql.DB, error) {
	connStr := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode,
	)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Println("Successfully connected to PostgreSQL")
	return db, nil
}

func RunMigrations(db *sql.DB) error {
	// Read migration files and execute them
	// This is a simplified version - you might want to use a proper migration tool
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS tenants (
			id SERIAL PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			currency VARCHAR(8) NOT NULL DEFAULT 'PLN',
			currency_digits INTEGER NOT NULL DEFAULT 2,
			min_booking_minutes INTEGER NOT NULL DEFAULT 30,
			max_booking_hours INTEGER NOT NULL DEFAULT 12,
			grace_window_minutes INTEGER NOT NULL DEFAULT 10,
			grace_period_minutes INTEGER NOT NULL DEFAULT 15,
			free_cancellation_minutes INTEGER NOT NULL DEFAULT 1440,
			no_show_penalty_percent NUMERIC(5,2) NOT NULL DEFAULT 50,
			access_code_length INTEGER NOT NULL DEFAULT 6,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE TABLE IF NOT EXISTS booths (
			id SERIAL PRIMARY KEY,
			tenant_id INTEGER REFERENCES tenants(id),
			location_id INTEGER NOT NULL DEFAULT 0,
			name VARCHAR(255) NOT NULL,
			hourly_rate NUMERIC(10,2) NOT NULL,
			currency VARCHAR(8) NOT NULL,
			capacity INTEGER NOT NULL DEFAULT 1,
			status VARCHAR(20) NOT NULL DEFAULT 'available',
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE TABLE IF NOT EXISTS bookings (
			id SERIAL PRIMARY KEY,
			tenant_id INTEGER REFERENCES tenants(id),
			booth_id INTEGER REFERENCES booths(id),
			user_id INTEGER,
			guest_contact VARCHAR(255) NOT NULL DEFAULT '',
			date VARCHAR(10) NOT NULL,
			start_time TIMESTAMP NOT NULL,
			end_time TIMESTAMP NOT NULL,
			status VARCHAR(20) NOT NULL DEFAULT 'pending',
			total_price NUMERIC(10,2) NOT NULL DEFAULT 0,
			currency VARCHAR(8) NOT NULL,
			applied_discount_pct NUMERIC(5,2) NOT NULL DEFAULT 0,
			applied_multiplier NUMERIC(4,2) NOT NULL DEFAULT 1,
			access_code VARCHAR(16),
			access_code_expires_at TIMESTAMP,
			checked_in_at TIMESTAMP,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE TABLE IF NOT EXISTS credit_transactions (
			id UUID PRIMARY KEY,
			user_id INTEGER NOT NULL,
			delta NUMERIC(10,2) NOT NULL,
			reason VARCHAR(255) NOT NULL,
			resulting_balance NUMERIC(10,2) NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE TABLE IF NOT EXISTS credit_balances (
			user_id INTEGER PRIMARY KEY,
			balance NUMERIC(10,2) NOT NULL DEFAULT 0,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE TABLE IF NOT EXISTS pricing_rules (
			id SERIAL PRIMARY KEY,
			tenant_id INTEGER REFERENCES tenants(id),
			kind VARCHAR(20) NOT NULL,
			discount_type VARCHAR(20),
			value NUMERIC(10,2),
			min_hours NUMERIC(5,2),
			applies_to VARCHAR(20),
			day_of_week INTEGER,
			start_hour INTEGER,
			end_hour INTEGER,
			multiplier NUMERIC(4,2),
			is_active BOOLEAN NOT NULL DEFAULT TRUE,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE TABLE IF NOT EXISTS credit_packages (
			id SERIAL PRIMARY KEY,
			tenant_id INTEGER REFERENCES tenants(id),
			name VARCHAR(255) NOT NULL,
			credits NUMERIC(10,2) NOT NULL,
			bonus_credits NUMERIC(10,2) NOT NULL DEFAULT 0,
			price NUMERIC(10,2) NOT NULL,
			currency VARCHAR(8) NOT NULL,
			is_active BOOLEAN NOT NULL DEFAULT TRUE,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE TABLE IF NOT EXISTS devices (
			id SERIAL PRIMARY KEY,
			booth_id INTEGER REFERENCES booths(id),
			status VARCHAR(20) NOT NULL DEFAULT 'locked',
			last_seen TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			battery_level INTEGER NOT NULL DEFAULT 100,
			firmware VARCHAR(64) NOT NULL DEFAULT '',
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,

		// Indexes
		`CREATE INDEX IF NOT EXISTS idx_bookings_booth_id ON bookings(booth_id)`,
		`CREATE INDEX IF NOT EXISTS idx_bookings_user_id ON bookings(user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_bookings_status ON bookings(status)`,
		`CREATE INDEX IF NOT EXISTS idx_bookings_booth_status ON bookings(booth_id, status)`,
		`CREATE INDEX IF NOT EXISTS idx_bookings_start_time ON bookings(start_time)`,
		`CREATE INDEX IF NOT EXISTS idx_credit_tx_user_id ON credit_transactions(user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_pricing_rules_tenant ON pricing_rules(tenant_id, is_active)`,
		`CREATE INDEX IF NOT EXISTS idx_credit_packages_tenant ON credit_packages(tenant_id, is_active)`,
		`CREATE INDEX IF NOT EXISTS idx_devices_booth_id ON devices(booth_id)`,
	}

	for _, migration := range migrations {
		if _, err := db.Exec(migration); err != nil {
			return fmt.Errorf("failed to execute migration: %v", err)
		}
	}

	log.Println("Database migrations completed successfully")
	return nil
}
