package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/sserbin1/silentbox-cloud-sub000/internal/entity"
)

type creditPackageRepository struct {
	db *sql.DB
}

func NewCreditPackageRepository(db *sql.DB) CreditPackageRepository {
	return &creditPackageRepository{db: db}
}

func (r *creditPackageRepository) Create(ctx context.Context, pkg *entity.CreditPackage) error {
	query := `
		INSERT INTO credit_packages (tenant_id, name, credits, bonus_credits, price, currency, is_active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`

	err := r.db.QueryRowContext(ctx, query,
		pkg.TenantID,
		pkg.Name,
		pkg.Credits,
		pkg.BonusCredits,
		pkg.Price,
		pkg.Currency,
		pkg.IsActive,
		time.Now(),
	).Scan(&pkg.ID)
	if err != nil {
		return fmt.Errorf("failed to create credit package: %v", err)
	}
	return nil
}

const creditPackageColumns = `
	id, tenant_id, name, credits, bonus_credits, price, currency, is_active, created_at
`

func (r *creditPackageRepository) GetByID(ctx context.Context, id int64) (*entity.CreditPackage, error) {
	query := `SELECT ` + creditPackageColumns + ` FROM credit_packages WHERE id = $1`

	var p entity.CreditPackage
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&p.ID, &p.TenantID, &p.Name, &p.Credits, &p.BonusCredits,
		&p.Price, &p.Currency, &p.IsActive, &p.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, entity.ErrPackageNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get credit package: %v", err)
	}
	return &p, nil
}

func (r *creditPackageRepository) GetByTenant(ctx context.Context, tenantID int64) ([]*entity.CreditPackage, error) {
	query := `SELECT ` + creditPackageColumns + `
		FROM credit_packages
		WHERE tenant_id = $1
		ORDER BY id
	`

	rows, err := r.db.QueryContext(ctx, query, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to query credit packages: %v", err)
	}
	defer rows.Close()

	var packages []*entity.CreditPackage
	for rows.Next() {
		var p entity.CreditPackage
		err := rows.Scan(
			&p.ID, &p.TenantID, &p.Name, &p.Credits, &p.BonusCredits,
			&p.Price, &p.Currency, &p.IsActive, &p.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan credit package: %v", err)
		}
		packages = append(packages, &p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate credit packages: %v", err)
	}
	return packages, nil
}

func (r *creditPackageRepository) Update(ctx context.Context, pkg *entity.CreditPackage) error {
	query := `
		UPDATE credit_packages
		SET name = $2, credits = $3, bonus_credits = $4, price = $5, currency = $6, is_active = $7
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query,
		pkg.ID, pkg.Name, pkg.Credits, pkg.BonusCredits, pkg.Price, pkg.Currency, pkg.IsActive)
	if err != nil {
		return fmt.Errorf("failed to update credit package: %v", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %v", err)
	}
	if rows == 0 {
		return entity.ErrPackageNotFound
	}
	return nil
}

func (r *creditPackageRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM credit_packages WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete credit package: %v", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %v", err)
	}
	if rows == 0 {
		return entity.ErrPackageNotFound
	}
	return nil
}
