package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/sserbin1/silentbox-cloud-sub000/internal/entity"
)

type pricingRuleRepository struct {
	db *sql.DB
}

func NewPricingRuleRepository(db *sql.DB) PricingRuleRepository {
	return &pricingRuleRepository{db: db}
}

const (
	ruleKindDiscount  = "discount"
	ruleKindPeakHours = "peak_hours"
)

func (r *pricingRuleRepository) Create(ctx context.Context, rule entity.PricingRule) (int64, error) {
	var id int64

	switch v := rule.(type) {
	case *entity.DiscountRule:
		query := `
			INSERT INTO pricing_rules (
				tenant_id, kind, discount_type, value, min_hours,
				applies_to, is_active, created_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			RETURNING id
		`
		err := r.db.QueryRowContext(ctx, query,
			v.TenantID, ruleKindDiscount, v.Type, v.Value, v.MinHours,
			v.AppliesTo, v.IsActive, time.Now(),
		).Scan(&id)
		if err != nil {
			return 0, fmt.Errorf("failed to create discount rule: %v", err)
		}
		v.ID = id

	case *entity.PeakHoursRule:
		query := `
			INSERT INTO pricing_rules (
				tenant_id, kind, day_of_week, start_hour, end_hour,
				multiplier, is_active, created_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			RETURNING id
		`
		err := r.db.QueryRowContext(ctx, query,
			v.TenantID, ruleKindPeakHours, v.DayOfWeek, v.StartHour, v.EndHour,
			v.Multiplier, v.IsActive, time.Now(),
		).Scan(&id)
		if err != nil {
			return 0, fmt.Errorf("failed to create peak hours rule: %v", err)
		}
		v.ID = id

	default:
		return 0, fmt.Errorf("%w: unknown pricing rule variant %T", entity.ErrValidation, rule)
	}

	return id, nil
}

func (r *pricingRuleRepository) Update(ctx context.Context, rule entity.PricingRule) error {
	var result sql.Result
	var err error

	switch v := rule.(type) {
	case *entity.DiscountRule:
		query := `
			UPDATE pricing_rules
			SET discount_type = $2, value = $3, min_hours = $4,
			    applies_to = $5, is_active = $6
			WHERE id = $1 AND kind = 'discount'
		`
		result, err = r.db.ExecContext(ctx, query,
			v.ID, v.Type, v.Value, v.MinHours, v.AppliesTo, v.IsActive)

	case *entity.PeakHoursRule:
		query := `
			UPDATE pricing_rules
			SET day_of_week = $2, start_hour = $3, end_hour = $4,
			    multiplier = $5, is_active = $6
			WHERE id = $1 AND kind = 'peak_hours'
		`
		result, err = r.db.ExecContext(ctx, query,
			v.ID, v.DayOfWeek, v.StartHour, v.EndHour, v.Multiplier, v.IsActive)

	default:
		return fmt.Errorf("%w: unknown pricing rule variant %T", entity.ErrValidation, rule)
	}

	if err != nil {
		return fmt.Errorf("failed to update pricing rule: %v", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %v", err)
	}
	if rows == 0 {
		return entity.ErrRuleNotFound
	}
	return nil
}

func (r *pricingRuleRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM pricing_rules WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete pricing rule: %v", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %v", err)
	}
	if rows == 0 {
		return entity.ErrRuleNotFound
	}
	return nil
}

const pricingRuleColumns = `
	id, tenant_id, kind, discount_type, value, min_hours, applies_to,
	day_of_week, start_hour, end_hour, multiplier, is_active, created_at
`

func scanPricingRule(row interface{ Scan(...interface{}) error }) (entity.PricingRule, error) {
	var (
		id, tenantID                int64
		kind                        string
		discountType, appliesTo     sql.NullString
		value, minHours, multiplier sql.NullFloat64
		dayOfWeek, startH, endH     sql.NullInt64
		isActive                    bool
		createdAt                   time.Time
	)

	err := row.Scan(
		&id, &tenantID, &kind,
		&discountType, &value, &minHours, &appliesTo,
		&dayOfWeek, &startH, &endH, &multiplier,
		&isActive, &createdAt,
	)
	if err != nil {
		return nil, err
	}

	switch kind {
	case ruleKindDiscount:
		return &entity.DiscountRule{
			ID:        id,
			TenantID:  tenantID,
			Type:      entity.DiscountType(discountType.String),
			Value:     value.Float64,
			MinHours:  minHours.Float64,
			AppliesTo: entity.DiscountScope(appliesTo.String),
			IsActive:  isActive,
			CreatedAt: createdAt,
		}, nil
	case ruleKindPeakHours:
		return &entity.PeakHoursRule{
			ID:         id,
			TenantID:   tenantID,
			DayOfWeek:  int(dayOfWeek.Int64),
			StartHour:  int(startH.Int64),
			EndHour:    int(endH.Int64),
			Multiplier: multiplier.Float64,
			IsActive:   isActive,
			CreatedAt:  createdAt,
		}, nil
	}
	return nil, fmt.Errorf("unknown pricing rule kind %q", kind)
}

func (r *pricingRuleRepository) GetByID(ctx context.Context, id int64) (entity.PricingRule, error) {
	query := `SELECT ` + pricingRuleColumns + ` FROM pricing_rules WHERE id = $1`

	rule, err := scanPricingRule(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, entity.ErrRuleNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get pricing rule: %v", err)
	}
	return rule, nil
}

func (r *pricingRuleRepository) GetActiveByTenant(ctx context.Context, tenantID int64) ([]entity.PricingRule, error) {
	query := `SELECT ` + pricingRuleColumns + `
		FROM pricing_rules
		WHERE tenant_id = $1 AND is_active = TRUE
		ORDER BY id
	`
	return r.queryRules(ctx, query, tenantID)
}

func (r *pricingRuleRepository) GetByTenant(ctx context.Context, tenantID int64) ([]entity.PricingRule, error) {
	query := `SELECT ` + pricingRuleColumns + `
		FROM pricing_rules
		WHERE tenant_id = $1
		ORDER BY id
	`
	return r.queryRules(ctx, query, tenantID)
}

func (r *pricingRuleRepository) queryRules(ctx context.Context, query string, args ...interface{}) ([]entity.PricingRule, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query pricing rules: %v", err)
	}
	defer rows.Close()

	var rules []entity.PricingRule
	for rows.Next() {
		rule, err := scanPricingRule(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan pricing rule: %v", err)
		}
		rules = append(rules, rule)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate pricing rules: %v", err)
	}
	return rules, nil
}
