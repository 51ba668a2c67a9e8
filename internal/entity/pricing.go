package entity

import (
	"time"
)

type DiscountType string

const (
	DiscountTypePercentage DiscountType = "percentage"
	DiscountTypeFixed      DiscountType = "fixed"
)

type DiscountScope string

const (
	DiscountScopeAll      DiscountScope = "all"
	DiscountScopeWeekdays DiscountScope = "weekdays"
	DiscountScopeWeekends DiscountScope = "weekends"
)

// PricingRule is the closed set of rule variants the pricing engine
// understands. Exactly two kinds exist: DiscountRule and PeakHoursRule.
type PricingRule interface {
	RuleID() int64
	Active() bool
	pricingRule()
}

type DiscountRule struct {
	ID        int64         `json:"id" db:"id"`
	TenantID  int64         `json:"tenant_id" db:"tenant_id"`
	Type      DiscountType  `json:"type" db:"discount_type"`
	Value     float64       `json:"value" db:"value"`
	MinHours  float64       `json:"min_hours" db:"min_hours"`
	AppliesTo DiscountScope `json:"applies_to" db:"applies_to"`
	IsActive  bool          `json:"is_active" db:"is_active"`
	CreatedAt time.Time     `json:"created_at" db:"created_at"`
}

func (r *DiscountRule) RuleID() int64 { return r.ID }
func (r *DiscountRule) Active() bool  { return r.IsActive }
func (r *DiscountRule) pricingRule()  {}

// MatchesDay reports whether the discount scope covers the weekday.
func (r *DiscountRule) MatchesDay(day time.Weekday) bool {
	weekend := day == time.Saturday || day == time.Sunday
	switch r.AppliesTo {
	case DiscountScopeAll:
		return true
	case DiscountScopeWeekdays:
		return !weekend
	case DiscountScopeWeekends:
		return weekend
	}
	return false
}

type PeakHoursRule struct {
	ID         int64     `json:"id" db:"id"`
	TenantID   int64     `json:"tenant_id" db:"tenant_id"`
	DayOfWeek  int       `json:"day_of_week" db:"day_of_week"`
	StartHour  int       `json:"start_hour" db:"start_hour"`
	EndHour    int       `json:"end_hour" db:"end_hour"`
	Multiplier float64   `json:"multiplier" db:"multiplier"`
	IsActive   bool      `json:"is_active" db:"is_active"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

func (r *PeakHoursRule) RuleID() int64 { return r.ID }
func (r *PeakHoursRule) Active() bool  { return r.IsActive }
func (r *PeakHoursRule) pricingRule()  {}

// Quote is the result of a pricing computation.
type Quote struct {
	Amount             float64 `json:"amount"`
	Currency           string  `json:"currency"`
	AppliedDiscountPct float64 `json:"applied_discount_pct"`
	AppliedMultiplier  float64 `json:"applied_multiplier"`
}
