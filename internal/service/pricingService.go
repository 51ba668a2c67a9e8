package service

import (
	"context"
	"fmt"
	"math"
	"time"

	repository "github.com/sserbin1/silentbox-cloud-sub000/internal/database/postgres"
	"github.com/sserbin1/silentbox-cloud-sub000/internal/entity"
)

type pricingService struct {
	boothRepo  repository.BoothRepository
	tenantRepo repository.TenantRepository
	ruleRepo   repository.PricingRuleRepository
}

// NewPricingService создает новый экземпляр PricingService
func NewPricingService(
	boothRepo repository.BoothRepository,
	tenantRepo repository.TenantRepository,
	ruleRepo repository.PricingRuleRepository,
) PricingService {
	return &pricingService{
		boothRepo:  boothRepo,
		tenantRepo: tenantRepo,
		ruleRepo:   ruleRepo,
	}
}

// Quote рассчитывает стоимость бронирования
func (s *pricingService) Quote(ctx context.Context, req *QuoteRequest) (*entity.Quote, error) {
	tenant, err := s.tenantRepo.GetByID(ctx, req.TenantID)
	if err != nil {
		return nil, fmt.Errorf("tenant lookup failed: %w", err)
	}

	booth, err := s.boothRepo.GetByID(ctx, req.BoothID)
	if err != nil {
		return nil, fmt.Errorf("booth lookup failed: %w", err)
	}
	if booth.TenantID != req.TenantID {
		return nil, fmt.Errorf("%w: booth %d does not belong to tenant %d",
			entity.ErrValidation, req.BoothID, req.TenantID)
	}

	// Валидация длительности до расчета стоимости
	durationMinutes := req.DurationHours * 60
	if durationMinutes < float64(tenant.MinBookingMinutes) {
		return nil, fmt.Errorf("%w: duration %.0f min is below the tenant minimum of %d min",
			entity.ErrValidation, durationMinutes, tenant.MinBookingMinutes)
	}
	if req.DurationHours > float64(tenant.MaxBookingHours) {
		return nil, fmt.Errorf("%w: duration %.1f h exceeds the tenant maximum of %d h",
			entity.ErrValidation, req.DurationHours, tenant.MaxBookingHours)
	}

	// Нулевая или отрицательная ставка - ошибка конфигурации, а не бесплатная кабина
	if booth.HourlyRate <= 0 {
		return nil, fmt.Errorf("%w: booth %d has non-positive hourly rate %.2f",
			entity.ErrConfiguration, booth.ID, booth.HourlyRate)
	}

	// Правила загружаются заново при каждом расчете
	rules, err := s.ruleRepo.GetActiveByTenant(ctx, req.TenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to load pricing rules: %w", err)
	}

	amount, discountPct, multiplier := ComputePrice(
		booth.HourlyRate, req.Start, req.DurationHours, rules, tenant.CurrencyDigits)

	return &entity.Quote{
		Amount:             amount,
		Currency:           booth.Currency,
		AppliedDiscountPct: discountPct,
		AppliedMultiplier:  multiplier,
	}, nil
}

// CreateRule сохраняет новое правило тарификации
func (s *pricingService) CreateRule(ctx context.Context, rule entity.PricingRule) (int64, error) {
	if err := validateRule(rule); err != nil {
		return 0, err
	}
	return s.ruleRepo.Create(ctx, rule)
}

func (s *pricingService) GetRule(ctx context.Context, id int64) (entity.PricingRule, error) {
	return s.ruleRepo.GetByID(ctx, id)
}

func (s *pricingService) GetTenantRules(ctx context.Context, tenantID int64) ([]entity.PricingRule, error) {
	return s.ruleRepo.GetByTenant(ctx, tenantID)
}

// UpdateRule обновляет правило тарификации
func (s *pricingService) UpdateRule(ctx context.Context, rule entity.PricingRule) error {
	if err := validateRule(rule); err != nil {
		return err
	}
	if _, err := s.ruleRepo.GetByID(ctx, rule.RuleID()); err != nil {
		return err
	}
	return s.ruleRepo.Update(ctx, rule)
}

func (s *pricingService) DeleteRule(ctx context.Context, id int64) error {
	if _, err := s.ruleRepo.GetByID(ctx, id); err != nil {
		return err
	}
	return s.ruleRepo.Delete(ctx, id)
}

func validateRule(rule entity.PricingRule) error {
	switch r := rule.(type) {
	case *entity.DiscountRule:
		if r.Value <= 0 {
			return fmt.Errorf("%w: discount value must be positive", entity.ErrValidation)
		}
		if r.Type == entity.DiscountTypePercentage && r.Value > 100 {
			return fmt.Errorf("%w: percentage discount cannot exceed 100", entity.ErrValidation)
		}
		if r.Type != entity.DiscountTypePercentage && r.Type != entity.DiscountTypeFixed {
			return fmt.Errorf("%w: unknown discount type %q", entity.ErrValidation, r.Type)
		}
		switch r.AppliesTo {
		case entity.DiscountScopeAll, entity.DiscountScopeWeekdays, entity.DiscountScopeWeekends:
		default:
			return fmt.Errorf("%w: unknown discount scope %q", entity.ErrValidation, r.AppliesTo)
		}
	case *entity.PeakHoursRule:
		if r.DayOfWeek < 0 || r.DayOfWeek > 6 {
			return fmt.Errorf("%w: day of week must be within [0, 6]", entity.ErrValidation)
		}
		if r.StartHour < 0 || r.EndHour > 24 || r.StartHour >= r.EndHour {
			return fmt.Errorf("%w: peak window [%d, %d) is invalid", entity.ErrValidation, r.StartHour, r.EndHour)
		}
		if r.Multiplier < 1 || r.Multiplier > 5 {
			return fmt.Errorf("%w: multiplier must be within [1, 5]", entity.ErrValidation)
		}
	default:
		return fmt.Errorf("%w: unknown pricing rule kind", entity.ErrValidation)
	}
	return nil
}

// ComputePrice is the pure pricing core: base = rate × hours, then the
// single highest matching peak multiplier, then the single discount with
// the largest effective reduction. Multipliers and discounts never
// stack. The result is rounded to the currency's minor-unit digits.
func ComputePrice(rate float64, start time.Time, durationHours float64, rules []entity.PricingRule, digits int) (amount, appliedDiscountPct, appliedMultiplier float64) {
	base := rate * durationHours

	appliedMultiplier = peakMultiplier(start, durationHours, rules)
	priced := base * appliedMultiplier

	reduction := bestDiscountReduction(start, durationHours, priced, rules)
	if reduction > 0 && priced > 0 {
		appliedDiscountPct = roundTo(reduction/priced*100, 2)
	}

	amount = roundTo(priced-reduction, digits)
	return amount, appliedDiscountPct, appliedMultiplier
}

// peakMultiplier returns the maximum multiplier among active peak-hour
// rules matching the weekday and overlapping the booking window by at
// least one hour; 1 when none match.
func peakMultiplier(start time.Time, durationHours float64, rules []entity.PricingRule) float64 {
	bookingStart := float64(start.Hour()) + float64(start.Minute())/60
	bookingEnd := bookingStart + durationHours

	multiplier := 1.0
	for _, rule := range rules {
		peak, ok := rule.(*entity.PeakHoursRule)
		if !ok || !peak.IsActive {
			continue
		}
		if peak.DayOfWeek != int(start.Weekday()) {
			continue
		}

		overlap := math.Min(bookingEnd, float64(peak.EndHour)) - math.Max(bookingStart, float64(peak.StartHour))
		if overlap < 1 {
			continue
		}
		if peak.Multiplier > multiplier {
			multiplier = peak.Multiplier
		}
	}
	return multiplier
}

// bestDiscountReduction selects the single discount with the largest
// effective reduction. A fixed discount can beat a higher percentage on
// short bookings, so candidates compare by reduction amount.
func bestDiscountReduction(start time.Time, durationHours, priced float64, rules []entity.PricingRule) float64 {
	best := 0.0
	for _, rule := range rules {
		discount, ok := rule.(*entity.DiscountRule)
		if !ok || !discount.IsActive {
			continue
		}
		if discount.MinHours > durationHours {
			continue
		}
		if !discount.MatchesDay(start.Weekday()) {
			continue
		}

		var reduction float64
		switch discount.Type {
		case entity.DiscountTypePercentage:
			pct := math.Min(discount.Value, 100)
			reduction = priced * pct / 100
		case entity.DiscountTypeFixed:
			reduction = math.Min(discount.Value, priced)
		}

		if reduction > best {
			best = reduction
		}
	}
	return best
}

// roundTo rounds half away from zero to the given number of decimals
func roundTo(value float64, digits int) float64 {
	factor := math.Pow(10, float64(digits))
	return math.Round(value*factor) / factor
}
