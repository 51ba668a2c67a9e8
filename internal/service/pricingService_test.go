package service

import (
	"context"
	"testing"
	"time"

	"github.com/sserbin1/silentbox-cloud-sub000/internal/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testTenant() *entity.Tenant {
	return &entity.Tenant{
		ID:                      1,
		Name:                    "silentbox-warsaw",
		Currency:                "PLN",
		CurrencyDigits:          2,
		MinBookingMinutes:       30,
		MaxBookingHours:         12,
		GraceWindowMinutes:      10,
		GracePeriodMinutes:      15,
		FreeCancellationMinutes: 1440,
		NoShowPenaltyPercent:    50,
		AccessCodeLength:        6,
	}
}

func testBooth() *entity.Booth {
	return &entity.Booth{
		ID:         1,
		TenantID:   1,
		Name:       "booth-a1",
		HourlyRate: 30,
		Currency:   "PLN",
		Capacity:   1,
		Status:     entity.BoothStatusAvailable,
	}
}

// monday returns a Monday slot start at the given hour
func monday(hour int) time.Time {
	return time.Date(2026, 9, 7, hour, 0, 0, 0, time.UTC)
}

// TestComputePrice тестирует расчет стоимости по слоям
func TestComputePrice(t *testing.T) {
	peak := &entity.PeakHoursRule{
		ID: 1, TenantID: 1, DayOfWeek: int(time.Monday),
		StartHour: 9, EndHour: 17, Multiplier: 1.2, IsActive: true,
	}

	tests := []struct {
		name           string
		rate           float64
		start          time.Time
		durationHours  float64
		rules          []entity.PricingRule
		wantAmount     float64
		wantMultiplier float64
	}{
		{
			name:           "base rate only",
			rate:           30,
			start:          monday(10),
			durationHours:  2,
			wantAmount:     60,
			wantMultiplier: 1,
		},
		{
			name:           "peak multiplier applies inside the window",
			rate:           30,
			start:          monday(10),
			durationHours:  2,
			rules:          []entity.PricingRule{peak},
			wantAmount:     72,
			wantMultiplier: 1.2,
		},
		{
			name:          "peak multiplier skipped outside the window",
			rate:          30,
			start:         monday(18),
			durationHours: 2,
			rules:         []entity.PricingRule{peak},
			wantAmount:    60, wantMultiplier: 1,
		},
		{
			name:          "peak multiplier skipped below one hour of overlap",
			rate:          30,
			start:         monday(16).Add(30 * time.Minute),
			durationHours: 2,
			rules:         []entity.PricingRule{peak},
			wantAmount:    60, wantMultiplier: 1,
		},
		{
			name:          "overlapping peak rules take the maximum, never the product",
			rate:          30,
			start:         monday(10),
			durationHours: 2,
			rules: []entity.PricingRule{
				peak,
				&entity.PeakHoursRule{ID: 2, TenantID: 1, DayOfWeek: int(time.Monday), StartHour: 8, EndHour: 12, Multiplier: 1.5, IsActive: true},
			},
			wantAmount:     90,
			wantMultiplier: 1.5,
		},
		{
			name:          "fixed discount beats a smaller percentage reduction",
			rate:          30,
			start:         monday(10),
			durationHours: 2,
			rules: []entity.PricingRule{
				peak,
				&entity.DiscountRule{ID: 3, TenantID: 1, Type: entity.DiscountTypeFixed, Value: 10, AppliesTo: entity.DiscountScopeAll, IsActive: true},
				&entity.DiscountRule{ID: 4, TenantID: 1, Type: entity.DiscountTypePercentage, Value: 10, AppliesTo: entity.DiscountScopeAll, IsActive: true},
			},
			wantAmount:     62,
			wantMultiplier: 1.2,
		},
		{
			name:          "percentage discount wins on long bookings",
			rate:          30,
			start:         monday(18),
			durationHours: 10,
			rules: []entity.PricingRule{
				&entity.DiscountRule{ID: 3, TenantID: 1, Type: entity.DiscountTypeFixed, Value: 10, AppliesTo: entity.DiscountScopeAll, IsActive: true},
				&entity.DiscountRule{ID: 4, TenantID: 1, Type: entity.DiscountTypePercentage, Value: 10, AppliesTo: entity.DiscountScopeAll, IsActive: true},
			},
			wantAmount:     270,
			wantMultiplier: 1,
		},
		{
			name:          "discount below the minimum duration is ignored",
			rate:          30,
			start:         monday(10),
			durationHours: 2,
			rules: []entity.PricingRule{
				&entity.DiscountRule{ID: 5, TenantID: 1, Type: entity.DiscountTypePercentage, Value: 20, MinHours: 4, AppliesTo: entity.DiscountScopeAll, IsActive: true},
			},
			wantAmount:     60,
			wantMultiplier: 1,
		},
		{
			name:          "weekend discount does not match a Monday",
			rate:          30,
			start:         monday(10),
			durationHours: 2,
			rules: []entity.PricingRule{
				&entity.DiscountRule{ID: 6, TenantID: 1, Type: entity.DiscountTypePercentage, Value: 20, AppliesTo: entity.DiscountScopeWeekends, IsActive: true},
			},
			wantAmount:     60,
			wantMultiplier: 1,
		},
		{
			name:          "inactive rules are ignored",
			rate:          30,
			start:         monday(10),
			durationHours: 2,
			rules: []entity.PricingRule{
				&entity.PeakHoursRule{ID: 7, TenantID: 1, DayOfWeek: int(time.Monday), StartHour: 9, EndHour: 17, Multiplier: 2, IsActive: false},
				&entity.DiscountRule{ID: 8, TenantID: 1, Type: entity.DiscountTypeFixed, Value: 50, AppliesTo: entity.DiscountScopeAll, IsActive: false},
			},
			wantAmount:     60,
			wantMultiplier: 1,
		},
		{
			name:          "fixed discount never drops the price below zero",
			rate:          30,
			start:         monday(10),
			durationHours: 1,
			rules: []entity.PricingRule{
				&entity.DiscountRule{ID: 9, TenantID: 1, Type: entity.DiscountTypeFixed, Value: 500, AppliesTo: entity.DiscountScopeAll, IsActive: true},
			},
			wantAmount:     0,
			wantMultiplier: 1,
		},
		{
			name:          "result rounds to minor units",
			rate:          33.33,
			start:         monday(10),
			durationHours: 1,
			rules: []entity.PricingRule{
				&entity.DiscountRule{ID: 10, TenantID: 1, Type: entity.DiscountTypePercentage, Value: 10, AppliesTo: entity.DiscountScopeAll, IsActive: true},
			},
			wantAmount:     30,
			wantMultiplier: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			amount, _, multiplier := ComputePrice(tt.rate, tt.start, tt.durationHours, tt.rules, 2)
			assert.InDelta(t, tt.wantAmount, amount, 1e-9)
			assert.InDelta(t, tt.wantMultiplier, multiplier, 1e-9)
		})
	}
}

// TestComputePriceDeterministic проверяет воспроизводимость расчета
func TestComputePriceDeterministic(t *testing.T) {
	rules := []entity.PricingRule{
		&entity.PeakHoursRule{ID: 1, TenantID: 1, DayOfWeek: int(time.Monday), StartHour: 9, EndHour: 17, Multiplier: 1.2, IsActive: true},
		&entity.DiscountRule{ID: 2, TenantID: 1, Type: entity.DiscountTypePercentage, Value: 15, AppliesTo: entity.DiscountScopeAll, IsActive: true},
	}

	first, firstPct, firstMul := ComputePrice(30, monday(10), 2, rules, 2)
	for i := 0; i < 10; i++ {
		amount, pct, mul := ComputePrice(30, monday(10), 2, rules, 2)
		require.Equal(t, first, amount)
		require.Equal(t, firstPct, pct)
		require.Equal(t, firstMul, mul)
	}
}

// TestQuote тестирует расчет стоимости через сервис
func TestQuote(t *testing.T) {
	ctx := context.Background()

	newService := func(booth *entity.Booth, rules ...entity.PricingRule) PricingService {
		return NewPricingService(
			newFakeBoothRepo(booth),
			newFakeTenantRepo(testTenant()),
			newFakeRuleRepo(rules...),
		)
	}

	t.Run("quote with peak and discount", func(t *testing.T) {
		svc := newService(testBooth(),
			&entity.PeakHoursRule{ID: 1, TenantID: 1, DayOfWeek: int(time.Monday), StartHour: 9, EndHour: 17, Multiplier: 1.2, IsActive: true},
			&entity.DiscountRule{ID: 2, TenantID: 1, Type: entity.DiscountTypeFixed, Value: 10, AppliesTo: entity.DiscountScopeAll, IsActive: true},
		)

		quote, err := svc.Quote(ctx, &QuoteRequest{TenantID: 1, BoothID: 1, Start: monday(10), DurationHours: 2})
		require.NoError(t, err)
		assert.InDelta(t, 62, quote.Amount, 1e-9)
		assert.Equal(t, "PLN", quote.Currency)
		assert.InDelta(t, 1.2, quote.AppliedMultiplier, 1e-9)
	})

	t.Run("duration below tenant minimum", func(t *testing.T) {
		svc := newService(testBooth())

		_, err := svc.Quote(ctx, &QuoteRequest{TenantID: 1, BoothID: 1, Start: monday(10), DurationHours: 0.25})
		assert.ErrorIs(t, err, entity.ErrValidation)
	})

	t.Run("duration above tenant maximum", func(t *testing.T) {
		svc := newService(testBooth())

		_, err := svc.Quote(ctx, &QuoteRequest{TenantID: 1, BoothID: 1, Start: monday(8), DurationHours: 13})
		assert.ErrorIs(t, err, entity.ErrValidation)
	})

	t.Run("non-positive rate is a configuration error", func(t *testing.T) {
		booth := testBooth()
		booth.HourlyRate = 0
		svc := newService(booth)

		_, err := svc.Quote(ctx, &QuoteRequest{TenantID: 1, BoothID: 1, Start: monday(10), DurationHours: 2})
		assert.ErrorIs(t, err, entity.ErrConfiguration)
	})

	t.Run("booth of another tenant is rejected", func(t *testing.T) {
		booth := testBooth()
		booth.TenantID = 42
		svc := NewPricingService(
			newFakeBoothRepo(booth),
			newFakeTenantRepo(testTenant()),
			newFakeRuleRepo(),
		)

		_, err := svc.Quote(ctx, &QuoteRequest{TenantID: 1, BoothID: 1, Start: monday(10), DurationHours: 2})
		assert.ErrorIs(t, err, entity.ErrValidation)
	})
}

// TestRuleValidation тестирует валидацию правил тарификации
func TestRuleValidation(t *testing.T) {
	ctx := context.Background()
	svc := NewPricingService(newFakeBoothRepo(testBooth()), newFakeTenantRepo(testTenant()), newFakeRuleRepo())

	tests := []struct {
		name string
		rule entity.PricingRule
		ok   bool
	}{
		{
			name: "valid percentage discount",
			rule: &entity.DiscountRule{TenantID: 1, Type: entity.DiscountTypePercentage, Value: 15, AppliesTo: entity.DiscountScopeAll, IsActive: true},
			ok:   true,
		},
		{
			name: "percentage above 100 rejected",
			rule: &entity.DiscountRule{TenantID: 1, Type: entity.DiscountTypePercentage, Value: 120, AppliesTo: entity.DiscountScopeAll},
		},
		{
			name: "unknown scope rejected",
			rule: &entity.DiscountRule{TenantID: 1, Type: entity.DiscountTypeFixed, Value: 10, AppliesTo: "holidays"},
		},
		{
			name: "valid peak rule",
			rule: &entity.PeakHoursRule{TenantID: 1, DayOfWeek: 1, StartHour: 9, EndHour: 17, Multiplier: 1.5, IsActive: true},
			ok:   true,
		},
		{
			name: "inverted peak window rejected",
			rule: &entity.PeakHoursRule{TenantID: 1, DayOfWeek: 1, StartHour: 17, EndHour: 9, Multiplier: 1.5},
		},
		{
			name: "multiplier below one rejected",
			rule: &entity.PeakHoursRule{TenantID: 1, DayOfWeek: 1, StartHour: 9, EndHour: 17, Multiplier: 0.5},
		},
		{
			name: "multiplier above five rejected",
			rule: &entity.PeakHoursRule{TenantID: 1, DayOfWeek: 1, StartHour: 9, EndHour: 17, Multiplier: 10},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateRule(ctx, tt.rule)
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, entity.ErrValidation)
			}
		})
	}
}
