package service

import (
	"context"
	"testing"

	"github.com/sserbin1/silentbox-cloud-sub000/internal/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestCreditsApply тестирует операции с журналом кредитов
func TestCreditsApply(t *testing.T) {
	ctx := context.Background()

	t.Run("grant then debit", func(t *testing.T) {
		repo := newFakeCreditsRepo()
		svc := NewCreditsService(repo, newFakeCreditPackageRepo())

		balance, err := svc.Apply(ctx, 1, 100, "signup grant")
		require.NoError(t, err)
		assert.Equal(t, 100.0, balance)

		balance, err = svc.Apply(ctx, 1, -60, "booking debit")
		require.NoError(t, err)
		assert.Equal(t, 40.0, balance)
	})

	t.Run("debit below zero is rejected and leaves no ledger entry", func(t *testing.T) {
		repo := newFakeCreditsRepo()
		svc := NewCreditsService(repo, newFakeCreditPackageRepo())

		_, err := svc.Apply(ctx, 1, 50, "signup grant")
		require.NoError(t, err)

		_, err = svc.Apply(ctx, 1, -80, "booking debit")
		assert.ErrorIs(t, err, entity.ErrInsufficientCredits)

		balance, err := svc.Balance(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, 50.0, balance)

		history, err := svc.History(ctx, 1, 10)
		require.NoError(t, err)
		assert.Len(t, history, 1)
	})

	t.Run("zero delta is rejected", func(t *testing.T) {
		svc := NewCreditsService(newFakeCreditsRepo(), newFakeCreditPackageRepo())

		_, err := svc.Apply(ctx, 1, 0, "noop")
		assert.ErrorIs(t, err, entity.ErrValidation)
	})

	t.Run("missing reason is rejected", func(t *testing.T) {
		svc := NewCreditsService(newFakeCreditsRepo(), newFakeCreditPackageRepo())

		_, err := svc.Apply(ctx, 1, 10, "")
		assert.ErrorIs(t, err, entity.ErrValidation)
	})

	t.Run("corrections are opposite-sign entries, not edits", func(t *testing.T) {
		repo := newFakeCreditsRepo()
		svc := NewCreditsService(repo, newFakeCreditPackageRepo())

		_, err := svc.Apply(ctx, 1, 100, "signup grant")
		require.NoError(t, err)
		_, err = svc.Apply(ctx, 1, -60, "booking debit")
		require.NoError(t, err)
		balance, err := svc.Apply(ctx, 1, 60, "booking cancelled, refund")
		require.NoError(t, err)
		assert.Equal(t, 100.0, balance)

		history, err := svc.History(ctx, 1, 10)
		require.NoError(t, err)
		require.Len(t, history, 3)

		// Сумма дельт сходится с балансом
		var sum float64
		for _, tx := range history {
			sum += tx.Delta
		}
		assert.Equal(t, balance, sum)
	})

	t.Run("history honors the limit", func(t *testing.T) {
		repo := newFakeCreditsRepo()
		svc := NewCreditsService(repo, newFakeCreditPackageRepo())

		for i := 0; i < 5; i++ {
			_, err := svc.Apply(ctx, 1, 10, "grant")
			require.NoError(t, err)
		}

		history, err := svc.History(ctx, 1, 3)
		require.NoError(t, err)
		assert.Len(t, history, 3)
	})

	t.Run("unknown user has zero balance", func(t *testing.T) {
		svc := NewCreditsService(newFakeCreditsRepo(), newFakeCreditPackageRepo())

		balance, err := svc.Balance(ctx, 999)
		require.NoError(t, err)
		assert.Equal(t, 0.0, balance)
	})
}

// TestCreditPackages тестирует пакеты кредитов: CRUD и покупку
func TestCreditPackages(t *testing.T) {
	ctx := context.Background()

	newPackage := func() *entity.CreditPackage {
		return &entity.CreditPackage{
			TenantID:     1,
			Name:         "Starter 100",
			Credits:      100,
			BonusCredits: 10,
			Price:        89.99,
			Currency:     "PLN",
			IsActive:     true,
		}
	}

	t.Run("purchase credits the full package value", func(t *testing.T) {
		creditsRepo := newFakeCreditsRepo()
		svc := NewCreditsService(creditsRepo, newFakeCreditPackageRepo())

		pkg, err := svc.CreatePackage(ctx, newPackage())
		require.NoError(t, err)
		require.NotZero(t, pkg.ID)

		balance, err := svc.PurchasePackage(ctx, 1, pkg.ID)
		require.NoError(t, err)
		assert.Equal(t, 110.0, balance)

		history, err := svc.History(ctx, 1, 10)
		require.NoError(t, err)
		require.Len(t, history, 1)
		assert.Contains(t, history[0].Reason, "Starter 100")
	})

	t.Run("inactive package cannot be purchased", func(t *testing.T) {
		svc := NewCreditsService(newFakeCreditsRepo(), newFakeCreditPackageRepo())

		pkg := newPackage()
		pkg.IsActive = false
		pkg, err := svc.CreatePackage(ctx, pkg)
		require.NoError(t, err)

		_, err = svc.PurchasePackage(ctx, 1, pkg.ID)
		assert.ErrorIs(t, err, entity.ErrValidation)

		balance, err := svc.Balance(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, 0.0, balance)
	})

	t.Run("unknown package", func(t *testing.T) {
		svc := NewCreditsService(newFakeCreditsRepo(), newFakeCreditPackageRepo())

		_, err := svc.PurchasePackage(ctx, 1, 42)
		assert.ErrorIs(t, err, entity.ErrPackageNotFound)
	})

	t.Run("validation", func(t *testing.T) {
		svc := NewCreditsService(newFakeCreditsRepo(), newFakeCreditPackageRepo())

		tests := []struct {
			name   string
			mutate func(*entity.CreditPackage)
		}{
			{"empty name", func(p *entity.CreditPackage) { p.Name = "" }},
			{"zero credits", func(p *entity.CreditPackage) { p.Credits = 0 }},
			{"negative bonus", func(p *entity.CreditPackage) { p.BonusCredits = -5 }},
			{"zero price", func(p *entity.CreditPackage) { p.Price = 0 }},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				pkg := newPackage()
				tt.mutate(pkg)
				_, err := svc.CreatePackage(ctx, pkg)
				assert.ErrorIs(t, err, entity.ErrValidation)
			})
		}
	})

	t.Run("update and delete", func(t *testing.T) {
		svc := NewCreditsService(newFakeCreditsRepo(), newFakeCreditPackageRepo())

		pkg, err := svc.CreatePackage(ctx, newPackage())
		require.NoError(t, err)

		pkg.Price = 99.99
		require.NoError(t, svc.UpdatePackage(ctx, pkg))

		packages, err := svc.GetTenantPackages(ctx, 1)
		require.NoError(t, err)
		require.Len(t, packages, 1)
		assert.Equal(t, 99.99, packages[0].Price)

		require.NoError(t, svc.DeletePackage(ctx, pkg.ID))
		assert.ErrorIs(t, svc.DeletePackage(ctx, pkg.ID), entity.ErrPackageNotFound)
	})
}
