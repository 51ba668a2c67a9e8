package service

import (
	"context"
	"fmt"

	repository "github.com/sserbin1/silentbox-cloud-sub000/internal/database/postgres"
	"github.com/sserbin1/silentbox-cloud-sub000/internal/entity"

	"github.com/sirupsen/logrus"
)

type creditsService struct {
	creditsRepo repository.CreditsRepository
	packageRepo repository.CreditPackageRepository
}

// NewCreditsService создает новый экземпляр CreditsService
func NewCreditsService(creditsRepo repository.CreditsRepository, packageRepo repository.CreditPackageRepository) CreditsService {
	return &creditsService{creditsRepo: creditsRepo, packageRepo: packageRepo}
}

// Apply записывает одну операцию в журнал кредитов. Журнал только
// добавляется; баланс обновляется в той же транзакции.
func (s *creditsService) Apply(ctx context.Context, userID int64, delta float64, reason string) (float64, error) {
	if reason == "" {
		return 0, fmt.Errorf("%w: credit mutation requires a reason", entity.ErrValidation)
	}
	if delta == 0 {
		return 0, fmt.Errorf("%w: zero delta", entity.ErrValidation)
	}

	transaction, err := s.creditsRepo.Apply(ctx, userID, delta, reason)
	if err != nil {
		return 0, fmt.Errorf("credit apply failed for user %d: %w", userID, err)
	}

	logrus.WithFields(logrus.Fields{
		"user_id": userID,
		"delta":   delta,
		"balance": transaction.ResultingBalance,
		"reason":  reason,
	}).Info("Credit transaction applied")

	return transaction.ResultingBalance, nil
}

// PurchasePackage зачисляет пакет кредитов на баланс пользователя.
// Платеж за пакет обрабатывается внешней платежной системой; сюда
// приходит уже подтвержденная покупка.
func (s *creditsService) PurchasePackage(ctx context.Context, userID, packageID int64) (float64, error) {
	pkg, err := s.packageRepo.GetByID(ctx, packageID)
	if err != nil {
		return 0, err
	}
	if !pkg.IsActive {
		return 0, fmt.Errorf("%w: package %d is not for sale", entity.ErrValidation, packageID)
	}

	reason := fmt.Sprintf("credit package purchase: %s (%.2f %s)", pkg.Name, pkg.Price, pkg.Currency)
	balance, err := s.Apply(ctx, userID, pkg.TotalCredits(), reason)
	if err != nil {
		return 0, err
	}

	logrus.WithFields(logrus.Fields{
		"user_id":    userID,
		"package_id": packageID,
		"credits":    pkg.TotalCredits(),
	}).Info("Credit package purchased")

	return balance, nil
}

// CreatePackage создает пакет кредитов
func (s *creditsService) CreatePackage(ctx context.Context, pkg *entity.CreditPackage) (*entity.CreditPackage, error) {
	if err := validatePackage(pkg); err != nil {
		return nil, err
	}
	if err := s.packageRepo.Create(ctx, pkg); err != nil {
		return nil, fmt.Errorf("failed to create credit package: %w", err)
	}
	return pkg, nil
}

func (s *creditsService) GetTenantPackages(ctx context.Context, tenantID int64) ([]*entity.CreditPackage, error) {
	return s.packageRepo.GetByTenant(ctx, tenantID)
}

// UpdatePackage обновляет пакет кредитов
func (s *creditsService) UpdatePackage(ctx context.Context, pkg *entity.CreditPackage) error {
	if err := validatePackage(pkg); err != nil {
		return err
	}
	return s.packageRepo.Update(ctx, pkg)
}

func (s *creditsService) DeletePackage(ctx context.Context, id int64) error {
	return s.packageRepo.Delete(ctx, id)
}

func validatePackage(pkg *entity.CreditPackage) error {
	if pkg.Name == "" {
		return fmt.Errorf("%w: package name is required", entity.ErrValidation)
	}
	if pkg.Credits <= 0 {
		return fmt.Errorf("%w: package credits must be positive", entity.ErrValidation)
	}
	if pkg.BonusCredits < 0 {
		return fmt.Errorf("%w: bonus credits cannot be negative", entity.ErrValidation)
	}
	if pkg.Price <= 0 {
		return fmt.Errorf("%w: package price must be positive", entity.ErrValidation)
	}
	return nil
}

// Balance возвращает текущий баланс пользователя
func (s *creditsService) Balance(ctx context.Context, userID int64) (float64, error) {
	balance, err := s.creditsRepo.GetBalance(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to get balance for user %d: %w", userID, err)
	}
	return balance, nil
}

// History возвращает последние операции пользователя
func (s *creditsService) History(ctx context.Context, userID int64, limit int) ([]*entity.CreditTransaction, error) {
	if limit <= 0 {
		limit = 50
	}

	history, err := s.creditsRepo.GetHistory(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get credit history for user %d: %w", userID, err)
	}
	return history, nil
}
