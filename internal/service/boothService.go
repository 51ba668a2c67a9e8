package service

import (
	"context"
	"fmt"

	repository "github.com/sserbin1/silentbox-cloud-sub000/internal/database/postgres"
	"github.com/sserbin1/silentbox-cloud-sub000/internal/entity"

	"github.com/sirupsen/logrus"
)

type boothService struct {
	boothRepo  repository.BoothRepository
	tenantRepo repository.TenantRepository
}

// NewBoothService создает новый экземпляр BoothService
func NewBoothService(boothRepo repository.BoothRepository, tenantRepo repository.TenantRepository) BoothService {
	return &boothService{
		boothRepo:  boothRepo,
		tenantRepo: tenantRepo,
	}
}

// CreateBooth создает новую кабину
func (s *boothService) CreateBooth(ctx context.Context, booth *entity.Booth) (*entity.Booth, error) {
	if booth.Name == "" {
		return nil, fmt.Errorf("%w: booth name is required", entity.ErrValidation)
	}
	if booth.HourlyRate <= 0 {
		return nil, fmt.Errorf("%w: hourly rate must be positive", entity.ErrValidation)
	}
	if booth.Currency == "" {
		return nil, fmt.Errorf("%w: currency is required", entity.ErrValidation)
	}

	tenant, err := s.tenantRepo.GetByID(ctx, booth.TenantID)
	if err != nil {
		return nil, fmt.Errorf("tenant lookup failed: %w", err)
	}
	if booth.Currency != tenant.Currency {
		return nil, fmt.Errorf("%w: booth currency %s differs from tenant currency %s",
			entity.ErrValidation, booth.Currency, tenant.Currency)
	}

	if booth.Capacity <= 0 {
		booth.Capacity = 1
	}
	if booth.Status == "" {
		booth.Status = entity.BoothStatusAvailable
	}

	if err := s.boothRepo.Create(ctx, booth); err != nil {
		return nil, fmt.Errorf("failed to create booth: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"booth_id":  booth.ID,
		"tenant_id": booth.TenantID,
	}).Info("Booth created")

	return booth, nil
}

func (s *boothService) GetBooth(ctx context.Context, id int64) (*entity.Booth, error) {
	return s.boothRepo.GetByID(ctx, id)
}

func (s *boothService) GetTenantBooths(ctx context.Context, tenantID int64) ([]*entity.Booth, error) {
	if _, err := s.tenantRepo.GetByID(ctx, tenantID); err != nil {
		return nil, err
	}
	return s.boothRepo.GetByTenant(ctx, tenantID)
}

// UpdateBoothStatus переводит кабину в операторское состояние.
// Состояние occupied выставляется только системой бронирования.
func (s *boothService) UpdateBoothStatus(ctx context.Context, id int64, status entity.BoothStatus) error {
	switch status {
	case entity.BoothStatusAvailable, entity.BoothStatusMaintenance, entity.BoothStatusOffline:
	default:
		return fmt.Errorf("%w: status %q cannot be set by an operator", entity.ErrValidation, status)
	}

	if _, err := s.boothRepo.GetByID(ctx, id); err != nil {
		return err
	}

	return s.boothRepo.UpdateStatus(ctx, id, status)
}
