package service

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	repository "github.com/sserbin1/silentbox-cloud-sub000/internal/database/postgres"
	"github.com/sserbin1/silentbox-cloud-sub000/internal/entity"

	"github.com/sirupsen/logrus"
)

type deviceService struct {
	deviceRepo  repository.DeviceRepository
	bookingRepo repository.BookingRepository
	tenantRepo  repository.TenantRepository
	heartbeats  HeartbeatCache
	bridge      LockCommander

	now func() time.Time
}

// NewDeviceService создает новый экземпляр DeviceService
func NewDeviceService(
	deviceRepo repository.DeviceRepository,
	bookingRepo repository.BookingRepository,
	tenantRepo repository.TenantRepository,
	heartbeats HeartbeatCache,
	bridge LockCommander,
) DeviceService {
	return &deviceService{
		deviceRepo:  deviceRepo,
		bookingRepo: bookingRepo,
		tenantRepo:  tenantRepo,
		heartbeats:  heartbeats,
		bridge:      bridge,
		now:         time.Now,
	}
}

// IssueAccess выдает числовой код доступа для бронирования. Повторный
// вызов для той же брони возвращает прежний код, пока он действителен.
func (s *deviceService) IssueAccess(ctx context.Context, booking *entity.Booking) (string, error) {
	now := s.now()

	if booking.Status != entity.BookingStatusConfirmed && booking.Status != entity.BookingStatusActive {
		return "", fmt.Errorf("%w: cannot issue access for %s booking %d",
			entity.ErrValidation, booking.Status, booking.ID)
	}

	// Идемпотентность: действующий код возвращается как есть
	if booking.AccessCode != nil && booking.AccessCodeExpiresAt != nil && booking.AccessCodeExpiresAt.After(now) {
		return *booking.AccessCode, nil
	}

	tenant, err := s.tenantRepo.GetByID(ctx, booking.TenantID)
	if err != nil {
		return "", fmt.Errorf("tenant lookup failed: %w", err)
	}

	code, err := generateAccessCode(tenant.AccessCodeLength)
	if err != nil {
		return "", fmt.Errorf("failed to generate access code: %w", err)
	}

	expiresAt := booking.EndTime
	if err := s.bookingRepo.SetAccessCode(ctx, booking.ID, code, expiresAt); err != nil {
		return "", fmt.Errorf("failed to store access code: %w", err)
	}

	booking.AccessCode = &code
	booking.AccessCodeExpiresAt = &expiresAt

	logrus.WithFields(logrus.Fields{
		"booking_id": booking.ID,
		"booth_id":   booking.BoothID,
		"expires_at": expiresAt,
	}).Info("Access code issued")

	return code, nil
}

// RevokeAccess снимает код доступа. Замок запирается по возможности;
// недоступное устройство не блокирует переход бронирования.
func (s *deviceService) RevokeAccess(ctx context.Context, booking *entity.Booking) error {
	if err := s.bookingRepo.ClearAccessCode(ctx, booking.ID); err != nil {
		return fmt.Errorf("failed to clear access code: %w", err)
	}
	booking.AccessCode = nil
	booking.AccessCodeExpiresAt = nil

	device, err := s.deviceRepo.GetByBoothID(ctx, booking.BoothID)
	if err != nil {
		logrus.Warnf("No device found for booth %d during access revoke: %v", booking.BoothID, err)
		return nil
	}

	online, err := s.isOnline(ctx, device)
	if err != nil || !online {
		logrus.Warnf("Device %d unreachable during access revoke, operator escalation required", device.ID)
		return nil
	}

	if err := s.bridge.Lock(ctx, device.ID); err != nil {
		logrus.Warnf("Failed to lock device %d during access revoke: %v", device.ID, err)
		return nil
	}

	if err := s.deviceRepo.UpdateStatus(ctx, device.ID, entity.LockStatusLocked); err != nil {
		return fmt.Errorf("failed to record lock state: %w", err)
	}
	return nil
}

// Lock запирает замок устройства
func (s *deviceService) Lock(ctx context.Context, deviceID int64) error {
	device, err := s.deviceRepo.GetByID(ctx, deviceID)
	if err != nil {
		return err
	}

	if err := s.requireOnline(ctx, device); err != nil {
		return err
	}

	if err := s.bridge.Lock(ctx, deviceID); err != nil {
		return err
	}

	return s.deviceRepo.UpdateStatus(ctx, deviceID, entity.LockStatusLocked)
}

// Unlock отпирает замок, только если существует бронирование,
// покрывающее текущий момент. Первый Unlock подтвержденной брони
// считается сигналом check-in; его ID возвращается вызывающему.
func (s *deviceService) Unlock(ctx context.Context, deviceID int64) (int64, error) {
	device, err := s.deviceRepo.GetByID(ctx, deviceID)
	if err != nil {
		return 0, err
	}

	if err := s.requireOnline(ctx, device); err != nil {
		return 0, err
	}

	booking, err := s.bookingRepo.GetAccessEligibleForBooth(ctx, device.BoothID, s.now())
	if err != nil {
		if err == entity.ErrBookingNotFound {
			return 0, fmt.Errorf("%w: no booking covers booth %d now", entity.ErrNotAuthorized, device.BoothID)
		}
		return 0, fmt.Errorf("booking lookup failed: %w", err)
	}

	if err := s.bridge.Unlock(ctx, deviceID); err != nil {
		return 0, err
	}

	if err := s.deviceRepo.UpdateStatus(ctx, deviceID, entity.LockStatusUnlocked); err != nil {
		return 0, fmt.Errorf("failed to record unlock state: %w", err)
	}

	if booking.Status == entity.BookingStatusConfirmed {
		return booking.ID, nil
	}
	return 0, nil
}

// ReconcileLock доводит замок до закрытого состояния, если устройство
// осталось открытым после недоступности, а бронирования, покрывающего
// текущий момент, уже нет. Команда не повторяется при неудаче; замок
// доберется следующим обходом.
func (s *deviceService) ReconcileLock(ctx context.Context, deviceID int64) (bool, error) {
	device, err := s.deviceRepo.GetByID(ctx, deviceID)
	if err != nil {
		return false, err
	}
	if device.Status != entity.LockStatusUnlocked {
		return false, nil
	}

	online, err := s.isOnline(ctx, device)
	if err != nil || !online {
		return false, nil
	}

	// Открытый замок при действующей броне - штатное состояние
	if _, err := s.bookingRepo.GetAccessEligibleForBooth(ctx, device.BoothID, s.now()); err == nil {
		return false, nil
	} else if err != entity.ErrBookingNotFound {
		return false, fmt.Errorf("booking lookup failed: %w", err)
	}

	if err := s.bridge.Lock(ctx, deviceID); err != nil {
		logrus.Warnf("Failed to re-lock device %d: %v", deviceID, err)
		return false, nil
	}

	if err := s.deviceRepo.UpdateStatus(ctx, deviceID, entity.LockStatusLocked); err != nil {
		return false, fmt.Errorf("failed to record lock state: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"device_id": deviceID,
		"booth_id":  device.BoothID,
	}).Info("Stale unlocked device re-locked")

	return true, nil
}

// Sync запрашивает у устройства актуализацию состояния
func (s *deviceService) Sync(ctx context.Context, deviceID int64) error {
	device, err := s.deviceRepo.GetByID(ctx, deviceID)
	if err != nil {
		return err
	}

	if err := s.requireOnline(ctx, device); err != nil {
		return err
	}

	return s.bridge.Sync(ctx, deviceID)
}

// IngestTelemetry применяет периодический пакет телеметрии от IoT-моста
func (s *deviceService) IngestTelemetry(ctx context.Context, update *entity.TelemetryUpdate) error {
	if update.LockStatus != "" &&
		update.LockStatus != entity.LockStatusLocked &&
		update.LockStatus != entity.LockStatusUnlocked {
		return fmt.Errorf("%w: unknown lock status %q", entity.ErrValidation, update.LockStatus)
	}
	if update.LockStatus == "" {
		update.LockStatus = entity.LockStatusLocked
	}
	if update.LastSeen.IsZero() {
		update.LastSeen = s.now()
	}

	if err := s.deviceRepo.ApplyTelemetry(ctx, update); err != nil {
		return err
	}

	if err := s.heartbeats.Touch(ctx, update.DeviceID, update.LastSeen); err != nil {
		// Кэш не является источником истины; строка в БД уже обновлена
		logrus.Warnf("Failed to cache heartbeat for device %d: %v", update.DeviceID, err)
	}

	return nil
}

// RegisterDevice регистрирует устройство за кабиной
func (s *deviceService) RegisterDevice(ctx context.Context, device *entity.Device) (*entity.Device, error) {
	if device.BoothID == 0 {
		return nil, fmt.Errorf("%w: booth id is required", entity.ErrValidation)
	}
	if device.BatteryLevel < 0 || device.BatteryLevel > 100 {
		return nil, fmt.Errorf("%w: battery level must be within [0, 100]", entity.ErrValidation)
	}

	if existing, err := s.deviceRepo.GetByBoothID(ctx, device.BoothID); err == nil {
		return nil, fmt.Errorf("%w: booth %d already has device %d",
			entity.ErrValidation, device.BoothID, existing.ID)
	}

	device.Status = entity.LockStatusLocked
	device.LastSeen = s.now()

	if err := s.deviceRepo.Create(ctx, device); err != nil {
		return nil, fmt.Errorf("failed to register device: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"device_id": device.ID,
		"booth_id":  device.BoothID,
	}).Info("Device registered")

	return device, nil
}

func (s *deviceService) GetDevice(ctx context.Context, deviceID int64) (*entity.Device, error) {
	device, err := s.deviceRepo.GetByID(ctx, deviceID)
	if err != nil {
		return nil, err
	}

	online, err := s.isOnline(ctx, device)
	if err != nil {
		logrus.Warnf("Heartbeat cache lookup failed for device %d: %v", deviceID, err)
		online = device.Online(s.now())
	}
	device.IsOnline = online
	return device, nil
}

func (s *deviceService) ListDevices(ctx context.Context) ([]*entity.Device, error) {
	devices, err := s.deviceRepo.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	now := s.now()
	for _, device := range devices {
		online, err := s.isOnline(ctx, device)
		if err != nil {
			online = device.Online(now)
		}
		device.IsOnline = online
	}
	return devices, nil
}

// isOnline answers from the heartbeat cache first and falls back to the
// durable last_seen column
func (s *deviceService) isOnline(ctx context.Context, device *entity.Device) (bool, error) {
	seen, ok, err := s.heartbeats.LastSeen(ctx, device.ID)
	if err != nil {
		return device.Online(s.now()), err
	}
	if ok {
		return s.now().Sub(seen) < entity.OnlineThreshold, nil
	}
	return device.Online(s.now()), nil
}

func (s *deviceService) requireOnline(ctx context.Context, device *entity.Device) error {
	online, err := s.isOnline(ctx, device)
	if err != nil {
		logrus.Warnf("Heartbeat cache lookup failed for device %d: %v", device.ID, err)
	}
	if !online {
		return fmt.Errorf("%w: device %d last seen %s", entity.ErrDeviceUnreachable, device.ID, device.LastSeen.Format(time.RFC3339))
	}
	return nil
}

// generateAccessCode returns a random numeric code of the given length
func generateAccessCode(length int) (string, error) {
	if length <= 0 {
		length = 6
	}

	digits := make([]byte, length)
	for i := range digits {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", err
		}
		digits[i] = byte('0' + n.Int64())
	}
	return string(digits), nil
}
