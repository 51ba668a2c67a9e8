package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	repository "github.com/sserbin1/silentbox-cloud-sub000/internal/database/postgres"
	"github.com/sserbin1/silentbox-cloud-sub000/internal/entity"
	"github.com/sserbin1/silentbox-cloud-sub000/pkg/locker"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// hold guards the gap between the overlap check and the booking insert.
// Holds expire so an abandoned request cannot block a booth.
type hold struct {
	id        string
	boothID   int64
	start     time.Time
	end       time.Time
	expiresAt time.Time
}

type reservationService struct {
	bookingRepo repository.BookingRepository
	boothRepo   repository.BoothRepository
	locks       *locker.KeyedLocker
	holdTTL     time.Duration

	mu    sync.Mutex
	holds map[string]*hold

	now func() time.Time
}

// NewReservationService создает новый экземпляр ReservationService
func NewReservationService(
	bookingRepo repository.BookingRepository,
	boothRepo repository.BoothRepository,
	holdTTL time.Duration,
) ReservationService {
	return &reservationService{
		bookingRepo: bookingRepo,
		boothRepo:   boothRepo,
		locks:       locker.NewKeyedLocker(),
		holdTTL:     holdTTL,
		holds:       make(map[string]*hold),
		now:         time.Now,
	}
}

// Reserve admits [start, end) on the booth or fails with SlotConflict.
// The whole check-then-hold runs under the booth's mutex, so of two
// concurrent overlapping requests exactly one wins.
func (s *reservationService) Reserve(ctx context.Context, boothID int64, start, end time.Time) (string, error) {
	if !start.Before(end) {
		return "", fmt.Errorf("%w: start must precede end", entity.ErrValidation)
	}

	booth, err := s.boothRepo.GetByID(ctx, boothID)
	if err != nil {
		return "", fmt.Errorf("booth lookup failed: %w", err)
	}
	if !booth.Bookable() {
		return "", fmt.Errorf("%w: booth %d is %s", entity.ErrValidation, boothID, booth.Status)
	}

	s.locks.Lock(boothID)
	defer s.locks.Unlock(boothID)

	now := s.now()

	s.mu.Lock()
	s.purgeExpiredLocked(now)
	for _, h := range s.holds {
		if h.boothID == boothID && h.start.Before(end) && start.Before(h.end) {
			s.mu.Unlock()
			return "", entity.ErrSlotConflict
		}
	}
	s.mu.Unlock()

	overlapping, err := s.bookingRepo.CountOverlapping(ctx, boothID, start, end)
	if err != nil {
		return "", fmt.Errorf("overlap check failed: %w", err)
	}
	if overlapping > 0 {
		return "", entity.ErrSlotConflict
	}

	h := &hold{
		id:        uuid.NewString(),
		boothID:   boothID,
		start:     start,
		end:       end,
		expiresAt: now.Add(s.holdTTL),
	}

	s.mu.Lock()
	s.holds[h.id] = h
	s.mu.Unlock()

	return h.id, nil
}

// Confirm consumes the hold once the booking row is committed; from
// that point the row itself guards the slot
func (s *reservationService) Confirm(holdID string) {
	s.mu.Lock()
	delete(s.holds, holdID)
	s.mu.Unlock()
}

// Release drops an unconsumed hold. Releasing a consumed or expired
// hold is a no-op.
func (s *reservationService) Release(holdID string) {
	s.mu.Lock()
	delete(s.holds, holdID)
	s.mu.Unlock()
}

// SetBoothOccupancy flips booth status between available and occupied.
// Operator-set states (maintenance, offline) are never overwritten.
func (s *reservationService) SetBoothOccupancy(ctx context.Context, boothID int64, occupied bool) error {
	booth, err := s.boothRepo.GetByID(ctx, boothID)
	if err != nil {
		return fmt.Errorf("booth lookup failed: %w", err)
	}

	if booth.Status != entity.BoothStatusAvailable && booth.Status != entity.BoothStatusOccupied {
		logrus.WithFields(logrus.Fields{
			"booth_id": boothID,
			"status":   booth.Status,
		}).Warn("Skipping occupancy flip for operator-managed booth state")
		return nil
	}

	status := entity.BoothStatusAvailable
	if occupied {
		status = entity.BoothStatusOccupied
	}
	if booth.Status == status {
		return nil
	}

	if err := s.boothRepo.UpdateStatus(ctx, boothID, status); err != nil {
		return fmt.Errorf("failed to update booth status: %w", err)
	}
	return nil
}

// purgeExpiredLocked removes expired holds; caller holds s.mu
func (s *reservationService) purgeExpiredLocked(now time.Time) {
	for id, h := range s.holds {
		if h.expiresAt.Before(now) {
			delete(s.holds, id)
		}
	}
}
