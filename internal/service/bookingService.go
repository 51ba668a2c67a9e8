package service

import (
	"context"
	"fmt"
	"time"

	repository "github.com/sserbin1/silentbox-cloud-sub000/internal/database/postgres"
	"github.com/sserbin1/silentbox-cloud-sub000/internal/entity"

	"github.com/sirupsen/logrus"
)

const (
	dateLayout = "2006-01-02"
	timeLayout = "15:04"
)

// allowedTransitions is the booking lifecycle table. Anything not
// listed here is rejected with InvalidTransition.
var allowedTransitions = map[entity.BookingStatus][]entity.BookingStatus{
	entity.BookingStatusPending:   {entity.BookingStatusConfirmed, entity.BookingStatusCancelled},
	entity.BookingStatusConfirmed: {entity.BookingStatusActive, entity.BookingStatusNoShow, entity.BookingStatusCancelled},
	entity.BookingStatusActive:    {entity.BookingStatusCompleted, entity.BookingStatusCancelled},
}

func transitionAllowed(from, to entity.BookingStatus) bool {
	for _, next := range allowedTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

type bookingService struct {
	bookingRepo repository.BookingRepository
	tenantRepo  repository.TenantRepository
	reservation ReservationService
	pricing     PricingService
	credits     CreditsService
	access      AccessController

	now func() time.Time
}

// NewBookingService создает новый экземпляр BookingService
func NewBookingService(
	bookingRepo repository.BookingRepository,
	tenantRepo repository.TenantRepository,
	reservation ReservationService,
	pricing PricingService,
	credits CreditsService,
	access AccessController,
) BookingService {
	return &bookingService{
		bookingRepo: bookingRepo,
		tenantRepo:  tenantRepo,
		reservation: reservation,
		pricing:     pricing,
		credits:     credits,
		access:      access,
		now:         time.Now,
	}
}

// CreateBooking создает новое бронирование: слот, цена, списание
// кредитов, запись. При любой ошибке после резервирования слот
// освобождается, частичных эффектов не остается.
func (s *bookingService) CreateBooking(ctx context.Context, req *CreateBookingRequest) (*entity.Booking, error) {
	start, end, err := parseSlotTimes(req.Date, req.Start, req.End)
	if err != nil {
		return nil, err
	}
	if !start.After(s.now()) {
		return nil, fmt.Errorf("%w: booking start must be in the future", entity.ErrValidation)
	}
	if req.UserID == nil && req.GuestContact == "" {
		return nil, fmt.Errorf("%w: guest bookings require contact details", entity.ErrValidation)
	}

	holdID, err := s.reservation.Reserve(ctx, req.BoothID, start, end)
	if err != nil {
		return nil, err
	}

	quote, err := s.pricing.Quote(ctx, &QuoteRequest{
		TenantID:      req.TenantID,
		BoothID:       req.BoothID,
		Start:         start,
		DurationHours: end.Sub(start).Hours(),
	})
	if err != nil {
		s.reservation.Release(holdID)
		return nil, err
	}

	// Оплата кредитами при создании; гостевые брони подтверждает
	// оператор после оплаты вне системы
	if req.UserID != nil {
		reason := fmt.Sprintf("booking debit: booth %d, %s %s-%s", req.BoothID, req.Date, req.Start, req.End)
		if _, err := s.credits.Apply(ctx, *req.UserID, -quote.Amount, reason); err != nil {
			s.reservation.Release(holdID)
			return nil, err
		}
	}

	booking := &entity.Booking{
		TenantID:           req.TenantID,
		BoothID:            req.BoothID,
		UserID:             req.UserID,
		GuestContact:       req.GuestContact,
		Date:               req.Date,
		StartTime:          start,
		EndTime:            end,
		Status:             entity.BookingStatusPending,
		TotalPrice:         quote.Amount,
		Currency:           quote.Currency,
		AppliedDiscountPct: quote.AppliedDiscountPct,
		AppliedMultiplier:  quote.AppliedMultiplier,
	}

	if err := s.bookingRepo.Create(ctx, booking); err != nil {
		s.reservation.Release(holdID)
		if req.UserID != nil {
			// Возврат уже списанных кредитов
			if _, refundErr := s.credits.Apply(ctx, *req.UserID, quote.Amount, "booking creation failed, refund"); refundErr != nil {
				logrus.Errorf("Failed to refund user %d after booking insert failure: %v", *req.UserID, refundErr)
			}
		}
		return nil, fmt.Errorf("failed to create booking: %w", err)
	}

	s.reservation.Confirm(holdID)

	// Успешное списание кредитов и есть подтверждение оплаты
	if req.UserID != nil {
		if err := s.transition(ctx, booking, entity.BookingStatusConfirmed); err != nil {
			return nil, err
		}
	}

	logrus.WithFields(logrus.Fields{
		"booking_id": booking.ID,
		"booth_id":   booking.BoothID,
		"status":     booking.Status,
		"price":      booking.TotalPrice,
	}).Info("Booking created")

	return booking, nil
}

// ConfirmBooking подтверждает ожидающее бронирование (гостевой поток)
func (s *bookingService) ConfirmBooking(ctx context.Context, bookingID int64) error {
	booking, err := s.bookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		return err
	}
	return s.transition(ctx, booking, entity.BookingStatusConfirmed)
}

// CheckIn переводит подтвержденное бронирование в активное. Сигналом
// служит явный запрос или первый успешный Unlock замка.
func (s *bookingService) CheckIn(ctx context.Context, bookingID int64) error {
	booking, err := s.bookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		return err
	}

	tenant, err := s.tenantRepo.GetByID(ctx, booking.TenantID)
	if err != nil {
		return fmt.Errorf("tenant lookup failed: %w", err)
	}

	now := s.now()
	if !booking.InAccessWindow(now, tenant.GraceWindow()) {
		return fmt.Errorf("%w: check-in outside the access window", entity.ErrValidation)
	}

	if err := s.transition(ctx, booking, entity.BookingStatusActive); err != nil {
		return err
	}

	if err := s.bookingRepo.SetCheckedIn(ctx, booking.ID, now); err != nil {
		return fmt.Errorf("failed to record check-in: %w", err)
	}

	// Код доступа выдается при открытии окна; повторная выдача
	// идемпотентна и покрывает ручной check-in до обхода
	if _, err := s.access.IssueAccess(ctx, booking); err != nil {
		logrus.Errorf("Failed to issue access for booking %d at check-in: %v", booking.ID, err)
	}

	if err := s.reservation.SetBoothOccupancy(ctx, booking.BoothID, true); err != nil {
		logrus.Errorf("Failed to mark booth %d occupied: %v", booking.BoothID, err)
	}

	return nil
}

// Checkout завершает активное бронирование
func (s *bookingService) Checkout(ctx context.Context, bookingID int64) (*entity.Booking, error) {
	booking, err := s.bookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	if err := s.transition(ctx, booking, entity.BookingStatusCompleted); err != nil {
		return nil, err
	}

	s.finishAccess(ctx, booking)
	return booking, nil
}

// CancelBooking отменяет бронирование. Возврат: 100% при добровольной
// отмене pending/confirmed (штраф применяется только к неявке),
// пропорционально неиспользованному времени для активной сессии.
func (s *bookingService) CancelBooking(ctx context.Context, bookingID int64, reason string) (*CancellationResult, error) {
	booking, err := s.bookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	wasActive := booking.Status == entity.BookingStatusActive
	prior := booking.Status

	refund := s.refundAmount(ctx, booking)

	if err := s.transition(ctx, booking, entity.BookingStatusCancelled); err != nil {
		return nil, err
	}

	if refund > 0 && booking.UserID != nil {
		refundReason := fmt.Sprintf("booking %d cancelled: %s", booking.ID, reason)
		if _, err := s.credits.Apply(ctx, *booking.UserID, refund, refundReason); err != nil {
			// Отмена без возврата - частичный эффект; статус откатывается
			if revertErr := s.bookingRepo.UpdateStatus(ctx, booking.ID, prior); revertErr != nil {
				logrus.Errorf("Failed to revert booking %d to %s after refund failure: %v", booking.ID, prior, revertErr)
				return nil, fmt.Errorf("cancellation recorded but refund failed: %w", err)
			}
			booking.Status = prior
			return nil, fmt.Errorf("cancellation aborted, refund failed: %w", err)
		}
	}

	if wasActive {
		s.finishAccess(ctx, booking)
	} else if booking.AccessCode != nil {
		if err := s.access.RevokeAccess(ctx, booking); err != nil {
			logrus.Errorf("Failed to revoke access for cancelled booking %d: %v", booking.ID, err)
		}
	}

	logrus.WithFields(logrus.Fields{
		"booking_id": booking.ID,
		"refund":     refund,
		"reason":     reason,
	}).Info("Booking cancelled")

	return &CancellationResult{
		Booking:      booking,
		RefundAmount: refund,
		Currency:     booking.Currency,
	}, nil
}

// refundAmount computes the refund for a voluntary cancellation
func (s *bookingService) refundAmount(ctx context.Context, booking *entity.Booking) float64 {
	if booking.UserID == nil || booking.TotalPrice <= 0 {
		return 0
	}

	switch booking.Status {
	case entity.BookingStatusPending, entity.BookingStatusConfirmed:
		return booking.TotalPrice
	case entity.BookingStatusActive:
		remaining := booking.EndTime.Sub(s.now())
		if remaining <= 0 {
			return 0
		}
		total := booking.EndTime.Sub(booking.StartTime)
		fraction := remaining.Seconds() / total.Seconds()

		digits := 2
		if tenant, err := s.tenantRepo.GetByID(ctx, booking.TenantID); err == nil {
			digits = tenant.CurrencyDigits
		}
		return roundTo(booking.TotalPrice*fraction, digits)
	}
	return 0
}

func (s *bookingService) GetBooking(ctx context.Context, id int64) (*entity.Booking, error) {
	return s.bookingRepo.GetByID(ctx, id)
}

func (s *bookingService) GetUserBookings(ctx context.Context, userID int64) ([]*entity.Booking, error) {
	bookings, err := s.bookingRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user bookings: %w", err)
	}
	return bookings, nil
}

func (s *bookingService) GetBoothBookings(ctx context.Context, boothID int64) ([]*entity.Booking, error) {
	bookings, err := s.bookingRepo.GetByBoothID(ctx, boothID)
	if err != nil {
		return nil, fmt.Errorf("failed to get booth bookings: %w", err)
	}
	return bookings, nil
}

// IssueDueAccessCodes выдает коды доступа подтвержденным бронированиям,
// у которых открылось окно доступа
func (s *bookingService) IssueDueAccessCodes(ctx context.Context) (int, error) {
	due, err := s.bookingRepo.GetAccessDue(ctx, s.now(), sweepBatchSize)
	if err != nil {
		return 0, fmt.Errorf("failed to get access-due bookings: %w", err)
	}

	issued := 0
	for _, booking := range due {
		if _, err := s.access.IssueAccess(ctx, booking); err != nil {
			logrus.Errorf("Failed to issue access code for booking %d: %v", booking.ID, err)
			continue
		}
		issued++
	}
	return issued, nil
}

// MarkNoShows переводит в no_show подтвержденные бронирования без
// check-in после истечения льготного периода
func (s *bookingService) MarkNoShows(ctx context.Context) (int, error) {
	due, err := s.bookingRepo.GetNoShowDue(ctx, s.now(), sweepBatchSize)
	if err != nil {
		return 0, fmt.Errorf("failed to get no-show candidates: %w", err)
	}

	marked := 0
	for _, booking := range due {
		if err := s.transition(ctx, booking, entity.BookingStatusNoShow); err != nil {
			logrus.Errorf("Failed to mark booking %d as no-show: %v", booking.ID, err)
			continue
		}

		if booking.AccessCode != nil {
			if err := s.access.RevokeAccess(ctx, booking); err != nil {
				logrus.Errorf("Failed to revoke access for no-show booking %d: %v", booking.ID, err)
			}
		}

		// Возврат за вычетом штрафа за неявку
		if booking.UserID != nil && booking.TotalPrice > 0 {
			tenant, err := s.tenantRepo.GetByID(ctx, booking.TenantID)
			if err != nil {
				logrus.Errorf("Tenant lookup failed for no-show booking %d: %v", booking.ID, err)
				continue
			}
			refund := roundTo(booking.TotalPrice*(1-tenant.NoShowPenaltyPercent/100), tenant.CurrencyDigits)
			if refund > 0 {
				reason := fmt.Sprintf("no-show refund for booking %d", booking.ID)
				if _, err := s.credits.Apply(ctx, *booking.UserID, refund, reason); err != nil {
					logrus.Errorf("Failed to refund no-show booking %d: %v", booking.ID, err)
				}
			}
		}

		marked++
	}
	return marked, nil
}

// CompleteElapsed завершает активные бронирования, чье время вышло
func (s *bookingService) CompleteElapsed(ctx context.Context) (int, error) {
	elapsed, err := s.bookingRepo.GetElapsedActive(ctx, s.now(), sweepBatchSize)
	if err != nil {
		return 0, fmt.Errorf("failed to get elapsed bookings: %w", err)
	}

	completed := 0
	for _, booking := range elapsed {
		if err := s.transition(ctx, booking, entity.BookingStatusCompleted); err != nil {
			logrus.Errorf("Failed to complete booking %d: %v", booking.ID, err)
			continue
		}
		s.finishAccess(ctx, booking)
		completed++
	}
	return completed, nil
}

const sweepBatchSize = 100

// transition applies a lifecycle change or rejects it. An invalid
// transition indicates a sequencing bug and is logged as an anomaly.
func (s *bookingService) transition(ctx context.Context, booking *entity.Booking, to entity.BookingStatus) error {
	if !transitionAllowed(booking.Status, to) {
		logrus.WithFields(logrus.Fields{
			"booking_id": booking.ID,
			"from":       booking.Status,
			"to":         to,
		}).Error("Rejected invalid booking transition")
		return fmt.Errorf("%w: %s -> %s for booking %d", entity.ErrInvalidTransition, booking.Status, to, booking.ID)
	}

	if err := s.bookingRepo.UpdateStatus(ctx, booking.ID, to); err != nil {
		return fmt.Errorf("failed to persist transition %s -> %s: %w", booking.Status, to, err)
	}

	booking.Status = to
	return nil
}

// finishAccess revokes access and frees the booth after a terminal
// transition of an active booking
func (s *bookingService) finishAccess(ctx context.Context, booking *entity.Booking) {
	if err := s.access.RevokeAccess(ctx, booking); err != nil {
		logrus.Errorf("Failed to revoke access for booking %d: %v", booking.ID, err)
	}
	if err := s.reservation.SetBoothOccupancy(ctx, booking.BoothID, false); err != nil {
		logrus.Errorf("Failed to mark booth %d available: %v", booking.BoothID, err)
	}
}

// parseSlotTimes собирает границы слота из даты и времени запроса
func parseSlotTimes(date, startStr, endStr string) (time.Time, time.Time, error) {
	day, err := time.ParseInLocation(dateLayout, date, time.Local)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: invalid date %q", entity.ErrValidation, date)
	}

	startOfDay, err := time.Parse(timeLayout, startStr)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: invalid start time %q", entity.ErrValidation, startStr)
	}
	endOfDay, err := time.Parse(timeLayout, endStr)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: invalid end time %q", entity.ErrValidation, endStr)
	}

	start := day.Add(time.Duration(startOfDay.Hour())*time.Hour + time.Duration(startOfDay.Minute())*time.Minute)
	end := day.Add(time.Duration(endOfDay.Hour())*time.Hour + time.Duration(endOfDay.Minute())*time.Minute)

	if !start.Before(end) {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: start must precede end", entity.ErrValidation)
	}
	return start, end, nil
}
