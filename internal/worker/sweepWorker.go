package worker

import (
	"context"
	"time"

	"github.com/sserbin1/silentbox-cloud-sub000/internal/service"

	"github.com/sirupsen/logrus"
)

// BookingSweepWorker drives time-based booking transitions: issuing
// access codes when the access window opens, marking no-shows past the
// grace period and completing elapsed active bookings.
type BookingSweepWorker struct {
	bookingService service.BookingService
	interval       time.Duration
}

func NewBookingSweepWorker(bookingService service.BookingService, interval time.Duration) *BookingSweepWorker {
	return &BookingSweepWorker{
		bookingService: bookingService,
		interval:       interval,
	}
}

func (w *BookingSweepWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	logrus.Info("Booking sweep worker started")

	for {
		select {
		case <-ctx.Done():
			logrus.Info("Booking sweep worker stopped")
			return
		case <-ticker.C:
			w.sweep(ctx)
		}
	}
}

// sweep выполняет один проход по всем срокам бронирований
func (w *BookingSweepWorker) sweep(ctx context.Context) {
	start := time.Now()

	issued, err := w.bookingService.IssueDueAccessCodes(ctx)
	if err != nil {
		logrus.Errorf("Failed to issue due access codes: %v", err)
	}

	select {
	case <-ctx.Done():
		logrus.Info("Sweep interrupted by context cancellation")
		return
	default:
	}

	noShows, err := w.bookingService.MarkNoShows(ctx)
	if err != nil {
		logrus.Errorf("Failed to mark no-shows: %v", err)
	}

	select {
	case <-ctx.Done():
		logrus.Info("Sweep interrupted by context cancellation")
		return
	default:
	}

	completed, err := w.bookingService.CompleteElapsed(ctx)
	if err != nil {
		logrus.Errorf("Failed to complete elapsed bookings: %v", err)
	}

	if issued+noShows+completed > 0 {
		logrus.WithFields(logrus.Fields{
			"codes_issued": issued,
			"no_shows":     noShows,
			"completed":    completed,
			"duration":     time.Since(start),
		}).Info("Booking sweep completed")
	} else {
		logrus.Debug("Booking sweep completed, nothing due")
	}
}
