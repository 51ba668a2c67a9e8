package worker

import (
	"context"
	"time"

	"github.com/sserbin1/silentbox-cloud-sub000/internal/service"

	"github.com/sirupsen/logrus"
)

// TelemetryWorker periodically refreshes device reachability so stale
// devices surface in the operator UI even when the IoT bridge goes
// quiet. Devices are polled with bounded concurrency.
type TelemetryWorker struct {
	deviceService  service.DeviceService
	interval       time.Duration
	maxConcurrency int
}

func NewTelemetryWorker(deviceService service.DeviceService, interval time.Duration, maxConcurrency int) *TelemetryWorker {
	if maxConcurrency <= 0 {
		maxConcurrency = 4
	}
	return &TelemetryWorker{
		deviceService:  deviceService,
		interval:       interval,
		maxConcurrency: maxConcurrency,
	}
}

func (w *TelemetryWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	logrus.Info("Telemetry worker started")

	for {
		select {
		case <-ctx.Done():
			logrus.Info("Telemetry worker stopped")
			return
		case <-ticker.C:
			w.poll(ctx)
		}
	}
}

type pollResult struct {
	online   bool
	relocked bool
}

// poll опрашивает устройства, логирует потерянные и запирает замки,
// оставшиеся открытыми без действующей брони
func (w *TelemetryWorker) poll(ctx context.Context) {
	devices, err := w.deviceService.ListDevices(ctx)
	if err != nil {
		logrus.Errorf("Failed to list devices for telemetry poll: %v", err)
		return
	}

	sem := make(chan struct{}, w.maxConcurrency)
	done := make(chan struct{})

	offline, relocked := 0, 0
	results := make(chan pollResult, len(devices))

	for _, device := range devices {
		select {
		case <-ctx.Done():
			logrus.Info("Telemetry poll interrupted by context cancellation")
			return
		case sem <- struct{}{}:
		}

		go func(id int64, online bool) {
			defer func() { <-sem }()

			if !online {
				results <- pollResult{}
				return
			}

			// Запрос Sync освежает last_seen через мост
			if err := w.deviceService.Sync(ctx, id); err != nil {
				logrus.Warnf("Telemetry sync failed for device %d: %v", id, err)
				results <- pollResult{}
				return
			}

			// Замок, открытый во время недоступности устройства,
			// доводится до закрытого состояния
			didLock, err := w.deviceService.ReconcileLock(ctx, id)
			if err != nil {
				logrus.Warnf("Lock reconciliation failed for device %d: %v", id, err)
			}
			results <- pollResult{online: true, relocked: didLock}
		}(device.ID, device.IsOnline)
	}

	go func() {
		for range devices {
			r := <-results
			if !r.online {
				offline++
			}
			if r.relocked {
				relocked++
			}
		}
		close(done)
	}()

	select {
	case <-ctx.Done():
		return
	case <-done:
	}

	if relocked > 0 {
		logrus.Infof("Telemetry poll: re-locked %d stale unlocked devices", relocked)
	}
	if offline > 0 {
		logrus.Warnf("Telemetry poll: %d of %d devices unreachable", offline, len(devices))
	} else {
		logrus.Debugf("Telemetry poll: all %d devices reachable", len(devices))
	}
}
