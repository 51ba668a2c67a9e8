package appServer

import (
	"context"
	"crypto/tls"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sserbin1/silentbox-cloud-sub000/config"
	repository "github.com/sserbin1/silentbox-cloud-sub000/internal/database/postgres"
	redisRepo "github.com/sserbin1/silentbox-cloud-sub000/internal/database/redis"
	"github.com/sserbin1/silentbox-cloud-sub000/internal/service"
	"github.com/sserbin1/silentbox-cloud-sub000/internal/transport"
	"github.com/sserbin1/silentbox-cloud-sub000/internal/worker"

	"github.com/sserbin1/silentbox-cloud-sub000/pkg/lockbridge"
	"github.com/sserbin1/silentbox-cloud-sub000/pkg/postgres"
	"github.com/sserbin1/silentbox-cloud-sub000/pkg/redis"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type Server struct {
	httpServer *http.Server
}

func (s *Server) Run(cfg *config.Config, handler http.Handler) error {
	s.httpServer = &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           handler,
		MaxHeaderBytes:    1 << 20,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      cfg.Server.Timeout,
		IdleTimeout:       cfg.Server.Idle_timeout,
		ReadHeaderTimeout: 3 * time.Second,
		TLSConfig:         &tls.Config{MinVersion: tls.VersionTLS12},
		ErrorLog:          log.New(os.Stderr, "SERVER ERROR: ", log.LstdFlags),
	}
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func NewServer(cfg *config.Config) {

	logrus.SetFormatter(&logrus.JSONFormatter{})
	logrus.SetOutput(os.Stdout)
	logrus.SetLevel(logrus.InfoLevel)

	// Initialize database
	db, err := postgres.NewPostgresDB(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	// Run database migrations
	if err := postgres.RunMigrations(db); err != nil {
		logrus.Fatalf("Failed to run migrations: %v", err)
	}

	// Initialize repositories
	bookingRepo := repository.NewBookingRepository(db)
	boothRepo := repository.NewBoothRepository(db)
	tenantRepo := repository.NewTenantRepository(db)
	creditsRepo := repository.NewCreditsRepository(db)
	ruleRepo := repository.NewPricingRuleRepository(db)
	packageRepo := repository.NewCreditPackageRepository(db)
	deviceRepo := repository.NewDeviceRepository(db)

	// Heartbeat cache
	redisClient := redis.NewRedisClient(&cfg.Redis)
	defer redisClient.Close()

	heartbeats, err := redisRepo.NewHeartbeatRepository(redisClient)
	if err != nil {
		logrus.Fatalf("Failed to connect to Redis: %v", err)
	}

	// IoT lock bridge
	bridge := lockbridge.NewClient(cfg.Device.BridgeURL, cfg.Device.CommandTimeout)

	// Initialize services
	pricingService := service.NewPricingService(boothRepo, tenantRepo, ruleRepo)
	creditsService := service.NewCreditsService(creditsRepo, packageRepo)
	reservationService := service.NewReservationService(bookingRepo, boothRepo, cfg.Booking.HoldTTL)
	deviceService := service.NewDeviceService(deviceRepo, bookingRepo, tenantRepo, heartbeats, bridge)
	bookingService := service.NewBookingService(
		bookingRepo, tenantRepo, reservationService, pricingService, creditsService, deviceService)
	boothService := service.NewBoothService(boothRepo, tenantRepo)

	// Background workers
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sweepWorker := worker.NewBookingSweepWorker(bookingService, cfg.Worker.SweepInterval)
	go sweepWorker.Start(ctx)
	logrus.Info("Booking sweep worker started")

	telemetryWorker := worker.NewTelemetryWorker(deviceService, cfg.Worker.TelemetryInterval, cfg.Worker.MaxConcurrency)
	go telemetryWorker.Start(ctx)
	logrus.Info("Telemetry worker started")

	// Initialize handlers
	bookingHandler := transport.NewBookingHandler(bookingService)
	creditsHandler := transport.NewCreditsHandler(creditsService)
	deviceHandler := transport.NewDeviceHandler(deviceService, bookingService)
	pricingHandler := transport.NewPricingHandler(pricingService)
	boothHandler := transport.NewBoothHandler(boothService)

	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	srv := new(Server)
	go func() {
		handler := transport.InitRoutes(bookingHandler, creditsHandler, deviceHandler, pricingHandler, boothHandler)
		if err := srv.Run(cfg, handler); err != nil && err != http.ErrServerClosed {
			logrus.Fatalf("error occured while running http server: %s", err.Error())
		}
	}()

	logrus.Print("App Started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)
	<-quit

	logrus.Print("App Shutting Down")

	if err := srv.Shutdown(context.Background()); err != nil {
		logrus.Errorf("error occured on server shutting down: %s", err.Error())
	}
}
