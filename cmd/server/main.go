package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"hail/internal/app"
	"hail/internal/config"
	"hail/internal/handler"
	internalRedis "hail/internal/redis"
	"hail/internal/repository/postgres"
	"hail/internal/service"
	"hail/pkg/logger"
)

func main() {
	// Load configuration.
	cfg := config.Load()

	log := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Initialize New Relic FIRST (before database so we can instrument DB).
	var nrApp *newrelic.Application
	var err error
	if cfg.NewRelic.Enabled && cfg.NewRelic.LicenseKey != "" {
		nrApp, err = newrelic.NewApplication(
			newrelic.ConfigAppName(cfg.NewRelic.AppName),
			newrelic.ConfigLicense(cfg.NewRelic.LicenseKey),
			newrelic.ConfigDistributedTracerEnabled(true),
			newrelic.ConfigAppLogForwardingEnabled(true),
		)
		if err != nil {
			log.WithError(err).Warn("failed to initialize New Relic")
		} else {
			log.WithField("app", cfg.NewRelic.AppName).Info("New Relic enabled")
		}
	}

	// Initialize database with New Relic instrumentation.
	db, err := app.NewDatabase(ctx, cfg.Database, nrApp)
	if err != nil {
		log.WithError(err).Fatal("failed to connect to database")
	}
	defer db.Close()
	log.Info("connected to PostgreSQL")

	// Initialize Redis with New Relic instrumentation.
	redisClient, err := app.NewRedisClient(ctx, cfg.Redis, nrApp)
	if err != nil {
		log.WithError(err).Fatal("failed to connect to redis")
	}
	defer redisClient.Close()
	log.Info("connected to Redis")

	// Wire dependencies.
	server, sweeper, cleanup := wireServer(db, redisClient, nrApp, cfg, log)
	defer cleanup()

	// Background offer sweeper: expires stale offers and re-offers rides
	// still searching.
	sweeperCtx, stopSweeper := context.WithCancel(context.Background())
	defer stopSweeper()
	go sweeper.RunOfferSweeper(sweeperCtx, cfg.Assignment.SweepInterval)

	// Start server in goroutine.
	go func() {
		log.WithField("port", cfg.Server.Port).Info("starting server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("server error")
		}
	}()

	// Graceful shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down server")
	stopSweeper()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Fatal("server forced to shutdown")
	}

	log.Info("server exited")
}

// wireServer wires all dependencies and returns the HTTP server, the
// assignment service (for the sweeper goroutine) and a cleanup func.
func wireServer(db *sql.DB, redisClient *redis.Client, nrApp *newrelic.Application, cfg *config.Config, log *logrus.Logger) (*http.Server, *service.AssignmentService, func()) {
	// Initialize Redis stores.
	locationStore := internalRedis.NewLocationStore(redisClient)
	lockStore := internalRedis.NewLockStore(redisClient)
	cacheStore := internalRedis.NewCacheStore(redisClient)

	// Initialize repositories.
	passengerRepo := postgres.NewPassengerRepository(db)
	driverRepo := postgres.NewDriverRepository(db)
	rideRepo := postgres.NewRideRepository(db)
	couponRepo := postgres.NewCouponRepository(db)
	pricingRepo := postgres.NewPricingConfigRepository(db)
	negotiationRepo := postgres.NewNegotiationRepository(db)

	// Negotiation policy: deterministic band arbiter by default, Gemini
	// advisor when a key is configured (clamped, with fallback).
	cleanup := func() {}
	var policy service.NegotiationPolicy = service.NewBandPolicy(cfg.Negotiation.CounterTolerancePercent)
	if cfg.Negotiation.GeminiAPIKey != "" {
		gp, err := service.NewGeminiPolicy(context.Background(), cfg.Negotiation.GeminiAPIKey, policy, log)
		if err != nil {
			log.WithError(err).Warn("failed to initialize Gemini arbiter, using band policy")
		} else {
			policy = gp
			cleanup = gp.Close
			log.Info("Gemini negotiation arbiter enabled")
		}
	}

	// Initialize services.
	notificationService := service.NewNotificationService(log)
	fareService := service.NewFareService(pricingRepo, couponRepo, cacheStore, log)
	assignmentService := service.NewAssignmentService(
		rideRepo, driverRepo, couponRepo,
		locationStore, lockStore,
		policy, notificationService, log,
		cfg.Assignment.OfferTTL, cfg.Assignment.SearchRadiusKm,
	)
	negotiationService := service.NewNegotiationService(rideRepo, negotiationRepo, fareService, policy, cfg.Negotiation.MaxRounds, log)
	rideService := service.NewRideService(rideRepo, passengerRepo, fareService, assignmentService, log)
	lifecycleService := service.NewLifecycleService(rideRepo, driverRepo, passengerRepo, notificationService, log)
	driverService := service.NewDriverService(driverRepo, locationStore, log)
	passengerService := service.NewPassengerService(passengerRepo, log)
	couponService := service.NewCouponService(couponRepo, log)

	// Initialize handlers.
	rideHandler := handler.NewRideHandler(fareService, rideService, negotiationService, assignmentService, lifecycleService)
	driverHandler := handler.NewDriverHandler(driverService)
	passengerHandler := handler.NewPassengerHandler(passengerService)
	adminHandler := handler.NewAdminHandler(fareService, couponService)

	// Create router.
	router := app.NewRouter(app.RouterDeps{
		RideHandler:      rideHandler,
		DriverHandler:    driverHandler,
		PassengerHandler: passengerHandler,
		AdminHandler:     adminHandler,
		RedisClient:      redisClient,
		NewRelicApp:      nrApp,
	})

	// Create HTTP server.
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	return server, assignmentService, cleanup
}
