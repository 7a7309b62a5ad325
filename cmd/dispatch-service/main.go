package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"dispatch-service/internal/auth"
	"dispatch-service/internal/config"
	"dispatch-service/internal/db"
	httphandler "dispatch-service/internal/http"
	"dispatch-service/internal/logger"
	"dispatch-service/internal/notify"
	"dispatch-service/internal/repository"
	"dispatch-service/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Environment)

	database, err := db.New(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}

	var publisher notify.Publisher
	if cfg.AMQP.URL != "" {
		amqpPublisher, err := notify.NewAMQPPublisher(cfg.AMQP.URL, cfg.AMQP.Exchange)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to amqp broker")
		}
		defer amqpPublisher.Close()
		publisher = amqpPublisher
	} else {
		log.Warn().Msg("AMQP_URL not set, notifications go to the log only")
		publisher = notify.LogPublisher{Log: log}
	}

	userRepo := repository.NewUserRepository(database)
	requestRepo := repository.NewRequestRepository(database)
	fleetRepo := repository.NewFleetRepository(database)
	tripRepo := repository.NewTripRepository(database)
	ledgerRepo := repository.NewLedgerRepository(database)
	alertRepo := repository.NewAlertRepository(database)

	issuer := auth.NewIssuer(cfg.Auth.AccessSecret, cfg.Auth.AccessTTL, cfg.Auth.BcryptCost)
	parser := auth.NewParser(cfg.Auth.AccessSecret)

	authService := service.NewAuthService(userRepo, issuer)
	dispatchService := service.NewDispatchService(requestRepo, fleetRepo, userRepo, publisher, cfg.Dispatch.MaxActivePerDriver, log)
	tripService := service.NewTripService(tripRepo, requestRepo, fleetRepo, dispatchService, publisher, log)
	vehicleService := service.NewVehicleService(fleetRepo, ledgerRepo, dispatchService, log)
	alertService := service.NewAlertService(alertRepo, publisher, cfg.Alerts.LookaheadDays, log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go alertService.Run(ctx, cfg.Alerts.SweepInterval)

	handler := httphandler.NewHandler(authService, dispatchService, tripService, vehicleService, log)
	router := httphandler.NewRouter(handler, parser, cfg.HTTP.RateLimitPerMin, cfg.Environment, func(ctx context.Context) error {
		return db.HealthCheck(ctx, database)
	})

	addr := fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port)
	log.Info().Str("addr", addr).Msg("starting dispatch service")

	if err := router.Run(addr); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}
