package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"parkinglot/internal/api"
	"parkinglot/internal/db"
	"parkinglot/internal/eventbus"
	"parkinglot/internal/events"
	"parkinglot/internal/idempotency"
	"parkinglot/internal/repository"
	"parkinglot/internal/service"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API and background jobs",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	if err := loadConfig(); err != nil {
		return err
	}
	logger.Info().Str("env", cfg.Environment).Msg("parkinglot starting")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	gdb, err := openDatabase()
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(gdb); err != nil {
			logger.Error().Err(err).Msg("close database")
		}
	}()
	store := repository.NewStore(gdb)

	bus := events.NewBus()
	var publisher events.Publisher = bus
	if cfg.NATSURL != "" {
		nb, err := eventbus.NewNATSBus(eventbus.DefaultNATSConfig(cfg.NATSURL), bus, logger)
		if err != nil {
			logger.Warn().Err(err).Msg("nats unavailable, events stay in process")
		} else {
			publisher = nb
			defer func() { _ = nb.Close() }()
		}
	}

	idem, err := idempotency.New(ctx, idempotency.Config{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
		TTL:      cfg.IdempotencyTTL,
	}, logger)
	if err != nil {
		logger.Warn().Err(err).Msg("redis unavailable, idempotency keys are ignored")
		idem, _ = idempotency.New(ctx, idempotency.Config{}, logger)
	}
	defer func() { _ = idem.Close() }()

	var gateway service.PaymentGateway
	if cfg.PaymentsEnabled() {
		gateway = service.NewStripeService(cfg.StripeSecretKey, cfg.StripeCurrency, cfg.StripeSuccessURL, cfg.StripeCancelURL)
	} else {
		logger.Warn().Msg("STRIPE_SECRET_KEY not set, card payments disabled")
	}

	startNotifications(ctx, bus)

	reservations := service.NewReservationService(store, publisher, logger)
	tickets := service.NewTicketService(store, publisher, gateway, service.SystemClock{}, logger)
	parkings := service.NewParkingService(store, logger)
	jobs := service.NewJobService(store.Jobs, logger)

	scheduler := cron.New()
	if _, err := scheduler.AddFunc(cfg.ReconcileSchedule, func() {
		if _, err := jobs.ReconcileOccupancy(ctx); err != nil {
			logger.Error().Err(err).Msg("occupancy reconciliation failed")
		}
	}); err != nil {
		return err
	}
	scheduler.Start()
	defer scheduler.Stop()

	handlers := api.Handlers{
		Reservations: api.NewReservationHandler(reservations, idem, logger),
		Parkings:     api.NewParkingHandler(parkings, logger),
		Tickets:      api.NewTicketHandler(tickets, logger),
	}
	if cfg.PaymentsEnabled() && cfg.StripeWebhookSecret != "" {
		handlers.Stripe = api.NewStripeWebhookHandler(cfg.StripeWebhookSecret, tickets, logger)
	}

	httpServer := &http.Server{
		Addr: cfg.Addr(),
		Handler: api.NewRouter(handlers, api.RouterConfig{
			JWTSecret:      []byte(cfg.JWTSecret),
			AllowedOrigins: cfg.CORSOrigins,
			Logger:         logger,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", httpServer.Addr).Msg("HTTP server listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		return err
	}

	logger.Info().Msg("shutting down gracefully...")
	timeoutCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(timeoutCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}
	logger.Info().Msg("parkinglot stopped")
	return nil
}

// startNotifications sends reservation confirmations for every committed
// reservation while ctx is alive. Channels without credentials are skipped.
func startNotifications(ctx context.Context, bus *events.Bus) {
	var (
		email service.EmailSender
		sms   service.SMSSender
	)
	if cfg.EmailEnabled() {
		email = service.NewSendGridMailer(cfg.SendGridAPIKey, cfg.SendGridFromEmail, cfg.SendGridFromName, logger)
	}
	if cfg.SMSEnabled() {
		sms = service.NewTwilioSender(cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioFromNumber, logger)
	}
	if email == nil && sms == nil {
		logger.Warn().Msg("no e-mail or SMS credentials, reservation confirmations disabled")
		return
	}

	sender := service.NewSenderService(email, sms, cfg.NotifyTimezone, logger)
	sub := bus.Subscribe(events.EventReservationCommitted)
	go func() {
		defer bus.Unsubscribe(events.EventReservationCommitted, sub)
		sender.Run(ctx, sub)
	}()
}
