package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/backpack-city/backpack-api/internal/auth"
	"github.com/backpack-city/backpack-api/internal/config"
	"github.com/backpack-city/backpack-api/internal/database"
	"github.com/backpack-city/backpack-api/internal/handlers"
	"github.com/backpack-city/backpack-api/internal/logging"
	"github.com/backpack-city/backpack-api/internal/metrics"
	"github.com/backpack-city/backpack-api/internal/notifier"
	"github.com/backpack-city/backpack-api/internal/referral"
	"github.com/backpack-city/backpack-api/internal/store"
	"github.com/backpack-city/backpack-api/internal/uploads"
	"github.com/backpack-city/backpack-api/internal/verification"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func main() {
	// Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	recent := logging.NewRecent(100)
	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat, recent)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer logger.Sync()

	if err := run(cfg, logger, recent); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger, recent *logging.Recent) error {
	ranges, err := referral.ParseRanges(cfg.EligiblePincodeRanges)
	if err != nil {
		return fmt.Errorf("ELIGIBLE_PINCODE_RANGES: %w", err)
	}
	eligibility := referral.NewEligibility(ranges...)

	// Connect to Database
	db, err := database.Connect(cfg.DatabasePath, logger)
	if err != nil {
		return err
	}
	records := store.New(db)

	tickets, err := uploads.NewManager(cfg.UploadDir, cfg.MaxUploadBytes)
	if err != nil {
		return err
	}

	var notify notifier.Notifier = notifier.Nop{}
	if cfg.DiscordBotToken != "" {
		session, err := notifier.NewDiscordSession(cfg.DiscordBotToken)
		if err != nil {
			logger.Warn("discord notifier not initialized", zap.Error(err))
		} else {
			notify = notifier.NewDiscordNotifier(session, cfg.DiscordNotificationsChannelID)
		}
	}

	if cfg.AdminPassword == "" {
		logger.Warn("ADMIN_PASSWORD is not set; admin login is disabled")
	}

	m := metrics.New()
	workflow := verification.NewWorkflow(records, notify, m, logger, verification.Options{
		Strict:              cfg.StrictVerification,
		WhatsAppCountryCode: cfg.WhatsAppCountryCode,
	})

	// Initialize Handlers
	h := handlers.Handlers{
		Auth:     auth.NewAuthHandler(cfg, logger),
		Locals:   handlers.NewLocalHandler(records, eligibility, m, logger, cfg.CodeMaxAttempts),
		Visitors: handlers.NewVisitorHandler(records, tickets, notify, m, logger, cfg.UploadTimeout, cfg.MaxUploadBytes),
		Codes:    handlers.NewCodeHandler(records, m, logger),
		Admin:    handlers.NewAdminHandler(workflow, logger),
		Health:   handlers.NewHealthHandler(records, tickets, recent, logger),
		Metrics:  m.Handler(),
	}

	// Initialize Router
	r := chi.NewRouter()
	handlers.RegisterRoutes(r, h, logger, handlers.RouteOptions{EnableCORS: cfg.EnableCORS})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting server",
			zap.String("port", cfg.Port),
			zap.String("database", cfg.DatabasePath),
			zap.String("uploads", cfg.UploadDir),
			zap.String("eligible_ranges", eligibility.Describe()),
		)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
