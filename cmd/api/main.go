// Command api is the Daily Flake jobs API server.
//
// Usage:
//
//	dailyflake-api
//	API_PORT=8080 dailyflake-api
//
// The server also hosts the scrape/notify scheduler unless
// SCHEDULER_ENABLED=false. Run exactly one scheduler-enabled instance per
// database.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"

	"github.com/dailyflake/dailyflake/internal/api"
	"github.com/dailyflake/dailyflake/internal/api/handler"
	"github.com/dailyflake/dailyflake/internal/config"
	"github.com/dailyflake/dailyflake/internal/db"
	"github.com/dailyflake/dailyflake/internal/delivery"
	"github.com/dailyflake/dailyflake/internal/extract"
	"github.com/dailyflake/dailyflake/internal/fetch"
	"github.com/dailyflake/dailyflake/internal/notify"
	"github.com/dailyflake/dailyflake/internal/report"
	"github.com/dailyflake/dailyflake/internal/resort"
	"github.com/dailyflake/dailyflake/internal/schedule"
	"github.com/dailyflake/dailyflake/internal/scrape"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	// Load .env if present
	_ = godotenv.Load(".env")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	loc, err := cfg.Location()
	if err != nil {
		logger.Error("Failed to resolve reference timezone", "error", err)
		os.Exit(1)
	}

	// Context with signal handling
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	// Connect to database
	logger.Info("Connecting to database...")
	pool, err := db.New(ctx, cfg)
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()
	logger.Info("Database connected",
		"min_conns", cfg.DBPoolMinConns,
		"max_conns", cfg.DBPoolMaxConns)

	// Stores
	resortStore := resort.NewStore(pool.Pool)
	reportStore := report.NewStore(pool.Pool)
	notifyStore := notify.NewStore(pool.Pool)

	// Collaborators
	fetcher := fetch.NewClient(30, logger)
	extractor, err := extract.NewClient(cfg.AnthropicAPIKey, logger)
	if err != nil {
		logger.Error("Failed to create extraction client", "error", err)
		os.Exit(1)
	}
	sms := delivery.NewTwilio(cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioFromNumber, logger)
	email := delivery.NewMailjet(cfg.MailjetAPIKey, cfg.MailjetSecretKey, cfg.EmailSender, cfg.EmailSenderName, logger)
	logger.Info("Delivery channels",
		"sms_configured", sms.IsConfigured(),
		"email_configured", email.IsConfigured())

	// Pipelines
	scraper := scrape.New(fetcher, extractor, extractor, reportStore, logger)
	notifier := notify.NewPipeline(reportStore, notifyStore, sms, email, logger)

	// Scheduler
	sched := schedule.New(resortStore, notifyStore, scraper, notifier, loc, logger)
	if cfg.SchedulerEnabled {
		if err := sched.Start(ctx); err != nil {
			logger.Error("Failed to start scheduler", "error", err)
			os.Exit(1)
		}
	} else {
		logger.Info("Scheduler disabled (SCHEDULER_ENABLED=false)")
	}

	// Create router
	h := handler.New(pool.Pool, cfg, resortStore, scraper, sched)
	router := api.NewRouter(h, cfg)

	// Create HTTP server
	addr := fmt.Sprintf("%s:%d", cfg.APIHost, cfg.APIPort)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in background
	go func() {
		logger.Info("Starting Daily Flake Jobs API",
			"addr", addr,
			"environment", cfg.Environment,
			"timezone", cfg.TimeZone)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt
	<-ctx.Done()
	logger.Info("Shutting down...")

	sched.Stop()

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Shutdown error", "error", err)
	}
	logger.Info("Server stopped")
}
