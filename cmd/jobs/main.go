// Command jobs is the Daily Flake operations CLI.
//
// Usage:
//
//	dailyflake-jobs seed
//	dailyflake-jobs scrape
//	dailyflake-jobs scrape --resort 3
//	dailyflake-jobs notify
//	dailyflake-jobs report --resort 3 --date 2026-01-15
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

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
	"github.com/dailyflake/dailyflake/internal/seed"
)

var logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

func main() {
	// Load .env if present
	_ = godotenv.Load(".env")

	root := &cobra.Command{
		Use:   "dailyflake-jobs",
		Short: "Daily Flake operations CLI",
	}

	root.AddCommand(seedCmd())
	root.AddCommand(scrapeCmd())
	root.AddCommand(notifyCmd())
	root.AddCommand(reportCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// --------------------------------------------------------------------------
// seed command
// --------------------------------------------------------------------------

func seedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Seed the starting resort lineup",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runJob(func(ctx context.Context, cfg *config.Config, pool *db.Pool) error {
				store := resort.NewStore(pool.Pool)
				start := time.Now()
				created, err := seed.Run(ctx, store, logger)
				if err != nil {
					return err
				}
				logger.Info("Seed finished",
					"created", created,
					"duration", time.Since(start).Round(time.Millisecond))
				return nil
			})
		},
	}
}

// --------------------------------------------------------------------------
// scrape command
// --------------------------------------------------------------------------

func scrapeCmd() *cobra.Command {
	var resortID int
	cmd := &cobra.Command{
		Use:   "scrape",
		Short: "Run a scrape pass (all due resorts, or one resort with --resort)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runJob(func(ctx context.Context, cfg *config.Config, pool *db.Pool) error {
				resortStore := resort.NewStore(pool.Pool)
				scraper, _, sched, err := buildPipelines(cfg, pool)
				if err != nil {
					return err
				}

				if resortID > 0 {
					// Single resort: skip the due-window check. The pipeline
					// still no-ops if today's report already exists.
					r, err := resortStore.Get(ctx, resortID)
					if err != nil {
						return err
					}
					if r == nil {
						return fmt.Errorf("resort %d not found", resortID)
					}
					return scraper.Run(ctx, *r, sched.Today())
				}

				res := sched.RunScrapes(ctx)
				logger.Info("Scrape pass finished",
					"resorts", res.Candidates, "due", res.Due, "failed", res.Failed,
					"duration", res.Duration.Round(time.Millisecond))
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&resortID, "resort", 0, "Resort ID to scrape immediately")
	return cmd
}

// --------------------------------------------------------------------------
// notify command
// --------------------------------------------------------------------------

func notifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "notify",
		Short: "Run a notify pass over all due subscriptions",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runJob(func(ctx context.Context, cfg *config.Config, pool *db.Pool) error {
				_, _, sched, err := buildPipelines(cfg, pool)
				if err != nil {
					return err
				}
				res := sched.RunNotifies(ctx)
				logger.Info("Notify pass finished",
					"subscriptions", res.Candidates, "due", res.Due, "failed", res.Failed,
					"duration", res.Duration.Round(time.Millisecond))
				return nil
			})
		},
	}
}

// --------------------------------------------------------------------------
// report command
// --------------------------------------------------------------------------

func reportCmd() *cobra.Command {
	var resortID int
	var date string
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Print a stored snow report",
		RunE: func(cmd *cobra.Command, args []string) error {
			if resortID == 0 {
				return fmt.Errorf("--resort is required")
			}
			return runJob(func(ctx context.Context, cfg *config.Config, pool *db.Pool) error {
				if date == "" {
					loc, err := cfg.Location()
					if err != nil {
						return err
					}
					date = time.Now().In(loc).Format("2006-01-02")
				}
				rep, err := report.NewStore(pool.Pool).Get(ctx, resortID, date)
				if err != nil {
					return err
				}
				if rep == nil {
					return fmt.Errorf("no report for resort %d on %s", resortID, date)
				}
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(rep)
			})
		},
	}
	cmd.Flags().IntVar(&resortID, "resort", 0, "Resort ID")
	cmd.Flags().StringVar(&date, "date", "", "Report date (YYYY-MM-DD, default today)")
	return cmd
}

// --------------------------------------------------------------------------
// Shared setup
// --------------------------------------------------------------------------

// buildPipelines wires the scrape and notify pipelines plus a stopped
// scheduler for its pass runners.
func buildPipelines(cfg *config.Config, pool *db.Pool) (*scrape.Pipeline, *notify.Pipeline, *schedule.Scheduler, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, nil, nil, err
	}

	resortStore := resort.NewStore(pool.Pool)
	reportStore := report.NewStore(pool.Pool)
	notifyStore := notify.NewStore(pool.Pool)

	fetcher := fetch.NewClient(30, logger)
	extractor, err := extract.NewClient(cfg.AnthropicAPIKey, logger)
	if err != nil {
		return nil, nil, nil, err
	}
	sms := delivery.NewTwilio(cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioFromNumber, logger)
	email := delivery.NewMailjet(cfg.MailjetAPIKey, cfg.MailjetSecretKey, cfg.EmailSender, cfg.EmailSenderName, logger)

	scraper := scrape.New(fetcher, extractor, extractor, reportStore, logger)
	notifier := notify.NewPipeline(reportStore, notifyStore, sms, email, logger)
	sched := schedule.New(resortStore, notifyStore, scraper, notifier, loc, logger)
	return scraper, notifier, sched, nil
}

// runJob handles config loading, DB connection, and context cancellation.
func runJob(fn func(ctx context.Context, cfg *config.Config, pool *db.Pool) error) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	pool, err := db.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer pool.Close()

	return fn(ctx, cfg, pool)
}
