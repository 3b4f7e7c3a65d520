// Package schedule drives the periodic scrape and notify ticks.
//
// Every 15 minutes a tick enumerates the candidates, filters them through the
// due-window check, and runs the pipelines sequentially with fixed inter-job
// pacing. Each pipeline carries its own dedup check, so a second tick landing
// in the same window (or a manual trigger) re-derives the same candidate
// list and no-ops per item.
//
// Exactly one scheduler instance may run against a given database: two
// concurrent ticks can both pass a dedup check before either writes its
// witness row.
package schedule

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"golang.org/x/time/rate"

	"github.com/dailyflake/dailyflake/internal/notify"
	"github.com/dailyflake/dailyflake/internal/resort"
)

const (
	// cronSpec fires ticks at the same cadence as the due-window width.
	cronSpec = "*/15 * * * *"

	// Inter-job pacing. Scrapes hit rate-limited resort sites; notifies hit
	// the SMS/email providers.
	scrapePace = 2 * time.Second
	notifyPace = 100 * time.Millisecond
)

// State is the scheduler lifecycle state.
type State string

const (
	StateStopped State = "stopped"
	StateRunning State = "running"
)

// ResortSource lists the resorts eligible for scraping.
type ResortSource interface {
	ListActive(ctx context.Context) ([]resort.Resort, error)
}

// CandidateSource lists the subscriptions eligible for notification.
type CandidateSource interface {
	ListCandidates(ctx context.Context) ([]notify.Candidate, error)
}

// ScrapeRunner runs the scrape pipeline for one resort.
type ScrapeRunner interface {
	Run(ctx context.Context, r resort.Resort, date string) error
}

// NotifyRunner runs the notify pipeline for one subscription.
type NotifyRunner interface {
	Run(ctx context.Context, c notify.Candidate, date string) error
}

// TickResult summarizes one tick for logging and the manual-trigger response.
type TickResult struct {
	Candidates int           `json:"candidates"`
	Due        int           `json:"due"`
	Failed     int           `json:"failed"`
	Duration   time.Duration `json:"-"`
}

// Scheduler owns the cron driver and the per-tick filtering.
type Scheduler struct {
	resorts    ResortSource
	candidates CandidateSource
	scraper    ScrapeRunner
	notifier   NotifyRunner
	loc        *time.Location
	logger     *slog.Logger

	mu    sync.Mutex
	state State
	cron  *cron.Cron
}

// New creates a stopped scheduler. All wall-clock comparisons use loc, the
// single reference timezone.
func New(resorts ResortSource, candidates CandidateSource, scraper ScrapeRunner, notifier NotifyRunner, loc *time.Location, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Scheduler{
		resorts:    resorts,
		candidates: candidates,
		scraper:    scraper,
		notifier:   notifier,
		loc:        loc,
		logger:     logger,
		state:      StateStopped,
	}
}

// Start launches the periodic ticks. Idempotent: calling Start on a running
// scheduler logs and returns nil.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateRunning {
		s.logger.Info("Scheduler already started, skipping")
		return nil
	}

	c := cron.New(
		cron.WithLocation(s.loc),
		// A long tick must finish before the same job fires again; overlap
		// would race the dedup-check-then-act sequence.
		cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
	)

	if _, err := c.AddFunc(cronSpec, func() {
		res := s.RunScrapes(ctx)
		s.logger.Info("Scrape tick complete",
			"resorts", res.Candidates, "due", res.Due, "failed", res.Failed,
			"duration", res.Duration.Round(time.Millisecond))
	}); err != nil {
		return fmt.Errorf("add scrape job: %w", err)
	}

	if _, err := c.AddFunc(cronSpec, func() {
		res := s.RunNotifies(ctx)
		s.logger.Info("Notify tick complete",
			"subscriptions", res.Candidates, "due", res.Due, "failed", res.Failed,
			"duration", res.Duration.Round(time.Millisecond))
	}); err != nil {
		return fmt.Errorf("add notify job: %w", err)
	}

	c.Start()
	s.cron = c
	s.state = StateRunning
	s.logger.Info("Scheduler started", "spec", cronSpec, "timezone", s.loc.String())
	return nil
}

// Stop halts the cron driver. A tick in flight finishes; no new ticks fire.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateRunning {
		return
	}
	s.cron.Stop()
	s.cron = nil
	s.state = StateStopped
	s.logger.Info("Scheduler stopped")
}

// State returns the current lifecycle state.
func (s *Scheduler) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Today returns the current calendar day in the reference timezone.
func (s *Scheduler) Today() string {
	return time.Now().In(s.loc).Format("2006-01-02")
}

// RunScrapes executes one scrape tick: active resorts, due-window filtered,
// sequential with pacing. Also the manual-trigger entry point: it bypasses
// the timer but every pipeline run still performs its own dedup check.
func (s *Scheduler) RunScrapes(ctx context.Context) TickResult {
	start := time.Now()
	now := start.In(s.loc)
	date := now.Format("2006-01-02")
	var res TickResult

	resorts, err := s.resorts.ListActive(ctx)
	if err != nil {
		s.logger.Error("Scrape tick: list resorts failed", "error", err)
		res.Failed++
		res.Duration = time.Since(start)
		return res
	}
	res.Candidates = len(resorts)

	limiter := rate.NewLimiter(rate.Every(scrapePace), 1)
	for _, r := range resorts {
		if !Due(r.ScrapeTime, now) {
			continue
		}
		res.Due++

		if err := limiter.Wait(ctx); err != nil {
			s.logger.Warn("Scrape tick cancelled", "error", err)
			res.Duration = time.Since(start)
			return res
		}
		if err := s.scraper.Run(ctx, r, date); err != nil {
			// Item isolation: log and keep going.
			s.logger.Warn("Scrape failed", "resort", r.Name, "error", err)
			res.Failed++
		}
	}

	res.Duration = time.Since(start)
	return res
}

// RunNotifies executes one notify tick, symmetric to RunScrapes.
func (s *Scheduler) RunNotifies(ctx context.Context) TickResult {
	start := time.Now()
	now := start.In(s.loc)
	date := now.Format("2006-01-02")
	var res TickResult

	candidates, err := s.candidates.ListCandidates(ctx)
	if err != nil {
		s.logger.Error("Notify tick: list candidates failed", "error", err)
		res.Failed++
		res.Duration = time.Since(start)
		return res
	}
	res.Candidates = len(candidates)

	limiter := rate.NewLimiter(rate.Every(notifyPace), 1)
	for _, c := range candidates {
		if !Due(c.NotificationTime, now) {
			continue
		}
		res.Due++

		if err := limiter.Wait(ctx); err != nil {
			s.logger.Warn("Notify tick cancelled", "error", err)
			res.Duration = time.Since(start)
			return res
		}
		if err := s.notifier.Run(ctx, c, date); err != nil {
			s.logger.Warn("Notification failed",
				"subscription_id", c.SubscriptionID, "resort", c.ResortName, "error", err)
			res.Failed++
		}
	}

	res.Duration = time.Since(start)
	return res
}
