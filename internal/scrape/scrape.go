// Package scrape runs the per-resort scrape pipeline:
// fetch → extract → summarize → persist.
//
// The pipeline writes exactly one report row per (resort, day). A failure at
// any step still writes the row, with status failed and the error text, so
// the existence check keeps the resort from being re-attempted until the next
// calendar day.
package scrape

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dailyflake/dailyflake/internal/report"
	"github.com/dailyflake/dailyflake/internal/resort"
)

// Fetcher retrieves a snow-report page as plain text.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// Extractor turns page text into structured report data.
type Extractor interface {
	Extract(ctx context.Context, content, resortName string) (report.Data, error)
}

// Summarizer generates the short SMS line for a report.
type Summarizer interface {
	Summarize(ctx context.Context, data report.Data, resortName string) (string, error)
}

// ReportStore is the slice of the report store the pipeline needs.
type ReportStore interface {
	Exists(ctx context.Context, resortID int, date string) (bool, error)
	Upsert(ctx context.Context, r *report.Report) error
}

// Pipeline scrapes one resort's snow report for one day.
type Pipeline struct {
	fetcher    Fetcher
	extractor  Extractor
	summarizer Summarizer
	reports    ReportStore
	logger     *slog.Logger
}

// New creates a scrape pipeline.
func New(fetcher Fetcher, extractor Extractor, summarizer Summarizer, reports ReportStore, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		fetcher:    fetcher,
		extractor:  extractor,
		summarizer: summarizer,
		reports:    reports,
		logger:     logger,
	}
}

// Run scrapes one resort for the given date ("YYYY-MM-DD"). If a report row
// already exists for that day the run is a no-op. Collaborator failures are
// captured in a failed report row and returned for logging; they never leave
// the day without a row.
func (p *Pipeline) Run(ctx context.Context, r resort.Resort, date string) error {
	exists, err := p.reports.Exists(ctx, r.ID, date)
	if err != nil {
		return fmt.Errorf("check existing report: %w", err)
	}
	if exists {
		p.logger.Info("Already scraped today, skipping", "resort", r.Name, "date", date)
		return nil
	}

	p.logger.Info("Starting scrape", "resort", r.Name, "url", r.SnowReportURL)

	data, summary, scrapeErr := p.collect(ctx, r)

	rep := &report.Report{
		ResortID:   r.ID,
		ReportDate: date,
		Data:       data,
		SMSSummary: summary,
		Status:     report.StatusSuccess,
	}
	if scrapeErr != nil {
		rep.Data = report.Data{}
		rep.SMSSummary = ""
		rep.Status = report.StatusFailed
		rep.ErrorMessage = scrapeErr.Error()
	}

	if err := p.reports.Upsert(ctx, rep); err != nil {
		return fmt.Errorf("persist report: %w", err)
	}

	if scrapeErr != nil {
		p.logger.Warn("Scrape failed, recorded failed report",
			"resort", r.Name, "date", date, "error", scrapeErr)
		return scrapeErr
	}

	p.logger.Info("Scrape complete", "resort", r.Name, "date", date, "summary", summary)
	return nil
}

// collect runs the three collaborator steps and returns the first failure.
func (p *Pipeline) collect(ctx context.Context, r resort.Resort) (report.Data, string, error) {
	content, err := p.fetcher.Fetch(ctx, r.SnowReportURL)
	if err != nil {
		return report.Data{}, "", fmt.Errorf("fetch page: %w", err)
	}

	data, err := p.extractor.Extract(ctx, content, r.Name)
	if err != nil {
		return report.Data{}, "", fmt.Errorf("extract data: %w", err)
	}

	summary, err := p.summarizer.Summarize(ctx, data, r.Name)
	if err != nil {
		return report.Data{}, "", fmt.Errorf("generate summary: %w", err)
	}

	return data, summary, nil
}
