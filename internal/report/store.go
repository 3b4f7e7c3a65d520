package report

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store persists one report per (resort, date).
type Store struct {
	pool *pgxpool.Pool
}

// NewStore creates a report store.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Get returns the report for (resortID, date), or nil if none was captured.
func (s *Store) Get(ctx context.Context, resortID int, date string) (*Report, error) {
	var (
		r       Report
		rawData []byte
	)
	err := s.pool.QueryRow(ctx, "get_report", resortID, date).Scan(
		&r.ID, &r.ResortID, &r.ReportDate, &rawData,
		&r.SMSSummary, &r.Status, &r.ErrorMessage, &r.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get report resort=%d date=%s: %w", resortID, date, err)
	}
	if err := json.Unmarshal(rawData, &r.Data); err != nil {
		return nil, fmt.Errorf("decode report data resort=%d date=%s: %w", resortID, date, err)
	}
	return &r, nil
}

// Exists reports whether a report row, success or failure, already exists
// for (resortID, date). This is the scrape dedup check.
func (s *Store) Exists(ctx context.Context, resortID int, date string) (bool, error) {
	var exists bool
	if err := s.pool.QueryRow(ctx, "report_exists", resortID, date).Scan(&exists); err != nil {
		return false, fmt.Errorf("report exists resort=%d date=%s: %w", resortID, date, err)
	}
	return exists, nil
}

// Upsert writes the unique report row for (resort, date), replacing any
// existing one. The ON CONFLICT target is what enforces the at-most-one-row
// invariant under repeated pipeline runs.
func (s *Store) Upsert(ctx context.Context, r *Report) error {
	rawData, err := json.Marshal(r.Data)
	if err != nil {
		return fmt.Errorf("encode report data: %w", err)
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO scraped_reports (resort_id, report_date, report_data, sms_summary, scrape_status, error_message)
		VALUES ($1, $2, $3, NULLIF($4, ''), $5, NULLIF($6, ''))
		ON CONFLICT (resort_id, report_date) DO UPDATE
		SET report_data = EXCLUDED.report_data,
		    sms_summary = EXCLUDED.sms_summary,
		    scrape_status = EXCLUDED.scrape_status,
		    error_message = EXCLUDED.error_message`,
		r.ResortID, r.ReportDate, rawData, r.SMSSummary, r.Status, r.ErrorMessage,
	)
	if err != nil {
		return fmt.Errorf("upsert report resort=%d date=%s: %w", r.ResortID, r.ReportDate, err)
	}
	return nil
}
