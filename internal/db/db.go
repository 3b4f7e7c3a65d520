// Package db provides a pgxpool-based connection pool with prepared statement
// registration and health checking.
package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dailyflake/dailyflake/internal/config"
)

// Pool wraps pgxpool.Pool with application-specific helpers.
type Pool struct {
	*pgxpool.Pool
}

// New creates and validates a new connection pool.
func New(ctx context.Context, cfg *config.Config) (*Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}

	poolCfg.MinConns = int32(cfg.DBPoolMinConns)
	poolCfg.MaxConns = int32(cfg.DBPoolMaxConns)
	poolCfg.MaxConnLifetime = cfg.DBPoolMaxLife
	poolCfg.MaxConnIdleTime = 5 * time.Minute

	// Register prepared statements on every new connection.
	poolCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		return registerPreparedStatements(ctx, conn)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	// Verify connectivity
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &Pool{Pool: pool}, nil
}

// HealthCheck runs a trivial query to verify the database is reachable.
func (p *Pool) HealthCheck(ctx context.Context) error {
	var n int
	return p.QueryRow(ctx, "health_check").Scan(&n)
}

// registerPreparedStatements registers all statements the job core and API
// layer use. Prepared statements eliminate parse overhead on every tick.
func registerPreparedStatements(ctx context.Context, conn *pgx.Conn) error {
	stmts := map[string]string{
		// Health
		"health_check": "SELECT 1",

		// Resorts
		"get_active_resorts": "SELECT id, name, snow_report_url, scrape_time, is_active, created_at FROM resorts WHERE is_active ORDER BY name",
		"get_all_resorts":    "SELECT id, name, snow_report_url, scrape_time, is_active, created_at FROM resorts ORDER BY name",
		"get_resort":         "SELECT id, name, snow_report_url, scrape_time, is_active, created_at FROM resorts WHERE id = $1",

		// Reports (scrape dedup witness)
		"get_report":    "SELECT id, resort_id, report_date::text, report_data, COALESCE(sms_summary, ''), scrape_status, COALESCE(error_message, ''), created_at FROM scraped_reports WHERE resort_id = $1 AND report_date = $2",
		"report_exists": "SELECT EXISTS (SELECT 1 FROM scraped_reports WHERE resort_id = $1 AND report_date = $2)",

		// Notifications: candidate subscriptions. The window filter runs in
		// Go; this returns every subscription that could be due today.
		"get_notify_candidates": `
			SELECT s.id, s.resort_id, r.name, s.notification_time,
			       u.id, u.email, COALESCE(u.phone_number, ''),
			       (u.email_enabled), (u.sms_enabled AND u.phone_verified)
			FROM user_subscriptions s
			JOIN users u ON u.id = s.user_id
			JOIN resorts r ON r.id = s.resort_id
			WHERE s.is_active
			  AND NOT u.is_paused
			  AND (u.email_enabled OR (u.sms_enabled AND u.phone_verified))
			ORDER BY s.id`,

		// Delivery log (notify dedup witness). delivery_date is written by the
		// job core in the reference timezone; a range over sent_at would be
		// evaluated in the session timezone and drift for evening sends.
		"delivery_exists": `
			SELECT EXISTS (
				SELECT 1 FROM delivery_log
				WHERE user_id = $1 AND resort_id = $2 AND channel = $3
				  AND delivery_date = $4
			)`,

		// Metrics
		"count_active_resorts":       "SELECT COUNT(*) FROM resorts WHERE is_active",
		"count_active_subscriptions": "SELECT COUNT(*) FROM user_subscriptions WHERE is_active",
		"count_reports_today":        "SELECT COUNT(*) FILTER (WHERE scrape_status = 'success'), COUNT(*) FILTER (WHERE scrape_status = 'failed') FROM scraped_reports WHERE report_date = $1",
		"count_deliveries_today":     "SELECT COUNT(*) FILTER (WHERE delivery_status = 'sent'), COUNT(*) FILTER (WHERE delivery_status = 'failed') FROM delivery_log WHERE delivery_date = $1",
	}

	for name, sql := range stmts {
		if _, err := conn.Prepare(ctx, name, sql); err != nil {
			return fmt.Errorf("prepare %q: %w", name, err)
		}
	}
	return nil
}
