package resort

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store reads and writes resorts.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore creates a resort store.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// ListActive returns all active resorts ordered by name.
func (s *Store) ListActive(ctx context.Context) ([]Resort, error) {
	return s.list(ctx, "get_active_resorts")
}

// ListAll returns every resort, active or not.
func (s *Store) ListAll(ctx context.Context) ([]Resort, error) {
	return s.list(ctx, "get_all_resorts")
}

func (s *Store) list(ctx context.Context, stmt string) ([]Resort, error) {
	rows, err := s.pool.Query(ctx, stmt)
	if err != nil {
		return nil, fmt.Errorf("list resorts: %w", err)
	}
	defer rows.Close()

	var resorts []Resort
	for rows.Next() {
		var r Resort
		if err := rows.Scan(&r.ID, &r.Name, &r.SnowReportURL, &r.ScrapeTime, &r.IsActive, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan resort: %w", err)
		}
		resorts = append(resorts, r)
	}
	return resorts, rows.Err()
}

// Get returns a resort by id, or nil if it does not exist.
func (s *Store) Get(ctx context.Context, id int) (*Resort, error) {
	var r Resort
	err := s.pool.QueryRow(ctx, "get_resort", id).
		Scan(&r.ID, &r.Name, &r.SnowReportURL, &r.ScrapeTime, &r.IsActive, &r.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get resort %d: %w", id, err)
	}
	return &r, nil
}

// Create inserts a new resort and returns it with its assigned id.
func (s *Store) Create(ctx context.Context, r *Resort) error {
	if err := ValidateTargetTime(r.ScrapeTime); err != nil {
		return err
	}
	err := s.pool.QueryRow(ctx, `
		INSERT INTO resorts (name, snow_report_url, scrape_time, is_active)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`,
		r.Name, r.SnowReportURL, r.ScrapeTime, r.IsActive,
	).Scan(&r.ID, &r.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert resort: %w", err)
	}
	return nil
}

// Update replaces a resort's editable fields. Returns false when no row
// matched the id.
func (s *Store) Update(ctx context.Context, r *Resort) (bool, error) {
	if err := ValidateTargetTime(r.ScrapeTime); err != nil {
		return false, err
	}
	tag, err := s.pool.Exec(ctx, `
		UPDATE resorts
		SET name = $2, snow_report_url = $3, scrape_time = $4, is_active = $5
		WHERE id = $1`,
		r.ID, r.Name, r.SnowReportURL, r.ScrapeTime, r.IsActive,
	)
	if err != nil {
		return false, fmt.Errorf("update resort %d: %w", r.ID, err)
	}
	return tag.RowsAffected() > 0, nil
}

// Delete removes a resort. Returns false when no row matched the id.
func (s *Store) Delete(ctx context.Context, id int) (bool, error) {
	tag, err := s.pool.Exec(ctx, "DELETE FROM resorts WHERE id = $1", id)
	if err != nil {
		return false, fmt.Errorf("delete resort %d: %w", id, err)
	}
	return tag.RowsAffected() > 0, nil
}

// UpsertByName inserts a resort or leaves an existing one untouched.
// Used by seeding so repeated runs are harmless.
func (s *Store) UpsertByName(ctx context.Context, r *Resort) (created bool, err error) {
	tag, err := s.pool.Exec(ctx, `
		INSERT INTO resorts (name, snow_report_url, scrape_time, is_active)
		VALUES ($1, $2, $3, TRUE)
		ON CONFLICT (name) DO NOTHING`,
		r.Name, r.SnowReportURL, r.ScrapeTime,
	)
	if err != nil {
		return false, fmt.Errorf("upsert resort %q: %w", r.Name, err)
	}
	return tag.RowsAffected() > 0, nil
}
