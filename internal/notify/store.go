package notify

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Store reads notification candidates and owns the delivery log.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore creates a notify store.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// ListCandidates returns every active subscription whose user is not paused
// and has at least one usable channel. Due-window filtering happens in the
// scheduler.
func (s *Store) ListCandidates(ctx context.Context) ([]Candidate, error) {
	rows, err := s.pool.Query(ctx, "get_notify_candidates")
	if err != nil {
		return nil, fmt.Errorf("list notify candidates: %w", err)
	}
	defer rows.Close()

	var candidates []Candidate
	for rows.Next() {
		var c Candidate
		if err := rows.Scan(
			&c.SubscriptionID, &c.ResortID, &c.ResortName, &c.NotificationTime,
			&c.UserID, &c.Email, &c.PhoneNumber, &c.EmailEnabled, &c.SMSEnabled,
		); err != nil {
			return nil, fmt.Errorf("scan notify candidate: %w", err)
		}
		candidates = append(candidates, c)
	}
	return candidates, rows.Err()
}

// AlreadySent reports whether a delivery was already attempted on date for
// (user, resort, channel). Failed attempts count: one attempt per day,
// regardless of outcome. date must be the same reference-timezone day string
// the pipeline writes into delivery_date.
func (s *Store) AlreadySent(ctx context.Context, userID, resortID int, channel Channel, date string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx, "delivery_exists", userID, resortID, string(channel), date).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("delivery exists user=%d resort=%d channel=%s: %w", userID, resortID, channel, err)
	}
	return exists, nil
}

// Record appends one delivery log row. Rows are immutable once written.
func (s *Store) Record(ctx context.Context, rec *Record) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO delivery_log (user_id, resort_id, channel, recipient, message_sent, provider_message_id, delivery_status, error_details, delivery_date)
		VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), $7, NULLIF($8, ''), $9)`,
		rec.UserID, rec.ResortID, string(rec.Channel), rec.Recipient,
		rec.Message, rec.ProviderID, rec.Status, rec.ErrorDetails, rec.DeliveryDate,
	)
	if err != nil {
		return fmt.Errorf("insert delivery record user=%d resort=%d channel=%s: %w",
			rec.UserID, rec.ResortID, rec.Channel, err)
	}
	return nil
}
