package repository

import (
	"context"
	"database/sql"

	"github.com/ulesfyw/fyw-pay/internal/model"
)

// WebhookEventRepo is the append-only log of delivered gateway
// notifications. The UNIQUE KEY on (event_id, reference) is the
// serialization point for webhook deduplication: when two deliveries
// of the same event race, exactly one insert succeeds and the other
// receives ErrDuplicateEvent. The Exists pre-check is an optimization
// only — it has a race window and must never be the sole guard.
type WebhookEventRepo struct {
	db *sql.DB
}

// NewWebhookEventRepo returns a new WebhookEventRepo bound to the
// given database.
func NewWebhookEventRepo(db *sql.DB) *WebhookEventRepo { return &WebhookEventRepo{db: db} }

// Exists reports whether an event with the given (eventID, reference)
// pair has already been recorded.
func (r *WebhookEventRepo) Exists(ctx context.Context, eventID, reference string) (bool, error) {
	const q = `SELECT 1 FROM webhook_events WHERE event_id = ? AND reference = ? LIMIT 1`
	var one int
	err := r.db.QueryRowContext(ctx, q, eventID, reference).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Insert records a delivered notification. Returns ErrDuplicateEvent
// when the (event_id, reference) pair already exists; callers treat
// that as a duplicate delivery and stop processing.
func (r *WebhookEventRepo) Insert(ctx context.Context, ev *model.WebhookEvent) error {
	const q = `INSERT INTO webhook_events (event_id, reference, event, processed_at, raw_payload)
	           VALUES (?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, ev.EventID, ev.Reference, ev.Event, ev.ProcessedAt, ev.RawPayload)
	if err != nil {
		if isDuplicateEntry(err) {
			return ErrDuplicateEvent
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	ev.ID = uint64(id)
	return nil
}
