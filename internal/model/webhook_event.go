package model

import "time"

// WebhookEvent is one externally delivered gateway notification.
// Rows are append-only: the UNIQUE KEY on (event_id, reference) is the
// authoritative deduplication gate for webhook delivery, and a failed
// insert on that key is the expected duplicate-detection path rather
// than an error.
//
// Fields:
//  ID          – primary key identifier.
//  EventID     – stable identifier derived from the gateway payload.
//  Reference   – payment reference the notification concerns.
//  Event       – gateway event name (e.g. "charge.success").
//  ProcessedAt – when the notification was accepted for processing.
//  RawPayload  – raw request body as delivered.
//  CreatedAt   – creation timestamp.
type WebhookEvent struct {
	ID          uint64
	EventID     string
	Reference   string
	Event       string
	ProcessedAt time.Time
	RawPayload  []byte
	CreatedAt   time.Time
}
