package model

import "time"

// TransactionStatus is the lifecycle state of a payment attempt. A
// payment transitions PENDING to exactly one of SUCCESS or FAILED;
// SUCCESS is terminal and is never overwritten.
type TransactionStatus string

const (
	TxPending TransactionStatus = "PENDING"
	TxSuccess TransactionStatus = "SUCCESS"
	TxFailed  TransactionStatus = "FAILED"
)

// Payment records one payment initialization attempt. Reference is the
// idempotency key shared with the gateway; it is unique across all
// rows. A student may hold several PENDING payments at once (each
// re-attempt creates a fresh row), but at most one row per reference.
//
// Fields:
//  ID              – primary key identifier.
//  StudentID       – paying student.
//  PackageIDAtTime – package the payment was initialized against
//                    (price snapshot reference).
//  AmountKobo      – amount quoted at initialization, in kobo.
//  Reference       – unique gateway transaction reference.
//  Status          – PENDING, SUCCESS or FAILED.
//  PaidAt          – gateway-reported settlement time (nil unless SUCCESS).
//  RawPayload      – raw gateway payload captured at settlement or failure.
//  CreatedAt       – creation timestamp.
//  UpdatedAt       – last update timestamp.
type Payment struct {
	ID              uint64
	StudentID       uint64
	PackageIDAtTime uint64
	AmountKobo      int64
	Reference       string
	Status          TransactionStatus
	PaidAt          *time.Time
	RawPayload      []byte
	CreatedAt       time.Time
	UpdatedAt       time.Time
}
