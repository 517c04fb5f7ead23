package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/ulesfyw/fyw-pay/internal/model"
)

// PaymentRepo is the payment ledger. Rows are created once (PENDING)
// and mutated at most once, when the status moves to a terminal state.
// The PENDING→SUCCESS transition is a conditional update so that
// concurrent settlement attempts for the same reference cannot credit
// a student twice: exactly one caller observes rows-affected == 1.
type PaymentRepo struct {
	db *sql.DB
}

// NewPaymentRepo returns a new PaymentRepo bound to the given database.
func NewPaymentRepo(db *sql.DB) *PaymentRepo { return &PaymentRepo{db: db} }

const paymentColumns = `id, student_id, package_id_at_time, amount_kobo, reference, status,
	paid_at, raw_payload, created_at, updated_at`

func scanPayment(row interface{ Scan(...any) error }) (*model.Payment, error) {
	var p model.Payment
	var status string
	var paidAt sql.NullTime
	var raw sql.NullString
	err := row.Scan(&p.ID, &p.StudentID, &p.PackageIDAtTime, &p.AmountKobo, &p.Reference,
		&status, &paidAt, &raw, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	p.Status = model.TransactionStatus(status)
	if paidAt.Valid {
		t := paidAt.Time
		p.PaidAt = &t
	}
	if raw.Valid {
		p.RawPayload = []byte(raw.String)
	}
	return &p, nil
}

// Create inserts a new PENDING payment and populates the generated ID.
// Returns ErrDuplicateReference if the reference already exists.
func (r *PaymentRepo) Create(ctx context.Context, p *model.Payment) error {
	const q = `INSERT INTO payments (student_id, package_id_at_time, amount_kobo, reference, status)
	           VALUES (?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, p.StudentID, p.PackageIDAtTime, p.AmountKobo,
		p.Reference, string(model.TxPending))
	if err != nil {
		if isDuplicateEntry(err) {
			return ErrDuplicateReference
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	p.ID = uint64(id)
	p.Status = model.TxPending
	return nil
}

// GetByReference returns the payment with the given reference, or
// ErrNotFound.
func (r *PaymentRepo) GetByReference(ctx context.Context, reference string) (*model.Payment, error) {
	const q = `SELECT ` + paymentColumns + ` FROM payments WHERE reference = ?`
	p, err := scanPayment(r.db.QueryRowContext(ctx, q, reference))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return p, err
}

// MarkSuccessIfPending atomically transitions a payment to SUCCESS,
// recording the paid-at time and raw gateway payload, but only while
// the row is still PENDING. It reports whether this caller won the
// transition. A false return with nil error means another channel
// (webhook or verify poll) settled the payment first, or the payment
// had already reached a terminal state; callers must then skip
// crediting entirely.
func (r *PaymentRepo) MarkSuccessIfPending(ctx context.Context, reference string, paidAt time.Time, raw []byte) (bool, error) {
	const q = `UPDATE payments SET status = ?, paid_at = ?, raw_payload = ?
	           WHERE reference = ? AND status = ?`
	res, err := r.db.ExecContext(ctx, q, string(model.TxSuccess), paidAt, raw,
		reference, string(model.TxPending))
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// MarkFailed transitions a PENDING payment to FAILED and stores the
// raw gateway payload. A payment that already reached SUCCESS is left
// untouched.
func (r *PaymentRepo) MarkFailed(ctx context.Context, reference string, raw []byte) error {
	const q = `UPDATE payments SET status = ?, raw_payload = ?
	           WHERE reference = ? AND status = ?`
	_, err := r.db.ExecContext(ctx, q, string(model.TxFailed), raw, reference, string(model.TxPending))
	return err
}

// ListByStudent returns all payments for a student, newest first.
func (r *PaymentRepo) ListByStudent(ctx context.Context, studentID uint64) ([]model.Payment, error) {
	const q = `SELECT ` + paymentColumns + ` FROM payments WHERE student_id = ? ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, q, studentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Payment, 0)
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

// SumSuccessful returns total revenue: the sum of all SUCCESS payment
// amounts in kobo.
func (r *PaymentRepo) SumSuccessful(ctx context.Context) (int64, error) {
	const q = `SELECT COALESCE(SUM(amount_kobo), 0) FROM payments WHERE status = ?`
	var total int64
	err := r.db.QueryRowContext(ctx, q, string(model.TxSuccess)).Scan(&total)
	return total, err
}
