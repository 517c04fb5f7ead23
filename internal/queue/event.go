// Package queue defines message payloads exchanged over the message broker.
package queue

// PaymentSettledEvent is published after a gateway notification has been
// applied to a student balance. It carries enough information for
// downstream consumers to notify the student or feed analytics without
// querying the primary database.
type PaymentSettledEvent struct {
	PaymentID       uint64 `json:"payment_id"`
	StudentID       uint64 `json:"student_id"`
	MatricNumber    string `json:"matric_number"`
	FullName        string `json:"full_name"`
	Email           string `json:"email"`
	Reference       string `json:"reference"`
	AmountKobo      int64  `json:"amount_kobo"`
	TotalPaidKobo   int64  `json:"total_paid_kobo"`
	PackageName     string `json:"package_name"`
	PackagePrice    int64  `json:"package_price_kobo"`
	PaymentStatus   string `json:"payment_status"`
	OutstandingKobo int64  `json:"outstanding_kobo"`
	InviteURL       string `json:"invite_url,omitempty"`
	SettledAt       string `json:"settled_at"`
}
