package model

import "time"

// PaymentStatus is the derived payment state of a student against the
// price of their current package.
type PaymentStatus string

const (
	StatusNotPaid       PaymentStatus = "NOT_PAID"
	StatusPartiallyPaid PaymentStatus = "PARTIALLY_PAID"
	StatusFullyPaid     PaymentStatus = "FULLY_PAID"
)

// DeriveStatus computes the three-tier payment status from a capped
// paid total and the package price, both in kobo.
func DeriveStatus(totalPaid, price int64) PaymentStatus {
	switch {
	case totalPaid >= price && price > 0:
		return StatusFullyPaid
	case totalPaid > 0:
		return StatusPartiallyPaid
	default:
		return StatusNotPaid
	}
}

// Invite is the generated invitation artifact for a fully paid
// student. Both fields are nil on the student until generation.
type Invite struct {
	ImageURL    string
	GeneratedAt time.Time
}

// Student is a registrant identified by matric number. TotalPaidKobo
// is monotonically bounded by the current package price: credits are
// capped at the price, and a package change reinterprets the total
// against the new price but never erases it.
//
// Fields:
//  ID            – primary key identifier.
//  MatricNumber  – unique identity key, stored uppercase.
//  FullName      – student's full name.
//  Email         – optional contact email.
//  Phone         – optional contact phone.
//  PackageID     – current package.
//  SelectedDays  – chosen event days (full set for FULL packages).
//  TotalPaidKobo – cumulative credited amount, capped at package price.
//  PaymentStatus – derived status (NOT_PAID/PARTIALLY_PAID/FULLY_PAID).
//  Invite        – generated invitation artifact, nil until fully paid.
//  CreatedAt     – creation timestamp.
//  UpdatedAt     – last update timestamp.
type Student struct {
	ID            uint64
	MatricNumber  string
	FullName      string
	Email         *string
	Phone         *string
	PackageID     uint64
	SelectedDays  []EventDay
	TotalPaidKobo int64
	PaymentStatus PaymentStatus
	Invite        *Invite
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
