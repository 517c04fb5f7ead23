package model

import "time"

// PackageType determines how many event days a package grants and how
// client-supplied day selections are interpreted.
type PackageType string

const (
	// PackageFull grants all five days; client-provided selections are
	// ignored.
	PackageFull PackageType = "FULL"
	// PackageTwoDay and the corporate variants require the student to
	// pick exactly two days.
	PackageTwoDay          PackageType = "TWO_DAY"
	PackageCorporateOwambe PackageType = "CORPORATE_OWAMBE"
	PackageCorporatePlus   PackageType = "CORPORATE_PLUS"
)

// RequiredDays returns how many days a student must select for the
// package type. Zero means the full day set is assigned automatically.
func (t PackageType) RequiredDays() int {
	if t == PackageFull {
		return 0
	}
	return 2
}

// Package is a purchasable event package. Price is the authoritative
// total owed by a student on that package and is stored in kobo
// (minor currency units). Packages are immutable after seeding except
// for administrative correction.
//
// Fields:
//  ID          – primary key identifier.
//  Code        – unique short code (e.g. "F"), stored uppercase.
//  Name        – display name.
//  PackageType – day-selection policy.
//  PriceKobo   – total price in kobo.
//  Benefits    – ordered benefit lines printed on the invite.
//  CreatedAt   – creation timestamp.
//  UpdatedAt   – last update timestamp.
type Package struct {
	ID          uint64
	Code        string
	Name        string
	PackageType PackageType
	PriceKobo   int64
	Benefits    []string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
