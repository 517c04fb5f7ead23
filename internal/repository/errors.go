// Package repository defines error types that are reused across
// multiple repositories. These sentinel values allow higher layers
// such as services and handlers to distinguish between failure
// scenarios. Duplicate-key sentinels deserve special mention: for
// webhook events the unique-constraint violation is the expected,
// handled dedup path, not a failure to propagate.
package repository

import (
	"errors"

	"github.com/go-sql-driver/mysql"
)

// ErrNotFound is returned when a requested row does not exist.
// Handlers should translate this into an HTTP 404 response.
var ErrNotFound = errors.New("not found")

// ErrDuplicateReference is returned when inserting a payment whose
// reference already exists. References are generated to be unique, so
// this indicates a retry of the same insert.
var ErrDuplicateReference = errors.New("duplicate payment reference")

// ErrDuplicateEvent is returned when inserting a webhook event whose
// (event_id, reference) pair already exists. This is the authoritative
// duplicate-delivery signal; callers treat it as "already processed".
var ErrDuplicateEvent = errors.New("duplicate webhook event")

// mysqlDuplicateEntry is the MySQL error number for a unique key
// violation (ER_DUP_ENTRY).
const mysqlDuplicateEntry = 1062

// isDuplicateEntry reports whether err is a MySQL unique-constraint
// violation.
func isDuplicateEntry(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == mysqlDuplicateEntry
}
