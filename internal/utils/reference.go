package utils

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"
)

// NewPaymentReference returns a unique merchant reference of the form
// FYW-<unix-millis>-<8 hex chars>.  The timestamp keeps references
// roughly sortable by creation time while the random suffix guards
// against collisions within the same millisecond.  The database still
// enforces uniqueness with a constraint; this generator only has to
// make collisions rare, not impossible.
func NewPaymentReference() (string, error) {
	buf := make([]byte, 4)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate reference entropy: %w", err)
	}
	return fmt.Sprintf("FYW-%d-%s", time.Now().UTC().UnixMilli(), hex.EncodeToString(buf)), nil
}
