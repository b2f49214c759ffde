// Package uuid wraps github.com/google/uuid with UUIDv7 (time-ordered) as the
// default version. Row identifiers across the service are UUIDv7 so that
// creation order is recoverable from the id itself.
package uuid

import (
	"encoding/binary"
	"time"

	"github.com/google/uuid"
)

// UUID represents a UUID, aliased from github.com/google/uuid.UUID
type UUID = uuid.UUID

// Nil is the zero UUID value.
var Nil = uuid.Nil

// New returns a new random UUIDv7. Panics if UUID generation fails.
func New() UUID {
	uuidv7, err := uuid.NewV7()
	if err != nil {
		panic(err)
	}
	return uuidv7
}

// NewRandom returns a new random UUIDv7 and any error encountered during generation.
func NewRandom() (UUID, error) {
	return uuid.NewV7()
}

// Parse parses a UUID string into a UUID value.
func Parse(s string) (UUID, error) {
	return uuid.Parse(s)
}

// MustParse parses a UUID string and panics if the string is not a valid UUID.
func MustParse(s string) UUID {
	return uuid.MustParse(s)
}

// IsUUIDv7 reports whether the given UUID is a UUIDv7.
func IsUUIDv7(id UUID) bool {
	return id.Version() == uuid.Version(7)
}

// Timestamp extracts the creation time from a UUIDv7.
// The timestamp lives in the top 48 bits of the UUID.
func Timestamp(u UUID) time.Time {
	tsMillis := binary.BigEndian.Uint64(u[0:8]) >> 16
	if tsMillis > uint64(1<<63-1) {
		return time.UnixMilli(1<<63 - 1)
	}
	return time.UnixMilli(int64(tsMillis))
}
