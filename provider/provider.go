// Package provider defines the byte store behind the Converter's decode memo.
//
// Implementations MUST be byte-for-byte transparent: Get must return exactly
// the bytes previously passed to Set for a key. Entries are framed by
// bytecodec; anything that fails frame validation is treated as corrupt and
// deleted.
//
// The keyspace "memo:<ns>:" is owned by bytecodec. External code MUST NOT
// write values under that prefix.
package provider

import (
	"context"
	"time"
)

// Provider is a minimal byte store with TTLs. It must be safe for
// concurrent use.
type Provider interface {
	// Get returns (value, true, nil) on hit; (nil, false, nil) on miss.
	// If an IO/remote error happens, return (nil, false, err).
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores value with the given TTL. May ignore cost if unsupported.
	// Returns ok=false when the store rejected the write under pressure.
	Set(ctx context.Context, key string, value []byte, cost int64, ttl time.Duration) (ok bool, err error)

	// Del removes a key (best-effort). Deleting a missing key is not an error.
	Del(ctx context.Context, key string) error

	// Close releases resources.
	Close(ctx context.Context) error
}
