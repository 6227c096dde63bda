package keyv

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned by Store.Get when no entry exists for a key.
	ErrNotFound = errors.New("keyv: not found")

	// ErrClosed is returned by operations on a closed client or store.
	ErrClosed = errors.New("keyv: closed")

	// ErrEncoding reports a value that cannot be represented in the neutral
	// encoding.
	ErrEncoding = errors.New("keyv: encoding failed")

	// ErrDecoding reports a stored shape that does not match the requested
	// type.
	ErrDecoding = errors.New("keyv: decoding failed")

	// ErrAdapter wraps a backend-specific failure.
	ErrAdapter = errors.New("keyv: adapter failure")

	// ErrTimeout is an ErrAdapter raised when a backend call exceeds its
	// deadline. Store state is left exactly as the backend left it.
	ErrTimeout = fmt.Errorf("%w: operation timed out", ErrAdapter)

	// ErrConfig reports malformed construction parameters. Bad input fails
	// construction, it never silently falls back to defaults.
	ErrConfig = errors.New("keyv: invalid configuration")
)

// AdapterError wraps a backend failure so callers can match ErrAdapter (or
// ErrTimeout) with errors.Is while keeping the cause in the chain.
func AdapterError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	return fmt.Errorf("%w: %v", ErrAdapter, err)
}
