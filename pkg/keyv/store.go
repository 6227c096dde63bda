package keyv

import (
	"context"
	"io"
	"time"
)

// Entry is the physically stored form of a key: the encoded payload and the
// absolute expiration deadline, if any. A nil ExpiresAt never expires.
type Entry struct {
	Payload   []byte
	ExpiresAt *time.Time
}

// Store is the capability every storage adapter implements. It deals in raw
// namespaced keys and opaque payloads; TTL policy and value typing belong to
// the Client.
//
// Get returns the stored payload and deadline without interpreting staleness;
// an expired entry is still returned. Set is an unconditional upsert that
// replaces payload and deadline together. RemoveMany is best-effort: under
// failure mid-batch, partial application is possible and the returned count
// reflects what was actually removed. Clear removes only keys under the given
// prefix; an empty prefix clears everything the store owns.
type Store interface {
	io.Closer

	Get(ctx context.Context, rawKey string) (*Entry, error)
	Set(ctx context.Context, rawKey string, payload []byte, expiresAt *time.Time) error
	Remove(ctx context.Context, rawKey string) (bool, error)
	RemoveMany(ctx context.Context, rawKeys []string) (int, error)
	Clear(ctx context.Context, prefix string) error
}
