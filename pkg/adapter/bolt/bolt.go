// Package bolt adapts a bbolt database file as a keyv backend. bbolt has no
// native expiry slot, so each entry is persisted as the payload envelope with
// the deadline carried as a sibling field.
package bolt

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"go.etcd.io/bbolt"

	"github.com/chrisllontop/keyv-go/pkg/keyv"
)

// DefaultBucket is used when no bucket name is configured.
const DefaultBucket = "keyv"

const openTimeout = 1 * time.Second

type boltStore struct {
	db     *bbolt.DB
	bucket []byte
}

type config struct {
	bucket string
}

type Option func(c *config)

// WithBucket sets the bucket name (defaults to "keyv").
func WithBucket(bucket string) Option {
	return func(c *config) {
		c.bucket = bucket
	}
}

func init() {
	keyv.RegisterBackend(keyv.BackendBolt, func(cfg keyv.Config) (keyv.Store, error) {
		var options []Option
		if cfg.Table != "" {
			options = append(options, WithBucket(cfg.Table))
		}
		return New(cfg.URI, options...)
	})
}

// New opens (or creates) the database file at path.
func New(path string, options ...Option) (keyv.Store, error) {
	cfg := config{bucket: DefaultBucket}
	for _, option := range options {
		option(&cfg)
	}

	if path == "" {
		return nil, fmt.Errorf("%w: bolt path is required", keyv.ErrConfig)
	}

	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: openTimeout})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", keyv.ErrConfig, err)
	}

	bucket := []byte(cfg.bucket)
	if err := db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucket)
		return err
	}); err != nil {
		_ = db.Close()
		return nil, keyv.AdapterError(err)
	}

	return &boltStore{db: db, bucket: bucket}, nil
}

func (b *boltStore) Get(ctx context.Context, rawKey string) (*keyv.Entry, error) {
	var raw []byte
	if err := b.db.View(func(tx *bbolt.Tx) error {
		if value := tx.Bucket(b.bucket).Get([]byte(rawKey)); value != nil {
			raw = append([]byte(nil), value...)
		}
		return nil
	}); err != nil {
		return nil, keyv.AdapterError(err)
	}

	if raw == nil {
		return nil, keyv.ErrNotFound
	}

	return keyv.DecodeEnvelope(raw)
}

func (b *boltStore) Set(ctx context.Context, rawKey string, payload []byte, expiresAt *time.Time) error {
	raw, err := keyv.EncodeEnvelope(payload, expiresAt)
	if err != nil {
		return err
	}

	if err := b.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(b.bucket).Put([]byte(rawKey), raw)
	}); err != nil {
		return keyv.AdapterError(err)
	}
	return nil
}

func (b *boltStore) Remove(ctx context.Context, rawKey string) (bool, error) {
	var existed bool
	if err := b.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(b.bucket)
		existed = bucket.Get([]byte(rawKey)) != nil
		return bucket.Delete([]byte(rawKey))
	}); err != nil {
		return false, keyv.AdapterError(err)
	}
	return existed, nil
}

func (b *boltStore) RemoveMany(ctx context.Context, rawKeys []string) (int, error) {
	removed := 0
	if err := b.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(b.bucket)
		for _, rawKey := range rawKeys {
			if bucket.Get([]byte(rawKey)) == nil {
				continue
			}
			if err := bucket.Delete([]byte(rawKey)); err != nil {
				return err
			}
			removed++
		}
		return nil
	}); err != nil {
		return removed, keyv.AdapterError(err)
	}
	return removed, nil
}

func (b *boltStore) Clear(ctx context.Context, prefix string) error {
	if err := b.db.Update(func(tx *bbolt.Tx) error {
		if prefix == "" {
			if err := tx.DeleteBucket(b.bucket); err != nil {
				return err
			}
			_, err := tx.CreateBucket(b.bucket)
			return err
		}

		bucket := tx.Bucket(b.bucket)
		cursor := bucket.Cursor()
		needle := []byte(prefix)

		var stale [][]byte
		for key, _ := cursor.Seek(needle); key != nil && bytes.HasPrefix(key, needle); key, _ = cursor.Next() {
			stale = append(stale, append([]byte(nil), key...))
		}

		for _, key := range stale {
			if err := bucket.Delete(key); err != nil {
				return err
			}
		}
		return nil
	}); err != nil {
		return keyv.AdapterError(err)
	}
	return nil
}

func (b *boltStore) Close() error {
	return b.db.Close()
}
