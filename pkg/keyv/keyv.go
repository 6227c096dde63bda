package keyv

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/chrisllontop/keyv-go/internal/expiry"
)

const (
	namespaceSeparator = ":"
	lazyRemoveTimeout  = 5 * time.Second
)

// Client is the public entry point: it validates inputs, drives the codec and
// the expiry policy, and delegates raw bytes to the Store. The caller never
// sees the namespaced raw keys.
type Client struct {
	store     Store
	namespace string
	policy    expiry.Policy

	mutex   sync.Mutex
	closed  chan struct{}
	pending sync.WaitGroup
}

type Option func(c *Client)

// WithNamespace prefixes every key with namespace + ":". Two clients with
// distinct namespaces over the same backend never observe each other's keys.
func WithNamespace(namespace string) Option {
	return func(c *Client) {
		c.namespace = namespace
	}
}

// WithDefaultTTL applies ttl to every Set call that does not carry its own.
func WithDefaultTTL(ttl time.Duration) Option {
	return func(c *Client) {
		c.policy.DefaultTTL = ttl
	}
}

// New creates a Client over the given store.
func New(store Store, options ...Option) (*Client, error) {
	if store == nil {
		return nil, fmt.Errorf("%w: nil store", ErrConfig)
	}

	result := &Client{
		store:  store,
		closed: make(chan struct{}),
	}

	for _, option := range options {
		option(result)
	}

	return result, nil
}

// Set stores a value under key, applying the client's default TTL if one is
// configured.
func (c *Client) Set(ctx context.Context, key string, value interface{}) error {
	return c.SetWithTTL(ctx, key, value, 0)
}

// SetWithTTL stores a value under key with the given TTL. A non-positive ttl
// applies the client default; there is no way to force "no expiry" on a
// client constructed with a default TTL.
func (c *Client) SetWithTTL(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if c.isClosed() {
		return ErrClosed
	}

	payload, err := Encode(value)
	if err != nil {
		return err
	}

	return c.store.Set(ctx, c.rawKey(key), payload, c.policy.Deadline(ttl))
}

// Get retrieves the value stored under key and decodes it into dest. It
// returns false for a key that is absent or expired; an expired entry is
// removed best-effort in the background.
func (c *Client) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	payload, found, err := c.fetch(ctx, c.rawKey(key))
	if err != nil || !found {
		return false, err
	}

	if dest != nil {
		if err := Decode(payload, dest); err != nil {
			return false, err
		}
	}

	return true, nil
}

// GetMany retrieves several keys at once. Keys that are absent or expired are
// simply omitted from the result, never an error.
func (c *Client) GetMany(ctx context.Context, keys ...string) (map[string]json.RawMessage, error) {
	result := make(map[string]json.RawMessage, len(keys))

	for _, key := range keys {
		payload, found, err := c.fetch(ctx, c.rawKey(key))
		if err != nil {
			return nil, err
		}
		if found {
			result[key] = json.RawMessage(payload)
		}
	}

	return result, nil
}

// Remove deletes the entry under key, reporting whether one existed.
func (c *Client) Remove(ctx context.Context, key string) (bool, error) {
	if c.isClosed() {
		return false, ErrClosed
	}

	return c.store.Remove(ctx, c.rawKey(key))
}

// RemoveMany deletes several keys, returning the number actually removed.
// The batch is best-effort: on a backend without multi-key atomicity a
// failure mid-batch may leave it partially applied.
func (c *Client) RemoveMany(ctx context.Context, keys ...string) (int, error) {
	if c.isClosed() {
		return 0, ErrClosed
	}

	rawKeys := make([]string, len(keys))
	for i, key := range keys {
		rawKeys[i] = c.rawKey(key)
	}

	return c.store.RemoveMany(ctx, rawKeys)
}

// Clear removes every entry under this client's namespace, never across
// namespaces sharing a backend.
func (c *Client) Clear(ctx context.Context) error {
	if c.isClosed() {
		return ErrClosed
	}

	return c.store.Clear(ctx, c.prefix())
}

// Close waits for in-flight background deletions and closes the store.
func (c *Client) Close() error {
	if closed := c.setClosed(); !closed {
		return nil
	}

	c.pending.Wait()
	return c.store.Close()
}

// GetAs retrieves and decodes the value under key into T.
func GetAs[T any](ctx context.Context, c *Client, key string) (T, bool, error) {
	var value T
	found, err := c.Get(ctx, key, &value)
	return value, found, err
}

func (c *Client) fetch(ctx context.Context, rawKey string) ([]byte, bool, error) {
	if c.isClosed() {
		return nil, false, ErrClosed
	}

	entry, err := c.store.Get(ctx, rawKey)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, false, nil
		}
		return nil, false, err
	}

	if c.policy.Expired(entry.ExpiresAt) {
		c.removeAsync(rawKey)
		return nil, false, nil
	}

	return entry.Payload, true, nil
}

// removeAsync issues a fire-and-forget delete for an entry already known to
// be stale. A failed delete is logged and swallowed: the entry stays
// invisible to readers either way and will be re-evaluated as stale on the
// next access. The pending count only grows under the mutex while the client
// is open, so Close never waits on a counter that is still being added to.
func (c *Client) removeAsync(rawKey string) {
	c.mutex.Lock()
	if c.isClosedWithoutLock() {
		c.mutex.Unlock()
		return
	}
	c.pending.Add(1)
	c.mutex.Unlock()

	go func() {
		defer c.pending.Done()

		ctx, cancel := context.WithTimeout(context.Background(), lazyRemoveTimeout)
		defer cancel()

		if _, err := c.store.Remove(ctx, rawKey); err != nil {
			logrus.WithError(err).WithField("key", rawKey).Warn("failed to remove expired entry")
		}
	}()
}

func (c *Client) rawKey(key string) string {
	return c.prefix() + key
}

func (c *Client) prefix() string {
	if c.namespace == "" {
		return ""
	}
	return c.namespace + namespaceSeparator
}

func (c *Client) setClosed() bool {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if c.isClosedWithoutLock() {
		return false
	}

	close(c.closed)
	return true
}

func (c *Client) isClosed() bool {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	return c.isClosedWithoutLock()
}

func (c *Client) isClosedWithoutLock() bool {
	select {
	case <-c.closed:
		return true

	default:
		return false
	}
}
