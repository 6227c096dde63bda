// Package memory provides the in-memory reference adapter. Besides the lazy
// expiry every backend gets from the client, it runs an active background
// sweep so write-heavy, read-rare workloads do not grow without bound.
package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/chrisllontop/keyv-go/internal/expiry"
	"github.com/chrisllontop/keyv-go/pkg/keyv"
)

// DefaultSweepInterval is how often the background sweep evicts stale
// entries.
const DefaultSweepInterval = 30 * time.Second

type storedEntry struct {
	payload   []byte
	expiresAt *time.Time
}

type memoryStore struct {
	mutex   sync.RWMutex
	entries map[string]storedEntry
	policy  expiry.Policy

	sweepStop chan struct{}
	sweepDone chan struct{}
	closeOnce sync.Once
}

func init() {
	keyv.RegisterBackend(keyv.BackendMemory, func(cfg keyv.Config) (keyv.Store, error) {
		return NewStore(), nil
	})
}

// NewStore creates an in-memory store sweeping at DefaultSweepInterval.
func NewStore() keyv.Store {
	return New(DefaultSweepInterval)
}

// New creates an in-memory store sweeping at the given interval. A
// non-positive interval disables the sweep; stale entries are then removed
// only lazily by the client.
func New(sweepInterval time.Duration) keyv.Store {
	s := &memoryStore{
		entries:   make(map[string]storedEntry),
		sweepStop: make(chan struct{}),
		sweepDone: make(chan struct{}),
	}

	if sweepInterval > 0 {
		go s.sweep(sweepInterval)
	} else {
		close(s.sweepDone)
	}

	return s
}

func (s *memoryStore) Get(ctx context.Context, rawKey string) (*keyv.Entry, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	entry, ok := s.entries[rawKey]
	if !ok {
		return nil, keyv.ErrNotFound
	}

	return &keyv.Entry{
		Payload:   clone(entry.payload),
		ExpiresAt: cloneTime(entry.expiresAt),
	}, nil
}

func (s *memoryStore) Set(ctx context.Context, rawKey string, payload []byte, expiresAt *time.Time) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.entries[rawKey] = storedEntry{
		payload:   clone(payload),
		expiresAt: cloneTime(expiresAt),
	}

	return nil
}

func (s *memoryStore) Remove(ctx context.Context, rawKey string) (bool, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	_, existed := s.entries[rawKey]
	delete(s.entries, rawKey)

	return existed, nil
}

func (s *memoryStore) RemoveMany(ctx context.Context, rawKeys []string) (int, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	removed := 0
	for _, rawKey := range rawKeys {
		if _, existed := s.entries[rawKey]; existed {
			delete(s.entries, rawKey)
			removed++
		}
	}

	return removed, nil
}

func (s *memoryStore) Clear(ctx context.Context, prefix string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if prefix == "" {
		s.entries = make(map[string]storedEntry)
		return nil
	}

	for rawKey := range s.entries {
		if strings.HasPrefix(rawKey, prefix) {
			delete(s.entries, rawKey)
		}
	}

	return nil
}

func (s *memoryStore) Close() error {
	s.closeOnce.Do(func() {
		close(s.sweepStop)
	})

	<-s.sweepDone
	return nil
}

func (s *memoryStore) sweep(interval time.Duration) {
	defer close(s.sweepDone)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.evictStale()

		case <-s.sweepStop:
			return
		}
	}
}

// evictStale snapshots stale keys under the read lock, then removes them
// under the write lock, re-checking each entry so a concurrent overwrite is
// never evicted.
func (s *memoryStore) evictStale() {
	s.mutex.RLock()
	var stale []string
	for rawKey, entry := range s.entries {
		if s.policy.Expired(entry.expiresAt) {
			stale = append(stale, rawKey)
		}
	}
	s.mutex.RUnlock()

	if len(stale) == 0 {
		return
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	for _, rawKey := range stale {
		if entry, ok := s.entries[rawKey]; ok && s.policy.Expired(entry.expiresAt) {
			delete(s.entries, rawKey)
		}
	}
}

func clone(src []byte) []byte {
	if len(src) == 0 {
		return nil
	}
	dst := make([]byte, len(src))
	copy(dst, src)
	return dst
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	copied := *t
	return &copied
}
