package keyv

import (
	"fmt"
	"sync"
)

// StoreFactory builds a Store from shared construction parameters.
type StoreFactory func(cfg Config) (Store, error)

var (
	factoryMutex sync.RWMutex
	factories    = make(map[string]StoreFactory)
)

// RegisterBackend makes a backend available to Open. Adapter packages call
// this from init; importing an adapter is what enables its backend name.
func RegisterBackend(backend string, factory StoreFactory) {
	factoryMutex.Lock()
	defer factoryMutex.Unlock()

	factories[backend] = factory
}

// Open validates cfg and builds the Store registered under cfg.Backend.
func Open(cfg Config) (Store, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	factoryMutex.RLock()
	factory, ok := factories[cfg.Backend]
	factoryMutex.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: backend %q is not registered (missing adapter import?)", ErrConfig, cfg.Backend)
	}

	return factory(cfg)
}
