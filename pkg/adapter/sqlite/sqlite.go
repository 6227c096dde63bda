// Package sqlite adapts a SQLite database file as a keyv backend. It uses a
// pure Go driver, so no cgo is required.
package sqlite

import (
	"fmt"

	"github.com/glebarez/sqlite"

	"github.com/chrisllontop/keyv-go/internal/sqlstore"
	"github.com/chrisllontop/keyv-go/pkg/keyv"
)

type config struct {
	table    string
	poolSize int
}

type Option func(c *config)

// WithTable sets the table name (defaults to "keyv").
func WithTable(table string) Option {
	return func(c *config) {
		c.table = table
	}
}

// WithPoolSize caps the open connections.
func WithPoolSize(size int) Option {
	return func(c *config) {
		c.poolSize = size
	}
}

func init() {
	keyv.RegisterBackend(keyv.BackendSQLite, func(cfg keyv.Config) (keyv.Store, error) {
		options := []Option{WithTable(cfg.Table)}
		if cfg.PoolSize > 0 {
			options = append(options, WithPoolSize(cfg.PoolSize))
		}
		return New(cfg.URI, options...)
	})
}

// New opens (or creates) the database at path. Use ":memory:" for an
// ephemeral store.
func New(path string, options ...Option) (keyv.Store, error) {
	var cfg config
	for _, option := range options {
		option(&cfg)
	}

	if path == "" {
		return nil, fmt.Errorf("%w: sqlite path is required", keyv.ErrConfig)
	}

	return sqlstore.New(sqlite.Open(path), cfg.table, cfg.poolSize)
}
