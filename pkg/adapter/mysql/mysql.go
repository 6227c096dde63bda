// Package mysql adapts a MySQL database as a keyv backend.
package mysql

import (
	"fmt"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"github.com/chrisllontop/keyv-go/internal/sqlstore"
	"github.com/chrisllontop/keyv-go/pkg/keyv"
)

type config struct {
	db       *gorm.DB
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

// WithDB uses an already opened gorm handle; the DSN is ignored and the
// caller keeps control of the connection pool.
func WithDB(db *gorm.DB) Option {
	return func(c *config) {
		c.db = db
	}
}

// WithPoolSize caps the open connections.
func WithPoolSize(size int) Option {
	return func(c *config) {
		c.poolSize = size
	}
}

func init() {
	keyv.RegisterBackend(keyv.BackendMySQL, func(cfg keyv.Config) (keyv.Store, error) {
		options := []Option{WithTable(cfg.Table)}
		if cfg.PoolSize > 0 {
			options = append(options, WithPoolSize(cfg.PoolSize))
		}
		return New(cfg.URI, options...)
	})
}

// New connects with the given DSN, e.g.
// "user:pass@tcp(localhost:3306)/keyv?parseTime=true".
func New(dsn string, options ...Option) (keyv.Store, error) {
	var cfg config
	for _, option := range options {
		option(&cfg)
	}

	if cfg.db != nil {
		return sqlstore.NewWithDB(cfg.db, cfg.table)
	}

	if dsn == "" {
		return nil, fmt.Errorf("%w: mysql DSN is required", keyv.ErrConfig)
	}

	return sqlstore.New(mysql.Open(dsn), cfg.table, cfg.poolSize)
}
