// Package sqlstore is the relational row store shared by the sqlite and
// mysql adapters. The deadline lives in its own column, so payload and expiry
// are replaced together by a single upsert.
package sqlstore

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/chrisllontop/keyv-go/pkg/keyv"
)

// DefaultTable is used when no table name is configured.
const DefaultTable = "keyv"

// Row is the persisted shape of an entry.
type Row struct {
	Key       string     `gorm:"column:key;primaryKey;size:255"`
	Value     string     `gorm:"column:value;not null"`
	ExpiresAt *time.Time `gorm:"column:expires_at"`
}

type Store struct {
	db    *gorm.DB
	table string
}

// New opens the dialector, ensures the table exists and returns a Store. A
// positive poolSize caps the open connections.
func New(dialector gorm.Dialector, table string, poolSize int) (*Store, error) {
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, keyv.AdapterError(err)
	}

	if poolSize > 0 {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, keyv.AdapterError(err)
		}
		sqlDB.SetMaxOpenConns(poolSize)
	}

	return NewWithDB(db, table)
}

// NewWithDB wraps an existing gorm handle, for callers that manage their own
// connection pool.
func NewWithDB(db *gorm.DB, table string) (*Store, error) {
	if table == "" {
		table = DefaultTable
	}

	store := &Store{db: db, table: table}
	if err := db.Table(table).AutoMigrate(&Row{}); err != nil {
		return nil, keyv.AdapterError(err)
	}

	return store, nil
}

func (s *Store) Get(ctx context.Context, rawKey string) (*keyv.Entry, error) {
	var row Row
	err := s.session(ctx).Where(keyEquals(rawKey)).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, keyv.ErrNotFound
	}
	if err != nil {
		return nil, keyv.AdapterError(err)
	}

	return &keyv.Entry{
		Payload:   []byte(row.Value),
		ExpiresAt: row.ExpiresAt,
	}, nil
}

func (s *Store) Set(ctx context.Context, rawKey string, payload []byte, expiresAt *time.Time) error {
	row := Row{
		Key:       rawKey,
		Value:     string(payload),
		ExpiresAt: expiresAt,
	}

	err := s.session(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "expires_at"}),
	}).Create(&row).Error
	if err != nil {
		return keyv.AdapterError(err)
	}

	return nil
}

func (s *Store) Remove(ctx context.Context, rawKey string) (bool, error) {
	result := s.session(ctx).Where(keyEquals(rawKey)).Delete(&Row{})
	if result.Error != nil {
		return false, keyv.AdapterError(result.Error)
	}

	return result.RowsAffected > 0, nil
}

func (s *Store) RemoveMany(ctx context.Context, rawKeys []string) (int, error) {
	if len(rawKeys) == 0 {
		return 0, nil
	}

	result := s.session(ctx).Where(keyIn(rawKeys)).Delete(&Row{})
	if result.Error != nil {
		return 0, keyv.AdapterError(result.Error)
	}

	return int(result.RowsAffected), nil
}

func (s *Store) Clear(ctx context.Context, prefix string) error {
	query := s.session(ctx)
	if prefix == "" {
		query = query.Session(&gorm.Session{AllowGlobalUpdate: true})
	} else {
		// MySQL's default sql_mode treats a backslash inside a string literal
		// as an escape, so the LIKE escape character must be something else.
		query = query.Where(clause.Expr{
			SQL:  "? LIKE ? ESCAPE '|'",
			Vars: []interface{}{clause.Column{Name: "key"}, escapeLike(prefix) + "%"},
		})
	}

	if err := query.Delete(&Row{}).Error; err != nil {
		return keyv.AdapterError(err)
	}
	return nil
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return keyv.AdapterError(err)
	}
	return sqlDB.Close()
}

func (s *Store) session(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx).Table(s.table)
}

// key is a reserved word in MySQL; conditions go through clause builders so
// the dialect quotes the identifier.
func keyEquals(rawKey string) clause.Expression {
	return clause.Eq{Column: clause.Column{Name: "key"}, Value: rawKey}
}

func keyIn(rawKeys []string) clause.Expression {
	values := make([]interface{}, len(rawKeys))
	for i, rawKey := range rawKeys {
		values[i] = rawKey
	}
	return clause.IN{Column: clause.Column{Name: "key"}, Values: values}
}

var likeEscaper = strings.NewReplacer("|", "||", "%", "|%", "_", "|_")

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
