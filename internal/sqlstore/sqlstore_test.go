package sqlstore

import (
	"context"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/chrisllontop/keyv-go/pkg/keyv"
)

// sqlRecorder keeps the SQL gorm actually emitted, so the tests can assert
// on statement shape without a live server.
type sqlRecorder struct {
	statements []string
}

func (r *sqlRecorder) LogMode(logger.LogLevel) logger.Interface { return r }

func (r *sqlRecorder) Info(context.Context, string, ...interface{})  {}
func (r *sqlRecorder) Warn(context.Context, string, ...interface{})  {}
func (r *sqlRecorder) Error(context.Context, string, ...interface{}) {}

func (r *sqlRecorder) Trace(_ context.Context, _ time.Time, fc func() (string, int64), _ error) {
	sql, _ := fc()
	r.statements = append(r.statements, sql)
}

func (r *sqlRecorder) last(t *testing.T) string {
	t.Helper()
	require.NotEmpty(t, r.statements)
	return r.statements[len(r.statements)-1]
}

func newRecordedStore(t *testing.T) (*Store, *sqlRecorder) {
	t.Helper()

	recorder := &sqlRecorder{}
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: recorder})
	require.NoError(t, err)

	store, err := NewWithDB(db, "")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	return store, recorder
}

// key is reserved in MySQL, so a condition emitted as a raw "key = ?"
// fragment is a parse error there. The identifier must come out quoted.
func TestConditionsQuoteTheKeyColumn(t *testing.T) {
	store, recorder := newRecordedStore(t)
	ctx := context.Background()

	_, err := store.Get(ctx, "k")
	assert.ErrorIs(t, err, keyv.ErrNotFound)
	assert.Contains(t, recorder.last(t), "`key` = ")
	assert.NotContains(t, recorder.last(t), "WHERE key")

	_, err = store.Remove(ctx, "k")
	require.NoError(t, err)
	assert.Contains(t, recorder.last(t), "`key` = ")

	_, err = store.RemoveMany(ctx, []string{"a", "b"})
	require.NoError(t, err)
	assert.Contains(t, recorder.last(t), "`key` IN ")
}

// The LIKE escape character must not be a backslash: under MySQL's default
// sql_mode a backslash escapes the closing quote of the literal.
func TestClearEmitsAPortableLikeEscape(t *testing.T) {
	store, recorder := newRecordedStore(t)
	ctx := context.Background()

	require.NoError(t, store.Clear(ctx, "a%b:"))

	sql := recorder.last(t)
	assert.Contains(t, sql, "`key` LIKE ")
	assert.Contains(t, sql, "ESCAPE '|'")
	assert.NotContains(t, sql, `\`)
}

func TestEscapeLikeNeutralizesWildcards(t *testing.T) {
	assert.Equal(t, "a|%b", escapeLike("a%b"))
	assert.Equal(t, "a|_b", escapeLike("a_b"))
	assert.Equal(t, "a||b", escapeLike("a|b"))
	assert.Equal(t, "plain", escapeLike("plain"))
}

func TestPoolSizeCapsOpenConnections(t *testing.T) {
	store, err := New(sqlite.Open(":memory:"), "", 3)
	require.NoError(t, err)
	defer store.Close()

	sqlDB, err := store.db.DB()
	require.NoError(t, err)
	assert.Equal(t, 3, sqlDB.Stats().MaxOpenConnections)
}
