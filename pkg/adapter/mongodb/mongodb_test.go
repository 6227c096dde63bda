package mongodb_test

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	mongoadapter "github.com/chrisllontop/keyv-go/pkg/adapter/mongodb"
	"github.com/chrisllontop/keyv-go/pkg/keyv"
)

// Runs against a real server, e.g.
// KEYV_MONGODB_URI=mongodb://localhost:27017 go test ./...
const uriEnv = "KEYV_MONGODB_URI"

type MongoStoreTestSuite struct {
	suite.Suite

	ctx   context.Context
	store keyv.Store
}

func TestMongoStoreTestSuite(t *testing.T) {
	if os.Getenv(uriEnv) == "" {
		t.Skipf("%s not set", uriEnv)
	}
	suite.Run(t, new(MongoStoreTestSuite))
}

func (s *MongoStoreTestSuite) SetupTest() {
	s.ctx = context.Background()

	var err error
	s.store, err = mongoadapter.New(
		s.ctx,
		os.Getenv(uriEnv),
		mongoadapter.WithDatabase("keyv_test"),
		mongoadapter.WithCollection(fmt.Sprintf("keyv_test_%d", time.Now().UnixNano())),
		mongoadapter.WithPoolSize(4),
	)
	s.Require().NoError(err)
}

func (s *MongoStoreTestSuite) TearDownTest() {
	s.NoError(s.store.Clear(s.ctx, ""))
	s.NoError(s.store.Close())
}

func (s *MongoStoreTestSuite) TestGetShouldReturnNotFoundIfKeyDoesNotExist() {
	_, err := s.store.Get(s.ctx, "missing")
	s.ErrorIs(err, keyv.ErrNotFound)
}

func (s *MongoStoreTestSuite) TestSetShouldStorePayloadAndDeadline() {
	deadline := time.Now().Add(time.Hour).UTC()
	s.NoError(s.store.Set(s.ctx, "k", []byte(`"v"`), &deadline))

	entry, err := s.store.Get(s.ctx, "k")
	s.NoError(err)
	s.Equal(`"v"`, string(entry.Payload))
	s.Require().NotNil(entry.ExpiresAt)
	s.WithinDuration(deadline, *entry.ExpiresAt, time.Second)
}

func (s *MongoStoreTestSuite) TestSetShouldUpsert() {
	deadline := time.Now().Add(time.Hour).UTC()
	s.NoError(s.store.Set(s.ctx, "k", []byte(`"v1"`), &deadline))
	s.NoError(s.store.Set(s.ctx, "k", []byte(`"v2"`), nil))

	entry, err := s.store.Get(s.ctx, "k")
	s.NoError(err)
	s.Equal(`"v2"`, string(entry.Payload))
	s.Nil(entry.ExpiresAt)
}

func (s *MongoStoreTestSuite) TestRemoveShouldReportExistence() {
	s.NoError(s.store.Set(s.ctx, "k", []byte(`"v"`), nil))

	removed, err := s.store.Remove(s.ctx, "k")
	s.NoError(err)
	s.True(removed)

	removed, err = s.store.Remove(s.ctx, "k")
	s.NoError(err)
	s.False(removed)
}

func (s *MongoStoreTestSuite) TestRemoveManyShouldCountOnlyExistingKeys() {
	s.NoError(s.store.Set(s.ctx, "a", []byte("1"), nil))
	s.NoError(s.store.Set(s.ctx, "b", []byte("2"), nil))

	count, err := s.store.RemoveMany(s.ctx, []string{"a", "b", "missing"})
	s.NoError(err)
	s.Equal(2, count)
}

func (s *MongoStoreTestSuite) TestClearShouldOnlyAffectPrefix() {
	s.NoError(s.store.Set(s.ctx, "app:a", []byte("1"), nil))
	s.NoError(s.store.Set(s.ctx, "other:a", []byte("2"), nil))

	s.NoError(s.store.Clear(s.ctx, "app:"))

	_, err := s.store.Get(s.ctx, "app:a")
	s.ErrorIs(err, keyv.ErrNotFound)

	entry, err := s.store.Get(s.ctx, "other:a")
	s.NoError(err)
	s.Equal("2", string(entry.Payload))
}

func (s *MongoStoreTestSuite) TestClearShouldEscapeRegexMetacharacters() {
	s.NoError(s.store.Set(s.ctx, "a.b:k", []byte("1"), nil))
	s.NoError(s.store.Set(s.ctx, "aXb:k", []byte("2"), nil))

	s.NoError(s.store.Clear(s.ctx, "a.b:"))

	_, err := s.store.Get(s.ctx, "a.b:k")
	s.ErrorIs(err, keyv.ErrNotFound)

	entry, err := s.store.Get(s.ctx, "aXb:k")
	s.NoError(err)
	s.Equal("2", string(entry.Payload))
}
