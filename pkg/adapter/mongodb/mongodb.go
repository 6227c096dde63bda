// Package mongodb adapts a MongoDB collection as a keyv backend. One
// document per key, with the deadline as a sibling field so an upsert
// replaces payload and expiry together.
package mongodb

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/chrisllontop/keyv-go/pkg/keyv"
)

const (
	// DefaultDatabase is used when no database name is configured.
	DefaultDatabase = "keyv"
	// DefaultCollection is used when no collection name is configured.
	DefaultCollection = "keyv"

	disconnectTimeout = 5 * time.Second
)

type document struct {
	Key       string     `bson:"key"`
	Value     string     `bson:"value"`
	ExpiresAt *time.Time `bson:"expires_at,omitempty"`
}

type mongoStore struct {
	client     *mongo.Client
	collection *mongo.Collection
}

type config struct {
	client     *mongo.Client
	database   string
	collection string
	poolSize   int
}

type Option func(c *config)

// WithClient uses an already connected client; the URI is ignored.
func WithClient(client *mongo.Client) Option {
	return func(c *config) {
		c.client = client
	}
}

// WithDatabase sets the database name (defaults to "keyv").
func WithDatabase(database string) Option {
	return func(c *config) {
		c.database = database
	}
}

// WithCollection sets the collection name (defaults to "keyv").
func WithCollection(collection string) Option {
	return func(c *config) {
		c.collection = collection
	}
}

// WithPoolSize caps the driver's connection pool.
func WithPoolSize(size int) Option {
	return func(c *config) {
		c.poolSize = size
	}
}

func init() {
	keyv.RegisterBackend(keyv.BackendMongo, func(cfg keyv.Config) (keyv.Store, error) {
		var opts []Option
		if cfg.Table != "" {
			opts = append(opts, WithCollection(cfg.Table))
		}
		if cfg.PoolSize > 0 {
			opts = append(opts, WithPoolSize(cfg.PoolSize))
		}
		return New(context.Background(), cfg.URI, opts...)
	})
}

// New connects to the MongoDB at uri (e.g. mongodb://localhost:27017).
func New(ctx context.Context, uri string, opts ...Option) (keyv.Store, error) {
	cfg := config{database: DefaultDatabase, collection: DefaultCollection}
	for _, opt := range opts {
		opt(&cfg)
	}

	client := cfg.client
	if client == nil {
		clientOptions := options.Client().ApplyURI(uri)
		if cfg.poolSize > 0 {
			clientOptions.SetMaxPoolSize(uint64(cfg.poolSize))
		}

		var err error
		client, err = mongo.Connect(ctx, clientOptions)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", keyv.ErrConfig, err)
		}
	}

	store := &mongoStore{
		client:     client,
		collection: client.Database(cfg.database).Collection(cfg.collection),
	}

	_, err := store.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "key", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return nil, keyv.AdapterError(err)
	}

	return store, nil
}

func (m *mongoStore) Get(ctx context.Context, rawKey string) (*keyv.Entry, error) {
	var doc document
	err := m.collection.FindOne(ctx, bson.M{"key": rawKey}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, keyv.ErrNotFound
	}
	if err != nil {
		return nil, keyv.AdapterError(err)
	}

	return &keyv.Entry{Payload: []byte(doc.Value), ExpiresAt: doc.ExpiresAt}, nil
}

func (m *mongoStore) Set(ctx context.Context, rawKey string, payload []byte, expiresAt *time.Time) error {
	doc := document{
		Key:       rawKey,
		Value:     string(payload),
		ExpiresAt: expiresAt,
	}

	_, err := m.collection.ReplaceOne(ctx, bson.M{"key": rawKey}, doc,
		options.Replace().SetUpsert(true))
	if err != nil {
		return keyv.AdapterError(err)
	}
	return nil
}

func (m *mongoStore) Remove(ctx context.Context, rawKey string) (bool, error) {
	result, err := m.collection.DeleteOne(ctx, bson.M{"key": rawKey})
	if err != nil {
		return false, keyv.AdapterError(err)
	}
	return result.DeletedCount > 0, nil
}

func (m *mongoStore) RemoveMany(ctx context.Context, rawKeys []string) (int, error) {
	if len(rawKeys) == 0 {
		return 0, nil
	}

	result, err := m.collection.DeleteMany(ctx, bson.M{"key": bson.M{"$in": rawKeys}})
	if err != nil {
		return 0, keyv.AdapterError(err)
	}
	return int(result.DeletedCount), nil
}

func (m *mongoStore) Clear(ctx context.Context, prefix string) error {
	filter := bson.M{}
	if prefix != "" {
		filter["key"] = primitive.Regex{Pattern: "^" + regexp.QuoteMeta(prefix)}
	}

	if _, err := m.collection.DeleteMany(ctx, filter); err != nil {
		return keyv.AdapterError(err)
	}
	return nil
}

func (m *mongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), disconnectTimeout)
	defer cancel()

	if err := m.client.Disconnect(ctx); err != nil {
		return keyv.AdapterError(err)
	}
	return nil
}
