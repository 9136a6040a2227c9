package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Default MongoDB locations.
const (
	DefaultMongoDatabase   = "pkgexplorer"
	DefaultMongoCollection = "http_cache"
)

// MongoStore is a shared store keeping one document per key.
// A TTL index on expires_at lets MongoDB purge expired documents; Get also
// checks expiry because the TTL monitor only runs once a minute.
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
	now    func() time.Time
}

type mongoDoc struct {
	Key       string     `bson:"_id"`
	Data      []byte     `bson:"data"`
	StoredAt  time.Time  `bson:"stored_at"`
	ExpiresAt *time.Time `bson:"expires_at,omitempty"`
}

// DialMongo connects to uri, pings the deployment and ensures the TTL index.
func DialMongo(ctx context.Context, uri, database, collection string) (*MongoStore, error) {
	if database == "" {
		database = DefaultMongoDatabase
	}
	if collection == "" {
		collection = DefaultMongoCollection
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("%w: mongo: %v", ErrUnavailable, err)
	}

	s := &MongoStore{
		client: client,
		coll:   client.Database(database).Collection(collection),
		now:    time.Now,
	}
	if err := s.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	return s, nil
}

func (s *MongoStore) ensureIndexes(ctx context.Context) error {
	_, err := s.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "expires_at", Value: 1}},
		Options: options.Index().SetExpireAfterSeconds(0),
	})
	if err != nil {
		return fmt.Errorf("create ttl index: %w", err)
	}
	return nil
}

// Get retrieves a value from MongoDB.
func (s *MongoStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var doc mongoDoc
	err := s.coll.FindOne(ctx, bson.M{"_id": key}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	if doc.ExpiresAt != nil && s.now().After(*doc.ExpiresAt) {
		return nil, false, nil
	}
	return doc.Data, true, nil
}

// Set upserts the document for key.
func (s *MongoStore) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	now := s.now()
	doc := mongoDoc{Key: key, Data: data, StoredAt: now}
	if exp := expiry(now, ttl); !exp.IsZero() {
		doc.ExpiresAt = &exp
	}
	_, err := s.coll.ReplaceOne(ctx, bson.M{"_id": key}, doc, options.Replace().SetUpsert(true))
	return err
}

// Delete removes the document for key.
func (s *MongoStore) Delete(ctx context.Context, key string) error {
	_, err := s.coll.DeleteOne(ctx, bson.M{"_id": key})
	return err
}

// Clear removes every document in the collection.
func (s *MongoStore) Clear(ctx context.Context) (int, error) {
	res, err := s.coll.DeleteMany(ctx, bson.M{})
	if err != nil {
		return 0, err
	}
	return int(res.DeletedCount), nil
}

// Ping checks the deployment.
func (s *MongoStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

// Close disconnects the client.
func (s *MongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

var (
	_ Store   = (*MongoStore)(nil)
	_ Clearer = (*MongoStore)(nil)
	_ Pinger  = (*MongoStore)(nil)
)
