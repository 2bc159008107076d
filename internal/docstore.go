package internal

import (
	"context"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// DocumentStore is the bulk-insert sink for normalized reports
type DocumentStore interface {
	Truncate(ctx context.Context, collection string) error
	InsertMany(ctx context.Context, collection string, docs []map[string]interface{}) (int, error)
	Close(ctx context.Context) error
}

// OpenDocumentStore picks a backend from the URI scheme: mongodb:// and
// mongodb+srv:// connect to MongoDB, sqlite://<path> opens a local file.
func OpenDocumentStore(ctx context.Context, uri, database string) (DocumentStore, error) {
	switch {
	case strings.HasPrefix(uri, "mongodb://"), strings.HasPrefix(uri, "mongodb+srv://"):
		return NewMongoStore(ctx, uri, database)
	case strings.HasPrefix(uri, "sqlite://"):
		db, err := OpenDatabase(strings.TrimPrefix(uri, "sqlite://"))
		if err != nil {
			return nil, &StoreError{Op: "connect", Err: err}
		}
		return NewSQLiteStore(db), nil
	case uri == "":
		return nil, &StoreError{Op: "connect", Err: fmt.Errorf("no document store configured (set docstore_uri)")}
	default:
		return nil, &StoreError{Op: "connect", Err: fmt.Errorf("unsupported document store uri %q", uri)}
	}
}

// MongoStore writes documents to a MongoDB database
type MongoStore struct {
	client *mongo.Client
	db     *mongo.Database
}

// NewMongoStore connects and pings the server
func NewMongoStore(ctx context.Context, uri, database string) (*MongoStore, error) {
	if database == "" {
		database = DefaultDocstoreDatabase
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, &StoreError{Op: "connect", Err: err}
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, &StoreError{Op: "connect", Err: err}
	}

	return &MongoStore{client: client, db: client.Database(database)}, nil
}

// Truncate deletes every document in collection
func (s *MongoStore) Truncate(ctx context.Context, collection string) error {
	res, err := s.db.Collection(collection).DeleteMany(ctx, bson.D{})
	if err != nil {
		return &StoreError{Op: "truncate", Collection: collection, Err: err}
	}
	LogDebug("Removed %d document(s) from %s", res.DeletedCount, collection)
	return nil
}

// InsertMany inserts docs and returns how many ids the server assigned
func (s *MongoStore) InsertMany(ctx context.Context, collection string, docs []map[string]interface{}) (int, error) {
	if len(docs) == 0 {
		return 0, nil
	}

	batch := make([]interface{}, len(docs))
	for i, doc := range docs {
		batch[i] = doc
	}

	res, err := s.db.Collection(collection).InsertMany(ctx, batch)
	if err != nil {
		return 0, &StoreError{Op: "insert", Collection: collection, Err: err}
	}
	return len(res.InsertedIDs), nil
}

// Close disconnects from the server
func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}
