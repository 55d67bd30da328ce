package report

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/matzehuels/dcmdict/pkg/dictionary"
	"github.com/matzehuels/dcmdict/pkg/errors"
)

// Collection names written by [MongoSink].
const (
	CollectionSops       = "sop_classes"
	CollectionIods       = "iods"
	CollectionModules    = "modules"
	CollectionAttributes = "attributes"
)

// collection is the part of *mongo.Collection the sink uses.
type collection interface {
	DeleteMany(ctx context.Context, filter interface{}, opts ...*options.DeleteOptions) (*mongo.DeleteResult, error)
	InsertMany(ctx context.Context, documents []interface{}, opts ...*options.InsertManyOptions) (*mongo.InsertManyResult, error)
}

// MongoSink stores exports in a MongoDB database, one collection per kind
// of record. Each export replaces the previous content of the collections.
type MongoSink struct {
	client     *mongo.Client
	collection func(name string) collection
}

// NewMongoSink connects to the MongoDB deployment at uri and verifies the
// connection. Close releases it.
func NewMongoSink(ctx context.Context, uri, database string) (*MongoSink, error) {
	if database == "" {
		return nil, errors.New(errors.ErrCodeInvalidInput, "MongoDB database name cannot be empty")
	}
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeNetwork, err, "connect to MongoDB")
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, errors.Wrap(errors.ErrCodeNetwork, err, "ping MongoDB")
	}
	db := client.Database(database)
	return &MongoSink{
		client:     client,
		collection: func(name string) collection { return db.Collection(name) },
	}, nil
}

// ExportStats counts the documents written per collection.
type ExportStats map[string]int

// Export replaces the collections with the normalized export of f.
func (s *MongoSink) Export(ctx context.Context, f *dictionary.Filtered) (ExportStats, error) {
	exp := NewExport(f)
	batches := []struct {
		name string
		docs []interface{}
	}{
		{CollectionSops, documents(exp.Sops)},
		{CollectionIods, documents(exp.Iods)},
		{CollectionModules, documents(exp.Modules)},
		{CollectionAttributes, documents(exp.Attributes)},
	}

	stats := make(ExportStats, len(batches))
	for _, batch := range batches {
		coll := s.collection(batch.name)
		if _, err := coll.DeleteMany(ctx, bson.D{}); err != nil {
			return stats, errors.Wrap(errors.ErrCodeNetwork, err, "clear collection %s", batch.name)
		}
		if len(batch.docs) > 0 {
			if _, err := coll.InsertMany(ctx, batch.docs); err != nil {
				return stats, errors.Wrap(errors.ErrCodeNetwork, err, "insert into collection %s", batch.name)
			}
		}
		stats[batch.name] = len(batch.docs)
	}
	return stats, nil
}

// Close disconnects from the deployment.
func (s *MongoSink) Close(ctx context.Context) error {
	if s.client == nil {
		return nil
	}
	return s.client.Disconnect(ctx)
}

func documents[T any](records []T) []interface{} {
	docs := make([]interface{}, len(records))
	for i, r := range records {
		docs[i] = r
	}
	return docs
}
