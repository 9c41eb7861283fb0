package docstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoStore maps the Store interface onto a MongoDB database. Subscribe
// uses change streams, which require the deployment to be a replica set;
// the in-memory backend is the default for single-node setups and tests.
type MongoStore struct {
	client *mongo.Client
	db     *mongo.Database
}

// NewMongoStore connects to uri and returns a store over the named
// database.
func NewMongoStore(ctx context.Context, uri, database string) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	return &MongoStore{client: client, db: client.Database(database)}, nil
}

// Close disconnects the underlying client.
func (s *MongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.client.Disconnect(ctx); err != nil {
		return fmt.Errorf("disconnect mongo: %w", err)
	}
	return nil
}

// Get implements Store.
func (s *MongoStore) Get(ctx context.Context, collection, id string, dest any) error {
	err := s.db.Collection(collection).FindOne(ctx, bson.M{"_id": id}).Decode(dest)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return fmt.Errorf("%w: %s/%s", ErrNotFound, collection, id)
	}
	if err != nil {
		return fmt.Errorf("get %s/%s: %w", collection, id, err)
	}
	return nil
}

// Query implements Store.
func (s *MongoStore) Query(ctx context.Context, collection string, filter Filter, dest any) error {
	match := bson.M{}
	for field, value := range filter {
		match[field] = value
	}
	cursor, err := s.db.Collection(collection).Find(ctx, match, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return fmt.Errorf("query %s: %w", collection, err)
	}
	if err := cursor.All(ctx, dest); err != nil {
		return fmt.Errorf("decode %s query: %w", collection, err)
	}
	return nil
}

// Upsert implements Store.
func (s *MongoStore) Upsert(ctx context.Context, collection, id string, doc any) error {
	_, err := s.db.Collection(collection).ReplaceOne(
		ctx,
		bson.M{"_id": id},
		doc,
		options.Replace().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("upsert %s/%s: %w", collection, id, err)
	}
	return nil
}

// Subscribe implements Store via a change stream on the collection. The
// filter is applied to the post-image of each change; fn runs on every
// matching change until cancel is called.
func (s *MongoStore) Subscribe(ctx context.Context, collection string, filter Filter, fn OnChange) (CancelFunc, error) {
	match := bson.D{}
	for field, value := range filter {
		match = append(match, bson.E{Key: "fullDocument." + field, Value: value})
	}
	pipeline := mongo.Pipeline{}
	if len(match) > 0 {
		pipeline = append(pipeline, bson.D{{Key: "$match", Value: match}})
	}

	streamCtx, cancelStream := context.WithCancel(ctx)
	stream, err := s.db.Collection(collection).Watch(
		streamCtx,
		pipeline,
		options.ChangeStream().SetFullDocument(options.UpdateLookup),
	)
	if err != nil {
		cancelStream()
		return nil, fmt.Errorf("watch %s: %w", collection, err)
	}

	go func() {
		defer func() { _ = stream.Close(context.Background()) }()
		for stream.Next(streamCtx) {
			fn(streamCtx)
		}
	}()

	return CancelFunc(cancelStream), nil
}
