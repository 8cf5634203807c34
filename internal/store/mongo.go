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

type mongoCollection interface {
	FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) *mongo.SingleResult
	ReplaceOne(ctx context.Context, filter interface{}, replacement interface{}, opts ...*options.ReplaceOptions) (*mongo.UpdateResult, error)
}

// MongoStore maps each collection to a Mongo collection and each key to _id.
// Documents are converted between JSON and BSON with relaxed extended JSON.
type MongoStore struct {
	client     *mongo.Client
	collection func(name string) mongoCollection
}

var _ DocumentStore = (*MongoStore)(nil)

// DialMongo connects to uri and verifies the connection.
func DialMongo(ctx context.Context, uri, database string) (*MongoStore, error) {
	if uri == "" {
		return nil, errors.New("mongo uri is empty")
	}
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	db := client.Database(database)
	return &MongoStore{
		client: client,
		collection: func(name string) mongoCollection {
			return db.Collection(name)
		},
	}, nil
}

func (s *MongoStore) Get(ctx context.Context, collection, key string) (Snapshot, error) {
	var raw bson.M
	err := s.collection(collection).FindOne(ctx, bson.M{"_id": key}).Decode(&raw)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return Snapshot{}, nil
	}
	if err != nil {
		return Snapshot{}, fmt.Errorf("mongo find %s/%s: %w", collection, key, err)
	}
	delete(raw, "_id")

	data, err := bson.MarshalExtJSON(raw, false, false)
	if err != nil {
		return Snapshot{}, fmt.Errorf("encode %s/%s as json: %w", collection, key, err)
	}
	return Snapshot{Exists: true, Data: data}, nil
}

func (s *MongoStore) Set(ctx context.Context, collection, key string, data []byte) error {
	if !validObject(data) {
		return ErrInvalidDocument
	}
	var doc bson.M
	if err := bson.UnmarshalExtJSON(data, false, &doc); err != nil {
		return fmt.Errorf("decode %s/%s json: %w", collection, key, err)
	}
	doc["_id"] = key

	opts := options.Replace().SetUpsert(true)
	if _, err := s.collection(collection).ReplaceOne(ctx, bson.M{"_id": key}, doc, opts); err != nil {
		return fmt.Errorf("mongo replace %s/%s: %w", collection, key, err)
	}
	return nil
}

func (s *MongoStore) Ping(ctx context.Context) error {
	if s.client == nil {
		return nil
	}
	return s.client.Ping(ctx, nil)
}

func (s *MongoStore) Close(ctx context.Context) error {
	if s.client == nil {
		return nil
	}
	return s.client.Disconnect(ctx)
}
