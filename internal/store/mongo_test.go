package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type fakeCollection struct {
	docs     map[string]bson.M
	replaced int
}

func (f *fakeCollection) FindOne(_ context.Context, filter interface{}, _ ...*options.FindOneOptions) *mongo.SingleResult {
	id := filter.(bson.M)["_id"].(string)
	doc, ok := f.docs[id]
	if !ok {
		return mongo.NewSingleResultFromDocument(bson.M{}, mongo.ErrNoDocuments, nil)
	}
	return mongo.NewSingleResultFromDocument(doc, nil, nil)
}

func (f *fakeCollection) ReplaceOne(_ context.Context, filter interface{}, replacement interface{}, opts ...*options.ReplaceOptions) (*mongo.UpdateResult, error) {
	id := filter.(bson.M)["_id"].(string)
	f.docs[id] = replacement.(bson.M)
	f.replaced++
	return &mongo.UpdateResult{UpsertedCount: 1}, nil
}

func newFakeMongo() (*MongoStore, *fakeCollection) {
	col := &fakeCollection{docs: map[string]bson.M{}}
	return &MongoStore{collection: func(string) mongoCollection { return col }}, col
}

func TestMongoStoreMissingDocument(t *testing.T) {
	s, _ := newFakeMongo()

	snap, err := s.Get(context.Background(), CollectionSolvedQuestions, "greedy")
	require.NoError(t, err)
	assert.False(t, snap.Exists)
}

func TestMongoStoreRoundTrip(t *testing.T) {
	s, col := newFakeMongo()
	ctx := context.Background()
	doc := `{"questions":[{"id":1700000000000,"problem":"Jump Game","difficulty":"medium"},{"id":1700000000001,"problem":"Gas Station","difficulty":"hard"}]}`

	require.NoError(t, s.Set(ctx, CollectionSolvedQuestions, "greedy", []byte(doc)))
	assert.Equal(t, 1, col.replaced)
	assert.Equal(t, "greedy", col.docs["greedy"]["_id"])

	snap, err := s.Get(ctx, CollectionSolvedQuestions, "greedy")
	require.NoError(t, err)
	assert.True(t, snap.Exists)
	assert.JSONEq(t, doc, string(snap.Data), "_id must be stripped and order preserved")
}

func TestMongoStoreRejectsNonObject(t *testing.T) {
	s, col := newFakeMongo()

	assert.ErrorIs(t, s.Set(context.Background(), "c", "k", []byte(`null`)), ErrInvalidDocument)
	assert.Zero(t, col.replaced)
}
