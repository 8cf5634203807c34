// Package store provides whole-document persistence keyed by collection and
// document key. Documents are exchanged as JSON objects; every Set replaces
// the stored document outright.
package store

import (
	"context"
	"errors"
)

// CollectionSolvedQuestions holds one document per algorithm slug.
const CollectionSolvedQuestions = "solved_questions"

// ErrInvalidDocument is returned when a document payload is not a JSON object.
var ErrInvalidDocument = errors.New("document must be a JSON object")

// Snapshot is the result of reading a single document.
// A missing document has Exists == false and nil Data.
type Snapshot struct {
	Exists bool
	Data   []byte
}

// DocumentStore abstracts the hosted document database.
// Implementations: RedisStore, PostgresStore, MongoStore, MemoryStore.
type DocumentStore interface {
	Get(ctx context.Context, collection, key string) (Snapshot, error)
	Set(ctx context.Context, collection, key string, data []byte) error
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

func validObject(data []byte) bool {
	for _, b := range data {
		switch b {
		case ' ', '\t', '\r', '\n':
			continue
		case '{':
			return true
		default:
			return false
		}
	}
	return false
}
