package tracker

import (
	"context"
	"encoding/json"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/gokatarajesh/algotracker/internal/store"
)

// fakeStore wraps the in-memory store with injectable failures and gates that
// hold Get/Set until released.
type fakeStore struct {
	mem *store.MemoryStore

	mu       sync.Mutex
	sets     int
	gets     int
	getErr   error
	setErr   error
	getGates map[string]chan struct{}
	setGate  chan struct{}
}

func newFakeStore() *fakeStore {
	return &fakeStore{mem: store.NewMemoryStore(), getGates: map[string]chan struct{}{}}
}

func (f *fakeStore) Get(ctx context.Context, collection, key string) (store.Snapshot, error) {
	f.mu.Lock()
	f.gets++
	gate, err := f.getGates[key], f.getErr
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}
	if err != nil {
		return store.Snapshot{}, err
	}
	return f.mem.Get(ctx, collection, key)
}

func (f *fakeStore) Set(ctx context.Context, collection, key string, data []byte) error {
	f.mu.Lock()
	f.sets++
	gate, err := f.setGate, f.setErr
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}
	if err != nil {
		return err
	}
	return f.mem.Set(ctx, collection, key, data)
}

func (f *fakeStore) Ping(context.Context) error  { return nil }
func (f *fakeStore) Close(context.Context) error { return nil }

func (f *fakeStore) setCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sets
}

func (f *fakeStore) getCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.gets
}

func (f *fakeStore) failGets(err error) {
	f.mu.Lock()
	f.getErr = err
	f.mu.Unlock()
}

func (f *fakeStore) failSets(err error) {
	f.mu.Lock()
	f.setErr = err
	f.mu.Unlock()
}

func (f *fakeStore) gateGet(slug string) chan struct{} {
	ch := make(chan struct{})
	f.mu.Lock()
	f.getGates[slug] = ch
	f.mu.Unlock()
	return ch
}

func (f *fakeStore) gateSet() chan struct{} {
	ch := make(chan struct{})
	f.mu.Lock()
	f.setGate = ch
	f.mu.Unlock()
	return ch
}

func (f *fakeStore) seed(t *testing.T, slug, doc string) {
	t.Helper()
	require.NoError(t, f.mem.Set(context.Background(), store.CollectionSolvedQuestions, slug, []byte(doc)))
}

func (f *fakeStore) stored(t *testing.T, slug string) []Question {
	t.Helper()
	snap, err := f.mem.Get(context.Background(), store.CollectionSolvedQuestions, slug)
	require.NoError(t, err)
	require.True(t, snap.Exists, "document %s was never written", slug)
	var doc Document
	require.NoError(t, json.Unmarshal(snap.Data, &doc))
	return doc.Questions
}

var testEpoch = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func testOptions() Options {
	return Options{
		StatusClearDelay: time.Hour,
		Clock:            func() time.Time { return testEpoch },
		Logger:           zerolog.Nop(),
	}
}

func loadedList(t *testing.T, fs *fakeStore, slug string, opts Options) *List {
	t.Helper()
	l := NewList(fs, opts)
	_, err := l.Load(context.Background(), slug)
	require.NoError(t, err)
	t.Cleanup(l.Close)
	return l
}

func ids(questions []Question) []int64 {
	out := make([]int64, len(questions))
	for i, q := range questions {
		out[i] = q.ID
	}
	return out
}

// eventLog records observer events in arrival order.
type eventLog struct {
	mu     sync.Mutex
	events []Event
}

func (e *eventLog) observe(ev Event) {
	e.mu.Lock()
	e.events = append(e.events, ev)
	e.mu.Unlock()
}

func (e *eventLog) statuses() []Status {
	e.mu.Lock()
	defer e.mu.Unlock()
	var out []Status
	for _, ev := range e.events {
		if ev.Kind == EventStatus {
			out = append(out, ev.State.Status)
		}
	}
	return out
}

func (e *eventLog) len() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.events)
}

const abcDoc = `{"questions":[
	{"id":1,"problem":"A","difficulty":"easy","createdAt":"2024-01-01T00:00:00.000Z"},
	{"id":2,"problem":"B","difficulty":"medium","createdAt":"2024-01-02T00:00:00.000Z"},
	{"id":3,"problem":"C","difficulty":"hard","createdAt":"2024-01-03T00:00:00.000Z"}
]}`

type recordingRecorder struct {
	mu      sync.Mutex
	ok      []string
	failure []string
}

func (r *recordingRecorder) ObservePersist(slug string, err error, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err != nil {
		r.failure = append(r.failure, slug)
		return
	}
	r.ok = append(r.ok, slug)
}

func (r *recordingRecorder) failed() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.failure...)
}

func itoa(n int64) string {
	return strconv.FormatInt(n, 10)
}
