package tracker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/gokatarajesh/algotracker/internal/store"
)

const createdAtLayout = "2006-01-02T15:04:05.000Z07:00"

// EventKind distinguishes list content changes from status changes.
type EventKind string

const (
	EventState  EventKind = "state"
	EventStatus EventKind = "status"
)

type Event struct {
	Kind  EventKind
	State State
}

// Observer receives list events. It is called outside the list lock, one
// event at a time, in the order the list changed.
type Observer func(Event)

// Confirmer is the synchronous yes/no gate consulted before a removal.
type Confirmer interface {
	Confirm(ctx context.Context, q Question) bool
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(ctx context.Context, q Question) bool

func (f ConfirmFunc) Confirm(ctx context.Context, q Question) bool { return f(ctx, q) }

// PersistRecorder observes the outcome of every document write.
type PersistRecorder interface {
	ObservePersist(slug string, err error, elapsed time.Duration)
}

type nopRecorder struct{}

func (nopRecorder) ObservePersist(string, error, time.Duration) {}

// Options tune a List. Zero values fall back to defaults.
type Options struct {
	Collection       string
	StatusClearDelay time.Duration
	ReadTimeout      time.Duration
	WriteTimeout     time.Duration
	IDs              *IDGenerator
	Clock            func() time.Time
	Recorder         PersistRecorder
	Observer         Observer
	Logger           zerolog.Logger
}

func (o Options) withDefaults() Options {
	if o.Collection == "" {
		o.Collection = store.CollectionSolvedQuestions
	}
	if o.StatusClearDelay <= 0 {
		o.StatusClearDelay = 2 * time.Second
	}
	if o.ReadTimeout <= 0 {
		o.ReadTimeout = 5 * time.Second
	}
	if o.WriteTimeout <= 0 {
		o.WriteTimeout = 5 * time.Second
	}
	if o.Clock == nil {
		o.Clock = time.Now
	}
	if o.IDs == nil {
		o.IDs = NewIDGenerator(o.Clock)
	}
	if o.Recorder == nil {
		o.Recorder = nopRecorder{}
	}
	return o
}

// List holds the question sequence for the algorithm being viewed. Mutations
// are applied locally first and then written to the store as a whole document
// on a separate goroutine; writes are not ordered relative to each other.
type List struct {
	store  store.DocumentStore
	opts   Options
	logger zerolog.Logger

	mu         sync.Mutex
	slug       string
	generation uint64
	loading    bool
	dirty      bool
	questions  []Question
	status     Status
	closed     bool
	observers  map[int]Observer
	nextObs    int

	// Events are delivered in the order their state was taken under mu.
	emitMu     sync.Mutex
	emitTurn   *sync.Cond
	nextTicket uint64
	turn       uint64

	persists sync.WaitGroup
}

func NewList(st store.DocumentStore, opts Options) *List {
	opts = opts.withDefaults()
	l := &List{
		store:     st,
		opts:      opts,
		logger:    opts.Logger.With().Str("component", "tracker_list").Logger(),
		observers: make(map[int]Observer),
	}
	l.emitTurn = sync.NewCond(&l.emitMu)
	if opts.Observer != nil {
		l.Subscribe(opts.Observer)
	}
	return l
}

// Subscribe registers fn for future events and returns its cancel func.
func (l *List) Subscribe(fn Observer) func() {
	l.mu.Lock()
	id := l.nextObs
	l.nextObs++
	l.observers[id] = fn
	l.mu.Unlock()

	return func() {
		l.mu.Lock()
		delete(l.observers, id)
		l.mu.Unlock()
	}
}

// Load fetches the document for slug and makes it the current list. The
// previous slug's questions are dropped immediately. A missing document is an
// empty list. On fetch failure the list is also empty and the error is
// returned for logging only; the returned state is always usable.
func (l *List) Load(ctx context.Context, slug string) (State, error) {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return State{}, ErrClosed
	}
	l.generation++
	gen := l.generation
	l.slug = slug
	l.loading = true
	l.dirty = false
	l.questions = nil
	state, obs, ticket := l.snapshotLocked(), l.observersLocked(), l.ticketLocked()
	l.mu.Unlock()
	l.deliver(ticket, obs, Event{Kind: EventState, State: state})

	ctx, cancel := context.WithTimeout(ctx, l.opts.ReadTimeout)
	defer cancel()
	questions, fetchErr := l.fetch(ctx, slug)
	if fetchErr != nil {
		questions = []Question{}
	}

	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return State{}, ErrClosed
	}
	if gen != l.generation {
		state := l.snapshotLocked()
		l.mu.Unlock()
		return state, ErrSuperseded
	}
	l.loading = false
	l.questions = questions
	state, obs, ticket = l.snapshotLocked(), l.observersLocked(), l.ticketLocked()
	l.mu.Unlock()
	l.deliver(ticket, obs, Event{Kind: EventState, State: state})

	return state, fetchErr
}

func (l *List) fetch(ctx context.Context, slug string) ([]Question, error) {
	snap, err := l.store.Get(ctx, l.opts.Collection, slug)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", slug, err)
	}
	if !snap.Exists {
		return []Question{}, nil
	}
	var doc Document
	if err := json.Unmarshal(snap.Data, &doc); err != nil {
		return nil, fmt.Errorf("decode %s: %w", slug, err)
	}
	if doc.Questions == nil {
		doc.Questions = []Question{}
	}
	return doc.Questions, nil
}

// Add validates q, assigns it a fresh id and creation time, and appends it.
func (l *List) Add(ctx context.Context, q Question) (Question, State, error) {
	q, err := normalize(q)
	if err != nil {
		return Question{}, l.Snapshot(), err
	}

	var added Question
	state, err := l.apply(ctx, func(current []Question) ([]Question, error) {
		q.ID = l.opts.IDs.Next()
		for indexOf(current, q.ID) >= 0 {
			q.ID = l.opts.IDs.Next()
		}
		q.CreatedAt = l.opts.Clock().UTC().Format(createdAtLayout)
		added = q
		next := make([]Question, 0, len(current)+1)
		next = append(next, current...)
		return append(next, q), nil
	})
	return added, state, err
}

// Edit replaces the question with q.ID in place. The stored id, creation
// time and any unrecognised fields are kept.
func (l *List) Edit(ctx context.Context, q Question) (Question, State, error) {
	q, err := normalize(q)
	if err != nil {
		return Question{}, l.Snapshot(), err
	}

	var edited Question
	state, err := l.apply(ctx, func(current []Question) ([]Question, error) {
		i := indexOf(current, q.ID)
		if i < 0 {
			return nil, fmt.Errorf("%w: id %d", ErrQuestionNotFound, q.ID)
		}
		q.CreatedAt = current[i].CreatedAt
		q.Extra = mergeExtra(current[i].Extra, q.Extra)
		edited = q
		next := slices.Clone(current)
		next[i] = q
		return next, nil
	})
	return edited, state, err
}

// Remove asks confirm before dropping the question with id. A declined
// confirmation leaves the list untouched and reports removed=false.
func (l *List) Remove(ctx context.Context, id int64, confirm Confirmer) (State, bool, error) {
	l.mu.Lock()
	if err := l.usableLocked(); err != nil {
		l.mu.Unlock()
		return State{}, false, err
	}
	i := indexOf(l.questions, id)
	if i < 0 {
		state := l.snapshotLocked()
		l.mu.Unlock()
		return state, false, fmt.Errorf("%w: id %d", ErrQuestionNotFound, id)
	}
	target := l.questions[i]
	l.mu.Unlock()

	if confirm == nil || !confirm.Confirm(ctx, target) {
		return l.Snapshot(), false, nil
	}

	state, err := l.apply(ctx, func(current []Question) ([]Question, error) {
		i := indexOf(current, id)
		if i < 0 {
			return nil, fmt.Errorf("%w: id %d", ErrQuestionNotFound, id)
		}
		return slices.Delete(slices.Clone(current), i, i+1), nil
	})
	if err != nil {
		return state, false, err
	}
	return state, true, nil
}

// Reorder moves one question. A nil destination is a cancelled drag: nothing
// changes and nothing is written.
func (l *List) Reorder(ctx context.Context, from int, to *int) (State, error) {
	if to == nil {
		l.mu.Lock()
		defer l.mu.Unlock()
		if err := l.usableLocked(); err != nil {
			return State{}, err
		}
		return l.snapshotLocked(), nil
	}
	return l.apply(ctx, func(current []Question) ([]Question, error) {
		return Move(current, from, *to)
	})
}

// apply computes the next sequence under the lock, publishes it, and starts
// the whole-document write.
func (l *List) apply(ctx context.Context, mutate func([]Question) ([]Question, error)) (State, error) {
	l.mu.Lock()
	if err := l.usableLocked(); err != nil {
		l.mu.Unlock()
		return State{}, err
	}
	next, err := mutate(l.questions)
	if err != nil {
		state := l.snapshotLocked()
		l.mu.Unlock()
		return state, err
	}
	l.questions = next
	l.dirty = true
	l.status = StatusSaving
	slug := l.slug
	state, obs, ticket := l.snapshotLocked(), l.observersLocked(), l.ticketLocked()
	l.persists.Add(1)
	l.mu.Unlock()

	l.deliver(ticket, obs,
		Event{Kind: EventState, State: state},
		Event{Kind: EventStatus, State: state},
	)

	go l.persist(context.WithoutCancel(ctx), slug, next)
	return state, nil
}

func (l *List) persist(ctx context.Context, slug string, questions []Question) {
	defer l.persists.Done()

	ctx, cancel := context.WithTimeout(ctx, l.opts.WriteTimeout)
	defer cancel()

	start := time.Now()
	data, err := json.Marshal(Document{Questions: questions})
	if err == nil {
		err = l.store.Set(ctx, l.opts.Collection, slug, data)
	}
	l.opts.Recorder.ObservePersist(slug, err, time.Since(start))

	status := StatusSaved
	if err != nil {
		l.logger.Error().Err(err).Str("slug", slug).Int("questions", len(questions)).Msg("failed to save document")
		status = StatusError
	}
	l.setStatus(status)
	time.AfterFunc(l.opts.StatusClearDelay, func() { l.setStatus(StatusIdle) })
}

func (l *List) setStatus(s Status) {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return
	}
	l.status = s
	state, obs, ticket := l.snapshotLocked(), l.observersLocked(), l.ticketLocked()
	l.mu.Unlock()
	l.deliver(ticket, obs, Event{Kind: EventStatus, State: state})
}

// Snapshot returns a copy of the current state.
func (l *List) Snapshot() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.snapshotLocked()
}

// Dirty reports whether the list was mutated since the last load.
func (l *List) Dirty() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.dirty
}

// Close detaches the list from its view. Late fetch and persist completions
// become no-ops and further mutations fail with ErrClosed.
func (l *List) Close() {
	l.mu.Lock()
	l.closed = true
	l.observers = map[int]Observer{}
	l.mu.Unlock()
}

// Wait blocks until every started write has finished.
func (l *List) Wait() {
	l.persists.Wait()
}

func (l *List) usableLocked() error {
	switch {
	case l.closed:
		return ErrClosed
	case l.slug == "":
		return ErrNotLoaded
	case l.loading:
		return ErrLoading
	}
	return nil
}

func (l *List) snapshotLocked() State {
	questions := make([]Question, len(l.questions))
	copy(questions, l.questions)
	return State{
		Slug:      l.slug,
		Loading:   l.loading,
		Questions: questions,
		Status:    l.status,
	}
}

func (l *List) observersLocked() []Observer {
	if len(l.observers) == 0 {
		return nil
	}
	out := make([]Observer, 0, len(l.observers))
	for _, fn := range l.observers {
		out = append(out, fn)
	}
	return out
}

func mergeExtra(stored, incoming map[string]json.RawMessage) map[string]json.RawMessage {
	if len(stored) == 0 {
		return incoming
	}
	out := make(map[string]json.RawMessage, len(stored)+len(incoming))
	for k, v := range stored {
		out[k] = v
	}
	for k, v := range incoming {
		out[k] = v
	}
	return out
}

// ticketLocked reserves the next delivery slot. Every ticket must be passed
// to deliver exactly once.
func (l *List) ticketLocked() uint64 {
	t := l.nextTicket
	l.nextTicket++
	return t
}

// deliver waits for ticket's turn, then calls observers with events. Observers
// must not mutate the list they observe.
func (l *List) deliver(ticket uint64, observers []Observer, events ...Event) {
	l.emitMu.Lock()
	for l.turn != ticket {
		l.emitTurn.Wait()
	}
	l.emitMu.Unlock()

	for _, ev := range events {
		for _, fn := range observers {
			fn(ev)
		}
	}

	l.emitMu.Lock()
	l.turn++
	l.emitTurn.Broadcast()
	l.emitMu.Unlock()
}

// IsClientError reports whether err stems from the caller's input rather
// than the list or store.
func IsClientError(err error) bool {
	var verr *ValidationError
	return errors.As(err, &verr) ||
		errors.Is(err, ErrQuestionNotFound) ||
		errors.Is(err, ErrIndexOutOfRange)
}
