package tracker

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"

	"github.com/gokatarajesh/algotracker/internal/store"
)

// SlugSet reports which slugs name a catalog entry.
type SlugSet interface {
	Has(slug string) bool
}

type entry struct {
	list   *List
	ready  chan struct{}
	failed bool
}

// Registry keeps one loaded List per algorithm slug, loading it on first use.
type Registry struct {
	slugs  SlugSet
	store  store.DocumentStore
	opts   Options
	logger zerolog.Logger

	mu      sync.Mutex
	entries map[string]*entry
	closed  bool
}

func NewRegistry(slugs SlugSet, st store.DocumentStore, opts Options) *Registry {
	return &Registry{
		slugs:   slugs,
		store:   st,
		opts:    opts,
		logger:  opts.Logger.With().Str("component", "tracker_registry").Logger(),
		entries: make(map[string]*entry),
	}
}

// Open returns the list for slug, fetching its document the first time. A
// list whose fetch failed is fetched again on the next Open, unless it has
// been edited since.
func (r *Registry) Open(ctx context.Context, slug string) (*List, error) {
	if !r.slugs.Has(slug) {
		return nil, ErrUnknownSlug
	}

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil, ErrClosed
	}
	e, ok := r.entries[slug]
	if !ok {
		e = &entry{list: NewList(r.store, r.opts), ready: make(chan struct{})}
		r.entries[slug] = e
		ready := e.ready
		r.mu.Unlock()
		r.load(ctx, slug, e, ready)
		return e.list, nil
	}
	if e.failed && settled(e.ready) && !e.list.Dirty() {
		e.failed = false
		e.ready = make(chan struct{})
		ready := e.ready
		r.mu.Unlock()
		r.load(ctx, slug, e, ready)
		return e.list, nil
	}
	ready := e.ready
	r.mu.Unlock()

	select {
	case <-ready:
		return e.list, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (r *Registry) load(ctx context.Context, slug string, e *entry, ready chan struct{}) {
	defer close(ready)

	// A shared load must outlive the request that triggered it.
	_, err := e.list.Load(context.WithoutCancel(ctx), slug)
	if err == nil || errors.Is(err, ErrClosed) {
		return
	}
	r.logger.Warn().Err(err).Str("slug", slug).Msg("fetch failed, showing empty list")
	r.mu.Lock()
	e.failed = true
	r.mu.Unlock()
}

func settled(ch chan struct{}) bool {
	select {
	case <-ch:
		return true
	default:
		return false
	}
}

// Shutdown closes every list and waits for in-flight writes or ctx.
func (r *Registry) Shutdown(ctx context.Context) error {
	r.mu.Lock()
	r.closed = true
	lists := make([]*List, 0, len(r.entries))
	for _, e := range r.entries {
		lists = append(lists, e.list)
	}
	r.mu.Unlock()

	for _, l := range lists {
		l.Close()
	}

	done := make(chan struct{})
	go func() {
		for _, l := range lists {
			l.Wait()
		}
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
