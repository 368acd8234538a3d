// Package registry keeps live per-client sessions (AR scenes, analyzer
// screens) addressable by a random id. Entries that are not looked up for a
// while can be swept so abandoned screens do not pin memory.
package registry

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

var ErrFull = errors.New("too many active sessions, try again later")

type entry[T any] struct {
	v       T
	touched time.Time
}

type Registry[T any] struct {
	mu    sync.Mutex
	items map[string]*entry[T]
	limit int
	now   func() time.Time
}

func New[T any]() *Registry[T] {
	return &Registry[T]{items: map[string]*entry[T]{}, now: time.Now}
}

// SetLimit caps the number of live entries. Zero means no cap.
func (r *Registry[T]) SetLimit(n int) {
	r.mu.Lock()
	r.limit = n
	r.mu.Unlock()
}

// Add stores v under a fresh id built by mk and returns it. mk is not
// called when the registry is full.
func (r *Registry[T]) Add(mk func(id string) T) (string, T, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.limit > 0 && len(r.items) >= r.limit {
		var zero T
		return "", zero, ErrFull
	}
	id := uuid.NewString()
	v := mk(id)
	r.items[id] = &entry[T]{v: v, touched: r.now()}
	return id, v, nil
}

// Get returns the entry and marks it as used.
func (r *Registry[T]) Get(id string) (T, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.items[id]
	if !ok {
		var zero T
		return zero, false
	}
	e.touched = r.now()
	return e.v, true
}

// Remove deletes and returns the entry, if any.
func (r *Registry[T]) Remove(id string) (T, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.items[id]
	if !ok {
		var zero T
		return zero, false
	}
	delete(r.items, id)
	return e.v, true
}

func (r *Registry[T]) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.items)
}

// Sweep removes every entry unused for at least idle and passes each one to
// evict outside the lock. It returns how many were removed.
func (r *Registry[T]) Sweep(idle time.Duration, evict func(id string, v T)) int {
	type gone struct {
		id string
		v  T
	}
	var out []gone

	r.mu.Lock()
	cutoff := r.now().Add(-idle)
	for id, e := range r.items {
		if !e.touched.After(cutoff) {
			out = append(out, gone{id, e.v})
			delete(r.items, id)
		}
	}
	r.mu.Unlock()

	if evict != nil {
		for _, g := range out {
			evict(g.id, g.v)
		}
	}
	return len(out)
}

// Expire sweeps every interval until ctx is done.
func (r *Registry[T]) Expire(ctx context.Context, every, idle time.Duration, evict func(id string, v T)) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			r.Sweep(idle, evict)
		}
	}
}
