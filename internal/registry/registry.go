package registry

import (
	"errors"
	"sync"

	"shiptrack/internal/model"
)

var ErrExists = errors.New("shipment id already registered")

// Registry is the explicitly owned in-memory index of shipments,
// created once at process start and passed to the services that need
// it. Besides the lookup map it owns one lock per shipment id so that
// check-then-append sequences run single-writer per shipment: two
// concurrent status updates must never both be accepted off the same
// stale status read. Readers take the shared side of the same lock, so
// a history render never observes an append in progress.
type Registry struct {
	mu        sync.RWMutex
	shipments map[string]*model.Shipment

	// guards holds *sync.RWMutex per shipment id, created lazily so a
	// shipment constructed outside the registry can still be guarded.
	guards sync.Map
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{shipments: make(map[string]*model.Shipment)}
}

// Put registers a shipment under its id. Identifiers are unique and
// immutable; re-registering an id fails with ErrExists.
func (r *Registry) Put(s *model.Shipment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.shipments[s.ID]; ok {
		return ErrExists
	}
	r.shipments[s.ID] = s
	return nil
}

// Get looks up a shipment by id. Absence is an explicit negative
// result, never a sentinel shipment.
func (r *Registry) Get(id string) (*model.Shipment, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.shipments[id]
	return s, ok
}

// Len reports the number of registered shipments.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.shipments)
}

// Guard acquires the per-shipment write lock for id and returns the
// release function. Cross-shipment operations need no ordering, so
// each id gets its own lock.
func (r *Registry) Guard(id string) func() {
	mu := r.guard(id)
	mu.Lock()
	return mu.Unlock
}

// RGuard acquires the shared read side of the per-shipment lock,
// blocking while a writer holds Guard. Concurrent readers proceed
// together.
func (r *Registry) RGuard(id string) func() {
	mu := r.guard(id)
	mu.RLock()
	return mu.RUnlock
}

func (r *Registry) guard(id string) *sync.RWMutex {
	m, _ := r.guards.LoadOrStore(id, &sync.RWMutex{})
	return m.(*sync.RWMutex)
}
