package memstore

import (
	"context"
	"errors"
	"maps"
	"sync"

	"github.com/AntonStoeckl/versionhistory-go/versionhistory"
)

var ErrIdentityNotAssigned = errors.New("persisted entity still has no identity")

// EntityStore is an in-memory versionhistory.EntityStore[E].
//
// Entities are stored by value: with a pointer type E, callers must not mutate a persisted entity
// in place, or classification compares the entity with itself.
type EntityStore[E any] struct {
	mu             sync.Mutex
	entities       map[string]E
	identify       func(E) (string, bool)
	assignIdentity func(E) E
	loadErr        error
	persistErr     error
	removeErr      error
	persistCalls   int
	removeCalls    int
}

// NewEntityStore creates an EntityStore. identify extracts the identity of an entity,
// assignIdentity returns a copy of a new entity with its identity set.
func NewEntityStore[E any](identify func(E) (string, bool), assignIdentity func(E) E) *EntityStore[E] {
	return &EntityStore[E]{
		entities:       make(map[string]E),
		identify:       identify,
		assignIdentity: assignIdentity,
	}
}

// Load implements versionhistory.EntityStore.
func (s *EntityStore[E]) Load(_ context.Context, id string) (E, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var empty E

	if s.loadErr != nil {
		return empty, s.loadErr
	}

	entity, ok := s.entities[id]
	if !ok {
		return empty, versionhistory.ErrEntityNotFound
	}

	return entity, nil
}

// Persist implements versionhistory.EntityStore. New entities get their identity assigned.
func (s *EntityStore[E]) Persist(_ context.Context, entity E) (E, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var empty E

	s.persistCalls++

	if s.persistErr != nil {
		return empty, s.persistErr
	}

	id, ok := s.identify(entity)
	if !ok {
		entity = s.assignIdentity(entity)

		if id, ok = s.identify(entity); !ok {
			return empty, ErrIdentityNotAssigned
		}
	}

	s.entities[id] = entity

	return entity, nil
}

// Remove implements versionhistory.EntityStore.
func (s *EntityStore[E]) Remove(_ context.Context, entity E) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.removeCalls++

	if s.removeErr != nil {
		return s.removeErr
	}

	id, ok := s.identify(entity)
	if !ok {
		return versionhistory.ErrMissingEntityIdentity
	}

	delete(s.entities, id)

	return nil
}

// Checkpoint implements Participant.
func (s *EntityStore[E]) Checkpoint() func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	saved := maps.Clone(s.entities)

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()

		s.entities = saved
	}
}

// FailLoadWith makes all following Load calls fail with err; nil heals the store.
func (s *EntityStore[E]) FailLoadWith(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.loadErr = err
}

// FailPersistWith makes all following Persist calls fail with err; nil heals the store.
func (s *EntityStore[E]) FailPersistWith(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.persistErr = err
}

// FailRemoveWith makes all following Remove calls fail with err; nil heals the store.
func (s *EntityStore[E]) FailRemoveWith(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.removeErr = err
}

// Get returns the stored entity with the given identity.
func (s *EntityStore[E]) Get(id string) (E, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entity, ok := s.entities[id]

	return entity, ok
}

// Count returns the number of stored entities.
func (s *EntityStore[E]) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.entities)
}

// PersistCalls returns how often Persist was called.
func (s *EntityStore[E]) PersistCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.persistCalls
}

// RemoveCalls returns how often Remove was called.
func (s *EntityStore[E]) RemoveCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.removeCalls
}

// Compile-time check to ensure EntityStore implements Participant.
var _ Participant = (*EntityStore[struct{}])(nil)
