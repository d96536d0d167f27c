package executor

import (
	"fmt"
	"sync"
)

// ValueStore holds the materialized value of each dataset for one run. A
// dataset is written exactly once, by its producing task; consumers read it
// any number of times. This run-time slot is layered on top of the static
// dataset identity and never leaks back into the graph.
type ValueStore struct {
	mu     sync.RWMutex
	values map[string]interface{}
}

// NewValueStore creates an empty store.
func NewValueStore() *ValueStore {
	return &ValueStore{
		values: make(map[string]interface{}),
	}
}

// Seed pre-populates values, typically for external input datasets that no
// task in the graph produces.
func (s *ValueStore) Seed(values map[string]interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for name, v := range values {
		s.values[name] = v
	}
}

// Put materializes a dataset value. Writing a dataset twice is an error:
// the graph guarantees a single producer, so a second write is a bug.
func (s *ValueStore) Put(dataset string, value interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.values[dataset]; exists {
		return fmt.Errorf("dataset %q already materialized", dataset)
	}
	s.values[dataset] = value
	return nil
}

// Get returns a dataset's materialized value, if present.
func (s *ValueStore) Get(dataset string) (interface{}, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[dataset]
	return v, ok
}

// Len returns the number of materialized datasets.
func (s *ValueStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.values)
}
