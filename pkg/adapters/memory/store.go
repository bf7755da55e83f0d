package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/aretw0/flowcanvas/pkg/domain"
)

// Store implements ports.WorkflowStore in memory.
// Safe for concurrent use.
type Store struct {
	data map[string]*domain.Workflow
	mu   sync.RWMutex
}

// NewStore creates a new in-memory store.
func NewStore() *Store {
	return &Store{
		data: make(map[string]*domain.Workflow),
	}
}

// Save persists a deep copy of the workflow.
func (s *Store) Save(ctx context.Context, wf *domain.Workflow) error {
	copied := wf.Clone()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[wf.Name] = copied
	return nil
}

// Load returns a copy so the caller can't mutate store state through the pointer.
func (s *Store) Load(ctx context.Context, name string) (*domain.Workflow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	wf, ok := s.data[name]
	if !ok {
		return nil, domain.ErrWorkflowNotFound
	}
	return wf.Clone(), nil
}

// Delete removes the workflow.
func (s *Store) Delete(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, name)
	return nil
}

// List returns stored workflow names in lexical order.
func (s *Store) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.data))
	for name := range s.data {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}
