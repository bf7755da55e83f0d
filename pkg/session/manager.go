package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/aretw0/flowcanvas"
	"github.com/aretw0/flowcanvas/internal/logging"
	"github.com/aretw0/flowcanvas/pkg/domain"
	"github.com/aretw0/flowcanvas/pkg/ports"
)

// DefaultLockTTL bounds how long a distributed workspace lock survives a crashed holder.
const DefaultLockTTL = 30 * time.Second

// Factory builds a fresh workspace for an id.
type Factory func(id string) *flowcanvas.Workspace

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// Manager maps workspace ids to live workspaces backed by a WorkflowStore.
// It uses Reference Counting to garbage collect unused locks.
type Manager struct {
	store   ports.WorkflowStore
	factory Factory

	mu    sync.Mutex            // Global lock for the map
	locks map[string]*lockEntry // Map of active locks

	liveMu sync.RWMutex
	live   map[string]*flowcanvas.Workspace

	locker  ports.DistributedLocker // Optional distributed locker
	lockTTL time.Duration
	logger  *slog.Logger
}

// Option configures the Manager.
type Option func(*Manager)

// WithLocker enables distributed locking.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(m *Manager) {
		m.locker = locker
	}
}

// WithLockTTL sets the expiry of distributed locks.
func WithLockTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		m.lockTTL = ttl
	}
}

// WithLogger configures a logger for the Manager.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// WithFactory sets how new workspaces are built.
func WithFactory(f Factory) Option {
	return func(m *Manager) {
		m.factory = f
	}
}

// NewManager creates a new Manager with the given persistence store.
func NewManager(store ports.WorkflowStore, opts ...Option) *Manager {
	m := &Manager{
		store:   store,
		locks:   make(map[string]*lockEntry),
		live:    make(map[string]*flowcanvas.Workspace),
		lockTTL: DefaultLockTTL,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.factory == nil {
		m.factory = func(id string) *flowcanvas.Workspace {
			return flowcanvas.New(id, flowcanvas.WithLogger(m.logger))
		}
	}
	return m
}

// acquire gets or creates a lock entry and increments its reference count.
// The caller MUST Lock the entry.mu, and then call release(id) after unlocking.
func (m *Manager) acquire(id string) *lockEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[id]
	if !exists {
		entry = &lockEntry{}
		m.locks[id] = entry
	}
	entry.refs++
	return entry
}

// release decrements the reference count and deletes the entry if it reaches zero.
func (m *Manager) release(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[id]
	if !exists {
		return
	}
	entry.refs--
	if entry.refs <= 0 {
		delete(m.locks, id)
	}
}

// Get returns the live workspace for id, loading it from the store or creating
// and persisting a fresh one when it does not exist yet.
func (m *Manager) Get(ctx context.Context, id string) (*flowcanvas.Workspace, error) {
	if ws, ok := m.Live(id); ok {
		return ws, nil
	}

	var ws *flowcanvas.Workspace
	err := m.WithLock(ctx, id, func(ctx context.Context) error {
		// Another caller may have won the race while we waited.
		if live, ok := m.Live(id); ok {
			ws = live
			return nil
		}

		wf, err := m.store.Load(ctx, id)
		switch {
		case err == nil:
			ws = m.factory(id)
			ws.LoadWorkflow(wf)
		case errors.Is(err, domain.ErrWorkflowNotFound):
			ws = m.factory(id)
			// Persist immediately to reserve the ID
			if err := m.store.Save(ctx, ws.Workflow()); err != nil {
				return fmt.Errorf("failed to initialize workspace: %w", err)
			}
			m.logger.Info("workspace created", "workspace", id)
		default:
			return fmt.Errorf("failed to load workspace %s: %w", id, err)
		}

		m.liveMu.Lock()
		m.live[id] = ws
		m.liveMu.Unlock()
		return nil
	})
	return ws, err
}

// Live returns the workspace for id only if it is already in memory.
func (m *Manager) Live(id string) (*flowcanvas.Workspace, bool) {
	m.liveMu.RLock()
	defer m.liveMu.RUnlock()
	ws, ok := m.live[id]
	return ws, ok
}

// Save persists the current graph of a live workspace.
func (m *Manager) Save(ctx context.Context, id string) error {
	return m.WithLock(ctx, id, func(ctx context.Context) error {
		ws, ok := m.Live(id)
		if !ok {
			return fmt.Errorf("workspace %s is not open: %w", id, domain.ErrWorkflowNotFound)
		}
		return m.store.Save(ctx, ws.Workflow())
	})
}

// Delete stops any run, forgets the workspace and removes it from the store.
func (m *Manager) Delete(ctx context.Context, id string) error {
	return m.WithLock(ctx, id, func(ctx context.Context) error {
		m.liveMu.Lock()
		ws, ok := m.live[id]
		delete(m.live, id)
		m.liveMu.Unlock()
		if ok {
			ws.Stop()
		}
		return m.store.Delete(ctx, id)
	})
}

// List returns the ids of stored and live workspaces.
func (m *Manager) List(ctx context.Context) ([]string, error) {
	stored, err := m.store.List(ctx)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool, len(stored))
	for _, id := range stored {
		seen[id] = true
	}
	m.liveMu.RLock()
	for id := range m.live {
		seen[id] = true
	}
	m.liveMu.RUnlock()

	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// Store returns the underlying workflow store.
func (m *Manager) Store() ports.WorkflowStore {
	return m.store
}

// Close stops every live run.
func (m *Manager) Close() {
	m.liveMu.RLock()
	defer m.liveMu.RUnlock()
	for _, ws := range m.live {
		ws.Stop()
	}
}

// WithLock executes fn while holding the lock for the workspace.
func (m *Manager) WithLock(ctx context.Context, id string, fn func(context.Context) error) error {
	entry := m.acquire(id)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		m.release(id)
	}()

	if m.locker != nil {
		unlock, err := m.locker.Lock(ctx, id, m.lockTTL)
		if err != nil {
			return fmt.Errorf("failed to acquire distributed lock: %w", err)
		}
		defer func() {
			if err := unlock(ctx); err != nil {
				m.logger.Warn("Failed to release distributed lock (will expire via TTL)",
					"workspace", id,
					"err", err,
				)
			}
		}()
	}

	return fn(ctx)
}
