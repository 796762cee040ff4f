package handlers

import (
	"context"
	"log/slog"
	"sync"

	"github.com/kozaktomas/lora-person/internal/backend"
	"github.com/kozaktomas/lora-person/internal/ingest"
)

// ViewManager keeps one view per person for the lifetime of the console.
type ViewManager struct {
	client ingest.Client
	limits ingest.Limits
	logger *slog.Logger

	views map[int64]*ingest.View
	mu    sync.RWMutex
}

// NewViewManager creates a new view manager.
func NewViewManager(client ingest.Client, limits ingest.Limits, logger *slog.Logger) *ViewManager {
	if logger == nil {
		logger = slog.Default()
	}
	return &ViewManager{
		client: client,
		limits: limits,
		logger: logger,
		views:  make(map[int64]*ingest.View),
	}
}

// Get returns the view of a person, creating an empty one if needed.
func (m *ViewManager) Get(personID int64) *ingest.View {
	m.mu.RLock()
	v, ok := m.views[personID]
	m.mu.RUnlock()
	if ok {
		return v
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if v, ok := m.views[personID]; ok {
		return v
	}
	v = ingest.NewView(m.client, personID, m.limits, m.logger)
	m.views[personID] = v
	return v
}

// Load returns the view of a person, refreshing it first if it has never
// been loaded. Views of persons the backend does not know are dropped.
func (m *ViewManager) Load(ctx context.Context, personID int64) (*ingest.View, error) {
	v := m.Get(personID)
	if v.State().Snapshot != nil {
		return v, nil
	}
	if err := v.Refresh(ctx); err != nil {
		if backend.IsNotFoundError(err) {
			m.Remove(personID)
		}
		return v, err
	}
	return v, nil
}

// Remove drops the view of a person.
func (m *ViewManager) Remove(personID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.views, personID)
}

// Len returns the number of views held.
func (m *ViewManager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.views)
}
