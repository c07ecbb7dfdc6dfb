package repository

import (
	"context"
	"sync"
	"time"

	"github.com/hopyard/hops/internal/hop"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MemoryRepo is an in-memory repository used for local runs and unit tests.
// Insertion order is kept alongside the map so List is stable.
type MemoryRepo struct {
	mu    sync.RWMutex
	order []primitive.ObjectID
	store map[primitive.ObjectID]*hop.Hop
	now   func() time.Time
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{store: make(map[primitive.ObjectID]*hop.Hop), now: now}
}

func (m *MemoryRepo) Create(_ context.Context, h *hop.Hop) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	h.ID = primitive.NewObjectID()
	h.CreatedAt = m.now()
	h.UpdatedAt = h.CreatedAt
	m.store[h.ID] = h.Clone()
	m.order = append(m.order, h.ID)
	return nil
}

func (m *MemoryRepo) Get(_ context.Context, id primitive.ObjectID) (*hop.Hop, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if h, ok := m.store[id]; ok {
		return h.Clone(), nil
	}
	return nil, hop.ErrNotFound
}

func (m *MemoryRepo) List(_ context.Context) ([]*hop.Hop, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*hop.Hop, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, m.store[id].Clone())
	}
	return out, nil
}

func (m *MemoryRepo) Update(_ context.Context, id primitive.ObjectID, h *hop.Hop) (*hop.Hop, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.store[id]
	if !ok {
		return nil, hop.ErrNotFound
	}
	next := h.Clone()
	next.ID = cur.ID
	next.CreatedAt = cur.CreatedAt
	next.UpdatedAt = touched(m.now(), cur.UpdatedAt)
	m.store[id] = next
	return next.Clone(), nil
}

func (m *MemoryRepo) Delete(_ context.Context, id primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.store[id]; !ok {
		return nil
	}
	delete(m.store, id)
	for i, oid := range m.order {
		if oid == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return nil
}
