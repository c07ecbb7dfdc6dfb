package sessions

import (
	"context"
	"encoding/json"
	"sync"
	"time"
)

// Repository provides session persistence operations. Get returns (nil, nil)
// for missing or expired sessions.
type Repository interface {
	Get(ctx context.Context, id string) (*Session, error)
	Save(ctx context.Context, s *Session) error
	Delete(ctx context.Context, id string) error
}

// sweepInterval bounds how often Save scans for expired sessions.
const sweepInterval = time.Minute

type memoryEntry struct {
	data      []byte
	expiresAt time.Time
}

// MemoryRepository keeps sessions in process memory; they are lost on restart.
type MemoryRepository struct {
	mu        sync.Mutex
	store     map[string]memoryEntry
	lastSweep time.Time
	now       func() time.Time
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{store: map[string]memoryEntry{}, now: time.Now}
}

func (e memoryEntry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && now.After(e.expiresAt)
}

// sessions are stored encoded so callers never share the flash maps
func (r *MemoryRepository) Get(_ context.Context, id string) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.store[id]
	if !ok {
		return nil, nil
	}
	if e.expired(r.now().UTC()) {
		delete(r.store, id)
		return nil, nil
	}
	var s Session
	if err := json.Unmarshal(e.data, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *MemoryRepository) Save(_ context.Context, s *Session) error {
	b, err := json.Marshal(s)
	if err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sweep()
	r.store[s.ID] = memoryEntry{data: b, expiresAt: s.ExpiresAt}
	return nil
}

func (r *MemoryRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.store, id)
	return nil
}

// Len reports the number of stored sessions, expired ones included.
func (r *MemoryRepository) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.store)
}

// sweep drops expired sessions at most once per sweepInterval; caller holds mu.
func (r *MemoryRepository) sweep() {
	now := r.now().UTC()
	if now.Sub(r.lastSweep) < sweepInterval {
		return
	}
	r.lastSweep = now
	for id, e := range r.store {
		if e.expired(now) {
			delete(r.store, id)
		}
	}
}
