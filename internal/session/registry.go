package session

import (
	"context"
	"sync"

	"github.com/lucaspires-source/authdash/internal/kvstore"
)

// Registry hands out one Manager per browser profile, loading each from its
// scoped slice of the shared store on first use.
type Registry struct {
	kv kvstore.Store

	mu       sync.Mutex
	managers map[string]*Manager

	// OnCreate, when set, runs once for every retained manager.
	OnCreate func(profileID string, m *Manager)
}

func NewRegistry(kv kvstore.Store) *Registry {
	return &Registry{kv: kv, managers: map[string]*Manager{}}
}

// Get returns the retained manager of profileID, loading it on first use.
// The store is read without holding the registry lock; when two requests race
// the first insert wins and the other load is discarded.
func (r *Registry) Get(ctx context.Context, profileID string) (*Manager, error) {
	r.mu.Lock()
	m, ok := r.managers[profileID]
	r.mu.Unlock()
	if ok {
		return m, nil
	}

	loaded, err := r.load(ctx, profileID)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	if m, ok := r.managers[profileID]; ok {
		r.mu.Unlock()
		return m, nil
	}
	r.managers[profileID] = loaded
	r.mu.Unlock()

	if r.OnCreate != nil {
		r.OnCreate(profileID, loaded)
	}
	return loaded, nil
}

// Transient loads a manager for a profile whose cookie has not come back yet.
// It is not retained; writes still reach the store, so a later Get sees them.
func (r *Registry) Transient(ctx context.Context, profileID string) (*Manager, error) {
	return r.load(ctx, profileID)
}

// Len reports how many managers are retained.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.managers)
}

func (r *Registry) load(ctx context.Context, profileID string) (*Manager, error) {
	return NewManager(ctx, NewStore(kvstore.Scoped(r.kv, "profile/"+profileID)))
}
