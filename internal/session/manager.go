package session

import (
	"context"
	"sync"

	"github.com/lucaspires-source/authdash/internal/directory"
)

// Manager owns the in-memory session of one profile. It performs no network
// calls; callers verify credentials before Login.
type Manager struct {
	store *Store

	// writeMu serializes a store write with the memory update that follows it.
	writeMu sync.Mutex

	mu      sync.RWMutex
	current Session
	subs    map[int]func(Session)
	nextSub int
}

// NewManager loads the persisted session from store.
func NewManager(ctx context.Context, store *Store) (*Manager, error) {
	cur, err := store.Get(ctx)
	if err != nil {
		return nil, err
	}
	return &Manager{store: store, current: cur, subs: map[int]func(Session){}}, nil
}

func (m *Manager) Store() *Store {
	return m.store
}

// Current returns a copy of the in-memory session.
func (m *Manager) Current() Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return clone(m.current)
}

// Login persists token and user, updates memory and notifies subscribers
// before returning.
func (m *Manager) Login(ctx context.Context, token string, user *directory.UserProfile) error {
	if token == "" {
		return ErrEmptyToken
	}
	next := clone(Session{Token: token, User: user})
	m.writeMu.Lock()
	if err := m.store.Set(ctx, next); err != nil {
		m.writeMu.Unlock()
		return err
	}
	m.mu.Lock()
	m.current = next
	m.mu.Unlock()
	m.writeMu.Unlock()
	m.notify(next)
	return nil
}

// Logout clears store and memory and notifies subscribers.
func (m *Manager) Logout(ctx context.Context) error {
	m.writeMu.Lock()
	if err := m.store.Clear(ctx); err != nil {
		m.writeMu.Unlock()
		return err
	}
	m.mu.Lock()
	m.current = Session{}
	m.mu.Unlock()
	m.writeMu.Unlock()
	m.notify(Session{})
	return nil
}

// Subscribe registers fn for every later change. The returned func removes it.
func (m *Manager) Subscribe(fn func(Session)) (unsubscribe func()) {
	m.mu.Lock()
	id := m.nextSub
	m.nextSub++
	m.subs[id] = fn
	m.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			m.mu.Lock()
			delete(m.subs, id)
			m.mu.Unlock()
		})
	}
}

// notify runs outside the lock so subscribers may call back into the manager.
func (m *Manager) notify(s Session) {
	m.mu.RLock()
	fns := make([]func(Session), 0, len(m.subs))
	for _, fn := range m.subs {
		fns = append(fns, fn)
	}
	m.mu.RUnlock()
	for _, fn := range fns {
		fn(clone(s))
	}
}

func clone(s Session) Session {
	if s.User != nil {
		u := *s.User
		s.User = &u
	}
	return s
}
