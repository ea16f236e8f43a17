package state

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrSessionNotFound is returned when a session ID is unknown or expired.
var ErrSessionNotFound = errors.New("session not found")

// Store persists session state by session ID.
type Store interface {
	Get(ctx context.Context, id string) (State, error)
	Put(ctx context.Context, id string, s State) error
	Delete(ctx context.Context, id string) error
	// PurgeExpired deletes sessions not updated since olderThan and returns
	// how many were removed.
	PurgeExpired(ctx context.Context, olderThan time.Time) (int64, error)
}

// NewSessionID returns a fresh random session ID.
func NewSessionID() string {
	return uuid.NewString()
}

// ValidSessionID reports whether id has the shape NewSessionID produces.
func ValidSessionID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// Update loads the session, applies a, stores and returns the result.
// An unknown session starts from the zero State.
func Update(ctx context.Context, store Store, id string, a Action) (State, error) {
	cur, err := store.Get(ctx, id)
	if err != nil && !errors.Is(err, ErrSessionNotFound) {
		return State{}, err
	}
	next := Reduce(cur, a)
	if err := store.Put(ctx, id, next); err != nil {
		return State{}, err
	}
	return next, nil
}

// MemoryStore is an in-process Store. It is the default when no database
// is configured.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]State
	now      func() time.Time
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]State),
		now:      time.Now,
	}
}

func (m *MemoryStore) Get(_ context.Context, id string) (State, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.sessions[id]
	if !ok {
		return State{}, ErrSessionNotFound
	}
	return s, nil
}

func (m *MemoryStore) Put(_ context.Context, id string, s State) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s.UpdatedAt = m.now()
	m.sessions[id] = s
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.sessions, id)
	return nil
}

func (m *MemoryStore) PurgeExpired(_ context.Context, olderThan time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var n int64
	for id, s := range m.sessions {
		if s.UpdatedAt.Before(olderThan) {
			delete(m.sessions, id)
			n++
		}
	}
	return n, nil
}

// Len returns the number of stored sessions.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
