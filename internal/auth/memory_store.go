package auth

import (
	"context"
	"sync"
	"time"
)

type sessionSlot struct {
	Token    string
	IssuedAt time.Time
}

// MemorySessionStore keeps refresh slots in-memory. It is safe for concurrent
// use and primarily intended for development or single-instance deployments.
type MemorySessionStore struct {
	mu    sync.Mutex
	slots map[string]sessionSlot
}

// NewMemorySessionStore constructs an in-memory store implementation.
func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{slots: make(map[string]sessionSlot)}
}

// Get returns the current refresh token for the identity, if any.
func (s *MemorySessionStore) Get(_ context.Context, identityID string) (string, bool, error) {
	s.mu.Lock()
	slot, ok := s.slots[identityID]
	s.mu.Unlock()
	if !ok || slot.Token == "" {
		return "", false, nil
	}
	return slot.Token, true, nil
}

// Set swaps the slot to newToken only when it currently holds expectedPrevious.
func (s *MemorySessionStore) Set(_ context.Context, identityID, newToken, expectedPrevious string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	current := s.slots[identityID].Token
	if current != expectedPrevious {
		return ErrSessionConflict
	}
	s.slots[identityID] = sessionSlot{Token: newToken, IssuedAt: time.Now().UTC()}
	return nil
}

// Clear empties the identity's slot.
func (s *MemorySessionStore) Clear(_ context.Context, identityID string) error {
	s.mu.Lock()
	delete(s.slots, identityID)
	s.mu.Unlock()
	return nil
}

// Ping always reports success for the in-memory session store.
func (s *MemorySessionStore) Ping(context.Context) error {
	return nil
}
