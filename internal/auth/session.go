// Package auth implements token issuance and the single-slot refresh session
// contract: each identity has at most one live refresh token, every slot write
// is a compare-and-swap, and presenting a rotated-out token is always rejected.
package auth

import (
	"context"
	"errors"
	"time"

	"clipstream/internal/apperr"
)

// ErrSessionConflict is returned by SessionStore.Set when the slot no longer
// holds the expected previous value. Callers treat it as a lost rotation race.
var ErrSessionConflict = errors.New("refresh session slot changed concurrently")

// SessionStore persists the single currently-valid refresh token per identity.
// Set replaces the slot only when its current value equals expectedPrevious;
// an empty expectedPrevious matches only an empty slot.
type SessionStore interface {
	Get(ctx context.Context, identityID string) (token string, ok bool, err error)
	Set(ctx context.Context, identityID, newToken, expectedPrevious string) error
	Clear(ctx context.Context, identityID string) error
}

// Pair bundles a freshly issued access and refresh token.
type Pair struct {
	AccessToken      string
	RefreshToken     string
	AccessExpiresAt  time.Time
	RefreshExpiresAt time.Time
}

// ManagerOption configures a Manager instance.
type ManagerOption func(*Manager)

// WithStore injects a custom SessionStore implementation.
func WithStore(store SessionStore) ManagerOption {
	return func(m *Manager) {
		if store != nil {
			m.store = store
		}
	}
}

// Manager coordinates token issuance and refresh rotation against the session
// store. It defaults to an in-memory store for local development.
type Manager struct {
	tokens *Tokens
	store  SessionStore
}

// NewManager constructs a Manager over the provided token issuer.
func NewManager(tokens *Tokens, opts ...ManagerOption) *Manager {
	m := &Manager{tokens: tokens}
	for _, opt := range opts {
		if opt != nil {
			opt(m)
		}
	}
	if m.store == nil {
		m.store = NewMemorySessionStore()
	}
	return m
}

// Tokens exposes the stateless issuer/verifier for access-token checks.
func (m *Manager) Tokens() *Tokens { return m.tokens }

// Login issues a fresh pair for an already-authenticated identity, replacing
// whatever refresh token was previously current. A login on a new device
// therefore invalidates sessions started elsewhere; this is the platform's
// single-slot contract. The read-then-CAS loop retries when a concurrent
// refresh moves the slot between the read and the swap.
func (m *Manager) Login(ctx context.Context, identityID string) (Pair, error) {
	const attempts = 3
	var lastErr error
	for i := 0; i < attempts; i++ {
		current, _, err := m.store.Get(ctx, identityID)
		if err != nil {
			return Pair{}, apperr.Wrap(apperr.Internal, "read refresh session", err)
		}
		pair, err := m.issuePair(ctx, identityID, current)
		if err == nil {
			return pair, nil
		}
		if !errors.Is(err, ErrSessionConflict) {
			return Pair{}, err
		}
		lastErr = err
	}
	return Pair{}, apperr.Wrap(apperr.Internal, "store refresh session", lastErr)
}

// VerifyRefresh checks the signature and expiry of the presented refresh token
// and then requires it to equal the stored slot value for its subject. A
// well-formed, unexpired token that no longer matches the slot is a replay of
// a rotated-out token and is rejected.
func (m *Manager) VerifyRefresh(ctx context.Context, token string) (string, error) {
	identityID, err := m.tokens.VerifyRefreshSignature(token)
	if err != nil {
		return "", apperr.Wrap(apperr.Unauthorized, "invalid refresh token", err)
	}
	current, ok, err := m.store.Get(ctx, identityID)
	if err != nil {
		return "", apperr.Wrap(apperr.Internal, "read refresh session", err)
	}
	if !ok || current != token {
		return "", apperr.New(apperr.Unauthorized, "stale or reused refresh token")
	}
	return identityID, nil
}

// Refresh rotates the presented refresh token into a new pair. The swap is a
// strict CAS against the just-verified value: when two concurrent refreshes
// race, exactly one wins and the loser is forced to re-authenticate rather
// than silently overwriting the winner's session.
func (m *Manager) Refresh(ctx context.Context, presented string) (string, Pair, error) {
	identityID, err := m.VerifyRefresh(ctx, presented)
	if err != nil {
		return "", Pair{}, err
	}
	pair, err := m.issuePair(ctx, identityID, presented)
	if errors.Is(err, ErrSessionConflict) {
		return "", Pair{}, apperr.New(apperr.Unauthorized, "stale or reused refresh token")
	}
	if err != nil {
		return "", Pair{}, err
	}
	return identityID, pair, nil
}

// Ping reports whether the backing session store is reachable. Stores without
// a liveness check report healthy.
func (m *Manager) Ping(ctx context.Context) error {
	if pinger, ok := m.store.(interface{ Ping(context.Context) error }); ok {
		return pinger.Ping(ctx)
	}
	return nil
}

// Logout clears the identity's refresh slot. Any outstanding refresh token is
// unusable immediately afterward.
func (m *Manager) Logout(ctx context.Context, identityID string) error {
	if err := m.store.Clear(ctx, identityID); err != nil {
		return apperr.Wrap(apperr.Internal, "clear refresh session", err)
	}
	return nil
}

// issuePair mints both tokens and stores the refresh token in the slot as one
// step before returning. The store write is conditional on expectedPrevious.
func (m *Manager) issuePair(ctx context.Context, identityID, expectedPrevious string) (Pair, error) {
	access, accessExp, err := m.tokens.MintAccess(identityID)
	if err != nil {
		return Pair{}, apperr.Wrap(apperr.Internal, "mint access token", err)
	}
	refresh, refreshExp, err := m.tokens.MintRefresh(identityID)
	if err != nil {
		return Pair{}, apperr.Wrap(apperr.Internal, "mint refresh token", err)
	}
	if err := m.store.Set(ctx, identityID, refresh, expectedPrevious); err != nil {
		if errors.Is(err, ErrSessionConflict) {
			return Pair{}, err
		}
		return Pair{}, apperr.Wrap(apperr.Internal, "store refresh session", err)
	}
	return Pair{
		AccessToken:      access,
		RefreshToken:     refresh,
		AccessExpiresAt:  accessExp,
		RefreshExpiresAt: refreshExp,
	}, nil
}
