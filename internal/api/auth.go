package api

import (
	"context"
	"net/http"
	"strings"

	"clipstream/internal/apperr"
)

// Identity is the typed caller identity attached to a request context by the
// auth middleware. It intentionally excludes the password hash and the stored
// refresh token.
type Identity struct {
	ID       string
	Username string
}

type contextKey string

const identityContextKey contextKey = "authenticatedIdentity"

// ContextWithIdentity stores the authenticated identity in the context.
func ContextWithIdentity(ctx context.Context, identity Identity) context.Context {
	return context.WithValue(ctx, identityContextKey, identity)
}

// IdentityFromContext retrieves the authenticated identity if present.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	identity, ok := ctx.Value(identityContextKey).(Identity)
	return identity, ok
}

// ExtractAccessToken pulls a bearer token from the Authorization header,
// falling back to the access cookie.
func ExtractAccessToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
	}
	if cookie, err := r.Cookie(AccessCookieName); err == nil {
		return cookie.Value
	}
	return ""
}

// AuthenticateRequest validates the access token on the request and resolves
// the caller identity. Verification is purely signature and expiry; the
// identity is then re-fetched so callers deleted since issuance are rejected.
func (h *Handler) AuthenticateRequest(r *http.Request) (Identity, error) {
	token := ExtractAccessToken(r)
	if token == "" {
		return Identity{}, apperr.New(apperr.Unauthorized, "missing access token")
	}
	identityID, err := h.Auth.Tokens().VerifyAccess(token)
	if err != nil {
		return Identity{}, apperr.Wrap(apperr.Unauthorized, "invalid or expired access token", err)
	}
	record, ok := h.Store.GetIdentity(identityID)
	if !ok {
		return Identity{}, apperr.New(apperr.Unauthorized, "account no longer exists")
	}
	return Identity{ID: record.ID, Username: record.Username}, nil
}

// requireIdentity reads the identity attached by the middleware, rejecting the
// request when authentication did not happen.
func (h *Handler) requireIdentity(w http.ResponseWriter, r *http.Request) (Identity, bool) {
	identity, ok := IdentityFromContext(r.Context())
	if !ok {
		writeError(w, apperr.New(apperr.Unauthorized, "authentication required"))
		return Identity{}, false
	}
	return identity, true
}

// authorizeOwner is the ownership guard: mutation of a resource is allowed iff
// the caller is its owner. Visibility flags and any other resource state are
// deliberately ignored.
func authorizeOwner(identity Identity, ownerID string) error {
	if identity.ID == "" || identity.ID != ownerID {
		return apperr.New(apperr.Forbidden, "forbidden")
	}
	return nil
}

func (h *Handler) requireOwner(w http.ResponseWriter, r *http.Request, ownerID string) (Identity, bool) {
	identity, ok := h.requireIdentity(w, r)
	if !ok {
		return Identity{}, false
	}
	if err := authorizeOwner(identity, ownerID); err != nil {
		writeError(w, err)
		return Identity{}, false
	}
	return identity, true
}
