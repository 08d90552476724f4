// Package api implements the clipstream HTTP handlers: registration, login,
// dual-token refresh rotation, and the owner-guarded CRUD surface for videos,
// comments, posts, and playlists.
package api

import (
	"log/slog"

	"clipstream/internal/auth"
	"clipstream/internal/media"
	"clipstream/internal/storage"
)

// Handler carries the collaborators every endpoint depends on. Stores are
// injected explicitly; nothing here reaches for package-level state.
type Handler struct {
	Store        storage.Repository
	Auth         *auth.Manager
	Media        media.Store
	CookiePolicy TokenCookiePolicy
	Logger       *slog.Logger
}

// NewHandler wires the handler with its collaborators.
func NewHandler(store storage.Repository, manager *auth.Manager, mediaStore media.Store, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		Store:        store,
		Auth:         manager,
		Media:        mediaStore,
		CookiePolicy: DefaultTokenCookiePolicy(),
		Logger:       logger,
	}
}
