// Package server assembles the HTTP mux, middleware chain, and listener for
// the clipstream API.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"clipstream/internal/api"
	"clipstream/internal/apperr"
	"clipstream/internal/observability/logging"
)

// Config controls the listener and the middleware chain.
type Config struct {
	Addr     string
	MediaDir string
	Logger   *slog.Logger
}

// Server wraps the configured http.Server.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// New wires the route table and middleware around the API handler.
func New(handler *api.Handler, cfg Config) (*Server, error) {
	if handler == nil {
		return nil, fmt.Errorf("api handler is required")
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", handler.Health)

	mux.HandleFunc("/api/v1/users/register", handler.Register)
	mux.HandleFunc("/api/v1/users/login", handler.Login)
	mux.HandleFunc("/api/v1/users/logout", handler.Logout)
	mux.HandleFunc("/api/v1/users/refresh-token", handler.RefreshToken)
	mux.HandleFunc("/api/v1/users/change-password", handler.ChangePassword)
	mux.HandleFunc("/api/v1/users/current-user", handler.CurrentUser)
	mux.HandleFunc("/api/v1/users/update-account", handler.UpdateAccount)
	mux.HandleFunc("/api/v1/users/avatar", handler.UpdateAvatar)
	mux.HandleFunc("/api/v1/users/cover-image", handler.UpdateCoverImage)
	mux.HandleFunc("/api/v1/users/c/", handler.ProfileByID)

	mux.HandleFunc("/api/v1/videos", handler.Videos)
	mux.HandleFunc("/api/v1/videos/", handler.VideoByID)
	mux.HandleFunc("/api/v1/comments/", handler.CommentByID)
	mux.HandleFunc("/api/v1/posts", handler.Posts)
	mux.HandleFunc("/api/v1/posts/", handler.PostByID)
	mux.HandleFunc("/api/v1/playlists", handler.Playlists)
	mux.HandleFunc("/api/v1/playlists/", handler.PlaylistByID)
	mux.HandleFunc("/api/v1/likes/", handler.ToggleLike)
	mux.HandleFunc("/api/v1/subscriptions", handler.Subscriptions)
	mux.HandleFunc("/api/v1/subscriptions/", handler.ToggleSubscription)

	if cfg.MediaDir != "" {
		fileServer := http.FileServer(http.Dir(cfg.MediaDir))
		mux.Handle("/media/", http.StripPrefix("/media/", fileServer))
	}

	handlerChain := http.Handler(mux)
	handlerChain = authMiddleware(handler, handlerChain)
	handlerChain = logging.RequestLogger(logging.RequestLoggerConfig{Logger: cfg.Logger})(handlerChain)

	httpServer := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handlerChain,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	return &Server{httpServer: httpServer, logger: cfg.Logger}, nil
}

// HTTPServer exposes the configured http.Server for the run loop.
func (s *Server) HTTPServer() *http.Server {
	return s.httpServer
}

// Handler exposes the full middleware chain, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

func (s *Server) Start() error {
	if s.httpServer == nil {
		return fmt.Errorf("http server is not configured")
	}
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

// publicPaths answer without any token. Everything else under /api/ needs an
// access token, except the read-only paths below which accept anonymous
// callers and merely enrich the response when a valid token is present.
func isPublicPath(r *http.Request) bool {
	switch r.URL.Path {
	case "/healthz",
		"/api/v1/users/register",
		"/api/v1/users/login",
		"/api/v1/users/refresh-token":
		return true
	}
	return !strings.HasPrefix(r.URL.Path, "/api/")
}

func isOptionalAuthPath(r *http.Request) bool {
	if r.Method != http.MethodGet {
		return false
	}
	path := r.URL.Path
	switch {
	case path == "/api/v1/videos" || strings.HasPrefix(path, "/api/v1/videos/"):
		return true
	case path == "/api/v1/posts" || strings.HasPrefix(path, "/api/v1/posts/"):
		return true
	case path == "/api/v1/playlists" || strings.HasPrefix(path, "/api/v1/playlists/"):
		return true
	case strings.HasPrefix(path, "/api/v1/users/c/"):
		return true
	}
	return false
}

// authMiddleware resolves the caller identity once per request and stores it
// on the context. Handlers never parse tokens themselves.
func authMiddleware(handler *api.Handler, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if isPublicPath(r) {
			next.ServeHTTP(w, r)
			return
		}
		optional := isOptionalAuthPath(r)
		if api.ExtractAccessToken(r) == "" {
			if optional {
				next.ServeHTTP(w, r)
				return
			}
			api.WriteError(w, apperr.New(apperr.Unauthorized, "missing access token"))
			return
		}
		identity, err := handler.AuthenticateRequest(r)
		if err != nil {
			if optional {
				next.ServeHTTP(w, r)
				return
			}
			api.WriteError(w, err)
			return
		}
		ctx := api.ContextWithIdentity(r.Context(), identity)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
