// Command server starts the clipstream API HTTP service.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/caarlos0/env/v11"

	"clipstream/internal/api"
	"clipstream/internal/auth"
	"clipstream/internal/media"
	"clipstream/internal/observability/logging"
	"clipstream/internal/server"
	"clipstream/internal/serverutil"
	"clipstream/internal/storage"
)

type config struct {
	Addr     string `env:"CLIPSTREAM_ADDR" envDefault:":8080"`
	DataPath string `env:"CLIPSTREAM_DATA" envDefault:"clipstream.json"`
	MediaDir string `env:"CLIPSTREAM_MEDIA_DIR" envDefault:"media"`

	AccessSecret  string        `env:"CLIPSTREAM_ACCESS_TOKEN_SECRET"`
	RefreshSecret string        `env:"CLIPSTREAM_REFRESH_TOKEN_SECRET"`
	AccessTTL     time.Duration `env:"CLIPSTREAM_ACCESS_TOKEN_TTL" envDefault:"1h"`
	RefreshTTL    time.Duration `env:"CLIPSTREAM_REFRESH_TOKEN_TTL" envDefault:"168h"`

	SessionStore string `env:"CLIPSTREAM_SESSION_STORE" envDefault:"memory"`

	RedisAddr     string `env:"CLIPSTREAM_SESSION_REDIS_ADDR"`
	RedisUsername string `env:"CLIPSTREAM_SESSION_REDIS_USERNAME"`
	RedisPassword string `env:"CLIPSTREAM_SESSION_REDIS_PASSWORD"`
	RedisDB       int    `env:"CLIPSTREAM_SESSION_REDIS_DB"`

	PostgresDSN string `env:"CLIPSTREAM_SESSION_POSTGRES_DSN"`

	CookieSecureAlways bool `env:"CLIPSTREAM_COOKIE_SECURE_ALWAYS"`

	LogLevel  string `env:"CLIPSTREAM_LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"CLIPSTREAM_LOG_FORMAT" envDefault:"json"`
}

func main() {
	var cfg config
	if err := env.Parse(&cfg); err != nil {
		fmt.Fprintln(os.Stderr, "parse environment:", err)
		os.Exit(1)
	}

	addr := flag.String("addr", cfg.Addr, "HTTP listen address")
	dataPath := flag.String("data", cfg.DataPath, "path to JSON datastore (empty keeps data in memory)")
	mediaDir := flag.String("media-dir", cfg.MediaDir, "directory for uploaded media files")
	sessionDriver := flag.String("session-store", cfg.SessionStore, "session store driver (memory, redis, or postgres)")
	logLevel := flag.String("log-level", cfg.LogLevel, "log level (debug, info, warn, error)")
	logFormat := flag.String("log-format", cfg.LogFormat, "log format (json or text)")
	flag.Parse()

	logger := logging.Init(logging.Config{Level: *logLevel, Format: *logFormat})

	if cfg.AccessSecret == "" || cfg.RefreshSecret == "" {
		logger.Error("CLIPSTREAM_ACCESS_TOKEN_SECRET and CLIPSTREAM_REFRESH_TOKEN_SECRET are required")
		os.Exit(1)
	}

	tokens, err := auth.NewTokens(auth.TokenConfig{
		AccessSecret:  []byte(cfg.AccessSecret),
		RefreshSecret: []byte(cfg.RefreshSecret),
		AccessTTL:     cfg.AccessTTL,
		RefreshTTL:    cfg.RefreshTTL,
	})
	if err != nil {
		logger.Error("failed to configure tokens", "error", err)
		os.Exit(1)
	}

	store, err := storage.NewJSONRepository(*dataPath)
	if err != nil {
		logger.Error("failed to open datastore", "error", err)
		os.Exit(1)
	}

	bootCtx, bootCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer bootCancel()

	var (
		sessionStore  auth.SessionStore
		sessionCloser func(context.Context) error
	)
	switch strings.ToLower(strings.TrimSpace(*sessionDriver)) {
	case "", "memory":
		sessionStore = auth.NewMemorySessionStore()
	case "redis":
		redisStore, err := auth.NewRedisSessionStore(auth.RedisSessionConfig{
			Addr:     cfg.RedisAddr,
			Username: cfg.RedisUsername,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			TokenTTL: cfg.RefreshTTL,
		})
		if err != nil {
			logger.Error("failed to open redis session store", "error", err)
			os.Exit(1)
		}
		sessionStore = redisStore
		sessionCloser = func(context.Context) error { return redisStore.Close() }
	case "postgres":
		pgStore, err := auth.NewPostgresSessionStore(bootCtx, cfg.PostgresDSN)
		if err != nil {
			logger.Error("failed to open postgres session store", "error", err)
			os.Exit(1)
		}
		if err := pgStore.EnsureSchema(bootCtx); err != nil {
			logger.Error("failed to prepare session schema", "error", err)
			os.Exit(1)
		}
		sessionStore = pgStore
		sessionCloser = func(ctx context.Context) error { return pgStore.Close(ctx) }
	default:
		logger.Error("unsupported session store driver", "driver", *sessionDriver)
		os.Exit(1)
	}

	sessions := auth.NewManager(tokens, auth.WithStore(sessionStore))

	mediaStore, err := media.NewDiskStore(*mediaDir)
	if err != nil {
		logger.Error("failed to prepare media store", "error", err)
		os.Exit(1)
	}

	handler := api.NewHandler(store, sessions, mediaStore, logging.WithComponent(logger, "api"))
	if cfg.CookieSecureAlways {
		handler.CookiePolicy.SecureMode = api.TokenCookieSecureAlways
	}

	srv, err := server.New(handler, server.Config{
		Addr:     *addr,
		MediaDir: *mediaDir,
		Logger:   logger,
	})
	if err != nil {
		logger.Error("failed to initialise server", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("clipstream API listening", "addr", *addr, "session_store", *sessionDriver)
	if err := serverutil.Run(ctx, serverutil.Config{Server: srv.HTTPServer()}); err != nil {
		logger.Error("server error", "error", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if sessionCloser != nil {
		if err := sessionCloser(shutdownCtx); err != nil {
			logger.Warn("failed to close session store", "error", err)
		}
	}

	logger.Info("server stopped")
}
