package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/session-desk/sessiondesk/internal/adapter/inbound/httpapi"
	"github.com/session-desk/sessiondesk/internal/adapter/outbound/memory"
	"github.com/session-desk/sessiondesk/internal/adapter/outbound/oidcauth"
	"github.com/session-desk/sessiondesk/internal/adapter/outbound/redislimit"
	"github.com/session-desk/sessiondesk/internal/adapter/outbound/sqlite"
	"github.com/session-desk/sessiondesk/internal/config"
	"github.com/session-desk/sessiondesk/internal/domain/auth"
	"github.com/session-desk/sessiondesk/internal/domain/ratelimit"
	"github.com/session-desk/sessiondesk/internal/domain/session"
	"github.com/session-desk/sessiondesk/internal/service"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the API server",
	Long: `Start the sessiondesk API server.

The server loads sessiondesk.yaml, opens the configured session store,
and serves the JSON API until interrupted.

Examples:
  # Start with config file settings
  sessiondesk start

  # Start with a specific config file
  sessiondesk --config /path/to/config.yaml start

  # Local development (in-memory store, well-known "dev-key" API key)
  sessiondesk start --dev`,
	RunE: runStart,
}

var devMode bool

func init() {
	startCmd.Flags().BoolVar(&devMode, "dev", false, "Enable development mode (in-memory store, seeded API key, debug logging)")
	rootCmd.AddCommand(startCmd)
}

func runStart(cmd *cobra.Command, args []string) error {
	// Load configuration (without validation, so CLI flags can override first)
	cfg, err := config.LoadConfigRaw()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Override dev mode from CLI flag
	if devMode {
		cfg.DevMode = true
	}

	cfg.SetDevDefaults()

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	// Create signal context for graceful shutdown.
	// stop() restores default signal handling so a second Ctrl+C does a hard kill.
	ctx, stop := signal.NotifyContext(context.Background(), gracefulSignals()...)
	go func() {
		<-ctx.Done()
		stop()
	}()

	logLevel := parseLogLevel(cfg.Server.LogLevel)
	if cfg.DevMode {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	}))

	if configFile := config.ConfigFileUsed(); configFile != "" {
		logger.Info("loaded config", "file", configFile)
	}
	if cfg.DevMode {
		logger.Warn("dev mode enabled: in-memory store and well-known API key, do not use in production")
	}

	if err := run(ctx, cfg, logger); err != nil {
		return err
	}

	logger.Info("sessiondesk stopped")
	return nil
}

// run wires the store, verifier, limiter, and services into the HTTP
// server and blocks until ctx is cancelled.
func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	// ===== Session store =====
	var (
		store  session.Store
		pinger httpapi.Pinger
	)
	switch cfg.Store.Backend {
	case "sqlite":
		sqlStore, err := sqlite.Open(cfg.Store.Path,
			sqlite.WithDeletedTTL(cfg.Store.DeletedTTL),
			sqlite.WithIdempotencyTTL(cfg.Store.IdempotencyTTL),
		)
		if err != nil {
			return fmt.Errorf("failed to open store: %w", err)
		}
		defer func() { _ = sqlStore.Close() }()

		sweeper := sqlite.NewSweeper(sqlStore, cfg.Store.SweepInterval)
		sweeper.Start(ctx)
		defer sweeper.Stop()

		store = sqlStore
		pinger = sqlStore
		logger.Info("store opened", "backend", "sqlite", "path", cfg.Store.Path)

	case "memory":
		store = memory.NewSessionStoreWithTTL(cfg.Store.DeletedTTL, cfg.Store.IdempotencyTTL)
		logger.Info("store opened", "backend", "memory")

	default:
		return fmt.Errorf("unsupported store backend: %s", cfg.Store.Backend)
	}

	// ===== Token verifier =====
	var verifier auth.Verifier
	switch cfg.Auth.Mode {
	case "oidc":
		oidcVerifier, err := oidcauth.New(ctx, cfg.Auth.OIDC.Issuer, cfg.Auth.OIDC.Audience, logger)
		if err != nil {
			return fmt.Errorf("failed to create oidc verifier: %w", err)
		}
		verifier = oidcVerifier
		logger.Info("auth mode: oidc", "issuer", cfg.Auth.OIDC.Issuer, "audience", cfg.Auth.OIDC.Audience)

	default:
		keys := make([]auth.StaticKey, len(cfg.Auth.Keys))
		for i, k := range cfg.Auth.Keys {
			keys[i] = auth.StaticKey{Subject: k.Subject, Hash: k.KeyHash}
		}
		ring := auth.NewKeyRing(keys)
		verifier = ring
		logger.Info("auth mode: static", "keys", ring.Len())
	}

	// ===== Rate limiter =====
	var (
		limiter    ratelimit.Limiter
		keyCounter httpapi.KeyCounter
		rates      map[ratelimit.Operation]ratelimit.Config
	)
	if cfg.RateLimit.Enabled {
		if cfg.RateLimit.RedisAddr != "" {
			rdb := redis.NewClient(&redis.Options{Addr: cfg.RateLimit.RedisAddr})
			if err := rdb.Ping(ctx).Err(); err != nil {
				return fmt.Errorf("failed to connect to redis at %s: %w", cfg.RateLimit.RedisAddr, err)
			}
			defer func() { _ = rdb.Close() }()
			limiter = redislimit.NewRateLimiter(rdb)
			logger.Info("rate limiter: redis", "addr", cfg.RateLimit.RedisAddr)
		} else {
			memLimiter := memory.NewRateLimiter()
			limiter = memLimiter
			keyCounter = memLimiter
			logger.Info("rate limiter: in-memory")
		}

		rates = map[ratelimit.Operation]ratelimit.Config{
			ratelimit.OpCreate:       {Window: cfg.RateLimit.Window, Max: cfg.RateLimit.Create},
			ratelimit.OpUpdate:       {Window: cfg.RateLimit.Window, Max: cfg.RateLimit.Update},
			ratelimit.OpUpdateStatus: {Window: cfg.RateLimit.Window, Max: cfg.RateLimit.UpdateStatus},
			ratelimit.OpComplete:     {Window: cfg.RateLimit.Window, Max: cfg.RateLimit.Complete},
			ratelimit.OpFail:         {Window: cfg.RateLimit.Window, Max: cfg.RateLimit.Fail},
			ratelimit.OpDelete:       {Window: cfg.RateLimit.Window, Max: cfg.RateLimit.Delete},
		}
	} else {
		logger.Warn("rate limiting disabled")
	}

	// ===== Services =====
	sessionService := service.NewSessionService(store, logger)
	statsService := service.NewStatsService(store)

	// ===== HTTP server =====
	server := httpapi.NewServer(sessionService,
		httpapi.WithAddr(cfg.Server.HTTPAddr),
		httpapi.WithLogger(logger),
		httpapi.WithVerifier(verifier),
		httpapi.WithLimiter(limiter),
		httpapi.WithRates(rates),
		httpapi.WithStatsService(statsService),
		httpapi.WithAllowedOrigins(cfg.CORS.AllowedOrigins),
	)
	server.SetHealthChecker(httpapi.NewHealthChecker(pinger, keyCounter, server.Metrics(), Version))

	logger.Info("sessiondesk starting",
		"version", Version,
		"dev_mode", cfg.DevMode,
		"http_addr", cfg.Server.HTTPAddr,
		"store", cfg.Store.Backend,
		"auth_mode", cfg.Auth.Mode,
		"rate_limit", cfg.RateLimit.Enabled,
		"cors_origins", len(cfg.CORS.AllowedOrigins),
	)

	return server.Start(ctx)
}

// parseLogLevel converts a string log level to slog.Level.
// Returns slog.LevelInfo for unrecognized values.
func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
