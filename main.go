// Command playfeed polls Backloggd activity feeds and posts fresh play logs
// to a Discord webhook. It:
//   - Loads configuration and initializes structured logging.
//   - Connects to Postgres and runs idempotent migrations.
//   - Starts the poll job and, when Twitch credentials are configured, the
//     IGDB app-token refresher used for cover art lookups.
//   - Exposes a minimal HTTP server with /healthz, /readyz, /status, /metrics.
//
// Shutdown is graceful on SIGINT/SIGTERM.
package main

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	_ "net/http/pprof" //nolint:gosec // G108: pprof endpoints enabled only when ENABLE_PPROF=1
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/kmhagan/playfeed/config"
	"github.com/kmhagan/playfeed/db"
	"github.com/kmhagan/playfeed/discord"
	"github.com/kmhagan/playfeed/feed"
	"github.com/kmhagan/playfeed/igdb"
	"github.com/kmhagan/playfeed/oauth"
	"github.com/kmhagan/playfeed/poll"
	"github.com/kmhagan/playfeed/server"
	"github.com/kmhagan/playfeed/telemetry"
)

func main() {
	// Load .env file if present (local dev convenience only; production relies on real env)
	_ = godotenv.Load()

	// Configure logging (level + format). Defaults: level=info, format=text.
	lvl := slog.LevelInfo
	switch strings.ToLower(os.Getenv("LOG_LEVEL")) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	case "info", "":
		// keep default
	default:
		tmp := slog.New(slog.NewTextHandler(os.Stdout, nil))
		tmp.Warn("unknown LOG_LEVEL, using info", slog.String("value", os.Getenv("LOG_LEVEL")))
	}
	format := strings.ToLower(os.Getenv("LOG_FORMAT")) // text | json
	var handler slog.Handler
	switch format {
	case "json":
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	default:
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	}
	slog.SetDefault(slog.New(handler))
	slog.Info("logger initialized", slog.String("level", lvl.String()), slog.String("format", map[bool]string{true: "json", false: "text"}[format == "json"]))

	// Config
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", slog.Any("err", err))
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("config invalid", slog.Any("err", err))
		os.Exit(1)
	}

	// Metrics / telemetry init
	telemetry.Init()

	// OpenTelemetry tracing (optional; requires OTEL_EXPORTER_OTLP_ENDPOINT)
	shutdown, err := telemetry.InitTracing("playfeed", "1.0.0")
	if err != nil {
		slog.Error("tracing initialization failed", slog.Any("err", err))
		os.Exit(1)
	}
	defer shutdown()

	// DB (optional: without DB_DSN the service runs stateless, no history or
	// persisted tokens)
	var database *sql.DB
	if cfg.DBDsn != "" {
		database, err = db.Connect(cfg.DBDsn)
		if err != nil {
			slog.Error("failed to open db", slog.Any("err", err))
			os.Exit(1)
		}
		defer func() {
			if err := database.Close(); err != nil {
				slog.Error("failed to close database", slog.Any("err", err))
			}
		}()

		// Versioned migrations first, fall back to embedded SQL for
		// deployments without a schema_migrations table.
		slog.Info("running database migrations", slog.String("component", "db_migrate"))
		if err := db.RunMigrations(database); err != nil {
			slog.Warn("versioned migrations failed, attempting fallback to embedded SQL",
				slog.Any("err", err),
				slog.String("component", "db_migrate"))
			if err := db.Migrate(context.Background(), database); err != nil {
				slog.Error("failed to migrate db (both versioned and embedded SQL failed)", slog.Any("err", err))
				os.Exit(1)
			}
			slog.Info("embedded SQL migration completed", slog.String("component", "db_migrate"))
		} else {
			slog.Info("versioned migrations completed", slog.String("component", "db_migrate"))
		}
	} else {
		slog.Info("DB_DSN not set, running without persistence")
	}

	// Root context with graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	feedClient := &feed.Client{
		BaseURL:    cfg.FeedBaseURL,
		UserAgent:  cfg.UserAgent,
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
	}
	notifier := &discord.Notifier{WebhookURL: cfg.DiscordWebhookURL}

	var igdbClient *igdb.Client
	if cfg.CoverLookupEnabled() {
		ts := &igdb.TokenSource{ClientID: cfg.TwitchClientID, ClientSecret: cfg.TwitchClientSecret}
		if database != nil {
			ts.Store = &db.TokenStoreAdapter{DB: database}
			// Scheduled refresh keeps the stored app token well inside its
			// ~60 day lifetime.
			oauth.StartRefresher(ctx, database, igdb.Provider, 6*time.Hour, cfg.TokenRefreshWindow, func(rctx context.Context) (string, string, time.Time, string, error) {
				tok, err := ts.Fetch(rctx)
				if err != nil {
					return "", "", time.Time{}, "", err
				}
				return tok.AccessToken, tok.RefreshToken, tok.Expiry, "", nil
			})
		}
		igdbClient = &igdb.Client{TokenSource: ts, ClientID: cfg.TwitchClientID}
		slog.Info("cover art lookup enabled")
	} else {
		slog.Info("cover art lookup disabled (missing twitch credentials)")
	}

	poller := &poll.Poller{
		Cfg:       cfg,
		DB:        database,
		Feed:      feedClient,
		Extractor: &feed.Extractor{ReviewLimit: cfg.ReviewLimit},
		Notifier:  notifier,
		IGDB:      igdbClient,
	}
	go poll.StartPollJob(ctx, poller)

	// Enable pprof profiling endpoints in debug mode (ENABLE_PPROF=1)
	if os.Getenv("ENABLE_PPROF") == "1" {
		pprofAddr := os.Getenv("PPROF_ADDR")
		if pprofAddr == "" {
			pprofAddr = "localhost:6060"
		}
		go func() {
			slog.Info("pprof profiling enabled", slog.String("addr", pprofAddr))
			srv := &http.Server{
				Addr:              pprofAddr,
				Handler:           nil, // default mux exposes /debug/pprof
				ReadHeaderTimeout: 5 * time.Second,
				ReadTimeout:       10 * time.Second,
				WriteTimeout:      10 * time.Second,
				IdleTimeout:       60 * time.Second,
			}
			if err := srv.ListenAndServe(); err != nil {
				slog.Error("pprof server error", slog.Any("err", err))
			}
		}()
	}

	// HTTP server (health/status/metrics)
	addr := os.Getenv("HTTP_ADDR")
	if addr == "" {
		addr = ":8080"
	}
	go func() {
		if err := server.Start(ctx, cfg, database, addr); err != nil {
			slog.Error("http server exited with error", slog.Any("err", err))
		}
	}()

	// Block until shutdown signal
	<-ctx.Done()
	slog.Info("shutting down")
}
