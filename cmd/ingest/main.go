package main

import (
	"context"
	"log/slog"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/JonMunkholm/callingest/internal/config"
	"github.com/JonMunkholm/callingest/internal/ingest"
	"github.com/JonMunkholm/callingest/internal/logging"
	"github.com/JonMunkholm/callingest/internal/store"
)

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	// Load and validate configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Setup structured logging based on config
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("configuration loaded",
		"data_dir", cfg.Ingest.DataDir,
		"sample_mode", cfg.Ingest.SampleMode,
		"db_max_conns", cfg.Database.MaxConns,
	)

	// Parse and configure connection pool
	poolConfig, err := pgxpool.ParseConfig(cfg.Database.URL)
	if err != nil {
		slog.Error("failed to parse database URL", "error", err)
		os.Exit(1)
	}

	poolConfig.MaxConns = int32(cfg.Database.MaxConns)
	poolConfig.MinConns = int32(cfg.Database.MinConns)
	poolConfig.MaxConnLifetime = cfg.Database.MaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.Database.MaxConnIdleTime

	// A signal ends the run promptly; progress through the last committed
	// insert is durable, so the next run resumes safely.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Connect to database
	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	// Verify connection
	if err := pool.Ping(ctx); err != nil {
		slog.Error("failed to ping database", "error", err)
		os.Exit(1)
	}

	// Log which database we connected to
	if u, err := url.Parse(cfg.Database.URL); err == nil {
		dbName := strings.TrimPrefix(u.Path, "/")
		slog.Info("connected to database", "name", dbName)
	} else {
		slog.Info("connected to database")
	}

	st := store.New(pool)
	logger := logging.ForRun(uuid.New().String())

	normalizer := ingest.NewNormalizer(
		ingest.NormalizerConfigFrom(cfg.Ingest, time.Now().Year()),
	)
	locator := ingest.NewFileLocator(st, cfg.Ingest, logger)
	observer := ingest.NewLogObserver(logger, cfg.Ingest.ProgressInterval)

	engine := ingest.NewEngine(locator, st, normalizer, observer, logger)

	summary, err := engine.Run(ctx)
	if err != nil {
		logger.Error("ingestion run failed",
			"error", err,
			"records_added", summary.RecordsAdded,
			"last_processed_line", summary.LastProcessedLine,
		)
		os.Exit(1)
	}
}
