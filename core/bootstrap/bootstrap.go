package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"

	coreconfig "github.com/m3rciful/shopbot/core/config"
	coredatabase "github.com/m3rciful/shopbot/core/database"
	"github.com/m3rciful/shopbot/core/logger"
	"github.com/m3rciful/shopbot/core/store"
)

// Options control the generic bootstrap pipeline shared between bots.
type Options struct {
	Config *coreconfig.Config

	LoggerInit func(*coreconfig.Config) error
	Connect    func(coreconfig.PostgresConfig) (*sqlx.DB, error)
	Migrate    func(coreconfig.PostgresConfig) error

	Modules Modules
}

// Result exposes infrastructure initialized by the bootstrap pipeline.
type Result struct {
	Store store.Backend
	// DB is set only for the postgres driver.
	DB *sqlx.DB
}

// Close releases the store and any underlying connection.
func (r *Result) Close() error {
	if r == nil || r.Store == nil {
		return nil
	}
	return r.Store.Close()
}

// Run initializes the logger, opens the configured store, applies migrations
// when the store is postgres, seeds default documents and runs module seeders.
func Run(ctx context.Context, opts Options) (*Result, error) {
	if opts.Config == nil {
		return nil, fmt.Errorf("bootstrap: nil config provided")
	}

	loggerInit := opts.LoggerInit
	if loggerInit == nil {
		loggerInit = logger.InitLogger
	}
	if err := loggerInit(opts.Config); err != nil {
		return nil, fmt.Errorf("bootstrap: logger init failed: %w", err)
	}

	start := time.Now()
	res, err := openStore(opts)
	if err != nil {
		return nil, err
	}

	if err := store.EnsureDefaults(ctx, res.Store); err != nil {
		_ = res.Close()
		return nil, fmt.Errorf("bootstrap: store defaults failed: %w", err)
	}

	for i, s := range opts.Modules.Seeders {
		if s == nil {
			continue
		}
		if err := s.Seed(ctx, res.Store); err != nil {
			_ = res.Close()
			return nil, fmt.Errorf("bootstrap: seeder %d failed: %w", i, err)
		}
	}

	logger.LogEvent(ctx, logger.STORE, slog.LevelInfo, "store.ready",
		slog.String("status", "ok"),
		slog.String("driver", opts.Config.Storage.Driver),
		slog.Int("seeders", len(opts.Modules.Seeders)),
		slog.Duration("took", logger.Took(start)),
	)
	return res, nil
}

func openStore(opts Options) (*Result, error) {
	cfg := opts.Config.Storage
	switch cfg.Driver {
	case coreconfig.StorageMemory:
		return &Result{Store: store.NewMemory()}, nil
	case coreconfig.StorageFile, "":
		f, err := store.NewFile(cfg.Dir)
		if err != nil {
			return nil, fmt.Errorf("bootstrap: file store init failed: %w", err)
		}
		return &Result{Store: f}, nil
	case coreconfig.StorageRedis:
		r, err := store.NewRedis(cfg.Redis.URL, cfg.Redis.Prefix)
		if err != nil {
			return nil, fmt.Errorf("bootstrap: redis store init failed: %w", err)
		}
		return &Result{Store: r}, nil
	case coreconfig.StoragePostgres:
		connect := opts.Connect
		if connect == nil {
			connect = coredatabase.Connect
		}
		db, err := connect(cfg.Postgres)
		if err != nil {
			return nil, fmt.Errorf("bootstrap: database initialization failed: %w", err)
		}

		migrate := opts.Migrate
		if migrate == nil {
			migrate = coredatabase.RunMigrations
		}
		if err := migrate(cfg.Postgres); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("bootstrap: migrations failed: %w", err)
		}
		return &Result{Store: store.NewPostgres(db), DB: db}, nil
	default:
		return nil, fmt.Errorf("bootstrap: unknown storage driver %q", cfg.Driver)
	}
}
