package database

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	coreconfig "github.com/m3rciful/shopbot/core/config"
	"github.com/m3rciful/shopbot/core/logger"
	"github.com/m3rciful/shopbot/migrations"
)

// RunMigrations brings the schema up to date. Files are read from
// cfg.MigrationsDir when set, otherwise from the set built into the binary.
func RunMigrations(cfg coreconfig.PostgresConfig) error {
	ctx := context.Background()
	dsn := URL(cfg)
	if err := WaitForPostgres(dsn, 30*time.Second); err != nil {
		logger.LogEvent(ctx, logger.MIG, slog.LevelError, "db.migrate",
			slog.String("status", "fail"),
			slog.String("cause", "not_ready"),
			slog.String("err", err.Error()),
		)
		return fmt.Errorf("database not ready: %w", err)
	}

	src, files, err := migrationSource(cfg.MigrationsDir)
	if err != nil {
		return fmt.Errorf("migration source: %w", err)
	}
	m, err := migrate.NewWithSourceInstance("iofs", src, dsn)
	if err != nil {
		return fmt.Errorf("init migrations: %w", err)
	}
	defer func() { _, _ = m.Close() }()

	from := currentVersion(m)
	start := time.Now()
	err = m.Up()
	if errors.Is(err, migrate.ErrNoChange) {
		err = nil
	}
	to := currentVersion(m)

	applied := between(files, from, to)
	preview, truncated := logger.SummarizeStrings(applied, 6)
	attrs := []slog.Attr{
		slog.String("status", logger.Status(err)),
		slog.Uint64("from_ver", uint64(from)),
		slog.Uint64("to_ver", uint64(to)),
		slog.Int("count", len(applied)),
		slog.String("files_preview", preview),
		slog.Duration("duration", logger.Took(start)),
	}
	if truncated {
		attrs = append(attrs, slog.Bool("files_truncated", true))
	}
	level := slog.LevelInfo
	if err != nil {
		level = slog.LevelError
		attrs = append(attrs, slog.String("err", err.Error()))
	}
	logger.LogEvent(ctx, logger.MIG, level, "db.migrate", attrs...)
	if err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

// migrationSource opens dir, or the embedded set when dir is empty, and lists its up files.
func migrationSource(dir string) (source.Driver, []string, error) {
	var fsys fs.FS = migrations.FS
	if strings.TrimSpace(dir) != "" {
		fsys = os.DirFS(dir)
	}
	files, err := upFiles(fsys)
	if err != nil {
		return nil, nil, err
	}
	drv, err := iofs.New(fsys, ".")
	if err != nil {
		return nil, nil, err
	}
	return drv, files, nil
}

// upFiles lists the *.up.sql files of fsys in name order.
func upFiles(fsys fs.FS) ([]string, error) {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".up.sql") {
			names = append(names, e.Name())
		}
	}
	return names, nil
}

func currentVersion(m *migrate.Migrate) uint {
	v, _, err := m.Version()
	if err != nil {
		return 0
	}
	return v
}

// fileVersion parses the numeric prefix of a migration file name.
func fileVersion(name string) uint {
	prefix, _, _ := strings.Cut(name, "_")
	v, err := strconv.ParseUint(prefix, 10, 64)
	if err != nil {
		return 0
	}
	return uint(v)
}

// between returns the files with from < version <= to.
func between(files []string, from, to uint) []string {
	var out []string
	for _, f := range files {
		if v := fileVersion(f); v > from && v <= to {
			out = append(out, f)
		}
	}
	return out
}
