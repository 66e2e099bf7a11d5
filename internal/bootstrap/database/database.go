package database

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	gormsqlite "github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"maintrack/internal/bootstrap/config"
	"maintrack/internal/bootstrap/logging"
	"maintrack/internal/errs"
)

const (
	sqliteForeignKeysPragma = "_pragma=foreign_keys(1)"
	slowQueryThreshold      = 500 * time.Millisecond
)

// Open connects the store holding machines, technicians, parts and
// interventions. SQLite gets a single connection so concurrent HTTP writers
// queue instead of failing with SQLITE_BUSY.
func Open(ctx context.Context, cfg config.DatabaseConfig) (*gorm.DB, error) {
	if ctx == nil {
		return nil, errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, errs.Wrap(err, "check context")
	}

	logCtx := logging.WithComponent(ctx, "bootstrap.database")
	driver := strings.ToLower(strings.TrimSpace(cfg.Driver))

	var dialector gorm.Dialector
	switch driver {
	case "sqlite", "sqlite3":
		driver = "sqlite"
		if err := ensureSQLiteDirectory(cfg.DSN); err != nil {
			return nil, err
		}
		dialector = gormsqlite.Open(SQLiteDSN(cfg.DSN))
	case "postgres", "postgresql":
		driver = "postgres"
		dialector = postgres.Open(cfg.DSN)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.NewSlogLogger(logging.Logger(logCtx), gormlogger.Config{
			SlowThreshold:             slowQueryThreshold,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
		}),
	})
	if err != nil {
		return nil, errs.Wrapf(err, "open %s database", driver)
	}

	if driver == "sqlite" {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, errs.Wrap(err, "get sqlite pool")
		}
		sqlDB.SetMaxOpenConns(1)
	}

	logging.Info(logCtx, "database opened", slog.String("driver", driver))
	return db, nil
}

// SQLiteDSN turns on foreign key enforcement so deleting a machine or
// technician nulls the intervention references.
func SQLiteDSN(dsn string) string {
	candidate := strings.TrimSpace(dsn)
	switch {
	case strings.Contains(candidate, "foreign_keys"):
		return candidate
	case strings.Contains(candidate, "?"):
		return candidate + "&" + sqliteForeignKeysPragma
	default:
		return candidate + "?" + sqliteForeignKeysPragma
	}
}

func ensureSQLiteDirectory(dsn string) error {
	path := strings.TrimPrefix(strings.TrimSpace(dsn), "file:")
	if idx := strings.IndexByte(path, '?'); idx >= 0 {
		path = path[:idx]
	}
	if path == "" || path == ":memory:" {
		return nil
	}

	dir := filepath.Dir(path)
	if dir == "." {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errs.Wrapf(err, "create sqlite directory %q", dir)
	}
	return nil
}
