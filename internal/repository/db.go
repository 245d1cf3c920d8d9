package repository

import (
	_ "embed"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	glebarez "github.com/glebarez/sqlite"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"no-time-buddy/internal/config"
)

//go:embed schema.sql
var schema string

// NewDB opens the SQLite file described by cfg and makes sure the Mission table exists.
func NewDB(cfg config.Database, log *slog.Logger) (*gorm.DB, error) {
	if cfg.Path == "" {
		cfg.Path = config.DefaultDBPath()
	}

	if err := ensureDirForSQLite(cfg.Path); err != nil {
		return nil, err
	}

	dbLogger := logger.New(
		slog.NewLogLogger(log.Handler(), slog.LevelWarn),
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	db, err := gorm.Open(dialector(cfg), &gorm.Config{
		Logger: dbLogger,
	})
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// One writer at a time; sqlite serializes writes anyway.
	sqlDB.SetMaxOpenConns(1)

	if err := initSchema(db); err != nil {
		_ = sqlDB.Close()
		return nil, err
	}

	log.Debug("database ready", "path", cfg.Path, "driver", cfg.Driver)

	return db, nil
}

// Close releases the connection pool behind db.
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func initSchema(db *gorm.DB) error {
	for _, stmt := range strings.Split(schema, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}
	return nil
}

func dialector(cfg config.Database) gorm.Dialector {
	dsn := cfg.Path
	memory := isMemoryDSN(dsn)

	if cfg.Driver == config.DriverPure {
		if !memory {
			dsn = withParams(dsn, "_pragma=busy_timeout(5000)")
		}
		// deadlines must be stored as "YYYY-MM-DD HH:MM:SS" text for ordering
		return glebarez.Open(withParams(dsn, "_time_format=sqlite"))
	}

	if !memory {
		dsn = withParams(dsn, "_busy_timeout=5000")
	}
	return sqlite.Open(dsn)
}

func withParams(dsn, params string) string {
	if strings.Contains(dsn, "?") {
		return dsn + "&" + params
	}
	return dsn + "?" + params
}

func isMemoryDSN(dsn string) bool {
	return strings.Contains(dsn, ":memory:") || strings.Contains(dsn, "mode=memory")
}

// ensureDirForSQLite creates parent dir for SQLite file if needed.
func ensureDirForSQLite(dsn string) error {
	if isMemoryDSN(dsn) {
		return nil
	}
	// Strip file: prefix if present.
	clean := strings.TrimPrefix(dsn, "file:")
	clean = strings.Split(clean, "?")[0]
	dir := filepath.Dir(clean)
	if dir == "." || dir == "" {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create db dir %q: %w", dir, err)
	}
	return nil
}
