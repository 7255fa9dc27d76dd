package db

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/banshee-data/particle.report/internal/monitoring"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// DB wraps the sqlite handle that stores particle runs.
type DB struct {
	*sql.DB
}

// pragmas are applied to every connection opened by OpenDB.
var pragmas = []string{
	"PRAGMA journal_mode=WAL",
	"PRAGMA busy_timeout=5000",
	"PRAGMA synchronous=NORMAL",
	"PRAGMA temp_store=MEMORY",
	"PRAGMA foreign_keys=ON",
}

// NewDB opens (or creates) the sqlite database at path and migrates it to
// the latest schema.
func NewDB(path string) (*DB, error) {
	db, err := OpenDB(path)
	if err != nil {
		return nil, err
	}
	if err := db.MigrateUp(); err != nil {
		db.Close()
		return nil, err
	}

	version, _, err := db.MigrateVersion()
	if err != nil {
		db.Close()
		return nil, err
	}
	monitoring.Logf("[db] opened %s at schema version %d", path, version)
	return db, nil
}

// OpenDB opens the database and applies the connection pragmas without
// touching the schema. The migrate command uses it directly.
func OpenDB(path string) (*DB, error) {
	sqlDB, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// foreign_keys is per connection; keep a single one so it always holds.
	sqlDB.SetMaxOpenConns(1)

	for _, pragma := range pragmas {
		if _, err := sqlDB.Exec(pragma); err != nil {
			sqlDB.Close()
			return nil, fmt.Errorf("failed to apply %q: %w", pragma, err)
		}
	}

	return &DB{sqlDB}, nil
}

const (
	maxBusyRetries = 5
	busyBaseDelay  = 10 * time.Millisecond
)

// retryOnBusy runs fn until it succeeds, fails with a non-busy error, or
// has been attempted maxBusyRetries times. Delays double from busyBaseDelay.
func retryOnBusy(fn func() error) error {
	var err error
	delay := busyBaseDelay
	for attempt := 0; attempt < maxBusyRetries; attempt++ {
		if err = fn(); err == nil || !isSQLiteBusy(err) {
			return err
		}
		if attempt < maxBusyRetries-1 {
			time.Sleep(delay)
			delay *= 2
		}
	}
	return fmt.Errorf("database busy after %d attempts: %w", maxBusyRetries, err)
}

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "database is locked") || strings.Contains(msg, "SQLITE_BUSY")
}

// ErrRunNotFound is returned when a run id has no stored run.
var ErrRunNotFound = errors.New("run not found")
