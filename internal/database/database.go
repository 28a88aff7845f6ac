package database

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DefaultBusyTimeout is how long a writer waits for another connection's lock.
const DefaultBusyTimeout = 5 * time.Second

type options struct {
	busyTimeout time.Duration
	logLevel    logger.LogLevel
	migrations  []Migration
}

// Option configures NewDatabase.
type Option func(*options)

// WithBusyTimeout overrides DefaultBusyTimeout.
func WithBusyTimeout(d time.Duration) Option {
	return func(o *options) { o.busyTimeout = d }
}

// WithLogLevel sets the gorm SQL log level. Defaults to logger.Silent.
func WithLogLevel(level logger.LogLevel) Option {
	return func(o *options) { o.logLevel = level }
}

func withMigrations(list []Migration) Option {
	return func(o *options) { o.migrations = list }
}

// Database is the embedded store. It owns the SQLite file and the per
// collection write locks.
type Database struct {
	DB   *gorm.DB
	path string

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewDatabase opens (creating if needed) the database at dbPath and applies
// every pending schema migration.
func NewDatabase(dbPath string, opts ...Option) (*Database, error) {
	o := options{
		busyTimeout: DefaultBusyTimeout,
		logLevel:    logger.Silent,
		migrations:  migrations,
	}
	for _, opt := range opts {
		opt(&o)
	}

	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("%w: failed to create directory for %s: %v", ErrStorageUnavailable, dbPath, err)
	}

	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_busy_timeout=%d", dbPath, o.busyTimeout.Milliseconds())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(o.logLevel),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open %s: %v", ErrStorageUnavailable, dbPath, err)
	}

	database := &Database{
		DB:    db,
		path:  dbPath,
		locks: make(map[string]*sync.Mutex),
	}

	if err := database.migrate(context.Background(), o.migrations); err != nil {
		_ = database.Close()
		return nil, err
	}

	slog.Info("database opened", "path", dbPath, "schema_version", o.migrations[len(o.migrations)-1].Version)
	return database, nil
}

// Path returns the database file path.
func (d *Database) Path() string {
	return d.path
}

func (d *Database) Close() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// lockCollections acquires the write locks of the named collections in a
// fixed order and returns the function releasing them.
func (d *Database) lockCollections(names ...string) func() {
	names = slices.Clone(names)
	slices.Sort(names)
	names = slices.Compact(names)

	d.mu.Lock()
	held := make([]*sync.Mutex, 0, len(names))
	for _, name := range names {
		l, ok := d.locks[name]
		if !ok {
			l = &sync.Mutex{}
			d.locks[name] = l
		}
		held = append(held, l)
	}
	d.mu.Unlock()

	for _, l := range held {
		l.Lock()
	}
	return func() {
		for i := len(held) - 1; i >= 0; i-- {
			held[i].Unlock()
		}
	}
}

// Transaction runs fn in one transaction holding the write locks of every
// named collection. Collections used inside fn must be bound with Bind(tx).
// Either all writes made by fn persist or none do.
func (d *Database) Transaction(ctx context.Context, collections []string, fn func(tx *gorm.DB) error) error {
	unlock := d.lockCollections(collections...)
	defer unlock()
	return translateError(d.DB.WithContext(context.WithoutCancel(ctx)).Transaction(fn))
}

// Stats summarizes the library size.
type Stats struct {
	MangaCount   int64
	ChapterCount int64
	PageCount    int64
	SizeBytes    int64
}

func (d *Database) Stats(ctx context.Context) (Stats, error) {
	var stats Stats
	counts := []struct {
		table string
		dst   *int64
	}{
		{CollectionCatalog, &stats.MangaCount},
		{CollectionChapters, &stats.ChapterCount},
		{CollectionPages, &stats.PageCount},
	}
	for _, c := range counts {
		if err := d.DB.WithContext(ctx).Table(c.table).Count(c.dst).Error; err != nil {
			return Stats{}, fmt.Errorf("failed to count %s: %w", c.table, translateError(err))
		}
	}
	for _, suffix := range []string{"", "-wal"} {
		if fi, err := os.Stat(d.path + suffix); err == nil {
			stats.SizeBytes += fi.Size()
		}
	}
	return stats, nil
}

// Optimize checkpoints the write-ahead log and refreshes query planner statistics.
func (d *Database) Optimize(ctx context.Context) error {
	for _, stmt := range []string{"PRAGMA wal_checkpoint(TRUNCATE)", "PRAGMA optimize"} {
		if err := d.DB.WithContext(ctx).Exec(stmt).Error; err != nil {
			return fmt.Errorf("%s: %w", stmt, translateError(err))
		}
	}
	return nil
}
