package database

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/gorm"
)

// Migration is one additive schema step. Apply must be idempotent: it only
// creates what is missing and never drops or rewrites existing data.
type Migration struct {
	Version     int
	Description string
	Apply       func(tx *gorm.DB) error
}

// SchemaMigration records an applied migration.
type SchemaMigration struct {
	Version     int       `gorm:"primaryKey;autoIncrement:false"`
	Description string    `gorm:"size:255"`
	AppliedAt   time.Time `gorm:"autoCreateTime:false"`
}

func (SchemaMigration) TableName() string {
	return "schema_migrations"
}

var migrations = []Migration{
	{
		Version:     1,
		Description: "catalog, chapters, pages and accounts",
		Apply:       ensureCollections(CollectionCatalog, CollectionChapters, CollectionPages, CollectionAccounts),
	},
	{
		Version:     2,
		Description: "reading progress",
		Apply:       ensureCollections(CollectionProgress),
	},
}

// LatestSchemaVersion is the version of a database after NewDatabase returns.
var LatestSchemaVersion = migrations[len(migrations)-1].Version

// ensureCollections creates missing tables, adds missing columns and creates
// missing indexes for the named collections.
func ensureCollections(names ...string) func(tx *gorm.DB) error {
	return func(tx *gorm.DB) error {
		for _, name := range names {
			schema, ok := lookupSchema(name)
			if !ok {
				return fmt.Errorf("no schema registered for collection %s", name)
			}
			if err := tx.AutoMigrate(schema.Model); err != nil {
				return fmt.Errorf("failed to migrate collection %s: %w", name, err)
			}
			for _, idx := range schema.Indexes {
				if err := tx.Exec(idx.createSQL(name)).Error; err != nil {
					return fmt.Errorf("failed to create index %s on %s: %w", idx.Name, name, err)
				}
			}
		}
		return nil
	}
}

// migrate applies every migration newer than the recorded version, each in its
// own transaction. Opening an up-to-date database is a no-op.
func (d *Database) migrate(ctx context.Context, list []Migration) error {
	db := d.DB.WithContext(ctx)
	if err := db.AutoMigrate(&SchemaMigration{}); err != nil {
		return fmt.Errorf("failed to create schema_migrations: %w", err)
	}

	current, err := d.SchemaVersion(ctx)
	if err != nil {
		return err
	}

	for _, m := range list {
		if m.Version <= current {
			continue
		}
		err := db.Transaction(func(tx *gorm.DB) error {
			if err := m.Apply(tx); err != nil {
				return err
			}
			return tx.Create(&SchemaMigration{
				Version:     m.Version,
				Description: m.Description,
				AppliedAt:   time.Now().UTC(),
			}).Error
		})
		if err != nil {
			return fmt.Errorf("migration %d (%s) failed: %w", m.Version, m.Description, translateError(err))
		}
		slog.InfoContext(ctx, "applied schema migration", "version", m.Version, "description", m.Description)
		current = m.Version
	}
	return nil
}

// SchemaVersion returns the highest applied migration version, 0 for a new file.
func (d *Database) SchemaVersion(ctx context.Context) (int, error) {
	var version int
	err := d.DB.WithContext(ctx).Model(&SchemaMigration{}).
		Select("COALESCE(MAX(version), 0)").
		Scan(&version).Error
	if err != nil {
		return 0, fmt.Errorf("failed to read schema version: %w", translateError(err))
	}
	return version, nil
}
