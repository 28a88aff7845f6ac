// Package database provides the embedded store and its repositories.
//
// # Architecture
//
//	database/
//	├── database.go      # Open, locks, cross-collection transactions, stats
//	├── collection.go    # Generic Collection[T]: Put, Get, QueryByIndex, PutMany
//	├── schema.go        # Collection and index declarations
//	├── migrations.go    # Versioned, additive schema migrations
//	├── catalog/         # Manga catalog entries
//	├── chapters/        # Chapters, ingestion writes, consistency audit
//	├── pages/           # Page images
//	├── accounts/        # Accounts and email uniqueness
//	└── progress/        # Per-account reading progress
//
// # Collections and Indexes
//
// Every collection is a SQLite table keyed by a string primary key. Secondary
// indexes are declared in schema.go and created by migrations; unique indexes
// are enforced by SQLite at insert time, so a violating write fails with
// ErrConstraintViolation and its transaction is rolled back.
//
//	db, err := database.NewDatabase("./mymanga.db")
//	pages := database.CollectionOf[entities.Page](db, database.CollectionPages)
//	list, err := pages.QueryByIndex(ctx, database.IndexChapterID, chapterID)
//
// # Schema Versions
//
// NewDatabase applies every migration newer than the version recorded in
// schema_migrations. Migrations only add tables, columns and indexes.
//
// # Adding a New Collection
//
//  1. Add the model to internal/entities
//  2. Declare it in schema.go
//  3. Append a Migration calling ensureCollections with its name
//  4. Create a sub-package with a Repository built on CollectionOf
package database
