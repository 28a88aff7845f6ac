// Package interfaces documents the core abstractions used throughout the application.
//
// # Interface Categories
//
// ## Data Access Interfaces
//
//   - CatalogReader, ChapterReader, PageReader: read side of the library
//     (internal/services/interfaces.go)
//   - AccountStore: account lookup and creation for sign-in (internal/auth/service.go)
//
// ## Ingestion Interfaces
//
//   - CatalogReader, ChapterWriter: what an upload needs from storage
//     (internal/ingest/ingest.go)
//   - Source: one uploaded file (internal/ingest/source.go)
//
// ## Progress Tracking Interfaces
//
//   - Session: the signed-in reader, satisfied by *auth.Session
//   - VisibilitySource, Subscription: page visibility notifications
//     (internal/progress/visibility.go)
//   - ProgressRecorder, ProgressStore: reading progress persistence
//     (internal/progress/tracker.go)
//
// ## Maintenance Interfaces
//
//   - Store, Auditor: what the maintenance scheduler runs against
//     (internal/scheduler/maintenance.go)
//
// # Adding a New Visibility Source
//
// A viewer that knows which pages are on screen drives progress by
// implementing VisibilitySource:
//
//	type TerminalViewer struct { ... }
//
//	func (v *TerminalViewer) Observe(pageIndex int) progress.Subscription
//
//	var _ progress.VisibilitySource = (*TerminalViewer)(nil)
//
// progress.Viewport is the in-process implementation: it turns visible-ratio
// reports into threshold crossings.
//
// # Adding a New Database Domain
//
//  1. Register the collection and its indexes in internal/database/schema.go
//
//  2. Add a migration in internal/database/migrations.go
//
//  3. Create sub-package internal/database/<domain>/ with a repository over
//     database.CollectionOf[T]:
//
//     type Repository struct { items *database.Collection[entities.Item] }
//
//     func NewRepository(db *database.Database) *Repository
//
//  4. Add a compile-time check in checks.go
//
// # Compile-Time Interface Checks
//
// All implementations should include compile-time checks to ensure they satisfy
// their interfaces. This catches missing methods at compile time rather than runtime:
//
//	var _ SomeInterface = (*MyImplementation)(nil)
//
// See checks.go for the full list.
package interfaces
