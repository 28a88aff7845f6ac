package interfaces

// This file contains compile-time interface implementation checks.
// These ensure that concrete types satisfy their interfaces at compile time,
// catching missing methods before runtime.
//
// To verify all checks pass: go build ./internal/interfaces/...

import (
	"github.com/mrlokans/mymanga/internal/auth"
	"github.com/mrlokans/mymanga/internal/database"
	"github.com/mrlokans/mymanga/internal/database/accounts"
	"github.com/mrlokans/mymanga/internal/database/catalog"
	"github.com/mrlokans/mymanga/internal/database/chapters"
	"github.com/mrlokans/mymanga/internal/database/pages"
	progressdb "github.com/mrlokans/mymanga/internal/database/progress"
	"github.com/mrlokans/mymanga/internal/ingest"
	"github.com/mrlokans/mymanga/internal/progress"
	"github.com/mrlokans/mymanga/internal/scheduler"
	"github.com/mrlokans/mymanga/internal/services"
)

// =============================================================================
// Data Access Layer
// =============================================================================

// Library read side
var _ services.CatalogReader = (*catalog.Repository)(nil)
var _ services.ChapterReader = (*chapters.Repository)(nil)
var _ services.PageReader = (*pages.Repository)(nil)

// Accounts
var _ auth.AccountStore = (*accounts.Repository)(nil)

// =============================================================================
// Ingestion
// =============================================================================

var _ ingest.CatalogReader = (*catalog.Repository)(nil)
var _ ingest.ChapterWriter = (*chapters.Repository)(nil)

// =============================================================================
// Progress Tracking
// =============================================================================

var _ progress.Session = (*auth.Session)(nil)
var _ progress.ProgressRecorder = (*progressdb.Repository)(nil)
var _ progress.ProgressStore = (*progressdb.Repository)(nil)
var _ progress.VisibilitySource = (*progress.Viewport)(nil)

// =============================================================================
// Maintenance
// =============================================================================

var _ scheduler.Store = (*database.Database)(nil)
var _ scheduler.Auditor = (*chapters.Repository)(nil)
