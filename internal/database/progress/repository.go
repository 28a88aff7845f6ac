// Package progress provides database operations for reading progress marks.
//
// A mark is keyed by account and chapter; writing a mark for the same pair
// replaces the previous one, so the most recent write wins.
package progress

import (
	"context"
	"fmt"
	"time"

	"github.com/mrlokans/mymanga/internal/database"
	"github.com/mrlokans/mymanga/internal/entities"
)

// Repository handles all progress database operations.
type Repository struct {
	marks *database.Collection[entities.ProgressMark]
	now   func() time.Time
}

// NewRepository creates a new progress repository.
func NewRepository(db *database.Database) *Repository {
	return &Repository{
		marks: database.CollectionOf[entities.ProgressMark](db, database.CollectionProgress),
		now:   time.Now,
	}
}

// WithClock returns a copy of the repository stamping marks with now.
func (r *Repository) WithClock(now func() time.Time) *Repository {
	return &Repository{marks: r.marks, now: now}
}

// Upsert records that the account reached lastPageReached in the chapter.
func (r *Repository) Upsert(ctx context.Context, accountID, catalogEntryID, chapterID string, lastPageReached int) (*entities.ProgressMark, error) {
	switch {
	case accountID == "":
		return nil, database.NewValidationError("accountId", "must not be empty")
	case chapterID == "":
		return nil, database.NewValidationError("chapterId", "must not be empty")
	case lastPageReached < 1:
		return nil, database.NewValidationError("lastPageReached", fmt.Sprintf("must be at least 1, got %d", lastPageReached))
	}

	mark := &entities.ProgressMark{
		ID:              entities.ProgressMarkID(accountID, chapterID),
		AccountID:       accountID,
		CatalogEntryID:  catalogEntryID,
		ChapterID:       chapterID,
		LastPageReached: lastPageReached,
		UpdatedAt:       r.now().UTC(),
	}
	if err := r.marks.Put(ctx, mark); err != nil {
		return nil, fmt.Errorf("failed to save progress: %w", err)
	}
	return mark, nil
}

// Get returns the mark for an account and chapter, or false if the account has
// not read the chapter.
func (r *Repository) Get(ctx context.Context, accountID, chapterID string) (*entities.ProgressMark, bool, error) {
	mark, ok, err := r.marks.Get(ctx, entities.ProgressMarkID(accountID, chapterID))
	if err != nil || !ok {
		return nil, false, err
	}
	return &mark, true, nil
}

// ListForAccountAndCatalogEntry returns the marks an account holds for the
// chapters of one catalog entry.
func (r *Repository) ListForAccountAndCatalogEntry(ctx context.Context, accountID, catalogEntryID string) ([]entities.ProgressMark, error) {
	return r.marks.QueryByIndex(ctx, database.IndexAccountCatalogEntryID, accountID, catalogEntryID)
}

// ListForAccount returns every mark of an account.
func (r *Repository) ListForAccount(ctx context.Context, accountID string) ([]entities.ProgressMark, error) {
	return r.marks.QueryByIndex(ctx, database.IndexAccountID, accountID)
}
