// Package pages provides database operations for chapter page images.
package pages

import (
	"cmp"
	"context"
	"fmt"
	"slices"

	"github.com/google/uuid"

	"github.com/mrlokans/mymanga/internal/database"
	"github.com/mrlokans/mymanga/internal/entities"
)

// Repository handles all page database operations.
type Repository struct {
	pages *database.Collection[entities.Page]
}

// NewRepository creates a new pages repository.
func NewRepository(db *database.Database) *Repository {
	return &Repository{pages: database.CollectionOf[entities.Page](db, database.CollectionPages)}
}

// ValidateBatch checks that pages form a non-empty batch for a single chapter
// with non-empty image assets, numbered 1..len(pages) in any order. A clash
// with pages already stored is left to the unique index.
func ValidateBatch(pages []entities.Page) error {
	if len(pages) == 0 {
		return database.NewValidationError("pages", "batch must not be empty")
	}
	chapterID := pages[0].ChapterID
	if chapterID == "" {
		return database.NewValidationError("chapterId", "must not be empty")
	}
	for _, p := range pages {
		if p.ChapterID != chapterID {
			return database.NewValidationError("chapterId", fmt.Sprintf("batch mixes chapters %s and %s", chapterID, p.ChapterID))
		}
		if p.PageNumber < 1 {
			return database.NewValidationError("pageNumber", fmt.Sprintf("must be at least 1, got %d", p.PageNumber))
		}
		if p.ImageAsset == "" {
			return database.NewValidationError("imageAsset", fmt.Sprintf("page %d has no image", p.PageNumber))
		}
	}

	numbers := make([]int, len(pages))
	for i, p := range pages {
		numbers[i] = p.PageNumber
	}
	slices.Sort(numbers)
	for i, n := range numbers {
		if n != i+1 {
			return database.NewValidationError("pageNumber",
				fmt.Sprintf("numbers must run 1..%d without gaps or repeats, found %d where %d was expected", len(pages), n, i+1))
		}
	}
	return nil
}

// BulkInsert stores all pages atomically. Pages without an id get one.
func (r *Repository) BulkInsert(ctx context.Context, pages []entities.Page) error {
	if err := ValidateBatch(pages); err != nil {
		return err
	}
	for i := range pages {
		if pages[i].ID == "" {
			pages[i].ID = uuid.NewString()
		}
	}
	if err := r.pages.PutMany(ctx, pages); err != nil {
		return fmt.Errorf("failed to insert %d pages: %w", len(pages), err)
	}
	return nil
}

// ListByChapter returns the pages of a chapter in page order.
func (r *Repository) ListByChapter(ctx context.Context, chapterID string) ([]entities.Page, error) {
	list, err := r.pages.QueryByIndex(ctx, database.IndexChapterID, chapterID)
	if err != nil {
		return nil, err
	}
	slices.SortFunc(list, func(a, b entities.Page) int {
		return cmp.Compare(a.PageNumber, b.PageNumber)
	})
	return list, nil
}
