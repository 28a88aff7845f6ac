// Package chapters provides database operations for chapters and their
// page invariant.
package chapters

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mrlokans/mymanga/internal/database"
	pagesdb "github.com/mrlokans/mymanga/internal/database/pages"
	"github.com/mrlokans/mymanga/internal/entities"
)

// Repository handles all chapter database operations.
type Repository struct {
	db       *database.Database
	chapters *database.Collection[entities.Chapter]
	pages    *database.Collection[entities.Page]
	now      func() time.Time
}

// NewRepository creates a new chapters repository.
func NewRepository(db *database.Database) *Repository {
	return &Repository{
		db:       db,
		chapters: database.CollectionOf[entities.Chapter](db, database.CollectionChapters),
		pages:    database.CollectionOf[entities.Page](db, database.CollectionPages),
		now:      time.Now,
	}
}

// prepare fills in the id and creation time when missing and checks the
// document invariant.
func (r *Repository) prepare(ch *entities.Chapter) error {
	if ch.CatalogEntryID == "" {
		return database.NewValidationError("catalogEntryId", "must not be empty")
	}
	if err := ch.Validate(); err != nil {
		return database.NewValidationError("chapter", err.Error())
	}
	if ch.ID == "" {
		ch.ID = uuid.NewString()
	}
	if ch.CreatedAt.IsZero() {
		ch.CreatedAt = r.now().UTC()
	}
	return nil
}

// Create stores a new chapter. The id must not be taken; chapter numbers are
// not required to be unique within a catalog entry.
func (r *Repository) Create(ctx context.Context, ch *entities.Chapter) error {
	if err := r.prepare(ch); err != nil {
		return err
	}
	if err := r.chapters.Insert(ctx, ch); err != nil {
		return fmt.Errorf("failed to create chapter: %w", err)
	}
	return nil
}

// CreateWithPages stores a chapter together with its pages in one transaction.
// PageCount is set to the number of pages. Pages get the chapter id, and an id
// of their own when they have none.
func (r *Repository) CreateWithPages(ctx context.Context, ch *entities.Chapter, pages []entities.Page) error {
	if ch.IsDocumentForm {
		return database.NewValidationError("chapter", "document-form chapter cannot have pages")
	}
	if len(pages) == 0 {
		return database.NewValidationError("pages", "at least one page is required")
	}
	ch.PageCount = len(pages)
	if err := r.prepare(ch); err != nil {
		return err
	}
	for i := range pages {
		pages[i].ChapterID = ch.ID
		if pages[i].ID == "" {
			pages[i].ID = uuid.NewString()
		}
	}
	if err := pagesdb.ValidateBatch(pages); err != nil {
		return err
	}

	err := r.db.Transaction(ctx, []string{database.CollectionChapters, database.CollectionPages}, func(tx *gorm.DB) error {
		if err := r.chapters.Bind(tx).Insert(ctx, ch); err != nil {
			return err
		}
		return r.pages.Bind(tx).PutMany(ctx, pages)
	})
	if err != nil {
		return fmt.Errorf("failed to create chapter with %d pages: %w", len(pages), err)
	}
	return nil
}

// Get retrieves a chapter by id, returning database.ErrNotFound if it is absent.
func (r *Repository) Get(ctx context.Context, id string) (*entities.Chapter, error) {
	ch, ok, err := r.chapters.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("chapter %s: %w", id, database.ErrNotFound)
	}
	return &ch, nil
}

// ListByCatalogEntry returns the chapters of a catalog entry, highest number
// first. Chapters sharing a number are ordered oldest first.
func (r *Repository) ListByCatalogEntry(ctx context.Context, catalogEntryID string) ([]entities.Chapter, error) {
	list, err := r.chapters.QueryByIndex(ctx, database.IndexCatalogEntryID, catalogEntryID)
	if err != nil {
		return nil, err
	}
	SortForDisplay(list)
	return list, nil
}

// SortForDisplay orders chapters by number descending, then creation time ascending.
func SortForDisplay(list []entities.Chapter) {
	slices.SortStableFunc(list, func(a, b entities.Chapter) int {
		if c := cmp.Compare(b.Number, a.Number); c != 0 {
			return c
		}
		return a.CreatedAt.Compare(b.CreatedAt)
	})
}

// Inconsistency describes a chapter that breaks the page invariant.
type Inconsistency struct {
	ChapterID      string
	CatalogEntryID string
	Reason         string
}

func (i Inconsistency) String() string {
	return fmt.Sprintf("chapter %s (manga %s): %s", i.ChapterID, i.CatalogEntryID, i.Reason)
}

// Audit checks every chapter against its stored pages: a page-form chapter
// must own exactly PageCount pages numbered 1..PageCount, a document-form
// chapter must own none.
func (r *Repository) Audit(ctx context.Context) ([]Inconsistency, error) {
	all, err := r.chapters.All(ctx)
	if err != nil {
		return nil, err
	}

	var found []Inconsistency
	for _, ch := range all {
		report := func(format string, args ...any) {
			found = append(found, Inconsistency{
				ChapterID:      ch.ID,
				CatalogEntryID: ch.CatalogEntryID,
				Reason:         fmt.Sprintf(format, args...),
			})
		}

		if err := ch.Validate(); err != nil {
			report("%v", err)
			continue
		}
		pages, err := r.pages.QueryByIndex(ctx, database.IndexChapterID, ch.ID)
		if err != nil {
			return nil, err
		}
		if len(pages) != ch.PageCount {
			report("page count is %d but %d pages are stored", ch.PageCount, len(pages))
			continue
		}
		for _, p := range pages {
			if p.PageNumber < 1 || p.PageNumber > ch.PageCount {
				report("page %s has number %d outside 1..%d", p.ID, p.PageNumber, ch.PageCount)
				break
			}
		}
	}
	return found, nil
}
