// Package catalog provides database operations for manga catalog entries.
//
// # Usage
//
//	repo := catalog.NewRepository(db)
//	entry, err := repo.Create(ctx, catalog.NewEntry{Title: "Berserk", CoverAsset: cover})
//	matches, err := repo.Search(ctx, "berserk")
package catalog

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/cases"

	"github.com/mrlokans/mymanga/internal/database"
	"github.com/mrlokans/mymanga/internal/entities"
)

// NewEntry holds the caller-supplied fields of a catalog entry.
type NewEntry struct {
	Title       string
	Description string
	CoverAsset  string
	Author      string
	Status      entities.CatalogStatus
}

// Repository handles all catalog database operations.
type Repository struct {
	entries *database.Collection[entities.CatalogEntry]
	now     func() time.Time
}

// NewRepository creates a new catalog repository.
func NewRepository(db *database.Database) *Repository {
	return &Repository{
		entries: database.CollectionOf[entities.CatalogEntry](db, database.CollectionCatalog),
		now:     time.Now,
	}
}

// Create validates e, assigns an id and creation time, and stores the entry.
// An empty status defaults to Ongoing.
func (r *Repository) Create(ctx context.Context, e NewEntry) (*entities.CatalogEntry, error) {
	if strings.TrimSpace(e.Title) == "" {
		return nil, database.NewValidationError("title", "must not be empty")
	}
	if e.CoverAsset == "" {
		return nil, database.NewValidationError("cover", "a cover image is required")
	}
	if e.Status == "" {
		e.Status = entities.CatalogStatusOngoing
	}
	if !e.Status.Valid() {
		return nil, database.NewValidationError("status", fmt.Sprintf("unknown status %q", e.Status))
	}

	entry := &entities.CatalogEntry{
		ID:          uuid.NewString(),
		Title:       strings.TrimSpace(e.Title),
		Description: e.Description,
		CoverAsset:  e.CoverAsset,
		Author:      e.Author,
		Status:      e.Status,
		CreatedAt:   r.now().UTC(),
	}
	if err := r.entries.Insert(ctx, entry); err != nil {
		return nil, fmt.Errorf("failed to create catalog entry: %w", err)
	}
	return entry, nil
}

// Get retrieves an entry by id, returning database.ErrNotFound if it is absent.
func (r *Repository) Get(ctx context.Context, id string) (*entities.CatalogEntry, error) {
	entry, ok, err := r.entries.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("catalog entry %s: %w", id, database.ErrNotFound)
	}
	return &entry, nil
}

// List returns every catalog entry, newest first.
func (r *Repository) List(ctx context.Context) ([]entities.CatalogEntry, error) {
	entries, err := r.entries.All(ctx)
	if err != nil {
		return nil, err
	}
	SortNewestFirst(entries)
	return entries, nil
}

// Search lists the entries whose title contains query, ignoring case.
func (r *Repository) Search(ctx context.Context, query string) ([]entities.CatalogEntry, error) {
	entries, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	return FilterByTitle(entries, query), nil
}

// FilterByTitle keeps the entries whose title contains query under Unicode
// case folding. An empty query keeps everything.
func FilterByTitle(entries []entities.CatalogEntry, query string) []entities.CatalogEntry {
	query = strings.TrimSpace(query)
	if query == "" {
		return entries
	}
	fold := cases.Fold()
	needle := fold.String(query)

	var out []entities.CatalogEntry
	for _, e := range entries {
		if strings.Contains(fold.String(e.Title), needle) {
			out = append(out, e)
		}
	}
	return out
}

// SortNewestFirst orders entries by creation time, most recent first.
func SortNewestFirst(entries []entities.CatalogEntry) {
	slices.SortStableFunc(entries, func(a, b entities.CatalogEntry) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
}
