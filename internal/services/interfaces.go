package services

import (
	"context"

	"github.com/mrlokans/mymanga/internal/entities"
)

// CatalogReader provides read-only access to catalog entries.
type CatalogReader interface {
	Get(ctx context.Context, id string) (*entities.CatalogEntry, error)
	List(ctx context.Context) ([]entities.CatalogEntry, error)
	Search(ctx context.Context, query string) ([]entities.CatalogEntry, error)
}

// ChapterReader provides read-only access to chapters.
type ChapterReader interface {
	Get(ctx context.Context, id string) (*entities.Chapter, error)
	ListByCatalogEntry(ctx context.Context, catalogEntryID string) ([]entities.Chapter, error)
}

// PageReader provides read-only access to chapter pages.
type PageReader interface {
	ListByChapter(ctx context.Context, chapterID string) ([]entities.Page, error)
}

// MangaDetails is a catalog entry with its chapters in display order.
type MangaDetails struct {
	Entry    *entities.CatalogEntry
	Chapters []entities.Chapter
}

// ReaderData is everything a viewer needs to show one chapter. Pages is empty
// for a document-form chapter.
type ReaderData struct {
	Chapter *entities.Chapter
	Pages   []entities.Page
}
