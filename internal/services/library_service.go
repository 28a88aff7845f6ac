package services

import (
	"context"
	"fmt"

	"github.com/mrlokans/mymanga/internal/entities"
)

// LibraryService assembles the read-side views of the library.
type LibraryService struct {
	catalog  CatalogReader
	chapters ChapterReader
	pages    PageReader
}

// NewLibraryService creates a new LibraryService.
func NewLibraryService(catalog CatalogReader, chapters ChapterReader, pages PageReader) *LibraryService {
	return &LibraryService{
		catalog:  catalog,
		chapters: chapters,
		pages:    pages,
	}
}

// Catalog lists the library, newest first, optionally filtered by title.
func (s *LibraryService) Catalog(ctx context.Context, query string) ([]entities.CatalogEntry, error) {
	if query == "" {
		return s.catalog.List(ctx)
	}
	return s.catalog.Search(ctx, query)
}

// MangaDetails returns a catalog entry with its chapters.
func (s *LibraryService) MangaDetails(ctx context.Context, id string) (*MangaDetails, error) {
	entry, err := s.catalog.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	chapters, err := s.chapters.ListByCatalogEntry(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to list chapters of %s: %w", id, err)
	}
	return &MangaDetails{Entry: entry, Chapters: chapters}, nil
}

// ReaderData loads a chapter and, unless it is in document form, its pages.
func (s *LibraryService) ReaderData(ctx context.Context, chapterID string) (*ReaderData, error) {
	ch, err := s.chapters.Get(ctx, chapterID)
	if err != nil {
		return nil, err
	}
	if ch.IsDocumentForm {
		return &ReaderData{Chapter: ch, Pages: []entities.Page{}}, nil
	}
	pages, err := s.pages.ListByChapter(ctx, chapterID)
	if err != nil {
		return nil, fmt.Errorf("failed to list pages of %s: %w", chapterID, err)
	}
	return &ReaderData{Chapter: ch, Pages: pages}, nil
}
