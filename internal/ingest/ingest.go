// Package ingest turns uploaded files into stored chapters.
//
// An image batch becomes a page-form chapter: files are ordered by the first
// number in their names, files below the minimum size are dropped, and the
// survivors are numbered 1..N and stored together with the chapter in one
// transaction. A single document becomes a document-form chapter with no pages.
package ingest

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/mrlokans/mymanga/internal/codec"
	"github.com/mrlokans/mymanga/internal/database"
	"github.com/mrlokans/mymanga/internal/entities"
	"github.com/mrlokans/mymanga/internal/utils"
)

const (
	// DefaultMinPageBytes drops thumbnails and icons shipped alongside pages.
	DefaultMinPageBytes  = 5000
	DefaultEncodeWorkers = 4
)

// CatalogReader resolves the catalog entry a chapter is uploaded to.
type CatalogReader interface {
	Get(ctx context.Context, id string) (*entities.CatalogEntry, error)
}

// ChapterWriter persists new chapters.
type ChapterWriter interface {
	Create(ctx context.Context, ch *entities.Chapter) error
	CreateWithPages(ctx context.Context, ch *entities.Chapter, pages []entities.Page) error
}

// UploadRequest describes an image batch upload.
type UploadRequest struct {
	CatalogEntryID string
	Number         float64
	Title          string
	Assets         []Source
}

// DocumentRequest describes a single document upload.
type DocumentRequest struct {
	CatalogEntryID string
	Number         float64
	Title          string
	Asset          Source
}

// Option configures an Ingester.
type Option func(*Ingester)

// WithMinPageBytes sets the size below which an image is not treated as a page.
func WithMinPageBytes(n int64) Option {
	return func(i *Ingester) { i.minPageBytes = n }
}

// WithEncodeWorkers bounds the number of files encoded at once.
func WithEncodeWorkers(n int) Option {
	return func(i *Ingester) {
		if n > 0 {
			i.workers = n
		}
	}
}

// Ingester runs admin uploads.
type Ingester struct {
	catalog      CatalogReader
	chapters     ChapterWriter
	minPageBytes int64
	workers      int
}

// NewIngester creates an Ingester writing through the given repositories.
func NewIngester(catalog CatalogReader, chapters ChapterWriter, opts ...Option) *Ingester {
	i := &Ingester{
		catalog:      catalog,
		chapters:     chapters,
		minPageBytes: DefaultMinPageBytes,
		workers:      DefaultEncodeWorkers,
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

type rankedSource struct {
	src Source
	key int
}

// OrderPages sorts sources into page order and drops the ones smaller than
// minBytes. Sources are ordered by the first number in their name (0 if none).
// Sources with the same number keep their input order.
func OrderPages(sources []Source, minBytes int64) []Source {
	ranked := make([]rankedSource, len(sources))
	for i, s := range sources {
		ranked[i] = rankedSource{src: s, key: utils.FirstNumber(s.Name())}
	}
	slices.SortStableFunc(ranked, func(a, b rankedSource) int {
		return cmp.Compare(a.key, b.key)
	})

	kept := make([]Source, 0, len(ranked))
	for _, r := range ranked {
		if r.src.Size() < minBytes {
			continue
		}
		kept = append(kept, r.src)
	}
	return kept
}

func encode(ctx context.Context, src Source) (string, error) {
	rc, err := src.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open %s: %w", src.Name(), err)
	}
	defer rc.Close()
	asset, err := codec.EncodeReader(ctx, rc)
	if err != nil {
		return "", fmt.Errorf("failed to encode %s: %w", src.Name(), err)
	}
	return asset, nil
}

// UploadImages stores an image batch as a new page-form chapter of an existing
// catalog entry. Nothing is stored unless every surviving page encodes.
func (i *Ingester) UploadImages(ctx context.Context, req UploadRequest) (*entities.Chapter, error) {
	if len(req.Assets) == 0 {
		return nil, database.NewValidationError("assets", "no files to upload")
	}
	ordered := OrderPages(req.Assets, i.minPageBytes)
	if len(ordered) == 0 {
		return nil, database.NewValidationError("assets",
			fmt.Sprintf("all %d files are smaller than %d bytes", len(req.Assets), i.minPageBytes))
	}
	if _, err := i.catalog.Get(ctx, req.CatalogEntryID); err != nil {
		return nil, err
	}

	pages := make([]entities.Page, len(ordered))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(i.workers)
	for n, src := range ordered {
		g.Go(func() error {
			asset, err := encode(gctx, src)
			if err != nil {
				return err
			}
			if mt, _ := codec.MediaType(asset); !strings.HasPrefix(mt, "image/") {
				slog.WarnContext(ctx, "page is not an image", "file", src.Name(), "media_type", mt)
			}
			pages[n] = entities.Page{PageNumber: n + 1, ImageAsset: asset}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	ch := &entities.Chapter{
		CatalogEntryID: req.CatalogEntryID,
		Title:          req.Title,
		Number:         req.Number,
	}
	if err := i.chapters.CreateWithPages(ctx, ch, pages); err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "chapter uploaded",
		"manga_id", req.CatalogEntryID,
		"chapter_id", ch.ID,
		"number", ch.Number,
		"pages", ch.PageCount,
		"skipped", len(req.Assets)-len(ordered))
	return ch, nil
}

// UploadDocument stores a single document as a new document-form chapter.
func (i *Ingester) UploadDocument(ctx context.Context, req DocumentRequest) (*entities.Chapter, error) {
	if req.Asset == nil {
		return nil, database.NewValidationError("asset", "no document to upload")
	}
	if _, err := i.catalog.Get(ctx, req.CatalogEntryID); err != nil {
		return nil, err
	}

	asset, err := encode(ctx, req.Asset)
	if err != nil {
		return nil, err
	}
	ch := &entities.Chapter{
		CatalogEntryID: req.CatalogEntryID,
		Title:          req.Title,
		Number:         req.Number,
		IsDocumentForm: true,
		DocumentAsset:  asset,
	}
	if err := i.chapters.Create(ctx, ch); err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "document chapter uploaded",
		"manga_id", req.CatalogEntryID,
		"chapter_id", ch.ID,
		"number", ch.Number,
		"bytes", req.Asset.Size())
	return ch, nil
}
