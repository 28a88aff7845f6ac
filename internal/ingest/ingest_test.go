package ingest

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/mymanga/internal/codec"
	"github.com/mrlokans/mymanga/internal/database"
	"github.com/mrlokans/mymanga/internal/database/catalog"
	"github.com/mrlokans/mymanga/internal/database/chapters"
	"github.com/mrlokans/mymanga/internal/database/pages"
	"github.com/mrlokans/mymanga/internal/entities"
	"github.com/mrlokans/mymanga/internal/utils"
)

type testEnv struct {
	ingester *Ingester
	chapters *chapters.Repository
	pages    *pages.Repository
	mangaID  string
}

func setupTestDB(t *testing.T, opts ...Option) *testEnv {
	t.Helper()
	db, err := database.NewDatabase(filepath.Join(t.TempDir(), "ingest.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	catalogRepo := catalog.NewRepository(db)
	chapterRepo := chapters.NewRepository(db)
	entry, err := catalogRepo.Create(context.Background(), catalog.NewEntry{
		Title:      "Test Manga",
		CoverAsset: codec.Encode(image(0, 100)),
	})
	require.NoError(t, err)

	return &testEnv{
		ingester: NewIngester(catalogRepo, chapterRepo, opts...),
		chapters: chapterRepo,
		pages:    pages.NewRepository(db),
		mangaID:  entry.ID,
	}
}

// image returns a PNG-signed payload of the given size whose last byte is tag.
func image(tag byte, size int) []byte {
	data := bytes.Repeat([]byte{0}, size)
	copy(data, "\x89PNG\r\n\x1a\n")
	data[size-1] = tag
	return data
}

func pageTags(t *testing.T, list []entities.Page) []byte {
	t.Helper()
	tags := make([]byte, len(list))
	for i, p := range list {
		data, err := codec.Decode(p.ImageAsset)
		require.NoError(t, err)
		tags[i] = data[len(data)-1]
	}
	return tags
}

func TestUploadImages_NumericFilenameOrder(t *testing.T) {
	env := setupTestDB(t)
	ctx := context.Background()

	ch, err := env.ingester.UploadImages(ctx, UploadRequest{
		CatalogEntryID: env.mangaID,
		Number:         1,
		Title:          "Start",
		Assets: []Source{
			BytesSource("img10.png", image(10, 6000)),
			BytesSource("img2.png", image(2, 6000)),
			BytesSource("img1.png", image(1, 6000)),
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 3, ch.PageCount)
	assert.False(t, ch.IsDocumentForm)

	list, err := env.pages.ListByChapter(ctx, ch.ID)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, []byte{1, 2, 10}, pageTags(t, list))
	for i, p := range list {
		assert.Equal(t, i+1, p.PageNumber)
		assert.Equal(t, ch.ID, p.ChapterID)
	}
}

func TestUploadImages_MinimumSizeBoundary(t *testing.T) {
	env := setupTestDB(t)
	ctx := context.Background()

	ch, err := env.ingester.UploadImages(ctx, UploadRequest{
		CatalogEntryID: env.mangaID,
		Number:         2,
		Assets: []Source{
			BytesSource("p1.png", image(1, 4999)),
			BytesSource("p2.png", image(2, 5000)),
			BytesSource("p3.png", image(3, 12000)),
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, ch.PageCount)

	list, err := env.pages.ListByChapter(ctx, ch.ID)
	require.NoError(t, err)
	assert.Equal(t, []byte{2, 3}, pageTags(t, list), "survivors are renumbered without gaps")
	assert.Equal(t, 1, list[0].PageNumber)
	assert.Equal(t, 2, list[1].PageNumber)
}

func TestUploadImages_NoSurvivors(t *testing.T) {
	env := setupTestDB(t)
	ctx := context.Background()

	_, err := env.ingester.UploadImages(ctx, UploadRequest{
		CatalogEntryID: env.mangaID,
		Number:         1,
		Assets:         []Source{BytesSource("icon.png", image(1, 200))},
	})
	assert.True(t, database.IsValidationError(err))

	_, err = env.ingester.UploadImages(ctx, UploadRequest{CatalogEntryID: env.mangaID, Number: 1})
	assert.True(t, database.IsValidationError(err))

	list, err := env.chapters.ListByCatalogEntry(ctx, env.mangaID)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestUploadImages_UnknownCatalogEntry(t *testing.T) {
	env := setupTestDB(t)

	_, err := env.ingester.UploadImages(context.Background(), UploadRequest{
		CatalogEntryID: "missing",
		Number:         1,
		Assets:         []Source{BytesSource("1.png", image(1, 6000))},
	})

	assert.ErrorIs(t, err, database.ErrNotFound)
}

type failingSource struct{ name string }

func (f failingSource) Name() string { return f.name }
func (f failingSource) Size() int64  { return 10000 }

func (f failingSource) Open() (io.ReadCloser, error) {
	return nil, errors.New("disk on fire")
}

func TestUploadImages_EncodeFailureStoresNothing(t *testing.T) {
	env := setupTestDB(t, WithEncodeWorkers(1))
	ctx := context.Background()

	_, err := env.ingester.UploadImages(ctx, UploadRequest{
		CatalogEntryID: env.mangaID,
		Number:         1,
		Assets: []Source{
			BytesSource("1.png", image(1, 6000)),
			failingSource{name: "2.png"},
		},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk on fire")

	list, err := env.chapters.ListByCatalogEntry(ctx, env.mangaID)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestUploadImages_CustomMinimum(t *testing.T) {
	env := setupTestDB(t, WithMinPageBytes(100), WithEncodeWorkers(8))

	ch, err := env.ingester.UploadImages(context.Background(), UploadRequest{
		CatalogEntryID: env.mangaID,
		Number:         1,
		Assets:         []Source{BytesSource("1.png", image(1, 200)), BytesSource("2.png", image(2, 99))},
	})

	require.NoError(t, err)
	assert.Equal(t, 1, ch.PageCount)
}

func TestUploadDocument(t *testing.T) {
	env := setupTestDB(t)
	ctx := context.Background()
	pdf := []byte("%PDF-1.7\n%\xe2\xe3\xcf\xd3\n1 0 obj\n")

	ch, err := env.ingester.UploadDocument(ctx, DocumentRequest{
		CatalogEntryID: env.mangaID,
		Number:         4,
		Title:          "Bonus",
		Asset:          BytesSource("bonus.pdf", pdf),
	})
	require.NoError(t, err)

	stored, err := env.chapters.Get(ctx, ch.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsDocumentForm)
	assert.Zero(t, stored.PageCount)
	assert.True(t, stored.HasDocument())

	mt, err := codec.MediaType(stored.DocumentAsset)
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", mt)

	list, err := env.pages.ListByChapter(ctx, ch.ID)
	require.NoError(t, err)
	assert.Empty(t, list)

	issues, err := env.chapters.Audit(ctx)
	require.NoError(t, err)
	assert.Empty(t, issues)
}

func TestUploadDocument_Validation(t *testing.T) {
	env := setupTestDB(t)

	_, err := env.ingester.UploadDocument(context.Background(), DocumentRequest{CatalogEntryID: env.mangaID})
	assert.True(t, database.IsValidationError(err))

	_, err = env.ingester.UploadDocument(context.Background(), DocumentRequest{
		CatalogEntryID: "missing",
		Asset:          BytesSource("a.pdf", []byte("%PDF-1.4")),
	})
	assert.ErrorIs(t, err, database.ErrNotFound)
}

func TestOrderPages_EqualKeysKeepInputOrder(t *testing.T) {
	sources := []Source{
		BytesSource("b.png", image(1, 10)),
		BytesSource("vol2_003.png", image(2, 10)),
		BytesSource("cover.png", image(3, 10)),
		BytesSource("a.png", image(4, 10)),
		BytesSource("2.png", image(5, 10)),
		BytesSource("x1.png", image(6, 10)),
	}

	ordered := OrderPages(sources, 0)

	names := make([]string, len(ordered))
	for i, s := range ordered {
		names[i] = s.Name()
	}
	// numberless names share key 0; vol2_003 and 2 share key 2
	assert.Equal(t, []string{"b.png", "cover.png", "a.png", "x1.png", "vol2_003.png", "2.png"}, names)
	assert.Same(t, sources[0], ordered[0])
	assert.Same(t, sources[1], ordered[4])
}

func TestDirSources(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "01.png"), image(1, 6000), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "02.JPG"), image(2, 6000), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("hi"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.png"), 0o755))

	sources, err := DirSources(dir, utils.IsImageFile)
	require.NoError(t, err)
	require.Len(t, sources, 2)
	assert.Equal(t, int64(6000), sources[0].Size())

	rc, err := sources[0].Open()
	require.NoError(t, err)
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, image(1, 6000), data)

	_, err = FileSource(filepath.Join(dir, "sub.png"))
	assert.Error(t, err)
}
