package pages

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/mymanga/internal/database"
	"github.com/mrlokans/mymanga/internal/entities"
)

func setupTestDB(t *testing.T) *Repository {
	t.Helper()
	db, err := database.NewDatabase(filepath.Join(t.TempDir(), "pages.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewRepository(db)
}

func page(chapterID string, n int) entities.Page {
	return entities.Page{ChapterID: chapterID, PageNumber: n, ImageAsset: "data:image/jpeg;base64,/9j/"}
}

func TestRepository_BulkInsertAndList(t *testing.T) {
	repo := setupTestDB(t)
	ctx := context.Background()

	batch := []entities.Page{page("c1", 3), page("c1", 1), page("c1", 2)}
	require.NoError(t, repo.BulkInsert(ctx, batch))
	require.NoError(t, repo.BulkInsert(ctx, []entities.Page{page("c2", 1)}))

	list, err := repo.ListByChapter(ctx, "c1")

	require.NoError(t, err)
	require.Len(t, list, 3)
	for i, p := range list {
		assert.Equal(t, i+1, p.PageNumber)
		assert.NotEmpty(t, p.ID)
	}
}

func TestRepository_ListByChapter_Empty(t *testing.T) {
	repo := setupTestDB(t)

	list, err := repo.ListByChapter(context.Background(), "none")

	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestRepository_BulkInsert_Validation(t *testing.T) {
	repo := setupTestDB(t)
	ctx := context.Background()

	noAsset := page("c1", 1)
	noAsset.ImageAsset = ""

	tests := []struct {
		name  string
		batch []entities.Page
		field string
	}{
		{"empty batch", nil, "pages"},
		{"mixed chapters", []entities.Page{page("c1", 1), page("c2", 2)}, "chapterId"},
		{"zero page number", []entities.Page{page("c1", 0)}, "pageNumber"},
		{"missing asset", []entities.Page{noAsset}, "imageAsset"},
		{"gap in numbers", []entities.Page{page("c1", 1), page("c1", 3), page("c1", 7)}, "pageNumber"},
		{"not starting at one", []entities.Page{page("c1", 2), page("c1", 3)}, "pageNumber"},
		{"repeated number", []entities.Page{page("c1", 1), page("c1", 1)}, "pageNumber"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := repo.BulkInsert(ctx, tt.batch)

			var verr *database.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
		})
	}

	list, err := repo.ListByChapter(ctx, "c1")
	require.NoError(t, err)
	assert.Empty(t, list, "rejected batches must store nothing")
}

func TestRepository_BulkInsert_DuplicatePageNumberIsAtomic(t *testing.T) {
	repo := setupTestDB(t)
	ctx := context.Background()

	require.NoError(t, repo.BulkInsert(ctx, []entities.Page{page("c1", 1)}))

	err := repo.BulkInsert(ctx, []entities.Page{page("c1", 2), page("c1", 1)})
	assert.ErrorIs(t, err, database.ErrConstraintViolation)

	list, err := repo.ListByChapter(ctx, "c1")
	require.NoError(t, err)
	assert.Len(t, list, 1, "the failed batch must leave no pages behind")
}
