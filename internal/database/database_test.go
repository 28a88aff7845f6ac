package database

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/mrlokans/mymanga/internal/entities"
)

// setupTestDB creates a fresh test database in a temporary directory
func setupTestDB(t *testing.T, opts ...Option) *Database {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	db, err := NewDatabase(dbPath, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func testPage(chapterID string, number int) entities.Page {
	return entities.Page{
		ID:         fmt.Sprintf("%s-p%d", chapterID, number),
		ChapterID:  chapterID,
		PageNumber: number,
		ImageAsset: "data:image/png;base64,AAAA",
	}
}

func TestNewDatabase_AppliesAllMigrations(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	version, err := db.SchemaVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, LatestSchemaVersion, version)

	for name := range collections {
		assert.True(t, db.DB.Migrator().HasTable(name), "missing table %s", name)
	}
	assert.True(t, db.DB.Migrator().HasIndex(&entities.Page{}, "idx_pages_chapter_id_page_number"))
	assert.True(t, db.DB.Migrator().HasIndex(&entities.Account{}, "idx_accounts_email"))
}

func TestNewDatabase_ReopenIsNoOp(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "reopen.db")
	ctx := context.Background()

	db, err := NewDatabase(dbPath)
	require.NoError(t, err)
	accounts := CollectionOf[entities.Account](db, CollectionAccounts)
	require.NoError(t, accounts.Put(ctx, &entities.Account{ID: "a1", Email: "a@example.com"}))
	require.NoError(t, db.Close())

	db, err = NewDatabase(dbPath)
	require.NoError(t, err)
	defer db.Close()

	var applied []SchemaMigration
	require.NoError(t, db.DB.Order("version").Find(&applied).Error)
	require.Len(t, applied, len(migrations))

	accounts = CollectionOf[entities.Account](db, CollectionAccounts)
	got, ok, err := accounts.Get(ctx, "a1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "a@example.com", got.Email)
}

func TestNewDatabase_UpgradeKeepsExistingData(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "upgrade.db")
	ctx := context.Background()

	// Open at version 1 only: no progress collection yet
	db, err := NewDatabase(dbPath, withMigrations(migrations[:1]))
	require.NoError(t, err)
	assert.False(t, db.DB.Migrator().HasTable(CollectionProgress))

	catalog := CollectionOf[entities.CatalogEntry](db, CollectionCatalog)
	require.NoError(t, catalog.Put(ctx, &entities.CatalogEntry{ID: "m1", Title: "Berserk"}))
	require.NoError(t, db.Close())

	db, err = NewDatabase(dbPath)
	require.NoError(t, err)
	defer db.Close()

	version, err := db.SchemaVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, version)
	assert.True(t, db.DB.Migrator().HasTable(CollectionProgress))

	catalog = CollectionOf[entities.CatalogEntry](db, CollectionCatalog)
	entry, ok, err := catalog.Get(ctx, "m1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Berserk", entry.Title)
}

func TestNewDatabase_UnopenablePath(t *testing.T) {
	// A directory cannot be opened as a database file
	dir := t.TempDir()
	_, err := NewDatabase(dir)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrStorageUnavailable)
}

func TestCollection_PutOverwritesByPrimaryKey(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	catalog := CollectionOf[entities.CatalogEntry](db, CollectionCatalog)

	require.NoError(t, catalog.Put(ctx, &entities.CatalogEntry{ID: "m1", Title: "First"}))
	require.NoError(t, catalog.Put(ctx, &entities.CatalogEntry{ID: "m1", Title: "Second"}))

	all, err := catalog.All(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "Second", all[0].Title)
}

func TestCollection_GetMissingKey(t *testing.T) {
	db := setupTestDB(t)
	catalog := CollectionOf[entities.CatalogEntry](db, CollectionCatalog)

	_, ok, err := catalog.Get(context.Background(), "nope")

	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCollection_InsertRejectsExistingKey(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	chapters := CollectionOf[entities.Chapter](db, CollectionChapters)

	require.NoError(t, chapters.Insert(ctx, &entities.Chapter{ID: "c1", Number: 1}))
	err := chapters.Insert(ctx, &entities.Chapter{ID: "c1", Number: 2})

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConstraintViolation)

	got, ok, err := chapters.Get(ctx, "c1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 1.0, got.Number)
}

func TestCollection_QueryByIndex(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	progress := CollectionOf[entities.ProgressMark](db, CollectionProgress)

	marks := []entities.ProgressMark{
		{ID: "u1_c1", AccountID: "u1", CatalogEntryID: "m1", ChapterID: "c1", LastPageReached: 3},
		{ID: "u1_c2", AccountID: "u1", CatalogEntryID: "m1", ChapterID: "c2", LastPageReached: 1},
		{ID: "u1_c9", AccountID: "u1", CatalogEntryID: "m2", ChapterID: "c9", LastPageReached: 7},
		{ID: "u2_c1", AccountID: "u2", CatalogEntryID: "m1", ChapterID: "c1", LastPageReached: 5},
	}
	require.NoError(t, progress.PutMany(ctx, marks))

	byAccount, err := progress.QueryByIndex(ctx, IndexAccountID, "u1")
	require.NoError(t, err)
	assert.Len(t, byAccount, 3)

	composite, err := progress.QueryByIndex(ctx, IndexAccountCatalogEntryID, "u1", "m1")
	require.NoError(t, err)
	require.Len(t, composite, 2)
	ids := []string{composite[0].ID, composite[1].ID}
	assert.ElementsMatch(t, []string{"u1_c1", "u1_c2"}, ids)

	_, err = progress.QueryByIndex(ctx, "missing", "u1")
	assert.ErrorIs(t, err, ErrUnknownIndex)

	_, err = progress.QueryByIndex(ctx, IndexAccountCatalogEntryID, "u1")
	assert.Error(t, err)
}

func TestCollection_GetUnique(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	accounts := CollectionOf[entities.Account](db, CollectionAccounts)
	require.NoError(t, accounts.Put(ctx, &entities.Account{ID: "a1", Email: "reader@example.com"}))

	got, ok, err := accounts.GetUnique(ctx, IndexEmail, "reader@example.com")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "a1", got.ID)

	_, ok, err = accounts.GetUnique(ctx, IndexEmail, "other@example.com")
	require.NoError(t, err)
	assert.False(t, ok)

	pages := CollectionOf[entities.Page](db, CollectionPages)
	_, _, err = pages.GetUnique(ctx, IndexChapterID, "c1")
	assert.Error(t, err, "non-unique index must be rejected")
}

func TestCollection_UniqueIndexViolation(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	accounts := CollectionOf[entities.Account](db, CollectionAccounts)

	require.NoError(t, accounts.Put(ctx, &entities.Account{ID: "a1", DisplayName: "First", Email: "same@example.com"}))
	err := accounts.Put(ctx, &entities.Account{ID: "a2", DisplayName: "Second", Email: "same@example.com"})

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConstraintViolation)

	first, ok, err := accounts.Get(ctx, "a1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "First", first.DisplayName)

	_, ok, err = accounts.Get(ctx, "a2")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCollection_PutManyIsAtomic(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	pages := CollectionOf[entities.Page](db, CollectionPages)

	batch := []entities.Page{testPage("c1", 1), testPage("c1", 2), testPage("c1", 3)}
	dup := testPage("c1", 2)
	dup.ID = "c1-duplicate"
	batch = append(batch, dup)

	err := pages.PutMany(ctx, batch)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConstraintViolation)

	n, err := pages.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestCollection_PutManyEmpty(t *testing.T) {
	db := setupTestDB(t)
	pages := CollectionOf[entities.Page](db, CollectionPages)

	assert.NoError(t, pages.PutMany(context.Background(), nil))
}

func TestCollection_UnknownCollectionPanics(t *testing.T) {
	db := setupTestDB(t)
	assert.Panics(t, func() { CollectionOf[entities.Page](db, "nope") })
}

func TestDatabase_TransactionRollsBackAllCollections(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	chapters := CollectionOf[entities.Chapter](db, CollectionChapters)
	pages := CollectionOf[entities.Page](db, CollectionPages)

	require.NoError(t, pages.Put(ctx, ptr(testPage("c1", 1))))

	err := db.Transaction(ctx, []string{CollectionChapters, CollectionPages}, func(tx *gorm.DB) error {
		if err := chapters.Bind(tx).Insert(ctx, &entities.Chapter{ID: "c1", PageCount: 2}); err != nil {
			return err
		}
		clash := testPage("c1", 1)
		clash.ID = "other"
		return pages.Bind(tx).PutMany(ctx, []entities.Page{testPage("c1", 2), clash})
	})
	require.ErrorIs(t, err, ErrConstraintViolation)

	_, ok, err := chapters.Get(ctx, "c1")
	require.NoError(t, err)
	assert.False(t, ok, "chapter must not persist when its pages fail")

	n, err := pages.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestDatabase_TransactionPropagatesCallerError(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	catalog := CollectionOf[entities.CatalogEntry](db, CollectionCatalog)
	boom := errors.New("boom")

	err := db.Transaction(ctx, []string{CollectionCatalog}, func(tx *gorm.DB) error {
		if err := catalog.Bind(tx).Put(ctx, &entities.CatalogEntry{ID: "m1"}); err != nil {
			return err
		}
		return boom
	})

	assert.ErrorIs(t, err, boom)
	n, err := catalog.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestCollection_WriteSurvivesCanceledContext(t *testing.T) {
	db := setupTestDB(t)
	catalog := CollectionOf[entities.CatalogEntry](db, CollectionCatalog)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, catalog.Put(ctx, &entities.CatalogEntry{ID: "m1", Title: "Kept"}))

	_, ok, err := catalog.Get(context.Background(), "m1")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestCollection_ConcurrentWrites(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	progress := CollectionOf[entities.ProgressMark](db, CollectionProgress)
	catalog := CollectionOf[entities.CatalogEntry](db, CollectionCatalog)

	var wg sync.WaitGroup
	for i := range 20 {
		wg.Add(2)
		go func() {
			defer wg.Done()
			mark := &entities.ProgressMark{
				ID: "u1_c1", AccountID: "u1", ChapterID: "c1", LastPageReached: i + 1, UpdatedAt: time.Now(),
			}
			assert.NoError(t, progress.Put(ctx, mark))
		}()
		go func() {
			defer wg.Done()
			assert.NoError(t, catalog.Put(ctx, &entities.CatalogEntry{ID: fmt.Sprintf("m%d", i)}))
		}()
	}
	wg.Wait()

	n, err := progress.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = catalog.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(20), n)
}

func TestDatabase_StatsAndOptimize(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	require.NoError(t, CollectionOf[entities.CatalogEntry](db, CollectionCatalog).Put(ctx, &entities.CatalogEntry{ID: "m1"}))
	require.NoError(t, CollectionOf[entities.Chapter](db, CollectionChapters).Put(ctx, &entities.Chapter{ID: "c1", CatalogEntryID: "m1", PageCount: 2}))
	require.NoError(t, CollectionOf[entities.Page](db, CollectionPages).PutMany(ctx, []entities.Page{testPage("c1", 1), testPage("c1", 2)}))

	stats, err := db.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.MangaCount)
	assert.Equal(t, int64(1), stats.ChapterCount)
	assert.Equal(t, int64(2), stats.PageCount)
	assert.Positive(t, stats.SizeBytes)

	assert.NoError(t, db.Optimize(ctx))
}

func TestTranslateError(t *testing.T) {
	assert.ErrorIs(t, translateError(gorm.ErrRecordNotFound), ErrNotFound)
	assert.ErrorIs(t, translateError(gorm.ErrDuplicatedKey), ErrConstraintViolation)
	assert.Nil(t, translateError(nil))

	plain := errors.New("plain")
	assert.Equal(t, plain, translateError(plain))
}

func TestValidationError(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", NewValidationError("title", "must not be empty"))

	assert.True(t, IsValidationError(err))
	assert.Contains(t, err.Error(), "invalid title: must not be empty")
	assert.False(t, IsValidationError(ErrNotFound))
}

func ptr[T any](v T) *T {
	return &v
}
