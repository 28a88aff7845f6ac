package progress

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/mymanga/internal/database"
)

func setupTestDB(t *testing.T) *Repository {
	t.Helper()
	db, err := database.NewDatabase(filepath.Join(t.TempDir(), "progress.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewRepository(db)
}

func TestRepository_Upsert(t *testing.T) {
	repo := setupTestDB(t)
	ctx := context.Background()

	mark, err := repo.Upsert(ctx, "u1", "m1", "c1", 4)

	require.NoError(t, err)
	assert.Equal(t, "u1_c1", mark.ID)

	got, ok, err := repo.Get(ctx, "u1", "c1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 4, got.LastPageReached)
	assert.Equal(t, "m1", got.CatalogEntryID)
}

func TestRepository_Upsert_LastWriteWins(t *testing.T) {
	repo := setupTestDB(t)
	ctx := context.Background()
	base := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	_, err := repo.WithClock(func() time.Time { return base }).Upsert(ctx, "u1", "m1", "c1", 12)
	require.NoError(t, err)
	// Scrolling back is recorded too
	_, err = repo.WithClock(func() time.Time { return base.Add(time.Minute) }).Upsert(ctx, "u1", "m1", "c1", 5)
	require.NoError(t, err)

	got, ok, err := repo.Get(ctx, "u1", "c1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 5, got.LastPageReached)
	assert.True(t, got.UpdatedAt.Equal(base.Add(time.Minute)))

	all, err := repo.ListForAccount(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestRepository_Upsert_SamePageTwice(t *testing.T) {
	repo := setupTestDB(t)
	ctx := context.Background()
	base := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	_, err := repo.WithClock(func() time.Time { return base }).Upsert(ctx, "u1", "m1", "c1", 7)
	require.NoError(t, err)
	second, err := repo.WithClock(func() time.Time { return base.Add(30 * time.Second) }).Upsert(ctx, "u1", "m1", "c1", 7)
	require.NoError(t, err)

	all, err := repo.ListForAccount(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, 7, all[0].LastPageReached)
	assert.True(t, all[0].UpdatedAt.Equal(second.UpdatedAt))
	assert.True(t, all[0].UpdatedAt.Equal(base.Add(30*time.Second)))
}

func TestRepository_Upsert_Validation(t *testing.T) {
	repo := setupTestDB(t)
	ctx := context.Background()

	_, err := repo.Upsert(ctx, "u1", "m1", "c1", 0)
	assert.True(t, database.IsValidationError(err))

	_, err = repo.Upsert(ctx, "", "m1", "c1", 1)
	assert.True(t, database.IsValidationError(err))

	_, err = repo.Upsert(ctx, "u1", "m1", "", 1)
	assert.True(t, database.IsValidationError(err))
}

func TestRepository_Get_Unread(t *testing.T) {
	repo := setupTestDB(t)

	mark, ok, err := repo.Get(context.Background(), "u1", "c1")

	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, mark)
}

func TestRepository_ListForAccountAndCatalogEntry(t *testing.T) {
	repo := setupTestDB(t)
	ctx := context.Background()

	for _, m := range []struct {
		account, manga, chapter string
		page                    int
	}{
		{"u1", "m1", "c1", 10},
		{"u1", "m1", "c2", 3},
		{"u1", "m2", "c7", 1},
		{"u2", "m1", "c1", 8},
	} {
		_, err := repo.Upsert(ctx, m.account, m.manga, m.chapter, m.page)
		require.NoError(t, err)
	}

	marks, err := repo.ListForAccountAndCatalogEntry(ctx, "u1", "m1")
	require.NoError(t, err)
	chapters := []string{}
	for _, m := range marks {
		chapters = append(chapters, m.ChapterID)
	}
	assert.ElementsMatch(t, []string{"c1", "c2"}, chapters)

	marks, err = repo.ListForAccount(ctx, "u2")
	require.NoError(t, err)
	assert.Len(t, marks, 1)

	marks, err = repo.ListForAccountAndCatalogEntry(ctx, "u3", "m1")
	require.NoError(t, err)
	assert.Empty(t, marks)
}
