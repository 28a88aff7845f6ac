package database

import (
	"fmt"
	"strings"

	"github.com/mrlokans/mymanga/internal/entities"
)

// Collection names.
const (
	CollectionCatalog  = "manga"
	CollectionChapters = "chapters"
	CollectionPages    = "pages"
	CollectionAccounts = "accounts"
	CollectionProgress = "progress"
)

// Secondary index names, as passed to QueryByIndex and GetUnique.
const (
	IndexCatalogEntryID        = "catalogEntryId"
	IndexChapterID             = "chapterId"
	IndexChapterPageNumber     = "chapterId_pageNumber"
	IndexEmail                 = "email"
	IndexAccountID             = "accountId"
	IndexAccountCatalogEntryID = "accountId_catalogEntryId"
)

// IndexSchema declares a secondary index over one or more columns.
type IndexSchema struct {
	Name    string
	Columns []string
	Unique  bool
}

func (i IndexSchema) physicalName(collection string) string {
	return "idx_" + collection + "_" + strings.Join(i.Columns, "_")
}

func (i IndexSchema) createSQL(collection string) string {
	unique := ""
	if i.Unique {
		unique = "UNIQUE "
	}
	cols := make([]string, len(i.Columns))
	for n, c := range i.Columns {
		cols[n] = `"` + c + `"`
	}
	return fmt.Sprintf(`CREATE %sINDEX IF NOT EXISTS "%s" ON "%s" (%s)`,
		unique, i.physicalName(collection), collection, strings.Join(cols, ", "))
}

// CollectionSchema declares a named collection: its model, primary key column
// and secondary indexes.
type CollectionSchema struct {
	Name       string
	Model      any
	PrimaryKey string
	Indexes    []IndexSchema
}

func (s CollectionSchema) index(name string) (IndexSchema, error) {
	for _, idx := range s.Indexes {
		if idx.Name == name {
			return idx, nil
		}
	}
	return IndexSchema{}, fmt.Errorf("%w %q on collection %s", ErrUnknownIndex, name, s.Name)
}

var collections = map[string]CollectionSchema{
	CollectionCatalog: {
		Name:       CollectionCatalog,
		Model:      &entities.CatalogEntry{},
		PrimaryKey: "id",
	},
	CollectionChapters: {
		Name:       CollectionChapters,
		Model:      &entities.Chapter{},
		PrimaryKey: "id",
		Indexes: []IndexSchema{
			{Name: IndexCatalogEntryID, Columns: []string{"catalog_entry_id"}},
		},
	},
	CollectionPages: {
		Name:       CollectionPages,
		Model:      &entities.Page{},
		PrimaryKey: "id",
		Indexes: []IndexSchema{
			{Name: IndexChapterID, Columns: []string{"chapter_id"}},
			{Name: IndexChapterPageNumber, Columns: []string{"chapter_id", "page_number"}, Unique: true},
		},
	},
	CollectionAccounts: {
		Name:       CollectionAccounts,
		Model:      &entities.Account{},
		PrimaryKey: "id",
		Indexes: []IndexSchema{
			{Name: IndexEmail, Columns: []string{"email"}, Unique: true},
		},
	},
	CollectionProgress: {
		Name:       CollectionProgress,
		Model:      &entities.ProgressMark{},
		PrimaryKey: "id",
		Indexes: []IndexSchema{
			{Name: IndexAccountID, Columns: []string{"account_id"}},
			{Name: IndexAccountCatalogEntryID, Columns: []string{"account_id", "catalog_entry_id"}},
		},
	},
}

func lookupSchema(name string) (CollectionSchema, bool) {
	s, ok := collections[name]
	return s, ok
}
