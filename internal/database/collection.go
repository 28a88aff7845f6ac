package database

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// batchSize bounds the number of rows per INSERT statement in PutMany.
const batchSize = 100

// Collection provides typed access to one named collection.
//
// Writes to the same collection are serialized; each write runs in its own
// transaction unless the collection is bound to an outer one with Bind.
// Reads are not serialized and never observe a write in progress.
type Collection[T any] struct {
	db     *Database
	schema CollectionSchema
	tx     *gorm.DB
}

// CollectionOf returns the collection registered under name. It panics if no
// such collection is registered, which is a programming error.
func CollectionOf[T any](db *Database, name string) *Collection[T] {
	schema, ok := lookupSchema(name)
	if !ok {
		panic(fmt.Sprintf("database: unknown collection %q", name))
	}
	return &Collection[T]{db: db, schema: schema}
}

// Name returns the collection name.
func (c *Collection[T]) Name() string {
	return c.schema.Name
}

// Bind returns a view of the collection whose operations run inside tx.
// Used with Database.Transaction for writes spanning several collections.
func (c *Collection[T]) Bind(tx *gorm.DB) *Collection[T] {
	return &Collection[T]{db: c.db, schema: c.schema, tx: tx}
}

func (c *Collection[T]) reader(ctx context.Context) *gorm.DB {
	if c.tx != nil {
		return c.tx
	}
	return c.db.DB.WithContext(ctx)
}

func (c *Collection[T]) write(ctx context.Context, fn func(tx *gorm.DB) error) error {
	if c.tx != nil {
		return c.translate(fn(c.tx))
	}
	unlock := c.db.lockCollections(c.schema.Name)
	defer unlock()
	// A write that has started completes even if the caller stops waiting.
	return c.translate(c.db.DB.WithContext(context.WithoutCancel(ctx)).Transaction(fn))
}

func (c *Collection[T]) translate(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", c.schema.Name, translateError(err))
}

func (c *Collection[T]) upsert() clause.OnConflict {
	return clause.OnConflict{
		Columns:   []clause.Column{{Name: c.schema.PrimaryKey}},
		UpdateAll: true,
	}
}

// Put inserts rec or overwrites the record with the same primary key.
func (c *Collection[T]) Put(ctx context.Context, rec *T) error {
	return c.write(ctx, func(tx *gorm.DB) error {
		return tx.Clauses(c.upsert()).Create(rec).Error
	})
}

// Insert stores rec and fails with ErrConstraintViolation if its primary key
// or any unique index value is already taken.
func (c *Collection[T]) Insert(ctx context.Context, rec *T) error {
	return c.write(ctx, func(tx *gorm.DB) error {
		return tx.Create(rec).Error
	})
}

// PutMany stores all records in one transaction: either every record is
// visible afterwards or none is.
func (c *Collection[T]) PutMany(ctx context.Context, recs []T) error {
	if len(recs) == 0 {
		return nil
	}
	return c.write(ctx, func(tx *gorm.DB) error {
		return tx.Clauses(c.upsert()).CreateInBatches(recs, batchSize).Error
	})
}

// Get returns the record with the given primary key. A missing key is reported
// through the boolean, not as an error.
func (c *Collection[T]) Get(ctx context.Context, key string) (T, bool, error) {
	var rec T
	res := c.reader(ctx).
		Where(clause.Eq{Column: clause.Column{Name: c.schema.PrimaryKey}, Value: key}).
		Limit(1).
		Find(&rec)
	if res.Error != nil {
		return rec, false, c.translate(res.Error)
	}
	return rec, res.RowsAffected > 0, nil
}

// All returns every record. Order is unspecified.
func (c *Collection[T]) All(ctx context.Context) ([]T, error) {
	var recs []T
	if err := c.reader(ctx).Find(&recs).Error; err != nil {
		return nil, c.translate(err)
	}
	return recs, nil
}

// QueryByIndex returns all records whose indexed columns equal values, given
// in the order the index declares its columns.
func (c *Collection[T]) QueryByIndex(ctx context.Context, index string, values ...any) ([]T, error) {
	idx, err := c.schema.index(index)
	if err != nil {
		return nil, err
	}
	if len(values) != len(idx.Columns) {
		return nil, fmt.Errorf("index %s on %s takes %d values, got %d", index, c.schema.Name, len(idx.Columns), len(values))
	}

	q := c.reader(ctx).Model(new(T))
	for i, col := range idx.Columns {
		q = q.Where(clause.Eq{Column: clause.Column{Name: col}, Value: values[i]})
	}
	var recs []T
	if err := q.Find(&recs).Error; err != nil {
		return nil, c.translate(err)
	}
	return recs, nil
}

// GetUnique looks up a single record through a unique index.
func (c *Collection[T]) GetUnique(ctx context.Context, index string, values ...any) (T, bool, error) {
	var zero T
	idx, err := c.schema.index(index)
	if err != nil {
		return zero, false, err
	}
	if !idx.Unique {
		return zero, false, fmt.Errorf("index %s on %s is not unique", index, c.schema.Name)
	}
	recs, err := c.QueryByIndex(ctx, index, values...)
	if err != nil || len(recs) == 0 {
		return zero, false, err
	}
	return recs[0], true, nil
}

// Count returns the number of records in the collection.
func (c *Collection[T]) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := c.reader(ctx).Model(new(T)).Count(&n).Error; err != nil {
		return 0, c.translate(err)
	}
	return n, nil
}
