package repositories

import (
	"context"
	"errors"
	"testing"
	"time"

	"dbdesigner/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// storeFactory returns an empty store and the id of a user that may own
// databases in it.
type storeFactory func(t *testing.T) (Store, int64)

func runStoreContract(t *testing.T, newStore storeFactory) {
	t.Run("earliest database", func(t *testing.T) {
		testEarliestDatabase(t, newStore)
	})
	t.Run("table names are unique per database", func(t *testing.T) {
		testTableNames(t, newStore)
	})
	t.Run("fields keep display order", func(t *testing.T) {
		testFieldOrder(t, newStore)
	})
	t.Run("links resolve names and pin fields", func(t *testing.T) {
		testLinks(t, newStore)
	})
	t.Run("transaction rolls back", func(t *testing.T) {
		testTransactionRollback(t, newStore)
	})
	t.Run("delete database cascades", func(t *testing.T) {
		testDeleteDatabase(t, newStore)
	})
}

type fixture struct {
	store Store
	db    *models.Database
}

func newFixture(t *testing.T, newStore storeFactory) *fixture {
	t.Helper()

	store, userID := newStore(t)
	db := &models.Database{UserID: userID, Name: " shop ", Slug: "shop"}
	require.NoError(t, store.CreateDatabase(context.Background(), db))
	return &fixture{store: store, db: db}
}

func (f *fixture) table(t *testing.T, name string) *models.Table {
	t.Helper()

	tbl := &models.Table{DatabaseID: f.db.ID, Name: name}
	require.NoError(t, f.store.CreateTable(context.Background(), tbl))
	return tbl
}

func (f *fixture) field(t *testing.T, tableID int64, name string, order int) *models.Field {
	t.Helper()

	fld := &models.Field{TableID: tableID, Name: name, FieldType: "INT", Order: order}
	require.NoError(t, f.store.CreateField(context.Background(), fld))
	return fld
}

func testEarliestDatabase(t *testing.T, newStore storeFactory) {
	ctx := context.Background()
	store, userID := newStore(t)

	empty, err := store.GetEarliestDatabase(ctx)
	require.NoError(t, err)
	assert.Nil(t, empty)

	t1 := time.Date(2001, 1, 1, 0, 0, 0, 0, time.UTC)
	later := &models.Database{UserID: userID, Name: "later", Slug: "later", CreatedAt: t1.Add(time.Hour)}
	require.NoError(t, store.CreateDatabase(ctx, later))
	first := &models.Database{UserID: userID, Name: "first", Slug: "first", CreatedAt: t1}
	require.NoError(t, store.CreateDatabase(ctx, first))

	earliest, err := store.GetEarliestDatabase(ctx)
	require.NoError(t, err)
	require.NotNil(t, earliest)
	assert.Equal(t, first.ID, earliest.ID)

	missing, err := store.GetDatabase(ctx, first.ID+later.ID+100)
	require.NoError(t, err)
	assert.Nil(t, missing)

	got, err := store.GetDatabase(ctx, later.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "later", got.Name)
}

func testTableNames(t *testing.T, newStore storeFactory) {
	ctx := context.Background()
	f := newFixture(t, newStore)
	assert.Equal(t, "shop", f.db.Name)

	users := f.table(t, "users")
	posts := f.table(t, "posts")

	err := f.store.CreateTable(ctx, &models.Table{DatabaseID: f.db.ID, Name: "users"})
	assert.True(t, errors.Is(err, ErrConflict))

	posts.Name = "users"
	assert.True(t, errors.Is(f.store.UpdateTable(ctx, posts), ErrConflict))

	x, y := 3, 4
	users.Name = "accounts"
	users.X, users.Y = &x, &y
	require.NoError(t, f.store.UpdateTable(ctx, users))

	tables, err := f.store.ListTables(ctx, f.db.ID)
	require.NoError(t, err)
	require.Len(t, tables, 2)
	assert.Equal(t, "accounts", tables[0].Name)
	assert.Equal(t, 3, *tables[0].X)
	assert.Equal(t, "posts", tables[1].Name)
	assert.Nil(t, tables[1].X)

	err = f.store.CreateTable(ctx, &models.Table{DatabaseID: f.db.ID + 1000, Name: "orphan"})
	assert.True(t, errors.Is(err, ErrConflict))
}

func testFieldOrder(t *testing.T, newStore storeFactory) {
	ctx := context.Background()
	f := newFixture(t, newStore)
	users := f.table(t, "users")
	posts := f.table(t, "posts")

	f.field(t, users.ID, "email", 2)
	id := f.field(t, users.ID, "id", 1)
	f.field(t, posts.ID, "id", 1)

	err := f.store.CreateField(ctx, &models.Field{TableID: users.ID, Name: "email", Order: 3})
	assert.True(t, errors.Is(err, ErrConflict))

	fields, err := f.store.ListFields(ctx, users.ID)
	require.NoError(t, err)
	require.Len(t, fields, 2)
	assert.Equal(t, "id", fields[0].Name)
	assert.Equal(t, "email", fields[1].Name)

	id.Length = 11
	id.PrimaryField = true
	id.AI = true
	require.NoError(t, f.store.UpdateField(ctx, id))
	got, err := f.store.GetField(ctx, id.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 11, got.Length)
	assert.True(t, bool(got.PrimaryField))
	assert.True(t, bool(got.AI))
	assert.False(t, bool(got.Nullable))

	all, err := f.store.ListFieldsByDatabase(ctx, f.db.ID)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func testLinks(t *testing.T, newStore storeFactory) {
	ctx := context.Background()
	f := newFixture(t, newStore)
	users := f.table(t, "users")
	posts := f.table(t, "posts")
	userID := f.field(t, users.ID, "id", 1)
	authorID := f.field(t, posts.ID, "author_id", 1)

	link := &models.Link{
		DatabaseID:    f.db.ID,
		SourceTableID: posts.ID,
		SourceFieldID: authorID.ID,
		TargetTableID: users.ID,
		TargetFieldID: userID.ID,
	}
	require.NoError(t, f.store.CreateLink(ctx, link))

	links, err := f.store.ListLinks(ctx, f.db.ID)
	require.NoError(t, err)
	require.Len(t, links, 1)
	assert.Equal(t, "posts", links[0].SourceTable)
	assert.Equal(t, "author_id", links[0].SourceField)
	assert.Equal(t, "users", links[0].TargetTable)
	assert.Equal(t, "id", links[0].TargetField)

	n, err := f.store.CountLinksByField(ctx, userID.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	assert.True(t, errors.Is(f.store.DeleteField(ctx, userID.ID), ErrConflict))

	removed, err := f.store.DeleteLinksByTable(ctx, users.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)
	require.NoError(t, f.store.DeleteField(ctx, userID.ID))

	gone, err := f.store.GetLink(ctx, link.ID)
	require.NoError(t, err)
	assert.Nil(t, gone)

	bad := &models.Link{
		DatabaseID:    f.db.ID,
		SourceTableID: posts.ID,
		SourceFieldID: authorID.ID,
		TargetTableID: users.ID,
		TargetFieldID: userID.ID,
	}
	assert.True(t, errors.Is(f.store.CreateLink(ctx, bad), ErrConflict))
}

func testTransactionRollback(t *testing.T, newStore storeFactory) {
	ctx := context.Background()
	f := newFixture(t, newStore)
	boom := errors.New("boom")

	err := f.store.Transaction(ctx, func(tx Store) error {
		require.NoError(t, tx.CreateTable(ctx, &models.Table{DatabaseID: f.db.ID, Name: "users"}))
		return tx.Transaction(ctx, func(inner Store) error {
			require.NoError(t, inner.CreateTable(ctx, &models.Table{DatabaseID: f.db.ID, Name: "posts"}))
			return boom
		})
	})
	assert.ErrorIs(t, err, boom)

	tables, err := f.store.ListTables(ctx, f.db.ID)
	require.NoError(t, err)
	assert.Empty(t, tables)

	require.NoError(t, f.store.Transaction(ctx, func(tx Store) error {
		return tx.CreateTable(ctx, &models.Table{DatabaseID: f.db.ID, Name: "users"})
	}))
	tables, err = f.store.ListTables(ctx, f.db.ID)
	require.NoError(t, err)
	assert.Len(t, tables, 1)
}

func testDeleteDatabase(t *testing.T, newStore storeFactory) {
	ctx := context.Background()
	f := newFixture(t, newStore)
	users := f.table(t, "users")
	id := f.field(t, users.ID, "id", 1)
	require.NoError(t, f.store.CreateLink(ctx, &models.Link{
		DatabaseID:    f.db.ID,
		SourceTableID: users.ID,
		SourceFieldID: id.ID,
		TargetTableID: users.ID,
		TargetFieldID: id.ID,
	}))

	require.NoError(t, f.store.DeleteDatabase(ctx, f.db.ID))

	db, err := f.store.GetDatabase(ctx, f.db.ID)
	require.NoError(t, err)
	assert.Nil(t, db)
	tbl, err := f.store.GetTable(ctx, users.ID)
	require.NoError(t, err)
	assert.Nil(t, tbl)
	fld, err := f.store.GetField(ctx, id.ID)
	require.NoError(t, err)
	assert.Nil(t, fld)
}
