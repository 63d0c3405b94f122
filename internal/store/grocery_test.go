package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dukerupert/grocer/internal/config"
	"github.com/dukerupert/grocer/internal/database"
	"github.com/dukerupert/grocer/internal/model"
)

var baseTime = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func setupGroceryTestDB(t *testing.T) *GroceryStore {
	t.Helper()
	db, err := database.Open(config.Database{Driver: config.DriverSQLite, DSN: ":memory:"})
	require.NoError(t, err, "open test db")
	t.Cleanup(func() { db.Close() })
	return NewGroceryStore(db, config.DriverSQLite)
}

func ptr[T any](v T) *T { return &v }

func createList(t *testing.T, gs *GroceryStore, owner, name string, at time.Time) *model.GroceryList {
	t.Helper()
	l, err := gs.CreateList(context.Background(), model.GroceryList{
		Name: name, Owner: owner, CreatedAt: at, UpdatedAt: at,
	})
	require.NoError(t, err, "create list")
	return l
}

func createItem(t *testing.T, gs *GroceryStore, listID int64, name string, at time.Time) *model.GroceryItem {
	t.Helper()
	item, err := gs.CreateItem(context.Background(), model.GroceryItem{
		GroceryListID: listID, Name: name, Quantity: 1, CreatedAt: at, UpdatedAt: at,
	})
	require.NoError(t, err, "create item")
	return item
}

func TestListCRUD(t *testing.T) {
	gs := setupGroceryTestDB(t)
	ctx := context.Background()

	date := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	created, err := gs.CreateList(ctx, model.GroceryList{
		Name:        "2026-03-01 - Costco",
		Stores:      ptr("Costco"),
		Description: ptr("monthly run"),
		Owner:       "alice",
		ListDate:    &date,
		CreatedAt:   baseTime,
		UpdatedAt:   baseTime,
	})
	require.NoError(t, err)
	assert.NotZero(t, created.ID)
	assert.Equal(t, "2026-03-01 - Costco", created.Name)
	require.NotNil(t, created.Stores)
	assert.Equal(t, "Costco", *created.Stores)
	require.NotNil(t, created.ListDate)
	assert.True(t, created.ListDate.Equal(date))
	assert.False(t, created.IsClosed)

	got, err := gs.GetList(ctx, created.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "alice", got.Owner)
	assert.True(t, got.CreatedAt.Equal(baseTime))

	later := baseTime.Add(time.Minute)
	updated, err := gs.UpdateList(ctx, created.ID, model.ListPatch{
		Description: model.Null[*string](),
		IsClosed:    model.Some(true),
	}, later)
	require.NoError(t, err)
	require.NotNil(t, updated)
	assert.Nil(t, updated.Description)
	assert.True(t, updated.IsClosed)
	assert.Equal(t, "2026-03-01 - Costco", updated.Name, "absent fields stay untouched")
	require.NotNil(t, updated.Stores)
	assert.True(t, updated.UpdatedAt.Equal(later))

	removed, err := gs.DeleteList(ctx, created.ID)
	require.NoError(t, err)
	assert.Zero(t, removed)

	got, err = gs.GetList(ctx, created.ID)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestGetListNotFound(t *testing.T) {
	gs := setupGroceryTestDB(t)

	got, err := gs.GetList(context.Background(), 9999)
	require.NoError(t, err)
	assert.Nil(t, got)

	updated, err := gs.UpdateList(context.Background(), 9999, model.ListPatch{Name: model.Some("x")}, baseTime)
	require.NoError(t, err)
	assert.Nil(t, updated)
}

func TestListsByOwnerOrderingAndFilter(t *testing.T) {
	gs := setupGroceryTestDB(t)
	ctx := context.Background()

	older := createList(t, gs, "alice", "Older", baseTime)
	newer := createList(t, gs, "alice", "Newer", baseTime.Add(time.Hour))
	closed := createList(t, gs, "alice", "Closed", baseTime.Add(2*time.Hour))
	createList(t, gs, "bob", "Bob's", baseTime)

	_, err := gs.UpdateList(ctx, closed.ID, model.ListPatch{IsClosed: model.Some(true)}, baseTime.Add(3*time.Hour))
	require.NoError(t, err)

	open, err := gs.ListsByOwner(ctx, "alice", 0, 100, false)
	require.NoError(t, err)
	require.Len(t, open, 2)
	assert.Equal(t, newer.ID, open[0].ID)
	assert.Equal(t, older.ID, open[1].ID)

	all, err := gs.ListsByOwner(ctx, "alice", 0, 100, true)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, closed.ID, all[0].ID, "closed list was updated last")

	page, err := gs.ListsByOwner(ctx, "alice", 1, 1, true)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, newer.ID, page[0].ID)

	rest, err := gs.ListsByOwner(ctx, "alice", 2, 0, true)
	require.NoError(t, err)
	require.Len(t, rest, 1)
	assert.Equal(t, older.ID, rest[0].ID)
}

func TestItemCRUD(t *testing.T) {
	gs := setupGroceryTestDB(t)
	ctx := context.Background()
	list := createList(t, gs, "alice", "Weekly", baseTime)

	item, err := gs.CreateItem(ctx, model.GroceryItem{
		GroceryListID: list.ID,
		Name:          "Milk",
		Quantity:      2,
		Unit:          ptr("gallon"),
		Category:      ptr("Dairy"),
		Store:         ptr("Costco"),
		CreatedAt:     baseTime,
		UpdatedAt:     baseTime,
	})
	require.NoError(t, err)
	assert.Equal(t, list.ID, item.GroceryListID)
	assert.Equal(t, 2.0, item.Quantity)
	require.NotNil(t, item.Unit)
	assert.Equal(t, "gallon", *item.Unit)
	assert.Nil(t, item.Notes)
	assert.False(t, item.Purchased)

	later := baseTime.Add(time.Minute)
	updated, err := gs.UpdateItem(ctx, item.ID, model.ItemPatch{Quantity: model.Some(3.0)}, later)
	require.NoError(t, err)
	require.NotNil(t, updated)
	assert.Equal(t, 3.0, updated.Quantity)
	assert.Equal(t, "Milk", updated.Name)
	assert.Equal(t, item.Unit, updated.Unit)
	assert.Equal(t, item.Category, updated.Category)
	assert.Equal(t, item.Store, updated.Store)
	assert.Equal(t, item.Purchased, updated.Purchased)
	assert.True(t, updated.UpdatedAt.After(item.UpdatedAt))

	require.NoError(t, gs.DeleteItem(ctx, item.ID))
	got, err := gs.GetItem(ctx, item.ID)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestItemsByListOrdering(t *testing.T) {
	gs := setupGroceryTestDB(t)
	ctx := context.Background()
	list := createList(t, gs, "alice", "Weekly", baseTime)

	bread := createItem(t, gs, list.ID, "Bread", baseTime)
	eggs := createItem(t, gs, list.ID, "Eggs", baseTime.Add(time.Second))
	milk := createItem(t, gs, list.ID, "Milk", baseTime.Add(2*time.Second))

	_, err := gs.UpdateItem(ctx, bread.ID, model.ItemPatch{Purchased: model.Some(true)}, baseTime.Add(3*time.Second))
	require.NoError(t, err)

	items, err := gs.ItemsByList(ctx, list.ID, 0, 0)
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, []int64{eggs.ID, milk.ID, bread.ID}, []int64{items[0].ID, items[1].ID, items[2].ID})

	page, err := gs.ItemsByList(ctx, list.ID, 1, 1)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, milk.ID, page[0].ID)
}

func TestItemsByIDsSkipsMissing(t *testing.T) {
	gs := setupGroceryTestDB(t)
	list := createList(t, gs, "alice", "Weekly", baseTime)
	a := createItem(t, gs, list.ID, "A", baseTime)
	b := createItem(t, gs, list.ID, "B", baseTime)

	items, err := gs.ItemsByIDs(context.Background(), []int64{b.ID, 9999, a.ID})
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, a.ID, items[0].ID)
	assert.Equal(t, b.ID, items[1].ID)

	none, err := gs.ItemsByIDs(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestDeleteListCascadesItems(t *testing.T) {
	gs := setupGroceryTestDB(t)
	ctx := context.Background()

	list := createList(t, gs, "alice", "Weekly", baseTime)
	other := createList(t, gs, "alice", "Other", baseTime)
	createItem(t, gs, list.ID, "Milk", baseTime)
	createItem(t, gs, list.ID, "Bread", baseTime)
	keep := createItem(t, gs, other.ID, "Eggs", baseTime)

	removed, err := gs.DeleteList(ctx, list.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), removed)

	items, err := gs.ItemsByList(ctx, list.ID, 0, 0)
	require.NoError(t, err)
	assert.Empty(t, items)

	got, err := gs.GetItem(ctx, keep.ID)
	require.NoError(t, err)
	assert.NotNil(t, got, "items of other lists survive")
}

func TestForeignKeyCascadeOnRawDelete(t *testing.T) {
	gs := setupGroceryTestDB(t)
	ctx := context.Background()

	list := createList(t, gs, "alice", "Weekly", baseTime)
	item := createItem(t, gs, list.ID, "Milk", baseTime)

	_, err := gs.db.Exec(`DELETE FROM grocery_lists WHERE id = ?`, list.ID)
	require.NoError(t, err)

	got, err := gs.GetItem(ctx, item.ID)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestCreateItemRequiresExistingList(t *testing.T) {
	gs := setupGroceryTestDB(t)

	_, err := gs.CreateItem(context.Background(), model.GroceryItem{
		GroceryListID: 9999, Name: "Orphan", Quantity: 1, CreatedAt: baseTime, UpdatedAt: baseTime,
	})
	assert.Error(t, err)
}

func TestReassignItems(t *testing.T) {
	gs := setupGroceryTestDB(t)
	ctx := context.Background()

	from := createList(t, gs, "alice", "From", baseTime)
	to := createList(t, gs, "alice", "To", baseTime)
	a := createItem(t, gs, from.ID, "A", baseTime)
	b := createItem(t, gs, from.ID, "B", baseTime)
	c := createItem(t, gs, from.ID, "C", baseTime)

	_, err := gs.UpdateItem(ctx, a.ID, model.ItemPatch{Purchased: model.Some(true)}, baseTime)
	require.NoError(t, err)

	later := baseTime.Add(time.Hour)
	moved, err := gs.ReassignItems(ctx, []int64{a.ID, b.ID}, to.ID, later)
	require.NoError(t, err)
	assert.Equal(t, int64(2), moved)

	items, err := gs.ItemsByList(ctx, to.ID, 0, 0)
	require.NoError(t, err)
	require.Len(t, items, 2)
	for _, item := range items {
		assert.False(t, item.Purchased, "item %d should be reset", item.ID)
		assert.True(t, item.UpdatedAt.Equal(later))
	}

	left, err := gs.ItemsByList(ctx, from.ID, 0, 0)
	require.NoError(t, err)
	require.Len(t, left, 1)
	assert.Equal(t, c.ID, left[0].ID)
}

func TestWithTxRollsBack(t *testing.T) {
	gs := setupGroceryTestDB(t)
	ctx := context.Background()

	from := createList(t, gs, "alice", "From", baseTime)
	item := createItem(t, gs, from.ID, "A", baseTime)

	boom := errors.New("boom")
	err := gs.WithTx(ctx, func(tx *GroceryStore) error {
		to, err := tx.CreateList(ctx, model.GroceryList{Name: "To", Owner: "alice", CreatedAt: baseTime, UpdatedAt: baseTime})
		if err != nil {
			return err
		}
		if _, err := tx.ReassignItems(ctx, []int64{item.ID}, to.ID, baseTime); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	got, err := gs.GetItem(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, from.ID, got.GroceryListID)

	lists, err := gs.ListsByOwner(ctx, "alice", 0, 0, true)
	require.NoError(t, err)
	assert.Len(t, lists, 1, "list created inside the rolled back transaction is gone")
}

func TestPopularStores(t *testing.T) {
	gs := setupGroceryTestDB(t)
	ctx := context.Background()
	list := createList(t, gs, "alice", "Weekly", baseTime)

	add := func(store *string) {
		_, err := gs.CreateItem(ctx, model.GroceryItem{
			GroceryListID: list.ID, Name: "x", Quantity: 1, Store: store, CreatedAt: baseTime, UpdatedAt: baseTime,
		})
		require.NoError(t, err)
	}
	for _, s := range []string{"Target", "Costco", "Target", "Aldi", "Costco", "Whole Foods"} {
		add(ptr(s))
	}
	add(nil)
	add(ptr(""))

	stores, err := gs.PopularStores(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, []string{"Costco", "Target", "Aldi"}, stores)

	all, err := gs.PopularStores(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"Costco", "Target", "Aldi", "Whole Foods"}, all)
}

func TestPlaceholderFormatPerDriver(t *testing.T) {
	tests := []struct {
		driver string
		want   string
	}{
		{config.DriverSQLite, "SELECT id FROM grocery_lists WHERE owner = ?"},
		{config.DriverPostgres, "SELECT id FROM grocery_lists WHERE owner = $1"},
	}
	for _, tt := range tests {
		t.Run(tt.driver, func(t *testing.T) {
			gs := NewGroceryStore(nil, tt.driver)
			query, _, err := gs.sq.Select("id").From("grocery_lists").Where(squirrel.Eq{"owner": "alice"}).ToSql()
			require.NoError(t, err)
			assert.Equal(t, tt.want, query)
		})
	}
}
