package grocery

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dukerupert/grocer/internal/config"
	"github.com/dukerupert/grocer/internal/database"
	"github.com/dukerupert/grocer/internal/model"
	"github.com/dukerupert/grocer/internal/store"
	"github.com/dukerupert/grocer/internal/websocket"
)

var baseTime = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

// fakeClock advances one second on every reading.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(time.Second)
	return c.t
}

type recorder struct {
	mu     sync.Mutex
	events []pendingEvent
}

func (r *recorder) Publish(owner string, msg websocket.Message) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, pendingEvent{owner: owner, msg: msg})
}

func (r *recorder) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.events))
	for i, e := range r.events {
		out[i] = e.msg.Type
	}
	return out
}

func (r *recorder) reset() {
	r.mu.Lock()
	r.events = nil
	r.mu.Unlock()
}

type testEnv struct {
	store    *store.GroceryStore
	lists    *ListManager
	items    *ItemManager
	migrator *Migrator
	stores   *StoreDirectory
	events   *recorder
}

func setupGroceryTest(t *testing.T) *testEnv {
	t.Helper()
	db, err := database.Open(config.Database{Driver: config.DriverSQLite, DSN: ":memory:"})
	require.NoError(t, err, "open test db")
	t.Cleanup(func() { db.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	gs := store.NewGroceryStore(db, config.DriverSQLite)
	events := &recorder{}
	clock := &fakeClock{t: baseTime.Add(-time.Second)}

	lists := NewListManager(gs, events, logger)
	lists.clock = clock.Now
	return &testEnv{
		store:    gs,
		lists:    lists,
		items:    NewItemManager(lists, false, logger),
		migrator: NewMigrator(lists),
		stores:   NewStoreDirectory(gs),
		events:   events,
	}
}

func ptr[T any](v T) *T { return &v }

func (e *testEnv) newList(t *testing.T, owner, name string) *model.GroceryList {
	t.Helper()
	l, err := e.lists.Create(context.Background(), model.NewList{Name: &name}, owner)
	require.NoError(t, err, "create list")
	return l
}

func (e *testEnv) newItem(t *testing.T, owner string, listID int64, name string) *model.GroceryItem {
	t.Helper()
	item, err := e.items.Create(context.Background(), listID, model.NewItem{Name: name}, owner)
	require.NoError(t, err, "create item")
	return item
}

func (e *testEnv) listIDOf(t *testing.T, itemID int64) int64 {
	t.Helper()
	item, err := e.store.GetItem(context.Background(), itemID)
	require.NoError(t, err)
	require.NotNil(t, item)
	return item.GroceryListID
}

func fieldNames(t *testing.T, err error) []string {
	t.Helper()
	var verrs ValidationErrors
	require.ErrorAs(t, err, &verrs)
	names := make([]string, len(verrs))
	for i, fe := range verrs {
		names[i] = fe.Field
	}
	return names
}
