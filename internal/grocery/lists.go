package grocery

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dukerupert/grocer/internal/model"
	"github.com/dukerupert/grocer/internal/store"
	"github.com/dukerupert/grocer/internal/websocket"
)

const maxNameLength = 200

// ListManager owns the list lifecycle and the ownership check every list
// and item operation goes through.
type ListManager struct {
	store  *store.GroceryStore
	events Publisher
	clock  func() time.Time
	logger *slog.Logger
}

func NewListManager(s *store.GroceryStore, events Publisher, logger *slog.Logger) *ListManager {
	if events == nil {
		events = nopPublisher{}
	}
	return &ListManager{
		store:  s,
		events: events,
		clock:  time.Now,
		logger: logger,
	}
}

func (m *ListManager) now() time.Time {
	return m.clock().UTC()
}

// inTx runs fn with a manager bound to one transaction. Events raised by fn
// are delivered only after the transaction commits.
func (m *ListManager) inTx(ctx context.Context, fn func(tx *ListManager) error) error {
	pending := &pendingEvents{}
	err := m.store.WithTx(ctx, func(s *store.GroceryStore) error {
		bound := *m
		bound.store = s
		bound.events = pending
		return fn(&bound)
	})
	if err != nil {
		return err
	}
	pending.flush(m.events)
	return nil
}

// Create stores a new list owned by owner. Without a name, one is derived
// from the list date and stores.
func (m *ListManager) Create(ctx context.Context, in model.NewList, owner string) (*model.GroceryList, error) {
	in, err := normalizeNewList(in)
	if err != nil {
		return nil, err
	}

	now := m.now()
	name := autoName(in, now)
	if in.Name != nil {
		name = *in.Name
	}

	l, err := m.store.CreateList(ctx, model.GroceryList{
		Name:        name,
		Stores:      in.Stores,
		Description: in.Description,
		Owner:       owner,
		ListDate:    utc(in.ListDate),
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		return nil, err
	}

	m.logger.Info("list created", "id", l.ID, "owner", owner)
	m.events.Publish(owner, listMessage("created", l))
	return l, nil
}

// autoName derives a list name as "<date> - <stores>", either part alone,
// or "List <timestamp>" when neither is set. The date is taken in the offset
// the client sent it in.
func autoName(in model.NewList, now time.Time) string {
	var name string
	switch {
	case in.ListDate != nil && in.Stores != nil:
		name = in.ListDate.Format(time.DateOnly) + " - " + *in.Stores
	case in.ListDate != nil:
		name = in.ListDate.Format(time.DateOnly)
	case in.Stores != nil:
		name = *in.Stores
	default:
		name = "List " + now.Format("2006-01-02 15:04")
	}
	if r := []rune(name); len(r) > maxNameLength {
		name = string(r[:maxNameLength])
	}
	return name
}

func utc(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}

// Get returns the list if caller owns it.
func (m *ListManager) Get(ctx context.Context, id int64, caller string) (*model.GroceryList, error) {
	l, err := m.store.GetList(ctx, id)
	if err != nil {
		return nil, err
	}
	if l == nil {
		return nil, listNotFound(id)
	}
	if l.Owner != caller {
		return nil, fmt.Errorf("grocery list %d: %w", id, ErrForbidden)
	}
	return l, nil
}

// GetWithItems returns the list and all of its items.
func (m *ListManager) GetWithItems(ctx context.Context, id int64, caller string) (*model.GroceryListWithItems, error) {
	l, err := m.Get(ctx, id, caller)
	if err != nil {
		return nil, err
	}
	return m.withItems(ctx, l)
}

func (m *ListManager) withItems(ctx context.Context, l *model.GroceryList) (*model.GroceryListWithItems, error) {
	items, err := m.store.ItemsByList(ctx, l.ID, 0, 0)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []model.GroceryItem{}
	}
	return &model.GroceryListWithItems{GroceryList: *l, Items: items}, nil
}

// ListForOwner returns caller's lists, most recently updated first. Closed
// lists are left out unless includeClosed is set.
func (m *ListManager) ListForOwner(ctx context.Context, caller string, page Page, includeClosed bool) ([]model.GroceryList, error) {
	if err := validatePage(page); err != nil {
		return nil, err
	}
	lists, err := m.store.ListsByOwner(ctx, caller, page.Skip, page.Limit, includeClosed)
	if err != nil {
		return nil, err
	}
	if lists == nil {
		lists = []model.GroceryList{}
	}
	return lists, nil
}

// Update applies the present fields of patch.
func (m *ListManager) Update(ctx context.Context, id int64, patch model.ListPatch, caller string) (*model.GroceryList, error) {
	patch, err := normalizeListPatch(patch)
	if err != nil {
		return nil, err
	}
	if _, err := m.Get(ctx, id, caller); err != nil {
		return nil, err
	}

	l, err := m.store.UpdateList(ctx, id, patch, m.now())
	if err != nil {
		return nil, err
	}
	if l == nil {
		return nil, listNotFound(id)
	}

	m.logger.Info("list updated", "id", id, "owner", caller)
	m.events.Publish(caller, listMessage("updated", l))
	return l, nil
}

// Delete removes the list and every item on it.
func (m *ListManager) Delete(ctx context.Context, id int64, caller string) error {
	if _, err := m.Get(ctx, id, caller); err != nil {
		return err
	}

	removed, err := m.store.DeleteList(ctx, id)
	if err != nil {
		return err
	}

	m.logger.Info("list deleted", "id", id, "owner", caller, "items_removed", removed)
	m.events.Publish(caller, websocket.NewMessage("grocery_list", "deleted", id, map[string]any{
		"items_removed": removed,
	}))
	return nil
}

// Close archives the list. With a migration request the selected items are
// moved first; if the migration fails the list stays open and nothing moves.
func (m *ListManager) Close(ctx context.Context, id int64, migration *model.MigrationRequest, caller string) (*model.GroceryList, error) {
	var closed *model.GroceryList
	err := m.inTx(ctx, func(tx *ListManager) error {
		if _, err := tx.Get(ctx, id, caller); err != nil {
			return err
		}
		if migration != nil {
			if _, err := migrate(ctx, tx, &id, *migration, caller); err != nil {
				return err
			}
		}

		l, err := tx.store.UpdateList(ctx, id, model.ListPatch{IsClosed: model.Some(true)}, tx.now())
		if err != nil {
			return err
		}
		if l == nil {
			return listNotFound(id)
		}
		closed = l
		tx.events.Publish(caller, listMessage("closed", l))
		return nil
	})
	if err != nil {
		return nil, err
	}

	m.logger.Info("list closed", "id", id, "owner", caller, "migrated", migration != nil)
	return closed, nil
}
