package grocery

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dukerupert/grocer/internal/model"
)

// ItemManager handles items. Access is decided by the parent list, through
// the ListManager's ownership check.
type ItemManager struct {
	lists          *ListManager
	autoCategorize bool
	logger         *slog.Logger
}

func NewItemManager(lists *ListManager, autoCategorize bool, logger *slog.Logger) *ItemManager {
	return &ItemManager{
		lists:          lists,
		autoCategorize: autoCategorize,
		logger:         logger,
	}
}

func (m *ItemManager) Create(ctx context.Context, listID int64, in model.NewItem, caller string) (*model.GroceryItem, error) {
	item, err := normalizeNewItem(in)
	if err != nil {
		return nil, err
	}
	if _, err := m.lists.Get(ctx, listID, caller); err != nil {
		return nil, err
	}

	if m.autoCategorize && item.Category == nil {
		if category, ok := Categorize(item.Name); ok {
			item.Category = &category
		}
	}

	now := m.lists.now()
	item.GroceryListID = listID
	item.CreatedAt = now
	item.UpdatedAt = now

	created, err := m.lists.store.CreateItem(ctx, item)
	if err != nil {
		return nil, err
	}

	m.logger.Info("item created", "id", created.ID, "list_id", listID, "owner", caller)
	m.lists.events.Publish(caller, itemMessage("created", created))
	return created, nil
}

// Get returns the item if caller owns its list. An item whose list is gone
// is reported as not found.
func (m *ItemManager) Get(ctx context.Context, id int64, caller string) (*model.GroceryItem, error) {
	item, err := m.lists.store.GetItem(ctx, id)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, itemNotFound(id)
	}

	if _, err := m.lists.Get(ctx, item.GroceryListID, caller); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, itemNotFound(id)
		}
		return nil, fmt.Errorf("grocery item %d: %w", id, err)
	}
	return item, nil
}

// ListForList returns the list's items, unpurchased first and oldest first.
func (m *ItemManager) ListForList(ctx context.Context, listID int64, caller string, page Page) ([]model.GroceryItem, error) {
	if err := validatePage(page); err != nil {
		return nil, err
	}
	if _, err := m.lists.Get(ctx, listID, caller); err != nil {
		return nil, err
	}

	items, err := m.lists.store.ItemsByList(ctx, listID, page.Skip, page.Limit)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []model.GroceryItem{}
	}
	return items, nil
}

// Update applies the present fields of patch.
func (m *ItemManager) Update(ctx context.Context, id int64, patch model.ItemPatch, caller string) (*model.GroceryItem, error) {
	patch, err := normalizeItemPatch(patch)
	if err != nil {
		return nil, err
	}
	return m.apply(ctx, id, patch, caller)
}

// SetPurchased sets the purchased flag. Setting it to its current value is
// not an error.
func (m *ItemManager) SetPurchased(ctx context.Context, id int64, purchased bool, caller string) (*model.GroceryItem, error) {
	return m.apply(ctx, id, model.ItemPatch{Purchased: model.Some(purchased)}, caller)
}

func (m *ItemManager) apply(ctx context.Context, id int64, patch model.ItemPatch, caller string) (*model.GroceryItem, error) {
	if _, err := m.Get(ctx, id, caller); err != nil {
		return nil, err
	}

	item, err := m.lists.store.UpdateItem(ctx, id, patch, m.lists.now())
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, itemNotFound(id)
	}

	m.logger.Info("item updated", "id", id, "owner", caller)
	m.lists.events.Publish(caller, itemMessage("updated", item))
	return item, nil
}

func (m *ItemManager) Delete(ctx context.Context, id int64, caller string) error {
	item, err := m.Get(ctx, id, caller)
	if err != nil {
		return err
	}
	if err := m.lists.store.DeleteItem(ctx, id); err != nil {
		return err
	}

	m.logger.Info("item deleted", "id", id, "owner", caller)
	m.lists.events.Publish(caller, itemMessage("deleted", item))
	return nil
}
