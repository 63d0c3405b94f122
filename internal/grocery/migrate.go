package grocery

import (
	"context"

	"github.com/dukerupert/grocer/internal/model"
	"github.com/dukerupert/grocer/internal/websocket"
)

// Migrator moves items between a caller's lists, or into a new list it
// creates on the way.
type Migrator struct {
	lists *ListManager
}

func NewMigrator(lists *ListManager) *Migrator {
	return &Migrator{lists: lists}
}

// Migrate moves the requested items to the destination named by req and
// returns that list with its items. When source is set, every item must
// currently belong to it. The whole operation commits or nothing changes.
func (mg *Migrator) Migrate(ctx context.Context, source *int64, req model.MigrationRequest, caller string) (*model.GroceryListWithItems, error) {
	var dest *model.GroceryListWithItems
	err := mg.lists.inTx(ctx, func(tx *ListManager) error {
		var err error
		dest, err = migrate(ctx, tx, source, req, caller)
		return err
	})
	if err != nil {
		return nil, err
	}
	return dest, nil
}

// migrate validates everything before it writes. lm must be bound to a
// transaction.
func migrate(ctx context.Context, lm *ListManager, source *int64, req model.MigrationRequest, caller string) (*model.GroceryListWithItems, error) {
	req, err := normalizeMigration(req)
	if err != nil {
		return nil, err
	}
	if source != nil {
		if req.TargetListID != nil && *req.TargetListID == *source {
			return nil, badRequest("target list must differ from the source list")
		}
		if _, err := lm.Get(ctx, *source, caller); err != nil {
			return nil, err
		}
	}

	items, err := lm.store.ItemsByIDs(ctx, req.ItemIDs)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, badRequest("no valid items found to migrate")
	}

	owned := make(map[int64]bool)
	ids := make([]int64, 0, len(items))
	for _, item := range items {
		if source != nil {
			if item.GroceryListID != *source {
				return nil, badRequest("item %d does not belong to list %d", item.ID, *source)
			}
		} else if !owned[item.GroceryListID] {
			if _, err := lm.Get(ctx, item.GroceryListID, caller); err != nil {
				return nil, err
			}
			owned[item.GroceryListID] = true
		}
		ids = append(ids, item.ID)
	}

	var dest *model.GroceryList
	if req.NewListName != nil {
		dest, err = lm.Create(ctx, model.NewList{
			Name:        req.NewListName,
			Description: req.NewListDescription,
		}, caller)
	} else {
		dest, err = lm.Get(ctx, *req.TargetListID, caller)
	}
	if err != nil {
		return nil, err
	}

	moved, err := lm.store.ReassignItems(ctx, ids, dest.ID, lm.now())
	if err != nil {
		return nil, err
	}

	extra := map[string]any{"item_ids": ids, "moved": moved}
	if source != nil {
		extra["from"] = *source
	}
	lm.logger.Info("items migrated", "to", dest.ID, "owner", caller, "moved", moved)
	lm.events.Publish(caller, websocket.NewMessage("grocery_items", "migrated", dest.ID, extra))

	return lm.withItems(ctx, dest)
}
