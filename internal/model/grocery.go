package model

import "time"

type GroceryList struct {
	ID          int64      `json:"id"`
	Name        string     `json:"name"`
	Stores      *string    `json:"stores"`
	Description *string    `json:"description"`
	Owner       string     `json:"owner"`
	ListDate    *time.Time `json:"list_date"`
	IsClosed    bool       `json:"is_closed"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// GroceryListWithItems is a list together with its current items.
type GroceryListWithItems struct {
	GroceryList
	Items []GroceryItem `json:"items"`
}

type GroceryItem struct {
	ID            int64     `json:"id"`
	GroceryListID int64     `json:"grocery_list_id"`
	Name          string    `json:"name"`
	Quantity      float64   `json:"quantity"`
	Unit          *string   `json:"unit"`
	Category      *string   `json:"category"`
	Store         *string   `json:"store"`
	Notes         *string   `json:"notes"`
	Purchased     bool      `json:"purchased"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// NewList is the input for creating a list. A nil Name asks for an
// auto-generated one.
type NewList struct {
	Name        *string
	Stores      *string
	Description *string
	ListDate    *time.Time
}

// NewItem is the input for creating an item. A nil Quantity means 1.
type NewItem struct {
	Name      string
	Quantity  Optional[float64]
	Unit      *string
	Category  *string
	Store     *string
	Notes     *string
	Purchased Optional[bool]
}

// ListPatch holds the fields of a partial list update. Only fields with Set
// are written; a Set pointer field with a nil Value clears the column.
type ListPatch struct {
	Name        Optional[string]
	Stores      Optional[*string]
	Description Optional[*string]
	ListDate    Optional[*time.Time]
	IsClosed    Optional[bool]
}

// Columns returns the column assignments for the present fields.
func (p ListPatch) Columns() map[string]any {
	cols := make(map[string]any)
	if p.Name.Set {
		cols["name"] = p.Name.Value
	}
	if p.Stores.Set {
		cols["stores"] = p.Stores.Value
	}
	if p.Description.Set {
		cols["description"] = p.Description.Value
	}
	if p.ListDate.Set {
		cols["list_date"] = p.ListDate.Value
	}
	if p.IsClosed.Set {
		cols["is_closed"] = p.IsClosed.Value
	}
	return cols
}

// ItemPatch holds the fields of a partial item update, with the same
// presence rules as ListPatch.
type ItemPatch struct {
	Name      Optional[string]
	Quantity  Optional[float64]
	Unit      Optional[*string]
	Category  Optional[*string]
	Store     Optional[*string]
	Notes     Optional[*string]
	Purchased Optional[bool]
}

// Columns returns the column assignments for the present fields.
func (p ItemPatch) Columns() map[string]any {
	cols := make(map[string]any)
	if p.Name.Set {
		cols["name"] = p.Name.Value
	}
	if p.Quantity.Set {
		cols["quantity"] = p.Quantity.Value
	}
	if p.Unit.Set {
		cols["unit"] = p.Unit.Value
	}
	if p.Category.Set {
		cols["category"] = p.Category.Value
	}
	if p.Store.Set {
		cols["store"] = p.Store.Value
	}
	if p.Notes.Set {
		cols["notes"] = p.Notes.Value
	}
	if p.Purchased.Set {
		cols["purchased"] = p.Purchased.Value
	}
	return cols
}

// MigrationRequest moves ItemIDs to either an existing list (TargetListID)
// or a new one (NewListName, optionally NewListDescription).
type MigrationRequest struct {
	ItemIDs            []int64 `json:"item_ids"`
	TargetListID       *int64  `json:"target_list_id"`
	NewListName        *string `json:"new_list_name"`
	NewListDescription *string `json:"new_list_description"`
}
