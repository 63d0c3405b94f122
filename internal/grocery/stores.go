package grocery

import (
	"context"
	"fmt"

	"github.com/dukerupert/grocer/internal/auth"
	"github.com/dukerupert/grocer/internal/store"
)

const (
	DefaultPopularStores = 5
	MaxPopularStores     = 50
)

// StoreDirectory reports store names used across all users' items.
type StoreDirectory struct {
	store *store.GroceryStore
}

func NewStoreDirectory(s *store.GroceryStore) *StoreDirectory {
	return &StoreDirectory{store: s}
}

// Popular returns the most used store names. It spans every user's data,
// so only admins may call it.
func (d *StoreDirectory) Popular(ctx context.Context, limit int, caller auth.Principal) ([]string, error) {
	if !caller.IsAdmin() {
		return nil, fmt.Errorf("popular stores: %w", ErrForbidden)
	}

	var c checker
	c.check("limit", limit, fmt.Sprintf("gte=1,lte=%d", MaxPopularStores))
	if err := c.err(); err != nil {
		return nil, err
	}

	stores, err := d.store.PopularStores(ctx, limit)
	if err != nil {
		return nil, err
	}
	if stores == nil {
		stores = []string{}
	}
	return stores, nil
}
