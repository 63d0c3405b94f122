package grocery

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dukerupert/grocer/internal/auth"
	"github.com/dukerupert/grocer/internal/model"
)

func TestPopularStores(t *testing.T) {
	env := setupGroceryTest(t)
	ctx := context.Background()
	alice := env.newList(t, "alice", "A")
	bob := env.newList(t, "bob", "B")

	add := func(owner string, listID int64, store string, n int) {
		for i := 0; i < n; i++ {
			_, err := env.items.Create(ctx, listID, model.NewItem{Name: "thing", Store: ptr(store)}, owner)
			require.NoError(t, err)
		}
	}
	add("alice", alice.ID, "Costco", 2)
	add("bob", bob.ID, "Costco", 1)
	add("bob", bob.ID, "Target", 2)
	add("alice", alice.ID, "Aldi", 2)
	add("alice", alice.ID, "Safeway", 1)
	add("alice", alice.ID, "   ", 3)

	admin := auth.Principal{Username: "root", Role: auth.RoleAdmin}
	got, err := env.stores.Popular(ctx, 3, admin)
	require.NoError(t, err)
	assert.Equal(t, []string{"Costco", "Aldi", "Target"}, got)

	_, err = env.stores.Popular(ctx, 3, auth.Principal{Username: "alice", Role: auth.RoleUser})
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = env.stores.Popular(ctx, 0, admin)
	assert.Equal(t, []string{"limit"}, fieldNames(t, err))
	_, err = env.stores.Popular(ctx, MaxPopularStores+1, admin)
	assert.Equal(t, []string{"limit"}, fieldNames(t, err))
}

func TestPopularStoresEmpty(t *testing.T) {
	env := setupGroceryTest(t)

	got, err := env.stores.Popular(context.Background(), DefaultPopularStores, auth.Principal{Role: auth.RoleAdmin})
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}
