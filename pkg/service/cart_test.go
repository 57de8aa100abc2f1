package service

import (
	"context"
	"testing"

	"github.com/example/storefront/pkg/apperrors"
	"github.com/example/storefront/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newCartFixture() (*CartService, *fakeCartStore, *fakeProductReader) {
	carts := newFakeCartStore()
	products := &fakeProductReader{products: map[string]*models.Product{
		"p1": {ID: "p1", Name: "Widget", Price: 9.99, Stock: 10},
		"p2": {ID: "p2", Name: "Gadget", Price: 24.50, Stock: 5},
	}}
	return NewCartService(carts, products, zap.NewNop()), carts, products
}

func TestCartAddAggregatesQuantity(t *testing.T) {
	svc, _, _ := newCartFixture()
	ctx := context.Background()

	_, err := svc.Add(ctx, "s1", "p1", 2)
	require.NoError(t, err)
	_, err = svc.Add(ctx, "s1", "p1", 3)
	require.NoError(t, err)

	cart, err := svc.Get(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, 5, cart.Items[0].Quantity)
	assert.InDelta(t, 5*9.99, cart.Subtotal, 1e-9)
}

func TestCartAddUnknownProduct(t *testing.T) {
	svc, carts, _ := newCartFixture()

	_, err := svc.Add(context.Background(), "s1", "nope", 1)
	assert.True(t, apperrors.IsNotFound(err))
	assert.Empty(t, carts.carts)
}

func TestCartAddRejectsZeroQuantity(t *testing.T) {
	svc, _, _ := newCartFixture()

	_, err := svc.Add(context.Background(), "s1", "p1", 0)
	assert.Equal(t, apperrors.KindBadRequest, apperrors.KindOf(err))
}

func TestCartPriceIsSnapshot(t *testing.T) {
	svc, _, products := newCartFixture()
	ctx := context.Background()

	_, err := svc.Add(ctx, "s1", "p1", 1)
	require.NoError(t, err)

	// A later catalog price change must not alter the cart line.
	products.products["p1"].Price = 99.99

	cart, err := svc.Get(ctx, "s1")
	require.NoError(t, err)
	assert.InDelta(t, 9.99, cart.Items[0].Price, 1e-9)
	assert.InDelta(t, 9.99, cart.Subtotal, 1e-9)
}

func TestCartUpdate(t *testing.T) {
	svc, _, _ := newCartFixture()
	ctx := context.Background()

	_, err := svc.Add(ctx, "s1", "p1", 2)
	require.NoError(t, err)

	cart, err := svc.Update(ctx, "s1", "p1", 7)
	require.NoError(t, err)
	assert.Equal(t, 7, cart.Items[0].Quantity)
	assert.InDelta(t, 7*9.99, cart.Subtotal, 1e-9)
}

func TestCartUpdateMissingCartOrLine(t *testing.T) {
	svc, _, _ := newCartFixture()
	ctx := context.Background()

	_, err := svc.Update(ctx, "absent", "p1", 1)
	assert.True(t, apperrors.IsNotFound(err))

	_, err = svc.Add(ctx, "s1", "p1", 1)
	require.NoError(t, err)
	_, err = svc.Update(ctx, "s1", "p2", 1)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestCartRemove(t *testing.T) {
	svc, _, _ := newCartFixture()
	ctx := context.Background()

	_, err := svc.Add(ctx, "s1", "p1", 1)
	require.NoError(t, err)
	_, err = svc.Add(ctx, "s1", "p2", 2)
	require.NoError(t, err)

	cart, err := svc.Remove(ctx, "s1", "p1")
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, "p2", cart.Items[0].ProductID)
	assert.InDelta(t, 2*24.50, cart.Subtotal, 1e-9)

	_, err = svc.Remove(ctx, "s1", "p1")
	assert.True(t, apperrors.IsNotFound(err))
}

func TestCartGetAbsentReturnsEmpty(t *testing.T) {
	svc, _, _ := newCartFixture()

	cart, err := svc.Get(context.Background(), "never-seen")
	require.NoError(t, err)
	assert.Empty(t, cart.Items)
	assert.Zero(t, cart.Subtotal)
}

func TestCartClear(t *testing.T) {
	svc, _, _ := newCartFixture()
	ctx := context.Background()

	_, err := svc.Add(ctx, "s1", "p1", 1)
	require.NoError(t, err)
	require.NoError(t, svc.Clear(ctx, "s1"))

	cart, err := svc.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, cart.Items)
}

func TestCartMergeConcatenatesWithoutDeduplication(t *testing.T) {
	svc, carts, _ := newCartFixture()
	ctx := context.Background()

	_, err := svc.Add(ctx, "guest", "p1", 2)
	require.NoError(t, err)
	_, err = svc.Add(ctx, "user:u1", "p1", 1)
	require.NoError(t, err)
	_, err = svc.Add(ctx, "user:u1", "p2", 1)
	require.NoError(t, err)

	merged, err := svc.Merge(ctx, "guest", "user:u1")
	require.NoError(t, err)

	// Duplicate p1 lines are kept separate, not summed.
	require.Len(t, merged.Items, 3)
	assert.Equal(t, "guest", merged.MergedFrom)
	assert.InDelta(t, 2*9.99+1*9.99+1*24.50, merged.Subtotal, 1e-9)

	_, ok := carts.carts["guest"]
	assert.False(t, ok, "guest cart should be deleted after merge")
}

func TestCartMergeWithoutGuestCart(t *testing.T) {
	svc, _, _ := newCartFixture()
	ctx := context.Background()

	_, err := svc.Add(ctx, "user:u1", "p1", 1)
	require.NoError(t, err)

	merged, err := svc.Merge(ctx, "no-such-guest", "user:u1")
	require.NoError(t, err)
	require.Len(t, merged.Items, 1)
	assert.Empty(t, merged.MergedFrom)
}
