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

func newOrderFixture() (*OrderService, *fakeCartStore, *fakeOrderStore, *fakeCustomerStore, *fakeNotifier) {
	carts := newFakeCartStore()
	orders := &fakeOrderStore{}
	customers := newFakeCustomerStore()
	customers.customers["c1"] = &models.Customer{ID: "c1", Email: "alice@example.com", Name: "Alice"}
	notifier := &fakeNotifier{}
	svc := NewOrderService(carts, orders, customers, notifier, zap.NewNop())
	return svc, carts, orders, customers, notifier
}

func seedCart(t *testing.T, carts *fakeCartStore, sessionID string) {
	t.Helper()
	cart := &models.Cart{
		SessionID: sessionID,
		Items: []models.CartItem{
			{ProductID: "p1", Name: "Widget", Price: 10.00, Quantity: 2},
			{ProductID: "p2", Name: "Gadget", Price: 5.50, Quantity: 1},
		},
	}
	cart.RecalculateSubtotal()
	require.NoError(t, carts.SaveCart(context.Background(), cart))
}

func TestCheckoutCreatesOrderAndClearsCart(t *testing.T) {
	svc, carts, orders, _, notifier := newOrderFixture()
	ctx := context.Background()
	seedCart(t, carts, "s1")

	order, err := svc.Checkout(ctx, CheckoutInput{SessionID: "s1", CustomerID: "c1"})
	require.NoError(t, err)

	assert.InDelta(t, 25.50, order.TotalAmount, 1e-9)
	assert.Equal(t, models.OrderStatusPending, order.Status)
	require.Len(t, order.Items, 2)
	assert.Equal(t, "Widget", order.Items[0].ProductName)
	require.Len(t, orders.created, 1)

	// Cart must be gone after checkout.
	_, err = carts.GetCart(ctx, "s1")
	assert.True(t, apperrors.IsNotFound(err))

	require.Len(t, notifier.placed, 1)
	assert.Equal(t, order.ID, notifier.placed[0])
	assert.Equal(t, "alice@example.com", notifier.emails[0])
}

func TestCheckoutEmptyCart(t *testing.T) {
	svc, carts, orders, _, _ := newOrderFixture()
	ctx := context.Background()

	_, err := svc.Checkout(ctx, CheckoutInput{SessionID: "absent"})
	assert.True(t, apperrors.IsNotFound(err))

	require.NoError(t, carts.SaveCart(ctx, &models.Cart{SessionID: "empty"}))
	_, err = svc.Checkout(ctx, CheckoutInput{SessionID: "empty"})
	assert.True(t, apperrors.IsNotFound(err))

	assert.Empty(t, orders.created, "no order may be written for an empty cart")
}

func TestCheckoutUnknownCustomer(t *testing.T) {
	svc, carts, orders, _, _ := newOrderFixture()
	seedCart(t, carts, "s1")

	_, err := svc.Checkout(context.Background(), CheckoutInput{SessionID: "s1", CustomerID: "ghost"})
	assert.True(t, apperrors.IsNotFound(err))
	assert.Empty(t, orders.created)
}

func TestCheckoutGuest(t *testing.T) {
	svc, carts, _, _, notifier := newOrderFixture()
	seedCart(t, carts, "s1")

	order, err := svc.Checkout(context.Background(), CheckoutInput{SessionID: "s1"})
	require.NoError(t, err)
	assert.Empty(t, order.CustomerID)
	require.Len(t, notifier.emails, 1)
	assert.Empty(t, notifier.emails[0])
}

func TestCheckoutIdempotentByPaymentSession(t *testing.T) {
	svc, carts, orders, _, _ := newOrderFixture()
	ctx := context.Background()
	seedCart(t, carts, "s1")

	first, err := svc.Checkout(ctx, CheckoutInput{
		SessionID:        "s1",
		CustomerID:       "c1",
		PaymentSessionID: "cs_123",
	})
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusPaid, first.Status)

	// Redelivery: same payment session, cart already gone.
	second, err := svc.Checkout(ctx, CheckoutInput{
		SessionID:        "s1",
		CustomerID:       "c1",
		PaymentSessionID: "cs_123",
	})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Len(t, orders.created, 1, "redelivery must not create a second order")
}

func TestListOrdersByCustomer(t *testing.T) {
	svc, carts, _, _, _ := newOrderFixture()
	ctx := context.Background()

	seedCart(t, carts, "s1")
	_, err := svc.Checkout(ctx, CheckoutInput{SessionID: "s1", CustomerID: "c1"})
	require.NoError(t, err)

	orders, total, err := svc.ListOrders(ctx, "c1", 0, 0)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, orders, 1)
}
