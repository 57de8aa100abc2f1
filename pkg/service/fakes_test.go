package service

import (
	"context"
	"sync"

	"github.com/example/storefront/pkg/apperrors"
	"github.com/example/storefront/pkg/models"
)

type fakeCartStore struct {
	mu    sync.Mutex
	carts map[string]*models.Cart
}

func newFakeCartStore() *fakeCartStore {
	return &fakeCartStore{carts: make(map[string]*models.Cart)}
}

func copyCart(c *models.Cart) *models.Cart {
	cp := *c
	cp.Items = append([]models.CartItem(nil), c.Items...)
	return &cp
}

func (f *fakeCartStore) GetCart(_ context.Context, sessionID string) (*models.Cart, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cart, ok := f.carts[sessionID]
	if !ok {
		return nil, apperrors.NotFound("cart not found for session %s", sessionID)
	}
	return copyCart(cart), nil
}

func (f *fakeCartStore) SaveCart(_ context.Context, cart *models.Cart) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.carts[cart.SessionID] = copyCart(cart)
	return nil
}

func (f *fakeCartStore) DeleteCart(_ context.Context, sessionID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.carts, sessionID)
	return nil
}

type fakeProductReader struct {
	products map[string]*models.Product
}

func (f *fakeProductReader) ProductByID(_ context.Context, id string) (*models.Product, error) {
	product, ok := f.products[id]
	if !ok {
		return nil, apperrors.NotFound("product %s not found", id)
	}
	cp := *product
	return &cp, nil
}

type fakeOrderStore struct {
	mu      sync.Mutex
	created []*models.Order
}

func (f *fakeOrderStore) CreateOrder(_ context.Context, order *models.Order) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = append(f.created, order)
	return nil
}

func (f *fakeOrderStore) OrderByID(_ context.Context, id string) (*models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, o := range f.created {
		if o.ID == id {
			return o, nil
		}
	}
	return nil, apperrors.NotFound("order %s not found", id)
}

func (f *fakeOrderStore) OrderByPaymentSession(_ context.Context, paymentSessionID string) (*models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, o := range f.created {
		if o.PaymentSessionID == paymentSessionID {
			return o, nil
		}
	}
	return nil, apperrors.NotFound("no order for payment session %s", paymentSessionID)
}

func (f *fakeOrderStore) ListOrdersByCustomer(_ context.Context, customerID string, _, _ int) ([]models.Order, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var orders []models.Order
	for _, o := range f.created {
		if o.CustomerID == customerID {
			orders = append(orders, *o)
		}
	}
	return orders, int64(len(orders)), nil
}

type fakeCustomerStore struct {
	customers map[string]*models.Customer
}

func newFakeCustomerStore() *fakeCustomerStore {
	return &fakeCustomerStore{customers: make(map[string]*models.Customer)}
}

func (f *fakeCustomerStore) CustomerByID(_ context.Context, id string) (*models.Customer, error) {
	customer, ok := f.customers[id]
	if !ok {
		return nil, apperrors.NotFound("customer %s not found", id)
	}
	return customer, nil
}

func (f *fakeCustomerStore) CustomerByEmail(_ context.Context, email string) (*models.Customer, error) {
	for _, customer := range f.customers {
		if customer.Email == email {
			return customer, nil
		}
	}
	return nil, apperrors.NotFound("customer not found")
}

func (f *fakeCustomerStore) CreateCustomer(_ context.Context, customer *models.Customer) error {
	f.customers[customer.ID] = customer
	return nil
}

type fakeUserStore struct {
	users map[string]*models.User
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: make(map[string]*models.User)}
}

func (f *fakeUserStore) CreateUser(_ context.Context, user *models.User) error {
	f.users[user.Email] = user
	return nil
}

func (f *fakeUserStore) UserByEmail(_ context.Context, email string) (*models.User, error) {
	user, ok := f.users[email]
	if !ok {
		return nil, apperrors.NotFound("user not found")
	}
	return user, nil
}

type fakeNotifier struct {
	mu     sync.Mutex
	placed []string
	emails []string
}

func (f *fakeNotifier) OrderPlaced(order *models.Order, email string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.placed = append(f.placed, order.ID)
	f.emails = append(f.emails, email)
}
