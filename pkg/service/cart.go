package service

import (
	"context"

	"github.com/example/storefront/pkg/apperrors"
	"github.com/example/storefront/pkg/models"
	"go.uber.org/zap"
)

// CartStore is the session-keyed cache behind the cart. Values are read and
// written whole; there is no field-level update or version token.
type CartStore interface {
	GetCart(ctx context.Context, sessionID string) (*models.Cart, error)
	SaveCart(ctx context.Context, cart *models.Cart) error
	DeleteCart(ctx context.Context, sessionID string) error
}

type ProductReader interface {
	ProductByID(ctx context.Context, id string) (*models.Product, error)
}

type CartService struct {
	carts    CartStore
	products ProductReader
	logger   *zap.Logger
}

func NewCartService(carts CartStore, products ProductReader, logger *zap.Logger) *CartService {
	return &CartService{
		carts:    carts,
		products: products,
		logger:   logger,
	}
}

// Get returns the cart for the session, or an empty cart if none exists.
func (s *CartService) Get(ctx context.Context, sessionID string) (*models.Cart, error) {
	cart, err := s.carts.GetCart(ctx, sessionID)
	if apperrors.IsNotFound(err) {
		return &models.Cart{SessionID: sessionID, Items: []models.CartItem{}}, nil
	}
	if err != nil {
		return nil, err
	}
	return cart, nil
}

// Add validates the product against the catalog, then increments an existing
// line or appends a new one carrying a name/price snapshot taken now.
func (s *CartService) Add(ctx context.Context, sessionID, productID string, quantity int) (*models.Cart, error) {
	if quantity < 1 {
		return nil, apperrors.BadRequest("quantity must be at least 1")
	}

	product, err := s.products.ProductByID(ctx, productID)
	if err != nil {
		return nil, err
	}

	cart, err := s.carts.GetCart(ctx, sessionID)
	if apperrors.IsNotFound(err) {
		cart = &models.Cart{SessionID: sessionID}
	} else if err != nil {
		return nil, err
	}

	found := false
	for i := range cart.Items {
		if cart.Items[i].ProductID == productID {
			cart.Items[i].Quantity += quantity
			found = true
			break
		}
	}
	if !found {
		cart.Items = append(cart.Items, models.CartItem{
			ProductID: product.ID,
			Name:      product.Name,
			Price:     product.Price,
			Quantity:  quantity,
		})
	}

	cart.RecalculateSubtotal()
	if err := s.carts.SaveCart(ctx, cart); err != nil {
		return nil, err
	}
	return cart, nil
}

// Update sets the quantity of an existing line.
func (s *CartService) Update(ctx context.Context, sessionID, productID string, quantity int) (*models.Cart, error) {
	if quantity < 1 {
		return nil, apperrors.BadRequest("quantity must be at least 1")
	}

	cart, err := s.carts.GetCart(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	found := false
	for i := range cart.Items {
		if cart.Items[i].ProductID == productID {
			cart.Items[i].Quantity = quantity
			found = true
			break
		}
	}
	if !found {
		return nil, apperrors.NotFound("product %s not in cart", productID)
	}

	cart.RecalculateSubtotal()
	if err := s.carts.SaveCart(ctx, cart); err != nil {
		return nil, err
	}
	return cart, nil
}

func (s *CartService) Remove(ctx context.Context, sessionID, productID string) (*models.Cart, error) {
	cart, err := s.carts.GetCart(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	found := false
	for i := range cart.Items {
		if cart.Items[i].ProductID == productID {
			cart.Items = append(cart.Items[:i], cart.Items[i+1:]...)
			found = true
			break
		}
	}
	if !found {
		return nil, apperrors.NotFound("product %s not in cart", productID)
	}

	cart.RecalculateSubtotal()
	if err := s.carts.SaveCart(ctx, cart); err != nil {
		return nil, err
	}
	return cart, nil
}

func (s *CartService) Clear(ctx context.Context, sessionID string) error {
	return s.carts.DeleteCart(ctx, sessionID)
}

// Merge concatenates the guest cart's lines onto the target cart. Duplicate
// product lines are kept separate, not summed. The guest key is deleted after
// the merge and the target records which session it absorbed.
func (s *CartService) Merge(ctx context.Context, fromSession, toSession string) (*models.Cart, error) {
	guest, err := s.carts.GetCart(ctx, fromSession)
	if apperrors.IsNotFound(err) {
		return s.Get(ctx, toSession)
	}
	if err != nil {
		return nil, err
	}

	target, err := s.carts.GetCart(ctx, toSession)
	if apperrors.IsNotFound(err) {
		target = &models.Cart{SessionID: toSession}
	} else if err != nil {
		return nil, err
	}

	target.Items = append(target.Items, guest.Items...)
	target.MergedFrom = fromSession
	target.RecalculateSubtotal()

	if err := s.carts.SaveCart(ctx, target); err != nil {
		return nil, err
	}
	if err := s.carts.DeleteCart(ctx, fromSession); err != nil {
		s.logger.Warn("Failed to delete guest cart after merge",
			zap.String("session", fromSession), zap.Error(err))
	}
	return target, nil
}
