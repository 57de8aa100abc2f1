package service

import (
	"context"

	"github.com/example/storefront/pkg/apperrors"
	"github.com/example/storefront/pkg/models"
	"github.com/example/storefront/pkg/repository"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
)

type CatalogStore interface {
	CreateCategory(ctx context.Context, category *models.Category) error
	ListCategories(ctx context.Context) ([]models.Category, error)
	CategoryByID(ctx context.Context, id string) (*models.Category, error)

	CreateProduct(ctx context.Context, product *models.Product) error
	ProductByID(ctx context.Context, id string) (*models.Product, error)
	ListProducts(ctx context.Context, categoryID string, page, pageSize int) ([]models.Product, int64, error)
	UpdateProduct(ctx context.Context, id string, updates map[string]interface{}) error
	DeleteProduct(ctx context.Context, id string) error
	UpdateProductRating(ctx context.Context, id string, rating float64) error

	UpsertRating(ctx context.Context, rating *models.Rating) error
	RatingsByProduct(ctx context.Context, productID string) ([]models.Rating, error)
}

// EventRecorder is the asynchronous audit sink for admin mutations.
type EventRecorder interface {
	RecordEvent(ctx context.Context, event *repository.EventLog) error
}

type CatalogService struct {
	store     CatalogStore
	customers CustomerReader
	events    EventRecorder
	logger    *zap.Logger
}

func NewCatalogService(store CatalogStore, customers CustomerReader, events EventRecorder, logger *zap.Logger) *CatalogService {
	return &CatalogService{
		store:     store,
		customers: customers,
		events:    events,
		logger:    logger,
	}
}

func (s *CatalogService) ListCategories(ctx context.Context) ([]models.Category, error) {
	return s.store.ListCategories(ctx)
}

func (s *CatalogService) ProductsByCategory(ctx context.Context, categoryID string, page, pageSize int) ([]models.Product, int64, error) {
	if _, err := s.store.CategoryByID(ctx, categoryID); err != nil {
		return nil, 0, err
	}
	return s.store.ListProducts(ctx, categoryID, normalizePage(page), normalizePageSize(pageSize))
}

func (s *CatalogService) ListProducts(ctx context.Context, page, pageSize int) ([]models.Product, int64, error) {
	return s.store.ListProducts(ctx, "", normalizePage(page), normalizePageSize(pageSize))
}

func (s *CatalogService) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	return s.store.ProductByID(ctx, id)
}

type ProductInput struct {
	Name        string  `json:"name" binding:"required"`
	Description string  `json:"description"`
	Price       float64 `json:"price" binding:"required,gt=0"`
	Stock       int     `json:"stock" binding:"gte=0"`
	CategoryID  string  `json:"category_id"`
}

func (s *CatalogService) CreateProduct(ctx context.Context, in ProductInput) (*models.Product, error) {
	if in.CategoryID != "" {
		if _, err := s.store.CategoryByID(ctx, in.CategoryID); err != nil {
			return nil, err
		}
	}

	product := &models.Product{
		ID:          uuid.New().String(),
		Name:        in.Name,
		Description: in.Description,
		Price:       in.Price,
		Stock:       in.Stock,
		CategoryID:  in.CategoryID,
	}
	if err := s.store.CreateProduct(ctx, product); err != nil {
		return nil, err
	}

	s.recordAudit("product.created", product.ID, bson.M{"name": product.Name, "price": product.Price})
	return product, nil
}

func (s *CatalogService) UpdateProduct(ctx context.Context, id string, updates map[string]interface{}) (*models.Product, error) {
	if err := s.store.UpdateProduct(ctx, id, updates); err != nil {
		return nil, err
	}
	s.recordAudit("product.updated", id, bson.M{"fields": updates})
	return s.store.ProductByID(ctx, id)
}

func (s *CatalogService) DeleteProduct(ctx context.Context, id string) error {
	if err := s.store.DeleteProduct(ctx, id); err != nil {
		return err
	}
	s.recordAudit("product.deleted", id, bson.M{})
	return nil
}

// Rate upserts the customer's rating for a product and recomputes the
// product's cached average by reloading every rating value for it.
func (s *CatalogService) Rate(ctx context.Context, productID, customerID string, value int, comment string) (*models.Product, error) {
	if value < 1 || value > 5 {
		return nil, apperrors.BadRequest("rating value must be between 1 and 5")
	}

	if _, err := s.store.ProductByID(ctx, productID); err != nil {
		return nil, err
	}
	if _, err := s.customers.CustomerByID(ctx, customerID); err != nil {
		return nil, err
	}

	rating := &models.Rating{
		ProductID:  productID,
		CustomerID: customerID,
		Value:      value,
		Comment:    comment,
	}
	if err := s.store.UpsertRating(ctx, rating); err != nil {
		return nil, apperrors.Wrap(apperrors.KindConflict, "failed to store rating", err)
	}

	ratings, err := s.store.RatingsByProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	var sum float64
	for _, r := range ratings {
		sum += float64(r.Value)
	}
	average := 0.0
	if len(ratings) > 0 {
		average = sum / float64(len(ratings))
	}
	if err := s.store.UpdateProductRating(ctx, productID, average); err != nil {
		return nil, err
	}

	return s.store.ProductByID(ctx, productID)
}

func (s *CatalogService) RatingsByProduct(ctx context.Context, productID string) ([]models.Rating, error) {
	if _, err := s.store.ProductByID(ctx, productID); err != nil {
		return nil, err
	}
	return s.store.RatingsByProduct(ctx, productID)
}

func (s *CatalogService) recordAudit(action, entityID string, data bson.M) {
	if s.events == nil {
		return
	}
	go func() {
		if err := s.events.RecordEvent(context.Background(), &repository.EventLog{
			Source:   "catalog",
			Type:     action,
			EntityID: entityID,
			Data:     data,
		}); err != nil {
			s.logger.Warn("Failed to record audit event",
				zap.String("action", action), zap.Error(err))
		}
	}()
}

func normalizePage(page int) int {
	if page < 1 {
		return 1
	}
	return page
}

func normalizePageSize(size int) int {
	if size < 1 || size > 100 {
		return 20
	}
	return size
}
