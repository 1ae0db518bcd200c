// Package service provides the implementation of catalog business logic.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	perrors "github.com/abgdnv/gocatalog/internal/catalog/errors"
	"github.com/abgdnv/gocatalog/internal/catalog/store"
	"github.com/abgdnv/gocatalog/pkg/messaging"
	"github.com/abgdnv/gocatalog/pkg/messaging/events"
	"github.com/abgdnv/gocatalog/pkg/metrics"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/abgdnv/gocatalog/internal/catalog/service"

// Operation names used for metrics and spans.
const (
	opList   = "list"
	opGet    = "get"
	opCreate = "create"
	opUpdate = "update"
	opDelete = "delete"
)

// ProductService defines the methods for managing products.
// It abstracts the underlying business logic and data access.
type ProductService interface {
	// FindAll returns products in insertion order, skipping offset and returning at most limit.
	// A zero limit returns all remaining products. Returns an empty slice if no products exist.
	FindAll(ctx context.Context, offset, limit int) ([]ProductDto, error)

	// FindByID retrieves a single product by its identifier.
	// Returns ErrProductNotFound if no product exists with the given ID.
	FindByID(ctx context.Context, id int64) (*ProductDto, error)

	// Create adds a new product to the catalog.
	// Returns ErrValidation or ErrDuplicateCode if the product is rejected.
	Create(ctx context.Context, product ProductCreateDto) (*ProductDto, error)

	// Update replaces the product identified by product.ID.
	// Returns ErrProductNotFound if no product exists with the given ID.
	Update(ctx context.Context, product ProductDto) (*ProductDto, error)

	// DeleteByID removes a product by its ID.
	// Returns ErrProductNotFound if no product exists with the given ID.
	DeleteByID(ctx context.Context, id int64) error
}

// Service implements ProductService on top of a store.ProductStore.
// Successful mutations are announced through the publisher.
type Service struct {
	repository store.ProductStore
	publisher  messaging.Publisher
	metrics    *metrics.Metrics
	tracer     trace.Tracer
	logger     *slog.Logger
}

// NewService creates a new instance of ProductService.
func NewService(repo store.ProductStore, publisher messaging.Publisher, m *metrics.Metrics, logger *slog.Logger) *Service {
	return &Service{
		repository: repo,
		publisher:  publisher,
		metrics:    m,
		tracer:     otel.Tracer(tracerName),
		logger:     logger.With("component", "service"),
	}
}

// ProductCreateDto represents the data transfer object for creating a new product.
type ProductCreateDto struct {
	Title       string  `json:"title"       validate:"required,max=200"`
	Description string  `json:"description" validate:"required"`
	Price       float64 `json:"price"       validate:"required,gt=0"`
	Thumbnail   string  `json:"thumbnail"   validate:"required"`
	Code        string  `json:"code"        validate:"required,max=64"`
	Stock       int64   `json:"stock"       validate:"required,gt=0"`
}

// ProductDto represents the data transfer object for a product.
// On update it is a whole-record replacement; zero-valued fields are stored as such.
type ProductDto struct {
	ID          int64   `json:"id"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Price       float64 `json:"price"       validate:"gte=0"`
	Thumbnail   string  `json:"thumbnail"`
	Code        string  `json:"code"`
	Stock       int64   `json:"stock"       validate:"gte=0"`
}

// FindAll retrieves a window of the catalog and returns it as ProductDTOs.
func (s *Service) FindAll(ctx context.Context, offset, limit int) ([]ProductDto, error) {
	ctx, span := s.tracer.Start(ctx, "ProductService.FindAll")
	defer span.End()

	products, err := s.repository.GetProducts(ctx)
	s.observe(span, opList, err)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch products: %w", err)
	}

	products = window(products, offset, limit)
	productDTOs := make([]ProductDto, len(products))
	for i, item := range products {
		productDTOs[i] = *toDto(&item)
	}
	span.SetAttributes(attribute.Int("catalog.count", len(productDTOs)))

	return productDTOs, nil
}

// FindByID retrieves a product by its ID and returns it as a ProductDto.
func (s *Service) FindByID(ctx context.Context, id int64) (*ProductDto, error) {
	ctx, span := s.tracer.Start(ctx, "ProductService.FindByID", trace.WithAttributes(attribute.Int64("product.id", id)))
	defer span.End()

	product, err := s.repository.GetProductByID(ctx, id)
	s.observe(span, opGet, err)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch product by ID %d: %w", id, err)
	}

	return toDto(product), nil
}

// Create adds a product and returns it as a ProductDto.
// If the product was added but could not be persisted, both the product and the error are returned.
func (s *Service) Create(ctx context.Context, product ProductCreateDto) (*ProductDto, error) {
	ctx, span := s.tracer.Start(ctx, "ProductService.Create", trace.WithAttributes(attribute.String("product.code", product.Code)))
	defer span.End()

	created, err := s.repository.AddProduct(ctx, store.Product{
		Title:       product.Title,
		Description: product.Description,
		Price:       product.Price,
		Thumbnail:   product.Thumbnail,
		Code:        product.Code,
		Stock:       product.Stock,
	})
	s.observe(span, opCreate, err)
	if created == nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	s.announce(ctx, events.NewProductEvent(events.ProductCreated, created.ID, created.Code))
	if err != nil {
		return toDto(created), fmt.Errorf("product %d created but not saved: %w", created.ID, err)
	}
	return toDto(created), nil
}

// Update replaces an existing product and returns the stored result as a ProductDto.
// If the product was replaced but could not be persisted, both the product and the error are returned.
func (s *Service) Update(ctx context.Context, product ProductDto) (*ProductDto, error) {
	ctx, span := s.tracer.Start(ctx, "ProductService.Update", trace.WithAttributes(attribute.Int64("product.id", product.ID)))
	defer span.End()

	updated, err := s.repository.UpdateProduct(ctx, product.ID, store.Product{
		Title:       product.Title,
		Description: product.Description,
		Price:       product.Price,
		Thumbnail:   product.Thumbnail,
		Code:        product.Code,
		Stock:       product.Stock,
	})
	s.observe(span, opUpdate, err)
	if updated == nil {
		return nil, fmt.Errorf("failed to update product with ID %d: %w", product.ID, err)
	}

	s.announce(ctx, events.NewProductEvent(events.ProductUpdated, updated.ID, updated.Code))
	if err != nil {
		return toDto(updated), fmt.Errorf("product %d updated but not saved: %w", updated.ID, err)
	}
	return toDto(updated), nil
}

// DeleteByID deletes a product by its ID.
func (s *Service) DeleteByID(ctx context.Context, id int64) error {
	ctx, span := s.tracer.Start(ctx, "ProductService.DeleteByID", trace.WithAttributes(attribute.Int64("product.id", id)))
	defer span.End()

	err := s.repository.DeleteProduct(ctx, id)
	s.observe(span, opDelete, err)
	if err != nil && !errors.Is(err, perrors.ErrPersistence) {
		return fmt.Errorf("failed to delete product with ID %d: %w", id, err)
	}

	s.announce(ctx, events.NewProductEvent(events.ProductDeleted, id, ""))
	if err != nil {
		return fmt.Errorf("product %d deleted but not saved: %w", id, err)
	}
	return nil
}

// announce publishes the event and refreshes the catalog size gauge.
// Publishing is best effort: a failure is logged and never fails the operation.
func (s *Service) announce(ctx context.Context, event events.ProductEvent) {
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish product event",
			"type", event.Type, "product_id", event.ProductID, "error", err)
	}
	if products, err := s.repository.GetProducts(ctx); err == nil {
		s.metrics.Products.Set(float64(len(products)))
	}
}

// observe counts the operation and marks the span with its outcome.
func (s *Service) observe(span trace.Span, operation string, err error) {
	outcome := outcomeOf(err)
	s.metrics.ObserveOperation(operation, outcome)
	span.SetAttributes(attribute.String("catalog.outcome", outcome))
	if outcome == metrics.OutcomeFailed {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
}

func outcomeOf(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeSuccess
	case errors.Is(err, perrors.ErrValidation), errors.Is(err, perrors.ErrDuplicateCode):
		return metrics.OutcomeRejected
	case errors.Is(err, perrors.ErrProductNotFound):
		return metrics.OutcomeNotFound
	default:
		return metrics.OutcomeFailed
	}
}

// window returns products[offset:offset+limit] clamped to the slice bounds.
func window(products []store.Product, offset, limit int) []store.Product {
	offset = max(offset, 0)
	if offset >= len(products) {
		return []store.Product{}
	}
	products = products[offset:]
	if limit > 0 && limit < len(products) {
		products = products[:limit]
	}
	return products
}

// toDto converts a store.Product to a ProductDto.
func toDto(product *store.Product) *ProductDto {
	return &ProductDto{
		ID:          product.ID,
		Title:       product.Title,
		Description: product.Description,
		Price:       product.Price,
		Thumbnail:   product.Thumbnail,
		Code:        product.Code,
		Stock:       product.Stock,
	}
}
