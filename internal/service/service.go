// Package service provides the implementation of product-related business logic.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"strings"
	"time"

	perrors "github.com/abgdnv/gocatalog/internal/errors"
	"github.com/abgdnv/gocatalog/internal/store"
	"github.com/abgdnv/gocatalog/pkg/messaging"
	"github.com/abgdnv/gocatalog/pkg/messaging/events"
	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// ProductService defines the methods for managing products.
// It abstracts the underlying business logic and data access.
type ProductService interface {
	// FindAll returns all products in insertion order.
	// Returns an empty slice if no products exist.
	FindAll(ctx context.Context) ([]ProductDto, error)

	// Create validates and adds a new product to the catalog.
	// Returns a ValidationError if a field is missing or out of range.
	Create(ctx context.Context, product ProductInputDto) (*ProductDto, error)

	// Update replaces name, price and image of an existing product. The ID never changes.
	// Returns ErrProductNotFound if no product exists with the given ID.
	Update(ctx context.Context, id string, product ProductInputDto) (*ProductDto, error)

	// DeleteByID removes a product by its ID and returns the removed product.
	// Returns ErrProductNotFound if no product exists with the given ID.
	DeleteByID(ctx context.Context, id string) (*ProductDto, error)

	// Ping reports whether the underlying store is reachable.
	Ping(ctx context.Context) error
}

// ProductDto represents the data transfer object for a product.
type ProductDto struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	Price float64 `json:"price"`
	Image string  `json:"image"`
}

// ProductInputDto carries the client-supplied fields for create and update.
type ProductInputDto struct {
	Name  string  `json:"name"  validate:"required,max=100"`
	Price float64 `json:"price" validate:"required,gt=0"`
	Image string  `json:"image" validate:"required"`
}

// Service implements ProductService and provides methods to manage products.
type Service struct {
	repository store.ProductStore
	publisher  messaging.Publisher
	validate   *validator.Validate
	logger     *slog.Logger
	mutations  metric.Int64Counter
}

// NewService creates a new instance of ProductService with the provided repository and event publisher.
func NewService(repo store.ProductStore, publisher messaging.Publisher, logger *slog.Logger) *Service {
	meter := otel.Meter("catalog-service")
	mutations, err := meter.Int64Counter("catalog_product_mutations",
		metric.WithDescription("Total number of confirmed product mutations"))
	if err != nil {
		panic(fmt.Sprintf("failed to create catalog_product_mutations counter: %v", err))
	}
	if publisher == nil {
		publisher = messaging.NoopPublisher{}
	}
	return &Service{
		repository: repo,
		publisher:  publisher,
		validate:   newValidator(),
		logger:     logger.With("component", "service"),
		mutations:  mutations,
	}
}

// newValidator reports field errors under their json names.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	return v
}

// FindAll retrieves a list of all products and returns them as ProductDTOs.
// Returns an empty slice if no products exist or error if the retrieval fails.
func (s *Service) FindAll(ctx context.Context) ([]ProductDto, error) {
	products, err := s.repository.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch products: %w", err)
	}
	productDTOs := make([]ProductDto, len(products))
	for i := range products {
		productDTOs[i] = *toDto(&products[i])
	}
	return productDTOs, nil
}

// Create creates a new product and returns it as a ProductDto.
func (s *Service) Create(ctx context.Context, product ProductInputDto) (*ProductDto, error) {
	if err := s.validateInput(product); err != nil {
		return nil, err
	}
	p, err := s.repository.Create(ctx, product.Name, product.Price, product.Image)
	if err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}
	created := toDto(p)
	s.confirmed(ctx, events.KindCreated, created)
	return created, nil
}

// Update modifies an existing product's details and returns the updated product as a ProductDto.
// Returns ErrProductNotFound if no product exists with the given ID.
func (s *Service) Update(ctx context.Context, id string, product ProductInputDto) (*ProductDto, error) {
	if id == "" {
		return nil, &perrors.ValidationError{Fields: map[string]string{"id": "failed on rule: required"}}
	}
	if err := s.validateInput(product); err != nil {
		return nil, err
	}
	p, err := s.repository.Replace(ctx, id, product.Name, product.Price, product.Image)
	if err != nil {
		return nil, fmt.Errorf("failed to update product with ID %s: %w", id, err)
	}
	updated := toDto(p)
	s.confirmed(ctx, events.KindUpdated, updated)
	return updated, nil
}

// DeleteByID deletes a product by its ID and returns it as it was before the delete.
// Returns ErrProductNotFound if no product exists with the given ID.
func (s *Service) DeleteByID(ctx context.Context, id string) (*ProductDto, error) {
	if id == "" {
		return nil, &perrors.ValidationError{Fields: map[string]string{"id": "failed on rule: required"}}
	}
	p, err := s.repository.DeleteByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to delete product with ID %s: %w", id, err)
	}
	deleted := toDto(p)
	s.confirmed(ctx, events.KindDeleted, deleted)
	return deleted, nil
}

func (s *Service) Ping(ctx context.Context) error {
	return s.repository.Ping(ctx)
}

// validateInput converts validator errors into a ValidationError keyed by json field name.
func (s *Service) validateInput(product ProductInputDto) error {
	err := s.validate.Struct(product)
	if err == nil {
		return nil
	}
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		fields := make(map[string]string, len(validationErrors))
		for _, fieldErr := range validationErrors {
			// fieldErr.Tag() returns "required", "max", etc.
			fields[fieldErr.Field()] = "failed on rule: " + fieldErr.Tag()
		}
		return &perrors.ValidationError{Fields: fields}
	}
	return fmt.Errorf("%w: %v", perrors.ErrInvalidInput, err)
}

// confirmed records a mutation the store has accepted. Event delivery is best effort.
func (s *Service) confirmed(ctx context.Context, kind string, product *ProductDto) {
	s.mutations.Add(ctx, 1, metric.WithAttributes(attribute.String("operation", kind)))

	event := events.ProductChangedEvent{
		Kind:       kind,
		ProductID:  product.ID,
		Name:       product.Name,
		Price:      product.Price,
		Image:      product.Image,
		OccurredAt: time.Now().UTC(),
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "Failed to publish product event", "subject", event.Subject(), "ID", product.ID, "error", err)
	}
}

// toDto converts a store.Product to a ProductDto.
func toDto(product *store.Product) *ProductDto {
	return &ProductDto{
		ID:    product.ID,
		Name:  product.Name,
		Price: product.Price,
		Image: product.Image,
	}
}
