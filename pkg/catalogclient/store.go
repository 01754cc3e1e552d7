package catalogclient

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"sync"

	"github.com/sony/gobreaker/v2"
)

const (
	MsgFillAllFields   = "Please fill in all fields"
	MsgInvalidResponse = "Invalid response from server"
	MsgUnavailable     = "Catalog is temporarily unavailable"
	MsgFetchFailed     = "Failed to fetch products"
	MsgCreateFailed    = "Failed to create product"
	MsgUpdateFailed    = "Failed to update product"
	MsgDeleteFailed    = "Failed to delete product"
	MsgFetched         = "Products fetched successfully"
	MsgCreated         = "Product created successfully"
	MsgUpdated         = "Product updated successfully"
	MsgDeleted         = "Product deleted successfully"
)

// Result is the outcome of a Store operation. Failures are reported here, never as an error value.
type Result[T any] struct {
	Success bool
	Message string
	Data    T
}

// API is the remote side of a Store.
type API interface {
	List(ctx context.Context) ([]Product, string, error)
	Create(ctx context.Context, input ProductInput) (*Product, string, error)
	Update(ctx context.Context, id string, input ProductInput) (*Product, string, error)
	Delete(ctx context.Context, id string) (*Product, string, error)
}

var _ API = (*Client)(nil)

// Store mirrors the catalog for one client session.
// The mirror changes only after the server confirms an operation; network calls run outside the lock.
type Store struct {
	api    API
	logger *slog.Logger

	mu       sync.RWMutex
	products []Product
}

// NewStore creates an empty Store backed by api.
func NewStore(api API, logger *slog.Logger) *Store {
	return &Store{
		api:      api,
		logger:   logger.With("component", "catalog-store"),
		products: []Product{},
	}
}

// Products returns a copy of the mirror in server order.
func (s *Store) Products() []Product {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.products)
}

// Reset empties the mirror.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products = []Product{}
}

// FetchAll replaces the mirror with the server's list.
func (s *Store) FetchAll(ctx context.Context) Result[[]Product] {
	products, _, err := s.api.List(ctx)
	if err != nil {
		s.logger.WarnContext(ctx, "Failed to fetch products", "error", err)
		return failure[[]Product](err, MsgFetchFailed)
	}

	mirror := append(make([]Product, 0, len(products)), products...)
	s.mu.Lock()
	s.products = mirror
	s.mu.Unlock()

	return Result[[]Product]{Success: true, Message: MsgFetched, Data: slices.Clone(mirror)}
}

// Create validates the input locally, sends it and appends the server-returned record.
func (s *Store) Create(ctx context.Context, input ProductInput) Result[Product] {
	if !input.complete() {
		return Result[Product]{Message: MsgFillAllFields}
	}
	created, _, err := s.api.Create(ctx, input)
	if err != nil {
		s.logger.WarnContext(ctx, "Failed to create product", "error", err)
		return failure[Product](err, MsgCreateFailed)
	}

	s.mu.Lock()
	s.products = append(s.products, *created)
	s.mu.Unlock()

	return Result[Product]{Success: true, Message: MsgCreated, Data: *created}
}

// Update validates the input locally, sends it and replaces the entry carrying the id the server confirmed.
func (s *Store) Update(ctx context.Context, id string, input ProductInput) Result[Product] {
	if id == "" || !input.complete() {
		return Result[Product]{Message: MsgFillAllFields}
	}
	updated, _, err := s.api.Update(ctx, id, input)
	if err != nil {
		s.logger.WarnContext(ctx, "Failed to update product", "ID", id, "error", err)
		return failure[Product](err, MsgUpdateFailed)
	}

	s.mu.Lock()
	for i := range s.products {
		if s.products[i].ID == updated.ID {
			s.products[i] = *updated
		}
	}
	s.mu.Unlock()

	return Result[Product]{Success: true, Message: MsgUpdated, Data: *updated}
}

// Delete removes the product on the server and then from the mirror.
// Data holds the id of the record the server removed.
func (s *Store) Delete(ctx context.Context, id string) Result[string] {
	if id == "" {
		return Result[string]{Message: MsgFillAllFields}
	}
	deleted, _, err := s.api.Delete(ctx, id)
	if err != nil {
		s.logger.WarnContext(ctx, "Failed to delete product", "ID", id, "error", err)
		return failure[string](err, MsgDeleteFailed)
	}

	s.mu.Lock()
	s.products = slices.DeleteFunc(s.products, func(p Product) bool { return p.ID == deleted.ID })
	s.mu.Unlock()

	return Result[string]{Success: true, Message: MsgDeleted, Data: deleted.ID}
}

// complete reports whether every field is set. A zero price counts as missing.
func (in ProductInput) complete() bool {
	return in.Name != "" && in.Price != 0 && in.Image != ""
}

// failure turns err into a failed Result, preferring the server's own message.
func failure[T any](err error, fallback string) Result[T] {
	var statusErr *StatusError
	switch {
	case errors.As(err, &statusErr) && statusErr.Message != "":
		return Result[T]{Message: statusErr.Message}
	case errors.Is(err, ErrMalformedResponse):
		return Result[T]{Message: MsgInvalidResponse}
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return Result[T]{Message: MsgUnavailable}
	default:
		return Result[T]{Message: fallback + ": " + err.Error()}
	}
}
