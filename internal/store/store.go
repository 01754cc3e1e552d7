// Package store provides the persistent store adapters for products.
package store

import (
	"context"
)

// Product is a stored product record. ID is assigned by the store and never changes.
type Product struct {
	ID    string
	Name  string
	Price float64
	Image string
}

// ProductStore is an interface for product storage operations.
// It abstracts the underlying data store, allowing for different implementations (document, relational, in-memory).
// Every method is atomic for a single record; there are no multi-record transactions.
type ProductStore interface {
	// FindAll returns all products in insertion order.
	// Returns an empty slice if no products exist.
	FindAll(ctx context.Context) ([]Product, error)

	// Create persists a new product and returns it with its store-assigned ID.
	Create(ctx context.Context, name string, price float64, image string) (*Product, error)

	// Replace overwrites name, price and image of the product with the given ID and returns the result.
	// The returned ID is the store's canonical form, which may differ in case from the one passed in.
	// Returns ErrProductNotFound if no product exists with the given ID, ErrInvalidID if the ID is malformed.
	Replace(ctx context.Context, id string, name string, price float64, image string) (*Product, error)

	// DeleteByID removes a product by its ID and returns the removed record.
	// Returns ErrProductNotFound if no product exists with the given ID, ErrInvalidID if the ID is malformed.
	DeleteByID(ctx context.Context, id string) (*Product, error)

	// Ping checks that the store is reachable.
	Ping(ctx context.Context) error
}
