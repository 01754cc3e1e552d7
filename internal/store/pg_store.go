package store

import (
	"context"
	"errors"
	"fmt"

	perrors "github.com/abgdnv/gocatalog/internal/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	createTableSQL = `CREATE TABLE IF NOT EXISTS products (
    id         UUID PRIMARY KEY,
    seq        BIGSERIAL NOT NULL,
    name       TEXT NOT NULL,
    price      DOUBLE PRECISION NOT NULL,
    image      TEXT NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`
	findAllSQL = `SELECT id::text, name, price, image FROM products ORDER BY seq`
	createSQL  = `INSERT INTO products (id, name, price, image) VALUES ($1::uuid, $2, $3, $4)
RETURNING id::text, name, price, image`
	replaceSQL = `UPDATE products SET name = $2, price = $3, image = $4, updated_at = now() WHERE id = $1::uuid
RETURNING id::text, name, price, image`
	deleteSQL = `DELETE FROM products WHERE id = $1::uuid RETURNING id::text, name, price, image`
)

// PgStore implements ProductStore using PostgreSQL as the data store.
type PgStore struct {
	db *pgxpool.Pool
}

// NewPgStore creates a new instance of ProductStore using a PostgreSQL connection pool.
func NewPgStore(dbp *pgxpool.Pool) *PgStore {
	return &PgStore{db: dbp}
}

// EnsureSchema creates the products table when it does not exist yet.
func (p *PgStore) EnsureSchema(ctx context.Context) error {
	if _, err := p.db.Exec(ctx, createTableSQL); err != nil {
		return fmt.Errorf("failed to create products table: %w", err)
	}
	return nil
}

// FindAll retrieves all products in insertion order.
// It returns a slice of products, which may be empty if no products exist.
func (p *PgStore) FindAll(ctx context.Context) ([]Product, error) {
	rows, err := p.db.Query(ctx, findAllSQL)
	if err != nil {
		return nil, fmt.Errorf("failed to find all products: %w", err)
	}
	products, err := pgx.CollectRows(rows, pgx.RowToStructByPos[Product])
	if err != nil {
		return nil, fmt.Errorf("failed to scan products: %w", err)
	}
	return products, nil
}

// Create adds a new product to the system.
// Returns an error if the product cannot be created.
func (p *PgStore) Create(ctx context.Context, name string, price float64, image string) (*Product, error) {
	rows, err := p.db.Query(ctx, createSQL, uuid.NewString(), name, price, image)
	if err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}
	product, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByPos[Product])
	if err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}
	return &product, nil
}

// Replace modifies an existing product's details.
// Returns ErrProductNotFound if no product exists with the given ID.
func (p *PgStore) Replace(ctx context.Context, id string, name string, price float64, image string) (*Product, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, perrors.ErrInvalidID
	}
	rows, err := p.db.Query(ctx, replaceSQL, id, name, price, image)
	if err != nil {
		return nil, fmt.Errorf("failed to update product: %w", err)
	}
	product, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByPos[Product])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, perrors.ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to update product: %w", err)
	}
	return &product, nil
}

// DeleteByID removes a product by its unique identifier and returns the removed row.
// Returns ErrProductNotFound if no product exists with the given ID.
func (p *PgStore) DeleteByID(ctx context.Context, id string) (*Product, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, perrors.ErrInvalidID
	}
	rows, err := p.db.Query(ctx, deleteSQL, id)
	if err != nil {
		return nil, fmt.Errorf("failed to delete product by ID: %w", err)
	}
	product, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByPos[Product])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, perrors.ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to delete product by ID: %w", err)
	}
	return &product, nil
}

// Ping checks that a connection can be acquired.
func (p *PgStore) Ping(ctx context.Context) error {
	return p.db.Ping(ctx)
}
