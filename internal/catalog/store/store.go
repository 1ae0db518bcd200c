// Package store provides the product catalog storage.
package store

import (
	"context"
)

// Product is a single catalog record.
// ID is assigned by the store; every other field is supplied by the caller.
type Product struct {
	ID          int64   `json:"id"`
	Title       string  `json:"title"       validate:"required"`
	Description string  `json:"description" validate:"required"`
	Price       float64 `json:"price"       validate:"required"`
	Thumbnail   string  `json:"thumbnail"   validate:"required"`
	Code        string  `json:"code"        validate:"required"`
	Stock       int64   `json:"stock"       validate:"required"`
}

// ProductStore is an interface for catalog storage operations.
// Mutations are persisted before they return. A returned error wrapping ErrPersistence
// together with a non-nil result means the change was applied in memory but not written.
type ProductStore interface {
	// Load replaces the in-memory catalog with the contents of the backing storage.
	// A missing backing file yields an empty catalog and no error.
	Load(ctx context.Context) error

	// Save writes the whole catalog to the backing storage.
	Save(ctx context.Context) error

	// AddProduct validates the candidate, assigns it the next ID and appends it.
	// Returns ErrValidation if a field is missing and ErrDuplicateCode if the code is taken.
	AddProduct(ctx context.Context, candidate Product) (*Product, error)

	// GetProducts returns all products in insertion order.
	// Returns an empty slice if the catalog is empty.
	GetProducts(ctx context.Context) ([]Product, error)

	// GetProductByID retrieves a single product by its ID.
	// Returns ErrProductNotFound if no product exists with the given ID.
	GetProductByID(ctx context.Context, id int64) (*Product, error)

	// UpdateProduct replaces the product with the given ID, keeping the ID.
	// Returns ErrProductNotFound if no product exists with the given ID.
	UpdateProduct(ctx context.Context, id int64, replacement Product) (*Product, error)

	// DeleteProduct removes the product with the given ID.
	// Returns ErrProductNotFound if no product exists with the given ID.
	DeleteProduct(ctx context.Context, id int64) error
}
