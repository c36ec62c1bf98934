package catalog

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a requested product does not exist.
var ErrNotFound = errors.New("product not found")

// Product represents a menu item served by the remote catalog.
type Product struct {
	ID         string
	Name       string
	Price      decimal.Decimal
	CategoryID string
	ImageURL   string
}

// Category is a menu grouping (the remote API calls these tags).
type Category struct {
	ID   string
	Name string
}

// Source defines read operations against the remote catalog. The cart
// never fetches products itself; resolved Products flow in through the
// gesture surface.
type Source interface {
	ListProducts(ctx context.Context) ([]Product, error)
	ListCategories(ctx context.Context) ([]Category, error)
}

// Editor defines the admin-side write operations on the catalog.
type Editor interface {
	CreateProduct(ctx context.Context, draft ProductDraft) (*Product, error)
	UpdateProduct(ctx context.Context, id string, draft ProductDraft) (*Product, error)
	DeleteProduct(ctx context.Context, id string) error
	UploadProductImage(ctx context.Context, id, filename string, data []byte) error
}

// ProductDraft holds the editable fields of a product.
type ProductDraft struct {
	Name       string
	Price      decimal.Decimal
	CategoryID string
}
