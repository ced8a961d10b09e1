package product

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
)

// Product is a catalog item identified by its SKU, carrying one translation
// per language.
type Product struct {
	ID           int64
	SKU          string
	Price        decimal.Decimal
	Translations []Translation
}

// Translation holds the language-specific name and description of a product.
// Language is an ISO 639-1 code; it is not validated against a fixed list.
type Translation struct {
	ID          int64
	ProductID   int64
	Language    string
	Name        string
	Description string
}

// NotFoundError indicates that no product exists with the requested ID.
type NotFoundError struct {
	ID int64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("product with id %d not found", e.ID)
}

// DuplicateSKUError indicates that an insert collided with the unique SKU
// constraint of an existing product.
type DuplicateSKUError struct {
	SKU string
}

func (e *DuplicateSKUError) Error() string {
	return fmt.Sprintf("product with sku %q already exists", e.SKU)
}

// SearchQuery describes one page of a translation search. Query is matched
// as a case-insensitive substring of the translation name. An empty Language
// means no language filter.
type SearchQuery struct {
	Query    string
	Language string
	Offset   int
	Limit    int
}

// Match pairs a matching translation with its owning product. The product
// carries no translation collection; it is the join projection only.
type Match struct {
	Translation Translation
	Product     Product
}

// Repository defines the persistence operations for the product catalog.
type Repository interface {
	// List returns all products with their translations eagerly attached,
	// ordered by insertion order.
	List(ctx context.Context) ([]Product, error)

	// GetByID returns one product with translations, or *NotFoundError.
	GetByID(ctx context.Context, id int64) (*Product, error)

	// Create persists a product and its initial translations atomically,
	// assigning generated IDs in place. A SKU collision yields
	// *DuplicateSKUError and no partial write.
	Create(ctx context.Context, p *Product) error

	// AddTranslation persists a single translation row linked to an existing
	// product, assigning its generated ID in place.
	AddTranslation(ctx context.Context, productID int64, t *Translation) error

	// SearchTranslations returns one page of translation matches plus the
	// total match count ignoring the pagination window.
	SearchTranslations(ctx context.Context, q SearchQuery) ([]Match, int, error)
}
