// Package catalog implements the business rules of the product catalog:
// payload validation, duplicate detection, pagination, and the one
// translation per (product, language) rule.
package catalog

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/pimstack/catalog-service/internal/domain/product"
)

const (
	defaultPage  = 1
	defaultLimit = 10
)

// DuplicateTranslationError indicates a product already has a translation
// for the requested language.
type DuplicateTranslationError struct {
	Language string
}

func (e *DuplicateTranslationError) Error() string {
	return fmt.Sprintf("translation for language %q already exists", e.Language)
}

// SearchResult is one page of search matches. Items holds the owning product
// of each matching translation, one entry per match; products with several
// matching translations appear once per translation.
type SearchResult struct {
	Items []product.Product
	Total int
	Page  int
	Limit int
}

// AddTranslationResult is a created translation together with its owning
// product reference.
type AddTranslationResult struct {
	Translation product.Translation
	Product     product.Product
}

// Service orchestrates catalog operations over the product repository. It
// keeps no cross-request state; every method is a single request/response
// cycle.
//
// Known limitation: the one-translation-per-language rule is checked in
// AddTranslation before insert, and the storage layer carries no composite
// unique constraint on (product, language). Two concurrent AddTranslation
// calls for the same pair can both pass the pre-check and both insert.
type Service struct {
	products product.Repository
}

// NewService creates a catalog Service backed by the given repository.
func NewService(products product.Repository) *Service {
	return &Service{products: products}
}

// GetAllProducts returns every product with its translations.
func (s *Service) GetAllProducts(ctx context.Context) ([]product.Product, error) {
	products, err := s.products.List(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "list products")
	}
	return products, nil
}

// GetProduct returns one product with its translations, or
// *product.NotFoundError.
func (s *Service) GetProduct(ctx context.Context, id int64) (*product.Product, error) {
	return s.products.GetByID(ctx, id)
}

// CreateProduct validates the payload, builds the entity graph, and persists
// the product with its initial translations atomically. A SKU collision
// surfaces as *product.DuplicateSKUError; validation failures as
// *ValidationError. Any other storage failure propagates unchanged.
func (s *Service) CreateProduct(ctx context.Context, req CreateProductRequest) (*product.Product, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	price, err := decimal.NewFromString(req.Price.String())
	if err != nil {
		return nil, errors.Wrap(err, "parse price")
	}

	p := &product.Product{
		SKU:          req.SKU,
		Price:        price,
		Translations: make([]product.Translation, len(req.Translations)),
	}
	for i, t := range req.Translations {
		p.Translations[i] = product.Translation{
			Language:    t.Language,
			Name:        t.Name,
			Description: t.Description,
		}
	}

	if err := s.products.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// Search returns one page of products whose translation name contains the
// query case-insensitively, optionally filtered to an exact language code.
// Non-positive page or limit fall back to 1 and 10. A window beyond the
// total match count yields an empty item list with the correct total.
func (s *Service) Search(ctx context.Context, query, language string, page, limit int) (*SearchResult, error) {
	if page < 1 {
		page = defaultPage
	}
	if limit < 1 {
		limit = defaultLimit
	}

	matches, total, err := s.products.SearchTranslations(ctx, product.SearchQuery{
		Query:    query,
		Language: language,
		Offset:   (page - 1) * limit,
		Limit:    limit,
	})
	if err != nil {
		return nil, errors.Wrap(err, "search translations")
	}

	items := make([]product.Product, len(matches))
	for i, m := range matches {
		items[i] = m.Product
	}

	return &SearchResult{
		Items: items,
		Total: total,
		Page:  page,
		Limit: limit,
	}, nil
}

// AddTranslation appends a translation to an existing product. It fails with
// *product.NotFoundError when the product is absent and with
// *DuplicateTranslationError when a translation for the language is already
// loaded on the product.
func (s *Service) AddTranslation(ctx context.Context, productID int64, req TranslationRequest) (*AddTranslationResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	p, err := s.products.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}

	for _, t := range p.Translations {
		if t.Language == req.Language {
			return nil, &DuplicateTranslationError{Language: req.Language}
		}
	}

	t := product.Translation{
		ProductID:   p.ID,
		Language:    req.Language,
		Name:        req.Name,
		Description: req.Description,
	}
	if err := s.products.AddTranslation(ctx, p.ID, &t); err != nil {
		return nil, errors.Wrap(err, "add translation")
	}

	return &AddTranslationResult{Translation: t, Product: *p}, nil
}
