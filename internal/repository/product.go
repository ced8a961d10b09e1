package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pimstack/catalog-service/internal/domain/product"
)

const (
	listProductsSQL = `SELECT id, sku, price FROM products ORDER BY id`

	getProductByIDSQL = `SELECT id, sku, price FROM products WHERE id = $1`

	listTranslationsSQL = `SELECT id, product_id, language, name, description
		FROM product_translations WHERE product_id = ANY($1) ORDER BY id`

	insertProductSQL = `INSERT INTO products (sku, price) VALUES ($1, $2) RETURNING id`

	insertTranslationSQL = `INSERT INTO product_translations (product_id, language, name, description)
		VALUES ($1, $2, $3, $4) RETURNING id`

	searchTranslationsSQL = `SELECT t.id, t.product_id, t.language, t.name, t.description, p.id, p.sku, p.price
		FROM product_translations t
		JOIN products p ON p.id = t.product_id
		WHERE t.name ILIKE '%' || $1 || '%' AND ($2 = '' OR t.language = $2)
		ORDER BY t.id
		OFFSET $3 LIMIT $4`

	countTranslationsSQL = `SELECT count(*) FROM product_translations t
		WHERE t.name ILIKE '%' || $1 || '%' AND ($2 = '' OR t.language = $2)`
)

var _ product.Repository = (*ProductRepository)(nil)

// ProductRepository implements product.Repository backed by PostgreSQL.
type ProductRepository struct {
	pool *pgxpool.Pool
}

// NewProductRepository returns a ProductRepository that uses the given pool.
func NewProductRepository(pool *pgxpool.Pool) *ProductRepository {
	return &ProductRepository{pool: pool}
}

// List returns all products ordered by ID, each with its translations
// attached in insertion order.
func (r *ProductRepository) List(ctx context.Context) ([]product.Product, error) {
	rows, err := r.pool.Query(ctx, listProductsSQL)
	if err != nil {
		return nil, fmt.Errorf("listing products: %w", err)
	}

	products, err := pgx.CollectRows(rows, scanProduct)
	if err != nil {
		return nil, fmt.Errorf("listing products: %w", err)
	}

	if err := r.attachTranslations(ctx, products); err != nil {
		return nil, fmt.Errorf("listing products: %w", err)
	}
	return products, nil
}

// GetByID returns a single product with its translations, or
// *product.NotFoundError when no row matches.
func (r *ProductRepository) GetByID(ctx context.Context, id int64) (*product.Product, error) {
	rows, err := r.pool.Query(ctx, getProductByIDSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting product %d: %w", id, err)
	}

	p, err := pgx.CollectExactlyOneRow(rows, scanProduct)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &product.NotFoundError{ID: id}
		}
		return nil, fmt.Errorf("getting product %d: %w", id, err)
	}

	ps := []product.Product{p}
	if err := r.attachTranslations(ctx, ps); err != nil {
		return nil, fmt.Errorf("getting product %d: %w", id, err)
	}
	return &ps[0], nil
}

// Create inserts the product and its initial translations in one
// transaction; generated IDs are written back into p. A SKU collision rolls
// everything back and yields *product.DuplicateSKUError.
func (r *ProductRepository) Create(ctx context.Context, p *product.Product) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("creating product %q: %w", p.SKU, err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := tx.QueryRow(ctx, insertProductSQL, p.SKU, p.Price).Scan(&p.ID); err != nil {
		if isUniqueViolation(err) {
			return &product.DuplicateSKUError{SKU: p.SKU}
		}
		return fmt.Errorf("creating product %q: %w", p.SKU, err)
	}

	for i := range p.Translations {
		t := &p.Translations[i]
		t.ProductID = p.ID
		err := tx.QueryRow(ctx, insertTranslationSQL, p.ID, t.Language, t.Name, t.Description).Scan(&t.ID)
		if err != nil {
			return fmt.Errorf("creating product %q: inserting translation %q: %w", p.SKU, t.Language, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("creating product %q: %w", p.SKU, err)
	}
	return nil
}

// AddTranslation inserts a single translation row for an existing product
// and writes the generated ID back into t. Uniqueness of the (product,
// language) pair is the caller's pre-check; the table has no composite
// constraint.
func (r *ProductRepository) AddTranslation(ctx context.Context, productID int64, t *product.Translation) error {
	err := r.pool.QueryRow(ctx, insertTranslationSQL, productID, t.Language, t.Name, t.Description).Scan(&t.ID)
	if err != nil {
		return fmt.Errorf("inserting translation %q for product %d: %w", t.Language, productID, err)
	}
	t.ProductID = productID
	return nil
}

// SearchTranslations matches translation names case-insensitively against
// the query substring, optionally filtered to an exact language, joined to
// the owning product. It returns the requested window plus the total match
// count ignoring the window.
func (r *ProductRepository) SearchTranslations(ctx context.Context, q product.SearchQuery) ([]product.Match, int, error) {
	rows, err := r.pool.Query(ctx, searchTranslationsSQL, q.Query, q.Language, q.Offset, q.Limit)
	if err != nil {
		return nil, 0, fmt.Errorf("searching translations: %w", err)
	}

	matches, err := pgx.CollectRows(rows, scanMatch)
	if err != nil {
		return nil, 0, fmt.Errorf("searching translations: %w", err)
	}

	var total int
	if err := r.pool.QueryRow(ctx, countTranslationsSQL, q.Query, q.Language).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("counting translation matches: %w", err)
	}

	return matches, total, nil
}

// attachTranslations loads all translations for the given products in one
// query and distributes them. Every product ends up with a non-nil
// collection so callers see exactly what is persisted.
func (r *ProductRepository) attachTranslations(ctx context.Context, products []product.Product) error {
	byID := make(map[int64]*product.Product, len(products))
	ids := make([]int64, len(products))
	for i := range products {
		products[i].Translations = []product.Translation{}
		byID[products[i].ID] = &products[i]
		ids[i] = products[i].ID
	}
	if len(ids) == 0 {
		return nil
	}

	rows, err := r.pool.Query(ctx, listTranslationsSQL, ids)
	if err != nil {
		return fmt.Errorf("loading translations: %w", err)
	}

	translations, err := pgx.CollectRows(rows, scanTranslation)
	if err != nil {
		return fmt.Errorf("loading translations: %w", err)
	}

	for _, t := range translations {
		if p, ok := byID[t.ProductID]; ok {
			p.Translations = append(p.Translations, t)
		}
	}
	return nil
}

func scanProduct(row pgx.CollectableRow) (product.Product, error) {
	var p product.Product
	err := row.Scan(&p.ID, &p.SKU, &p.Price)
	return p, err
}

func scanTranslation(row pgx.CollectableRow) (product.Translation, error) {
	var t product.Translation
	err := row.Scan(&t.ID, &t.ProductID, &t.Language, &t.Name, &t.Description)
	return t, err
}

func scanMatch(row pgx.CollectableRow) (product.Match, error) {
	var m product.Match
	err := row.Scan(
		&m.Translation.ID, &m.Translation.ProductID, &m.Translation.Language,
		&m.Translation.Name, &m.Translation.Description,
		&m.Product.ID, &m.Product.SKU, &m.Product.Price,
	)
	return m, err
}
