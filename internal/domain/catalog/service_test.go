package catalog

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pimstack/catalog-service/internal/domain/product"
)

// mockRepo implements product.Repository with overridable function fields.
type mockRepo struct {
	list               func(ctx context.Context) ([]product.Product, error)
	getByID            func(ctx context.Context, id int64) (*product.Product, error)
	create             func(ctx context.Context, p *product.Product) error
	addTranslation     func(ctx context.Context, productID int64, t *product.Translation) error
	searchTranslations func(ctx context.Context, q product.SearchQuery) ([]product.Match, int, error)
}

func (m *mockRepo) List(ctx context.Context) ([]product.Product, error) {
	return m.list(ctx)
}

func (m *mockRepo) GetByID(ctx context.Context, id int64) (*product.Product, error) {
	return m.getByID(ctx, id)
}

func (m *mockRepo) Create(ctx context.Context, p *product.Product) error {
	return m.create(ctx, p)
}

func (m *mockRepo) AddTranslation(ctx context.Context, productID int64, t *product.Translation) error {
	return m.addTranslation(ctx, productID, t)
}

func (m *mockRepo) SearchTranslations(ctx context.Context, q product.SearchQuery) ([]product.Match, int, error) {
	return m.searchTranslations(ctx, q)
}

func TestService_CreateProduct(t *testing.T) {
	req := CreateProductRequest{
		SKU:   "KB-100",
		Price: json.Number("59.90"),
		Translations: []TranslationRequest{
			{Language: "en", Name: "Keyboard", Description: "A mechanical keyboard."},
			{Language: "de", Name: "Tastatur", Description: "Eine mechanische Tastatur."},
		},
	}

	t.Run("persists full entity graph", func(t *testing.T) {
		repo := &mockRepo{
			create: func(_ context.Context, p *product.Product) error {
				p.ID = 7
				for i := range p.Translations {
					p.Translations[i].ID = int64(i + 1)
					p.Translations[i].ProductID = 7
				}
				return nil
			},
		}

		p, err := NewService(repo).CreateProduct(context.Background(), req)
		require.NoError(t, err)

		assert.Equal(t, int64(7), p.ID)
		assert.Equal(t, "KB-100", p.SKU)
		assert.True(t, p.Price.Equal(decimal.RequireFromString("59.90")))
		require.Len(t, p.Translations, 2)
		assert.Equal(t, "de", p.Translations[1].Language)
		assert.Equal(t, int64(7), p.Translations[1].ProductID)
	})

	t.Run("validation failure skips persistence", func(t *testing.T) {
		repo := &mockRepo{
			create: func(context.Context, *product.Product) error {
				t.Fatal("create must not be called")
				return nil
			},
		}

		bad := req
		bad.SKU = ""
		_, err := NewService(repo).CreateProduct(context.Background(), bad)

		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
	})

	t.Run("sku collision surfaces as duplicate error", func(t *testing.T) {
		repo := &mockRepo{
			create: func(context.Context, *product.Product) error {
				return &product.DuplicateSKUError{SKU: "KB-100"}
			},
		}

		_, err := NewService(repo).CreateProduct(context.Background(), req)

		var dup *product.DuplicateSKUError
		require.ErrorAs(t, err, &dup)
		assert.Equal(t, "KB-100", dup.SKU)
	})
}

func TestService_Search(t *testing.T) {
	mouse := product.Product{ID: 1, SKU: "MOUSE-001", Price: decimal.RequireFromString("29.99")}
	pad := product.Product{ID: 2, SKU: "PAD-001", Price: decimal.RequireFromString("9.99")}

	t.Run("non-positive page and limit fall back to defaults", func(t *testing.T) {
		var got product.SearchQuery
		repo := &mockRepo{
			searchTranslations: func(_ context.Context, q product.SearchQuery) ([]product.Match, int, error) {
				got = q
				return nil, 0, nil
			},
		}

		result, err := NewService(repo).Search(context.Background(), "mouse", "", 0, -3)
		require.NoError(t, err)

		assert.Equal(t, 0, got.Offset)
		assert.Equal(t, 10, got.Limit)
		assert.Equal(t, 1, result.Page)
		assert.Equal(t, 10, result.Limit)
		assert.Empty(t, result.Items)
	})

	t.Run("pagination window math", func(t *testing.T) {
		var got product.SearchQuery
		repo := &mockRepo{
			searchTranslations: func(_ context.Context, q product.SearchQuery) ([]product.Match, int, error) {
				got = q
				return nil, 42, nil
			},
		}

		result, err := NewService(repo).Search(context.Background(), "mouse", "en", 3, 5)
		require.NoError(t, err)

		assert.Equal(t, 10, got.Offset)
		assert.Equal(t, 5, got.Limit)
		assert.Equal(t, "en", got.Language)
		assert.Equal(t, 42, result.Total)
		assert.Equal(t, 3, result.Page)
	})

	t.Run("one item per match without dedup", func(t *testing.T) {
		repo := &mockRepo{
			searchTranslations: func(context.Context, product.SearchQuery) ([]product.Match, int, error) {
				return []product.Match{
					{Translation: product.Translation{ID: 10, Language: "en"}, Product: mouse},
					{Translation: product.Translation{ID: 11, Language: "de"}, Product: mouse},
					{Translation: product.Translation{ID: 12, Language: "en"}, Product: pad},
				}, 3, nil
			},
		}

		result, err := NewService(repo).Search(context.Background(), "m", "", 1, 10)
		require.NoError(t, err)

		require.Len(t, result.Items, 3)
		assert.Equal(t, int64(1), result.Items[0].ID)
		assert.Equal(t, int64(1), result.Items[1].ID)
		assert.Equal(t, int64(2), result.Items[2].ID)
	})

	t.Run("storage failure propagates wrapped", func(t *testing.T) {
		repo := &mockRepo{
			searchTranslations: func(context.Context, product.SearchQuery) ([]product.Match, int, error) {
				return nil, 0, errors.New("connection reset")
			},
		}

		_, err := NewService(repo).Search(context.Background(), "mouse", "", 1, 10)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "connection reset")
	})
}

func TestService_AddTranslation(t *testing.T) {
	req := TranslationRequest{Language: "fr", Name: "Souris", Description: "Une souris sans fil."}

	existing := func() *product.Product {
		return &product.Product{
			ID:    5,
			SKU:   "MOUSE-001",
			Price: decimal.RequireFromString("29.99"),
			Translations: []product.Translation{
				{ID: 1, ProductID: 5, Language: "en", Name: "Mouse", Description: "A wireless mouse."},
			},
		}
	}

	t.Run("appends translation and returns owner", func(t *testing.T) {
		repo := &mockRepo{
			getByID: func(_ context.Context, id int64) (*product.Product, error) {
				assert.Equal(t, int64(5), id)
				return existing(), nil
			},
			addTranslation: func(_ context.Context, productID int64, tr *product.Translation) error {
				assert.Equal(t, int64(5), productID)
				tr.ID = 2
				return nil
			},
		}

		result, err := NewService(repo).AddTranslation(context.Background(), 5, req)
		require.NoError(t, err)

		assert.Equal(t, int64(2), result.Translation.ID)
		assert.Equal(t, "fr", result.Translation.Language)
		assert.Equal(t, int64(5), result.Translation.ProductID)
		assert.Equal(t, "MOUSE-001", result.Product.SKU)
	})

	t.Run("missing product", func(t *testing.T) {
		repo := &mockRepo{
			getByID: func(_ context.Context, id int64) (*product.Product, error) {
				return nil, &product.NotFoundError{ID: id}
			},
		}

		_, err := NewService(repo).AddTranslation(context.Background(), 99, req)

		var nf *product.NotFoundError
		require.ErrorAs(t, err, &nf)
		assert.Equal(t, int64(99), nf.ID)
	})

	t.Run("existing language rejected before insert", func(t *testing.T) {
		repo := &mockRepo{
			getByID: func(context.Context, int64) (*product.Product, error) {
				return existing(), nil
			},
			addTranslation: func(context.Context, int64, *product.Translation) error {
				t.Fatal("addTranslation must not be called")
				return nil
			},
		}

		dupReq := req
		dupReq.Language = "en"
		_, err := NewService(repo).AddTranslation(context.Background(), 5, dupReq)

		var dup *DuplicateTranslationError
		require.ErrorAs(t, err, &dup)
		assert.Equal(t, "en", dup.Language)
	})

	t.Run("invalid payload skips lookup", func(t *testing.T) {
		repo := &mockRepo{
			getByID: func(context.Context, int64) (*product.Product, error) {
				t.Fatal("getByID must not be called")
				return nil, nil
			},
		}

		bad := req
		bad.Language = "fra"
		_, err := NewService(repo).AddTranslation(context.Background(), 5, bad)

		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
	})
}

func TestService_GetAllProducts(t *testing.T) {
	repo := &mockRepo{
		list: func(context.Context) ([]product.Product, error) {
			return []product.Product{
				{ID: 1, SKU: "A", Translations: []product.Translation{}},
				{ID: 2, SKU: "B", Translations: []product.Translation{{ID: 3, Language: "en"}}},
			}, nil
		},
	}

	products, err := NewService(repo).GetAllProducts(context.Background())
	require.NoError(t, err)
	require.Len(t, products, 2)
	assert.NotNil(t, products[0].Translations)
}
