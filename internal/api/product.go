package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"

	"github.com/pimstack/catalog-service/internal/domain/catalog"
	"github.com/pimstack/catalog-service/internal/domain/product"
)

// productResponse is a product with its full translation collection. The
// collection is always present, empty included.
type productResponse struct {
	ID           int64                 `json:"id"`
	SKU          string                `json:"sku"`
	Price        float64               `json:"price"`
	Translations []translationResponse `json:"translations"`
}

// productRef is a product without its translation collection, used for
// search items and owning-product references.
type productRef struct {
	ID    int64   `json:"id"`
	SKU   string  `json:"sku"`
	Price float64 `json:"price"`
}

type translationResponse struct {
	ID          int64       `json:"id"`
	Language    string      `json:"language"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Product     *productRef `json:"product,omitempty"`
}

type searchResponse struct {
	Items []productRef `json:"items"`
	Total int          `json:"total"`
	Page  int          `json:"page"`
	Limit int          `json:"limit"`
}

func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.catalog.GetAllProducts(r.Context())
	if err != nil {
		writeInternalError(w, r, err)
		return
	}

	out := make([]productResponse, len(products))
	for i, p := range products {
		out[i] = toProductResponse(p)
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) getProduct(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "product id must be an integer")
		return
	}

	p, err := h.catalog.GetProduct(r.Context(), id)
	if err != nil {
		var nfErr *product.NotFoundError
		if errors.As(err, &nfErr) {
			writeError(w, http.StatusNotFound, nfErr.Error())
			return
		}
		writeInternalError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toProductResponse(*p))
}

func (h *Handler) createProduct(w http.ResponseWriter, r *http.Request) {
	var req catalog.CreateProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	p, err := h.catalog.CreateProduct(r.Context(), req)
	if err != nil {
		var (
			verr   *catalog.ValidationError
			dupErr *product.DuplicateSKUError
		)
		switch {
		case errors.As(err, &verr):
			writeValidationError(w, verr)
		case errors.As(err, &dupErr):
			writeError(w, http.StatusConflict, dupErr.Error())
		default:
			writeInternalError(w, r, err)
		}
		return
	}

	writeJSON(w, http.StatusCreated, toProductResponse(*p))
}

func (h *Handler) searchProducts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	page, ok := intParam(q.Get("page"))
	if !ok {
		writeError(w, http.StatusBadRequest, "page must be an integer")
		return
	}
	limit, ok := intParam(q.Get("limit"))
	if !ok {
		writeError(w, http.StatusBadRequest, "limit must be an integer")
		return
	}

	result, err := h.catalog.Search(r.Context(), q.Get("query"), q.Get("language"), page, limit)
	if err != nil {
		writeInternalError(w, r, err)
		return
	}

	resp := searchResponse{
		Items: make([]productRef, len(result.Items)),
		Total: result.Total,
		Page:  result.Page,
		Limit: result.Limit,
	}
	for i, p := range result.Items {
		resp.Items[i] = toProductRef(p)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) addTranslation(w http.ResponseWriter, r *http.Request) {
	productID, err := strconv.ParseInt(chi.URLParam(r, "productId"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "product id must be an integer")
		return
	}

	var req catalog.TranslationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.catalog.AddTranslation(r.Context(), productID, req)
	if err != nil {
		var (
			verr   *catalog.ValidationError
			nfErr  *product.NotFoundError
			dupErr *catalog.DuplicateTranslationError
		)
		switch {
		case errors.As(err, &verr):
			writeValidationError(w, verr)
		case errors.As(err, &nfErr):
			writeError(w, http.StatusNotFound, nfErr.Error())
		case errors.As(err, &dupErr):
			writeError(w, http.StatusConflict, dupErr.Error())
		default:
			writeInternalError(w, r, err)
		}
		return
	}

	owner := toProductRef(result.Product)
	resp := translationResponse{
		ID:          result.Translation.ID,
		Language:    result.Translation.Language,
		Name:        result.Translation.Name,
		Description: result.Translation.Description,
		Product:     &owner,
	}
	writeJSON(w, http.StatusCreated, resp)
}

// intParam parses an optional positive-or-not integer query parameter. An
// empty value parses as 0, which the service replaces with its default.
func intParam(raw string) (int, bool) {
	if raw == "" {
		return 0, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return v, true
}

func toProductResponse(p product.Product) productResponse {
	translations := make([]translationResponse, len(p.Translations))
	for i, t := range p.Translations {
		translations[i] = translationResponse{
			ID:          t.ID,
			Language:    t.Language,
			Name:        t.Name,
			Description: t.Description,
		}
	}
	return productResponse{
		ID:           p.ID,
		SKU:          p.SKU,
		Price:        p.Price.InexactFloat64(),
		Translations: translations,
	}
}

func toProductRef(p product.Product) productRef {
	return productRef{
		ID:    p.ID,
		SKU:   p.SKU,
		Price: p.Price.InexactFloat64(),
	}
}
