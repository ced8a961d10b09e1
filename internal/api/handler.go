// Package api exposes the catalog service over HTTP with JSON bodies.
package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/pimstack/catalog-service/internal/domain/catalog"
)

// Handler maps catalog routes to service calls and serializes results and
// typed errors.
type Handler struct {
	catalog *catalog.Service
}

// NewHandler constructs a Handler over the catalog service.
func NewHandler(svc *catalog.Service) *Handler {
	return &Handler{catalog: svc}
}

// Routes returns the catalog route table. The static /products/search route
// is matched before the /products/{id} parameter route.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/products", h.listProducts)
	r.Get("/products/search", h.searchProducts)
	r.Get("/products/{id}", h.getProduct)
	r.Post("/products", h.createProduct)
	r.Post("/products/{productId}/translations", h.addTranslation)
	return r
}

// errorResponse is the JSON body for every failure. Errors is only present
// on validation failures.
type errorResponse struct {
	Code    int              `json:"code"`
	Message string           `json:"message"`
	Errors  []fieldViolation `json:"errors,omitempty"`
}

type fieldViolation struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// Status is already committed; an encode failure here means the client
	// went away.
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Code: status, Message: message})
}

func writeValidationError(w http.ResponseWriter, verr *catalog.ValidationError) {
	resp := errorResponse{
		Code:    http.StatusBadRequest,
		Message: "validation failed",
		Errors:  make([]fieldViolation, len(verr.Violations)),
	}
	for i, v := range verr.Violations {
		resp.Errors[i] = fieldViolation{Field: v.Field, Message: v.Message}
	}
	writeJSON(w, http.StatusBadRequest, resp)
}

// writeInternalError logs the cause and responds with an opaque 500. Storage
// details never reach the client.
func writeInternalError(w http.ResponseWriter, r *http.Request, err error) {
	zctx.From(r.Context()).Error("request failed", zap.Error(err))
	writeError(w, http.StatusInternalServerError, "internal server error")
}
