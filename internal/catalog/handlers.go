package catalog

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/noah-isme/backend-quote/internal/common"
)

// Handler exposes the read-only rate tables.
type Handler struct {
	tables *Tables
}

// HandlerConfig configures the Handler dependencies.
type HandlerConfig struct {
	Tables *Tables
}

// NewHandler constructs a Handler.
func NewHandler(cfg HandlerConfig) *Handler {
	return &Handler{tables: cfg.Tables}
}

// Tables handles GET /api/v1/catalog.
func (h *Handler) Tables(w http.ResponseWriter, _ *http.Request) {
	if h.tables == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "catalog not configured", nil)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": h.tables.Definition()})
}

// Product handles GET /api/v1/catalog/products/{id}.
func (h *Handler) Product(w http.ResponseWriter, r *http.Request) {
	if h.tables == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "catalog not configured", nil)
		return
	}
	id := strings.TrimSpace(chi.URLParam(r, "id"))
	p, ok := h.tables.products[id]
	if !ok {
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "product not found", nil)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": p})
}
