package handlers

import (
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/threadforge/threadforge/internal/models"
)

// ListProducts returns the public storefront catalog: active products only.
func (h *Handlers) ListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.productStore.ListActive(r.Context())
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, r, http.StatusOK, products)
}

func (h *Handlers) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		h.badRequest(w, r, err)
		return
	}

	product, err := h.productStore.GetByID(r.Context(), id)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, r, http.StatusOK, product)
}

// ListAllProducts returns the full catalog, inactive products included.
// Admin only.
func (h *Handlers) ListAllProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.productStore.List(r.Context())
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, r, http.StatusOK, products)
}

func (h *Handlers) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var product models.Product
	if err := h.decodeJSON(w, r, &product); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := validateProduct(&product); err != nil {
		h.badRequest(w, r, err)
		return
	}

	if err := h.productStore.Create(r.Context(), &product); err != nil {
		h.respondError(w, r, err)
		return
	}

	h.loggerFromContext(r.Context()).Info("product created", "product_id", product.ID, "slug", product.Slug)
	h.respondJSON(w, r, http.StatusCreated, &product)
}

func (h *Handlers) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		h.badRequest(w, r, err)
		return
	}

	var product models.Product
	if err := h.decodeJSON(w, r, &product); err != nil {
		h.badRequest(w, r, err)
		return
	}
	product.ID = id
	if err := validateProduct(&product); err != nil {
		h.badRequest(w, r, err)
		return
	}

	if err := h.productStore.Update(r.Context(), &product); err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, r, http.StatusOK, &product)
}

func (h *Handlers) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		h.badRequest(w, r, err)
		return
	}

	if err := h.productStore.Delete(r.Context(), id); err != nil {
		h.respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type adjustStockRequest struct {
	Delta int `json:"delta"`
}

// AdjustStock applies a relative stock change. The store rejects any delta
// that would take stock below zero.
func (h *Handlers) AdjustStock(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		h.badRequest(w, r, err)
		return
	}

	var req adjustStockRequest
	if err := h.decodeJSON(w, r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	if err := h.productStore.AdjustStock(r.Context(), id, req.Delta); err != nil {
		h.respondError(w, r, err)
		return
	}

	product, err := h.productStore.GetByID(r.Context(), id)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, r, http.StatusOK, product)
}

func validateProduct(p *models.Product) error {
	if p.Name == "" {
		return fmt.Errorf("product name is required")
	}
	if p.Slug == "" {
		return fmt.Errorf("product slug is required")
	}
	if p.Price < 0 {
		return fmt.Errorf("product price must not be negative")
	}
	if p.Stock < 0 {
		return fmt.Errorf("product stock must not be negative")
	}
	return nil
}

func pathUUID(r *http.Request, name string) (uuid.UUID, error) {
	raw := mux.Vars(r)[name]
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid %s: %q", name, raw)
	}
	return id, nil
}
