package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/threadforge/threadforge/internal/models"
	"github.com/threadforge/threadforge/internal/services"
)

const defaultOrderListLimit = 100

func (h *Handlers) CreateOrder(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())

	var input services.CreateOrderInput
	if err := h.decodeJSON(w, r, &input); err != nil {
		h.badRequest(w, r, err)
		return
	}

	order, err := h.orderService.Create(r.Context(), user.ID, input)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, r, http.StatusCreated, order)
}

// ListMyOrders returns the authenticated customer's order history.
func (h *Handlers) ListMyOrders(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())

	orders, err := h.orderService.ListByUser(r.Context(), user.ID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, r, http.StatusOK, orders)
}

func (h *Handlers) GetOrder(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())

	id, err := pathUUID(r, "id")
	if err != nil {
		h.badRequest(w, r, err)
		return
	}

	order, err := h.orderService.Get(r.Context(), id, user)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, r, http.StatusOK, order)
}

// CancelOrder lets a customer cancel their own pending order.
func (h *Handlers) CancelOrder(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())

	id, err := pathUUID(r, "id")
	if err != nil {
		h.badRequest(w, r, err)
		return
	}

	order, err := h.orderService.Cancel(r.Context(), id, user.ID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, r, http.StatusOK, order)
}

type checkoutResponse struct {
	CheckoutURL string `json:"checkout_url"`
}

// StartCheckout opens a Stripe checkout session for a pending order.
func (h *Handlers) StartCheckout(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())

	id, err := pathUUID(r, "id")
	if err != nil {
		h.badRequest(w, r, err)
		return
	}

	url, err := h.orderService.StartCheckout(r.Context(), id, user.ID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, r, http.StatusOK, checkoutResponse{CheckoutURL: url})
}

// ListOrders returns recent orders across all customers. Admin only.
func (h *Handlers) ListOrders(w http.ResponseWriter, r *http.Request) {
	limit := defaultOrderListLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			h.badRequest(w, r, fmt.Errorf("invalid limit: %q", raw))
			return
		}
		limit = parsed
	}

	orders, err := h.orderService.List(r.Context(), limit)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, r, http.StatusOK, orders)
}

type updateOrderStatusRequest struct {
	Status string `json:"status"`
	Note   string `json:"note,omitempty"`
}

// UpdateOrderStatus performs an admin transition on the order state machine.
func (h *Handlers) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		h.badRequest(w, r, err)
		return
	}

	var req updateOrderStatusRequest
	if err := h.decodeJSON(w, r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if !models.ValidOrderStatus(req.Status) {
		h.badRequest(w, r, fmt.Errorf("unknown order status: %q", req.Status))
		return
	}

	order, err := h.orderService.UpdateStatus(r.Context(), id, models.OrderStatus(req.Status), req.Note)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, r, http.StatusOK, order)
}
