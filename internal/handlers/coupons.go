package handlers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/threadforge/threadforge/internal/coupon"
	"github.com/threadforge/threadforge/internal/models"
	"github.com/threadforge/threadforge/internal/services"
)

// ListPublicCoupons returns active public coupons for the storefront.
func (h *Handlers) ListPublicCoupons(w http.ResponseWriter, r *http.Request) {
	coupons, err := h.couponService.ListPublic(r.Context())
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, r, http.StatusOK, coupons)
}

type previewCouponRequest struct {
	Code  string            `json:"code"`
	Items []coupon.CartItem `json:"items"`
}

// PreviewCoupon validates a coupon against a cart without redeeming it. The
// verdict is always 200 with a {valid, message} body; only infrastructure
// failures surface as errors.
func (h *Handlers) PreviewCoupon(w http.ResponseWriter, r *http.Request) {
	var req previewCouponRequest
	if err := h.decodeJSON(w, r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	var userID *uuid.UUID
	if user := UserFromContext(r.Context()); user != nil {
		userID = &user.ID
	}

	preview, err := h.couponService.Preview(r.Context(), req.Code, userID, req.Items)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, r, http.StatusOK, preview)
}

// ListCoupons returns every coupon with its redemption counters. Admin only.
func (h *Handlers) ListCoupons(w http.ResponseWriter, r *http.Request) {
	coupons, err := h.couponService.List(r.Context())
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, r, http.StatusOK, coupons)
}

func (h *Handlers) GetCoupon(w http.ResponseWriter, r *http.Request) {
	c, err := h.couponService.GetByCode(r.Context(), mux.Vars(r)["code"])
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, r, http.StatusOK, c)
}

func (h *Handlers) CreateCoupon(w http.ResponseWriter, r *http.Request) {
	var c models.Coupon
	if err := h.decodeJSON(w, r, &c); err != nil {
		h.badRequest(w, r, err)
		return
	}

	if err := h.couponService.Create(r.Context(), &c); err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, r, http.StatusCreated, &c)
}

func (h *Handlers) UpdateCoupon(w http.ResponseWriter, r *http.Request) {
	var patch services.CouponPatch
	if err := h.decodeJSON(w, r, &patch); err != nil {
		h.badRequest(w, r, err)
		return
	}

	c, err := h.couponService.Update(r.Context(), mux.Vars(r)["code"], patch)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, r, http.StatusOK, c)
}

func (h *Handlers) DeleteCoupon(w http.ResponseWriter, r *http.Request) {
	if err := h.couponService.Delete(r.Context(), mux.Vars(r)["code"]); err != nil {
		h.respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
