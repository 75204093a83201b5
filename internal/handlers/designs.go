package handlers

import (
	"fmt"
	"net/http"

	"github.com/threadforge/threadforge/internal/models"
	"github.com/threadforge/threadforge/internal/services"
)

func (h *Handlers) CreateDesign(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())

	var input services.DesignInput
	if err := h.decodeJSON(w, r, &input); err != nil {
		h.badRequest(w, r, err)
		return
	}

	design, err := h.designService.Create(r.Context(), user.ID, input)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, r, http.StatusCreated, design)
}

func (h *Handlers) ListMyDesigns(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())

	designs, err := h.designService.ListByUser(r.Context(), user.ID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, r, http.StatusOK, designs)
}

func (h *Handlers) GetDesign(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())

	id, err := pathUUID(r, "id")
	if err != nil {
		h.badRequest(w, r, err)
		return
	}

	design, err := h.designService.Get(r.Context(), id, user)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, r, http.StatusOK, design)
}

func (h *Handlers) UpdateDesign(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())

	id, err := pathUUID(r, "id")
	if err != nil {
		h.badRequest(w, r, err)
		return
	}

	var input services.DesignInput
	if err := h.decodeJSON(w, r, &input); err != nil {
		h.badRequest(w, r, err)
		return
	}

	design, err := h.designService.Update(r.Context(), id, user.ID, input)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, r, http.StatusOK, design)
}

func (h *Handlers) DeleteDesign(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())

	id, err := pathUUID(r, "id")
	if err != nil {
		h.badRequest(w, r, err)
		return
	}

	if err := h.designService.Delete(r.Context(), id, user.ID); err != nil {
		h.respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SubmitDesign moves a draft into the admin review queue.
func (h *Handlers) SubmitDesign(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())

	id, err := pathUUID(r, "id")
	if err != nil {
		h.badRequest(w, r, err)
		return
	}

	design, err := h.designService.Submit(r.Context(), id, user.ID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, r, http.StatusOK, design)
}

// ListSubmittedDesigns returns the review queue. Admin only.
func (h *Handlers) ListSubmittedDesigns(w http.ResponseWriter, r *http.Request) {
	designs, err := h.designService.ListSubmitted(r.Context())
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, r, http.StatusOK, designs)
}

type reviewDesignRequest struct {
	Decision string `json:"decision"`
	Note     string `json:"note,omitempty"`
}

// ReviewDesign records an admin decision on a submitted design.
func (h *Handlers) ReviewDesign(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		h.badRequest(w, r, err)
		return
	}

	var req reviewDesignRequest
	if err := h.decodeJSON(w, r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	decision := models.DesignStatus(req.Decision)
	if decision != models.DesignApproved && decision != models.DesignRejected {
		h.badRequest(w, r, fmt.Errorf("decision must be %q or %q", models.DesignApproved, models.DesignRejected))
		return
	}

	design, err := h.designService.Review(r.Context(), id, decision, req.Note)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, r, http.StatusOK, design)
}
