package handlers

import (
	"fmt"
	"net/http"
	"strconv"
)

const defaultNotificationLimit = 50

func (h *Handlers) ListNotifications(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())

	limit := defaultNotificationLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			h.badRequest(w, r, fmt.Errorf("invalid limit: %q", raw))
			return
		}
		limit = parsed
	}

	notifications, err := h.notificationService.ListByUser(r.Context(), user.ID, limit)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, r, http.StatusOK, notifications)
}

// MarkNotificationRead marks one of the caller's notifications as read.
// Another user's notification ID behaves like a missing one.
func (h *Handlers) MarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())

	id, err := pathUUID(r, "id")
	if err != nil {
		h.badRequest(w, r, err)
		return
	}

	if err := h.notificationService.MarkRead(r.Context(), id, user.ID); err != nil {
		h.respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type unreadCountResponse struct {
	Unread int `json:"unread"`
}

func (h *Handlers) UnreadNotificationCount(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())

	count, err := h.notificationService.UnreadCount(r.Context(), user.ID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, r, http.StatusOK, unreadCountResponse{Unread: count})
}
