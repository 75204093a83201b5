package models

import (
	"time"

	"github.com/google/uuid"
)

type NotificationType string

const (
	NotifyOrderStatus    NotificationType = "order_status"
	NotifyOrderPaid      NotificationType = "order_paid"
	NotifyDesignReviewed NotificationType = "design_reviewed"
)

type Notification struct {
	ID        uuid.UUID        `json:"id"`
	UserID    uuid.UUID        `json:"user_id"`
	Type      NotificationType `json:"type"`
	Title     string           `json:"title"`
	Message   string           `json:"message"`
	OrderID   *uuid.UUID       `json:"order_id,omitempty"`
	DesignID  *uuid.UUID       `json:"design_id,omitempty"`
	Read      bool             `json:"read"`
	CreatedAt time.Time        `json:"created_at"`
}
