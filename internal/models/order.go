package models

import (
	"time"

	"github.com/google/uuid"
)

type OrderStatus string

const (
	StatusPending    OrderStatus = "pending"
	StatusProcessing OrderStatus = "processing"
	StatusShipped    OrderStatus = "shipped"
	StatusDelivered  OrderStatus = "delivered"
	StatusCancelled  OrderStatus = "cancelled"
	StatusRefunded   OrderStatus = "refunded"
)

// allowedTransitions is the order state machine. Terminal states map to an
// empty set. Refunds are reachable from paid, non-terminal states only.
var allowedTransitions = map[OrderStatus][]OrderStatus{
	StatusPending:    {StatusProcessing, StatusCancelled},
	StatusProcessing: {StatusShipped, StatusCancelled, StatusRefunded},
	StatusShipped:    {StatusDelivered, StatusRefunded},
	StatusDelivered:  {},
	StatusCancelled:  {},
	StatusRefunded:   {},
}

func ValidOrderStatus(value string) bool {
	_, ok := allowedTransitions[OrderStatus(value)]
	return ok
}

// OrderItem is the immutable per-line snapshot taken at creation time. Later
// product edits never alter a placed order.
type OrderItem struct {
	ProductID uuid.UUID `json:"product_id"`
	Name      string    `json:"name"`
	Image     string    `json:"image"`
	Price     float64   `json:"price"`
	Quantity  int       `json:"quantity"`
	Size      string    `json:"size"`
	Color     string    `json:"color"`
}

// StatusEntry is one append-only audit record in an order's history.
type StatusEntry struct {
	Status OrderStatus `json:"status"`
	Date   time.Time   `json:"date"`
	Note   string      `json:"note"`
}

type Order struct {
	ID              uuid.UUID     `json:"id"`
	OrderNumber     string        `json:"order_number"`
	UserID          uuid.UUID     `json:"user_id"`
	Items           []OrderItem   `json:"items"`
	ItemsPrice      float64       `json:"items_price"`
	TaxPrice        float64       `json:"tax_price"`
	ShippingPrice   float64       `json:"shipping_price"`
	DiscountAmount  float64       `json:"discount_amount"`
	TotalPrice      float64       `json:"total_price"`
	CouponCode      string        `json:"coupon_code,omitempty"`
	Status          OrderStatus   `json:"status"`
	StatusHistory   []StatusEntry `json:"status_history"`
	ShippingName    string        `json:"shipping_name"`
	ShippingLine    string        `json:"shipping_line"`
	ShippingCity    string        `json:"shipping_city"`
	ShippingZip     string        `json:"shipping_zip"`
	ShippingCountry string        `json:"shipping_country"`
	IsPaid          bool          `json:"is_paid"`
	PaidAt          time.Time     `json:"paid_at,omitzero"`
	IsDelivered     bool          `json:"is_delivered"`
	DeliveredAt     time.Time     `json:"delivered_at,omitzero"`
	StripeSessionID string        `json:"stripe_session_id,omitempty"`
	PaymentIntentID string        `json:"payment_intent_id,omitempty"`
	CreatedAt       time.Time     `json:"created_at"`
}

// CanTransitionTo reports whether the state machine permits moving from the
// order's current status to target.
func (o *Order) CanTransitionTo(target OrderStatus) bool {
	allowed, ok := allowedTransitions[o.Status]
	if !ok {
		return false
	}
	for _, s := range allowed {
		if s == target {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transition is expected.
func (o *Order) IsTerminal() bool {
	return len(allowedTransitions[o.Status]) == 0
}

// UpdateStatus sets the new status and unconditionally appends a history
// entry. History is a complete, ordered audit log; entries are never removed
// or rewritten. Delivered additionally sets the delivery flag and timestamp;
// cancelled/refunded side effects (stock restore, payment reversal) belong to
// the calling workflow. Transition legality is the caller's check via
// CanTransitionTo.
func (o *Order) UpdateStatus(newStatus OrderStatus, note string) {
	now := time.Now().UTC()
	o.Status = newStatus
	o.StatusHistory = append(o.StatusHistory, StatusEntry{
		Status: newStatus,
		Date:   now,
		Note:   note,
	})
	if newStatus == StatusDelivered {
		o.IsDelivered = true
		o.DeliveredAt = now
	}
}
