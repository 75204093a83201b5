package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/getsentry/sentry-go"
	"github.com/getsentry/sentry-go/attribute"
	"github.com/google/uuid"
	stripeapi "github.com/stripe/stripe-go/v84"

	"github.com/threadforge/threadforge/internal/coupon"
	"github.com/threadforge/threadforge/internal/db"
	"github.com/threadforge/threadforge/internal/logging"
	"github.com/threadforge/threadforge/internal/models"
	"github.com/threadforge/threadforge/internal/observability"
	"github.com/threadforge/threadforge/internal/stripe"
)

var (
	ErrEmptyOrder       = errors.New("order must contain at least one item")
	ErrNotOrderOwner    = errors.New("order belongs to a different user")
	ErrPaymentsDisabled = errors.New("payments are not configured")
)

// CouponRejectedError carries the business-rule reason a coupon could not be
// applied to an order.
type CouponRejectedError struct {
	Message string
}

func (e *CouponRejectedError) Error() string {
	return e.Message
}

// ProductUnavailableError identifies the line that blocked order creation.
type ProductUnavailableError struct {
	ProductID uuid.UUID
	Reason    string
}

func (e *ProductUnavailableError) Error() string {
	return fmt.Sprintf("product %s: %s", e.ProductID, e.Reason)
}

// CheckoutClient is the slice of the Stripe client order checkout needs.
type CheckoutClient interface {
	CreateCheckoutSession(ctx context.Context, params stripe.CheckoutSessionParams) (*stripeapi.CheckoutSession, error)
}

type OrderService struct {
	orderStore    *db.OrderStore
	productStore  *db.ProductStore
	couponStore   *db.CouponStore
	stripeClient  CheckoutClient
	notifications *NotificationService
	taxRate       float64
	shippingRate  float64
	baseURL       string
	logger        *slog.Logger
}

func NewOrderService(
	orderStore *db.OrderStore,
	productStore *db.ProductStore,
	couponStore *db.CouponStore,
	stripeClient CheckoutClient,
	notifications *NotificationService,
	taxRate, shippingRate float64,
	baseURL string,
	logger *slog.Logger,
) *OrderService {
	return &OrderService{
		orderStore:    orderStore,
		productStore:  productStore,
		couponStore:   couponStore,
		stripeClient:  stripeClient,
		notifications: notifications,
		taxRate:       taxRate,
		shippingRate:  shippingRate,
		baseURL:       baseURL,
		logger:        logger,
	}
}

type OrderItemInput struct {
	ProductID uuid.UUID `json:"product_id"`
	Quantity  int       `json:"quantity"`
	Size      string    `json:"size,omitempty"`
	Color     string    `json:"color,omitempty"`
}

type ShippingInput struct {
	Name    string `json:"name"`
	Line    string `json:"line"`
	City    string `json:"city"`
	Zip     string `json:"zip"`
	Country string `json:"country"`
}

type CreateOrderInput struct {
	Items      []OrderItemInput `json:"items"`
	CouponCode string           `json:"coupon_code,omitempty"`
	Shipping   ShippingInput    `json:"shipping"`
}

// Create prices the cart against current catalog data, validates the coupon,
// and writes the order atomically. Product prices are snapshotted into the
// order lines; stock decrement and coupon redemption happen inside the
// store's creation transaction, so any failure leaves no partial state.
func (s *OrderService) Create(ctx context.Context, userID uuid.UUID, input CreateOrderInput) (*models.Order, error) {
	logger := logging.FromContext(ctx, s.logger)
	meter := observability.MeterFromContext(ctx)

	if len(input.Items) == 0 {
		return nil, ErrEmptyOrder
	}

	items := make([]models.OrderItem, 0, len(input.Items))
	cartItems := make([]coupon.CartItem, 0, len(input.Items))
	for _, line := range input.Items {
		if line.Quantity <= 0 {
			return nil, &ProductUnavailableError{ProductID: line.ProductID, Reason: "quantity must be positive"}
		}
		product, err := s.productStore.GetByID(ctx, line.ProductID)
		if err != nil {
			if errors.Is(err, db.ErrProductNotFound) {
				return nil, &ProductUnavailableError{ProductID: line.ProductID, Reason: "not found"}
			}
			return nil, fmt.Errorf("failed to load product: %w", err)
		}
		if !product.IsActive {
			return nil, &ProductUnavailableError{ProductID: line.ProductID, Reason: "no longer available"}
		}
		if err := validateVariant(product, line.Size, line.Color); err != nil {
			return nil, err
		}

		items = append(items, models.OrderItem{
			ProductID: product.ID,
			Name:      product.Name,
			Image:     product.Image,
			Price:     product.Price,
			Quantity:  line.Quantity,
			Size:      line.Size,
			Color:     line.Color,
		})
		cartItems = append(cartItems, coupon.CartItem{
			ProductID: product.ID,
			Category:  product.Category,
			Quantity:  line.Quantity,
			Price:     product.Price,
		})
	}

	var appliedCoupon *models.Coupon
	couponCode := models.NormalizeCouponCode(input.CouponCode)
	if couponCode != "" {
		c, err := s.couponStore.GetActiveByCode(ctx, couponCode)
		if err != nil {
			if errors.Is(err, db.ErrCouponNotFound) {
				return nil, &CouponRejectedError{Message: "Invalid coupon code"}
			}
			return nil, fmt.Errorf("failed to look up coupon: %w", err)
		}

		var orderValue float64
		for _, item := range cartItems {
			orderValue += item.Price * float64(item.Quantity)
		}
		if result := coupon.Validate(c, round2(orderValue), &userID, cartItems); !result.Valid {
			meter.Count("order.coupon.rejected", 1, sentry.WithAttributes(
				attribute.String("code", couponCode),
			))
			return nil, &CouponRejectedError{Message: result.Message}
		}
		appliedCoupon = c
	}

	quote := ComputeQuote(items, appliedCoupon, s.taxRate, s.shippingRate)

	order := &models.Order{
		UserID:          userID,
		Items:           items,
		ItemsPrice:      quote.ItemsPrice,
		TaxPrice:        quote.TaxPrice,
		ShippingPrice:   quote.ShippingPrice,
		DiscountAmount:  quote.DiscountAmount,
		TotalPrice:      quote.TotalPrice,
		CouponCode:      couponCode,
		Status:          models.StatusPending,
		ShippingName:    strings.TrimSpace(input.Shipping.Name),
		ShippingLine:    strings.TrimSpace(input.Shipping.Line),
		ShippingCity:    strings.TrimSpace(input.Shipping.City),
		ShippingZip:     strings.TrimSpace(input.Shipping.Zip),
		ShippingCountry: strings.TrimSpace(input.Shipping.Country),
	}

	if err := s.orderStore.Create(ctx, order); err != nil {
		return nil, err
	}

	logger.Info("order created",
		"order_id", order.ID,
		"order_number", order.OrderNumber,
		"user_id", userID,
		"total", order.TotalPrice,
	)
	meter.Count("order.created", 1, sentry.WithAttributes(
		attribute.Int("items", len(order.Items)),
	))
	return order, nil
}

// StartCheckout opens a Stripe checkout session for an unpaid pending order
// and records the session ID on the order for webhook correlation.
func (s *OrderService) StartCheckout(ctx context.Context, orderID, userID uuid.UUID) (string, error) {
	if s.stripeClient == nil {
		return "", ErrPaymentsDisabled
	}

	order, err := s.orderStore.GetByID(ctx, orderID)
	if err != nil {
		return "", err
	}
	if order.UserID != userID {
		return "", ErrNotOrderOwner
	}
	if order.IsPaid {
		return "", db.ErrOrderAlreadyPaid
	}
	if order.Status != models.StatusPending {
		return "", fmt.Errorf("%w: only pending orders can be paid", db.ErrInvalidStatusTransition)
	}

	lineItems := make([]stripe.LineItem, 0, len(order.Items))
	for _, item := range order.Items {
		lineItems = append(lineItems, stripe.LineItem{
			Name:      orderLineName(item),
			UnitPrice: item.Price,
			Quantity:  item.Quantity,
		})
	}

	sess, err := s.stripeClient.CreateCheckoutSession(ctx, stripe.CheckoutSessionParams{
		OrderID:       order.ID,
		OrderNumber:   order.OrderNumber,
		Items:         lineItems,
		ShippingPrice: order.ShippingPrice,
		TaxPrice:      order.TaxPrice,
		Discount:      order.DiscountAmount,
		SuccessURL:    s.baseURL + "/orders/" + order.ID.String() + "?checkout=success",
		CancelURL:     s.baseURL + "/orders/" + order.ID.String() + "?checkout=cancelled",
	})
	if err != nil {
		return "", fmt.Errorf("failed to create checkout session: %w", err)
	}

	if err := s.orderStore.SetStripeSession(ctx, order.ID, sess.ID); err != nil {
		return "", fmt.Errorf("failed to record checkout session: %w", err)
	}
	return sess.URL, nil
}

// ConfirmPayment marks the order paid from a verified checkout completion
// event. Duplicate deliveries of the same event are idempotent.
func (s *OrderService) ConfirmPayment(ctx context.Context, sessionID, paymentIntentID string) error {
	logger := logging.FromContext(ctx, s.logger)
	meter := observability.MeterFromContext(ctx)

	order, err := s.orderStore.GetByStripeSessionID(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("failed to find order for session: %w", err)
	}

	if err := s.orderStore.MarkPaid(ctx, order.ID, paymentIntentID); err != nil {
		if errors.Is(err, db.ErrOrderAlreadyPaid) {
			logger.Info("ignoring duplicate payment confirmation", "order_id", order.ID, "session_id", sessionID)
			return nil
		}
		return fmt.Errorf("failed to mark order as paid: %w", err)
	}

	order, err = s.orderStore.GetByID(ctx, order.ID)
	if err != nil {
		return fmt.Errorf("failed to reload order: %w", err)
	}

	logger.Info("order paid", "order_id", order.ID, "order_number", order.OrderNumber)
	meter.Count("order.paid", 1)
	s.notifications.NotifyOrderPaid(ctx, order)
	return nil
}

// UpdateStatus performs an admin status transition. Cancellation restores
// stock; every other transition is a guarded single-statement update.
func (s *OrderService) UpdateStatus(ctx context.Context, orderID uuid.UUID, newStatus models.OrderStatus, note string) (*models.Order, error) {
	logger := logging.FromContext(ctx, s.logger)

	order, err := s.orderStore.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !order.CanTransitionTo(newStatus) {
		return nil, fmt.Errorf("%w: %s -> %s", db.ErrInvalidStatusTransition, order.Status, newStatus)
	}

	if newStatus == models.StatusCancelled {
		err = s.orderStore.Cancel(ctx, orderID, note)
	} else {
		err = s.orderStore.UpdateStatus(ctx, orderID, newStatus, note, []models.OrderStatus{order.Status})
	}
	if err != nil {
		return nil, err
	}

	order, err = s.orderStore.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	logger.Info("order status updated", "order_id", orderID, "status", newStatus)
	s.notifications.NotifyOrderStatus(ctx, order, note)
	return order, nil
}

// Cancel lets a customer cancel their own order while it is still pending.
func (s *OrderService) Cancel(ctx context.Context, orderID, userID uuid.UUID) (*models.Order, error) {
	order, err := s.orderStore.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != userID {
		return nil, ErrNotOrderOwner
	}
	if order.Status != models.StatusPending {
		return nil, fmt.Errorf("%w: only pending orders can be cancelled by the customer", db.ErrInvalidStatusTransition)
	}

	if err := s.orderStore.Cancel(ctx, orderID, "Cancelled by customer"); err != nil {
		return nil, err
	}

	order, err = s.orderStore.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	s.notifications.NotifyOrderStatus(ctx, order, "Cancelled by customer")
	return order, nil
}

// Get returns an order, enforcing ownership for non-admin callers.
func (s *OrderService) Get(ctx context.Context, orderID uuid.UUID, user *models.User) (*models.Order, error) {
	order, err := s.orderStore.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !user.IsAdmin() && order.UserID != user.ID {
		return nil, ErrNotOrderOwner
	}
	return order, nil
}

func (s *OrderService) ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.Order, error) {
	return s.orderStore.ListByUser(ctx, userID)
}

func (s *OrderService) List(ctx context.Context, limit int) ([]*models.Order, error) {
	return s.orderStore.List(ctx, limit)
}

func validateVariant(product *models.Product, size, color string) error {
	if size != "" && len(product.Sizes) > 0 && !containsString(product.Sizes, size) {
		return &ProductUnavailableError{ProductID: product.ID, Reason: fmt.Sprintf("size %q is not offered", size)}
	}
	if color != "" && len(product.Colors) > 0 && !containsString(product.Colors, color) {
		return &ProductUnavailableError{ProductID: product.ID, Reason: fmt.Sprintf("color %q is not offered", color)}
	}
	return nil
}

func orderLineName(item models.OrderItem) string {
	parts := []string{item.Name}
	if item.Size != "" {
		parts = append(parts, item.Size)
	}
	if item.Color != "" {
		parts = append(parts, item.Color)
	}
	return strings.Join(parts, " / ")
}

func containsString(values []string, value string) bool {
	for _, v := range values {
		if v == value {
			return true
		}
	}
	return false
}
