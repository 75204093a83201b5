package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/threadforge/threadforge/internal/models"
)

var (
	ErrOrderNotFound           = errors.New("order not found")
	ErrInvalidStatusTransition = errors.New("invalid order status transition")
	ErrOrderAlreadyPaid        = errors.New("order is already paid")
)

type OrderStore struct {
	pool *pgxpool.Pool
}

func NewOrderStore(pool *pgxpool.Pool) *OrderStore {
	return &OrderStore{pool: pool}
}

const orderColumns = `id, order_number, user_id, items, items_price, tax_price, shipping_price,
	discount_amount, total_price, coupon_code, status, status_history,
	shipping_name, shipping_line, shipping_city, shipping_zip, shipping_country,
	is_paid, paid_at, is_delivered, delivered_at, stripe_session_id, payment_intent_id, created_at`

// Create persists a new order in a single transaction: stock is decremented
// for every line with a floor check, the coupon (if any) is redeemed under a
// row lock, and the order row is inserted with a sequence-backed order number.
// Any failure rolls back the whole creation. On success the order's ID,
// OrderNumber, StatusHistory and CreatedAt are filled in.
func (s *OrderStore) Create(ctx context.Context, order *models.Order) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, item := range order.Items {
		if err := decrementStockTx(ctx, tx, item.ProductID, item.Quantity); err != nil {
			return err
		}
	}

	if order.CouponCode != "" {
		userID := &order.UserID
		if order.UserID == uuid.Nil {
			userID = nil
		}
		if err := redeemCouponTx(ctx, tx, order.CouponCode, userID, order.ItemsPrice); err != nil {
			return err
		}
	}

	now := time.Now().UTC()
	history := []models.StatusEntry{{Status: order.Status, Date: now, Note: "Order created"}}
	historyJSON, err := json.Marshal(history)
	if err != nil {
		return err
	}
	itemsJSON, err := json.Marshal(order.Items)
	if err != nil {
		return err
	}

	row := tx.QueryRow(ctx, `
		INSERT INTO orders (
			order_number, user_id, items, items_price, tax_price, shipping_price,
			discount_amount, total_price, coupon_code, status, status_history,
			shipping_name, shipping_line, shipping_city, shipping_zip, shipping_country
		)
		VALUES (
			'TF-' || to_char(NOW(), 'YYYYMMDD') || '-' || lpad(nextval('order_number_seq')::text, 6, '0'),
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15
		)
		RETURNING id, order_number, created_at`,
		order.UserID, itemsJSON, order.ItemsPrice, order.TaxPrice, order.ShippingPrice,
		order.DiscountAmount, order.TotalPrice, nullableText(order.CouponCode),
		string(order.Status), historyJSON,
		order.ShippingName, order.ShippingLine, order.ShippingCity, order.ShippingZip, order.ShippingCountry,
	)
	if err := row.Scan(&order.ID, &order.OrderNumber, &order.CreatedAt); err != nil {
		return fmt.Errorf("failed to insert order: %w", err)
	}
	order.StatusHistory = history

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit order creation: %w", err)
	}
	return nil
}

// UpdateStatus transitions the order in one guarded statement. The update
// only applies when the current status is in allowedFrom; zero rows affected
// means the transition is illegal for the order's current state. The history
// entry is appended in the same statement, so the audit log and the status
// can never diverge.
func (s *OrderStore) UpdateStatus(ctx context.Context, orderID uuid.UUID, newStatus models.OrderStatus, note string, allowedFrom []models.OrderStatus) error {
	entry, err := json.Marshal([]models.StatusEntry{{Status: newStatus, Date: time.Now().UTC(), Note: note}})
	if err != nil {
		return err
	}

	from := make([]string, len(allowedFrom))
	for i, status := range allowedFrom {
		from[i] = string(status)
	}

	query := `
		UPDATE orders
		SET status = $1, status_history = status_history || $2::jsonb
		WHERE id = $3 AND status = ANY($4)`
	if newStatus == models.StatusDelivered {
		query = `
		UPDATE orders
		SET status = $1, status_history = status_history || $2::jsonb,
		    is_delivered = TRUE, delivered_at = NOW()
		WHERE id = $3 AND status = ANY($4)`
	}

	cmdTag, err := s.pool.Exec(ctx, query, string(newStatus), entry, orderID, from)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("%w: expected one of %v", ErrInvalidStatusTransition, allowedFrom)
	}
	return nil
}

// MarkPaid records a confirmed payment and moves the order to processing. It
// is guarded on is_paid so duplicate payment confirmations are a no-op at the
// store level; callers treat ErrOrderAlreadyPaid as idempotent success.
func (s *OrderStore) MarkPaid(ctx context.Context, orderID uuid.UUID, paymentIntentID string) error {
	entry, err := json.Marshal([]models.StatusEntry{{
		Status: models.StatusProcessing,
		Date:   time.Now().UTC(),
		Note:   "Payment confirmed",
	}})
	if err != nil {
		return err
	}

	cmdTag, err := s.pool.Exec(ctx, `
		UPDATE orders
		SET is_paid = TRUE, paid_at = NOW(), payment_intent_id = $1,
		    status = $2, status_history = status_history || $3::jsonb
		WHERE id = $4 AND is_paid = FALSE AND status = $5`,
		nullableText(paymentIntentID), string(models.StatusProcessing), entry,
		orderID, string(models.StatusPending),
	)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrOrderAlreadyPaid
	}
	return nil
}

// Cancel moves the order to cancelled and restores stock for every line in
// one transaction. Only pending and processing orders are cancellable; a
// shipped, delivered or already-cancelled order leaves history untouched.
func (s *OrderStore) Cancel(ctx context.Context, orderID uuid.UUID, note string) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	entry, err := json.Marshal([]models.StatusEntry{{
		Status: models.StatusCancelled,
		Date:   time.Now().UTC(),
		Note:   note,
	}})
	if err != nil {
		return err
	}

	var itemsJSON []byte
	err = tx.QueryRow(ctx, `
		UPDATE orders
		SET status = $1, status_history = status_history || $2::jsonb
		WHERE id = $3 AND status = ANY($4)
		RETURNING items`,
		string(models.StatusCancelled), entry, orderID,
		[]string{string(models.StatusPending), string(models.StatusProcessing)},
	).Scan(&itemsJSON)
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%w: only pending or processing orders can be cancelled", ErrInvalidStatusTransition)
	}
	if err != nil {
		return err
	}

	var items []models.OrderItem
	if err := json.Unmarshal(itemsJSON, &items); err != nil {
		return err
	}
	for _, item := range items {
		if err := restoreStockTx(ctx, tx, item.ProductID, item.Quantity); err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit order cancellation: %w", err)
	}
	return nil
}

func (s *OrderStore) SetStripeSession(ctx context.Context, orderID uuid.UUID, sessionID string) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE orders SET stripe_session_id = $1 WHERE id = $2`, sessionID, orderID)
	return err
}

func (s *OrderStore) GetByID(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, orderID)
	return scanOrder(row)
}

func (s *OrderStore) GetByOrderNumber(ctx context.Context, orderNumber string) (*models.Order, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE order_number = $1`, orderNumber)
	return scanOrder(row)
}

func (s *OrderStore) GetByStripeSessionID(ctx context.Context, sessionID string) (*models.Order, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE stripe_session_id = $1`, sessionID)
	return scanOrder(row)
}

func (s *OrderStore) ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.Order, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectOrders(rows)
}

func (s *OrderStore) List(ctx context.Context, limit int) ([]*models.Order, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+orderColumns+` FROM orders ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectOrders(rows)
}

func collectOrders(rows pgx.Rows) ([]*models.Order, error) {
	var orders []*models.Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return orders, nil
}

func scanOrder(row pgx.Row) (*models.Order, error) {
	var (
		order                            models.Order
		itemsJSON, historyJSON           []byte
		couponCode, sessionID, paymentID pgtype.Text
		paidAt, deliveredAt              pgtype.Timestamptz
	)

	err := row.Scan(
		&order.ID, &order.OrderNumber, &order.UserID, &itemsJSON,
		&order.ItemsPrice, &order.TaxPrice, &order.ShippingPrice,
		&order.DiscountAmount, &order.TotalPrice, &couponCode,
		&order.Status, &historyJSON,
		&order.ShippingName, &order.ShippingLine, &order.ShippingCity,
		&order.ShippingZip, &order.ShippingCountry,
		&order.IsPaid, &paidAt, &order.IsDelivered, &deliveredAt,
		&sessionID, &paymentID, &order.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(itemsJSON, &order.Items); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(historyJSON, &order.StatusHistory); err != nil {
		return nil, err
	}
	if couponCode.Valid {
		order.CouponCode = couponCode.String
	}
	if sessionID.Valid {
		order.StripeSessionID = sessionID.String
	}
	if paymentID.Valid {
		order.PaymentIntentID = paymentID.String
	}
	if paidAt.Valid {
		order.PaidAt = paidAt.Time
	}
	if deliveredAt.Valid {
		order.DeliveredAt = deliveredAt.Time
	}

	return &order, nil
}

func nullableText(value string) pgtype.Text {
	return pgtype.Text{String: value, Valid: value != ""}
}
