package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/threadforge/threadforge/internal/db"
	"github.com/threadforge/threadforge/internal/logging"
	"github.com/threadforge/threadforge/internal/models"
)

const emailSendTimeout = 30 * time.Second

// NotificationService records in-app notifications and mirrors them to
// email. Notification creation is best-effort from the caller's point of
// view: a failed insert or send is logged and never rolls back the workflow
// that triggered it.
type NotificationService struct {
	notificationStore *db.NotificationStore
	userStore         *db.UserStore
	emailSender       NotificationEmailSender
	logger            *slog.Logger
}

func NewNotificationService(notificationStore *db.NotificationStore, userStore *db.UserStore, emailSender NotificationEmailSender, logger *slog.Logger) *NotificationService {
	if emailSender == nil {
		emailSender = noopEmailSender{}
	}
	return &NotificationService{
		notificationStore: notificationStore,
		userStore:         userStore,
		emailSender:       emailSender,
		logger:            logger,
	}
}

func (s *NotificationService) NotifyOrderPaid(ctx context.Context, order *models.Order) {
	logger := logging.FromContext(ctx, s.logger)

	n := &models.Notification{
		UserID:  order.UserID,
		Type:    models.NotifyOrderPaid,
		Title:   "Payment received",
		Message: fmt.Sprintf("We received your payment for order %s.", order.OrderNumber),
		OrderID: &order.ID,
	}
	if err := s.notificationStore.Create(ctx, n); err != nil {
		logger.Error("failed to create notification", "error", err, "order_id", order.ID)
	}

	s.sendAsync(ctx, order.UserID, func(ctx context.Context, user *models.User) error {
		return s.emailSender.SendOrderPaid(ctx, user, order)
	})
}

func (s *NotificationService) NotifyOrderStatus(ctx context.Context, order *models.Order, note string) {
	logger := logging.FromContext(ctx, s.logger)

	n := &models.Notification{
		UserID:  order.UserID,
		Type:    models.NotifyOrderStatus,
		Title:   fmt.Sprintf("Order %s", order.Status),
		Message: fmt.Sprintf("Your order %s is now %s.", order.OrderNumber, order.Status),
		OrderID: &order.ID,
	}
	if err := s.notificationStore.Create(ctx, n); err != nil {
		logger.Error("failed to create notification", "error", err, "order_id", order.ID)
	}

	s.sendAsync(ctx, order.UserID, func(ctx context.Context, user *models.User) error {
		return s.emailSender.SendOrderStatus(ctx, user, order, note)
	})
}

func (s *NotificationService) NotifyDesignReviewed(ctx context.Context, design *models.Design) {
	logger := logging.FromContext(ctx, s.logger)

	n := &models.Notification{
		UserID:   design.UserID,
		Type:     models.NotifyDesignReviewed,
		Title:    fmt.Sprintf("Design %s", design.Status),
		Message:  fmt.Sprintf("Your design %q has been %s.", design.Name, design.Status),
		DesignID: &design.ID,
	}
	if err := s.notificationStore.Create(ctx, n); err != nil {
		logger.Error("failed to create notification", "error", err, "design_id", design.ID)
	}

	s.sendAsync(ctx, design.UserID, func(ctx context.Context, user *models.User) error {
		return s.emailSender.SendDesignReviewed(ctx, user, design)
	})
}

func (s *NotificationService) ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]*models.Notification, error) {
	return s.notificationStore.ListByUser(ctx, userID, limit)
}

func (s *NotificationService) MarkRead(ctx context.Context, id, userID uuid.UUID) error {
	return s.notificationStore.MarkRead(ctx, id, userID)
}

func (s *NotificationService) UnreadCount(ctx context.Context, userID uuid.UUID) (int, error) {
	return s.notificationStore.UnreadCount(ctx, userID)
}

// sendAsync delivers the email off the request path. The send outlives the
// request context but carries its values for logging.
func (s *NotificationService) sendAsync(ctx context.Context, userID uuid.UUID, send func(context.Context, *models.User) error) {
	logger := logging.FromContext(ctx, s.logger)
	detached := context.WithoutCancel(ctx)

	go func() {
		sendCtx, cancel := context.WithTimeout(detached, emailSendTimeout)
		defer cancel()

		user, err := s.userStore.GetByID(sendCtx, userID)
		if err != nil {
			logger.Error("failed to load user for notification email", "error", err, "user_id", userID)
			return
		}
		if err := send(sendCtx, user); err != nil {
			logger.Error("failed to send notification email", "error", err, "user_id", userID)
		}
	}()
}
