package services

import (
	"context"

	"github.com/threadforge/threadforge/internal/email"
	"github.com/threadforge/threadforge/internal/models"
)

type NotificationEmailSender interface {
	SendOrderPaid(ctx context.Context, user *models.User, order *models.Order) error
	SendOrderStatus(ctx context.Context, user *models.User, order *models.Order, note string) error
	SendDesignReviewed(ctx context.Context, user *models.User, design *models.Design) error
}

// ProviderEmailSender renders and sends notification emails through the
// configured email provider. A nil provider turns every send into a no-op.
type ProviderEmailSender struct {
	provider email.Provider
}

func NewProviderEmailSender(provider email.Provider) *ProviderEmailSender {
	return &ProviderEmailSender{provider: provider}
}

func (s *ProviderEmailSender) SendOrderPaid(ctx context.Context, user *models.User, order *models.Order) error {
	return email.SendOrderPaid(ctx, s.provider, buildOrderInfo(user, order, ""))
}

func (s *ProviderEmailSender) SendOrderStatus(ctx context.Context, user *models.User, order *models.Order, note string) error {
	return email.SendOrderStatus(ctx, s.provider, buildOrderInfo(user, order, note))
}

func (s *ProviderEmailSender) SendDesignReviewed(ctx context.Context, user *models.User, design *models.Design) error {
	return email.SendDesignReviewed(ctx, s.provider, &email.DesignInfo{
		DesignName:    design.Name,
		CustomerName:  user.Name,
		CustomerEmail: user.Email,
		Status:        string(design.Status),
		ReviewNote:    design.ReviewNote,
	})
}

func buildOrderInfo(user *models.User, order *models.Order, note string) *email.OrderInfo {
	info := &email.OrderInfo{
		OrderNumber:   order.OrderNumber,
		CustomerName:  user.Name,
		CustomerEmail: user.Email,
		Status:        string(order.Status),
		StatusNote:    note,
		Total:         formatMoney(order.TotalPrice),
		OrderDate:     order.CreatedAt.Format("January 2, 2006"),
	}
	for _, item := range order.Items {
		info.Items = append(info.Items, email.OrderItem{
			Name:       item.Name,
			Quantity:   item.Quantity,
			UnitPrice:  formatMoney(item.Price),
			TotalPrice: formatMoney(item.Price * float64(item.Quantity)),
		})
	}
	return info
}

type noopEmailSender struct{}

func (noopEmailSender) SendOrderPaid(context.Context, *models.User, *models.Order) error {
	return nil
}

func (noopEmailSender) SendOrderStatus(context.Context, *models.User, *models.Order, string) error {
	return nil
}

func (noopEmailSender) SendDesignReviewed(context.Context, *models.User, *models.Design) error {
	return nil
}
