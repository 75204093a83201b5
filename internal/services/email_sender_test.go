package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/threadforge/threadforge/internal/email"
	"github.com/threadforge/threadforge/internal/models"
)

type capturingProvider struct {
	sent []*email.Email
}

func (p *capturingProvider) SendEmail(_ context.Context, e *email.Email) error {
	p.sent = append(p.sent, e)
	return nil
}

func (p *capturingProvider) ValidateAPIKey(context.Context) error { return nil }

func testOrderForEmail() (*models.User, *models.Order) {
	user := &models.User{ID: uuid.New(), Name: "Ada", Email: "ada@example.com"}
	order := &models.Order{
		ID:          uuid.New(),
		OrderNumber: "TF-20260830-000042",
		UserID:      user.ID,
		Status:      models.StatusShipped,
		TotalPrice:  64.78,
		CreatedAt:   time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC),
		Items: []models.OrderItem{
			{Name: "Forge Tee", Price: 24.99, Quantity: 2},
		},
	}
	return user, order
}

func TestSendOrderStatusEmail(t *testing.T) {
	t.Parallel()

	provider := &capturingProvider{}
	sender := NewProviderEmailSender(provider)
	user, order := testOrderForEmail()

	if err := sender.SendOrderStatus(context.Background(), user, order, "Left the warehouse"); err != nil {
		t.Fatalf("SendOrderStatus: %v", err)
	}
	if len(provider.sent) != 1 {
		t.Fatalf("sent %d emails, want 1", len(provider.sent))
	}

	sent := provider.sent[0]
	if sent.To != "ada@example.com" {
		t.Errorf("To = %q", sent.To)
	}
	if !strings.Contains(sent.Subject, order.OrderNumber) {
		t.Errorf("subject %q missing order number", sent.Subject)
	}
	if !strings.Contains(sent.Text, "shipped") {
		t.Errorf("body %q missing status", sent.Text)
	}
	if !strings.Contains(sent.Text, "Left the warehouse") {
		t.Errorf("body %q missing status note", sent.Text)
	}
}

func TestSendOrderPaidEmailIncludesLines(t *testing.T) {
	t.Parallel()

	provider := &capturingProvider{}
	sender := NewProviderEmailSender(provider)
	user, order := testOrderForEmail()

	if err := sender.SendOrderPaid(context.Background(), user, order); err != nil {
		t.Fatalf("SendOrderPaid: %v", err)
	}
	sent := provider.sent[0]
	if !strings.Contains(sent.Text, "Forge Tee") {
		t.Errorf("body missing line item: %q", sent.Text)
	}
	if !strings.Contains(sent.Text, "$64.78") {
		t.Errorf("body missing total: %q", sent.Text)
	}
}

func TestNilProviderIsNoop(t *testing.T) {
	t.Parallel()

	sender := NewProviderEmailSender(nil)
	user, order := testOrderForEmail()
	if err := sender.SendOrderPaid(context.Background(), user, order); err != nil {
		t.Fatalf("nil provider should be a no-op, got %v", err)
	}
}
