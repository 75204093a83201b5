package stripe

import (
	"bytes"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stripe/stripe-go/v84/webhook"
)

const testWebhookSecret = "whsec_test_secret"

func signedCheckoutPayload(t *testing.T, secret string) ([]byte, string) {
	t.Helper()

	payload := []byte(`{"id":"evt_test","object":"event","api_version":"2026-01-28.clover","type":"checkout.session.completed","data":{"object":{"id":"cs_test","object":"checkout.session"}}}`)
	signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   payload,
		Secret:    secret,
		Timestamp: time.Now(),
		Scheme:    "v1",
	})
	return payload, signed.Header
}

func TestReadWebhookEvent_MissingSignature(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest("POST", "/webhooks/stripe", bytes.NewBufferString(`{}`))
	_, err := ReadWebhookEvent(req, testWebhookSecret)
	if err == nil {
		t.Fatal("expected error for missing signature")
	}
}

func TestReadWebhookEvent_MissingSecret(t *testing.T) {
	t.Parallel()

	payload, header := signedCheckoutPayload(t, testWebhookSecret)
	req := httptest.NewRequest("POST", "/webhooks/stripe", bytes.NewReader(payload))
	req.Header.Set("Stripe-Signature", header)

	_, err := ReadWebhookEvent(req, "")
	if err == nil {
		t.Fatal("expected error when no webhook secret is configured")
	}
}

func TestReadWebhookEvent_WrongSecret(t *testing.T) {
	t.Parallel()

	payload, header := signedCheckoutPayload(t, "whsec_other_secret")
	req := httptest.NewRequest("POST", "/webhooks/stripe", bytes.NewReader(payload))
	req.Header.Set("Stripe-Signature", header)

	_, err := ReadWebhookEvent(req, testWebhookSecret)
	if err == nil {
		t.Fatal("expected signature validation to fail for a foreign secret")
	}
}

func TestReadWebhookEvent_Valid(t *testing.T) {
	t.Parallel()

	payload, header := signedCheckoutPayload(t, testWebhookSecret)
	req := httptest.NewRequest("POST", "/webhooks/stripe", bytes.NewReader(payload))
	req.Header.Set("Stripe-Signature", header)

	event, err := ReadWebhookEvent(req, testWebhookSecret)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if event == nil || event.ID != "evt_test" {
		t.Fatalf("unexpected event: %+v", event)
	}
	if event.Type != "checkout.session.completed" {
		t.Fatalf("unexpected event type: %s", event.Type)
	}
}
