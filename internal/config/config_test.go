package config

import (
	"log/slog"
	"strings"
	"testing"
)

func validConfig() *Config {
	return &Config{
		DatabaseURL:      "postgres://localhost:5432/threadforge",
		JWTSecret:        strings.Repeat("s", 32),
		CacheProvider:    "memory",
		TaxRate:          0.08,
		FlatShippingRate: 5.99,
		LogLevel:         slog.LevelInfo,
		LogFormat:        "text",
		Port:             "8080",
	}
}

func TestValidateJWTSecretLength(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		secret  string
		wantErr bool
	}{
		{
			name:    "valid 32-byte secret",
			secret:  strings.Repeat("s", 32),
			wantErr: false,
		},
		{
			name:    "invalid short secret",
			secret:  "short",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := validConfig()
			cfg.JWTSecret = tt.secret

			err := cfg.validate()
			if tt.wantErr && err == nil {
				t.Fatalf("expected error, got nil")
			}
			if !tt.wantErr && err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
		})
	}
}

func TestValidateStripeKeysSetTogether(t *testing.T) {
	t.Parallel()

	cfg := validConfig()
	cfg.StripeSecretKey = "sk_test_123"

	err := cfg.validate()
	if err == nil {
		t.Fatalf("expected error, got nil")
	}
	if !strings.Contains(err.Error(), "STRIPE_WEBHOOK_SECRET") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateStripeRequiresBaseURL(t *testing.T) {
	t.Parallel()

	cfg := validConfig()
	cfg.StripeSecretKey = "sk_test_123"
	cfg.StripeWebhookSecret = "whsec_123"

	err := cfg.validate()
	if err == nil {
		t.Fatalf("expected error, got nil")
	}
	if !strings.Contains(err.Error(), "BASE_URL") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateBaseURLScheme(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		baseURL string
		wantErr bool
	}{
		{
			name:    "https url is accepted",
			baseURL: "https://shop.example.com",
			wantErr: false,
		},
		{
			name:    "http localhost is accepted",
			baseURL: "http://localhost:8080",
			wantErr: false,
		},
		{
			name:    "http non-local is rejected",
			baseURL: "http://shop.example.com",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := validConfig()
			cfg.BaseURL = tt.baseURL

			err := cfg.validate()
			if tt.wantErr && err == nil {
				t.Fatalf("expected error, got nil")
			}
			if !tt.wantErr && err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
		})
	}
}

func TestValidateCacheProvider(t *testing.T) {
	t.Parallel()

	cfg := validConfig()
	cfg.CacheProvider = "invalid"

	err := cfg.validate()
	if err == nil {
		t.Fatalf("expected error, got nil")
	}
	if !strings.Contains(err.Error(), "CacheProvider") || !strings.Contains(err.Error(), "oneof") {
		t.Fatalf("unexpected error: %v", err)
	}
}
