package services

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/threadforge/threadforge/internal/models"
)

var testExpiry = time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC)

func TestValidateCouponInput(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		coupon  *models.Coupon
		wantErr error
		wantMsg bool
	}{
		{
			name:   "valid percentage coupon",
			coupon: &models.Coupon{Code: "SUMMER20", Type: models.CouponPercentage, Value: 20, ExpiresAt: testExpiry},
		},
		{
			name:    "unknown type",
			coupon:  &models.Coupon{Code: "SUMMER20", Type: "bogo", Value: 20, ExpiresAt: testExpiry},
			wantErr: ErrInvalidCouponType,
		},
		{
			name:    "code too short",
			coupon:  &models.Coupon{Code: "AB", Type: models.CouponFixed, Value: 5, ExpiresAt: testExpiry},
			wantMsg: true,
		},
		{
			name:    "percentage over 100",
			coupon:  &models.Coupon{Code: "BIGSALE", Type: models.CouponPercentage, Value: 150, ExpiresAt: testExpiry},
			wantMsg: true,
		},
		{
			name:    "fixed discount must be positive",
			coupon:  &models.Coupon{Code: "NOTHING", Type: models.CouponFixed, Value: 0, ExpiresAt: testExpiry},
			wantMsg: true,
		},
		{
			name:   "free shipping ignores value",
			coupon: &models.Coupon{Code: "SHIPFREE", Type: models.CouponFreeShipping, Value: 0, ExpiresAt: testExpiry},
		},
		{
			name:    "missing expiry date",
			coupon:  &models.Coupon{Code: "FOREVER", Type: models.CouponPercentage, Value: 10},
			wantMsg: true,
		},
		{
			name: "expiry before start date",
			coupon: &models.Coupon{
				Code:      "EXPIRED",
				Type:      models.CouponPercentage,
				Value:     10,
				StartDate: time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC),
				ExpiresAt: time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC),
			},
			wantMsg: true,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			err := validateCouponInput(tc.coupon)
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("validateCouponInput() error = %v, want %v", err, tc.wantErr)
				}
				return
			}
			var validationErr *ValidationError
			if tc.wantMsg {
				if !errors.As(err, &validationErr) {
					t.Fatalf("validateCouponInput() error = %v, want validation error", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("validateCouponInput() error = %v, want nil", err)
			}
		})
	}
}

func TestValidateCouponInputDefaultsPerUserLimit(t *testing.T) {
	t.Parallel()

	c := &models.Coupon{Code: "WELCOME", Type: models.CouponPercentage, Value: 10, ExpiresAt: testExpiry}
	if err := validateCouponInput(c); err != nil {
		t.Fatalf("validateCouponInput() error = %v", err)
	}
	if c.MaxUsesPerUser != 1 {
		t.Fatalf("MaxUsesPerUser = %d, want 1", c.MaxUsesPerUser)
	}
}

func TestPrepareNewCouponResetsRedemptions(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	c := &models.Coupon{
		Code:      "preload",
		Type:      models.CouponFixed,
		Value:     5,
		ExpiresAt: testExpiry,
		UsedCount: 3,
		UsedBy: []models.Redemption{
			{UserID: &userID, UsedAt: time.Now().UTC(), OrderValue: 10},
		},
	}

	if err := prepareNewCoupon(c); err != nil {
		t.Fatalf("prepareNewCoupon() error = %v", err)
	}
	if c.Code != "PRELOAD" {
		t.Fatalf("Code = %q, want normalized %q", c.Code, "PRELOAD")
	}
	if c.UsedCount != 0 {
		t.Fatalf("UsedCount = %d, want 0", c.UsedCount)
	}
	if len(c.UsedBy) != 0 {
		t.Fatalf("UsedBy has %d entries, want none", len(c.UsedBy))
	}
	if c.UsesByUser(userID) != 0 {
		t.Fatalf("UsesByUser = %d, want 0", c.UsesByUser(userID))
	}
}

func TestApplyCouponPatch(t *testing.T) {
	t.Parallel()

	maxDiscount := 25.0
	value := 15.0
	inactive := false
	c := &models.Coupon{
		Code:           "SUMMER20",
		Type:           models.CouponPercentage,
		Value:          20,
		Description:    "summer sale",
		MaxUsesPerUser: 1,
		IsActive:       true,
		ExpiresAt:      testExpiry,
	}

	applyCouponPatch(c, CouponPatch{
		Value:       &value,
		MaxDiscount: &maxDiscount,
		IsActive:    &inactive,
	})

	if c.Value != 15 {
		t.Fatalf("Value = %v, want 15", c.Value)
	}
	if c.MaxDiscount == nil || *c.MaxDiscount != 25 {
		t.Fatalf("MaxDiscount = %v, want 25", c.MaxDiscount)
	}
	if c.IsActive {
		t.Fatal("IsActive = true, want false")
	}
	if c.Description != "summer sale" {
		t.Fatalf("Description = %q, want untouched", c.Description)
	}
}
