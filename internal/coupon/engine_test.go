package coupon

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/threadforge/threadforge/internal/models"
)

func baseCoupon() *models.Coupon {
	return &models.Coupon{
		Code:           "SAVE20",
		Type:           models.CouponPercentage,
		Value:          20,
		MaxUsesPerUser: 1,
		IsActive:       true,
		StartDate:      time.Now().UTC().Add(-time.Hour),
		ExpiresAt:      time.Now().UTC().Add(24 * time.Hour),
	}
}

func floatPtr(v float64) *float64 { return &v }
func intPtr(v int) *int           { return &v }

func TestValidate(t *testing.T) {
	t.Parallel()

	user := uuid.New()
	includedProduct := uuid.New()
	excludedProduct := uuid.New()

	tests := []struct {
		name       string
		mutate     func(c *models.Coupon)
		orderValue float64
		userID     *uuid.UUID
		items      []CartItem
		wantValid  bool
	}{
		{
			name:       "all checks pass",
			mutate:     func(c *models.Coupon) {},
			orderValue: 100,
			userID:     &user,
			wantValid:  true,
		},
		{
			name:       "inactive coupon fails",
			mutate:     func(c *models.Coupon) { c.IsActive = false },
			orderValue: 100,
			wantValid:  false,
		},
		{
			name: "expired coupon fails regardless of other fields",
			mutate: func(c *models.Coupon) {
				c.ExpiresAt = time.Now().UTC().Add(-time.Minute)
			},
			orderValue: 1000,
			wantValid:  false,
		},
		{
			name: "not started yet fails",
			mutate: func(c *models.Coupon) {
				c.StartDate = time.Now().UTC().Add(time.Hour)
			},
			orderValue: 100,
			wantValid:  false,
		},
		{
			name: "max uses reached fails",
			mutate: func(c *models.Coupon) {
				c.MaxUses = intPtr(5)
				c.UsedCount = 5
			},
			orderValue: 100,
			wantValid:  false,
		},
		{
			name: "per user limit reached fails",
			mutate: func(c *models.Coupon) {
				c.UsedBy = []models.Redemption{{UserID: &user, UsedAt: time.Now(), OrderValue: 50}}
			},
			orderValue: 100,
			userID:     &user,
			wantValid:  false,
		},
		{
			name: "anonymous redemptions do not count toward per user limit",
			mutate: func(c *models.Coupon) {
				c.UsedBy = []models.Redemption{{UserID: nil, UsedAt: time.Now(), OrderValue: 50}}
			},
			orderValue: 100,
			userID:     &user,
			wantValid:  true,
		},
		{
			name:       "below minimum order value fails",
			mutate:     func(c *models.Coupon) { c.MinOrderValue = 200 },
			orderValue: 100,
			wantValid:  false,
		},
		{
			name: "applicable product match passes",
			mutate: func(c *models.Coupon) {
				c.ApplicableProducts = []uuid.UUID{includedProduct}
			},
			orderValue: 100,
			items:      []CartItem{{ProductID: includedProduct}},
			wantValid:  true,
		},
		{
			name: "applicable category match passes",
			mutate: func(c *models.Coupon) {
				c.ApplicableCategories = []string{"hoodies"}
			},
			orderValue: 100,
			items:      []CartItem{{ProductID: uuid.New(), Category: "hoodies"}},
			wantValid:  true,
		},
		{
			name: "no cart item matches restriction sets",
			mutate: func(c *models.Coupon) {
				c.ApplicableCategories = []string{"hoodies"}
			},
			orderValue: 100,
			items:      []CartItem{{ProductID: uuid.New(), Category: "tees"}},
			wantValid:  false,
		},
		{
			name: "excluded product does not satisfy inclusion",
			mutate: func(c *models.Coupon) {
				c.ApplicableProducts = []uuid.UUID{excludedProduct}
				c.ExcludedProducts = []uuid.UUID{excludedProduct}
			},
			orderValue: 100,
			items:      []CartItem{{ProductID: excludedProduct}},
			wantValid:  false,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			c := baseCoupon()
			tc.mutate(c)
			result := Validate(c, tc.orderValue, tc.userID, tc.items)
			if result.Valid != tc.wantValid {
				t.Fatalf("Validate() = %+v, want valid=%v", result, tc.wantValid)
			}
			if !result.Valid && result.Message == "" {
				t.Fatal("invalid result must carry a reason")
			}
		})
	}
}

func TestDiscount(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		coupon     *models.Coupon
		orderValue float64
		want       float64
	}{
		{
			name:       "percentage",
			coupon:     &models.Coupon{Type: models.CouponPercentage, Value: 20},
			orderValue: 100,
			want:       20,
		},
		{
			name:       "percentage capped by max discount",
			coupon:     &models.Coupon{Type: models.CouponPercentage, Value: 20, MaxDiscount: floatPtr(10)},
			orderValue: 100,
			want:       10,
		},
		{
			name:       "percentage rounds to currency precision",
			coupon:     &models.Coupon{Type: models.CouponPercentage, Value: 15},
			orderValue: 33.33,
			want:       5.00,
		},
		{
			name:       "fixed",
			coupon:     &models.Coupon{Type: models.CouponFixed, Value: 10},
			orderValue: 100,
			want:       10,
		},
		{
			name:       "fixed capped at order value",
			coupon:     &models.Coupon{Type: models.CouponFixed, Value: 50},
			orderValue: 30,
			want:       30,
		},
		{
			name:       "free shipping discounts nothing",
			coupon:     &models.Coupon{Type: models.CouponFreeShipping, Value: 0},
			orderValue: 100,
			want:       0,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got := Discount(tc.coupon, tc.orderValue)
			if got != tc.want {
				t.Fatalf("Discount() = %v, want %v", got, tc.want)
			}
			if got < 0 {
				t.Fatalf("Discount() returned negative value %v", got)
			}
			if tc.coupon.Type != models.CouponFreeShipping && got > tc.orderValue {
				t.Fatalf("Discount() = %v exceeds order value %v", got, tc.orderValue)
			}
		})
	}
}

func TestRedeem(t *testing.T) {
	t.Parallel()

	user := uuid.New()
	c := baseCoupon()

	Redeem(c, &user, 75.50, time.Now().UTC())
	Redeem(c, nil, 30, time.Now().UTC())

	if c.UsedCount != 2 {
		t.Fatalf("UsedCount = %d, want 2", c.UsedCount)
	}
	if len(c.UsedBy) != 2 {
		t.Fatalf("UsedBy length = %d, want 2", len(c.UsedBy))
	}
	if c.UsedBy[0].UserID == nil || *c.UsedBy[0].UserID != user {
		t.Fatal("first redemption lost its user reference")
	}
	if c.UsedBy[1].UserID != nil {
		t.Fatal("anonymous redemption must not carry a user reference")
	}
	if c.UsesByUser(user) != 1 {
		t.Fatalf("UsesByUser = %d, want 1", c.UsesByUser(user))
	}
}
