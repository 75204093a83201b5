package services

import (
	"math"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/threadforge/threadforge/internal/models"
)

func cartOf(prices ...float64) []models.OrderItem {
	items := make([]models.OrderItem, 0, len(prices))
	for _, p := range prices {
		items = append(items, models.OrderItem{ProductID: uuid.New(), Price: p, Quantity: 1})
	}
	return items
}

func activeCoupon(t models.CouponType, value float64) *models.Coupon {
	return &models.Coupon{
		Code:      "TEST10",
		Type:      t,
		Value:     value,
		IsActive:  true,
		StartDate: time.Now().Add(-time.Hour),
		ExpiresAt: time.Now().Add(time.Hour),
	}
}

func TestComputeQuote(t *testing.T) {
	t.Parallel()

	maxDiscount := 10.0

	tests := []struct {
		name     string
		items    []models.OrderItem
		coupon   *models.Coupon
		taxRate  float64
		shipping float64
		want     Quote
	}{
		{
			name:     "no coupon",
			items:    cartOf(40, 60),
			taxRate:  0.08,
			shipping: 5.99,
			want:     Quote{ItemsPrice: 100, ShippingPrice: 5.99, TaxPrice: 8, TotalPrice: 113.99},
		},
		{
			name:     "percentage coupon discounts before tax",
			items:    cartOf(100),
			coupon:   activeCoupon(models.CouponPercentage, 20),
			taxRate:  0.10,
			shipping: 5,
			want:     Quote{ItemsPrice: 100, DiscountAmount: 20, ShippingPrice: 5, TaxPrice: 8, TotalPrice: 93},
		},
		{
			name:  "percentage capped by max discount",
			items: cartOf(100),
			coupon: func() *models.Coupon {
				c := activeCoupon(models.CouponPercentage, 20)
				c.MaxDiscount = &maxDiscount
				return c
			}(),
			taxRate:  0,
			shipping: 0,
			want:     Quote{ItemsPrice: 100, DiscountAmount: 10, TotalPrice: 90},
		},
		{
			name:     "fixed coupon clamped to order value",
			items:    cartOf(30),
			coupon:   activeCoupon(models.CouponFixed, 50),
			taxRate:  0,
			shipping: 5,
			want:     Quote{ItemsPrice: 30, DiscountAmount: 30, ShippingPrice: 5, TotalPrice: 5},
		},
		{
			name:     "free shipping zeroes shipping line",
			items:    cartOf(50),
			coupon:   activeCoupon(models.CouponFreeShipping, 0),
			taxRate:  0.08,
			shipping: 5.99,
			want:     Quote{ItemsPrice: 50, TaxPrice: 4, TotalPrice: 54},
		},
		{
			name:     "half up rounding on tax",
			items:    cartOf(10.05),
			taxRate:  0.075,
			shipping: 0,
			// 10.05 * 0.075 = 0.75375 -> 0.75
			want: Quote{ItemsPrice: 10.05, TaxPrice: 0.75, TotalPrice: 10.8},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := ComputeQuote(tt.items, tt.coupon, tt.taxRate, tt.shipping)
			if got != tt.want {
				t.Errorf("ComputeQuote() = %+v, want %+v", got, tt.want)
			}
			if got.TotalPrice < 0 {
				t.Error("total price must never be negative")
			}
		})
	}
}

func TestComputeQuoteQuantities(t *testing.T) {
	t.Parallel()

	items := []models.OrderItem{
		{ProductID: uuid.New(), Price: 19.99, Quantity: 3},
	}
	got := ComputeQuote(items, nil, 0, 0)
	if math.Abs(got.ItemsPrice-59.97) > 1e-9 {
		t.Errorf("ItemsPrice = %v, want 59.97", got.ItemsPrice)
	}
}
