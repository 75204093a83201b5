package services

import (
	"fmt"
	"math"

	"github.com/threadforge/threadforge/internal/coupon"
	"github.com/threadforge/threadforge/internal/models"
)

// Quote is the priced breakdown of a cart before an order is written.
type Quote struct {
	ItemsPrice     float64
	DiscountAmount float64
	ShippingPrice  float64
	TaxPrice       float64
	TotalPrice     float64
}

// ComputeQuote prices a snapshotted cart. Tax applies to the discounted
// merchandise value, not to shipping. A free_shipping coupon zeroes the
// shipping line instead of producing a discount amount.
func ComputeQuote(items []models.OrderItem, c *models.Coupon, taxRate, flatShippingRate float64) Quote {
	var itemsPrice float64
	for _, item := range items {
		itemsPrice += item.Price * float64(item.Quantity)
	}
	itemsPrice = round2(itemsPrice)

	var discount float64
	shipping := flatShippingRate
	if c != nil {
		discount = coupon.Discount(c, itemsPrice)
		if c.Type == models.CouponFreeShipping {
			shipping = 0
		}
	}

	tax := round2((itemsPrice - discount) * taxRate)

	return Quote{
		ItemsPrice:     itemsPrice,
		DiscountAmount: discount,
		ShippingPrice:  round2(shipping),
		TaxPrice:       tax,
		TotalPrice:     round2(itemsPrice - discount + shipping + tax),
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func formatMoney(v float64) string {
	return fmt.Sprintf("$%.2f", v)
}
