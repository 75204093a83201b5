package coupon

// Package coupon implements coupon validation and discount calculation.

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/threadforge/threadforge/internal/models"
)

// CartItem is the slice of an order line the engine needs for applicability
// checks.
type CartItem struct {
	ProductID uuid.UUID
	Category  string
	Quantity  int
	Price     float64
}

// Result is a business-rule outcome, not an error. An invalid coupon carries
// a human-readable reason for the client.
type Result struct {
	Valid   bool   `json:"valid"`
	Message string `json:"message,omitempty"`
}

func invalid(format string, args ...any) Result {
	return Result{Valid: false, Message: fmt.Sprintf(format, args...)}
}

// Validate runs the coupon checks in fixed order and short-circuits on the
// first failure. userID is nil for anonymous carts, which skips the per-user
// limit check.
func Validate(c *models.Coupon, orderValue float64, userID *uuid.UUID, items []CartItem) Result {
	now := time.Now().UTC()

	if !c.IsActive {
		return invalid("This coupon is no longer active")
	}
	if now.After(c.ExpiresAt) {
		return invalid("This coupon has expired")
	}
	if now.Before(c.StartDate) {
		return invalid("This coupon is not valid yet")
	}
	if c.MaxUses != nil && c.UsedCount >= *c.MaxUses {
		return invalid("This coupon has reached its usage limit")
	}
	if userID != nil && c.UsesByUser(*userID) >= c.MaxUsesPerUser {
		return invalid("You have already used this coupon the maximum number of times")
	}
	if orderValue < c.MinOrderValue {
		return invalid("A minimum order of %.2f is required for this coupon", c.MinOrderValue)
	}
	if len(c.ApplicableProducts) > 0 || len(c.ApplicableCategories) > 0 {
		if !anyItemApplies(c, items) {
			return invalid("This coupon does not apply to any item in your cart")
		}
	}

	return Result{Valid: true}
}

// anyItemApplies reports whether at least one cart item matches an included
// product or category and is not excluded.
func anyItemApplies(c *models.Coupon, items []CartItem) bool {
	for _, item := range items {
		if containsID(c.ExcludedProducts, item.ProductID) {
			continue
		}
		if containsID(c.ApplicableProducts, item.ProductID) {
			return true
		}
		if containsString(c.ApplicableCategories, item.Category) {
			return true
		}
	}
	return false
}

// Discount computes the discount amount for the order value, rounded to
// currency precision. free_shipping coupons return 0; the shipping waiver is
// applied by the order workflow.
func Discount(c *models.Coupon, orderValue float64) float64 {
	switch c.Type {
	case models.CouponPercentage:
		amount := orderValue * c.Value / 100
		if c.MaxDiscount != nil && amount > *c.MaxDiscount {
			amount = *c.MaxDiscount
		}
		return round2(amount)
	case models.CouponFixed:
		return round2(math.Min(c.Value, orderValue))
	case models.CouponFreeShipping:
		return 0
	}
	return 0
}

// Redeem records one redemption in memory: usedCount is incremented and, when
// a user is known, a usedBy entry is appended. It performs no validation;
// callers validate first and persist the mutation atomically.
func Redeem(c *models.Coupon, userID *uuid.UUID, orderValue float64, now time.Time) {
	c.UsedCount++
	c.UsedBy = append(c.UsedBy, models.Redemption{
		UserID:     userID,
		UsedAt:     now,
		OrderValue: orderValue,
	})
}

// round2 rounds half away from zero to two decimal places.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func containsID(ids []uuid.UUID, id uuid.UUID) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}

func containsString(values []string, value string) bool {
	for _, candidate := range values {
		if candidate == value {
			return true
		}
	}
	return false
}
