package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type CouponType string

const (
	CouponPercentage   CouponType = "percentage"
	CouponFixed        CouponType = "fixed"
	CouponFreeShipping CouponType = "free_shipping"
)

func ValidCouponType(value string) bool {
	switch CouponType(value) {
	case CouponPercentage, CouponFixed, CouponFreeShipping:
		return true
	}
	return false
}

// Redemption is one usedBy entry. UserID is nil for anonymous redemptions,
// which count toward usedCount but never toward a per-user limit.
type Redemption struct {
	UserID     *uuid.UUID `json:"user_id"`
	UsedAt     time.Time  `json:"used_at"`
	OrderValue float64    `json:"order_value"`
}

type Coupon struct {
	ID                   uuid.UUID    `json:"id"`
	Code                 string       `json:"code"`
	Description          string       `json:"description,omitempty"`
	Type                 CouponType   `json:"type"`
	Value                float64      `json:"value"`
	MinOrderValue        float64      `json:"min_order_value"`
	MaxDiscount          *float64     `json:"max_discount,omitempty"`
	MaxUses              *int         `json:"max_uses,omitempty"`
	MaxUsesPerUser       int          `json:"max_uses_per_user"`
	UsedCount            int          `json:"used_count"`
	UsedBy               []Redemption `json:"used_by"`
	ApplicableProducts   []uuid.UUID  `json:"applicable_products,omitempty"`
	ApplicableCategories []string     `json:"applicable_categories,omitempty"`
	ExcludedProducts     []uuid.UUID  `json:"excluded_products,omitempty"`
	IsActive             bool         `json:"is_active"`
	IsPublic             bool         `json:"is_public"`
	StartDate            time.Time    `json:"start_date"`
	ExpiresAt            time.Time    `json:"expires_at"`
	CreatedAt            time.Time    `json:"created_at"`
	UpdatedAt            time.Time    `json:"updated_at"`
}

// NormalizeCouponCode returns the canonical stored form of a code. Lookups
// are case-insensitive; storage is uppercase.
func NormalizeCouponCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// UsesByUser counts redemptions recorded against the given user.
func (c *Coupon) UsesByUser(userID uuid.UUID) int {
	count := 0
	for _, r := range c.UsedBy {
		if r.UserID != nil && *r.UserID == userID {
			count++
		}
	}
	return count
}
