package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/threadforge/threadforge/internal/cache"
	"github.com/threadforge/threadforge/internal/coupon"
	"github.com/threadforge/threadforge/internal/db"
	"github.com/threadforge/threadforge/internal/logging"
	"github.com/threadforge/threadforge/internal/models"
)

const publicCouponsTTL = time.Minute

var ErrInvalidCouponType = errors.New("invalid coupon type")

type CouponService struct {
	couponStore *db.CouponStore
	cache       cache.Provider
	logger      *slog.Logger
}

func NewCouponService(couponStore *db.CouponStore, cacheProvider cache.Provider, logger *slog.Logger) *CouponService {
	return &CouponService{
		couponStore: couponStore,
		cache:       cacheProvider,
		logger:      logger,
	}
}

// CouponPreview is a validation verdict plus the discount the coupon would
// produce for the presented cart. Nothing is redeemed here.
type CouponPreview struct {
	coupon.Result
	Code     string  `json:"code,omitempty"`
	Discount float64 `json:"discount"`
}

// Preview validates a coupon against a cart without consuming a use. An
// unknown code yields an invalid verdict rather than an error so the client
// gets a uniform {valid, message} shape.
func (s *CouponService) Preview(ctx context.Context, code string, userID *uuid.UUID, items []coupon.CartItem) (*CouponPreview, error) {
	code = models.NormalizeCouponCode(code)

	c, err := s.couponStore.GetActiveByCode(ctx, code)
	if err != nil {
		if errors.Is(err, db.ErrCouponNotFound) {
			return &CouponPreview{Result: coupon.Result{Valid: false, Message: "Invalid coupon code"}}, nil
		}
		return nil, fmt.Errorf("failed to look up coupon: %w", err)
	}

	var orderValue float64
	for _, item := range items {
		orderValue += item.Price * float64(item.Quantity)
	}
	orderValue = round2(orderValue)

	result := coupon.Validate(c, orderValue, userID, items)
	preview := &CouponPreview{Result: result, Code: c.Code}
	if result.Valid {
		preview.Discount = coupon.Discount(c, orderValue)
	}
	return preview, nil
}

// ListPublic returns active, currently valid public coupons. The listing is
// served from cache when possible; a cache failure falls through to the
// store.
func (s *CouponService) ListPublic(ctx context.Context) ([]*models.Coupon, error) {
	logger := logging.FromContext(ctx, s.logger)

	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, cache.PublicCouponsKey); err == nil {
			var coupons []*models.Coupon
			if err := json.Unmarshal([]byte(cached), &coupons); err == nil {
				return coupons, nil
			}
			logger.Warn("discarding malformed cached coupon listing", "error", err)
		}
	}

	coupons, err := s.couponStore.ListPublic(ctx)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if payload, err := json.Marshal(coupons); err == nil {
			if err := s.cache.Set(ctx, cache.PublicCouponsKey, string(payload), publicCouponsTTL); err != nil {
				logger.Warn("failed to cache coupon listing", "error", err)
			}
		}
	}
	return coupons, nil
}

// List returns every coupon, redemption counters included. Admin only.
func (s *CouponService) List(ctx context.Context) ([]*models.Coupon, error) {
	return s.couponStore.List(ctx)
}

func (s *CouponService) GetByCode(ctx context.Context, code string) (*models.Coupon, error) {
	return s.couponStore.GetByCode(ctx, models.NormalizeCouponCode(code))
}

func (s *CouponService) Create(ctx context.Context, c *models.Coupon) error {
	logger := logging.FromContext(ctx, s.logger)

	if err := prepareNewCoupon(c); err != nil {
		return err
	}
	if err := s.couponStore.Create(ctx, c); err != nil {
		return err
	}

	logger.Info("coupon created", "code", c.Code, "type", c.Type)
	s.invalidateListing(ctx)
	return nil
}

// CouponPatch carries the admin-updatable coupon fields. Redemption counters
// and the code itself are not patchable.
type CouponPatch struct {
	Description          *string      `json:"description"`
	Value                *float64     `json:"value"`
	MinOrderValue        *float64     `json:"min_order_value"`
	MaxDiscount          *float64     `json:"max_discount"`
	MaxUses              *int         `json:"max_uses"`
	MaxUsesPerUser       *int         `json:"max_uses_per_user"`
	ApplicableProducts   *[]uuid.UUID `json:"applicable_products"`
	ApplicableCategories *[]string    `json:"applicable_categories"`
	ExcludedProducts     *[]uuid.UUID `json:"excluded_products"`
	IsActive             *bool        `json:"is_active"`
	IsPublic             *bool        `json:"is_public"`
	StartDate            *time.Time   `json:"start_date"`
	ExpiresAt            *time.Time   `json:"expires_at"`
}

// Update applies a partial update to a coupon's configuration.
func (s *CouponService) Update(ctx context.Context, code string, patch CouponPatch) (*models.Coupon, error) {
	c, err := s.couponStore.GetByCode(ctx, models.NormalizeCouponCode(code))
	if err != nil {
		return nil, err
	}

	applyCouponPatch(c, patch)
	if err := validateCouponInput(c); err != nil {
		return nil, err
	}
	if err := s.couponStore.Update(ctx, c); err != nil {
		return nil, err
	}

	s.invalidateListing(ctx)
	return c, nil
}

func (s *CouponService) Delete(ctx context.Context, code string) error {
	if err := s.couponStore.Delete(ctx, models.NormalizeCouponCode(code)); err != nil {
		return err
	}
	s.invalidateListing(ctx)
	return nil
}

func (s *CouponService) invalidateListing(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, cache.PublicCouponsKey); err != nil {
		logging.FromContext(ctx, s.logger).Warn("failed to invalidate coupon listing cache", "error", err)
	}
}

func applyCouponPatch(c *models.Coupon, patch CouponPatch) {
	if patch.Description != nil {
		c.Description = *patch.Description
	}
	if patch.Value != nil {
		c.Value = *patch.Value
	}
	if patch.MinOrderValue != nil {
		c.MinOrderValue = *patch.MinOrderValue
	}
	if patch.MaxDiscount != nil {
		c.MaxDiscount = patch.MaxDiscount
	}
	if patch.MaxUses != nil {
		c.MaxUses = patch.MaxUses
	}
	if patch.MaxUsesPerUser != nil {
		c.MaxUsesPerUser = *patch.MaxUsesPerUser
	}
	if patch.ApplicableProducts != nil {
		c.ApplicableProducts = *patch.ApplicableProducts
	}
	if patch.ApplicableCategories != nil {
		c.ApplicableCategories = *patch.ApplicableCategories
	}
	if patch.ExcludedProducts != nil {
		c.ExcludedProducts = *patch.ExcludedProducts
	}
	if patch.IsActive != nil {
		c.IsActive = *patch.IsActive
	}
	if patch.IsPublic != nil {
		c.IsPublic = *patch.IsPublic
	}
	if patch.StartDate != nil {
		c.StartDate = *patch.StartDate
	}
	if patch.ExpiresAt != nil {
		c.ExpiresAt = *patch.ExpiresAt
	}
}

// prepareNewCoupon normalizes an admin-supplied coupon for insertion. A new
// coupon starts with no redemption history; any used_count or used_by in the
// payload is discarded so the counter and the ledger cannot disagree.
func prepareNewCoupon(c *models.Coupon) error {
	c.Code = models.NormalizeCouponCode(c.Code)
	c.UsedCount = 0
	c.UsedBy = nil
	return validateCouponInput(c)
}

func validateCouponInput(c *models.Coupon) error {
	if !models.ValidCouponType(string(c.Type)) {
		return ErrInvalidCouponType
	}
	if len(c.Code) < 3 || len(c.Code) > 20 {
		return validationErrorf("coupon code must be between 3 and 20 characters")
	}
	switch c.Type {
	case models.CouponPercentage:
		if c.Value <= 0 || c.Value > 100 {
			return validationErrorf("percentage value must be between 0 and 100")
		}
	case models.CouponFixed:
		if c.Value <= 0 {
			return validationErrorf("fixed discount value must be positive")
		}
	}
	if c.MaxUsesPerUser <= 0 {
		c.MaxUsesPerUser = 1
	}
	if c.ExpiresAt.IsZero() {
		return validationErrorf("coupon expiry date is required")
	}
	if !c.StartDate.IsZero() && c.ExpiresAt.Before(c.StartDate) {
		return validationErrorf("coupon expiry must be after its start date")
	}
	return nil
}
