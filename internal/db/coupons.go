package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/threadforge/threadforge/internal/models"
)

var (
	ErrCouponNotFound     = errors.New("coupon not found")
	ErrCouponExists       = errors.New("coupon code already exists")
	ErrCouponLimitReached = errors.New("coupon has reached its usage limit")
	ErrCouponUserLimit    = errors.New("user has reached the per-user limit for this coupon")
)

const pgUniqueViolationCode = "23505"

type CouponStore struct {
	pool *pgxpool.Pool
}

func NewCouponStore(pool *pgxpool.Pool) *CouponStore {
	return &CouponStore{pool: pool}
}

const couponColumns = `id, code, description, type, value, min_order_value, max_discount,
	max_uses, max_uses_per_user, used_count, used_by,
	applicable_products, applicable_categories, excluded_products,
	is_active, is_public, start_date, expires_at, created_at, updated_at`

func (s *CouponStore) Create(ctx context.Context, c *models.Coupon) error {
	usedBy, applicable, categories, excluded, err := marshalCouponSets(c)
	if err != nil {
		return err
	}

	row := s.pool.QueryRow(ctx, `
		INSERT INTO coupons (
			code, description, type, value, min_order_value, max_discount,
			max_uses, max_uses_per_user, used_by,
			applicable_products, applicable_categories, excluded_products,
			is_active, is_public, start_date, expires_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		RETURNING id, created_at, updated_at`,
		models.NormalizeCouponCode(c.Code), c.Description, string(c.Type), c.Value,
		c.MinOrderValue, c.MaxDiscount, c.MaxUses, c.MaxUsesPerUser, usedBy,
		applicable, categories, excluded,
		c.IsActive, c.IsPublic, c.StartDate, c.ExpiresAt,
	)
	if err := row.Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolationCode {
			return ErrCouponExists
		}
		return fmt.Errorf("failed to create coupon: %w", err)
	}
	c.Code = models.NormalizeCouponCode(c.Code)
	return nil
}

// GetByCode looks a coupon up by its canonical (uppercase) code.
func (s *CouponStore) GetByCode(ctx context.Context, code string) (*models.Coupon, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+couponColumns+` FROM coupons WHERE code = $1`,
		models.NormalizeCouponCode(code))
	return scanCoupon(row)
}

// GetActiveByCode is the customer-facing lookup: case-insensitive and
// restricted to active coupons. Inactive codes are reported as not found.
func (s *CouponStore) GetActiveByCode(ctx context.Context, code string) (*models.Coupon, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+couponColumns+` FROM coupons WHERE code = $1 AND is_active`,
		models.NormalizeCouponCode(code))
	return scanCoupon(row)
}

// ListPublic returns active, public coupons currently inside their validity
// window. Only these are discoverable via the public listing.
func (s *CouponStore) ListPublic(ctx context.Context) ([]*models.Coupon, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+couponColumns+` FROM coupons
		WHERE is_active AND is_public AND start_date <= NOW() AND expires_at >= NOW()
		ORDER BY expires_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectCoupons(rows)
}

func (s *CouponStore) List(ctx context.Context) ([]*models.Coupon, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+couponColumns+` FROM coupons ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectCoupons(rows)
}

// Update rewrites the coupon's configurable fields. Usage counters are never
// written here; they change only through redemption.
func (s *CouponStore) Update(ctx context.Context, c *models.Coupon) error {
	_, applicable, categories, excluded, err := marshalCouponSets(c)
	if err != nil {
		return err
	}

	cmdTag, err := s.pool.Exec(ctx, `
		UPDATE coupons
		SET description = $1, type = $2, value = $3, min_order_value = $4,
		    max_discount = $5, max_uses = $6, max_uses_per_user = $7,
		    applicable_products = $8, applicable_categories = $9, excluded_products = $10,
		    is_active = $11, is_public = $12, start_date = $13, expires_at = $14,
		    updated_at = NOW()
		WHERE code = $15`,
		c.Description, string(c.Type), c.Value, c.MinOrderValue,
		c.MaxDiscount, c.MaxUses, c.MaxUsesPerUser,
		applicable, categories, excluded,
		c.IsActive, c.IsPublic, c.StartDate, c.ExpiresAt,
		models.NormalizeCouponCode(c.Code),
	)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrCouponNotFound
	}
	return nil
}

func (s *CouponStore) Delete(ctx context.Context, code string) error {
	cmdTag, err := s.pool.Exec(ctx,
		`DELETE FROM coupons WHERE code = $1`, models.NormalizeCouponCode(code))
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrCouponNotFound
	}
	return nil
}

// Redeem records one redemption atomically outside an order transaction.
func (s *CouponStore) Redeem(ctx context.Context, code string, userID *uuid.UUID, orderValue float64) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := redeemCouponTx(ctx, tx, code, userID, orderValue); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// redeemCouponTx locks the coupon row and re-checks the usage limits under
// the lock before incrementing. Two concurrent redemptions near maxUses
// serialize on the row lock, so usedCount can never exceed maxUses even
// though validate and apply are separate calls at the service level.
func redeemCouponTx(ctx context.Context, tx pgx.Tx, code string, userID *uuid.UUID, orderValue float64) error {
	var (
		usedCount      int
		maxUses        pgtype.Int4
		maxUsesPerUser int
		usedByJSON     []byte
	)
	err := tx.QueryRow(ctx, `
		SELECT used_count, max_uses, max_uses_per_user, used_by
		FROM coupons WHERE code = $1 FOR UPDATE`,
		models.NormalizeCouponCode(code),
	).Scan(&usedCount, &maxUses, &maxUsesPerUser, &usedByJSON)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrCouponNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to lock coupon: %w", err)
	}

	if maxUses.Valid && usedCount >= int(maxUses.Int32) {
		return ErrCouponLimitReached
	}
	if userID != nil {
		var usedBy []models.Redemption
		if err := json.Unmarshal(usedByJSON, &usedBy); err != nil {
			return err
		}
		userUses := 0
		for _, r := range usedBy {
			if r.UserID != nil && *r.UserID == *userID {
				userUses++
			}
		}
		if userUses >= maxUsesPerUser {
			return ErrCouponUserLimit
		}
	}

	entry, err := json.Marshal([]models.Redemption{{
		UserID:     userID,
		UsedAt:     time.Now().UTC(),
		OrderValue: orderValue,
	}})
	if err != nil {
		return err
	}

	_, err = tx.Exec(ctx, `
		UPDATE coupons
		SET used_count = used_count + 1, used_by = used_by || $1::jsonb, updated_at = NOW()
		WHERE code = $2`,
		entry, models.NormalizeCouponCode(code))
	if err != nil {
		return fmt.Errorf("failed to record redemption: %w", err)
	}
	return nil
}

func collectCoupons(rows pgx.Rows) ([]*models.Coupon, error) {
	var coupons []*models.Coupon
	for rows.Next() {
		c, err := scanCoupon(rows)
		if err != nil {
			return nil, err
		}
		coupons = append(coupons, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return coupons, nil
}

func scanCoupon(row pgx.Row) (*models.Coupon, error) {
	var (
		c                                        models.Coupon
		usedBy, applicable, categories, excluded []byte
		maxDiscount                              pgtype.Float8
		maxUses                                  pgtype.Int4
	)

	err := row.Scan(
		&c.ID, &c.Code, &c.Description, &c.Type, &c.Value, &c.MinOrderValue, &maxDiscount,
		&maxUses, &c.MaxUsesPerUser, &c.UsedCount, &usedBy,
		&applicable, &categories, &excluded,
		&c.IsActive, &c.IsPublic, &c.StartDate, &c.ExpiresAt, &c.CreatedAt, &c.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrCouponNotFound
	}
	if err != nil {
		return nil, err
	}

	if maxDiscount.Valid {
		v := maxDiscount.Float64
		c.MaxDiscount = &v
	}
	if maxUses.Valid {
		v := int(maxUses.Int32)
		c.MaxUses = &v
	}
	if err := json.Unmarshal(usedBy, &c.UsedBy); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(applicable, &c.ApplicableProducts); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(categories, &c.ApplicableCategories); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(excluded, &c.ExcludedProducts); err != nil {
		return nil, err
	}

	return &c, nil
}

func marshalCouponSets(c *models.Coupon) (usedBy, applicable, categories, excluded []byte, err error) {
	if c.UsedBy == nil {
		c.UsedBy = []models.Redemption{}
	}
	if usedBy, err = json.Marshal(c.UsedBy); err != nil {
		return nil, nil, nil, nil, err
	}
	if applicable, err = json.Marshal(emptyIfNilIDs(c.ApplicableProducts)); err != nil {
		return nil, nil, nil, nil, err
	}
	if categories, err = json.Marshal(emptyIfNilStrings(c.ApplicableCategories)); err != nil {
		return nil, nil, nil, nil, err
	}
	if excluded, err = json.Marshal(emptyIfNilIDs(c.ExcludedProducts)); err != nil {
		return nil, nil, nil, nil, err
	}
	return usedBy, applicable, categories, excluded, nil
}

func emptyIfNilIDs(ids []uuid.UUID) []uuid.UUID {
	if ids == nil {
		return []uuid.UUID{}
	}
	return ids
}

func emptyIfNilStrings(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
