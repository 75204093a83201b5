package db

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/threadforge/threadforge/internal/models"
)

// TestConcurrentRedemptionStopsAtMaxUses hammers a maxUses-limited coupon
// from many goroutines and asserts the row lock serializes them: exactly
// maxUses redemptions succeed and the counter matches the ledger. Needs a
// live database; skipped unless DATABASE_URL is set.
func TestConcurrentRedemptionStopsAtMaxUses(t *testing.T) {
	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		t.Skip("DATABASE_URL not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := Connect(ctx, databaseURL)
	if err != nil {
		t.Fatalf("failed to connect: %v", err)
	}
	defer pool.Close()

	store := NewCouponStore(pool)

	maxUses := 5
	code := "RACE" + uuid.NewString()[:8]
	c := &models.Coupon{
		Code:           code,
		Type:           models.CouponFixed,
		Value:          5,
		MaxUses:        &maxUses,
		MaxUsesPerUser: 1,
		IsActive:       true,
		ExpiresAt:      time.Now().Add(time.Hour),
	}
	if err := store.Create(ctx, c); err != nil {
		t.Fatalf("failed to create coupon: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Delete(context.Background(), code)
	})

	const attempts = 20
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			userID := uuid.New()
			err := store.Redeem(ctx, code, &userID, 50)
			if err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
				return
			}
			if !errors.Is(err, ErrCouponLimitReached) {
				t.Errorf("unexpected redemption error: %v", err)
			}
		}()
	}
	wg.Wait()

	if succeeded != maxUses {
		t.Fatalf("redeemed %d times, want exactly %d", succeeded, maxUses)
	}

	stored, err := store.GetByCode(ctx, code)
	if err != nil {
		t.Fatalf("failed to reload coupon: %v", err)
	}
	if stored.UsedCount != maxUses {
		t.Fatalf("UsedCount = %d, want %d", stored.UsedCount, maxUses)
	}
	if len(stored.UsedBy) != stored.UsedCount {
		t.Fatalf("UsedBy has %d entries, UsedCount is %d", len(stored.UsedBy), stored.UsedCount)
	}
}
