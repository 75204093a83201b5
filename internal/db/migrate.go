package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Migrate creates the schema if it does not exist. Statements are idempotent
// so startup can run them unconditionally.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	statements := []struct {
		name string
		sql  string
	}{
		{
			name: "users",
			sql: `
				CREATE TABLE IF NOT EXISTS users (
					id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
					name TEXT NOT NULL,
					email TEXT NOT NULL UNIQUE,
					password_hash TEXT NOT NULL,
					role TEXT NOT NULL DEFAULT 'customer',
					created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
					updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
				)`,
		},
		{
			name: "products",
			sql: `
				CREATE TABLE IF NOT EXISTS products (
					id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
					name TEXT NOT NULL,
					slug TEXT NOT NULL UNIQUE,
					description TEXT NOT NULL DEFAULT '',
					category TEXT NOT NULL DEFAULT '',
					image TEXT NOT NULL DEFAULT '',
					price NUMERIC(12,2) NOT NULL CHECK (price >= 0),
					sizes JSONB NOT NULL DEFAULT '[]',
					colors JSONB NOT NULL DEFAULT '[]',
					stock INT NOT NULL DEFAULT 0 CHECK (stock >= 0),
					is_active BOOLEAN NOT NULL DEFAULT TRUE,
					customizable BOOLEAN NOT NULL DEFAULT FALSE,
					created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
					updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
				)`,
		},
		{
			name: "coupons",
			sql: `
				CREATE TABLE IF NOT EXISTS coupons (
					id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
					code TEXT NOT NULL UNIQUE CHECK (char_length(code) BETWEEN 3 AND 20),
					description TEXT NOT NULL DEFAULT '',
					type TEXT NOT NULL CHECK (type IN ('percentage', 'fixed', 'free_shipping')),
					value NUMERIC(12,2) NOT NULL CHECK (value >= 0),
					min_order_value NUMERIC(12,2) NOT NULL DEFAULT 0,
					max_discount NUMERIC(12,2),
					max_uses INT,
					max_uses_per_user INT NOT NULL DEFAULT 1,
					used_count INT NOT NULL DEFAULT 0,
					used_by JSONB NOT NULL DEFAULT '[]',
					applicable_products JSONB NOT NULL DEFAULT '[]',
					applicable_categories JSONB NOT NULL DEFAULT '[]',
					excluded_products JSONB NOT NULL DEFAULT '[]',
					is_active BOOLEAN NOT NULL DEFAULT TRUE,
					is_public BOOLEAN NOT NULL DEFAULT FALSE,
					start_date TIMESTAMPTZ NOT NULL DEFAULT NOW(),
					expires_at TIMESTAMPTZ NOT NULL,
					created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
					updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
				)`,
		},
		{
			name: "order number sequence",
			sql:  `CREATE SEQUENCE IF NOT EXISTS order_number_seq`,
		},
		{
			name: "orders",
			sql: `
				CREATE TABLE IF NOT EXISTS orders (
					id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
					order_number TEXT NOT NULL UNIQUE,
					user_id UUID NOT NULL REFERENCES users(id),
					items JSONB NOT NULL,
					items_price NUMERIC(12,2) NOT NULL CHECK (items_price >= 0),
					tax_price NUMERIC(12,2) NOT NULL CHECK (tax_price >= 0),
					shipping_price NUMERIC(12,2) NOT NULL CHECK (shipping_price >= 0),
					discount_amount NUMERIC(12,2) NOT NULL DEFAULT 0 CHECK (discount_amount >= 0),
					total_price NUMERIC(12,2) NOT NULL CHECK (total_price >= 0),
					coupon_code TEXT,
					status TEXT NOT NULL DEFAULT 'pending',
					status_history JSONB NOT NULL DEFAULT '[]',
					shipping_name TEXT NOT NULL DEFAULT '',
					shipping_line TEXT NOT NULL DEFAULT '',
					shipping_city TEXT NOT NULL DEFAULT '',
					shipping_zip TEXT NOT NULL DEFAULT '',
					shipping_country TEXT NOT NULL DEFAULT '',
					is_paid BOOLEAN NOT NULL DEFAULT FALSE,
					paid_at TIMESTAMPTZ,
					is_delivered BOOLEAN NOT NULL DEFAULT FALSE,
					delivered_at TIMESTAMPTZ,
					stripe_session_id TEXT,
					payment_intent_id TEXT,
					created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
				)`,
		},
		{
			name: "orders user index",
			sql:  `CREATE INDEX IF NOT EXISTS idx_orders_user_id ON orders(user_id)`,
		},
		{
			name: "designs",
			sql: `
				CREATE TABLE IF NOT EXISTS designs (
					id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
					user_id UUID NOT NULL REFERENCES users(id),
					product_id UUID NOT NULL REFERENCES products(id),
					name TEXT NOT NULL,
					preview TEXT NOT NULL DEFAULT '',
					placements JSONB NOT NULL DEFAULT '[]',
					status TEXT NOT NULL DEFAULT 'draft',
					review_note TEXT NOT NULL DEFAULT '',
					created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
					updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
				)`,
		},
		{
			name: "notifications",
			sql: `
				CREATE TABLE IF NOT EXISTS notifications (
					id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
					user_id UUID NOT NULL REFERENCES users(id),
					type TEXT NOT NULL,
					title TEXT NOT NULL,
					message TEXT NOT NULL,
					order_id UUID,
					design_id UUID,
					read BOOLEAN NOT NULL DEFAULT FALSE,
					created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
				)`,
		},
		{
			name: "notifications user index",
			sql:  `CREATE INDEX IF NOT EXISTS idx_notifications_user_id ON notifications(user_id)`,
		},
	}

	for _, stmt := range statements {
		if _, err := pool.Exec(ctx, stmt.sql); err != nil {
			return fmt.Errorf("failed to create %s: %w", stmt.name, err)
		}
	}

	return nil
}
