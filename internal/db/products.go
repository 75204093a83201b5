package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/threadforge/threadforge/internal/models"
)

var (
	ErrProductNotFound   = errors.New("product not found")
	ErrProductExists     = errors.New("product slug already exists")
	ErrInsufficientStock = errors.New("insufficient stock")
)

type ProductStore struct {
	pool *pgxpool.Pool
}

func NewProductStore(pool *pgxpool.Pool) *ProductStore {
	return &ProductStore{pool: pool}
}

const productColumns = `id, name, slug, description, category, image, price,
	sizes, colors, stock, is_active, customizable, created_at, updated_at`

func (s *ProductStore) Create(ctx context.Context, p *models.Product) error {
	sizes, colors, err := marshalProductVariants(p)
	if err != nil {
		return err
	}

	row := s.pool.QueryRow(ctx, `
		INSERT INTO products (name, slug, description, category, image, price,
			sizes, colors, stock, is_active, customizable)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id, created_at, updated_at`,
		p.Name, p.Slug, p.Description, p.Category, p.Image, p.Price,
		sizes, colors, p.Stock, p.IsActive, p.Customizable,
	)
	if err := row.Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolationCode {
			return ErrProductExists
		}
		return fmt.Errorf("failed to create product: %w", err)
	}
	return nil
}

func (s *ProductStore) GetByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id)
	return scanProduct(row)
}

func (s *ProductStore) ListActive(ctx context.Context) ([]*models.Product, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+productColumns+` FROM products WHERE is_active ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectProducts(rows)
}

func (s *ProductStore) List(ctx context.Context) ([]*models.Product, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+productColumns+` FROM products ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectProducts(rows)
}

func (s *ProductStore) Update(ctx context.Context, p *models.Product) error {
	sizes, colors, err := marshalProductVariants(p)
	if err != nil {
		return err
	}

	cmdTag, err := s.pool.Exec(ctx, `
		UPDATE products
		SET name = $1, description = $2, category = $3, image = $4, price = $5,
		    sizes = $6, colors = $7, is_active = $8, customizable = $9, updated_at = NOW()
		WHERE id = $10`,
		p.Name, p.Description, p.Category, p.Image, p.Price,
		sizes, colors, p.IsActive, p.Customizable, p.ID,
	)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrProductNotFound
	}
	return nil
}

func (s *ProductStore) Delete(ctx context.Context, id uuid.UUID) error {
	cmdTag, err := s.pool.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrProductNotFound
	}
	return nil
}

// AdjustStock applies a relative stock change with the same floor check used
// during order creation. Positive deltas restock; negative deltas reserve.
func (s *ProductStore) AdjustStock(ctx context.Context, id uuid.UUID, delta int) error {
	cmdTag, err := s.pool.Exec(ctx, `
		UPDATE products SET stock = stock + $1, updated_at = NOW()
		WHERE id = $2 AND stock + $1 >= 0`, delta, id)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("%w: product %s", ErrInsufficientStock, id)
	}
	return nil
}

// decrementStockTx reserves stock inside an order transaction. The WHERE
// clause carries the floor check, so the decrement is atomic and never
// drives stock negative under concurrent checkouts.
func decrementStockTx(ctx context.Context, tx pgx.Tx, productID uuid.UUID, quantity int) error {
	cmdTag, err := tx.Exec(ctx, `
		UPDATE products SET stock = stock - $1, updated_at = NOW()
		WHERE id = $2 AND stock >= $1`, quantity, productID)
	if err != nil {
		return fmt.Errorf("failed to decrement stock: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("%w: product %s", ErrInsufficientStock, productID)
	}
	return nil
}

func restoreStockTx(ctx context.Context, tx pgx.Tx, productID uuid.UUID, quantity int) error {
	_, err := tx.Exec(ctx, `
		UPDATE products SET stock = stock + $1, updated_at = NOW()
		WHERE id = $2`, quantity, productID)
	if err != nil {
		return fmt.Errorf("failed to restore stock: %w", err)
	}
	return nil
}

func collectProducts(rows pgx.Rows) ([]*models.Product, error) {
	var products []*models.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return products, nil
}

func scanProduct(row pgx.Row) (*models.Product, error) {
	var (
		p             models.Product
		sizes, colors []byte
	)

	err := row.Scan(
		&p.ID, &p.Name, &p.Slug, &p.Description, &p.Category, &p.Image, &p.Price,
		&sizes, &colors, &p.Stock, &p.IsActive, &p.Customizable, &p.CreatedAt, &p.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(sizes, &p.Sizes); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(colors, &p.Colors); err != nil {
		return nil, err
	}

	return &p, nil
}

func marshalProductVariants(p *models.Product) (sizes, colors []byte, err error) {
	if sizes, err = json.Marshal(emptyIfNilStrings(p.Sizes)); err != nil {
		return nil, nil, err
	}
	if colors, err = json.Marshal(emptyIfNilStrings(p.Colors)); err != nil {
		return nil, nil, err
	}
	return sizes, colors, nil
}
