package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/threadforge/threadforge/internal/models"
)

var ErrDesignNotFound = errors.New("design not found")

type DesignStore struct {
	pool *pgxpool.Pool
}

func NewDesignStore(pool *pgxpool.Pool) *DesignStore {
	return &DesignStore{pool: pool}
}

const designColumns = `id, user_id, product_id, name, preview, placements, status, review_note, created_at, updated_at`

func (s *DesignStore) Create(ctx context.Context, d *models.Design) error {
	placements, err := marshalPlacements(d)
	if err != nil {
		return err
	}

	row := s.pool.QueryRow(ctx, `
		INSERT INTO designs (user_id, product_id, name, preview, placements, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at`,
		d.UserID, d.ProductID, d.Name, d.Preview, placements, string(d.Status),
	)
	if err := row.Scan(&d.ID, &d.CreatedAt, &d.UpdatedAt); err != nil {
		return fmt.Errorf("failed to create design: %w", err)
	}
	return nil
}

func (s *DesignStore) GetByID(ctx context.Context, id uuid.UUID) (*models.Design, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+designColumns+` FROM designs WHERE id = $1`, id)
	return scanDesign(row)
}

func (s *DesignStore) ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.Design, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+designColumns+` FROM designs WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectDesigns(rows)
}

func (s *DesignStore) ListByStatus(ctx context.Context, status models.DesignStatus) ([]*models.Design, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+designColumns+` FROM designs WHERE status = $1 ORDER BY created_at`, string(status))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectDesigns(rows)
}

func (s *DesignStore) Update(ctx context.Context, d *models.Design) error {
	placements, err := marshalPlacements(d)
	if err != nil {
		return err
	}

	cmdTag, err := s.pool.Exec(ctx, `
		UPDATE designs
		SET name = $1, preview = $2, placements = $3, updated_at = NOW()
		WHERE id = $4`,
		d.Name, d.Preview, placements, d.ID,
	)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrDesignNotFound
	}
	return nil
}

// SetStatus moves a design through its review flow. The fromStatus guard
// keeps submissions and reviews from racing each other.
func (s *DesignStore) SetStatus(ctx context.Context, id uuid.UUID, from, to models.DesignStatus, reviewNote string) error {
	cmdTag, err := s.pool.Exec(ctx, `
		UPDATE designs
		SET status = $1, review_note = $2, updated_at = NOW()
		WHERE id = $3 AND status = $4`,
		string(to), reviewNote, id, string(from),
	)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("design is not in %s state: %w", from, ErrDesignNotFound)
	}
	return nil
}

func (s *DesignStore) Delete(ctx context.Context, id uuid.UUID) error {
	cmdTag, err := s.pool.Exec(ctx, `DELETE FROM designs WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrDesignNotFound
	}
	return nil
}

func collectDesigns(rows pgx.Rows) ([]*models.Design, error) {
	var designs []*models.Design
	for rows.Next() {
		d, err := scanDesign(rows)
		if err != nil {
			return nil, err
		}
		designs = append(designs, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return designs, nil
}

func scanDesign(row pgx.Row) (*models.Design, error) {
	var (
		d          models.Design
		placements []byte
	)

	err := row.Scan(
		&d.ID, &d.UserID, &d.ProductID, &d.Name, &d.Preview, &placements,
		&d.Status, &d.ReviewNote, &d.CreatedAt, &d.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrDesignNotFound
	}
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(placements, &d.Placements); err != nil {
		return nil, err
	}
	return &d, nil
}

func marshalPlacements(d *models.Design) ([]byte, error) {
	if d.Placements == nil {
		d.Placements = []models.Placement{}
	}
	return json.Marshal(d.Placements)
}
