package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/paperflow/paperflow-backend/internal/model"
)

// LayoutRepository stores the single immutable exam layout snapshot.
type LayoutRepository struct {
	pool *pgxpool.Pool
}

// NewLayoutRepository creates a new LayoutRepository.
func NewLayoutRepository(pool *pgxpool.Pool) *LayoutRepository {
	return &LayoutRepository{pool: pool}
}

// Get loads the exam layout. Returns pgx.ErrNoRows if no layout has
// been installed yet.
func (r *LayoutRepository) Get(ctx context.Context) (model.Layout, error) {
	var raw []byte
	if err := r.pool.QueryRow(ctx, `SELECT layout FROM exam_layout WHERE only_row`).Scan(&raw); err != nil {
		return model.Layout{}, err
	}
	var layout model.Layout
	if err := json.Unmarshal(raw, &layout); err != nil {
		return model.Layout{}, fmt.Errorf("decode layout: %w", err)
	}
	return layout, nil
}

// Save installs the exam layout. Installing twice replaces the snapshot;
// callers must only do this before papers are built.
func (r *LayoutRepository) Save(ctx context.Context, layout model.Layout) error {
	raw, err := json.Marshal(layout)
	if err != nil {
		return fmt.Errorf("encode layout: %w", err)
	}
	_, err = r.pool.Exec(ctx,
		`INSERT INTO exam_layout (only_row, layout)
		 VALUES (TRUE, $1)
		 ON CONFLICT (only_row) DO UPDATE SET layout = EXCLUDED.layout`,
		raw)
	return err
}
