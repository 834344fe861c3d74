package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/paperflow/paperflow-backend/internal/model"
)

const collisionColumns = `id, bundle_id, paper_number, page_number, incoming_page_id,
	existing_page_id, status, resolution, resolved_by, resolved_at, created_at`

// CollisionRepository handles collision record data access.
type CollisionRepository struct {
	pool *pgxpool.Pool
}

// NewCollisionRepository creates a new CollisionRepository.
func NewCollisionRepository(pool *pgxpool.Pool) *CollisionRepository {
	return &CollisionRepository{pool: pool}
}

func scanCollision(row pgx.Row) (*model.Collision, error) {
	var c model.Collision
	err := row.Scan(&c.ID, &c.BundleID, &c.PaperNumber, &c.PageNumber,
		&c.IncomingPageID, &c.ExistingPageID, &c.Status, &c.Resolution,
		&c.ResolvedBy, &c.ResolvedAt, &c.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// Create records a collision between an incoming page and the page
// already holding the target slot. Re-reading a bundle's QR codes hits
// the same pair again; ON CONFLICT keeps that idempotent.
func (r *CollisionRepository) Create(ctx context.Context, c *model.Collision) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO collisions (id, bundle_id, paper_number, page_number, incoming_page_id, existing_page_id)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (incoming_page_id, existing_page_id) DO NOTHING`,
		c.ID, c.BundleID, c.PaperNumber, c.PageNumber, c.IncomingPageID, c.ExistingPageID)
	return err
}

// GetByID returns one collision, or nil if it does not exist.
func (r *CollisionRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Collision, error) {
	c, err := scanCollision(r.pool.QueryRow(ctx,
		`SELECT `+collisionColumns+` FROM collisions WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return c, err
}

// ListByBundle returns every collision involving a bundle's pages,
// open ones first.
func (r *CollisionRepository) ListByBundle(ctx context.Context, bundleID uuid.UUID) ([]model.Collision, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+collisionColumns+` FROM collisions
		 WHERE bundle_id = $1
		 ORDER BY status DESC, created_at`, bundleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var collisions []model.Collision
	for rows.Next() {
		c, err := scanCollision(rows)
		if err != nil {
			return nil, err
		}
		collisions = append(collisions, *c)
	}
	return collisions, rows.Err()
}

// CountOpen returns how many unresolved collisions block a bundle.
func (r *CollisionRepository) CountOpen(ctx context.Context, bundleID uuid.UUID) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM collisions WHERE bundle_id = $1 AND status = 'OPEN'`,
		bundleID).Scan(&count)
	return count, err
}

// Resolve closes an open collision with the chosen resolution, inside
// the caller's transaction so the losing page retires in the same
// commit. Returns false when the collision was already resolved, so a
// repeated request becomes a no-op instead of an error.
func (r *CollisionRepository) Resolve(ctx context.Context, tx pgx.Tx, id uuid.UUID, resolution model.CollisionResolution, resolvedBy int) (bool, error) {
	tag, err := tx.Exec(ctx,
		`UPDATE collisions
		 SET status = 'RESOLVED', resolution = $2, resolved_by = $3, resolved_at = NOW()
		 WHERE id = $1 AND status = 'OPEN'`,
		id, resolution, resolvedBy)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// ResolvedWith reports the resolution of an already-closed collision,
// used to answer idempotent retries.
func (r *CollisionRepository) ResolvedWith(ctx context.Context, id uuid.UUID) (*model.CollisionResolution, error) {
	var res *model.CollisionResolution
	err := r.pool.QueryRow(ctx,
		`SELECT resolution FROM collisions WHERE id = $1 AND status = 'RESOLVED'`, id).Scan(&res)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return res, err
}
