package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/paperflow/paperflow-backend/internal/model"
)

// BundleRepository handles staging bundle data access.
type BundleRepository struct {
	pool *pgxpool.Pool
}

// NewBundleRepository creates a new BundleRepository.
func NewBundleRepository(pool *pgxpool.Pool) *BundleRepository {
	return &BundleRepository{pool: pool}
}

const bundleColumns = `id, slug, pdf_hash, number_of_pages, has_page_images,
	finished_reading_qr, is_pushed, pushed_at, uploaded_by, created_at, updated_at`

func scanBundle(row pgx.Row) (*model.Bundle, error) {
	b := &model.Bundle{}
	err := row.Scan(&b.ID, &b.Slug, &b.PDFHash, &b.NumberOfPages, &b.HasPageImages,
		&b.FinishedReadingQR, &b.IsPushed, &b.PushedAt, &b.UploadedBy, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return b, nil
}

// CreateWithPages inserts a bundle and all of its unread pages in one
// transaction. Fails if a bundle with the same pdf hash already exists.
func (r *BundleRepository) CreateWithPages(ctx context.Context, b *model.Bundle, pages []model.StagePageRequest) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx,
		`INSERT INTO bundles (slug, pdf_hash, number_of_pages, uploaded_by)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, created_at, updated_at`,
		b.Slug, b.PDFHash, len(pages), b.UploadedBy,
	).Scan(&b.ID, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert bundle: %w", err)
	}
	b.NumberOfPages = len(pages)
	b.HasPageImages = true

	for i, p := range pages {
		var qrJSON []byte
		if p.QR != nil {
			qrJSON, err = json.Marshal(p.QR)
			if err != nil {
				return fmt.Errorf("encode qr data: %w", err)
			}
		}
		_, err = tx.Exec(ctx,
			`INSERT INTO pages (bundle_id, bundle_order, image_ref, qr_data, rotation)
			 VALUES ($1, $2, $3, $4, $5)`,
			b.ID, i+1, p.ImageRef, qrJSON, p.Rotation)
		if err != nil {
			return fmt.Errorf("insert page %d: %w", i+1, err)
		}
	}

	return tx.Commit(ctx)
}

// GetByID retrieves a bundle.
func (r *BundleRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Bundle, error) {
	return scanBundle(r.pool.QueryRow(ctx,
		`SELECT `+bundleColumns+` FROM bundles WHERE id = $1`, id))
}

// GetByHash retrieves a bundle by its pdf hash.
func (r *BundleRepository) GetByHash(ctx context.Context, hash string) (*model.Bundle, error) {
	return scanBundle(r.pool.QueryRow(ctx,
		`SELECT `+bundleColumns+` FROM bundles WHERE pdf_hash = $1`, hash))
}

// List retrieves all bundles, newest first.
func (r *BundleRepository) List(ctx context.Context) ([]model.Bundle, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+bundleColumns+` FROM bundles ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bundles []model.Bundle
	for rows.Next() {
		b, err := scanBundle(rows)
		if err != nil {
			return nil, err
		}
		bundles = append(bundles, *b)
	}
	return bundles, rows.Err()
}

// Counts tallies a bundle's pages by classification.
func (r *BundleRepository) Counts(ctx context.Context, id uuid.UUID) (*model.BundleCounts, error) {
	c := &model.BundleCounts{}
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*),
		        COUNT(*) FILTER (WHERE status = 'UNREAD'),
		        COUNT(*) FILTER (WHERE status = 'KNOWN'),
		        COUNT(*) FILTER (WHERE status = 'UNKNOWN'),
		        COUNT(*) FILTER (WHERE status = 'EXTRA'),
		        COUNT(*) FILTER (WHERE status = 'DISCARD'),
		        COUNT(*) FILTER (WHERE status = 'ERROR'),
		        COUNT(*) FILTER (WHERE status = 'EXTRA' AND paper_number IS NULL)
		 FROM pages WHERE bundle_id = $1`, id,
	).Scan(&c.Total, &c.Unread, &c.Known, &c.Unknown, &c.Extra, &c.Discard, &c.Error, &c.ExtraWithoutData)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// MarkFinishedReadingQR records that the QR-read job for a bundle is done.
func (r *BundleRepository) MarkFinishedReadingQR(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE bundles SET finished_reading_qr = TRUE, updated_at = NOW() WHERE id = $1`, id)
	return err
}

// MarkPushed freezes a bundle inside the push transaction. Returns
// false when the bundle was already pushed, so a double push of the
// same bundle loses cleanly.
func (r *BundleRepository) MarkPushed(ctx context.Context, tx pgx.Tx, id uuid.UUID) (bool, error) {
	tag, err := tx.Exec(ctx,
		`UPDATE bundles SET is_pushed = TRUE, pushed_at = NOW(), updated_at = NOW()
		 WHERE id = $1 AND NOT is_pushed`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// Delete removes an unpushed bundle and (by cascade) all of its staged
// pages and collisions. Returns false if the bundle was already pushed,
// in which case nothing is deleted.
func (r *BundleRepository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM bundles WHERE id = $1 AND NOT is_pushed`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}
