package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/paperflow/paperflow-backend/internal/model"
)

// execer is the write surface shared by *pgxpool.Pool and pgx.Tx, so
// casts can run standalone or inside a caller-owned transaction.
type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// ErrPageImmutable is returned when a mutation targets a page whose
// bundle has already been pushed, or whose current status does not
// permit the requested cast.
var ErrPageImmutable = errors.New("page cannot be modified in its current state")

// PageRepository handles staged page data access.
type PageRepository struct {
	pool *pgxpool.Pool
}

// NewPageRepository creates a new PageRepository.
func NewPageRepository(pool *pgxpool.Pool) *PageRepository {
	return &PageRepository{pool: pool}
}

const pageColumns = `id, bundle_id, bundle_order, status, image_ref, qr_data, rotation,
	paper_number, page_number, version, question_idx_list, error_reason, discard_reason,
	created_at, updated_at`

func scanPage(row pgx.Row) (*model.Page, error) {
	p := &model.Page{}
	var qidxs []byte
	err := row.Scan(&p.ID, &p.BundleID, &p.BundleOrder, &p.Status, &p.ImageRef, &p.QRData,
		&p.Rotation, &p.PaperNumber, &p.PageNumber, &p.Version, &qidxs,
		&p.ErrorReason, &p.DiscardReason, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if qidxs != nil {
		if err := json.Unmarshal(qidxs, &p.QuestionIdxs); err != nil {
			return nil, fmt.Errorf("decode question idx list: %w", err)
		}
	}
	return p, nil
}

// GetByID retrieves a page.
func (r *PageRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Page, error) {
	return scanPage(r.pool.QueryRow(ctx,
		`SELECT `+pageColumns+` FROM pages WHERE id = $1`, id))
}

// GetByBundleOrder retrieves a page by its position within a bundle.
func (r *PageRepository) GetByBundleOrder(ctx context.Context, bundleID uuid.UUID, order int) (*model.Page, error) {
	return scanPage(r.pool.QueryRow(ctx,
		`SELECT `+pageColumns+` FROM pages WHERE bundle_id = $1 AND bundle_order = $2`,
		bundleID, order))
}

// ListByBundle retrieves all pages of a bundle in scan order.
func (r *PageRepository) ListByBundle(ctx context.Context, bundleID uuid.UUID) ([]model.Page, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+pageColumns+` FROM pages WHERE bundle_id = $1 ORDER BY bundle_order`,
		bundleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var pages []model.Page
	for rows.Next() {
		p, err := scanPage(rows)
		if err != nil {
			return nil, err
		}
		pages = append(pages, *p)
	}
	return pages, rows.Err()
}

// SetClassification stores a classifier verdict on a page. Used by the
// QR-read worker; refuses to touch pages of a pushed bundle.
func (r *PageRepository) SetClassification(ctx context.Context, id uuid.UUID, res ClassificationUpdate) error {
	var qidxs []byte
	if res.QuestionIdxs != nil {
		var err error
		qidxs, err = json.Marshal(res.QuestionIdxs)
		if err != nil {
			return fmt.Errorf("encode question idx list: %w", err)
		}
	}
	tag, err := r.pool.Exec(ctx,
		`UPDATE pages p
		 SET status = $2, paper_number = $3, page_number = $4, version = $5,
		     question_idx_list = $6, error_reason = $7, discard_reason = $8,
		     updated_at = NOW()
		 FROM bundles b
		 WHERE p.id = $1 AND b.id = p.bundle_id AND NOT b.is_pushed`,
		id, res.Status, res.PaperNumber, res.PageNumber, res.Version,
		qidxs, res.ErrorReason, res.DiscardReason)
	if err != nil {
		return err
	}
	if tag.RowsAffected() != 1 {
		return ErrPageImmutable
	}
	return nil
}

// ClassificationUpdate carries the full classification state written to
// a page in one update.
type ClassificationUpdate struct {
	Status        model.PageStatus
	PaperNumber   *int
	PageNumber    *int
	Version       *int
	QuestionIdxs  []int
	ErrorReason   string
	DiscardReason string
}

// CastDiscard casts a staged page to DISCARD. Allowed from any
// non-discard status while the bundle is staged.
func (r *PageRepository) CastDiscard(ctx context.Context, id uuid.UUID, reason string) error {
	return r.castDiscard(ctx, r.pool, id, reason)
}

// CastDiscardTx is CastDiscard inside a caller-owned transaction.
// Collision resolution uses it so the record close and the loser's
// retirement commit together.
func (r *PageRepository) CastDiscardTx(ctx context.Context, tx pgx.Tx, id uuid.UUID, reason string) error {
	return r.castDiscard(ctx, tx, id, reason)
}

func (r *PageRepository) castDiscard(ctx context.Context, db execer, id uuid.UUID, reason string) error {
	return r.castOn(ctx, db, id, ClassificationUpdate{
		Status:        model.PageStatusDiscard,
		DiscardReason: reason,
	}, []model.PageStatus{model.PageStatusUnread, model.PageStatusKnown, model.PageStatusUnknown,
		model.PageStatusExtra, model.PageStatusError})
}

// CastKnown casts a staged page to KNOWN at an explicit slot (operator
// override, including forgiving an ERROR page).
func (r *PageRepository) CastKnown(ctx context.Context, id uuid.UUID, paper, page, version int) error {
	return r.cast(ctx, id, ClassificationUpdate{
		Status:      model.PageStatusKnown,
		PaperNumber: &paper,
		PageNumber:  &page,
		Version:     &version,
	}, []model.PageStatus{model.PageStatusUnread, model.PageStatusUnknown,
		model.PageStatusDiscard, model.PageStatusError, model.PageStatusExtra})
}

// CastExtra casts a staged page to EXTRA with paper/question data.
func (r *PageRepository) CastExtra(ctx context.Context, id uuid.UUID, paper int, questionIdxs []int) error {
	return r.cast(ctx, id, ClassificationUpdate{
		Status:       model.PageStatusExtra,
		PaperNumber:  &paper,
		QuestionIdxs: questionIdxs,
	}, []model.PageStatus{model.PageStatusUnread, model.PageStatusKnown, model.PageStatusUnknown,
		model.PageStatusDiscard, model.PageStatusError, model.PageStatusExtra})
}

// CastUnknown strips a staged page back to UNKNOWN for manual triage.
func (r *PageRepository) CastUnknown(ctx context.Context, id uuid.UUID) error {
	return r.cast(ctx, id, ClassificationUpdate{Status: model.PageStatusUnknown},
		[]model.PageStatus{model.PageStatusKnown, model.PageStatusExtra,
			model.PageStatusDiscard, model.PageStatusError})
}

func (r *PageRepository) cast(ctx context.Context, id uuid.UUID, res ClassificationUpdate, from []model.PageStatus) error {
	return r.castOn(ctx, r.pool, id, res, from)
}

func (r *PageRepository) castOn(ctx context.Context, db execer, id uuid.UUID, res ClassificationUpdate, from []model.PageStatus) error {
	var qidxs []byte
	if res.QuestionIdxs != nil {
		var err error
		qidxs, err = json.Marshal(res.QuestionIdxs)
		if err != nil {
			return fmt.Errorf("encode question idx list: %w", err)
		}
	}
	allowed := make([]string, len(from))
	for i, s := range from {
		allowed[i] = string(s)
	}
	tag, err := db.Exec(ctx,
		`UPDATE pages p
		 SET status = $2, paper_number = $3, page_number = $4, version = $5,
		     question_idx_list = $6, error_reason = '', discard_reason = $7,
		     updated_at = NOW()
		 FROM bundles b
		 WHERE p.id = $1 AND p.status = ANY($8)
		   AND b.id = p.bundle_id AND NOT b.is_pushed`,
		id, res.Status, res.PaperNumber, res.PageNumber, res.Version,
		qidxs, res.DiscardReason, allowed)
	if err != nil {
		return err
	}
	if tag.RowsAffected() != 1 {
		return ErrPageImmutable
	}
	return nil
}

// DiscardCommitted casts an already-pushed page to DISCARD. This is the
// one mutation allowed past the pushed-bundle guard: resolving a
// collision in favour of the incoming page must retire the committed
// owner. Runs in the resolution transaction; the caller vacates the
// slot and flags the paper's tasks.
func (r *PageRepository) DiscardCommitted(ctx context.Context, tx pgx.Tx, id uuid.UUID, reason string) error {
	tag, err := tx.Exec(ctx,
		`UPDATE pages
		 SET status = 'DISCARD', discard_reason = $2, updated_at = NOW()
		 WHERE id = $1 AND status = 'KNOWN'`,
		id, reason)
	if err != nil {
		return err
	}
	if tag.RowsAffected() != 1 {
		return ErrPageImmutable
	}
	return nil
}

// FindCommittedSlotPage returns the pushed page currently owning a
// fixed slot, or nil if the slot is vacant.
func (r *PageRepository) FindCommittedSlotPage(ctx context.Context, paper, page int) (*model.Page, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+prefixedPageColumns("p")+`
		 FROM pages p
		 JOIN fixed_slots fs ON fs.page_id = p.id
		 WHERE fs.paper_number = $1 AND fs.page_number = $2`,
		paper, page)
	p, err := scanPage(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

// FindStagedKnown returns KNOWN pages of unpushed bundles targeting the
// given slot, excluding excludeID. Used for in-flight collision checks.
func (r *PageRepository) FindStagedKnown(ctx context.Context, paper, page int, excludeID uuid.UUID) ([]model.Page, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+prefixedPageColumns("p")+`
		 FROM pages p
		 JOIN bundles b ON b.id = p.bundle_id
		 WHERE p.status = 'KNOWN' AND p.paper_number = $1 AND p.page_number = $2
		   AND p.id <> $3 AND NOT b.is_pushed
		 ORDER BY p.created_at`,
		paper, page, excludeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var pages []model.Page
	for rows.Next() {
		p, err := scanPage(rows)
		if err != nil {
			return nil, err
		}
		pages = append(pages, *p)
	}
	return pages, rows.Err()
}

func prefixedPageColumns(alias string) string {
	return alias + `.id, ` + alias + `.bundle_id, ` + alias + `.bundle_order, ` +
		alias + `.status, ` + alias + `.image_ref, ` + alias + `.qr_data, ` +
		alias + `.rotation, ` + alias + `.paper_number, ` + alias + `.page_number, ` +
		alias + `.version, ` + alias + `.question_idx_list, ` + alias + `.error_reason, ` +
		alias + `.discard_reason, ` + alias + `.created_at, ` + alias + `.updated_at`
}
