package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/paperflow/paperflow-backend/internal/model"
)

// ErrSlotOccupied is returned when a slot assignment finds the slot
// already owned. Collision resolution should have prevented this, so
// callers treat it as an internal invariant violation.
var ErrSlotOccupied = errors.New("fixed slot is already occupied")

// ErrSlotMissing is returned when a slot assignment targets a
// (paper, page) pair that was never built.
var ErrSlotMissing = errors.New("fixed slot does not exist")

// ErrPageRetired is returned when a slot assignment finds the page no
// longer KNOWN: a collision resolution discarded it between the
// readiness check and the assignment. Push skips the page.
var ErrPageRetired = errors.New("page was discarded before assignment")

// PaperRepository handles paper, fixed-slot and mobile-page data access.
type PaperRepository struct {
	pool *pgxpool.Pool
}

// NewPaperRepository creates a new PaperRepository.
func NewPaperRepository(pool *pgxpool.Pool) *PaperRepository {
	return &PaperRepository{pool: pool}
}

// Begin opens a transaction on the underlying pool. Push uses this so
// every slot assignment of one bundle commits or rolls back together.
func (r *PaperRepository) Begin(ctx context.Context) (pgx.Tx, error) {
	return r.pool.Begin(ctx)
}

// BuildPapers creates papers 1..count with their fixed slots from the
// layout. Page versions cycle per paper so multi-version exams spread
// evenly. Idempotent: existing papers are left alone.
func (r *PaperRepository) BuildPapers(ctx context.Context, layout model.Layout, count int) (int, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	created := 0
	for n := 1; n <= count; n++ {
		tag, err := tx.Exec(ctx,
			`INSERT INTO papers (paper_number) VALUES ($1) ON CONFLICT DO NOTHING`, n)
		if err != nil {
			return 0, fmt.Errorf("insert paper %d: %w", n, err)
		}
		if tag.RowsAffected() == 0 {
			continue
		}
		created++
		version := (n-1)%layout.Versions + 1
		for page := 1; page <= layout.Pages; page++ {
			kind, qidx := layout.PageKind(page)
			var q *int
			if kind == model.SlotKindQuestion {
				q = &qidx
			}
			_, err := tx.Exec(ctx,
				`INSERT INTO fixed_slots (paper_number, page_number, kind, question_idx, version)
				 VALUES ($1, $2, $3, $4, $5)`,
				n, page, kind, q, version)
			if err != nil {
				return 0, fmt.Errorf("insert slot %d/%d: %w", n, page, err)
			}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	return created, nil
}

// Exists reports whether a paper was built.
func (r *PaperRepository) Exists(ctx context.Context, paperNumber int) (bool, error) {
	var ok bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM papers WHERE paper_number = $1)`, paperNumber).Scan(&ok)
	return ok, err
}

// LockPapers acquires row locks on the given papers in ascending
// paper-number order. Every multi-paper mutation goes through this so
// two concurrent pushes touching overlapping papers cannot deadlock.
func (r *PaperRepository) LockPapers(ctx context.Context, tx pgx.Tx, paperNumbers []int) error {
	rows, err := tx.Query(ctx,
		`SELECT paper_number FROM papers
		 WHERE paper_number = ANY($1)
		 ORDER BY paper_number
		 FOR UPDATE`, paperNumbers)
	if err != nil {
		return err
	}
	defer rows.Close()

	locked := 0
	for rows.Next() {
		var n int
		if err := rows.Scan(&n); err != nil {
			return err
		}
		locked++
	}
	if err := rows.Err(); err != nil {
		return err
	}
	if locked != len(paperNumbers) {
		return fmt.Errorf("locked %d of %d papers: some papers were never built", locked, len(paperNumbers))
	}
	return nil
}

// AssignSlot gives a fixed slot to a page within the push transaction.
// The page must still be KNOWN when the transaction takes the slot row:
// a resolution committed mid-push retires pages out from under us, and
// a retired page must not land. Fails with ErrSlotOccupied,
// ErrSlotMissing or ErrPageRetired rather than overwriting.
func (r *PaperRepository) AssignSlot(ctx context.Context, tx pgx.Tx, paper, page int, pageID uuid.UUID) error {
	tag, err := tx.Exec(ctx,
		`UPDATE fixed_slots fs SET page_id = $3
		 FROM pages p
		 WHERE fs.paper_number = $1 AND fs.page_number = $2 AND fs.page_id IS NULL
		   AND p.id = $3 AND p.status = 'KNOWN'`,
		paper, page, pageID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 1 {
		return nil
	}
	var occupied bool
	err = tx.QueryRow(ctx,
		`SELECT page_id IS NOT NULL FROM fixed_slots WHERE paper_number = $1 AND page_number = $2`,
		paper, page).Scan(&occupied)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrSlotMissing
	}
	if err != nil {
		return err
	}
	if occupied {
		return ErrSlotOccupied
	}
	return ErrPageRetired
}

// InsertMobilePage attaches an extra page to one question of a paper
// within the push transaction.
func (r *PaperRepository) InsertMobilePage(ctx context.Context, tx pgx.Tx, paper, questionIdx, version int, pageID uuid.UUID) error {
	_, err := tx.Exec(ctx,
		`INSERT INTO mobile_pages (paper_number, question_idx, version, page_id)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT DO NOTHING`,
		paper, questionIdx, version, pageID)
	return err
}

// QuestionVersion returns the version of a question on a paper, derived
// from its fixed slots (1 for questions with no fixed pages).
func (r *PaperRepository) QuestionVersion(ctx context.Context, paper, questionIdx int) (int, error) {
	var version int
	err := r.pool.QueryRow(ctx,
		`SELECT COALESCE(MIN(version), 1) FROM fixed_slots
		 WHERE paper_number = $1 AND question_idx = $2`,
		paper, questionIdx).Scan(&version)
	return version, err
}

// ClearSlotByPage vacates whatever slot a page owns and returns the
// affected paper number, or (0, nil) if the page owned no slot. Runs in
// the caller's transaction so the slot row lock serializes resolution
// against a concurrent push of the same paper.
func (r *PaperRepository) ClearSlotByPage(ctx context.Context, tx pgx.Tx, pageID uuid.UUID) (int, error) {
	var paper int
	err := tx.QueryRow(ctx,
		`UPDATE fixed_slots SET page_id = NULL
		 WHERE page_id = $1
		 RETURNING paper_number`, pageID).Scan(&paper)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return paper, nil
}

// IsComplete recomputes paper completeness: every fixed slot occupied.
// Never cached; the page graph changes underneath us across pushes.
func (r *PaperRepository) IsComplete(ctx context.Context, paperNumber int) (bool, error) {
	var complete bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM papers WHERE paper_number = $1)
		        AND NOT EXISTS (
		            SELECT 1 FROM fixed_slots
		            WHERE paper_number = $1 AND page_id IS NULL
		        )`, paperNumber).Scan(&complete)
	return complete, err
}

// IDSlotFilled reports whether the paper's ID page has been scanned.
func (r *PaperRepository) IDSlotFilled(ctx context.Context, paperNumber int) (bool, error) {
	var filled bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (
		     SELECT 1 FROM fixed_slots
		     WHERE paper_number = $1 AND kind = 'ID' AND page_id IS NOT NULL
		 )`, paperNumber).Scan(&filled)
	return filled, err
}

// GetState assembles the full slot/extra view of one paper.
func (r *PaperRepository) GetState(ctx context.Context, paperNumber int) (*model.PaperState, error) {
	state := &model.PaperState{}
	err := r.pool.QueryRow(ctx,
		`SELECT paper_number, created_at FROM papers WHERE paper_number = $1`,
		paperNumber).Scan(&state.Paper.PaperNumber, &state.Paper.CreatedAt)
	if err != nil {
		return nil, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT fs.paper_number, fs.page_number, fs.kind, fs.question_idx, fs.version,
		        fs.page_id, COALESCE(p.image_ref, '')
		 FROM fixed_slots fs
		 LEFT JOIN pages p ON p.id = fs.page_id
		 WHERE fs.paper_number = $1
		 ORDER BY fs.page_number`, paperNumber)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	complete := true
	for rows.Next() {
		var s model.FixedSlot
		if err := rows.Scan(&s.PaperNumber, &s.PageNumber, &s.Kind, &s.QuestionIdx,
			&s.Version, &s.PageID, &s.ImageRef); err != nil {
			return nil, err
		}
		if s.PageID == nil {
			complete = false
		}
		state.Slots = append(state.Slots, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	state.IsComplete = complete && len(state.Slots) > 0

	mrows, err := r.pool.Query(ctx,
		`SELECT mp.id, mp.paper_number, mp.question_idx, mp.version, mp.page_id,
		        COALESCE(p.image_ref, '')
		 FROM mobile_pages mp
		 LEFT JOIN pages p ON p.id = mp.page_id
		 WHERE mp.paper_number = $1
		 ORDER BY mp.question_idx, mp.id`, paperNumber)
	if err != nil {
		return nil, err
	}
	defer mrows.Close()

	for mrows.Next() {
		var m model.MobilePage
		if err := mrows.Scan(&m.ID, &m.PaperNumber, &m.QuestionIdx, &m.Version,
			&m.PageID, &m.ImageRef); err != nil {
			return nil, err
		}
		state.Extras = append(state.Extras, m)
	}
	return state, mrows.Err()
}

// PaperSummary is one row of the papers listing.
type PaperSummary struct {
	PaperNumber int  `json:"paper_number"`
	Expected    int  `json:"expected"`
	Scanned     int  `json:"scanned"`
	Extras      int  `json:"extras"`
	IsComplete  bool `json:"is_complete"`
}

// ListSummaries returns scan progress for every built paper.
func (r *PaperRepository) ListSummaries(ctx context.Context) ([]PaperSummary, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT pa.paper_number,
		        COUNT(fs.page_number),
		        COUNT(fs.page_id),
		        (SELECT COUNT(*) FROM mobile_pages mp WHERE mp.paper_number = pa.paper_number),
		        COUNT(fs.page_number) > 0 AND COUNT(fs.page_number) = COUNT(fs.page_id)
		 FROM papers pa
		 LEFT JOIN fixed_slots fs ON fs.paper_number = pa.paper_number
		 GROUP BY pa.paper_number
		 ORDER BY pa.paper_number`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var summaries []PaperSummary
	for rows.Next() {
		var s PaperSummary
		if err := rows.Scan(&s.PaperNumber, &s.Expected, &s.Scanned, &s.Extras, &s.IsComplete); err != nil {
			return nil, err
		}
		summaries = append(summaries, s)
	}
	return summaries, rows.Err()
}

// TaskImages collects the page images a worker needs for one task.
// For marking tasks pass the question's fixed pages plus its index; for
// ID and totalling tasks pass the full page list and questionIdx 0.
func (r *PaperRepository) TaskImages(ctx context.Context, paperNumber int, pageNumbers []int, questionIdx int) ([]model.TaskImage, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT p.image_ref, fs.page_number, p.rotation
		 FROM fixed_slots fs
		 JOIN pages p ON p.id = fs.page_id
		 WHERE fs.paper_number = $1 AND fs.page_number = ANY($2)
		 ORDER BY fs.page_number`, paperNumber, pageNumbers)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var images []model.TaskImage
	for rows.Next() {
		var img model.TaskImage
		img.PageNumber = new(int)
		if err := rows.Scan(&img.ImageRef, img.PageNumber, &img.Rotation); err != nil {
			return nil, err
		}
		images = append(images, img)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if questionIdx > 0 {
		mrows, err := r.pool.Query(ctx,
			`SELECT p.image_ref, p.rotation
			 FROM mobile_pages mp
			 JOIN pages p ON p.id = mp.page_id
			 WHERE mp.paper_number = $1 AND mp.question_idx = $2
			 ORDER BY mp.id`, paperNumber, questionIdx)
		if err != nil {
			return nil, err
		}
		defer mrows.Close()

		for mrows.Next() {
			img := model.TaskImage{Extra: true}
			if err := mrows.Scan(&img.ImageRef, &img.Rotation); err != nil {
				return nil, err
			}
			images = append(images, img)
		}
		if err := mrows.Err(); err != nil {
			return nil, err
		}
	}
	return images, nil
}
