package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/paperflow/paperflow-backend/internal/model"
)

const taskColumns = `id, kind, paper_number, question_idx, state, out_of_date, priority,
	owner, claim_token, claimed_at, result, completed_at, created_at, updated_at`

// TaskRepository is the task ledger. Every state transition is a single
// guarded UPDATE whose WHERE clause re-checks the expected current
// state, so two racing callers can never both win.
//
// question_idx is stored as 0 for ID and totalling tasks to keep the
// (kind, paper_number, question_idx) uniqueness key simple; the model
// maps 0 back to a nil pointer.
type TaskRepository struct {
	pool *pgxpool.Pool
}

// NewTaskRepository creates a new TaskRepository.
func NewTaskRepository(pool *pgxpool.Pool) *TaskRepository {
	return &TaskRepository{pool: pool}
}

func scanTask(row pgx.Row) (*model.Task, error) {
	var t model.Task
	var questionIdx int
	var result []byte
	err := row.Scan(&t.ID, &t.Kind, &t.PaperNumber, &questionIdx, &t.State,
		&t.OutOfDate, &t.Priority, &t.Owner, &t.ClaimToken, &t.ClaimedAt,
		&result, &t.CompletedAt, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if questionIdx > 0 {
		t.QuestionIdx = &questionIdx
	}
	if len(result) > 0 {
		t.Result = json.RawMessage(result)
	}
	return &t, nil
}

func dbQuestionIdx(questionIdx *int) int {
	if questionIdx == nil {
		return 0
	}
	return *questionIdx
}

// Ensure creates a task if it does not exist yet, and reinstates it if
// a previous page change had flagged it out-of-date. Safe to call every
// time a paper is re-evaluated.
func (r *TaskRepository) Ensure(ctx context.Context, kind model.TaskKind, paperNumber int, questionIdx *int, priority float64) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO tasks (id, kind, paper_number, question_idx, priority)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (kind, paper_number, question_idx) DO UPDATE
		 SET out_of_date = FALSE, updated_at = NOW()
		 WHERE tasks.out_of_date`,
		uuid.New(), kind, paperNumber, dbQuestionIdx(questionIdx), priority)
	return err
}

// GetByID returns one task, or nil if it does not exist.
func (r *TaskRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Task, error) {
	t, err := scanTask(r.pool.QueryRow(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return t, err
}

// ListAvailable returns claimable tasks of one kind, highest priority
// first, ties broken by paper then question for a stable order.
func (r *TaskRepository) ListAvailable(ctx context.Context, kind model.TaskKind, limit int) ([]model.Task, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+taskColumns+` FROM tasks
		 WHERE kind = $1 AND state = 'AVAILABLE' AND NOT out_of_date
		 ORDER BY priority DESC, paper_number, question_idx
		 LIMIT $2`, kind, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tasks []model.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, *t)
	}
	return tasks, rows.Err()
}

// ListByPaper returns every task of one paper regardless of state.
func (r *TaskRepository) ListByPaper(ctx context.Context, paperNumber int) ([]model.Task, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+taskColumns+` FROM tasks
		 WHERE paper_number = $1
		 ORDER BY kind, question_idx`, paperNumber)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tasks []model.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, *t)
	}
	return tasks, rows.Err()
}

// Claim attempts the AVAILABLE -> CLAIMED transition. Returns false
// when another worker already holds the task or it went out-of-date
// between listing and claiming.
func (r *TaskRepository) Claim(ctx context.Context, id uuid.UUID, owner, claimToken string) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE tasks
		 SET state = 'CLAIMED', owner = $2, claim_token = $3, claimed_at = NOW(), updated_at = NOW()
		 WHERE id = $1 AND state = 'AVAILABLE' AND NOT out_of_date`,
		id, owner, claimToken)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// Unclaim surrenders a claim. The token guard means a stale holder
// whose claim was swept (and possibly re-issued) cannot release the
// new holder's claim.
func (r *TaskRepository) Unclaim(ctx context.Context, id uuid.UUID, claimToken string) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE tasks
		 SET state = 'AVAILABLE', owner = NULL, claim_token = NULL, claimed_at = NULL, updated_at = NOW()
		 WHERE id = $1 AND state = 'CLAIMED' AND claim_token = $2`,
		id, claimToken)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// Complete records a result under the same token guard as Unclaim.
func (r *TaskRepository) Complete(ctx context.Context, id uuid.UUID, claimToken string, result json.RawMessage) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE tasks
		 SET state = 'COMPLETE', result = $3, completed_at = NOW(), updated_at = NOW()
		 WHERE id = $1 AND state = 'CLAIMED' AND claim_token = $2`,
		id, claimToken, []byte(result))
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// SweepExpired releases claims older than the timeout and returns the
// freed task IDs. The expired holder's token dies with the claim.
func (r *TaskRepository) SweepExpired(ctx context.Context, timeout time.Duration) ([]uuid.UUID, error) {
	rows, err := r.pool.Query(ctx,
		`UPDATE tasks
		 SET state = 'AVAILABLE', owner = NULL, claim_token = NULL, claimed_at = NULL, updated_at = NOW()
		 WHERE state = 'CLAIMED' AND claimed_at < NOW() - make_interval(secs => $1)
		 RETURNING id`, timeout.Seconds())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var freed []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		freed = append(freed, id)
	}
	return freed, rows.Err()
}

// FlagPaperOutOfDate marks every task of a paper out-of-date after the
// paper lost a page, force-releasing any active claims. Completed tasks
// keep their result and owner for the audit trail.
func (r *TaskRepository) FlagPaperOutOfDate(ctx context.Context, paperNumber int) (int, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE tasks
		 SET out_of_date = TRUE,
		     state = CASE WHEN state = 'CLAIMED' THEN 'AVAILABLE' ELSE state END,
		     owner = CASE WHEN state = 'CLAIMED' THEN NULL ELSE owner END,
		     claim_token = CASE WHEN state = 'CLAIMED' THEN NULL ELSE claim_token END,
		     claimed_at = CASE WHEN state = 'CLAIMED' THEN NULL ELSE claimed_at END,
		     updated_at = NOW()
		 WHERE paper_number = $1 AND NOT out_of_date`, paperNumber)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}

// ResetOwner force-releases every claim held by one worker, used when
// an account is disabled.
func (r *TaskRepository) ResetOwner(ctx context.Context, owner string) (int, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE tasks
		 SET state = 'AVAILABLE', owner = NULL, claim_token = NULL, claimed_at = NULL, updated_at = NOW()
		 WHERE state = 'CLAIMED' AND owner = $1`, owner)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}

// Reset force-returns a task to AVAILABLE from any state, dropping the
// claim and any recorded result. Administrative escape hatch for redoing
// a badly completed task.
func (r *TaskRepository) Reset(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE tasks
		 SET state = 'AVAILABLE', owner = NULL, claim_token = NULL, claimed_at = NULL,
		     result = NULL, completed_at = NULL, updated_at = NOW()
		 WHERE id = $1 AND state <> 'AVAILABLE'`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// SetPriority adjusts a task's listing priority.
func (r *TaskRepository) SetPriority(ctx context.Context, id uuid.UUID, priority float64) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE tasks SET priority = $2, updated_at = NOW() WHERE id = $1`, id, priority)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}
