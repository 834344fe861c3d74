package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/paperflow/paperflow-backend/internal/model"
	"github.com/paperflow/paperflow-backend/internal/repository"
	"github.com/rs/zerolog"
)

// Common task errors.
var (
	ErrTaskNotFound = errors.New("task not found")
	// ErrClaimLost fires when a claim attempt loses the race for an
	// existing task. The worker just picks another one.
	ErrClaimLost = errors.New("task claim was not acquired")
	// ErrInvalidToken fires when an unclaim or completion presents a
	// token that no longer matches the active claim, including claims
	// already swept and re-issued. The worker must re-claim.
	ErrInvalidToken = errors.New("claim token does not match the active claim")
)

// TaskStore is the persistence surface of the task ledger.
// *repository.TaskRepository is the production implementation; tests
// substitute an in-memory one.
type TaskStore interface {
	Ensure(ctx context.Context, kind model.TaskKind, paperNumber int, questionIdx *int, priority float64) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Task, error)
	ListAvailable(ctx context.Context, kind model.TaskKind, limit int) ([]model.Task, error)
	ListByPaper(ctx context.Context, paperNumber int) ([]model.Task, error)
	Claim(ctx context.Context, id uuid.UUID, owner, claimToken string) (bool, error)
	Unclaim(ctx context.Context, id uuid.UUID, claimToken string) (bool, error)
	Complete(ctx context.Context, id uuid.UUID, claimToken string, result json.RawMessage) (bool, error)
	SweepExpired(ctx context.Context, timeout time.Duration) ([]uuid.UUID, error)
	FlagPaperOutOfDate(ctx context.Context, paperNumber int) (int, error)
	ResetOwner(ctx context.Context, owner string) (int, error)
	Reset(ctx context.Context, id uuid.UUID) (bool, error)
	SetPriority(ctx context.Context, id uuid.UUID, priority float64) (bool, error)
}

// PaperReader is the slice of paper state the ledger consults when
// deciding eligibility and assembling claim payloads.
type PaperReader interface {
	IsComplete(ctx context.Context, paperNumber int) (bool, error)
	IDSlotFilled(ctx context.Context, paperNumber int) (bool, error)
	TaskImages(ctx context.Context, paperNumber int, pageNumbers []int, questionIdx int) ([]model.TaskImage, error)
}

// PredictionReader supplies ranked ID predictions for claim payloads.
type PredictionReader interface {
	ListByPaper(ctx context.Context, paperNumber int) ([]model.IDPrediction, error)
}

// LayoutProvider hands out the current exam layout snapshot.
// *LayoutService is the production implementation.
type LayoutProvider interface {
	Get(ctx context.Context) (*model.Layout, error)
}

// TaskService is the task ledger: it derives which tasks a paper is
// eligible for, hands out claims, and takes results. All claim-state
// races are settled by the store's guarded transitions; the service
// only maps lost races to errors.
type TaskService struct {
	store       TaskStore
	papers      PaperReader
	predictions PredictionReader
	layouts     LayoutProvider
	log         zerolog.Logger
}

// NewTaskService creates a new TaskService.
func NewTaskService(store TaskStore, papers PaperReader, predictions PredictionReader, layouts LayoutProvider, log zerolog.Logger) *TaskService {
	return &TaskService{
		store:       store,
		papers:      papers,
		predictions: predictions,
		layouts:     layouts,
		log:         log.With().Str("component", "task_service").Logger(),
	}
}

// EvaluatePaper derives the task set a paper is currently eligible for
// and ensures those tasks exist. Idempotent: called after every push or
// page change touching the paper.
//
// Eligibility:
//   - ID task once the ID slot is filled.
//   - One marking task per question once the paper is complete.
//   - Totalling task once the paper is complete.
func (s *TaskService) EvaluatePaper(ctx context.Context, paperNumber int) error {
	layout, err := s.layouts.Get(ctx)
	if err != nil {
		return err
	}

	idFilled, err := s.papers.IDSlotFilled(ctx, paperNumber)
	if err != nil {
		return fmt.Errorf("check id slot: %w", err)
	}
	if idFilled {
		if err := s.store.Ensure(ctx, model.TaskKindID, paperNumber, nil, 0); err != nil {
			return fmt.Errorf("ensure id task: %w", err)
		}
	}

	complete, err := s.papers.IsComplete(ctx, paperNumber)
	if err != nil {
		return fmt.Errorf("check completeness: %w", err)
	}
	if !complete {
		return nil
	}

	for _, q := range layout.Questions {
		qidx := q.Idx
		if err := s.store.Ensure(ctx, model.TaskKindMarking, paperNumber, &qidx, 0); err != nil {
			return fmt.Errorf("ensure marking task q%d: %w", qidx, err)
		}
	}
	if err := s.store.Ensure(ctx, model.TaskKindTotalling, paperNumber, nil, 0); err != nil {
		return fmt.Errorf("ensure totalling task: %w", err)
	}
	s.log.Debug().Int("paper", paperNumber).Msg("paper task set evaluated")
	return nil
}

// ListAvailable lists claimable tasks of one kind.
func (s *TaskService) ListAvailable(ctx context.Context, kind model.TaskKind, limit int) ([]model.Task, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return s.store.ListAvailable(ctx, kind, limit)
}

// ListByPaper lists every task of a paper.
func (s *TaskService) ListByPaper(ctx context.Context, paperNumber int) ([]model.Task, error) {
	return s.store.ListByPaper(ctx, paperNumber)
}

// Claim attempts to take a task for a worker. On success the returned
// token proves ownership of this claim; losing the race returns
// ErrClaimLost and the worker just picks another task.
func (s *TaskService) Claim(ctx context.Context, taskID uuid.UUID, owner string) (*model.Task, string, *model.TaskPayload, error) {
	token := uuid.New().String()
	won, err := s.store.Claim(ctx, taskID, owner, token)
	if err != nil {
		return nil, "", nil, err
	}
	if !won {
		task, err := s.store.GetByID(ctx, taskID)
		if err != nil {
			return nil, "", nil, err
		}
		if task == nil {
			return nil, "", nil, ErrTaskNotFound
		}
		return nil, "", nil, ErrClaimLost
	}

	task, err := s.store.GetByID(ctx, taskID)
	if err != nil {
		return nil, "", nil, err
	}
	payload, err := s.buildPayload(ctx, task)
	if err != nil {
		// Give the claim back: the caller never sees the token, so a
		// standing claim would be stuck until the sweep timeout.
		if ok, uerr := s.store.Unclaim(ctx, taskID, token); uerr != nil || !ok {
			s.log.Error().Err(uerr).Str("task_id", taskID.String()).
				Msg("could not release claim after payload failure")
		}
		s.log.Error().Err(err).Str("task_id", taskID.String()).Msg("payload build failed after claim")
		return nil, "", nil, err
	}

	s.log.Info().
		Str("task_id", taskID.String()).
		Str("kind", string(task.Kind)).
		Int("paper", task.PaperNumber).
		Str("owner", owner).
		Msg("task claimed")
	return task, token, payload, nil
}

// Unclaim surrenders a claim. Token mismatch returns ErrInvalidToken.
func (s *TaskService) Unclaim(ctx context.Context, taskID uuid.UUID, claimToken string) error {
	ok, err := s.store.Unclaim(ctx, taskID, claimToken)
	if err != nil {
		return err
	}
	if !ok {
		return s.tokenFailure(ctx, taskID)
	}
	return nil
}

// Complete records a result against a held claim. Token mismatch
// (including a terminal task) returns ErrInvalidToken.
func (s *TaskService) Complete(ctx context.Context, taskID uuid.UUID, claimToken string, result json.RawMessage) error {
	ok, err := s.store.Complete(ctx, taskID, claimToken, result)
	if err != nil {
		return err
	}
	if !ok {
		return s.tokenFailure(ctx, taskID)
	}
	s.log.Info().Str("task_id", taskID.String()).Msg("task completed")
	return nil
}

// FlagPaperOutOfDate stales every task of a paper after a page change.
func (s *TaskService) FlagPaperOutOfDate(ctx context.Context, paperNumber int) (int, error) {
	return s.store.FlagPaperOutOfDate(ctx, paperNumber)
}

// ResetOwner force-releases all claims of one worker.
func (s *TaskService) ResetOwner(ctx context.Context, owner string) (int, error) {
	n, err := s.store.ResetOwner(ctx, owner)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.log.Warn().Str("owner", owner).Int("released", n).Msg("worker claims force-released")
	}
	return n, nil
}

// Reset force-returns a task to the available pool, discarding any
// claim or result. Resetting an already-available task is a no-op.
func (s *TaskService) Reset(ctx context.Context, taskID uuid.UUID) error {
	ok, err := s.store.Reset(ctx, taskID)
	if err != nil {
		return err
	}
	if !ok {
		task, err := s.store.GetByID(ctx, taskID)
		if err != nil {
			return err
		}
		if task == nil {
			return ErrTaskNotFound
		}
		return nil
	}
	s.log.Warn().Str("task_id", taskID.String()).Msg("task force-reset to available")
	return nil
}

// SetPriority adjusts where a task sorts in the available listing.
func (s *TaskService) SetPriority(ctx context.Context, taskID uuid.UUID, priority float64) error {
	ok, err := s.store.SetPriority(ctx, taskID, priority)
	if err != nil {
		return err
	}
	if !ok {
		return ErrTaskNotFound
	}
	return nil
}

// Sweep releases claims older than the timeout.
func (s *TaskService) Sweep(ctx context.Context, timeout time.Duration) (int, error) {
	freed, err := s.store.SweepExpired(ctx, timeout)
	if err != nil {
		return 0, err
	}
	if len(freed) > 0 {
		s.log.Warn().Int("released", len(freed)).Dur("timeout", timeout).Msg("expired claims swept")
	}
	return len(freed), nil
}

func (s *TaskService) tokenFailure(ctx context.Context, taskID uuid.UUID) error {
	task, err := s.store.GetByID(ctx, taskID)
	if err != nil {
		return err
	}
	if task == nil {
		return ErrTaskNotFound
	}
	return ErrInvalidToken
}

// buildPayload assembles the images (and, for ID tasks, predictions)
// the worker needs.
func (s *TaskService) buildPayload(ctx context.Context, task *model.Task) (*model.TaskPayload, error) {
	layout, err := s.layouts.Get(ctx)
	if err != nil {
		return nil, err
	}

	payload := &model.TaskPayload{
		PaperNumber: task.PaperNumber,
		QuestionIdx: task.QuestionIdx,
	}

	switch task.Kind {
	case model.TaskKindMarking:
		if task.QuestionIdx == nil {
			return nil, fmt.Errorf("marking task %s has no question", task.ID)
		}
		pages := layout.QuestionPages(*task.QuestionIdx)
		payload.Images, err = s.papers.TaskImages(ctx, task.PaperNumber, pages, *task.QuestionIdx)

	case model.TaskKindID:
		payload.Images, err = s.papers.TaskImages(ctx, task.PaperNumber, []int{layout.IDPage}, 0)
		if err == nil {
			payload.Predictions, err = s.predictions.ListByPaper(ctx, task.PaperNumber)
		}

	case model.TaskKindTotalling:
		all := make([]int, 0, layout.Pages)
		for p := 1; p <= layout.Pages; p++ {
			all = append(all, p)
		}
		payload.Images, err = s.papers.TaskImages(ctx, task.PaperNumber, all, 0)
	}
	if err != nil {
		return nil, fmt.Errorf("collect images: %w", err)
	}
	return payload, nil
}

var _ TaskStore = (*repository.TaskRepository)(nil)
var _ LayoutProvider = (*LayoutService)(nil)
var _ PaperReader = (*repository.PaperRepository)(nil)
var _ PredictionReader = (*repository.PredictionRepository)(nil)
