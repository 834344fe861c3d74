package service

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/paperflow/paperflow-backend/internal/model"
	"github.com/paperflow/paperflow-backend/internal/repository"
	"github.com/rs/zerolog"
)

// PaperService serves the read side of papers: per-paper state and the
// scanning-progress listing.
type PaperService struct {
	paperRepo *repository.PaperRepository
	taskStore TaskStore
	log       zerolog.Logger
}

// NewPaperService creates a new PaperService.
func NewPaperService(paperRepo *repository.PaperRepository, taskStore TaskStore, log zerolog.Logger) *PaperService {
	return &PaperService{
		paperRepo: paperRepo,
		taskStore: taskStore,
		log:       log.With().Str("component", "paper_service").Logger(),
	}
}

// GetState returns the assembled view of one paper. Identified means
// the paper's ID task has a committed, current result.
func (s *PaperService) GetState(ctx context.Context, paperNumber int) (*model.PaperState, error) {
	state, err := s.paperRepo.GetState(ctx, paperNumber)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrPaperNotBuilt
	}
	if err != nil {
		return nil, err
	}

	tasks, err := s.taskStore.ListByPaper(ctx, paperNumber)
	if err != nil {
		return nil, err
	}
	for _, t := range tasks {
		if t.Kind == model.TaskKindID && t.State == model.TaskStateComplete && !t.OutOfDate {
			state.Identified = true
			break
		}
	}
	return state, nil
}

// ListSummaries returns scan progress for every built paper.
func (s *PaperService) ListSummaries(ctx context.Context) ([]repository.PaperSummary, error) {
	return s.paperRepo.ListSummaries(ctx)
}
