package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"github.com/paperflow/paperflow-backend/internal/config"
	"github.com/paperflow/paperflow-backend/internal/model"
	"github.com/paperflow/paperflow-backend/internal/repository"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Common collision errors.
var (
	ErrCollisionNotFound = errors.New("collision not found")
	// ErrCollisionConflict fires when a retry asks for the opposite
	// resolution of one already applied.
	ErrCollisionConflict = errors.New("collision already resolved differently")
)

// CollisionService applies operator decisions to slot collisions.
// Resolution is idempotent: repeating the same decision is a no-op,
// asking for the opposite one is a conflict.
type CollisionService struct {
	collisionRepo *repository.CollisionRepository
	pageRepo      *repository.PageRepository
	paperRepo     *repository.PaperRepository
	taskSvc       *TaskService
	rdb           *redis.Client
	log           zerolog.Logger
}

// NewCollisionService creates a new CollisionService.
func NewCollisionService(
	collisionRepo *repository.CollisionRepository,
	pageRepo *repository.PageRepository,
	paperRepo *repository.PaperRepository,
	taskSvc *TaskService,
	rdb *redis.Client,
	log zerolog.Logger,
) *CollisionService {
	return &CollisionService{
		collisionRepo: collisionRepo,
		pageRepo:      pageRepo,
		paperRepo:     paperRepo,
		taskSvc:       taskSvc,
		rdb:           rdb,
		log:           log.With().Str("component", "collision_service").Logger(),
	}
}

// ListByBundle returns a bundle's collisions, open first.
func (s *CollisionService) ListByBundle(ctx context.Context, bundleID uuid.UUID) ([]model.Collision, error) {
	return s.collisionRepo.ListByBundle(ctx, bundleID)
}

// Resolve applies one operator decision. KEEP_EXISTING retires the
// incoming staged page; KEEP_INCOMING retires the existing page and,
// if that page held a committed slot, vacates the slot and flags the
// paper's tasks out of date. Record close and page retirement commit
// in one transaction: a half-applied resolution would let a concurrent
// push commit the losing page into the vacant slot.
func (s *CollisionService) Resolve(ctx context.Context, id uuid.UUID, resolution model.CollisionResolution, resolvedBy int) (*model.Collision, error) {
	collision, err := s.collisionRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if collision == nil {
		return nil, ErrCollisionNotFound
	}

	loser := collision.IncomingPageID
	reason := "lost collision to existing page"
	if resolution == model.ResolutionKeepIncoming {
		loser = collision.ExistingPageID
		reason = "replaced by incoming page"
	}

	tx, err := s.paperRepo.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin resolution: %w", err)
	}
	defer tx.Rollback(ctx)

	won, err := s.collisionRepo.Resolve(ctx, tx, id, resolution, resolvedBy)
	if err != nil {
		return nil, err
	}
	if !won {
		// Already closed. Same decision: answer as if we did it now.
		prev, err := s.collisionRepo.ResolvedWith(ctx, id)
		if err != nil {
			return nil, err
		}
		if prev != nil && *prev == resolution {
			return s.collisionRepo.GetByID(ctx, id)
		}
		return nil, ErrCollisionConflict
	}

	// The slot row lock serializes us against a concurrent push of the
	// same paper; after it, the loser's slot state is settled.
	clearedPaper, err := s.paperRepo.ClearSlotByPage(ctx, tx, loser)
	if err != nil {
		return nil, fmt.Errorf("clear slot: %w", err)
	}
	if clearedPaper == 0 {
		err = s.pageRepo.CastDiscardTx(ctx, tx, loser, reason)
	} else {
		err = s.pageRepo.DiscardCommitted(ctx, tx, loser, reason)
	}
	if err != nil {
		// Rolls back the record close too, so the collision stays open
		// and the operator sees the failed retirement.
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit resolution: %w", err)
	}

	if clearedPaper > 0 {
		s.staleCommittedPaper(ctx, clearedPaper)
	}

	s.log.Info().
		Str("collision_id", id.String()).
		Str("resolution", string(resolution)).
		Int("paper", collision.PaperNumber).
		Int("page", collision.PageNumber).
		Msg("collision resolved")
	return s.collisionRepo.GetByID(ctx, id)
}

// staleCommittedPaper flags the paper's tasks after a committed page
// gave up its slot, and queues a re-evaluation so they come back when
// the slot refills. Runs after the resolution commit; the eval worker
// re-derives everything from committed state, so a lost flag only
// delays the staleness until the next paper touch.
func (s *CollisionService) staleCommittedPaper(ctx context.Context, paper int) {
	flagged, err := s.taskSvc.FlagPaperOutOfDate(ctx, paper)
	if err != nil {
		s.log.Error().Err(err).Int("paper", paper).Msg("failed to flag paper tasks out of date")
	} else {
		s.log.Warn().
			Int("paper", paper).
			Int("tasks_flagged", flagged).
			Msg("committed page replaced, paper tasks went stale")
	}

	if err := s.rdb.RPush(ctx, config.WorkerKey.TaskEvalQueue, strconv.Itoa(paper)).Err(); err != nil {
		s.log.Error().Err(err).Int("paper", paper).Msg("failed to queue task evaluation")
	}
}
