package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"

	"github.com/google/uuid"
	"github.com/paperflow/paperflow-backend/internal/config"
	"github.com/paperflow/paperflow-backend/internal/model"
	"github.com/paperflow/paperflow-backend/internal/repository"
	"github.com/paperflow/paperflow-backend/internal/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Push readiness errors. NotReadyError carries the specific blockers so
// the operator UI can show what still needs triage.
var (
	ErrSlotInvariant = errors.New("push found an occupied slot with no open collision")
)

// NotReadyError reports why a bundle cannot be pushed yet.
type NotReadyError struct {
	Blockers []string
}

func (e *NotReadyError) Error() string {
	msg := "bundle is not ready to push"
	for _, b := range e.Blockers {
		msg += ": " + b
	}
	return msg
}

// AssemblerService commits staged bundles into papers. The whole push
// of one bundle is a single transaction over row-locked papers, so a
// bundle lands entirely or not at all.
type AssemblerService struct {
	bundleRepo    *repository.BundleRepository
	pageRepo      *repository.PageRepository
	paperRepo     *repository.PaperRepository
	collisionRepo *repository.CollisionRepository
	layoutSvc     *LayoutService
	bundleSvc     *BundleService
	rdb           *redis.Client
	log           zerolog.Logger
}

// NewAssemblerService creates a new AssemblerService.
func NewAssemblerService(
	bundleRepo *repository.BundleRepository,
	pageRepo *repository.PageRepository,
	paperRepo *repository.PaperRepository,
	collisionRepo *repository.CollisionRepository,
	layoutSvc *LayoutService,
	bundleSvc *BundleService,
	rdb *redis.Client,
	log zerolog.Logger,
) *AssemblerService {
	return &AssemblerService{
		bundleRepo:    bundleRepo,
		pageRepo:      pageRepo,
		paperRepo:     paperRepo,
		collisionRepo: collisionRepo,
		layoutSvc:     layoutSvc,
		bundleSvc:     bundleSvc,
		rdb:           rdb,
		log:           log.With().Str("component", "assembler_service").Logger(),
	}
}

// CheckReady validates that every page of the bundle is triaged and no
// collision is open. Returns a NotReadyError listing the blockers.
func (s *AssemblerService) CheckReady(ctx context.Context, bundleID uuid.UUID) error {
	bundle, err := s.bundleSvc.Get(ctx, bundleID)
	if err != nil {
		return err
	}
	if bundle.IsPushed {
		return ErrBundlePushed
	}

	var blockers []string
	if !bundle.FinishedReadingQR {
		blockers = append(blockers, "qr read has not finished")
	}

	counts, err := s.bundleRepo.Counts(ctx, bundleID)
	if err != nil {
		return err
	}
	if counts.Unread > 0 {
		blockers = append(blockers, fmt.Sprintf("%d unread pages", counts.Unread))
	}
	if counts.Unknown > 0 {
		blockers = append(blockers, fmt.Sprintf("%d unknown pages", counts.Unknown))
	}
	if counts.Error > 0 {
		blockers = append(blockers, fmt.Sprintf("%d error pages", counts.Error))
	}
	if counts.ExtraWithoutData > 0 {
		blockers = append(blockers, fmt.Sprintf("%d extra pages without paper/question data", counts.ExtraWithoutData))
	}

	open, err := s.collisionRepo.CountOpen(ctx, bundleID)
	if err != nil {
		return err
	}
	if open > 0 {
		blockers = append(blockers, fmt.Sprintf("%d open collisions", open))
	}

	if len(blockers) > 0 {
		return &NotReadyError{Blockers: blockers}
	}
	return nil
}

// Push commits a ready bundle: every KNOWN page takes its fixed slot,
// every EXTRA page fans out into mobile pages, and the bundle freezes.
// Affected papers are queued for task evaluation after commit.
func (s *AssemblerService) Push(ctx context.Context, bundleID uuid.UUID) error {
	if err := s.CheckReady(ctx, bundleID); err != nil {
		return err
	}

	pages, err := s.pageRepo.ListByBundle(ctx, bundleID)
	if err != nil {
		return fmt.Errorf("list pages: %w", err)
	}

	var known, extra []model.Page
	paperSet := map[int]bool{}
	for _, p := range pages {
		switch p.Status {
		case model.PageStatusKnown:
			known = append(known, p)
			paperSet[*p.PaperNumber] = true
		case model.PageStatusExtra:
			extra = append(extra, p)
			paperSet[*p.PaperNumber] = true
		}
	}

	papers := make([]int, 0, len(paperSet))
	for n := range paperSet {
		papers = append(papers, n)
	}
	sort.Ints(papers)

	// Extra-page versions are read before the tx; slot versions never
	// change after papers are built.
	type mobileInsert struct {
		paper, questionIdx, version int
		pageID                      uuid.UUID
	}
	var mobiles []mobileInsert
	for _, p := range extra {
		for _, q := range p.QuestionIdxs {
			version, err := s.paperRepo.QuestionVersion(ctx, *p.PaperNumber, q)
			if err != nil {
				return fmt.Errorf("question version: %w", err)
			}
			mobiles = append(mobiles, mobileInsert{*p.PaperNumber, q, version, p.ID})
		}
	}

	tx, err := s.paperRepo.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin push: %w", err)
	}
	defer tx.Rollback(ctx)

	if len(papers) > 0 {
		if err := s.paperRepo.LockPapers(ctx, tx, papers); err != nil {
			return fmt.Errorf("lock papers: %w", err)
		}
	}

	total := len(known) + len(mobiles)
	done := 0
	for _, p := range known {
		err := s.paperRepo.AssignSlot(ctx, tx, *p.PaperNumber, *p.PageNumber, p.ID)
		if errors.Is(err, repository.ErrPageRetired) {
			// The page lost a collision between the readiness check and
			// here; the bundle pushes without it.
			s.log.Warn().
				Str("bundle_id", bundleID.String()).
				Str("page_id", p.ID.String()).
				Msg("page retired mid-push, skipped")
			total--
			continue
		}
		if errors.Is(err, repository.ErrSlotOccupied) {
			// An unresolved overlap slipped past readiness (raced with
			// another push). Nothing landed; the operator re-triages.
			s.publish(ctx, bundleID, done, total, true, "slot occupied, push rolled back")
			return ErrSlotInvariant
		}
		if err != nil {
			return fmt.Errorf("assign slot %d/%d: %w", *p.PaperNumber, *p.PageNumber, err)
		}
		done++
		s.publish(ctx, bundleID, done, total, false, "")
	}

	for _, m := range mobiles {
		if err := s.paperRepo.InsertMobilePage(ctx, tx, m.paper, m.questionIdx, m.version, m.pageID); err != nil {
			return fmt.Errorf("insert mobile page: %w", err)
		}
		done++
		s.publish(ctx, bundleID, done, total, false, "")
	}

	ok, err := s.bundleRepo.MarkPushed(ctx, tx, bundleID)
	if err != nil {
		return fmt.Errorf("mark pushed: %w", err)
	}
	if !ok {
		return ErrBundlePushed
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit push: %w", err)
	}

	s.publish(ctx, bundleID, total, total, true, "")
	s.log.Info().
		Str("bundle_id", bundleID.String()).
		Int("known", len(known)).
		Int("mobile", len(mobiles)).
		Ints("papers", papers).
		Msg("bundle pushed")

	s.enqueueTaskEval(ctx, papers)
	return nil
}

// enqueueTaskEval queues the affected papers for task evaluation. Task
// creation is eventually consistent with the push on purpose: the eval
// worker re-derives eligibility from committed state, so a lost queue
// entry only delays tasks until the next paper touch.
func (s *AssemblerService) enqueueTaskEval(ctx context.Context, papers []int) {
	for _, n := range papers {
		if err := s.rdb.RPush(ctx, config.WorkerKey.TaskEvalQueue, strconv.Itoa(n)).Err(); err != nil {
			s.log.Error().Err(err).Int("paper", n).Msg("failed to queue task evaluation")
		}
	}
}

func (s *AssemblerService) publish(ctx context.Context, bundleID uuid.UUID, done, total int, finished bool, errMsg string) {
	s.bundleSvc.publishProgress(ctx, bundleID, websocket.StagePush, done, total, finished, errMsg)
}
