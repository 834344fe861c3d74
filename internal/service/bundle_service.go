package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/paperflow/paperflow-backend/internal/classifier"
	"github.com/paperflow/paperflow-backend/internal/config"
	"github.com/paperflow/paperflow-backend/internal/model"
	"github.com/paperflow/paperflow-backend/internal/repository"
	"github.com/paperflow/paperflow-backend/internal/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Common bundle errors.
var (
	ErrBundleNotFound  = errors.New("bundle not found")
	ErrDuplicateBundle = errors.New("a bundle with this pdf hash is already staged")
	ErrBundlePushed    = errors.New("bundle has already been pushed")
	ErrPageNotFound    = errors.New("page not found")
	ErrUnknownQuestion = errors.New("question index is not in the exam layout")
	ErrUnknownSlot     = errors.New("page number is not in the exam layout")
	ErrPaperNotBuilt   = errors.New("paper has not been built")
)

// BundleService owns the staging side of scanning: bundle upload, the
// QR-read job, page casts, and collision bookkeeping. Pushing a staged
// bundle into papers is AssemblerService's job.
type BundleService struct {
	bundleRepo    *repository.BundleRepository
	pageRepo      *repository.PageRepository
	collisionRepo *repository.CollisionRepository
	paperRepo     *repository.PaperRepository
	layoutSvc     *LayoutService
	rdb           *redis.Client
	log           zerolog.Logger
}

// NewBundleService creates a new BundleService.
func NewBundleService(
	bundleRepo *repository.BundleRepository,
	pageRepo *repository.PageRepository,
	collisionRepo *repository.CollisionRepository,
	paperRepo *repository.PaperRepository,
	layoutSvc *LayoutService,
	rdb *redis.Client,
	log zerolog.Logger,
) *BundleService {
	return &BundleService{
		bundleRepo:    bundleRepo,
		pageRepo:      pageRepo,
		collisionRepo: collisionRepo,
		paperRepo:     paperRepo,
		layoutSvc:     layoutSvc,
		rdb:           rdb,
		log:           log.With().Str("component", "bundle_service").Logger(),
	}
}

// Stage registers an uploaded bundle and its page images, then queues
// the QR-read job. The pdf hash is the idempotency key: re-uploading
// the same file is rejected, not duplicated.
func (s *BundleService) Stage(ctx context.Context, req model.StageBundleRequest, uploadedBy int) (*model.Bundle, error) {
	if _, err := s.layoutSvc.Get(ctx); err != nil {
		return nil, err
	}

	existing, err := s.bundleRepo.GetByHash(ctx, req.PDFHash)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("check duplicate: %w", err)
	}
	if existing != nil {
		return nil, ErrDuplicateBundle
	}

	bundle := &model.Bundle{
		Slug:       req.Slug,
		PDFHash:    req.PDFHash,
		UploadedBy: uploadedBy,
	}
	if err := s.bundleRepo.CreateWithPages(ctx, bundle, req.Pages); err != nil {
		return nil, fmt.Errorf("stage bundle: %w", err)
	}

	s.log.Info().
		Str("bundle_id", bundle.ID.String()).
		Str("slug", bundle.Slug).
		Int("pages", bundle.NumberOfPages).
		Msg("bundle staged")

	if err := s.EnqueueReadQR(ctx, bundle.ID); err != nil {
		// The bundle is staged either way; the operator can re-trigger.
		s.log.Error().Err(err).Str("bundle_id", bundle.ID.String()).Msg("failed to queue qr read")
	}
	return bundle, nil
}

// EnqueueReadQR queues the QR-read job for a staged bundle.
func (s *BundleService) EnqueueReadQR(ctx context.Context, bundleID uuid.UUID) error {
	bundle, err := s.Get(ctx, bundleID)
	if err != nil {
		return err
	}
	if bundle.IsPushed {
		return ErrBundlePushed
	}
	return s.rdb.RPush(ctx, config.WorkerKey.ReadQRQueue, bundleID.String()).Err()
}

// Get retrieves one bundle.
func (s *BundleService) Get(ctx context.Context, bundleID uuid.UUID) (*model.Bundle, error) {
	bundle, err := s.bundleRepo.GetByID(ctx, bundleID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrBundleNotFound
	}
	if err != nil {
		return nil, err
	}
	return bundle, nil
}

// List retrieves all bundles, newest first.
func (s *BundleService) List(ctx context.Context) ([]model.Bundle, error) {
	return s.bundleRepo.List(ctx)
}

// Counts tallies a bundle's pages by classification, plus its open
// collision count.
func (s *BundleService) Counts(ctx context.Context, bundleID uuid.UUID) (*model.BundleCounts, int, error) {
	if _, err := s.Get(ctx, bundleID); err != nil {
		return nil, 0, err
	}
	counts, err := s.bundleRepo.Counts(ctx, bundleID)
	if err != nil {
		return nil, 0, err
	}
	open, err := s.collisionRepo.CountOpen(ctx, bundleID)
	if err != nil {
		return nil, 0, err
	}
	return counts, open, nil
}

// Pages lists a bundle's pages in scan order.
func (s *BundleService) Pages(ctx context.Context, bundleID uuid.UUID) ([]model.Page, error) {
	if _, err := s.Get(ctx, bundleID); err != nil {
		return nil, err
	}
	return s.pageRepo.ListByBundle(ctx, bundleID)
}

// Remove deletes a staged bundle and everything hanging off it. Pushed
// bundles are permanent.
func (s *BundleService) Remove(ctx context.Context, bundleID uuid.UUID) error {
	ok, err := s.bundleRepo.Delete(ctx, bundleID)
	if err != nil {
		return err
	}
	if !ok {
		bundle, err := s.Get(ctx, bundleID)
		if err != nil {
			return err
		}
		if bundle.IsPushed {
			return ErrBundlePushed
		}
		return ErrBundleNotFound
	}
	s.log.Info().Str("bundle_id", bundleID.String()).Msg("bundle removed")
	return nil
}

// ─── QR-read job ────────────────────────────────────────────────────

// ProcessReadQR runs the QR-read job for one bundle: classify every
// unread page, record collisions for KNOWN pages whose slot is taken,
// and stream progress over the bundle's pubsub channel. Called by the
// queue worker, never by handlers.
func (s *BundleService) ProcessReadQR(ctx context.Context, bundleID uuid.UUID) error {
	bundle, err := s.Get(ctx, bundleID)
	if err != nil {
		return err
	}
	if bundle.IsPushed {
		s.log.Warn().Str("bundle_id", bundleID.String()).Msg("skipping qr read for pushed bundle")
		return nil
	}

	layout, err := s.layoutSvc.Get(ctx)
	if err != nil {
		return err
	}
	cls := classifier.New(*layout)

	pages, err := s.pageRepo.ListByBundle(ctx, bundleID)
	if err != nil {
		return fmt.Errorf("list pages: %w", err)
	}

	for i, page := range pages {
		if page.Status != model.PageStatusUnread {
			// Already classified or manually cast; never clobber.
			s.publishProgress(ctx, bundleID, websocket.StageReadQR, i+1, len(pages), false, "")
			continue
		}

		var group model.QRGroup
		if len(page.QRData) > 0 {
			if err := json.Unmarshal(page.QRData, &group); err != nil {
				s.log.Warn().Err(err).Str("page_id", page.ID.String()).Msg("unreadable qr data blob")
			}
		}

		res := cls.Classify(group)
		update := repository.ClassificationUpdate{
			Status:        res.Status,
			ErrorReason:   res.ErrorReason,
			DiscardReason: res.DiscardReason,
		}
		if res.Status == model.PageStatusKnown {
			update.PaperNumber = &res.PaperNumber
			update.PageNumber = &res.PageNumber
			update.Version = &res.Version
		}
		if err := s.pageRepo.SetClassification(ctx, page.ID, update); err != nil {
			if errors.Is(err, repository.ErrPageImmutable) {
				continue
			}
			return fmt.Errorf("classify page %d: %w", page.BundleOrder, err)
		}

		if res.Status == model.PageStatusKnown {
			if err := s.recordCollisions(ctx, bundleID, page.ID, res.PaperNumber, res.PageNumber); err != nil {
				return err
			}
		}

		s.publishProgress(ctx, bundleID, websocket.StageReadQR, i+1, len(pages), false, "")
	}

	if err := s.bundleRepo.MarkFinishedReadingQR(ctx, bundleID); err != nil {
		return fmt.Errorf("mark finished: %w", err)
	}
	s.publishProgress(ctx, bundleID, websocket.StageReadQR, len(pages), len(pages), true, "")
	s.log.Info().Str("bundle_id", bundleID.String()).Int("pages", len(pages)).Msg("qr read finished")
	return nil
}

// recordCollisions opens collision records for every page already
// claiming the incoming page's slot: the committed owner if the slot is
// filled, plus any staged KNOWN page in another unpushed bundle.
func (s *BundleService) recordCollisions(ctx context.Context, bundleID, incomingID uuid.UUID, paper, page int) error {
	committed, err := s.pageRepo.FindCommittedSlotPage(ctx, paper, page)
	if err != nil {
		return fmt.Errorf("check committed slot: %w", err)
	}
	staged, err := s.pageRepo.FindStagedKnown(ctx, paper, page, incomingID)
	if err != nil {
		return fmt.Errorf("check staged slot: %w", err)
	}

	existing := staged
	if committed != nil {
		existing = append(existing, *committed)
	}
	for _, other := range existing {
		c := &model.Collision{
			ID:             uuid.New(),
			BundleID:       bundleID,
			PaperNumber:    paper,
			PageNumber:     page,
			IncomingPageID: incomingID,
			ExistingPageID: other.ID,
		}
		if err := s.collisionRepo.Create(ctx, c); err != nil {
			return fmt.Errorf("record collision: %w", err)
		}
		s.log.Warn().
			Int("paper", paper).
			Int("page", page).
			Str("incoming", incomingID.String()).
			Str("existing", other.ID.String()).
			Msg("slot collision detected")
	}
	return nil
}

func (s *BundleService) publishProgress(ctx context.Context, bundleID uuid.UUID, stage websocket.ProgressStage, done, total int, finished bool, errMsg string) {
	event := websocket.ProgressEvent{
		Event:    websocket.EventProgress,
		BundleID: bundleID.String(),
		Stage:    stage,
		Done:     done,
		Total:    total,
		Finished: finished,
		Error:    errMsg,
	}
	raw, err := json.Marshal(event)
	if err != nil {
		return
	}
	channel := config.CacheKey.BundleProgressChannel(bundleID.String())
	if err := s.rdb.Publish(ctx, channel, raw).Err(); err != nil {
		s.log.Warn().Err(err).Str("bundle_id", bundleID.String()).Msg("progress publish failed")
	}
}

// ─── Page casts ─────────────────────────────────────────────────────

// DiscardPage casts a staged page to DISCARD.
func (s *BundleService) DiscardPage(ctx context.Context, bundleID uuid.UUID, order int, reason string) (*model.Page, error) {
	page, err := s.stagedPage(ctx, bundleID, order)
	if err != nil {
		return nil, err
	}
	if reason == "" {
		reason = "discarded by operator"
	}
	if err := s.pageRepo.CastDiscard(ctx, page.ID, reason); err != nil {
		return nil, err
	}
	return s.pageRepo.GetByID(ctx, page.ID)
}

// KnowifyPage casts a staged page to KNOWN at an operator-chosen slot.
// The version comes from the target paper's slot, and the usual
// collision check runs against the new position.
func (s *BundleService) KnowifyPage(ctx context.Context, bundleID uuid.UUID, order int, req model.KnowifyPageRequest) (*model.Page, error) {
	page, err := s.stagedPage(ctx, bundleID, order)
	if err != nil {
		return nil, err
	}
	layout, err := s.layoutSvc.Get(ctx)
	if err != nil {
		return nil, err
	}
	if !layout.HasPage(req.PageNumber) {
		return nil, ErrUnknownSlot
	}
	built, err := s.paperRepo.Exists(ctx, req.PaperNumber)
	if err != nil {
		return nil, err
	}
	if !built {
		return nil, ErrPaperNotBuilt
	}

	kind, qidx := layout.PageKind(req.PageNumber)
	version := 1
	if kind == model.SlotKindQuestion && qidx > 0 {
		version, err = s.paperRepo.QuestionVersion(ctx, req.PaperNumber, qidx)
		if err != nil {
			return nil, err
		}
	}

	if err := s.pageRepo.CastKnown(ctx, page.ID, req.PaperNumber, req.PageNumber, version); err != nil {
		return nil, err
	}
	if err := s.recordCollisions(ctx, bundleID, page.ID, req.PaperNumber, req.PageNumber); err != nil {
		return nil, err
	}
	return s.pageRepo.GetByID(ctx, page.ID)
}

// ExtralisePage assigns paper and question data to an extra page. Also
// accepts pages in other statuses being re-cast as extras.
func (s *BundleService) ExtralisePage(ctx context.Context, bundleID uuid.UUID, order int, req model.ExtralisePageRequest) (*model.Page, error) {
	page, err := s.stagedPage(ctx, bundleID, order)
	if err != nil {
		return nil, err
	}
	layout, err := s.layoutSvc.Get(ctx)
	if err != nil {
		return nil, err
	}
	for _, q := range req.QuestionIdxs {
		if !layout.HasQuestion(q) {
			return nil, ErrUnknownQuestion
		}
	}
	built, err := s.paperRepo.Exists(ctx, req.PaperNumber)
	if err != nil {
		return nil, err
	}
	if !built {
		return nil, ErrPaperNotBuilt
	}

	if err := s.pageRepo.CastExtra(ctx, page.ID, req.PaperNumber, req.QuestionIdxs); err != nil {
		return nil, err
	}
	return s.pageRepo.GetByID(ctx, page.ID)
}

// UnknowifyPage strips a staged page back to UNKNOWN for re-triage.
func (s *BundleService) UnknowifyPage(ctx context.Context, bundleID uuid.UUID, order int) (*model.Page, error) {
	page, err := s.stagedPage(ctx, bundleID, order)
	if err != nil {
		return nil, err
	}
	if err := s.pageRepo.CastUnknown(ctx, page.ID); err != nil {
		return nil, err
	}
	return s.pageRepo.GetByID(ctx, page.ID)
}

// stagedPage resolves a page by bundle position and checks the bundle
// is still mutable.
func (s *BundleService) stagedPage(ctx context.Context, bundleID uuid.UUID, order int) (*model.Page, error) {
	bundle, err := s.Get(ctx, bundleID)
	if err != nil {
		return nil, err
	}
	if bundle.IsPushed {
		return nil, ErrBundlePushed
	}
	page, err := s.pageRepo.GetByBundleOrder(ctx, bundleID, order)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrPageNotFound
	}
	if err != nil {
		return nil, err
	}
	return page, nil
}
