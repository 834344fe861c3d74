package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/paperflow/paperflow-backend/internal/config"
	"github.com/paperflow/paperflow-backend/internal/model"
	"github.com/paperflow/paperflow-backend/internal/repository"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// ErrNoLayout fires when scanning starts before the exam layout is set.
var ErrNoLayout = errors.New("exam layout has not been configured")

const layoutCacheTTL = 5 * time.Minute

// LayoutService serves the exam layout snapshot. The layout is read on
// every QR classification, so it is cached in Redis in front of the DB.
type LayoutService struct {
	layoutRepo *repository.LayoutRepository
	rdb        *redis.Client
	log        zerolog.Logger
}

// NewLayoutService creates a new LayoutService.
func NewLayoutService(layoutRepo *repository.LayoutRepository, rdb *redis.Client, log zerolog.Logger) *LayoutService {
	return &LayoutService{
		layoutRepo: layoutRepo,
		rdb:        rdb,
		log:        log.With().Str("component", "layout_service").Logger(),
	}
}

// Get returns the current layout, preferring the cache.
func (s *LayoutService) Get(ctx context.Context) (*model.Layout, error) {
	cached, err := s.rdb.Get(ctx, config.CacheKey.LayoutKey()).Result()
	if err == nil && cached != "" {
		var layout model.Layout
		if err := json.Unmarshal([]byte(cached), &layout); err == nil {
			return &layout, nil
		}
		// Corrupt cache entry, fall through to the DB.
		s.log.Warn().Msg("discarding unreadable cached layout")
	} else if err != nil && !errors.Is(err, redis.Nil) {
		s.log.Warn().Err(err).Msg("layout cache read failed, falling back to db")
	}

	layout, err := s.layoutRepo.Get(ctx)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNoLayout
	}
	if err != nil {
		return nil, fmt.Errorf("load layout: %w", err)
	}

	if raw, err := json.Marshal(layout); err == nil {
		if err := s.rdb.Set(ctx, config.CacheKey.LayoutKey(), raw, layoutCacheTTL).Err(); err != nil {
			s.log.Warn().Err(err).Msg("layout cache write failed")
		}
	}
	return &layout, nil
}

// Save validates and stores a new layout, dropping the cached snapshot.
// Changing the layout mid-scan is not supported; callers gate this on
// no bundles being staged.
func (s *LayoutService) Save(ctx context.Context, layout model.Layout) error {
	if err := validateLayout(layout); err != nil {
		return err
	}
	if err := s.layoutRepo.Save(ctx, layout); err != nil {
		return fmt.Errorf("save layout: %w", err)
	}
	if err := s.rdb.Del(ctx, config.CacheKey.LayoutKey()).Err(); err != nil {
		s.log.Warn().Err(err).Msg("layout cache invalidation failed")
	}
	s.log.Info().Str("name", layout.Name).Int("pages", layout.Pages).Msg("layout saved")
	return nil
}

func validateLayout(layout model.Layout) error {
	if layout.Pages < 1 {
		return errors.New("layout must have at least one page")
	}
	if layout.Versions < 1 {
		return errors.New("layout must have at least one version")
	}
	if len(layout.PublicCode) != 5 {
		return errors.New("public code must be exactly 5 digits")
	}
	if !layout.HasPage(layout.IDPage) {
		return errors.New("id page is outside the page range")
	}

	claimed := map[int]string{layout.IDPage: "id"}
	for _, p := range layout.DNMPages {
		if !layout.HasPage(p) {
			return fmt.Errorf("dnm page %d is outside the page range", p)
		}
		if prev, ok := claimed[p]; ok {
			return fmt.Errorf("page %d claimed by both %s and dnm", p, prev)
		}
		claimed[p] = "dnm"
	}
	for _, q := range layout.Questions {
		if len(q.Pages) == 0 {
			return fmt.Errorf("question %d has no pages", q.Idx)
		}
		for _, p := range q.Pages {
			if !layout.HasPage(p) {
				return fmt.Errorf("question %d page %d is outside the page range", q.Idx, p)
			}
			if prev, ok := claimed[p]; ok {
				return fmt.Errorf("page %d claimed by both %s and question %d", p, prev, q.Idx)
			}
			claimed[p] = fmt.Sprintf("question %d", q.Idx)
		}
	}
	if len(claimed) != layout.Pages {
		return errors.New("every page must belong to the id page, a dnm page, or a question")
	}
	return nil
}
