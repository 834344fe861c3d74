package worker

import (
	"context"
	"time"

	"github.com/paperflow/paperflow-backend/internal/config"
	"github.com/paperflow/paperflow-backend/internal/service"
	"github.com/rs/zerolog"
)

// SweepWorker periodically releases task claims whose holder went
// silent past the claim timeout.
type SweepWorker struct {
	taskSvc *service.TaskService
	cfg     *config.Config
	log     zerolog.Logger
}

func NewSweepWorker(taskSvc *service.TaskService, cfg *config.Config, log zerolog.Logger) *SweepWorker {
	return &SweepWorker{
		taskSvc: taskSvc,
		cfg:     cfg,
		log:     log.With().Str("component", "sweep_worker").Logger(),
	}
}

func (w *SweepWorker) Start(ctx context.Context) {
	w.log.Info().
		Dur("interval", w.cfg.SweepInterval).
		Dur("claim_timeout", w.cfg.ClaimTimeout).
		Msg("SweepWorker started")

	ticker := time.NewTicker(w.cfg.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Shutdown requested")
			return
		case <-ticker.C:
			if _, err := w.taskSvc.Sweep(ctx, w.cfg.ClaimTimeout); err != nil {
				w.log.Error().Err(err).Msg("claim sweep failed")
			}
		}
	}
}
