package worker

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/paperflow/paperflow-backend/internal/config"
	"github.com/paperflow/paperflow-backend/internal/service"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const QRPollTimeout = 1 * time.Second

// QRWorker consumes the read-qr queue and runs the classification job
// for each queued bundle. One job at a time: classification is cheap
// relative to scanning, and serial order keeps collision detection
// between bundles deterministic.
type QRWorker struct {
	bundleSvc *service.BundleService
	rdb       *redis.Client
	log       zerolog.Logger
}

func NewQRWorker(bundleSvc *service.BundleService, rdb *redis.Client, log zerolog.Logger) *QRWorker {
	return &QRWorker{
		bundleSvc: bundleSvc,
		rdb:       rdb,
		log:       log.With().Str("component", "qr_worker").Logger(),
	}
}

func (w *QRWorker) Start(ctx context.Context) {
	w.log.Info().Msg("QRWorker started")

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Shutdown requested")
			return
		default:
			item, err := w.rdb.BLPop(ctx, QRPollTimeout, config.WorkerKey.ReadQRQueue).Result()
			if err != nil {
				if err != redis.Nil && ctx.Err() == nil {
					w.log.Error().Err(err).Msg("BLPop error")
				}
				continue
			}
			if len(item) < 2 {
				continue
			}

			bundleID, err := uuid.Parse(item[1])
			if err != nil {
				w.log.Error().Str("payload", item[1]).Msg("invalid bundle id on queue")
				continue
			}

			if err := w.bundleSvc.ProcessReadQR(ctx, bundleID); err != nil {
				// Requeue once would loop forever on a poisoned bundle;
				// leave it to the operator to re-trigger after fixing.
				w.log.Error().Err(err).Str("bundle_id", bundleID.String()).Msg("qr read job failed")
			}
		}
	}
}
