package worker

import (
	"context"
	"time"

	"github.com/paperflow/paperflow-backend/internal/config"
	"github.com/paperflow/paperflow-backend/internal/service"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const PredictionPollTimeout = 1 * time.Second

// PredictionWorker consumes queued ID-prediction callbacks and writes
// them through the prediction service.
type PredictionWorker struct {
	predictionSvc *service.PredictionService
	rdb           *redis.Client
	log           zerolog.Logger
}

func NewPredictionWorker(predictionSvc *service.PredictionService, rdb *redis.Client, log zerolog.Logger) *PredictionWorker {
	return &PredictionWorker{
		predictionSvc: predictionSvc,
		rdb:           rdb,
		log:           log.With().Str("component", "prediction_worker").Logger(),
	}
}

func (w *PredictionWorker) Start(ctx context.Context) {
	w.log.Info().Msg("PredictionWorker started")

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Shutdown requested")
			return
		default:
			item, err := w.rdb.BLPop(ctx, PredictionPollTimeout, config.WorkerKey.IDPredictionsQueue).Result()
			if err != nil {
				if err != redis.Nil && ctx.Err() == nil {
					w.log.Error().Err(err).Msg("BLPop error")
				}
				continue
			}
			if len(item) < 2 {
				continue
			}

			if err := w.predictionSvc.Ingest(ctx, item[1]); err != nil {
				w.log.Error().Err(err).Msg("prediction ingest failed, requeueing")
				w.rdb.RPush(ctx, config.WorkerKey.IDPredictionsQueue, item[1])
				time.Sleep(time.Second)
			}
		}
	}
}
