package worker

import (
	"context"
	"strconv"
	"time"

	"github.com/paperflow/paperflow-backend/internal/config"
	"github.com/paperflow/paperflow-backend/internal/service"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const EvalPollTimeout = 1 * time.Second

// EvalWorker consumes the task-eval queue: each entry is a paper number
// whose committed page set changed, and whose task set must be
// re-derived. Evaluation is idempotent so duplicate entries are free.
type EvalWorker struct {
	taskSvc *service.TaskService
	rdb     *redis.Client
	log     zerolog.Logger
}

func NewEvalWorker(taskSvc *service.TaskService, rdb *redis.Client, log zerolog.Logger) *EvalWorker {
	return &EvalWorker{
		taskSvc: taskSvc,
		rdb:     rdb,
		log:     log.With().Str("component", "eval_worker").Logger(),
	}
}

func (w *EvalWorker) Start(ctx context.Context) {
	w.log.Info().Msg("EvalWorker started")

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Shutdown requested")
			return
		default:
			item, err := w.rdb.BLPop(ctx, EvalPollTimeout, config.WorkerKey.TaskEvalQueue).Result()
			if err != nil {
				if err != redis.Nil && ctx.Err() == nil {
					w.log.Error().Err(err).Msg("BLPop error")
				}
				continue
			}
			if len(item) < 2 {
				continue
			}

			paper, err := strconv.Atoi(item[1])
			if err != nil || paper < 1 {
				w.log.Error().Str("payload", item[1]).Msg("invalid paper number on queue")
				continue
			}

			if err := w.taskSvc.EvaluatePaper(ctx, paper); err != nil {
				w.log.Error().Err(err).Int("paper", paper).Msg("task evaluation failed, requeueing")
				w.rdb.RPush(ctx, config.WorkerKey.TaskEvalQueue, item[1])
				// Back off so a persistent failure does not spin.
				time.Sleep(time.Second)
			}
		}
	}
}
