package handler

import (
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/paperflow/paperflow-backend/internal/config"
	"github.com/paperflow/paperflow-backend/internal/response"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// SystemHandler exposes operational status: queue depths and runtime stats.
type SystemHandler struct {
	rdb       *redis.Client
	startTime time.Time
	log       zerolog.Logger
}

// NewSystemHandler creates a new SystemHandler.
func NewSystemHandler(rdb *redis.Client, log zerolog.Logger) *SystemHandler {
	return &SystemHandler{
		rdb:       rdb,
		startTime: time.Now(),
		log:       log.With().Str("component", "system_handler").Logger(),
	}
}

// Status godoc
// GET /api/v1/admin/system/status
// Snapshot of worker queue depths and Go runtime stats.
func (h *SystemHandler) Status(c *gin.Context) {
	ctx := c.Request.Context()

	pipe := h.rdb.Pipeline()
	qrCmd := pipe.LLen(ctx, config.WorkerKey.ReadQRQueue)
	evalCmd := pipe.LLen(ctx, config.WorkerKey.TaskEvalQueue)
	predCmd := pipe.LLen(ctx, config.WorkerKey.IDPredictionsQueue)
	if _, err := pipe.Exec(ctx); err != nil {
		h.log.Error().Err(err).Msg("queue depth read failed")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)

	response.Success(c, http.StatusOK, gin.H{
		"uptime_seconds": int(time.Since(h.startTime).Seconds()),
		"queues": gin.H{
			"read_qr":        qrCmd.Val(),
			"task_eval":      evalCmd.Val(),
			"id_predictions": predCmd.Val(),
		},
		"runtime": gin.H{
			"goroutines": runtime.NumGoroutine(),
			"heap_alloc": ms.HeapAlloc,
			"num_gc":     ms.NumGC,
			"go_version": runtime.Version(),
		},
	})
}
