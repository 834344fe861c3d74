package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/paperflow/paperflow-backend/internal/config"
	"github.com/paperflow/paperflow-backend/internal/model"
	"github.com/paperflow/paperflow-backend/internal/repository"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// PredictionService stores ranked student-ID predictions. The ML
// recognizer posts its results through the predictions queue; prename
// assignments arrive the same way from the roster importer.
type PredictionService struct {
	predictionRepo *repository.PredictionRepository
	paperRepo      *repository.PaperRepository
	rdb            *redis.Client
	log            zerolog.Logger
}

// NewPredictionService creates a new PredictionService.
func NewPredictionService(predictionRepo *repository.PredictionRepository, paperRepo *repository.PaperRepository, rdb *redis.Client, log zerolog.Logger) *PredictionService {
	return &PredictionService{
		predictionRepo: predictionRepo,
		paperRepo:      paperRepo,
		rdb:            rdb,
		log:            log.With().Str("component", "prediction_service").Logger(),
	}
}

// Enqueue accepts a prediction callback and queues it for ingestion.
// The HTTP handler returns immediately; the worker does the writes.
func (s *PredictionService) Enqueue(ctx context.Context, req model.SubmitPredictionsRequest) error {
	built, err := s.paperRepo.Exists(ctx, req.PaperNumber)
	if err != nil {
		return err
	}
	if !built {
		return ErrPaperNotBuilt
	}
	raw, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("encode predictions: %w", err)
	}
	return s.rdb.RPush(ctx, config.WorkerKey.IDPredictionsQueue, raw).Err()
}

// Ingest decodes one queued callback and upserts its predictions.
// Called by the predictions worker.
func (s *PredictionService) Ingest(ctx context.Context, raw string) error {
	var req model.SubmitPredictionsRequest
	if err := json.Unmarshal([]byte(raw), &req); err != nil {
		return fmt.Errorf("decode predictions payload: %w", err)
	}
	for _, entry := range req.Predictions {
		p := model.IDPrediction{
			PaperNumber: req.PaperNumber,
			StudentID:   entry.StudentID,
			Certainty:   entry.Certainty,
			Predictor:   req.Predictor,
		}
		if err := s.predictionRepo.Upsert(ctx, p); err != nil {
			return fmt.Errorf("store prediction: %w", err)
		}
	}
	s.log.Info().
		Int("paper", req.PaperNumber).
		Str("predictor", req.Predictor).
		Int("count", len(req.Predictions)).
		Msg("id predictions ingested")
	return nil
}

// ListByPaper returns a paper's predictions, most certain first.
func (s *PredictionService) ListByPaper(ctx context.Context, paperNumber int) ([]model.IDPrediction, error) {
	return s.predictionRepo.ListByPaper(ctx, paperNumber)
}
