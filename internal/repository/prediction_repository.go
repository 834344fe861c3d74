package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/paperflow/paperflow-backend/internal/model"
)

// PredictionRepository handles student-ID prediction data access.
type PredictionRepository struct {
	pool *pgxpool.Pool
}

// NewPredictionRepository creates a new PredictionRepository.
func NewPredictionRepository(pool *pgxpool.Pool) *PredictionRepository {
	return &PredictionRepository{pool: pool}
}

// Upsert stores one prediction, replacing the certainty when the same
// predictor re-submits the same (paper, student) pair.
func (r *PredictionRepository) Upsert(ctx context.Context, p model.IDPrediction) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO id_predictions (paper_number, student_id, certainty, predictor)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (paper_number, predictor, student_id) DO UPDATE
		 SET certainty = EXCLUDED.certainty, updated_at = NOW()`,
		p.PaperNumber, p.StudentID, p.Certainty, p.Predictor)
	return err
}

// ListByPaper returns predictions for one paper, most certain first.
func (r *PredictionRepository) ListByPaper(ctx context.Context, paperNumber int) ([]model.IDPrediction, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT paper_number, student_id, certainty, predictor
		 FROM id_predictions
		 WHERE paper_number = $1
		 ORDER BY certainty DESC, predictor`, paperNumber)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var predictions []model.IDPrediction
	for rows.Next() {
		var p model.IDPrediction
		if err := rows.Scan(&p.PaperNumber, &p.StudentID, &p.Certainty, &p.Predictor); err != nil {
			return nil, err
		}
		predictions = append(predictions, p)
	}
	return predictions, rows.Err()
}
