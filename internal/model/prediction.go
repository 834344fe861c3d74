package model

import "time"

// IDPrediction is one ranked guess at the student identity on a paper's
// ID page, produced by the external digit-recognition pipeline (or by a
// prename assignment known before scanning).
type IDPrediction struct {
	ID          int64     `json:"id"`
	PaperNumber int       `json:"paper_number"`
	StudentID   string    `json:"student_id"`
	Certainty   float64   `json:"certainty"`
	Predictor   string    `json:"predictor"` // e.g. "prename", "mlgreedy", "mllap"
	CreatedAt   time.Time `json:"created_at"`
}

// SubmitPredictionsRequest is the callback payload from the ML
// recognizer: ranked predictions for one paper.
type SubmitPredictionsRequest struct {
	PaperNumber int                     `json:"paper_number" binding:"required,min=1"`
	Predictor   string                  `json:"predictor" binding:"required,min=1,max=32"`
	Predictions []SubmitPredictionEntry `json:"predictions" binding:"required,min=1,dive"`
}

// SubmitPredictionEntry is one ranked candidate in a prediction callback.
type SubmitPredictionEntry struct {
	StudentID string  `json:"student_id" binding:"required,min=1,max=32"`
	Certainty float64 `json:"certainty" binding:"min=0,max=1"`
}
