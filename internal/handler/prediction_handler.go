package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/paperflow/paperflow-backend/internal/model"
	"github.com/paperflow/paperflow-backend/internal/response"
	"github.com/paperflow/paperflow-backend/internal/service"
	"github.com/paperflow/paperflow-backend/internal/validator"
)

// PredictionHandler handles student-ID prediction endpoints.
type PredictionHandler struct {
	predictionService *service.PredictionService
}

// NewPredictionHandler creates a new PredictionHandler.
func NewPredictionHandler(predictionService *service.PredictionService) *PredictionHandler {
	return &PredictionHandler{predictionService: predictionService}
}

// Submit godoc
// POST /api/v1/scan/predictions
// Accepts a recognizer callback and queues it for ingestion.
func (h *PredictionHandler) Submit(c *gin.Context) {
	var req model.SubmitPredictionsRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	if err := h.predictionService.Enqueue(c.Request.Context(), req); err != nil {
		failFromError(c, err)
		return
	}
	response.Success(c, http.StatusAccepted, gin.H{"queued": true})
}

// ListByPaper godoc
// GET /api/v1/scan/papers/:paperNumber/predictions
func (h *PredictionHandler) ListByPaper(c *gin.Context) {
	paperNumber, ok := paperNumberParam(c)
	if !ok {
		return
	}

	predictions, err := h.predictionService.ListByPaper(c.Request.Context(), paperNumber)
	if err != nil {
		failFromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"predictions": predictions})
}
