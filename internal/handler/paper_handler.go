package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/paperflow/paperflow-backend/internal/response"
	"github.com/paperflow/paperflow-backend/internal/service"
)

// PaperHandler handles the read side of papers.
type PaperHandler struct {
	paperService *service.PaperService
}

// NewPaperHandler creates a new PaperHandler.
func NewPaperHandler(paperService *service.PaperService) *PaperHandler {
	return &PaperHandler{paperService: paperService}
}

// List godoc
// GET /api/v1/scan/papers
// Scan progress per paper: slots expected vs filled, extras, completeness.
func (h *PaperHandler) List(c *gin.Context) {
	summaries, err := h.paperService.ListSummaries(c.Request.Context())
	if err != nil {
		failFromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"papers": summaries})
}

// Get godoc
// GET /api/v1/scan/papers/:paperNumber
// The full slot/extra view of one paper.
func (h *PaperHandler) Get(c *gin.Context) {
	paperNumber, ok := paperNumberParam(c)
	if !ok {
		return
	}

	state, err := h.paperService.GetState(c.Request.Context(), paperNumber)
	if err != nil {
		failFromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"paper": state})
}

func paperNumberParam(c *gin.Context) (int, bool) {
	n, err := strconv.Atoi(c.Param("paperNumber"))
	if err != nil || n < 1 {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return 0, false
	}
	return n, true
}
