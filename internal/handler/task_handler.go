package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/paperflow/paperflow-backend/internal/model"
	"github.com/paperflow/paperflow-backend/internal/response"
	"github.com/paperflow/paperflow-backend/internal/service"
	"github.com/paperflow/paperflow-backend/internal/validator"
)

// TaskHandler handles the worker-facing task ledger endpoints.
type TaskHandler struct {
	taskService *service.TaskService
}

// NewTaskHandler creates a new TaskHandler.
func NewTaskHandler(taskService *service.TaskService) *TaskHandler {
	return &TaskHandler{taskService: taskService}
}

// ListAvailable godoc
// GET /api/v1/tasks?kind=MARKING&limit=50
// Lists claimable tasks of one kind, highest priority first.
func (h *TaskHandler) ListAvailable(c *gin.Context) {
	kind := model.TaskKind(c.Query("kind"))
	switch kind {
	case model.TaskKindID, model.TaskKindMarking, model.TaskKindTotalling:
	default:
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation,
			map[string]string{"kind": "must be one of ID, MARKING, TOTALLING"})
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	tasks, err := h.taskService.ListAvailable(c.Request.Context(), kind, limit)
	if err != nil {
		failFromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"tasks": tasks})
}

// Claim godoc
// PATCH /api/v1/tasks/:taskId/claim
// Atomically claims a task. Losing the race is a 409; the worker picks
// another task. The returned token authorizes complete/unclaim.
func (h *TaskHandler) Claim(c *gin.Context) {
	taskID, ok := taskIDParam(c)
	if !ok {
		return
	}

	task, token, payload, err := h.taskService.Claim(c.Request.Context(), taskID, username(c))
	if err != nil {
		failFromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{
		"task":        task,
		"claim_token": token,
		"payload":     payload,
	})
}

// Complete godoc
// PUT /api/v1/tasks/:taskId
// Submits a result against a held claim.
func (h *TaskHandler) Complete(c *gin.Context) {
	taskID, ok := taskIDParam(c)
	if !ok {
		return
	}
	var req model.CompleteTaskRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	if err := h.taskService.Complete(c.Request.Context(), taskID, req.ClaimToken, req.Result); err != nil {
		failFromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{})
}

// Unclaim godoc
// DELETE /api/v1/tasks/:taskId/claim
// Surrenders a held claim.
func (h *TaskHandler) Unclaim(c *gin.Context) {
	taskID, ok := taskIDParam(c)
	if !ok {
		return
	}
	var req model.UnclaimTaskRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	if err := h.taskService.Unclaim(c.Request.Context(), taskID, req.ClaimToken); err != nil {
		failFromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{})
}

// ListByPaper godoc
// GET /api/v1/scan/papers/:paperNumber/tasks
// Operator view of one paper's task set, including stale tasks.
func (h *TaskHandler) ListByPaper(c *gin.Context) {
	paperNumber, ok := paperNumberParam(c)
	if !ok {
		return
	}

	tasks, err := h.taskService.ListByPaper(c.Request.Context(), paperNumber)
	if err != nil {
		failFromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"tasks": tasks})
}

func taskIDParam(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("taskId"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return uuid.Nil, false
	}
	return id, true
}
