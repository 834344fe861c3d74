package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/paperflow/paperflow-backend/internal/config"
	"github.com/paperflow/paperflow-backend/internal/model"
	"github.com/paperflow/paperflow-backend/internal/repository"
	"github.com/paperflow/paperflow-backend/internal/response"
	"github.com/paperflow/paperflow-backend/internal/service"
	"github.com/paperflow/paperflow-backend/internal/validator"
)

// AdminHandler handles operator administration: the exam layout, paper
// building, accounts and task priorities.
type AdminHandler struct {
	layoutService *service.LayoutService
	userService   *service.UserService
	taskService   *service.TaskService
	paperRepo     *repository.PaperRepository
	cfg           *config.Config
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(
	layoutService *service.LayoutService,
	userService *service.UserService,
	taskService *service.TaskService,
	paperRepo *repository.PaperRepository,
	cfg *config.Config,
) *AdminHandler {
	return &AdminHandler{
		layoutService: layoutService,
		userService:   userService,
		taskService:   taskService,
		paperRepo:     paperRepo,
		cfg:           cfg,
	}
}

// GetLayout godoc
// GET /api/v1/admin/layout
func (h *AdminHandler) GetLayout(c *gin.Context) {
	layout, err := h.layoutService.Get(c.Request.Context())
	if err != nil {
		failFromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"layout": layout})
}

// SaveLayout godoc
// PUT /api/v1/admin/layout
// Installs the exam layout snapshot. Done once, before any scanning.
func (h *AdminHandler) SaveLayout(c *gin.Context) {
	var layout model.Layout
	if err := c.ShouldBindJSON(&layout); err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidPayload)
		return
	}

	if err := h.layoutService.Save(c.Request.Context(), layout); err != nil {
		response.FailWithFields(c, http.StatusUnprocessableEntity, response.ErrValidation,
			map[string]string{"layout": err.Error()})
		return
	}
	response.Success(c, http.StatusOK, gin.H{"layout": layout})
}

// BuildPapersRequest is the payload for building papers.
type BuildPapersRequest struct {
	Count int `json:"count" binding:"required,min=1,max=100000"`
}

// BuildPapers godoc
// POST /api/v1/admin/papers/build
// Creates papers 1..count with their fixed slots from the layout.
func (h *AdminHandler) BuildPapers(c *gin.Context) {
	var req BuildPapersRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	layout, err := h.layoutService.Get(c.Request.Context())
	if err != nil {
		failFromError(c, err)
		return
	}
	created, err := h.paperRepo.BuildPapers(c.Request.Context(), *layout, req.Count)
	if err != nil {
		failFromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"created": created})
}

// CreateUserRequest is the payload for registering an account.
type CreateUserRequest struct {
	Username string         `json:"username" binding:"required,min=2,max=64"`
	Password string         `json:"password" binding:"required,min=6"`
	Role     model.UserRole `json:"role" binding:"required,oneof=OPERATOR WORKER"`
}

// CreateUser godoc
// POST /api/v1/admin/users
func (h *AdminHandler) CreateUser(c *gin.Context) {
	var req CreateUserRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	user, err := h.userService.Create(c.Request.Context(), req.Username, req.Password, req.Role)
	if err != nil {
		response.Fail(c, http.StatusConflict, response.ErrConflict)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"user": user})
}

// DisableUser godoc
// POST /api/v1/admin/users/:userId/disable
// Revokes the user's session and force-releases their task claims.
func (h *AdminHandler) DisableUser(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("userId"))
	if err != nil || id < 1 {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	released, err := h.userService.Disable(c.Request.Context(), id)
	if err != nil {
		failFromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"claims_released": released})
}

// SetPriorityRequest is the payload for adjusting a task priority.
type SetPriorityRequest struct {
	Priority float64 `json:"priority" binding:"min=-1000,max=1000"`
}

// SetTaskPriority godoc
// PATCH /api/v1/admin/tasks/:taskId/priority
func (h *AdminHandler) SetTaskPriority(c *gin.Context) {
	taskID, ok := taskIDParam(c)
	if !ok {
		return
	}
	var req SetPriorityRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	if err := h.taskService.SetPriority(c.Request.Context(), taskID, req.Priority); err != nil {
		failFromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{})
}

// ResetTask godoc
// POST /api/v1/admin/tasks/:taskId/reset
// Force-returns a task to the available pool, dropping any claim or
// recorded result so it can be redone.
func (h *AdminHandler) ResetTask(c *gin.Context) {
	taskID, ok := taskIDParam(c)
	if !ok {
		return
	}

	if err := h.taskService.Reset(c.Request.Context(), taskID); err != nil {
		failFromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{})
}

// SweepClaims godoc
// POST /api/v1/admin/tasks/sweep
// Runs the stale-claim sweep immediately instead of waiting for the
// background ticker.
func (h *AdminHandler) SweepClaims(c *gin.Context) {
	released, err := h.taskService.Sweep(c.Request.Context(), h.cfg.ClaimTimeout)
	if err != nil {
		failFromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"claims_released": released})
}
