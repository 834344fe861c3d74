package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/paperflow/paperflow-backend/internal/model"
	"github.com/paperflow/paperflow-backend/internal/response"
	"github.com/paperflow/paperflow-backend/internal/service"
	"github.com/paperflow/paperflow-backend/internal/validator"
)

// CollisionHandler handles slot-collision endpoints.
type CollisionHandler struct {
	collisionService *service.CollisionService
}

// NewCollisionHandler creates a new CollisionHandler.
func NewCollisionHandler(collisionService *service.CollisionService) *CollisionHandler {
	return &CollisionHandler{collisionService: collisionService}
}

// ListByBundle godoc
// GET /api/v1/scan/bundles/:bundleId/collisions
func (h *CollisionHandler) ListByBundle(c *gin.Context) {
	bundleID, ok := bundleIDParam(c)
	if !ok {
		return
	}

	collisions, err := h.collisionService.ListByBundle(c.Request.Context(), bundleID)
	if err != nil {
		failFromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"collisions": collisions})
}

// Resolve godoc
// POST /api/v1/scan/collisions/:collisionId/resolve
// Applies an operator decision. Repeating the same decision is a no-op.
func (h *CollisionHandler) Resolve(c *gin.Context) {
	collisionID, err := uuid.Parse(c.Param("collisionId"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var req model.ResolveCollisionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	collision, err := h.collisionService.Resolve(c.Request.Context(), collisionID, req.Resolution, userID(c))
	if err != nil {
		failFromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"collision": collision})
}
