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

// BundleHandler handles staging bundle endpoints.
type BundleHandler struct {
	bundleService    *service.BundleService
	assemblerService *service.AssemblerService
}

// NewBundleHandler creates a new BundleHandler.
func NewBundleHandler(bundleService *service.BundleService, assemblerService *service.AssemblerService) *BundleHandler {
	return &BundleHandler{bundleService: bundleService, assemblerService: assemblerService}
}

// Stage godoc
// POST /api/v1/scan/bundles
// Stages an uploaded bundle and queues its QR-read job.
func (h *BundleHandler) Stage(c *gin.Context) {
	var req model.StageBundleRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	bundle, err := h.bundleService.Stage(c.Request.Context(), req, userID(c))
	if err != nil {
		failFromError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"bundle": bundle})
}

// List godoc
// GET /api/v1/scan/bundles
func (h *BundleHandler) List(c *gin.Context) {
	bundles, err := h.bundleService.List(c.Request.Context())
	if err != nil {
		failFromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"bundles": bundles})
}

// Get godoc
// GET /api/v1/scan/bundles/:bundleId
// Returns the bundle, its page counts by status and open collision count.
func (h *BundleHandler) Get(c *gin.Context) {
	bundleID, ok := bundleIDParam(c)
	if !ok {
		return
	}

	bundle, err := h.bundleService.Get(c.Request.Context(), bundleID)
	if err != nil {
		failFromError(c, err)
		return
	}
	counts, openCollisions, err := h.bundleService.Counts(c.Request.Context(), bundleID)
	if err != nil {
		failFromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"bundle":          bundle,
		"counts":          counts,
		"open_collisions": openCollisions,
	})
}

// Pages godoc
// GET /api/v1/scan/bundles/:bundleId/pages
func (h *BundleHandler) Pages(c *gin.Context) {
	bundleID, ok := bundleIDParam(c)
	if !ok {
		return
	}

	pages, err := h.bundleService.Pages(c.Request.Context(), bundleID)
	if err != nil {
		failFromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"pages": pages})
}

// ReadQR godoc
// POST /api/v1/scan/bundles/:bundleId/read-qr
// Re-queues the QR-read job, e.g. after the layout was fixed.
func (h *BundleHandler) ReadQR(c *gin.Context) {
	bundleID, ok := bundleIDParam(c)
	if !ok {
		return
	}

	if err := h.bundleService.EnqueueReadQR(c.Request.Context(), bundleID); err != nil {
		failFromError(c, err)
		return
	}
	response.Success(c, http.StatusAccepted, gin.H{"queued": true})
}

// Push godoc
// POST /api/v1/scan/bundles/:bundleId/push
// Commits a fully-triaged bundle into papers.
func (h *BundleHandler) Push(c *gin.Context) {
	bundleID, ok := bundleIDParam(c)
	if !ok {
		return
	}

	if err := h.assemblerService.Push(c.Request.Context(), bundleID); err != nil {
		failFromError(c, err)
		return
	}

	bundle, err := h.bundleService.Get(c.Request.Context(), bundleID)
	if err != nil {
		failFromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"bundle": bundle})
}

// Delete godoc
// DELETE /api/v1/scan/bundles/:bundleId
// Removes a staged bundle; pushed bundles are permanent.
func (h *BundleHandler) Delete(c *gin.Context) {
	bundleID, ok := bundleIDParam(c)
	if !ok {
		return
	}

	if err := h.bundleService.Remove(c.Request.Context(), bundleID); err != nil {
		failFromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{})
}

// ─── Page casts ─────────────────────────────────────────────────────

// DiscardPage godoc
// POST /api/v1/scan/bundles/:bundleId/pages/:order/discard
func (h *BundleHandler) DiscardPage(c *gin.Context) {
	bundleID, order, ok := pageParams(c)
	if !ok {
		return
	}
	var req model.DiscardPageRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	page, err := h.bundleService.DiscardPage(c.Request.Context(), bundleID, order, req.Reason)
	if err != nil {
		failFromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"page": page})
}

// KnowifyPage godoc
// POST /api/v1/scan/bundles/:bundleId/pages/:order/knowify
func (h *BundleHandler) KnowifyPage(c *gin.Context) {
	bundleID, order, ok := pageParams(c)
	if !ok {
		return
	}
	var req model.KnowifyPageRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	page, err := h.bundleService.KnowifyPage(c.Request.Context(), bundleID, order, req)
	if err != nil {
		failFromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"page": page})
}

// ExtralisePage godoc
// POST /api/v1/scan/bundles/:bundleId/pages/:order/extralise
func (h *BundleHandler) ExtralisePage(c *gin.Context) {
	bundleID, order, ok := pageParams(c)
	if !ok {
		return
	}
	var req model.ExtralisePageRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	page, err := h.bundleService.ExtralisePage(c.Request.Context(), bundleID, order, req)
	if err != nil {
		failFromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"page": page})
}

// UnknowifyPage godoc
// POST /api/v1/scan/bundles/:bundleId/pages/:order/unknowify
func (h *BundleHandler) UnknowifyPage(c *gin.Context) {
	bundleID, order, ok := pageParams(c)
	if !ok {
		return
	}

	page, err := h.bundleService.UnknowifyPage(c.Request.Context(), bundleID, order)
	if err != nil {
		failFromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"page": page})
}

// ─── Param helpers ──────────────────────────────────────────────────

func bundleIDParam(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("bundleId"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return uuid.Nil, false
	}
	return id, true
}

func pageParams(c *gin.Context) (uuid.UUID, int, bool) {
	bundleID, ok := bundleIDParam(c)
	if !ok {
		return uuid.Nil, 0, false
	}
	order, err := strconv.Atoi(c.Param("order"))
	if err != nil || order < 1 {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return uuid.Nil, 0, false
	}
	return bundleID, order, true
}
