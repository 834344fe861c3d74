package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/paperflow/paperflow-backend/internal/middleware"
	"github.com/paperflow/paperflow-backend/internal/repository"
	"github.com/paperflow/paperflow-backend/internal/response"
	"github.com/paperflow/paperflow-backend/internal/service"
)

// failFromError maps service errors onto the response envelope. Any
// error without a dedicated mapping is a 500.
func failFromError(c *gin.Context, err error) {
	var notReady *service.NotReadyError
	switch {
	case errors.Is(err, service.ErrBundleNotFound),
		errors.Is(err, service.ErrPageNotFound),
		errors.Is(err, service.ErrCollisionNotFound),
		errors.Is(err, service.ErrTaskNotFound),
		errors.Is(err, service.ErrUserNotFound):
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)

	case errors.Is(err, service.ErrNoLayout):
		response.Fail(c, http.StatusConflict, response.ErrNoLayout)

	case errors.Is(err, service.ErrDuplicateBundle):
		response.Fail(c, http.StatusConflict, response.ErrDuplicateBundle)

	case errors.Is(err, service.ErrBundlePushed):
		response.Fail(c, http.StatusConflict, response.ErrBundlePushed)

	case errors.As(err, &notReady):
		response.FailWithFields(c, http.StatusConflict, response.ErrBundleNotReady,
			map[string]string{"blockers": notReady.Error()})

	case errors.Is(err, repository.ErrPageImmutable):
		response.Fail(c, http.StatusConflict, response.ErrPageImmutable)

	case errors.Is(err, service.ErrPaperNotBuilt):
		response.Fail(c, http.StatusUnprocessableEntity, response.ErrPaperNotBuilt)

	case errors.Is(err, service.ErrUnknownQuestion), errors.Is(err, service.ErrUnknownSlot):
		response.FailWithFields(c, http.StatusUnprocessableEntity, response.ErrValidation,
			map[string]string{"layout": err.Error()})

	case errors.Is(err, service.ErrCollisionConflict):
		response.Fail(c, http.StatusConflict, response.ErrCollisionConflict)

	case errors.Is(err, service.ErrClaimLost):
		response.Fail(c, http.StatusConflict, response.ErrClaimLost)

	case errors.Is(err, service.ErrInvalidToken):
		response.Fail(c, http.StatusUnauthorized, response.ErrInvalidClaimToken)

	case errors.Is(err, service.ErrSlotInvariant):
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)

	default:
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
	}
}

// userID extracts the authenticated user's id from the request claims.
func userID(c *gin.Context) int {
	if claims := middleware.GetClaims(c); claims != nil {
		return claims.UserID
	}
	return 0
}

// username extracts the authenticated user's name from the request claims.
func username(c *gin.Context) string {
	if claims := middleware.GetClaims(c); claims != nil {
		return claims.Username
	}
	return ""
}
