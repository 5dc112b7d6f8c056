package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"grievance-intake-go/internal/storage"
	"grievance-intake-go/internal/types"
	"grievance-intake-go/internal/workflow"
)

// ok writes {"success": true, ...fields}.
func ok(c *gin.Context, status int, fields gin.H) {
	body := gin.H{"success": true}
	for k, v := range fields {
		body[k] = v
	}
	c.JSON(status, body)
}

func abort(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{"success": false, "message": message})
}

// fail maps domain errors onto HTTP statuses.
func (h *Handler) fail(c *gin.Context, err error) {
	var ve *types.ValidationError
	switch {
	case errors.As(err, &ve):
		abort(c, http.StatusBadRequest, ve.Message)
	case errors.Is(err, types.ErrNotFound):
		abort(c, http.StatusNotFound, "Complaint not found")
	case errors.Is(err, types.ErrForbidden):
		abort(c, http.StatusForbidden, "Not authorized to access this complaint")
	case errors.Is(err, workflow.ErrTransitionNotAllowed):
		abort(c, http.StatusConflict, err.Error())
	case storage.IsPersistence(err):
		h.requestLog(c).WithError(err).Error("storage unavailable")
		c.Header("Retry-After", "5")
		abort(c, http.StatusServiceUnavailable, "Complaint store temporarily unavailable, please retry")
	default:
		h.requestLog(c).WithError(err).Error("unhandled error")
		abort(c, http.StatusInternalServerError, "Internal server error")
	}
}
