package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"attendtrack/internal/attendance"
	"attendtrack/internal/biometric"
	"attendtrack/internal/leave"
)

// writeError maps domain errors onto HTTP responses. Unknown errors are
// logged with context and answered with an opaque 500 so no storage
// detail leaks to the caller.
func (h *Handler) writeError(c *gin.Context, err error) {
	var conflict *attendance.ConflictError
	if errors.As(err, &conflict) {
		c.JSON(http.StatusConflict, gin.H{
			"error":            "active session already exists",
			"existing_session": conflict.Existing,
		})
		return
	}

	var validation *attendance.ValidationError
	if errors.As(err, &validation) {
		c.JSON(http.StatusBadRequest, gin.H{"error": validation.Error(), "field": validation.Field})
		return
	}

	var reference *attendance.ReferenceError
	if errors.As(err, &reference) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": reference.Error(), "field": reference.Field})
		return
	}

	var adapterErr *biometric.AdapterError
	if errors.As(err, &adapterErr) {
		h.logger.Error("biometric adapter failed", zap.String("adapter", adapterErr.Adapter), zap.Error(adapterErr.Err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "biometric service unavailable, try manual entry"})
		return
	}

	switch {
	case errors.Is(err, attendance.ErrInvalidBiometricMethod),
		errors.Is(err, attendance.ErrInvalidStatus),
		errors.Is(err, leave.ErrInvalidDecision),
		errors.Is(err, leave.ErrReasonRequired):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

	case errors.Is(err, attendance.ErrForbidden),
		errors.Is(err, leave.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})

	case errors.Is(err, attendance.ErrNotFound),
		errors.Is(err, leave.ErrNotFound),
		errors.Is(err, leave.ErrUnknownStudent):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})

	case errors.Is(err, attendance.ErrAlreadyCompleted),
		errors.Is(err, attendance.ErrSessionClosed),
		errors.Is(err, leave.ErrAlreadyReviewed):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})

	case errors.Is(err, biometric.ErrAdapterTimeout):
		c.JSON(http.StatusGatewayTimeout, gin.H{"error": "biometric service timed out, try again or use manual entry"})

	case errors.Is(err, biometric.ErrUnresolved):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error(), "fallback": "manual"})

	case errors.Is(err, biometric.ErrAmbiguousMatch):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "ambiguous match, rescan or use manual entry"})

	case errors.Is(err, biometric.ErrOutOfScopeMatch):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "matched student is not in this session's cohort"})

	default:
		h.logger.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "an unexpected error occurred, try again"})
	}
}
