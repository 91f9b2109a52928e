package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"attendtrack/internal/attendance"
	"attendtrack/internal/auth"
	"attendtrack/internal/biometric"
	"attendtrack/internal/metrics"
)

type faceCaptureRequest struct {
	Image string `json:"image" binding:"required"`
}

// CaptureFace resolves a face capture and records the matched student.
func (h *Handler) CaptureFace(c *gin.Context) {
	var req faceCaptureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.capture(c, h.face, attendance.MethodFace, req.Image)
}

// CaptureFingerprint triggers a scan and records the matched student.
func (h *Handler) CaptureFingerprint(c *gin.Context) {
	h.capture(c, h.fingerprint, attendance.MethodFingerprint, "")
}

// capture is the shared path for both biometric adapters: load the
// session, resolve the identity, then upsert the record. The record write
// re-checks session status transactionally, so a close racing with the
// (possibly slow) adapter call still fails cleanly.
func (h *Handler) capture(c *gin.Context, adapter biometric.Adapter, method, image string) {
	id, _ := auth.FromContext(c)
	ctx := c.Request.Context()
	sessionID := c.Param("id")

	sess, err := h.att.Session(ctx, id, sessionID)
	if err != nil {
		h.writeError(c, err)
		return
	}

	resolution, err := h.resolver.Resolve(ctx, adapter, sess, biometric.Capture{
		SessionID: sessionID,
		Image:     image,
	})
	if err != nil {
		metrics.AdapterFailures.WithLabelValues(adapter.Name()).Inc()
		h.writeError(c, err)
		return
	}

	result, err := h.att.Record(ctx, id, sessionID, resolution.StudentID, attendance.StatusPresent, method)
	if err != nil {
		h.writeError(c, err)
		return
	}

	metrics.RecordsWritten.WithLabelValues(method).Inc()
	c.JSON(http.StatusOK, gin.H{
		"record":           result.Record,
		"already_recorded": result.AlreadyRecorded,
		"student_id":       resolution.StudentID,
		"confidence":       resolution.Confidence,
	})
}
