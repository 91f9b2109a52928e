package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"attendtrack/internal/attendance"
	"attendtrack/internal/auth"
	"attendtrack/internal/metrics"
	"attendtrack/internal/queue"
)

type startSessionRequest struct {
	DepartmentID    string `json:"department_id" binding:"required"`
	OptionID        string `json:"option_id" binding:"required"`
	CourseID        string `json:"course_id" binding:"required"`
	YearLevel       int    `json:"year_level" binding:"required"`
	BiometricMethod string `json:"biometric_method" binding:"required"`
	ForceNew        bool   `json:"force_new"`
}

// StartSession opens an attendance session for the caller.
func (h *Handler) StartSession(c *gin.Context) {
	id, _ := auth.FromContext(c)

	var req startSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.att.Start(c.Request.Context(), id, attendance.StartRequest{
		DepartmentID:    req.DepartmentID,
		OptionID:        req.OptionID,
		CourseID:        req.CourseID,
		YearLevel:       req.YearLevel,
		BiometricMethod: req.BiometricMethod,
		ForceNew:        req.ForceNew,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}

	metrics.SessionsStarted.Inc()
	c.JSON(http.StatusCreated, gin.H{
		"session":     result.Session,
		"roster_size": result.RosterSize,
	})
}

// EndSession closes a session and returns its final counts.
func (h *Handler) EndSession(c *gin.Context) {
	id, _ := auth.FromContext(c)

	summary, err := h.att.End(c.Request.Context(), id, c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}

	metrics.SessionsEnded.Inc()
	if msg, err := queue.NewMessage(queue.TypeSessionClosed, queue.SessionClosed{SessionID: summary.SessionID}); err == nil {
		if err := h.q.Publish(c.Request.Context(), msg); err != nil {
			h.logger.Warn("queue publish failed", zap.String("session_id", summary.SessionID), zap.Error(err))
		}
	}

	c.JSON(http.StatusOK, gin.H{"summary": summary})
}

// ActiveSession returns the caller's open session, if any.
func (h *Handler) ActiveSession(c *gin.Context) {
	id, _ := auth.FromContext(c)

	sess, err := h.att.ActiveSession(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	if sess == nil {
		c.JSON(http.StatusOK, gin.H{"active_session": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{"active_session": true, "session": sess})
}

// SessionStats returns live counts for a session.
func (h *Handler) SessionStats(c *gin.Context) {
	id, _ := auth.FromContext(c)

	summary, err := h.att.Stats(c.Request.Context(), id, c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"stats": summary})
}

// SessionRecords lists a session's attendance records.
func (h *Handler) SessionRecords(c *gin.Context) {
	id, _ := auth.FromContext(c)

	records, err := h.att.Records(c.Request.Context(), id, c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"records": records})
}

type recordRequest struct {
	StudentID string `json:"student_id"`
	RegNo     string `json:"reg_no"`
	Status    string `json:"status"`
	Method    string `json:"method"`
}

// RecordAttendance registers a manual presence observation. The student
// may be named by id or by registration number.
func (h *Handler) RecordAttendance(c *gin.Context) {
	id, _ := auth.FromContext(c)

	var req recordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.StudentID == "" && req.RegNo == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "student_id or reg_no required"})
		return
	}
	if req.StudentID == "" {
		studentID, err := h.att.ResolveStudent(c.Request.Context(), req.RegNo)
		if err != nil {
			h.writeError(c, err)
			return
		}
		req.StudentID = studentID
	}
	if req.Status == "" {
		req.Status = attendance.StatusPresent
	}
	if req.Method == "" {
		req.Method = attendance.MethodManual
	}

	result, err := h.att.Record(c.Request.Context(), id, c.Param("id"), req.StudentID, req.Status, req.Method)
	if err != nil {
		h.writeError(c, err)
		return
	}

	metrics.RecordsWritten.WithLabelValues(result.Record.Method).Inc()
	c.JSON(http.StatusOK, result)
}
