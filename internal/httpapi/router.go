package httpapi

import (
	"github.com/gin-gonic/gin"

	"attendtrack/internal/auth"
)

// RegisterRoutes mounts all /v1 routes behind the identity middleware.
// /healthz and /metrics are mounted by the caller, outside auth.
func (h *Handler) RegisterRoutes(r *gin.Engine, signingKey, issuer string) {
	v1 := r.Group("/v1", auth.Middleware(signingKey, issuer))

	staff := v1.Group("", auth.RequireRoles(auth.RoleAdmin, auth.RoleHoD, auth.RoleLecturer))
	{
		staff.POST("/sessions", h.StartSession)
		staff.GET("/sessions/active", h.ActiveSession)
		staff.POST("/sessions/:id/end", h.EndSession)
		staff.GET("/sessions/:id/stats", h.SessionStats)
		staff.GET("/sessions/:id/records", h.SessionRecords)
		staff.POST("/sessions/:id/records", h.RecordAttendance)
		staff.POST("/sessions/:id/captures/face", h.CaptureFace)
		staff.POST("/sessions/:id/captures/fingerprint", h.CaptureFingerprint)

		staff.GET("/reports/courses/:id/sessions", h.CourseSessions)
		staff.GET("/reports/students/:id/rate", h.StudentRate)

		staff.POST("/leaves/:id/review", h.ReviewLeave)
	}

	v1.POST("/leaves", auth.RequireRoles(auth.RoleStudent), h.CreateLeave)
	v1.GET("/leaves", h.ListLeaves)
}
