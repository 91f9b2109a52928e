package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const dateLayout = "2006-01-02"

// CourseSessions lists a course's sessions within a date range.
func (h *Handler) CourseSessions(c *gin.Context) {
	from := time.Now().UTC().AddDate(0, -1, 0)
	to := time.Now().UTC()

	if v := c.Query("from"); v != "" {
		parsed, err := time.Parse(dateLayout, v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "from must be YYYY-MM-DD"})
			return
		}
		from = parsed
	}
	if v := c.Query("to"); v != "" {
		parsed, err := time.Parse(dateLayout, v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "to must be YYYY-MM-DD"})
			return
		}
		to = parsed
	}

	sessions, err := h.reports.CourseSessions(c.Request.Context(), c.Param("id"), from, to)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"sessions": sessions})
}

// StudentRate returns a student's attendance rate.
func (h *Handler) StudentRate(c *gin.Context) {
	rate, err := h.reports.StudentRate(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"rate": rate})
}
