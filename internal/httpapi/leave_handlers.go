package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"attendtrack/internal/auth"
)

type createLeaveRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// CreateLeave files a leave request for the calling student.
func (h *Handler) CreateLeave(c *gin.Context) {
	id, _ := auth.FromContext(c)

	var req createLeaveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	created, err := h.leaves.Create(c.Request.Context(), id, req.Reason)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"request": created})
}

// ListLeaves returns the requests visible to the caller.
func (h *Handler) ListLeaves(c *gin.Context) {
	id, _ := auth.FromContext(c)

	requests, err := h.leaves.List(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"requests": requests, "total": len(requests)})
}

type reviewLeaveRequest struct {
	Decision string `json:"decision" binding:"required"`
}

// ReviewLeave decides a pending leave request.
func (h *Handler) ReviewLeave(c *gin.Context) {
	id, _ := auth.FromContext(c)

	var req reviewLeaveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	reviewed, err := h.leaves.Review(c.Request.Context(), id, c.Param("id"), req.Decision)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"request": reviewed})
}
