package httpapi

import (
	"go.uber.org/zap"

	"attendtrack/internal/attendance"
	"attendtrack/internal/biometric"
	"attendtrack/internal/leave"
	"attendtrack/internal/queue"
	"attendtrack/internal/report"
)

// Handler bundles the services the HTTP layer fronts.
type Handler struct {
	att         *attendance.Service
	leaves      *leave.Service
	reports     *report.Service
	resolver    *biometric.Resolver
	face        biometric.Adapter
	fingerprint biometric.Adapter
	q           queue.Queue
	logger      *zap.Logger
}

// NewHandler wires the HTTP handlers.
func NewHandler(
	att *attendance.Service,
	leaves *leave.Service,
	reports *report.Service,
	resolver *biometric.Resolver,
	face, fingerprint biometric.Adapter,
	q queue.Queue,
	logger *zap.Logger,
) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		att:         att,
		leaves:      leaves,
		reports:     reports,
		resolver:    resolver,
		face:        face,
		fingerprint: fingerprint,
		q:           q,
		logger:      logger,
	}
}
