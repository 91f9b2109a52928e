package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// SessionsStarted counts opened attendance sessions.
	SessionsStarted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "attendtrack_sessions_started_total",
		Help: "Attendance sessions opened.",
	})

	// SessionsEnded counts closed attendance sessions.
	SessionsEnded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "attendtrack_sessions_ended_total",
		Help: "Attendance sessions closed.",
	})

	// RecordsWritten counts attendance records by capture method.
	RecordsWritten = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "attendtrack_records_total",
		Help: "Attendance records written, by capture method.",
	}, []string{"method"})

	// AdapterFailures counts biometric adapter failures by adapter.
	AdapterFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "attendtrack_adapter_failures_total",
		Help: "Biometric adapter failures, by adapter.",
	}, []string{"adapter"})

	// HTTPRequests counts handled requests by route and status.
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "attendtrack_http_requests_total",
		Help: "HTTP requests handled, by route and status.",
	}, []string{"route", "status"})
)
