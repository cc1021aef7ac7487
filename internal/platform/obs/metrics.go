package obs

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ManeuversAdmitted counts admission decisions by maneuver type and result.
	ManeuversAdmitted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "trajectory_maneuvers_admitted_total",
		Help: "Maneuver admission decisions by type and result",
	}, []string{"type", "result"})

	// PlanRequests counts planning requests by outcome.
	PlanRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "trajectory_plan_requests_total",
		Help: "Planning requests by outcome",
	}, []string{"outcome"})

	// ExecutorTicks counts executor ticks by outcome.
	ExecutorTicks = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "trajectory_executor_ticks_total",
		Help: "Executor ticks by outcome",
	}, []string{"outcome"})

	// OpDuration tracks durations recorded by Time.
	OpDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "trajectory_operation_duration_seconds",
		Help:    "Operation duration in seconds",
		Buckets: prometheus.ExponentialBuckets(0.0001, 2, 14),
	}, []string{"op"})

	// HTTPRequests counts served requests by method and status.
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "trajectory_http_requests_total",
		Help: "HTTP requests by method and status code",
	}, []string{"method", "status"})
)
