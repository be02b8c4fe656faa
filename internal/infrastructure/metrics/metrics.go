// Package metrics holds the Prometheus collectors exposed on /metrics.
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTPRequestsTotal counts handled requests by method, route and status.
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "listinghub_http_requests_total",
			Help: "Total number of HTTP requests handled",
		},
		[]string{"method", "route", "status"},
	)

	// HTTPRequestDuration tracks request latency by route.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "listinghub_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// ReviewDecisionsTotal counts admin review decisions by entity and decision.
	ReviewDecisionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "listinghub_review_decisions_total",
			Help: "Total number of admin review decisions",
		},
		[]string{"entity", "decision"},
	)

	// SubmissionsTotal counts listings and coupons entering the pending state.
	SubmissionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "listinghub_submissions_total",
			Help: "Total number of submissions and resubmissions entering review",
		},
		[]string{"entity", "kind"},
	)
)

// ObserveRequest records one handled request.
func ObserveRequest(method, route string, status int, seconds float64) {
	HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	HTTPRequestDuration.WithLabelValues(method, route).Observe(seconds)
}

// RecordDecision records one admin review decision.
func RecordDecision(entity, decision string) {
	ReviewDecisionsTotal.WithLabelValues(entity, decision).Inc()
}

// RecordSubmission records a create ("submit") or edit ("resubmit") entering review.
func RecordSubmission(entity, kind string) {
	SubmissionsTotal.WithLabelValues(entity, kind).Inc()
}
