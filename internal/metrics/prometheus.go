package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Dispatch metrics
var (
	DispatchTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mailing_dispatch_total",
			Help: "Total number of dispatch calls by outcome",
		},
		[]string{"outcome"}, // sent, not_found, not_eligible, not_due, window_closed, no_recipients, error
	)

	AttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mailing_attempts_total",
			Help: "Total number of recorded mailing attempts",
		},
		[]string{"status"}, // success, failed
	)

	PassDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "mailing_dispatch_pass_duration_seconds",
			Help:    "Duration of periodic dispatch passes",
			Buckets: prometheus.DefBuckets,
		},
	)

	PassDispatched = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "mailing_dispatch_pass_dispatched_total",
			Help: "Total number of mailings dispatched by periodic passes",
		},
	)
)

// API metrics
var (
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "route", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "Duration of API requests",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
)

// Stats cache metrics
var (
	StatsCacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stats_cache_lookups_total",
			Help: "Home stats cache lookups by result",
		},
		[]string{"result"}, // hit, miss, error
	)
)
