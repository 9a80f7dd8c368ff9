package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	ResultSuccess = "success"
	ResultFailure = "failure"
	ResultAllowed = "allowed"
	ResultDenied  = "denied"
	ResultError   = "error"
)

var (
	LeadsCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "topglass_leads_created_total",
			Help: "Total number of quote requests stored",
		},
	)

	Uploads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "topglass_uploads_total",
			Help: "Total number of lead attachment uploads by result",
		},
		[]string{"result"},
	)

	RateLimitChecks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "topglass_rate_limit_checks_total",
			Help: "Total number of rate limit checks by endpoint and result",
		},
		[]string{"endpoint", "result"},
	)

	Notifications = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "topglass_notifications_total",
			Help: "Total number of operator notifications by result",
		},
		[]string{"result"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "topglass_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)
)

// Outcome maps an error to the success/failure result label.
func Outcome(err error) string {
	if err != nil {
		return ResultFailure
	}
	return ResultSuccess
}
