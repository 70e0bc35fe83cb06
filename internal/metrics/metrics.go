// Package metrics holds the Prometheus collectors for HTTP traffic and
// directory events (likes, submissions, moderation).
//
// Collectors live on a Metrics value registered against an injected
// prometheus.Registerer, so tests can use a fresh registry each time
// instead of the process-wide default.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Like toggle outcomes.
const (
	LikeLiked   = "liked"
	LikeUnliked = "unliked"
	LikeFailed  = "failed"
	LikeDenied  = "anonymous"
)

// Moderation actions.
const (
	ActionApprove = "approve"
	ActionReject  = "reject"
)

type Metrics struct {
	httpRequests    *prometheus.CounterVec
	httpDuration    *prometheus.HistogramVec
	likeToggles     *prometheus.CounterVec
	submissions     prometheus.Counter
	moderations     *prometheus.CounterVec
	slugRetries     prometheus.Counter
	uploadsRejected *prometheus.CounterVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		httpRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests.",
			},
			[]string{"method", "route", "status"},
		),
		httpDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Histogram of HTTP request durations.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route", "status"},
		),
		likeToggles: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "directory_like_toggles_total",
				Help: "Like toggles by outcome.",
			},
			[]string{"result"},
		),
		submissions: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "directory_submissions_total",
			Help: "Submissions accepted into the moderation queue.",
		}),
		moderations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "directory_moderations_total",
				Help: "Submissions approved or rejected by the admin.",
			},
			[]string{"action"},
		),
		slugRetries: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "directory_slug_retries_total",
			Help: "Submission inserts retried after a slug collision.",
		}),
		uploadsRejected: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "directory_uploads_rejected_total",
				Help: "Uploaded files rejected by type or size checks.",
			},
			[]string{"bucket"},
		),
	}

	reg.MustRegister(
		m.httpRequests,
		m.httpDuration,
		m.likeToggles,
		m.submissions,
		m.moderations,
		m.slugRetries,
		m.uploadsRejected,
	)
	return m
}

// RecordRequest counts one HTTP request. route is the chi route pattern,
// not the raw path, so label cardinality stays bounded.
func (m *Metrics) RecordRequest(method, route string, statusCode int, d time.Duration) {
	status := classifyStatus(statusCode)
	m.httpRequests.WithLabelValues(method, route, status).Inc()
	m.httpDuration.WithLabelValues(method, route, status).Observe(d.Seconds())
}

func (m *Metrics) LikeToggled(result string) { m.likeToggles.WithLabelValues(result).Inc() }

func (m *Metrics) SubmissionCreated() { m.submissions.Inc() }

func (m *Metrics) SubmissionModerated(action string) { m.moderations.WithLabelValues(action).Inc() }

func (m *Metrics) SlugRetried() { m.slugRetries.Inc() }

func (m *Metrics) UploadRejected(bucket string) { m.uploadsRejected.WithLabelValues(bucket).Inc() }

// Handler exposes the collectors of g in the Prometheus text format.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

func classifyStatus(statusCode int) string {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return "2xx"
	case statusCode >= 300 && statusCode < 400:
		return "3xx"
	case statusCode >= 400 && statusCode < 500:
		return "4xx"
	case statusCode >= 500 && statusCode < 600:
		return "5xx"
	}
	return "unknown"
}
