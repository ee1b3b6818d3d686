package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Rejection reasons used as the "reason" label
const (
	ReasonValidation   = "validation"
	ReasonAttachment   = "attachment"
	ReasonRateLimit    = "rate_limit"
	ReasonVerification = "verification"
	ReasonStorage      = "storage"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	SubmissionsAccepted   prometheus.Counter
	SubmissionsRejected   *prometheus.CounterVec
	NotificationsSent     prometheus.Counter
	NotificationFailures  prometheus.Counter
	NotificationsDropped  prometheus.Counter
	NotificationDuration  prometheus.Histogram
	ExportedRows          prometheus.Counter
	BulkOperationAffected *prometheus.CounterVec
}

// New registers the metrics with reg. Passing a fresh registry keeps
// tests independent of the global default registry.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		SubmissionsAccepted: factory.NewCounter(prometheus.CounterOpts{
			Name: "contact_submissions_accepted_total",
			Help: "Total number of contact submissions persisted",
		}),
		SubmissionsRejected: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "contact_submissions_rejected_total",
			Help: "Total number of contact submissions refused, by reason",
		}, []string{"reason"}),
		NotificationsSent: factory.NewCounter(prometheus.CounterOpts{
			Name: "contact_notifications_sent_total",
			Help: "Total number of admin notification emails delivered",
		}),
		NotificationFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "contact_notifications_failed_total",
			Help: "Total number of admin notification emails that failed",
		}),
		NotificationsDropped: factory.NewCounter(prometheus.CounterOpts{
			Name: "contact_notifications_dropped_total",
			Help: "Total number of notification jobs dropped because the queue was full",
		}),
		NotificationDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "contact_notification_duration_seconds",
			Help:    "Time spent fanning one submission out to every admin",
			Buckets: prometheus.DefBuckets,
		}),
		ExportedRows: factory.NewCounter(prometheus.CounterOpts{
			Name: "contact_export_rows_total",
			Help: "Total number of submission rows written to CSV exports",
		}),
		BulkOperationAffected: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "contact_bulk_rows_affected_total",
			Help: "Total number of rows touched by bulk admin operations",
		}, []string{"operation"}),
	}
}

// NewNop returns metrics registered on a private registry, for callers
// that do not expose them.
func NewNop() *Metrics {
	return New(prometheus.NewRegistry())
}
