package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gymcrm_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gymcrm_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	MembersRegisteredTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gymcrm_members_registered_total",
			Help: "Total number of members registered",
		},
	)

	SubscriptionsCreatedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gymcrm_subscriptions_created_total",
			Help: "Total number of subscriptions created",
		},
		[]string{"kind", "plan"},
	)

	PaymentsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gymcrm_payments_total",
			Help: "Total number of payments recorded",
		},
		[]string{"kind", "method"},
	)

	PaymentsAmountCents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gymcrm_payments_amount_cents_total",
			Help: "Sum of recorded payments in the smallest currency unit",
		},
		[]string{"kind"},
	)

	NotificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gymcrm_notifications_total",
			Help: "Total number of WhatsApp notifications by outcome",
		},
		[]string{"type", "status"},
	)

	NotificationQueueLength = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "gymcrm_notification_queue_length",
			Help: "Current length of the WhatsApp outbox",
		},
	)

	SweepRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gymcrm_sweep_runs_total",
			Help: "Auto-deactivation sweep runs by result",
		},
		[]string{"result"},
	)

	SubscriptionsDeactivatedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gymcrm_subscriptions_deactivated_total",
			Help: "Subscriptions flipped to inactive by the sweep",
		},
		[]string{"kind"},
	)

	MembersByBucket = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "gymcrm_members_by_bucket",
			Help: "Members per status bucket, refreshed when analytics are computed",
		},
		[]string{"branch_id", "bucket"},
	)
)

func RecordHTTPRequest(method, path, status string, duration float64) {
	HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, path).Observe(duration)
}

func RecordMemberRegistered() {
	MembersRegisteredTotal.Inc()
}

func RecordSubscription(kind, plan string) {
	SubscriptionsCreatedTotal.WithLabelValues(kind, plan).Inc()
}

func RecordPayment(kind, method string, amountCents int64) {
	PaymentsTotal.WithLabelValues(kind, method).Inc()
	PaymentsAmountCents.WithLabelValues(kind).Add(float64(amountCents))
}

func RecordNotification(msgType, status string) {
	NotificationsTotal.WithLabelValues(msgType, status).Inc()
}

func SetNotificationQueueLength(n int64) {
	NotificationQueueLength.Set(float64(n))
}

func RecordSweep(result string, gym, pt int64) {
	SweepRunsTotal.WithLabelValues(result).Inc()
	SubscriptionsDeactivatedTotal.WithLabelValues("gym").Add(float64(gym))
	SubscriptionsDeactivatedTotal.WithLabelValues("pt").Add(float64(pt))
}

func SetMembersByBucket(branchID, bucket string, n int) {
	MembersByBucket.WithLabelValues(branchID, bucket).Set(float64(n))
}
