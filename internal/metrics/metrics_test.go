package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordHTTPRequest(t *testing.T) {
	HTTPRequestsTotal.Reset()
	HTTPRequestDuration.Reset()

	RecordHTTPRequest("GET", "/branches/:branchID/members", "200", 0.5)

	count := testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("GET", "/branches/:branchID/members", "200"))
	assert.Equal(t, float64(1), count)
	assert.Equal(t, 1, testutil.CollectAndCount(HTTPRequestDuration))
}

func TestRecordHTTPRequestMultiple(t *testing.T) {
	HTTPRequestsTotal.Reset()

	RecordHTTPRequest("POST", "/auth/login", "200", 0.1)
	RecordHTTPRequest("POST", "/auth/login", "200", 0.2)
	RecordHTTPRequest("POST", "/auth/login", "401", 0.05)

	assert.Equal(t, float64(2), testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("POST", "/auth/login", "200")))
	assert.Equal(t, float64(1), testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("POST", "/auth/login", "401")))
}

func TestRecordMemberRegistered(t *testing.T) {
	testCounter := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "gymcrm_members_registered_total_test",
		Help: "Total number of members registered",
	})

	old := MembersRegisteredTotal
	MembersRegisteredTotal = testCounter
	defer func() { MembersRegisteredTotal = old }()

	RecordMemberRegistered()
	RecordMemberRegistered()

	assert.Equal(t, float64(2), testutil.ToFloat64(testCounter))
}

func TestRecordSubscription(t *testing.T) {
	SubscriptionsCreatedTotal.Reset()

	RecordSubscription("registration", "monthly")
	RecordSubscription("renewal", "monthly")
	RecordSubscription("renewal", "monthly")

	assert.Equal(t, float64(1), testutil.ToFloat64(SubscriptionsCreatedTotal.WithLabelValues("registration", "monthly")))
	assert.Equal(t, float64(2), testutil.ToFloat64(SubscriptionsCreatedTotal.WithLabelValues("renewal", "monthly")))
}

func TestRecordPayment(t *testing.T) {
	PaymentsTotal.Reset()
	PaymentsAmountCents.Reset()

	RecordPayment("pt", "upi", 250000)
	RecordPayment("pt", "cash", 100000)

	assert.Equal(t, float64(1), testutil.ToFloat64(PaymentsTotal.WithLabelValues("pt", "upi")))
	assert.Equal(t, float64(350000), testutil.ToFloat64(PaymentsAmountCents.WithLabelValues("pt")))
}

func TestRecordNotification(t *testing.T) {
	NotificationsTotal.Reset()

	RecordNotification("expired_reminder", "sent")
	RecordNotification("expired_reminder", "failed")
	RecordNotification("welcome", "sent")

	assert.Equal(t, float64(1), testutil.ToFloat64(NotificationsTotal.WithLabelValues("expired_reminder", "sent")))
	assert.Equal(t, float64(1), testutil.ToFloat64(NotificationsTotal.WithLabelValues("expired_reminder", "failed")))
	assert.Equal(t, float64(1), testutil.ToFloat64(NotificationsTotal.WithLabelValues("welcome", "sent")))
}

func TestSetNotificationQueueLength(t *testing.T) {
	SetNotificationQueueLength(12)
	assert.Equal(t, float64(12), testutil.ToFloat64(NotificationQueueLength))
}

func TestRecordSweep(t *testing.T) {
	SweepRunsTotal.Reset()
	SubscriptionsDeactivatedTotal.Reset()

	RecordSweep("success", 4, 1)
	RecordSweep("success", 0, 0)

	assert.Equal(t, float64(2), testutil.ToFloat64(SweepRunsTotal.WithLabelValues("success")))
	assert.Equal(t, float64(4), testutil.ToFloat64(SubscriptionsDeactivatedTotal.WithLabelValues("gym")))
	assert.Equal(t, float64(1), testutil.ToFloat64(SubscriptionsDeactivatedTotal.WithLabelValues("pt")))
}

func TestSetMembersByBucket(t *testing.T) {
	MembersByBucket.Reset()

	SetMembersByBucket("3", "expired", 17)

	assert.Equal(t, float64(17), testutil.ToFloat64(MembersByBucket.WithLabelValues("3", "expired")))
}
