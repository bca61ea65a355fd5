package membership

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var kolkata = mustLoad("Asia/Kolkata")

func mustLoad(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		panic(err)
	}
	return loc
}

func testToday() time.Time {
	return time.Date(2024, time.March, 15, 0, 0, 0, 0, kolkata)
}

// endIn returns a stored DATE value offset days from testToday, as the
// Postgres driver scans it (UTC midnight).
func endIn(days int) *time.Time {
	d := time.Date(2024, time.March, 15+days, 0, 0, 0, 0, time.UTC)
	return &d
}

func sub(status StoredStatus, end *time.Time) *Subscription {
	return &Subscription{Status: status, EndDate: end}
}

func TestToday(t *testing.T) {
	now := time.Date(2024, time.March, 14, 20, 45, 0, 0, time.UTC) // 02:15 on the 15th in Kolkata
	today := Today(now, kolkata)

	assert.Equal(t, time.Date(2024, time.March, 15, 0, 0, 0, 0, kolkata), today)
}

func TestToday_NilLocationUsesNowLocation(t *testing.T) {
	now := time.Date(2024, time.March, 14, 20, 45, 0, 0, time.UTC)

	assert.Equal(t, time.Date(2024, time.March, 14, 0, 0, 0, 0, time.UTC), Today(now, nil))
}

func TestDiffDays(t *testing.T) {
	today := testToday()

	tests := []struct {
		name string
		end  time.Time
		want int
	}{
		{"same day", *endIn(0), 0},
		{"tomorrow", *endIn(1), 1},
		{"yesterday", *endIn(-1), -1},
		{"ten days ahead", *endIn(10), 10},
		{"forty five days ago", *endIn(-45), -45},
		{"time of day ignored", time.Date(2024, time.March, 16, 23, 59, 0, 0, time.UTC), 1},
		{"across month end", time.Date(2024, time.April, 1, 0, 0, 0, 0, time.UTC), 17},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DiffDays(tt.end, today))
		})
	}
}

func TestDiffDays_AcrossDSTChange(t *testing.T) {
	ny := mustLoad("America/New_York")
	today := time.Date(2024, time.March, 9, 0, 0, 0, 0, ny)
	end := time.Date(2024, time.March, 11, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, 2, DiffDays(end, today))
}

func TestCalendarDate(t *testing.T) {
	late := time.Date(2024, time.March, 15, 23, 30, 0, 0, kolkata)

	assert.Equal(t, time.Date(2024, time.March, 15, 0, 0, 0, 0, time.UTC), CalendarDate(late))
}

func TestClassify(t *testing.T) {
	today := testToday()

	tests := []struct {
		name string
		sub  *Subscription
		want DerivedStatus
	}{
		{"no subscription", nil, NoSubscription},
		{"inactive with future end date", sub(StoredInactive, endIn(60)), Inactive},
		{"inactive with past end date", sub(StoredInactive, endIn(-60)), Inactive},
		{"inactive without end date", sub(StoredInactive, nil), Inactive},
		{"active but past end date", sub(StoredActive, endIn(-1)), Expired},
		{"paused but past end date", sub(StoredPaused, endIn(-3)), Expired},
		{"end date today", sub(StoredActive, endIn(0)), ExpiringSoon},
		{"end date in seven days", sub(StoredActive, endIn(7)), ExpiringSoon},
		{"stored expired within window", sub(StoredExpired, endIn(3)), ExpiringSoon},
		{"end date in eight days", sub(StoredActive, endIn(8)), Active},
		{"paused far ahead", sub(StoredPaused, endIn(30)), Paused},
		{"stale expiring_soon far ahead", sub(StoredExpiringSoon, endIn(30)), ExpiringSoon},
		{"unknown status passed through", sub("frozen", endIn(30)), DerivedStatus("frozen")},
		{"no end date keeps stored status", sub(StoredActive, nil), Active},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.sub, today))
		})
	}
}

func TestClassify_InactiveAlwaysWins(t *testing.T) {
	today := testToday()
	for offset := -90; offset <= 90; offset++ {
		require.Equal(t, Inactive, Classify(sub(StoredInactive, endIn(offset)), today), "offset %d", offset)
	}
}

func TestClassify_PastEndDateIsExpired(t *testing.T) {
	today := testToday()
	for _, status := range []StoredStatus{StoredActive, StoredPaused, StoredExpired, StoredExpiringSoon, "other"} {
		for offset := -90; offset < 0; offset++ {
			require.Equal(t, Expired, Classify(sub(status, endIn(offset)), today), "status %s offset %d", status, offset)
		}
	}
}

func TestClassify_WindowOverridesStoredStatus(t *testing.T) {
	today := testToday()
	for _, status := range []StoredStatus{StoredActive, StoredPaused, StoredExpired} {
		for offset := 0; offset <= ExpiringSoonDays; offset++ {
			require.Equal(t, ExpiringSoon, Classify(sub(status, endIn(offset)), today))
		}
	}
}

func TestPredicates(t *testing.T) {
	today := testToday()

	assert.True(t, IsExpired(sub(StoredActive, endIn(-1)), today))
	assert.False(t, IsExpired(sub(StoredActive, endIn(0)), today))
	assert.False(t, IsExpired(sub(StoredInactive, endIn(-10)), today))
	assert.False(t, IsExpired(nil, today))

	assert.True(t, IsExpiringSoon(sub(StoredActive, endIn(5)), today))
	// outside the window the stored value is passed through verbatim
	assert.True(t, IsExpiringSoon(sub(StoredExpiringSoon, endIn(20)), today))
	assert.False(t, IsExpiringSoon(sub(StoredActive, endIn(8)), today))
	assert.False(t, IsExpiringSoon(nil, today))
}

func TestCanSendExpiredReminder(t *testing.T) {
	today := testToday()

	assert.True(t, CanSendExpiredReminder(sub(StoredActive, endIn(-2)), today))
	assert.False(t, CanSendExpiredReminder(sub(StoredInactive, endIn(-2)), today))
	assert.False(t, CanSendExpiredReminder(sub(StoredActive, endIn(2)), today))
	assert.False(t, CanSendExpiredReminder(nil, today))
}

func TestDaysLeft(t *testing.T) {
	today := testToday()

	d := DaysLeft(sub(StoredActive, endIn(4)), today)
	require.NotNil(t, d)
	assert.Equal(t, 4, *d)

	assert.Nil(t, DaysLeft(sub(StoredActive, nil), today))
	assert.Nil(t, DaysLeft(nil, today))
}

func TestLabel(t *testing.T) {
	assert.Equal(t, "Expiring Soon", ExpiringSoon.Label())
	assert.Equal(t, "No Subscription", NoSubscription.Label())
	assert.Equal(t, "On Hold", DerivedStatus("on_hold").Label())
}
