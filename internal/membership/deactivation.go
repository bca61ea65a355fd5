package membership

import "time"

// ShouldDeactivate reports whether the sweep must flip sub to inactive:
// it has been expired for more than DeactivateAfterDays.
func ShouldDeactivate(sub *Subscription, today time.Time) bool {
	if sub == nil || sub.Status == StoredInactive || sub.EndDate == nil {
		return false
	}
	return DiffDays(*sub.EndDate, today) < -DeactivateAfterDays
}

// DeactivationCutoff is the first calendar date that is NOT swept. Rows with
// end_date < cutoff are exactly those for which ShouldDeactivate holds.
func DeactivationCutoff(today time.Time) time.Time {
	return CalendarDate(today).AddDate(0, 0, -DeactivateAfterDays)
}
