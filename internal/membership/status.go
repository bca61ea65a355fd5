// Package membership derives display and filter status for gym and
// personal-training subscriptions from their stored status and end date.
//
// Every function here is pure: callers supply "today" (see Today) and the
// package never reads the wall clock.
package membership

import (
	"strings"
	"time"
)

// StoredStatus is the raw status column. It is advisory: the status shown
// to staff is recomputed from the end date by Classify.
type StoredStatus string

const (
	StoredActive       StoredStatus = "active"
	StoredInactive     StoredStatus = "inactive"
	StoredExpired      StoredStatus = "expired"
	StoredPaused       StoredStatus = "paused"
	StoredExpiringSoon StoredStatus = "expiring_soon"
)

// DerivedStatus is what badges and filters work with. Stored values with no
// dedicated constant are passed through unchanged.
type DerivedStatus string

const (
	NoSubscription DerivedStatus = "no_subscription"
	Inactive       DerivedStatus = "inactive"
	Expired        DerivedStatus = "expired"
	ExpiringSoon   DerivedStatus = "expiring_soon"
	Active         DerivedStatus = "active"
	Paused         DerivedStatus = "paused"
)

const (
	// ExpiringSoonDays is the inclusive upper bound of the expiring window.
	ExpiringSoonDays = 7
	// RecentlyExpiredDays bounds expired_recent: [-30, -1] days.
	RecentlyExpiredDays = 30
	// DeactivateAfterDays: subscriptions expired for longer than this are
	// flipped to inactive by the sweep.
	DeactivateAfterDays = 30
)

// Subscription is the slice of a gym or PT subscription the classifier needs.
type Subscription struct {
	Status    StoredStatus
	StartDate time.Time
	EndDate   *time.Time
}

// Today returns local midnight of now in loc.
func Today(now time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = now.Location()
	}
	t := now.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

// DiffDays counts calendar days from today to endDate; negative when endDate
// is in the past. Both values are reduced to their calendar date first (the
// end date as stored, today in its own location), so the result is exact and
// unaffected by DST transitions.
func DiffDays(endDate, today time.Time) int {
	return int(CalendarDate(endDate).Sub(CalendarDate(today)) / (24 * time.Hour))
}

// CalendarDate drops the clock and zone of t, keeping its calendar date as
// UTC midnight. This is the form DATE columns are written and compared in.
func CalendarDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Classify derives the status of sub as of today. Rules, in order:
// no subscription, stored inactive, past end date, end date within
// ExpiringSoonDays, then the stored status as-is.
func Classify(sub *Subscription, today time.Time) DerivedStatus {
	if sub == nil {
		return NoSubscription
	}
	if sub.Status == StoredInactive {
		return Inactive
	}
	if sub.EndDate == nil {
		return passthrough(sub.Status)
	}

	d := DiffDays(*sub.EndDate, today)
	switch {
	case d < 0:
		return Expired
	case d <= ExpiringSoonDays:
		return ExpiringSoon
	}
	return passthrough(sub.Status)
}

func passthrough(s StoredStatus) DerivedStatus {
	switch s {
	case StoredActive:
		return Active
	case StoredPaused:
		return Paused
	}
	return DerivedStatus(s)
}

func IsExpired(sub *Subscription, today time.Time) bool {
	return Classify(sub, today) == Expired
}

func IsExpiringSoon(sub *Subscription, today time.Time) bool {
	return Classify(sub, today) == ExpiringSoon
}

// CanSendExpiredReminder gates the "membership expired" message.
func CanSendExpiredReminder(sub *Subscription, today time.Time) bool {
	return sub != nil && sub.Status != StoredInactive && IsExpired(sub, today)
}

// DaysLeft returns DiffDays for subscriptions that have an end date.
func DaysLeft(sub *Subscription, today time.Time) *int {
	if sub == nil || sub.EndDate == nil {
		return nil
	}
	d := DiffDays(*sub.EndDate, today)
	return &d
}

// Label is the human-readable badge text.
func (s DerivedStatus) Label() string {
	switch s {
	case NoSubscription:
		return "No Subscription"
	case Inactive:
		return "Inactive"
	case Expired:
		return "Expired"
	case ExpiringSoon:
		return "Expiring Soon"
	case Active:
		return "Active"
	case Paused:
		return "Paused"
	case "":
		return ""
	}
	words := strings.Split(string(s), "_")
	for i, w := range words {
		if w != "" {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}
