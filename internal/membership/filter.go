package membership

import (
	"errors"
	"time"
)

type Filter string

const (
	FilterAll           Filter = "all"
	FilterInactive      Filter = "inactive"
	FilterActive        Filter = "active"
	FilterExpired       Filter = "expired"
	FilterExpiredRecent Filter = "expired_recent"
	FilterExpiringSoon  Filter = "expiring_soon"
	FilterExpiringToday Filter = "expiring_today"
	FilterExpiring2Days Filter = "expiring_2days"
	FilterExpiring7Days Filter = "expiring_7days"
)

var ErrUnknownFilter = errors.New("unknown filter")

// Filters lists every bucket in display order.
var Filters = []Filter{
	FilterAll,
	FilterActive,
	FilterExpiringSoon,
	FilterExpiringToday,
	FilterExpiring2Days,
	FilterExpiring7Days,
	FilterExpired,
	FilterExpiredRecent,
	FilterInactive,
}

// ParseFilter maps a query value to a Filter; the empty string means all.
func ParseFilter(s string) (Filter, error) {
	if s == "" {
		return FilterAll, nil
	}
	for _, f := range Filters {
		if string(f) == s {
			return f, nil
		}
	}
	return "", ErrUnknownFilter
}

// PTView is the member's currently active personal-training package.
type PTView struct {
	TrainerName string
	EndDate     *time.Time
}

// MemberView is what filtering needs to know about a member.
type MemberView struct {
	Subscription *Subscription
	ActivePT     *PTView
}

// MatchesFilter reports whether the member belongs in bucket f.
//
// Gym mode: all matches everyone; inactive needs a stored inactive status;
// every date bucket needs a subscription with an end date and a stored
// status other than inactive.
//
// PT mode buckets on the active PT end date instead: all matches members
// that have an active PT and inactive matches those that do not.
func MatchesFilter(view MemberView, f Filter, ptMode bool, today time.Time) bool {
	if ptMode {
		return matchesPT(view.ActivePT, f, today)
	}
	if f == FilterAll {
		return true
	}

	sub := view.Subscription
	if sub == nil {
		return false
	}
	if f == FilterInactive {
		return sub.Status == StoredInactive
	}
	if sub.Status == StoredInactive || sub.EndDate == nil {
		return false
	}

	d := DiffDays(*sub.EndDate, today)
	return matchesDays(f, d, IsExpired(sub, today))
}

func matchesPT(pt *PTView, f Filter, today time.Time) bool {
	switch f {
	case FilterAll:
		return pt != nil
	case FilterInactive:
		return pt == nil
	}
	if pt == nil || pt.EndDate == nil {
		return false
	}

	d := DiffDays(*pt.EndDate, today)
	return matchesDays(f, d, d < 0)
}

func matchesDays(f Filter, d int, expired bool) bool {
	switch f {
	case FilterActive:
		return !expired && d > ExpiringSoonDays
	case FilterExpired:
		return expired
	case FilterExpiredRecent:
		return d < 0 && d >= -RecentlyExpiredDays
	case FilterExpiringSoon, FilterExpiring7Days:
		return !expired && d >= 0 && d <= ExpiringSoonDays
	case FilterExpiringToday:
		return !expired && d == 0
	case FilterExpiring2Days:
		return !expired && d >= 0 && d <= 2
	}
	return false
}

// Tally counts members per bucket.
func Tally(views []MemberView, ptMode bool, today time.Time) map[Filter]int {
	counts := make(map[Filter]int, len(Filters))
	for _, f := range Filters {
		counts[f] = 0
	}
	for _, v := range views {
		for _, f := range Filters {
			if MatchesFilter(v, f, ptMode, today) {
				counts[f]++
			}
		}
	}
	return counts
}
