package subscription

import (
	"errors"
	"time"

	"github.com/souvik9998/gym-crm-sub001/internal/membership"
)

var ErrUnknownPlan = errors.New("unknown plan")

type Plan struct {
	Code       string `json:"code"`
	Name       string `json:"name"`
	Months     int    `json:"months"`
	PriceCents int64  `json:"price_cents"`
}

var defaultPlans = []Plan{
	{Code: "monthly", Name: "Monthly", Months: 1, PriceCents: 100000},
	{Code: "quarterly", Name: "Quarterly", Months: 3, PriceCents: 270000},
	{Code: "half_yearly", Name: "Half Yearly", Months: 6, PriceCents: 500000},
	{Code: "yearly", Name: "Yearly", Months: 12, PriceCents: 900000},
}

// Catalogue is the fixed plan list with per-deployment price overrides.
type Catalogue struct {
	plans []Plan
}

func NewCatalogue(prices map[string]int64) *Catalogue {
	plans := make([]Plan, len(defaultPlans))
	copy(plans, defaultPlans)
	for i := range plans {
		if p, ok := prices[plans[i].Code]; ok && p > 0 {
			plans[i].PriceCents = p
		}
	}
	return &Catalogue{plans: plans}
}

func (c *Catalogue) Plans() []Plan {
	return c.plans
}

func (c *Catalogue) Find(code string) (Plan, error) {
	for _, p := range c.plans {
		if p.Code == code {
			return p, nil
		}
	}
	return Plan{}, ErrUnknownPlan
}

// AddMonths moves date forward by n calendar months, clamping the day to the
// end of the target month (31 Jan + 1 month = 29 Feb in a leap year).
func AddMonths(date time.Time, n int) time.Time {
	y, m, d := date.Date()
	first := time.Date(y, m+time.Month(n), 1, 0, 0, 0, 0, date.Location())
	last := first.AddDate(0, 1, -1).Day()
	if d > last {
		d = last
	}
	return time.Date(first.Year(), first.Month(), d, 0, 0, 0, 0, date.Location())
}

// PeriodEnd is the last day covered by a period of months starting on start.
func PeriodEnd(start time.Time, months int) time.Time {
	return AddMonths(start, months).AddDate(0, 0, -1)
}

// RenewalStart stacks a new period on one that still has days left, today
// included; otherwise the new period starts today. An inactive subscription
// never stacks. The result is a calendar date.
func RenewalStart(current *membership.Subscription, today time.Time) time.Time {
	if current != nil && current.EndDate != nil && current.Status != membership.StoredInactive &&
		membership.DiffDays(*current.EndDate, today) >= 0 {
		return membership.CalendarDate(*current.EndDate).AddDate(0, 0, 1)
	}
	return membership.CalendarDate(today)
}
