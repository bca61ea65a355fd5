package sweep

import (
	"context"
	"fmt"
	"time"

	"github.com/souvik9998/gym-crm-sub001/internal/logger"
	"github.com/souvik9998/gym-crm-sub001/internal/membership"
	"github.com/souvik9998/gym-crm-sub001/internal/notification"
	"github.com/souvik9998/gym-crm-sub001/internal/subscription"
)

// DueLister is satisfied by subscription.Repository.
type DueLister interface {
	ListEndingOn(ctx context.Context, day time.Time) ([]subscription.Due, error)
}

type Notifier interface {
	Notify(ctx context.Context, msg notification.Message) error
}

// Reminder queues an expiring_reminder for every member whose latest gym
// subscription ends exactly leadDays from today.
type Reminder struct {
	subs     DueLister
	notifier Notifier
	leadDays int
	loc      *time.Location
	now      func() time.Time
}

func NewReminder(subs DueLister, notifier Notifier, leadDays int, loc *time.Location) *Reminder {
	return &Reminder{subs: subs, notifier: notifier, leadDays: leadDays, loc: loc, now: time.Now}
}

// Run returns how many reminders were queued. A failed enqueue is logged
// and does not stop the run.
func (r *Reminder) Run(ctx context.Context) (int, error) {
	today := membership.Today(r.now(), r.loc)
	day := membership.CalendarDate(today).AddDate(0, 0, r.leadDays)

	due, err := r.subs.ListEndingOn(ctx, day)
	if err != nil {
		return 0, fmt.Errorf("list subscriptions ending %s: %w", day.Format(time.DateOnly), err)
	}

	queued := 0
	for _, d := range due {
		err := r.notifier.Notify(ctx, notification.Message{
			To:       d.Phone,
			MemberID: d.MemberID,
			Type:     notification.ExpiringReminder,
			Data: notification.Data{
				Name:     d.Name,
				Plan:     d.Plan,
				EndDate:  d.EndDate,
				DaysLeft: membership.DiffDays(d.EndDate, today),
			},
		})
		if err != nil {
			logger.WithError(err).Warn("reminder not queued", "member_id", d.MemberID)
			continue
		}
		queued++
	}

	logger.Info("renewal reminders queued", "day", day.Format(time.DateOnly), "due", len(due), "queued", queued)
	return queued, nil
}
