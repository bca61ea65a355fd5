// Package sweep runs the periodic membership maintenance jobs: flipping
// long-expired subscriptions to inactive and queueing renewal reminders.
package sweep

import (
	"context"
	"fmt"
	"time"

	"github.com/souvik9998/gym-crm-sub001/internal/logger"
	"github.com/souvik9998/gym-crm-sub001/internal/membership"
	"github.com/souvik9998/gym-crm-sub001/internal/metrics"
)

// Deactivator flips subscriptions that ended before cutoff to inactive.
// Satisfied by subscription.Repository.
type Deactivator interface {
	DeactivateExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error)
	DeactivateExpiredPTBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type Result struct {
	Today      string `json:"today"`
	Cutoff     string `json:"cutoff"`
	Gym        int64  `json:"gym_deactivated"`
	PT         int64  `json:"pt_deactivated"`
	DurationMS int64  `json:"duration_ms"`
}

// Job deactivates subscriptions expired for more than
// membership.DeactivateAfterDays. Running it twice on the same day is a no-op
// the second time.
type Job struct {
	subs Deactivator
	loc  *time.Location
	now  func() time.Time
}

func NewJob(subs Deactivator, loc *time.Location) *Job {
	return &Job{subs: subs, loc: loc, now: time.Now}
}

func (j *Job) Run(ctx context.Context) (*Result, error) {
	started := j.now()
	today := membership.Today(started, j.loc)
	cutoff := membership.DeactivationCutoff(today)

	gym, err := j.subs.DeactivateExpiredBefore(ctx, cutoff)
	if err != nil {
		metrics.RecordSweep("error", 0, 0)
		return nil, fmt.Errorf("deactivate gym subscriptions: %w", err)
	}

	pt, err := j.subs.DeactivateExpiredPTBefore(ctx, cutoff)
	if err != nil {
		metrics.RecordSweep("error", gym, 0)
		return nil, fmt.Errorf("deactivate pt subscriptions: %w", err)
	}

	metrics.RecordSweep("success", gym, pt)
	res := &Result{
		Today:      today.Format(time.DateOnly),
		Cutoff:     cutoff.Format(time.DateOnly),
		Gym:        gym,
		PT:         pt,
		DurationMS: j.now().Sub(started).Milliseconds(),
	}
	logger.Info("sweep finished", "cutoff", res.Cutoff, "gym", gym, "pt", pt)
	return res, nil
}
