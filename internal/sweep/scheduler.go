package sweep

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redsync/redsync/v4"
	"github.com/go-redsync/redsync/v4/redis/goredis/v9"
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"

	"github.com/souvik9998/gym-crm-sub001/internal/logger"
)

const (
	lockPrefix  = "gymcrm:"
	lockTTL     = 10 * time.Minute
	taskTimeout = 5 * time.Minute
)

// NewLocker builds the distributed lock used to keep scheduled tasks to
// one replica.
func NewLocker(rdb *redis.Client) *redsync.Redsync {
	return redsync.New(goredis.NewPool(rdb))
}

// Scheduler runs named tasks on seconds-enabled cron specs. With a locker,
// each run first takes the "gymcrm:<name>:lock" mutex and is skipped when
// another replica holds it.
type Scheduler struct {
	cron   *cron.Cron
	locker *redsync.Redsync
}

func NewScheduler(locker *redsync.Redsync, loc *time.Location) *Scheduler {
	return &Scheduler{
		cron:   cron.New(cron.WithSeconds(), cron.WithLocation(loc)),
		locker: locker,
	}
}

func (s *Scheduler) Add(name, spec string, task func(ctx context.Context) error) error {
	_, err := s.cron.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), taskTimeout)
		defer cancel()
		s.run(ctx, name, task)
	})
	if err != nil {
		return fmt.Errorf("schedule %s (%q): %w", name, spec, err)
	}
	logger.Info("task scheduled", "task", name, "spec", spec)
	return nil
}

// run reports whether task was executed.
func (s *Scheduler) run(ctx context.Context, name string, task func(ctx context.Context) error) bool {
	if s.locker != nil {
		mutex := s.locker.NewMutex(
			lockPrefix+name+":lock",
			redsync.WithExpiry(lockTTL),
			redsync.WithTries(1),
		)
		if err := mutex.LockContext(ctx); err != nil {
			logger.Info("task skipped, lock held elsewhere", "task", name, "error", err)
			return false
		}
		defer func() {
			if _, err := mutex.UnlockContext(context.WithoutCancel(ctx)); err != nil {
				logger.WithError(err).Warn("failed to release task lock", "task", name)
			}
		}()
	}

	if err := task(ctx); err != nil {
		logger.WithError(err).Error("scheduled task failed", "task", name)
	}
	return true
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop stops scheduling and waits for running tasks, or for ctx.
func (s *Scheduler) Stop(ctx context.Context) {
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
	}
}
