package analytics

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/souvik9998/gym-crm-sub001/internal/logger"
	"github.com/souvik9998/gym-crm-sub001/internal/member"
	"github.com/souvik9998/gym-crm-sub001/internal/membership"
	"github.com/souvik9998/gym-crm-sub001/internal/metrics"
)

const (
	defaultRangeDays = 30
	maxRangeDays     = 366
)

var ErrInvalidRange = errors.New("from and to must be YYYY-MM-DD dates, from <= to, at most 366 days apart")

// Roster lists a branch's members with their latest subscriptions.
// Satisfied by member.Repository.
type Roster interface {
	ListByBranch(ctx context.Context, branchID int) ([]member.ListItem, error)
}

type Service interface {
	Summary(ctx context.Context, branchID int, from, to string) (*Summary, error)
}

type service struct {
	repo   Repository
	roster Roster
	cache  *redis.Client
	ttl    time.Duration
	loc    *time.Location
	now    func() time.Time
}

// NewService builds the analytics service. A nil cache disables caching.
func NewService(repo Repository, roster Roster, cache *redis.Client, ttl time.Duration, loc *time.Location) Service {
	return &service{repo: repo, roster: roster, cache: cache, ttl: ttl, loc: loc, now: time.Now}
}

func cacheKey(branchID int, from, to time.Time) string {
	return fmt.Sprintf("analytics:summary:%d:%s:%s", branchID, from.Format(time.DateOnly), to.Format(time.DateOnly))
}

func (s *service) dateRange(fromStr, toStr string) (from, to time.Time, err error) {
	to = membership.CalendarDate(membership.Today(s.now(), s.loc))
	if toStr != "" {
		if to, err = time.Parse(time.DateOnly, toStr); err != nil {
			return from, to, ErrInvalidRange
		}
	}
	from = to.AddDate(0, 0, -(defaultRangeDays - 1))
	if fromStr != "" {
		if from, err = time.Parse(time.DateOnly, fromStr); err != nil {
			return from, to, ErrInvalidRange
		}
	}
	if from.After(to) || membership.DiffDays(to, from) >= maxRangeDays {
		return from, to, ErrInvalidRange
	}
	return from, to, nil
}

func (s *service) Summary(ctx context.Context, branchID int, fromStr, toStr string) (*Summary, error) {
	from, to, err := s.dateRange(fromStr, toStr)
	if err != nil {
		return nil, err
	}

	key := cacheKey(branchID, from, to)
	if cached := s.cached(ctx, key); cached != nil {
		return cached, nil
	}

	summary, err := s.compute(ctx, branchID, from, to)
	if err != nil {
		return nil, err
	}

	s.store(ctx, key, summary)
	return summary, nil
}

func (s *service) compute(ctx context.Context, branchID int, from, to time.Time) (*Summary, error) {
	items, err := s.roster.ListByBranch(ctx, branchID)
	if err != nil {
		return nil, fmt.Errorf("load members: %w", err)
	}

	today := membership.Today(s.now(), s.loc)
	views := make([]membership.MemberView, 0, len(items))
	for i := range items {
		views = append(views, items[i].View())
	}

	tz := s.loc.String()
	byKind, err := s.repo.RevenueByKind(ctx, branchID, from, to, tz)
	if err != nil {
		return nil, fmt.Errorf("revenue by kind: %w", err)
	}
	daily, err := s.repo.DailyStats(ctx, branchID, from, to, tz)
	if err != nil {
		return nil, fmt.Errorf("daily stats: %w", err)
	}

	summary := &Summary{
		BranchID:      branchID,
		From:          from.Format(time.DateOnly),
		To:            to.Format(time.DateOnly),
		TotalMembers:  len(items),
		Members:       membership.Tally(views, false, today),
		PT:            membership.Tally(views, true, today),
		RevenueByKind: byKind,
		Daily:         daily,
		GeneratedAt:   s.now(),
	}
	for _, k := range byKind {
		summary.RevenueCents += k.AmountCents
	}

	branch := strconv.Itoa(branchID)
	for f, n := range summary.Members {
		metrics.SetMembersByBucket(branch, string(f), n)
	}

	return summary, nil
}

// cached returns nil on a miss; cache errors are treated as misses.
func (s *service) cached(ctx context.Context, key string) *Summary {
	if s.cache == nil {
		return nil
	}

	data, err := s.cache.Get(ctx, key).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			logger.WithError(err).Warn("analytics cache read failed", "key", key)
		}
		return nil
	}

	var summary Summary
	if err := json.Unmarshal([]byte(data), &summary); err != nil {
		logger.WithError(err).Warn("analytics cache entry unreadable", "key", key)
		return nil
	}
	return &summary
}

func (s *service) store(ctx context.Context, key string, summary *Summary) {
	if s.cache == nil || s.ttl <= 0 {
		return
	}

	data, err := json.Marshal(summary)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, string(data), s.ttl).Err(); err != nil {
		logger.WithError(err).Warn("analytics cache write failed", "key", key)
	}
}
