package integration_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/souvik9998/gym-crm-sub001/internal/member"
	"github.com/souvik9998/gym-crm-sub001/internal/membership"
	"github.com/souvik9998/gym-crm-sub001/internal/notification"
	"github.com/souvik9998/gym-crm-sub001/internal/subscription"
	"github.com/souvik9998/gym-crm-sub001/internal/sweep"
	"github.com/souvik9998/gym-crm-sub001/internal/trainer"
)

func date(t time.Time) string {
	return t.Format(time.DateOnly)
}

func names(items []member.ListItem) []string {
	out := make([]string, 0, len(items))
	for _, i := range items {
		out = append(out, i.Name)
	}
	return out
}

func TestRegisterAndFilter_Integration(t *testing.T) {
	s := newStack(t)
	ctx := context.Background()
	now := today()

	fresh := s.register(t, "Asha Roy", "98300 11111", "yearly", now)
	lapsed := s.register(t, "Bikram Sen", "+91 98300-22222", "monthly", now.AddDate(0, 0, -40))

	assert.Equal(t, "9830011111", fresh.Phone)
	assert.Equal(t, membership.Active, fresh.DerivedStatus)
	assert.Equal(t, membership.Expired, lapsed.DerivedStatus)

	active, err := s.members.Filtered(ctx, s.branchID, member.ListQuery{Filter: string(membership.FilterActive)})
	require.NoError(t, err)
	assert.Equal(t, []string{"Asha Roy"}, names(active))

	recent, err := s.members.Filtered(ctx, s.branchID, member.ListQuery{Filter: string(membership.FilterExpiredRecent)})
	require.NoError(t, err)
	assert.Equal(t, []string{"Bikram Sen"}, names(recent))

	page, err := s.members.List(ctx, s.branchID, member.ListQuery{Sort: member.SortName})
	require.NoError(t, err)
	assert.Equal(t, 2, page.Total)
	assert.Equal(t, []string{"Asha Roy", "Bikram Sen"}, names(page.Items))

	assert.Equal(t, []notification.MessageType{notification.Welcome, notification.Welcome}, s.notifier.types())
}

func TestRegisterDuplicatePhone_Integration(t *testing.T) {
	s := newStack(t)

	s.register(t, "Asha Roy", "9830011111", "monthly", today())

	_, err := s.members.Register(context.Background(), s.branchID, member.RegisterRequest{
		Name: "Someone Else", Phone: "98300 11111", Plan: "monthly", Method: "upi",
	})
	assert.ErrorIs(t, err, member.ErrPhoneExists)
}

func TestRenewStacksOnCurrentEnd_Integration(t *testing.T) {
	s := newStack(t)
	ctx := context.Background()

	m := s.register(t, "Asha Roy", "9830011111", "monthly", today())
	currentEnd := *m.Subscription.EndDate

	res, err := s.subscriptions.Renew(ctx, s.branchID, m.ID, subscription.RenewRequest{Plan: "quarterly", Method: "card"})
	require.NoError(t, err)

	assert.Equal(t, date(currentEnd.AddDate(0, 0, 1)), date(res.Subscription.StartDate))
	assert.Equal(t, date(subscription.PeriodEnd(res.Subscription.StartDate, 3)), date(*res.Subscription.EndDate))
	assert.Equal(t, int64(270000), res.AmountCents)

	got, err := s.members.Get(ctx, s.branchID, m.ID)
	require.NoError(t, err)
	assert.Equal(t, res.Subscription.ID, got.Subscription.ID)
	assert.Contains(t, s.notifier.types(), notification.RenewalConfirmation)
}

func TestRenewAfterLapseStartsToday_Integration(t *testing.T) {
	s := newStack(t)

	m := s.register(t, "Bikram Sen", "9830022222", "monthly", today().AddDate(0, 0, -60))

	res, err := s.subscriptions.Renew(context.Background(), s.branchID, m.ID, subscription.RenewRequest{Plan: "monthly", Method: "cash"})
	require.NoError(t, err)
	assert.Equal(t, date(today()), date(res.Subscription.StartDate))
}

func TestPurchasePT_Integration(t *testing.T) {
	s := newStack(t)
	ctx := context.Background()

	coach, err := s.trainers.Create(ctx, s.branchID, trainer.CreateTrainerRequest{Name: "Rohit", MonthlyFeeCents: 150000})
	require.NoError(t, err)

	m := s.register(t, "Asha Roy", "9830011111", "quarterly", today())

	res, err := s.subscriptions.PurchasePT(ctx, s.branchID, m.ID, subscription.PTRequest{TrainerID: coach.ID, Months: 2, Method: "upi"})
	require.NoError(t, err)
	assert.Equal(t, int64(300000), res.AmountCents)

	got, err := s.members.Get(ctx, s.branchID, m.ID)
	require.NoError(t, err)
	require.NotNil(t, got.ActivePT)
	assert.Equal(t, "Rohit", got.ActivePT.TrainerName)
	require.NotNil(t, got.PTDaysLeft)

	withPT, err := s.members.Filtered(ctx, s.branchID, member.ListQuery{PT: true, Filter: string(membership.FilterAll)})
	require.NoError(t, err)
	assert.Len(t, withPT, 1)
}

func TestPurchasePTNeedsMembership_Integration(t *testing.T) {
	s := newStack(t)
	ctx := context.Background()

	coach, err := s.trainers.Create(ctx, s.branchID, trainer.CreateTrainerRequest{Name: "Rohit", MonthlyFeeCents: 150000})
	require.NoError(t, err)

	m := s.register(t, "Bikram Sen", "9830022222", "monthly", today().AddDate(0, 0, -45))

	_, err = s.subscriptions.PurchasePT(ctx, s.branchID, m.ID, subscription.PTRequest{TrainerID: coach.ID, Months: 1, Method: "cash"})
	assert.ErrorIs(t, err, subscription.ErrNoActiveMembership)
}

func TestSweepDeactivatesLongExpired_Integration(t *testing.T) {
	s := newStack(t)
	ctx := context.Background()

	gone := s.register(t, "Chandan Das", "9830033333", "monthly", today().AddDate(0, 0, -100))
	recent := s.register(t, "Dipa Ghosh", "9830044444", "monthly", today().AddDate(0, 0, -40))

	result, err := sweep.NewJob(s.subRepo, loc).Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), result.Gym)

	latest, err := s.subRepo.Latest(ctx, gone.ID)
	require.NoError(t, err)
	assert.Equal(t, membership.StoredInactive, latest.Status)

	latest, err = s.subRepo.Latest(ctx, recent.ID)
	require.NoError(t, err)
	assert.Equal(t, membership.StoredActive, latest.Status)

	inactive, err := s.members.Filtered(ctx, s.branchID, member.ListQuery{Filter: string(membership.FilterInactive)})
	require.NoError(t, err)
	assert.Equal(t, []string{"Chandan Das"}, names(inactive))

	again, err := sweep.NewJob(s.subRepo, loc).Run(ctx)
	require.NoError(t, err)
	assert.Zero(t, again.Gym)
}

func TestActivateAfterSweep_Integration(t *testing.T) {
	s := newStack(t)
	ctx := context.Background()

	m := s.register(t, "Chandan Das", "9830033333", "monthly", today().AddDate(0, 0, -100))
	_, err := sweep.NewJob(s.subRepo, loc).Run(ctx)
	require.NoError(t, err)

	sub, err := s.subscriptions.Activate(ctx, s.branchID, m.ID)
	require.NoError(t, err)
	assert.Equal(t, membership.StoredActive, sub.Status)
}

func TestReminderQueuesDueMembers_Integration(t *testing.T) {
	s := newStack(t)
	ctx := context.Background()

	m, err := s.memberRepo.Create(ctx, s.conn, member.Member{
		BranchID: s.branchID, Name: "Esha Paul", Phone: "9830055555", JoinDate: today(),
	})
	require.NoError(t, err)

	end := today().AddDate(0, 0, 3)
	_, err = s.subRepo.Create(ctx, s.conn, subscription.Subscription{
		MemberID: m.ID, BranchID: s.branchID, Plan: "monthly",
		Status: membership.StoredActive, StartDate: end.AddDate(0, -1, 1), EndDate: &end,
	})
	require.NoError(t, err)

	queued, err := sweep.NewReminder(s.subRepo, s.notifier, 3, loc).Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, queued)
	assert.Equal(t, []notification.MessageType{notification.ExpiringReminder}, s.notifier.types())
}

func TestExpiredReminderGate_Integration(t *testing.T) {
	s := newStack(t)
	ctx := context.Background()

	fresh := s.register(t, "Asha Roy", "9830011111", "monthly", today())
	lapsed := s.register(t, "Bikram Sen", "9830022222", "monthly", today().AddDate(0, 0, -40))

	err := s.members.Notify(ctx, s.branchID, fresh.ID, notification.ExpiredReminder)
	assert.ErrorIs(t, err, member.ErrReminderNotAllowed)

	require.NoError(t, s.members.Notify(ctx, s.branchID, lapsed.ID, notification.ExpiredReminder))
}
