package member

import (
	"context"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/souvik9998/gym-crm-sub001/internal/membership"
	"github.com/souvik9998/gym-crm-sub001/internal/notification"
	"github.com/souvik9998/gym-crm-sub001/internal/payment"
	"github.com/souvik9998/gym-crm-sub001/internal/subscription"
)

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) Create(ctx context.Context, q sqlx.QueryerContext, mem Member) (*Member, error) {
	args := m.Called(ctx, q, mem)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Member), args.Error(1)
}

func (m *MockRepository) PhoneExists(ctx context.Context, branchID int, phone string, excludeID int) (bool, error) {
	args := m.Called(ctx, branchID, phone, excludeID)
	return args.Bool(0), args.Error(1)
}

func (m *MockRepository) ListByBranch(ctx context.Context, branchID int) ([]ListItem, error) {
	args := m.Called(ctx, branchID)
	return args.Get(0).([]ListItem), args.Error(1)
}

func (m *MockRepository) Get(ctx context.Context, branchID, memberID int) (*ListItem, error) {
	args := m.Called(ctx, branchID, memberID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ListItem), args.Error(1)
}

func (m *MockRepository) Update(ctx context.Context, branchID, memberID int, req UpdateRequest) (*Member, error) {
	args := m.Called(ctx, branchID, memberID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Member), args.Error(1)
}

type MockBranches struct {
	mock.Mock
}

func (m *MockBranches) Exists(ctx context.Context, branchID int) (bool, error) {
	args := m.Called(ctx, branchID)
	return args.Bool(0), args.Error(1)
}

type MockSubscriptions struct {
	mock.Mock
}

func (m *MockSubscriptions) StartInitial(ctx context.Context, tx *sqlx.Tx, req subscription.InitialRequest) (*subscription.Subscription, *payment.Payment, error) {
	args := m.Called(ctx, tx, req)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).(*subscription.Subscription), args.Get(1).(*payment.Payment), args.Error(2)
}

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) Notify(ctx context.Context, msg notification.Message) error {
	return m.Called(ctx, msg).Error(0)
}

type fixture struct {
	svc      *service
	repo     *MockRepository
	branches *MockBranches
	subs     *MockSubscriptions
	notifier *MockNotifier
	sql      sqlmock.Sqlmock
}

// today is 15 March 2024 in Kolkata.
func newFixture(t *testing.T) *fixture {
	db, sqlMock, err := sqlmock.New()
	require.NoError(t, err)
	sqlxDB := sqlx.NewDb(db, "sqlmock")
	t.Cleanup(func() { sqlxDB.Close() })

	kolkata, err := time.LoadLocation("Asia/Kolkata")
	require.NoError(t, err)

	f := &fixture{
		repo:     new(MockRepository),
		branches: new(MockBranches),
		subs:     new(MockSubscriptions),
		notifier: new(MockNotifier),
		sql:      sqlMock,
	}
	f.svc = NewService(sqlxDB, f.repo, f.branches, f.subs, f.notifier, kolkata).(*service)
	f.svc.now = func() time.Time { return time.Date(2024, time.March, 15, 9, 30, 0, 0, kolkata) }
	return f
}

func endsIn(days int) *time.Time {
	t := day(2024, time.March, 15).AddDate(0, 0, days)
	return &t
}

func withSub(id int, name string, status membership.StoredStatus, end *time.Time) ListItem {
	return ListItem{
		Member:       Member{ID: id, BranchID: 1, Name: name, Phone: fmt.Sprintf("98300000%02d", id), JoinDate: day(2024, time.January, id)},
		Subscription: &SubscriptionInfo{ID: id * 10, Plan: "monthly", Status: status, EndDate: end},
	}
}

func TestCleanPhone(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"9830012345", "9830012345", false},
		{"+91 98300-12345", "919830012345", false},
		{"(033) 2455 1234", "03324551234", false},
		{"12345", "", true},
		{"98300a2345", "", true},
		{"1234567890123456", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := CleanPhone(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidPhone)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestService_Register(t *testing.T) {
	f := newFixture(t)
	end := day(2024, time.April, 14)

	f.branches.On("Exists", mock.Anything, 1).Return(true, nil)
	f.repo.On("PhoneExists", mock.Anything, 1, "9830012345", 0).Return(false, nil)
	f.sql.ExpectBegin()
	f.repo.On("Create", mock.Anything, mock.Anything, mock.MatchedBy(func(m Member) bool {
		return m.Name == "Priya Sen" && m.Phone == "9830012345" && m.JoinDate.Equal(day(2024, time.March, 15))
	})).Return(&Member{ID: 5, BranchID: 1, Name: "Priya Sen", Phone: "9830012345"}, nil)
	f.subs.On("StartInitial", mock.Anything, mock.Anything, subscription.InitialRequest{
		BranchID: 1, MemberID: 5, Plan: "monthly", Method: "cash", StartDate: day(2024, time.March, 15),
	}).Return(&subscription.Subscription{ID: 50, Plan: "monthly", Status: membership.StoredActive, EndDate: &end},
		&payment.Payment{Kind: payment.KindRegistration, Method: "cash", AmountCents: 100000}, nil)
	f.sql.ExpectCommit()
	f.notifier.On("Notify", mock.Anything, mock.MatchedBy(func(m notification.Message) bool {
		return m.Type == notification.Welcome && m.Data.Plan == "monthly" && m.Data.EndDate.Equal(end)
	})).Return(nil)

	item, err := f.svc.Register(context.Background(), 1, RegisterRequest{
		Name: "  Priya Sen ", Phone: "98300 12345", Plan: "monthly", Method: "cash",
	})
	require.NoError(t, err)
	assert.Equal(t, 5, item.ID)
	assert.Equal(t, membership.Active, item.DerivedStatus)
	require.NotNil(t, item.DaysLeft)
	assert.Equal(t, 30, *item.DaysLeft)

	f.repo.AssertExpectations(t)
	f.subs.AssertExpectations(t)
	f.notifier.AssertExpectations(t)
	require.NoError(t, f.sql.ExpectationsWereMet())
}

func TestService_RegisterRejects(t *testing.T) {
	t.Run("blank name", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.svc.Register(context.Background(), 1, RegisterRequest{Name: "  ", Phone: "9830012345"})
		assert.ErrorIs(t, err, ErrInvalidName)
	})

	t.Run("short phone", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.svc.Register(context.Background(), 1, RegisterRequest{Name: "Priya", Phone: "12345"})
		assert.ErrorIs(t, err, ErrInvalidPhone)
	})

	t.Run("bad start date", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.svc.Register(context.Background(), 1, RegisterRequest{Name: "Priya", Phone: "9830012345", StartDate: "15/03/2024"})
		assert.ErrorIs(t, err, ErrInvalidStartDate)
	})

	t.Run("unknown branch", func(t *testing.T) {
		f := newFixture(t)
		f.branches.On("Exists", mock.Anything, 9).Return(false, nil)
		_, err := f.svc.Register(context.Background(), 9, RegisterRequest{Name: "Priya", Phone: "9830012345"})
		assert.ErrorIs(t, err, ErrUnknownBranch)
	})

	t.Run("duplicate phone", func(t *testing.T) {
		f := newFixture(t)
		f.branches.On("Exists", mock.Anything, 1).Return(true, nil)
		f.repo.On("PhoneExists", mock.Anything, 1, "9830012345", 0).Return(true, nil)
		_, err := f.svc.Register(context.Background(), 1, RegisterRequest{Name: "Priya", Phone: "9830012345"})
		assert.ErrorIs(t, err, ErrPhoneExists)
	})
}

func TestService_RegisterRollsBackWhenPlanIsUnknown(t *testing.T) {
	f := newFixture(t)

	f.branches.On("Exists", mock.Anything, 1).Return(true, nil)
	f.repo.On("PhoneExists", mock.Anything, 1, "9830012345", 0).Return(false, nil)
	f.sql.ExpectBegin()
	f.repo.On("Create", mock.Anything, mock.Anything, mock.Anything).Return(&Member{ID: 5}, nil)
	f.subs.On("StartInitial", mock.Anything, mock.Anything, mock.Anything).Return(nil, nil, subscription.ErrUnknownPlan)
	f.sql.ExpectRollback()

	_, err := f.svc.Register(context.Background(), 1, RegisterRequest{Name: "Priya", Phone: "9830012345", Plan: "weekly", Method: "cash"})
	assert.ErrorIs(t, err, subscription.ErrUnknownPlan)
	f.notifier.AssertNotCalled(t, "Notify", mock.Anything, mock.Anything)
	require.NoError(t, f.sql.ExpectationsWereMet())
}

func roster() []ListItem {
	ptEnd := day(2024, time.March, 17)
	withPT := withSub(3, "Chitra", membership.StoredActive, endsIn(40))
	withPT.ActivePT = &PTInfo{TrainerName: "Ravi", EndDate: ptEnd}

	return []ListItem{
		withSub(1, "Arjun", membership.StoredActive, endsIn(0)),
		withSub(2, "Bina", membership.StoredActive, endsIn(5)),
		withPT,
		withSub(4, "Dev", membership.StoredActive, endsIn(-10)),
		withSub(5, "Esha", membership.StoredActive, endsIn(-45)),
		withSub(6, "Farhan", membership.StoredInactive, endsIn(-60)),
		{Member: Member{ID: 7, BranchID: 1, Name: "Gita", Phone: "9830000007"}},
	}
}

func names(items []ListItem) []string {
	out := make([]string, 0, len(items))
	for _, i := range items {
		out = append(out, i.Name)
	}
	return out
}

func TestService_ListFilters(t *testing.T) {
	tests := []struct {
		name  string
		query ListQuery
		want  []string
	}{
		{"all sorted by end date", ListQuery{}, []string{"Farhan", "Esha", "Dev", "Arjun", "Bina", "Chitra", "Gita"}},
		{"active", ListQuery{Filter: "active"}, []string{"Chitra"}},
		{"expiring soon", ListQuery{Filter: "expiring_soon"}, []string{"Arjun", "Bina"}},
		{"expiring today", ListQuery{Filter: "expiring_today"}, []string{"Arjun"}},
		{"expired", ListQuery{Filter: "expired"}, []string{"Esha", "Dev"}},
		{"expired recent", ListQuery{Filter: "expired_recent"}, []string{"Dev"}},
		{"inactive", ListQuery{Filter: "inactive"}, []string{"Farhan"}},
		{"pt all", ListQuery{PT: true}, []string{"Chitra"}},
		{"pt expiring", ListQuery{PT: true, Filter: "expiring_2days"}, []string{"Chitra"}},
		{"search by name", ListQuery{Search: "ARJ"}, []string{"Arjun"}},
		{"search by phone", ListQuery{Search: "9830000007"}, []string{"Gita"}},
		{"search by formatted phone", ListQuery{Search: "98300-00007"}, []string{"Gita"}},
		{"search by phone with parentheses", ListQuery{Search: "(983) 000 0007"}, []string{"Gita"}},
		{"search by phone with country code", ListQuery{Search: "+91 98300 00007"}, []string{"Gita"}},
		{"sort by name desc", ListQuery{Filter: "expired", Sort: "-name"}, []string{"Esha", "Dev"}},
		{"sort by join date", ListQuery{Filter: "expiring_soon", Sort: "join_date"}, []string{"Arjun", "Bina"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.repo.On("ListByBranch", mock.Anything, 1).Return(roster(), nil)

			page, err := f.svc.List(context.Background(), 1, tt.query)
			require.NoError(t, err)
			assert.Equal(t, tt.want, names(page.Items))
			assert.Equal(t, len(tt.want), page.Total)
		})
	}
}

func TestService_ListDerivesStatus(t *testing.T) {
	f := newFixture(t)
	f.repo.On("ListByBranch", mock.Anything, 1).Return(roster(), nil)

	page, err := f.svc.List(context.Background(), 1, ListQuery{Sort: "name"})
	require.NoError(t, err)

	byName := map[string]ListItem{}
	for _, i := range page.Items {
		byName[i.Name] = i
	}
	assert.Equal(t, membership.ExpiringSoon, byName["Arjun"].DerivedStatus)
	assert.Equal(t, membership.Expired, byName["Esha"].DerivedStatus)
	assert.Equal(t, membership.Inactive, byName["Farhan"].DerivedStatus)
	assert.Equal(t, membership.NoSubscription, byName["Gita"].DerivedStatus)
	assert.Equal(t, "No Subscription", byName["Gita"].StatusLabel)
	assert.Nil(t, byName["Gita"].DaysLeft)
	require.NotNil(t, byName["Chitra"].PTDaysLeft)
	assert.Equal(t, 2, *byName["Chitra"].PTDaysLeft)
}

func TestService_ListPaging(t *testing.T) {
	f := newFixture(t)
	f.repo.On("ListByBranch", mock.Anything, 1).Return(roster(), nil)

	page, err := f.svc.List(context.Background(), 1, ListQuery{Sort: "name", Page: 2, PageSize: 3})
	require.NoError(t, err)
	assert.Equal(t, []string{"Dev", "Esha", "Farhan"}, names(page.Items))
	assert.Equal(t, 7, page.Total)

	page, err = f.svc.List(context.Background(), 1, ListQuery{Page: 9, PageSize: 500})
	require.NoError(t, err)
	assert.Empty(t, page.Items)
	assert.Equal(t, MaxPageSize, page.PageSize)

	require.NotPanics(t, func() {
		page, err = f.svc.List(context.Background(), 1, ListQuery{Page: math.MaxInt/100 + 2, PageSize: 100})
	})
	require.NoError(t, err)
	assert.Empty(t, page.Items)
	assert.Equal(t, 7, page.Total)
}

func TestService_ListRejectsUnknownFilterAndSort(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.List(context.Background(), 1, ListQuery{Filter: "lapsed"})
	assert.ErrorIs(t, err, membership.ErrUnknownFilter)

	_, err = f.svc.List(context.Background(), 1, ListQuery{Sort: "age"})
	assert.ErrorIs(t, err, ErrInvalidSort)
}

func TestService_Update(t *testing.T) {
	f := newFixture(t)
	phone := "+91 98300 99999"

	f.repo.On("PhoneExists", mock.Anything, 1, "919830099999", 5).Return(false, nil)
	f.repo.On("Update", mock.Anything, 1, 5, mock.MatchedBy(func(r UpdateRequest) bool {
		return *r.Phone == "919830099999" && r.Name == nil
	})).Return(&Member{ID: 5, Phone: "919830099999"}, nil)

	m, err := f.svc.Update(context.Background(), 1, 5, UpdateRequest{Phone: &phone})
	require.NoError(t, err)
	assert.Equal(t, "919830099999", m.Phone)

	blank := " "
	_, err = f.svc.Update(context.Background(), 1, 5, UpdateRequest{Name: &blank})
	assert.ErrorIs(t, err, ErrInvalidName)
}

func TestService_NotifyExpiredReminderGate(t *testing.T) {
	tests := []struct {
		name    string
		item    ListItem
		wantErr error
	}{
		{"expired", withSub(4, "Dev", membership.StoredActive, endsIn(-10)), nil},
		{"still running", withSub(2, "Bina", membership.StoredActive, endsIn(5)), ErrReminderNotAllowed},
		{"inactive", withSub(6, "Farhan", membership.StoredInactive, endsIn(-60)), ErrReminderNotAllowed},
		{"no subscription", ListItem{Member: Member{ID: 7, Name: "Gita"}}, ErrReminderNotAllowed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			item := tt.item
			f.repo.On("Get", mock.Anything, 1, item.ID).Return(&item, nil)
			f.notifier.On("Notify", mock.Anything, mock.MatchedBy(func(m notification.Message) bool {
				return m.Type == notification.ExpiredReminder && m.MemberID == item.ID
			})).Return(nil).Maybe()

			err := f.svc.Notify(context.Background(), 1, item.ID, notification.ExpiredReminder)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				f.notifier.AssertNotCalled(t, "Notify", mock.Anything, mock.Anything)
				return
			}
			require.NoError(t, err)
			f.notifier.AssertExpectations(t)
		})
	}
}

func TestService_NotifyPropagatesQueueErrors(t *testing.T) {
	f := newFixture(t)
	item := withSub(2, "Bina", membership.StoredActive, endsIn(5))
	f.repo.On("Get", mock.Anything, 1, 2).Return(&item, nil)
	f.notifier.On("Notify", mock.Anything, mock.Anything).Return(assert.AnError)

	err := f.svc.Notify(context.Background(), 1, 2, notification.ExpiringReminder)
	assert.ErrorIs(t, err, assert.AnError)
}
