package member

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/souvik9998/gym-crm-sub001/internal/db"
	"github.com/souvik9998/gym-crm-sub001/internal/logger"
	"github.com/souvik9998/gym-crm-sub001/internal/membership"
	"github.com/souvik9998/gym-crm-sub001/internal/metrics"
	"github.com/souvik9998/gym-crm-sub001/internal/notification"
	"github.com/souvik9998/gym-crm-sub001/internal/payment"
	"github.com/souvik9998/gym-crm-sub001/internal/subscription"
)

var (
	ErrInvalidName        = errors.New("name is required")
	ErrInvalidPhone       = errors.New("phone must have 10 to 15 digits")
	ErrInvalidStartDate   = errors.New("start_date must be YYYY-MM-DD")
	ErrUnknownBranch      = errors.New("branch does not exist")
	ErrInvalidSort        = errors.New("unknown sort field")
	ErrReminderNotAllowed = errors.New("expired reminder needs an expired, non-inactive membership")
)

// BranchChecker reports whether a branch exists. Satisfied by branch.Service.
type BranchChecker interface {
	Exists(ctx context.Context, branchID int) (bool, error)
}

// Subscriptions opens the first subscription inside the registration transaction.
type Subscriptions interface {
	StartInitial(ctx context.Context, tx *sqlx.Tx, req subscription.InitialRequest) (*subscription.Subscription, *payment.Payment, error)
}

type Notifier interface {
	Notify(ctx context.Context, msg notification.Message) error
}

type Service interface {
	Register(ctx context.Context, branchID int, req RegisterRequest) (*ListItem, error)
	Get(ctx context.Context, branchID, memberID int) (*ListItem, error)
	List(ctx context.Context, branchID int, q ListQuery) (*Page, error)
	// Filtered applies List's filter, search and sort without paging.
	Filtered(ctx context.Context, branchID int, q ListQuery) ([]ListItem, error)
	Update(ctx context.Context, branchID, memberID int, req UpdateRequest) (*Member, error)
	Notify(ctx context.Context, branchID, memberID int, msgType notification.MessageType) error
	Today() time.Time
}

type service struct {
	db       *sqlx.DB
	repo     Repository
	branches BranchChecker
	subs     Subscriptions
	notifier Notifier
	loc      *time.Location
	now      func() time.Time
}

func NewService(
	conn *sqlx.DB,
	repo Repository,
	branches BranchChecker,
	subs Subscriptions,
	notifier Notifier,
	loc *time.Location,
) Service {
	return &service{
		db:       conn,
		repo:     repo,
		branches: branches,
		subs:     subs,
		notifier: notifier,
		loc:      loc,
		now:      time.Now,
	}
}

func (s *service) Today() time.Time {
	return membership.Today(s.now(), s.loc)
}

// CleanPhone strips formatting and checks the digit count.
func CleanPhone(phone string) (string, error) {
	var b strings.Builder
	for _, r := range phone {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '+' || r == '(' || r == ')':
		default:
			return "", ErrInvalidPhone
		}
	}
	digits := b.String()
	if len(digits) < 10 || len(digits) > 15 {
		return "", ErrInvalidPhone
	}
	return digits, nil
}

func (s *service) Register(ctx context.Context, branchID int, req RegisterRequest) (*ListItem, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, ErrInvalidName
	}
	phone, err := CleanPhone(req.Phone)
	if err != nil {
		return nil, err
	}

	today := s.Today()
	start := membership.CalendarDate(today)
	if req.StartDate != "" {
		start, err = time.Parse(time.DateOnly, req.StartDate)
		if err != nil {
			return nil, ErrInvalidStartDate
		}
	}

	ok, err := s.branches.Exists(ctx, branchID)
	if err != nil {
		return nil, fmt.Errorf("check branch: %w", err)
	}
	if !ok {
		return nil, ErrUnknownBranch
	}

	taken, err := s.repo.PhoneExists(ctx, branchID, phone, 0)
	if err != nil {
		return nil, fmt.Errorf("check phone: %w", err)
	}
	if taken {
		return nil, ErrPhoneExists
	}

	var (
		m   *Member
		sub *subscription.Subscription
		pay *payment.Payment
	)
	err = db.WithTx(ctx, s.db, func(tx *sqlx.Tx) error {
		var err error
		m, err = s.repo.Create(ctx, tx, Member{
			BranchID: branchID,
			Name:     name,
			Phone:    phone,
			Email:    req.Email,
			Gender:   req.Gender,
			JoinDate: start,
		})
		if err != nil {
			return err
		}

		sub, pay, err = s.subs.StartInitial(ctx, tx, subscription.InitialRequest{
			BranchID:  branchID,
			MemberID:  m.ID,
			Plan:      req.Plan,
			Method:    req.Method,
			StartDate: start,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	metrics.RecordMemberRegistered()
	subscription.RecordSale("gym", sub.Plan, pay)
	logger.Info("member registered", "member_id", m.ID, "branch_id", branchID, "plan", sub.Plan)

	item := &ListItem{
		Member: *m,
		Subscription: &SubscriptionInfo{
			ID:        sub.ID,
			Plan:      sub.Plan,
			Status:    sub.Status,
			StartDate: sub.StartDate,
			EndDate:   sub.EndDate,
		},
	}
	item.derive(today)

	s.send(ctx, notification.Message{
		To:       m.Phone,
		MemberID: m.ID,
		Type:     notification.Welcome,
		Data:     dataFor(item),
	})

	return item, nil
}

func dataFor(item *ListItem) notification.Data {
	d := notification.Data{Name: item.Name}
	if item.Subscription != nil {
		d.Plan = item.Subscription.Plan
		if item.Subscription.EndDate != nil {
			d.EndDate = *item.Subscription.EndDate
		}
	}
	if item.ActivePT != nil {
		d.Trainer = item.ActivePT.TrainerName
	}
	if item.DaysLeft != nil {
		d.DaysLeft = *item.DaysLeft
	}
	return d
}

func (s *service) send(ctx context.Context, msg notification.Message) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Notify(ctx, msg); err != nil {
		logger.WithError(err).Warn("notification not queued", "member_id", msg.MemberID, "type", msg.Type)
	}
}

func (s *service) Get(ctx context.Context, branchID, memberID int) (*ListItem, error) {
	item, err := s.repo.Get(ctx, branchID, memberID)
	if err != nil {
		return nil, err
	}
	item.derive(s.Today())
	return item, nil
}

func (s *service) Filtered(ctx context.Context, branchID int, q ListQuery) ([]ListItem, error) {
	filter, err := membership.ParseFilter(q.Filter)
	if err != nil {
		return nil, err
	}
	less, err := sorter(q.Sort, q.PT)
	if err != nil {
		return nil, err
	}

	items, err := s.repo.ListByBranch(ctx, branchID)
	if err != nil {
		return nil, err
	}

	today := s.Today()
	search := strings.ToLower(strings.TrimSpace(q.Search))
	matched := make([]ListItem, 0, len(items))
	for _, item := range items {
		if !membership.MatchesFilter(item.View(), filter, q.PT, today) {
			continue
		}
		if search != "" && !matchesSearch(item, search) {
			continue
		}
		item.derive(today)
		matched = append(matched, item)
	}

	sort.SliceStable(matched, func(i, j int) bool { return less(&matched[i], &matched[j]) })
	return matched, nil
}

func (s *service) List(ctx context.Context, branchID int, q ListQuery) (*Page, error) {
	items, err := s.Filtered(ctx, branchID, q)
	if err != nil {
		return nil, err
	}

	page, size := q.Page, q.PageSize
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = DefaultPageSize
	}
	if size > MaxPageSize {
		size = MaxPageSize
	}

	// Past the last page the result is empty; checking page count first
	// keeps (page-1)*size from overflowing.
	from := len(items)
	if pages := (len(items) + size - 1) / size; page-1 < pages {
		from = (page - 1) * size
	}
	to := from + size
	if to > len(items) {
		to = len(items)
	}

	return &Page{Items: items[from:to], Total: len(items), Page: page, PageSize: size}, nil
}

var phoneFormatting = strings.NewReplacer(" ", "", "-", "", "+", "", "(", "", ")", "")

// matchesSearch compares names case-insensitively and phones on digits only,
// since stored phones carry no formatting.
func matchesSearch(item ListItem, search string) bool {
	if strings.Contains(strings.ToLower(item.Name), search) {
		return true
	}
	digits := phoneFormatting.Replace(search)
	if digits == "" {
		return false
	}
	if strings.Contains(item.Phone, digits) {
		return true
	}
	// A number typed with the country code still finds a stored local number.
	local, ok := strings.CutPrefix(digits, "91")
	return ok && len(local) >= 10 && strings.Contains(item.Phone, local)
}

// sorter returns the ordering for field; a leading "-" reverses it. Rows
// without the sort key go last either way.
func sorter(field string, ptMode bool) (func(a, b *ListItem) bool, error) {
	desc := strings.HasPrefix(field, "-")
	field = strings.TrimPrefix(field, "-")

	var key func(*ListItem) (string, bool)
	switch field {
	case "", SortEndDate:
		key = func(i *ListItem) (string, bool) {
			end := endDate(i, ptMode)
			if end == nil {
				return "", false
			}
			return end.Format(time.DateOnly), true
		}
	case SortJoinDate:
		key = func(i *ListItem) (string, bool) { return i.JoinDate.Format(time.DateOnly), true }
	case SortName:
		key = func(i *ListItem) (string, bool) { return strings.ToLower(i.Name), true }
	default:
		return nil, ErrInvalidSort
	}

	return func(a, b *ListItem) bool {
		ka, oka := key(a)
		kb, okb := key(b)
		if oka != okb {
			return oka
		}
		if ka == kb {
			return a.ID < b.ID
		}
		if desc {
			return ka > kb
		}
		return ka < kb
	}, nil
}

func endDate(i *ListItem, ptMode bool) *time.Time {
	if ptMode {
		if i.ActivePT == nil {
			return nil
		}
		return &i.ActivePT.EndDate
	}
	if i.Subscription == nil {
		return nil
	}
	return i.Subscription.EndDate
}

func (s *service) Update(ctx context.Context, branchID, memberID int, req UpdateRequest) (*Member, error) {
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, ErrInvalidName
		}
		req.Name = &name
	}
	if req.Phone != nil {
		phone, err := CleanPhone(*req.Phone)
		if err != nil {
			return nil, err
		}
		taken, err := s.repo.PhoneExists(ctx, branchID, phone, memberID)
		if err != nil {
			return nil, fmt.Errorf("check phone: %w", err)
		}
		if taken {
			return nil, ErrPhoneExists
		}
		req.Phone = &phone
	}

	return s.repo.Update(ctx, branchID, memberID, req)
}

// Notify queues a message of msgType for the member. Unlike the automatic
// confirmations, queueing failures are returned to the caller.
func (s *service) Notify(ctx context.Context, branchID, memberID int, msgType notification.MessageType) error {
	item, err := s.Get(ctx, branchID, memberID)
	if err != nil {
		return err
	}

	if msgType == notification.ExpiredReminder &&
		!membership.CanSendExpiredReminder(item.Subscription.Membership(), s.Today()) {
		return ErrReminderNotAllowed
	}

	if s.notifier == nil {
		return errors.New("notifications are not configured")
	}
	return s.notifier.Notify(ctx, notification.Message{
		To:       item.Phone,
		MemberID: item.ID,
		Type:     msgType,
		Data:     dataFor(item),
	})
}
