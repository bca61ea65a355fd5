package subscription

import (
	"context"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/souvik9998/gym-crm-sub001/internal/db"
	"github.com/souvik9998/gym-crm-sub001/internal/logger"
	"github.com/souvik9998/gym-crm-sub001/internal/membership"
	"github.com/souvik9998/gym-crm-sub001/internal/metrics"
	"github.com/souvik9998/gym-crm-sub001/internal/notification"
	"github.com/souvik9998/gym-crm-sub001/internal/payment"
	"github.com/souvik9998/gym-crm-sub001/internal/trainer"
)

var ErrNoActiveMembership = errors.New("member has no active gym membership")

type TrainerLookup interface {
	Get(ctx context.Context, branchID, trainerID int) (*trainer.Trainer, error)
}

type Notifier interface {
	Notify(ctx context.Context, msg notification.Message) error
}

type Service interface {
	Plans() []Plan
	// StartInitial opens a member's first subscription and records its
	// payment inside tx. The caller commits and reports metrics.
	StartInitial(ctx context.Context, tx *sqlx.Tx, req InitialRequest) (*Subscription, *payment.Payment, error)
	Renew(ctx context.Context, branchID, memberID int, req RenewRequest) (*RenewResponse, error)
	PurchasePT(ctx context.Context, branchID, memberID int, req PTRequest) (*PTResponse, error)
	Activate(ctx context.Context, branchID, memberID int) (*Subscription, error)
	History(ctx context.Context, branchID, memberID int) (*HistoryResponse, error)
}

type service struct {
	db        *sqlx.DB
	repo      Repository
	payments  payment.Repository
	trainers  TrainerLookup
	notifier  Notifier
	catalogue *Catalogue
	loc       *time.Location
	now       func() time.Time
}

func NewService(
	conn *sqlx.DB,
	repo Repository,
	payments payment.Repository,
	trainers TrainerLookup,
	notifier Notifier,
	catalogue *Catalogue,
	loc *time.Location,
) Service {
	return &service{
		db:        conn,
		repo:      repo,
		payments:  payments,
		trainers:  trainers,
		notifier:  notifier,
		catalogue: catalogue,
		loc:       loc,
		now:       time.Now,
	}
}

func (s *service) today() time.Time {
	return membership.Today(s.now(), s.loc)
}

func (s *service) Plans() []Plan {
	return s.catalogue.Plans()
}

// RecordSale reports a committed subscription sale to metrics.
func RecordSale(kind, plan string, p *payment.Payment) {
	metrics.RecordSubscription(kind, plan)
	if p != nil {
		metrics.RecordPayment(p.Kind, p.Method, p.AmountCents)
	}
}

func (s *service) StartInitial(ctx context.Context, tx *sqlx.Tx, req InitialRequest) (*Subscription, *payment.Payment, error) {
	plan, err := s.catalogue.Find(req.Plan)
	if err != nil {
		return nil, nil, err
	}
	if !payment.ValidMethod(req.Method) {
		return nil, nil, payment.ErrInvalidMethod
	}

	start := membership.CalendarDate(req.StartDate)
	if req.StartDate.IsZero() {
		start = membership.CalendarDate(s.today())
	}
	end := PeriodEnd(start, plan.Months)

	sub, err := s.repo.Create(ctx, tx, Subscription{
		MemberID:   req.MemberID,
		BranchID:   req.BranchID,
		Plan:       plan.Code,
		Status:     membership.StoredActive,
		StartDate:  start,
		EndDate:    &end,
		PriceCents: plan.PriceCents,
	})
	if err != nil {
		return nil, nil, err
	}

	pay, err := s.payments.Record(ctx, tx, payment.Payment{
		BranchID:       req.BranchID,
		MemberID:       req.MemberID,
		SubscriptionID: &sub.ID,
		Kind:           payment.KindRegistration,
		Method:         req.Method,
		AmountCents:    plan.PriceCents,
	})
	if err != nil {
		return nil, nil, err
	}

	return sub, pay, nil
}

func (s *service) latest(ctx context.Context, memberID int) (*Subscription, error) {
	sub, err := s.repo.Latest(ctx, memberID)
	if errors.Is(err, ErrNoSubscription) {
		return nil, nil
	}
	return sub, err
}

func (s *service) Renew(ctx context.Context, branchID, memberID int, req RenewRequest) (*RenewResponse, error) {
	plan, err := s.catalogue.Find(req.Plan)
	if err != nil {
		return nil, err
	}
	if !payment.ValidMethod(req.Method) {
		return nil, payment.ErrInvalidMethod
	}

	contact, err := s.repo.MemberContact(ctx, branchID, memberID)
	if err != nil {
		return nil, err
	}

	current, err := s.latest(ctx, memberID)
	if err != nil {
		return nil, err
	}

	start := RenewalStart(current.Membership(), s.today())
	end := PeriodEnd(start, plan.Months)

	var (
		sub *Subscription
		pay *payment.Payment
	)
	err = db.WithTx(ctx, s.db, func(tx *sqlx.Tx) error {
		var err error
		sub, err = s.repo.Create(ctx, tx, Subscription{
			MemberID:   memberID,
			BranchID:   branchID,
			Plan:       plan.Code,
			Status:     membership.StoredActive,
			StartDate:  start,
			EndDate:    &end,
			PriceCents: plan.PriceCents,
		})
		if err != nil {
			return err
		}

		pay, err = s.payments.Record(ctx, tx, payment.Payment{
			BranchID:       branchID,
			MemberID:       memberID,
			SubscriptionID: &sub.ID,
			Kind:           payment.KindRenewal,
			Method:         req.Method,
			AmountCents:    plan.PriceCents,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	RecordSale("gym", plan.Code, pay)
	logger.Info("membership renewed", "member_id", memberID, "plan", plan.Code, "start", start.Format(time.DateOnly), "end", end.Format(time.DateOnly))

	s.notify(ctx, notification.Message{
		To:       contact.Phone,
		MemberID: memberID,
		Type:     notification.RenewalConfirmation,
		Data:     notification.Data{Name: contact.Name, Plan: plan.Code, EndDate: end},
	})

	return &RenewResponse{Subscription: sub, AmountCents: plan.PriceCents}, nil
}

func (s *service) PurchasePT(ctx context.Context, branchID, memberID int, req PTRequest) (*PTResponse, error) {
	if !payment.ValidMethod(req.Method) {
		return nil, payment.ErrInvalidMethod
	}

	contact, err := s.repo.MemberContact(ctx, branchID, memberID)
	if err != nil {
		return nil, err
	}

	today := s.today()
	current, err := s.latest(ctx, memberID)
	if err != nil {
		return nil, err
	}
	switch membership.Classify(current.Membership(), today) {
	case membership.NoSubscription, membership.Inactive, membership.Expired:
		return nil, ErrNoActiveMembership
	}

	tr, err := s.trainers.Get(ctx, branchID, req.TrainerID)
	if err != nil {
		return nil, err
	}

	activePT, err := s.repo.ActivePT(ctx, memberID)
	if err != nil && !errors.Is(err, ErrNoActivePT) {
		return nil, err
	}

	start := RenewalStart(activePT.Membership(), today)
	end := PeriodEnd(start, req.Months)
	price := tr.MonthlyFeeCents * int64(req.Months)

	var (
		pt  *PTSubscription
		pay *payment.Payment
	)
	err = db.WithTx(ctx, s.db, func(tx *sqlx.Tx) error {
		var err error
		pt, err = s.repo.CreatePT(ctx, tx, PTSubscription{
			MemberID:   memberID,
			BranchID:   branchID,
			TrainerID:  tr.ID,
			Status:     membership.StoredActive,
			StartDate:  start,
			EndDate:    end,
			PriceCents: price,
		})
		if err != nil {
			return err
		}

		pay, err = s.payments.Record(ctx, tx, payment.Payment{
			BranchID:         branchID,
			MemberID:         memberID,
			PTSubscriptionID: &pt.ID,
			Kind:             payment.KindPT,
			Method:           req.Method,
			AmountCents:      price,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	RecordSale("pt", "pt", pay)
	logger.Info("personal training purchased", "member_id", memberID, "trainer_id", tr.ID, "months", req.Months)

	s.notify(ctx, notification.Message{
		To:       contact.Phone,
		MemberID: memberID,
		Type:     notification.PTConfirmation,
		Data:     notification.Data{Name: contact.Name, Trainer: tr.Name, EndDate: end},
	})

	return &PTResponse{PTSubscription: pt, AmountCents: price}, nil
}

func (s *service) Activate(ctx context.Context, branchID, memberID int) (*Subscription, error) {
	if _, err := s.repo.MemberContact(ctx, branchID, memberID); err != nil {
		return nil, err
	}

	sub, err := s.repo.Latest(ctx, memberID)
	if err != nil {
		return nil, err
	}

	if err := s.repo.UpdateStatus(ctx, sub.ID, membership.StoredActive); err != nil {
		return nil, err
	}
	sub.Status = membership.StoredActive

	logger.Info("subscription activated", "member_id", memberID, "subscription_id", sub.ID)
	return sub, nil
}

func (s *service) History(ctx context.Context, branchID, memberID int) (*HistoryResponse, error) {
	if _, err := s.repo.MemberContact(ctx, branchID, memberID); err != nil {
		return nil, err
	}

	subs, err := s.repo.ListByMember(ctx, memberID)
	if err != nil {
		return nil, err
	}
	pts, err := s.repo.ListPTByMember(ctx, memberID)
	if err != nil {
		return nil, err
	}

	return &HistoryResponse{Subscriptions: subs, PTSubscriptions: pts}, nil
}

// notify never fails the request: the sale is already committed.
func (s *service) notify(ctx context.Context, msg notification.Message) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Notify(ctx, msg); err != nil {
		logger.WithError(err).Warn("notification not queued", "member_id", msg.MemberID, "type", msg.Type)
	}
}
