package subscription

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/souvik9998/gym-crm-sub001/internal/membership"
)

var (
	ErrNoSubscription = errors.New("member has no subscription")
	ErrNoActivePT     = errors.New("member has no active personal training")
	ErrUnknownMember  = errors.New("member not found in branch")
)

const (
	subscriptionColumns = `id, member_id, branch_id, plan, status, start_date, end_date, price_cents, created_at, updated_at`
	ptColumns           = `p.id, p.member_id, p.branch_id, p.trainer_id, t.name AS trainer_name, p.status, p.start_date, p.end_date, p.price_cents, p.created_at, p.updated_at`
)

// Contact is the part of a member record notifications need.
type Contact struct {
	ID    int    `db:"id"`
	Name  string `db:"name"`
	Phone string `db:"phone"`
}

type Repository interface {
	Create(ctx context.Context, q sqlx.QueryerContext, s Subscription) (*Subscription, error)
	CreatePT(ctx context.Context, q sqlx.QueryerContext, p PTSubscription) (*PTSubscription, error)
	Latest(ctx context.Context, memberID int) (*Subscription, error)
	ActivePT(ctx context.Context, memberID int) (*PTSubscription, error)
	UpdateStatus(ctx context.Context, id int, status membership.StoredStatus) error
	DeactivateExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error)
	DeactivateExpiredPTBefore(ctx context.Context, cutoff time.Time) (int64, error)
	ListByMember(ctx context.Context, memberID int) ([]Subscription, error)
	ListPTByMember(ctx context.Context, memberID int) ([]PTSubscription, error)
	ListEndingOn(ctx context.Context, date time.Time) ([]Due, error)
	MemberContact(ctx context.Context, branchID, memberID int) (*Contact, error)
}

type repository struct {
	db *sqlx.DB
}

func NewRepository(conn *sqlx.DB) Repository {
	return &repository{db: conn}
}

func (r *repository) Create(ctx context.Context, q sqlx.QueryerContext, s Subscription) (*Subscription, error) {
	var created Subscription
	err := sqlx.GetContext(ctx, q, &created, `
		INSERT INTO subscriptions (member_id, branch_id, plan, status, start_date, end_date, price_cents)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+subscriptionColumns,
		s.MemberID, s.BranchID, s.Plan, s.Status, s.StartDate, s.EndDate, s.PriceCents,
	)
	if err != nil {
		return nil, err
	}
	return &created, nil
}

func (r *repository) CreatePT(ctx context.Context, q sqlx.QueryerContext, pt PTSubscription) (*PTSubscription, error) {
	var created PTSubscription
	err := sqlx.GetContext(ctx, q, &created, `
		WITH p AS (
			INSERT INTO pt_subscriptions (member_id, branch_id, trainer_id, status, start_date, end_date, price_cents)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			RETURNING *
		)
		SELECT `+ptColumns+`
		FROM p
		JOIN trainers t ON t.id = p.trainer_id`,
		pt.MemberID, pt.BranchID, pt.TrainerID, pt.Status, pt.StartDate, pt.EndDate, pt.PriceCents,
	)
	if err != nil {
		return nil, err
	}
	return &created, nil
}

// Latest returns the member's most recent gym subscription, stacked
// renewals included.
func (r *repository) Latest(ctx context.Context, memberID int) (*Subscription, error) {
	var s Subscription
	err := r.db.GetContext(ctx, &s, `
		SELECT `+subscriptionColumns+`
		FROM subscriptions
		WHERE member_id = $1
		ORDER BY start_date DESC, id DESC
		LIMIT 1
	`, memberID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoSubscription
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// ActivePT returns the furthest-reaching PT package that has not been swept
// to inactive. An expired package stays "active PT" until the sweep runs.
func (r *repository) ActivePT(ctx context.Context, memberID int) (*PTSubscription, error) {
	var pt PTSubscription
	err := r.db.GetContext(ctx, &pt, `
		SELECT `+ptColumns+`
		FROM pt_subscriptions p
		JOIN trainers t ON t.id = p.trainer_id
		WHERE p.member_id = $1 AND p.status <> 'inactive'
		ORDER BY p.end_date DESC, p.id DESC
		LIMIT 1
	`, memberID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoActivePT
	}
	if err != nil {
		return nil, err
	}
	return &pt, nil
}

func (r *repository) UpdateStatus(ctx context.Context, id int, status membership.StoredStatus) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE subscriptions
		SET status = $1, updated_at = NOW()
		WHERE id = $2
	`, status, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNoSubscription
	}
	return nil
}

func (r *repository) deactivate(ctx context.Context, table string, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE `+table+`
		SET status = 'inactive', updated_at = NOW()
		WHERE status <> 'inactive' AND end_date < $1::date
	`, membership.CalendarDate(cutoff))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *repository) DeactivateExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	return r.deactivate(ctx, "subscriptions", cutoff)
}

func (r *repository) DeactivateExpiredPTBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	return r.deactivate(ctx, "pt_subscriptions", cutoff)
}

func (r *repository) ListByMember(ctx context.Context, memberID int) ([]Subscription, error) {
	subs := []Subscription{}
	err := r.db.SelectContext(ctx, &subs, `
		SELECT `+subscriptionColumns+`
		FROM subscriptions
		WHERE member_id = $1
		ORDER BY start_date DESC, id DESC
	`, memberID)
	return subs, err
}

func (r *repository) ListPTByMember(ctx context.Context, memberID int) ([]PTSubscription, error) {
	pts := []PTSubscription{}
	err := r.db.SelectContext(ctx, &pts, `
		SELECT `+ptColumns+`
		FROM pt_subscriptions p
		JOIN trainers t ON t.id = p.trainer_id
		WHERE p.member_id = $1
		ORDER BY p.start_date DESC, p.id DESC
	`, memberID)
	return pts, err
}

// ListEndingOn finds members whose latest gym subscription ends on date.
func (r *repository) ListEndingOn(ctx context.Context, date time.Time) ([]Due, error) {
	due := []Due{}
	err := r.db.SelectContext(ctx, &due, `
		SELECT m.id AS member_id, m.branch_id, m.name, m.phone, s.plan, s.end_date
		FROM members m
		JOIN LATERAL (
			SELECT plan, status, end_date
			FROM subscriptions
			WHERE member_id = m.id
			ORDER BY start_date DESC, id DESC
			LIMIT 1
		) s ON TRUE
		WHERE s.status <> 'inactive' AND s.end_date = $1::date
		ORDER BY m.branch_id, m.id
	`, membership.CalendarDate(date))
	return due, err
}

func (r *repository) MemberContact(ctx context.Context, branchID, memberID int) (*Contact, error) {
	var c Contact
	err := r.db.GetContext(ctx, &c, `SELECT id, name, phone FROM members WHERE id = $1 AND branch_id = $2`, memberID, branchID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUnknownMember
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}
