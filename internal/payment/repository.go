package payment

import (
	"context"
	"errors"

	"github.com/jmoiron/sqlx"
)

var (
	ErrInvalidAmount = errors.New("payment amount must be positive")
	ErrInvalidMethod = errors.New("unknown payment method")
	ErrInvalidKind   = errors.New("unknown payment kind")
)

const paymentColumns = `id, branch_id, member_id, subscription_id, pt_subscription_id, kind, method, amount_cents, created_at`

type Repository interface {
	// Record inserts p using q, which is normally the caller's transaction.
	Record(ctx context.Context, q sqlx.QueryerContext, p Payment) (*Payment, error)
	ListByBranch(ctx context.Context, branchID, limit, offset int) ([]Payment, error)
	ListByMember(ctx context.Context, branchID, memberID int) ([]Payment, error)
}

type repository struct {
	db *sqlx.DB
}

func NewRepository(conn *sqlx.DB) Repository {
	return &repository{db: conn}
}

func ValidMethod(method string) bool {
	for _, m := range Methods {
		if m == method {
			return true
		}
	}
	return false
}

func validate(p Payment) error {
	if p.AmountCents <= 0 {
		return ErrInvalidAmount
	}
	if !ValidMethod(p.Method) {
		return ErrInvalidMethod
	}
	switch p.Kind {
	case KindRegistration, KindRenewal, KindPT:
		return nil
	default:
		return ErrInvalidKind
	}
}

func (r *repository) Record(ctx context.Context, q sqlx.QueryerContext, p Payment) (*Payment, error) {
	if err := validate(p); err != nil {
		return nil, err
	}

	var saved Payment
	err := sqlx.GetContext(ctx, q, &saved, `
		INSERT INTO payments (branch_id, member_id, subscription_id, pt_subscription_id, kind, method, amount_cents)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+paymentColumns,
		p.BranchID, p.MemberID, p.SubscriptionID, p.PTSubscriptionID, p.Kind, p.Method, p.AmountCents,
	)
	if err != nil {
		return nil, err
	}
	return &saved, nil
}

func (r *repository) ListByBranch(ctx context.Context, branchID, limit, offset int) ([]Payment, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	payments := []Payment{}
	err := r.db.SelectContext(ctx, &payments, `
		SELECT `+paymentColumns+`
		FROM payments
		WHERE branch_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, branchID, limit, offset)
	if err != nil {
		return nil, err
	}
	return payments, nil
}

func (r *repository) ListByMember(ctx context.Context, branchID, memberID int) ([]Payment, error) {
	payments := []Payment{}
	err := r.db.SelectContext(ctx, &payments, `
		SELECT `+paymentColumns+`
		FROM payments
		WHERE branch_id = $1 AND member_id = $2
		ORDER BY created_at DESC
	`, branchID, memberID)
	if err != nil {
		return nil, err
	}
	return payments, nil
}
