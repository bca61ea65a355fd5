package subscription

import (
	"time"

	"github.com/souvik9998/gym-crm-sub001/internal/membership"
)

type Subscription struct {
	ID         int                     `db:"id" json:"id"`
	MemberID   int                     `db:"member_id" json:"member_id"`
	BranchID   int                     `db:"branch_id" json:"branch_id"`
	Plan       string                  `db:"plan" json:"plan"`
	Status     membership.StoredStatus `db:"status" json:"status"`
	StartDate  time.Time               `db:"start_date" json:"start_date"`
	EndDate    *time.Time              `db:"end_date" json:"end_date"`
	PriceCents int64                   `db:"price_cents" json:"price_cents"`
	CreatedAt  time.Time               `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time               `db:"updated_at" json:"updated_at"`
}

// Membership returns the fields the status classifier works on.
func (s *Subscription) Membership() *membership.Subscription {
	if s == nil {
		return nil
	}
	return &membership.Subscription{Status: s.Status, StartDate: s.StartDate, EndDate: s.EndDate}
}

type PTSubscription struct {
	ID          int                     `db:"id" json:"id"`
	MemberID    int                     `db:"member_id" json:"member_id"`
	BranchID    int                     `db:"branch_id" json:"branch_id"`
	TrainerID   int                     `db:"trainer_id" json:"trainer_id"`
	TrainerName string                  `db:"trainer_name" json:"trainer_name"`
	Status      membership.StoredStatus `db:"status" json:"status"`
	StartDate   time.Time               `db:"start_date" json:"start_date"`
	EndDate     time.Time               `db:"end_date" json:"end_date"`
	PriceCents  int64                   `db:"price_cents" json:"price_cents"`
	CreatedAt   time.Time               `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time               `db:"updated_at" json:"updated_at"`
}

func (p *PTSubscription) Membership() *membership.Subscription {
	if p == nil {
		return nil
	}
	end := p.EndDate
	return &membership.Subscription{Status: p.Status, StartDate: p.StartDate, EndDate: &end}
}

// Due is a member whose latest gym subscription ends on a given day.
type Due struct {
	MemberID int       `db:"member_id"`
	BranchID int       `db:"branch_id"`
	Name     string    `db:"name"`
	Phone    string    `db:"phone"`
	Plan     string    `db:"plan"`
	EndDate  time.Time `db:"end_date"`
}

type RenewRequest struct {
	Plan   string `json:"plan" binding:"required"`
	Method string `json:"method" binding:"required"`
}

type PTRequest struct {
	TrainerID int    `json:"trainer_id" binding:"required,gt=0"`
	Months    int    `json:"months" binding:"required,gte=1,lte=12"`
	Method    string `json:"method" binding:"required"`
}

// InitialRequest opens the first subscription of a newly registered member.
type InitialRequest struct {
	BranchID  int
	MemberID  int
	Plan      string
	Method    string
	StartDate time.Time
}

type RenewResponse struct {
	Subscription *Subscription `json:"subscription"`
	AmountCents  int64         `json:"amount_cents"`
}

type PTResponse struct {
	PTSubscription *PTSubscription `json:"pt_subscription"`
	AmountCents    int64           `json:"amount_cents"`
}

type HistoryResponse struct {
	Subscriptions   []Subscription   `json:"subscriptions"`
	PTSubscriptions []PTSubscription `json:"pt_subscriptions"`
}
