package member

import (
	"time"

	"github.com/souvik9998/gym-crm-sub001/internal/membership"
)

type Member struct {
	ID        int       `db:"id" json:"id"`
	BranchID  int       `db:"branch_id" json:"branch_id"`
	Name      string    `db:"name" json:"name"`
	Phone     string    `db:"phone" json:"phone"`
	Email     *string   `db:"email" json:"email,omitempty"`
	Gender    *string   `db:"gender" json:"gender,omitempty"`
	JoinDate  time.Time `db:"join_date" json:"join_date"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// SubscriptionInfo is the member's latest gym subscription.
type SubscriptionInfo struct {
	ID        int                     `json:"id"`
	Plan      string                  `json:"plan"`
	Status    membership.StoredStatus `json:"status"`
	StartDate time.Time               `json:"start_date"`
	EndDate   *time.Time              `json:"end_date"`
}

func (s *SubscriptionInfo) Membership() *membership.Subscription {
	if s == nil {
		return nil
	}
	return &membership.Subscription{Status: s.Status, StartDate: s.StartDate, EndDate: s.EndDate}
}

// PTInfo is the member's active personal-training package.
type PTInfo struct {
	TrainerName string    `json:"trainer_name"`
	EndDate     time.Time `json:"end_date"`
}

type ListItem struct {
	Member
	Subscription  *SubscriptionInfo        `json:"subscription"`
	ActivePT      *PTInfo                  `json:"active_pt"`
	DerivedStatus membership.DerivedStatus `json:"derived_status"`
	StatusLabel   string                   `json:"status_label"`
	DaysLeft      *int                     `json:"days_left"`
	PTDaysLeft    *int                     `json:"pt_days_left,omitempty"`
}

// View is the projection the filter rules work on.
func (i *ListItem) View() membership.MemberView {
	v := membership.MemberView{Subscription: i.Subscription.Membership()}
	if i.ActivePT != nil {
		end := i.ActivePT.EndDate
		v.ActivePT = &membership.PTView{TrainerName: i.ActivePT.TrainerName, EndDate: &end}
	}
	return v
}

func (i *ListItem) derive(today time.Time) {
	sub := i.Subscription.Membership()
	i.DerivedStatus = membership.Classify(sub, today)
	i.StatusLabel = i.DerivedStatus.Label()
	i.DaysLeft = membership.DaysLeft(sub, today)
	i.PTDaysLeft = nil
	if i.ActivePT != nil {
		d := membership.DiffDays(i.ActivePT.EndDate, today)
		i.PTDaysLeft = &d
	}
}

const (
	SortName     = "name"
	SortJoinDate = "join_date"
	SortEndDate  = "end_date"

	DefaultPageSize = 25
	MaxPageSize     = 100
)

type ListQuery struct {
	Filter   string `form:"filter"`
	PT       bool   `form:"pt"`
	Search   string `form:"search" validate:"max=100"`
	Sort     string `form:"sort"`
	Page     int    `form:"page" validate:"gte=0"`
	PageSize int    `form:"page_size" validate:"gte=0"`
}

type Page struct {
	Items    []ListItem `json:"items"`
	Total    int        `json:"total"`
	Page     int        `json:"page"`
	PageSize int        `json:"page_size"`
}

type RegisterRequest struct {
	Name      string  `json:"name" binding:"required"`
	Phone     string  `json:"phone" binding:"required"`
	Email     *string `json:"email" binding:"omitempty,email"`
	Gender    *string `json:"gender" binding:"omitempty,oneof=male female other"`
	Plan      string  `json:"plan" binding:"required"`
	Method    string  `json:"method" binding:"required"`
	StartDate string  `json:"start_date" binding:"omitempty,datetime=2006-01-02"`
}

type UpdateRequest struct {
	Name  *string `json:"name" binding:"omitempty,min=1"`
	Phone *string `json:"phone"`
	Email *string `json:"email" binding:"omitempty,email"`
}

type NotifyRequest struct {
	Type string `json:"type" binding:"required"`
}
