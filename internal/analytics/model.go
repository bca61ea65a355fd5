package analytics

import (
	"time"

	"github.com/souvik9998/gym-crm-sub001/internal/membership"
)

type KindTotal struct {
	Kind        string `db:"kind" json:"kind"`
	Payments    int    `db:"payments" json:"payments"`
	AmountCents int64  `db:"amount_cents" json:"amount_cents"`
}

type DayStats struct {
	Day           time.Time `db:"day" json:"day"`
	Payments      int       `db:"payments" json:"payments"`
	RevenueCents  int64     `db:"revenue_cents" json:"revenue_cents"`
	Registrations int       `db:"registrations" json:"registrations"`
}

type Summary struct {
	BranchID      int                       `json:"branch_id"`
	From          string                    `json:"from"`
	To            string                    `json:"to"`
	TotalMembers  int                       `json:"total_members"`
	Members       map[membership.Filter]int `json:"members"`
	PT            map[membership.Filter]int `json:"pt"`
	RevenueCents  int64                     `json:"revenue_cents"`
	RevenueByKind []KindTotal               `json:"revenue_by_kind"`
	Daily         []DayStats                `json:"daily"`
	GeneratedAt   time.Time                 `json:"generated_at"`
}
