package trainer

import "time"

type Trainer struct {
	ID              int       `db:"id" json:"id"`
	BranchID        int       `db:"branch_id" json:"branch_id"`
	Name            string    `db:"name" json:"name"`
	Phone           string    `db:"phone" json:"phone"`
	MonthlyFeeCents int64     `db:"monthly_fee_cents" json:"monthly_fee_cents"`
	Active          bool      `db:"active" json:"active"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
}

type CreateTrainerRequest struct {
	Name            string `json:"name" binding:"required"`
	Phone           string `json:"phone"`
	MonthlyFeeCents int64  `json:"monthly_fee_cents" binding:"required,gt=0"`
}
