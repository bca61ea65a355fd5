package payment

import "time"

const (
	KindRegistration = "registration"
	KindRenewal      = "renewal"
	KindPT           = "pt"
)

var Methods = []string{"cash", "upi", "card", "online"}

// Payment is one ledger row. Amounts are in paise.
type Payment struct {
	ID               int       `db:"id" json:"id"`
	BranchID         int       `db:"branch_id" json:"branch_id"`
	MemberID         int       `db:"member_id" json:"member_id"`
	SubscriptionID   *int      `db:"subscription_id" json:"subscription_id,omitempty"`
	PTSubscriptionID *int      `db:"pt_subscription_id" json:"pt_subscription_id,omitempty"`
	Kind             string    `db:"kind" json:"kind"`
	Method           string    `db:"method" json:"method"`
	AmountCents      int64     `db:"amount_cents" json:"amount_cents"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
}
