package analytics

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
)

type Repository interface {
	RevenueByKind(ctx context.Context, branchID int, from, to time.Time, tz string) ([]KindTotal, error)
	DailyStats(ctx context.Context, branchID int, from, to time.Time, tz string) ([]DayStats, error)
}

type repository struct {
	db *sqlx.DB
}

func NewRepository(conn *sqlx.DB) Repository {
	return &repository{db: conn}
}

// Both queries bucket payments by their calendar day in tz; from and to
// are inclusive dates.

func (r *repository) RevenueByKind(ctx context.Context, branchID int, from, to time.Time, tz string) ([]KindTotal, error) {
	query := `
SELECT
  kind,
  COUNT(*)                       AS payments,
  COALESCE(SUM(amount_cents), 0) AS amount_cents
FROM payments
WHERE branch_id = $1
  AND (created_at AT TIME ZONE $4)::date BETWEEN $2::date AND $3::date
GROUP BY kind
ORDER BY kind;
`
	stats := []KindTotal{}
	if err := r.db.SelectContext(ctx, &stats, query, branchID, from, to, tz); err != nil {
		return nil, err
	}
	return stats, nil
}

func (r *repository) DailyStats(ctx context.Context, branchID int, from, to time.Time, tz string) ([]DayStats, error) {
	query := `
SELECT
  (created_at AT TIME ZONE $4)::date                AS day,
  COUNT(*)                                          AS payments,
  COALESCE(SUM(amount_cents), 0)                    AS revenue_cents,
  COUNT(*) FILTER (WHERE kind = 'registration')     AS registrations
FROM payments
WHERE branch_id = $1
  AND (created_at AT TIME ZONE $4)::date BETWEEN $2::date AND $3::date
GROUP BY day
ORDER BY day;
`
	stats := []DayStats{}
	if err := r.db.SelectContext(ctx, &stats, query, branchID, from, to, tz); err != nil {
		return nil, err
	}
	return stats, nil
}
