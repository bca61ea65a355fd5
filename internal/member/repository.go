package member

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/souvik9998/gym-crm-sub001/internal/db"
	"github.com/souvik9998/gym-crm-sub001/internal/membership"
)

var (
	ErrMemberNotFound = errors.New("member not found")
	ErrPhoneExists    = errors.New("a member with this phone already exists in the branch")
)

const memberColumns = `id, branch_id, name, phone, email, gender, join_date, created_at`

// listQuery joins each member to its latest gym subscription and its
// furthest-ending PT package that has not been deactivated.
const listQuery = `
	SELECT m.id, m.branch_id, m.name, m.phone, m.email, m.gender, m.join_date, m.created_at,
		s.id AS sub_id, s.plan AS sub_plan, s.status AS sub_status,
		s.start_date AS sub_start_date, s.end_date AS sub_end_date,
		pt.trainer_name AS pt_trainer_name, pt.end_date AS pt_end_date
	FROM members m
	LEFT JOIN LATERAL (
		SELECT id, plan, status, start_date, end_date
		FROM subscriptions
		WHERE member_id = m.id
		ORDER BY start_date DESC, id DESC
		LIMIT 1
	) s ON TRUE
	LEFT JOIN LATERAL (
		SELECT t.name AS trainer_name, p.end_date
		FROM pt_subscriptions p
		JOIN trainers t ON t.id = p.trainer_id
		WHERE p.member_id = m.id AND p.status <> 'inactive'
		ORDER BY p.end_date DESC, p.id DESC
		LIMIT 1
	) pt ON TRUE
	WHERE m.branch_id = $1`

type row struct {
	Member
	SubID        sql.NullInt64  `db:"sub_id"`
	SubPlan      sql.NullString `db:"sub_plan"`
	SubStatus    sql.NullString `db:"sub_status"`
	SubStartDate sql.NullTime   `db:"sub_start_date"`
	SubEndDate   sql.NullTime   `db:"sub_end_date"`
	PTTrainer    sql.NullString `db:"pt_trainer_name"`
	PTEndDate    sql.NullTime   `db:"pt_end_date"`
}

func (r row) item() ListItem {
	item := ListItem{Member: r.Member}
	if r.SubID.Valid {
		sub := &SubscriptionInfo{
			ID:        int(r.SubID.Int64),
			Plan:      r.SubPlan.String,
			Status:    membership.StoredStatus(r.SubStatus.String),
			StartDate: r.SubStartDate.Time,
		}
		if r.SubEndDate.Valid {
			end := r.SubEndDate.Time
			sub.EndDate = &end
		}
		item.Subscription = sub
	}
	if r.PTEndDate.Valid {
		item.ActivePT = &PTInfo{TrainerName: r.PTTrainer.String, EndDate: r.PTEndDate.Time}
	}
	return item
}

type repository struct {
	db *sqlx.DB
}

func NewRepository(conn *sqlx.DB) Repository {
	return &repository{db: conn}
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

func (r *repository) Create(ctx context.Context, q sqlx.QueryerContext, m Member) (*Member, error) {
	var created Member
	err := sqlx.GetContext(ctx, q, &created, `
		INSERT INTO members (branch_id, name, phone, email, gender, join_date)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+memberColumns,
		m.BranchID, m.Name, m.Phone, m.Email, m.Gender, m.JoinDate,
	)
	if isUniqueViolation(err) {
		return nil, ErrPhoneExists
	}
	if err != nil {
		return nil, err
	}
	return &created, nil
}

func (r *repository) PhoneExists(ctx context.Context, branchID int, phone string, excludeID int) (bool, error) {
	return db.Exists(ctx, r.db,
		`SELECT EXISTS(SELECT 1 FROM members WHERE branch_id = $1 AND phone = $2 AND id <> $3)`,
		branchID, phone, excludeID)
}

func (r *repository) ListByBranch(ctx context.Context, branchID int) ([]ListItem, error) {
	var rows []row
	if err := r.db.SelectContext(ctx, &rows, listQuery+` ORDER BY m.id`, branchID); err != nil {
		return nil, err
	}

	items := make([]ListItem, 0, len(rows))
	for _, rw := range rows {
		items = append(items, rw.item())
	}
	return items, nil
}

func (r *repository) Get(ctx context.Context, branchID, memberID int) (*ListItem, error) {
	var found row
	err := r.db.GetContext(ctx, &found, listQuery+` AND m.id = $2`, branchID, memberID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrMemberNotFound
	}
	if err != nil {
		return nil, err
	}
	item := found.item()
	return &item, nil
}

func (r *repository) Update(ctx context.Context, branchID, memberID int, req UpdateRequest) (*Member, error) {
	var (
		sets []string
		args []interface{}
	)
	add := func(col string, v interface{}) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
	}
	if req.Name != nil {
		add("name", *req.Name)
	}
	if req.Phone != nil {
		add("phone", *req.Phone)
	}
	if req.Email != nil {
		add("email", *req.Email)
	}

	var query string
	if len(sets) == 0 {
		query = `SELECT ` + memberColumns + ` FROM members WHERE branch_id = $1 AND id = $2`
	} else {
		query = fmt.Sprintf(`UPDATE members SET %s WHERE branch_id = $%d AND id = $%d RETURNING %s`,
			strings.Join(sets, ", "), len(args)+1, len(args)+2, memberColumns)
	}
	args = append(args, branchID, memberID)

	var m Member
	err := r.db.GetContext(ctx, &m, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrMemberNotFound
	}
	if isUniqueViolation(err) {
		return nil, ErrPhoneExists
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}
