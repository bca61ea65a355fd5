package trainer

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
)

type Repository interface {
	Create(ctx context.Context, t *Trainer) (*Trainer, error)
	ListByBranch(ctx context.Context, branchID int) ([]Trainer, error)
	GetByID(ctx context.Context, id int) (*Trainer, error)
}

type repository struct {
	db *sqlx.DB
}

func NewRepository(conn *sqlx.DB) Repository {
	return &repository{db: conn}
}

const trainerColumns = `id, branch_id, name, phone, monthly_fee_cents, active, created_at`

func (r *repository) Create(ctx context.Context, t *Trainer) (*Trainer, error) {
	query := `
		INSERT INTO trainers (branch_id, name, phone, monthly_fee_cents)
		VALUES ($1, $2, $3, $4)
		RETURNING ` + trainerColumns

	var created Trainer
	if err := r.db.GetContext(ctx, &created, query, t.BranchID, t.Name, t.Phone, t.MonthlyFeeCents); err != nil {
		return nil, err
	}
	return &created, nil
}

func (r *repository) ListByBranch(ctx context.Context, branchID int) ([]Trainer, error) {
	trainers := []Trainer{}
	err := r.db.SelectContext(ctx, &trainers,
		`SELECT `+trainerColumns+` FROM trainers WHERE branch_id = $1 AND active ORDER BY name`, branchID)
	if err != nil {
		return nil, err
	}
	return trainers, nil
}

func (r *repository) GetByID(ctx context.Context, id int) (*Trainer, error) {
	var t Trainer
	err := r.db.GetContext(ctx, &t, `SELECT `+trainerColumns+` FROM trainers WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrTrainerNotFound
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}
