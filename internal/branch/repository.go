package branch

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/souvik9998/gym-crm-sub001/internal/db"
)

type repository struct {
	db *sqlx.DB
}

func NewRepository(conn *sqlx.DB) Repository {
	return &repository{db: conn}
}

func (r *repository) Create(ctx context.Context, name, address, phone string) (*Branch, error) {
	query := `
		INSERT INTO branches (name, address, phone)
		VALUES ($1, $2, $3)
		RETURNING id, name, address, phone, created_at
	`

	var b Branch
	if err := r.db.GetContext(ctx, &b, query, name, address, phone); err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *repository) List(ctx context.Context) ([]Branch, error) {
	query := `
		SELECT id, name, address, phone, created_at
		FROM branches
		ORDER BY name
	`

	branches := []Branch{}
	if err := r.db.SelectContext(ctx, &branches, query); err != nil {
		return nil, err
	}
	return branches, nil
}

func (r *repository) GetByID(ctx context.Context, id int) (*Branch, error) {
	query := `
		SELECT id, name, address, phone, created_at
		FROM branches
		WHERE id = $1
	`

	var b Branch
	err := r.db.GetContext(ctx, &b, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrBranchNotFound
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *repository) Exists(ctx context.Context, id int) (bool, error) {
	return db.Exists(ctx, r.db, `SELECT EXISTS(SELECT 1 FROM branches WHERE id = $1)`, id)
}
