package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/souvik9998/gym-crm-sub001/internal/auth"
	"github.com/souvik9998/gym-crm-sub001/internal/db"
)

var ErrUserNotFound = errors.New("user not found")

const userColumns = `id, branch_id, name, email, password_hash, role, created_at`

type repository struct {
	db *sqlx.DB
}

func NewRepository(conn *sqlx.DB) Repository {
	return &repository{db: conn}
}

// bootstrapLockKey serialises first-admin creation across replicas.
const bootstrapLockKey = 7301

func insert(ctx context.Context, q sqlx.QueryerContext, u *User) (*User, error) {
	query := `
		INSERT INTO users (branch_id, name, email, password_hash, role)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + userColumns

	var created User
	if err := sqlx.GetContext(ctx, q, &created, query, u.BranchID, u.Name, u.Email, u.PasswordHash, u.Role); err != nil {
		return nil, err
	}
	return &created, nil
}

func (r *repository) Create(ctx context.Context, u *User) (*User, error) {
	return insert(ctx, r.db, u)
}

// CreateFirstAdmin inserts u as an admin unless one already exists. The
// check and the insert share a transaction holding an advisory lock, so
// concurrent calls create at most one admin.
func (r *repository) CreateFirstAdmin(ctx context.Context, u *User) (*User, error) {
	var created *User
	err := db.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, bootstrapLockKey); err != nil {
			return fmt.Errorf("lock bootstrap: %w", err)
		}

		exists, err := db.Exists(ctx, tx, `SELECT EXISTS(SELECT 1 FROM users WHERE role = 'admin')`)
		if err != nil {
			return err
		}
		if exists {
			return ErrAdminExists
		}

		admin := *u
		admin.Role = auth.RoleAdmin
		admin.BranchID = nil
		created, err = insert(ctx, tx, &admin)
		return err
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (r *repository) findOne(ctx context.Context, where string, arg interface{}) (*User, error) {
	var u User
	err := r.db.GetContext(ctx, &u, `SELECT `+userColumns+` FROM users WHERE `+where, arg)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *repository) FindByEmail(ctx context.Context, email string) (*User, error) {
	return r.findOne(ctx, `email = $1`, email)
}

func (r *repository) FindByID(ctx context.Context, id int) (*User, error) {
	return r.findOne(ctx, `id = $1`, id)
}

func (r *repository) EmailExists(ctx context.Context, email string) (bool, error) {
	return db.Exists(ctx, r.db, `SELECT EXISTS(SELECT 1 FROM users WHERE email = $1)`, email)
}

func (r *repository) AdminExists(ctx context.Context) (bool, error) {
	return db.Exists(ctx, r.db, `SELECT EXISTS(SELECT 1 FROM users WHERE role = 'admin')`)
}
