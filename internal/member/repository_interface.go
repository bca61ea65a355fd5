package member

import (
	"context"

	"github.com/jmoiron/sqlx"
)

type Repository interface {
	Create(ctx context.Context, q sqlx.QueryerContext, m Member) (*Member, error)
	PhoneExists(ctx context.Context, branchID int, phone string, excludeID int) (bool, error)
	ListByBranch(ctx context.Context, branchID int) ([]ListItem, error)
	Get(ctx context.Context, branchID, memberID int) (*ListItem, error)
	Update(ctx context.Context, branchID, memberID int, req UpdateRequest) (*Member, error)
}
