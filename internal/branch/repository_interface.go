package branch

import "context"

type Repository interface {
	Create(ctx context.Context, name, address, phone string) (*Branch, error)
	List(ctx context.Context) ([]Branch, error)
	GetByID(ctx context.Context, id int) (*Branch, error)
	Exists(ctx context.Context, id int) (bool, error)
}
