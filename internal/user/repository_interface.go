package user

import "context"

type Repository interface {
	Create(ctx context.Context, u *User) (*User, error)
	CreateFirstAdmin(ctx context.Context, u *User) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByID(ctx context.Context, id int) (*User, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	AdminExists(ctx context.Context) (bool, error)
}
