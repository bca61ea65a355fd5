package branch

import (
	"context"
	"errors"
	"strings"
)

var (
	ErrBranchNotFound = errors.New("branch not found")
	ErrInvalidName    = errors.New("branch name is required")
)

type Service interface {
	CreateBranch(ctx context.Context, req CreateBranchRequest) (*Branch, error)
	ListBranches(ctx context.Context) ([]Branch, error)
	GetBranch(ctx context.Context, id int) (*Branch, error)
	Exists(ctx context.Context, id int) (bool, error)
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) CreateBranch(ctx context.Context, req CreateBranchRequest) (*Branch, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, ErrInvalidName
	}
	return s.repo.Create(ctx, name, strings.TrimSpace(req.Address), strings.TrimSpace(req.Phone))
}

func (s *service) ListBranches(ctx context.Context) ([]Branch, error) {
	return s.repo.List(ctx)
}

func (s *service) GetBranch(ctx context.Context, id int) (*Branch, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *service) Exists(ctx context.Context, id int) (bool, error) {
	return s.repo.Exists(ctx, id)
}
