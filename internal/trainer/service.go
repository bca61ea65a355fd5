package trainer

import (
	"context"
	"errors"
	"strings"
)

var (
	ErrTrainerNotFound = errors.New("trainer not found")
	ErrInvalidFee      = errors.New("monthly fee must be positive")
)

type Service interface {
	Create(ctx context.Context, branchID int, req CreateTrainerRequest) (*Trainer, error)
	ListByBranch(ctx context.Context, branchID int) ([]Trainer, error)
	// Get returns the trainer only when it belongs to branchID and is active.
	Get(ctx context.Context, branchID, trainerID int) (*Trainer, error)
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) Create(ctx context.Context, branchID int, req CreateTrainerRequest) (*Trainer, error) {
	if req.MonthlyFeeCents <= 0 {
		return nil, ErrInvalidFee
	}
	return s.repo.Create(ctx, &Trainer{
		BranchID:        branchID,
		Name:            strings.TrimSpace(req.Name),
		Phone:           strings.TrimSpace(req.Phone),
		MonthlyFeeCents: req.MonthlyFeeCents,
	})
}

func (s *service) ListByBranch(ctx context.Context, branchID int) ([]Trainer, error) {
	return s.repo.ListByBranch(ctx, branchID)
}

func (s *service) Get(ctx context.Context, branchID, trainerID int) (*Trainer, error) {
	t, err := s.repo.GetByID(ctx, trainerID)
	if err != nil {
		return nil, err
	}
	if t.BranchID != branchID || !t.Active {
		return nil, ErrTrainerNotFound
	}
	return t, nil
}
