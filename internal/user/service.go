package user

import (
	"context"
	"errors"
	"fmt"

	"github.com/souvik9998/gym-crm-sub001/internal/auth"
	"github.com/souvik9998/gym-crm-sub001/internal/logger"
)

var (
	ErrEmailExists        = errors.New("email already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAdminExists        = errors.New("an admin account already exists")
	ErrUnknownBranch      = errors.New("branch does not exist")
)

// BranchChecker reports whether a branch exists. Satisfied by branch.Service.
type BranchChecker interface {
	Exists(ctx context.Context, branchID int) (bool, error)
}

type Service interface {
	Login(ctx context.Context, req LoginRequest) (*LoginResponse, error)
	Refresh(ctx context.Context, refreshToken string) (*RefreshResponse, error)
	GetByID(ctx context.Context, userID int) (*User, error)
	CreateStaff(ctx context.Context, req CreateStaffRequest) (*User, error)
	Bootstrap(ctx context.Context, req BootstrapRequest) (*LoginResponse, error)
}

type service struct {
	repo      Repository
	branches  BranchChecker
	jwtSecret string
}

func NewService(repo Repository, branches BranchChecker, jwtSecret string) Service {
	return &service{repo: repo, branches: branches, jwtSecret: jwtSecret}
}

func identityOf(u *User) auth.Identity {
	id := auth.Identity{UserID: u.ID, Email: u.Email, Role: u.Role}
	if u.BranchID != nil {
		id.BranchID = *u.BranchID
	}
	return id
}

func (s *service) issue(u *User) (*LoginResponse, error) {
	access, refresh, err := auth.GenerateTokens(identityOf(u), s.jwtSecret, s.jwtSecret)
	if err != nil {
		return nil, fmt.Errorf("generate tokens: %w", err)
	}
	return &LoginResponse{AccessToken: access, RefreshToken: refresh, User: *u}, nil
}

func (s *service) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	u, err := s.repo.FindByEmail(ctx, req.Email)
	if errors.Is(err, ErrUserNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	if !auth.CheckPassword(u.PasswordHash, req.Password) {
		return nil, ErrInvalidCredentials
	}

	return s.issue(u)
}

// Refresh reloads the user so a changed role or branch takes effect on the new token.
func (s *service) Refresh(ctx context.Context, refreshToken string) (*RefreshResponse, error) {
	_, claims, err := auth.RefreshAccessToken(refreshToken, s.jwtSecret, s.jwtSecret)
	if err != nil {
		return nil, err
	}

	u, err := s.repo.FindByID(ctx, claims.UserID)
	if err != nil {
		return nil, err
	}

	access, err := auth.GenerateAccessToken(identityOf(u), s.jwtSecret)
	if err != nil {
		return nil, err
	}

	return &RefreshResponse{AccessToken: access, User: *u}, nil
}

func (s *service) GetByID(ctx context.Context, userID int) (*User, error) {
	return s.repo.FindByID(ctx, userID)
}

func (s *service) create(ctx context.Context, u *User, password string) (*User, error) {
	return s.createWith(ctx, u, password, s.repo.Create)
}

func (s *service) createWith(ctx context.Context, u *User, password string, insert func(context.Context, *User) (*User, error)) (*User, error) {
	exists, err := s.repo.EmailExists(ctx, u.Email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrEmailExists
	}

	u.PasswordHash, err = auth.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	return insert(ctx, u)
}

func (s *service) CreateStaff(ctx context.Context, req CreateStaffRequest) (*User, error) {
	ok, err := s.branches.Exists(ctx, req.BranchID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrUnknownBranch
	}

	branchID := req.BranchID
	u, err := s.create(ctx, &User{BranchID: &branchID, Name: req.Name, Email: req.Email, Role: auth.RoleStaff}, req.Password)
	if err != nil {
		return nil, err
	}

	logger.Info("staff account created", "user_id", u.ID, "branch_id", branchID)
	return u, nil
}

// Bootstrap creates the first admin. It refuses once any admin exists; the
// repository repeats the check under a lock so concurrent calls cannot both
// succeed.
func (s *service) Bootstrap(ctx context.Context, req BootstrapRequest) (*LoginResponse, error) {
	exists, err := s.repo.AdminExists(ctx)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrAdminExists
	}

	u, err := s.createWith(ctx, &User{Name: req.Name, Email: req.Email, Role: auth.RoleAdmin}, req.Password, s.repo.CreateFirstAdmin)
	if err != nil {
		return nil, err
	}

	logger.Warn("admin account bootstrapped", "user_id", u.ID)
	return s.issue(u)
}
