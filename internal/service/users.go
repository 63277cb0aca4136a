package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/it25102753/Oil-Shope-POS-system/internal/domain"
	"github.com/it25102753/Oil-Shope-POS-system/internal/store"
)

var ErrSelfDelete = errors.New("cannot delete your own account")

const (
	minUsernameLength = 3
	minPasswordLength = 6
)

func (s *Service) ListEmployees(ctx context.Context) ([]domain.Employee, error) {
	return s.repo.ListEmployees(ctx)
}

func (s *Service) CreateEmployee(ctx context.Context, req domain.EmployeeCreateRequest) (domain.Employee, error) {
	username := strings.TrimSpace(req.Username)
	if len(username) < minUsernameLength || strings.ContainsAny(username, " \t\n") {
		return domain.Employee{}, fmt.Errorf("%w: username must be at least %d characters without spaces", store.ErrInvalid, minUsernameLength)
	}
	if len(req.Password) < minPasswordLength {
		return domain.Employee{}, fmt.Errorf("%w: password must be at least %d characters", store.ErrInvalid, minPasswordLength)
	}
	role := domain.Role(strings.ToLower(strings.TrimSpace(string(req.Role))))
	if !role.Valid() {
		return domain.Employee{}, fmt.Errorf("%w: role must be admin, manager or cashier", store.ErrInvalid)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return domain.Employee{}, err
	}

	created, err := s.repo.CreateEmployee(ctx, domain.Employee{
		Username:     username,
		PasswordHash: string(hash),
		Role:         role,
	})
	if err != nil {
		return domain.Employee{}, err
	}
	s.logAudit(ctx, "employee_create", "employee", created.ID, fmt.Sprintf("username=%s role=%s", created.Username, created.Role))
	return *created, nil
}

// DeleteEmployee refuses to let the acting employee remove their own account.
func (s *Service) DeleteEmployee(ctx context.Context, id int64) error {
	if actor, ok := ActorFromContext(ctx); ok && actor.EmployeeID == id {
		return fmt.Errorf("%w: %w", store.ErrInvalid, ErrSelfDelete)
	}
	if err := s.repo.DeleteEmployee(ctx, id); err != nil {
		return err
	}
	s.logAudit(ctx, "employee_delete", "employee", id, "")
	return nil
}

// EnsureAdmin creates the bootstrap administrator when no account with that
// username exists yet. It reports whether an account was created.
func (s *Service) EnsureAdmin(ctx context.Context, username string, password string) (bool, error) {
	if _, err := s.repo.GetEmployeeByUsername(ctx, username); err == nil {
		return false, nil
	} else if !errors.Is(err, store.ErrNotFound) {
		return false, err
	}
	if _, err := s.CreateEmployee(ctx, domain.EmployeeCreateRequest{
		Username: username,
		Password: password,
		Role:     domain.RoleAdmin,
	}); err != nil {
		return false, err
	}
	return true, nil
}
