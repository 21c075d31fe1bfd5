package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/vitorbastosbn/nutricionista/internal/domain"
	"github.com/vitorbastosbn/nutricionista/internal/repository"
	apperrors "github.com/vitorbastosbn/nutricionista/pkg/errors"
	"github.com/vitorbastosbn/nutricionista/pkg/pagination"
)

// RoleService manages roles.
type RoleService struct {
	roles  repository.RoleRepository
	logger *slog.Logger
}

// NewRoleService creates a new role service.
func NewRoleService(roles repository.RoleRepository, logger *slog.Logger) *RoleService {
	return &RoleService{roles: roles, logger: logger}
}

// RoleInput holds the fields of a role.
type RoleInput struct {
	Name        string
	Description string
}

// CreateRole adds a role. Names are unique ignoring case.
func (s *RoleService) CreateRole(ctx context.Context, input RoleInput) (*domain.Role, error) {
	name := strings.TrimSpace(input.Name)
	if err := s.ensureNameFree(ctx, name, ""); err != nil {
		return nil, err
	}

	role := &domain.Role{
		ID:          uuid.NewString(),
		Name:        name,
		Description: strings.TrimSpace(input.Description),
	}
	if err := s.roles.Create(ctx, role); err != nil {
		if errors.Is(err, apperrors.ErrAlreadyExists) {
			return nil, duplicateRoleName(name)
		}
		return nil, fmt.Errorf("create role: %w", err)
	}

	s.logger.InfoContext(ctx, "role created", slog.String("role_id", role.ID), slog.String("name", role.Name))
	return role, nil
}

// GetRole returns a role by ID.
func (s *RoleService) GetRole(ctx context.Context, id string) (*domain.Role, error) {
	role, err := s.roles.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NotFound("role", id)
		}
		return nil, fmt.Errorf("get role: %w", err)
	}
	return role, nil
}

// ListRoles returns one page of roles.
func (s *RoleService) ListRoles(ctx context.Context, filter domain.RoleFilter, page pagination.Params) ([]domain.Role, int, error) {
	roles, total, err := s.roles.List(ctx, filter, page)
	if err != nil {
		return nil, 0, fmt.Errorf("list roles: %w", err)
	}
	return roles, total, nil
}

// UpdateRole renames or re-describes a role. Uniqueness is checked only when
// the name changes.
func (s *RoleService) UpdateRole(ctx context.Context, id string, input RoleInput) (*domain.Role, error) {
	role, err := s.GetRole(ctx, id)
	if err != nil {
		return nil, err
	}

	name := strings.TrimSpace(input.Name)
	if name != role.Name {
		if err := s.ensureNameFree(ctx, name, role.ID); err != nil {
			return nil, err
		}
	}

	role.Name = name
	role.Description = strings.TrimSpace(input.Description)
	if err := s.roles.Update(ctx, role); err != nil {
		switch {
		case errors.Is(err, apperrors.ErrAlreadyExists):
			return nil, duplicateRoleName(name)
		case errors.Is(err, apperrors.ErrNotFound):
			return nil, apperrors.NotFound("role", id)
		}
		return nil, fmt.Errorf("update role: %w", err)
	}
	return role, nil
}

// DeleteRole removes a role no user holds.
func (s *RoleService) DeleteRole(ctx context.Context, id string) error {
	if err := s.roles.Delete(ctx, id); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return apperrors.NotFound("role", id)
		}
		var appErr *apperrors.AppError
		if errors.As(err, &appErr) {
			return appErr
		}
		return fmt.Errorf("delete role: %w", err)
	}

	s.logger.InfoContext(ctx, "role deleted", slog.String("role_id", id))
	return nil
}

// ensureNameFree fails when another role (other than selfID) uses name.
func (s *RoleService) ensureNameFree(ctx context.Context, name, selfID string) error {
	existing, err := s.roles.GetByName(ctx, name)
	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		return nil
	case err != nil:
		return fmt.Errorf("get role by name: %w", err)
	case existing.ID == selfID:
		return nil
	default:
		return duplicateRoleName(name)
	}
}
