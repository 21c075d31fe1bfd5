package service

import (
	"github.com/vitorbastosbn/nutricionista/internal/domain"
	apperrors "github.com/vitorbastosbn/nutricionista/pkg/errors"
)

func invalidCredentials() error {
	return apperrors.Unprocessable("INVALID_CREDENTIALS", "invalid email or password", domain.ErrInvalidCredentials)
}

func duplicateEmail() error {
	return apperrors.Unprocessable("DUPLICATE_EMAIL", "email is already registered", domain.ErrDuplicateEmail)
}

func invalidRefreshToken() error {
	return apperrors.Unprocessable("INVALID_REFRESH_TOKEN", "refresh token is invalid or expired", domain.ErrInvalidRefreshToken)
}

func roleAlreadyAssigned(role string) error {
	return apperrors.Unprocessable("ROLE_ALREADY_ASSIGNED", "user already has role "+role, domain.ErrRoleAlreadyAssigned)
}

func roleNotAssigned(role string) error {
	return apperrors.Unprocessable("ROLE_NOT_ASSIGNED", "user does not have role "+role, domain.ErrRoleNotAssigned)
}

func lastRole() error {
	return apperrors.Unprocessable("LAST_ROLE", "user must keep at least one role", domain.ErrLastRole)
}

func duplicateRoleName(name string) error {
	return apperrors.Unprocessable("DUPLICATE_ROLE_NAME", "role "+name+" already exists", domain.ErrDuplicateRoleName)
}
