package domain

import "errors"

// Auth and user management failures. The HTTP layer maps each to a fixed
// status and code.
var (
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrDuplicateEmail      = errors.New("email already registered")
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
	// ErrIdentityNotFound never reaches a caller during refresh; it is
	// collapsed into ErrInvalidRefreshToken there.
	ErrIdentityNotFound = errors.New("identity not found")

	ErrRoleAlreadyAssigned = errors.New("role already assigned")
	ErrRoleNotAssigned     = errors.New("role not assigned")
	ErrLastRole            = errors.New("user must keep at least one role")
	ErrDuplicateRoleName   = errors.New("role name already exists")
)
