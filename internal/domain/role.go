package domain

// Seeded role names.
const (
	RoleUser  = "ROLE_USER"
	RoleAdmin = "ROLE_ADMIN"
)

// DefaultRole is granted to every self-registered user.
const DefaultRole = RoleUser

// Role is a named permission set.
type Role struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// RoleFilter narrows ListRoles the same way UserFilter narrows users.
type RoleFilter struct {
	Name        string
	Description string
	Search      string
}

// RoleSortFields are the fields ListRoles can order by.
var RoleSortFields = []string{"name", "description"}
