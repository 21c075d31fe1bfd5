package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/vitorbastosbn/nutricionista/internal/domain"
	"github.com/vitorbastosbn/nutricionista/pkg/database"
	apperrors "github.com/vitorbastosbn/nutricionista/pkg/errors"
	"github.com/vitorbastosbn/nutricionista/pkg/pagination"
)

const selectRole = `SELECT r.id, r.name, COALESCE(r.description, '') FROM roles r`

var roleSortColumns = map[string]string{
	"name":        "r.name",
	"description": "r.description",
}

// RoleRepository implements repository.RoleRepository using PostgreSQL.
type RoleRepository struct {
	db database.DBTX
}

// NewRoleRepository creates a new PostgreSQL-backed role repository.
func NewRoleRepository(db database.DBTX) *RoleRepository {
	return &RoleRepository{db: db}
}

// Create inserts a role. The name index is case-insensitive.
func (r *RoleRepository) Create(ctx context.Context, role *domain.Role) (err error) {
	query := `INSERT INTO roles (id, name, description) VALUES ($1, $2, $3)`

	ctx, end := database.TraceQuery(ctx, "CreateRole", query)
	defer func() { end(err) }()

	if _, err = r.db.Exec(ctx, query, role.ID, role.Name, role.Description); err != nil {
		if isUniqueViolation(err) {
			return apperrors.AlreadyExists("role", "name", role.Name)
		}
		return fmt.Errorf("insert role: %w", err)
	}
	return nil
}

// GetByID retrieves a role by ID.
func (r *RoleRepository) GetByID(ctx context.Context, id string) (role *domain.Role, err error) {
	query := selectRole + ` WHERE r.id = $1`

	ctx, end := database.TraceQuery(ctx, "GetRoleByID", query)
	defer func() { end(err) }()

	return scanRole(r.db.QueryRow(ctx, query, id))
}

// GetByName retrieves a role by name, ignoring case.
func (r *RoleRepository) GetByName(ctx context.Context, name string) (role *domain.Role, err error) {
	query := selectRole + ` WHERE lower(r.name) = lower($1)`

	ctx, end := database.TraceQuery(ctx, "GetRoleByName", query)
	defer func() { end(err) }()

	return scanRole(r.db.QueryRow(ctx, query, name))
}

// Update renames or re-describes a role.
func (r *RoleRepository) Update(ctx context.Context, role *domain.Role) (err error) {
	query := `UPDATE roles SET name = $1, description = $2 WHERE id = $3`

	ctx, end := database.TraceQuery(ctx, "UpdateRole", query)
	defer func() { end(err) }()

	ct, err := r.db.Exec(ctx, query, role.Name, role.Description, role.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.AlreadyExists("role", "name", role.Name)
		}
		return fmt.Errorf("update role: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("role", role.ID)
	}
	return nil
}

// Delete removes a role that no user holds.
func (r *RoleRepository) Delete(ctx context.Context, id string) (err error) {
	query := `DELETE FROM roles WHERE id = $1`

	ctx, end := database.TraceQuery(ctx, "DeleteRole", query)
	defer func() { end(err) }()

	ct, err := r.db.Exec(ctx, query, id)
	if err != nil {
		if isForeignKeyViolation(err) {
			return apperrors.Conflict("ROLE_IN_USE", "role is granted to one or more users")
		}
		return fmt.Errorf("delete role: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("role", id)
	}
	return nil
}

// List returns roles matching filter.
func (r *RoleRepository) List(ctx context.Context, filter domain.RoleFilter, page pagination.Params) (roles []domain.Role, total int, err error) {
	where, args := roleWhere(filter)

	countQuery := `SELECT COUNT(*) FROM roles r` + where
	query := selectRole + where + orderBy(page, roleSortColumns, "r.name") +
		fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)

	ctx, end := database.TraceQuery(ctx, "ListRoles", query)
	defer func() { end(err) }()

	if err = r.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count roles: %w", err)
	}

	rows, err := r.db.Query(ctx, query, append(args, page.PerPage, page.Offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("list roles: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var role domain.Role
		if err = rows.Scan(&role.ID, &role.Name, &role.Description); err != nil {
			return nil, 0, fmt.Errorf("scan role: %w", err)
		}
		roles = append(roles, role)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate roles: %w", err)
	}
	return roles, total, nil
}

func scanRole(row pgx.Row) (*domain.Role, error) {
	var role domain.Role
	if err := row.Scan(&role.ID, &role.Name, &role.Description); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("scan role: %w", err)
	}
	return &role, nil
}

func roleWhere(f domain.RoleFilter) (string, []any) {
	if s := strings.TrimSpace(f.Search); s != "" {
		return ` WHERE (r.name ILIKE $1 OR r.description ILIKE $1)`, []any{containsPattern(s)}
	}

	var (
		conds []string
		args  []any
	)
	if s := strings.TrimSpace(f.Name); s != "" {
		args = append(args, containsPattern(s))
		conds = append(conds, fmt.Sprintf("r.name ILIKE $%d", len(args)))
	}
	if s := strings.TrimSpace(f.Description); s != "" {
		args = append(args, containsPattern(s))
		conds = append(conds, fmt.Sprintf("r.description ILIKE $%d", len(args)))
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}
