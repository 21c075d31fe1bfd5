package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/vitorbastosbn/nutricionista/internal/domain"
	"github.com/vitorbastosbn/nutricionista/pkg/database"
	apperrors "github.com/vitorbastosbn/nutricionista/pkg/errors"
	"github.com/vitorbastosbn/nutricionista/pkg/pagination"
)

const selectUser = `
		SELECT u.id, u.full_name, u.birth_date, u.email, u.password_hash, u.created_at, u.updated_at,
		       a.id, a.street, a.number, a.complement, a.neighborhood, a.city, a.state, a.zip_code, a.country,
		       c.id, c.emergency_contact, c.emergency_phone, c.phone_number, c.alternative_phone, c.whatsapp
		FROM users u
		LEFT JOIN addresses a ON a.id = u.address_id
		LEFT JOIN contacts c ON c.id = u.contact_id`

const selectUserRoles = `
		SELECT ur.user_id, r.id, r.name, COALESCE(r.description, '')
		FROM user_roles ur
		JOIN roles r ON r.id = ur.role_id
		WHERE ur.user_id = ANY($1)
		ORDER BY r.name`

const upsertAddress = `
		INSERT INTO addresses (id, street, number, complement, neighborhood, city, state, zip_code, country)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
		    street = EXCLUDED.street, number = EXCLUDED.number, complement = EXCLUDED.complement,
		    neighborhood = EXCLUDED.neighborhood, city = EXCLUDED.city, state = EXCLUDED.state,
		    zip_code = EXCLUDED.zip_code, country = EXCLUDED.country`

const upsertContact = `
		INSERT INTO contacts (id, emergency_contact, emergency_phone, phone_number, alternative_phone, whatsapp)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
		    emergency_contact = EXCLUDED.emergency_contact, emergency_phone = EXCLUDED.emergency_phone,
		    phone_number = EXCLUDED.phone_number, alternative_phone = EXCLUDED.alternative_phone,
		    whatsapp = EXCLUDED.whatsapp`

var userSortColumns = map[string]string{
	"full_name":  "u.full_name",
	"email":      "u.email",
	"birth_date": "u.birth_date",
	"created_at": "u.created_at",
}

// UserRepository implements repository.UserRepository using PostgreSQL.
type UserRepository struct {
	db database.DBTX
}

// NewUserRepository creates a new PostgreSQL-backed user repository.
func NewUserRepository(db database.DBTX) *UserRepository {
	return &UserRepository{db: db}
}

// Create inserts the user, its address and contact, and its role grants.
// IDs must already be assigned.
func (r *UserRepository) Create(ctx context.Context, u *domain.User) (err error) {
	query := `
		INSERT INTO users (id, full_name, birth_date, email, password_hash, address_id, contact_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	ctx, end := database.TraceQuery(ctx, "CreateUser", query)
	defer func() { end(err) }()

	now := time.Now().UTC()
	u.CreatedAt, u.UpdatedAt = now, now

	err = database.InTx(ctx, r.db, func(tx pgx.Tx) error {
		if err := saveAddress(ctx, tx, u.Address); err != nil {
			return err
		}
		if err := saveContact(ctx, tx, u.Contact); err != nil {
			return err
		}

		if _, err := tx.Exec(ctx, query,
			u.ID,
			u.FullName,
			u.BirthDate,
			u.Email,
			u.PasswordHash,
			addressID(u.Address),
			contactID(u.Contact),
			u.CreatedAt,
			u.UpdatedAt,
		); err != nil {
			if isUniqueViolation(err) {
				return apperrors.AlreadyExists("user", "email", u.Email)
			}
			return fmt.Errorf("insert user: %w", err)
		}

		roleIDs := make([]string, 0, len(u.Roles))
		for _, role := range u.Roles {
			roleIDs = append(roleIDs, role.ID)
		}
		return insertUserRoles(ctx, tx, u.ID, roleIDs)
	})
	return err
}

// GetByID retrieves a user by ID.
func (r *UserRepository) GetByID(ctx context.Context, id string) (u *domain.User, err error) {
	query := selectUser + `
		WHERE u.id = $1`

	ctx, end := database.TraceQuery(ctx, "GetUserByID", query)
	defer func() { end(err) }()

	return r.getOne(ctx, query, id)
}

// GetByEmail retrieves a user by email address.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (u *domain.User, err error) {
	query := selectUser + `
		WHERE u.email = $1`

	ctx, end := database.TraceQuery(ctx, "GetUserByEmail", query)
	defer func() { end(err) }()

	return r.getOne(ctx, query, email)
}

// ExistsByEmail reports whether a user with email exists.
func (r *UserRepository) ExistsByEmail(ctx context.Context, email string) (exists bool, err error) {
	query := `SELECT EXISTS(SELECT 1 FROM users WHERE email = $1)`

	ctx, end := database.TraceQuery(ctx, "ExistsUserByEmail", query)
	defer func() { end(err) }()

	if err = r.db.QueryRow(ctx, query, email).Scan(&exists); err != nil {
		return false, fmt.Errorf("check user email: %w", err)
	}
	return exists, nil
}

// Update saves the profile fields and upserts the address and contact.
func (r *UserRepository) Update(ctx context.Context, u *domain.User) (err error) {
	query := `
		UPDATE users
		SET full_name = $1, birth_date = $2, email = $3, password_hash = $4,
		    address_id = $5, contact_id = $6, updated_at = $7
		WHERE id = $8`

	ctx, end := database.TraceQuery(ctx, "UpdateUser", query)
	defer func() { end(err) }()

	u.UpdatedAt = time.Now().UTC()

	err = database.InTx(ctx, r.db, func(tx pgx.Tx) error {
		if err := saveAddress(ctx, tx, u.Address); err != nil {
			return err
		}
		if err := saveContact(ctx, tx, u.Contact); err != nil {
			return err
		}

		ct, err := tx.Exec(ctx, query,
			u.FullName,
			u.BirthDate,
			u.Email,
			u.PasswordHash,
			addressID(u.Address),
			contactID(u.Contact),
			u.UpdatedAt,
			u.ID,
		)
		if err != nil {
			if isUniqueViolation(err) {
				return apperrors.AlreadyExists("user", "email", u.Email)
			}
			return fmt.Errorf("update user: %w", err)
		}
		if ct.RowsAffected() == 0 {
			return apperrors.NotFound("user", u.ID)
		}
		return nil
	})
	return err
}

// Delete removes the user. Role grants cascade; the address and contact rows
// are removed explicitly since they are referenced from users.
func (r *UserRepository) Delete(ctx context.Context, id string) (err error) {
	query := `DELETE FROM users WHERE id = $1 RETURNING address_id, contact_id`

	ctx, end := database.TraceQuery(ctx, "DeleteUser", query)
	defer func() { end(err) }()

	err = database.InTx(ctx, r.db, func(tx pgx.Tx) error {
		var addrID, contID *string
		if err := tx.QueryRow(ctx, query, id).Scan(&addrID, &contID); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return apperrors.NotFound("user", id)
			}
			return fmt.Errorf("delete user: %w", err)
		}
		if addrID != nil {
			if _, err := tx.Exec(ctx, `DELETE FROM addresses WHERE id = $1`, *addrID); err != nil {
				return fmt.Errorf("delete address: %w", err)
			}
		}
		if contID != nil {
			if _, err := tx.Exec(ctx, `DELETE FROM contacts WHERE id = $1`, *contID); err != nil {
				return fmt.Errorf("delete contact: %w", err)
			}
		}
		return nil
	})
	return err
}

// List returns users matching filter, ordered and paged by page.
func (r *UserRepository) List(ctx context.Context, filter domain.UserFilter, page pagination.Params) (users []domain.User, total int, err error) {
	where, args := userWhere(filter)

	countQuery := `SELECT COUNT(*) FROM users u` + where
	query := selectUser + where + orderBy(page, userSortColumns, "u.full_name") +
		fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)

	ctx, end := database.TraceQuery(ctx, "ListUsers", query)
	defer func() { end(err) }()

	if err = r.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}

	rows, err := r.db.Query(ctx, query, append(args, page.PerPage, page.Offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, err
		}
		users = append(users, *u)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate users: %w", err)
	}

	if err = r.loadRoles(ctx, users); err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

// AddRole grants a role. An existing grant is left as is.
func (r *UserRepository) AddRole(ctx context.Context, userID, roleID string) (err error) {
	query := `INSERT INTO user_roles (user_id, role_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`

	ctx, end := database.TraceQuery(ctx, "AddUserRole", query)
	defer func() { end(err) }()

	if _, err = r.db.Exec(ctx, query, userID, roleID); err != nil {
		if isForeignKeyViolation(err) {
			return apperrors.NotFound("role", roleID)
		}
		return fmt.Errorf("add user role: %w", err)
	}
	return nil
}

// RemoveRole revokes a role grant.
func (r *UserRepository) RemoveRole(ctx context.Context, userID, roleID string) (err error) {
	query := `DELETE FROM user_roles WHERE user_id = $1 AND role_id = $2`

	ctx, end := database.TraceQuery(ctx, "RemoveUserRole", query)
	defer func() { end(err) }()

	if _, err = r.db.Exec(ctx, query, userID, roleID); err != nil {
		return fmt.Errorf("remove user role: %w", err)
	}
	return nil
}

// SetRoles replaces all of the user's grants with roleIDs.
func (r *UserRepository) SetRoles(ctx context.Context, userID string, roleIDs []string) (err error) {
	query := `DELETE FROM user_roles WHERE user_id = $1`

	ctx, end := database.TraceQuery(ctx, "SetUserRoles", query)
	defer func() { end(err) }()

	err = database.InTx(ctx, r.db, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, query, userID); err != nil {
			return fmt.Errorf("clear user roles: %w", err)
		}
		return insertUserRoles(ctx, tx, userID, roleIDs)
	})
	return err
}

func (r *UserRepository) getOne(ctx context.Context, query string, arg string) (*domain.User, error) {
	rows, err := r.db.Query(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("query user: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("query user: %w", err)
		}
		return nil, apperrors.ErrNotFound
	}
	u, err := scanUser(rows)
	if err != nil {
		return nil, err
	}
	rows.Close()

	users := []domain.User{*u}
	if err := r.loadRoles(ctx, users); err != nil {
		return nil, err
	}
	return &users[0], nil
}

// loadRoles fills Roles for every user with a single query.
func (r *UserRepository) loadRoles(ctx context.Context, users []domain.User) error {
	if len(users) == 0 {
		return nil
	}

	index := make(map[string]int, len(users))
	ids := make([]string, 0, len(users))
	for i := range users {
		index[users[i].ID] = i
		ids = append(ids, users[i].ID)
		users[i].Roles = []domain.Role{}
	}

	rows, err := r.db.Query(ctx, selectUserRoles, ids)
	if err != nil {
		return fmt.Errorf("query user roles: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var userID string
		var role domain.Role
		if err := rows.Scan(&userID, &role.ID, &role.Name, &role.Description); err != nil {
			return fmt.Errorf("scan user role: %w", err)
		}
		if i, ok := index[userID]; ok {
			users[i].Roles = append(users[i].Roles, role)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate user roles: %w", err)
	}
	return nil
}

// nullableAddress and nullableContact receive LEFT JOIN columns.
type nullableAddress struct {
	ID, Street, Number, Complement, Neighborhood, City, State, ZipCode, Country *string
}

type nullableContact struct {
	ID, EmergencyContact, EmergencyPhone, PhoneNumber, AlternativePhone *string
	WhatsApp                                                            *bool
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var (
		u domain.User
		a nullableAddress
		c nullableContact
	)

	err := row.Scan(
		&u.ID, &u.FullName, &u.BirthDate, &u.Email, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt,
		&a.ID, &a.Street, &a.Number, &a.Complement, &a.Neighborhood, &a.City, &a.State, &a.ZipCode, &a.Country,
		&c.ID, &c.EmergencyContact, &c.EmergencyPhone, &c.PhoneNumber, &c.AlternativePhone, &c.WhatsApp,
	)
	if err != nil {
		return nil, fmt.Errorf("scan user: %w", err)
	}

	if a.ID != nil {
		u.Address = &domain.Address{
			ID:           *a.ID,
			Street:       deref(a.Street),
			Number:       deref(a.Number),
			Complement:   deref(a.Complement),
			Neighborhood: deref(a.Neighborhood),
			City:         deref(a.City),
			State:        deref(a.State),
			ZipCode:      deref(a.ZipCode),
			Country:      deref(a.Country),
		}
	}
	if c.ID != nil {
		u.Contact = &domain.Contact{
			ID:               *c.ID,
			EmergencyContact: deref(c.EmergencyContact),
			EmergencyPhone:   deref(c.EmergencyPhone),
			PhoneNumber:      deref(c.PhoneNumber),
			AlternativePhone: deref(c.AlternativePhone),
			WhatsApp:         c.WhatsApp != nil && *c.WhatsApp,
		}
	}
	return &u, nil
}

func saveAddress(ctx context.Context, tx pgx.Tx, a *domain.Address) error {
	if a == nil {
		return nil
	}
	_, err := tx.Exec(ctx, upsertAddress,
		a.ID, a.Street, a.Number, a.Complement, a.Neighborhood, a.City, a.State, a.ZipCode, a.Country,
	)
	if err != nil {
		return fmt.Errorf("save address: %w", err)
	}
	return nil
}

func saveContact(ctx context.Context, tx pgx.Tx, c *domain.Contact) error {
	if c == nil {
		return nil
	}
	_, err := tx.Exec(ctx, upsertContact,
		c.ID, c.EmergencyContact, c.EmergencyPhone, c.PhoneNumber, c.AlternativePhone, c.WhatsApp,
	)
	if err != nil {
		return fmt.Errorf("save contact: %w", err)
	}
	return nil
}

func insertUserRoles(ctx context.Context, tx pgx.Tx, userID string, roleIDs []string) error {
	if len(roleIDs) == 0 {
		return nil
	}
	query := `INSERT INTO user_roles (user_id, role_id) SELECT $1, unnest($2::uuid[])`
	if _, err := tx.Exec(ctx, query, userID, roleIDs); err != nil {
		if isForeignKeyViolation(err) {
			return apperrors.NotFound("role", strings.Join(roleIDs, ","))
		}
		return fmt.Errorf("insert user roles: %w", err)
	}
	return nil
}

func userWhere(f domain.UserFilter) (string, []any) {
	if s := strings.TrimSpace(f.Search); s != "" {
		return ` WHERE (u.full_name ILIKE $1 OR u.email ILIKE $1)`, []any{containsPattern(s)}
	}

	var (
		conds []string
		args  []any
	)
	if s := strings.TrimSpace(f.FullName); s != "" {
		args = append(args, containsPattern(s))
		conds = append(conds, fmt.Sprintf("u.full_name ILIKE $%d", len(args)))
	}
	if s := strings.TrimSpace(f.Email); s != "" {
		args = append(args, containsPattern(s))
		conds = append(conds, fmt.Sprintf("u.email ILIKE $%d", len(args)))
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func addressID(a *domain.Address) *string {
	if a == nil {
		return nil
	}
	return &a.ID
}

func contactID(c *domain.Contact) *string {
	if c == nil {
		return nil
	}
	return &c.ID
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
