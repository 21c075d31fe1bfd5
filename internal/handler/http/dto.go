package http

import (
	"time"

	"github.com/vitorbastosbn/nutricionista/internal/domain"
	"github.com/vitorbastosbn/nutricionista/internal/service"
	"github.com/vitorbastosbn/nutricionista/pkg/validator"
)

// --- Request DTOs ---

type addressRequest struct {
	Street       string `json:"street" validate:"required,not_blank,max=200"`
	Number       string `json:"number" validate:"required,not_blank,max=20"`
	Complement   string `json:"complement" validate:"max=100"`
	Neighborhood string `json:"neighborhood" validate:"required,not_blank,max=100"`
	City         string `json:"city" validate:"required,not_blank,max=100"`
	State        string `json:"state" validate:"required,br_uf"`
	ZipCode      string `json:"zip_code" validate:"required,br_zip"`
	Country      string `json:"country" validate:"required,not_blank,max=60"`
}

func (a *addressRequest) toInput() *service.AddressInput {
	if a == nil {
		return nil
	}
	return &service.AddressInput{
		Street:       a.Street,
		Number:       a.Number,
		Complement:   a.Complement,
		Neighborhood: a.Neighborhood,
		City:         a.City,
		State:        a.State,
		ZipCode:      a.ZipCode,
		Country:      a.Country,
	}
}

type contactRequest struct {
	EmergencyContact string `json:"emergency_contact" validate:"omitempty,min=3,max=150"`
	EmergencyPhone   string `json:"emergency_phone" validate:"omitempty,br_phone"`
	PhoneNumber      string `json:"phone_number" validate:"required,br_phone"`
	AlternativePhone string `json:"alternative_phone" validate:"omitempty,br_phone"`
	WhatsApp         bool   `json:"whatsapp"`
}

func (c *contactRequest) toInput() *service.ContactInput {
	if c == nil {
		return nil
	}
	return &service.ContactInput{
		EmergencyContact: c.EmergencyContact,
		EmergencyPhone:   c.EmergencyPhone,
		PhoneNumber:      c.PhoneNumber,
		AlternativePhone: c.AlternativePhone,
		WhatsApp:         c.WhatsApp,
	}
}

// registerContactRequest requires the emergency contact at sign-up.
type registerContactRequest struct {
	EmergencyContact string `json:"emergency_contact" validate:"required,not_blank,min=3,max=150"`
	EmergencyPhone   string `json:"emergency_phone" validate:"required,br_phone"`
	PhoneNumber      string `json:"phone_number" validate:"required,br_phone"`
	AlternativePhone string `json:"alternative_phone" validate:"omitempty,br_phone"`
	WhatsApp         bool   `json:"whatsapp"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type registerRequest struct {
	FullName  string                  `json:"full_name" validate:"required,not_blank,min=3,max=200"`
	BirthDate string                  `json:"birth_date" validate:"required,past_date"`
	Email     string                  `json:"email" validate:"required,email,max=255"`
	Password  string                  `json:"password" validate:"required,min=6,max=100"`
	Address   *addressRequest         `json:"address" validate:"required"`
	Contact   *registerContactRequest `json:"contact" validate:"required"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required,not_blank"`
}

type updateUserRequest struct {
	FullName  string `json:"full_name" validate:"required,not_blank,min=3,max=200"`
	BirthDate string `json:"birth_date" validate:"required,past_date"`
	Email     string `json:"email" validate:"required,email,max=255"`
}

type setRolesRequest struct {
	RoleIDs []string `json:"role_ids" validate:"required,min=1,dive,uuid"`
}

type roleRequest struct {
	Name        string `json:"name" validate:"required,not_blank,min=3,max=50"`
	Description string `json:"description" validate:"max=255"`
}

// parseDate parses a birth_date already checked by past_date.
func parseDate(s string) time.Time {
	d, _ := time.Parse(validator.DateLayout, s)
	return d
}

// --- Response DTOs ---

type roleResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

type userResponse struct {
	ID        string          `json:"id"`
	FullName  string          `json:"full_name"`
	BirthDate string          `json:"birth_date"`
	Email     string          `json:"email"`
	Address   *domain.Address `json:"address"`
	Contact   *domain.Contact `json:"contact"`
	Roles     []roleResponse  `json:"roles"`
}

func newRoleResponse(r domain.Role) roleResponse {
	return roleResponse{ID: r.ID, Name: r.Name, Description: r.Description}
}

func newUserResponse(u *domain.User) userResponse {
	roles := make([]roleResponse, 0, len(u.Roles))
	for _, r := range u.Roles {
		roles = append(roles, newRoleResponse(r))
	}
	resp := userResponse{
		ID:       u.ID,
		FullName: u.FullName,
		Email:    u.Email,
		Address:  u.Address,
		Contact:  u.Contact,
		Roles:    roles,
	}
	if !u.BirthDate.IsZero() {
		resp.BirthDate = u.BirthDate.Format(validator.DateLayout)
	}
	return resp
}
