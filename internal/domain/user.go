package domain

import "time"

// User is an identity: credentials, profile and granted roles.
type User struct {
	ID           string    `json:"id"`
	FullName     string    `json:"full_name"`
	BirthDate    time.Time `json:"-"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Address      *Address  `json:"address,omitempty"`
	Contact      *Contact  `json:"contact,omitempty"`
	Roles        []Role    `json:"roles"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// RoleNames returns the names of the user's roles in their stored order.
func (u *User) RoleNames() []string {
	names := make([]string, 0, len(u.Roles))
	for _, r := range u.Roles {
		names = append(names, r.Name)
	}
	return names
}

// HasRole reports whether the user holds the role with roleID.
func (u *User) HasRole(roleID string) bool {
	for _, r := range u.Roles {
		if r.ID == roleID {
			return true
		}
	}
	return false
}

// UserFilter narrows ListUsers. Matching is a case-insensitive substring.
// Search matches full name or email and takes precedence over the others.
type UserFilter struct {
	FullName string
	Email    string
	Search   string
}

// UserSortFields are the fields ListUsers can order by.
var UserSortFields = []string{"full_name", "email", "birth_date", "created_at"}

// Address is a postal address in Brazil.
type Address struct {
	ID           string `json:"id"`
	Street       string `json:"street"`
	Number       string `json:"number"`
	Complement   string `json:"complement,omitempty"`
	Neighborhood string `json:"neighborhood"`
	City         string `json:"city"`
	State        string `json:"state"`
	ZipCode      string `json:"zip_code"`
	Country      string `json:"country"`
}

// Contact holds the user's phone numbers.
type Contact struct {
	ID               string `json:"id"`
	EmergencyContact string `json:"emergency_contact,omitempty"`
	EmergencyPhone   string `json:"emergency_phone,omitempty"`
	PhoneNumber      string `json:"phone_number"`
	AlternativePhone string `json:"alternative_phone,omitempty"`
	WhatsApp         bool   `json:"whatsapp"`
}
