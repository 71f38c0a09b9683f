package domain

import "strings"

// Role is the closed set of account roles the backend issues.
type Role string

const (
	RoleAdmin      Role = "admin"
	RoleManager    Role = "manager"
	RoleSupervisor Role = "supervisor"
)

// Roles lists every valid role in menu order.
var Roles = []Role{RoleAdmin, RoleManager, RoleSupervisor}

// ParseRole converts a backend role string. Unknown values return an invalid Role and false.
func ParseRole(s string) (Role, bool) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	return r, r.Valid()
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleManager, RoleSupervisor:
		return true
	}
	return false
}

// Label returns the display name used in menus and tables.
func (r Role) Label() string {
	switch r {
	case RoleAdmin:
		return "Administrador"
	case RoleManager:
		return "Gerente"
	case RoleSupervisor:
		return "Supervisor"
	default:
		return "Desconhecido"
	}
}

// Status is the account status reported by the backend. It is display-only on the client.
type Status string

const (
	StatusActive    Status = "ativo"
	StatusInactive  Status = "inativo"
	StatusSuspended Status = "suspenso"
)

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusActive, StatusInactive, StatusSuspended:
		return true
	}
	return false
}

// User is the authenticated account as persisted under the "user" storage key.
type User struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Role      Role   `json:"role"`
	Status    Status `json:"status,omitempty"`
	AvatarURL string `json:"avatarUrl,omitempty"`
}

// UserPatch carries the profile fields a caller wants to change. Nil fields are left untouched.
type UserPatch struct {
	Name      *string `json:"name,omitempty" validate:"omitempty,min=2,max=120"`
	Email     *string `json:"email,omitempty" validate:"omitempty,email"`
	AvatarURL *string `json:"avatarUrl,omitempty"`
}

// Apply returns a copy of u with the patch merged in.
func (p UserPatch) Apply(u User) User {
	if p.Name != nil {
		u.Name = *p.Name
	}
	if p.Email != nil {
		u.Email = *p.Email
	}
	if p.AvatarURL != nil {
		u.AvatarURL = *p.AvatarURL
	}
	return u
}

// Confirm returns the patch with each set field replaced by the value the server stored
// for it. Fields the server left empty keep the requested value.
func (p UserPatch) Confirm(stored User) UserPatch {
	pick := func(requested *string, got string) *string {
		if requested == nil || got == "" {
			return requested
		}
		return &got
	}
	return UserPatch{
		Name:      pick(p.Name, stored.Name),
		Email:     pick(p.Email, stored.Email),
		AvatarURL: pick(p.AvatarURL, stored.AvatarURL),
	}
}

// Credentials are the email/password pair used once for a login call. Password rules are
// the server's to enforce.
type Credentials struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Registration is the payload of POST /auth/register.
type Registration struct {
	Username string `json:"username" validate:"required,username"`
	Email    string `json:"email" validate:"required,email"`
	Phone    string `json:"phone" validate:"required,phone"`
	Password string `json:"password" validate:"required,min=6"`
	ConfPass string `json:"confpass" validate:"required,eqfield=Password"`
}

// PasswordUpdate exchanges a reset token for a new password.
type PasswordUpdate struct {
	Token       string `json:"token" validate:"required"`
	NewPassword string `json:"newPassword" validate:"required,min=6"`
}
