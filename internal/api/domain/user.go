package domain

import "time"

// Role values stored on a user record.
const (
	RoleAdmin  = "ADMIN"
	RoleMember = "MEMBER"
)

type User struct {
	ID              string // ULID
	Name            string
	Email           string     // unique
	PasswordHash    string     // argon2 encoded
	Role            string     // RoleAdmin or RoleMember
	IsActive        bool       // disabled accounts cannot authenticate
	LastLoginAt     *time.Time // nullable, set on successful OTP verify
	EmailVerifiedAt *time.Time // nullable
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// PublicUser is the user snapshot returned to clients. It never carries
// the password hash.
type PublicUser struct {
	ID              string     `json:"id"`
	Name            string     `json:"name"`
	Email           string     `json:"email"`
	Role            string     `json:"role"`
	IsActive        bool       `json:"isActive"`
	LastLoginAt     *time.Time `json:"lastLoginAt,omitempty"`
	EmailVerifiedAt *time.Time `json:"emailVerifiedAt,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`
}

// Public strips credentials from a user for API responses.
func (u *User) Public() PublicUser {
	return PublicUser{
		ID:              u.ID,
		Name:            u.Name,
		Email:           u.Email,
		Role:            u.Role,
		IsActive:        u.IsActive,
		LastLoginAt:     u.LastLoginAt,
		EmailVerifiedAt: u.EmailVerifiedAt,
		CreatedAt:       u.CreatedAt,
	}
}

// ValidRole reports whether role is one of the known role values.
func ValidRole(role string) bool {
	return role == RoleAdmin || role == RoleMember
}
