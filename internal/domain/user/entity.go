package user

import (
	"time"

	"github.com/google/uuid"
)

// Role represents user role in the system (matches user_role enum)
type Role string

const (
	RoleGuest Role = "guest"
	RoleHost  Role = "host"
	RoleAdmin Role = "admin"
)

// User is the read model the booking core needs: who someone is and where to mail them.
// Accounts themselves are managed by the identity service.
type User struct {
	ID        uuid.UUID `db:"id"`
	Email     string    `db:"email"`
	Name      string    `db:"name"`
	Role      Role      `db:"role"`
	CreatedAt time.Time `db:"created_at"`
}

// DisplayName falls back to the e-mail when no name is set
func (u *User) DisplayName() string {
	if u.Name != "" {
		return u.Name
	}
	return u.Email
}

// IsValidRole checks if role is one of the known roles
func IsValidRole(role string) bool {
	switch Role(role) {
	case RoleGuest, RoleHost, RoleAdmin:
		return true
	}
	return false
}
