package domain

import "time"

// Role enumerates account roles. SUPPORT and ADMIN are elevated: they
// grant cross-user visibility over tickets.
type Role string

const (
	RoleCustomer Role = "CUSTOMER"
	RoleSupport  Role = "SUPPORT"
	RoleAdmin    Role = "ADMIN"
)

// IsElevated reports whether the role grants access to tickets of other users.
func IsElevated(role Role) bool {
	return role == RoleSupport || role == RoleAdmin
}

// UserStatus represents lifecycle states for an account.
type UserStatus string

const (
	UserStatusActive    UserStatus = "ACTIVE"
	UserStatusSuspended UserStatus = "SUSPENDED"
)

// User is the domain model for platform accounts, both guests who submit
// tickets and support representatives who handle them.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Role         Role
	Status       UserStatus
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
