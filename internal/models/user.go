package models

import (
	"time"

	"gorm.io/gorm"
)

// Role determines a user's permission level.
type Role string

const (
	RoleAdmin     Role = "admin"
	RoleUser      Role = "user"
	RoleModerator Role = "moderator"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleUser, RoleModerator:
		return true
	}
	return false
}

// User represents a user of the catalog. Username and email carry unique
// indexes; the service-level pre-check only exists for friendlier errors.
type User struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Username  string    `json:"username" gorm:"uniqueIndex;type:varchar(50);not null" validate:"required,min=3,max=50"`
	Email     string    `json:"email" gorm:"uniqueIndex;type:varchar(255);not null" validate:"required,email"`
	FullName  *string   `json:"full_name" gorm:"type:varchar(100)" validate:"omitempty,max=100"`
	Role      Role      `json:"role" gorm:"type:varchar(20)" validate:"omitempty,oneof=admin user moderator"`
	IsActive  *bool     `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Normalize applies defaults for fields absent in older records:
// role -> user, is_active -> true.
func (u *User) Normalize() {
	if u.Role == "" {
		u.Role = RoleUser
	}
	if u.IsActive == nil {
		active := true
		u.IsActive = &active
	}
}

// AfterFind runs Normalize once at the deserialization boundary.
func (u *User) AfterFind(*gorm.DB) error {
	u.Normalize()
	return nil
}

// UserFilter describes the optional constraints of a user listing.
type UserFilter struct {
	Role     Role
	IsActive *bool
}

// Matches reports whether user satisfies every present constraint.
func (f UserFilter) Matches(user User) bool {
	if f.Role != "" && user.Role != f.Role {
		return false
	}
	if f.IsActive != nil {
		active := user.IsActive == nil || *user.IsActive
		if active != *f.IsActive {
			return false
		}
	}
	return true
}
