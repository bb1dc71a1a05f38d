package model

import "time"

const (
	// RoleUser is the default role assigned at registration.
	RoleUser = "user"
	// RoleAdmin may create, update and delete statues.
	RoleAdmin = "admin"
)

// User represents a registered account.
type User struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	Username     string    `json:"username" gorm:"size:50;uniqueIndex;not null"`
	PasswordHash string    `json:"-" gorm:"column:password;size:255;not null"` // Never expose in JSON
	Role         string    `json:"role" gorm:"size:20;not null;default:'user'"`
	CreatedAt    time.Time `json:"-"`
	UpdatedAt    time.Time `json:"-"`
}

// IsAdmin reports whether the user holds the admin role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
