package models

import "time"

const (
	RoleAdmin = "admin"
	RoleStaff = "staff"
)

func IsValidRole(s string) bool {
	return s == RoleAdmin || s == RoleStaff
}

// User represents a back-office user
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"` // never sent in responses
	FullName     *string   `json:"full_name,omitempty"`
	Role         string    `json:"role"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
