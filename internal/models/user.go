package models

import "time"

// UserRole represents the available roles for the RBAC system.
type UserRole string

const (
	RoleAdmin     UserRole = "ADMIN"
	RoleGestor    UserRole = "GESTOR"
	RoleSubgestor UserRole = "SUBGESTOR"
	RolePedagogo  UserRole = "PEDAGOGO"
	RoleProfessor UserRole = "PROFESSOR"
)

// Valid reports whether r is a known role.
func (r UserRole) Valid() bool {
	switch r {
	case RoleAdmin, RoleGestor, RoleSubgestor, RolePedagogo, RoleProfessor:
		return true
	}
	return false
}

// User represents an application user stored in the users table.
type User struct {
	ID           string     `db:"id" json:"id"`
	Email        string     `db:"email" json:"email"`
	PasswordHash string     `db:"password_hash" json:"-"`
	FullName     string     `db:"full_name" json:"full_name"`
	Active       bool       `db:"active" json:"active"`
	LastLogin    *time.Time `db:"last_login" json:"last_login,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
}

// SchoolMembership grants a user a role inside one school.
type SchoolMembership struct {
	UserID     string   `db:"user_id" json:"user_id"`
	SchoolID   string   `db:"school_id" json:"school_id"`
	SchoolName string   `db:"school_name" json:"school_name"`
	Role       UserRole `db:"role" json:"role"`
	IsDefault  bool     `db:"is_default" json:"is_default"`
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
