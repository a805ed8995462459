package models

import "time"

// Role represents the application-level roles carried in access tokens.
type Role string

const (
	RoleSystemAdmin Role = "SYSTEM_ADMIN"
	RoleTeacherApp  Role = "TEACHER_APP"
	RoleStudentApp  Role = "STUDENT_APP"
)

// Valid reports whether the role is one of the supported values.
func (r Role) Valid() bool {
	switch r {
	case RoleSystemAdmin, RoleTeacherApp, RoleStudentApp:
		return true
	default:
		return false
	}
}

// User represents an application account stored in the users table.
// PersonID links the account to a person record (student, teacher, staff);
// it is nil for pure administrative accounts.
type User struct {
	ID            int64     `db:"id" json:"id"`
	PersonID      *int64    `db:"person_id" json:"person_id,omitempty"`
	Username      string    `db:"username" json:"username"`
	Email         string    `db:"email" json:"email"`
	PasswordHash  string    `db:"password_hash" json:"-"`
	Role          Role      `db:"role" json:"role"`
	EmailVerified bool      `db:"email_verified" json:"email_verified"`
	ResetToken    *string   `db:"reset_token" json:"-"`
	Active        bool      `db:"active" json:"active"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

// UserFilter captures filtering criteria for listing users.
type UserFilter struct {
	Role      *Role
	Active    *bool
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
