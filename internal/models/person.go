package models

import (
	"strings"
	"time"
)

// PersonKind classifies a person record.
type PersonKind string

const (
	PersonKindStudent PersonKind = "STUDENT"
	PersonKindTeacher PersonKind = "TEACHER"
	PersonKindStaff   PersonKind = "STAFF"
)

// Person is the unified people table holding students, teachers and staff.
type Person struct {
	ID           int64      `db:"id" json:"id"`
	Kind         PersonKind `db:"kind" json:"kind"`
	FirstName    string     `db:"first_name" json:"first_name"`
	LastName     string     `db:"last_name" json:"last_name"`
	DocumentID   string     `db:"document_id" json:"document_id"`
	BirthDate    *time.Time `db:"birth_date" json:"birth_date,omitempty"`
	Email        *string    `db:"email" json:"email,omitempty"`
	Address      *string    `db:"address" json:"address,omitempty"`
	Phone        *string    `db:"phone" json:"phone,omitempty"`
	City         string     `db:"city" json:"city"`
	Nationality  string     `db:"nationality" json:"nationality"`
	RegisterCode *string    `db:"register_code" json:"register_code,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
	DeletedAt    *time.Time `db:"deleted_at" json:"-"`
}

// FullName renders the display name used across reports ("Last, First").
func (p Person) FullName() string {
	return strings.TrimSpace(strings.TrimSuffix(p.LastName+", "+p.FirstName, ", "))
}

// PersonFilter encapsulates search parameters for listing people.
type PersonFilter struct {
	Kind      PersonKind
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
