package models

import "time"

// Cycle is an academic cycle (e.g. basic, intermediate, superior).
type Cycle struct {
	ID          int64     `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Description *string   `db:"description" json:"description,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// Course is a group of students within a cycle (year + division).
type Course struct {
	ID        int64      `db:"id" json:"id"`
	CycleID   int64      `db:"cycle_id" json:"cycle_id"`
	Year      int        `db:"year" json:"year"`
	Division  string     `db:"division" json:"division"`
	Shift     string     `db:"shift" json:"shift"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt time.Time  `db:"updated_at" json:"updated_at"`
	DeletedAt *time.Time `db:"deleted_at" json:"-"`
}

// CourseDetail joins the course with its cycle name for listings.
type CourseDetail struct {
	Course
	CycleName string `db:"cycle_name" json:"cycle_name"`
}

// CourseFilter captures filtering criteria for listing courses.
type CourseFilter struct {
	CycleID   int64
	Year      int
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
