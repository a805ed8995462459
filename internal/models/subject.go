package models

import "time"

// Subject is a course's teaching unit, optionally assigned to a teacher.
type Subject struct {
	ID        int64      `db:"id" json:"id"`
	Name      string     `db:"name" json:"name"`
	CourseID  int64      `db:"course_id" json:"course_id"`
	TeacherID *int64     `db:"teacher_id" json:"teacher_id,omitempty"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt time.Time  `db:"updated_at" json:"updated_at"`
	DeletedAt *time.Time `db:"deleted_at" json:"-"`
}

// SubjectDetail joins the subject with its course and teacher display names.
type SubjectDetail struct {
	Subject
	CourseYear     int     `db:"course_year" json:"course_year"`
	CourseDivision string  `db:"course_division" json:"course_division"`
	TeacherName    *string `db:"teacher_name" json:"teacher_name,omitempty"`
}

// SubjectFilter captures filtering criteria for listing subjects.
type SubjectFilter struct {
	CourseID  int64
	TeacherID int64
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
