package models

import "time"

// Enrollment registers a student in a subject. Report pivots walk the
// enrollments of a student (report card) or of a subject (course grid).
type Enrollment struct {
	ID         int64      `db:"id" json:"id"`
	StudentID  int64      `db:"student_id" json:"student_id"`
	SubjectID  int64      `db:"subject_id" json:"subject_id"`
	EnrolledOn time.Time  `db:"enrolled_on" json:"enrolled_on"`
	CreatedAt  time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time  `db:"updated_at" json:"updated_at"`
	DeletedAt  *time.Time `db:"deleted_at" json:"-"`
}

// EnrollmentDetail joins an enrollment with its display names.
type EnrollmentDetail struct {
	Enrollment
	StudentName string `db:"student_name" json:"student_name"`
	SubjectName string `db:"subject_name" json:"subject_name"`
}

// EnrollmentFilter captures filtering criteria for listing enrollments.
type EnrollmentFilter struct {
	StudentID int64
	SubjectID int64
	CourseID  int64
	Page      int
	PageSize  int
}
