package models

import "time"

// GradeType is a grading column (first exam, recovery, final, ...). The
// ordering of IDs drives the column ordering in reports.
type GradeType struct {
	ID    int64  `db:"id" json:"id"`
	Label string `db:"label" json:"label"`
}

// GradeEntry is one recorded score. At most one entry exists per
// (student, subject, grade type) triple; writes for an existing triple
// overwrite the score in place.
type GradeEntry struct {
	ID          int64     `db:"id" json:"id"`
	StudentID   int64     `db:"student_id" json:"student_id"`
	SubjectID   int64     `db:"subject_id" json:"subject_id"`
	GradeTypeID int64     `db:"grade_type_id" json:"grade_type_id"`
	PeriodID    *int64    `db:"period_id" json:"period_id,omitempty"`
	Score       float64   `db:"score" json:"score"`
	RecordedBy  int64     `db:"recorded_by" json:"recorded_by"`
	RecordedOn  time.Time `db:"recorded_on" json:"recorded_on"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// GradeEntryDetail joins a grade entry with its display labels.
type GradeEntryDetail struct {
	GradeEntry
	StudentName    string `db:"student_name" json:"student_name"`
	SubjectName    string `db:"subject_name" json:"subject_name"`
	GradeTypeLabel string `db:"grade_type_label" json:"grade_type_label"`
}

// GradeFilter captures filtering criteria for listing grade entries.
type GradeFilter struct {
	StudentID   int64
	SubjectID   int64
	CourseID    int64
	GradeTypeID int64
	PeriodID    int64
	Page        int
	PageSize    int
}
