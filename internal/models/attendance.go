package models

import "time"

// AbsenceType classifies an absence and weights how many days it costs
// (a late arrival may count as half a day).
type AbsenceType struct {
	ID          int64   `db:"id" json:"id"`
	Description string  `db:"description" json:"description"`
	Weight      float64 `db:"weight" json:"weight"`
}

// Absence is one recorded absence event for a student.
type Absence struct {
	ID        int64     `db:"id" json:"id"`
	StudentID int64     `db:"student_id" json:"student_id"`
	TypeID    int64     `db:"type_id" json:"type_id"`
	Date      time.Time `db:"date" json:"date"`
	Justified bool      `db:"justified" json:"justified"`
	Reason    *string   `db:"reason" json:"reason,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// AbsenceDetail joins an absence with its type description and weight.
type AbsenceDetail struct {
	Absence
	TypeDescription string  `db:"type_description" json:"type_description"`
	TypeWeight      float64 `db:"type_weight" json:"type_weight"`
}

// AttendanceDetail is one line of a student's attendance summary.
type AttendanceDetail struct {
	Date      string  `json:"date"`
	Type      string  `json:"type"`
	Value     float64 `json:"value"`
	Justified bool    `json:"justified"`
	Reason    string  `json:"reason"`
}

// AttendanceSummary aggregates a student's absences. The JSON keys are
// consumed verbatim by the attendance frontend.
type AttendanceSummary struct {
	TotalDaysLost   float64            `json:"totalDaysLost"`
	JustifiedDays   float64            `json:"justifiedDays"`
	DetailedRecords []AttendanceDetail `json:"detailedRecords"`
}

// AbsenceFilter captures filtering criteria for listing absences.
type AbsenceFilter struct {
	StudentID int64
	TypeID    int64
	From      *time.Time
	To        *time.Time
	Page      int
	PageSize  int
}
