package models

import "time"

// Period is a grading period (trimester, semester) within a school year.
type Period struct {
	ID        int64     `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Year      int       `db:"year" json:"year"`
	StartsOn  time.Time `db:"starts_on" json:"starts_on"`
	EndsOn    time.Time `db:"ends_on" json:"ends_on"`
	Active    bool      `db:"active" json:"active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Contains reports whether the given date falls inside the period.
func (p Period) Contains(t time.Time) bool {
	return !t.Before(p.StartsOn) && !t.After(p.EndsOn)
}
