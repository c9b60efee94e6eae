package models

import "time"

// Term models an academic term within the institution calendar.
type Term struct {
	ID           string    `db:"id" json:"id"`
	Name         string    `db:"name" json:"name"`
	AcademicYear string    `db:"academic_year" json:"academic_year"`
	SchoolID     string    `db:"school_id" json:"school_id"`
	StartDate    time.Time `db:"start_date" json:"start_date"`
	EndDate      time.Time `db:"end_date" json:"end_date"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}
