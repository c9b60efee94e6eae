package models

import "time"

// Class represents an academic class or section.
type Class struct {
	ID         string    `db:"id" json:"id"`
	SchoolID   string    `db:"school_id" json:"school_id"`
	Name       string    `db:"name" json:"name"`
	GradeLevel string    `db:"grade_level" json:"grade_level"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}
