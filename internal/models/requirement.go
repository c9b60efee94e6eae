package models

import "time"

// SubjectRequirement states how many lessons per week a class needs for a
// subject within a term. Unique per (term, class, subject).
type SubjectRequirement struct {
	ID                string    `db:"id" json:"id"`
	TermID            string    `db:"term_id" json:"term_id"`
	ClassID           string    `db:"class_id" json:"class_id"`
	SubjectID         string    `db:"subject_id" json:"subject_id"`
	LessonsPerWeek    int       `db:"lessons_per_week" json:"lessons_per_week"`
	RequiredVenueType *string   `db:"required_venue_type" json:"required_venue_type,omitempty"`
	IsDoublePeriod    bool      `db:"is_double_period" json:"is_double_period"`
	CreatedAt         time.Time `db:"created_at" json:"created_at"`
}
