package models

import "time"

// TeacherAssignment confirms a teacher is authorized to teach a subject to a
// class. Read-only source of truth for the requirement compiler.
type TeacherAssignment struct {
	ID        string    `db:"id" json:"id"`
	TeacherID string    `db:"teacher_id" json:"teacher_id"`
	SubjectID string    `db:"subject_id" json:"subject_id"`
	ClassID   string    `db:"class_id" json:"class_id"`
	TermID    string    `db:"term_id" json:"term_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
