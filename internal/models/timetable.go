package models

import "time"

// TimetableType classifies what a timetable version schedules.
type TimetableType string

const (
	TimetableTypeLesson TimetableType = "LESSON"
	TimetableTypeExam   TimetableType = "EXAM"
	TimetableTypeOther  TimetableType = "OTHER"
)

// TimetableVersionStatus represents lifecycle phases for timetable versions.
type TimetableVersionStatus string

const (
	TimetableVersionStatusDraft     TimetableVersionStatus = "DRAFT"
	TimetableVersionStatusPublished TimetableVersionStatus = "PUBLISHED"
	TimetableVersionStatusArchived  TimetableVersionStatus = "ARCHIVED"
)

// TimetableVersion is a named container for a set of lessons, scoped to one
// term and one timetable type. At most one PUBLISHED version may exist per
// (term, type) at any time.
type TimetableVersion struct {
	ID          string                 `db:"id" json:"id"`
	TermID      string                 `db:"term_id" json:"term_id"`
	Name        string                 `db:"name" json:"name"`
	Type        TimetableType          `db:"type" json:"type"`
	Status      TimetableVersionStatus `db:"status" json:"status"`
	PublishedAt *time.Time             `db:"published_at" json:"published_at,omitempty"`
	CreatedAt   time.Time              `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time              `db:"updated_at" json:"updated_at"`
}

// Lesson is one scheduled occurrence inside a timetable version.
type Lesson struct {
	ID        string    `db:"id" json:"id"`
	VersionID string    `db:"version_id" json:"version_id"`
	SlotID    string    `db:"slot_id" json:"slot_id"`
	ClassID   string    `db:"class_id" json:"class_id"`
	SubjectID string    `db:"subject_id" json:"subject_id"`
	TeacherID string    `db:"teacher_id" json:"teacher_id"`
	VenueID   *string   `db:"venue_id" json:"venue_id,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// VersionWithLessons bundles a version with its full lesson set.
type VersionWithLessons struct {
	TimetableVersion
	Lessons []Lesson `json:"lessons"`
}

// LessonDetail enriches a lesson with slot timing and display names, chosen
// at the query boundary instead of loose joined rows.
type LessonDetail struct {
	Lesson
	DayOfWeek   int     `db:"day_of_week" json:"day_of_week"`
	StartTime   string  `db:"start_time" json:"start_time"`
	EndTime     string  `db:"end_time" json:"end_time"`
	SubjectName string  `db:"subject_name" json:"subject_name"`
	ClassName   string  `db:"class_name" json:"class_name"`
	TeacherName string  `db:"teacher_name" json:"teacher_name"`
	VenueName   *string `db:"venue_name" json:"venue_name,omitempty"`
	VersionName string  `db:"version_name" json:"version_name"`
}

// SlotOccupancy is the minimal projection of a lesson used to seed and check
// solver occupancy: who and what is busy at a slot.
type SlotOccupancy struct {
	SlotID    string  `db:"slot_id" json:"slot_id"`
	TeacherID string  `db:"teacher_id" json:"teacher_id"`
	ClassID   string  `db:"class_id" json:"class_id"`
	VenueID   *string `db:"venue_id" json:"venue_id,omitempty"`
}
