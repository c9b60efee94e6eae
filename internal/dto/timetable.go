package dto

import "time"

// CreateVersionRequest creates a new draft timetable version.
type CreateVersionRequest struct {
	TermID string `json:"termId" validate:"required"`
	Name   string `json:"name" validate:"required,min=1,max=120"`
	Type   string `json:"type" validate:"required,oneof=LESSON EXAM OTHER"`
}

// CloneVersionRequest copies a source version's lessons into a new draft.
type CloneVersionRequest struct {
	Name string `json:"name" validate:"required,min=1,max=120"`
}

// AddLessonRequest places a single lesson into a draft version.
type AddLessonRequest struct {
	SlotID    string  `json:"slotId" validate:"required"`
	ClassID   string  `json:"classId" validate:"required"`
	SubjectID string  `json:"subjectId" validate:"required"`
	TeacherID string  `json:"teacherId" validate:"required"`
	VenueID   *string `json:"venueId,omitempty"`
}

// GenerateTimetableResponse summarises one generation run over a draft.
type GenerateTimetableResponse struct {
	VersionID   string    `json:"versionId"`
	PlacedCount int       `json:"placedCount"`
	TotalCount  int       `json:"totalCount"`
	Score       int       `json:"score"`
	Conflicts   []string  `json:"conflicts"`
	GeneratedAt time.Time `json:"generatedAt"`
}
