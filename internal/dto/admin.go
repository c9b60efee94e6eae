package dto

// CreateSlotRequest registers a weekly time window for a school.
type CreateSlotRequest struct {
	SchoolID  string `json:"schoolId" validate:"required"`
	DayOfWeek int    `json:"dayOfWeek" validate:"required,min=1,max=7"`
	StartTime string `json:"startTime" validate:"required"`
	EndTime   string `json:"endTime" validate:"required"`
}

// CreateRequirementRequest declares weekly lesson demand for a class/subject.
type CreateRequirementRequest struct {
	TermID            string  `json:"termId" validate:"required"`
	ClassID           string  `json:"classId" validate:"required"`
	SubjectID         string  `json:"subjectId" validate:"required"`
	LessonsPerWeek    int     `json:"lessonsPerWeek" validate:"required,min=1,max=40"`
	RequiredVenueType *string `json:"requiredVenueType,omitempty"`
	IsDoublePeriod    bool    `json:"isDoublePeriod"`
}

// AvailabilityEntry is one slot preference inside an availability reset.
type AvailabilityEntry struct {
	SlotID string `json:"slotId" validate:"required"`
	Status string `json:"status" validate:"required,oneof=AVAILABLE PREFERRED UNAVAILABLE"`
}

// ResetAvailabilityRequest replaces a teacher's slot preferences for a term.
type ResetAvailabilityRequest struct {
	TeacherID string              `json:"teacherId" validate:"required"`
	TermID    string              `json:"termId" validate:"required"`
	Entries   []AvailabilityEntry `json:"entries" validate:"dive"`
}
