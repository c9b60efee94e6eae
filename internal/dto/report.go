package dto

// ClashLessonRef identifies a clashing lesson and the version owning it.
type ClashLessonRef struct {
	LessonID    string `json:"lessonId"`
	VersionID   string `json:"versionId"`
	VersionName string `json:"versionName"`
}

// Clash reports a teacher or class double-booked at a slot across the
// published versions of a term.
type Clash struct {
	Dimension  string           `json:"dimension"`
	ResourceID string           `json:"resourceId"`
	SlotID     string           `json:"slotId"`
	Lessons    []ClashLessonRef `json:"lessons"`
}

// LessonIdentity is the identity key used by version comparison.
type LessonIdentity struct {
	ClassID   string  `json:"classId"`
	SubjectID string  `json:"subjectId"`
	TeacherID string  `json:"teacherId"`
	SlotID    string  `json:"slotId"`
	VenueID   *string `json:"venueId,omitempty"`
}

// VersionDiff lists lessons present in one version but not the other.
type VersionDiff struct {
	Added   []LessonIdentity `json:"added"`
	Removed []LessonIdentity `json:"removed"`
}

// FreeSlotFilter narrows the free-slot search. Filters combine with OR
// semantics; with none set every published lesson marks its slot busy.
type FreeSlotFilter struct {
	TeacherID *string `json:"teacherId,omitempty"`
	ClassID   *string `json:"classId,omitempty"`
	VenueID   *string `json:"venueId,omitempty"`
}

// VenueUtilization reports how heavily one venue is booked.
type VenueUtilization struct {
	VenueID        string  `json:"venueId"`
	VenueName      string  `json:"venueName"`
	LessonCount    int     `json:"lessonCount"`
	TotalSlots     int     `json:"totalSlots"`
	UtilizationPct float64 `json:"utilizationPct"`
}

// TeacherWorkload counts lessons taught by one teacher in the published
// timetable of a term.
type TeacherWorkload struct {
	TeacherID     string `json:"teacherId"`
	TeacherName   string `json:"teacherName"`
	LessonCount   int    `json:"lessonCount"`
	DistinctClass int    `json:"distinctClasses"`
}
