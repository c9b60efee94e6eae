package dto

// LessonView is a display-friendly lesson projection for personal schedules.
type LessonView struct {
	LessonID    string  `json:"lessonId"`
	DayOfWeek   int     `json:"dayOfWeek"`
	StartTime   string  `json:"startTime"`
	EndTime     string  `json:"endTime"`
	SubjectName string  `json:"subjectName"`
	ClassName   string  `json:"className"`
	TeacherName string  `json:"teacherName"`
	VenueName   *string `json:"venueName,omitempty"`
}

// ChildSchedule is a child's published schedule for a guardian view.
type ChildSchedule struct {
	StudentID   string       `json:"studentId"`
	StudentName string       `json:"studentName"`
	Lessons     []LessonView `json:"lessons"`
}

// PersonalTimetableResponse contains the published schedules applicable to a
// user's roles. Sections for roles the user holds are always present, even
// when empty.
type PersonalTimetableResponse struct {
	UserID            string          `json:"userId"`
	TermID            string          `json:"termId"`
	TeacherSchedule   []LessonView    `json:"teacher_schedule,omitempty"`
	StudentSchedule   []LessonView    `json:"student_schedule,omitempty"`
	ChildrenSchedules []ChildSchedule `json:"children_schedules,omitempty"`
	HasTeacherRole    bool            `json:"hasTeacherRole"`
	HasStudentRole    bool            `json:"hasStudentRole"`
	HasParentRole     bool            `json:"hasParentRole"`
}
