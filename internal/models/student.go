package models

import "time"

// Student represents a learner registered in the institution.
type Student struct {
	ID        string    `db:"id" json:"id"`
	UserID    *string   `db:"user_id" json:"user_id,omitempty"`
	FullName  string    `db:"full_name" json:"full_name"`
	Active    bool      `db:"active" json:"active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// EnrollmentStatus represents the lifecycle of an enrollment.
type EnrollmentStatus string

// Possible enrollment statuses.
const (
	EnrollmentStatusActive      EnrollmentStatus = "ACTIVE"
	EnrollmentStatusTransferred EnrollmentStatus = "TRANSFERRED"
	EnrollmentStatusLeft        EnrollmentStatus = "LEFT"
)

// Enrollment captures a student's registration to a class.
type Enrollment struct {
	ID           string           `db:"id" json:"id"`
	StudentID    string           `db:"student_id" json:"student_id"`
	ClassID      string           `db:"class_id" json:"class_id"`
	AcademicYear string           `db:"academic_year" json:"academic_year"`
	Status       EnrollmentStatus `db:"status" json:"status"`
	JoinedAt     time.Time        `db:"joined_at" json:"joined_at"`
}

// GuardianLink ties a guardian user to one of their children.
type GuardianLink struct {
	ID             string    `db:"id" json:"id"`
	GuardianUserID string    `db:"guardian_user_id" json:"guardian_user_id"`
	StudentID      string    `db:"student_id" json:"student_id"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}
