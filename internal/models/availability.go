package models

import "time"

// AvailabilityStatus captures a teacher's stance towards a slot.
type AvailabilityStatus string

const (
	AvailabilityAvailable   AvailabilityStatus = "AVAILABLE"
	AvailabilityPreferred   AvailabilityStatus = "PREFERRED"
	AvailabilityUnavailable AvailabilityStatus = "UNAVAILABLE"
)

// TeacherAvailability records a per-slot preference for a teacher in a term.
// Absence of a record defaults to AVAILABLE.
type TeacherAvailability struct {
	ID        string             `db:"id" json:"id"`
	TeacherID string             `db:"teacher_id" json:"teacher_id"`
	TermID    string             `db:"term_id" json:"term_id"`
	SlotID    string             `db:"slot_id" json:"slot_id"`
	Status    AvailabilityStatus `db:"status" json:"status"`
	CreatedAt time.Time          `db:"created_at" json:"created_at"`
}

// AvailabilityKey addresses one (teacher, slot) cell of the matrix.
type AvailabilityKey struct {
	TeacherID string
	SlotID    string
}

// AvailabilityMatrix is the solver's view of teacher availability for a term.
type AvailabilityMatrix map[AvailabilityKey]AvailabilityStatus

// StatusFor returns the recorded status for the teacher/slot pair, defaulting
// to AVAILABLE when no record exists.
func (m AvailabilityMatrix) StatusFor(teacherID, slotID string) AvailabilityStatus {
	if m == nil {
		return AvailabilityAvailable
	}
	if status, ok := m[AvailabilityKey{TeacherID: teacherID, SlotID: slotID}]; ok {
		return status
	}
	return AvailabilityAvailable
}
