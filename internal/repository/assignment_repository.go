package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-timetable-api/internal/models"
)

const assignmentColumns = "id, teacher_id, subject_id, class_id, term_id, created_at"

// AssignmentRepository reads teacher-to-subject-to-class assignments.
type AssignmentRepository struct {
	db *sqlx.DB
}

// NewAssignmentRepository constructs the repository.
func NewAssignmentRepository(db *sqlx.DB) *AssignmentRepository {
	return &AssignmentRepository{db: db}
}

// FindByTermClassSubject loads the assignment for the triple, returning
// sql.ErrNoRows when no teacher covers the subject for that class.
func (r *AssignmentRepository) FindByTermClassSubject(ctx context.Context, termID, classID, subjectID string) (*models.TeacherAssignment, error) {
	query := fmt.Sprintf("SELECT %s FROM teacher_assignments WHERE term_id = $1 AND class_id = $2 AND subject_id = $3", assignmentColumns)
	var assignment models.TeacherAssignment
	if err := r.db.GetContext(ctx, &assignment, query, termID, classID, subjectID); err != nil {
		return nil, err
	}
	return &assignment, nil
}

// CountMatching reports whether a teacher/class/subject triple is assigned in
// the term, used to validate manual lesson placement.
func (r *AssignmentRepository) CountMatching(ctx context.Context, termID, teacherID, classID, subjectID string) (int, error) {
	const query = `SELECT COUNT(*) FROM teacher_assignments WHERE term_id = $1 AND teacher_id = $2 AND class_id = $3 AND subject_id = $4`
	var count int
	if err := r.db.GetContext(ctx, &count, query, termID, teacherID, classID, subjectID); err != nil {
		return 0, fmt.Errorf("count assignments: %w", err)
	}
	return count, nil
}

// ListByTerm returns every assignment of a term.
func (r *AssignmentRepository) ListByTerm(ctx context.Context, termID string) ([]models.TeacherAssignment, error) {
	query := fmt.Sprintf("SELECT %s FROM teacher_assignments WHERE term_id = $1 ORDER BY class_id ASC, subject_id ASC", assignmentColumns)
	var assignments []models.TeacherAssignment
	if err := r.db.SelectContext(ctx, &assignments, query, termID); err != nil {
		return nil, fmt.Errorf("list assignments by term: %w", err)
	}
	return assignments, nil
}
