package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-timetable-api/internal/models"
)

const enrollmentColumns = "id, student_id, class_id, academic_year, status, joined_at"

// EnrollmentRepository reads student class enrollments.
type EnrollmentRepository struct {
	db *sqlx.DB
}

// NewEnrollmentRepository constructs the repository.
func NewEnrollmentRepository(db *sqlx.DB) *EnrollmentRepository {
	return &EnrollmentRepository{db: db}
}

// FindActiveByStudent returns the student's most recent active enrollment.
func (r *EnrollmentRepository) FindActiveByStudent(ctx context.Context, studentID string) (*models.Enrollment, error) {
	query := fmt.Sprintf(`SELECT %s FROM enrollments
WHERE student_id = $1 AND status = $2
ORDER BY academic_year DESC, joined_at DESC
LIMIT 1`, enrollmentColumns)
	var enrollment models.Enrollment
	if err := r.db.GetContext(ctx, &enrollment, query, studentID, models.EnrollmentStatusActive); err != nil {
		return nil, err
	}
	return &enrollment, nil
}

// ListActiveByClassIDs returns active enrollments for a set of classes.
func (r *EnrollmentRepository) ListActiveByClassIDs(ctx context.Context, classIDs []string) ([]models.Enrollment, error) {
	if len(classIDs) == 0 {
		return nil, nil
	}
	query, args, err := sqlx.In(
		fmt.Sprintf("SELECT %s FROM enrollments WHERE status = ? AND class_id IN (?)", enrollmentColumns),
		models.EnrollmentStatusActive, classIDs,
	)
	if err != nil {
		return nil, fmt.Errorf("build enrollment query: %w", err)
	}
	query = r.db.Rebind(query)

	var enrollments []models.Enrollment
	if err := r.db.SelectContext(ctx, &enrollments, query, args...); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("list enrollments by class: %w", err)
	}
	return enrollments, nil
}
