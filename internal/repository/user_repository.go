package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-timetable-api/internal/models"
)

const userColumns = "id, email, full_name, role, active, created_at, updated_at"

// UserRepository resolves users and their linked teacher, student and
// guardian profiles.
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository constructs the repository.
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

// FindByID loads a user by id.
func (r *UserRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	query := fmt.Sprintf("SELECT %s FROM users WHERE id = $1", userColumns)
	var user models.User
	if err := r.db.GetContext(ctx, &user, query, id); err != nil {
		return nil, err
	}
	return &user, nil
}

// FindTeacherByUserID loads the teacher profile linked to a user, returning
// sql.ErrNoRows when the user has none.
func (r *UserRepository) FindTeacherByUserID(ctx context.Context, userID string) (*models.Teacher, error) {
	const query = `SELECT id, user_id, email, full_name, active, created_at, updated_at FROM teachers WHERE user_id = $1`
	var teacher models.Teacher
	if err := r.db.GetContext(ctx, &teacher, query, userID); err != nil {
		return nil, err
	}
	return &teacher, nil
}

// FindStudentByUserID loads the student profile linked to a user.
func (r *UserRepository) FindStudentByUserID(ctx context.Context, userID string) (*models.Student, error) {
	const query = `SELECT id, user_id, full_name, active, created_at, updated_at FROM students WHERE user_id = $1`
	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, userID); err != nil {
		return nil, err
	}
	return &student, nil
}

// ListGuardianStudents returns the children linked to a guardian user.
func (r *UserRepository) ListGuardianStudents(ctx context.Context, guardianUserID string) ([]models.Student, error) {
	const query = `
SELECT s.id, s.user_id, s.full_name, s.active, s.created_at, s.updated_at
FROM students s
JOIN guardian_links gl ON gl.student_id = s.id
WHERE gl.guardian_user_id = $1
ORDER BY s.full_name ASC`
	var students []models.Student
	if err := r.db.SelectContext(ctx, &students, query, guardianUserID); err != nil {
		return nil, fmt.Errorf("list guardian students: %w", err)
	}
	return students, nil
}

// ListGuardiansForStudents returns guardian links covering a set of students,
// used when fanning out publish notifications.
func (r *UserRepository) ListGuardiansForStudents(ctx context.Context, studentIDs []string) ([]models.GuardianLink, error) {
	if len(studentIDs) == 0 {
		return nil, nil
	}
	query, args, err := sqlx.In(`SELECT id, guardian_user_id, student_id, created_at FROM guardian_links WHERE student_id IN (?)`, studentIDs)
	if err != nil {
		return nil, fmt.Errorf("build guardian query: %w", err)
	}
	query = r.db.Rebind(query)

	var links []models.GuardianLink
	if err := r.db.SelectContext(ctx, &links, query, args...); err != nil {
		return nil, fmt.Errorf("list guardians for students: %w", err)
	}
	return links, nil
}
