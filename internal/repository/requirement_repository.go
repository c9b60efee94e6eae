package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-timetable-api/internal/models"
)

const requirementColumns = "id, term_id, class_id, subject_id, lessons_per_week, required_venue_type, is_double_period, created_at"

// RequirementRepository persists weekly subject requirements.
type RequirementRepository struct {
	db *sqlx.DB
}

// NewRequirementRepository constructs the repository.
func NewRequirementRepository(db *sqlx.DB) *RequirementRepository {
	return &RequirementRepository{db: db}
}

// Create inserts a new requirement.
func (r *RequirementRepository) Create(ctx context.Context, requirement *models.SubjectRequirement) error {
	if requirement.ID == "" {
		requirement.ID = uuid.NewString()
	}
	if requirement.CreatedAt.IsZero() {
		requirement.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO subject_requirements (id, term_id, class_id, subject_id, lessons_per_week, required_venue_type, is_double_period, created_at)
VALUES (:id, :term_id, :class_id, :subject_id, :lessons_per_week, :required_venue_type, :is_double_period, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, requirement); err != nil {
		return fmt.Errorf("create requirement: %w", err)
	}
	return nil
}

// FindByID loads a requirement by id.
func (r *RequirementRepository) FindByID(ctx context.Context, id string) (*models.SubjectRequirement, error) {
	query := fmt.Sprintf("SELECT %s FROM subject_requirements WHERE id = $1", requirementColumns)
	var requirement models.SubjectRequirement
	if err := r.db.GetContext(ctx, &requirement, query, id); err != nil {
		return nil, err
	}
	return &requirement, nil
}

// ListByTerm returns every requirement of a term.
func (r *RequirementRepository) ListByTerm(ctx context.Context, termID string) ([]models.SubjectRequirement, error) {
	query := fmt.Sprintf("SELECT %s FROM subject_requirements WHERE term_id = $1 ORDER BY class_id ASC, subject_id ASC", requirementColumns)
	var requirements []models.SubjectRequirement
	if err := r.db.SelectContext(ctx, &requirements, query, termID); err != nil {
		return nil, fmt.Errorf("list requirements by term: %w", err)
	}
	return requirements, nil
}

// CountByTermClassSubject reports whether a requirement already exists for the
// term/class/subject triple.
func (r *RequirementRepository) CountByTermClassSubject(ctx context.Context, termID, classID, subjectID string) (int, error) {
	const query = `SELECT COUNT(*) FROM subject_requirements WHERE term_id = $1 AND class_id = $2 AND subject_id = $3`
	var count int
	if err := r.db.GetContext(ctx, &count, query, termID, classID, subjectID); err != nil {
		return 0, fmt.Errorf("count requirements: %w", err)
	}
	return count, nil
}

// Delete removes a requirement.
func (r *RequirementRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM subject_requirements WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete requirement: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete requirement rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
