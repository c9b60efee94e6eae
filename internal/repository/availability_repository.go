package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-timetable-api/internal/models"
)

const availabilityColumns = "id, teacher_id, term_id, slot_id, status, created_at"

// AvailabilityRepository persists per-slot teacher availability declarations.
type AvailabilityRepository struct {
	db *sqlx.DB
}

// NewAvailabilityRepository constructs the repository.
func NewAvailabilityRepository(db *sqlx.DB) *AvailabilityRepository {
	return &AvailabilityRepository{db: db}
}

func (r *AvailabilityRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// BeginTxx starts a transaction for the delete-then-insert reset flow.
func (r *AvailabilityRepository) BeginTxx(ctx context.Context) (*sqlx.Tx, error) {
	return r.db.BeginTxx(ctx, nil)
}

// ListByTeacherTerm returns a teacher's declarations for a term.
func (r *AvailabilityRepository) ListByTeacherTerm(ctx context.Context, teacherID, termID string) ([]models.TeacherAvailability, error) {
	query := fmt.Sprintf("SELECT %s FROM teacher_availability WHERE teacher_id = $1 AND term_id = $2 ORDER BY slot_id ASC", availabilityColumns)
	var entries []models.TeacherAvailability
	if err := r.db.SelectContext(ctx, &entries, query, teacherID, termID); err != nil {
		return nil, fmt.Errorf("list availability: %w", err)
	}
	return entries, nil
}

// MatrixForTerm loads every declaration of the term into a lookup matrix.
// Slots with no row default to AVAILABLE on lookup.
func (r *AvailabilityRepository) MatrixForTerm(ctx context.Context, termID string) (models.AvailabilityMatrix, error) {
	query := fmt.Sprintf("SELECT %s FROM teacher_availability WHERE term_id = $1", availabilityColumns)
	var entries []models.TeacherAvailability
	if err := r.db.SelectContext(ctx, &entries, query, termID); err != nil {
		return nil, fmt.Errorf("load availability matrix: %w", err)
	}

	matrix := make(models.AvailabilityMatrix, len(entries))
	for _, entry := range entries {
		matrix[models.AvailabilityKey{TeacherID: entry.TeacherID, SlotID: entry.SlotID}] = entry.Status
	}
	return matrix, nil
}

// DeleteByTeacherTerm wipes a teacher's declarations for a term.
func (r *AvailabilityRepository) DeleteByTeacherTerm(ctx context.Context, exec sqlx.ExtContext, teacherID, termID string) error {
	target := r.exec(exec)
	if _, err := target.ExecContext(ctx, `DELETE FROM teacher_availability WHERE teacher_id = $1 AND term_id = $2`, teacherID, termID); err != nil {
		return fmt.Errorf("delete availability: %w", err)
	}
	return nil
}

// InsertBatch stores a set of declarations, typically inside a transaction.
func (r *AvailabilityRepository) InsertBatch(ctx context.Context, exec sqlx.ExtContext, entries []models.TeacherAvailability) error {
	target := r.exec(exec)
	now := time.Now().UTC()
	for i := range entries {
		payload := entries[i]
		if payload.ID == "" {
			payload.ID = uuid.NewString()
		}
		if payload.CreatedAt.IsZero() {
			payload.CreatedAt = now
		}
		const query = `INSERT INTO teacher_availability (id, teacher_id, term_id, slot_id, status, created_at)
VALUES (:id, :teacher_id, :term_id, :slot_id, :status, :created_at)`
		if _, err := sqlx.NamedExecContext(ctx, target, query, &payload); err != nil {
			return fmt.Errorf("insert availability: %w", err)
		}
		entries[i] = payload
	}
	return nil
}
