package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-timetable-api/internal/models"
)

const termColumns = "id, school_id, academic_year, name, start_date, end_date, created_at"

// TermRepository reads academic terms.
type TermRepository struct {
	db *sqlx.DB
}

// NewTermRepository constructs the repository.
func NewTermRepository(db *sqlx.DB) *TermRepository {
	return &TermRepository{db: db}
}

// FindByID loads a term by id.
func (r *TermRepository) FindByID(ctx context.Context, id string) (*models.Term, error) {
	query := fmt.Sprintf("SELECT %s FROM terms WHERE id = $1", termColumns)
	var term models.Term
	if err := r.db.GetContext(ctx, &term, query, id); err != nil {
		return nil, err
	}
	return &term, nil
}

// FindCurrent returns the term whose date range covers today for a school.
func (r *TermRepository) FindCurrent(ctx context.Context, schoolID string) (*models.Term, error) {
	query := fmt.Sprintf("SELECT %s FROM terms WHERE school_id = $1 AND start_date <= NOW() AND end_date >= NOW() ORDER BY start_date DESC LIMIT 1", termColumns)
	var term models.Term
	if err := r.db.GetContext(ctx, &term, query, schoolID); err != nil {
		return nil, err
	}
	return &term, nil
}

// ListBySchool returns every term of a school, newest first.
func (r *TermRepository) ListBySchool(ctx context.Context, schoolID string) ([]models.Term, error) {
	query := fmt.Sprintf("SELECT %s FROM terms WHERE school_id = $1 ORDER BY start_date DESC", termColumns)
	var terms []models.Term
	if err := r.db.SelectContext(ctx, &terms, query, schoolID); err != nil {
		return nil, fmt.Errorf("list terms by school: %w", err)
	}
	return terms, nil
}
