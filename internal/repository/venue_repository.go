package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-timetable-api/internal/models"
)

const venueColumns = "id, school_id, name, type, capacity, created_at"

// VenueRepository reads venue records.
type VenueRepository struct {
	db *sqlx.DB
}

// NewVenueRepository constructs the repository.
func NewVenueRepository(db *sqlx.DB) *VenueRepository {
	return &VenueRepository{db: db}
}

// FindByID loads a venue by id.
func (r *VenueRepository) FindByID(ctx context.Context, id string) (*models.Venue, error) {
	query := fmt.Sprintf("SELECT %s FROM venues WHERE id = $1", venueColumns)
	var venue models.Venue
	if err := r.db.GetContext(ctx, &venue, query, id); err != nil {
		return nil, err
	}
	return &venue, nil
}

// ListBySchool returns every venue of a school.
func (r *VenueRepository) ListBySchool(ctx context.Context, schoolID string) ([]models.Venue, error) {
	query := fmt.Sprintf("SELECT %s FROM venues WHERE school_id = $1 ORDER BY name ASC", venueColumns)
	var venues []models.Venue
	if err := r.db.SelectContext(ctx, &venues, query, schoolID); err != nil {
		return nil, fmt.Errorf("list venues by school: %w", err)
	}
	return venues, nil
}
