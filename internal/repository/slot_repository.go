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

const slotColumns = "id, school_id, day_of_week, start_time, end_time, created_at"

// SlotRepository persists weekly timetable slots.
type SlotRepository struct {
	db *sqlx.DB
}

// NewSlotRepository constructs the repository.
func NewSlotRepository(db *sqlx.DB) *SlotRepository {
	return &SlotRepository{db: db}
}

// Create inserts a new slot.
func (r *SlotRepository) Create(ctx context.Context, slot *models.TimetableSlot) error {
	if slot.ID == "" {
		slot.ID = uuid.NewString()
	}
	if slot.CreatedAt.IsZero() {
		slot.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO timetable_slots (id, school_id, day_of_week, start_time, end_time, created_at)
VALUES (:id, :school_id, :day_of_week, :start_time, :end_time, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, slot); err != nil {
		return fmt.Errorf("create slot: %w", err)
	}
	return nil
}

// FindByID loads a slot by id.
func (r *SlotRepository) FindByID(ctx context.Context, id string) (*models.TimetableSlot, error) {
	query := fmt.Sprintf("SELECT %s FROM timetable_slots WHERE id = $1", slotColumns)
	var slot models.TimetableSlot
	if err := r.db.GetContext(ctx, &slot, query, id); err != nil {
		return nil, err
	}
	return &slot, nil
}

// ListBySchool returns every slot of a school ordered by day and start time.
func (r *SlotRepository) ListBySchool(ctx context.Context, schoolID string) ([]models.TimetableSlot, error) {
	query := fmt.Sprintf("SELECT %s FROM timetable_slots WHERE school_id = $1 ORDER BY day_of_week ASC, start_time ASC", slotColumns)
	var slots []models.TimetableSlot
	if err := r.db.SelectContext(ctx, &slots, query, schoolID); err != nil {
		return nil, fmt.Errorf("list slots by school: %w", err)
	}
	return slots, nil
}

// ListBySchoolAndDay returns the slots of one weekday, used for overlap checks.
func (r *SlotRepository) ListBySchoolAndDay(ctx context.Context, schoolID string, dayOfWeek int) ([]models.TimetableSlot, error) {
	query := fmt.Sprintf("SELECT %s FROM timetable_slots WHERE school_id = $1 AND day_of_week = $2 ORDER BY start_time ASC", slotColumns)
	var slots []models.TimetableSlot
	if err := r.db.SelectContext(ctx, &slots, query, schoolID, dayOfWeek); err != nil {
		return nil, fmt.Errorf("list slots by day: %w", err)
	}
	return slots, nil
}

// Delete removes a slot.
func (r *SlotRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM timetable_slots WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete slot: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete slot rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
