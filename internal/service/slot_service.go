package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-timetable-api/internal/dto"
	"github.com/noah-isme/sma-timetable-api/internal/models"
	appErrors "github.com/noah-isme/sma-timetable-api/pkg/errors"
)

type slotStore interface {
	Create(ctx context.Context, slot *models.TimetableSlot) error
	FindByID(ctx context.Context, id string) (*models.TimetableSlot, error)
	ListBySchool(ctx context.Context, schoolID string) ([]models.TimetableSlot, error)
	ListBySchoolAndDay(ctx context.Context, schoolID string, dayOfWeek int) ([]models.TimetableSlot, error)
	Delete(ctx context.Context, id string) error
}

type slotLessonCounter interface {
	CountLessonsUsingSlot(ctx context.Context, slotID string) (int, error)
}

// SlotService manages the weekly slot grid lessons are placed into.
type SlotService struct {
	slots     slotStore
	lessons   slotLessonCounter
	validator *validator.Validate
	logger    *zap.Logger
}

// NewSlotService constructs a SlotService.
func NewSlotService(slots slotStore, lessons slotLessonCounter, validate *validator.Validate, logger *zap.Logger) *SlotService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SlotService{slots: slots, lessons: lessons, validator: validate, logger: logger}
}

// Create registers a slot after checking the time window is well formed and
// does not overlap an existing slot on the same day.
func (s *SlotService) Create(ctx context.Context, req dto.CreateSlotRequest) (*models.TimetableSlot, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid slot payload")
	}
	start, err := parseClock(req.StartTime)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "start time must be HH:MM")
	}
	end, err := parseClock(req.EndTime)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "end time must be HH:MM")
	}
	if !start.Before(end) {
		return nil, appErrors.Wrap(nil, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "start time must be before end time")
	}

	existing, err := s.slots.ListBySchoolAndDay(ctx, req.SchoolID, req.DayOfWeek)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load slots")
	}
	for _, slot := range existing {
		if req.StartTime < slot.EndTime && slot.StartTime < req.EndTime {
			return nil, appErrors.Wrap(nil, appErrors.ErrConflict.Code, appErrors.ErrConflict.Status,
				fmt.Sprintf("slot overlaps existing window %s-%s", slot.StartTime, slot.EndTime))
		}
	}

	slot := &models.TimetableSlot{
		SchoolID:  req.SchoolID,
		DayOfWeek: req.DayOfWeek,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
	}
	if err := s.slots.Create(ctx, slot); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create slot")
	}
	return slot, nil
}

// ListBySchool returns the school's slot grid.
func (s *SlotService) ListBySchool(ctx context.Context, schoolID string) ([]models.TimetableSlot, error) {
	slots, err := s.slots.ListBySchool(ctx, schoolID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list slots")
	}
	return slots, nil
}

// Delete removes a slot unless lessons still reference it.
func (s *SlotService) Delete(ctx context.Context, id string) error {
	if _, err := s.slots.FindByID(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Wrap(err, appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, "slot not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load slot")
	}
	count, err := s.lessons.CountLessonsUsingSlot(ctx, id)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check slot usage")
	}
	if count > 0 {
		return appErrors.Wrap(nil, appErrors.ErrInvalidState.Code, appErrors.ErrInvalidState.Status,
			fmt.Sprintf("slot is referenced by %d lessons", count))
	}
	if err := s.slots.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete slot")
	}
	return nil
}

func parseClock(value string) (time.Time, error) {
	return time.Parse("15:04", value)
}
