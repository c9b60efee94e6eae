package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-timetable-api/internal/dto"
	"github.com/noah-isme/sma-timetable-api/internal/models"
	appErrors "github.com/noah-isme/sma-timetable-api/pkg/errors"
)

type slotStoreStub struct {
	slots   map[string]models.TimetableSlot
	deleted []string
}

func newSlotStoreStub() *slotStoreStub {
	return &slotStoreStub{slots: map[string]models.TimetableSlot{}}
}

func (s *slotStoreStub) Create(ctx context.Context, slot *models.TimetableSlot) error {
	if slot.ID == "" {
		slot.ID = "slot-new"
	}
	s.slots[slot.ID] = *slot
	return nil
}

func (s *slotStoreStub) FindByID(ctx context.Context, id string) (*models.TimetableSlot, error) {
	slot, ok := s.slots[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &slot, nil
}

func (s *slotStoreStub) ListBySchool(ctx context.Context, schoolID string) ([]models.TimetableSlot, error) {
	var result []models.TimetableSlot
	for _, slot := range s.slots {
		if slot.SchoolID == schoolID {
			result = append(result, slot)
		}
	}
	return result, nil
}

func (s *slotStoreStub) ListBySchoolAndDay(ctx context.Context, schoolID string, dayOfWeek int) ([]models.TimetableSlot, error) {
	var result []models.TimetableSlot
	for _, slot := range s.slots {
		if slot.SchoolID == schoolID && slot.DayOfWeek == dayOfWeek {
			result = append(result, slot)
		}
	}
	return result, nil
}

func (s *slotStoreStub) Delete(ctx context.Context, id string) error {
	if _, ok := s.slots[id]; !ok {
		return sql.ErrNoRows
	}
	delete(s.slots, id)
	s.deleted = append(s.deleted, id)
	return nil
}

type lessonCounterStub struct {
	count int
}

func (s lessonCounterStub) CountLessonsUsingSlot(ctx context.Context, slotID string) (int, error) {
	return s.count, nil
}

func TestSlotServiceCreate(t *testing.T) {
	store := newSlotStoreStub()
	svc := NewSlotService(store, lessonCounterStub{}, nil, nil)

	slot, err := svc.Create(context.Background(), dto.CreateSlotRequest{
		SchoolID: "school-1", DayOfWeek: 1, StartTime: "08:00", EndTime: "08:45",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, slot.ID)
	assert.Len(t, store.slots, 1)
}

func TestSlotServiceCreateRejectsOverlap(t *testing.T) {
	store := newSlotStoreStub()
	store.slots["slot-1"] = models.TimetableSlot{
		ID: "slot-1", SchoolID: "school-1", DayOfWeek: 1, StartTime: "08:00", EndTime: "08:45",
	}
	svc := NewSlotService(store, lessonCounterStub{}, nil, nil)

	_, err := svc.Create(context.Background(), dto.CreateSlotRequest{
		SchoolID: "school-1", DayOfWeek: 1, StartTime: "08:30", EndTime: "09:15",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestSlotServiceCreateAllowsAdjacentWindows(t *testing.T) {
	store := newSlotStoreStub()
	store.slots["slot-1"] = models.TimetableSlot{
		ID: "slot-1", SchoolID: "school-1", DayOfWeek: 1, StartTime: "08:00", EndTime: "08:45",
	}
	svc := NewSlotService(store, lessonCounterStub{}, nil, nil)

	_, err := svc.Create(context.Background(), dto.CreateSlotRequest{
		SchoolID: "school-1", DayOfWeek: 1, StartTime: "08:45", EndTime: "09:30",
	})
	assert.NoError(t, err)
}

func TestSlotServiceCreateRejectsInvertedWindow(t *testing.T) {
	svc := NewSlotService(newSlotStoreStub(), lessonCounterStub{}, nil, nil)

	_, err := svc.Create(context.Background(), dto.CreateSlotRequest{
		SchoolID: "school-1", DayOfWeek: 1, StartTime: "09:00", EndTime: "08:00",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestSlotServiceDeleteBlockedWhenReferenced(t *testing.T) {
	store := newSlotStoreStub()
	store.slots["slot-1"] = models.TimetableSlot{ID: "slot-1", SchoolID: "school-1"}
	svc := NewSlotService(store, lessonCounterStub{count: 3}, nil, nil)

	err := svc.Delete(context.Background(), "slot-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidState.Code, appErrors.FromError(err).Code)
	assert.Empty(t, store.deleted)
}

func TestSlotServiceDeleteUnused(t *testing.T) {
	store := newSlotStoreStub()
	store.slots["slot-1"] = models.TimetableSlot{ID: "slot-1", SchoolID: "school-1"}
	svc := NewSlotService(store, lessonCounterStub{}, nil, nil)

	require.NoError(t, svc.Delete(context.Background(), "slot-1"))
	assert.Equal(t, []string{"slot-1"}, store.deleted)
}
