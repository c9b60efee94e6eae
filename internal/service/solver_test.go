package service

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-timetable-api/internal/models"
)

func solverSlots(n int) []models.TimetableSlot {
	slots := make([]models.TimetableSlot, 0, n)
	for i := 0; i < n; i++ {
		slots = append(slots, models.TimetableSlot{
			ID:        fmt.Sprintf("slot-%d", i+1),
			SchoolID:  "school-1",
			DayOfWeek: 1 + i%5,
			StartTime: fmt.Sprintf("%02d:00", 8+i/5),
			EndTime:   fmt.Sprintf("%02d:45", 8+i/5),
		})
	}
	return slots
}

func solverVenues(n int) []models.Venue {
	venues := make([]models.Venue, 0, n)
	for i := 0; i < n; i++ {
		venues = append(venues, models.Venue{
			ID:       fmt.Sprintf("room-%d", i+1),
			SchoolID: "school-1",
			Name:     fmt.Sprintf("Room %d", i+1),
			Type:     "CLASSROOM",
			Capacity: 36,
		})
	}
	return venues
}

func strPtr(v string) *string { return &v }

func TestSolverPlacesAllWhenGridIsOpen(t *testing.T) {
	solver := NewSolver(0, nil)
	demands := []LessonDemand{
		{Key: "Ccls1-Ssub1-#1", ClassID: "cls1", SubjectID: "sub1", TeacherID: "t1"},
		{Key: "Ccls1-Ssub1-#2", ClassID: "cls1", SubjectID: "sub1", TeacherID: "t1"},
		{Key: "Ccls2-Ssub2-#1", ClassID: "cls2", SubjectID: "sub2", TeacherID: "t2"},
	}

	result := solver.Solve(SolveInput{
		Demands: demands,
		Slots:   solverSlots(5),
		Venues:  solverVenues(2),
		Rand:    rand.New(rand.NewSource(7)),
	})

	require.Empty(t, result.Conflicts)
	require.Len(t, result.Placed, 3)
	assert.Equal(t, 3*scoreNeutralPlacement, result.Score)

	// same class never twice in one slot, and every lesson holds a venue
	seen := map[string]bool{}
	for _, placed := range result.Placed {
		require.NotNil(t, placed.VenueID)
		if placed.Demand.ClassID == "cls1" {
			assert.False(t, seen[placed.SlotID])
			seen[placed.SlotID] = true
		}
	}
}

func TestSolverUntypedLessonsShareOneVenue(t *testing.T) {
	solver := NewSolver(0, nil)
	demands := []LessonDemand{
		{Key: "Ccls1-Smat-#1", ClassID: "cls1", SubjectID: "mat", TeacherID: "t1"},
		{Key: "Ccls2-Smat-#1", ClassID: "cls2", SubjectID: "mat", TeacherID: "t2"},
		{Key: "Ccls3-Smat-#1", ClassID: "cls3", SubjectID: "mat", TeacherID: "t3"},
	}

	result := solver.Solve(SolveInput{
		Demands: demands,
		Slots:   solverSlots(2),
		Venues:  solverVenues(1),
		Rand:    rand.New(rand.NewSource(11)),
	})

	// two slots and one room admit only two lessons even without a
	// required venue type
	assert.Len(t, result.Placed, 2)
	require.Len(t, result.Conflicts, 1)
	assert.Equal(t, "Could not place: Lesson Ccls1-Smat-#1", result.Conflicts[0])
	slotsUsed := map[string]bool{}
	for _, placed := range result.Placed {
		require.NotNil(t, placed.VenueID)
		assert.Equal(t, "room-1", *placed.VenueID)
		assert.False(t, slotsUsed[placed.SlotID])
		slotsUsed[placed.SlotID] = true
	}
}

func TestSolverReportsConflictWhenVenueCapacityExhausted(t *testing.T) {
	solver := NewSolver(0, nil)
	lab := "LAB"
	demands := []LessonDemand{
		{Key: "Ccls1-Ssci-#1", ClassID: "cls1", SubjectID: "sci", TeacherID: "t1", RequiredVenueType: &lab},
		{Key: "Ccls2-Ssci-#1", ClassID: "cls2", SubjectID: "sci", TeacherID: "t2", RequiredVenueType: &lab},
		{Key: "Ccls3-Ssci-#1", ClassID: "cls3", SubjectID: "sci", TeacherID: "t3", RequiredVenueType: &lab},
	}
	venues := []models.Venue{{ID: "lab-1", SchoolID: "school-1", Name: "Science Lab", Type: "LAB", Capacity: 30}}

	result := solver.Solve(SolveInput{
		Demands: demands,
		Slots:   solverSlots(2),
		Venues:  venues,
		Rand:    rand.New(rand.NewSource(1)),
	})

	// two slots and one lab admit only two lessons
	assert.Len(t, result.Placed, 2)
	require.Len(t, result.Conflicts, 1)
	assert.Equal(t, "Could not place: Lesson Ccls1-Ssci-#1", result.Conflicts[0])
	for _, placed := range result.Placed {
		require.NotNil(t, placed.VenueID)
		assert.Equal(t, "lab-1", *placed.VenueID)
	}
}

func TestSolverIsDeterministicForPinnedSeed(t *testing.T) {
	solver := NewSolver(0, nil)
	demands := []LessonDemand{
		{Key: "Ccls1-Ssub1-#1", ClassID: "cls1", SubjectID: "sub1", TeacherID: "t1"},
		{Key: "Ccls1-Ssub2-#1", ClassID: "cls1", SubjectID: "sub2", TeacherID: "t2"},
		{Key: "Ccls2-Ssub1-#1", ClassID: "cls2", SubjectID: "sub1", TeacherID: "t1"},
	}
	input := func() SolveInput {
		return SolveInput{Demands: demands, Slots: solverSlots(6), Venues: solverVenues(2), Rand: rand.New(rand.NewSource(42))}
	}

	first := solver.Solve(input())
	second := solver.Solve(input())
	require.Equal(t, len(first.Placed), len(second.Placed))
	for i := range first.Placed {
		assert.Equal(t, first.Placed[i].SlotID, second.Placed[i].SlotID)
	}
	assert.Equal(t, first.Score, second.Score)
}

func TestSolverSkipsUnavailableSlots(t *testing.T) {
	solver := NewSolver(0, nil)
	slots := solverSlots(2)
	matrix := models.AvailabilityMatrix{
		{TeacherID: "t1", SlotID: "slot-1"}: models.AvailabilityUnavailable,
	}

	result := solver.Solve(SolveInput{
		Demands:      []LessonDemand{{Key: "Ccls1-Ssub1-#1", ClassID: "cls1", SubjectID: "sub1", TeacherID: "t1"}},
		Slots:        slots,
		Venues:       solverVenues(1),
		Availability: matrix,
		Rand:         rand.New(rand.NewSource(3)),
	})

	require.Len(t, result.Placed, 1)
	assert.Equal(t, "slot-2", result.Placed[0].SlotID)
}

func TestSolverScoresPreferredPlacements(t *testing.T) {
	solver := NewSolver(0, nil)
	matrix := models.AvailabilityMatrix{
		{TeacherID: "t1", SlotID: "slot-1"}: models.AvailabilityPreferred,
	}

	result := solver.Solve(SolveInput{
		Demands:      []LessonDemand{{Key: "Ccls1-Ssub1-#1", ClassID: "cls1", SubjectID: "sub1", TeacherID: "t1"}},
		Slots:        solverSlots(1),
		Venues:       solverVenues(1),
		Availability: matrix,
		Rand:         rand.New(rand.NewSource(3)),
	})

	require.Len(t, result.Placed, 1)
	assert.Equal(t, scorePreferredPlacement, result.Score)
}

func TestSolverHonoursSeededOccupancy(t *testing.T) {
	solver := NewSolver(0, nil)

	result := solver.Solve(SolveInput{
		Demands: []LessonDemand{{Key: "Ccls1-Ssub1-#1", ClassID: "cls1", SubjectID: "sub1", TeacherID: "t1"}},
		Slots:   solverSlots(2),
		Venues:  solverVenues(1),
		Occupied: []models.SlotOccupancy{
			{SlotID: "slot-1", TeacherID: "t1", ClassID: "other-class"},
		},
		Rand: rand.New(rand.NewSource(9)),
	})

	require.Len(t, result.Placed, 1)
	assert.Equal(t, "slot-2", result.Placed[0].SlotID)
}

func TestSolverWithNoSlotsConflictsEverything(t *testing.T) {
	solver := NewSolver(0, nil)

	result := solver.Solve(SolveInput{
		Demands: []LessonDemand{
			{Key: "Ccls1-Ssub1-#1", ClassID: "cls1", SubjectID: "sub1", TeacherID: "t1"},
			{Key: "Ccls1-Ssub1-#2", ClassID: "cls1", SubjectID: "sub1", TeacherID: "t1"},
		},
		Venues: solverVenues(1),
		Rand:   rand.New(rand.NewSource(5)),
	})

	assert.Empty(t, result.Placed)
	assert.Len(t, result.Conflicts, 2)
	assert.Zero(t, result.Score)
}
