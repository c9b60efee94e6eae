package service

import (
	"fmt"
	"math/rand"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-timetable-api/internal/models"
)

const defaultSolverNodeBudget = 50000

const (
	scorePreferredPlacement = 10
	scoreNeutralPlacement   = 5
)

// SolveInput carries everything one solver run needs. Occupied seeds the
// occupancy maps with lessons from already published versions so the draft
// never clashes with them. Rand may be pinned for reproducible runs.
type SolveInput struct {
	Demands      []LessonDemand
	Slots        []models.TimetableSlot
	Venues       []models.Venue
	Availability models.AvailabilityMatrix
	Occupied     []models.SlotOccupancy
	Rand         *rand.Rand
}

// PlacedLesson is one demand the solver managed to schedule.
type PlacedLesson struct {
	Demand  LessonDemand
	SlotID  string
	VenueID *string
}

// SolveResult summarises a solver run.
type SolveResult struct {
	Placed    []PlacedLesson
	Conflicts []string
	Score     int
	Nodes     int
}

// Solver places lesson demands into slots via depth-first search with
// backtracking. Slot order is shuffled per run so repeated generations
// explore different layouts. A node budget caps the search so pathological
// inputs degrade into reported conflicts instead of unbounded runtime.
type Solver struct {
	nodeBudget int
	logger     *zap.Logger
}

// NewSolver constructs a Solver. A non-positive budget falls back to the
// default.
func NewSolver(nodeBudget int, logger *zap.Logger) *Solver {
	if nodeBudget <= 0 {
		nodeBudget = defaultSolverNodeBudget
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Solver{nodeBudget: nodeBudget, logger: logger}
}

type slotUse struct {
	teachers map[string]struct{}
	classes  map[string]struct{}
	venues   map[string]struct{}
}

func newSlotUse() *slotUse {
	return &slotUse{
		teachers: make(map[string]struct{}),
		classes:  make(map[string]struct{}),
		venues:   make(map[string]struct{}),
	}
}

// solverFrame tracks the search cursor for one demand. slotPos/venuePos
// resume where the previous attempt left off when the search backtracks into
// the frame.
type solverFrame struct {
	demandIdx int
	order     []int
	slotPos   int
	venuePos  int
	placed    bool
	slotID    string
	venueID   *string
}

// Solve runs the search and returns placements, conflicts for demands that
// could not be placed, and the preference score of the final layout.
func (s *Solver) Solve(input SolveInput) SolveResult {
	rng := input.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	occ := make(map[string]*slotUse, len(input.Slots))
	for _, busy := range input.Occupied {
		use := occ[busy.SlotID]
		if use == nil {
			use = newSlotUse()
			occ[busy.SlotID] = use
		}
		use.teachers[busy.TeacherID] = struct{}{}
		use.classes[busy.ClassID] = struct{}{}
		if busy.VenueID != nil {
			use.venues[*busy.VenueID] = struct{}{}
		}
	}

	var (
		frames    []*solverFrame
		conflicts []string
		nodes     int
	)

	next := 0
	for next < len(input.Demands) {
		frames = append(frames, &solverFrame{demandIdx: next, order: rng.Perm(len(input.Slots))})
		for {
			top := frames[len(frames)-1]
			if s.advance(top, input, occ, &nodes) {
				s.occupy(input.Demands[top.demandIdx], top, occ)
				top.placed = true
				next = top.demandIdx + 1
				break
			}

			frames = frames[:len(frames)-1]
			if len(frames) == 0 || nodes >= s.nodeBudget {
				conflicts = append(conflicts, fmt.Sprintf("Could not place: Lesson %s", input.Demands[top.demandIdx].Key))
				next = top.demandIdx + 1
				break
			}

			prev := frames[len(frames)-1]
			s.release(input.Demands[prev.demandIdx], prev, occ)
			prev.placed = false
		}
	}

	result := SolveResult{Nodes: nodes}
	for _, frame := range frames {
		if !frame.placed {
			continue
		}
		demand := input.Demands[frame.demandIdx]
		result.Placed = append(result.Placed, PlacedLesson{Demand: demand, SlotID: frame.slotID, VenueID: frame.venueID})
		if input.Availability.StatusFor(demand.TeacherID, frame.slotID) == models.AvailabilityPreferred {
			result.Score += scorePreferredPlacement
		} else {
			result.Score += scoreNeutralPlacement
		}
	}
	result.Conflicts = conflicts

	s.logger.Debug("solver run finished",
		zap.Int("demands", len(input.Demands)),
		zap.Int("placed", len(result.Placed)),
		zap.Int("conflicts", len(conflicts)),
		zap.Int("nodes", nodes),
		zap.Int("score", result.Score))
	return result
}

// advance moves the frame's cursor to the next feasible (slot, venue) pair,
// recording it in the frame. Every placement claims a venue; a typed demand
// additionally restricts the venue list to its required type. It returns
// false when the demand has no candidates left.
func (s *Solver) advance(f *solverFrame, input SolveInput, occ map[string]*slotUse, nodes *int) bool {
	demand := input.Demands[f.demandIdx]
	for f.slotPos < len(f.order) {
		slot := input.Slots[f.order[f.slotPos]]

		for f.venuePos < len(input.Venues) {
			venue := input.Venues[f.venuePos]
			f.venuePos++
			if demand.RequiredVenueType != nil && venue.Type != *demand.RequiredVenueType {
				continue
			}
			*nodes++
			if s.fits(demand, slot.ID, &venue.ID, input, occ) {
				f.slotID = slot.ID
				venueID := venue.ID
				f.venueID = &venueID
				return true
			}
		}
		f.slotPos++
		f.venuePos = 0
	}
	return false
}

func (s *Solver) fits(demand LessonDemand, slotID string, venueID *string, input SolveInput, occ map[string]*slotUse) bool {
	if input.Availability.StatusFor(demand.TeacherID, slotID) == models.AvailabilityUnavailable {
		return false
	}
	use := occ[slotID]
	if use == nil {
		return true
	}
	if _, busy := use.teachers[demand.TeacherID]; busy {
		return false
	}
	if _, busy := use.classes[demand.ClassID]; busy {
		return false
	}
	if venueID != nil {
		if _, busy := use.venues[*venueID]; busy {
			return false
		}
	}
	return true
}

func (s *Solver) occupy(demand LessonDemand, f *solverFrame, occ map[string]*slotUse) {
	use := occ[f.slotID]
	if use == nil {
		use = newSlotUse()
		occ[f.slotID] = use
	}
	use.teachers[demand.TeacherID] = struct{}{}
	use.classes[demand.ClassID] = struct{}{}
	if f.venueID != nil {
		use.venues[*f.venueID] = struct{}{}
	}
}

func (s *Solver) release(demand LessonDemand, f *solverFrame, occ map[string]*slotUse) {
	use := occ[f.slotID]
	if use == nil {
		return
	}
	delete(use.teachers, demand.TeacherID)
	delete(use.classes, demand.ClassID)
	if f.venueID != nil {
		delete(use.venues, *f.venueID)
	}
}
