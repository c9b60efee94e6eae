package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-timetable-api/internal/models"
	appErrors "github.com/noah-isme/sma-timetable-api/pkg/errors"
)

// LessonDemand is one lesson occurrence the solver must place. Demands are
// expanded from weekly requirements, one per lesson of the week.
type LessonDemand struct {
	Key               string
	ClassID           string
	SubjectID         string
	TeacherID         string
	RequiredVenueType *string
	IsDoublePeriod    bool
}

// Constrained reports whether the demand carries a placement constraint
// beyond the base clash rules.
func (d LessonDemand) Constrained() bool {
	return d.IsDoublePeriod || d.RequiredVenueType != nil
}

type compilerRequirementReader interface {
	ListByTerm(ctx context.Context, termID string) ([]models.SubjectRequirement, error)
}

type compilerAssignmentReader interface {
	FindByTermClassSubject(ctx context.Context, termID, classID, subjectID string) (*models.TeacherAssignment, error)
}

// RequirementCompiler expands a term's subject requirements into the ordered
// list of lesson demands the solver consumes.
type RequirementCompiler struct {
	requirements compilerRequirementReader
	assignments  compilerAssignmentReader
	logger       *zap.Logger
}

// NewRequirementCompiler constructs a RequirementCompiler.
func NewRequirementCompiler(requirements compilerRequirementReader, assignments compilerAssignmentReader, logger *zap.Logger) *RequirementCompiler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RequirementCompiler{requirements: requirements, assignments: assignments, logger: logger}
}

// Compile resolves every requirement of the term into lesson demands with the
// assigned teacher attached. Constrained demands sort first so the solver
// places the hardest lessons while the grid is still open.
func (c *RequirementCompiler) Compile(ctx context.Context, termID string) ([]LessonDemand, error) {
	requirements, err := c.requirements.ListByTerm(ctx, termID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subject requirements")
	}
	if len(requirements) == 0 {
		return nil, appErrors.Wrap(nil, appErrors.ErrConfiguration.Code, appErrors.ErrConfiguration.Status,
			fmt.Sprintf("no subject requirements defined for term %s", termID))
	}

	sorted := make([]models.SubjectRequirement, len(requirements))
	copy(sorted, requirements)
	sort.SliceStable(sorted, func(i, j int) bool {
		return requirementRank(sorted[i]) < requirementRank(sorted[j])
	})

	var demands []LessonDemand
	for _, requirement := range sorted {
		assignment, err := c.assignments.FindByTermClassSubject(ctx, termID, requirement.ClassID, requirement.SubjectID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Wrap(err, appErrors.ErrMissingAssignment.Code, appErrors.ErrMissingAssignment.Status,
					fmt.Sprintf("no teacher assigned for subject %s in class %s", requirement.SubjectID, requirement.ClassID))
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve teacher assignment")
		}

		for n := 1; n <= requirement.LessonsPerWeek; n++ {
			demands = append(demands, LessonDemand{
				Key:               fmt.Sprintf("C%s-S%s-#%d", requirement.ClassID, requirement.SubjectID, n),
				ClassID:           requirement.ClassID,
				SubjectID:         requirement.SubjectID,
				TeacherID:         assignment.TeacherID,
				RequiredVenueType: requirement.RequiredVenueType,
				IsDoublePeriod:    requirement.IsDoublePeriod,
			})
		}
	}

	c.logger.Debug("compiled lesson demands",
		zap.String("term_id", termID),
		zap.Int("requirements", len(sorted)),
		zap.Int("demands", len(demands)))
	return demands, nil
}

func requirementRank(r models.SubjectRequirement) int {
	switch {
	case r.IsDoublePeriod && r.RequiredVenueType != nil:
		return 0
	case r.IsDoublePeriod:
		return 1
	case r.RequiredVenueType != nil:
		return 2
	default:
		return 3
	}
}
