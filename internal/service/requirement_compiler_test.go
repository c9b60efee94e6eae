package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-timetable-api/internal/models"
	appErrors "github.com/noah-isme/sma-timetable-api/pkg/errors"
)

type requirementReaderStub struct {
	requirements []models.SubjectRequirement
	err          error
}

func (s requirementReaderStub) ListByTerm(ctx context.Context, termID string) ([]models.SubjectRequirement, error) {
	return s.requirements, s.err
}

type assignmentReaderStub struct {
	assignments map[string]models.TeacherAssignment
}

func (s assignmentReaderStub) FindByTermClassSubject(ctx context.Context, termID, classID, subjectID string) (*models.TeacherAssignment, error) {
	assignment, ok := s.assignments[classID+"/"+subjectID]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &assignment, nil
}

func TestRequirementCompilerExpandsWeeklyDemand(t *testing.T) {
	compiler := NewRequirementCompiler(
		requirementReaderStub{requirements: []models.SubjectRequirement{
			{TermID: "term-1", ClassID: "cls1", SubjectID: "sub2", LessonsPerWeek: 3},
		}},
		assignmentReaderStub{assignments: map[string]models.TeacherAssignment{
			"cls1/sub2": {TeacherID: "t-7", ClassID: "cls1", SubjectID: "sub2"},
		}},
		nil,
	)

	demands, err := compiler.Compile(context.Background(), "term-1")
	require.NoError(t, err)
	require.Len(t, demands, 3)
	assert.Equal(t, "Ccls1-Ssub2-#1", demands[0].Key)
	assert.Equal(t, "Ccls1-Ssub2-#2", demands[1].Key)
	assert.Equal(t, "Ccls1-Ssub2-#3", demands[2].Key)
	for _, demand := range demands {
		assert.Equal(t, "t-7", demand.TeacherID)
	}
}

func TestRequirementCompilerOrdersConstrainedFirst(t *testing.T) {
	lab := "LAB"
	compiler := NewRequirementCompiler(
		requirementReaderStub{requirements: []models.SubjectRequirement{
			{ClassID: "cls1", SubjectID: "plain", LessonsPerWeek: 1},
			{ClassID: "cls1", SubjectID: "science", LessonsPerWeek: 1, RequiredVenueType: &lab},
			{ClassID: "cls1", SubjectID: "workshop", LessonsPerWeek: 1, IsDoublePeriod: true},
		}},
		assignmentReaderStub{assignments: map[string]models.TeacherAssignment{
			"cls1/plain":    {TeacherID: "t-1"},
			"cls1/science":  {TeacherID: "t-2"},
			"cls1/workshop": {TeacherID: "t-3"},
		}},
		nil,
	)

	demands, err := compiler.Compile(context.Background(), "term-1")
	require.NoError(t, err)
	require.Len(t, demands, 3)
	assert.Equal(t, "workshop", demands[0].SubjectID)
	assert.Equal(t, "science", demands[1].SubjectID)
	assert.Equal(t, "plain", demands[2].SubjectID)
}

func TestRequirementCompilerRejectsEmptyTerm(t *testing.T) {
	compiler := NewRequirementCompiler(requirementReaderStub{}, assignmentReaderStub{}, nil)

	_, err := compiler.Compile(context.Background(), "term-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConfiguration.Code, appErrors.FromError(err).Code)
}

func TestRequirementCompilerReportsMissingAssignment(t *testing.T) {
	compiler := NewRequirementCompiler(
		requirementReaderStub{requirements: []models.SubjectRequirement{
			{ClassID: "cls1", SubjectID: "orphan", LessonsPerWeek: 2},
		}},
		assignmentReaderStub{},
		nil,
	)

	_, err := compiler.Compile(context.Background(), "term-1")
	require.Error(t, err)
	typed := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrMissingAssignment.Code, typed.Code)
	assert.Contains(t, typed.Message, "orphan")
	assert.Contains(t, typed.Message, "cls1")
}
