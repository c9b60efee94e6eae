package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-timetable-api/internal/models"
	"github.com/noah-isme/sma-timetable-api/pkg/jobs"
)

type distributionLessonStub struct {
	details []models.LessonDetail
}

func (s distributionLessonStub) ListLessonDetails(ctx context.Context, versionID string) ([]models.LessonDetail, error) {
	return s.details, nil
}

type distributionEnrollmentStub struct {
	enrollments []models.Enrollment
	classIDs    []string
}

func (s *distributionEnrollmentStub) ListActiveByClassIDs(ctx context.Context, classIDs []string) ([]models.Enrollment, error) {
	s.classIDs = classIDs
	return s.enrollments, nil
}

type distributionGuardianStub struct {
	links      []models.GuardianLink
	studentIDs []string
}

func (s *distributionGuardianStub) ListGuardiansForStudents(ctx context.Context, studentIDs []string) ([]models.GuardianLink, error) {
	s.studentIDs = studentIDs
	return s.links, nil
}

func TestDistributionServiceResolvesAudience(t *testing.T) {
	lessons := distributionLessonStub{details: []models.LessonDetail{
		{Lesson: models.Lesson{ID: "l1", TeacherID: "t-1", ClassID: "cls-1"}},
		{Lesson: models.Lesson{ID: "l2", TeacherID: "t-1", ClassID: "cls-2"}},
	}}
	enrollments := &distributionEnrollmentStub{enrollments: []models.Enrollment{
		{StudentID: "stu-1", ClassID: "cls-1"},
		{StudentID: "stu-2", ClassID: "cls-2"},
		{StudentID: "stu-1", ClassID: "cls-2"},
	}}
	guardians := &distributionGuardianStub{links: []models.GuardianLink{
		{GuardianUserID: "g-1", StudentID: "stu-1"},
	}}
	svc := NewDistributionService(lessons, enrollments, guardians, DistributionServiceConfig{}, nil)

	err := svc.handle(context.Background(), jobs.Job{
		ID:      "job-1",
		Type:    jobTypeVersionPublished,
		Payload: versionPublishedPayload{VersionID: "ver-1", TermID: "term-1"},
	})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"cls-1", "cls-2"}, enrollments.classIDs)
	assert.ElementsMatch(t, []string{"stu-1", "stu-2"}, guardians.studentIDs)
}

func TestDistributionServiceIgnoresUnknownPayload(t *testing.T) {
	svc := NewDistributionService(distributionLessonStub{}, &distributionEnrollmentStub{}, &distributionGuardianStub{}, DistributionServiceConfig{}, nil)

	err := svc.handle(context.Background(), jobs.Job{ID: "job-1", Type: jobTypeVersionPublished, Payload: "garbage"})
	assert.NoError(t, err)
}

func TestDistributionServiceEnqueueBeforeStartDoesNotPanic(t *testing.T) {
	svc := NewDistributionService(distributionLessonStub{}, &distributionEnrollmentStub{}, &distributionGuardianStub{}, DistributionServiceConfig{}, nil)

	assert.NotPanics(t, func() {
		svc.EnqueueVersionPublished("ver-1", "term-1")
	})
}
