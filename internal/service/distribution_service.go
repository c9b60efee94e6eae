package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-timetable-api/internal/models"
	"github.com/noah-isme/sma-timetable-api/pkg/jobs"
)

const jobTypeVersionPublished = "timetable.version_published"

type distributionLessonReader interface {
	ListLessonDetails(ctx context.Context, versionID string) ([]models.LessonDetail, error)
}

type distributionEnrollmentReader interface {
	ListActiveByClassIDs(ctx context.Context, classIDs []string) ([]models.Enrollment, error)
}

type distributionGuardianReader interface {
	ListGuardiansForStudents(ctx context.Context, studentIDs []string) ([]models.GuardianLink, error)
}

type versionPublishedPayload struct {
	VersionID string
	TermID    string
}

// DistributionServiceConfig tunes the background queue.
type DistributionServiceConfig struct {
	Workers    int
	MaxRetries int
}

// DistributionService fans out publish notifications in the background. It
// resolves the audience of a freshly published version, the teachers
// scheduled in it, the students of its classes and their guardians, and
// hands the notification off without blocking the publish request.
type DistributionService struct {
	lessons     distributionLessonReader
	enrollments distributionEnrollmentReader
	guardians   distributionGuardianReader
	queue       *jobs.Queue
	logger      *zap.Logger
}

// NewDistributionService constructs a DistributionService with its own
// worker queue. Call Start before publishing and Stop on shutdown.
func NewDistributionService(lessons distributionLessonReader, enrollments distributionEnrollmentReader, guardians distributionGuardianReader, cfg DistributionServiceConfig, logger *zap.Logger) *DistributionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &DistributionService{
		lessons:     lessons,
		enrollments: enrollments,
		guardians:   guardians,
		logger:      logger,
	}
	s.queue = jobs.NewQueue("distribution", s.handle, jobs.QueueConfig{
		Workers:    cfg.Workers,
		MaxRetries: cfg.MaxRetries,
		RetryDelay: 2 * time.Second,
		Logger:     logger,
	})
	return s
}

// Start launches the worker pool.
func (s *DistributionService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop drains the worker pool.
func (s *DistributionService) Stop() {
	s.queue.Stop()
}

// EnqueueVersionPublished schedules audience resolution for a published
// version. Failures are logged, never surfaced to the publish flow.
func (s *DistributionService) EnqueueVersionPublished(versionID, termID string) {
	job := jobs.Job{
		ID:      uuid.NewString(),
		Type:    jobTypeVersionPublished,
		Payload: versionPublishedPayload{VersionID: versionID, TermID: termID},
	}
	if err := s.queue.Enqueue(job); err != nil {
		s.logger.Error("failed to enqueue distribution job",
			zap.String("version_id", versionID),
			zap.Error(err))
	}
}

func (s *DistributionService) handle(ctx context.Context, job jobs.Job) error {
	payload, ok := job.Payload.(versionPublishedPayload)
	if !ok {
		s.logger.Error("unexpected distribution payload", zap.String("job_id", job.ID))
		return nil
	}

	details, err := s.lessons.ListLessonDetails(ctx, payload.VersionID)
	if err != nil {
		return err
	}

	teachers := make(map[string]struct{})
	classes := make(map[string]struct{})
	for _, detail := range details {
		teachers[detail.TeacherID] = struct{}{}
		classes[detail.ClassID] = struct{}{}
	}

	classIDs := make([]string, 0, len(classes))
	for classID := range classes {
		classIDs = append(classIDs, classID)
	}
	enrollments, err := s.enrollments.ListActiveByClassIDs(ctx, classIDs)
	if err != nil {
		return err
	}
	studentIDs := make([]string, 0, len(enrollments))
	seen := make(map[string]struct{}, len(enrollments))
	for _, enrollment := range enrollments {
		if _, dup := seen[enrollment.StudentID]; dup {
			continue
		}
		seen[enrollment.StudentID] = struct{}{}
		studentIDs = append(studentIDs, enrollment.StudentID)
	}
	links, err := s.guardians.ListGuardiansForStudents(ctx, studentIDs)
	if err != nil {
		return err
	}
	guardianSet := make(map[string]struct{}, len(links))
	for _, link := range links {
		guardianSet[link.GuardianUserID] = struct{}{}
	}

	// Delivery channels (mail, push) plug in here; for now the fan-out is
	// recorded for audit.
	s.logger.Info("published timetable distributed",
		zap.String("version_id", payload.VersionID),
		zap.String("term_id", payload.TermID),
		zap.Int("teachers", len(teachers)),
		zap.Int("students", len(studentIDs)),
		zap.Int("guardians", len(guardianSet)))
	return nil
}
