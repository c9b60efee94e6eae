package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-timetable-api/internal/dto"
	"github.com/noah-isme/sma-timetable-api/internal/models"
	appErrors "github.com/noah-isme/sma-timetable-api/pkg/errors"
)

type timetableStore interface {
	BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
	CreateVersion(ctx context.Context, version *models.TimetableVersion) error
	FindVersionByID(ctx context.Context, id string) (*models.TimetableVersion, error)
	FindVersionWithLessons(ctx context.Context, id string) (*models.VersionWithLessons, error)
	ListVersionsByTerm(ctx context.Context, termID string) ([]models.TimetableVersion, error)
	ListLessons(ctx context.Context, versionID string) ([]models.Lesson, error)
	CountByTermAndName(ctx context.Context, termID, name string) (int, error)
	ArchivePublishedSiblings(ctx context.Context, exec sqlx.ExtContext, termID string, timetableType models.TimetableType, exceptID string) error
	MarkPublished(ctx context.Context, exec sqlx.ExtContext, id string, at time.Time) error
	UpdateStatus(ctx context.Context, exec sqlx.ExtContext, id string, status models.TimetableVersionStatus) error
	InsertLesson(ctx context.Context, lesson *models.Lesson) error
	InsertLessons(ctx context.Context, exec sqlx.ExtContext, lessons []models.Lesson) error
	DeleteLessonsByVersion(ctx context.Context, exec sqlx.ExtContext, versionID string) error
	FindLessonByID(ctx context.Context, id string) (*models.Lesson, error)
	DeleteLesson(ctx context.Context, id string) error
	ListSlotOccupancy(ctx context.Context, termID, slotID, draftVersionID string) ([]models.SlotOccupancy, error)
	ListPublishedOccupancy(ctx context.Context, termID, exceptVersionID string) ([]models.SlotOccupancy, error)
}

type timetableTermReader interface {
	FindByID(ctx context.Context, id string) (*models.Term, error)
}

type timetableSlotReader interface {
	FindByID(ctx context.Context, id string) (*models.TimetableSlot, error)
	ListBySchool(ctx context.Context, schoolID string) ([]models.TimetableSlot, error)
}

type timetableVenueReader interface {
	FindByID(ctx context.Context, id string) (*models.Venue, error)
	ListBySchool(ctx context.Context, schoolID string) ([]models.Venue, error)
}

type timetableAvailabilityReader interface {
	MatrixForTerm(ctx context.Context, termID string) (models.AvailabilityMatrix, error)
}

type timetableAssignmentChecker interface {
	CountMatching(ctx context.Context, termID, teacherID, classID, subjectID string) (int, error)
}

type demandCompiler interface {
	Compile(ctx context.Context, termID string) ([]LessonDemand, error)
}

type lessonSolver interface {
	Solve(input SolveInput) SolveResult
}

type reportInvalidator interface {
	InvalidateTerm(ctx context.Context, termID string)
}

type publishDistributor interface {
	EnqueueVersionPublished(versionID, termID string)
}

type generationRecorder interface {
	RecordGeneration(outcome string, duration time.Duration, placed, conflicts int)
}

// TimetableServiceConfig tunes generation behaviour.
type TimetableServiceConfig struct {
	// SeedFromPublished pre-loads solver occupancy with lessons of the
	// term's published versions so a generated draft can coexist with them.
	SeedFromPublished bool
}

// TimetableService owns the version lifecycle and draft editing, and drives
// generation runs over drafts.
type TimetableService struct {
	store        timetableStore
	terms        timetableTermReader
	slots        timetableSlotReader
	venues       timetableVenueReader
	availability timetableAvailabilityReader
	assignments  timetableAssignmentChecker
	compiler     demandCompiler
	solver       lessonSolver
	reports      reportInvalidator
	distributor  publishDistributor
	metrics      generationRecorder
	validator    *validator.Validate
	logger       *zap.Logger
	cfg          TimetableServiceConfig
	now          func() time.Time
	newRand      func() *rand.Rand
}

// NewTimetableService constructs a TimetableService. The reports,
// distributor and metrics collaborators may be nil.
func NewTimetableService(
	store timetableStore,
	terms timetableTermReader,
	slots timetableSlotReader,
	venues timetableVenueReader,
	availability timetableAvailabilityReader,
	assignments timetableAssignmentChecker,
	compiler demandCompiler,
	solver lessonSolver,
	reports reportInvalidator,
	distributor publishDistributor,
	metrics generationRecorder,
	validate *validator.Validate,
	logger *zap.Logger,
	cfg TimetableServiceConfig,
) *TimetableService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TimetableService{
		store:        store,
		terms:        terms,
		slots:        slots,
		venues:       venues,
		availability: availability,
		assignments:  assignments,
		compiler:     compiler,
		solver:       solver,
		reports:      reports,
		distributor:  distributor,
		metrics:      metrics,
		validator:    validate,
		logger:       logger,
		cfg:          cfg,
		now:          func() time.Time { return time.Now().UTC() },
		newRand:      func() *rand.Rand { return rand.New(rand.NewSource(time.Now().UnixNano())) },
	}
}

// CreateVersion registers a new draft version for a term.
func (s *TimetableService) CreateVersion(ctx context.Context, req dto.CreateVersionRequest) (*models.TimetableVersion, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid create version payload")
	}
	if _, err := s.terms.FindByID(ctx, req.TermID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Wrap(err, appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, "term not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load term")
	}
	count, err := s.store.CountByTermAndName(ctx, req.TermID, req.Name)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check version name")
	}
	if count > 0 {
		return nil, appErrors.Wrap(nil, appErrors.ErrConflict.Code, appErrors.ErrConflict.Status,
			fmt.Sprintf("version name %q already used in term", req.Name))
	}

	version := &models.TimetableVersion{
		TermID: req.TermID,
		Name:   req.Name,
		Type:   models.TimetableType(req.Type),
		Status: models.TimetableVersionStatusDraft,
	}
	if err := s.store.CreateVersion(ctx, version); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create version")
	}
	s.logger.Info("timetable version created",
		zap.String("version_id", version.ID),
		zap.String("term_id", version.TermID),
		zap.String("type", string(version.Type)))
	return version, nil
}

// FindVersionWithLessons returns a version and its lessons.
func (s *TimetableService) FindVersionWithLessons(ctx context.Context, id string) (*models.VersionWithLessons, error) {
	version, err := s.store.FindVersionWithLessons(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Wrap(err, appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, "version not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load version")
	}
	return version, nil
}

// ListVersionsByTerm returns every version of a term.
func (s *TimetableService) ListVersionsByTerm(ctx context.Context, termID string) ([]models.TimetableVersion, error) {
	versions, err := s.store.ListVersionsByTerm(ctx, termID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list versions")
	}
	return versions, nil
}

// CloneVersion copies an existing version's lessons into a fresh draft.
// Any status may serve as the source, which is how an archived layout gets
// revived without violating the archive rules.
func (s *TimetableService) CloneVersion(ctx context.Context, sourceID string, req dto.CloneVersionRequest) (*models.TimetableVersion, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid clone payload")
	}
	source, err := s.store.FindVersionWithLessons(ctx, sourceID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Wrap(err, appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, "source version not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load source version")
	}
	count, err := s.store.CountByTermAndName(ctx, source.TermID, req.Name)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check version name")
	}
	if count > 0 {
		return nil, appErrors.Wrap(nil, appErrors.ErrConflict.Code, appErrors.ErrConflict.Status,
			fmt.Sprintf("version name %q already used in term", req.Name))
	}

	clone := &models.TimetableVersion{
		TermID: source.TermID,
		Name:   req.Name,
		Type:   source.Type,
		Status: models.TimetableVersionStatusDraft,
	}
	if err := s.store.CreateVersion(ctx, clone); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create clone")
	}
	if len(source.Lessons) > 0 {
		lessons := make([]models.Lesson, 0, len(source.Lessons))
		for _, lesson := range source.Lessons {
			lessons = append(lessons, models.Lesson{
				VersionID: clone.ID,
				SlotID:    lesson.SlotID,
				ClassID:   lesson.ClassID,
				SubjectID: lesson.SubjectID,
				TeacherID: lesson.TeacherID,
				VenueID:   lesson.VenueID,
			})
		}
		if err := s.store.InsertLessons(ctx, nil, lessons); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to copy lessons")
		}
	}
	s.logger.Info("timetable version cloned",
		zap.String("source_id", sourceID),
		zap.String("clone_id", clone.ID),
		zap.Int("lessons", len(source.Lessons)))
	return clone, nil
}

// AddLesson places one lesson into a draft after clash checks against the
// draft itself and the term's published versions.
func (s *TimetableService) AddLesson(ctx context.Context, versionID string, req dto.AddLessonRequest) (*models.Lesson, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid lesson payload")
	}
	version, err := s.requireDraft(ctx, versionID)
	if err != nil {
		return nil, err
	}
	if _, err := s.slots.FindByID(ctx, req.SlotID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Wrap(err, appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, "slot not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load slot")
	}
	if req.VenueID != nil {
		if _, err := s.venues.FindByID(ctx, *req.VenueID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Wrap(err, appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, "venue not found")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load venue")
		}
	}
	assigned, err := s.assignments.CountMatching(ctx, version.TermID, req.TeacherID, req.ClassID, req.SubjectID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check assignment")
	}
	if assigned == 0 {
		return nil, appErrors.Wrap(nil, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status,
			fmt.Sprintf("teacher %s is not assigned to subject %s for class %s", req.TeacherID, req.SubjectID, req.ClassID))
	}

	occupancy, err := s.store.ListSlotOccupancy(ctx, version.TermID, req.SlotID, versionID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check slot occupancy")
	}
	for _, busy := range occupancy {
		switch {
		case busy.TeacherID == req.TeacherID:
			return nil, appErrors.Wrap(nil, appErrors.ErrConflict.Code, appErrors.ErrConflict.Status, "teacher already scheduled at this slot")
		case busy.ClassID == req.ClassID:
			return nil, appErrors.Wrap(nil, appErrors.ErrConflict.Code, appErrors.ErrConflict.Status, "class already scheduled at this slot")
		case req.VenueID != nil && busy.VenueID != nil && *busy.VenueID == *req.VenueID:
			return nil, appErrors.Wrap(nil, appErrors.ErrConflict.Code, appErrors.ErrConflict.Status, "venue already booked at this slot")
		}
	}

	lesson := &models.Lesson{
		VersionID: versionID,
		SlotID:    req.SlotID,
		ClassID:   req.ClassID,
		SubjectID: req.SubjectID,
		TeacherID: req.TeacherID,
		VenueID:   req.VenueID,
	}
	if err := s.store.InsertLesson(ctx, lesson); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to insert lesson")
	}
	return lesson, nil
}

// RemoveLesson deletes a lesson from a draft.
func (s *TimetableService) RemoveLesson(ctx context.Context, versionID, lessonID string) error {
	if _, err := s.requireDraft(ctx, versionID); err != nil {
		return err
	}
	lesson, err := s.store.FindLessonByID(ctx, lessonID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Wrap(err, appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, "lesson not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load lesson")
	}
	if lesson.VersionID != versionID {
		return appErrors.Wrap(nil, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "lesson does not belong to version")
	}
	if err := s.store.DeleteLesson(ctx, lessonID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Wrap(err, appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, "lesson not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete lesson")
	}
	return nil
}

// PublishVersion promotes a draft to PUBLISHED. Any previously published
// version of the same term and type is archived in the same transaction, so
// readers never observe two published versions side by side.
func (s *TimetableService) PublishVersion(ctx context.Context, id string) (*models.TimetableVersion, error) {
	version, err := s.findVersion(ctx, id)
	if err != nil {
		return nil, err
	}
	if version.Status == models.TimetableVersionStatusPublished {
		return version, nil
	}
	if version.Status != models.TimetableVersionStatusDraft {
		return nil, appErrors.Wrap(nil, appErrors.ErrInvalidState.Code, appErrors.ErrInvalidState.Status,
			fmt.Sprintf("only draft versions can be published, version is %s", version.Status))
	}

	tx, err := s.store.BeginTxx(ctx, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to begin publish transaction")
	}
	publishedAt := s.now()
	if err := s.store.ArchivePublishedSiblings(ctx, tx, version.TermID, version.Type, id); err != nil {
		_ = tx.Rollback()
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to archive published version")
	}
	if err := s.store.MarkPublished(ctx, tx, id, publishedAt); err != nil {
		_ = tx.Rollback()
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to mark version published")
	}
	if err := tx.Commit(); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit publish")
	}

	version.Status = models.TimetableVersionStatusPublished
	version.PublishedAt = &publishedAt
	if s.reports != nil {
		s.reports.InvalidateTerm(ctx, version.TermID)
	}
	if s.distributor != nil {
		s.distributor.EnqueueVersionPublished(version.ID, version.TermID)
	}
	s.logger.Info("timetable version published",
		zap.String("version_id", version.ID),
		zap.String("term_id", version.TermID))
	return version, nil
}

// ArchiveVersion retires a version regardless of its current state. Archiving
// an archived version is a harmless re-stamp. Archived versions stay readable
// and cloneable but can never return to PUBLISHED.
func (s *TimetableService) ArchiveVersion(ctx context.Context, id string) (*models.TimetableVersion, error) {
	version, err := s.findVersion(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.store.UpdateStatus(ctx, nil, id, models.TimetableVersionStatusArchived); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to archive version")
	}
	version.Status = models.TimetableVersionStatusArchived
	if s.reports != nil {
		s.reports.InvalidateTerm(ctx, version.TermID)
	}
	return version, nil
}

// GenerateTimetable replaces a draft's lessons with a solver-produced layout.
func (s *TimetableService) GenerateTimetable(ctx context.Context, versionID string) (*dto.GenerateTimetableResponse, error) {
	started := s.now()
	version, err := s.requireDraft(ctx, versionID)
	if err != nil {
		return nil, err
	}
	term, err := s.terms.FindByID(ctx, version.TermID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Wrap(err, appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, "term not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load term")
	}

	demands, err := s.compiler.Compile(ctx, version.TermID)
	if err != nil {
		s.recordGeneration("rejected", started, 0, 0)
		return nil, err
	}
	slots, err := s.slots.ListBySchool(ctx, term.SchoolID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load slots")
	}
	if len(slots) == 0 {
		s.recordGeneration("rejected", started, 0, 0)
		return nil, appErrors.Wrap(nil, appErrors.ErrConfiguration.Code, appErrors.ErrConfiguration.Status, "no timetable slots defined for school")
	}
	venues, err := s.venues.ListBySchool(ctx, term.SchoolID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load venues")
	}
	matrix, err := s.availability.MatrixForTerm(ctx, version.TermID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load availability")
	}

	var occupied []models.SlotOccupancy
	if s.cfg.SeedFromPublished {
		occupied, err = s.store.ListPublishedOccupancy(ctx, version.TermID, versionID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load published occupancy")
		}
	}

	result := s.solver.Solve(SolveInput{
		Demands:      demands,
		Slots:        slots,
		Venues:       venues,
		Availability: matrix,
		Occupied:     occupied,
		Rand:         s.newRand(),
	})

	lessons := make([]models.Lesson, 0, len(result.Placed))
	for _, placed := range result.Placed {
		lessons = append(lessons, models.Lesson{
			VersionID: versionID,
			SlotID:    placed.SlotID,
			ClassID:   placed.Demand.ClassID,
			SubjectID: placed.Demand.SubjectID,
			TeacherID: placed.Demand.TeacherID,
			VenueID:   placed.VenueID,
		})
	}

	tx, err := s.store.BeginTxx(ctx, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to begin generation transaction")
	}
	if err := s.store.DeleteLessonsByVersion(ctx, tx, versionID); err != nil {
		_ = tx.Rollback()
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to clear draft lessons")
	}
	if err := s.store.InsertLessons(ctx, tx, lessons); err != nil {
		_ = tx.Rollback()
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store generated lessons")
	}
	if err := tx.Commit(); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit generation")
	}

	outcome := "complete"
	if len(result.Conflicts) > 0 {
		outcome = "partial"
	}
	s.recordGeneration(outcome, started, len(result.Placed), len(result.Conflicts))
	s.logger.Info("timetable generated",
		zap.String("version_id", versionID),
		zap.Int("placed", len(result.Placed)),
		zap.Int("total", len(demands)),
		zap.Int("conflicts", len(result.Conflicts)),
		zap.Int("score", result.Score))

	conflicts := result.Conflicts
	if conflicts == nil {
		conflicts = []string{}
	}
	return &dto.GenerateTimetableResponse{
		VersionID:   versionID,
		PlacedCount: len(result.Placed),
		TotalCount:  len(demands),
		Score:       result.Score,
		Conflicts:   conflicts,
		GeneratedAt: s.now(),
	}, nil
}

func (s *TimetableService) findVersion(ctx context.Context, id string) (*models.TimetableVersion, error) {
	version, err := s.store.FindVersionByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Wrap(err, appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, "version not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load version")
	}
	return version, nil
}

func (s *TimetableService) requireDraft(ctx context.Context, id string) (*models.TimetableVersion, error) {
	version, err := s.findVersion(ctx, id)
	if err != nil {
		return nil, err
	}
	if version.Status != models.TimetableVersionStatusDraft {
		return nil, appErrors.Wrap(nil, appErrors.ErrInvalidState.Code, appErrors.ErrInvalidState.Status,
			fmt.Sprintf("version must be a draft, got %s", version.Status))
	}
	return version, nil
}

func (s *TimetableService) recordGeneration(outcome string, started time.Time, placed, conflicts int) {
	if s.metrics == nil {
		return
	}
	s.metrics.RecordGeneration(outcome, s.now().Sub(started), placed, conflicts)
}
