package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-timetable-api/internal/dto"
	"github.com/noah-isme/sma-timetable-api/internal/models"
	appErrors "github.com/noah-isme/sma-timetable-api/pkg/errors"
)

const defaultReportCacheTTL = 5 * time.Minute

type reportCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

type reportTimetableReader interface {
	ListPublishedWithLessons(ctx context.Context, termID string) ([]models.VersionWithLessons, error)
	FindVersionWithLessons(ctx context.Context, id string) (*models.VersionWithLessons, error)
	FindPublishedByTermAndType(ctx context.Context, termID string, timetableType models.TimetableType) (*models.TimetableVersion, error)
	ListPublishedLessonDetails(ctx context.Context, termID string) ([]models.LessonDetail, error)
}

type reportTermReader interface {
	FindByID(ctx context.Context, id string) (*models.Term, error)
}

type reportSlotReader interface {
	ListBySchool(ctx context.Context, schoolID string) ([]models.TimetableSlot, error)
}

type reportVenueReader interface {
	ListBySchool(ctx context.Context, schoolID string) ([]models.Venue, error)
}

// ReportServiceConfig tunes report caching.
type ReportServiceConfig struct {
	CacheEnabled bool
	CacheTTL     time.Duration
}

// ReportService derives read-only insights over published timetables: clash
// detection, version diffs, free-slot search, venue utilization and teacher
// workload. Term-scoped reports are cached in Redis and invalidated on
// publish and archive.
type ReportService struct {
	timetables reportTimetableReader
	terms      reportTermReader
	slots      reportSlotReader
	venues     reportVenueReader
	cache      reportCache
	logger     *zap.Logger
	cfg        ReportServiceConfig
}

// NewReportService constructs a ReportService. The cache may be nil.
func NewReportService(
	timetables reportTimetableReader,
	terms reportTermReader,
	slots reportSlotReader,
	venues reportVenueReader,
	cache reportCache,
	logger *zap.Logger,
	cfg ReportServiceConfig,
) *ReportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = defaultReportCacheTTL
	}
	return &ReportService{
		timetables: timetables,
		terms:      terms,
		slots:      slots,
		venues:     venues,
		cache:      cache,
		logger:     logger,
		cfg:        cfg,
	}
}

func termReportKey(termID, report string) string {
	return fmt.Sprintf("reports:term:%s:%s", termID, report)
}

// InvalidateTerm drops every cached report of a term.
func (s *ReportService) InvalidateTerm(ctx context.Context, termID string) {
	if !s.cacheActive() {
		return
	}
	if err := s.cache.DeleteByPattern(ctx, termReportKey(termID, "*")); err != nil {
		s.logger.Warn("failed to invalidate report cache", zap.String("term_id", termID), zap.Error(err))
	}
}

// FindClashesInTerm scans every published version of the term for teachers or
// classes booked twice at the same slot. Clashes can only arise across
// versions of different types, since each version is internally clash-free.
func (s *ReportService) FindClashesInTerm(ctx context.Context, termID string) ([]dto.Clash, error) {
	cacheKey := termReportKey(termID, "clashes")
	if s.cacheActive() {
		var cached []dto.Clash
		if err := s.cache.Get(ctx, cacheKey, &cached); err == nil {
			return cached, nil
		}
	}

	versions, err := s.timetables.ListPublishedWithLessons(ctx, termID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load published versions")
	}

	type groupKey struct {
		dimension string
		resource  string
		slot      string
	}
	groups := make(map[groupKey][]dto.ClashLessonRef)
	for _, version := range versions {
		for _, lesson := range version.Lessons {
			ref := dto.ClashLessonRef{LessonID: lesson.ID, VersionID: version.ID, VersionName: version.Name}
			groups[groupKey{"TEACHER", lesson.TeacherID, lesson.SlotID}] = append(groups[groupKey{"TEACHER", lesson.TeacherID, lesson.SlotID}], ref)
			groups[groupKey{"CLASS", lesson.ClassID, lesson.SlotID}] = append(groups[groupKey{"CLASS", lesson.ClassID, lesson.SlotID}], ref)
		}
	}

	clashes := []dto.Clash{}
	for key, refs := range groups {
		if len(refs) < 2 {
			continue
		}
		clashes = append(clashes, dto.Clash{
			Dimension:  key.dimension,
			ResourceID: key.resource,
			SlotID:     key.slot,
			Lessons:    refs,
		})
	}
	sort.Slice(clashes, func(i, j int) bool {
		if clashes[i].Dimension != clashes[j].Dimension {
			return clashes[i].Dimension < clashes[j].Dimension
		}
		if clashes[i].ResourceID != clashes[j].ResourceID {
			return clashes[i].ResourceID < clashes[j].ResourceID
		}
		return clashes[i].SlotID < clashes[j].SlotID
	})

	s.cacheSet(ctx, cacheKey, clashes)
	return clashes, nil
}

// CompareVersions diffs two versions by lesson identity. Added lists lessons
// present in the target but not the base, Removed the opposite.
func (s *ReportService) CompareVersions(ctx context.Context, baseID, targetID string) (*dto.VersionDiff, error) {
	base, err := s.loadVersion(ctx, baseID)
	if err != nil {
		return nil, err
	}
	target, err := s.loadVersion(ctx, targetID)
	if err != nil {
		return nil, err
	}

	baseSet := identitySet(base.Lessons)
	targetSet := identitySet(target.Lessons)

	diff := &dto.VersionDiff{Added: []dto.LessonIdentity{}, Removed: []dto.LessonIdentity{}}
	for key, identity := range targetSet {
		if _, ok := baseSet[key]; !ok {
			diff.Added = append(diff.Added, identity)
		}
	}
	for key, identity := range baseSet {
		if _, ok := targetSet[key]; !ok {
			diff.Removed = append(diff.Removed, identity)
		}
	}
	sortIdentities(diff.Added)
	sortIdentities(diff.Removed)
	return diff, nil
}

// FindFreeSlots returns the slots of the term's school where none of the
// filtered resources are booked in published timetables. Filters combine with
// OR semantics.
func (s *ReportService) FindFreeSlots(ctx context.Context, termID string, filter dto.FreeSlotFilter) ([]models.TimetableSlot, error) {
	term, err := s.loadTerm(ctx, termID)
	if err != nil {
		return nil, err
	}
	slots, err := s.slots.ListBySchool(ctx, term.SchoolID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load slots")
	}
	versions, err := s.timetables.ListPublishedWithLessons(ctx, termID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load published versions")
	}

	busy := make(map[string]struct{})
	for _, version := range versions {
		for _, lesson := range version.Lessons {
			if lessonMatchesFilter(lesson, filter) {
				busy[lesson.SlotID] = struct{}{}
			}
		}
	}

	free := []models.TimetableSlot{}
	for _, slot := range slots {
		if _, taken := busy[slot.ID]; !taken {
			free = append(free, slot)
		}
	}
	return free, nil
}

// VenueUtilizationReport reports, per venue, how many of the week's slots are
// booked in the published lesson timetable.
func (s *ReportService) VenueUtilizationReport(ctx context.Context, termID string) ([]dto.VenueUtilization, error) {
	cacheKey := termReportKey(termID, "venue-utilization")
	if s.cacheActive() {
		var cached []dto.VenueUtilization
		if err := s.cache.Get(ctx, cacheKey, &cached); err == nil {
			return cached, nil
		}
	}

	if err := s.requirePublishedLessonVersion(ctx, termID); err != nil {
		return nil, err
	}
	term, err := s.loadTerm(ctx, termID)
	if err != nil {
		return nil, err
	}
	slots, err := s.slots.ListBySchool(ctx, term.SchoolID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load slots")
	}
	venues, err := s.venues.ListBySchool(ctx, term.SchoolID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load venues")
	}
	details, err := s.timetables.ListPublishedLessonDetails(ctx, termID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load published lessons")
	}

	counts := make(map[string]int)
	for _, detail := range details {
		if detail.VenueID != nil {
			counts[*detail.VenueID]++
		}
	}

	report := make([]dto.VenueUtilization, 0, len(venues))
	for _, venue := range venues {
		entry := dto.VenueUtilization{
			VenueID:     venue.ID,
			VenueName:   venue.Name,
			LessonCount: counts[venue.ID],
			TotalSlots:  len(slots),
		}
		if entry.TotalSlots > 0 {
			entry.UtilizationPct = float64(entry.LessonCount) / float64(entry.TotalSlots) * 100
		}
		report = append(report, entry)
	}

	s.cacheSet(ctx, cacheKey, report)
	return report, nil
}

// TeacherWorkloadReport counts lessons and distinct classes per teacher in
// the published lesson timetable of a term.
func (s *ReportService) TeacherWorkloadReport(ctx context.Context, termID string) ([]dto.TeacherWorkload, error) {
	cacheKey := termReportKey(termID, "teacher-workload")
	if s.cacheActive() {
		var cached []dto.TeacherWorkload
		if err := s.cache.Get(ctx, cacheKey, &cached); err == nil {
			return cached, nil
		}
	}

	if err := s.requirePublishedLessonVersion(ctx, termID); err != nil {
		return nil, err
	}
	details, err := s.timetables.ListPublishedLessonDetails(ctx, termID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load published lessons")
	}

	type workload struct {
		name    string
		lessons int
		classes map[string]struct{}
	}
	byTeacher := make(map[string]*workload)
	for _, detail := range details {
		entry := byTeacher[detail.TeacherID]
		if entry == nil {
			entry = &workload{name: detail.TeacherName, classes: make(map[string]struct{})}
			byTeacher[detail.TeacherID] = entry
		}
		entry.lessons++
		entry.classes[detail.ClassID] = struct{}{}
	}

	report := make([]dto.TeacherWorkload, 0, len(byTeacher))
	for teacherID, entry := range byTeacher {
		report = append(report, dto.TeacherWorkload{
			TeacherID:     teacherID,
			TeacherName:   entry.name,
			LessonCount:   entry.lessons,
			DistinctClass: len(entry.classes),
		})
	}
	sort.Slice(report, func(i, j int) bool {
		if report[i].LessonCount != report[j].LessonCount {
			return report[i].LessonCount > report[j].LessonCount
		}
		return report[i].TeacherID < report[j].TeacherID
	})

	s.cacheSet(ctx, cacheKey, report)
	return report, nil
}

// requirePublishedLessonVersion guards the utilization and workload reports,
// which are only meaningful once the term has a published lesson timetable.
func (s *ReportService) requirePublishedLessonVersion(ctx context.Context, termID string) error {
	if _, err := s.timetables.FindPublishedByTermAndType(ctx, termID, models.TimetableTypeLesson); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Wrap(err, appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, "no published lesson timetable for term")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load published version")
	}
	return nil
}

func (s *ReportService) cacheActive() bool {
	return s.cfg.CacheEnabled && s.cache != nil
}

func (s *ReportService) cacheSet(ctx context.Context, key string, value interface{}) {
	if !s.cacheActive() {
		return
	}
	if err := s.cache.Set(ctx, key, value, s.cfg.CacheTTL); err != nil {
		s.logger.Warn("failed to cache report", zap.String("key", key), zap.Error(err))
	}
}

func (s *ReportService) loadVersion(ctx context.Context, id string) (*models.VersionWithLessons, error) {
	version, err := s.timetables.FindVersionWithLessons(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Wrap(err, appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, "version not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load version")
	}
	return version, nil
}

func (s *ReportService) loadTerm(ctx context.Context, id string) (*models.Term, error) {
	term, err := s.terms.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Wrap(err, appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, "term not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load term")
	}
	return term, nil
}

type identityKey struct {
	classID   string
	subjectID string
	teacherID string
	slotID    string
	venueID   string
}

func identitySet(lessons []models.Lesson) map[identityKey]dto.LessonIdentity {
	set := make(map[identityKey]dto.LessonIdentity, len(lessons))
	for _, lesson := range lessons {
		venue := ""
		if lesson.VenueID != nil {
			venue = *lesson.VenueID
		}
		key := identityKey{lesson.ClassID, lesson.SubjectID, lesson.TeacherID, lesson.SlotID, venue}
		set[key] = dto.LessonIdentity{
			ClassID:   lesson.ClassID,
			SubjectID: lesson.SubjectID,
			TeacherID: lesson.TeacherID,
			SlotID:    lesson.SlotID,
			VenueID:   lesson.VenueID,
		}
	}
	return set
}

func sortIdentities(identities []dto.LessonIdentity) {
	sort.Slice(identities, func(i, j int) bool {
		if identities[i].ClassID != identities[j].ClassID {
			return identities[i].ClassID < identities[j].ClassID
		}
		if identities[i].SubjectID != identities[j].SubjectID {
			return identities[i].SubjectID < identities[j].SubjectID
		}
		return identities[i].SlotID < identities[j].SlotID
	})
}

func lessonMatchesFilter(lesson models.Lesson, filter dto.FreeSlotFilter) bool {
	if filter.TeacherID == nil && filter.ClassID == nil && filter.VenueID == nil {
		return true
	}
	if filter.TeacherID != nil && lesson.TeacherID == *filter.TeacherID {
		return true
	}
	if filter.ClassID != nil && lesson.ClassID == *filter.ClassID {
		return true
	}
	if filter.VenueID != nil && lesson.VenueID != nil && *lesson.VenueID == *filter.VenueID {
		return true
	}
	return false
}
