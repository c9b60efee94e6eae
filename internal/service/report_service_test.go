package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-timetable-api/internal/dto"
	"github.com/noah-isme/sma-timetable-api/internal/models"
	appErrors "github.com/noah-isme/sma-timetable-api/pkg/errors"
)

type reportTimetableStub struct {
	published []models.VersionWithLessons
	versions  map[string]models.VersionWithLessons
	details   []models.LessonDetail
}

func (s reportTimetableStub) ListPublishedWithLessons(ctx context.Context, termID string) ([]models.VersionWithLessons, error) {
	return s.published, nil
}

func (s reportTimetableStub) FindVersionWithLessons(ctx context.Context, id string) (*models.VersionWithLessons, error) {
	version, ok := s.versions[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &version, nil
}

func (s reportTimetableStub) FindPublishedByTermAndType(ctx context.Context, termID string, timetableType models.TimetableType) (*models.TimetableVersion, error) {
	for _, version := range s.published {
		if version.Type == timetableType {
			v := version.TimetableVersion
			return &v, nil
		}
	}
	if len(s.details) > 0 {
		return &models.TimetableVersion{
			ID: "ver-published", TermID: termID, Type: timetableType,
			Status: models.TimetableVersionStatusPublished,
		}, nil
	}
	return nil, sql.ErrNoRows
}

func (s reportTimetableStub) ListPublishedLessonDetails(ctx context.Context, termID string) ([]models.LessonDetail, error) {
	return s.details, nil
}

type cacheStub struct {
	entries  map[string][]byte
	sets     []string
	patterns []string
}

func newCacheStub() *cacheStub {
	return &cacheStub{entries: map[string][]byte{}}
}

func (c *cacheStub) Get(ctx context.Context, key string, dest interface{}) error {
	raw, ok := c.entries[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (c *cacheStub) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.entries[key] = raw
	c.sets = append(c.sets, key)
	return nil
}

func (c *cacheStub) DeleteByPattern(ctx context.Context, pattern string) error {
	c.patterns = append(c.patterns, pattern)
	for key := range c.entries {
		delete(c.entries, key)
	}
	return nil
}

func publishedVersion(id, name string, lessons ...models.Lesson) models.VersionWithLessons {
	return models.VersionWithLessons{
		TimetableVersion: models.TimetableVersion{
			ID: id, TermID: "term-1", Name: name, Type: models.TimetableTypeLesson,
			Status: models.TimetableVersionStatusPublished,
		},
		Lessons: lessons,
	}
}

func TestReportServiceFindClashesAcrossVersions(t *testing.T) {
	timetables := reportTimetableStub{published: []models.VersionWithLessons{
		publishedVersion("ver-a", "Lessons",
			models.Lesson{ID: "l1", SlotID: "slot-1", TeacherID: "t-1", ClassID: "cls-1"},
		),
		publishedVersion("ver-b", "Exams",
			models.Lesson{ID: "l2", SlotID: "slot-1", TeacherID: "t-1", ClassID: "cls-2"},
		),
	}}
	svc := NewReportService(timetables, termReaderStub{}, slotReaderStub{}, venueReaderStub{}, nil, nil, ReportServiceConfig{})

	clashes, err := svc.FindClashesInTerm(context.Background(), "term-1")
	require.NoError(t, err)
	require.Len(t, clashes, 1)
	assert.Equal(t, "TEACHER", clashes[0].Dimension)
	assert.Equal(t, "t-1", clashes[0].ResourceID)
	assert.Equal(t, "slot-1", clashes[0].SlotID)
	assert.Len(t, clashes[0].Lessons, 2)
}

func TestReportServiceFindClashesNoneWhenDisjoint(t *testing.T) {
	timetables := reportTimetableStub{published: []models.VersionWithLessons{
		publishedVersion("ver-a", "Lessons",
			models.Lesson{ID: "l1", SlotID: "slot-1", TeacherID: "t-1", ClassID: "cls-1"},
			models.Lesson{ID: "l2", SlotID: "slot-2", TeacherID: "t-1", ClassID: "cls-1"},
		),
	}}
	svc := NewReportService(timetables, termReaderStub{}, slotReaderStub{}, venueReaderStub{}, nil, nil, ReportServiceConfig{})

	clashes, err := svc.FindClashesInTerm(context.Background(), "term-1")
	require.NoError(t, err)
	assert.Empty(t, clashes)
}

func TestReportServiceCompareVersions(t *testing.T) {
	timetables := reportTimetableStub{versions: map[string]models.VersionWithLessons{
		"ver-a": publishedVersion("ver-a", "Base",
			models.Lesson{ID: "l1", SlotID: "slot-1", TeacherID: "t-1", ClassID: "cls-1", SubjectID: "sub-1"},
			models.Lesson{ID: "l2", SlotID: "slot-2", TeacherID: "t-1", ClassID: "cls-1", SubjectID: "sub-2"},
		),
		"ver-b": publishedVersion("ver-b", "Target",
			models.Lesson{ID: "l3", SlotID: "slot-1", TeacherID: "t-1", ClassID: "cls-1", SubjectID: "sub-1"},
			models.Lesson{ID: "l4", SlotID: "slot-3", TeacherID: "t-1", ClassID: "cls-1", SubjectID: "sub-3"},
		),
	}}
	svc := NewReportService(timetables, termReaderStub{}, slotReaderStub{}, venueReaderStub{}, nil, nil, ReportServiceConfig{})

	diff, err := svc.CompareVersions(context.Background(), "ver-a", "ver-b")
	require.NoError(t, err)
	require.Len(t, diff.Added, 1)
	assert.Equal(t, "sub-3", diff.Added[0].SubjectID)
	require.Len(t, diff.Removed, 1)
	assert.Equal(t, "sub-2", diff.Removed[0].SubjectID)
}

func TestReportServiceCompareVersionsNotFound(t *testing.T) {
	svc := NewReportService(reportTimetableStub{}, termReaderStub{}, slotReaderStub{}, venueReaderStub{}, nil, nil, ReportServiceConfig{})

	_, err := svc.CompareVersions(context.Background(), "missing", "ver-b")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestReportServiceFindFreeSlotsWithTeacherFilter(t *testing.T) {
	slots := slotReaderStub{slots: []models.TimetableSlot{{ID: "slot-1"}, {ID: "slot-2"}, {ID: "slot-3"}}}
	timetables := reportTimetableStub{published: []models.VersionWithLessons{
		publishedVersion("ver-a", "Lessons",
			models.Lesson{ID: "l1", SlotID: "slot-1", TeacherID: "t-1", ClassID: "cls-1"},
			models.Lesson{ID: "l2", SlotID: "slot-2", TeacherID: "t-2", ClassID: "cls-2"},
		),
	}}
	svc := NewReportService(timetables, termReaderStub{}, slots, venueReaderStub{}, nil, nil, ReportServiceConfig{})

	teacher := "t-1"
	free, err := svc.FindFreeSlots(context.Background(), "term-1", dto.FreeSlotFilter{TeacherID: &teacher})
	require.NoError(t, err)
	require.Len(t, free, 2)
	assert.Equal(t, "slot-2", free[0].ID)
	assert.Equal(t, "slot-3", free[1].ID)
}

func TestReportServiceVenueUtilization(t *testing.T) {
	venueID := "venue-1"
	slots := slotReaderStub{slots: []models.TimetableSlot{{ID: "slot-1"}, {ID: "slot-2"}, {ID: "slot-3"}, {ID: "slot-4"}}}
	venues := venueReaderStub{venues: []models.Venue{
		{ID: "venue-1", Name: "Science Lab"},
		{ID: "venue-2", Name: "Gym"},
	}}
	timetables := reportTimetableStub{details: []models.LessonDetail{
		{Lesson: models.Lesson{ID: "l1", VenueID: &venueID}},
		{Lesson: models.Lesson{ID: "l2", VenueID: &venueID}},
		{Lesson: models.Lesson{ID: "l3"}},
	}}
	svc := NewReportService(timetables, termReaderStub{}, slots, venues, nil, nil, ReportServiceConfig{})

	report, err := svc.VenueUtilizationReport(context.Background(), "term-1")
	require.NoError(t, err)
	require.Len(t, report, 2)
	assert.Equal(t, 2, report[0].LessonCount)
	assert.InDelta(t, 50.0, report[0].UtilizationPct, 0.001)
	assert.Equal(t, 0, report[1].LessonCount)
}

func TestReportServiceVenueUtilizationWithoutPublishedVersion(t *testing.T) {
	svc := NewReportService(reportTimetableStub{}, termReaderStub{}, slotReaderStub{}, venueReaderStub{}, nil, nil, ReportServiceConfig{})

	_, err := svc.VenueUtilizationReport(context.Background(), "term-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestReportServiceTeacherWorkloadWithoutPublishedVersion(t *testing.T) {
	svc := NewReportService(reportTimetableStub{}, termReaderStub{}, slotReaderStub{}, venueReaderStub{}, nil, nil, ReportServiceConfig{})

	_, err := svc.TeacherWorkloadReport(context.Background(), "term-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestReportServiceTeacherWorkload(t *testing.T) {
	timetables := reportTimetableStub{details: []models.LessonDetail{
		{Lesson: models.Lesson{ID: "l1", TeacherID: "t-1", ClassID: "cls-1"}, TeacherName: "Ms. A"},
		{Lesson: models.Lesson{ID: "l2", TeacherID: "t-1", ClassID: "cls-2"}, TeacherName: "Ms. A"},
		{Lesson: models.Lesson{ID: "l3", TeacherID: "t-2", ClassID: "cls-1"}, TeacherName: "Mr. B"},
	}}
	svc := NewReportService(timetables, termReaderStub{}, slotReaderStub{}, venueReaderStub{}, nil, nil, ReportServiceConfig{})

	report, err := svc.TeacherWorkloadReport(context.Background(), "term-1")
	require.NoError(t, err)
	require.Len(t, report, 2)
	assert.Equal(t, "t-1", report[0].TeacherID)
	assert.Equal(t, 2, report[0].LessonCount)
	assert.Equal(t, 2, report[0].DistinctClass)
	assert.Equal(t, "t-2", report[1].TeacherID)
}

func TestReportServiceCachesAndInvalidates(t *testing.T) {
	cache := newCacheStub()
	timetables := reportTimetableStub{published: []models.VersionWithLessons{}}
	svc := NewReportService(timetables, termReaderStub{}, slotReaderStub{}, venueReaderStub{}, cache, nil, ReportServiceConfig{CacheEnabled: true})

	_, err := svc.FindClashesInTerm(context.Background(), "term-1")
	require.NoError(t, err)
	require.Contains(t, cache.sets, "reports:term:term-1:clashes")

	svc.InvalidateTerm(context.Background(), "term-1")
	assert.Contains(t, cache.patterns, "reports:term:term-1:*")
	assert.Empty(t, cache.entries)
}
