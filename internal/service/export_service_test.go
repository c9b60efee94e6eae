package service

import (
	"context"
	"database/sql"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-timetable-api/internal/models"
	appErrors "github.com/noah-isme/sma-timetable-api/pkg/errors"
)

type exportTimetableStub struct {
	version *models.TimetableVersion
	details []models.LessonDetail
}

func (s exportTimetableStub) FindVersionByID(ctx context.Context, id string) (*models.TimetableVersion, error) {
	if s.version == nil {
		return nil, sql.ErrNoRows
	}
	return s.version, nil
}

func (s exportTimetableStub) ListLessonDetails(ctx context.Context, versionID string) ([]models.LessonDetail, error) {
	return s.details, nil
}

func TestExportServiceCSV(t *testing.T) {
	venue := "Science Lab"
	stub := exportTimetableStub{
		version: &models.TimetableVersion{ID: "a1b2c3d4e5f6", Name: "Week Plan"},
		details: []models.LessonDetail{
			{
				Lesson:      models.Lesson{ID: "l1"},
				DayOfWeek:   1,
				StartTime:   "08:00",
				EndTime:     "08:45",
				SubjectName: "Math",
				ClassName:   "10A",
				TeacherName: "Ms. A",
				VenueName:   &venue,
			},
		},
	}
	svc := NewExportService(stub, nil, nil, nil)

	result, err := svc.ExportVersionCSV(context.Background(), "a1b2c3d4e5f6")
	require.NoError(t, err)
	assert.Equal(t, "text/csv", result.ContentType)
	assert.Equal(t, "timetable-week-plan-a1b2c3d4.csv", result.Filename)

	body := string(result.Payload)
	assert.True(t, strings.HasPrefix(body, "Day,Start,End,Class,Subject,Teacher,Venue"))
	assert.Contains(t, body, "Monday,08:00,08:45,10A,Math,Ms. A,Science Lab")
}

func TestExportServicePDF(t *testing.T) {
	stub := exportTimetableStub{
		version: &models.TimetableVersion{ID: "ver-1", Name: "Week Plan"},
		details: []models.LessonDetail{
			{Lesson: models.Lesson{ID: "l1"}, DayOfWeek: 2, StartTime: "09:00", EndTime: "09:45", SubjectName: "Biology", ClassName: "10A", TeacherName: "Mr. B"},
		},
	}
	svc := NewExportService(stub, nil, nil, nil)

	result, err := svc.ExportVersionPDF(context.Background(), "ver-1")
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", result.ContentType)
	assert.NotEmpty(t, result.Payload)
	assert.True(t, strings.HasSuffix(result.Filename, ".pdf"))
}

func TestExportServiceVersionNotFound(t *testing.T) {
	svc := NewExportService(exportTimetableStub{}, nil, nil, nil)

	_, err := svc.ExportVersionCSV(context.Background(), "missing")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
