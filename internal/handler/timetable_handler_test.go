package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-timetable-api/internal/dto"
	"github.com/noah-isme/sma-timetable-api/internal/models"
	"github.com/noah-isme/sma-timetable-api/internal/service"
	appErrors "github.com/noah-isme/sma-timetable-api/pkg/errors"
)

type timetableServiceMock struct {
	version     *models.TimetableVersion
	withLessons *models.VersionWithLessons
	versions    []models.TimetableVersion
	generated   *dto.GenerateTimetableResponse
	err         error
}

func (m *timetableServiceMock) CreateVersion(ctx context.Context, req dto.CreateVersionRequest) (*models.TimetableVersion, error) {
	return m.version, m.err
}

func (m *timetableServiceMock) FindVersionWithLessons(ctx context.Context, id string) (*models.VersionWithLessons, error) {
	return m.withLessons, m.err
}

func (m *timetableServiceMock) ListVersionsByTerm(ctx context.Context, termID string) ([]models.TimetableVersion, error) {
	return m.versions, m.err
}

func (m *timetableServiceMock) CloneVersion(ctx context.Context, sourceID string, req dto.CloneVersionRequest) (*models.TimetableVersion, error) {
	return m.version, m.err
}

func (m *timetableServiceMock) AddLesson(ctx context.Context, versionID string, req dto.AddLessonRequest) (*models.Lesson, error) {
	return nil, m.err
}

func (m *timetableServiceMock) RemoveLesson(ctx context.Context, versionID, lessonID string) error {
	return m.err
}

func (m *timetableServiceMock) PublishVersion(ctx context.Context, id string) (*models.TimetableVersion, error) {
	return m.version, m.err
}

func (m *timetableServiceMock) ArchiveVersion(ctx context.Context, id string) (*models.TimetableVersion, error) {
	return m.version, m.err
}

func (m *timetableServiceMock) GenerateTimetable(ctx context.Context, versionID string) (*dto.GenerateTimetableResponse, error) {
	return m.generated, m.err
}

type exportServiceMock struct {
	result *service.ExportResult
	err    error
}

func (m *exportServiceMock) ExportVersionCSV(ctx context.Context, versionID string) (*service.ExportResult, error) {
	return m.result, m.err
}

func (m *exportServiceMock) ExportVersionPDF(ctx context.Context, versionID string) (*service.ExportResult, error) {
	return m.result, m.err
}

func TestTimetableHandlerCreateVersion(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mock := &timetableServiceMock{version: &models.TimetableVersion{ID: "v-1", Name: "Week Plan", Status: models.TimetableVersionStatusDraft}}
	handler := NewTimetableHandler(mock, &exportServiceMock{})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	body, _ := json.Marshal(dto.CreateVersionRequest{TermID: "term-1", Name: "Week Plan", Type: "LESSON"})
	req, _ := http.NewRequest(http.MethodPost, "/timetables/versions", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	handler.CreateVersion(c)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), `"v-1"`)
}

func TestTimetableHandlerCreateVersionInvalidBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewTimetableHandler(&timetableServiceMock{}, &exportServiceMock{})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/timetables/versions", bytes.NewReader([]byte(`not json`)))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	handler.CreateVersion(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTimetableHandlerPublishMapsInvalidState(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mock := &timetableServiceMock{err: appErrors.ErrInvalidState}
	handler := NewTimetableHandler(mock, &exportServiceMock{})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/timetables/versions/v-1/publish", nil)
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "v-1"}}

	handler.PublishVersion(c)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestTimetableHandlerGenerate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mock := &timetableServiceMock{generated: &dto.GenerateTimetableResponse{
		VersionID:   "v-1",
		PlacedCount: 12,
		TotalCount:  12,
		Score:       80,
		Conflicts:   []string{},
	}}
	handler := NewTimetableHandler(mock, &exportServiceMock{})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/timetables/versions/v-1/generate", nil)
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "v-1"}}

	handler.GenerateTimetable(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"placedCount":12`)
	assert.Contains(t, w.Body.String(), `"conflicts":[]`)
}

func TestTimetableHandlerExportCSV(t *testing.T) {
	gin.SetMode(gin.TestMode)
	exports := &exportServiceMock{result: &service.ExportResult{
		Filename:    "timetable-week-plan-a1b2c3d4.csv",
		ContentType: "text/csv",
		Payload:     []byte("Day,Start,End,Class,Subject,Teacher,Venue\n"),
	}}
	handler := NewTimetableHandler(&timetableServiceMock{}, exports)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/timetables/versions/v-1/export.csv", nil)
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "v-1"}}

	handler.ExportCSV(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "attachment; filename=timetable-week-plan-a1b2c3d4.csv", w.Header().Get("Content-Disposition"))
	assert.Contains(t, w.Body.String(), "Day,Start,End")
}

func TestTimetableHandlerGetVersionNotFound(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mock := &timetableServiceMock{err: appErrors.ErrNotFound}
	handler := NewTimetableHandler(mock, &exportServiceMock{})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/timetables/versions/missing", nil)
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "missing"}}

	handler.GetVersion(c)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
