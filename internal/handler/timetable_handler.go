package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-timetable-api/internal/dto"
	"github.com/noah-isme/sma-timetable-api/internal/models"
	"github.com/noah-isme/sma-timetable-api/internal/service"
	appErrors "github.com/noah-isme/sma-timetable-api/pkg/errors"
	"github.com/noah-isme/sma-timetable-api/pkg/response"
)

type timetableService interface {
	CreateVersion(ctx context.Context, req dto.CreateVersionRequest) (*models.TimetableVersion, error)
	FindVersionWithLessons(ctx context.Context, id string) (*models.VersionWithLessons, error)
	ListVersionsByTerm(ctx context.Context, termID string) ([]models.TimetableVersion, error)
	CloneVersion(ctx context.Context, sourceID string, req dto.CloneVersionRequest) (*models.TimetableVersion, error)
	AddLesson(ctx context.Context, versionID string, req dto.AddLessonRequest) (*models.Lesson, error)
	RemoveLesson(ctx context.Context, versionID, lessonID string) error
	PublishVersion(ctx context.Context, id string) (*models.TimetableVersion, error)
	ArchiveVersion(ctx context.Context, id string) (*models.TimetableVersion, error)
	GenerateTimetable(ctx context.Context, versionID string) (*dto.GenerateTimetableResponse, error)
}

type exportService interface {
	ExportVersionCSV(ctx context.Context, versionID string) (*service.ExportResult, error)
	ExportVersionPDF(ctx context.Context, versionID string) (*service.ExportResult, error)
}

// TimetableHandler exposes version lifecycle and generation endpoints.
type TimetableHandler struct {
	service timetableService
	exports exportService
}

// NewTimetableHandler builds a new handler.
func NewTimetableHandler(service timetableService, exports exportService) *TimetableHandler {
	return &TimetableHandler{service: service, exports: exports}
}

// CreateVersion godoc
// @Summary Create a draft timetable version
// @Tags Timetables
// @Accept json
// @Produce json
// @Param payload body dto.CreateVersionRequest true "Version payload"
// @Success 201 {object} response.Envelope
// @Router /timetables/versions [post]
func (h *TimetableHandler) CreateVersion(c *gin.Context) {
	var req dto.CreateVersionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid version payload"))
		return
	}
	version, err := h.service.CreateVersion(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, version)
}

// GetVersion godoc
// @Summary Get a version with its lessons
// @Tags Timetables
// @Produce json
// @Param id path string true "Version ID"
// @Success 200 {object} response.Envelope
// @Router /timetables/versions/{id} [get]
func (h *TimetableHandler) GetVersion(c *gin.Context) {
	version, err := h.service.FindVersionWithLessons(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, version, nil)
}

// ListVersions godoc
// @Summary List versions of a term
// @Tags Timetables
// @Produce json
// @Param termId path string true "Term ID"
// @Success 200 {object} response.Envelope
// @Router /terms/{termId}/versions [get]
func (h *TimetableHandler) ListVersions(c *gin.Context) {
	versions, err := h.service.ListVersionsByTerm(c.Request.Context(), c.Param("termId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, versions, nil)
}

// CloneVersion godoc
// @Summary Clone a version into a new draft
// @Tags Timetables
// @Accept json
// @Produce json
// @Param id path string true "Source version ID"
// @Param payload body dto.CloneVersionRequest true "Clone payload"
// @Success 201 {object} response.Envelope
// @Router /timetables/versions/{id}/clone [post]
func (h *TimetableHandler) CloneVersion(c *gin.Context) {
	var req dto.CloneVersionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid clone payload"))
		return
	}
	clone, err := h.service.CloneVersion(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, clone)
}

// PublishVersion godoc
// @Summary Publish a draft version
// @Tags Timetables
// @Produce json
// @Param id path string true "Version ID"
// @Success 200 {object} response.Envelope
// @Router /timetables/versions/{id}/publish [post]
func (h *TimetableHandler) PublishVersion(c *gin.Context) {
	version, err := h.service.PublishVersion(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, version, nil)
}

// ArchiveVersion godoc
// @Summary Archive a version
// @Tags Timetables
// @Produce json
// @Param id path string true "Version ID"
// @Success 200 {object} response.Envelope
// @Router /timetables/versions/{id}/archive [post]
func (h *TimetableHandler) ArchiveVersion(c *gin.Context) {
	version, err := h.service.ArchiveVersion(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, version, nil)
}

// GenerateTimetable godoc
// @Summary Run the solver over a draft version
// @Tags Timetables
// @Produce json
// @Param id path string true "Version ID"
// @Success 200 {object} response.Envelope
// @Router /timetables/versions/{id}/generate [post]
func (h *TimetableHandler) GenerateTimetable(c *gin.Context) {
	result, err := h.service.GenerateTimetable(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// AddLesson godoc
// @Summary Add a lesson to a draft version
// @Tags Timetables
// @Accept json
// @Produce json
// @Param id path string true "Version ID"
// @Param payload body dto.AddLessonRequest true "Lesson payload"
// @Success 201 {object} response.Envelope
// @Router /timetables/versions/{id}/lessons [post]
func (h *TimetableHandler) AddLesson(c *gin.Context) {
	var req dto.AddLessonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid lesson payload"))
		return
	}
	lesson, err := h.service.AddLesson(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, lesson)
}

// RemoveLesson godoc
// @Summary Remove a lesson from a draft version
// @Tags Timetables
// @Param id path string true "Version ID"
// @Param lessonId path string true "Lesson ID"
// @Success 204
// @Router /timetables/versions/{id}/lessons/{lessonId} [delete]
func (h *TimetableHandler) RemoveLesson(c *gin.Context) {
	if err := h.service.RemoveLesson(c.Request.Context(), c.Param("id"), c.Param("lessonId")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ExportCSV godoc
// @Summary Download a version as CSV
// @Tags Timetables
// @Produce text/csv
// @Param id path string true "Version ID"
// @Success 200
// @Router /timetables/versions/{id}/export.csv [get]
func (h *TimetableHandler) ExportCSV(c *gin.Context) {
	result, err := h.exports.ExportVersionCSV(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", "attachment; filename="+result.Filename)
	c.Data(http.StatusOK, result.ContentType, result.Payload)
}

// ExportPDF godoc
// @Summary Download a version as PDF
// @Tags Timetables
// @Produce application/pdf
// @Param id path string true "Version ID"
// @Success 200
// @Router /timetables/versions/{id}/export.pdf [get]
func (h *TimetableHandler) ExportPDF(c *gin.Context) {
	result, err := h.exports.ExportVersionPDF(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", "attachment; filename="+result.Filename)
	c.Data(http.StatusOK, result.ContentType, result.Payload)
}
