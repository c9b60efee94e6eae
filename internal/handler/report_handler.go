package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-timetable-api/internal/dto"
	"github.com/noah-isme/sma-timetable-api/internal/models"
	appErrors "github.com/noah-isme/sma-timetable-api/pkg/errors"
	"github.com/noah-isme/sma-timetable-api/pkg/response"
)

type reportService interface {
	FindClashesInTerm(ctx context.Context, termID string) ([]dto.Clash, error)
	CompareVersions(ctx context.Context, baseID, targetID string) (*dto.VersionDiff, error)
	FindFreeSlots(ctx context.Context, termID string, filter dto.FreeSlotFilter) ([]models.TimetableSlot, error)
	VenueUtilizationReport(ctx context.Context, termID string) ([]dto.VenueUtilization, error)
	TeacherWorkloadReport(ctx context.Context, termID string) ([]dto.TeacherWorkload, error)
}

// ReportHandler exposes read-only analysis over published timetables.
type ReportHandler struct {
	service reportService
}

// NewReportHandler builds a new handler.
func NewReportHandler(service reportService) *ReportHandler {
	return &ReportHandler{service: service}
}

// Clashes godoc
// @Summary List clashes across published versions of a term
// @Tags Reports
// @Produce json
// @Param termId path string true "Term ID"
// @Success 200 {object} response.Envelope
// @Router /terms/{termId}/reports/clashes [get]
func (h *ReportHandler) Clashes(c *gin.Context) {
	clashes, err := h.service.FindClashesInTerm(c.Request.Context(), c.Param("termId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, clashes, nil)
}

// CompareVersions godoc
// @Summary Diff the lessons of two versions
// @Tags Reports
// @Produce json
// @Param base query string true "Base version ID"
// @Param target query string true "Target version ID"
// @Success 200 {object} response.Envelope
// @Router /reports/compare [get]
func (h *ReportHandler) CompareVersions(c *gin.Context) {
	baseID := c.Query("base")
	targetID := c.Query("target")
	if baseID == "" || targetID == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "base and target query parameters are required"))
		return
	}
	diff, err := h.service.CompareVersions(c.Request.Context(), baseID, targetID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, diff, nil)
}

// FreeSlots godoc
// @Summary List slots free for the given teacher, class or venue
// @Tags Reports
// @Produce json
// @Param termId path string true "Term ID"
// @Param teacherId query string false "Teacher ID"
// @Param classId query string false "Class ID"
// @Param venueId query string false "Venue ID"
// @Success 200 {object} response.Envelope
// @Router /terms/{termId}/reports/free-slots [get]
func (h *ReportHandler) FreeSlots(c *gin.Context) {
	filter := dto.FreeSlotFilter{
		TeacherID: optionalQuery(c, "teacherId"),
		ClassID:   optionalQuery(c, "classId"),
		VenueID:   optionalQuery(c, "venueId"),
	}
	slots, err := h.service.FindFreeSlots(c.Request.Context(), c.Param("termId"), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, slots, nil)
}

// VenueUtilization godoc
// @Summary Report booked-slot percentage per venue
// @Tags Reports
// @Produce json
// @Param termId path string true "Term ID"
// @Success 200 {object} response.Envelope
// @Router /terms/{termId}/reports/venue-utilization [get]
func (h *ReportHandler) VenueUtilization(c *gin.Context) {
	report, err := h.service.VenueUtilizationReport(c.Request.Context(), c.Param("termId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report, nil)
}

// TeacherWorkload godoc
// @Summary Report lesson counts per teacher
// @Tags Reports
// @Produce json
// @Param termId path string true "Term ID"
// @Success 200 {object} response.Envelope
// @Router /terms/{termId}/reports/teacher-workload [get]
func (h *ReportHandler) TeacherWorkload(c *gin.Context) {
	report, err := h.service.TeacherWorkloadReport(c.Request.Context(), c.Param("termId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report, nil)
}

func optionalQuery(c *gin.Context, key string) *string {
	value := c.Query(key)
	if value == "" {
		return nil
	}
	return &value
}
