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

type availabilityService interface {
	Reset(ctx context.Context, req dto.ResetAvailabilityRequest) error
	ListForTeacher(ctx context.Context, teacherID, termID string) ([]models.TeacherAvailability, error)
}

// AvailabilityHandler manages teacher availability declarations.
type AvailabilityHandler struct {
	service availabilityService
}

// NewAvailabilityHandler builds a new handler.
func NewAvailabilityHandler(service availabilityService) *AvailabilityHandler {
	return &AvailabilityHandler{service: service}
}

// Reset godoc
// @Summary Replace a teacher's availability for a term
// @Tags Availability
// @Accept json
// @Produce json
// @Param payload body dto.ResetAvailabilityRequest true "Availability payload"
// @Success 204
// @Router /availability [put]
func (h *AvailabilityHandler) Reset(c *gin.Context) {
	var req dto.ResetAvailabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid availability payload"))
		return
	}
	if err := h.service.Reset(c.Request.Context(), req); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ListForTeacher godoc
// @Summary List a teacher's availability in a term
// @Tags Availability
// @Produce json
// @Param teacherId path string true "Teacher ID"
// @Param termId path string true "Term ID"
// @Success 200 {object} response.Envelope
// @Router /teachers/{teacherId}/terms/{termId}/availability [get]
func (h *AvailabilityHandler) ListForTeacher(c *gin.Context) {
	entries, err := h.service.ListForTeacher(c.Request.Context(), c.Param("teacherId"), c.Param("termId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entries, nil)
}
