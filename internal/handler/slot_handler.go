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

type slotService interface {
	Create(ctx context.Context, req dto.CreateSlotRequest) (*models.TimetableSlot, error)
	ListBySchool(ctx context.Context, schoolID string) ([]models.TimetableSlot, error)
	Delete(ctx context.Context, id string) error
}

// SlotHandler manages the weekly slot grid.
type SlotHandler struct {
	service slotService
}

// NewSlotHandler builds a new handler.
func NewSlotHandler(service slotService) *SlotHandler {
	return &SlotHandler{service: service}
}

// Create godoc
// @Summary Create a timetable slot
// @Tags Slots
// @Accept json
// @Produce json
// @Param payload body dto.CreateSlotRequest true "Slot payload"
// @Success 201 {object} response.Envelope
// @Router /slots [post]
func (h *SlotHandler) Create(c *gin.Context) {
	var req dto.CreateSlotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid slot payload"))
		return
	}
	slot, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, slot)
}

// ListBySchool godoc
// @Summary List slots of a school ordered by day and start time
// @Tags Slots
// @Produce json
// @Param schoolId path string true "School ID"
// @Success 200 {object} response.Envelope
// @Router /schools/{schoolId}/slots [get]
func (h *SlotHandler) ListBySchool(c *gin.Context) {
	slots, err := h.service.ListBySchool(c.Request.Context(), c.Param("schoolId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, slots, nil)
}

// Delete godoc
// @Summary Delete an unused slot
// @Tags Slots
// @Param id path string true "Slot ID"
// @Success 204
// @Router /slots/{id} [delete]
func (h *SlotHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
