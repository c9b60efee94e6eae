package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-timetable-api/internal/dto"
	appErrors "github.com/noah-isme/sma-timetable-api/pkg/errors"
	"github.com/noah-isme/sma-timetable-api/pkg/response"
)

type personalTimetableService interface {
	ResolveForUser(ctx context.Context, userID, termID string) (*dto.PersonalTimetableResponse, error)
}

// PersonalHandler serves the caller's own published schedule.
type PersonalHandler struct {
	service personalTimetableService
}

// NewPersonalHandler builds a new handler.
func NewPersonalHandler(service personalTimetableService) *PersonalHandler {
	return &PersonalHandler{service: service}
}

// MyTimetable godoc
// @Summary Get the personalized timetable for the authenticated user
// @Tags Personal
// @Produce json
// @Param termId query string true "Term ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /me/timetable [get]
func (h *PersonalHandler) MyTimetable(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	termID := c.Query("termId")
	if termID == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "termId query parameter is required"))
		return
	}
	view, err := h.service.ResolveForUser(c.Request.Context(), claims.UserID, termID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, view, nil)
}
