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

type requirementService interface {
	Create(ctx context.Context, req dto.CreateRequirementRequest) (*models.SubjectRequirement, error)
	ListByTerm(ctx context.Context, termID string) ([]models.SubjectRequirement, error)
	Delete(ctx context.Context, id string) error
}

// RequirementHandler manages per-term subject requirements.
type RequirementHandler struct {
	service requirementService
}

// NewRequirementHandler builds a new handler.
func NewRequirementHandler(service requirementService) *RequirementHandler {
	return &RequirementHandler{service: service}
}

// Create godoc
// @Summary Create a subject requirement for a term
// @Tags Requirements
// @Accept json
// @Produce json
// @Param payload body dto.CreateRequirementRequest true "Requirement payload"
// @Success 201 {object} response.Envelope
// @Router /requirements [post]
func (h *RequirementHandler) Create(c *gin.Context) {
	var req dto.CreateRequirementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid requirement payload"))
		return
	}
	requirement, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, requirement)
}

// ListByTerm godoc
// @Summary List requirements of a term
// @Tags Requirements
// @Produce json
// @Param termId path string true "Term ID"
// @Success 200 {object} response.Envelope
// @Router /terms/{termId}/requirements [get]
func (h *RequirementHandler) ListByTerm(c *gin.Context) {
	requirements, err := h.service.ListByTerm(c.Request.Context(), c.Param("termId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, requirements, nil)
}

// Delete godoc
// @Summary Delete a requirement
// @Tags Requirements
// @Param id path string true "Requirement ID"
// @Success 204
// @Router /requirements/{id} [delete]
func (h *RequirementHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
