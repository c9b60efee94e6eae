package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-timetable-api/internal/dto"
	"github.com/noah-isme/sma-timetable-api/internal/models"
	appErrors "github.com/noah-isme/sma-timetable-api/pkg/errors"
)

type requirementStore interface {
	Create(ctx context.Context, requirement *models.SubjectRequirement) error
	FindByID(ctx context.Context, id string) (*models.SubjectRequirement, error)
	ListByTerm(ctx context.Context, termID string) ([]models.SubjectRequirement, error)
	CountByTermClassSubject(ctx context.Context, termID, classID, subjectID string) (int, error)
	Delete(ctx context.Context, id string) error
}

// RequirementService manages the weekly lesson demand declared per class and
// subject, the input the requirement compiler consumes.
type RequirementService struct {
	requirements requirementStore
	terms        timetableTermReader
	validator    *validator.Validate
	logger       *zap.Logger
}

// NewRequirementService constructs a RequirementService.
func NewRequirementService(requirements requirementStore, terms timetableTermReader, validate *validator.Validate, logger *zap.Logger) *RequirementService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RequirementService{requirements: requirements, terms: terms, validator: validate, logger: logger}
}

// Create declares a requirement, rejecting duplicates for the same
// term/class/subject triple.
func (s *RequirementService) Create(ctx context.Context, req dto.CreateRequirementRequest) (*models.SubjectRequirement, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid requirement payload")
	}
	if _, err := s.terms.FindByID(ctx, req.TermID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Wrap(err, appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, "term not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load term")
	}
	count, err := s.requirements.CountByTermClassSubject(ctx, req.TermID, req.ClassID, req.SubjectID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check requirement")
	}
	if count > 0 {
		return nil, appErrors.Wrap(nil, appErrors.ErrConflict.Code, appErrors.ErrConflict.Status,
			fmt.Sprintf("requirement already declared for class %s subject %s", req.ClassID, req.SubjectID))
	}

	requirement := &models.SubjectRequirement{
		TermID:            req.TermID,
		ClassID:           req.ClassID,
		SubjectID:         req.SubjectID,
		LessonsPerWeek:    req.LessonsPerWeek,
		RequiredVenueType: req.RequiredVenueType,
		IsDoublePeriod:    req.IsDoublePeriod,
	}
	if err := s.requirements.Create(ctx, requirement); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create requirement")
	}
	return requirement, nil
}

// ListByTerm returns a term's requirements.
func (s *RequirementService) ListByTerm(ctx context.Context, termID string) ([]models.SubjectRequirement, error) {
	requirements, err := s.requirements.ListByTerm(ctx, termID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list requirements")
	}
	return requirements, nil
}

// Delete removes a requirement.
func (s *RequirementService) Delete(ctx context.Context, id string) error {
	if _, err := s.requirements.FindByID(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Wrap(err, appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, "requirement not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load requirement")
	}
	if err := s.requirements.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete requirement")
	}
	return nil
}
