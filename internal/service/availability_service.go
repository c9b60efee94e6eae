package service

import (
	"context"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-timetable-api/internal/dto"
	"github.com/noah-isme/sma-timetable-api/internal/models"
	appErrors "github.com/noah-isme/sma-timetable-api/pkg/errors"
)

type availabilityStore interface {
	BeginTxx(ctx context.Context) (*sqlx.Tx, error)
	ListByTeacherTerm(ctx context.Context, teacherID, termID string) ([]models.TeacherAvailability, error)
	DeleteByTeacherTerm(ctx context.Context, exec sqlx.ExtContext, teacherID, termID string) error
	InsertBatch(ctx context.Context, exec sqlx.ExtContext, entries []models.TeacherAvailability) error
}

// AvailabilityService manages teacher availability declarations. Reset is the
// only write: the caller always sends the full preference set for a term and
// the previous set is replaced wholesale.
type AvailabilityService struct {
	availability availabilityStore
	validator    *validator.Validate
	logger       *zap.Logger
}

// NewAvailabilityService constructs an AvailabilityService.
func NewAvailabilityService(availability availabilityStore, validate *validator.Validate, logger *zap.Logger) *AvailabilityService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AvailabilityService{availability: availability, validator: validate, logger: logger}
}

// ListForTeacher returns a teacher's current declarations.
func (s *AvailabilityService) ListForTeacher(ctx context.Context, teacherID, termID string) ([]models.TeacherAvailability, error) {
	entries, err := s.availability.ListByTeacherTerm(ctx, teacherID, termID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list availability")
	}
	return entries, nil
}

// Reset replaces a teacher's declarations for a term in one transaction.
// An empty entry list clears everything, restoring the AVAILABLE default.
func (s *AvailabilityService) Reset(ctx context.Context, req dto.ResetAvailabilityRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid availability payload")
	}
	seen := make(map[string]struct{}, len(req.Entries))
	for _, entry := range req.Entries {
		if _, dup := seen[entry.SlotID]; dup {
			return appErrors.Wrap(nil, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "duplicate slot in availability payload")
		}
		seen[entry.SlotID] = struct{}{}
	}

	entries := make([]models.TeacherAvailability, 0, len(req.Entries))
	for _, entry := range req.Entries {
		entries = append(entries, models.TeacherAvailability{
			TeacherID: req.TeacherID,
			TermID:    req.TermID,
			SlotID:    entry.SlotID,
			Status:    models.AvailabilityStatus(entry.Status),
		})
	}

	tx, err := s.availability.BeginTxx(ctx)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to begin availability reset")
	}
	if err := s.availability.DeleteByTeacherTerm(ctx, tx, req.TeacherID, req.TermID); err != nil {
		_ = tx.Rollback()
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to clear availability")
	}
	if len(entries) > 0 {
		if err := s.availability.InsertBatch(ctx, tx, entries); err != nil {
			_ = tx.Rollback()
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store availability")
		}
	}
	if err := tx.Commit(); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit availability reset")
	}

	s.logger.Info("teacher availability reset",
		zap.String("teacher_id", req.TeacherID),
		zap.String("term_id", req.TermID),
		zap.Int("entries", len(entries)))
	return nil
}
