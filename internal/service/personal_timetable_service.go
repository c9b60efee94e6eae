package service

import (
	"context"
	"database/sql"
	"errors"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-timetable-api/internal/dto"
	"github.com/noah-isme/sma-timetable-api/internal/models"
	appErrors "github.com/noah-isme/sma-timetable-api/pkg/errors"
)

type personalUserReader interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
	FindTeacherByUserID(ctx context.Context, userID string) (*models.Teacher, error)
	FindStudentByUserID(ctx context.Context, userID string) (*models.Student, error)
	ListGuardianStudents(ctx context.Context, guardianUserID string) ([]models.Student, error)
}

type personalEnrollmentReader interface {
	FindActiveByStudent(ctx context.Context, studentID string) (*models.Enrollment, error)
}

type personalLessonReader interface {
	ListPublishedLessonDetails(ctx context.Context, termID string) ([]models.LessonDetail, error)
}

// PersonalTimetableService resolves the published timetable a user actually
// cares about: their teaching schedule, their class schedule, and their
// children's schedules. A user may hold several of these roles at once and
// gets every applicable section.
type PersonalTimetableService struct {
	users       personalUserReader
	enrollments personalEnrollmentReader
	lessons     personalLessonReader
	logger      *zap.Logger
}

// NewPersonalTimetableService constructs a PersonalTimetableService.
func NewPersonalTimetableService(users personalUserReader, enrollments personalEnrollmentReader, lessons personalLessonReader, logger *zap.Logger) *PersonalTimetableService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PersonalTimetableService{users: users, enrollments: enrollments, lessons: lessons, logger: logger}
}

// ResolveForUser assembles the personal timetable for a user in a term.
// Sections are derived from linked profiles, not from the login role alone,
// so a teacher who is also a parent sees both.
func (s *PersonalTimetableService) ResolveForUser(ctx context.Context, userID, termID string) (*dto.PersonalTimetableResponse, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Wrap(err, appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, "user not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}

	details, err := s.lessons.ListPublishedLessonDetails(ctx, termID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load published lessons")
	}

	response := &dto.PersonalTimetableResponse{UserID: user.ID, TermID: termID}

	teacher, err := s.users.FindTeacherByUserID(ctx, userID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve teacher profile")
	}
	if teacher != nil {
		response.HasTeacherRole = true
		response.TeacherSchedule = lessonViews(details, func(d models.LessonDetail) bool {
			return d.TeacherID == teacher.ID
		})
	}

	student, err := s.users.FindStudentByUserID(ctx, userID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve student profile")
	}
	if student != nil {
		response.HasStudentRole = true
		schedule, err := s.studentSchedule(ctx, student.ID, details)
		if err != nil {
			return nil, err
		}
		response.StudentSchedule = schedule
	}

	children, err := s.users.ListGuardianStudents(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve guardian links")
	}
	if len(children) > 0 {
		response.HasParentRole = true
		response.ChildrenSchedules = make([]dto.ChildSchedule, 0, len(children))
		for _, child := range children {
			schedule, err := s.studentSchedule(ctx, child.ID, details)
			if err != nil {
				return nil, err
			}
			response.ChildrenSchedules = append(response.ChildrenSchedules, dto.ChildSchedule{
				StudentID:   child.ID,
				StudentName: child.FullName,
				Lessons:     schedule,
			})
		}
	}

	return response, nil
}

// studentSchedule filters published lessons down to the student's active
// class. A student with no active enrollment gets an empty schedule.
func (s *PersonalTimetableService) studentSchedule(ctx context.Context, studentID string, details []models.LessonDetail) ([]dto.LessonView, error) {
	enrollment, err := s.enrollments.FindActiveByStudent(ctx, studentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return []dto.LessonView{}, nil
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve enrollment")
	}
	return lessonViews(details, func(d models.LessonDetail) bool {
		return d.ClassID == enrollment.ClassID
	}), nil
}

func lessonViews(details []models.LessonDetail, match func(models.LessonDetail) bool) []dto.LessonView {
	views := []dto.LessonView{}
	for _, detail := range details {
		if !match(detail) {
			continue
		}
		views = append(views, dto.LessonView{
			LessonID:    detail.ID,
			DayOfWeek:   detail.DayOfWeek,
			StartTime:   detail.StartTime,
			EndTime:     detail.EndTime,
			SubjectName: detail.SubjectName,
			ClassName:   detail.ClassName,
			TeacherName: detail.TeacherName,
			VenueName:   detail.VenueName,
		})
	}
	return views
}
