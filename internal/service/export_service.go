package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-timetable-api/internal/models"
	appErrors "github.com/noah-isme/sma-timetable-api/pkg/errors"
	"github.com/noah-isme/sma-timetable-api/pkg/export"
)

type exportTimetableReader interface {
	FindVersionByID(ctx context.Context, id string) (*models.TimetableVersion, error)
	ListLessonDetails(ctx context.Context, versionID string) ([]models.LessonDetail, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// ExportResult carries a rendered export with its suggested filename and
// content type.
type ExportResult struct {
	Filename    string
	ContentType string
	Payload     []byte
}

// ExportService renders a version's lessons into downloadable CSV or PDF.
type ExportService struct {
	timetables exportTimetableReader
	csv        csvRenderer
	pdf        pdfRenderer
	logger     *zap.Logger
}

// NewExportService constructs an ExportService. Nil renderers fall back to
// the defaults.
func NewExportService(timetables exportTimetableReader, csv csvRenderer, pdf pdfRenderer, logger *zap.Logger) *ExportService {
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{timetables: timetables, csv: csv, pdf: pdf, logger: logger}
}

var exportHeaders = []string{"Day", "Start", "End", "Class", "Subject", "Teacher", "Venue"}

var dayNames = map[int]string{
	1: "Monday",
	2: "Tuesday",
	3: "Wednesday",
	4: "Thursday",
	5: "Friday",
	6: "Saturday",
	7: "Sunday",
}

// ExportVersionCSV renders the version's lessons as CSV.
func (s *ExportService) ExportVersionCSV(ctx context.Context, versionID string) (*ExportResult, error) {
	version, dataset, err := s.buildDataset(ctx, versionID)
	if err != nil {
		return nil, err
	}
	payload, err := s.csv.Render(dataset)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv")
	}
	return &ExportResult{
		Filename:    exportFilename(version, "csv"),
		ContentType: "text/csv",
		Payload:     payload,
	}, nil
}

// ExportVersionPDF renders the version's lessons as a tabular PDF.
func (s *ExportService) ExportVersionPDF(ctx context.Context, versionID string) (*ExportResult, error) {
	version, dataset, err := s.buildDataset(ctx, versionID)
	if err != nil {
		return nil, err
	}
	payload, err := s.pdf.Render(dataset, version.Name)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf")
	}
	return &ExportResult{
		Filename:    exportFilename(version, "pdf"),
		ContentType: "application/pdf",
		Payload:     payload,
	}, nil
}

func (s *ExportService) buildDataset(ctx context.Context, versionID string) (*models.TimetableVersion, export.Dataset, error) {
	version, err := s.timetables.FindVersionByID(ctx, versionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, export.Dataset{}, appErrors.Wrap(err, appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, "version not found")
		}
		return nil, export.Dataset{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load version")
	}
	details, err := s.timetables.ListLessonDetails(ctx, versionID)
	if err != nil {
		return nil, export.Dataset{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load lessons")
	}

	rows := make([]map[string]string, 0, len(details))
	for _, detail := range details {
		venue := ""
		if detail.VenueName != nil {
			venue = *detail.VenueName
		}
		rows = append(rows, map[string]string{
			"Day":     dayName(detail.DayOfWeek),
			"Start":   detail.StartTime,
			"End":     detail.EndTime,
			"Class":   detail.ClassName,
			"Subject": detail.SubjectName,
			"Teacher": detail.TeacherName,
			"Venue":   venue,
		})
	}
	return version, export.Dataset{Headers: exportHeaders, Rows: rows}, nil
}

func dayName(day int) string {
	if name, ok := dayNames[day]; ok {
		return name
	}
	return fmt.Sprintf("Day %d", day)
}

func exportFilename(version *models.TimetableVersion, ext string) string {
	name := strings.ToLower(strings.ReplaceAll(version.Name, " ", "-"))
	id := version.ID
	if len(id) > 8 {
		id = id[:8]
	}
	return fmt.Sprintf("timetable-%s-%s.%s", name, id, ext)
}
