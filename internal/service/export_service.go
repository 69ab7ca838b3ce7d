package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/campus-scheduler-api/internal/models"
	appErrors "github.com/noah-isme/campus-scheduler-api/pkg/errors"
	"github.com/noah-isme/campus-scheduler-api/pkg/export"
)

type timetableSource interface {
	FacultyTimetable(ctx context.Context, facultyID string) (*models.Timetable, error)
	RoomTimetable(ctx context.Context, roomID string) (*models.Timetable, error)
}

// ExportFile is a rendered document ready for download.
type ExportFile struct {
	Filename    string
	ContentType string
	Body        []byte
}

var timetableHeaders = []string{"Day", "Start", "End", "Course", "Section", "Type", "Room", "Faculty"}

// ExportService renders timetables as downloadable CSV or PDF documents.
type ExportService struct {
	timetables timetableSource
	renderers  map[string]export.Renderer
	logger     *zap.Logger
}

// NewExportService constructs an ExportService with the CSV and PDF
// renderers registered.
func NewExportService(timetables timetableSource, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{
		timetables: timetables,
		renderers: map[string]export.Renderer{
			"csv": export.NewCSVExporter(),
			"pdf": export.NewPDFExporter(),
		},
		logger: logger,
	}
}

// ExportFacultyTimetable renders the faculty timetable in the given format.
func (s *ExportService) ExportFacultyTimetable(ctx context.Context, facultyID, format string) (*ExportFile, error) {
	return s.render(ctx, format, func() (*models.Timetable, error) {
		return s.timetables.FacultyTimetable(ctx, facultyID)
	})
}

// ExportRoomTimetable renders the room timetable in the given format.
func (s *ExportService) ExportRoomTimetable(ctx context.Context, roomID, format string) (*ExportFile, error) {
	return s.render(ctx, format, func() (*models.Timetable, error) {
		return s.timetables.RoomTimetable(ctx, roomID)
	})
}

func (s *ExportService) render(ctx context.Context, format string, load func() (*models.Timetable, error)) (*ExportFile, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		format = "csv"
	}
	renderer, ok := s.renderers[format]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", format))
	}

	timetable, err := load()
	if err != nil {
		return nil, err
	}
	body, err := renderer.Render(timetableDataset(timetable))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render timetable")
	}

	filename := fmt.Sprintf("timetable_%s_%s.%s", timetable.OwnerKind, sanitizeFilename(timetable.OwnerName), renderer.Extension())
	s.logger.Debug("timetable exported", zap.String("owner_id", timetable.OwnerID), zap.String("format", format), zap.Int("bytes", len(body)))
	return &ExportFile{Filename: filename, ContentType: renderer.ContentType(), Body: body}, nil
}

func timetableDataset(timetable *models.Timetable) export.Dataset {
	rows := make([]map[string]string, 0, len(timetable.Entries))
	for _, entry := range timetable.Entries {
		rows = append(rows, map[string]string{
			"Day":     entry.Day,
			"Start":   entry.Start,
			"End":     entry.End,
			"Course":  entry.Course,
			"Section": entry.Section,
			"Type":    string(entry.Type),
			"Room":    derefString(entry.Room),
			"Faculty": derefString(entry.FacultyName),
		})
	}
	return export.Dataset{
		Title:   fmt.Sprintf("Weekly timetable: %s", timetable.OwnerName),
		Headers: timetableHeaders,
		Rows:    rows,
	}
}

func sanitizeFilename(raw string) string {
	if raw == "" {
		return "na"
	}
	replacer := strings.NewReplacer(" ", "_", "/", "-", "\\", "-", ":", "-", "..", ".", "\"", "")
	result := strings.ToLower(replacer.Replace(raw))
	if len(result) > 100 {
		return result[:100]
	}
	return result
}
