package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/bitcampus/timetable-api/internal/dto"
	"github.com/bitcampus/timetable-api/internal/models"
	appErrors "github.com/bitcampus/timetable-api/pkg/errors"
	"github.com/bitcampus/timetable-api/pkg/export"
)

type timetableReader interface {
	ListByDepartmentSemester(ctx context.Context, department string, semester int) ([]models.TimetableEntry, error)
	ListByFaculty(ctx context.Context, facultyID string) ([]models.TimetableEntry, error)
	DeleteByDepartmentSemester(ctx context.Context, department string, semester int) error
}

// TimetableService serves the read side of generated timetables: flat
// listings, the grid projection, faculty views, and exports.
type TimetableService struct {
	repo   timetableReader
	cache  *CacheService
	csv    *export.CSVExporter
	pdf    *export.PDFExporter
	logger *zap.Logger
}

// NewTimetableService wires the timetable read service.
func NewTimetableService(repo timetableReader, cache *CacheService, logger *zap.Logger) *TimetableService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TimetableService{
		repo:   repo,
		cache:  cache,
		csv:    export.NewCSVExporter(),
		pdf:    export.NewPDFExporter(),
		logger: logger,
	}
}

func timetableCacheKey(department string, semester int) string {
	return fmt.Sprintf("timetable:%s:%d", department, semester)
}

// List returns the entries of one departmental timetable.
func (s *TimetableService) List(ctx context.Context, department string, semester int) ([]models.TimetableEntry, error) {
	if department == "" || semester < 1 || semester > 8 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "departmentCode and semester (1-8) are required")
	}

	key := timetableCacheKey(department, semester)
	var cached []models.TimetableEntry
	if hit, _ := s.cache.Get(ctx, key, &cached); hit {
		return cached, nil
	}

	entries, err := s.repo.ListByDepartmentSemester(ctx, department, semester)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list timetable")
	}
	_ = s.cache.Set(ctx, key, entries, 0)
	return entries, nil
}

// Grid projects a departmental timetable into its weekly day-by-period view.
func (s *TimetableService) Grid(ctx context.Context, department string, semester int) (*dto.TimetableGrid, error) {
	entries, err := s.List(ctx, department, semester)
	if err != nil {
		return nil, err
	}

	const periods = 8
	grid := &dto.TimetableGrid{
		DepartmentCode: department,
		Semester:       semester,
		Periods:        periods,
		Cells:          make(map[string][]*dto.GridCell),
	}

	seen := make(map[string]bool)
	for _, e := range entries {
		if !seen[e.DayOfWeek] {
			seen[e.DayOfWeek] = true
		}
	}
	for _, day := range models.WeekDays {
		if !seen[day] {
			continue
		}
		grid.Days = append(grid.Days, day)
		grid.Cells[day] = make([]*dto.GridCell, periods)
	}

	for _, e := range entries {
		if e.PeriodNumber < 1 || e.PeriodNumber > periods {
			continue
		}
		cell := &dto.GridCell{
			CourseCode:  e.CourseCode,
			CourseName:  e.CourseName,
			SessionType: string(e.SessionType),
		}
		if e.FacultyName != nil {
			cell.FacultyName = *e.FacultyName
		}
		if e.VenueName != nil {
			cell.VenueName = *e.VenueName
		}
		grid.Cells[e.DayOfWeek][e.PeriodNumber-1] = cell
	}
	return grid, nil
}

// FacultyView returns every entry one faculty teaches, across departments.
func (s *TimetableService) FacultyView(ctx context.Context, facultyID string) ([]models.TimetableEntry, error) {
	if facultyID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "faculty id is required")
	}
	entries, err := s.repo.ListByFaculty(ctx, facultyID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list faculty timetable")
	}
	return entries, nil
}

// Delete removes a departmental timetable and drops its cached projections.
func (s *TimetableService) Delete(ctx context.Context, department string, semester int) error {
	if department == "" || semester < 1 || semester > 8 {
		return appErrors.Clone(appErrors.ErrValidation, "departmentCode and semester (1-8) are required")
	}
	if err := s.repo.DeleteByDepartmentSemester(ctx, department, semester); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete timetable")
	}
	_ = s.cache.Invalidate(ctx, timetableCacheKey(department, semester))
	return nil
}

// InvalidateCache drops the cached projections after a regeneration.
func (s *TimetableService) InvalidateCache(ctx context.Context, department string, semester int) {
	_ = s.cache.Invalidate(ctx, timetableCacheKey(department, semester))
}

// ExportCSV renders the flat entry listing as CSV.
func (s *TimetableService) ExportCSV(ctx context.Context, department string, semester int) ([]byte, error) {
	entries, err := s.List(ctx, department, semester)
	if err != nil {
		return nil, err
	}

	rows := make([]export.EntryRow, 0, len(entries))
	for _, e := range entries {
		row := export.EntryRow{
			Day:        e.DayOfWeek,
			Period:     e.PeriodNumber,
			CourseCode: e.CourseCode,
			CourseName: e.CourseName,
			Session:    string(e.SessionType),
		}
		if e.FacultyName != nil {
			row.Faculty = *e.FacultyName
		}
		if e.VenueName != nil {
			row.Venue = *e.VenueName
		}
		rows = append(rows, row)
	}

	payload, err := s.csv.RenderEntries(rows)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv")
	}
	return payload, nil
}

// ExportPDF renders the weekly grid as a printable PDF.
func (s *TimetableService) ExportPDF(ctx context.Context, department string, semester int) ([]byte, error) {
	grid, err := s.Grid(ctx, department, semester)
	if err != nil {
		return nil, err
	}

	pdfGrid := export.WeeklyGrid{
		Title:   fmt.Sprintf("%s - Semester %d", department, semester),
		Days:    grid.Days,
		Periods: grid.Periods,
		Cells:   make(map[string][]string, len(grid.Days)),
	}
	for _, day := range grid.Days {
		labels := make([]string, grid.Periods)
		for i, cell := range grid.Cells[day] {
			if cell == nil {
				continue
			}
			label := cell.CourseCode
			if cell.VenueName != "" {
				label = fmt.Sprintf("%s (%s)", cell.CourseCode, cell.VenueName)
			}
			labels[i] = label
		}
		pdfGrid.Cells[day] = labels
	}

	payload, err := s.pdf.RenderGrid(pdfGrid)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf")
	}
	return payload, nil
}
