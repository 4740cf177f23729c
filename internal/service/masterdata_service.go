package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/bitcampus/timetable-api/internal/models"
	appErrors "github.com/bitcampus/timetable-api/pkg/errors"
)

type departmentLister interface {
	List(ctx context.Context) ([]models.Department, error)
	FindByCode(ctx context.Context, code string) (*models.Department, error)
}

type courseLister interface {
	ListByDepartmentSemester(ctx context.Context, department string, semester int) ([]models.Course, error)
}

type facultyLister interface {
	List(ctx context.Context) ([]models.Faculty, error)
}

type venueLister interface {
	List(ctx context.Context) ([]models.Venue, error)
}

type slotLister interface {
	List(ctx context.Context) ([]models.Slot, error)
}

// MasterDataService serves the read-only curriculum surface: departments,
// courses, faculty, venues, and the slot grid. Mutation happens through the
// spreadsheet import pipeline, not this API.
type MasterDataService struct {
	departments departmentLister
	courses     courseLister
	faculty     facultyLister
	venues      venueLister
	slots       slotLister
}

// NewMasterDataService wires the master data read service.
func NewMasterDataService(departments departmentLister, courses courseLister, faculty facultyLister, venues venueLister, slots slotLister) *MasterDataService {
	return &MasterDataService{
		departments: departments,
		courses:     courses,
		faculty:     faculty,
		venues:      venues,
		slots:       slots,
	}
}

// Departments lists all departments.
func (s *MasterDataService) Departments(ctx context.Context) ([]models.Department, error) {
	departments, err := s.departments.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list departments")
	}
	return departments, nil
}

// Courses lists the curriculum of one department and semester. Unknown
// department codes surface as not-found rather than an empty listing.
func (s *MasterDataService) Courses(ctx context.Context, department string, semester int) ([]models.Course, error) {
	if department == "" || semester < 1 || semester > 8 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "departmentCode and semester (1-8) are required")
	}
	if _, err := s.departments.FindByCode(ctx, department); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("department %s not found", department))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load department")
	}
	courses, err := s.courses.ListByDepartmentSemester(ctx, department, semester)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list courses")
	}
	return courses, nil
}

// Faculty lists all faculty.
func (s *MasterDataService) Faculty(ctx context.Context) ([]models.Faculty, error) {
	faculty, err := s.faculty.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list faculty")
	}
	return faculty, nil
}

// Venues lists all venues.
func (s *MasterDataService) Venues(ctx context.Context) ([]models.Venue, error) {
	venues, err := s.venues.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list venues")
	}
	return venues, nil
}

// Slots lists the full slot grid.
func (s *MasterDataService) Slots(ctx context.Context) ([]models.Slot, error) {
	slots, err := s.slots.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list slots")
	}
	return slots, nil
}
