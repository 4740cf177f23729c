package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/bitcampus/timetable-api/internal/models"
)

// VenueRepository provides read access to venues and their bindings.
type VenueRepository struct {
	db *sqlx.DB
}

// NewVenueRepository creates a new venue repository.
func NewVenueRepository(db *sqlx.DB) *VenueRepository {
	return &VenueRepository{db: db}
}

// List returns all venues ordered by name.
func (r *VenueRepository) List(ctx context.Context) ([]models.Venue, error) {
	const query = `SELECT venue_id, venue_name, block, is_lab, capacity FROM venue_master ORDER BY venue_name ASC`
	var venues []models.Venue
	if err := r.db.SelectContext(ctx, &venues, query); err != nil {
		return nil, fmt.Errorf("list venues: %w", err)
	}
	return venues, nil
}

// ListDepartmentPool returns the venues pooled for a department and
// semester, in mapping order so allocator rotation is stable.
func (r *VenueRepository) ListDepartmentPool(ctx context.Context, department string, semester int) ([]models.Venue, error) {
	const query = `SELECT v.venue_id, v.venue_name, v.block, v.is_lab, v.capacity FROM department_venue_map m JOIN venue_master v ON v.venue_id = m.venue_id WHERE m.department_code = $1 AND m.semester = $2 ORDER BY m.id ASC`
	var venues []models.Venue
	if err := r.db.SelectContext(ctx, &venues, query, department, semester); err != nil {
		return nil, fmt.Errorf("list department venue pool: %w", err)
	}
	return venues, nil
}

// ListCoursePins returns the per-course pinned venues of a department.
func (r *VenueRepository) ListCoursePins(ctx context.Context, department string) ([]models.CourseVenuePin, error) {
	const query = `SELECT m.course_code, v.venue_name FROM course_venue_map m JOIN venue_master v ON v.venue_id = m.venue_id WHERE m.department_code = $1 ORDER BY m.id ASC`
	var pins []models.CourseVenuePin
	if err := r.db.SelectContext(ctx, &pins, query, department); err != nil {
		return nil, fmt.Errorf("list course venue pins: %w", err)
	}
	return pins, nil
}
