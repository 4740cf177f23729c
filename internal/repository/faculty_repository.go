package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/bitcampus/timetable-api/internal/models"
)

// FacultyRepository provides read access to faculty and their course mappings.
type FacultyRepository struct {
	db *sqlx.DB
}

// NewFacultyRepository creates a new faculty repository.
func NewFacultyRepository(db *sqlx.DB) *FacultyRepository {
	return &FacultyRepository{db: db}
}

// List returns all faculty ordered by id.
func (r *FacultyRepository) List(ctx context.Context) ([]models.Faculty, error) {
	const query = `SELECT faculty_id, faculty_name, faculty_email, department_code, status FROM faculty_master ORDER BY faculty_id ASC`
	var faculty []models.Faculty
	if err := r.db.SelectContext(ctx, &faculty, query); err != nil {
		return nil, fmt.Errorf("list faculty: %w", err)
	}
	return faculty, nil
}

// ListCourseFaculty returns the teachers mapped to the given courses. The
// faculty name falls back to the mapped id when the master row is missing,
// matching how spreadsheet imports leave dangling ids behind.
func (r *FacultyRepository) ListCourseFaculty(ctx context.Context, courseCodes []string) ([]models.CourseTeacher, error) {
	if len(courseCodes) == 0 {
		return nil, nil
	}
	query, args, err := sqlx.In(`SELECT m.course_code, m.faculty_id, COALESCE(f.faculty_name, m.faculty_id) AS faculty_name FROM course_faculty_map m LEFT JOIN faculty_master f ON f.faculty_id = m.faculty_id WHERE m.course_code IN (?) ORDER BY m.course_code ASC, m.id ASC`, courseCodes)
	if err != nil {
		return nil, fmt.Errorf("build course faculty query: %w", err)
	}
	query = r.db.Rebind(query)
	var teachers []models.CourseTeacher
	if err := r.db.SelectContext(ctx, &teachers, query, args...); err != nil {
		return nil, fmt.Errorf("list course faculty: %w", err)
	}
	return teachers, nil
}
