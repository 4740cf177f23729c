package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/bitcampus/timetable-api/internal/models"
)

// CourseRepository provides read access to the course master table.
type CourseRepository struct {
	db *sqlx.DB
}

// NewCourseRepository creates a new course repository.
func NewCourseRepository(db *sqlx.DB) *CourseRepository {
	return &CourseRepository{db: db}
}

const courseColumns = `course_code, course_name, department_code, semester, course_category, delivery_type, lecture_hours, tutorial_hours, practical_hours, weekly_sessions, credits, is_lab, is_elective, is_open_elective, is_honours, is_minor, is_add_course, enrolled_students`

// ListByDepartmentSemester returns all courses of a department and semester.
func (r *CourseRepository) ListByDepartmentSemester(ctx context.Context, department string, semester int) ([]models.Course, error) {
	query := fmt.Sprintf(`SELECT %s FROM course_master WHERE department_code = $1 AND semester = $2 ORDER BY course_code ASC`, courseColumns)
	var courses []models.Course
	if err := r.db.SelectContext(ctx, &courses, query, department, semester); err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}
	return courses, nil
}

// ListSchedulable returns the courses the generator places itself, i.e. the
// department's curriculum without open electives.
func (r *CourseRepository) ListSchedulable(ctx context.Context, department string, semester int) ([]models.Course, error) {
	query := fmt.Sprintf(`SELECT %s FROM course_master WHERE department_code = $1 AND semester = $2 AND is_open_elective = FALSE ORDER BY course_code ASC`, courseColumns)
	var courses []models.Course
	if err := r.db.SelectContext(ctx, &courses, query, department, semester); err != nil {
		return nil, fmt.Errorf("list schedulable courses: %w", err)
	}
	return courses, nil
}

// FindOpenElective returns the semester-wide open elective, if one exists.
func (r *CourseRepository) FindOpenElective(ctx context.Context, semester int) (*models.Course, error) {
	query := fmt.Sprintf(`SELECT %s FROM course_master WHERE semester = $1 AND is_open_elective = TRUE ORDER BY course_code ASC LIMIT 1`, courseColumns)
	var course models.Course
	if err := r.db.GetContext(ctx, &course, query, semester); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find open elective: %w", err)
	}
	return &course, nil
}
