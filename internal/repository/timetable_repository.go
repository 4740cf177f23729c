package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/bitcampus/timetable-api/internal/models"
)

// TimetableRepository persists generated timetable entries.
type TimetableRepository struct {
	db *sqlx.DB
}

// NewTimetableRepository creates a new timetable repository.
func NewTimetableRepository(db *sqlx.DB) *TimetableRepository {
	return &TimetableRepository{db: db}
}

const entryColumns = `id, department_code, semester, course_code, course_name, faculty_id, faculty_name, session_type, slot_id, day_of_week, period_number, venue_name, created_at`

// ListByDepartmentSemester returns the current schedule of a department and
// semester ordered for grid rendering.
func (r *TimetableRepository) ListByDepartmentSemester(ctx context.Context, department string, semester int) ([]models.TimetableEntry, error) {
	query := fmt.Sprintf(`SELECT %s FROM timetable_entries WHERE department_code = $1 AND semester = $2 ORDER BY day_of_week ASC, period_number ASC, course_code ASC`, entryColumns)
	var entries []models.TimetableEntry
	if err := r.db.SelectContext(ctx, &entries, query, department, semester); err != nil {
		return nil, fmt.Errorf("list timetable entries: %w", err)
	}
	return entries, nil
}

// ListByFaculty returns every entry taught by one faculty across all
// departments.
func (r *TimetableRepository) ListByFaculty(ctx context.Context, facultyID string) ([]models.TimetableEntry, error) {
	query := fmt.Sprintf(`SELECT %s FROM timetable_entries WHERE faculty_id = $1 ORDER BY day_of_week ASC, period_number ASC`, entryColumns)
	var entries []models.TimetableEntry
	if err := r.db.SelectContext(ctx, &entries, query, facultyID); err != nil {
		return nil, fmt.Errorf("list timetable entries by faculty: %w", err)
	}
	return entries, nil
}

// ListVenueOccupancy returns the (day, period, venue) triples booked by
// other departments at the same semester. This feeds the global occupancy
// snapshot consulted during venue allocation.
func (r *TimetableRepository) ListVenueOccupancy(ctx context.Context, semester int, excludeDepartment string) ([]models.VenueOccupancy, error) {
	const query = `SELECT day_of_week, period_number, venue_name FROM timetable_entries WHERE semester = $1 AND department_code <> $2 AND venue_name IS NOT NULL AND venue_name <> ''`
	var occupancy []models.VenueOccupancy
	if err := r.db.SelectContext(ctx, &occupancy, query, semester, excludeDepartment); err != nil {
		return nil, fmt.Errorf("list venue occupancy: %w", err)
	}
	return occupancy, nil
}

// Replace atomically swaps the schedule of a department and semester for the
// given entries. On error the transaction rolls back and the prior schedule
// survives.
func (r *TimetableRepository) Replace(ctx context.Context, department string, semester int, entries []models.TimetableEntry) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace timetable: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM timetable_entries WHERE department_code = $1 AND semester = $2`, department, semester); err != nil {
		err = fmt.Errorf("delete prior timetable: %w", err)
		return err
	}

	now := time.Now().UTC()
	for i := range entries {
		payload := entries[i]
		if payload.ID == "" {
			payload.ID = uuid.NewString()
		}
		if payload.CreatedAt.IsZero() {
			payload.CreatedAt = now
		}
		if _, err = tx.NamedExecContext(ctx, `INSERT INTO timetable_entries (id, department_code, semester, course_code, course_name, faculty_id, faculty_name, session_type, slot_id, day_of_week, period_number, venue_name, created_at) VALUES (:id, :department_code, :semester, :course_code, :course_name, :faculty_id, :faculty_name, :session_type, :slot_id, :day_of_week, :period_number, :venue_name, :created_at)`, &payload); err != nil {
			err = fmt.Errorf("insert timetable entry: %w", err)
			return err
		}
		entries[i] = payload
	}

	if err = tx.Commit(); err != nil {
		err = fmt.Errorf("commit replace timetable: %w", err)
		return err
	}
	return nil
}

// DeleteByDepartmentSemester removes the schedule of a department and
// semester.
func (r *TimetableRepository) DeleteByDepartmentSemester(ctx context.Context, department string, semester int) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM timetable_entries WHERE department_code = $1 AND semester = $2`, department, semester); err != nil {
		return fmt.Errorf("delete timetable entries: %w", err)
	}
	return nil
}
