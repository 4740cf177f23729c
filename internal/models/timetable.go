package models

import "time"

// SessionType classifies a timetable entry.
type SessionType string

const (
	SessionTheory       SessionType = "THEORY"
	SessionLab          SessionType = "LAB"
	SessionMentor       SessionType = "MENTOR"
	SessionOpenElective SessionType = "OPEN_ELECTIVE"
)

// TimetableEntry is one scheduled cell of a departmental timetable. Day and
// period are denormalized from the slot for fast querying.
type TimetableEntry struct {
	ID             string      `db:"id" json:"id"`
	DepartmentCode string      `db:"department_code" json:"department_code"`
	Semester       int         `db:"semester" json:"semester"`
	CourseCode     string      `db:"course_code" json:"course_code"`
	CourseName     string      `db:"course_name" json:"course_name"`
	FacultyID      *string     `db:"faculty_id" json:"faculty_id,omitempty"`
	FacultyName    *string     `db:"faculty_name" json:"faculty_name,omitempty"`
	SessionType    SessionType `db:"session_type" json:"session_type"`
	SlotID         int         `db:"slot_id" json:"slot_id"`
	DayOfWeek      string      `db:"day_of_week" json:"day_of_week"`
	PeriodNumber   int         `db:"period_number" json:"period_number"`
	VenueName      *string     `db:"venue_name" json:"venue_name,omitempty"`
	CreatedAt      time.Time   `db:"created_at" json:"created_at"`
}

// VenueOccupancy is one booked (day, period, venue) triple read back from
// previously generated timetables.
type VenueOccupancy struct {
	DayOfWeek    string `db:"day_of_week"`
	PeriodNumber int    `db:"period_number"`
	VenueName    string `db:"venue_name"`
}
