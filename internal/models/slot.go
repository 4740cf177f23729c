package models

import "strings"

// Slot types for the slot master grid.
const (
	SlotTypeRegular = "REGULAR"
	SlotTypeLunch   = "LUNCH"
	SlotTypeBreak   = "BREAK"
)

// Slot is one cell of the weekly grid.
type Slot struct {
	ID           int    `db:"slot_id" json:"slot_id"`
	DayOfWeek    string `db:"day_of_week" json:"day_of_week"`
	PeriodNumber int    `db:"period_number" json:"period_number"`
	StartTime    string `db:"start_time" json:"start_time"`
	EndTime      string `db:"end_time" json:"end_time"`
	SlotType     string `db:"slot_type" json:"slot_type"`
	IsActive     bool   `db:"is_active" json:"is_active"`
}

// WeekDays is the canonical day order for the grid.
var WeekDays = []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday"}

var weekDayIndex = func() map[string]int {
	m := make(map[string]int, len(WeekDays))
	for i, d := range WeekDays {
		m[d] = i
	}
	return m
}()

// DayIndex returns the position of a day in the canonical order, or -1 for
// an unknown day name.
func DayIndex(day string) int {
	if i, ok := weekDayIndex[day]; ok {
		return i
	}
	return -1
}

// NormalizeDay capitalizes a weekday name ("monday " -> "Monday").
func NormalizeDay(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}
	return strings.ToUpper(trimmed[:1]) + strings.ToLower(trimmed[1:])
}
