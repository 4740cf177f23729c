package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
)

// EntryRow is one flat timetable line in export order. Faculty and Venue
// are blank for entries without one (mentor hour, unassigned electives).
type EntryRow struct {
	Day        string
	Period     int
	CourseCode string
	CourseName string
	Faculty    string
	Session    string
	Venue      string
}

// entryHeaders fixes the column convention for flat timetable exports.
var entryHeaders = []string{"Day", "Period", "Course Code", "Course Name", "Faculty", "Session", "Venue"}

// CSVExporter renders flat timetable listings into CSV bytes.
type CSVExporter struct{}

// NewCSVExporter builds a CSV exporter.
func NewCSVExporter() *CSVExporter {
	return &CSVExporter{}
}

// RenderEntries produces CSV encoded bytes for the rows, one line per
// timetable entry under the fixed header set.
func (e *CSVExporter) RenderEntries(rows []EntryRow) ([]byte, error) {
	buf := &bytes.Buffer{}
	writer := csv.NewWriter(buf)
	if err := writer.Write(entryHeaders); err != nil {
		return nil, fmt.Errorf("write csv headers: %w", err)
	}
	for _, row := range rows {
		record := []string{
			row.Day,
			strconv.Itoa(row.Period),
			row.CourseCode,
			row.CourseName,
			row.Faculty,
			row.Session,
			row.Venue,
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("write csv row: %w", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), nil
}
