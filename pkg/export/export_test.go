package export

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCSVExporterRenderEntries(t *testing.T) {
	payload, err := NewCSVExporter().RenderEntries([]EntryRow{
		{Day: "Monday", Period: 1, CourseCode: "C1", CourseName: "Data Structures", Faculty: "Dr. Rao", Session: "THEORY", Venue: "CR-101"},
		{Day: "Wednesday", Period: 8, CourseCode: "MENTOR", CourseName: "Mentor Interaction", Session: "MENTOR"},
	})
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(payload)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Day,Period,Course Code,Course Name,Faculty,Session,Venue", lines[0])
	assert.Equal(t, "Monday,1,C1,Data Structures,Dr. Rao,THEORY,CR-101", lines[1])
	assert.Equal(t, "Wednesday,8,MENTOR,Mentor Interaction,,MENTOR,", lines[2])
}

func TestCSVExporterRenderEmptyListing(t *testing.T) {
	payload, err := NewCSVExporter().RenderEntries(nil)
	require.NoError(t, err)
	assert.Equal(t, "Day,Period,Course Code,Course Name,Faculty,Session,Venue", strings.TrimSpace(string(payload)))
}

func TestPDFExporterRenderGrid(t *testing.T) {
	payload, err := NewPDFExporter().RenderGrid(WeeklyGrid{
		Title:   "CSE - Semester 3",
		Days:    []string{"Monday", "Tuesday"},
		Periods: 8,
		Cells: map[string][]string{
			"Monday":  {"C1 (CR-101)", "", "", "", "", "", "", ""},
			"Tuesday": {"", "", "C1 (LAB-1)", "C1 (LAB-1)", "", "", "", ""},
		},
	})
	require.NoError(t, err)
	require.True(t, len(payload) > 4)
	assert.Equal(t, "%PDF", string(payload[:4]))
}

func TestPDFExporterRequiresShape(t *testing.T) {
	_, err := NewPDFExporter().RenderGrid(WeeklyGrid{})
	assert.Error(t, err)
}
