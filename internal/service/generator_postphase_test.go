package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bitcampus/timetable-api/internal/models"
)

func TestMergeOpenElectiveLabelRenamesHighestElective(t *testing.T) {
	p := &problemInstance{
		Semester: 6,
		Courses: []models.Course{
			{Code: "E3", Name: "Elective Three", Category: "PROFESSIONAL ELECTIVE 3", IsElective: true},
			{Code: "E5", Name: "Elective Five", Category: "PROFESSIONAL ELECTIVE 5", IsElective: true},
			{Code: "C1", Name: "Core"},
		},
	}
	st := newPlacementState(p, newVenueAllocator(p, nil))
	st.entries = []models.TimetableEntry{
		{CourseCode: "E3", CourseName: "Elective Three"},
		{CourseCode: "E5", CourseName: "Elective Five"},
		{CourseCode: "E5", CourseName: "Elective Five"},
		{CourseCode: "C1", CourseName: "Core"},
	}

	oe := &models.Course{Code: "OE6", Name: "Open Elective", IsOpenElective: true}
	st.mergeOpenElectiveLabel(oe)

	assert.Equal(t, "Elective Three", st.entries[0].CourseName)
	assert.Equal(t, "Elective Five / OPEN ELECTIVE", st.entries[1].CourseName)
	assert.Equal(t, "Elective Five / OPEN ELECTIVE", st.entries[2].CourseName)
	assert.Equal(t, "Core", st.entries[3].CourseName)
}

func TestMergeOpenElectiveLabelIsIdempotent(t *testing.T) {
	p := &problemInstance{
		Semester: 6,
		Courses: []models.Course{
			{Code: "E5", Name: "Elective Five", Category: "PROFESSIONAL ELECTIVE 5", IsElective: true},
		},
	}
	st := newPlacementState(p, newVenueAllocator(p, nil))
	st.entries = []models.TimetableEntry{
		{CourseCode: "E5", CourseName: "Elective Five / OPEN ELECTIVE"},
	}

	st.mergeOpenElectiveLabel(&models.Course{Code: "OE6", IsOpenElective: true})
	assert.Equal(t, "Elective Five / OPEN ELECTIVE", st.entries[0].CourseName)
}

func TestMergeOpenElectiveLabelOnlySemesterSix(t *testing.T) {
	p := &problemInstance{
		Semester: 5,
		Courses: []models.Course{
			{Code: "E5", Name: "Elective Five", IsElective: true},
		},
	}
	st := newPlacementState(p, newVenueAllocator(p, nil))
	st.entries = []models.TimetableEntry{{CourseCode: "E5", CourseName: "Elective Five"}}

	st.mergeOpenElectiveLabel(&models.Course{Code: "OE6", IsOpenElective: true})
	assert.Equal(t, "Elective Five", st.entries[0].CourseName)
}

func TestClassifyGapsSplitsAroundBreaks(t *testing.T) {
	slots := map[gridKey]models.Slot{
		{"Monday", 1}: {ID: 1, DayOfWeek: "Monday", PeriodNumber: 1, StartTime: "09:00", EndTime: "10:00"},
		{"Monday", 2}: {ID: 2, DayOfWeek: "Monday", PeriodNumber: 2, StartTime: "10:00", EndTime: "11:00"},
		// Tea break between P2 and P3: not contiguous.
		{"Monday", 3}: {ID: 3, DayOfWeek: "Monday", PeriodNumber: 3, StartTime: "11:15", EndTime: "12:15"},
	}
	p := &problemInstance{
		MentorDay:    "Friday",
		MentorPeriod: 8,
		Days:         []string{"Monday"},
		DayPeriods:   map[string][]int{"Monday": {1, 2, 3}},
		Slots:        slots,
	}
	st := newPlacementState(p, newVenueAllocator(p, nil))

	blocks, singles := st.classifyGaps()
	require.Len(t, blocks, 1)
	assert.Equal(t, freeBlock{"Monday", 1, 2}, blocks[0])
	require.Len(t, singles, 1)
	assert.Equal(t, gridKey{"Monday", 3}, singles[0])
}
