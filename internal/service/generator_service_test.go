package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bitcampus/timetable-api/internal/dto"
	"github.com/bitcampus/timetable-api/internal/models"
	appErrors "github.com/bitcampus/timetable-api/pkg/errors"
)

type fakeCourseReader struct {
	courses      []models.Course
	openElective *models.Course
}

func (f *fakeCourseReader) ListSchedulable(ctx context.Context, department string, semester int) ([]models.Course, error) {
	return f.courses, nil
}

func (f *fakeCourseReader) FindOpenElective(ctx context.Context, semester int) (*models.Course, error) {
	return f.openElective, nil
}

type fakeFacultyReader struct {
	teachers []models.CourseTeacher
}

func (f *fakeFacultyReader) ListCourseFaculty(ctx context.Context, courseCodes []string) ([]models.CourseTeacher, error) {
	return f.teachers, nil
}

type fakeSlotReader struct {
	slots []models.Slot
}

func (f *fakeSlotReader) ListActive(ctx context.Context) ([]models.Slot, error) {
	return f.slots, nil
}

type fakeVenueReader struct {
	pool []models.Venue
	pins []models.CourseVenuePin
}

func (f *fakeVenueReader) ListDepartmentPool(ctx context.Context, department string, semester int) ([]models.Venue, error) {
	return f.pool, nil
}

func (f *fakeVenueReader) ListCoursePins(ctx context.Context, department string) ([]models.CourseVenuePin, error) {
	return f.pins, nil
}

type fakeTimetableStore struct {
	occupancy    []models.VenueOccupancy
	saved        []models.TimetableEntry
	replaceCalls int
}

func (f *fakeTimetableStore) ListVenueOccupancy(ctx context.Context, semester int, excludeDepartment string) ([]models.VenueOccupancy, error) {
	return f.occupancy, nil
}

func (f *fakeTimetableStore) Replace(ctx context.Context, department string, semester int, entries []models.TimetableEntry) error {
	f.replaceCalls++
	f.saved = append([]models.TimetableEntry(nil), entries...)
	return nil
}

type generatorFixture struct {
	courses *fakeCourseReader
	faculty *fakeFacultyReader
	slots   *fakeSlotReader
	venues  *fakeVenueReader
	store   *fakeTimetableStore
	svc     *TimetableGeneratorService
}

func newGeneratorFixture(courses []models.Course, teachers []models.CourseTeacher, slots []models.Slot, pool []models.Venue) *generatorFixture {
	f := &generatorFixture{
		courses: &fakeCourseReader{courses: courses},
		faculty: &fakeFacultyReader{teachers: teachers},
		slots:   &fakeSlotReader{slots: slots},
		venues:  &fakeVenueReader{pool: pool},
		store:   &fakeTimetableStore{},
	}
	f.svc = NewTimetableGeneratorService(
		f.courses, f.faculty, f.slots, f.venues, f.store,
		nil, nil, nil,
		GeneratorConfig{SolverTimeLimit: 10 * time.Second, SolverWorkers: 2},
	)
	return f
}

func testSlots(days []string, periods []int) []models.Slot {
	var slots []models.Slot
	id := 1
	for _, d := range days {
		for _, p := range periods {
			slots = append(slots, models.Slot{
				ID:           id,
				DayOfWeek:    d,
				PeriodNumber: p,
				StartTime:    fmt.Sprintf("%02d:00", 8+p),
				EndTime:      fmt.Sprintf("%02d:00", 9+p),
				SlotType:     models.SlotTypeRegular,
				IsActive:     true,
			})
			id++
		}
	}
	return slots
}

func classroom(id int, name string) models.Venue {
	return models.Venue{ID: id, Name: name, IsLab: false, Capacity: 60}
}

func labRoom(id int, name string) models.Venue {
	return models.Venue{ID: id, Name: name, IsLab: true, Capacity: 30}
}

func entriesAt(entries []models.TimetableEntry, day string, period int) []models.TimetableEntry {
	var out []models.TimetableEntry
	for _, e := range entries {
		if e.DayOfWeek == day && e.PeriodNumber == period {
			out = append(out, e)
		}
	}
	return out
}

func assertNoCellConflicts(t *testing.T, entries []models.TimetableEntry) {
	t.Helper()
	seen := make(map[string]bool)
	for _, e := range entries {
		key := fmt.Sprintf("%s/%d", e.DayOfWeek, e.PeriodNumber)
		assert.False(t, seen[key], "cell %s booked twice", key)
		seen[key] = true
	}
}

func TestGenerateTinyFeasibleFillsEveryCell(t *testing.T) {
	weekdays := []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday"}
	f := newGeneratorFixture(
		[]models.Course{{Code: "C1", Name: "Data Structures", DepartmentCode: "CSE", Semester: 3, LectureHours: 3, Credits: 4}},
		[]models.CourseTeacher{{CourseCode: "C1", FacultyID: "F1", FacultyName: "Dr. Rao"}},
		testSlots(weekdays, []int{1, 2, 3, 4, 5, 6, 7, 8}),
		[]models.Venue{classroom(1, "CR-101")},
	)

	resp, err := f.svc.Generate(context.Background(), dto.GenerateTimetableRequest{
		DepartmentCode: "CSE",
		Semester:       3,
		MentorDay:      "wednesday",
		MentorPeriod:   8,
	})
	require.NoError(t, err)
	require.Equal(t, 1, f.store.replaceCalls)

	entries := f.store.saved
	assertNoCellConflicts(t, entries)
	assert.False(t, resp.Stats.Overloaded)

	// Every P1-P7 cell holds C1 theory; the absolute fallback leaves no gap.
	theory := 0
	for _, day := range weekdays {
		for p := 1; p <= 7; p++ {
			cell := entriesAt(entries, day, p)
			require.Len(t, cell, 1, "%s period %d", day, p)
			assert.Equal(t, "C1", cell[0].CourseCode)
			assert.Equal(t, models.SessionTheory, cell[0].SessionType)
			require.NotNil(t, cell[0].VenueName)
			assert.Equal(t, "CR-101", *cell[0].VenueName)
			require.NotNil(t, cell[0].FacultyID)
			assert.Equal(t, "F1", *cell[0].FacultyID)
			theory++
		}
	}
	assert.Equal(t, 35, theory)

	mentor := entriesAt(entries, "Wednesday", 8)
	require.Len(t, mentor, 1)
	assert.Equal(t, models.SessionMentor, mentor[0].SessionType)
	assert.Equal(t, "MENTOR", mentor[0].CourseCode)

	// Period 8 stays reserved on the other days.
	for _, day := range []string{"Monday", "Tuesday", "Thursday", "Friday"} {
		assert.Empty(t, entriesAt(entries, day, 8))
	}
	assert.Len(t, entries, 36)
}

func TestGenerateLabBlockPlacement(t *testing.T) {
	weekdays := []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday"}
	f := newGeneratorFixture(
		[]models.Course{{Code: "C1", Name: "Operating Systems", DepartmentCode: "CSE", Semester: 4, LectureHours: 2, PracticalHours: 4, Credits: 4}},
		[]models.CourseTeacher{{CourseCode: "C1", FacultyID: "F1", FacultyName: "Dr. Rao"}},
		testSlots(weekdays, []int{1, 2, 3, 4, 5, 6, 7}),
		[]models.Venue{classroom(1, "CR-101"), labRoom(2, "LAB-1")},
	)

	_, err := f.svc.Generate(context.Background(), dto.GenerateTimetableRequest{
		DepartmentCode: "CSE",
		Semester:       4,
		MentorDay:      "Friday",
		MentorPeriod:   8,
	})
	require.NoError(t, err)

	entries := f.store.saved
	assertNoCellConflicts(t, entries)

	// Two solver-placed blocks plus one residual-fill pair: the residual
	// phase grants a course with practical hours one extra pair.
	var labs []models.TimetableEntry
	for _, e := range entries {
		if e.SessionType == models.SessionLab && e.CourseCode == "C1" {
			labs = append(labs, e)
		}
	}
	require.Len(t, labs, 6)

	// Lab periods pair up per day, each pair starting at 1, 3, or 5.
	labByDay := make(map[string][]int)
	for _, e := range labs {
		labByDay[e.DayOfWeek] = append(labByDay[e.DayOfWeek], e.PeriodNumber)
		require.NotNil(t, e.VenueName)
		assert.Equal(t, "LAB-1", *e.VenueName)
	}
	require.Len(t, labByDay, 3)
	for day, periods := range labByDay {
		require.Len(t, periods, 2, "day %s", day)
		lo, hi := periods[0], periods[1]
		if lo > hi {
			lo, hi = hi, lo
		}
		assert.Equal(t, lo+1, hi)
		assert.Contains(t, []int{1, 3, 5}, lo)
	}


	// No cell stays empty.
	for _, day := range weekdays {
		for p := 1; p <= 7; p++ {
			assert.Len(t, entriesAt(entries, day, p), 1, "%s period %d", day, p)
		}
	}
}

func TestGenerateOverloadedOpensPeriodEight(t *testing.T) {
	days := []string{"Monday", "Tuesday"}
	f := newGeneratorFixture(
		[]models.Course{
			{Code: "C1", Name: "Course One", DepartmentCode: "CSE", Semester: 3, LectureHours: 4, Credits: 4},
			{Code: "C2", Name: "Course Two", DepartmentCode: "CSE", Semester: 3, LectureHours: 4, Credits: 3},
		},
		[]models.CourseTeacher{
			{CourseCode: "C1", FacultyID: "F1", FacultyName: "Dr. Rao"},
			{CourseCode: "C2", FacultyID: "F2", FacultyName: "Dr. Iyer"},
		},
		testSlots(days, []int{1, 2, 3, 8}),
		[]models.Venue{classroom(1, "CR-101")},
	)

	resp, err := f.svc.Generate(context.Background(), dto.GenerateTimetableRequest{
		DepartmentCode: "CSE",
		Semester:       3,
		MentorDay:      "Friday",
	})
	require.NoError(t, err)

	assert.True(t, resp.Stats.Overloaded)
	assert.True(t, resp.Stats.UseP8ForRegular)

	entries := f.store.saved
	assertNoCellConflicts(t, entries)
	assert.Len(t, entries, 8)

	// With period 8 open to regular theory, both P8 cells carry sessions.
	for _, day := range days {
		assert.Len(t, entriesAt(entries, day, 8), 1)
	}
}

func TestGenerateInfeasibleReportsCapacity(t *testing.T) {
	f := newGeneratorFixture(
		[]models.Course{{Code: "C1", Name: "Overfull", DepartmentCode: "CSE", Semester: 3, LectureHours: 8, Credits: 4}},
		[]models.CourseTeacher{{CourseCode: "C1", FacultyID: "F1", FacultyName: "Dr. Rao"}},
		testSlots([]string{"Monday"}, []int{1, 2, 3, 4, 5}),
		[]models.Venue{classroom(1, "CR-101")},
	)

	_, err := f.svc.Generate(context.Background(), dto.GenerateTimetableRequest{
		DepartmentCode: "CSE",
		Semester:       3,
		MentorDay:      "Friday",
	})
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrInfeasible))
	assert.Zero(t, f.store.replaceCalls, "prior schedule must stay untouched")
}

func TestGenerateNoCourses(t *testing.T) {
	f := newGeneratorFixture(nil, nil, testSlots([]string{"Monday"}, []int{1, 2}), nil)

	_, err := f.svc.Generate(context.Background(), dto.GenerateTimetableRequest{
		DepartmentCode: "CSE",
		Semester:       3,
		MentorDay:      "Monday",
	})
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrNoCourses))
}

func TestGenerateNoSlots(t *testing.T) {
	f := newGeneratorFixture(
		[]models.Course{{Code: "C1", Name: "Lonely", DepartmentCode: "CSE", Semester: 3, LectureHours: 2}},
		nil, nil, nil,
	)

	_, err := f.svc.Generate(context.Background(), dto.GenerateTimetableRequest{
		DepartmentCode: "CSE",
		Semester:       3,
		MentorDay:      "Monday",
	})
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrNoSlots))
}

func TestGenerateDropsLanguageElectiveWithoutFaculty(t *testing.T) {
	weekdays := []string{"Monday", "Tuesday"}
	f := newGeneratorFixture(
		[]models.Course{
			{Code: "C1", Name: "Kernel Design", DepartmentCode: "CSE", Semester: 3, LectureHours: 2, Credits: 4},
			{Code: "LANG1", Name: "French I", DepartmentCode: "CSE", Semester: 3, Category: "LANGUAGE ELECTIVE", LectureHours: 2},
		},
		[]models.CourseTeacher{{CourseCode: "C1", FacultyID: "F1", FacultyName: "Dr. Rao"}},
		testSlots(weekdays, []int{1, 2}),
		[]models.Venue{classroom(1, "CR-101")},
	)

	_, err := f.svc.Generate(context.Background(), dto.GenerateTimetableRequest{
		DepartmentCode: "CSE",
		Semester:       3,
		MentorDay:      "Friday",
	})
	require.NoError(t, err)
	for _, e := range f.store.saved {
		assert.NotEqual(t, "LANG1", e.CourseCode)
	}
}

func TestGenerateHonoursRoundRobin(t *testing.T) {
	weekdays := []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday"}
	f := newGeneratorFixture(
		[]models.Course{
			{Code: "C1", Name: "Core", DepartmentCode: "CSE", Semester: 5, LectureHours: 1, Credits: 4},
			{Code: "H1", Name: "Honours One", DepartmentCode: "CSE", Semester: 5, WeeklySessions: 2, IsHonours: true},
			{Code: "H2", Name: "Honours Two", DepartmentCode: "CSE", Semester: 5, WeeklySessions: 3, IsMinor: true},
		},
		[]models.CourseTeacher{
			{CourseCode: "C1", FacultyID: "F1", FacultyName: "Dr. Rao"},
			{CourseCode: "H1", FacultyID: "F2", FacultyName: "Dr. Iyer"},
			{CourseCode: "H2", FacultyID: "F3", FacultyName: "Dr. Menon"},
		},
		testSlots(weekdays, []int{1, 2, 3, 4, 5, 6, 7, 8}),
		[]models.Venue{classroom(1, "CR-101")},
	)

	_, err := f.svc.Generate(context.Background(), dto.GenerateTimetableRequest{
		DepartmentCode: "CSE",
		Semester:       5,
		MentorDay:      "Wednesday",
		MentorPeriod:   4,
	})
	require.NoError(t, err)

	entries := f.store.saved
	assertNoCellConflicts(t, entries)

	// Queue rotation interleaves the honours courses across period 8.
	var sequence []string
	for _, day := range weekdays {
		cell := entriesAt(entries, day, 8)
		require.Len(t, cell, 1, "%s period 8", day)
		sequence = append(sequence, cell[0].CourseCode)
	}
	assert.Equal(t, []string{"H1", "H2", "H1", "H2", "H2"}, sequence)

	mentor := entriesAt(entries, "Wednesday", 4)
	require.Len(t, mentor, 1)
	assert.Equal(t, models.SessionMentor, mentor[0].SessionType)
}

func TestGenerateCrossDepartmentVenueLock(t *testing.T) {
	f := newGeneratorFixture(
		[]models.Course{{Code: "C1", Name: "Circuits Lab", DepartmentCode: "ECE", Semester: 4, PracticalHours: 2, Credits: 2}},
		[]models.CourseTeacher{{CourseCode: "C1", FacultyID: "F1", FacultyName: "Dr. Rao"}},
		testSlots([]string{"Monday"}, []int{1, 2, 3, 4, 5, 6, 7}),
		[]models.Venue{classroom(1, "CR-201"), labRoom(2, "LAB-1"), labRoom(3, "LAB-2")},
	)
	// Another department holds LAB-1 all Monday.
	for p := 1; p <= 7; p++ {
		f.store.occupancy = append(f.store.occupancy, models.VenueOccupancy{
			DayOfWeek: "Monday", PeriodNumber: p, VenueName: "LAB-1",
		})
	}

	_, err := f.svc.Generate(context.Background(), dto.GenerateTimetableRequest{
		DepartmentCode: "ECE",
		Semester:       4,
		MentorDay:      "Friday",
	})
	require.NoError(t, err)

	for _, e := range f.store.saved {
		if e.SessionType == models.SessionLab {
			require.NotNil(t, e.VenueName)
			assert.Equal(t, "LAB-2", *e.VenueName, "occupied lab must not be reused")
		}
	}
}

func TestGenerateSemesterFiveOpenElectiveInjection(t *testing.T) {
	days := []string{"Monday", "Tuesday"}
	f := newGeneratorFixture(
		[]models.Course{{Code: "C1", Name: "Core", DepartmentCode: "CSE", Semester: 5, LectureHours: 2, Credits: 4}},
		[]models.CourseTeacher{{CourseCode: "C1", FacultyID: "F1", FacultyName: "Dr. Rao"}},
		testSlots(days, []int{1, 2, 3, 4}),
		[]models.Venue{classroom(1, "CR-101")},
	)
	f.courses.openElective = &models.Course{Code: "OE5", Name: "Open Elective", Semester: 5, IsOpenElective: true}

	_, err := f.svc.Generate(context.Background(), dto.GenerateTimetableRequest{
		DepartmentCode: "CSE",
		Semester:       5,
		MentorDay:      "Friday",
	})
	require.NoError(t, err)

	entries := f.store.saved
	assertNoCellConflicts(t, entries)
	assert.Len(t, entries, 8, "every cell must be filled")

	var openElectives []models.TimetableEntry
	for _, e := range entries {
		if e.SessionType == models.SessionOpenElective {
			openElectives = append(openElectives, e)
		}
	}
	require.Len(t, openElectives, 3)
	for _, e := range openElectives {
		assert.Equal(t, "OE5", e.CourseCode)
		assert.Nil(t, e.FacultyID)
		require.NotNil(t, e.FacultyName)
		assert.Equal(t, "Unassigned", *e.FacultyName)
	}
}

func TestGenerateMiniProjectTakesBlocks(t *testing.T) {
	days := []string{"Monday", "Tuesday"}
	f := newGeneratorFixture(
		[]models.Course{
			{Code: "C1", Name: "Core", DepartmentCode: "CSE", Semester: 6, LectureHours: 2, Credits: 4},
			{Code: "MP1", Name: "Mini Project I", DepartmentCode: "CSE", Semester: 6, Credits: 2},
		},
		[]models.CourseTeacher{
			{CourseCode: "C1", FacultyID: "F1", FacultyName: "Dr. Rao"},
			{CourseCode: "MP1", FacultyID: "F2", FacultyName: "Dr. Iyer"},
		},
		testSlots(days, []int{1, 2, 3, 4}),
		[]models.Venue{classroom(1, "CR-101"), labRoom(2, "LAB-1")},
	)

	_, err := f.svc.Generate(context.Background(), dto.GenerateTimetableRequest{
		DepartmentCode: "CSE",
		Semester:       6,
		MentorDay:      "Friday",
	})
	require.NoError(t, err)

	entries := f.store.saved
	assertNoCellConflicts(t, entries)
	assert.Len(t, entries, 8)

	byDay := make(map[string][]int)
	for _, e := range entries {
		if e.CourseCode == "MP1" {
			assert.Equal(t, models.SessionLab, e.SessionType)
			byDay[e.DayOfWeek] = append(byDay[e.DayOfWeek], e.PeriodNumber)
		}
	}
	total := 0
	for _, periods := range byDay {
		require.Len(t, periods, 2, "mini project periods must pair per day")
		lo, hi := periods[0], periods[1]
		if lo > hi {
			lo, hi = hi, lo
		}
		assert.Equal(t, lo+1, hi)
		total += 2
	}
	assert.Equal(t, 4, total, "mini project consumes two blocks")
}

func TestGenerateIdempotentForIdenticalInputs(t *testing.T) {
	build := func() *generatorFixture {
		return newGeneratorFixture(
			[]models.Course{{Code: "C1", Name: "Operating Systems", DepartmentCode: "CSE", Semester: 4, LectureHours: 2, PracticalHours: 4, Credits: 4}},
			[]models.CourseTeacher{{CourseCode: "C1", FacultyID: "F1", FacultyName: "Dr. Rao"}},
			testSlots([]string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday"}, []int{1, 2, 3, 4, 5, 6, 7}),
			[]models.Venue{classroom(1, "CR-101"), labRoom(2, "LAB-1")},
		)
	}
	req := dto.GenerateTimetableRequest{
		DepartmentCode: "CSE",
		Semester:       4,
		MentorDay:      "Friday",
	}

	f1 := build()
	_, err := f1.svc.Generate(context.Background(), req)
	require.NoError(t, err)

	f2 := build()
	_, err = f2.svc.Generate(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, f1.store.saved, f2.store.saved)
}

func TestGenerateMentorDayValidation(t *testing.T) {
	f := newGeneratorFixture(nil, nil, nil, nil)
	_, err := f.svc.Generate(context.Background(), dto.GenerateTimetableRequest{
		DepartmentCode: "CSE",
		Semester:       3,
		MentorDay:      "Funday",
	})
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))
}
