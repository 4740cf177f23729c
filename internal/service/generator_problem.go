package service

import (
	"sort"

	"github.com/bitcampus/timetable-api/internal/models"
)

// gridKey addresses one cell of the weekly grid.
type gridKey struct {
	Day    string
	Period int
}

// labBlockStarts are the periods a two-period lab block may begin at.
var labBlockStarts = []int{1, 3, 5}

// problemInstance is the fully materialized scheduling problem for one
// (department, semester) pair. It is assembled once per generation request
// and treated as immutable afterwards.
type problemInstance struct {
	Department   string
	Semester     int
	MentorDay    string
	MentorPeriod int

	// Courses is every schedulable course in input order; Regular and
	// Honours are filtered views preserving that order.
	Courses []models.Course
	Regular []models.Course
	Honours []models.Course

	CourseFaculty map[string][]models.CourseTeacher

	Days       []string
	DayPeriods map[string][]int
	Slots      map[gridKey]models.Slot

	TheoryCount map[string]int
	LabBlocks   map[string]int

	P17Slots        int
	P8Slots         int
	RegSessions     int
	HonSessions     int
	Overloaded      bool
	UseP8ForRegular bool

	PinnedVenues      map[string]string
	DefaultLabs       []string
	DefaultClassrooms []string

	// GlobalOccupancy maps a cell to the venue names already booked by
	// other departments at the same semester.
	GlobalOccupancy map[gridKey]map[string]bool
}

// MaxRegularPeriod is the last period the constraint model may place regular
// theory into.
func (p *problemInstance) MaxRegularPeriod() int {
	if p.UseP8ForRegular {
		return 8
	}
	return 7
}

// IsMentorCell reports whether the cell is the reserved mentor hour.
func (p *problemInstance) IsMentorCell(day string, period int) bool {
	return day == p.MentorDay && period == p.MentorPeriod
}

// Contiguous reports whether two periods of a day form a contiguous pair:
// the earlier slot ends exactly when the later one starts. Pairs spanning a
// lunch or tea break are not contiguous even when numerically consecutive.
func (p *problemInstance) Contiguous(day string, p1, p2 int) bool {
	s1, ok1 := p.Slots[gridKey{day, p1}]
	s2, ok2 := p.Slots[gridKey{day, p2}]
	return ok1 && ok2 && s1.EndTime == s2.StartTime
}

// SessionTotal is the number of weekly sessions a course contributes.
// WeeklySessions is authoritative when set; honours/minor rows often carry
// it without L/T/P.
func (p *problemInstance) SessionTotal(c models.Course) int {
	if c.WeeklySessions > 0 {
		return c.WeeklySessions
	}
	return p.TheoryCount[c.Code] + p.LabBlocks[c.Code]*2
}

// LeadFaculty returns the first mapped teacher of a course, if any.
func (p *problemInstance) LeadFaculty(code string) (id, name string, ok bool) {
	teachers := p.CourseFaculty[code]
	if len(teachers) == 0 {
		return "", "", false
	}
	return teachers[0].FacultyID, teachers[0].FacultyName, true
}

// indexSlots groups active slots into the day/period structures the model
// builder walks. Days follow the canonical weekday order.
func indexSlots(slots []models.Slot) (days []string, dayPeriods map[string][]int, lookup map[gridKey]models.Slot) {
	dayPeriods = make(map[string][]int)
	lookup = make(map[gridKey]models.Slot, len(slots))

	seen := make(map[string]bool)
	for _, s := range slots {
		key := gridKey{s.DayOfWeek, s.PeriodNumber}
		if _, dup := lookup[key]; dup {
			continue
		}
		lookup[key] = s
		if !seen[s.DayOfWeek] {
			seen[s.DayOfWeek] = true
		}
		dayPeriods[s.DayOfWeek] = append(dayPeriods[s.DayOfWeek], s.PeriodNumber)
	}

	for _, d := range models.WeekDays {
		if seen[d] {
			days = append(days, d)
		}
	}
	for d := range dayPeriods {
		sort.Ints(dayPeriods[d])
	}
	return days, dayPeriods, lookup
}

// finalizeCounts derives per-course session shapes and the load summary.
func (p *problemInstance) finalizeCounts() {
	p.TheoryCount = make(map[string]int, len(p.Courses))
	p.LabBlocks = make(map[string]int, len(p.Courses))
	for _, c := range p.Courses {
		p.TheoryCount[c.Code] = c.TheoryCount()
		p.LabBlocks[c.Code] = c.LabBlocks()
	}

	for _, day := range p.Days {
		for _, period := range p.DayPeriods[day] {
			if period <= 7 && !p.IsMentorCell(day, period) {
				p.P17Slots++
			}
		}
		if _, ok := p.Slots[gridKey{day, 8}]; ok && !p.IsMentorCell(day, 8) {
			p.P8Slots++
		}
	}

	for _, c := range p.Regular {
		p.RegSessions += p.TheoryCount[c.Code] + p.LabBlocks[c.Code]*2
	}
	for _, c := range p.Honours {
		p.HonSessions += p.SessionTotal(c)
	}

	p.Overloaded = p.RegSessions > p.P17Slots
	p.UseP8ForRegular = p.Overloaded && len(p.Honours) == 0
}

// totalLabBlocks sums lab blocks across regular courses; it decides whether
// the lab-day spread rule is hard or soft.
func (p *problemInstance) totalLabBlocks() int {
	total := 0
	for _, c := range p.Regular {
		total += p.LabBlocks[c.Code]
	}
	return total
}
