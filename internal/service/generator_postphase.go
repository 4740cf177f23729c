package service

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/bitcampus/timetable-api/internal/models"
	"github.com/bitcampus/timetable-api/pkg/cpsat"
)

// placementState accumulates timetable entries as the solved assignment is
// materialized and the post phase fills what the constraint model left open.
type placementState struct {
	p       *problemInstance
	alloc   *venueAllocator
	entries []models.TimetableEntry
	filled  map[gridKey]bool
}

func newPlacementState(p *problemInstance, alloc *venueAllocator) *placementState {
	return &placementState{
		p:      p,
		alloc:  alloc,
		filled: make(map[gridKey]bool),
	}
}

func (st *placementState) addEntry(day string, period int, courseCode, courseName string, facultyID, facultyName *string, sessionType models.SessionType, venue *string) {
	slot, ok := st.p.Slots[gridKey{day, period}]
	if !ok {
		return
	}
	st.entries = append(st.entries, models.TimetableEntry{
		DepartmentCode: st.p.Department,
		Semester:       st.p.Semester,
		CourseCode:     courseCode,
		CourseName:     courseName,
		FacultyID:      facultyID,
		FacultyName:    facultyName,
		SessionType:    sessionType,
		SlotID:         slot.ID,
		DayOfWeek:      day,
		PeriodNumber:   period,
		VenueName:      venue,
	})
	st.filled[gridKey{day, period}] = true
}

func (st *placementState) facultyRefs(code string) (*string, *string) {
	id, name, ok := st.p.LeadFaculty(code)
	if !ok {
		return nil, nil
	}
	var idRef, nameRef *string
	if id != "" {
		idRef = &id
	}
	if name != "" {
		nameRef = &name
	}
	return idRef, nameRef
}

// materializeSolution turns the solver assignment into THEORY and LAB
// entries, allocating venues as it goes.
func (st *placementState) materializeSolution(g *generatorModel, sol cpsat.Solution) {
	for _, c := range st.p.Regular {
		fid, fname := st.facultyRefs(c.Code)
		for _, day := range st.p.Days {
			for _, period := range st.p.DayPeriods[day] {
				v, ok := g.theoryVars[theoryKey{c.Code, day, period}]
				if !ok || !sol.Value(v) {
					continue
				}
				venue := st.alloc.Assign(day, period, c.Code, false, len(st.entries))
				st.addEntry(day, period, c.Code, c.Name, fid, fname, models.SessionTheory, venue)
			}
		}
	}

	for _, c := range st.p.Regular {
		if st.p.LabBlocks[c.Code] == 0 {
			continue
		}
		fid, fname := st.facultyRefs(c.Code)
		for _, day := range st.p.Days {
			for _, start := range labBlockStarts {
				v, ok := g.labVars[labKey{c.Code, day, start}]
				if !ok || !sol.Value(v) {
					continue
				}
				k := len(st.entries)
				v1 := st.alloc.Assign(day, start, c.Code, true, k)
				v2 := st.alloc.Assign(day, start+1, c.Code, true, k)
				st.addEntry(day, start, c.Code, c.Name, fid, fname, models.SessionLab, v1)
				st.addEntry(day, start+1, c.Code, c.Name, fid, fname, models.SessionLab, v2)
			}
		}
	}
}

type honoursSession struct {
	code string
	name string
	fid  *string
	fnm  *string
}

// placeHonours walks the free period-8 cells in day order and deals one
// session per cell from a rotating per-course queue, so different honours
// courses interleave instead of clustering.
func (st *placementState) placeHonours() {
	if len(st.p.Honours) == 0 {
		return
	}

	var cells []gridKey
	for _, day := range st.p.Days {
		key := gridKey{day, 8}
		if _, ok := st.p.Slots[key]; !ok {
			continue
		}
		if st.filled[key] || st.p.IsMentorCell(day, 8) {
			continue
		}
		cells = append(cells, key)
	}

	var queues [][]honoursSession
	for _, c := range st.p.Honours {
		fid, fname := st.facultyRefs(c.Code)
		total := st.p.SessionTotal(c)
		if total == 0 {
			continue
		}
		queue := make([]honoursSession, total)
		for i := range queue {
			queue[i] = honoursSession{code: c.Code, name: c.Name, fid: fid, fnm: fname}
		}
		queues = append(queues, queue)
	}

	for _, cell := range cells {
		if len(queues) == 0 {
			break
		}
		queue := queues[0]
		queues = queues[1:]
		hs := queue[0]
		queue = queue[1:]

		venue := st.alloc.Assign(cell.Day, cell.Period, hs.code, false, len(st.entries))
		st.addEntry(cell.Day, cell.Period, hs.code, hs.name, hs.fid, hs.fnm, models.SessionTheory, venue)

		if len(queue) > 0 {
			queues = append(queues, queue)
		}
	}
}

// placeMentor emits the single mentor-hour entry.
func (st *placementState) placeMentor() {
	key := gridKey{st.p.MentorDay, st.p.MentorPeriod}
	if _, ok := st.p.Slots[key]; !ok {
		return
	}
	st.addEntry(st.p.MentorDay, st.p.MentorPeriod, "MENTOR", "Mentor Interaction", nil, nil, models.SessionMentor, nil)
}

type freeBlock struct {
	day    string
	p1, p2 int
}

// classifyGaps partitions the remaining empty cells into contiguous
// two-period blocks and single frees. Period 8 is excluded unless the
// overload policy opened it to regular courses.
func (st *placementState) classifyGaps() (blocks []freeBlock, singles []gridKey) {
	for _, day := range st.p.Days {
		var empty []int
		for _, period := range st.p.DayPeriods[day] {
			if period == 8 && !st.p.UseP8ForRegular {
				continue
			}
			if !st.filled[gridKey{day, period}] {
				empty = append(empty, period)
			}
		}
		for i := 0; i < len(empty); {
			if i+1 < len(empty) && empty[i+1] == empty[i]+1 && st.p.Contiguous(day, empty[i], empty[i]+1) {
				blocks = append(blocks, freeBlock{day, empty[i], empty[i] + 1})
				i += 2
				continue
			}
			singles = append(singles, gridKey{day, empty[i]})
			i++
		}
	}
	return blocks, singles
}

func (st *placementState) dayHasLab(day string) bool {
	for i := range st.entries {
		if st.entries[i].DayOfWeek == day && st.entries[i].SessionType == models.SessionLab {
			return true
		}
	}
	return false
}

// fillGaps runs the post-phase packing: mini-projects into two-period
// blocks, high-credit residual fills, the semester-5 open elective
// injection, and the absolute fallback that leaves no cell empty.
func (st *placementState) fillGaps(openElective *models.Course) {
	blocks, singles := st.classifyGaps()

	weeklyExtra := make(map[string]int, len(st.p.Courses))
	dailyExtra := make(map[string]map[string]int, len(st.p.Courses))
	for _, c := range st.p.Courses {
		dailyExtra[c.Code] = make(map[string]int, len(st.p.Days))
	}

	var miniProjects, coreCourses, electiveCourses []models.Course
	for _, c := range st.p.Courses {
		switch {
		case c.IsMiniProject():
			miniProjects = append(miniProjects, c)
		case c.IsElective:
			electiveCourses = append(electiveCourses, c)
		default:
			coreCourses = append(coreCourses, c)
		}
	}
	sort.SliceStable(coreCourses, func(i, j int) bool { return coreCourses[i].Credits > coreCourses[j].Credits })
	sort.SliceStable(electiveCourses, func(i, j int) bool { return electiveCourses[i].Credits > electiveCourses[j].Credits })

	placeLabPair := func(c models.Course, b freeBlock) {
		fid, fname := st.facultyRefs(c.Code)
		k := len(st.entries)
		v1 := st.alloc.Assign(b.day, b.p1, c.Code, true, k)
		v2 := st.alloc.Assign(b.day, b.p2, c.Code, true, k)
		st.addEntry(b.day, b.p1, c.Code, c.Name, fid, fname, models.SessionLab, v1)
		st.addEntry(b.day, b.p2, c.Code, c.Name, fid, fname, models.SessionLab, v2)
		weeklyExtra[c.Code] += 2
		dailyExtra[c.Code][b.day] += 2
	}

	// Mini-projects consume up to two blocks (four periods) each.
	for _, mp := range miniProjects {
		for len(blocks) > 0 && weeklyExtra[mp.Code] < 4 {
			b := blocks[0]
			blocks = blocks[1:]
			placeLabPair(mp, b)
		}
	}

	fillRemaining := func(target []models.Course) {
		if len(target) == 0 {
			return
		}

		// Each block goes to the next course in rotation as a lab pair; a
		// block that course cannot take breaks into two singles.
		idx := 0
		for len(blocks) > 0 {
			c := target[idx%len(target)]
			idx++
			b := blocks[0]
			blocks = blocks[1:]
			if c.PracticalHours > 0 && weeklyExtra[c.Code] <= 1 && dailyExtra[c.Code][b.day] == 0 && !st.dayHasLab(b.day) {
				placeLabPair(c, b)
			} else {
				singles = append(singles, gridKey{b.day, b.p1}, gridKey{b.day, b.p2})
			}
		}

		idx, failures := 0, 0
		for len(singles) > 0 && failures < len(target) {
			c := target[idx%len(target)]
			idx++
			cell := singles[0]
			if weeklyExtra[c.Code] < 3 && dailyExtra[c.Code][cell.Day] < 2 {
				singles = singles[1:]
				failures = 0
				fid, fname := st.facultyRefs(c.Code)
				venue := st.alloc.Assign(cell.Day, cell.Period, c.Code, false, len(st.entries))
				st.addEntry(cell.Day, cell.Period, c.Code, c.Name, fid, fname, models.SessionTheory, venue)
				weeklyExtra[c.Code]++
				dailyExtra[c.Code][cell.Day]++
			} else {
				failures++
			}
		}
	}

	fillRemaining(coreCourses)
	if len(blocks) > 0 || len(singles) > 0 {
		fillRemaining(electiveCourses)
	}

	// Semester 5: inject the global open elective into up to three single
	// frees with faculty left unassigned.
	if st.p.Semester == 5 && openElective != nil {
		for _, b := range blocks {
			singles = append(singles, gridKey{b.day, b.p1}, gridKey{b.day, b.p2})
		}
		blocks = nil

		needed := 3
		unassigned := "Unassigned"
		for needed > 0 && len(singles) > 0 {
			cell := singles[0]
			singles = singles[1:]
			venue := st.alloc.Assign(cell.Day, cell.Period, openElective.Code, false, len(st.entries))
			st.addEntry(cell.Day, cell.Period, openElective.Code, openElective.Name, nil, &unassigned, models.SessionOpenElective, venue)
			needed--
		}
	}

	// Absolute fallback: nothing stays empty except the mentor cell.
	if len(blocks) > 0 || len(singles) > 0 {
		for _, b := range blocks {
			singles = append(singles, gridKey{b.day, b.p1}, gridKey{b.day, b.p2})
		}

		fallback := coreCourses
		if len(fallback) == 0 {
			fallback = electiveCourses
		}
		if len(fallback) == 0 {
			fallback = st.p.Courses
		}
		if len(fallback) > 0 {
			ranked := append([]models.Course(nil), fallback...)
			sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Credits > ranked[j].Credits })
			idx := 0
			for _, cell := range singles {
				c := ranked[idx%len(ranked)]
				fid, fname := st.facultyRefs(c.Code)
				venue := st.alloc.Assign(cell.Day, cell.Period, c.Code, false, len(st.entries))
				st.addEntry(cell.Day, cell.Period, c.Code, c.Name, fid, fname, models.SessionTheory, venue)
				idx++
			}
		}
	}
}

var digitsPattern = regexp.MustCompile(`\d+`)

// mergeOpenElectiveLabel appends "/ OPEN ELECTIVE" to the entries of the
// department's highest-numbered elective. Semester 6 advertises the open
// elective through an existing elective rather than a separate placement.
func (st *placementState) mergeOpenElectiveLabel(openElective *models.Course) {
	if st.p.Semester != 6 || openElective == nil {
		return
	}

	var electives []models.Course
	for _, c := range st.p.Courses {
		if c.IsElective {
			electives = append(electives, c)
		}
	}
	if len(electives) == 0 {
		return
	}

	electiveNum := func(c models.Course) int {
		if m := digitsPattern.FindString(c.Category); m != "" {
			n, _ := strconv.Atoi(m)
			return n
		}
		source := c.Name
		if source == "" {
			source = c.Code
		}
		if m := digitsPattern.FindString(source); m != "" {
			n, _ := strconv.Atoi(m)
			return n
		}
		return 0
	}

	sort.SliceStable(electives, func(i, j int) bool { return electiveNum(electives[i]) > electiveNum(electives[j]) })
	highest := electives[0]

	for i := range st.entries {
		if st.entries[i].CourseCode != highest.Code {
			continue
		}
		if strings.Contains(strings.ToUpper(st.entries[i].CourseName), "OPEN ELECTIVE") {
			continue
		}
		st.entries[i].CourseName += " / OPEN ELECTIVE"
	}
}
