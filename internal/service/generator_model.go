package service

import (
	"fmt"

	"github.com/bitcampus/timetable-api/pkg/cpsat"
)

type theoryKey struct {
	Course string
	Day    string
	Period int
}

type labKey struct {
	Course string
	Day    string
	Start  int
}

// generatorModel bundles the CP model with the variable maps needed to read
// the assignment back. Variables are created in course/day/period order so
// identical inputs enumerate identically.
type generatorModel struct {
	model      *cpsat.Model
	theoryVars map[theoryKey]cpsat.BoolVar
	labVars    map[labKey]cpsat.BoolVar
}

// buildGeneratorModel formulates the primary-phase constraints over theory
// and lab-block variables for the regular courses of the instance.
func buildGeneratorModel(p *problemInstance) *generatorModel {
	m := cpsat.NewModel()
	g := &generatorModel{
		model:      m,
		theoryVars: make(map[theoryKey]cpsat.BoolVar),
		labVars:    make(map[labKey]cpsat.BoolVar),
	}

	maxRegular := p.MaxRegularPeriod()

	for _, c := range p.Regular {
		for _, day := range p.Days {
			for _, period := range p.DayPeriods[day] {
				if period > maxRegular {
					continue
				}
				key := theoryKey{c.Code, day, period}
				g.theoryVars[key] = m.NewBoolVar(fmt.Sprintf("th_%s_%s_%d", c.Code, day, period))
			}
		}
	}

	for _, c := range p.Regular {
		if p.LabBlocks[c.Code] == 0 {
			continue
		}
		for _, day := range p.Days {
			for _, start := range labBlockStarts {
				if !p.Contiguous(day, start, start+1) {
					continue
				}
				key := labKey{c.Code, day, start}
				g.labVars[key] = m.NewBoolVar(fmt.Sprintf("lab_%s_%s_%d", c.Code, day, start))
			}
		}
	}

	// Weekly session counts.
	for _, c := range p.Regular {
		var theory []cpsat.BoolVar
		for _, day := range p.Days {
			for _, period := range p.DayPeriods[day] {
				if v, ok := g.theoryVars[theoryKey{c.Code, day, period}]; ok {
					theory = append(theory, v)
				}
			}
		}
		m.AddSumEqual(theory, p.TheoryCount[c.Code])

		if p.LabBlocks[c.Code] > 0 {
			var labs []cpsat.BoolVar
			for _, day := range p.Days {
				for _, start := range labBlockStarts {
					if v, ok := g.labVars[labKey{c.Code, day, start}]; ok {
						labs = append(labs, v)
					}
				}
			}
			m.AddSumEqual(labs, p.LabBlocks[c.Code])
		}
	}

	// Mentor hour blocking.
	for _, c := range p.Regular {
		if v, ok := g.theoryVars[theoryKey{c.Code, p.MentorDay, p.MentorPeriod}]; ok {
			m.AddFixed(v, 0)
		}
		for _, start := range labBlockStarts {
			if p.MentorPeriod == start || p.MentorPeriod == start+1 {
				if v, ok := g.labVars[labKey{c.Code, p.MentorDay, start}]; ok {
					m.AddFixed(v, 0)
				}
			}
		}
	}

	// Slot occupancy: at most one session per cell; the mentor cell stays
	// empty. Every occupant occurrence in a countable cell earns the
	// slot-fill reward.
	var objective []cpsat.Term
	for _, day := range p.Days {
		for _, period := range p.DayPeriods[day] {
			if period > maxRegular {
				continue
			}
			var occupants []cpsat.BoolVar
			for _, c := range p.Regular {
				if v, ok := g.theoryVars[theoryKey{c.Code, day, period}]; ok {
					occupants = append(occupants, v)
				}
				if p.LabBlocks[c.Code] > 0 {
					for _, start := range labBlockStarts {
						if period == start || period == start+1 {
							if v, ok := g.labVars[labKey{c.Code, day, start}]; ok {
								occupants = append(occupants, v)
							}
						}
					}
				}
			}
			if len(occupants) == 0 {
				continue
			}
			if p.IsMentorCell(day, period) {
				m.AddSumEqual(occupants, 0)
			} else {
				m.AddSumAtMost(occupants, 1)
				for _, v := range occupants {
					objective = append(objective, cpsat.Term{Var: v, Coeff: 10})
				}
			}
		}
	}

	// No back-to-back theory of the same course, enforced only when the
	// schedule is not overloaded.
	if !p.Overloaded {
		for _, c := range p.Regular {
			for _, day := range p.Days {
				periods := p.DayPeriods[day]
				for i := 0; i+1 < len(periods); i++ {
					p1, p2 := periods[i], periods[i+1]
					if p1 > 7 || p2 > 7 || p2 != p1+1 || !p.Contiguous(day, p1, p2) {
						continue
					}
					v1, ok1 := g.theoryVars[theoryKey{c.Code, day, p1}]
					v2, ok2 := g.theoryVars[theoryKey{c.Code, day, p2}]
					if ok1 && ok2 {
						m.AddSumAtMost([]cpsat.BoolVar{v1, v2}, 1)
					}
				}
			}
		}
	}

	// Per-course daily theory cap, relaxed to two under overload.
	maxTheoryPerDay := 1
	if p.Overloaded {
		maxTheoryPerDay = 2
	}
	for _, c := range p.Regular {
		for _, day := range p.Days {
			var dayTheory []cpsat.BoolVar
			for _, period := range p.DayPeriods[day] {
				if v, ok := g.theoryVars[theoryKey{c.Code, day, period}]; ok {
					dayTheory = append(dayTheory, v)
				}
			}
			if len(dayTheory) > 0 {
				m.AddSumAtMost(dayTheory, maxTheoryPerDay)
			}
		}
	}

	// At most one lab block per day across all courses.
	for _, day := range p.Days {
		var dayLabs []cpsat.BoolVar
		for _, c := range p.Regular {
			if p.LabBlocks[c.Code] == 0 {
				continue
			}
			for _, start := range labBlockStarts {
				if v, ok := g.labVars[labKey{c.Code, day, start}]; ok {
					dayLabs = append(dayLabs, v)
				}
			}
		}
		if len(dayLabs) > 1 {
			m.AddSumAtMost(dayLabs, 1)
		}
	}

	// Lab-day spread across adjacent days: hard for three or fewer blocks
	// (they always fit Mon/Wed/Fri), otherwise a soft penalty.
	totalLabBlocks := p.totalLabBlocks()
	for i := 0; i+1 < len(p.Days); i++ {
		day1, day2 := p.Days[i], p.Days[i+1]
		var labs1, labs2 []cpsat.BoolVar
		for _, c := range p.Regular {
			if p.LabBlocks[c.Code] == 0 {
				continue
			}
			for _, start := range labBlockStarts {
				if v, ok := g.labVars[labKey{c.Code, day1, start}]; ok {
					labs1 = append(labs1, v)
				}
				if v, ok := g.labVars[labKey{c.Code, day2, start}]; ok {
					labs2 = append(labs2, v)
				}
			}
		}
		if len(labs1) == 0 || len(labs2) == 0 {
			continue
		}
		if totalLabBlocks <= 3 {
			m.AddSumAtMost(append(append([]cpsat.BoolVar{}, labs1...), labs2...), 1)
		} else {
			hasD1 := m.NewBoolVar(fmt.Sprintf("glab_d1_%s", day1))
			hasD2 := m.NewBoolVar(fmt.Sprintf("glab_d2_%s", day2))
			m.AddMaxEquality(hasD1, labs1)
			m.AddMaxEquality(hasD2, labs2)
			consec := m.NewBoolVar(fmt.Sprintf("gconsec_%s_%s", day1, day2))
			m.AddMultiplicationEquality(consec, []cpsat.BoolVar{hasD1, hasD2})
			objective = append(objective, cpsat.Term{Var: consec, Coeff: -5})
		}
	}

	// A course's theory may not share a cell with its own lab block.
	for _, c := range p.Regular {
		if p.LabBlocks[c.Code] == 0 {
			continue
		}
		for _, day := range p.Days {
			for _, start := range labBlockStarts {
				lv, ok := g.labVars[labKey{c.Code, day, start}]
				if !ok {
					continue
				}
				for _, period := range []int{start, start + 1} {
					if tv, ok := g.theoryVars[theoryKey{c.Code, day, period}]; ok {
						m.AddSumAtMost([]cpsat.BoolVar{tv, lv}, 1)
					}
				}
			}
		}
	}

	// Faculty clash: a teacher mapped to several courses of the instance
	// can occupy a cell at most once. Placeholder ids were normalized away
	// during assembly.
	facultyCourses := make(map[string][]string)
	facultyOrder := make([]string, 0)
	for _, c := range p.Regular {
		for _, t := range p.CourseFaculty[c.Code] {
			if t.FacultyID == "" {
				continue
			}
			if !containsString(facultyCourses[t.FacultyID], c.Code) {
				if len(facultyCourses[t.FacultyID]) == 0 {
					facultyOrder = append(facultyOrder, t.FacultyID)
				}
				facultyCourses[t.FacultyID] = append(facultyCourses[t.FacultyID], c.Code)
			}
		}
	}
	for _, fid := range facultyOrder {
		taught := facultyCourses[fid]
		if len(taught) <= 1 {
			continue
		}
		for _, day := range p.Days {
			for _, period := range p.DayPeriods[day] {
				var occupants []cpsat.BoolVar
				for _, code := range taught {
					if v, ok := g.theoryVars[theoryKey{code, day, period}]; ok {
						occupants = append(occupants, v)
					}
					if p.LabBlocks[code] > 0 {
						for _, start := range labBlockStarts {
							if period == start || period == start+1 {
								if v, ok := g.labVars[labKey{code, day, start}]; ok {
									occupants = append(occupants, v)
								}
							}
						}
					}
				}
				if len(occupants) > 1 {
					m.AddSumAtMost(occupants, 1)
				}
			}
		}
	}

	// Soft bonus: a course's theory on the same day as its lab.
	for _, c := range p.Regular {
		if p.LabBlocks[c.Code] == 0 || p.TheoryCount[c.Code] == 0 {
			continue
		}
		for _, day := range p.Days {
			var dayLabs, dayTheory []cpsat.BoolVar
			for _, start := range labBlockStarts {
				if v, ok := g.labVars[labKey{c.Code, day, start}]; ok {
					dayLabs = append(dayLabs, v)
				}
			}
			for _, period := range p.DayPeriods[day] {
				if v, ok := g.theoryVars[theoryKey{c.Code, day, period}]; ok {
					dayTheory = append(dayTheory, v)
				}
			}
			if len(dayLabs) == 0 || len(dayTheory) == 0 {
				continue
			}
			labOnDay := m.NewBoolVar(fmt.Sprintf("lab_day_%s_%s", c.Code, day))
			theoryOnDay := m.NewBoolVar(fmt.Sprintf("th_day_%s_%s", c.Code, day))
			m.AddMaxEquality(labOnDay, dayLabs)
			m.AddMaxEquality(theoryOnDay, dayTheory)
			both := m.NewBoolVar(fmt.Sprintf("both_%s_%s", c.Code, day))
			m.AddMultiplicationEquality(both, []cpsat.BoolVar{labOnDay, theoryOnDay})
			objective = append(objective, cpsat.Term{Var: both, Coeff: 3})
		}
	}

	if len(objective) > 0 {
		m.Maximize(objective)
	}
	return g
}

func containsString(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
