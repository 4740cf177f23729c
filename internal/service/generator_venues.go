package service

import (
	"go.uber.org/zap"
)

// venueAllocator hands out venues as solved assignments are materialized.
// Pinned venues win unconditionally; pooled venues rotate through whatever
// is free at the cell after subtracting the cross-department snapshot and
// the bookings of the current run.
type venueAllocator struct {
	pins       map[string]string
	labs       []string
	classrooms []string
	global     map[gridKey]map[string]bool
	current    map[gridKey]map[string]bool
	logger     *zap.Logger
}

func newVenueAllocator(p *problemInstance, logger *zap.Logger) *venueAllocator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &venueAllocator{
		pins:       p.PinnedVenues,
		labs:       p.DefaultLabs,
		classrooms: p.DefaultClassrooms,
		global:     p.GlobalOccupancy,
		current:    make(map[gridKey]map[string]bool),
		logger:     logger,
	}
}

// Assign picks a venue for one (course, day, period) placement. The rotation
// counter k is the caller's running entry count, so successive placements
// walk the pool. Returns nil when the instance has no pool of the required
// kind.
func (a *venueAllocator) Assign(day string, period int, courseCode string, needLab bool, k int) *string {
	if pinned, ok := a.pins[courseCode]; ok {
		return &pinned
	}

	pool := a.classrooms
	if needLab {
		pool = a.labs
	}
	if len(pool) == 0 {
		return nil
	}

	key := gridKey{day, period}
	available := make([]string, 0, len(pool))
	for _, v := range pool {
		if a.global[key][v] || a.current[key][v] {
			continue
		}
		available = append(available, v)
	}

	var assigned string
	if len(available) == 0 {
		// The pool is exhausted at this cell. Reuse a pool entry so the
		// schedule stays complete; the operator must grow the pool.
		assigned = pool[k%len(pool)]
		a.logger.Warn("venue pool exhausted, reusing venue",
			zap.String("day", day),
			zap.Int("period", period),
			zap.String("course", courseCode),
			zap.String("venue", assigned),
		)
	} else {
		assigned = available[k%len(available)]
	}

	if a.current[key] == nil {
		a.current[key] = make(map[string]bool)
	}
	a.current[key][assigned] = true
	return &assigned
}
