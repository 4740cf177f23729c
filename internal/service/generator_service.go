package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/bitcampus/timetable-api/internal/dto"
	"github.com/bitcampus/timetable-api/internal/models"
	"github.com/bitcampus/timetable-api/pkg/cpsat"
	appErrors "github.com/bitcampus/timetable-api/pkg/errors"
)

type generatorCourseReader interface {
	ListSchedulable(ctx context.Context, department string, semester int) ([]models.Course, error)
	FindOpenElective(ctx context.Context, semester int) (*models.Course, error)
}

type generatorFacultyReader interface {
	ListCourseFaculty(ctx context.Context, courseCodes []string) ([]models.CourseTeacher, error)
}

type generatorSlotReader interface {
	ListActive(ctx context.Context) ([]models.Slot, error)
}

type generatorVenueReader interface {
	ListDepartmentPool(ctx context.Context, department string, semester int) ([]models.Venue, error)
	ListCoursePins(ctx context.Context, department string) ([]models.CourseVenuePin, error)
}

type generatorTimetableStore interface {
	ListVenueOccupancy(ctx context.Context, semester int, excludeDepartment string) ([]models.VenueOccupancy, error)
	Replace(ctx context.Context, department string, semester int, entries []models.TimetableEntry) error
}

// GeneratorConfig bounds the constraint solve.
type GeneratorConfig struct {
	SolverTimeLimit time.Duration
	SolverWorkers   int
	SolverSeed      int64
}

// TimetableGeneratorService runs the two-phase timetable synthesis: a
// constraint solve for regular theory and lab sessions, then a greedy post
// phase for honours, mentor, and gap filling. Requests for the same
// semester serialize so the cross-department venue snapshot stays valid.
type TimetableGeneratorService struct {
	courses    generatorCourseReader
	faculty    generatorFacultyReader
	slots      generatorSlotReader
	venues     generatorVenueReader
	timetables generatorTimetableStore
	validator  *validator.Validate
	logger     *zap.Logger
	metrics    *MetricsService
	cfg        GeneratorConfig

	mu            sync.Mutex
	semesterLocks map[int]*sync.Mutex
}

// NewTimetableGeneratorService wires generator dependencies.
func NewTimetableGeneratorService(
	courses generatorCourseReader,
	faculty generatorFacultyReader,
	slots generatorSlotReader,
	venues generatorVenueReader,
	timetables generatorTimetableStore,
	validate *validator.Validate,
	logger *zap.Logger,
	metrics *MetricsService,
	cfg GeneratorConfig,
) *TimetableGeneratorService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.SolverTimeLimit <= 0 {
		cfg.SolverTimeLimit = 60 * time.Second
	}
	if cfg.SolverWorkers <= 0 {
		cfg.SolverWorkers = 4
	}
	return &TimetableGeneratorService{
		courses:       courses,
		faculty:       faculty,
		slots:         slots,
		venues:        venues,
		timetables:    timetables,
		validator:     validate,
		logger:        logger,
		metrics:       metrics,
		cfg:           cfg,
		semesterLocks: make(map[int]*sync.Mutex),
	}
}

func (s *TimetableGeneratorService) semesterLock(semester int) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.semesterLocks[semester]
	if !ok {
		lock = &sync.Mutex{}
		s.semesterLocks[semester] = lock
	}
	return lock
}

// Generate replaces the timetable of one department and semester.
func (s *TimetableGeneratorService) Generate(ctx context.Context, req dto.GenerateTimetableRequest) (*dto.GenerateTimetableResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid generation payload")
	}

	mentorDay := models.NormalizeDay(req.MentorDay)
	if models.DayIndex(mentorDay) < 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown mentor day %q", req.MentorDay))
	}
	mentorPeriod := req.MentorPeriod
	if mentorPeriod == 0 {
		mentorPeriod = 8
	}

	// Generations within one semester share the venue occupancy snapshot,
	// so they must not interleave.
	lock := s.semesterLock(req.Semester)
	lock.Lock()
	defer lock.Unlock()

	start := time.Now()
	result, err := s.generateLocked(ctx, req.DepartmentCode, req.Semester, mentorDay, mentorPeriod)
	if s.metrics != nil {
		status := "ok"
		if err != nil {
			status = appErrors.FromError(err).Code
		}
		s.metrics.ObserveGeneration(status, time.Since(start))
	}
	return result, err
}

func (s *TimetableGeneratorService) generateLocked(ctx context.Context, department string, semester int, mentorDay string, mentorPeriod int) (*dto.GenerateTimetableResponse, error) {
	p, err := s.assemble(ctx, department, semester, mentorDay, mentorPeriod)
	if err != nil {
		return nil, err
	}

	var openElective *models.Course
	if semester == 5 || semester == 6 {
		openElective, err = s.courses.FindOpenElective(ctx, semester)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load open elective")
		}
	}

	s.logger.Info("timetable generation started",
		zap.String("department", department),
		zap.Int("semester", semester),
		zap.Int("regular_courses", len(p.Regular)),
		zap.Int("honours_courses", len(p.Honours)),
		zap.Int("regular_sessions", p.RegSessions),
		zap.Int("p1_7_slots", p.P17Slots),
		zap.Bool("overloaded", p.Overloaded),
		zap.Bool("use_p8_for_regular", p.UseP8ForRegular),
	)

	g := buildGeneratorModel(p)
	solver := cpsat.Solver{
		TimeLimit: s.cfg.SolverTimeLimit,
		Workers:   s.cfg.SolverWorkers,
		Seed:      s.cfg.SolverSeed,
	}
	sol := solver.Solve(g.model)

	switch sol.Status {
	case cpsat.StatusOptimal, cpsat.StatusFeasible:
	case cpsat.StatusInfeasible:
		return nil, appErrors.Clone(appErrors.ErrInfeasible,
			fmt.Sprintf("no feasible timetable: %d regular sessions against %d P1-P7 slots", p.RegSessions, p.P17Slots))
	default:
		return nil, appErrors.Clone(appErrors.ErrSolverTimeout,
			fmt.Sprintf("solver hit the %s budget without a solution", s.cfg.SolverTimeLimit))
	}

	alloc := newVenueAllocator(p, s.logger)
	state := newPlacementState(p, alloc)
	state.materializeSolution(g, sol)
	state.placeHonours()
	state.placeMentor()
	state.fillGaps(openElective)
	state.mergeOpenElectiveLabel(openElective)

	if err := s.timetables.Replace(ctx, department, semester, state.entries); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist timetable")
	}

	s.logger.Info("timetable generation finished",
		zap.String("department", department),
		zap.Int("semester", semester),
		zap.String("solver_status", sol.Status.String()),
		zap.Int("objective", sol.Objective),
		zap.Int("entries", len(state.entries)),
	)

	return &dto.GenerateTimetableResponse{
		DepartmentCode: department,
		Semester:       semester,
		Stats: dto.GenerationStats{
			RegularCourses:  len(p.Regular),
			HonoursCourses:  len(p.Honours),
			RegularSessions: p.RegSessions,
			HonoursSessions: p.HonSessions,
			P17Slots:        p.P17Slots,
			P8Slots:         p.P8Slots,
			Overloaded:      p.Overloaded,
			UseP8ForRegular: p.UseP8ForRegular,
			SolverStatus:    sol.Status.String(),
			Objective:       sol.Objective,
			Entries:         len(state.entries),
		},
	}, nil
}

// assemble loads and indexes everything the model builder and post phase
// need, and computes the overload policy.
func (s *TimetableGeneratorService) assemble(ctx context.Context, department string, semester int, mentorDay string, mentorPeriod int) (*problemInstance, error) {
	courses, err := s.courses.ListSchedulable(ctx, department, semester)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load courses")
	}
	if len(courses) == 0 {
		return nil, appErrors.Clone(appErrors.ErrNoCourses,
			fmt.Sprintf("no courses found for department %s semester %d", department, semester))
	}

	slots, err := s.slots.ListActive(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load slots")
	}
	if len(slots) == 0 {
		return nil, appErrors.Clone(appErrors.ErrNoSlots, "no active slots configured")
	}

	codes := make([]string, len(courses))
	for i, c := range courses {
		codes[i] = c.Code
	}
	teachers, err := s.faculty.ListCourseFaculty(ctx, codes)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course faculty")
	}
	courseFaculty := make(map[string][]models.CourseTeacher)
	for _, t := range teachers {
		t.FacultyID = models.NormalizeFacultyID(t.FacultyID)
		courseFaculty[t.CourseCode] = append(courseFaculty[t.CourseCode], t)
	}

	// Language electives without a teacher cannot be scheduled yet; the
	// curriculum rows land before language assignment completes.
	valid := make([]models.Course, 0, len(courses))
	for _, c := range courses {
		if c.IsLanguageElective() && len(courseFaculty[c.Code]) == 0 {
			s.logger.Warn("skipping language elective without faculty",
				zap.String("course", c.Code),
				zap.String("department", department),
			)
			continue
		}
		valid = append(valid, c)
	}
	if len(valid) == 0 {
		return nil, appErrors.Clone(appErrors.ErrNoCourses, "no schedulable courses left after filtering")
	}

	p := &problemInstance{
		Department:    department,
		Semester:      semester,
		MentorDay:     mentorDay,
		MentorPeriod:  mentorPeriod,
		Courses:       valid,
		CourseFaculty: courseFaculty,
	}
	for _, c := range valid {
		if c.IsHonoursOrMinor() {
			p.Honours = append(p.Honours, c)
		} else {
			p.Regular = append(p.Regular, c)
		}
	}

	p.Days, p.DayPeriods, p.Slots = indexSlots(slots)
	p.finalizeCounts()

	pins, err := s.venues.ListCoursePins(ctx, department)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course venue pins")
	}
	p.PinnedVenues = make(map[string]string, len(pins))
	for _, pin := range pins {
		p.PinnedVenues[pin.CourseCode] = pin.VenueName
	}

	pool, err := s.venues.ListDepartmentPool(ctx, department, semester)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load department venue pool")
	}
	for _, v := range pool {
		if v.IsLab {
			p.DefaultLabs = append(p.DefaultLabs, v.Name)
		} else {
			p.DefaultClassrooms = append(p.DefaultClassrooms, v.Name)
		}
	}

	occupancy, err := s.timetables.ListVenueOccupancy(ctx, semester, department)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load venue occupancy")
	}
	p.GlobalOccupancy = make(map[gridKey]map[string]bool)
	for _, o := range occupancy {
		key := gridKey{o.DayOfWeek, o.PeriodNumber}
		if p.GlobalOccupancy[key] == nil {
			p.GlobalOccupancy[key] = make(map[string]bool)
		}
		for _, name := range strings.Split(o.VenueName, ",") {
			if trimmed := strings.TrimSpace(name); trimmed != "" {
				p.GlobalOccupancy[key][trimmed] = true
			}
		}
	}

	return p, nil
}
