package main

import (
	"fmt"
	"log"

	"github.com/gin-gonic/gin"

	internalhandler "github.com/bitcampus/timetable-api/internal/handler"
	internalmiddleware "github.com/bitcampus/timetable-api/internal/middleware"
	"github.com/bitcampus/timetable-api/internal/repository"
	"github.com/bitcampus/timetable-api/internal/service"
	"github.com/bitcampus/timetable-api/pkg/cache"
	"github.com/bitcampus/timetable-api/pkg/config"
	"github.com/bitcampus/timetable-api/pkg/database"
	"github.com/bitcampus/timetable-api/pkg/logger"
	corsmiddleware "github.com/bitcampus/timetable-api/pkg/middleware/cors"
	reqidmiddleware "github.com/bitcampus/timetable-api/pkg/middleware/requestid"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to initialise database", "error", err)
	}
	defer db.Close()

	metricsSvc := service.NewMetricsService()
	metricsHandler := internalhandler.NewMetricsHandler(metricsSvc)

	var cacheRepo service.CacheRepository
	if cfg.Timetable.CacheEnabled {
		redisClient, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Sugar().Fatalw("failed to initialise redis", "error", err)
		}
		defer redisClient.Close()
		cacheRepo = repository.NewRedisCacheRepository(redisClient)
	}
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Timetable.CacheTTL, logr, cfg.Timetable.CacheEnabled)

	departmentRepo := repository.NewDepartmentRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	facultyRepo := repository.NewFacultyRepository(db)
	slotRepo := repository.NewSlotRepository(db)
	venueRepo := repository.NewVenueRepository(db)
	timetableRepo := repository.NewTimetableRepository(db)

	timetableSvc := service.NewTimetableService(timetableRepo, cacheSvc, logr)
	masterDataSvc := service.NewMasterDataService(departmentRepo, courseRepo, facultyRepo, venueRepo, slotRepo)

	timetableHandler := internalhandler.NewTimetableHandler(timetableSvc)
	masterDataHandler := internalhandler.NewMasterDataHandler(masterDataSvc)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(internalmiddleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Health)
	r.GET("/metrics", metricsHandler.Prometheus)

	api := r.Group(cfg.APIPrefix)
	secured := api.Group("")
	secured.Use(internalmiddleware.JWT(cfg.JWT))

	secured.GET("/departments", masterDataHandler.Departments)
	secured.GET("/courses", masterDataHandler.Courses)
	secured.GET("/faculty", masterDataHandler.Faculty)
	secured.GET("/venues", masterDataHandler.Venues)
	secured.GET("/slots", masterDataHandler.Slots)

	secured.GET("/timetable", timetableHandler.List)
	secured.GET("/timetable/grid", timetableHandler.Grid)
	secured.GET("/timetable/faculty/:id", timetableHandler.Faculty)
	secured.GET("/timetable/export/csv", timetableHandler.ExportCSV)
	secured.GET("/timetable/export/pdf", timetableHandler.ExportPDF)

	if cfg.Generator.Enabled {
		generatorSvc := service.NewTimetableGeneratorService(
			courseRepo,
			facultyRepo,
			slotRepo,
			venueRepo,
			timetableRepo,
			nil,
			logr,
			metricsSvc,
			service.GeneratorConfig{
				SolverTimeLimit: cfg.Solver.TimeLimit,
				SolverWorkers:   cfg.Solver.Workers,
				SolverSeed:      cfg.Solver.Seed,
			},
		)
		generatorHandler := internalhandler.NewGeneratorHandler(generatorSvc, timetableSvc)

		admin := secured.Group("")
		admin.Use(internalmiddleware.RequireRole("admin", "superadmin"))
		admin.POST("/timetable/generate", generatorHandler.Generate)
		admin.DELETE("/timetable", timetableHandler.Delete)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("starting server", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server stopped", "error", err)
	}
}
