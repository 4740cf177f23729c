package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/bitcampus/timetable-api/internal/dto"
	"github.com/bitcampus/timetable-api/internal/service"
	appErrors "github.com/bitcampus/timetable-api/pkg/errors"
	"github.com/bitcampus/timetable-api/pkg/response"
)

type timetableGenerator interface {
	Generate(ctx context.Context, req dto.GenerateTimetableRequest) (*dto.GenerateTimetableResponse, error)
}

type cacheInvalidator interface {
	InvalidateCache(ctx context.Context, department string, semester int)
}

// GeneratorHandler exposes the timetable generation endpoint.
type GeneratorHandler struct {
	generator timetableGenerator
	cache     cacheInvalidator
}

// NewGeneratorHandler constructs the handler.
func NewGeneratorHandler(generator *service.TimetableGeneratorService, timetables *service.TimetableService) *GeneratorHandler {
	return &GeneratorHandler{generator: generator, cache: timetables}
}

// Generate runs a full regeneration for one department and semester,
// replacing any prior schedule.
func (h *GeneratorHandler) Generate(c *gin.Context) {
	var req dto.GenerateTimetableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid generate payload"))
		return
	}
	result, err := h.generator.Generate(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	if h.cache != nil {
		h.cache.InvalidateCache(c.Request.Context(), result.DepartmentCode, result.Semester)
	}
	response.JSON(c, http.StatusOK, result)
}
