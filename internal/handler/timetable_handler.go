package handler

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/bitcampus/timetable-api/internal/dto"
	"github.com/bitcampus/timetable-api/internal/models"
	"github.com/bitcampus/timetable-api/internal/service"
	appErrors "github.com/bitcampus/timetable-api/pkg/errors"
	"github.com/bitcampus/timetable-api/pkg/response"
)

type timetableViewer interface {
	List(ctx context.Context, department string, semester int) ([]models.TimetableEntry, error)
	Grid(ctx context.Context, department string, semester int) (*dto.TimetableGrid, error)
	FacultyView(ctx context.Context, facultyID string) ([]models.TimetableEntry, error)
	Delete(ctx context.Context, department string, semester int) error
	ExportCSV(ctx context.Context, department string, semester int) ([]byte, error)
	ExportPDF(ctx context.Context, department string, semester int) ([]byte, error)
}

// TimetableHandler exposes timetable read and export endpoints.
type TimetableHandler struct {
	service timetableViewer
}

// NewTimetableHandler constructs the handler.
func NewTimetableHandler(svc *service.TimetableService) *TimetableHandler {
	return &TimetableHandler{service: svc}
}

func timetableQuery(c *gin.Context) (string, int, error) {
	department := c.Query("departmentCode")
	semester, err := strconv.Atoi(c.Query("semester"))
	if department == "" || err != nil {
		return "", 0, appErrors.Clone(appErrors.ErrValidation, "departmentCode and semester query parameters are required")
	}
	return department, semester, nil
}

// List returns the flat entry listing of one departmental timetable.
func (h *TimetableHandler) List(c *gin.Context) {
	department, semester, err := timetableQuery(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	entries, err := h.service.List(c.Request.Context(), department, semester)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entries)
}

// Grid returns the weekly day-by-period projection.
func (h *TimetableHandler) Grid(c *gin.Context) {
	department, semester, err := timetableQuery(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	grid, err := h.service.Grid(c.Request.Context(), department, semester)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, grid)
}

// Faculty returns every entry taught by one faculty across departments.
func (h *TimetableHandler) Faculty(c *gin.Context) {
	entries, err := h.service.FacultyView(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entries)
}

// Delete removes a departmental timetable.
func (h *TimetableHandler) Delete(c *gin.Context) {
	department, semester, err := timetableQuery(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.service.Delete(c.Request.Context(), department, semester); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ExportCSV streams the timetable as CSV.
func (h *TimetableHandler) ExportCSV(c *gin.Context) {
	department, semester, err := timetableQuery(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	payload, err := h.service.ExportCSV(c.Request.Context(), department, semester)
	if err != nil {
		response.Error(c, err)
		return
	}
	filename := fmt.Sprintf("timetable_%s_sem%d.csv", department, semester)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "text/csv", payload)
}

// ExportPDF streams the weekly grid as PDF.
func (h *TimetableHandler) ExportPDF(c *gin.Context) {
	department, semester, err := timetableQuery(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	payload, err := h.service.ExportPDF(c.Request.Context(), department, semester)
	if err != nil {
		response.Error(c, err)
		return
	}
	filename := fmt.Sprintf("timetable_%s_sem%d.pdf", department, semester)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "application/pdf", payload)
}
