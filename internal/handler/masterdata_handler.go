package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/bitcampus/timetable-api/internal/service"
	appErrors "github.com/bitcampus/timetable-api/pkg/errors"
	"github.com/bitcampus/timetable-api/pkg/response"
)

// MasterDataHandler exposes the read-only curriculum surface.
type MasterDataHandler struct {
	service *service.MasterDataService
}

// NewMasterDataHandler constructs the handler.
func NewMasterDataHandler(svc *service.MasterDataService) *MasterDataHandler {
	return &MasterDataHandler{service: svc}
}

// Departments lists all departments.
func (h *MasterDataHandler) Departments(c *gin.Context) {
	departments, err := h.service.Departments(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, departments)
}

// Courses lists the curriculum of a department and semester.
func (h *MasterDataHandler) Courses(c *gin.Context) {
	department := c.Query("departmentCode")
	semester, err := strconv.Atoi(c.Query("semester"))
	if department == "" || err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "departmentCode and semester query parameters are required"))
		return
	}
	courses, err := h.service.Courses(c.Request.Context(), department, semester)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, courses)
}

// Faculty lists all faculty.
func (h *MasterDataHandler) Faculty(c *gin.Context) {
	faculty, err := h.service.Faculty(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, faculty)
}

// Venues lists all venues.
func (h *MasterDataHandler) Venues(c *gin.Context) {
	venues, err := h.service.Venues(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, venues)
}

// Slots lists the full slot grid.
func (h *MasterDataHandler) Slots(c *gin.Context) {
	slots, err := h.service.Slots(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, slots)
}
