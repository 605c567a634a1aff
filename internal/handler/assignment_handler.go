package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/ssgb-dev/logbook-api/internal/models"
	"github.com/ssgb-dev/logbook-api/internal/service"
	appErrors "github.com/ssgb-dev/logbook-api/pkg/errors"
	"github.com/ssgb-dev/logbook-api/pkg/response"
)

// AssignmentHandler serves subject/class/student assignment endpoints.
type AssignmentHandler struct {
	service *service.AssignmentService
}

// NewAssignmentHandler constructs an assignment handler.
func NewAssignmentHandler(svc *service.AssignmentService) *AssignmentHandler {
	return &AssignmentHandler{service: svc}
}

func (h *AssignmentHandler) schoolYear(c *gin.Context) int {
	year := 0
	if v := queryInt(c, "school_year"); v != nil {
		year = *v
	}
	return h.service.SchoolYear(year)
}

// ListStudents godoc
// @Summary List students by placement
// @Tags Assignments
// @Produce json
// @Param grade query int false "Filter by grade"
// @Param class_number query int false "Filter by class"
// @Success 200 {object} response.Envelope
// @Router /assignments/students [get]
func (h *AssignmentHandler) ListStudents(c *gin.Context) {
	students, err := h.service.ListStudents(c.Request.Context(), queryInt(c, "grade"), queryInt(c, "class_number"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, students, nil)
}

// SubjectClasses godoc
// @Summary Classes attached to a subject
// @Tags Assignments
// @Produce json
// @Param id path int true "Subject ID"
// @Param school_year query int false "School year"
// @Success 200 {object} response.Envelope
// @Router /assignments/subject/{id}/classes [get]
func (h *AssignmentHandler) SubjectClasses(c *gin.Context) {
	subjectID, err := pathID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	classes, err := h.service.ListSubjectClasses(c.Request.Context(), subjectID, h.schoolYear(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, classes, nil)
}

// SubjectStudents godoc
// @Summary Roster of a subject in student-number order
// @Tags Assignments
// @Produce json
// @Param id path int true "Subject ID"
// @Param school_year query int false "School year"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /assignments/subject/{id}/students [get]
func (h *AssignmentHandler) SubjectStudents(c *gin.Context) {
	subjectID, err := pathID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	students, pagination, err := h.service.ListSubjectStudents(c.Request.Context(), subjectID, h.schoolYear(c), page, limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, students, pagination)
}

// AssignClasses godoc
// @Summary Attach whole classes to a subject
// @Tags Assignments
// @Accept json
// @Produce json
// @Param payload body models.AssignClassesRequest true "Classes payload"
// @Success 204
// @Router /assignments/classes-to-subject [post]
func (h *AssignmentHandler) AssignClasses(c *gin.Context) {
	var req models.AssignClassesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	if err := h.service.AssignClasses(c.Request.Context(), req); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// AssignStudents godoc
// @Summary Attach individual students to a subject
// @Tags Assignments
// @Accept json
// @Produce json
// @Param payload body models.AssignStudentsRequest true "Students payload"
// @Success 204
// @Router /assignments/students-to-subject [post]
func (h *AssignmentHandler) AssignStudents(c *gin.Context) {
	var req models.AssignStudentsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	if err := h.service.AssignStudents(c.Request.Context(), req); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// RemoveClass godoc
// @Summary Detach a class from a subject
// @Tags Assignments
// @Accept json
// @Produce json
// @Param payload body models.RemoveClassRequest true "Class payload"
// @Success 204
// @Router /assignments/remove-class [post]
func (h *AssignmentHandler) RemoveClass(c *gin.Context) {
	var req models.RemoveClassRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	if err := h.service.RemoveClass(c.Request.Context(), req); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// RemoveStudents godoc
// @Summary Detach individually assigned students
// @Tags Assignments
// @Accept json
// @Produce json
// @Param payload body models.RemoveStudentsRequest true "Students payload"
// @Success 200 {object} response.Envelope
// @Router /assignments/remove-students [post]
func (h *AssignmentHandler) RemoveStudents(c *gin.Context) {
	var req models.RemoveStudentsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	removed, err := h.service.RemoveStudents(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"removed": removed}, nil)
}
