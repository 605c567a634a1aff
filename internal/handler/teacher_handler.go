package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ssgb-dev/logbook-api/internal/service"
	appErrors "github.com/ssgb-dev/logbook-api/pkg/errors"
	"github.com/ssgb-dev/logbook-api/pkg/response"
)

// TeacherHandler serves the teacher dashboard endpoints, all scoped to the
// caller's own duty assignments.
type TeacherHandler struct {
	service *service.TeacherService
}

// NewTeacherHandler constructs a teacher handler.
func NewTeacherHandler(svc *service.TeacherService) *TeacherHandler {
	return &TeacherHandler{service: svc}
}

func (h *TeacherHandler) callerID(c *gin.Context) (string, bool) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return "", false
	}
	return claims.UserID, true
}

// MyAssignments godoc
// @Summary My duty assignments
// @Tags Teacher
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /teacher/my-assignments [get]
func (h *TeacherHandler) MyAssignments(c *gin.Context) {
	teacherID, ok := h.callerID(c)
	if !ok {
		return
	}
	assignments, err := h.service.MyAssignments(c.Request.Context(), teacherID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, assignments, nil)
}

// MyClasses godoc
// @Summary Classes I homeroom
// @Tags Teacher
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /teacher/my-classes [get]
func (h *TeacherHandler) MyClasses(c *gin.Context) {
	teacherID, ok := h.callerID(c)
	if !ok {
		return
	}
	classes, err := h.service.MyClasses(c.Request.Context(), teacherID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, classes, nil)
}

// MySubjects godoc
// @Summary Subjects I teach
// @Tags Teacher
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /teacher/my-subjects [get]
func (h *TeacherHandler) MySubjects(c *gin.Context) {
	teacherID, ok := h.callerID(c)
	if !ok {
		return
	}
	subjects, err := h.service.MySubjects(c.Request.Context(), teacherID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, subjects, nil)
}

// ActivitySubjects godoc
// @Summary Subjects usable for activity records
// @Tags Teacher
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /teacher/activity-subjects [get]
func (h *TeacherHandler) ActivitySubjects(c *gin.Context) {
	teacherID, ok := h.callerID(c)
	if !ok {
		return
	}
	subjects, err := h.service.ActivitySubjects(c.Request.Context(), teacherID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, subjects, nil)
}

// SubjectRecords godoc
// @Summary Subject records I may edit
// @Tags Teacher
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /teacher/subject-records [get]
func (h *TeacherHandler) SubjectRecords(c *gin.Context) {
	teacherID, ok := h.callerID(c)
	if !ok {
		return
	}
	records, err := h.service.SubjectRecords(c.Request.Context(), teacherID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, records, nil)
}

// ActivityRecords godoc
// @Summary Activity records I may edit
// @Tags Teacher
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /teacher/activity-records [get]
func (h *TeacherHandler) ActivityRecords(c *gin.Context) {
	teacherID, ok := h.callerID(c)
	if !ok {
		return
	}
	records, err := h.service.ActivityRecords(c.Request.Context(), teacherID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, records, nil)
}

// AccessibleRecords godoc
// @Summary Every record my assignments reach
// @Tags Teacher
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /teacher/accessible-records [get]
func (h *TeacherHandler) AccessibleRecords(c *gin.Context) {
	teacherID, ok := h.callerID(c)
	if !ok {
		return
	}
	records, err := h.service.AccessibleRecords(c.Request.Context(), teacherID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, records, nil)
}
