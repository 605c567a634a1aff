package handler

import (
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/ssgb-dev/logbook-api/internal/models"
	"github.com/ssgb-dev/logbook-api/internal/service"
	appErrors "github.com/ssgb-dev/logbook-api/pkg/errors"
	"github.com/ssgb-dev/logbook-api/pkg/response"
)

// maxImportSize caps uploaded workbooks at 10 MiB.
const maxImportSize = 10 << 20

// AdminHandler groups the admin-only user, assignment and Excel endpoints.
type AdminHandler struct {
	users       *service.UserService
	assignments *service.AssignmentService
	importer    *service.ImporterService
}

// NewAdminHandler constructs an admin handler.
func NewAdminHandler(users *service.UserService, assignments *service.AssignmentService, importer *service.ImporterService) *AdminHandler {
	return &AdminHandler{users: users, assignments: assignments, importer: importer}
}

// ListUsers godoc
// @Summary List users
// @Tags Admin
// @Produce json
// @Param role query string false "admin, teacher or student"
// @Param grade query int false "Filter by grade"
// @Param class_number query int false "Filter by class"
// @Param search query string false "Search id or name"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /admin/users [get]
func (h *AdminHandler) ListUsers(c *gin.Context) {
	var filter models.UserFilter
	if raw := c.Query("role"); raw != "" {
		role := models.UserRole(raw)
		filter.Role = &role
	}
	filter.Grade = queryInt(c, "grade")
	filter.ClassNumber = queryInt(c, "class_number")
	filter.Search = strings.TrimSpace(c.Query("search"))
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if limit, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = limit
	}
	filter.SortBy = c.Query("sort")
	filter.SortOrder = c.Query("order")

	users, pagination, err := h.users.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, users, pagination)
}

// CreateUser godoc
// @Summary Create user
// @Tags Admin
// @Accept json
// @Produce json
// @Param payload body models.CreateUserRequest true "User payload"
// @Success 201 {object} response.Envelope
// @Router /admin/users [post]
func (h *AdminHandler) CreateUser(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req models.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid user payload"))
		return
	}
	user, err := h.users.Create(c.Request.Context(), req, claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, user)
}

// BulkUploadUsers godoc
// @Summary Create users in bulk
// @Tags Admin
// @Accept json
// @Produce json
// @Param payload body []models.CreateUserRequest true "User payloads"
// @Success 200 {object} response.Envelope
// @Router /admin/users/bulk-upload [post]
func (h *AdminHandler) BulkUploadUsers(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var reqs []models.CreateUserRequest
	if err := c.ShouldBindJSON(&reqs); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	result := h.users.BulkCreate(c.Request.Context(), reqs, claims.UserID)
	response.JSON(c, http.StatusOK, result, nil)
}

// DeleteUser godoc
// @Summary Delete user
// @Tags Admin
// @Produce json
// @Param id path int true "User surrogate ID"
// @Success 204
// @Router /admin/users/{id} [delete]
func (h *AdminHandler) DeleteUser(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	id, err := pathID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.users.Delete(c.Request.Context(), id, claims.UserID); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// BulkDeleteUsers godoc
// @Summary Delete multiple users
// @Tags Admin
// @Accept json
// @Produce json
// @Param payload body models.BulkDeleteRequest true "User ids"
// @Success 200 {object} response.Envelope
// @Router /admin/users/bulk-delete [post]
func (h *AdminHandler) BulkDeleteUsers(c *gin.Context) {
	var req models.BulkDeleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	deleted, err := h.users.BulkDelete(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"deleted": deleted}, nil)
}

// ResetPassword godoc
// @Summary Reset a user's password
// @Tags Admin
// @Accept json
// @Produce json
// @Param id path int true "User surrogate ID"
// @Param payload body models.ResetPasswordRequest true "New password"
// @Success 204
// @Router /admin/users/{id}/reset-password [put]
func (h *AdminHandler) ResetPassword(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	id, err := pathID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req models.ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	if err := h.users.ResetPassword(c.Request.Context(), id, req, claims.UserID); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ListTeacherAssignments godoc
// @Summary List duty assignments
// @Tags Admin
// @Produce json
// @Param school_year query int false "School year, defaults to current"
// @Success 200 {object} response.Envelope
// @Router /admin/teacher-assignments [get]
func (h *AdminHandler) ListTeacherAssignments(c *gin.Context) {
	year := 0
	if v := queryInt(c, "school_year"); v != nil {
		year = *v
	}
	assignments, err := h.assignments.ListTeacherAssignments(c.Request.Context(), h.assignments.SchoolYear(year))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, assignments, nil)
}

// CreateTeacherAssignment godoc
// @Summary Create duty assignment
// @Tags Admin
// @Accept json
// @Produce json
// @Param payload body models.CreateTeacherAssignmentRequest true "Assignment payload"
// @Success 201 {object} response.Envelope
// @Router /admin/teacher-assignments [post]
func (h *AdminHandler) CreateTeacherAssignment(c *gin.Context) {
	var req models.CreateTeacherAssignmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid assignment payload"))
		return
	}
	assignment, err := h.assignments.CreateTeacherAssignment(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, assignment)
}

// UpdateTeacherAssignment godoc
// @Summary Rescope duty assignment
// @Tags Admin
// @Accept json
// @Produce json
// @Param id path int true "Assignment ID"
// @Param payload body models.UpdateTeacherAssignmentRequest true "New role and scope"
// @Success 200 {object} response.Envelope
// @Router /admin/teacher-assignments/{id} [put]
func (h *AdminHandler) UpdateTeacherAssignment(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req models.UpdateTeacherAssignmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid assignment payload"))
		return
	}
	assignment, err := h.assignments.UpdateTeacherAssignment(c.Request.Context(), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, assignment, nil)
}

// DeleteTeacherAssignment godoc
// @Summary Delete duty assignment
// @Tags Admin
// @Produce json
// @Param id path int true "Assignment ID"
// @Success 204
// @Router /admin/teacher-assignments/{id} [delete]
func (h *AdminHandler) DeleteTeacherAssignment(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.assignments.DeleteTeacherAssignment(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// DownloadTemplate godoc
// @Summary Download an Excel import template
// @Tags Admin
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param type path string true "users or subjects"
// @Success 200 {file} binary
// @Router /admin/download-template/{type} [get]
func (h *AdminHandler) DownloadTemplate(c *gin.Context) {
	data, filename, err := h.importer.Template(service.ImportType(c.Param("type")))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}

// ImportExcel godoc
// @Summary Import users or subjects from a workbook
// @Tags Admin
// @Accept multipart/form-data
// @Produce json
// @Param type path string true "users or subjects"
// @Param file formData file true "Filled-in template"
// @Success 200 {object} response.Envelope
// @Router /admin/import-excel/{type} [post]
func (h *AdminHandler) ImportExcel(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	data, err := uploadedWorkbook(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	result, err := h.importer.Import(c.Request.Context(), service.ImportType(c.Param("type")), data, claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// ImportTeacherAssignments godoc
// @Summary Import duty assignments from a workbook
// @Tags Admin
// @Accept multipart/form-data
// @Produce json
// @Param school_year query int false "School year, defaults to current"
// @Param file formData file true "Filled-in template"
// @Success 200 {object} response.Envelope
// @Router /admin/import-teacher-assignments [post]
func (h *AdminHandler) ImportTeacherAssignments(c *gin.Context) {
	data, err := uploadedWorkbook(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	year := 0
	if v := queryInt(c, "school_year"); v != nil {
		year = *v
	}
	result, err := h.importer.ImportTeacherAssignments(c.Request.Context(), data, h.assignments.SchoolYear(year))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// uploadedWorkbook reads the "file" form field, capped at maxImportSize.
func uploadedWorkbook(c *gin.Context) ([]byte, error) {
	file, err := c.FormFile("file")
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "file is required")
	}
	if file.Size > maxImportSize {
		return nil, appErrors.Clone(appErrors.ErrValidation, "file too large")
	}

	src, err := file.Open()
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open upload")
	}
	defer src.Close()

	data, err := io.ReadAll(io.LimitReader(src, maxImportSize))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read upload")
	}
	return data, nil
}
