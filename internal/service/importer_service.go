package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/ssgb-dev/logbook-api/internal/models"
	appErrors "github.com/ssgb-dev/logbook-api/pkg/errors"
	"github.com/ssgb-dev/logbook-api/pkg/export"
)

// ImportType selects which template or import sheet is being handled.
type ImportType string

const (
	ImportTypeUsers              ImportType = "users"
	ImportTypeSubjects           ImportType = "subjects"
	ImportTypeTeacherAssignments ImportType = "teacher-assignments"
)

type userCreator interface {
	Create(ctx context.Context, req models.CreateUserRequest, actorID string) (*models.User, error)
}

type subjectCreator interface {
	Create(ctx context.Context, req models.CreateSubjectRequest) (*models.Subject, error)
}

type assignmentCreator interface {
	CreateTeacherAssignment(ctx context.Context, req models.CreateTeacherAssignmentRequest) (*models.TeacherAssignment, error)
}

// ImporterService renders Excel templates and imports filled-in workbooks.
// Imports never abort on a bad row; every row lands in the tally.
type ImporterService struct {
	users       userCreator
	subjects    subjectCreator
	assignments assignmentCreator
	xlsx        *export.XLSXExporter
	logger      *zap.Logger
}

// NewImporterService constructs an ImporterService instance.
func NewImporterService(users userCreator, subjects subjectCreator, assignments assignmentCreator, logger *zap.Logger) *ImporterService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ImporterService{users: users, subjects: subjects, assignments: assignments, xlsx: export.NewXLSXExporter(), logger: logger}
}

var userTemplate = export.Table{
	Headers: []string{"user_id", "password", "full_name", "role", "grade", "class_number", "number_in_class"},
	Rows: []map[string]string{
		{"user_id": "t001", "password": "changeme", "full_name": "김선생", "role": "teacher", "grade": "", "class_number": "", "number_in_class": ""},
		{"user_id": "s10203", "password": "changeme", "full_name": "김철수", "role": "student", "grade": "1", "class_number": "2", "number_in_class": "3"},
	},
}

var subjectTemplate = export.Table{
	Headers: []string{"name", "code", "description"},
	Rows: []map[string]string{
		{"name": "수학", "code": "MATH", "description": "1학년 공통"},
	},
}

var assignmentTemplate = export.Table{
	Headers: []string{"teacher_user_id", "role_type", "grade", "class_number", "subject_id"},
	Rows: []map[string]string{
		{"teacher_user_id": "t001", "role_type": "homeroom_teacher", "grade": "1", "class_number": "2", "subject_id": ""},
		{"teacher_user_id": "t002", "role_type": "subject_teacher", "grade": "", "class_number": "", "subject_id": "3"},
	},
}

// Template renders the workbook for the given import type.
func (s *ImporterService) Template(importType ImportType) ([]byte, string, error) {
	switch importType {
	case ImportTypeUsers:
		data, err := s.xlsx.Render(userTemplate, "users")
		if err != nil {
			return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render template")
		}
		return data, "users_template.xlsx", nil
	case ImportTypeSubjects:
		data, err := s.xlsx.Render(subjectTemplate, "subjects")
		if err != nil {
			return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render template")
		}
		return data, "subjects_template.xlsx", nil
	case ImportTypeTeacherAssignments:
		data, err := s.xlsx.Render(assignmentTemplate, "teacher_assignments")
		if err != nil {
			return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render template")
		}
		return data, "teacher_assignments_template.xlsx", nil
	default:
		return nil, "", appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown template type %q", importType))
	}
}

// Import parses an uploaded workbook and creates rows one by one.
func (s *ImporterService) Import(ctx context.Context, importType ImportType, data []byte, actorID string) (*models.BulkUploadResult, error) {
	table, err := export.ReadSheet(data)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "failed to parse workbook")
	}

	switch importType {
	case ImportTypeUsers:
		return s.importUsers(ctx, table, actorID), nil
	case ImportTypeSubjects:
		return s.importSubjects(ctx, table), nil
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown import type %q", importType))
	}
}

func (s *ImporterService) importUsers(ctx context.Context, table export.Table, actorID string) *models.BulkUploadResult {
	result := &models.BulkUploadResult{Errors: []string{}}
	for i, row := range table.Rows {
		req, err := userRowToRequest(row)
		if err != nil {
			result.Failed++
			result.Errors = append(result.Errors, fmt.Sprintf("row %d: %s", i+2, err))
			continue
		}
		if _, err := s.users.Create(ctx, req, actorID); err != nil {
			result.Failed++
			result.Errors = append(result.Errors, fmt.Sprintf("row %d (%s): %s", i+2, req.UserID, appErrors.FromError(err).Message))
			continue
		}
		result.Success++
	}
	return result
}

func (s *ImporterService) importSubjects(ctx context.Context, table export.Table) *models.BulkUploadResult {
	result := &models.BulkUploadResult{Errors: []string{}}
	for i, row := range table.Rows {
		name := strings.TrimSpace(row["name"])
		code := strings.TrimSpace(row["code"])
		if name == "" || code == "" {
			result.Failed++
			result.Errors = append(result.Errors, fmt.Sprintf("row %d: name and code are required", i+2))
			continue
		}
		req := models.CreateSubjectRequest{Name: name, Code: code}
		if desc := strings.TrimSpace(row["description"]); desc != "" {
			req.Description = &desc
		}
		if _, err := s.subjects.Create(ctx, req); err != nil {
			result.Failed++
			result.Errors = append(result.Errors, fmt.Sprintf("row %d (%s): %s", i+2, code, appErrors.FromError(err).Message))
			continue
		}
		result.Success++
	}
	return result
}

// ImportTeacherAssignments parses an uploaded duty workbook and grants roles
// row by row. Every row is stamped with the given school year.
func (s *ImporterService) ImportTeacherAssignments(ctx context.Context, data []byte, schoolYear int) (*models.BulkUploadResult, error) {
	table, err := export.ReadSheet(data)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "failed to parse workbook")
	}

	result := &models.BulkUploadResult{Errors: []string{}}
	for i, row := range table.Rows {
		req, err := assignmentRowToRequest(row, schoolYear)
		if err != nil {
			result.Failed++
			result.Errors = append(result.Errors, fmt.Sprintf("row %d: %s", i+2, err))
			continue
		}
		if _, err := s.assignments.CreateTeacherAssignment(ctx, req); err != nil {
			result.Failed++
			result.Errors = append(result.Errors, fmt.Sprintf("row %d (%s): %s", i+2, req.TeacherUserID, appErrors.FromError(err).Message))
			continue
		}
		result.Success++
	}
	return result, nil
}

func assignmentRowToRequest(row map[string]string, schoolYear int) (models.CreateTeacherAssignmentRequest, error) {
	req := models.CreateTeacherAssignmentRequest{
		TeacherUserID: strings.TrimSpace(row["teacher_user_id"]),
		RoleType:      models.TeacherRoleType(strings.ToLower(strings.TrimSpace(row["role_type"]))),
		SchoolYear:    schoolYear,
	}
	if req.TeacherUserID == "" {
		return req, fmt.Errorf("teacher_user_id is required")
	}
	switch req.RoleType {
	case models.RoleHomeroomTeacher, models.RoleAssistantHomeroom, models.RoleSubjectTeacher,
		models.RoleGradeHead, models.RoleRecordManager:
	default:
		return req, fmt.Errorf("unknown role_type %q", row["role_type"])
	}

	for _, field := range []struct {
		key  string
		dest **int
	}{
		{"grade", &req.Grade},
		{"class_number", &req.ClassNumber},
	} {
		raw := strings.TrimSpace(row[field.key])
		if raw == "" {
			continue
		}
		value, err := strconv.Atoi(raw)
		if err != nil {
			return req, fmt.Errorf("invalid %s %q", field.key, raw)
		}
		*field.dest = &value
	}
	if raw := strings.TrimSpace(row["subject_id"]); raw != "" {
		value, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return req, fmt.Errorf("invalid subject_id %q", raw)
		}
		req.SubjectID = &value
	}
	return req, nil
}

func userRowToRequest(row map[string]string) (models.CreateUserRequest, error) {
	req := models.CreateUserRequest{
		UserID:   strings.TrimSpace(row["user_id"]),
		Password: strings.TrimSpace(row["password"]),
		FullName: strings.TrimSpace(row["full_name"]),
		Role:     models.UserRole(strings.ToLower(strings.TrimSpace(row["role"]))),
	}
	if req.UserID == "" || req.Password == "" || req.FullName == "" {
		return req, fmt.Errorf("user_id, password and full_name are required")
	}
	switch req.Role {
	case models.RoleAdmin, models.RoleTeacher, models.RoleStudent:
	default:
		return req, fmt.Errorf("unknown role %q", row["role"])
	}

	for _, field := range []struct {
		key  string
		dest **int
	}{
		{"grade", &req.Grade},
		{"class_number", &req.ClassNumber},
		{"number_in_class", &req.NumberInClass},
	} {
		raw := strings.TrimSpace(row[field.key])
		if raw == "" {
			continue
		}
		value, err := strconv.Atoi(raw)
		if err != nil {
			return req, fmt.Errorf("invalid %s %q", field.key, raw)
		}
		*field.dest = &value
	}

	if req.Role == models.RoleStudent && (req.Grade == nil || req.ClassNumber == nil || req.NumberInClass == nil) {
		return req, fmt.Errorf("students require grade, class_number and number_in_class")
	}
	return req, nil
}
