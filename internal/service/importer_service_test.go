package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ssgb-dev/logbook-api/internal/models"
	appErrors "github.com/ssgb-dev/logbook-api/pkg/errors"
	"github.com/ssgb-dev/logbook-api/pkg/export"
)

type mockUserCreator struct {
	created  []models.CreateUserRequest
	existing map[string]bool
}

func (m *mockUserCreator) Create(ctx context.Context, req models.CreateUserRequest, actorID string) (*models.User, error) {
	if m.existing[req.UserID] {
		return nil, appErrors.Clone(appErrors.ErrConflict, "user id already taken")
	}
	m.created = append(m.created, req)
	return &models.User{UserID: req.UserID, FullName: req.FullName, Role: req.Role}, nil
}

type mockSubjectCreator struct {
	created []models.CreateSubjectRequest
}

func (m *mockSubjectCreator) Create(ctx context.Context, req models.CreateSubjectRequest) (*models.Subject, error) {
	m.created = append(m.created, req)
	return &models.Subject{ID: int64(len(m.created)), Name: req.Name, Code: req.Code}, nil
}

type mockAssignmentCreator struct {
	created []models.CreateTeacherAssignmentRequest
}

func (m *mockAssignmentCreator) CreateTeacherAssignment(ctx context.Context, req models.CreateTeacherAssignmentRequest) (*models.TeacherAssignment, error) {
	if req.RoleType == models.RoleSubjectTeacher && req.SubjectID == nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "subject_teacher requires subject_id")
	}
	m.created = append(m.created, req)
	return &models.TeacherAssignment{ID: int64(len(m.created)), TeacherUserID: req.TeacherUserID, RoleType: req.RoleType}, nil
}

func renderSheet(t *testing.T, table export.Table) []byte {
	t.Helper()
	data, err := export.NewXLSXExporter().Render(table, "upload")
	require.NoError(t, err)
	return data
}

func TestTemplateRendersKnownTypes(t *testing.T) {
	svc := NewImporterService(&mockUserCreator{}, &mockSubjectCreator{}, &mockAssignmentCreator{}, nil)

	data, filename, err := svc.Template(ImportTypeUsers)
	require.NoError(t, err)
	assert.Equal(t, "users_template.xlsx", filename)

	table, err := export.ReadSheet(data)
	require.NoError(t, err)
	assert.Equal(t, []string{"user_id", "password", "full_name", "role", "grade", "class_number", "number_in_class"}, table.Headers)
	require.Len(t, table.Rows, 2)
	assert.Equal(t, "s10203", table.Rows[1]["user_id"])

	_, filename, err = svc.Template(ImportTypeSubjects)
	require.NoError(t, err)
	assert.Equal(t, "subjects_template.xlsx", filename)

	_, filename, err = svc.Template(ImportTypeTeacherAssignments)
	require.NoError(t, err)
	assert.Equal(t, "teacher_assignments_template.xlsx", filename)

	_, _, err = svc.Template(ImportType("grades"))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestImportUsersTally(t *testing.T) {
	users := &mockUserCreator{existing: map[string]bool{"t777": true}}
	svc := NewImporterService(users, &mockSubjectCreator{}, &mockAssignmentCreator{}, nil)

	sheet := renderSheet(t, export.Table{
		Headers: userTemplate.Headers,
		Rows: []map[string]string{
			{"user_id": "s10101", "password": "pw", "full_name": "이영희", "role": "student", "grade": "1", "class_number": "1", "number_in_class": "1"},
			{"user_id": "s10102", "password": "pw", "full_name": "박민수", "role": "student", "grade": "1", "class_number": "1"},
			{"user_id": "t777", "password": "pw", "full_name": "김선생", "role": "teacher"},
			{"user_id": "x001", "password": "pw", "full_name": "아무개", "role": "principal"},
		},
	})

	result, err := svc.Import(context.Background(), ImportTypeUsers, sheet, "a001")
	require.NoError(t, err)
	assert.Equal(t, 1, result.Success)
	assert.Equal(t, 3, result.Failed)
	require.Len(t, result.Errors, 3)
	// Row numbers match the spreadsheet, header included.
	assert.Contains(t, result.Errors[0], "row 3")
	assert.Contains(t, result.Errors[1], "row 4 (t777)")
	assert.Contains(t, result.Errors[2], "unknown role")

	require.Len(t, users.created, 1)
	assert.Equal(t, "s10101", users.created[0].UserID)
	require.NotNil(t, users.created[0].Grade)
	assert.Equal(t, 1, *users.created[0].Grade)
}

func TestImportSubjectsTally(t *testing.T) {
	subjects := &mockSubjectCreator{}
	svc := NewImporterService(&mockUserCreator{}, subjects, &mockAssignmentCreator{}, nil)

	sheet := renderSheet(t, export.Table{
		Headers: subjectTemplate.Headers,
		Rows: []map[string]string{
			{"name": "수학", "code": "MATH", "description": "1학년 공통"},
			{"name": "", "code": "ENG", "description": ""},
		},
	})

	result, err := svc.Import(context.Background(), ImportTypeSubjects, sheet, "a001")
	require.NoError(t, err)
	assert.Equal(t, 1, result.Success)
	assert.Equal(t, 1, result.Failed)
	require.Len(t, subjects.created, 1)
	assert.Equal(t, "MATH", subjects.created[0].Code)
	require.NotNil(t, subjects.created[0].Description)
}

func TestImportTeacherAssignmentsTally(t *testing.T) {
	assignments := &mockAssignmentCreator{}
	svc := NewImporterService(&mockUserCreator{}, &mockSubjectCreator{}, assignments, nil)

	sheet := renderSheet(t, export.Table{
		Headers: assignmentTemplate.Headers,
		Rows: []map[string]string{
			{"teacher_user_id": "t001", "role_type": "homeroom_teacher", "grade": "1", "class_number": "2", "subject_id": ""},
			{"teacher_user_id": "t002", "role_type": "subject_teacher", "grade": "", "class_number": "", "subject_id": "3"},
			{"teacher_user_id": "t003", "role_type": "subject_teacher", "grade": "", "class_number": "", "subject_id": ""},
			{"teacher_user_id": "", "role_type": "grade_head", "grade": "1", "class_number": "", "subject_id": ""},
			{"teacher_user_id": "t004", "role_type": "vice_principal", "grade": "", "class_number": "", "subject_id": ""},
		},
	})

	result, err := svc.ImportTeacherAssignments(context.Background(), sheet, 2025)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Success)
	assert.Equal(t, 3, result.Failed)
	require.Len(t, result.Errors, 3)
	assert.Contains(t, result.Errors[0], "row 4 (t003)")
	assert.Contains(t, result.Errors[1], "teacher_user_id is required")
	assert.Contains(t, result.Errors[2], "unknown role_type")

	require.Len(t, assignments.created, 2)
	assert.Equal(t, 2025, assignments.created[0].SchoolYear)
	require.NotNil(t, assignments.created[1].SubjectID)
	assert.Equal(t, int64(3), *assignments.created[1].SubjectID)
}

func TestImportTeacherAssignmentsRejectsGarbage(t *testing.T) {
	svc := NewImporterService(&mockUserCreator{}, &mockSubjectCreator{}, &mockAssignmentCreator{}, nil)

	_, err := svc.ImportTeacherAssignments(context.Background(), []byte("not a workbook"), 2025)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestImportRejectsGarbage(t *testing.T) {
	svc := NewImporterService(&mockUserCreator{}, &mockSubjectCreator{}, &mockAssignmentCreator{}, nil)

	_, err := svc.Import(context.Background(), ImportTypeUsers, []byte("not a workbook"), "a001")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}
