package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/ssgb-dev/logbook-api/internal/models"
	appErrors "github.com/ssgb-dev/logbook-api/pkg/errors"
	"github.com/ssgb-dev/logbook-api/pkg/studentnum"
)

type assignmentRepository interface {
	ListTeacherAssignments(ctx context.Context, schoolYear int) ([]models.TeacherAssignmentDetail, error)
	ListByTeacher(ctx context.Context, teacherUserID string, schoolYear int) ([]models.TeacherAssignment, error)
	CreateTeacherAssignment(ctx context.Context, a *models.TeacherAssignment) error
	GetTeacherAssignment(ctx context.Context, id int64) (*models.TeacherAssignment, error)
	UpdateTeacherAssignment(ctx context.Context, a *models.TeacherAssignment) error
	DeleteTeacherAssignment(ctx context.Context, id int64) error
	ListSubjectClasses(ctx context.Context, subjectID int64, schoolYear int) ([]models.SubjectClassAssignment, error)
	AssignClassToSubject(ctx context.Context, subjectID int64, grade, classNumber, schoolYear int) error
	RemoveClassFromSubject(ctx context.Context, subjectID int64, grade, classNumber, schoolYear int) error
	AssignStudentToSubject(ctx context.Context, subjectID int64, studentUserID string, assignedType models.AssignedType, schoolYear int) error
	RemoveStudentsFromSubject(ctx context.Context, subjectID int64, studentUserIDs []string, schoolYear int) (int, error)
	ListSubjectStudents(ctx context.Context, subjectID int64, schoolYear, page, pageSize int) ([]models.StudentInfo, int, error)
}

type assignmentUserReader interface {
	FindByUserID(ctx context.Context, userID string) (*models.User, error)
	List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error)
	ListStudentsByClass(ctx context.Context, grade, classNumber int) ([]models.User, error)
}

type assignmentSubjectReader interface {
	FindByID(ctx context.Context, id int64) (*models.Subject, error)
}

// AssignmentService manages teacher duty roles and subject rosters.
type AssignmentService struct {
	repo       assignmentRepository
	users      assignmentUserReader
	subjects   assignmentSubjectReader
	validator  *validator.Validate
	logger     *zap.Logger
	schoolYear int
}

// NewAssignmentService constructs an AssignmentService instance.
func NewAssignmentService(repo assignmentRepository, users assignmentUserReader, subjects assignmentSubjectReader, validate *validator.Validate, logger *zap.Logger, schoolYear int) *AssignmentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AssignmentService{repo: repo, users: users, subjects: subjects, validator: validate, logger: logger, schoolYear: schoolYear}
}

// SchoolYear resolves an optional year parameter to the configured default.
func (s *AssignmentService) SchoolYear(year int) int {
	if year > 0 {
		return year
	}
	return s.schoolYear
}

// ListTeacherAssignments returns all duty assignments for a year.
func (s *AssignmentService) ListTeacherAssignments(ctx context.Context, schoolYear int) ([]models.TeacherAssignmentDetail, error) {
	assignments, err := s.repo.ListTeacherAssignments(ctx, s.SchoolYear(schoolYear))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list teacher assignments")
	}
	return assignments, nil
}

// checkRoleScope verifies that the scope fields match the role type.
func checkRoleScope(roleType models.TeacherRoleType, grade, classNumber *int, subjectID *int64) error {
	switch roleType {
	case models.RoleHomeroomTeacher, models.RoleAssistantHomeroom:
		if grade == nil || classNumber == nil {
			return appErrors.Clone(appErrors.ErrValidation, "homeroom roles require grade and class_number")
		}
	case models.RoleSubjectTeacher:
		if subjectID == nil {
			return appErrors.Clone(appErrors.ErrValidation, "subject_teacher requires subject_id")
		}
	case models.RoleGradeHead:
		if grade == nil {
			return appErrors.Clone(appErrors.ErrValidation, "grade_head requires grade")
		}
	}
	return nil
}

// CreateTeacherAssignment grants a duty role to a teacher. The role's
// scope fields must match the role type.
func (s *AssignmentService) CreateTeacherAssignment(ctx context.Context, req models.CreateTeacherAssignmentRequest) (*models.TeacherAssignment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid assignment payload")
	}
	if err := checkRoleScope(req.RoleType, req.Grade, req.ClassNumber, req.SubjectID); err != nil {
		return nil, err
	}

	teacher, err := s.users.FindByUserID(ctx, req.TeacherUserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher")
	}
	if teacher.Role != models.RoleTeacher {
		return nil, appErrors.Clone(appErrors.ErrValidation, "assignments only apply to teacher accounts")
	}

	if req.SubjectID != nil {
		if _, err := s.subjects.FindByID(ctx, *req.SubjectID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrNotFound, "subject not found")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subject")
		}
	}

	assignment := &models.TeacherAssignment{
		TeacherUserID: req.TeacherUserID,
		RoleType:      req.RoleType,
		Grade:         req.Grade,
		ClassNumber:   req.ClassNumber,
		SubjectID:     req.SubjectID,
		SchoolYear:    req.SchoolYear,
	}
	if err := s.repo.CreateTeacherAssignment(ctx, assignment); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create assignment")
	}
	return assignment, nil
}

// UpdateTeacherAssignment rescopes an existing duty assignment. The grantee
// cannot change; revoke and regrant for that.
func (s *AssignmentService) UpdateTeacherAssignment(ctx context.Context, id int64, req models.UpdateTeacherAssignmentRequest) (*models.TeacherAssignment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid assignment payload")
	}
	if err := checkRoleScope(req.RoleType, req.Grade, req.ClassNumber, req.SubjectID); err != nil {
		return nil, err
	}

	assignment, err := s.repo.GetTeacherAssignment(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "assignment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load assignment")
	}

	if req.SubjectID != nil {
		if _, err := s.subjects.FindByID(ctx, *req.SubjectID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrNotFound, "subject not found")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subject")
		}
	}

	assignment.RoleType = req.RoleType
	assignment.Grade = req.Grade
	assignment.ClassNumber = req.ClassNumber
	assignment.SubjectID = req.SubjectID
	assignment.SchoolYear = req.SchoolYear
	if err := s.repo.UpdateTeacherAssignment(ctx, assignment); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "assignment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update assignment")
	}
	return assignment, nil
}

// DeleteTeacherAssignment revokes a duty role.
func (s *AssignmentService) DeleteTeacherAssignment(ctx context.Context, id int64) error {
	if err := s.repo.DeleteTeacherAssignment(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete assignment")
	}
	return nil
}

// ListStudents returns student accounts, optionally filtered by class,
// ordered by student number.
func (s *AssignmentService) ListStudents(ctx context.Context, grade, classNumber *int) ([]models.StudentInfo, error) {
	role := models.RoleStudent
	users, _, err := s.users.List(ctx, models.UserFilter{Role: &role, Grade: grade, ClassNumber: classNumber, PageSize: 100, SortBy: "user_id", SortOrder: "ASC"})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list students")
	}

	students := make([]models.StudentInfo, 0, len(users))
	for _, u := range users {
		if u.Grade == nil || u.ClassNumber == nil || u.NumberInClass == nil {
			continue
		}
		students = append(students, models.StudentInfo{
			UserID:        u.UserID,
			FullName:      u.FullName,
			Grade:         *u.Grade,
			ClassNumber:   *u.ClassNumber,
			NumberInClass: *u.NumberInClass,
		})
	}
	students = studentnum.Sort(students)
	for i := range students {
		students[i].StudentNumber = studentnum.Format(students[i].Grade, students[i].ClassNumber, students[i].NumberInClass)
	}
	return students, nil
}

// ListSubjectClasses returns the classes attached to a subject.
func (s *AssignmentService) ListSubjectClasses(ctx context.Context, subjectID int64, schoolYear int) ([]models.SubjectClassAssignment, error) {
	classes, err := s.repo.ListSubjectClasses(ctx, subjectID, s.SchoolYear(schoolYear))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list subject classes")
	}
	return classes, nil
}

// ListSubjectStudents returns the paginated, student-number-ordered roster
// of a subject.
func (s *AssignmentService) ListSubjectStudents(ctx context.Context, subjectID int64, schoolYear, page, pageSize int) ([]models.StudentInfo, *models.Pagination, error) {
	students, total, err := s.repo.ListSubjectStudents(ctx, subjectID, s.SchoolYear(schoolYear), page, pageSize)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list subject students")
	}
	for i := range students {
		students[i].StudentNumber = studentnum.Format(students[i].Grade, students[i].ClassNumber, students[i].NumberInClass)
	}
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	return students, models.NewPagination(page, pageSize, total), nil
}

// AssignClasses attaches whole classes to a subject and fans each class out
// into per-student rows so downstream queries stay flat.
func (s *AssignmentService) AssignClasses(ctx context.Context, req models.AssignClassesRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid class assignment payload")
	}
	if _, err := s.subjects.FindByID(ctx, req.SubjectID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "subject not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subject")
	}

	for _, class := range req.Classes {
		if err := s.repo.AssignClassToSubject(ctx, req.SubjectID, class.Grade, class.ClassNumber, req.SchoolYear); err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to assign class")
		}
		students, err := s.users.ListStudentsByClass(ctx, class.Grade, class.ClassNumber)
		if err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class roster")
		}
		for _, student := range students {
			if err := s.repo.AssignStudentToSubject(ctx, req.SubjectID, student.UserID, models.AssignedTypeClass, req.SchoolYear); err != nil {
				return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to assign student")
			}
		}
	}
	return nil
}

// AssignStudents attaches individual students to a subject.
func (s *AssignmentService) AssignStudents(ctx context.Context, req models.AssignStudentsRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student assignment payload")
	}
	if _, err := s.subjects.FindByID(ctx, req.SubjectID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "subject not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subject")
	}
	for _, studentID := range req.StudentUserIDs {
		if err := s.repo.AssignStudentToSubject(ctx, req.SubjectID, studentID, models.AssignedTypeIndividual, req.SchoolYear); err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to assign student")
		}
	}
	return nil
}

// RemoveClass detaches a class and its expanded student rows.
func (s *AssignmentService) RemoveClass(ctx context.Context, req models.RemoveClassRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid remove class payload")
	}
	if err := s.repo.RemoveClassFromSubject(ctx, req.SubjectID, req.Grade, req.ClassNumber, req.SchoolYear); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to remove class")
	}
	return nil
}

// RemoveStudents detaches individually assigned students.
func (s *AssignmentService) RemoveStudents(ctx context.Context, req models.RemoveStudentsRequest) (int, error) {
	if err := s.validator.Struct(req); err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid remove students payload")
	}
	removed, err := s.repo.RemoveStudentsFromSubject(ctx, req.SubjectID, req.StudentUserIDs, req.SchoolYear)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to remove students")
	}
	return removed, nil
}
