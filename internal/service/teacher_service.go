package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/ssgb-dev/logbook-api/internal/models"
	appErrors "github.com/ssgb-dev/logbook-api/pkg/errors"
	"github.com/ssgb-dev/logbook-api/pkg/studentnum"
)

type teacherRecordReader interface {
	List(ctx context.Context, filter models.RecordFilter) ([]models.RecordWithDetails, int, error)
	ListBySubjects(ctx context.Context, subjectIDs []int64, recordType *models.RecordType) ([]models.RecordWithDetails, error)
}

type teacherAssignmentRepository interface {
	ListByTeacher(ctx context.Context, teacherUserID string, schoolYear int) ([]models.TeacherAssignment, error)
	ListSubjectsForTeacher(ctx context.Context, teacherUserID string, schoolYear int) ([]models.MySubject, error)
}

// TeacherService answers the teacher workspace queries: what do I teach,
// which classes are mine, which records can I touch.
type TeacherService struct {
	assignments teacherAssignmentRepository
	records     teacherRecordReader
	logger      *zap.Logger
	schoolYear  int
}

// NewTeacherService constructs a TeacherService instance.
func NewTeacherService(assignments teacherAssignmentRepository, records teacherRecordReader, logger *zap.Logger, schoolYear int) *TeacherService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TeacherService{assignments: assignments, records: records, logger: logger, schoolYear: schoolYear}
}

// MyAssignments returns the teacher's duty assignments for the year.
func (s *TeacherService) MyAssignments(ctx context.Context, teacherUserID string) ([]models.TeacherAssignment, error) {
	assignments, err := s.assignments.ListByTeacher(ctx, teacherUserID, s.schoolYear)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load assignments")
	}
	return assignments, nil
}

// MyClasses derives the classes the teacher is responsible for from the
// homeroom and assistant assignments.
func (s *TeacherService) MyClasses(ctx context.Context, teacherUserID string) ([]models.MyClass, error) {
	assignments, err := s.MyAssignments(ctx, teacherUserID)
	if err != nil {
		return nil, err
	}

	seen := make(map[[2]int]bool)
	classes := make([]models.MyClass, 0)
	for _, a := range assignments {
		if a.RoleType != models.RoleHomeroomTeacher && a.RoleType != models.RoleAssistantHomeroom {
			continue
		}
		if a.Grade == nil || a.ClassNumber == nil {
			continue
		}
		key := [2]int{*a.Grade, *a.ClassNumber}
		if seen[key] {
			continue
		}
		seen[key] = true
		classes = append(classes, models.MyClass{Grade: *a.Grade, ClassNumber: *a.ClassNumber, RoleType: string(a.RoleType)})
	}
	return classes, nil
}

// MySubjects returns the subjects the teacher teaches.
func (s *TeacherService) MySubjects(ctx context.Context, teacherUserID string) ([]models.MySubject, error) {
	subjects, err := s.assignments.ListSubjectsForTeacher(ctx, teacherUserID, s.schoolYear)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subjects")
	}
	return subjects, nil
}

// ActivitySubjects returns the teacher's subjects that carry activity
// records. The distinction is by record type, so the subject list is the
// same; the handler exposes them under a separate path for the UI.
func (s *TeacherService) ActivitySubjects(ctx context.Context, teacherUserID string) ([]models.MySubject, error) {
	return s.MySubjects(ctx, teacherUserID)
}

// SubjectRecords returns the subject-type records of the teacher's subjects.
func (s *TeacherService) SubjectRecords(ctx context.Context, teacherUserID string) ([]models.RecordWithDetails, error) {
	recordType := models.RecordTypeSubject
	return s.recordsForTeacher(ctx, teacherUserID, &recordType)
}

// ActivityRecords returns the activity-type records of the teacher's subjects.
func (s *TeacherService) ActivityRecords(ctx context.Context, teacherUserID string) ([]models.RecordWithDetails, error) {
	recordType := models.RecordTypeActivity
	return s.recordsForTeacher(ctx, teacherUserID, &recordType)
}

// AccessibleRecords returns every record the teacher can touch: records of
// the subjects they teach plus records of the classes they run. Record
// managers see everything.
func (s *TeacherService) AccessibleRecords(ctx context.Context, teacherUserID string) ([]models.RecordWithDetails, error) {
	return s.recordsForTeacher(ctx, teacherUserID, nil)
}

func (s *TeacherService) recordsForTeacher(ctx context.Context, teacherUserID string, recordType *models.RecordType) ([]models.RecordWithDetails, error) {
	assignments, err := s.MyAssignments(ctx, teacherUserID)
	if err != nil {
		return nil, err
	}

	var subjectIDs []int64
	manager := false
	type classKey struct{ grade, classNumber int }
	var classKeys []classKey
	gradeSet := make(map[int]bool)

	for _, a := range assignments {
		switch a.RoleType {
		case models.RoleRecordManager:
			manager = true
		case models.RoleSubjectTeacher:
			if a.SubjectID != nil {
				subjectIDs = append(subjectIDs, *a.SubjectID)
			}
		case models.RoleHomeroomTeacher, models.RoleAssistantHomeroom:
			if a.Grade != nil && a.ClassNumber != nil {
				classKeys = append(classKeys, classKey{*a.Grade, *a.ClassNumber})
			}
		case models.RoleGradeHead:
			if a.Grade != nil {
				gradeSet[*a.Grade] = true
			}
		}
	}

	merged := make(map[int64]models.RecordWithDetails)

	if manager {
		records, _, err := s.records.List(ctx, models.RecordFilter{RecordType: recordType, PageSize: 100})
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list records")
		}
		for _, r := range records {
			merged[r.ID] = r
		}
	} else {
		if len(subjectIDs) > 0 {
			records, err := s.records.ListBySubjects(ctx, subjectIDs, recordType)
			if err != nil {
				return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list subject records")
			}
			for _, r := range records {
				merged[r.ID] = r
			}
		}
		for _, key := range classKeys {
			grade := key.grade
			classNumber := key.classNumber
			records, _, err := s.records.List(ctx, models.RecordFilter{RecordType: recordType, Grade: &grade, ClassNumber: &classNumber, PageSize: 100})
			if err != nil {
				return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list class records")
			}
			for _, r := range records {
				merged[r.ID] = r
			}
		}
		for grade := range gradeSet {
			g := grade
			records, _, err := s.records.List(ctx, models.RecordFilter{RecordType: recordType, Grade: &g, PageSize: 100})
			if err != nil {
				return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list grade records")
			}
			for _, r := range records {
				merged[r.ID] = r
			}
		}
	}

	result := make([]models.RecordWithDetails, 0, len(merged))
	for _, r := range merged {
		result = append(result, r)
	}
	result = studentnum.Sort(result)
	for i := range result {
		if result[i].Grade != nil && result[i].ClassNumber != nil && result[i].NumberInClass != nil {
			result[i].StudentNumber = studentnum.Format(*result[i].Grade, *result[i].ClassNumber, *result[i].NumberInClass)
		}
	}
	return result, nil
}
