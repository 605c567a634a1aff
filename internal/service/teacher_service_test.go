package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ssgb-dev/logbook-api/internal/models"
)

type fakeTeacherAssignments struct {
	assignments []models.TeacherAssignment
	subjects    []models.MySubject
}

func (f *fakeTeacherAssignments) ListByTeacher(_ context.Context, teacherUserID string, _ int) ([]models.TeacherAssignment, error) {
	var out []models.TeacherAssignment
	for _, a := range f.assignments {
		if a.TeacherUserID == teacherUserID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeTeacherAssignments) ListSubjectsForTeacher(_ context.Context, _ string, _ int) ([]models.MySubject, error) {
	return f.subjects, nil
}

type fakeTeacherRecords struct {
	records []models.RecordWithDetails

	listFilters []models.RecordFilter
}

func (f *fakeTeacherRecords) List(_ context.Context, filter models.RecordFilter) ([]models.RecordWithDetails, int, error) {
	f.listFilters = append(f.listFilters, filter)
	var out []models.RecordWithDetails
	for _, r := range f.records {
		if filter.RecordType != nil && r.RecordType != *filter.RecordType {
			continue
		}
		if filter.Grade != nil && (r.Grade == nil || *r.Grade != *filter.Grade) {
			continue
		}
		if filter.ClassNumber != nil && (r.ClassNumber == nil || *r.ClassNumber != *filter.ClassNumber) {
			continue
		}
		out = append(out, r)
	}
	return out, len(out), nil
}

func (f *fakeTeacherRecords) ListBySubjects(_ context.Context, subjectIDs []int64, recordType *models.RecordType) ([]models.RecordWithDetails, error) {
	ids := make(map[int64]bool, len(subjectIDs))
	for _, id := range subjectIDs {
		ids[id] = true
	}
	var out []models.RecordWithDetails
	for _, r := range f.records {
		if !ids[r.SubjectID] {
			continue
		}
		if recordType != nil && r.RecordType != *recordType {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

func int64Ptr(v int64) *int64 { return &v }

func teacherRecord(id, subjectID int64, grade, class, number int, recordType models.RecordType) models.RecordWithDetails {
	return models.RecordWithDetails{
		Record: models.Record{
			ID:            id,
			StudentUserID: "s" + string(rune('0'+id)),
			SubjectID:     subjectID,
			RecordType:    recordType,
		},
		Grade:         intPtr(grade),
		ClassNumber:   intPtr(class),
		NumberInClass: intPtr(number),
	}
}

func TestMyClassesDeduplicates(t *testing.T) {
	assignments := &fakeTeacherAssignments{assignments: []models.TeacherAssignment{
		{TeacherUserID: "t001", RoleType: models.RoleHomeroomTeacher, Grade: intPtr(1), ClassNumber: intPtr(2)},
		{TeacherUserID: "t001", RoleType: models.RoleAssistantHomeroom, Grade: intPtr(1), ClassNumber: intPtr(2)},
		{TeacherUserID: "t001", RoleType: models.RoleSubjectTeacher, SubjectID: int64Ptr(5)},
	}}
	svc := NewTeacherService(assignments, &fakeTeacherRecords{}, nil, 2025)

	classes, err := svc.MyClasses(context.Background(), "t001")
	require.NoError(t, err)
	require.Len(t, classes, 1)
	assert.Equal(t, 1, classes[0].Grade)
	assert.Equal(t, 2, classes[0].ClassNumber)
}

func TestSubjectRecordsFilteredByTaughtSubjects(t *testing.T) {
	assignments := &fakeTeacherAssignments{assignments: []models.TeacherAssignment{
		{TeacherUserID: "t001", RoleType: models.RoleSubjectTeacher, SubjectID: int64Ptr(3)},
	}}
	records := &fakeTeacherRecords{records: []models.RecordWithDetails{
		teacherRecord(1, 3, 1, 1, 5, models.RecordTypeSubject),
		teacherRecord(2, 3, 1, 1, 2, models.RecordTypeActivity),
		teacherRecord(3, 9, 1, 1, 1, models.RecordTypeSubject),
	}}
	svc := NewTeacherService(assignments, records, nil, 2025)

	got, err := svc.SubjectRecords(context.Background(), "t001")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, int64(1), got[0].ID)
	assert.Equal(t, "10105", got[0].StudentNumber)
}

func TestAccessibleRecordsMergesSubjectAndClass(t *testing.T) {
	assignments := &fakeTeacherAssignments{assignments: []models.TeacherAssignment{
		{TeacherUserID: "t001", RoleType: models.RoleSubjectTeacher, SubjectID: int64Ptr(3)},
		{TeacherUserID: "t001", RoleType: models.RoleHomeroomTeacher, Grade: intPtr(2), ClassNumber: intPtr(1)},
	}}
	records := &fakeTeacherRecords{records: []models.RecordWithDetails{
		// Taught subject and homeroom both cover record 1; it must appear once.
		teacherRecord(1, 3, 2, 1, 7, models.RecordTypeSubject),
		teacherRecord(2, 9, 2, 1, 4, models.RecordTypeSubject),
		teacherRecord(3, 9, 3, 2, 1, models.RecordTypeSubject),
	}}
	svc := NewTeacherService(assignments, records, nil, 2025)

	got, err := svc.AccessibleRecords(context.Background(), "t001")
	require.NoError(t, err)
	require.Len(t, got, 2)
	// Sorted by student number tuple.
	assert.Equal(t, int64(2), got[0].ID)
	assert.Equal(t, int64(1), got[1].ID)
}

func TestRecordManagerSeesEverything(t *testing.T) {
	assignments := &fakeTeacherAssignments{assignments: []models.TeacherAssignment{
		{TeacherUserID: "t001", RoleType: models.RoleRecordManager},
	}}
	records := &fakeTeacherRecords{records: []models.RecordWithDetails{
		teacherRecord(1, 3, 1, 1, 1, models.RecordTypeSubject),
		teacherRecord(2, 9, 3, 4, 20, models.RecordTypeActivity),
	}}
	svc := NewTeacherService(assignments, records, nil, 2025)

	got, err := svc.AccessibleRecords(context.Background(), "t001")
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestGradeHeadSeesWholeGrade(t *testing.T) {
	assignments := &fakeTeacherAssignments{assignments: []models.TeacherAssignment{
		{TeacherUserID: "t001", RoleType: models.RoleGradeHead, Grade: intPtr(2)},
	}}
	records := &fakeTeacherRecords{records: []models.RecordWithDetails{
		teacherRecord(1, 3, 2, 1, 1, models.RecordTypeSubject),
		teacherRecord(2, 3, 2, 5, 9, models.RecordTypeSubject),
		teacherRecord(3, 3, 3, 1, 1, models.RecordTypeSubject),
	}}
	svc := NewTeacherService(assignments, records, nil, 2025)

	got, err := svc.AccessibleRecords(context.Background(), "t001")
	require.NoError(t, err)
	require.Len(t, got, 2)
	for _, r := range got {
		assert.Equal(t, 2, *r.Grade)
	}
}

func TestTeacherWithoutAssignmentsGetsNothing(t *testing.T) {
	svc := NewTeacherService(&fakeTeacherAssignments{}, &fakeTeacherRecords{}, nil, 2025)

	got, err := svc.AccessibleRecords(context.Background(), "t404")
	require.NoError(t, err)
	assert.Empty(t, got)
}
