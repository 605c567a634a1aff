package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ssgb-dev/logbook-api/internal/models"
)

func TestCreateTeacherAssignment(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAssignmentRepository(db)

	mock.ExpectQuery("INSERT INTO teacher_assignments").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(11)))

	grade := 1
	classNumber := 2
	a := &models.TeacherAssignment{
		TeacherUserID: "t001",
		RoleType:      models.RoleHomeroomTeacher,
		Grade:         &grade,
		ClassNumber:   &classNumber,
		SchoolYear:    2025,
	}
	err := repo.CreateTeacherAssignment(context.Background(), a)
	require.NoError(t, err)
	assert.Equal(t, int64(11), a.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListByTeacher(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAssignmentRepository(db)

	now := time.Now()
	subjectID := int64(3)
	rows := sqlmock.NewRows([]string{"id", "teacher_user_id", "role_type", "grade", "class_number", "subject_id", "school_year", "created_at"}).
		AddRow(int64(1), "t001", string(models.RoleSubjectTeacher), nil, nil, subjectID, 2025, now)
	mock.ExpectQuery("SELECT (.+) FROM teacher_assignments WHERE teacher_user_id = \\$1 AND school_year = \\$2").
		WithArgs("t001", 2025).
		WillReturnRows(rows)

	assignments, err := repo.ListByTeacher(context.Background(), "t001", 2025)
	require.NoError(t, err)
	require.Len(t, assignments, 1)
	assert.Equal(t, models.RoleSubjectTeacher, assignments[0].RoleType)
	require.NotNil(t, assignments[0].SubjectID)
	assert.Equal(t, subjectID, *assignments[0].SubjectID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateTeacherAssignment(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAssignmentRepository(db)

	subjectID := int64(3)
	mock.ExpectExec("UPDATE teacher_assignments").
		WithArgs(string(models.RoleSubjectTeacher), nil, nil, subjectID, 2025, int64(11)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	a := &models.TeacherAssignment{
		ID:         11,
		RoleType:   models.RoleSubjectTeacher,
		SubjectID:  &subjectID,
		SchoolYear: 2025,
	}
	err := repo.UpdateTeacherAssignment(context.Background(), a)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateTeacherAssignmentMissingRow(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAssignmentRepository(db)

	mock.ExpectExec("UPDATE teacher_assignments").
		WillReturnResult(sqlmock.NewResult(0, 0))

	grade := 1
	err := repo.UpdateTeacherAssignment(context.Background(), &models.TeacherAssignment{
		ID: 99, RoleType: models.RoleGradeHead, Grade: &grade, SchoolYear: 2025,
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRemoveClassFromSubjectRunsInTx(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAssignmentRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM subject_class_assignments WHERE subject_id = $1 AND grade = $2 AND class_number = $3 AND school_year = $4")).
		WithArgs(int64(3), 1, 2, 2025).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("DELETE FROM subject_student_assignments ssa").
		WithArgs(int64(3), 1, 2, 2025).
		WillReturnResult(sqlmock.NewResult(0, 25))
	mock.ExpectCommit()

	err := repo.RemoveClassFromSubject(context.Background(), 3, 1, 2, 2025)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListSubjectStudentsOrdersByStudentNumber(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAssignmentRepository(db)

	listRows := sqlmock.NewRows([]string{"user_id", "full_name", "grade", "class_number", "number_in_class"}).
		AddRow("s10201", "김철수", 1, 2, 1).
		AddRow("s10202", "이영희", 1, 2, 2)
	mock.ExpectQuery("SELECT u.user_id, u.full_name, u.grade, u.class_number, u.number_in_class FROM subject_student_assignments ssa").
		WithArgs(int64(3), 2025).
		WillReturnRows(listRows)
	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM subject_student_assignments ssa").
		WithArgs(int64(3), 2025).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

	students, total, err := repo.ListSubjectStudents(context.Background(), 3, 2025, 1, 20)
	require.NoError(t, err)
	require.Len(t, students, 2)
	assert.Equal(t, 2, total)
	assert.Equal(t, "s10201", students[0].UserID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRemoveStudentsFromSubjectEmpty(t *testing.T) {
	db, _, cleanup := newMock(t)
	defer cleanup()
	repo := NewAssignmentRepository(db)

	affected, err := repo.RemoveStudentsFromSubject(context.Background(), 3, nil, 2025)
	require.NoError(t, err)
	assert.Zero(t, affected)
}
