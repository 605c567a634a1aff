package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ssgb-dev/logbook-api/internal/models"
)

func TestRecordFindByID(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewRecordRepository(db)

	now := time.Now()
	content := "수업 태도가 성실함"
	rows := sqlmock.NewRows([]string{"id", "student_user_id", "subject_id", "record_type", "content", "char_count", "byte_count", "is_editable_by_student", "created_at", "updated_at"}).
		AddRow(int64(1), "s10203", int64(3), string(models.RecordTypeSubject), content, 10, 25, false, now, now)
	mock.ExpectQuery("SELECT (.+) FROM records WHERE id = \\$1 LIMIT 1").
		WithArgs(int64(1)).
		WillReturnRows(rows)

	record, err := repo.FindByID(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "s10203", record.StudentUserID)
	require.NotNil(t, record.Content)
	assert.Equal(t, content, *record.Content)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordUpdateContent(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewRecordRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE records SET content = $2, char_count = $3, byte_count = $4, updated_at = $5 WHERE id = $1")).
		WillReturnResult(sqlmock.NewResult(0, 1))

	content := "가나"
	err := repo.UpdateContent(context.Background(), 1, &content, 2, 6)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordCreateVersion(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewRecordRepository(db)

	mock.ExpectExec("INSERT INTO record_versions").WillReturnResult(sqlmock.NewResult(1, 1))

	content := "이전 내용"
	err := repo.CreateVersion(context.Background(), &models.RecordVersion{
		RecordID: 1,
		Content:  &content,
		EditedBy: "t001",
		EditType: models.EditTypeUpdate,
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordListComments(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewRecordRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "record_id", "author_id", "author_name", "content", "created_at"}).
		AddRow(int64(1), int64(9), "t001", "김선생", "표현을 다듬어 주세요", now).
		AddRow(int64(2), int64(9), "t002", "박선생", "확인했습니다", now)
	mock.ExpectQuery("SELECT (.+) FROM comments c").
		WithArgs(int64(9)).
		WillReturnRows(rows)

	comments, err := repo.ListComments(context.Background(), 9)
	require.NoError(t, err)
	require.Len(t, comments, 2)
	assert.Equal(t, "김선생", comments[0].AuthorName)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordListBySubjectsEmpty(t *testing.T) {
	db, _, cleanup := newMock(t)
	defer cleanup()
	repo := NewRecordRepository(db)

	records, err := repo.ListBySubjects(context.Background(), nil, nil)
	require.NoError(t, err)
	assert.Empty(t, records)
}
