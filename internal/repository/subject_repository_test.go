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

func TestSubjectFindByCode(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewSubjectRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "name", "code", "description", "created_at", "updated_at"}).
		AddRow(int64(3), "수학", "MATH", nil, now, now)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, name, code, description, created_at, updated_at FROM subjects WHERE code = $1 LIMIT 1")).
		WithArgs("MATH").
		WillReturnRows(rows)

	subject, err := repo.FindByCode(context.Background(), "MATH")
	require.NoError(t, err)
	assert.Equal(t, "수학", subject.Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubjectCreate(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewSubjectRepository(db)

	mock.ExpectQuery("INSERT INTO subjects").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(5)))

	subject := &models.Subject{Name: "물리", Code: "PHYS"}
	err := repo.Create(context.Background(), subject)
	require.NoError(t, err)
	assert.Equal(t, int64(5), subject.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubjectListAppliesSearch(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewSubjectRepository(db)

	now := time.Now()
	listRows := sqlmock.NewRows([]string{"id", "name", "code", "description", "created_at", "updated_at"}).
		AddRow(int64(1), "수학", "MATH", nil, now, now)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, name, code, description, created_at, updated_at FROM subjects WHERE 1=1 AND (LOWER(name) LIKE $1 OR LOWER(code) LIKE $1) ORDER BY name ASC LIMIT 20 OFFSET 0")).
		WithArgs("%수%").
		WillReturnRows(listRows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM subjects WHERE 1=1 AND (LOWER(name) LIKE $1 OR LOWER(code) LIKE $1)")).
		WithArgs("%수%").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	subjects, total, err := repo.List(context.Background(), models.SubjectFilter{Search: "수"})
	require.NoError(t, err)
	assert.Len(t, subjects, 1)
	assert.Equal(t, 1, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubjectBulkDelete(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewSubjectRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM subjects WHERE id IN ($1, $2, $3)")).
		WithArgs(int64(1), int64(2), int64(3)).
		WillReturnResult(sqlmock.NewResult(0, 3))

	affected, err := repo.BulkDelete(context.Background(), []int64{1, 2, 3})
	require.NoError(t, err)
	assert.Equal(t, 3, affected)
	assert.NoError(t, mock.ExpectationsWereMet())
}
