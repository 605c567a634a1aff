package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ssgb-dev/logbook-api/internal/models"
	appErrors "github.com/ssgb-dev/logbook-api/pkg/errors"
)

type fakeSubjectRepo struct {
	subjects map[int64]*models.Subject
	nextID   int64
}

func newFakeSubjectRepo() *fakeSubjectRepo {
	return &fakeSubjectRepo{subjects: make(map[int64]*models.Subject), nextID: 1}
}

func (f *fakeSubjectRepo) FindByID(_ context.Context, id int64) (*models.Subject, error) {
	if s, ok := f.subjects[id]; ok {
		return s, nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakeSubjectRepo) FindByCode(_ context.Context, code string) (*models.Subject, error) {
	for _, s := range f.subjects {
		if s.Code == code {
			return s, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeSubjectRepo) List(_ context.Context, _ models.SubjectFilter) ([]models.Subject, int, error) {
	out := make([]models.Subject, 0, len(f.subjects))
	for _, s := range f.subjects {
		out = append(out, *s)
	}
	return out, len(out), nil
}

func (f *fakeSubjectRepo) Create(_ context.Context, subject *models.Subject) error {
	subject.ID = f.nextID
	f.nextID++
	f.subjects[subject.ID] = subject
	return nil
}

func (f *fakeSubjectRepo) Delete(_ context.Context, id int64) error {
	delete(f.subjects, id)
	return nil
}

func (f *fakeSubjectRepo) BulkDelete(_ context.Context, ids []int64) (int, error) {
	affected := 0
	for _, id := range ids {
		if _, ok := f.subjects[id]; ok {
			delete(f.subjects, id)
			affected++
		}
	}
	return affected, nil
}

func TestSubjectCreateAndGet(t *testing.T) {
	svc := NewSubjectService(newFakeSubjectRepo(), nil, nil)

	created, err := svc.Create(context.Background(), models.CreateSubjectRequest{Name: "수학", Code: "MATH"})
	require.NoError(t, err)
	require.NotZero(t, created.ID)

	got, err := svc.Get(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, "수학", got.Name)
}

func TestSubjectCreateDuplicateCode(t *testing.T) {
	svc := NewSubjectService(newFakeSubjectRepo(), nil, nil)

	_, err := svc.Create(context.Background(), models.CreateSubjectRequest{Name: "수학", Code: "MATH"})
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), models.CreateSubjectRequest{Name: "수학II", Code: "MATH"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestSubjectCreateValidation(t *testing.T) {
	svc := NewSubjectService(newFakeSubjectRepo(), nil, nil)

	_, err := svc.Create(context.Background(), models.CreateSubjectRequest{Name: "수학"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestSubjectDeleteUnknown(t *testing.T) {
	svc := NewSubjectService(newFakeSubjectRepo(), nil, nil)

	err := svc.Delete(context.Background(), 42)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestSubjectBulkDeleteCountsOnlyExisting(t *testing.T) {
	repo := newFakeSubjectRepo()
	svc := NewSubjectService(repo, nil, nil)

	a, err := svc.Create(context.Background(), models.CreateSubjectRequest{Name: "국어", Code: "KOR"})
	require.NoError(t, err)
	b, err := svc.Create(context.Background(), models.CreateSubjectRequest{Name: "영어", Code: "ENG"})
	require.NoError(t, err)

	affected, err := svc.BulkDelete(context.Background(), models.BulkDeleteRequest{IDs: []int64{a.ID, b.ID, 999}})
	require.NoError(t, err)
	assert.Equal(t, 2, affected)
	assert.Empty(t, repo.subjects)
}
