package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/ssgb-dev/logbook-api/internal/models"
	appErrors "github.com/ssgb-dev/logbook-api/pkg/errors"
	"github.com/ssgb-dev/logbook-api/pkg/studentnum"
	"github.com/ssgb-dev/logbook-api/pkg/textcount"
)

// Actor identifies the authenticated caller inside service calls.
type Actor struct {
	UserID string
	Role   models.UserRole
}

type recordRepository interface {
	FindByID(ctx context.Context, id int64) (*models.Record, error)
	FindDetailByID(ctx context.Context, id int64) (*models.RecordWithDetails, error)
	FindByStudentAndSubject(ctx context.Context, studentUserID string, subjectID int64, recordType models.RecordType) (*models.Record, error)
	List(ctx context.Context, filter models.RecordFilter) ([]models.RecordWithDetails, int, error)
	Create(ctx context.Context, record *models.Record) error
	UpdateContent(ctx context.Context, id int64, content *string, charCount, byteCount int) error
	UpdatePermissions(ctx context.Context, id int64, editable bool) error
	Delete(ctx context.Context, id int64) error
	CreateVersion(ctx context.Context, version *models.RecordVersion) error
	ListVersions(ctx context.Context, recordID int64) ([]models.RecordVersion, error)
	CreateComment(ctx context.Context, comment *models.Comment) error
	ListComments(ctx context.Context, recordID int64) ([]models.Comment, error)
}

type recordLockManager interface {
	GetOwner(ctx context.Context, recordID int64) (*string, error)
	GetOwners(ctx context.Context, recordIDs []int64) (map[int64]string, error)
	Release(ctx context.Context, recordID int64, owner string) (bool, error)
}

type teacherAssignmentReader interface {
	ListByTeacher(ctx context.Context, teacherUserID string, schoolYear int) ([]models.TeacherAssignment, error)
}

// RecordService provides record CRUD with versioning, counting and lock
// enforcement.
type RecordService struct {
	repo        recordRepository
	locks       recordLockManager
	assignments teacherAssignmentReader
	validator   *validator.Validate
	logger      *zap.Logger
	maxBytes    int
	schoolYear  int
}

// NewRecordService constructs a RecordService instance.
func NewRecordService(repo recordRepository, locks recordLockManager, assignments teacherAssignmentReader, validate *validator.Validate, logger *zap.Logger, maxBytes, schoolYear int) *RecordService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxBytes <= 0 {
		maxBytes = textcount.MaxRecordBytes
	}
	return &RecordService{
		repo:        repo,
		locks:       locks,
		assignments: assignments,
		validator:   validate,
		logger:      logger,
		maxBytes:    maxBytes,
		schoolYear:  schoolYear,
	}
}

// teacherCanAccess decides whether any duty assignment grants access to the
// record. Record managers see everything; grade heads their grade; homeroom
// teachers their class; subject teachers their subject.
func teacherCanAccess(assignments []models.TeacherAssignment, detail *models.RecordWithDetails) bool {
	for _, a := range assignments {
		switch a.RoleType {
		case models.RoleRecordManager:
			return true
		case models.RoleGradeHead:
			if a.Grade != nil && detail.Grade != nil && *a.Grade == *detail.Grade {
				return true
			}
		case models.RoleHomeroomTeacher, models.RoleAssistantHomeroom:
			if a.Grade != nil && a.ClassNumber != nil && detail.Grade != nil && detail.ClassNumber != nil &&
				*a.Grade == *detail.Grade && *a.ClassNumber == *detail.ClassNumber {
				return true
			}
		case models.RoleSubjectTeacher:
			if a.SubjectID != nil && *a.SubjectID == detail.SubjectID {
				return true
			}
		}
	}
	return false
}

// CanAccess reports whether the actor may read or write the record.
// Students only reach their own records; writes additionally require the
// student-edit flag.
func (s *RecordService) CanAccess(ctx context.Context, actor Actor, detail *models.RecordWithDetails, write bool) (bool, error) {
	switch actor.Role {
	case models.RoleAdmin:
		return true, nil
	case models.RoleStudent:
		if detail.StudentUserID != actor.UserID {
			return false, nil
		}
		if write && !detail.IsEditableByStudent {
			return false, nil
		}
		return true, nil
	case models.RoleTeacher:
		assignments, err := s.assignments.ListByTeacher(ctx, actor.UserID, s.schoolYear)
		if err != nil {
			return false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load assignments")
		}
		return teacherCanAccess(assignments, detail), nil
	default:
		return false, nil
	}
}

func (s *RecordService) loadDetail(ctx context.Context, id int64) (*models.RecordWithDetails, error) {
	detail, err := s.repo.FindDetailByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "record not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load record")
	}
	return detail, nil
}

func decorate(detail *models.RecordWithDetails, owner *string) {
	if detail.Grade != nil && detail.ClassNumber != nil && detail.NumberInClass != nil {
		detail.StudentNumber = studentnum.Format(*detail.Grade, *detail.ClassNumber, *detail.NumberInClass)
	}
	if owner != nil {
		detail.Locked = true
		detail.LockedBy = owner
	}
}

// Get returns a single record with lock state for an authorized actor.
func (s *RecordService) Get(ctx context.Context, id int64, actor Actor) (*models.RecordWithDetails, error) {
	detail, err := s.loadDetail(ctx, id)
	if err != nil {
		return nil, err
	}
	ok, err := s.CanAccess(ctx, actor, detail, false)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "no access to this record")
	}

	owner, err := s.locks.GetOwner(ctx, id)
	if err != nil {
		s.logger.Warn("failed to resolve lock owner", zap.Int64("record_id", id), zap.Error(err))
	}
	decorate(detail, owner)
	return detail, nil
}

// List returns records matching the filter with lock state joined in.
// Students are pinned to their own records regardless of the filter.
func (s *RecordService) List(ctx context.Context, filter models.RecordFilter, actor Actor) ([]models.RecordWithDetails, *models.Pagination, error) {
	if actor.Role == models.RoleStudent {
		filter.StudentUserID = actor.UserID
	}

	records, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list records")
	}

	ids := make([]int64, len(records))
	for i := range records {
		ids[i] = records[i].ID
	}
	owners, err := s.locks.GetOwners(ctx, ids)
	if err != nil {
		s.logger.Warn("failed to resolve lock owners", zap.Error(err))
		owners = map[int64]string{}
	}
	for i := range records {
		var owner *string
		if holder, ok := owners[records[i].ID]; ok {
			owner = &holder
		}
		decorate(&records[i], owner)
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	return records, models.NewPagination(page, pageSize, total), nil
}

// Create opens a record slot for a student and subject. Only teachers and
// admins create slots; duplicates are rejected.
func (s *RecordService) Create(ctx context.Context, req models.CreateRecordRequest, actor Actor) (*models.Record, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid record payload")
	}
	if actor.Role == models.RoleStudent {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "students cannot create records")
	}

	if _, err := s.repo.FindByStudentAndSubject(ctx, req.StudentUserID, req.SubjectID, req.RecordType); err == nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, "record already exists for this student and subject")
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check record")
	}

	record := &models.Record{
		StudentUserID:       req.StudentUserID,
		SubjectID:           req.SubjectID,
		RecordType:          req.RecordType,
		Content:             req.Content,
		IsEditableByStudent: req.IsEditableByStudent,
	}
	if req.Content != nil {
		counts := textcount.Measure(*req.Content)
		if counts.ByteCount > s.maxBytes {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("content exceeds %d bytes", s.maxBytes))
		}
		record.CharCount = counts.CharCount
		record.ByteCount = counts.ByteCount
	}

	if err := s.repo.Create(ctx, record); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create record")
	}

	if err := s.repo.CreateVersion(ctx, &models.RecordVersion{
		RecordID:  record.ID,
		Content:   record.Content,
		CharCount: record.CharCount,
		ByteCount: record.ByteCount,
		EditedBy:  actor.UserID,
		EditType:  models.EditTypeCreate,
	}); err != nil {
		s.logger.Warn("failed to snapshot record creation", zap.Int64("record_id", record.ID), zap.Error(err))
	}

	return record, nil
}

// Update saves new content. The caller must be authorized for writes and
// nobody else may hold the record lock. Counts come from the server-side
// counter, never from the client.
func (s *RecordService) Update(ctx context.Context, id int64, req models.UpdateRecordRequest, actor Actor) (*models.RecordWithDetails, error) {
	detail, err := s.loadDetail(ctx, id)
	if err != nil {
		return nil, err
	}
	ok, err := s.CanAccess(ctx, actor, detail, true)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "no write access to this record")
	}

	owner, err := s.locks.GetOwner(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check lock")
	}
	if owner != nil && *owner != actor.UserID {
		return nil, appErrors.Clone(appErrors.ErrLocked, fmt.Sprintf("record is locked by %s", *owner))
	}

	counts := textcount.Measure(req.Content)
	if counts.ByteCount > s.maxBytes {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("content exceeds %d bytes", s.maxBytes))
	}

	if err := s.repo.UpdateContent(ctx, id, &req.Content, counts.CharCount, counts.ByteCount); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save record")
	}

	content := req.Content
	if err := s.repo.CreateVersion(ctx, &models.RecordVersion{
		RecordID:  id,
		Content:   &content,
		CharCount: counts.CharCount,
		ByteCount: counts.ByteCount,
		EditedBy:  actor.UserID,
		EditType:  models.EditTypeUpdate,
	}); err != nil {
		s.logger.Warn("failed to snapshot record update", zap.Int64("record_id", id), zap.Error(err))
	}

	// The save ends the edit session, so the caller's lock comes off here
	// rather than waiting out its TTL.
	if owner != nil {
		if _, err := s.locks.Release(ctx, id, actor.UserID); err != nil {
			s.logger.Warn("failed to release lock after save", zap.Int64("record_id", id), zap.Error(err))
		} else {
			owner = nil
		}
	}

	detail.Content = &content
	detail.CharCount = counts.CharCount
	detail.ByteCount = counts.ByteCount
	detail.UpdatedAt = time.Now().UTC()
	decorate(detail, owner)
	return detail, nil
}

// UpdatePermissions toggles the student-edit flag. Teacher or admin only.
func (s *RecordService) UpdatePermissions(ctx context.Context, id int64, req models.UpdatePermissionsRequest, actor Actor) error {
	if actor.Role == models.RoleStudent {
		return appErrors.Clone(appErrors.ErrForbidden, "students cannot change permissions")
	}
	detail, err := s.loadDetail(ctx, id)
	if err != nil {
		return err
	}
	ok, err := s.CanAccess(ctx, actor, detail, false)
	if err != nil {
		return err
	}
	if !ok {
		return appErrors.Clone(appErrors.ErrForbidden, "no access to this record")
	}
	if err := s.repo.UpdatePermissions(ctx, id, req.IsEditableByStudent); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update permissions")
	}
	return nil
}

// Delete removes a record after snapshotting its final state.
func (s *RecordService) Delete(ctx context.Context, id int64, actor Actor) error {
	if actor.Role == models.RoleStudent {
		return appErrors.Clone(appErrors.ErrForbidden, "students cannot delete records")
	}
	detail, err := s.loadDetail(ctx, id)
	if err != nil {
		return err
	}
	ok, err := s.CanAccess(ctx, actor, detail, false)
	if err != nil {
		return err
	}
	if !ok {
		return appErrors.Clone(appErrors.ErrForbidden, "no access to this record")
	}

	owner, err := s.locks.GetOwner(ctx, id)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check lock")
	}
	if owner != nil && *owner != actor.UserID {
		return appErrors.Clone(appErrors.ErrLocked, fmt.Sprintf("record is locked by %s", *owner))
	}

	if err := s.repo.CreateVersion(ctx, &models.RecordVersion{
		RecordID:  id,
		Content:   detail.Content,
		CharCount: detail.CharCount,
		ByteCount: detail.ByteCount,
		EditedBy:  actor.UserID,
		EditType:  models.EditTypeDelete,
	}); err != nil {
		s.logger.Warn("failed to snapshot record deletion", zap.Int64("record_id", id), zap.Error(err))
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete record")
	}
	return nil
}

// Versions returns the snapshot history for an authorized actor.
func (s *RecordService) Versions(ctx context.Context, id int64, actor Actor) ([]models.RecordVersion, error) {
	detail, err := s.loadDetail(ctx, id)
	if err != nil {
		return nil, err
	}
	ok, err := s.CanAccess(ctx, actor, detail, false)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "no access to this record")
	}
	versions, err := s.repo.ListVersions(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list versions")
	}
	return versions, nil
}

// Comments returns the comment thread for an authorized actor.
func (s *RecordService) Comments(ctx context.Context, id int64, actor Actor) ([]models.Comment, error) {
	detail, err := s.loadDetail(ctx, id)
	if err != nil {
		return nil, err
	}
	ok, err := s.CanAccess(ctx, actor, detail, false)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "no access to this record")
	}
	comments, err := s.repo.ListComments(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list comments")
	}
	return comments, nil
}

// AddComment appends to the comment thread. Comments are never edited or
// deleted afterwards.
func (s *RecordService) AddComment(ctx context.Context, id int64, req models.CreateCommentRequest, actor Actor) (*models.Comment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid comment payload")
	}
	detail, err := s.loadDetail(ctx, id)
	if err != nil {
		return nil, err
	}
	ok, err := s.CanAccess(ctx, actor, detail, false)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "no access to this record")
	}

	comment := &models.Comment{
		RecordID: id,
		AuthorID: actor.UserID,
		Content:  req.Content,
	}
	if err := s.repo.CreateComment(ctx, comment); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create comment")
	}
	return comment, nil
}
