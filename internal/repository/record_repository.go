package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/ssgb-dev/logbook-api/internal/models"
)

const recordColumns = `r.id, r.student_user_id, r.subject_id, r.record_type, r.content, r.char_count, r.byte_count, r.is_editable_by_student, r.created_at, r.updated_at`

const recordDetailColumns = recordColumns + `, u.full_name AS student_name, u.grade, u.class_number, u.number_in_class, s.name AS subject_name`

const recordDetailJoins = ` FROM records r
JOIN users u ON u.user_id = r.student_user_id
JOIN subjects s ON s.id = r.subject_id`

// RecordRepository provides database access for records, versions and comments.
type RecordRepository struct {
	db *sqlx.DB
}

// NewRecordRepository creates a new instance of RecordRepository.
func NewRecordRepository(db *sqlx.DB) *RecordRepository {
	return &RecordRepository{db: db}
}

// FindByID returns a record by identifier.
func (r *RecordRepository) FindByID(ctx context.Context, id int64) (*models.Record, error) {
	const query = `SELECT id, student_user_id, subject_id, record_type, content, char_count, byte_count, is_editable_by_student, created_at, updated_at FROM records WHERE id = $1 LIMIT 1`
	var record models.Record
	if err := r.db.GetContext(ctx, &record, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find record by id: %w", err)
	}
	return &record, nil
}

// FindDetailByID returns a record joined with student and subject names.
func (r *RecordRepository) FindDetailByID(ctx context.Context, id int64) (*models.RecordWithDetails, error) {
	query := `SELECT ` + recordDetailColumns + recordDetailJoins + ` WHERE r.id = $1 LIMIT 1`
	var record models.RecordWithDetails
	if err := r.db.GetContext(ctx, &record, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find record detail: %w", err)
	}
	return &record, nil
}

// FindByStudentAndSubject returns the record slot for one student and subject.
func (r *RecordRepository) FindByStudentAndSubject(ctx context.Context, studentUserID string, subjectID int64, recordType models.RecordType) (*models.Record, error) {
	const query = `SELECT id, student_user_id, subject_id, record_type, content, char_count, byte_count, is_editable_by_student, created_at, updated_at FROM records WHERE student_user_id = $1 AND subject_id = $2 AND record_type = $3 LIMIT 1`
	var record models.Record
	if err := r.db.GetContext(ctx, &record, query, studentUserID, subjectID, recordType); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find record by student and subject: %w", err)
	}
	return &record, nil
}

// List returns records with details matching the filter plus a total count.
// Rows come back ordered by class placement so student numbers line up.
func (r *RecordRepository) List(ctx context.Context, filter models.RecordFilter) ([]models.RecordWithDetails, int, error) {
	baseQuery := recordDetailJoins + ` WHERE 1=1`
	var conditions []string
	var args []interface{}

	if filter.StudentUserID != "" {
		conditions = append(conditions, fmt.Sprintf("r.student_user_id = $%d", len(args)+1))
		args = append(args, filter.StudentUserID)
	}
	if filter.SubjectID != nil {
		conditions = append(conditions, fmt.Sprintf("r.subject_id = $%d", len(args)+1))
		args = append(args, *filter.SubjectID)
	}
	if filter.RecordType != nil {
		conditions = append(conditions, fmt.Sprintf("r.record_type = $%d", len(args)+1))
		args = append(args, *filter.RecordType)
	}
	if filter.Grade != nil {
		conditions = append(conditions, fmt.Sprintf("u.grade = $%d", len(args)+1))
		args = append(args, *filter.Grade)
	}
	if filter.ClassNumber != nil {
		conditions = append(conditions, fmt.Sprintf("u.class_number = $%d", len(args)+1))
		args = append(args, *filter.ClassNumber)
	}

	if len(conditions) > 0 {
		baseQuery += " AND " + strings.Join(conditions, " AND ")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	listQuery := fmt.Sprintf("SELECT %s%s ORDER BY u.grade, u.class_number, u.number_in_class LIMIT %d OFFSET %d", recordDetailColumns, baseQuery, pageSize, offset)

	var records []models.RecordWithDetails
	if err := r.db.SelectContext(ctx, &records, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list records: %w", err)
	}

	countQuery := "SELECT COUNT(*)" + baseQuery
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count records: %w", err)
	}

	return records, total, nil
}

// ListBySubjects returns record details for any of the given subjects.
func (r *RecordRepository) ListBySubjects(ctx context.Context, subjectIDs []int64, recordType *models.RecordType) ([]models.RecordWithDetails, error) {
	if len(subjectIDs) == 0 {
		return []models.RecordWithDetails{}, nil
	}
	query := `SELECT ` + recordDetailColumns + recordDetailJoins + ` WHERE r.subject_id IN (?)`
	args := []interface{}{subjectIDs}
	if recordType != nil {
		query += ` AND r.record_type = ?`
		args = append(args, *recordType)
	}
	query += ` ORDER BY u.grade, u.class_number, u.number_in_class`

	query, inArgs, err := sqlx.In(query, args...)
	if err != nil {
		return nil, fmt.Errorf("build records by subjects: %w", err)
	}
	var records []models.RecordWithDetails
	if err := r.db.SelectContext(ctx, &records, r.db.Rebind(query), inArgs...); err != nil {
		return nil, fmt.Errorf("list records by subjects: %w", err)
	}
	return records, nil
}

// Create inserts a record slot and fills in the generated id.
func (r *RecordRepository) Create(ctx context.Context, record *models.Record) error {
	now := time.Now().UTC()
	if record.CreatedAt.IsZero() {
		record.CreatedAt = now
	}
	record.UpdatedAt = now

	const query = `INSERT INTO records (student_user_id, subject_id, record_type, content, char_count, byte_count, is_editable_by_student, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9) RETURNING id`
	if err := r.db.GetContext(ctx, &record.ID, query,
		record.StudentUserID, record.SubjectID, record.RecordType, record.Content,
		record.CharCount, record.ByteCount, record.IsEditableByStudent,
		record.CreatedAt, record.UpdatedAt); err != nil {
		return fmt.Errorf("create record: %w", err)
	}
	return nil
}

// UpdateContent stores new content together with its recomputed counts.
func (r *RecordRepository) UpdateContent(ctx context.Context, id int64, content *string, charCount, byteCount int) error {
	const query = `UPDATE records SET content = $2, char_count = $3, byte_count = $4, updated_at = $5 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, content, charCount, byteCount, time.Now().UTC()); err != nil {
		return fmt.Errorf("update record content: %w", err)
	}
	return nil
}

// UpdatePermissions toggles the student-edit flag.
func (r *RecordRepository) UpdatePermissions(ctx context.Context, id int64, editable bool) error {
	const query = `UPDATE records SET is_editable_by_student = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, editable, time.Now().UTC()); err != nil {
		return fmt.Errorf("update record permissions: %w", err)
	}
	return nil
}

// Delete removes a record.
func (r *RecordRepository) Delete(ctx context.Context, id int64) error {
	const query = `DELETE FROM records WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete record: %w", err)
	}
	return nil
}

// CreateVersion stores an immutable snapshot of a record state.
func (r *RecordRepository) CreateVersion(ctx context.Context, version *models.RecordVersion) error {
	if version.CreatedAt.IsZero() {
		version.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO record_versions (record_id, content, char_count, byte_count, edited_by, edit_type, created_at)
VALUES (:record_id, :content, :char_count, :byte_count, :edited_by, :edit_type, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, version); err != nil {
		return fmt.Errorf("create record version: %w", err)
	}
	return nil
}

// ListVersions returns version snapshots newest first.
func (r *RecordRepository) ListVersions(ctx context.Context, recordID int64) ([]models.RecordVersion, error) {
	const query = `SELECT id, record_id, content, char_count, byte_count, edited_by, edit_type, created_at FROM record_versions WHERE record_id = $1 ORDER BY created_at DESC, id DESC`
	var versions []models.RecordVersion
	if err := r.db.SelectContext(ctx, &versions, query, recordID); err != nil {
		return nil, fmt.Errorf("list record versions: %w", err)
	}
	return versions, nil
}

// CreateComment appends a comment and fills in the generated id.
func (r *RecordRepository) CreateComment(ctx context.Context, comment *models.Comment) error {
	if comment.CreatedAt.IsZero() {
		comment.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO comments (record_id, author_id, content, created_at) VALUES ($1, $2, $3, $4) RETURNING id`
	if err := r.db.GetContext(ctx, &comment.ID, query, comment.RecordID, comment.AuthorID, comment.Content, comment.CreatedAt); err != nil {
		return fmt.Errorf("create comment: %w", err)
	}
	return nil
}

// ListComments returns comments oldest first with author names joined in.
func (r *RecordRepository) ListComments(ctx context.Context, recordID int64) ([]models.Comment, error) {
	const query = `SELECT c.id, c.record_id, c.author_id, u.full_name AS author_name, c.content, c.created_at
FROM comments c
JOIN users u ON u.user_id = c.author_id
WHERE c.record_id = $1 ORDER BY c.created_at, c.id`
	var comments []models.Comment
	if err := r.db.SelectContext(ctx, &comments, query, recordID); err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	return comments, nil
}
