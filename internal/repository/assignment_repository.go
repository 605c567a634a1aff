package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/ssgb-dev/logbook-api/internal/models"
)

// AssignmentRepository provides database access for teacher role assignments
// and subject-to-class/student links.
type AssignmentRepository struct {
	db *sqlx.DB
}

// NewAssignmentRepository creates a new instance of AssignmentRepository.
func NewAssignmentRepository(db *sqlx.DB) *AssignmentRepository {
	return &AssignmentRepository{db: db}
}

// ListTeacherAssignments returns all duty assignments for a school year,
// joined with teacher and subject names.
func (r *AssignmentRepository) ListTeacherAssignments(ctx context.Context, schoolYear int) ([]models.TeacherAssignmentDetail, error) {
	const query = `SELECT ta.id, ta.teacher_user_id, ta.role_type, ta.grade, ta.class_number, ta.subject_id, ta.school_year, ta.created_at,
u.full_name AS teacher_name, s.name AS subject_name
FROM teacher_assignments ta
JOIN users u ON u.user_id = ta.teacher_user_id
LEFT JOIN subjects s ON s.id = ta.subject_id
WHERE ta.school_year = $1
ORDER BY ta.created_at DESC`
	var assignments []models.TeacherAssignmentDetail
	if err := r.db.SelectContext(ctx, &assignments, query, schoolYear); err != nil {
		return nil, fmt.Errorf("list teacher assignments: %w", err)
	}
	return assignments, nil
}

// ListByTeacher returns a teacher's own duty assignments for a year.
func (r *AssignmentRepository) ListByTeacher(ctx context.Context, teacherUserID string, schoolYear int) ([]models.TeacherAssignment, error) {
	const query = `SELECT id, teacher_user_id, role_type, grade, class_number, subject_id, school_year, created_at
FROM teacher_assignments WHERE teacher_user_id = $1 AND school_year = $2 ORDER BY created_at`
	var assignments []models.TeacherAssignment
	if err := r.db.SelectContext(ctx, &assignments, query, teacherUserID, schoolYear); err != nil {
		return nil, fmt.Errorf("list assignments by teacher: %w", err)
	}
	return assignments, nil
}

// CreateTeacherAssignment inserts a duty assignment and fills in the id.
func (r *AssignmentRepository) CreateTeacherAssignment(ctx context.Context, a *models.TeacherAssignment) error {
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO teacher_assignments (teacher_user_id, role_type, grade, class_number, subject_id, school_year, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`
	if err := r.db.GetContext(ctx, &a.ID, query,
		a.TeacherUserID, a.RoleType, a.Grade, a.ClassNumber, a.SubjectID, a.SchoolYear, a.CreatedAt); err != nil {
		return fmt.Errorf("create teacher assignment: %w", err)
	}
	return nil
}

// GetTeacherAssignment returns one duty assignment by id.
func (r *AssignmentRepository) GetTeacherAssignment(ctx context.Context, id int64) (*models.TeacherAssignment, error) {
	const query = `SELECT id, teacher_user_id, role_type, grade, class_number, subject_id, school_year, created_at
FROM teacher_assignments WHERE id = $1`
	var assignment models.TeacherAssignment
	if err := r.db.GetContext(ctx, &assignment, query, id); err != nil {
		return nil, fmt.Errorf("get teacher assignment: %w", err)
	}
	return &assignment, nil
}

// UpdateTeacherAssignment replaces the role and scope of an assignment.
func (r *AssignmentRepository) UpdateTeacherAssignment(ctx context.Context, a *models.TeacherAssignment) error {
	const query = `UPDATE teacher_assignments
SET role_type = $1, grade = $2, class_number = $3, subject_id = $4, school_year = $5
WHERE id = $6`
	res, err := r.db.ExecContext(ctx, query, a.RoleType, a.Grade, a.ClassNumber, a.SubjectID, a.SchoolYear, a.ID)
	if err != nil {
		return fmt.Errorf("update teacher assignment: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update teacher assignment rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// DeleteTeacherAssignment removes a duty assignment.
func (r *AssignmentRepository) DeleteTeacherAssignment(ctx context.Context, id int64) error {
	const query = `DELETE FROM teacher_assignments WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete teacher assignment: %w", err)
	}
	return nil
}

// ListSubjectClasses returns the classes attached to a subject for a year.
func (r *AssignmentRepository) ListSubjectClasses(ctx context.Context, subjectID int64, schoolYear int) ([]models.SubjectClassAssignment, error) {
	const query = `SELECT id, subject_id, grade, class_number, school_year, created_at
FROM subject_class_assignments WHERE subject_id = $1 AND school_year = $2 ORDER BY grade, class_number`
	var classes []models.SubjectClassAssignment
	if err := r.db.SelectContext(ctx, &classes, query, subjectID, schoolYear); err != nil {
		return nil, fmt.Errorf("list subject classes: %w", err)
	}
	return classes, nil
}

// AssignClassToSubject links a class to a subject, ignoring duplicates.
func (r *AssignmentRepository) AssignClassToSubject(ctx context.Context, subjectID int64, grade, classNumber, schoolYear int) error {
	const query = `INSERT INTO subject_class_assignments (subject_id, grade, class_number, school_year, created_at)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (subject_id, grade, class_number, school_year) DO NOTHING`
	if _, err := r.db.ExecContext(ctx, query, subjectID, grade, classNumber, schoolYear, time.Now().UTC()); err != nil {
		return fmt.Errorf("assign class to subject: %w", err)
	}
	return nil
}

// RemoveClassFromSubject detaches a class and its class-typed student rows.
func (r *AssignmentRepository) RemoveClassFromSubject(ctx context.Context, subjectID int64, grade, classNumber, schoolYear int) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin remove class: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	const deleteClass = `DELETE FROM subject_class_assignments WHERE subject_id = $1 AND grade = $2 AND class_number = $3 AND school_year = $4`
	if _, err := tx.ExecContext(ctx, deleteClass, subjectID, grade, classNumber, schoolYear); err != nil {
		return fmt.Errorf("remove class assignment: %w", err)
	}

	const deleteStudents = `DELETE FROM subject_student_assignments ssa
USING users u
WHERE ssa.student_user_id = u.user_id
AND ssa.subject_id = $1 AND ssa.school_year = $4 AND ssa.assigned_type = 'class'
AND u.grade = $2 AND u.class_number = $3`
	if _, err := tx.ExecContext(ctx, deleteStudents, subjectID, grade, classNumber, schoolYear); err != nil {
		return fmt.Errorf("remove class student assignments: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit remove class: %w", err)
	}
	return nil
}

// AssignStudentToSubject links one student to a subject, ignoring duplicates.
func (r *AssignmentRepository) AssignStudentToSubject(ctx context.Context, subjectID int64, studentUserID string, assignedType models.AssignedType, schoolYear int) error {
	const query = `INSERT INTO subject_student_assignments (subject_id, student_user_id, assigned_type, school_year, created_at)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (subject_id, student_user_id, school_year) DO NOTHING`
	if _, err := r.db.ExecContext(ctx, query, subjectID, studentUserID, assignedType, schoolYear, time.Now().UTC()); err != nil {
		return fmt.Errorf("assign student to subject: %w", err)
	}
	return nil
}

// RemoveStudentsFromSubject detaches individually assigned students.
func (r *AssignmentRepository) RemoveStudentsFromSubject(ctx context.Context, subjectID int64, studentUserIDs []string, schoolYear int) (int, error) {
	if len(studentUserIDs) == 0 {
		return 0, nil
	}
	query, args, err := sqlx.In(`DELETE FROM subject_student_assignments WHERE subject_id = ? AND school_year = ? AND assigned_type = 'individual' AND student_user_id IN (?)`, subjectID, schoolYear, studentUserIDs)
	if err != nil {
		return 0, fmt.Errorf("build remove students: %w", err)
	}
	res, err := r.db.ExecContext(ctx, r.db.Rebind(query), args...)
	if err != nil {
		return 0, fmt.Errorf("remove students from subject: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("remove students rows affected: %w", err)
	}
	return int(affected), nil
}

// ListSubjectStudents returns the students attached to a subject for a year,
// either via their class or individually. Pagination runs over the
// student-number ordering.
func (r *AssignmentRepository) ListSubjectStudents(ctx context.Context, subjectID int64, schoolYear, page, pageSize int) ([]models.StudentInfo, int, error) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	const baseQuery = `FROM subject_student_assignments ssa
JOIN users u ON u.user_id = ssa.student_user_id
WHERE ssa.subject_id = $1 AND ssa.school_year = $2`

	listQuery := fmt.Sprintf(`SELECT u.user_id, u.full_name, u.grade, u.class_number, u.number_in_class %s
ORDER BY u.grade, u.class_number, u.number_in_class LIMIT %d OFFSET %d`, baseQuery, pageSize, offset)

	var students []models.StudentInfo
	if err := r.db.SelectContext(ctx, &students, listQuery, subjectID, schoolYear); err != nil {
		return nil, 0, fmt.Errorf("list subject students: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) "+baseQuery, subjectID, schoolYear); err != nil {
		return nil, 0, fmt.Errorf("count subject students: %w", err)
	}
	return students, total, nil
}

// ListSubjectsForTeacher returns the subjects a teacher teaches for a year.
func (r *AssignmentRepository) ListSubjectsForTeacher(ctx context.Context, teacherUserID string, schoolYear int) ([]models.MySubject, error) {
	const query = `SELECT DISTINCT s.id AS subject_id, s.name AS subject_name, s.code AS subject_code
FROM teacher_assignments ta
JOIN subjects s ON s.id = ta.subject_id
WHERE ta.teacher_user_id = $1 AND ta.school_year = $2 AND ta.subject_id IS NOT NULL
ORDER BY s.name`
	var subjects []models.MySubject
	if err := r.db.SelectContext(ctx, &subjects, query, teacherUserID, schoolYear); err != nil {
		return nil, fmt.Errorf("list subjects for teacher: %w", err)
	}
	return subjects, nil
}
