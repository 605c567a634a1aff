package models

import "time"

// TeacherRoleType enumerates the duty roles a teacher can hold per year.
type TeacherRoleType string

const (
	RoleHomeroomTeacher   TeacherRoleType = "homeroom_teacher"
	RoleAssistantHomeroom TeacherRoleType = "assistant_homeroom"
	RoleSubjectTeacher    TeacherRoleType = "subject_teacher"
	RoleGradeHead         TeacherRoleType = "grade_head"
	RoleRecordManager     TeacherRoleType = "record_manager"
)

// TeacherAssignment grants a teacher a duty role scoped to a grade, class
// or subject for one school year.
type TeacherAssignment struct {
	ID            int64           `db:"id" json:"id"`
	TeacherUserID string          `db:"teacher_user_id" json:"teacher_user_id"`
	RoleType      TeacherRoleType `db:"role_type" json:"role_type"`
	Grade         *int            `db:"grade" json:"grade,omitempty"`
	ClassNumber   *int            `db:"class_number" json:"class_number,omitempty"`
	SubjectID     *int64          `db:"subject_id" json:"subject_id,omitempty"`
	SchoolYear    int             `db:"school_year" json:"school_year"`
	CreatedAt     time.Time       `db:"created_at" json:"created_at"`
}

// TeacherAssignmentDetail enriches assignments with display names.
type TeacherAssignmentDetail struct {
	TeacherAssignment
	TeacherName string  `db:"teacher_name" json:"teacher_name"`
	SubjectName *string `db:"subject_name" json:"subject_name,omitempty"`
}

// CreateTeacherAssignmentRequest is the admin payload for granting a role.
type CreateTeacherAssignmentRequest struct {
	TeacherUserID string          `json:"teacher_user_id" validate:"required"`
	RoleType      TeacherRoleType `json:"role_type" validate:"required,oneof=homeroom_teacher assistant_homeroom subject_teacher grade_head record_manager"`
	Grade         *int            `json:"grade,omitempty" validate:"omitempty,min=1,max=3"`
	ClassNumber   *int            `json:"class_number,omitempty" validate:"omitempty,min=1"`
	SubjectID     *int64          `json:"subject_id,omitempty"`
	SchoolYear    int             `json:"school_year" validate:"required"`
}

// UpdateTeacherAssignmentRequest rescopes an existing duty assignment. The
// grantee stays; role type and scope fields are replaced wholesale.
type UpdateTeacherAssignmentRequest struct {
	RoleType    TeacherRoleType `json:"role_type" validate:"required,oneof=homeroom_teacher assistant_homeroom subject_teacher grade_head record_manager"`
	Grade       *int            `json:"grade,omitempty" validate:"omitempty,min=1,max=3"`
	ClassNumber *int            `json:"class_number,omitempty" validate:"omitempty,min=1"`
	SubjectID   *int64          `json:"subject_id,omitempty"`
	SchoolYear  int             `json:"school_year" validate:"required"`
}

// AssignedType distinguishes whole-class from individual assignment rows.
type AssignedType string

const (
	AssignedTypeClass      AssignedType = "class"
	AssignedTypeIndividual AssignedType = "individual"
)

// SubjectClassAssignment links a subject to a whole class for a year.
type SubjectClassAssignment struct {
	ID          int64     `db:"id" json:"id"`
	SubjectID   int64     `db:"subject_id" json:"subject_id"`
	Grade       int       `db:"grade" json:"grade"`
	ClassNumber int       `db:"class_number" json:"class_number"`
	SchoolYear  int       `db:"school_year" json:"school_year"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// SubjectStudentAssignment links a subject to one student, either via a
// class assignment expansion or individually.
type SubjectStudentAssignment struct {
	ID            int64        `db:"id" json:"id"`
	SubjectID     int64        `db:"subject_id" json:"subject_id"`
	StudentUserID string       `db:"student_user_id" json:"student_user_id"`
	AssignedType  AssignedType `db:"assigned_type" json:"assigned_type"`
	SchoolYear    int          `db:"school_year" json:"school_year"`
	CreatedAt     time.Time    `db:"created_at" json:"created_at"`
}

// StudentInfo is the roster row returned by assignment listings.
type StudentInfo struct {
	UserID        string `db:"user_id" json:"user_id"`
	FullName      string `db:"full_name" json:"full_name"`
	Grade         int    `db:"grade" json:"grade"`
	ClassNumber   int    `db:"class_number" json:"class_number"`
	NumberInClass int    `db:"number_in_class" json:"number_in_class"`
	StudentNumber string `db:"-" json:"student_number"`
}

// StudentPlacement implements studentnum ordering for roster rows.
func (s StudentInfo) StudentPlacement() (grade, classNumber, numberInClass int) {
	return s.Grade, s.ClassNumber, s.NumberInClass
}

// MyClass describes one class a teacher is responsible for.
type MyClass struct {
	Grade       int    `json:"grade"`
	ClassNumber int    `json:"class_number"`
	RoleType    string `json:"role_type"`
}

// MySubject describes one subject a teacher teaches.
type MySubject struct {
	SubjectID   int64  `db:"subject_id" json:"subject_id"`
	SubjectName string `db:"subject_name" json:"subject_name"`
	SubjectCode string `db:"subject_code" json:"subject_code"`
}

// AssignClassesRequest attaches whole classes to a subject.
type AssignClassesRequest struct {
	SubjectID  int64       `json:"subject_id" validate:"required"`
	Classes    []ClassSpec `json:"classes" validate:"required,min=1,dive"`
	SchoolYear int         `json:"school_year" validate:"required"`
}

// ClassSpec identifies one grade/class pair.
type ClassSpec struct {
	Grade       int `json:"grade" validate:"required,min=1,max=3"`
	ClassNumber int `json:"class_number" validate:"required,min=1"`
}

// AssignStudentsRequest attaches individual students to a subject.
type AssignStudentsRequest struct {
	SubjectID      int64    `json:"subject_id" validate:"required"`
	StudentUserIDs []string `json:"student_user_ids" validate:"required,min=1"`
	SchoolYear     int      `json:"school_year" validate:"required"`
}

// RemoveClassRequest detaches a class (and its class-typed student rows).
type RemoveClassRequest struct {
	SubjectID   int64 `json:"subject_id" validate:"required"`
	Grade       int   `json:"grade" validate:"required"`
	ClassNumber int   `json:"class_number" validate:"required"`
	SchoolYear  int   `json:"school_year" validate:"required"`
}

// RemoveStudentsRequest detaches individually assigned students.
type RemoveStudentsRequest struct {
	SubjectID      int64    `json:"subject_id" validate:"required"`
	StudentUserIDs []string `json:"student_user_ids" validate:"required,min=1"`
	SchoolYear     int      `json:"school_year" validate:"required"`
}
