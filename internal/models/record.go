package models

import "time"

// RecordType distinguishes subject records from activity records.
type RecordType string

const (
	RecordTypeSubject  RecordType = "subject"
	RecordTypeActivity RecordType = "activity"
)

// EditType labels the operation that produced a record version.
type EditType string

const (
	EditTypeCreate EditType = "create"
	EditTypeUpdate EditType = "update"
	EditTypeDelete EditType = "delete"
)

// Record is one evaluative text per student and subject. Counts are
// recomputed from Content on every save, never trusted from the client.
type Record struct {
	ID                  int64      `db:"id" json:"id"`
	StudentUserID       string     `db:"student_user_id" json:"student_user_id"`
	SubjectID           int64      `db:"subject_id" json:"subject_id"`
	RecordType          RecordType `db:"record_type" json:"record_type"`
	Content             *string    `db:"content" json:"content"`
	CharCount           int        `db:"char_count" json:"char_count"`
	ByteCount           int        `db:"byte_count" json:"byte_count"`
	IsEditableByStudent bool       `db:"is_editable_by_student" json:"is_editable_by_student"`
	CreatedAt           time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt           time.Time  `db:"updated_at" json:"updated_at"`
}

// RecordWithDetails joins in the names a list view needs plus live lock state.
type RecordWithDetails struct {
	Record
	StudentName   string  `db:"student_name" json:"student_name"`
	StudentNumber string  `db:"-" json:"student_number"`
	Grade         *int    `db:"grade" json:"grade,omitempty"`
	ClassNumber   *int    `db:"class_number" json:"class_number,omitempty"`
	NumberInClass *int    `db:"number_in_class" json:"number_in_class,omitempty"`
	SubjectName   string  `db:"subject_name" json:"subject_name"`
	Locked        bool    `db:"-" json:"locked"`
	LockedBy      *string `db:"-" json:"locked_by,omitempty"`
}

// StudentPlacement implements studentnum ordering for record list rows.
func (r RecordWithDetails) StudentPlacement() (grade, classNumber, numberInClass int) {
	if r.Grade != nil {
		grade = *r.Grade
	}
	if r.ClassNumber != nil {
		classNumber = *r.ClassNumber
	}
	if r.NumberInClass != nil {
		numberInClass = *r.NumberInClass
	}
	return grade, classNumber, numberInClass
}

// RecordVersion is an immutable snapshot taken on every write.
type RecordVersion struct {
	ID        int64     `db:"id" json:"id"`
	RecordID  int64     `db:"record_id" json:"record_id"`
	Content   *string   `db:"content" json:"content"`
	CharCount int       `db:"char_count" json:"char_count"`
	ByteCount int       `db:"byte_count" json:"byte_count"`
	EditedBy  string    `db:"edited_by" json:"edited_by"`
	EditType  EditType  `db:"edit_type" json:"edit_type"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Comment is an append-only note attached to a record.
type Comment struct {
	ID         int64     `db:"id" json:"id"`
	RecordID   int64     `db:"record_id" json:"record_id"`
	AuthorID   string    `db:"author_id" json:"author_id"`
	AuthorName string    `db:"author_name" json:"author_name"`
	Content    string    `db:"content" json:"content"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// RecordFilter captures list filters for records.
type RecordFilter struct {
	StudentUserID string
	SubjectID     *int64
	RecordType    *RecordType
	Grade         *int
	ClassNumber   *int
	Page          int
	PageSize      int
}

// CreateRecordRequest creates an empty or pre-filled record slot.
type CreateRecordRequest struct {
	StudentUserID       string     `json:"student_user_id" validate:"required"`
	SubjectID           int64      `json:"subject_id" validate:"required"`
	RecordType          RecordType `json:"record_type" validate:"required,oneof=subject activity"`
	Content             *string    `json:"content,omitempty"`
	IsEditableByStudent bool       `json:"is_editable_by_student"`
}

// UpdateRecordRequest carries the new content for a save.
type UpdateRecordRequest struct {
	Content string `json:"content"`
}

// UpdatePermissionsRequest toggles the student-edit flag.
type UpdatePermissionsRequest struct {
	IsEditableByStudent bool `json:"is_editable_by_student"`
}

// CreateCommentRequest appends a comment to a record.
type CreateCommentRequest struct {
	Content string `json:"content" validate:"required"`
}

// LockStatus reports advisory lock state for a record.
type LockStatus struct {
	RecordID  int64   `json:"record_id"`
	Locked    bool    `json:"locked"`
	Owner     *string `json:"owner,omitempty"`
	OwnerName *string `json:"owner_name,omitempty"`
}
