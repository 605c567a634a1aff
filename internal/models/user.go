package models

import (
	"time"

	"github.com/ssgb-dev/logbook-api/pkg/pagination"
)

// UserRole represents the available roles for the RBAC system.
type UserRole string

const (
	RoleAdmin   UserRole = "admin"
	RoleTeacher UserRole = "teacher"
	RoleStudent UserRole = "student"
)

// User represents an account stored in the users table. UserID is the
// business login identifier; ID is the surrogate key.
type User struct {
	ID            int64     `db:"id" json:"id"`
	UserID        string    `db:"user_id" json:"user_id"`
	PasswordHash  string    `db:"password_hash" json:"-"`
	FullName      string    `db:"full_name" json:"full_name"`
	Role          UserRole  `db:"role" json:"role"`
	Grade         *int      `db:"grade" json:"grade,omitempty"`
	ClassNumber   *int      `db:"class_number" json:"class_number,omitempty"`
	NumberInClass *int      `db:"number_in_class" json:"number_in_class,omitempty"`
	Active        bool      `db:"active" json:"active"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

// StudentPlacement reports the class placement tuple used for student-number
// ordering. Missing placement sorts first.
func (u User) StudentPlacement() (grade, classNumber, numberInClass int) {
	if u.Grade != nil {
		grade = *u.Grade
	}
	if u.ClassNumber != nil {
		classNumber = *u.ClassNumber
	}
	if u.NumberInClass != nil {
		numberInClass = *u.NumberInClass
	}
	return grade, classNumber, numberInClass
}

// UserFilter captures filtering criteria for listing users.
type UserFilter struct {
	Role        *UserRole
	Grade       *int
	ClassNumber *int
	Search      string
	Page        int
	PageSize    int
	SortBy      string
	SortOrder   string
}

// Pagination contains pagination metadata returned in list responses.
// Window carries the pager entries the web client renders verbatim.
type Pagination struct {
	Page       int               `json:"page"`
	PageSize   int               `json:"page_size"`
	TotalCount int               `json:"total_count"`
	TotalPages int               `json:"total_pages"`
	Window     []pagination.Item `json:"window,omitempty"`
}

// NewPagination derives the page count and pager window from the totals.
func NewPagination(page, pageSize, totalCount int) *Pagination {
	totalPages := 0
	if pageSize > 0 {
		totalPages = (totalCount + pageSize - 1) / pageSize
	}
	return &Pagination{
		Page:       page,
		PageSize:   pageSize,
		TotalCount: totalCount,
		TotalPages: totalPages,
		Window:     pagination.Window(page, totalPages, pagination.DefaultMaxVisible),
	}
}

// CreateUserRequest is the admin payload for creating a single account.
type CreateUserRequest struct {
	UserID        string   `json:"user_id" validate:"required"`
	Password      string   `json:"password" validate:"required,min=4"`
	FullName      string   `json:"full_name" validate:"required"`
	Role          UserRole `json:"role" validate:"required,oneof=admin teacher student"`
	Grade         *int     `json:"grade,omitempty" validate:"omitempty,min=1,max=3"`
	ClassNumber   *int     `json:"class_number,omitempty" validate:"omitempty,min=1"`
	NumberInClass *int     `json:"number_in_class,omitempty" validate:"omitempty,min=1"`
}

// UpdateProfileRequest carries the self-service profile fields.
type UpdateProfileRequest struct {
	FullName *string `json:"full_name,omitempty"`
	Password *string `json:"password,omitempty" validate:"omitempty,min=4"`
}

// ResetPasswordRequest is the admin password-reset payload.
type ResetPasswordRequest struct {
	NewPassword string `json:"new_password" validate:"required,min=4"`
}

// BulkDeleteRequest lists surrogate ids for bulk removal.
type BulkDeleteRequest struct {
	IDs []int64 `json:"ids" validate:"required,min=1"`
}

// BulkUploadResult tallies a bulk create or Excel import.
type BulkUploadResult struct {
	Success int      `json:"success"`
	Failed  int      `json:"failed"`
	Errors  []string `json:"errors"`
}
