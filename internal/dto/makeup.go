package dto

// CreateMakeupClassRequest creates an offset, supplementary or test session.
type CreateMakeupClassRequest struct {
	SubjectLevelID string  `json:"subject_level_id" validate:"required"`
	ClassID        *string `json:"class_id"`
	ClassName      string  `json:"class_name" validate:"required,max=255"`
	TeacherID      *string `json:"teacher_id"`
	Date           string  `json:"date" validate:"required,datetime=2006-01-02"`
	StartTime      string  `json:"start_time" validate:"required,hhmm"`
	EndTime        string  `json:"end_time" validate:"required,hhmm"`
	Reason         *string `json:"reason" validate:"omitempty,max=1000"`
	RequestedBy    *string `json:"requested_by" validate:"omitempty,email"`
	Notes          *string `json:"notes" validate:"omitempty,max=2000"`
}

// UpdateMakeupClassRequest edits the descriptive fields of a session.
type UpdateMakeupClassRequest struct {
	SubjectLevelID string  `json:"subject_level_id" validate:"required"`
	ClassID        *string `json:"class_id"`
	ClassName      string  `json:"class_name" validate:"required,max=255"`
	Date           string  `json:"date" validate:"required,datetime=2006-01-02"`
	StartTime      string  `json:"start_time" validate:"required,hhmm"`
	EndTime        string  `json:"end_time" validate:"required,hhmm"`
	Reason         *string `json:"reason" validate:"omitempty,max=1000"`
	RequestedBy    *string `json:"requested_by" validate:"omitempty,email"`
	Notes          *string `json:"notes" validate:"omitempty,max=2000"`
}

// AssignTeacherRequest manually assigns a teacher.
type AssignTeacherRequest struct {
	TeacherID string `json:"teacher_id" validate:"required"`
}

// AutoAssignRequest limits an auto-assign run to ids; empty means every pending session.
type AutoAssignRequest struct {
	IDs []string `json:"ids" validate:"omitempty,dive,required"`
}

// ReasonRequest carries the reason for a reallocation or cancellation.
type ReasonRequest struct {
	Reason string `json:"reason" validate:"omitempty,max=1000"`
}

// MakeupClassQuery binds list and export query parameters.
type MakeupClassQuery struct {
	Status         string `form:"status" validate:"omitempty,oneof=pending assigned completed cancelled"`
	TeacherID      string `form:"teacherId"`
	SubjectLevelID string `form:"subjectLevelId"`
	DateFrom       string `form:"dateFrom" validate:"omitempty,datetime=2006-01-02"`
	DateTo         string `form:"dateTo" validate:"omitempty,datetime=2006-01-02"`
	Search         string `form:"search"`
	Page           int    `form:"page"`
	Limit          int    `form:"limit"`
	SortBy         string `form:"sortBy"`
	SortOrder      string `form:"sortOrder"`
	Format         string `form:"format" validate:"omitempty,oneof=csv pdf"`
}
