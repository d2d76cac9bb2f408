package models

import "time"

// ClassStatus tracks the lifecycle of a fixed-term class.
type ClassStatus string

const (
	ClassPending   ClassStatus = "pending"
	ClassActive    ClassStatus = "active"
	ClassCompleted ClassStatus = "completed"
)

// Class represents a fixed-term class of one subject level.
type Class struct {
	ID             string      `db:"id" json:"id"`
	Name           string      `db:"name" json:"name"`
	SubjectLevelID string      `db:"subject_level_id" json:"subject_level_id"`
	TeacherID      *string     `db:"teacher_id" json:"teacher_id,omitempty"`
	StartDate      time.Time   `db:"start_date" json:"start_date"`
	EndDate        time.Time   `db:"end_date" json:"end_date"`
	Capacity       int         `db:"capacity" json:"capacity"`
	Status         ClassStatus `db:"status" json:"status"`
	Room           *string     `db:"room" json:"room,omitempty"`
	CreatedAt      time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time   `db:"updated_at" json:"updated_at"`
}

// ClassDetail extends Class with the populated teacher and level labels.
type ClassDetail struct {
	Class
	TeacherName *string `db:"teacher_name" json:"teacher_name,omitempty"`
	LevelCode   *string `db:"level_code" json:"level_code,omitempty"`
	LevelName   *string `db:"level_name" json:"level_name,omitempty"`
}

// ClassFilter defines filter criteria for listing classes.
type ClassFilter struct {
	Status         ClassStatus
	TeacherID      string
	SubjectLevelID string
	Search         string
	Page           int
	PageSize       int
	SortBy         string
	SortOrder      string
}
