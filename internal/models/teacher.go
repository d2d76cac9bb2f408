package models

import (
	"time"

	"github.com/lib/pq"
)

// TeacherStatus captures the employment state of a teacher.
type TeacherStatus string

const (
	TeacherActive   TeacherStatus = "active"
	TeacherInactive TeacherStatus = "inactive"
	TeacherOnLeave  TeacherStatus = "on_leave"
)

// Teacher represents an instructor record.
type Teacher struct {
	ID               string         `db:"id" json:"id"`
	FullName         string         `db:"full_name" json:"full_name"`
	Email            string         `db:"email" json:"email"`
	Phone            *string        `db:"phone" json:"phone,omitempty"`
	Status           TeacherStatus  `db:"status" json:"status"`
	Qualifications   pq.StringArray `db:"qualifications" json:"qualifications"`
	MaxOffsetClasses int            `db:"max_offset_classes" json:"max_offset_classes"`
	Notes            *string        `db:"notes" json:"notes,omitempty"`
	CreatedAt        time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time      `db:"updated_at" json:"updated_at"`
}

// TeacherFilter captures filtering options for listing teachers.
type TeacherFilter struct {
	Search    string
	Status    TeacherStatus
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// TeacherLevel links a teacher to a subject level they are qualified to teach.
type TeacherLevel struct {
	ID              string    `db:"id" json:"id"`
	TeacherID       string    `db:"teacher_id" json:"teacher_id"`
	SubjectLevelID  string    `db:"subject_level_id" json:"subject_level_id"`
	ExperienceYears int       `db:"experience_years" json:"experience_years"`
	Certifications  *string   `db:"certifications" json:"certifications,omitempty"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
}

// TeacherLevelDetail includes the level and subject labels for responses.
type TeacherLevelDetail struct {
	TeacherLevel
	LevelCode   string `db:"level_code" json:"level_code"`
	LevelName   string `db:"level_name" json:"level_name"`
	SubjectName string `db:"subject_name" json:"subject_name"`
}

// TeacherCommitments lists everything a teacher is booked for on a date.
type TeacherCommitments struct {
	TeacherID     string          `json:"teacher_id"`
	Date          string          `json:"date"`
	DayOfWeek     string          `json:"day_of_week"`
	WorkShifts    []WorkShift     `json:"work_shifts"`
	FreeSchedules []FreeSchedule  `json:"free_schedules"`
	Schedules     []ClassSchedule `json:"schedules"`
	MakeupClasses []MakeupClass   `json:"makeup_classes"`
}
