package models

import "time"

// Subject represents a course offered by the centre, split into levels.
type Subject struct {
	ID          string    `db:"id" json:"id"`
	Code        string    `db:"code" json:"code"`
	Name        string    `db:"name" json:"name"`
	Description *string   `db:"description" json:"description,omitempty"`
	Active      bool      `db:"active" json:"active"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// SubjectFilter captures supported filters for listing subjects.
type SubjectFilter struct {
	Active    *bool
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// SubjectLevel is one numbered semester of a subject, e.g. "IELTS HP3".
type SubjectLevel struct {
	ID            string    `db:"id" json:"id"`
	SubjectID     string    `db:"subject_id" json:"subject_id"`
	Semester      int       `db:"semester" json:"semester"`
	Code          string    `db:"code" json:"code"`
	Name          string    `db:"name" json:"name"`
	SessionsCount int       `db:"sessions_count" json:"sessions_count"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}
