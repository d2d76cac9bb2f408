package models

import (
	"encoding/json"
	"time"

	"github.com/jmoiron/sqlx/types"
)

// MakeupKind distinguishes why an ad-hoc session was scheduled.
type MakeupKind string

const (
	MakeupOffset        MakeupKind = "offset"
	MakeupSupplementary MakeupKind = "supplementary"
	MakeupTest          MakeupKind = "test"
)

// Valid reports whether k is a known kind.
func (k MakeupKind) Valid() bool {
	switch k {
	case MakeupOffset, MakeupSupplementary, MakeupTest:
		return true
	}
	return false
}

// MakeupStatus is the lifecycle state of a make-up session.
type MakeupStatus string

const (
	MakeupPending   MakeupStatus = "pending"
	MakeupAssigned  MakeupStatus = "assigned"
	MakeupCompleted MakeupStatus = "completed"
	MakeupCancelled MakeupStatus = "cancelled"
)

// Terminal reports whether no further transition is allowed out of s.
func (s MakeupStatus) Terminal() bool {
	return s == MakeupCompleted || s == MakeupCancelled
}

// Books reports whether a session in status s occupies its teacher's time.
func (s MakeupStatus) Books() bool {
	return s == MakeupAssigned || s == MakeupCompleted
}

// MakeupSource records how a session entered the system.
type MakeupSource string

const (
	SourceManual MakeupSource = "manual"
	SourceSheet  MakeupSource = "sheet"
)

// Assignment methods stored in the history.
const (
	AssignMethodManual     = "manual"
	AssignMethodAuto       = "auto"
	AssignMethodReallocate = "reallocate"
)

// AssignmentRecord is one entry in a session's assignment history.
type AssignmentRecord struct {
	TeacherID     string     `json:"teacher_id"`
	AssignedAt    time.Time  `json:"assigned_at"`
	ReleasedAt    *time.Time `json:"released_at,omitempty"`
	ReleaseReason string     `json:"release_reason,omitempty"`
	Method        string     `json:"method"`
}

// MakeupClass is a single offset, supplementary or test session needing a teacher.
type MakeupClass struct {
	ID                string         `db:"id" json:"id"`
	Kind              MakeupKind     `db:"kind" json:"kind"`
	SubjectLevelID    string         `db:"subject_level_id" json:"subject_level_id"`
	ClassID           *string        `db:"class_id" json:"class_id,omitempty"`
	ClassName         string         `db:"class_name" json:"class_name"`
	TeacherID         *string        `db:"teacher_id" json:"teacher_id,omitempty"`
	ScheduledDate     time.Time      `db:"scheduled_date" json:"scheduled_date"`
	StartTime         string         `db:"start_time" json:"start_time"`
	EndTime           string         `db:"end_time" json:"end_time"`
	Status            MakeupStatus   `db:"status" json:"status"`
	Reason            *string        `db:"reason" json:"reason,omitempty"`
	RequestedBy       *string        `db:"requested_by" json:"requested_by,omitempty"`
	Source            MakeupSource   `db:"source" json:"source"`
	Notes             *string        `db:"notes" json:"notes,omitempty"`
	AssignmentHistory types.JSONText `db:"assignment_history" json:"assignment_history"`
	CreatedAt         time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time      `db:"updated_at" json:"updated_at"`
}

// History decodes the assignment history; an empty column yields no records.
func (m *MakeupClass) History() ([]AssignmentRecord, error) {
	if len(m.AssignmentHistory) == 0 || string(m.AssignmentHistory) == "null" {
		return nil, nil
	}
	var records []AssignmentRecord
	if err := json.Unmarshal(m.AssignmentHistory, &records); err != nil {
		return nil, err
	}
	return records, nil
}

// SetHistory encodes records into the assignment history column.
func (m *MakeupClass) SetHistory(records []AssignmentRecord) error {
	if records == nil {
		records = []AssignmentRecord{}
	}
	raw, err := json.Marshal(records)
	if err != nil {
		return err
	}
	m.AssignmentHistory = types.JSONText(raw)
	return nil
}

// MakeupClassDetail adds display labels for listings and exports.
type MakeupClassDetail struct {
	MakeupClass
	TeacherName *string `db:"teacher_name" json:"teacher_name,omitempty"`
	LevelCode   *string `db:"level_code" json:"level_code,omitempty"`
}

// MakeupClassFilter narrows make-up class listings.
type MakeupClassFilter struct {
	Kind           MakeupKind
	Status         MakeupStatus
	TeacherID      string
	SubjectLevelID string
	DateFrom       *time.Time
	DateTo         *time.Time
	Search         string
	Page           int
	PageSize       int
	SortBy         string
	SortOrder      string
}
