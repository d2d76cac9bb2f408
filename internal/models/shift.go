package models

import "time"

// Shift is a named daily working window such as "Ca sáng".
type Shift struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	StartTime string    `db:"start_time" json:"start_time"`
	EndTime   string    `db:"end_time" json:"end_time"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// WorkShiftStatus distinguishes rostered shifts from cancelled ones.
type WorkShiftStatus string

const (
	WorkShiftScheduled WorkShiftStatus = "scheduled"
	WorkShiftCancelled WorkShiftStatus = "cancelled"
)

// WorkShift rosters a teacher onto a shift on a specific date.
type WorkShift struct {
	ID        string          `db:"id" json:"id"`
	TeacherID string          `db:"teacher_id" json:"teacher_id"`
	ShiftID   string          `db:"shift_id" json:"shift_id"`
	Date      time.Time       `db:"date" json:"date"`
	Status    WorkShiftStatus `db:"status" json:"status"`
	Note      *string         `db:"note" json:"note,omitempty"`
	CreatedAt time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt time.Time       `db:"updated_at" json:"updated_at"`

	ShiftName string `db:"shift_name" json:"shift_name,omitempty"`
	StartTime string `db:"start_time" json:"start_time,omitempty"`
	EndTime   string `db:"end_time" json:"end_time,omitempty"`
}

// WorkShiftFilter narrows work shift listings.
type WorkShiftFilter struct {
	TeacherID string
	ShiftID   string
	DateFrom  *time.Time
	DateTo    *time.Time
	Status    WorkShiftStatus
	Page      int
	PageSize  int
}

// FreeSchedule is a weekly recurring window in which a teacher is available.
type FreeSchedule struct {
	ID        string    `db:"id" json:"id"`
	TeacherID string    `db:"teacher_id" json:"teacher_id"`
	DayOfWeek string    `db:"day_of_week" json:"day_of_week"`
	StartTime string    `db:"start_time" json:"start_time"`
	EndTime   string    `db:"end_time" json:"end_time"`
	Note      *string   `db:"note" json:"note,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// FreeScheduleFilter narrows free schedule listings.
type FreeScheduleFilter struct {
	TeacherID string
	DayOfWeek string
	Page      int
	PageSize  int
}
