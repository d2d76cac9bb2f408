package models

import "time"

// Schedule is one fixed weekly teaching slot of a class.
type Schedule struct {
	ID        string    `db:"id" json:"id"`
	ClassID   string    `db:"class_id" json:"class_id"`
	TeacherID string    `db:"teacher_id" json:"teacher_id"`
	DayOfWeek string    `db:"day_of_week" json:"day_of_week"`
	StartTime string    `db:"start_time" json:"start_time"`
	EndTime   string    `db:"end_time" json:"end_time"`
	Room      *string   `db:"room" json:"room,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// ScheduleFilter describes query params for listing schedules.
type ScheduleFilter struct {
	ClassID   string
	TeacherID string
	DayOfWeek string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// ClassSchedule is a schedule joined with the owning class's status and term,
// used when checking whether a fixed slot still binds a teacher on a date.
type ClassSchedule struct {
	Schedule
	ClassName   string      `db:"class_name" json:"class_name"`
	ClassStatus ClassStatus `db:"class_status" json:"class_status"`
	StartDate   time.Time   `db:"class_start_date" json:"class_start_date"`
	EndDate     time.Time   `db:"class_end_date" json:"class_end_date"`
}

// BindsOn reports whether the slot is in force on date.
func (s ClassSchedule) BindsOn(date time.Time) bool {
	if s.ClassStatus != ClassPending && s.ClassStatus != ClassActive {
		return false
	}
	d := dateOnly(date)
	return !d.Before(dateOnly(s.StartDate)) && !d.After(dateOnly(s.EndDate))
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
