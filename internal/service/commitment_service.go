package service

import (
	"context"
	"time"

	"github.com/noah-isme/edu-ops-api/internal/models"
	appErrors "github.com/noah-isme/edu-ops-api/pkg/errors"
	"github.com/noah-isme/edu-ops-api/pkg/timeslot"
)

type commitmentWorkShifts interface {
	ListByTeacherDate(ctx context.Context, teacherID string, date time.Time) ([]models.WorkShift, error)
}

type commitmentFreeSchedules interface {
	ListByTeacherDay(ctx context.Context, teacherID, dayOfWeek string) ([]models.FreeSchedule, error)
}

type commitmentSchedules interface {
	ListByTeacherDay(ctx context.Context, teacherID, dayOfWeek string) ([]models.ClassSchedule, error)
}

type commitmentMakeups interface {
	ListByTeacherDate(ctx context.Context, teacherID string, date time.Time) ([]models.MakeupClass, error)
}

// CommitmentService answers what a teacher is booked for on a given date.
type CommitmentService struct {
	teachers   teacherLookup
	workShifts commitmentWorkShifts
	free       commitmentFreeSchedules
	schedules  commitmentSchedules
	makeups    commitmentMakeups
}

// NewCommitmentService constructs a CommitmentService.
func NewCommitmentService(teachers teacherLookup, workShifts commitmentWorkShifts, free commitmentFreeSchedules, schedules commitmentSchedules, makeups commitmentMakeups) *CommitmentService {
	return &CommitmentService{teachers: teachers, workShifts: workShifts, free: free, schedules: schedules, makeups: makeups}
}

// ForDate gathers rostered shifts, free slots, binding class schedules and
// make-up sessions of teacherID on rawDate ("YYYY-MM-DD").
func (s *CommitmentService) ForDate(ctx context.Context, teacherID, rawDate string) (*models.TeacherCommitments, error) {
	date, err := timeslot.ParseDate(rawDate)
	if err != nil {
		return nil, appErrors.Validation(err, err.Error())
	}
	if _, err := s.teachers.FindByID(ctx, teacherID); err != nil {
		return nil, lookupError(err, "teacher not found", "failed to load teacher")
	}
	day := timeslot.WeekdayOf(date)

	out := &models.TeacherCommitments{
		TeacherID:     teacherID,
		Date:          date.Format(timeslot.DateLayout),
		DayOfWeek:     day,
		WorkShifts:    []models.WorkShift{},
		FreeSchedules: []models.FreeSchedule{},
		Schedules:     []models.ClassSchedule{},
		MakeupClasses: []models.MakeupClass{},
	}

	shifts, err := s.workShifts.ListByTeacherDate(ctx, teacherID, date)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load work shifts")
	}
	out.WorkShifts = append(out.WorkShifts, shifts...)

	free, err := s.free.ListByTeacherDay(ctx, teacherID, day)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load free schedules")
	}
	out.FreeSchedules = append(out.FreeSchedules, free...)

	fixed, err := s.schedules.ListByTeacherDay(ctx, teacherID, day)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load class schedules")
	}
	for _, sched := range fixed {
		if sched.BindsOn(date) {
			out.Schedules = append(out.Schedules, sched)
		}
	}

	makeups, err := s.makeups.ListByTeacherDate(ctx, teacherID, date)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load make-up classes")
	}
	out.MakeupClasses = append(out.MakeupClasses, makeups...)
	return out, nil
}
