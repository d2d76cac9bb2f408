package service

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/noah-isme/edu-ops-api/internal/models"
	"github.com/noah-isme/edu-ops-api/pkg/timeslot"
)

// Exclusion reasons reported for ineligible candidates.
const (
	reasonInactive      = "teacher is not active"
	reasonUnqualified   = "teacher is not qualified for this level"
	reasonExcluded      = "teacher was already tried for this session"
	reasonUnavailable   = "no work shift or free schedule covers this window"
	reasonCapacity      = "teacher reached the make-up class limit"
	reasonInvalidWindow = "session window is invalid"
)

// AssignmentSnapshot is the data an engine run reasons over. Every slice may
// hold rows for several dates and teachers; the engine filters them itself.
type AssignmentSnapshot struct {
	Teachers      []models.Teacher
	Levels        []models.TeacherLevel
	WorkShifts    []models.WorkShift
	FreeSchedules []models.FreeSchedule
	Schedules     []models.ClassSchedule
	Booked        []models.MakeupClass
	// AssignedCounts holds each teacher's sessions currently in assigned status.
	AssignedCounts map[string]int
	LoadWindow     time.Duration
}

type placement struct {
	sessionID string
	teacherID string
	date      time.Time
	window    timeslot.Range
}

// AssignmentEngine decides which teacher can take a make-up session. It holds
// no I/O and is not safe for concurrent use.
type AssignmentEngine struct {
	snapshot   AssignmentSnapshot
	experience map[string]map[string]int
	placements []placement
}

// NewAssignmentEngine indexes snapshot for evaluation.
func NewAssignmentEngine(snapshot AssignmentSnapshot) *AssignmentEngine {
	experience := make(map[string]map[string]int)
	for _, lvl := range snapshot.Levels {
		if experience[lvl.TeacherID] == nil {
			experience[lvl.TeacherID] = make(map[string]int)
		}
		experience[lvl.TeacherID][lvl.SubjectLevelID] = lvl.ExperienceYears
	}
	if snapshot.AssignedCounts == nil {
		snapshot.AssignedCounts = map[string]int{}
	}
	return &AssignmentEngine{snapshot: snapshot, experience: experience}
}

// Evaluate reports every known teacher's standing for session. Eligible
// teachers come first in rank order, the rest follow sorted by name.
func (e *AssignmentEngine) Evaluate(session models.MakeupClass, exclude map[string]struct{}) []models.CandidateReport {
	window, err := timeslot.ParseRange(session.StartTime, session.EndTime)
	if err != nil {
		reports := make([]models.CandidateReport, 0, len(e.snapshot.Teachers))
		for _, t := range e.snapshot.Teachers {
			reports = append(reports, models.CandidateReport{TeacherID: t.ID, FullName: t.FullName, Capacity: t.MaxOffsetClasses, Reasons: []string{reasonInvalidWindow}})
		}
		return reports
	}

	var eligible, rejected []models.CandidateReport
	for _, t := range e.snapshot.Teachers {
		report := e.evaluateTeacher(t, session, window, exclude)
		if report.Eligible {
			eligible = append(eligible, report)
		} else {
			rejected = append(rejected, report)
		}
	}

	caps := make(map[string]int, len(e.snapshot.Teachers))
	for _, t := range e.snapshot.Teachers {
		caps[t.ID] = t.MaxOffsetClasses
	}
	sort.SliceStable(eligible, func(i, j int) bool {
		a, b := eligible[i], eligible[j]
		if a.Load != b.Load {
			return a.Load < b.Load
		}
		ra, rb := loadRatio(a.Load, caps[a.TeacherID]), loadRatio(b.Load, caps[b.TeacherID])
		if ra != rb {
			return ra < rb
		}
		if a.ExperienceYears != b.ExperienceYears {
			return a.ExperienceYears > b.ExperienceYears
		}
		return a.TeacherID < b.TeacherID
	})
	for i := range eligible {
		eligible[i].Rank = i + 1
	}
	sort.SliceStable(rejected, func(i, j int) bool {
		if rejected[i].FullName != rejected[j].FullName {
			return rejected[i].FullName < rejected[j].FullName
		}
		return rejected[i].TeacherID < rejected[j].TeacherID
	})
	return append(eligible, rejected...)
}

// Best returns the top-ranked eligible teacher, or nil with every report when none qualifies.
func (e *AssignmentEngine) Best(session models.MakeupClass, exclude map[string]struct{}) (*models.CandidateReport, []models.CandidateReport) {
	reports := e.Evaluate(session, exclude)
	if len(reports) > 0 && reports[0].Eligible {
		best := reports[0]
		return &best, reports
	}
	return nil, reports
}

// Place records that teacherID now teaches session so later evaluations in
// the same run see the booking.
func (e *AssignmentEngine) Place(session models.MakeupClass, teacherID string) {
	window, err := timeslot.ParseRange(session.StartTime, session.EndTime)
	if err != nil {
		return
	}
	e.placements = append(e.placements, placement{
		sessionID: session.ID,
		teacherID: teacherID,
		date:      timeslot.DateOnly(session.ScheduledDate),
		window:    window,
	})
}

// AssignBatch places sessions in (date, start time, id) order and returns one
// outcome per session in that order.
func (e *AssignmentEngine) AssignBatch(sessions []models.MakeupClass) []models.AssignmentOutcome {
	ordered := make([]models.MakeupClass, len(sessions))
	copy(ordered, sessions)
	SortSessions(ordered)

	outcomes := make([]models.AssignmentOutcome, 0, len(ordered))
	for _, session := range ordered {
		best, reports := e.Best(session, nil)
		if best == nil {
			outcomes = append(outcomes, models.AssignmentOutcome{MakeupClassID: session.ID, Reasons: summariseRejections(reports)})
			continue
		}
		e.Place(session, best.TeacherID)
		outcomes = append(outcomes, models.AssignmentOutcome{
			MakeupClassID: session.ID,
			TeacherID:     best.TeacherID,
			TeacherName:   best.FullName,
			Assigned:      true,
		})
	}
	return outcomes
}

// SortSessions orders sessions by date, start time and id.
func SortSessions(sessions []models.MakeupClass) {
	sort.SliceStable(sessions, func(i, j int) bool {
		a, b := sessions[i], sessions[j]
		da, db := timeslot.DateOnly(a.ScheduledDate), timeslot.DateOnly(b.ScheduledDate)
		if !da.Equal(db) {
			return da.Before(db)
		}
		if a.StartTime != b.StartTime {
			return timeslot.Normalize(a.StartTime) < timeslot.Normalize(b.StartTime)
		}
		return a.ID < b.ID
	})
}

func (e *AssignmentEngine) evaluateTeacher(t models.Teacher, session models.MakeupClass, window timeslot.Range, exclude map[string]struct{}) models.CandidateReport {
	date := timeslot.DateOnly(session.ScheduledDate)
	report := models.CandidateReport{
		TeacherID:       t.ID,
		FullName:        t.FullName,
		Capacity:        t.MaxOffsetClasses,
		ExperienceYears: e.experience[t.ID][session.SubjectLevelID],
		Load:            e.load(t.ID, date),
	}

	if t.Status != models.TeacherActive {
		report.Reasons = append(report.Reasons, reasonInactive)
	}
	// An empty level asks about availability only.
	if session.SubjectLevelID != "" {
		if _, ok := e.experience[t.ID][session.SubjectLevelID]; !ok {
			report.Reasons = append(report.Reasons, reasonUnqualified)
		}
	}
	if _, ok := exclude[t.ID]; ok {
		report.Reasons = append(report.Reasons, reasonExcluded)
	}
	if !e.available(t.ID, date, window) {
		report.Reasons = append(report.Reasons, reasonUnavailable)
	}
	report.Reasons = append(report.Reasons, e.conflicts(t.ID, session.ID, date, window)...)
	if t.MaxOffsetClasses > 0 {
		if current := e.snapshot.AssignedCounts[t.ID] + e.placedCount(t.ID); current >= t.MaxOffsetClasses {
			report.Reasons = append(report.Reasons, fmt.Sprintf("%s (%d/%d)", reasonCapacity, current, t.MaxOffsetClasses))
		}
	}

	report.Eligible = len(report.Reasons) == 0
	return report
}

func (e *AssignmentEngine) available(teacherID string, date time.Time, window timeslot.Range) bool {
	for _, ws := range e.snapshot.WorkShifts {
		if ws.TeacherID != teacherID || ws.Status != models.WorkShiftScheduled || !timeslot.SameDate(ws.Date, date) {
			continue
		}
		if r, err := timeslot.ParseRange(ws.StartTime, ws.EndTime); err == nil && r.Covers(window) {
			return true
		}
	}
	day := timeslot.WeekdayOf(date)
	for _, fs := range e.snapshot.FreeSchedules {
		if fs.TeacherID != teacherID || fs.DayOfWeek != day {
			continue
		}
		if r, err := timeslot.ParseRange(fs.StartTime, fs.EndTime); err == nil && r.Covers(window) {
			return true
		}
	}
	return false
}

func (e *AssignmentEngine) conflicts(teacherID, sessionID string, date time.Time, window timeslot.Range) []string {
	var reasons []string
	for _, booked := range e.snapshot.Booked {
		if booked.ID == sessionID || booked.TeacherID == nil || *booked.TeacherID != teacherID || !booked.Status.Books() {
			continue
		}
		if !timeslot.SameDate(booked.ScheduledDate, date) {
			continue
		}
		if r, err := timeslot.ParseRange(booked.StartTime, booked.EndTime); err == nil && r.Overlaps(window) {
			reasons = append(reasons, fmt.Sprintf("overlaps %s class %s (%s)", booked.Kind, booked.ClassName, r))
		}
	}
	day := timeslot.WeekdayOf(date)
	for _, sched := range e.snapshot.Schedules {
		if sched.TeacherID != teacherID || sched.DayOfWeek != day || !sched.BindsOn(date) {
			continue
		}
		if r, err := timeslot.ParseRange(sched.StartTime, sched.EndTime); err == nil && r.Overlaps(window) {
			reasons = append(reasons, fmt.Sprintf("overlaps fixed schedule of %s (%s)", sched.ClassName, r))
		}
	}
	for _, p := range e.placements {
		if p.teacherID == teacherID && p.sessionID != sessionID && p.date.Equal(date) && p.window.Overlaps(window) {
			reasons = append(reasons, fmt.Sprintf("overlaps a session placed earlier in this run (%s)", p.window))
		}
	}
	return reasons
}

// load counts booked sessions inside the trailing window ending on date plus batch placements.
func (e *AssignmentEngine) load(teacherID string, date time.Time) int {
	from := date.Add(-e.snapshot.LoadWindow)
	count := 0
	for _, booked := range e.snapshot.Booked {
		if booked.TeacherID == nil || *booked.TeacherID != teacherID || !booked.Status.Books() {
			continue
		}
		d := timeslot.DateOnly(booked.ScheduledDate)
		if d.Before(from) || d.After(date) {
			continue
		}
		count++
	}
	return count + e.placedCount(teacherID)
}

func (e *AssignmentEngine) placedCount(teacherID string) int {
	n := 0
	for _, p := range e.placements {
		if p.teacherID == teacherID {
			n++
		}
	}
	return n
}

func loadRatio(load, capacity int) float64 {
	if capacity <= 0 {
		return 0
	}
	return float64(load) / float64(capacity)
}

// summariseRejections condenses per-teacher reasons into one line per teacher.
func summariseRejections(reports []models.CandidateReport) []string {
	if len(reports) == 0 {
		return []string{"no teacher is qualified for this level"}
	}
	out := make([]string, 0, len(reports))
	for _, r := range reports {
		if r.Eligible {
			continue
		}
		out = append(out, fmt.Sprintf("%s: %s", r.FullName, strings.Join(r.Reasons, "; ")))
	}
	return out
}
