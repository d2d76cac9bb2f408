// Package timeslot holds the day-of-week and "HH:mm" primitives shared by every
// schedule-like record, plus the validator tags that enforce them.
package timeslot

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the canonical wire format for calendar dates.
const DateLayout = "2006-01-02"

var hhmmPattern = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)

// Weekday values as stored in the database and accepted on the wire.
const (
	Monday    = "Thứ 2"
	Tuesday   = "Thứ 3"
	Wednesday = "Thứ 4"
	Thursday  = "Thứ 5"
	Friday    = "Thứ 6"
	Saturday  = "Thứ 7"
	Sunday    = "Chủ nhật"
)

var weekdayNames = map[time.Weekday]string{
	time.Monday:    Monday,
	time.Tuesday:   Tuesday,
	time.Wednesday: Wednesday,
	time.Thursday:  Thursday,
	time.Friday:    Friday,
	time.Saturday:  Saturday,
	time.Sunday:    Sunday,
}

// Weekdays lists the accepted day names in week order starting Monday.
func Weekdays() []string {
	return []string{Monday, Tuesday, Wednesday, Thursday, Friday, Saturday, Sunday}
}

// IsWeekday reports whether value is one of the seven accepted day names.
func IsWeekday(value string) bool {
	for _, day := range weekdayNames {
		if day == value {
			return true
		}
	}
	return false
}

// WeekdayOf returns the day name for the given date.
func WeekdayOf(date time.Time) string {
	return weekdayNames[date.Weekday()]
}

// IsHHMM reports whether value is a zero-padded 24h "HH:mm" string.
func IsHHMM(value string) bool {
	return hhmmPattern.MatchString(value)
}

// Minutes converts an "HH:mm" string into minutes after midnight.
func Minutes(value string) (int, error) {
	if !IsHHMM(value) {
		return 0, fmt.Errorf("invalid time %q, expected HH:mm", value)
	}
	hours, _ := strconv.Atoi(value[:2])
	minutes, _ := strconv.Atoi(value[3:])
	return hours*60 + minutes, nil
}

// Format renders minutes after midnight as "HH:mm".
func Format(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// Normalize pads loosely written times such as "8:05" into "08:05".
func Normalize(value string) string {
	value = strings.TrimSpace(value)
	parts := strings.SplitN(value, ":", 2)
	if len(parts) != 2 {
		return value
	}
	h, errH := strconv.Atoi(parts[0])
	m, errM := strconv.Atoi(parts[1])
	if errH != nil || errM != nil || h < 0 || h > 23 || m < 0 || m > 59 {
		return value
	}
	return Format(h*60 + m)
}

// Range is a half-open [Start, End) window in minutes after midnight.
type Range struct {
	Start int
	End   int
}

// ParseRange builds a Range from two "HH:mm" strings and requires end > start.
func ParseRange(start, end string) (Range, error) {
	s, err := Minutes(start)
	if err != nil {
		return Range{}, err
	}
	e, err := Minutes(end)
	if err != nil {
		return Range{}, err
	}
	if e <= s {
		return Range{}, fmt.Errorf("end time %s must be after start time %s", end, start)
	}
	return Range{Start: s, End: e}, nil
}

// Overlaps reports whether the two half-open ranges share at least one minute.
func (r Range) Overlaps(other Range) bool {
	return r.Start < other.End && other.Start < r.End
}

// Covers reports whether r fully contains other.
func (r Range) Covers(other Range) bool {
	return r.Start <= other.Start && other.End <= r.End
}

// String renders the range as "HH:mm-HH:mm".
func (r Range) String() string {
	return Format(r.Start) + "-" + Format(r.End)
}

// ParseDate parses a "YYYY-MM-DD" date at midnight UTC.
func ParseDate(value string) (time.Time, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(value))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", value)
	}
	return t, nil
}

// DateOnly truncates t to its calendar date at midnight UTC.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// SameDate reports whether a and b fall on the same calendar date.
func SameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
