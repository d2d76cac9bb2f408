package service

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/noah-isme/edu-ops-api/pkg/timeslot"
)

// Inbox column positions, A through F.
const (
	sheetColTimestamp = iota
	sheetColSender
	sheetColClass
	sheetColSessions
	sheetColReason
	sheetColStatus
	sheetColumns
)

var (
	emailPattern    = regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`)
	datePattern     = regexp.MustCompile(`\b(\d{1,2})/(\d{1,2})/(\d{4})\b`)
	windowPattern   = regexp.MustCompile(`\b(\d{1,2})[:hH](\d{2})\s*[-–~]\s*(\d{1,2})[:hH](\d{2})\b`)
	sessionSplitter = regexp.MustCompile(`[\n;]+`)
)

// InboxSession is one requested date and time window.
type InboxSession struct {
	Date      time.Time
	StartTime string
	EndTime   string
}

// InboxRequest is a parsed inbox row.
type InboxRequest struct {
	Email     string
	ClassName string
	Reason    string
	Sessions  []InboxSession
}

// padRow extends row to the inbox width so short rows index safely.
func padRow(row []string) []string {
	for len(row) < sheetColumns {
		row = append(row, "")
	}
	return row
}

// parseInboxRow extracts the requester email, class and sessions from row.
func parseInboxRow(row []string) (*InboxRequest, error) {
	row = padRow(row)

	email := emailPattern.FindString(row[sheetColSender])
	if email == "" {
		return nil, fmt.Errorf("no email address in sender %q", strings.TrimSpace(row[sheetColSender]))
	}
	className := strings.Join(strings.Fields(row[sheetColClass]), " ")
	if className == "" {
		return nil, fmt.Errorf("class name is empty")
	}

	sessions, err := parseInboxSessions(row[sheetColSessions])
	if err != nil {
		return nil, err
	}
	return &InboxRequest{
		Email:     strings.ToLower(email),
		ClassName: className,
		Reason:    strings.TrimSpace(row[sheetColReason]),
		Sessions:  sessions,
	}, nil
}

// parseInboxSessions reads one session per line; each line carries a
// DD/MM/YYYY date and an HH:mm-HH:mm window.
func parseInboxSessions(text string) ([]InboxSession, error) {
	var sessions []InboxSession
	for _, line := range sessionSplitter.Split(text, -1) {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		dm := datePattern.FindStringSubmatch(line)
		if dm == nil {
			return nil, fmt.Errorf("no DD/MM/YYYY date in %q", line)
		}
		day, _ := strconv.Atoi(dm[1])
		month, _ := strconv.Atoi(dm[2])
		year, _ := strconv.Atoi(dm[3])
		date := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
		if date.Day() != day || int(date.Month()) != month {
			return nil, fmt.Errorf("invalid date %s", dm[0])
		}

		wm := windowPattern.FindStringSubmatch(line)
		if wm == nil {
			return nil, fmt.Errorf("no HH:mm-HH:mm time range in %q", line)
		}
		start := timeslot.Normalize(wm[1] + ":" + wm[2])
		end := timeslot.Normalize(wm[3] + ":" + wm[4])
		if _, err := timeslot.ParseRange(start, end); err != nil {
			return nil, fmt.Errorf("invalid time range %s-%s", start, end)
		}
		sessions = append(sessions, InboxSession{Date: date, StartTime: start, EndTime: end})
	}
	if len(sessions) == 0 {
		return nil, fmt.Errorf("no sessions listed")
	}
	return sessions, nil
}
