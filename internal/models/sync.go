package models

import "time"

// SyncResult summarises one spreadsheet inbox import run.
type SyncResult struct {
	Success    bool      `json:"success"`
	Processed  int       `json:"processed"`
	Imported   int       `json:"imported"`
	Skipped    int       `json:"skipped"`
	Failed     int       `json:"failed"`
	Errors     []string  `json:"errors"`
	Error      string    `json:"error,omitempty"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}
