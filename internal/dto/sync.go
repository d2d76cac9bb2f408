package dto

import "github.com/noah-isme/edu-ops-api/internal/models"

// SheetRowStatus values written back to the status column.
const (
	SheetStatusImportedFormat = "✅ Imported %d"
	SheetStatusDuplicate      = "⏭ Skipped: duplicate"
	SheetStatusErrorFormat    = "❌ Error: %s"
)

// SyncStatusResponse describes the scheduler state of the inbox import.
// LastRun stays nil until a run finishes in this process.
type SyncStatusResponse struct {
	Enabled  bool               `json:"enabled"`
	Schedule string             `json:"schedule"`
	Running  bool               `json:"running"`
	LastRun  *models.SyncResult `json:"last_run,omitempty"`
}
