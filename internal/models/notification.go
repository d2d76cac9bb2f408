package models

import "time"

// NotificationType enumerates the events that raise a notification.
type NotificationType string

const (
	NotificationOffsetPending    NotificationType = "offset_class_pending"
	NotificationMakeupAssigned   NotificationType = "makeup_class_assigned"
	NotificationMakeupUnassigned NotificationType = "makeup_class_unassigned"
	NotificationSyncFailed       NotificationType = "sheet_sync_failed"
)

// Notification is a dashboard message about an event that needs attention.
type Notification struct {
	ID          string           `db:"id" json:"id"`
	Type        NotificationType `db:"type" json:"type"`
	Title       string           `db:"title" json:"title"`
	Message     string           `db:"message" json:"message"`
	RelatedType *string          `db:"related_type" json:"related_type,omitempty"`
	RelatedID   *string          `db:"related_id" json:"related_id,omitempty"`
	IsRead      bool             `db:"is_read" json:"is_read"`
	CreatedAt   time.Time        `db:"created_at" json:"created_at"`
	ReadAt      *time.Time       `db:"read_at" json:"read_at,omitempty"`
}

// NotificationFilter narrows notification listings.
type NotificationFilter struct {
	UnreadOnly bool
	Type       NotificationType
	Page       int
	PageSize   int
}
