package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/edu-ops-api/internal/models"
)

const notificationColumns = "id, type, title, message, related_type, related_id, is_read, created_at, read_at"

// NotificationRepository persists dashboard notifications.
type NotificationRepository struct {
	db *sqlx.DB
}

// NewNotificationRepository constructs a NotificationRepository.
func NewNotificationRepository(db *sqlx.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

// List returns notifications newest first.
func (r *NotificationRepository) List(ctx context.Context, filter models.NotificationFilter) ([]models.Notification, int, error) {
	base := "FROM notifications WHERE 1=1"
	var w where
	if filter.UnreadOnly {
		w.add("is_read = ?", false)
	}
	if filter.Type != "" {
		w.add("type = ?", filter.Type)
	}
	base += w.sql()

	query := fmt.Sprintf("SELECT %s %s ORDER BY created_at DESC %s", notificationColumns, base, limitOffset(filter.Page, filter.PageSize))
	var items []models.Notification
	if err := r.db.SelectContext(ctx, &items, query, w.args...); err != nil {
		return nil, 0, fmt.Errorf("list notifications: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) "+base, w.args...); err != nil {
		return nil, 0, fmt.Errorf("count notifications: %w", err)
	}
	return items, total, nil
}

// CountUnread returns the number of unread notifications.
func (r *NotificationRepository) CountUnread(ctx context.Context) (int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM notifications WHERE is_read = FALSE"); err != nil {
		return 0, fmt.Errorf("count unread notifications: %w", err)
	}
	return total, nil
}

// Create inserts a notification.
func (r *NotificationRepository) Create(ctx context.Context, n *models.Notification) error {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO notifications (id, type, title, message, related_type, related_id, is_read, created_at, read_at)
		VALUES (:id, :type, :title, :message, :related_type, :related_id, :is_read, :created_at, :read_at)`
	if _, err := r.db.NamedExecContext(ctx, query, n); err != nil {
		return fmt.Errorf("create notification: %w", err)
	}
	return nil
}

// MarkRead flags one notification as read. It reports whether the row exists.
func (r *NotificationRepository) MarkRead(ctx context.Context, id string, at time.Time) (bool, error) {
	res, err := r.db.ExecContext(ctx, "UPDATE notifications SET is_read = TRUE, read_at = COALESCE(read_at, $2) WHERE id = $1", id, at)
	if err != nil {
		return false, fmt.Errorf("mark notification read: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("mark notification read: %w", err)
	}
	return n > 0, nil
}

// MarkAllRead flags every unread notification as read and returns how many changed.
func (r *NotificationRepository) MarkAllRead(ctx context.Context, at time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, "UPDATE notifications SET is_read = TRUE, read_at = $1 WHERE is_read = FALSE", at)
	if err != nil {
		return 0, fmt.Errorf("mark all notifications read: %w", err)
	}
	return res.RowsAffected()
}

// Delete removes a notification. It reports whether the row existed.
func (r *NotificationRepository) Delete(ctx context.Context, id string) (bool, error) {
	res, err := r.db.ExecContext(ctx, "DELETE FROM notifications WHERE id = $1", id)
	if err != nil {
		return false, fmt.Errorf("delete notification: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete notification: %w", err)
	}
	return n > 0, nil
}
