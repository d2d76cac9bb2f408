package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/edu-ops-api/internal/models"
	appErrors "github.com/noah-isme/edu-ops-api/pkg/errors"
	"github.com/noah-isme/edu-ops-api/pkg/timeslot"
	"github.com/noah-isme/edu-ops-api/pkg/ws"
)

const (
	notificationWriteTimeout = 5 * time.Second
	relatedMakeupClass       = "makeup_class"
	eventNotificationCreated = "notification.created"
)

type notificationRepository interface {
	List(ctx context.Context, filter models.NotificationFilter) ([]models.Notification, int, error)
	CountUnread(ctx context.Context) (int, error)
	Create(ctx context.Context, n *models.Notification) error
	MarkRead(ctx context.Context, id string, at time.Time) (bool, error)
	MarkAllRead(ctx context.Context, at time.Time) (int64, error)
	Delete(ctx context.Context, id string) (bool, error)
}

// Broadcaster pushes events to connected dashboards.
type Broadcaster interface {
	Broadcast(evt ws.Event)
}

// NotificationService records dashboard notifications and pushes them live.
type NotificationService struct {
	repo   notificationRepository
	hub    Broadcaster
	logger *zap.Logger
	now    func() time.Time
}

// NewNotificationService constructs a NotificationService. hub may be nil.
func NewNotificationService(repo notificationRepository, hub Broadcaster, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{repo: repo, hub: hub, logger: logger, now: time.Now}
}

// Notify stores and broadcasts n. Failures are logged and never reach the caller.
func (s *NotificationService) Notify(ctx context.Context, n models.Notification) {
	if s == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notificationWriteTimeout)
	defer cancel()

	if err := s.repo.Create(ctx, &n); err != nil {
		s.logger.Warn("failed to store notification", zap.String("type", string(n.Type)), zap.Error(err))
		return
	}
	if s.hub != nil {
		s.hub.Broadcast(ws.Event{Type: eventNotificationCreated, Data: n})
	}
}

// OffsetPending announces a new offset class that needs a teacher.
func (s *NotificationService) OffsetPending(ctx context.Context, session *models.MakeupClass) {
	s.Notify(ctx, makeupNotification(models.NotificationOffsetPending, "Offset class needs a teacher", session, ""))
}

// Assigned announces that session was staffed by teacherName.
func (s *NotificationService) Assigned(ctx context.Context, session *models.MakeupClass, teacherName string) {
	s.Notify(ctx, makeupNotification(models.NotificationMakeupAssigned, "Teacher assigned", session, "assigned to "+teacherName))
}

// Unassigned announces that no teacher could be found for session.
func (s *NotificationService) Unassigned(ctx context.Context, session *models.MakeupClass, reason string) {
	s.Notify(ctx, makeupNotification(models.NotificationMakeupUnassigned, "No teacher available", session, reason))
}

// SyncFailed announces a failed inbox import run.
func (s *NotificationService) SyncFailed(ctx context.Context, message string) {
	s.Notify(ctx, models.Notification{Type: models.NotificationSyncFailed, Title: "Spreadsheet sync failed", Message: message})
}

// List returns notifications with pagination and the unread count.
func (s *NotificationService) List(ctx context.Context, filter models.NotificationFilter) ([]models.Notification, *models.Pagination, int, error) {
	filter.Page, filter.PageSize = models.NormalizePage(filter.Page, filter.PageSize)
	items, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, 0, appErrors.Internal(err, "failed to list notifications")
	}
	unread, err := s.repo.CountUnread(ctx)
	if err != nil {
		return nil, nil, 0, appErrors.Internal(err, "failed to count unread notifications")
	}
	return items, models.NewPagination(filter.Page, filter.PageSize, total), unread, nil
}

// MarkRead flags one notification as read.
func (s *NotificationService) MarkRead(ctx context.Context, id string) error {
	ok, err := s.repo.MarkRead(ctx, id, s.now().UTC())
	if err != nil {
		return appErrors.Internal(err, "failed to mark notification read")
	}
	if !ok {
		return appErrors.Clone(appErrors.ErrNotFound, "notification not found")
	}
	return nil
}

// MarkAllRead flags every notification as read and returns how many changed.
func (s *NotificationService) MarkAllRead(ctx context.Context) (int64, error) {
	n, err := s.repo.MarkAllRead(ctx, s.now().UTC())
	if err != nil {
		return 0, appErrors.Internal(err, "failed to mark notifications read")
	}
	return n, nil
}

// Delete removes a notification.
func (s *NotificationService) Delete(ctx context.Context, id string) error {
	ok, err := s.repo.Delete(ctx, id)
	if err != nil {
		return appErrors.Internal(err, "failed to delete notification")
	}
	if !ok {
		return appErrors.Clone(appErrors.ErrNotFound, "notification not found")
	}
	return nil
}

func makeupNotification(kind models.NotificationType, title string, session *models.MakeupClass, detail string) models.Notification {
	relatedType := relatedMakeupClass
	relatedID := session.ID
	message := fmt.Sprintf("%s %s on %s %s-%s", session.Kind, session.ClassName,
		session.ScheduledDate.Format("02/01/2006"), timeslot.Normalize(session.StartTime), timeslot.Normalize(session.EndTime))
	if detail != "" {
		message += ": " + detail
	}
	return models.Notification{
		Type:        kind,
		Title:       title,
		Message:     message,
		RelatedType: &relatedType,
		RelatedID:   &relatedID,
	}
}
