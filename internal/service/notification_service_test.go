package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/edu-ops-api/internal/models"
	appErrors "github.com/noah-isme/edu-ops-api/pkg/errors"
	"github.com/noah-isme/edu-ops-api/pkg/ws"
)

type mockNotificationRepo struct {
	created   []models.Notification
	createErr error
	read      map[string]bool
}

func (m *mockNotificationRepo) List(ctx context.Context, filter models.NotificationFilter) ([]models.Notification, int, error) {
	return m.created, len(m.created), nil
}

func (m *mockNotificationRepo) CountUnread(ctx context.Context) (int, error) {
	n := 0
	for _, item := range m.created {
		if !m.read[item.ID] {
			n++
		}
	}
	return n, nil
}

func (m *mockNotificationRepo) Create(ctx context.Context, n *models.Notification) error {
	if m.createErr != nil {
		return m.createErr
	}
	n.ID = "n" + string(rune('0'+len(m.created)+1))
	m.created = append(m.created, *n)
	return nil
}

func (m *mockNotificationRepo) MarkRead(ctx context.Context, id string, at time.Time) (bool, error) {
	for _, item := range m.created {
		if item.ID == id {
			if m.read == nil {
				m.read = map[string]bool{}
			}
			m.read[id] = true
			return true, nil
		}
	}
	return false, nil
}

func (m *mockNotificationRepo) MarkAllRead(ctx context.Context, at time.Time) (int64, error) {
	return int64(len(m.created)), nil
}

func (m *mockNotificationRepo) Delete(ctx context.Context, id string) (bool, error) {
	return false, nil
}

type recordingBroadcaster struct {
	events []ws.Event
}

func (r *recordingBroadcaster) Broadcast(evt ws.Event) {
	r.events = append(r.events, evt)
}

func TestNotificationServiceOffsetPendingBroadcasts(t *testing.T) {
	repo := &mockNotificationRepo{}
	hub := &recordingBroadcaster{}
	svc := NewNotificationService(repo, hub, zap.NewNop())

	session := &models.MakeupClass{ID: "m1", Kind: models.MakeupOffset, ClassName: "IELTS HP3", ScheduledDate: time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC), StartTime: "18:00", EndTime: "19:30"}
	svc.OffsetPending(context.Background(), session)

	require.Len(t, repo.created, 1)
	assert.Equal(t, models.NotificationOffsetPending, repo.created[0].Type)
	assert.Equal(t, "offset IELTS HP3 on 10/03/2025 18:00-19:30", repo.created[0].Message)
	assert.Equal(t, "m1", *repo.created[0].RelatedID)
	require.Len(t, hub.events, 1)
	assert.Equal(t, eventNotificationCreated, hub.events[0].Type)
}

func TestNotificationServiceSwallowsStoreFailure(t *testing.T) {
	repo := &mockNotificationRepo{createErr: errors.New("db down")}
	hub := &recordingBroadcaster{}
	svc := NewNotificationService(repo, hub, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	svc.SyncFailed(ctx, "sheet unreachable")
	assert.Empty(t, hub.events)
}

func TestNotificationServiceMarkRead(t *testing.T) {
	repo := &mockNotificationRepo{}
	svc := NewNotificationService(repo, nil, zap.NewNop())
	svc.SyncFailed(context.Background(), "boom")

	_, _, unread, err := svc.List(context.Background(), models.NotificationFilter{})
	require.NoError(t, err)
	assert.Equal(t, 1, unread)

	require.NoError(t, svc.MarkRead(context.Background(), "n1"))
	err = svc.MarkRead(context.Background(), "missing")
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))
	assert.True(t, appErrors.Is(svc.Delete(context.Background(), "missing"), appErrors.ErrNotFound))
}
