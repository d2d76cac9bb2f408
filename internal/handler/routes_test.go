package handler

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/edu-ops-api/internal/dto"
	"github.com/noah-isme/edu-ops-api/internal/models"
	appErrors "github.com/noah-isme/edu-ops-api/pkg/errors"
	"github.com/noah-isme/edu-ops-api/pkg/ws"
)

type tokenStub map[string]*models.JWTClaims

func (s tokenStub) ValidateToken(token string) (*models.JWTClaims, error) {
	if claims, ok := s[token]; ok {
		return claims, nil
	}
	return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token")
}

var testTokens = tokenStub{
	"admin-token": {UserID: "u-admin", Role: models.RoleAdmin},
	"staff-token": {UserID: "u-staff", Role: models.RoleStaff},
	"user-token":  {UserID: "u-user", Role: models.RoleUser},
}

type notificationServiceStub struct {
	lastFilter models.NotificationFilter
}

func (s *notificationServiceStub) List(_ context.Context, filter models.NotificationFilter) ([]models.Notification, *models.Pagination, int, error) {
	s.lastFilter = filter
	return []models.Notification{}, models.NewPagination(1, 20, 0), 3, nil
}

func (s *notificationServiceStub) MarkRead(context.Context, string) error { return nil }

func (s *notificationServiceStub) MarkAllRead(context.Context) (int64, error) { return 3, nil }

func (s *notificationServiceStub) Delete(context.Context, string) error { return nil }

type syncServiceStub struct {
	err error
}

func (s *syncServiceStub) Run(context.Context) (*models.SyncResult, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &models.SyncResult{Success: true, Processed: 2, Imported: 2, Errors: []string{}}, nil
}

func (s *syncServiceStub) Status() dto.SyncStatusResponse {
	return dto.SyncStatusResponse{Enabled: true, Schedule: "*/15 * * * *"}
}

func newSecuredRouter(hub socketHub, sync *syncServiceStub) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	handlers := Handlers{
		Roster:        NewRosterHandler(shiftServiceStub{}, &workShiftServiceStub{}, &freeScheduleServiceStub{}),
		Makeups:       []*MakeupClassHandler{NewMakeupClassHandler(models.MakeupOffset, &makeupServiceMock{}, &assignmentServiceMock{})},
		Notifications: NewNotificationHandler(&notificationServiceStub{}, hub, testTokens, []string{"*"}, zap.NewNop()),
		Sync:          NewSyncHandler(sync),
	}
	RegisterRoutes(router.Group("/api"), handlers, RouteConfig{AuthEnabled: true, Tokens: testTokens})
	return router
}

func doRequest(router http.Handler, method, path, token, body string) *httptest.ResponseRecorder {
	var reader *bytes.Buffer
	if body != "" {
		reader = bytes.NewBufferString(body)
	} else {
		reader = &bytes.Buffer{}
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestRoutesRequireTokenWhenAuthEnabled(t *testing.T) {
	router := newSecuredRouter(ws.NewHub(zap.NewNop()), &syncServiceStub{})

	rec := doRequest(router, http.MethodGet, "/api/schedule/shifts", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doRequest(router, http.MethodGet, "/api/schedule/shifts", "bogus", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doRequest(router, http.MethodGet, "/api/schedule/shifts", "user-token", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRoutesRestrictMutationsToStaff(t *testing.T) {
	router := newSecuredRouter(ws.NewHub(zap.NewNop()), &syncServiceStub{})
	shift := `{"name":"Evening","start_time":"18:00","end_time":"21:00"}`

	rec := doRequest(router, http.MethodPost, "/api/schedule/shifts", "user-token", shift)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = doRequest(router, http.MethodPost, "/api/schedule/shifts", "staff-token", shift)
	assert.Equal(t, http.StatusCreated, rec.Code)

	rec = doRequest(router, http.MethodPost, "/api/offset-classes/auto-assign", "user-token", "")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = doRequest(router, http.MethodPost, "/api/offset-classes/auto-assign", "admin-token", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(router, http.MethodGet, "/api/offset-classes/m-1/candidates", "user-token", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRoutesOpenWhenAuthDisabled(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	RegisterRoutes(router.Group("/api"), Handlers{
		Roster: NewRosterHandler(shiftServiceStub{}, &workShiftServiceStub{}, &freeScheduleServiceStub{}),
	}, RouteConfig{})

	rec := doRequest(router, http.MethodPost, "/api/schedule/shifts", "", `{"name":"Morning","start_time":"08:00","end_time":"11:00"}`)
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestNotificationRoutes(t *testing.T) {
	svc := &notificationServiceStub{}
	gin.SetMode(gin.TestMode)
	router := gin.New()
	RegisterRoutes(router.Group("/api"), Handlers{
		Notifications: NewNotificationHandler(svc, ws.NewHub(zap.NewNop()), nil, nil, nil),
	}, RouteConfig{})

	rec := doRequest(router, http.MethodGet, "/api/notifications?unread=true&page=1&limit=10", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, svc.lastFilter.UnreadOnly)
	assert.Contains(t, rec.Body.String(), `"unread":3`)

	rec = doRequest(router, http.MethodPut, "/api/notifications/read-all", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"updated":3`)

	rec = doRequest(router, http.MethodPut, "/api/notifications/n-1/read", "", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestSyncRoutes(t *testing.T) {
	sync := &syncServiceStub{}
	router := newSecuredRouter(ws.NewHub(zap.NewNop()), sync)

	rec := doRequest(router, http.MethodGet, "/api/google-sheets/status", "user-token", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"enabled":true`)

	rec = doRequest(router, http.MethodPost, "/api/google-sheets/sync", "user-token", "")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = doRequest(router, http.MethodPost, "/api/google-sheets/sync", "staff-token", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"imported":2`)

	sync.err = appErrors.ErrSyncInProgress
	rec = doRequest(router, http.MethodPost, "/api/google-sheets/sync", "staff-token", "")
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestNotificationSocket(t *testing.T) {
	hub := ws.NewHub(zap.NewNop())
	defer hub.Close()

	server := httptest.NewServer(newSecuredRouter(hub, &syncServiceStub{}))
	defer server.Close()
	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/api/notifications/ws"

	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	conn, _, err := websocket.DefaultDialer.Dial(url+"?token=staff-token", nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return hub.Count() == 1 }, time.Second, 10*time.Millisecond)
	hub.Broadcast(ws.Event{Type: "notification.created", Data: map[string]string{"id": "n-1"}})

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, message, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.Contains(t, string(message), `"notification.created"`)
}
