package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/edu-ops-api/internal/dto"
	"github.com/noah-isme/edu-ops-api/internal/models"
	"github.com/noah-isme/edu-ops-api/pkg/cache"
	appErrors "github.com/noah-isme/edu-ops-api/pkg/errors"
	"github.com/noah-isme/edu-ops-api/pkg/sheets"
	"github.com/noah-isme/edu-ops-api/pkg/timeslot"
)

type inboxMakeupRepository interface {
	FindSameRequest(ctx context.Context, kind models.MakeupKind, email, className string, date time.Time) ([]models.MakeupClass, error)
	Create(ctx context.Context, session *models.MakeupClass) error
}

type levelResolver interface {
	ResolveLevel(ctx context.Context, code string) (*models.SubjectLevel, error)
}

type sessionAnnouncer interface {
	Announce(ctx context.Context, session *models.MakeupClass)
}

// Locker grants exclusive runs.
type Locker interface {
	Acquire(ctx context.Context) (func(), error)
}

// SheetSyncConfig describes the inbox spreadsheet.
type SheetSyncConfig struct {
	Enabled      bool
	ReadRange    string
	StatusColumn string
	Schedule     string
	// Timeout bounds one run, manual or scheduled.
	Timeout time.Duration
}

const (
	defaultSyncTimeout = 4 * time.Minute
	writeBackTimeout   = 15 * time.Second
)

// SheetSyncService imports offset class requests from the spreadsheet inbox.
type SheetSyncService struct {
	client    sheets.Client
	cfg       SheetSyncConfig
	makeups   inboxMakeupRepository
	levels    levelResolver
	announcer sessionAnnouncer
	notifier  *NotificationService
	metrics   *MetricsService
	lock      Locker
	logger    *zap.Logger
	now       func() time.Time

	mu      sync.Mutex
	running bool
	last    *models.SyncResult
}

// NewSheetSyncService constructs a SheetSyncService. client may be nil when the
// import is disabled; runs then fail fast.
func NewSheetSyncService(client sheets.Client, cfg SheetSyncConfig, makeups inboxMakeupRepository, levels levelResolver, announcer sessionAnnouncer, notifier *NotificationService, metrics *MetricsService, lock Locker, logger *zap.Logger) *SheetSyncService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if lock == nil {
		lock = cache.NewLock(nil, "", 0)
	}
	if cfg.StatusColumn == "" {
		cfg.StatusColumn = "F"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultSyncTimeout
	}
	return &SheetSyncService{
		client:    client,
		cfg:       cfg,
		makeups:   makeups,
		levels:    levels,
		announcer: announcer,
		notifier:  notifier,
		metrics:   metrics,
		lock:      lock,
		logger:    logger,
		now:       time.Now,
	}
}

// Status reports whether the import is enabled, running, and how the last run went.
func (s *SheetSyncService) Status() dto.SyncStatusResponse {
	s.mu.Lock()
	defer s.mu.Unlock()
	return dto.SyncStatusResponse{Enabled: s.cfg.Enabled, Schedule: s.cfg.Schedule, Running: s.running, LastRun: s.last}
}

// Task adapts Run to the scheduler. A run skipped because another holds the lock is not an error.
func (s *SheetSyncService) Task(ctx context.Context) error {
	result, err := s.Run(ctx)
	if appErrors.Is(err, appErrors.ErrSyncInProgress) {
		s.logger.Info("sheet sync skipped, another run holds the lock")
		return nil
	}
	if err != nil {
		return err
	}
	if !result.Success {
		return errors.New(result.Error)
	}
	return nil
}

// Run performs one import. A failure to read the sheet ends the run with
// Success=false; failures on single rows are recorded and the run continues.
// The run outlives a cancelled caller but not the configured timeout.
func (s *SheetSyncService) Run(ctx context.Context) (*models.SyncResult, error) {
	if s.client == nil {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "spreadsheet sync is not configured")
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.Timeout)
	defer cancel()
	release, err := s.lock.Acquire(ctx)
	if err != nil {
		if errors.Is(err, cache.ErrLockHeld) {
			return nil, appErrors.Clone(appErrors.ErrSyncInProgress, "")
		}
		return nil, appErrors.Internal(err, "failed to acquire sync lock")
	}
	defer release()

	s.setRunning(true)
	result := &models.SyncResult{StartedAt: s.now().UTC(), Errors: []string{}}
	defer func() {
		result.FinishedAt = s.now().UTC()
		s.metrics.RecordSyncRun(result)
		s.mu.Lock()
		s.running = false
		s.last = result
		s.mu.Unlock()
	}()

	if err := s.importRows(ctx, result); err != nil {
		result.Success = false
		result.Error = err.Error()
		s.logger.Error("sheet sync failed", zap.Error(err))
		s.notifier.SyncFailed(ctx, err.Error())
		return result, nil
	}
	result.Success = true
	s.logger.Info("sheet sync finished",
		zap.Int("processed", result.Processed),
		zap.Int("imported", result.Imported),
		zap.Int("skipped", result.Skipped),
		zap.Int("failed", result.Failed),
	)
	return result, nil
}

func (s *SheetSyncService) importRows(ctx context.Context, result *models.SyncResult) error {
	rng, err := sheets.ParseRange(s.cfg.ReadRange)
	if err != nil {
		return err
	}
	rows, err := s.client.ReadRows(ctx, s.cfg.ReadRange)
	if err != nil {
		return fmt.Errorf("fetch inbox rows: %w", err)
	}

	statuses := make(map[string]string)
	for i, row := range rows {
		if ctx.Err() != nil {
			break
		}
		row = padRow(row)
		if strings.TrimSpace(row[sheetColStatus]) != "" || isBlankRow(row) {
			continue
		}
		result.Processed++
		cell := rng.Cell(s.cfg.StatusColumn, i)

		imported, err := s.importRow(ctx, row)
		switch {
		case err != nil:
			result.Failed++
			result.Errors = append(result.Errors, fmt.Sprintf("row %d: %s", rng.FirstRow+i, err))
			statuses[cell] = fmt.Sprintf(dto.SheetStatusErrorFormat, err)
			s.logger.Warn("sheet row failed", zap.Int("row", rng.FirstRow+i), zap.Error(err))
		case imported == 0:
			result.Skipped++
			statuses[cell] = dto.SheetStatusDuplicate
		default:
			result.Imported += imported
			statuses[cell] = fmt.Sprintf(dto.SheetStatusImportedFormat, imported)
		}
	}

	// Rows imported before a deadline still get their status.
	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), writeBackTimeout)
	defer cancel()
	if err := s.client.WriteCells(writeCtx, statuses); err != nil {
		// Rows stay imported; the duplicate check skips them next run.
		s.logger.Warn("failed to write sheet statuses", zap.Int("cells", len(statuses)), zap.Error(err))
		result.Errors = append(result.Errors, "write back: "+err.Error())
	}
	return ctx.Err()
}

// importRow creates one offset class per new session of row and returns how many were created.
func (s *SheetSyncService) importRow(ctx context.Context, row []string) (int, error) {
	req, err := parseInboxRow(row)
	if err != nil {
		return 0, err
	}
	level, err := s.levels.ResolveLevel(ctx, req.ClassName)
	if err != nil {
		return 0, errors.New(appErrors.FromError(err).Message)
	}

	created := 0
	for _, session := range req.Sessions {
		dup, err := s.isDuplicate(ctx, req, session)
		if err != nil {
			return created, err
		}
		if dup {
			continue
		}

		requestedBy := req.Email
		offset := &models.MakeupClass{
			ID:             uuid.NewString(),
			Kind:           models.MakeupOffset,
			SubjectLevelID: level.ID,
			ClassName:      req.ClassName,
			ScheduledDate:  session.Date,
			StartTime:      session.StartTime,
			EndTime:        session.EndTime,
			Status:         models.MakeupPending,
			RequestedBy:    &requestedBy,
			Source:         models.SourceSheet,
		}
		if req.Reason != "" {
			reason := req.Reason
			offset.Reason = &reason
		}
		if err := s.makeups.Create(ctx, offset); err != nil {
			return created, fmt.Errorf("save offset class: %w", err)
		}
		created++
		if s.announcer != nil {
			s.announcer.Announce(ctx, offset)
		}
	}
	return created, nil
}

func (s *SheetSyncService) isDuplicate(ctx context.Context, req *InboxRequest, session InboxSession) (bool, error) {
	existing, err := s.makeups.FindSameRequest(ctx, models.MakeupOffset, req.Email, req.ClassName, session.Date)
	if err != nil {
		return false, err
	}
	window, err := timeslot.ParseRange(session.StartTime, session.EndTime)
	if err != nil {
		return false, err
	}
	for _, other := range existing {
		r, err := timeslot.ParseRange(other.StartTime, other.EndTime)
		if err == nil && r.Overlaps(window) {
			return true, nil
		}
	}
	return false, nil
}

func (s *SheetSyncService) setRunning(running bool) {
	s.mu.Lock()
	s.running = running
	s.mu.Unlock()
}

func isBlankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
