package jobs

import (
	"context"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Task is a unit of periodic work bounded by its own timeout.
type Task func(ctx context.Context) error

// Scheduler runs periodic tasks on cron specs. Runs of the same task never
// overlap: a tick that fires while the previous run is busy is skipped.
type Scheduler struct {
	cron       *cron.Cron
	cronLogger cron.Logger
	logger     *zap.Logger
	ctx        context.Context
	cancel     context.CancelFunc
	immediate  sync.WaitGroup
}

// NewScheduler constructs a scheduler whose task contexts derive from parent.
func NewScheduler(parent context.Context, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(parent)
	cronLogger := cron.PrintfLogger(zap.NewStdLog(logger.Named("cron")))
	return &Scheduler{
		cron:       cron.New(cron.WithChain(cron.Recover(cronLogger))),
		cronLogger: cronLogger,
		logger:     logger,
		ctx:        ctx,
		cancel:     cancel,
	}
}

// Register adds task under spec (e.g. "@every 15m"). When runNow is set the
// task also runs once immediately in the background.
func (s *Scheduler) Register(name, spec string, timeout time.Duration, runNow bool, task Task) error {
	run := func() {
		ctx := s.ctx
		var cancel context.CancelFunc
		if timeout > 0 {
			ctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}
		start := time.Now()
		if err := task(ctx); err != nil {
			s.logger.Warn("scheduled task failed", zap.String("task", name), zap.Duration("took", time.Since(start)), zap.Error(err))
			return
		}
		s.logger.Debug("scheduled task finished", zap.String("task", name), zap.Duration("took", time.Since(start)))
	}

	wrapped := cron.NewChain(cron.SkipIfStillRunning(s.cronLogger)).Then(cron.FuncJob(run))
	if _, err := s.cron.AddJob(spec, wrapped); err != nil {
		return err
	}
	s.logger.Info("scheduled task registered", zap.String("task", name), zap.String("spec", spec))
	if runNow {
		s.immediate.Add(1)
		go func() {
			defer s.immediate.Done()
			wrapped.Run()
		}()
	}
	return nil
}

// Start begins dispatching ticks.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts new ticks, cancels running tasks and waits for them to return.
func (s *Scheduler) Stop() {
	s.cancel()
	<-s.cron.Stop().Done()
	s.immediate.Wait()
}
