package retention

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"go-doc-lifecycle/internal/event"
)

const DefaultSchedule = "02:00"

// Sweeper erases documents whose retention period has elapsed.
type Sweeper interface {
	AutoDeleteExpiredDocuments(ctx context.Context) (int, error)
}

// Scheduler runs the retention sweep on a cron schedule. Sweeps never
// overlap: a tick that fires while a sweep is still running is skipped, and
// RunNow waits for the running sweep to finish.
type Scheduler struct {
	sweeper  Sweeper
	schedule string
	cron     *cron.Cron
	bus      event.Bus
	entry    cron.EntryID
	mu       sync.Mutex
	sweeping sync.Mutex
	logger   *slog.Logger
	running  bool
	runCtx   context.Context
	stop     chan struct{}
	watching chan struct{}
	lastRun  time.Time
}

// NewScheduler validates schedule and prepares a stopped scheduler.
// schedule is either a daily "HH:MM" time or a standard five-field cron
// expression.
func NewScheduler(sweeper Sweeper, schedule string) (*Scheduler, error) {
	expr, err := NormalizeSchedule(schedule)
	if err != nil {
		return nil, err
	}

	logger := slog.Default().With("component", "retention.scheduler")
	cronLogger := cron.PrintfLogger(slog.NewLogLogger(logger.Handler(), slog.LevelWarn))

	s := &Scheduler{
		sweeper:  sweeper,
		schedule: expr,
		cron:     cron.New(cron.WithChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger))),
		logger:   logger,
	}

	s.entry, err = s.cron.AddFunc(expr, func() { s.runScheduled(s.runContext()) })
	if err != nil {
		return nil, fmt.Errorf("failed to schedule retention sweep: %w", err)
	}

	return s, nil
}

func (s *Scheduler) SetEventBus(bus event.Bus) {
	s.bus = bus
}

// Schedule returns the normalized cron expression.
func (s *Scheduler) Schedule() string {
	return s.schedule
}

// NormalizeSchedule converts "HH:MM" into a daily cron expression and
// validates anything else as a standard cron expression.
func NormalizeSchedule(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		trimmed = DefaultSchedule
	}

	if hour, minute, ok := strings.Cut(trimmed, ":"); ok && !strings.Contains(trimmed, " ") {
		h, hErr := strconv.Atoi(hour)
		m, mErr := strconv.Atoi(minute)
		if hErr != nil || mErr != nil || h < 0 || h > 23 || m < 0 || m > 59 {
			return "", fmt.Errorf("invalid daily schedule %q: want HH:MM", raw)
		}
		return fmt.Sprintf("%d %d * * *", m, h), nil
	}

	if _, err := cron.ParseStandard(trimmed); err != nil {
		return "", fmt.Errorf("invalid cron schedule %q: %w", raw, err)
	}

	return trimmed, nil
}

// Start starts the cron loop. The scheduler stops when ctx is cancelled or
// Stop is called, and may be started again afterwards.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return nil
	}

	stop := make(chan struct{})
	watching := make(chan struct{})
	s.runCtx = ctx
	s.stop = stop
	s.watching = watching
	s.cron.Start()
	s.running = true

	s.logger.Info("retention scheduler started", "schedule", s.schedule)

	go func() {
		defer close(watching)
		select {
		case <-ctx.Done():
			s.Stop()
		case <-stop:
		}
	}()

	return nil
}

func (s *Scheduler) runContext() context.Context {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.runCtx == nil {
		return context.Background()
	}
	return s.runCtx
}

func (s *Scheduler) runScheduled(ctx context.Context) {
	if !s.sweeping.TryLock() {
		s.logger.Warn("retention sweep still running, skipping tick")
		return
	}
	defer s.sweeping.Unlock()

	s.logger.Info("starting scheduled retention sweep")
	if _, err := s.sweep(ctx); err != nil {
		s.logger.Error("scheduled retention sweep failed", "error", err)
	}
}

// RunNow runs one sweep immediately, waiting for any in-progress sweep first.
func (s *Scheduler) RunNow(ctx context.Context) (int, error) {
	s.sweeping.Lock()
	defer s.sweeping.Unlock()

	if err := ctx.Err(); err != nil {
		return 0, err
	}

	return s.sweep(ctx)
}

func (s *Scheduler) sweep(ctx context.Context) (int, error) {
	started := time.Now()
	deleted, err := s.sweeper.AutoDeleteExpiredDocuments(ctx)
	elapsed := time.Since(started)

	s.mu.Lock()
	s.lastRun = started
	s.mu.Unlock()

	payload := event.Sweep{Erased: deleted, Duration: elapsed}
	if err != nil {
		payload.Error = err.Error()
	}
	if s.bus != nil {
		s.bus.Publish(event.New(event.TypeRetentionSweepFinish, "", payload))
	}

	if err != nil {
		return deleted, fmt.Errorf("retention sweep: %w", err)
	}

	if deleted > 0 {
		s.logger.Info("retention sweep completed", "deleted_count", deleted, "duration", elapsed)
	} else {
		s.logger.Debug("retention sweep completed, nothing expired", "duration", elapsed)
	}

	return deleted, nil
}

// Stop stops the scheduler and waits for a running sweep to complete.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	close(s.stop)
	s.mu.Unlock()

	<-s.cron.Stop().Done()
	s.logger.Info("retention scheduler stopped")
}

func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.running
}

// NextRun returns the next scheduled sweep, or nil when not started.
func (s *Scheduler) NextRun() *time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil
	}

	next := s.cron.Entry(s.entry).Next
	if next.IsZero() {
		return nil
	}
	return &next
}

// LastRun returns when the last sweep started, or the zero time.
func (s *Scheduler) LastRun() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.lastRun
}
