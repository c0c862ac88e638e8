package scheduler

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	syncdomain "github.com/edusync/backend/internal/domain/sync"
)

// SyncRunner runs a full reconciliation pass. Satisfied by the sync
// orchestrator.
type SyncRunner interface {
	SyncAll(ctx context.Context) syncdomain.Result
}

// SyncTriggerConfig holds configuration for the periodic sync trigger
type SyncTriggerConfig struct {
	// Enabled indicates if the trigger is enabled
	Enabled bool
	// Interval is how often a full sync runs
	Interval time.Duration
	// SyncTimeout is the maximum time one full sync may take
	SyncTimeout time.Duration
	// RunOnStart runs a full sync immediately on startup
	RunOnStart bool
}

// DefaultSyncTriggerConfig returns default trigger configuration
func DefaultSyncTriggerConfig() SyncTriggerConfig {
	return SyncTriggerConfig{
		Enabled:     true,
		Interval:    30 * time.Minute,
		SyncTimeout: 15 * time.Minute,
		RunOnStart:  false,
	}
}

// Validate validates the configuration
func (c *SyncTriggerConfig) Validate() error {
	if c.Interval <= 0 {
		return ErrInvalidConfig
	}
	if c.SyncTimeout <= 0 {
		return ErrInvalidConfig
	}
	return nil
}

// SyncTrigger runs full syncs on a fixed interval. Runs never overlap: a
// tick that arrives while a sync is still going is skipped.
type SyncTrigger struct {
	config SyncTriggerConfig
	runner SyncRunner
	logger *zap.Logger

	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool
	inFlight  bool

	lastResult *syncdomain.Result
}

// NewSyncTrigger creates a new periodic sync trigger
func NewSyncTrigger(config SyncTriggerConfig, runner SyncRunner, logger *zap.Logger) (*SyncTrigger, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &SyncTrigger{
		config: config,
		runner: runner,
		logger: logger,
	}, nil
}

// Start starts the trigger loop
func (t *SyncTrigger) Start(ctx context.Context) error {
	t.mu.Lock()
	if t.isRunning {
		t.mu.Unlock()
		return nil
	}
	t.isRunning = true
	t.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	t.cancel = cancel

	t.wg.Add(1)
	go t.runLoop(ctx)

	t.logger.Info("Sync trigger started",
		zap.Duration("interval", t.config.Interval),
		zap.Duration("sync_timeout", t.config.SyncTimeout),
		zap.Bool("run_on_start", t.config.RunOnStart),
	)

	return nil
}

// Stop gracefully stops the trigger, waiting for an in-flight sync
func (t *SyncTrigger) Stop(ctx context.Context) error {
	t.mu.Lock()
	if !t.isRunning {
		t.mu.Unlock()
		return nil
	}
	t.isRunning = false
	t.mu.Unlock()

	if t.cancel != nil {
		t.cancel()
	}

	done := make(chan struct{})
	go func() {
		t.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		t.logger.Info("Sync trigger stopped gracefully")
		return nil
	case <-ctx.Done():
		t.logger.Warn("Sync trigger stop timed out")
		return ctx.Err()
	}
}

// TriggerNow runs a full sync outside the interval, refusing while another
// run is in flight
func (t *SyncTrigger) TriggerNow(ctx context.Context) (syncdomain.Result, error) {
	t.mu.Lock()
	if !t.isRunning {
		t.mu.Unlock()
		return syncdomain.Result{}, ErrTriggerNotRunning
	}
	if t.inFlight {
		t.mu.Unlock()
		return syncdomain.Result{}, ErrSyncInProgress
	}
	t.inFlight = true
	t.mu.Unlock()

	result := t.runOnce(ctx)

	t.mu.Lock()
	t.inFlight = false
	t.mu.Unlock()

	return result, nil
}

// LastResult returns the result of the most recent completed run, or nil
// when no run has completed yet
func (t *SyncTrigger) LastResult() *syncdomain.Result {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.lastResult == nil {
		return nil
	}
	result := *t.lastResult
	return &result
}

func (t *SyncTrigger) runLoop(ctx context.Context) {
	defer t.wg.Done()

	if t.config.RunOnStart {
		t.tick(ctx)
	}

	ticker := time.NewTicker(t.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			t.tick(ctx)
		}
	}
}

// tick runs one scheduled sync unless a run is already in flight
func (t *SyncTrigger) tick(ctx context.Context) {
	t.mu.Lock()
	if t.inFlight {
		t.mu.Unlock()
		t.logger.Warn("Skipping scheduled sync, previous run still in flight")
		return
	}
	t.inFlight = true
	t.mu.Unlock()

	t.runOnce(ctx)

	t.mu.Lock()
	t.inFlight = false
	t.mu.Unlock()
}

func (t *SyncTrigger) runOnce(ctx context.Context) syncdomain.Result {
	syncCtx, cancel := context.WithTimeout(ctx, t.config.SyncTimeout)
	defer cancel()

	t.logger.Info("Scheduled sync starting")
	result := t.runner.SyncAll(syncCtx)

	t.mu.Lock()
	t.lastResult = &result
	t.mu.Unlock()

	t.logger.Info("Scheduled sync finished",
		zap.Bool("success", result.Success),
		zap.Int("processed", result.TotalProcessed),
		zap.Int("inserted", result.Inserted),
		zap.Int("updated", result.Updated),
		zap.Int("deleted", result.Deleted),
		zap.Int("errors", len(result.Errors)),
	)
	return result
}
