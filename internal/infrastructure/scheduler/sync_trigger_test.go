package scheduler

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	syncdomain "github.com/edusync/backend/internal/domain/sync"
)

// fakeRunner counts runs and can block to simulate a slow sync
type fakeRunner struct {
	mu    sync.Mutex
	runs  int
	block chan struct{}
}

func (r *fakeRunner) SyncAll(ctx context.Context) syncdomain.Result {
	r.mu.Lock()
	r.runs++
	block := r.block
	r.mu.Unlock()

	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
		}
	}

	result := syncdomain.NewResult(syncdomain.EntityAll)
	result.TotalProcessed = 7
	result.Finish()
	return *result
}

func (r *fakeRunner) runCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.runs
}

func TestSyncTriggerConfig_Validate(t *testing.T) {
	cfg := DefaultSyncTriggerConfig()
	assert.NoError(t, cfg.Validate())

	cfg.Interval = 0
	assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)

	cfg = DefaultSyncTriggerConfig()
	cfg.SyncTimeout = 0
	assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
}

func TestSyncTrigger(t *testing.T) {
	t.Run("runs on the configured interval", func(t *testing.T) {
		runner := &fakeRunner{}
		cfg := DefaultSyncTriggerConfig()
		cfg.Interval = 10 * time.Millisecond
		trigger, err := NewSyncTrigger(cfg, runner, zap.NewNop())
		require.NoError(t, err)

		require.NoError(t, trigger.Start(context.Background()))
		defer trigger.Stop(context.Background())

		assert.Eventually(t, func() bool {
			return runner.runCount() >= 2
		}, time.Second, 5*time.Millisecond)
	})

	t.Run("runs immediately when configured", func(t *testing.T) {
		runner := &fakeRunner{}
		cfg := DefaultSyncTriggerConfig()
		cfg.Interval = time.Hour
		cfg.RunOnStart = true
		trigger, err := NewSyncTrigger(cfg, runner, zap.NewNop())
		require.NoError(t, err)

		require.NoError(t, trigger.Start(context.Background()))
		defer trigger.Stop(context.Background())

		assert.Eventually(t, func() bool {
			return runner.runCount() == 1
		}, time.Second, 5*time.Millisecond)
	})

	t.Run("manual trigger runs a sync and reports the result", func(t *testing.T) {
		runner := &fakeRunner{}
		cfg := DefaultSyncTriggerConfig()
		cfg.Interval = time.Hour
		trigger, err := NewSyncTrigger(cfg, runner, zap.NewNop())
		require.NoError(t, err)

		require.NoError(t, trigger.Start(context.Background()))
		defer trigger.Stop(context.Background())

		result, err := trigger.TriggerNow(context.Background())

		require.NoError(t, err)
		assert.Equal(t, 7, result.TotalProcessed)
		assert.Equal(t, 1, runner.runCount())

		last := trigger.LastResult()
		require.NotNil(t, last)
		assert.Equal(t, 7, last.TotalProcessed)
	})

	t.Run("manual trigger refuses while a run is in flight", func(t *testing.T) {
		runner := &fakeRunner{block: make(chan struct{})}
		cfg := DefaultSyncTriggerConfig()
		cfg.Interval = time.Hour
		trigger, err := NewSyncTrigger(cfg, runner, zap.NewNop())
		require.NoError(t, err)

		require.NoError(t, trigger.Start(context.Background()))
		defer trigger.Stop(context.Background())

		started := make(chan struct{})
		go func() {
			close(started)
			trigger.TriggerNow(context.Background())
		}()
		<-started

		assert.Eventually(t, func() bool {
			return runner.runCount() == 1
		}, time.Second, 5*time.Millisecond)

		_, err = trigger.TriggerNow(context.Background())
		assert.ErrorIs(t, err, ErrSyncInProgress)

		close(runner.block)
	})

	t.Run("refuses manual trigger when stopped", func(t *testing.T) {
		runner := &fakeRunner{}
		trigger, err := NewSyncTrigger(DefaultSyncTriggerConfig(), runner, zap.NewNop())
		require.NoError(t, err)

		_, err = trigger.TriggerNow(context.Background())

		assert.ErrorIs(t, err, ErrTriggerNotRunning)
	})

	t.Run("stop waits for the loop to exit", func(t *testing.T) {
		runner := &fakeRunner{}
		cfg := DefaultSyncTriggerConfig()
		cfg.Interval = 5 * time.Millisecond
		trigger, err := NewSyncTrigger(cfg, runner, zap.NewNop())
		require.NoError(t, err)

		require.NoError(t, trigger.Start(context.Background()))
		time.Sleep(20 * time.Millisecond)

		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		assert.NoError(t, trigger.Stop(ctx))
	})
}
