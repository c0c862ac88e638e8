package sync

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/edusync/backend/internal/domain/shared"
	syncdomain "github.com/edusync/backend/internal/domain/sync"
)

// Outcome classifies what applying one remote record did locally
type Outcome int

const (
	OutcomeUnchanged Outcome = iota
	OutcomeInserted
	OutcomeUpdated
)

// Window bounds a date-range reconciliation. A nil *Window means full sync.
type Window struct {
	From time.Time
	To   time.Time
}

// Validate checks the window bounds
func (w Window) Validate() error {
	if w.From.IsZero() || w.To.IsZero() {
		return fmt.Errorf("window bounds are required")
	}
	if w.To.Before(w.From) {
		return fmt.Errorf("window end %s precedes start %s", w.To.Format(time.RFC3339), w.From.Format(time.RFC3339))
	}
	return nil
}

// Target adapts one entity type to the shared reconciliation algorithm.
// All four entity types run the exact same loop; only fetching, mapping and
// persistence differ, and that is what implementations provide.
type Target[R any] interface {
	Entity() syncdomain.EntityType

	Fetch(ctx context.Context) ([]R, error)
	FetchRange(ctx context.Context, from, to time.Time) ([]R, error)

	// Key returns the partner identifier joining remote and local records
	Key(record R) uuid.UUID

	// Apply brings the local record for one remote record into agreement:
	// insert when absent, update and reactivate when changed or
	// soft-deleted, no-op when already in agreement. Errors are per-record
	// and never abort the pass.
	Apply(ctx context.Context, record R) (Outcome, error)

	// DeactivateAbsent soft-deletes active local records whose partner
	// identifier is not in present
	DeactivateAbsent(ctx context.Context, present []uuid.UUID, at time.Time) (int64, error)
}

// reconcile brings local state for one entity type into agreement with the
// remote authoritative set. A fetch failure leaves local state untouched and
// fails the pass; per-record failures are collected and processing
// continues. All local mutations commit together at the end of the pass.
func reconcile[R any](ctx context.Context, tm shared.TransactionManager, target Target[R], window *Window, logger *zap.Logger) syncdomain.Result {
	result := syncdomain.NewResult(target.Entity())

	var remote []R
	var err error
	if window != nil {
		remote, err = target.FetchRange(ctx, window.From, window.To)
	} else {
		remote, err = target.Fetch(ctx)
	}
	if err != nil {
		result.Fail(fmt.Errorf("fetch %s: %w", target.Entity(), err))
		result.Finish()
		logger.Error("remote fetch failed",
			zap.String("entity", string(target.Entity())),
			zap.Error(err),
		)
		return *result
	}
	result.TotalProcessed = len(remote)

	// Every partner identifier the remote reported, applied or not: a
	// record that failed to map is still present upstream and must not be
	// soft-deleted.
	present := make([]uuid.UUID, 0, len(remote))
	for _, record := range remote {
		present = append(present, target.Key(record))
	}

	txErr := tm.Transaction(ctx, func(ctx context.Context) error {
		for _, record := range remote {
			// Each record applies inside a nested transaction (a savepoint
			// under Postgres): a failed statement rolls back that record
			// alone instead of aborting the surrounding transaction.
			var outcome Outcome
			err := tm.Transaction(ctx, func(ctx context.Context) error {
				var applyErr error
				outcome, applyErr = target.Apply(ctx, record)
				return applyErr
			})
			if err != nil {
				result.RecordError(fmt.Errorf("%s %s: %w", target.Entity(), target.Key(record), err))
				continue
			}
			switch outcome {
			case OutcomeInserted:
				result.Inserted++
			case OutcomeUpdated:
				result.Updated++
			}
		}

		// Range syncs see only a slice of the remote set; treating
		// everything outside the window as absent would mass-delete.
		if window == nil {
			deleted, err := target.DeactivateAbsent(ctx, present, time.Now())
			if err != nil {
				return err
			}
			result.Deleted = int(deleted)
		}
		return nil
	})
	if txErr != nil {
		// The whole pass rolled back: report nothing as applied
		result.Inserted, result.Updated, result.Deleted = 0, 0, 0
		result.Fail(fmt.Errorf("commit %s: %w", target.Entity(), txErr))
	}

	result.Finish()
	logger.Info("reconciliation finished",
		zap.String("entity", string(target.Entity())),
		zap.Bool("success", result.Success),
		zap.Int("processed", result.TotalProcessed),
		zap.Int("inserted", result.Inserted),
		zap.Int("updated", result.Updated),
		zap.Int("deleted", result.Deleted),
		zap.Int("errors", len(result.Errors)),
	)
	return *result
}
