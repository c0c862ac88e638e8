package sync

import (
	"time"
)

// Result is the outcome of one reconciliation pass (or the aggregate of a
// full run). TotalProcessed counts records returned by the partner; records
// that were already in agreement are counted in none of Inserted, Updated or
// Deleted, so the three need not sum to TotalProcessed.
type Result struct {
	Entity         EntityType `json:"entity"`
	TotalProcessed int        `json:"total_processed"`
	Inserted       int        `json:"inserted"`
	Updated        int        `json:"updated"`
	Deleted        int        `json:"deleted"`
	Errors         []string   `json:"errors,omitempty"`
	Success        bool       `json:"success"`
	StartedAt      time.Time  `json:"started_at"`
	FinishedAt     time.Time  `json:"finished_at"`
}

// NewResult starts a result for one entity pass
func NewResult(entity EntityType) *Result {
	return &Result{
		Entity:    entity,
		Success:   true,
		StartedAt: time.Now(),
	}
}

// RecordError captures a per-record failure. It does not flip Success:
// only a fetch-level failure makes the whole pass unsuccessful.
func (r *Result) RecordError(err error) {
	r.Errors = append(r.Errors, err.Error())
}

// Fail marks the pass as failed with the given fetch-level error
func (r *Result) Fail(err error) {
	r.Success = false
	r.Errors = append(r.Errors, err.Error())
}

// Finish stamps the end of the pass
func (r *Result) Finish() {
	r.FinishedAt = time.Now()
}

// HasErrors reports whether any error was recorded
func (r *Result) HasErrors() bool {
	return len(r.Errors) > 0
}

// Aggregate combines per-entity results into one, in the order given.
// Success is the logical AND of all stages; counts are summed and error
// lists concatenated in stage order.
func Aggregate(results ...Result) Result {
	agg := Result{
		Entity:  EntityAll,
		Success: true,
	}
	for i, res := range results {
		if i == 0 || res.StartedAt.Before(agg.StartedAt) {
			agg.StartedAt = res.StartedAt
		}
		if res.FinishedAt.After(agg.FinishedAt) {
			agg.FinishedAt = res.FinishedAt
		}
		agg.TotalProcessed += res.TotalProcessed
		agg.Inserted += res.Inserted
		agg.Updated += res.Updated
		agg.Deleted += res.Deleted
		agg.Errors = append(agg.Errors, res.Errors...)
		agg.Success = agg.Success && res.Success
	}
	return agg
}
