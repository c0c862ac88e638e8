package scheduler

import "errors"

var (
	// ErrTriggerNotRunning is returned when triggering a stopped scheduler
	ErrTriggerNotRunning = errors.New("sync trigger is not running")

	// ErrSyncInProgress is returned when a run is requested while one is active
	ErrSyncInProgress = errors.New("sync already in progress")

	// ErrInvalidConfig is returned when configuration is invalid
	ErrInvalidConfig = errors.New("invalid sync trigger configuration")
)
