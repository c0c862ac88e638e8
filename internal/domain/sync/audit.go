package sync

import (
	"context"
	"strings"
	"time"

	"github.com/edusync/backend/internal/domain/shared"
)

// Operation labels recorded in the audit trail
const (
	OperationSyncAll   = "sync_all"
	OperationSync      = "sync"
	OperationSyncRange = "sync_range"
)

// AuditEntry is one append-only row per reconciliation pass. Entries are
// never mutated or deleted; the latest successful entry per entity type is
// the data-freshness indicator consumed by the read-side API.
type AuditEntry struct {
	shared.BaseEntity
	Entity     EntityType `gorm:"type:varchar(20);not null;index"`
	Operation  string     `gorm:"type:varchar(30);not null"`
	Processed  int        `gorm:"not null;default:0"`
	Inserted   int        `gorm:"not null;default:0"`
	Updated    int        `gorm:"not null;default:0"`
	Deleted    int        `gorm:"not null;default:0"`
	Success    bool       `gorm:"not null;index"`
	ErrorText  string     `gorm:"type:text"`
	StartedAt  time.Time  `gorm:"not null"`
	FinishedAt time.Time  `gorm:"not null"`
}

// TableName returns the table name for GORM
func (AuditEntry) TableName() string {
	return "sync_audit_logs"
}

// NewAuditEntry projects a reconciliation result into an audit row
func NewAuditEntry(operation string, r Result) *AuditEntry {
	return &AuditEntry{
		BaseEntity: shared.NewBaseEntity(),
		Entity:     r.Entity,
		Operation:  operation,
		Processed:  r.TotalProcessed,
		Inserted:   r.Inserted,
		Updated:    r.Updated,
		Deleted:    r.Deleted,
		Success:    r.Success,
		ErrorText:  strings.Join(r.Errors, "; "),
		StartedAt:  r.StartedAt,
		FinishedAt: r.FinishedAt,
	}
}

// AuditRepository persists the append-only sync audit trail
type AuditRepository interface {
	Append(ctx context.Context, entry *AuditEntry) error

	// LatestSuccessful returns the most recent successful entry for the
	// entity type, or shared.ErrNotFound when no run has succeeded yet
	LatestSuccessful(ctx context.Context, entity EntityType) (*AuditEntry, error)

	List(ctx context.Context, filter shared.Filter) ([]AuditEntry, int64, error)
}
