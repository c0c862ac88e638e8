package sync

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/edusync/backend/internal/domain/shared"
	syncdomain "github.com/edusync/backend/internal/domain/sync"
)

// FreshnessCache caches the freshness snapshot per entity type so the
// read-side API does not hit the audit table on every request
type FreshnessCache interface {
	GetFreshness(ctx context.Context, entity syncdomain.EntityType) (*Freshness, error)
	SetFreshness(ctx context.Context, entity syncdomain.EntityType, f *Freshness) error
}

// Freshness describes how current the local mirror of one entity type is
type Freshness struct {
	Entity     syncdomain.EntityType `json:"entity"`
	LastSyncAt time.Time             `json:"last_sync_at"`
	Processed  int                   `json:"processed"`
	Inserted   int                   `json:"inserted"`
	Updated    int                   `json:"updated"`
	Deleted    int                   `json:"deleted"`
}

// FreshnessService answers "how fresh is the local data" from the audit
// trail, with a cache in front
type FreshnessService struct {
	audit  syncdomain.AuditRepository
	cache  FreshnessCache
	logger *zap.Logger
}

// NewFreshnessService creates a new FreshnessService. cache may be nil.
func NewFreshnessService(audit syncdomain.AuditRepository, cache FreshnessCache, logger *zap.Logger) *FreshnessService {
	return &FreshnessService{audit: audit, cache: cache, logger: logger}
}

// LastSuccessfulSync returns the freshness snapshot for the entity type,
// or (nil, nil) when no sync has succeeded yet
func (s *FreshnessService) LastSuccessfulSync(ctx context.Context, entity syncdomain.EntityType) (*Freshness, error) {
	if s.cache != nil {
		if f, err := s.cache.GetFreshness(ctx, entity); err == nil && f != nil {
			return f, nil
		}
	}

	entry, err := s.audit.LatestSuccessful(ctx, entity)
	if errors.Is(err, shared.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	f := &Freshness{
		Entity:     entry.Entity,
		LastSyncAt: entry.FinishedAt,
		Processed:  entry.Processed,
		Inserted:   entry.Inserted,
		Updated:    entry.Updated,
		Deleted:    entry.Deleted,
	}
	if s.cache != nil {
		if err := s.cache.SetFreshness(ctx, entity, f); err != nil {
			s.logger.Warn("freshness cache write failed",
				zap.String("entity", string(entity)),
				zap.Error(err),
			)
		}
	}
	return f, nil
}
