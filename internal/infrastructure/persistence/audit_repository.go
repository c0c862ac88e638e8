package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/edusync/backend/internal/domain/shared"
	syncdomain "github.com/edusync/backend/internal/domain/sync"
	"gorm.io/gorm"
)

// GormAuditRepository implements the append-only sync audit trail. There is
// deliberately no update or delete path.
type GormAuditRepository struct {
	db *gorm.DB
}

// NewGormAuditRepository creates a new GormAuditRepository
func NewGormAuditRepository(db *gorm.DB) *GormAuditRepository {
	return &GormAuditRepository{db: db}
}

// conn returns the connection for this call, joining an in-flight
// transaction when the context carries one
func (r *GormAuditRepository) conn(ctx context.Context) *gorm.DB {
	return dbFor(ctx, r.db).WithContext(ctx)
}

// Append writes one audit entry
func (r *GormAuditRepository) Append(ctx context.Context, entry *syncdomain.AuditEntry) error {
	if err := r.conn(ctx).Create(entry).Error; err != nil {
		return fmt.Errorf("%w: %v", syncdomain.ErrPersistence, err)
	}
	return nil
}

// LatestSuccessful returns the most recent successful entry for the entity type
func (r *GormAuditRepository) LatestSuccessful(ctx context.Context, entity syncdomain.EntityType) (*syncdomain.AuditEntry, error) {
	var entry syncdomain.AuditEntry
	if err := r.conn(ctx).
		Where("entity = ? AND success = ?", entity, true).
		Order("finished_at DESC").
		First(&entry).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, fmt.Errorf("%w: %v", syncdomain.ErrPersistence, err)
	}
	return &entry, nil
}

// List returns audit entries matching the filter, newest first, plus the
// total count
func (r *GormAuditRepository) List(ctx context.Context, filter shared.Filter) ([]syncdomain.AuditEntry, int64, error) {
	query := r.conn(ctx).Model(&syncdomain.AuditEntry{})
	if entity, ok := filter.Filters["entity"]; ok {
		query = query.Where("entity = ?", entity)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("%w: %v", syncdomain.ErrPersistence, err)
	}

	orderBy := ValidateSortField(filter.OrderBy, AuditSortFields, "started_at")
	query = query.Order(orderBy + " " + ValidateSortOrder(filter.OrderDir))
	if filter.Page > 0 && filter.PageSize > 0 {
		query = query.Offset((filter.Page - 1) * filter.PageSize).Limit(filter.PageSize)
	}

	var entries []syncdomain.AuditEntry
	if err := query.Find(&entries).Error; err != nil {
		return nil, 0, fmt.Errorf("%w: %v", syncdomain.ErrPersistence, err)
	}
	return entries, total, nil
}

// Compile-time interface check
var _ syncdomain.AuditRepository = (*GormAuditRepository)(nil)
