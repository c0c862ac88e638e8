package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/edusync/backend/internal/domain/records"
	"github.com/edusync/backend/internal/domain/shared"
	syncdomain "github.com/edusync/backend/internal/domain/sync"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// activeScope is the single place the soft-delete predicate lives. Every
// read path except partner-key lookups goes through it; lookups by partner
// identifier must see deleted rows so a record can be reactivated.
func activeScope(db *gorm.DB) *gorm.DB {
	return db.Where("deleted_at IS NULL")
}

// GormSyncedRepository implements records.SyncedRepository for one
// partner-mirrored record type
type GormSyncedRepository[T any] struct {
	db         *gorm.DB
	sortFields map[string]bool
}

// NewGormSyncedRepository creates a repository over the given connection.
// sortFields whitelists the columns list queries may order by.
func NewGormSyncedRepository[T any](db *gorm.DB, sortFields map[string]bool) *GormSyncedRepository[T] {
	if sortFields == nil {
		sortFields = CommonSortFields
	}
	return &GormSyncedRepository[T]{db: db, sortFields: sortFields}
}

// conn returns the connection for this call, joining an in-flight
// transaction when the context carries one
func (r *GormSyncedRepository[T]) conn(ctx context.Context) *gorm.DB {
	return dbFor(ctx, r.db).WithContext(ctx)
}

// Create inserts a new record
func (r *GormSyncedRepository[T]) Create(ctx context.Context, entity *T) error {
	if err := r.conn(ctx).Create(entity).Error; err != nil {
		return fmt.Errorf("%w: %v", syncdomain.ErrPersistence, err)
	}
	return nil
}

// Update persists all fields of an existing record
func (r *GormSyncedRepository[T]) Update(ctx context.Context, entity *T) error {
	if err := r.conn(ctx).Save(entity).Error; err != nil {
		return fmt.Errorf("%w: %v", syncdomain.ErrPersistence, err)
	}
	return nil
}

// FindByPartnerID finds a record by its partner identifier, soft-deleted
// rows included
func (r *GormSyncedRepository[T]) FindByPartnerID(ctx context.Context, idPartner uuid.UUID) (*T, error) {
	var entity T
	if err := r.conn(ctx).Where("id_partner = ?", idPartner).First(&entity).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, fmt.Errorf("%w: %v", syncdomain.ErrPersistence, err)
	}
	return &entity, nil
}

// DeactivateAbsent soft-deletes all active records whose partner identifier
// is not in present, in one statement
func (r *GormSyncedRepository[T]) DeactivateAbsent(ctx context.Context, present []uuid.UUID, at time.Time) (int64, error) {
	query := activeScope(r.conn(ctx).Model(new(T)))
	if len(present) > 0 {
		query = query.Where("id_partner NOT IN ?", present)
	}
	res := query.Updates(map[string]interface{}{
		"deleted_at": at,
		"updated_at": at,
	})
	if res.Error != nil {
		return 0, fmt.Errorf("%w: %v", syncdomain.ErrPersistence, res.Error)
	}
	return res.RowsAffected, nil
}

// FindActiveByID finds an active record by its local identity
func (r *GormSyncedRepository[T]) FindActiveByID(ctx context.Context, id uuid.UUID) (*T, error) {
	var entity T
	if err := activeScope(r.conn(ctx)).Where("id = ?", id).First(&entity).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, fmt.Errorf("%w: %v", syncdomain.ErrPersistence, err)
	}
	return &entity, nil
}

// ListActive lists active records matching the filter
func (r *GormSyncedRepository[T]) ListActive(ctx context.Context, filter shared.Filter) ([]T, error) {
	var entities []T
	query := r.applyFilter(activeScope(r.conn(ctx).Model(new(T))), filter)
	if err := query.Find(&entities).Error; err != nil {
		return nil, fmt.Errorf("%w: %v", syncdomain.ErrPersistence, err)
	}
	return entities, nil
}

// CountActive counts active records matching the filter
func (r *GormSyncedRepository[T]) CountActive(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	if err := activeScope(r.conn(ctx).Model(new(T))).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("%w: %v", syncdomain.ErrPersistence, err)
	}
	return count, nil
}

// applyFilter applies ordering and pagination to the query
func (r *GormSyncedRepository[T]) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	orderBy := ValidateSortField(filter.OrderBy, r.sortFields, "created_at")
	query = query.Order(orderBy + " " + ValidateSortOrder(filter.OrderDir))

	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}
	return query
}

// ---------------------------------------------------------------------------
// Named repositories
// ---------------------------------------------------------------------------

// GormCourseRepository persists courses
type GormCourseRepository struct {
	*GormSyncedRepository[records.Course]
}

// NewGormCourseRepository creates a new GormCourseRepository
func NewGormCourseRepository(db *gorm.DB) *GormCourseRepository {
	return &GormCourseRepository{NewGormSyncedRepository[records.Course](db, RecordSortFields)}
}

// GormClassRepository persists classes
type GormClassRepository struct {
	*GormSyncedRepository[records.Class]
}

// NewGormClassRepository creates a new GormClassRepository
func NewGormClassRepository(db *gorm.DB) *GormClassRepository {
	return &GormClassRepository{NewGormSyncedRepository[records.Class](db, RecordSortFields)}
}

// GormStudentRepository persists students
type GormStudentRepository struct {
	*GormSyncedRepository[records.Student]
}

// NewGormStudentRepository creates a new GormStudentRepository
func NewGormStudentRepository(db *gorm.DB) *GormStudentRepository {
	return &GormStudentRepository{NewGormSyncedRepository[records.Student](db, StudentSortFields)}
}

// GormEnrollmentRepository persists enrollments
type GormEnrollmentRepository struct {
	*GormSyncedRepository[records.Enrollment]
}

// NewGormEnrollmentRepository creates a new GormEnrollmentRepository
func NewGormEnrollmentRepository(db *gorm.DB) *GormEnrollmentRepository {
	return &GormEnrollmentRepository{NewGormSyncedRepository[records.Enrollment](db, EnrollmentSortFields)}
}

// ListActiveByClass returns active enrollments for one class
func (r *GormEnrollmentRepository) ListActiveByClass(ctx context.Context, classID uuid.UUID, filter shared.Filter) ([]records.Enrollment, error) {
	var enrollments []records.Enrollment
	query := activeScope(r.conn(ctx).Model(&records.Enrollment{})).Where("class_id = ?", classID)
	query = r.applyFilter(query, filter)
	if err := query.Find(&enrollments).Error; err != nil {
		return nil, fmt.Errorf("%w: %v", syncdomain.ErrPersistence, err)
	}
	return enrollments, nil
}

// Compile-time interface checks
var (
	_ records.CourseRepository     = (*GormCourseRepository)(nil)
	_ records.ClassRepository      = (*GormClassRepository)(nil)
	_ records.StudentRepository    = (*GormStudentRepository)(nil)
	_ records.EnrollmentRepository = (*GormEnrollmentRepository)(nil)
)
