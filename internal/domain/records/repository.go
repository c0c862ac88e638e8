package records

import (
	"context"
	"time"

	"github.com/edusync/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// SyncedRepository is the persistence contract shared by all partner-mirrored
// record types. Lookups by partner identifier see soft-deleted rows (the sync
// pass needs them for reactivation); every other read is scoped to active rows
// by the implementation.
type SyncedRepository[T any] interface {
	Create(ctx context.Context, entity *T) error
	Update(ctx context.Context, entity *T) error

	// FindByPartnerID returns the record with the given partner identifier,
	// whether active or soft-deleted. Returns shared.ErrNotFound when absent.
	FindByPartnerID(ctx context.Context, idPartner uuid.UUID) (*T, error)

	// DeactivateAbsent soft-deletes every active record whose partner
	// identifier is not in present, returning how many rows were touched
	DeactivateAbsent(ctx context.Context, present []uuid.UUID, at time.Time) (int64, error)

	FindActiveByID(ctx context.Context, id uuid.UUID) (*T, error)
	ListActive(ctx context.Context, filter shared.Filter) ([]T, error)
	CountActive(ctx context.Context, filter shared.Filter) (int64, error)
}

// CourseRepository persists courses
type CourseRepository interface {
	SyncedRepository[Course]
}

// ClassRepository persists classes
type ClassRepository interface {
	SyncedRepository[Class]
}

// StudentRepository persists students
type StudentRepository interface {
	SyncedRepository[Student]
}

// EnrollmentRepository persists enrollments
type EnrollmentRepository interface {
	SyncedRepository[Enrollment]

	// ListActiveByClass returns active enrollments for one class
	ListActiveByClass(ctx context.Context, classID uuid.UUID, filter shared.Filter) ([]Enrollment, error)
}
