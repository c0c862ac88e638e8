package sync

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RemoteCourse is a course as reported by the partner, immutable once fetched
type RemoteCourse struct {
	IDPartner     uuid.UUID
	Code          string
	Name          string
	Description   string
	DurationHours string
	Modality      string
}

// RemoteClass is a class as reported by the partner. It references its
// course by partner identifier; the local foreign key is resolved during
// reconciliation.
type RemoteClass struct {
	IDPartner       uuid.UUID
	CourseIDPartner uuid.UUID
	Code            string
	Name            string
	Shift           string
	StartDate       *time.Time
	EndDate         *time.Time
	Seats           int
}

// RemoteStudent is a student as reported by the partner
type RemoteStudent struct {
	IDPartner          uuid.UUID
	RegistrationNumber string
	FullName           string
	CPF                string
	Email              string
	Phone              string
	BirthDate          *time.Time
}

// RemoteEnrollment is an enrollment as reported by the partner
type RemoteEnrollment struct {
	IDPartner        uuid.UUID
	StudentIDPartner uuid.UUID
	ClassIDPartner   uuid.UUID
	Status           string
	EnrolledAt       *time.Time
	Grade            decimal.Decimal
	AttendancePct    decimal.Decimal
}

// PartnerGateway fetches authoritative record collections from the partner
// API. Implementations handle authentication, paging and error translation;
// callers treat each call as returning the complete remote set for a full
// sync, or the date-bounded subset for range variants.
type PartnerGateway interface {
	FetchCourses(ctx context.Context) ([]RemoteCourse, error)
	FetchCoursesByDateRange(ctx context.Context, from, to time.Time) ([]RemoteCourse, error)

	FetchClasses(ctx context.Context) ([]RemoteClass, error)
	FetchClassesByDateRange(ctx context.Context, from, to time.Time) ([]RemoteClass, error)

	FetchStudents(ctx context.Context) ([]RemoteStudent, error)
	FetchStudentsByDateRange(ctx context.Context, from, to time.Time) ([]RemoteStudent, error)

	FetchEnrollments(ctx context.Context) ([]RemoteEnrollment, error)
	FetchEnrollmentsByDateRange(ctx context.Context, from, to time.Time) ([]RemoteEnrollment, error)
}
