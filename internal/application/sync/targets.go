package sync

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/edusync/backend/internal/domain/records"
	"github.com/edusync/backend/internal/domain/shared"
	syncdomain "github.com/edusync/backend/internal/domain/sync"
)

// upsert is the shared apply step: look the record up by partner key,
// insert when absent, merge and reactivate when present. merge must copy
// differing fields into the local record and report whether it changed.
func upsert[T any, PT interface {
	*T
	IsActive() bool
	Reactivate()
}](
	ctx context.Context,
	repo records.SyncedRepository[T],
	idPartner uuid.UUID,
	incoming PT,
	merge func(local PT, incoming PT) bool,
) (Outcome, error) {
	local, err := repo.FindByPartnerID(ctx, idPartner)
	if errors.Is(err, shared.ErrNotFound) {
		if err := repo.Create(ctx, (*T)(incoming)); err != nil {
			return OutcomeUnchanged, err
		}
		return OutcomeInserted, nil
	}
	if err != nil {
		return OutcomeUnchanged, err
	}

	changed := merge(PT(local), incoming)
	if !PT(local).IsActive() {
		PT(local).Reactivate()
		changed = true
	}
	if !changed {
		return OutcomeUnchanged, nil
	}
	if err := repo.Update(ctx, local); err != nil {
		return OutcomeUnchanged, err
	}
	return OutcomeUpdated, nil
}

// ---------------------------------------------------------------------------
// Course
// ---------------------------------------------------------------------------

type courseTarget struct {
	gateway syncdomain.PartnerGateway
	courses records.CourseRepository
}

func (t *courseTarget) Entity() syncdomain.EntityType { return syncdomain.EntityCourse }

func (t *courseTarget) Fetch(ctx context.Context) ([]syncdomain.RemoteCourse, error) {
	return t.gateway.FetchCourses(ctx)
}

func (t *courseTarget) FetchRange(ctx context.Context, from, to time.Time) ([]syncdomain.RemoteCourse, error) {
	return t.gateway.FetchCoursesByDateRange(ctx, from, to)
}

func (t *courseTarget) Key(r syncdomain.RemoteCourse) uuid.UUID { return r.IDPartner }

func (t *courseTarget) Apply(ctx context.Context, r syncdomain.RemoteCourse) (Outcome, error) {
	if r.IDPartner == uuid.Nil {
		return OutcomeUnchanged, errors.New("missing partner identifier")
	}
	if r.Name == "" {
		return OutcomeUnchanged, errors.New("missing name")
	}

	incoming := records.NewCourse(r.IDPartner, r.Code, r.Name)
	incoming.Description = r.Description
	incoming.DurationHours = r.DurationHours
	incoming.Modality = records.CourseModality(r.Modality)

	return upsert(ctx, t.courses, r.IDPartner, incoming, func(local, in *records.Course) bool {
		return local.Merge(in)
	})
}

func (t *courseTarget) DeactivateAbsent(ctx context.Context, present []uuid.UUID, at time.Time) (int64, error) {
	return t.courses.DeactivateAbsent(ctx, present, at)
}

// ---------------------------------------------------------------------------
// Class
// ---------------------------------------------------------------------------

type classTarget struct {
	gateway syncdomain.PartnerGateway
	classes records.ClassRepository
	courses records.CourseRepository
}

func (t *classTarget) Entity() syncdomain.EntityType { return syncdomain.EntityClass }

func (t *classTarget) Fetch(ctx context.Context) ([]syncdomain.RemoteClass, error) {
	return t.gateway.FetchClasses(ctx)
}

func (t *classTarget) FetchRange(ctx context.Context, from, to time.Time) ([]syncdomain.RemoteClass, error) {
	return t.gateway.FetchClassesByDateRange(ctx, from, to)
}

func (t *classTarget) Key(r syncdomain.RemoteClass) uuid.UUID { return r.IDPartner }

func (t *classTarget) Apply(ctx context.Context, r syncdomain.RemoteClass) (Outcome, error) {
	if r.IDPartner == uuid.Nil {
		return OutcomeUnchanged, errors.New("missing partner identifier")
	}
	if r.CourseIDPartner == uuid.Nil {
		return OutcomeUnchanged, errors.New("missing course reference")
	}

	// Resolve the course before writing anything: a missing dependency is
	// a per-record error, not a broken transaction
	course, err := t.courses.FindByPartnerID(ctx, r.CourseIDPartner)
	if errors.Is(err, shared.ErrNotFound) {
		return OutcomeUnchanged, fmt.Errorf("course %s not synced", r.CourseIDPartner)
	}
	if err != nil {
		return OutcomeUnchanged, err
	}

	incoming := records.NewClass(r.IDPartner, course.ID, r.Code, r.Name)
	incoming.Shift = records.ClassShift(r.Shift)
	incoming.StartDate = r.StartDate
	incoming.EndDate = r.EndDate
	incoming.Seats = r.Seats

	return upsert(ctx, t.classes, r.IDPartner, incoming, func(local, in *records.Class) bool {
		return local.Merge(in)
	})
}

func (t *classTarget) DeactivateAbsent(ctx context.Context, present []uuid.UUID, at time.Time) (int64, error) {
	return t.classes.DeactivateAbsent(ctx, present, at)
}

// ---------------------------------------------------------------------------
// Student
// ---------------------------------------------------------------------------

type studentTarget struct {
	gateway  syncdomain.PartnerGateway
	students records.StudentRepository
}

func (t *studentTarget) Entity() syncdomain.EntityType { return syncdomain.EntityStudent }

func (t *studentTarget) Fetch(ctx context.Context) ([]syncdomain.RemoteStudent, error) {
	return t.gateway.FetchStudents(ctx)
}

func (t *studentTarget) FetchRange(ctx context.Context, from, to time.Time) ([]syncdomain.RemoteStudent, error) {
	return t.gateway.FetchStudentsByDateRange(ctx, from, to)
}

func (t *studentTarget) Key(r syncdomain.RemoteStudent) uuid.UUID { return r.IDPartner }

func (t *studentTarget) Apply(ctx context.Context, r syncdomain.RemoteStudent) (Outcome, error) {
	if r.IDPartner == uuid.Nil {
		return OutcomeUnchanged, errors.New("missing partner identifier")
	}
	if r.FullName == "" {
		return OutcomeUnchanged, errors.New("missing full name")
	}

	incoming := records.NewStudent(r.IDPartner, r.RegistrationNumber, r.FullName)
	incoming.CPF = r.CPF
	incoming.Email = r.Email
	incoming.Phone = r.Phone
	incoming.BirthDate = r.BirthDate

	return upsert(ctx, t.students, r.IDPartner, incoming, func(local, in *records.Student) bool {
		return local.Merge(in)
	})
}

func (t *studentTarget) DeactivateAbsent(ctx context.Context, present []uuid.UUID, at time.Time) (int64, error) {
	return t.students.DeactivateAbsent(ctx, present, at)
}

// ---------------------------------------------------------------------------
// Enrollment
// ---------------------------------------------------------------------------

type enrollmentTarget struct {
	gateway     syncdomain.PartnerGateway
	enrollments records.EnrollmentRepository
	students    records.StudentRepository
	classes     records.ClassRepository
}

func (t *enrollmentTarget) Entity() syncdomain.EntityType { return syncdomain.EntityEnrollment }

func (t *enrollmentTarget) Fetch(ctx context.Context) ([]syncdomain.RemoteEnrollment, error) {
	return t.gateway.FetchEnrollments(ctx)
}

func (t *enrollmentTarget) FetchRange(ctx context.Context, from, to time.Time) ([]syncdomain.RemoteEnrollment, error) {
	return t.gateway.FetchEnrollmentsByDateRange(ctx, from, to)
}

func (t *enrollmentTarget) Key(r syncdomain.RemoteEnrollment) uuid.UUID { return r.IDPartner }

func (t *enrollmentTarget) Apply(ctx context.Context, r syncdomain.RemoteEnrollment) (Outcome, error) {
	if r.IDPartner == uuid.Nil {
		return OutcomeUnchanged, errors.New("missing partner identifier")
	}
	if r.StudentIDPartner == uuid.Nil {
		return OutcomeUnchanged, errors.New("missing student reference")
	}
	if r.ClassIDPartner == uuid.Nil {
		return OutcomeUnchanged, errors.New("missing class reference")
	}

	student, err := t.students.FindByPartnerID(ctx, r.StudentIDPartner)
	if errors.Is(err, shared.ErrNotFound) {
		return OutcomeUnchanged, fmt.Errorf("student %s not synced", r.StudentIDPartner)
	}
	if err != nil {
		return OutcomeUnchanged, err
	}

	class, err := t.classes.FindByPartnerID(ctx, r.ClassIDPartner)
	if errors.Is(err, shared.ErrNotFound) {
		return OutcomeUnchanged, fmt.Errorf("class %s not synced", r.ClassIDPartner)
	}
	if err != nil {
		return OutcomeUnchanged, err
	}

	incoming := records.NewEnrollment(r.IDPartner, student.ID, class.ID)
	if r.Status != "" {
		incoming.Status = records.EnrollmentStatus(r.Status)
	}
	incoming.EnrolledAt = r.EnrolledAt
	incoming.Grade = r.Grade
	incoming.AttendancePct = r.AttendancePct

	return upsert(ctx, t.enrollments, r.IDPartner, incoming, func(local, in *records.Enrollment) bool {
		return local.Merge(in)
	})
}

func (t *enrollmentTarget) DeactivateAbsent(ctx context.Context, present []uuid.UUID, at time.Time) (int64, error) {
	return t.enrollments.DeactivateAbsent(ctx, present, at)
}
