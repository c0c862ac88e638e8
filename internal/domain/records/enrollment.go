package records

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// EnrollmentStatus represents the lifecycle state of an enrollment
type EnrollmentStatus string

const (
	EnrollmentStatusEnrolled  EnrollmentStatus = "enrolled"
	EnrollmentStatusCompleted EnrollmentStatus = "completed"
	EnrollmentStatusDropped   EnrollmentStatus = "dropped"
	EnrollmentStatusCancelled EnrollmentStatus = "cancelled"
)

// Enrollment links a student to a class, carrying outcome data
type Enrollment struct {
	PartnerEntity
	StudentID     uuid.UUID        `gorm:"type:uuid;not null;index"`
	ClassID       uuid.UUID        `gorm:"type:uuid;not null;index"`
	Status        EnrollmentStatus `gorm:"type:varchar(20);not null;default:'enrolled'"`
	EnrolledAt    *time.Time
	Grade         decimal.Decimal `gorm:"type:decimal(5,2);not null;default:0"`
	AttendancePct decimal.Decimal `gorm:"type:decimal(5,2);not null;default:0"`
}

// TableName returns the table name for GORM
func (Enrollment) TableName() string {
	return "enrollments"
}

// NewEnrollment creates an enrollment from partner data, bound to local records
func NewEnrollment(idPartner, studentID, classID uuid.UUID) *Enrollment {
	return &Enrollment{
		PartnerEntity: NewPartnerEntity(idPartner),
		StudentID:     studentID,
		ClassID:       classID,
		Status:        EnrollmentStatusEnrolled,
	}
}

// Merge copies differing business fields from the incoming record and
// reports whether anything changed
func (e *Enrollment) Merge(in *Enrollment) bool {
	changed := false
	if e.StudentID != in.StudentID {
		e.StudentID = in.StudentID
		changed = true
	}
	if e.ClassID != in.ClassID {
		e.ClassID = in.ClassID
		changed = true
	}
	if e.Status != in.Status {
		e.Status = in.Status
		changed = true
	}
	if !equalTime(e.EnrolledAt, in.EnrolledAt) {
		e.EnrolledAt = in.EnrolledAt
		changed = true
	}
	if !e.Grade.Equal(in.Grade) {
		e.Grade = in.Grade
		changed = true
	}
	if !e.AttendancePct.Equal(in.AttendancePct) {
		e.AttendancePct = in.AttendancePct
		changed = true
	}
	return changed
}
