package records

import (
	"time"

	"github.com/google/uuid"
)

// Student is a learner record mirrored from the partner registry
type Student struct {
	PartnerEntity
	RegistrationNumber string `gorm:"type:varchar(50);not null;index"`
	FullName           string `gorm:"type:varchar(200);not null"`
	CPF                string `gorm:"type:varchar(14);index"`
	Email              string `gorm:"type:varchar(200)"`
	Phone              string `gorm:"type:varchar(50)"`
	BirthDate          *time.Time
}

// TableName returns the table name for GORM
func (Student) TableName() string {
	return "students"
}

// NewStudent creates a student from partner data
func NewStudent(idPartner uuid.UUID, registrationNumber, fullName string) *Student {
	return &Student{
		PartnerEntity:      NewPartnerEntity(idPartner),
		RegistrationNumber: registrationNumber,
		FullName:           fullName,
	}
}

// Merge copies differing business fields from the incoming record and
// reports whether anything changed
func (s *Student) Merge(in *Student) bool {
	changed := false
	if s.RegistrationNumber != in.RegistrationNumber {
		s.RegistrationNumber = in.RegistrationNumber
		changed = true
	}
	if s.FullName != in.FullName {
		s.FullName = in.FullName
		changed = true
	}
	if s.CPF != in.CPF {
		s.CPF = in.CPF
		changed = true
	}
	if s.Email != in.Email {
		s.Email = in.Email
		changed = true
	}
	if s.Phone != in.Phone {
		s.Phone = in.Phone
		changed = true
	}
	if !equalTime(s.BirthDate, in.BirthDate) {
		s.BirthDate = in.BirthDate
		changed = true
	}
	return changed
}
