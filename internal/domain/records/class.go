package records

import (
	"time"

	"github.com/google/uuid"
)

// ClassShift represents the period of day a class runs
type ClassShift string

const (
	ShiftMorning   ClassShift = "morning"
	ShiftAfternoon ClassShift = "afternoon"
	ShiftEvening   ClassShift = "evening"
	ShiftFullTime  ClassShift = "full_time"
)

// Class is a scheduled offering of a course
type Class struct {
	PartnerEntity
	CourseID  uuid.UUID  `gorm:"type:uuid;not null;index"`
	Code      string     `gorm:"type:varchar(50);not null;index"`
	Name      string     `gorm:"type:varchar(200);not null"`
	Shift     ClassShift `gorm:"type:varchar(20)"`
	StartDate *time.Time
	EndDate   *time.Time
	Seats     int `gorm:"not null;default:0"`
}

// TableName returns the table name for GORM
func (Class) TableName() string {
	return "classes"
}

// NewClass creates a class from partner data, bound to a local course
func NewClass(idPartner, courseID uuid.UUID, code, name string) *Class {
	return &Class{
		PartnerEntity: NewPartnerEntity(idPartner),
		CourseID:      courseID,
		Code:          code,
		Name:          name,
	}
}

// Merge copies differing business fields from the incoming record and
// reports whether anything changed
func (c *Class) Merge(in *Class) bool {
	changed := false
	if c.CourseID != in.CourseID {
		c.CourseID = in.CourseID
		changed = true
	}
	if c.Code != in.Code {
		c.Code = in.Code
		changed = true
	}
	if c.Name != in.Name {
		c.Name = in.Name
		changed = true
	}
	if c.Shift != in.Shift {
		c.Shift = in.Shift
		changed = true
	}
	if !equalTime(c.StartDate, in.StartDate) {
		c.StartDate = in.StartDate
		changed = true
	}
	if !equalTime(c.EndDate, in.EndDate) {
		c.EndDate = in.EndDate
		changed = true
	}
	if c.Seats != in.Seats {
		c.Seats = in.Seats
		changed = true
	}
	return changed
}

func equalTime(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}
