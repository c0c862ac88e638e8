package records

import (
	"github.com/google/uuid"
)

// CourseModality represents how a course is delivered
type CourseModality string

const (
	ModalityInPerson CourseModality = "in_person"
	ModalityOnline   CourseModality = "online"
	ModalityHybrid   CourseModality = "hybrid"
)

// Course is a training course mirrored from the partner catalog
type Course struct {
	PartnerEntity
	Code        string         `gorm:"type:varchar(50);not null;index"`
	Name        string         `gorm:"type:varchar(200);not null"`
	Description string         `gorm:"type:text"`
	// Partner sends duration as either a JSON number or a string; stored normalized
	DurationHours string         `gorm:"type:varchar(20)"`
	Modality      CourseModality `gorm:"type:varchar(30)"`
}

// TableName returns the table name for GORM
func (Course) TableName() string {
	return "courses"
}

// NewCourse creates a course from partner data
func NewCourse(idPartner uuid.UUID, code, name string) *Course {
	return &Course{
		PartnerEntity: NewPartnerEntity(idPartner),
		Code:          code,
		Name:          name,
	}
}

// Merge copies differing business fields from the incoming record and
// reports whether anything changed
func (c *Course) Merge(in *Course) bool {
	changed := false
	if c.Code != in.Code {
		c.Code = in.Code
		changed = true
	}
	if c.Name != in.Name {
		c.Name = in.Name
		changed = true
	}
	if c.Description != in.Description {
		c.Description = in.Description
		changed = true
	}
	if c.DurationHours != in.DurationHours {
		c.DurationHours = in.DurationHours
		changed = true
	}
	if c.Modality != in.Modality {
		c.Modality = in.Modality
		changed = true
	}
	return changed
}
