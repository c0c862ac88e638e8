package cettpro

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	syncdomain "github.com/edusync/backend/internal/domain/sync"
)

// FlexString decodes a JSON value that the partner sends sometimes as a
// number and sometimes as a string, normalizing it to a string
type FlexString string

// UnmarshalJSON implements json.Unmarshaler
func (f *FlexString) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*f = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = FlexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("flex string: %w", err)
	}
	*f = FlexString(n.String())
	return nil
}

// NullableUUID decodes a UUID field that the partner sends as an empty
// string when absent
type NullableUUID uuid.UUID

// UnmarshalJSON implements json.Unmarshaler
func (n *NullableUUID) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*n = NullableUUID(uuid.Nil)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == "" {
		*n = NullableUUID(uuid.Nil)
		return nil
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return fmt.Errorf("nullable uuid: %w", err)
	}
	*n = NullableUUID(id)
	return nil
}

// UUID returns the decoded value, uuid.Nil when absent
func (n NullableUUID) UUID() uuid.UUID {
	return uuid.UUID(n)
}

// tokenResponse is the credential exchange payload
type tokenResponse struct {
	AccessToken string      `json:"access_token"`
	ExpiresIn   json.Number `json:"expires_in"`
	TokenType   string      `json:"token_type"`
}

// courseDTO is the wire shape of a CETTPRO course
type courseDTO struct {
	IDPartner     NullableUUID `json:"idPartner"`
	Code          string     `json:"code"`
	Name          string     `json:"name"`
	Description   string     `json:"description"`
	DurationHours FlexString `json:"durationHours"`
	Modality      string     `json:"modality"`
}

func (d courseDTO) toDomain() syncdomain.RemoteCourse {
	return syncdomain.RemoteCourse{
		IDPartner:     d.IDPartner.UUID(),
		Code:          d.Code,
		Name:          d.Name,
		Description:   d.Description,
		DurationHours: string(d.DurationHours),
		Modality:      d.Modality,
	}
}

// classDTO is the wire shape of a CETTPRO class
type classDTO struct {
	IDPartner NullableUUID `json:"idPartner"`
	IDCourse  NullableUUID `json:"idCourse"`
	Code      string       `json:"code"`
	Name      string       `json:"name"`
	Shift     string       `json:"shift"`
	StartDate *time.Time   `json:"startDate"`
	EndDate   *time.Time   `json:"endDate"`
	Seats     int          `json:"seats"`
}

func (d classDTO) toDomain() syncdomain.RemoteClass {
	return syncdomain.RemoteClass{
		IDPartner:       d.IDPartner.UUID(),
		CourseIDPartner: d.IDCourse.UUID(),
		Code:            d.Code,
		Name:            d.Name,
		Shift:           d.Shift,
		StartDate:       d.StartDate,
		EndDate:         d.EndDate,
		Seats:           d.Seats,
	}
}

// studentDTO is the wire shape of a CETTPRO student
type studentDTO struct {
	IDPartner          NullableUUID `json:"idPartner"`
	RegistrationNumber FlexString `json:"registrationNumber"`
	FullName           string     `json:"fullName"`
	CPF                string     `json:"cpf"`
	Email              string     `json:"email"`
	Phone              FlexString `json:"phone"`
	BirthDate          *time.Time `json:"birthDate"`
}

func (d studentDTO) toDomain() syncdomain.RemoteStudent {
	return syncdomain.RemoteStudent{
		IDPartner:          d.IDPartner.UUID(),
		RegistrationNumber: string(d.RegistrationNumber),
		FullName:           d.FullName,
		CPF:                d.CPF,
		Email:              d.Email,
		Phone:              string(d.Phone),
		BirthDate:          d.BirthDate,
	}
}

// enrollmentDTO is the wire shape of a CETTPRO enrollment
type enrollmentDTO struct {
	IDPartner     NullableUUID    `json:"idPartner"`
	IDStudent     NullableUUID    `json:"idStudent"`
	IDClass       NullableUUID    `json:"idClass"`
	Status        string          `json:"status"`
	EnrolledAt    *time.Time      `json:"enrolledAt"`
	Grade         decimal.Decimal `json:"grade"`
	AttendancePct decimal.Decimal `json:"attendancePercentage"`
}

func (d enrollmentDTO) toDomain() syncdomain.RemoteEnrollment {
	return syncdomain.RemoteEnrollment{
		IDPartner:        d.IDPartner.UUID(),
		StudentIDPartner: d.IDStudent.UUID(),
		ClassIDPartner:   d.IDClass.UUID(),
		Status:           d.Status,
		EnrolledAt:       d.EnrolledAt,
		Grade:            d.Grade,
		AttendancePct:    d.AttendancePct,
	}
}
