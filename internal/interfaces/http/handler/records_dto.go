package handler

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/edusync/backend/internal/domain/records"
)

// CourseResponse represents a course in API responses
// @name HandlerCourseResponse
type CourseResponse struct {
	ID            uuid.UUID `json:"id"`
	IDPartner     uuid.UUID `json:"id_partner"`
	Code          string    `json:"code"`
	Name          string    `json:"name"`
	Description   string    `json:"description,omitempty"`
	DurationHours string    `json:"duration_hours,omitempty"`
	Modality      string    `json:"modality,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func toCourseResponse(c *records.Course) CourseResponse {
	return CourseResponse{
		ID:            c.ID,
		IDPartner:     c.IDPartner,
		Code:          c.Code,
		Name:          c.Name,
		Description:   c.Description,
		DurationHours: c.DurationHours,
		Modality:      string(c.Modality),
		CreatedAt:     c.CreatedAt,
		UpdatedAt:     c.UpdatedAt,
	}
}

func toCourseResponses(courses []records.Course) []CourseResponse {
	out := make([]CourseResponse, 0, len(courses))
	for i := range courses {
		out = append(out, toCourseResponse(&courses[i]))
	}
	return out
}

// ClassResponse represents a class in API responses
// @name HandlerClassResponse
type ClassResponse struct {
	ID        uuid.UUID  `json:"id"`
	IDPartner uuid.UUID  `json:"id_partner"`
	CourseID  uuid.UUID  `json:"course_id"`
	Code      string     `json:"code"`
	Name      string     `json:"name"`
	Shift     string     `json:"shift,omitempty"`
	StartDate *time.Time `json:"start_date,omitempty"`
	EndDate   *time.Time `json:"end_date,omitempty"`
	Seats     int        `json:"seats"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

func toClassResponse(c *records.Class) ClassResponse {
	return ClassResponse{
		ID:        c.ID,
		IDPartner: c.IDPartner,
		CourseID:  c.CourseID,
		Code:      c.Code,
		Name:      c.Name,
		Shift:     string(c.Shift),
		StartDate: c.StartDate,
		EndDate:   c.EndDate,
		Seats:     c.Seats,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

func toClassResponses(classes []records.Class) []ClassResponse {
	out := make([]ClassResponse, 0, len(classes))
	for i := range classes {
		out = append(out, toClassResponse(&classes[i]))
	}
	return out
}

// StudentResponse represents a student in API responses
// @name HandlerStudentResponse
type StudentResponse struct {
	ID                 uuid.UUID  `json:"id"`
	IDPartner          uuid.UUID  `json:"id_partner"`
	RegistrationNumber string     `json:"registration_number"`
	FullName           string     `json:"full_name"`
	CPF                string     `json:"cpf,omitempty"`
	Email              string     `json:"email,omitempty"`
	Phone              string     `json:"phone,omitempty"`
	BirthDate          *time.Time `json:"birth_date,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

func toStudentResponse(s *records.Student) StudentResponse {
	return StudentResponse{
		ID:                 s.ID,
		IDPartner:          s.IDPartner,
		RegistrationNumber: s.RegistrationNumber,
		FullName:           s.FullName,
		CPF:                s.CPF,
		Email:              s.Email,
		Phone:              s.Phone,
		BirthDate:          s.BirthDate,
		CreatedAt:          s.CreatedAt,
		UpdatedAt:          s.UpdatedAt,
	}
}

func toStudentResponses(students []records.Student) []StudentResponse {
	out := make([]StudentResponse, 0, len(students))
	for i := range students {
		out = append(out, toStudentResponse(&students[i]))
	}
	return out
}

// EnrollmentResponse represents an enrollment in API responses
// @name HandlerEnrollmentResponse
type EnrollmentResponse struct {
	ID            uuid.UUID       `json:"id"`
	IDPartner     uuid.UUID       `json:"id_partner"`
	StudentID     uuid.UUID       `json:"student_id"`
	ClassID       uuid.UUID       `json:"class_id"`
	Status        string          `json:"status"`
	EnrolledAt    *time.Time      `json:"enrolled_at,omitempty"`
	Grade         decimal.Decimal `json:"grade"`
	AttendancePct decimal.Decimal `json:"attendance_pct"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

func toEnrollmentResponse(e *records.Enrollment) EnrollmentResponse {
	return EnrollmentResponse{
		ID:            e.ID,
		IDPartner:     e.IDPartner,
		StudentID:     e.StudentID,
		ClassID:       e.ClassID,
		Status:        string(e.Status),
		EnrolledAt:    e.EnrolledAt,
		Grade:         e.Grade,
		AttendancePct: e.AttendancePct,
		CreatedAt:     e.CreatedAt,
		UpdatedAt:     e.UpdatedAt,
	}
}

func toEnrollmentResponses(enrollments []records.Enrollment) []EnrollmentResponse {
	out := make([]EnrollmentResponse, 0, len(enrollments))
	for i := range enrollments {
		out = append(out, toEnrollmentResponse(&enrollments[i]))
	}
	return out
}
