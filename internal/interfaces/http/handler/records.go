package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/edusync/backend/internal/domain/records"
	"github.com/edusync/backend/internal/domain/shared"
	"github.com/edusync/backend/internal/interfaces/http/dto"
)

// RecordsHandler exposes the read side of the synced academic records
type RecordsHandler struct {
	BaseHandler
	courses     records.CourseRepository
	classes     records.ClassRepository
	students    records.StudentRepository
	enrollments records.EnrollmentRepository
}

// NewRecordsHandler creates a new RecordsHandler
func NewRecordsHandler(
	courses records.CourseRepository,
	classes records.ClassRepository,
	students records.StudentRepository,
	enrollments records.EnrollmentRepository,
) *RecordsHandler {
	return &RecordsHandler{
		courses:     courses,
		classes:     classes,
		students:    students,
		enrollments: enrollments,
	}
}

// bindListFilter binds pagination query params into a repository filter
func (h *RecordsHandler) bindListFilter(c *gin.Context) (shared.Filter, bool) {
	req := dto.DefaultListRequest()
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, "invalid pagination parameters")
		return shared.Filter{}, false
	}
	return shared.Filter{
		Page:     req.Page,
		PageSize: req.PageSize,
		OrderBy:  req.OrderBy,
		OrderDir: req.OrderDir,
		Search:   req.Search,
	}, true
}

// bindID binds and parses the :id path parameter
func (h *RecordsHandler) bindID(c *gin.Context) (uuid.UUID, bool) {
	var req dto.IDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		h.BadRequest(c, "invalid id")
		return uuid.Nil, false
	}
	id, err := uuid.Parse(req.ID)
	if err != nil {
		h.BadRequest(c, "invalid id")
		return uuid.Nil, false
	}
	return id, true
}

// ListCourses godoc
// @ID           listCourses
// @Summary      List courses
// @Description  Returns active courses with pagination
// @Tags         records
// @Produce      json
// @Param        page      query int    false "Page number"
// @Param        page_size query int    false "Page size"
// @Param        search    query string false "Search by code or name"
// @Success      200 {object} APIResponse[[]CourseResponse]
// @Router       /courses [get]
func (h *RecordsHandler) ListCourses(c *gin.Context) {
	filter, ok := h.bindListFilter(c)
	if !ok {
		return
	}

	items, err := h.courses.ListActive(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	total, err := h.courses.CountActive(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, toCourseResponses(items), total, filter.Page, filter.PageSize)
}

// GetCourse godoc
// @ID           getCourse
// @Summary      Get a course
// @Tags         records
// @Produce      json
// @Param        id path string true "Course ID"
// @Success      200 {object} APIResponse[CourseResponse]
// @Failure      404 {object} ErrorResponse
// @Router       /courses/{id} [get]
func (h *RecordsHandler) GetCourse(c *gin.Context) {
	id, ok := h.bindID(c)
	if !ok {
		return
	}

	course, err := h.courses.FindActiveByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toCourseResponse(course))
}

// ListClasses godoc
// @ID           listClasses
// @Summary      List classes
// @Description  Returns active classes with pagination
// @Tags         records
// @Produce      json
// @Param        page      query int    false "Page number"
// @Param        page_size query int    false "Page size"
// @Param        search    query string false "Search by code or name"
// @Success      200 {object} APIResponse[[]ClassResponse]
// @Router       /classes [get]
func (h *RecordsHandler) ListClasses(c *gin.Context) {
	filter, ok := h.bindListFilter(c)
	if !ok {
		return
	}

	items, err := h.classes.ListActive(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	total, err := h.classes.CountActive(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, toClassResponses(items), total, filter.Page, filter.PageSize)
}

// GetClass godoc
// @ID           getClass
// @Summary      Get a class
// @Tags         records
// @Produce      json
// @Param        id path string true "Class ID"
// @Success      200 {object} APIResponse[ClassResponse]
// @Failure      404 {object} ErrorResponse
// @Router       /classes/{id} [get]
func (h *RecordsHandler) GetClass(c *gin.Context) {
	id, ok := h.bindID(c)
	if !ok {
		return
	}

	class, err := h.classes.FindActiveByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toClassResponse(class))
}

// ListClassEnrollments godoc
// @ID           listClassEnrollments
// @Summary      List enrollments of a class
// @Tags         records
// @Produce      json
// @Param        id        path  string true  "Class ID"
// @Param        page      query int    false "Page number"
// @Param        page_size query int    false "Page size"
// @Success      200 {object} APIResponse[[]EnrollmentResponse]
// @Failure      404 {object} ErrorResponse
// @Router       /classes/{id}/enrollments [get]
func (h *RecordsHandler) ListClassEnrollments(c *gin.Context) {
	id, ok := h.bindID(c)
	if !ok {
		return
	}
	filter, ok := h.bindListFilter(c)
	if !ok {
		return
	}

	// 404 when the class itself is unknown or deactivated
	if _, err := h.classes.FindActiveByID(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}

	items, err := h.enrollments.ListActiveByClass(c.Request.Context(), id, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toEnrollmentResponses(items))
}

// ListStudents godoc
// @ID           listStudents
// @Summary      List students
// @Description  Returns active students with pagination
// @Tags         records
// @Produce      json
// @Param        page      query int    false "Page number"
// @Param        page_size query int    false "Page size"
// @Param        search    query string false "Search by name or registration number"
// @Success      200 {object} APIResponse[[]StudentResponse]
// @Router       /students [get]
func (h *RecordsHandler) ListStudents(c *gin.Context) {
	filter, ok := h.bindListFilter(c)
	if !ok {
		return
	}

	items, err := h.students.ListActive(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	total, err := h.students.CountActive(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, toStudentResponses(items), total, filter.Page, filter.PageSize)
}

// GetStudent godoc
// @ID           getStudent
// @Summary      Get a student
// @Tags         records
// @Produce      json
// @Param        id path string true "Student ID"
// @Success      200 {object} APIResponse[StudentResponse]
// @Failure      404 {object} ErrorResponse
// @Router       /students/{id} [get]
func (h *RecordsHandler) GetStudent(c *gin.Context) {
	id, ok := h.bindID(c)
	if !ok {
		return
	}

	student, err := h.students.FindActiveByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toStudentResponse(student))
}

// ListEnrollments godoc
// @ID           listEnrollments
// @Summary      List enrollments
// @Description  Returns active enrollments with pagination
// @Tags         records
// @Produce      json
// @Param        page      query int false "Page number"
// @Param        page_size query int false "Page size"
// @Success      200 {object} APIResponse[[]EnrollmentResponse]
// @Router       /enrollments [get]
func (h *RecordsHandler) ListEnrollments(c *gin.Context) {
	filter, ok := h.bindListFilter(c)
	if !ok {
		return
	}

	items, err := h.enrollments.ListActive(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	total, err := h.enrollments.CountActive(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, toEnrollmentResponses(items), total, filter.Page, filter.PageSize)
}

// GetEnrollment godoc
// @ID           getEnrollment
// @Summary      Get an enrollment
// @Tags         records
// @Produce      json
// @Param        id path string true "Enrollment ID"
// @Success      200 {object} APIResponse[EnrollmentResponse]
// @Failure      404 {object} ErrorResponse
// @Router       /enrollments/{id} [get]
func (h *RecordsHandler) GetEnrollment(c *gin.Context) {
	id, ok := h.bindID(c)
	if !ok {
		return
	}

	enrollment, err := h.enrollments.FindActiveByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toEnrollmentResponse(enrollment))
}
