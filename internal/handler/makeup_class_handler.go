package handler

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/edu-ops-api/internal/dto"
	"github.com/noah-isme/edu-ops-api/internal/models"
	"github.com/noah-isme/edu-ops-api/pkg/export"
	"github.com/noah-isme/edu-ops-api/pkg/response"
)

type makeupClassService interface {
	List(ctx context.Context, kind models.MakeupKind, query dto.MakeupClassQuery) ([]models.MakeupClassDetail, *models.Pagination, error)
	Get(ctx context.Context, kind models.MakeupKind, id string) (*models.MakeupClass, error)
	Create(ctx context.Context, kind models.MakeupKind, req dto.CreateMakeupClassRequest) (*models.MakeupClass, error)
	Update(ctx context.Context, kind models.MakeupKind, id string, req dto.UpdateMakeupClassRequest) (*models.MakeupClass, error)
	Delete(ctx context.Context, kind models.MakeupKind, id string) error
	Complete(ctx context.Context, kind models.MakeupKind, id string) (*models.MakeupClass, error)
	Cancel(ctx context.Context, kind models.MakeupKind, id, reason string) (*models.MakeupClass, error)
	Export(ctx context.Context, kind models.MakeupKind, query dto.MakeupClassQuery) ([]byte, export.Format, string, error)
}

type assignmentService interface {
	Candidates(ctx context.Context, kind models.MakeupKind, id string) ([]models.CandidateReport, error)
	Assign(ctx context.Context, kind models.MakeupKind, id, teacherID string) (*models.MakeupClass, error)
	AutoAssign(ctx context.Context, kind models.MakeupKind, ids []string) (*models.AutoAssignResult, error)
	Reallocate(ctx context.Context, kind models.MakeupKind, id, reason string) (*models.MakeupClass, error)
}

// MakeupClassHandler serves one kind of make-up class (offset, supplementary or test)
// under its own route prefix.
type MakeupClassHandler struct {
	kind        models.MakeupKind
	makeups     makeupClassService
	assignments assignmentService
}

// NewMakeupClassHandler constructs a handler bound to kind.
func NewMakeupClassHandler(kind models.MakeupKind, makeups makeupClassService, assignments assignmentService) *MakeupClassHandler {
	return &MakeupClassHandler{kind: kind, makeups: makeups, assignments: assignments}
}

// Kind reports the make-up kind this handler serves.
func (h *MakeupClassHandler) Kind() models.MakeupKind {
	return h.kind
}

// List godoc
// @Summary List make-up classes of one kind
// @Tags Make-up classes
// @Produce json
// @Param kind path string true "offset-classes, supplementary-classes or test-classes"
// @Param status query string false "pending, assigned, completed or cancelled"
// @Param teacherId query string false "Teacher filter"
// @Param subjectLevelId query string false "Subject level filter"
// @Param dateFrom query string false "From date (YYYY-MM-DD)"
// @Param dateTo query string false "To date (YYYY-MM-DD)"
// @Param page query int false "Page number"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /{kind} [get]
func (h *MakeupClassHandler) List(c *gin.Context) {
	var query dto.MakeupClassQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, invalidPayload(err, "invalid query"))
		return
	}
	items, pagination, err := h.makeups.List(c.Request.Context(), h.kind, query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, pagination)
}

// Get godoc
// @Summary Get make-up class
// @Tags Make-up classes
// @Produce json
// @Param kind path string true "offset-classes, supplementary-classes or test-classes"
// @Param id path string true "Make-up class ID"
// @Success 200 {object} response.Envelope
// @Router /{kind}/{id} [get]
func (h *MakeupClassHandler) Get(c *gin.Context) {
	session, err := h.makeups.Get(c.Request.Context(), h.kind, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, session, nil)
}

// Create godoc
// @Summary Create make-up class
// @Tags Make-up classes
// @Accept json
// @Produce json
// @Param kind path string true "offset-classes, supplementary-classes or test-classes"
// @Param payload body dto.CreateMakeupClassRequest true "Make-up class payload"
// @Success 201 {object} response.Envelope
// @Router /{kind} [post]
func (h *MakeupClassHandler) Create(c *gin.Context) {
	var req dto.CreateMakeupClassRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err, "invalid make-up class payload"))
		return
	}
	if req.RequestedBy == nil {
		if claims := claimsFromContext(c); claims != nil && claims.Email != "" {
			email := claims.Email
			req.RequestedBy = &email
		}
	}
	session, err := h.makeups.Create(c.Request.Context(), h.kind, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, session)
}

// Update godoc
// @Summary Update make-up class details
// @Tags Make-up classes
// @Accept json
// @Produce json
// @Param kind path string true "offset-classes, supplementary-classes or test-classes"
// @Param id path string true "Make-up class ID"
// @Param payload body dto.UpdateMakeupClassRequest true "Make-up class payload"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /{kind}/{id} [put]
func (h *MakeupClassHandler) Update(c *gin.Context) {
	var req dto.UpdateMakeupClassRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err, "invalid make-up class payload"))
		return
	}
	session, err := h.makeups.Update(c.Request.Context(), h.kind, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, session, nil)
}

// Delete godoc
// @Summary Delete make-up class
// @Tags Make-up classes
// @Param kind path string true "offset-classes, supplementary-classes or test-classes"
// @Param id path string true "Make-up class ID"
// @Success 204
// @Router /{kind}/{id} [delete]
func (h *MakeupClassHandler) Delete(c *gin.Context) {
	if err := h.makeups.Delete(c.Request.Context(), h.kind, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Assign godoc
// @Summary Assign a teacher manually
// @Tags Make-up classes
// @Accept json
// @Produce json
// @Param kind path string true "offset-classes, supplementary-classes or test-classes"
// @Param id path string true "Make-up class ID"
// @Param payload body dto.AssignTeacherRequest true "Teacher"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /{kind}/{id}/assign [post]
func (h *MakeupClassHandler) Assign(c *gin.Context) {
	var req dto.AssignTeacherRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.TeacherID == "" {
		response.Error(c, invalidPayload(err, "teacher_id is required"))
		return
	}
	session, err := h.assignments.Assign(c.Request.Context(), h.kind, c.Param("id"), req.TeacherID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, session, nil)
}

// AutoAssign godoc
// @Summary Auto-assign pending sessions
// @Description Runs the assignment engine over the given ids, or every pending session of the kind when ids is empty.
// @Tags Make-up classes
// @Accept json
// @Produce json
// @Param kind path string true "offset-classes, supplementary-classes or test-classes"
// @Param payload body dto.AutoAssignRequest false "Session ids"
// @Success 200 {object} response.Envelope
// @Router /{kind}/auto-assign [post]
func (h *MakeupClassHandler) AutoAssign(c *gin.Context) {
	var req dto.AutoAssignRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, invalidPayload(err, "invalid auto-assign payload"))
			return
		}
	}
	result, err := h.assignments.AutoAssign(c.Request.Context(), h.kind, req.IDs)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Reallocate godoc
// @Summary Move an assigned session to another teacher
// @Tags Make-up classes
// @Accept json
// @Produce json
// @Param kind path string true "offset-classes, supplementary-classes or test-classes"
// @Param id path string true "Make-up class ID"
// @Param payload body dto.ReasonRequest false "Reason"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /{kind}/{id}/reallocate [post]
func (h *MakeupClassHandler) Reallocate(c *gin.Context) {
	req, ok := bindReason(c)
	if !ok {
		return
	}
	session, err := h.assignments.Reallocate(c.Request.Context(), h.kind, c.Param("id"), req.Reason)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, session, nil)
}

// Complete godoc
// @Summary Mark an assigned session as taught
// @Tags Make-up classes
// @Produce json
// @Param kind path string true "offset-classes, supplementary-classes or test-classes"
// @Param id path string true "Make-up class ID"
// @Success 200 {object} response.Envelope
// @Router /{kind}/{id}/complete [post]
func (h *MakeupClassHandler) Complete(c *gin.Context) {
	session, err := h.makeups.Complete(c.Request.Context(), h.kind, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, session, nil)
}

// Cancel godoc
// @Summary Cancel a session
// @Tags Make-up classes
// @Accept json
// @Produce json
// @Param kind path string true "offset-classes, supplementary-classes or test-classes"
// @Param id path string true "Make-up class ID"
// @Param payload body dto.ReasonRequest false "Reason"
// @Success 200 {object} response.Envelope
// @Router /{kind}/{id}/cancel [post]
func (h *MakeupClassHandler) Cancel(c *gin.Context) {
	req, ok := bindReason(c)
	if !ok {
		return
	}
	session, err := h.makeups.Cancel(c.Request.Context(), h.kind, c.Param("id"), req.Reason)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, session, nil)
}

// Candidates godoc
// @Summary Ranked teachers for a session with exclusion reasons
// @Tags Make-up classes
// @Produce json
// @Param kind path string true "offset-classes, supplementary-classes or test-classes"
// @Param id path string true "Make-up class ID"
// @Success 200 {object} response.Envelope
// @Router /{kind}/{id}/candidates [get]
func (h *MakeupClassHandler) Candidates(c *gin.Context) {
	reports, err := h.assignments.Candidates(c.Request.Context(), h.kind, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, reports, nil)
}

// Export godoc
// @Summary Export the filtered list as CSV or PDF
// @Tags Make-up classes
// @Produce text/csv
// @Produce application/pdf
// @Param kind path string true "offset-classes, supplementary-classes or test-classes"
// @Param format query string false "csv (default) or pdf"
// @Success 200 {file} file
// @Router /{kind}/export [get]
func (h *MakeupClassHandler) Export(c *gin.Context) {
	var query dto.MakeupClassQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, invalidPayload(err, "invalid query"))
		return
	}
	body, format, filename, err := h.makeups.Export(c.Request.Context(), h.kind, query)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, format.ContentType(), body)
}

func bindReason(c *gin.Context) (dto.ReasonRequest, bool) {
	var req dto.ReasonRequest
	if c.Request.ContentLength == 0 {
		return req, true
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err, "invalid reason payload"))
		return req, false
	}
	return req, true
}
