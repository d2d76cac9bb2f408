package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/edu-ops-api/internal/dto"
	"github.com/noah-isme/edu-ops-api/internal/middleware"
	"github.com/noah-isme/edu-ops-api/internal/models"
	"github.com/noah-isme/edu-ops-api/internal/service"
	"github.com/noah-isme/edu-ops-api/pkg/response"
	"github.com/noah-isme/edu-ops-api/pkg/timeslot"
)

type shiftService interface {
	List(ctx context.Context) ([]models.Shift, error)
	Create(ctx context.Context, req service.ShiftRequest) (*models.Shift, error)
	Update(ctx context.Context, id string, req service.ShiftRequest) (*models.Shift, error)
	Delete(ctx context.Context, id string) error
}

type workShiftService interface {
	List(ctx context.Context, filter models.WorkShiftFilter) ([]models.WorkShift, *models.Pagination, error)
	Create(ctx context.Context, req service.WorkShiftRequest) (*models.WorkShift, error)
	Bulk(ctx context.Context, req dto.BulkWorkShiftRequest) (*dto.BulkWorkShiftResult, error)
	Delete(ctx context.Context, id string) error
	Availability(ctx context.Context, query dto.AvailabilityQuery) (*dto.AvailabilityResponse, bool, error)
}

type freeScheduleService interface {
	List(ctx context.Context, filter models.FreeScheduleFilter) ([]models.FreeSchedule, *models.Pagination, error)
	Create(ctx context.Context, req service.FreeScheduleRequest) (*models.FreeSchedule, error)
	Delete(ctx context.Context, id string) error
}

// RosterHandler serves shifts, the work shift roster and weekly free slots.
type RosterHandler struct {
	shifts     shiftService
	workShifts workShiftService
	free       freeScheduleService
}

// NewRosterHandler constructs a RosterHandler.
func NewRosterHandler(shifts shiftService, workShifts workShiftService, free freeScheduleService) *RosterHandler {
	return &RosterHandler{shifts: shifts, workShifts: workShifts, free: free}
}

// ListShifts godoc
// @Summary List shifts
// @Tags Roster
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /schedule/shifts [get]
func (h *RosterHandler) ListShifts(c *gin.Context) {
	shifts, err := h.shifts.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, shifts, nil)
}

// CreateShift godoc
// @Summary Create shift
// @Tags Roster
// @Accept json
// @Produce json
// @Param payload body service.ShiftRequest true "Shift payload"
// @Success 201 {object} response.Envelope
// @Router /schedule/shifts [post]
func (h *RosterHandler) CreateShift(c *gin.Context) {
	var req service.ShiftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err, "invalid shift payload"))
		return
	}
	shift, err := h.shifts.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, shift)
}

// UpdateShift godoc
// @Summary Update shift
// @Tags Roster
// @Accept json
// @Produce json
// @Param id path string true "Shift ID"
// @Param payload body service.ShiftRequest true "Shift payload"
// @Success 200 {object} response.Envelope
// @Router /schedule/shifts/{id} [put]
func (h *RosterHandler) UpdateShift(c *gin.Context) {
	var req service.ShiftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err, "invalid shift payload"))
		return
	}
	shift, err := h.shifts.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, shift, nil)
}

// DeleteShift godoc
// @Summary Delete shift
// @Tags Roster
// @Param id path string true "Shift ID"
// @Success 204
// @Router /schedule/shifts/{id} [delete]
func (h *RosterHandler) DeleteShift(c *gin.Context) {
	if err := h.shifts.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ListWorkShifts godoc
// @Summary List work shifts
// @Tags Roster
// @Produce json
// @Param teacherId query string false "Teacher filter"
// @Param shiftId query string false "Shift filter"
// @Param dateFrom query string false "From date (YYYY-MM-DD)"
// @Param dateTo query string false "To date (YYYY-MM-DD)"
// @Param status query string false "scheduled or cancelled"
// @Param page query int false "Page number"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /schedule/work-shifts [get]
func (h *RosterHandler) ListWorkShifts(c *gin.Context) {
	filter := models.WorkShiftFilter{
		TeacherID: c.Query("teacherId"),
		ShiftID:   c.Query("shiftId"),
		DateFrom:  dateQuery(c, "dateFrom"),
		DateTo:    dateQuery(c, "dateTo"),
		Status:    models.WorkShiftStatus(strings.ToLower(c.Query("status"))),
	}
	filter.Page, filter.PageSize = pageParams(c)

	items, pagination, err := h.workShifts.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, pagination)
}

// CreateWorkShift godoc
// @Summary Roster a teacher on a shift
// @Tags Roster
// @Accept json
// @Produce json
// @Param payload body service.WorkShiftRequest true "Work shift payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /schedule/work-shifts [post]
func (h *RosterHandler) CreateWorkShift(c *gin.Context) {
	var req service.WorkShiftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err, "invalid work shift payload"))
		return
	}
	ws, err := h.workShifts.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, ws)
}

// BulkWorkShifts godoc
// @Summary Roster many teachers on many dates and shifts
// @Tags Roster
// @Accept json
// @Produce json
// @Param payload body dto.BulkWorkShiftRequest true "Bulk payload"
// @Success 201 {object} response.Envelope
// @Router /schedule/work-shifts/bulk [post]
func (h *RosterHandler) BulkWorkShifts(c *gin.Context) {
	var req dto.BulkWorkShiftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err, "invalid bulk work shift payload"))
		return
	}
	result, err := h.workShifts.Bulk(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusCreated, result, nil)
}

// DeleteWorkShift godoc
// @Summary Delete work shift
// @Tags Roster
// @Param id path string true "Work shift ID"
// @Success 204
// @Router /schedule/work-shifts/{id} [delete]
func (h *RosterHandler) DeleteWorkShift(c *gin.Context) {
	if err := h.workShifts.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Availability godoc
// @Summary Teachers available for a window
// @Tags Roster
// @Produce json
// @Param date query string true "Date (YYYY-MM-DD)"
// @Param startTime query string true "Start (HH:mm)"
// @Param endTime query string true "End (HH:mm)"
// @Param subjectLevelId query string false "Only teachers qualified for this level"
// @Success 200 {object} response.Envelope
// @Router /schedule/work-shifts/availability [get]
func (h *RosterHandler) Availability(c *gin.Context) {
	var query dto.AvailabilityQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, invalidPayload(err, "invalid availability query"))
		return
	}
	resp, hit, err := h.workShifts.Availability(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, hit)
	response.JSON(c, http.StatusOK, resp, nil, middleware.ExtractMeta(c))
}

// ListFreeSchedules godoc
// @Summary List weekly free slots
// @Tags Roster
// @Produce json
// @Param teacherId query string false "Teacher filter"
// @Param dayOfWeek query string false "Weekday (Thứ 2 .. Chủ nhật)"
// @Param page query int false "Page number"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /schedule/free-schedules [get]
func (h *RosterHandler) ListFreeSchedules(c *gin.Context) {
	filter := models.FreeScheduleFilter{
		TeacherID: c.Query("teacherId"),
		DayOfWeek: strings.TrimSpace(c.Query("dayOfWeek")),
	}
	filter.Page, filter.PageSize = pageParams(c)

	items, pagination, err := h.free.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, pagination)
}

// CreateFreeSchedule godoc
// @Summary Declare a weekly free slot
// @Tags Roster
// @Accept json
// @Produce json
// @Param payload body service.FreeScheduleRequest true "Free slot payload"
// @Success 201 {object} response.Envelope
// @Router /schedule/free-schedules [post]
func (h *RosterHandler) CreateFreeSchedule(c *gin.Context) {
	var req service.FreeScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err, "invalid free schedule payload"))
		return
	}
	fs, err := h.free.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, fs)
}

// DeleteFreeSchedule godoc
// @Summary Delete a weekly free slot
// @Tags Roster
// @Param id path string true "Free schedule ID"
// @Success 204
// @Router /schedule/free-schedules/{id} [delete]
func (h *RosterHandler) DeleteFreeSchedule(c *gin.Context) {
	if err := h.free.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// dateQuery parses an optional YYYY-MM-DD query parameter; malformed values are ignored.
func dateQuery(c *gin.Context, key string) *time.Time {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return nil
	}
	d, err := timeslot.ParseDate(raw)
	if err != nil {
		return nil
	}
	return &d
}
