package maintenance

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/medops/medops/internal/domain/equipment"
	"github.com/medops/medops/internal/domain/technician"
	"github.com/medops/medops/pkg/pagination"
)

const dateLayout = "2006-01-02"

type Handler struct {
	svc      *Service
	validate *validator.Validate
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc, validate: validator.New()}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/maintenance", h.List)
	api.POST("/maintenance", h.Create)
	api.GET("/maintenance/calendar/:year/:month", h.Calendar)
	api.POST("/maintenance/auto-schedule", h.AutoSchedule)
	api.GET("/maintenance/:id", h.Get)
	api.PUT("/maintenance/:id", h.Update)
	api.POST("/maintenance/:id/assign", h.Assign)
	api.PATCH("/maintenance/:id/status", h.SetStatus)
	api.POST("/maintenance/:id/complete", h.Complete)
}

// httpError maps domain sentinels onto status codes.
func httpError(err error) error {
	switch {
	case errors.Is(err, ErrNotFound),
		errors.Is(err, equipment.ErrNotFound),
		errors.Is(err, technician.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, ErrValidation),
		errors.Is(err, ErrAlreadyCompleted),
		errors.Is(err, equipment.ErrInvalidStatus):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrTechnicianUnavailable),
		errors.Is(err, ErrInvalidTransition),
		errors.Is(err, technician.ErrUnavailable):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}

type createPayload struct {
	EquipmentID        *uuid.UUID `json:"equipment_id"`
	EquipmentCode      string     `json:"equipment_code"`
	MaintenanceType    string     `json:"maintenance_type" validate:"required"`
	Priority           string     `json:"priority" validate:"required"`
	Description        *string    `json:"description"`
	ScheduledDate      string     `json:"scheduled_date" validate:"required,datetime=2006-01-02"`
	ScheduledTime      string     `json:"scheduled_time" validate:"required"`
	DurationHours      float64    `json:"estimated_duration_hours" validate:"required"`
	TechnicianID       *uuid.UUID `json:"technician_id"`
	RecurrenceUnit     string     `json:"recurrence_unit"`
	RecurrenceInterval int        `json:"recurrence_interval"`
	RecurrenceEndDate  *string    `json:"recurrence_end_date"`
}

func (h *Handler) Create(c echo.Context) error {
	var p createPayload
	if err := c.Bind(&p); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.validate.Struct(&p); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	date, err := time.Parse(dateLayout, p.ScheduledDate)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid scheduled_date")
	}
	var endDate *time.Time
	if p.RecurrenceEndDate != nil {
		d, err := time.Parse(dateLayout, *p.RecurrenceEndDate)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid recurrence_end_date")
		}
		endDate = &d
	}

	m, err := h.svc.Create(c.Request().Context(), CreateInput{
		EquipmentID:        p.EquipmentID,
		EquipmentCode:      p.EquipmentCode,
		MaintenanceType:    p.MaintenanceType,
		Priority:           p.Priority,
		Description:        p.Description,
		ScheduledDate:      date,
		ScheduledTime:      p.ScheduledTime,
		DurationHours:      p.DurationHours,
		TechnicianID:       p.TechnicianID,
		RecurrenceUnit:     p.RecurrenceUnit,
		RecurrenceInterval: p.RecurrenceInterval,
		RecurrenceEndDate:  endDate,
	})
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, m)
}

func (h *Handler) Get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	m, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, m)
}

func (h *Handler) List(c echo.Context) error {
	pg := pagination.FromContext(c)

	f := Filter{
		Status:          c.QueryParam("status"),
		MaintenanceType: c.QueryParam("maintenance_type"),
		Priority:        c.QueryParam("priority"),
	}
	if v := c.QueryParam("equipment_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid equipment_id")
		}
		f.EquipmentID = &id
	}
	if v := c.QueryParam("technician_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid technician_id")
		}
		f.TechnicianID = &id
	}

	items, total, err := h.svc.List(c.Request().Context(), f, pg.Limit, pg.Offset)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

type updatePayload struct {
	MaintenanceType    *string    `json:"maintenance_type"`
	Priority           *string    `json:"priority"`
	Description        *string    `json:"description"`
	ScheduledDate      *string    `json:"scheduled_date"`
	ScheduledTime      *string    `json:"scheduled_time"`
	DurationHours      *float64   `json:"estimated_duration_hours"`
	TechnicianID       *uuid.UUID `json:"technician_id"`
	ClearTechnician    bool       `json:"clear_technician"`
	RecurrenceUnit     *string    `json:"recurrence_unit"`
	RecurrenceInterval *int       `json:"recurrence_interval"`
	RecurrenceEndDate  *string    `json:"recurrence_end_date"`
}

func (h *Handler) Update(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var p updatePayload
	if err := c.Bind(&p); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	in := UpdateInput{
		MaintenanceType:    p.MaintenanceType,
		Priority:           p.Priority,
		Description:        p.Description,
		ScheduledTime:      p.ScheduledTime,
		DurationHours:      p.DurationHours,
		TechnicianID:       p.TechnicianID,
		ClearTechnician:    p.ClearTechnician,
		RecurrenceUnit:     p.RecurrenceUnit,
		RecurrenceInterval: p.RecurrenceInterval,
	}
	if p.ScheduledDate != nil {
		d, err := time.Parse(dateLayout, *p.ScheduledDate)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid scheduled_date")
		}
		in.ScheduledDate = &d
	}
	if p.RecurrenceEndDate != nil {
		d, err := time.Parse(dateLayout, *p.RecurrenceEndDate)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid recurrence_end_date")
		}
		in.RecurrenceEndDate = &d
	}

	m, err := h.svc.Update(c.Request().Context(), id, in)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, m)
}

type assignPayload struct {
	TechnicianID uuid.UUID `json:"technician_id" validate:"required"`
}

func (h *Handler) Assign(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var p assignPayload
	if err := c.Bind(&p); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.validate.Struct(&p); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	m, err := h.svc.Assign(c.Request().Context(), id, p.TechnicianID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, m)
}

type statusPayload struct {
	Status string `json:"status" validate:"required"`
}

func (h *Handler) SetStatus(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var p statusPayload
	if err := c.Bind(&p); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.validate.Struct(&p); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	m, err := h.svc.SetStatus(c.Request().Context(), id, p.Status)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, m)
}

type completePayload struct {
	Notes                *string  `json:"completion_notes"`
	ActualDurationHours  *float64 `json:"actual_duration_hours"`
	ActualCost           *float64 `json:"actual_cost"`
	EquipmentStatusAfter string   `json:"equipment_status_after"`
}

func (h *Handler) Complete(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var p completePayload
	if err := c.Bind(&p); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	m, spawned, err := h.svc.Complete(c.Request().Context(), id, CompleteInput{
		Notes:                p.Notes,
		ActualDurationHours:  p.ActualDurationHours,
		ActualCost:           p.ActualCost,
		EquipmentStatusAfter: p.EquipmentStatusAfter,
	})
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"maintenance":     m,
		"next_occurrence": spawned,
	})
}

type autoSchedulePayload struct {
	EquipmentID uuid.UUID `json:"equipment_id" validate:"required"`
}

func (h *Handler) AutoSchedule(c echo.Context) error {
	var p autoSchedulePayload
	if err := c.Bind(&p); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.validate.Struct(&p); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	m, err := h.svc.AutoSchedule(c.Request().Context(), p.EquipmentID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, m)
}

func (h *Handler) Calendar(c echo.Context) error {
	year, err := strconv.Atoi(c.Param("year"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid year")
	}
	month, err := strconv.Atoi(c.Param("month"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid month")
	}

	view, err := h.svc.Calendar(c.Request().Context(), year, month)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, view)
}
