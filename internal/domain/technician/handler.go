package technician

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/medops/medops/pkg/pagination"
)

const dateLayout = "2006-01-02"

// ScheduleLister supplies a technician's upcoming work. The maintenance domain
// implements it; kept as an interface so this package stays import-free of the
// domains built on top of it.
type ScheduleLister interface {
	ListByTechnician(ctx context.Context, technicianID uuid.UUID, limit, offset int) (interface{}, int, error)
}

type Handler struct {
	svc      *Service
	schedule ScheduleLister
	validate *validator.Validate
}

func NewHandler(svc *Service, schedule ScheduleLister) *Handler {
	return &Handler{svc: svc, schedule: schedule, validate: validator.New()}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/technicians", h.List)
	api.POST("/technicians", h.Create)
	api.GET("/technicians/available", h.Available)
	api.GET("/technicians/:id", h.Get)
	api.PUT("/technicians/:id", h.Update)
	api.GET("/technicians/:id/schedule", h.Schedule)
}

func httpError(err error) error {
	switch {
	case errors.Is(err, ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, ErrUnavailable):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}

type technicianPayload struct {
	FullName          string   `json:"full_name" validate:"required"`
	Email             string   `json:"email" validate:"omitempty,email"`
	Skills            []string `json:"skills"`
	Specialization    *string  `json:"specialization"`
	Employed          *bool    `json:"employed"`
	Available         *bool    `json:"available"`
	ShiftStart        string   `json:"shift_start"`
	ShiftEnd          string   `json:"shift_end"`
	MaxScheduledTasks int      `json:"max_scheduled_tasks"`
	MaxOpenRequests   int      `json:"max_open_requests"`
}

func (p *technicianPayload) apply(t *Technician) {
	t.FullName = p.FullName
	t.Email = p.Email
	t.Skills = p.Skills
	t.Specialization = p.Specialization
	t.Employed = p.Employed == nil || *p.Employed
	t.Available = p.Available == nil || *p.Available
	t.ShiftStart = p.ShiftStart
	t.ShiftEnd = p.ShiftEnd
	t.MaxScheduledTasks = p.MaxScheduledTasks
	t.MaxOpenRequests = p.MaxOpenRequests
}

func (h *Handler) Create(c echo.Context) error {
	var p technicianPayload
	if err := c.Bind(&p); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.validate.Struct(&p); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	var t Technician
	p.apply(&t)
	if err := h.svc.Create(c.Request().Context(), &t); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, t)
}

func (h *Handler) Get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	t, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, t)
}

func (h *Handler) List(c echo.Context) error {
	pg := pagination.FromContext(c)
	items, total, err := h.svc.List(c.Request().Context(), pg.Limit, pg.Offset)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) Update(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	t, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return httpError(err)
	}

	var p technicianPayload
	if err := c.Bind(&p); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.validate.Struct(&p); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	p.apply(t)
	if err := h.svc.Update(c.Request().Context(), t); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, t)
}

// Available lists technicians able to take a slot, ranked by match score.
// Query: date=2006-01-02, time=HH:MM, duration=<hours>, equipment_type=<type>.
func (h *Handler) Available(c echo.Context) error {
	date, err := time.Parse(dateLayout, c.QueryParam("date"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid or missing date")
	}
	startClock := c.QueryParam("time")
	if _, err := ClockToHours(startClock); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid or missing time")
	}
	duration, err := strconv.ParseFloat(c.QueryParam("duration"), 64)
	if err != nil || duration <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid or missing duration")
	}

	candidates, err := h.svc.FindAvailable(c.Request().Context(),
		c.QueryParam("equipment_type"), date, startClock, duration)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"data":  candidates,
		"total": len(candidates),
	})
}

func (h *Handler) Schedule(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if _, err := h.svc.Get(c.Request().Context(), id); err != nil {
		return httpError(err)
	}

	pg := pagination.FromContext(c)
	items, total, err := h.schedule.ListByTechnician(c.Request().Context(), id, pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}
