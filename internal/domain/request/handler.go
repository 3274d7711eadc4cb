package request

import (
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/medops/medops/internal/domain/equipment"
	"github.com/medops/medops/internal/domain/technician"
	"github.com/medops/medops/pkg/pagination"
)

type Handler struct {
	svc      *Service
	validate *validator.Validate
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc, validate: validator.New()}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/requests", h.List)
	api.POST("/requests", h.Create)
	api.GET("/requests/:id", h.Get)
	api.PUT("/requests/:id", h.Update)
	api.POST("/requests/:id/assign", h.Assign)
	api.PATCH("/requests/:id/status", h.SetStatus)
	api.POST("/requests/:id/complete", h.Complete)
}

func httpError(err error) error {
	switch {
	case errors.Is(err, ErrNotFound),
		errors.Is(err, equipment.ErrNotFound),
		errors.Is(err, technician.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, ErrValidation),
		errors.Is(err, ErrAlreadyCompleted):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrInvalidTransition),
		errors.Is(err, technician.ErrUnavailable):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}

type createPayload struct {
	Title       string     `json:"title" validate:"required"`
	Description *string    `json:"description"`
	Priority    string     `json:"priority" validate:"required"`
	EquipmentID *uuid.UUID `json:"equipment_id"`
	ReportedBy  string     `json:"reported_by" validate:"required"`
}

func (h *Handler) Create(c echo.Context) error {
	var p createPayload
	if err := c.Bind(&p); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.validate.Struct(&p); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	r, err := h.svc.Create(c.Request().Context(), CreateInput{
		Title:       p.Title,
		Description: p.Description,
		Priority:    p.Priority,
		EquipmentID: p.EquipmentID,
		ReportedBy:  p.ReportedBy,
	})
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, r)
}

func (h *Handler) Get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	r, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, r)
}

func (h *Handler) List(c echo.Context) error {
	pg := pagination.FromContext(c)

	f := Filter{
		Status:   c.QueryParam("status"),
		Priority: c.QueryParam("priority"),
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
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Priority    *string `json:"priority"`
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

	r, err := h.svc.Update(c.Request().Context(), id, UpdateInput{
		Title:       p.Title,
		Description: p.Description,
		Priority:    p.Priority,
	})
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, r)
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

	r, err := h.svc.Assign(c.Request().Context(), id, p.TechnicianID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, r)
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

	r, err := h.svc.SetStatus(c.Request().Context(), id, p.Status)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, r)
}

type completePayload struct {
	ResolutionNotes *string `json:"resolution_notes"`
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

	r, err := h.svc.Complete(c.Request().Context(), id, p.ResolutionNotes)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, r)
}
