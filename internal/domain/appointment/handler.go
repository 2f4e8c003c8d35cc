package appointment

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/hms/hms/internal/platform/apperr"
	"github.com/hms/hms/internal/platform/permission"
	"github.com/hms/hms/pkg/pagination"
)

type Handler struct {
	svc    *Service
	matrix *permission.Matrix
}

func NewHandler(svc *Service, matrix *permission.Matrix) *Handler {
	return &Handler{svc: svc, matrix: matrix}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	read := permission.Require(h.matrix, permission.ModuleAppointments, permission.OpRead)
	update := permission.Require(h.matrix, permission.ModuleAppointments, permission.OpUpdate)

	g := api.Group("/appointments")
	g.GET("", h.ListAppointments, read)
	g.GET("/:id", h.GetAppointment, read)
	g.GET("/:id/actions", h.GetAllowedActions, read)
	g.POST("", h.CreateAppointment, permission.Require(h.matrix, permission.ModuleAppointments, permission.OpCreate))
	g.PUT("/:id", h.UpdateAppointment, update)
	g.POST("/:id/action", h.ApplyAction, update)
	g.DELETE("/:id", h.DeleteAppointment, permission.Require(h.matrix, permission.ModuleAppointments, permission.OpDelete))
}

func (h *Handler) CreateAppointment(c echo.Context) error {
	var a Appointment
	if err := c.Bind(&a); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(&a); err != nil {
		return apperr.HTTP(err)
	}
	if err := h.svc.CreateAppointment(c.Request().Context(), &a); err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusCreated, a)
}

func (h *Handler) GetAppointment(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	a, err := h.svc.GetAppointment(c.Request().Context(), id)
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, a)
}

func (h *Handler) GetAllowedActions(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	a, err := h.svc.GetAppointment(c.Request().Context(), id)
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":  a.Status,
		"actions": AllowedActions(a.Status),
	})
}

func (h *Handler) ListAppointments(c echo.Context) error {
	pg := pagination.FromContext(c)
	params := map[string]string{"status": c.QueryParam("status")}
	for _, key := range []string{"patient_id", "staff_id"} {
		if v := c.QueryParam(key); v != "" {
			if _, err := uuid.Parse(v); err != nil {
				return echo.NewHTTPError(http.StatusBadRequest, "invalid "+key)
			}
			params[key] = v
		}
	}
	for _, key := range []string{"from", "to"} {
		if v := c.QueryParam(key); v != "" {
			t, err := parseTime(v)
			if err != nil {
				return echo.NewHTTPError(http.StatusBadRequest, "invalid "+key+": expected RFC 3339 or YYYY-MM-DD")
			}
			params[key] = t.Format(time.RFC3339)
		}
	}
	items, total, err := h.svc.SearchAppointments(c.Request().Context(), params, pg.Limit, pg.Offset)
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func parseTime(v string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", v)
}

func (h *Handler) UpdateAppointment(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var a Appointment
	if err := c.Bind(&a); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	a.ID = id
	if err := h.svc.UpdateAppointment(c.Request().Context(), &a); err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, a)
}

// ApplyAction runs a state machine action. record_payment also needs
// billing:create on top of the route's appointments:update.
func (h *Handler) ApplyAction(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req ActionRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(&req); err != nil {
		return apperr.HTTP(err)
	}
	if !req.Action.Valid() {
		return echo.NewHTTPError(http.StatusBadRequest, "unknown action: "+string(req.Action))
	}
	c.Set(permission.ContextOperation, string(req.Action))

	ctx := c.Request().Context()
	if req.Action == ActionRecordPayment {
		if err := h.matrix.Check(ctx, permission.ModuleBilling, permission.OpCreate); err != nil {
			return apperr.HTTP(err)
		}
	}
	a, err := h.svc.Apply(ctx, id, req)
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, a)
}

func (h *Handler) DeleteAppointment(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := h.svc.DeleteAppointment(c.Request().Context(), id); err != nil {
		return apperr.HTTP(err)
	}
	return c.NoContent(http.StatusNoContent)
}
