package billing

import (
	"net/http"

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
	read := permission.Require(h.matrix, permission.ModuleBilling, permission.OpRead)
	create := permission.Require(h.matrix, permission.ModuleBilling, permission.OpCreate)

	g := api.Group("/invoices")
	g.GET("", h.ListInvoices, read)
	g.GET("/:id", h.GetInvoice, read)
	g.GET("/:id/payments", h.ListPayments, read)
	g.POST("", h.CreateInvoice, create)
	g.POST("/:id/payments", h.RecordPayment, create)
	g.POST("/:id/void", h.VoidInvoice, permission.Require(h.matrix, permission.ModuleBilling, permission.OpUpdate))
	g.DELETE("/:id", h.DeleteInvoice, permission.Require(h.matrix, permission.ModuleBilling, permission.OpDelete))
}

func (h *Handler) CreateInvoice(c echo.Context) error {
	var inv Invoice
	if err := c.Bind(&inv); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(&inv); err != nil {
		return apperr.HTTP(err)
	}
	if err := h.svc.CreateInvoice(c.Request().Context(), &inv); err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusCreated, inv)
}

func (h *Handler) GetInvoice(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	inv, err := h.svc.GetInvoice(c.Request().Context(), id)
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, inv)
}

func (h *Handler) ListInvoices(c echo.Context) error {
	pg := pagination.FromContext(c)
	params := map[string]string{}
	for _, key := range []string{"patient_id", "appointment_id"} {
		if v := c.QueryParam(key); v != "" {
			if _, err := uuid.Parse(v); err != nil {
				return echo.NewHTTPError(http.StatusBadRequest, "invalid "+key)
			}
			params[key] = v
		}
	}
	if v := c.QueryParam("status"); v != "" {
		params["status"] = v
	}
	items, total, err := h.svc.SearchInvoices(c.Request().Context(), params, pg.Limit, pg.Offset)
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) ListPayments(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	payments, err := h.svc.ListPayments(c.Request().Context(), id)
	if err != nil {
		return apperr.HTTP(err)
	}
	if payments == nil {
		payments = []*Payment{}
	}
	return c.JSON(http.StatusOK, payments)
}

func (h *Handler) RecordPayment(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var p Payment
	if err := c.Bind(&p); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(&p); err != nil {
		return apperr.HTTP(err)
	}
	inv, err := h.svc.RecordPayment(c.Request().Context(), id, &p)
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusCreated, inv)
}

func (h *Handler) VoidInvoice(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	inv, err := h.svc.VoidInvoice(c.Request().Context(), id)
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, inv)
}

func (h *Handler) DeleteInvoice(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := h.svc.DeleteInvoice(c.Request().Context(), id); err != nil {
		return apperr.HTTP(err)
	}
	return c.NoContent(http.StatusNoContent)
}
