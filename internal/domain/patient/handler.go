package patient

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
	g := api.Group("/patients")
	g.GET("", h.ListPatients, permission.Require(h.matrix, permission.ModulePatients, permission.OpRead))
	g.GET("/:id", h.GetPatient, permission.Require(h.matrix, permission.ModulePatients, permission.OpRead))
	g.GET("/by-number/:number", h.GetPatientByNumber, permission.Require(h.matrix, permission.ModulePatients, permission.OpRead))
	g.POST("", h.CreatePatient, permission.Require(h.matrix, permission.ModulePatients, permission.OpCreate))
	g.PUT("/:id", h.UpdatePatient, permission.Require(h.matrix, permission.ModulePatients, permission.OpUpdate))
	g.DELETE("/:id", h.DeletePatient, permission.Require(h.matrix, permission.ModulePatients, permission.OpDelete))
}

func (h *Handler) CreatePatient(c echo.Context) error {
	var p Patient
	if err := c.Bind(&p); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(&p); err != nil {
		return apperr.HTTP(err)
	}
	if err := h.svc.CreatePatient(c.Request().Context(), &p); err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusCreated, p)
}

func (h *Handler) GetPatient(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	p, err := h.svc.GetPatient(c.Request().Context(), id)
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) GetPatientByNumber(c echo.Context) error {
	p, err := h.svc.GetPatientByHospitalNumber(c.Request().Context(), c.Param("number"))
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) ListPatients(c echo.Context) error {
	pg := pagination.FromContext(c)
	params := map[string]string{
		"q":      c.QueryParam("q"),
		"gender": c.QueryParam("gender"),
	}
	items, total, err := h.svc.SearchPatients(c.Request().Context(), params, pg.Limit, pg.Offset)
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) UpdatePatient(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var p Patient
	if err := c.Bind(&p); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	p.ID = id
	if err := c.Validate(&p); err != nil {
		return apperr.HTTP(err)
	}
	if err := h.svc.UpdatePatient(c.Request().Context(), &p); err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) DeletePatient(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := h.svc.DeletePatient(c.Request().Context(), id); err != nil {
		return apperr.HTTP(err)
	}
	return c.NoContent(http.StatusNoContent)
}
