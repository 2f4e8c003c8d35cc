package facility

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
	read := permission.Require(h.matrix, permission.ModuleFacilities, permission.OpRead)
	g := api.Group("/facilities")
	g.GET("", h.ListFacilities, read)
	g.GET("/:id", h.GetFacility, read)
	g.POST("", h.CreateFacility, permission.Require(h.matrix, permission.ModuleFacilities, permission.OpCreate))
	g.PUT("/:id", h.UpdateFacility, permission.Require(h.matrix, permission.ModuleFacilities, permission.OpUpdate))
	g.DELETE("/:id", h.DeleteFacility, permission.Require(h.matrix, permission.ModuleFacilities, permission.OpDelete))
}

func (h *Handler) CreateFacility(c echo.Context) error {
	var f Facility
	if err := c.Bind(&f); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(&f); err != nil {
		return apperr.HTTP(err)
	}
	if err := h.svc.CreateFacility(c.Request().Context(), &f); err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusCreated, f)
}

func (h *Handler) GetFacility(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	f, err := h.svc.GetFacility(c.Request().Context(), id)
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, f)
}

func (h *Handler) ListFacilities(c echo.Context) error {
	pg := pagination.FromContext(c)
	params := map[string]string{
		"q":      c.QueryParam("q"),
		"type":   c.QueryParam("type"),
		"status": c.QueryParam("status"),
	}
	items, total, err := h.svc.SearchFacilities(c.Request().Context(), params, pg.Limit, pg.Offset)
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) UpdateFacility(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var f Facility
	if err := c.Bind(&f); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	f.ID = id
	if err := c.Validate(&f); err != nil {
		return apperr.HTTP(err)
	}
	if err := h.svc.UpdateFacility(c.Request().Context(), &f); err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, f)
}

func (h *Handler) DeleteFacility(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := h.svc.DeleteFacility(c.Request().Context(), id); err != nil {
		return apperr.HTTP(err)
	}
	return c.NoContent(http.StatusNoContent)
}
