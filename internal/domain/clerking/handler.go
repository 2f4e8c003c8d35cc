package clerking

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
	read := permission.Require(h.matrix, permission.ModuleClerking, permission.OpRead)
	g := api.Group("/clerkings")
	g.GET("", h.ListClerkings, read)
	g.GET("/:id", h.GetClerking, read)
	g.POST("", h.CreateClerking, permission.Require(h.matrix, permission.ModuleClerking, permission.OpCreate))
	g.PUT("/:id", h.UpdateClerking, permission.Require(h.matrix, permission.ModuleClerking, permission.OpUpdate))
	g.DELETE("/:id", h.DeleteClerking, permission.Require(h.matrix, permission.ModuleClerking, permission.OpDelete))
	api.GET("/patients/:id/clerkings", h.ListPatientClerkings, read)
}

func (h *Handler) CreateClerking(c echo.Context) error {
	var cl Clerking
	if err := c.Bind(&cl); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(&cl); err != nil {
		return apperr.HTTP(err)
	}
	if err := h.svc.CreateClerking(c.Request().Context(), &cl); err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusCreated, cl)
}

func (h *Handler) GetClerking(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	cl, err := h.svc.GetClerking(c.Request().Context(), id)
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, cl)
}

func (h *Handler) ListClerkings(c echo.Context) error {
	params := map[string]string{"q": c.QueryParam("q")}
	for _, key := range []string{"patient_id", "appointment_id", "clerked_by"} {
		v := c.QueryParam(key)
		if v == "" {
			continue
		}
		if _, err := uuid.Parse(v); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid "+key)
		}
		params[key] = v
	}
	return h.list(c, params)
}

func (h *Handler) ListPatientClerkings(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	return h.list(c, map[string]string{"patient_id": id.String()})
}

func (h *Handler) list(c echo.Context, params map[string]string) error {
	pg := pagination.FromContext(c)
	items, total, err := h.svc.SearchClerkings(c.Request().Context(), params, pg.Limit, pg.Offset)
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) UpdateClerking(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var cl Clerking
	if err := c.Bind(&cl); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	cl.ID = id
	if err := h.svc.UpdateClerking(c.Request().Context(), &cl); err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, cl)
}

func (h *Handler) DeleteClerking(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := h.svc.DeleteClerking(c.Request().Context(), id); err != nil {
		return apperr.HTTP(err)
	}
	return c.NoContent(http.StatusNoContent)
}
