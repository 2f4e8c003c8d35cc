package permission

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/hms/hms/internal/platform/auth"
)

type Handler struct {
	matrix *Matrix
}

func NewHandler(m *Matrix) *Handler {
	return &Handler{matrix: m}
}

// RegisterRoutes exposes the matrix to any authenticated caller; the UI uses
// it to hide modules the user cannot reach.
func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/permissions", h.GetMatrix)
	api.GET("/permissions/me", h.GetMine)
}

type matrixResponse struct {
	Roles      []Role                          `json:"roles"`
	Modules    []Module                        `json:"modules"`
	Operations []Operation                     `json:"operations"`
	Matrix     map[Role]map[Module][]Operation `json:"matrix"`
}

func (h *Handler) GetMatrix(c echo.Context) error {
	return c.JSON(http.StatusOK, matrixResponse{
		Roles:      Roles,
		Modules:    Modules,
		Operations: Operations,
		Matrix:     h.matrix.Snapshot(),
	})
}

func (h *Handler) GetMine(c echo.Context) error {
	roles := auth.RolesFromContext(c.Request().Context())
	return c.JSON(http.StatusOK, map[string]interface{}{
		"roles":       roles,
		"permissions": h.matrix.ForRoles(roles),
	})
}
