package routes

import (
	"net/http"

	"github.com/quorum-ai/quorum/backend/pkg/ai"
	"github.com/quorum-ai/quorum/backend/pkg/council"

	"github.com/labstack/echo/v4"
)

func GetModelsHandler(c echo.Context) error {
	return c.JSON(http.StatusOK, ai.Catalog())
}

func GetRolesHandler(c echo.Context) error {
	return c.JSON(http.StatusOK, council.Roles())
}

func GetPresetsHandler(c echo.Context) error {
	return c.JSON(http.StatusOK, council.Presets())
}
