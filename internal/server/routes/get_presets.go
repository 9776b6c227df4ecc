package routes

import (
	"net/http"

	"github.com/quorum-ai/quorum/backend/pkg/council"

	"github.com/labstack/echo/v4"
)

// GetPresetHandler returns one built-in preset by id.
func GetPresetHandler(c echo.Context) error {
	p, ok := council.PresetByID(c.Param("id"))
	if !ok {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "Preset not found"})
	}
	return c.JSON(http.StatusOK, p)
}
