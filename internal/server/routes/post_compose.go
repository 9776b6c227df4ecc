package routes

import (
	"net/http"

	"github.com/quorum-ai/quorum/backend/pkg/council"

	"github.com/labstack/echo/v4"
)

func ComposeCouncilHandler(c echo.Context) error {
	type composeRequest struct {
		Size int    `json:"size" validate:"required,min=1,max=9"`
		Mode string `json:"mode"`
	}

	req := new(composeRequest)
	if err := c.Bind(req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
	}
	if err := c.Validate(req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	mode := council.ComposeMode(req.Mode)
	if req.Mode == "" {
		mode = council.ComposeBalanced
	}

	cfg, err := council.Compose(req.Size, mode)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	return c.JSON(http.StatusOK, cfg)
}
