package routes

import (
	"net/http"

	"github.com/quorum-ai/quorum/backend/pkg/council"

	"github.com/labstack/echo/v4"
)

// AddAgentHandler appends one agent to a composed council config and
// returns the rewired config. The council itself lives client-side; the
// server only performs the mesh rewiring.
func AddAgentHandler(c echo.Context) error {
	type addAgentRequest struct {
		Config council.Config `json:"config" validate:"required"`
		Role   council.Role   `json:"role"`
		Model  string         `json:"model"`
	}

	req := new(addAgentRequest)
	if err := c.Bind(req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
	}
	if len(req.Config.Nodes) == 0 {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Config has no nodes"})
	}

	role := req.Role
	if role == "" {
		role = council.RoleResponder
	}

	cfg, id := council.AddAgent(req.Config, role, req.Model)
	return c.JSON(http.StatusOK, map[string]any{
		"config":  cfg,
		"node_id": id,
	})
}

// RemoveAgentHandler removes one agent and its incident edges from the
// posted config.
func RemoveAgentHandler(c echo.Context) error {
	req := new(council.Config)
	if err := c.Bind(req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
	}

	nodeID := c.Param("node_id")
	if _, ok := req.Node(nodeID); !ok {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "Node not found in config"})
	}

	return c.JSON(http.StatusOK, council.RemoveAgent(*req, nodeID))
}
