package server

import (
	"github.com/quorum-ai/quorum/backend/internal/server/middleware"
	"github.com/quorum-ai/quorum/backend/internal/server/routes"

	"github.com/labstack/echo/v4"
)

func RegisterRoutes(e *echo.Echo) {
	// Health check route
	e.GET("/health", func(c echo.Context) error {
		return c.String(200, "OK")
	})

	apiRoutes := e.Group("/api", middleware.AuthMiddleware)

	// Catalog routes
	apiRoutes.GET("/models", routes.GetModelsHandler)
	apiRoutes.GET("/roles", routes.GetRolesHandler)
	apiRoutes.GET("/presets", routes.GetPresetsHandler)
	apiRoutes.GET("/presets/:id", routes.GetPresetHandler)

	// Council composition
	apiRoutes.POST("/councils/compose", routes.ComposeCouncilHandler)
	apiRoutes.POST("/councils/agents", routes.AddAgentHandler)
	apiRoutes.DELETE("/councils/agents/:node_id", routes.RemoveAgentHandler)

	// Conversation routes
	apiRoutes.GET("/conversations", routes.ListConversationsHandler)
	apiRoutes.POST("/conversations", routes.PostHistoryHandler)
	apiRoutes.GET("/conversations/:id", routes.GetConversationHandler)

	// History routes
	apiRoutes.GET("/history", routes.GetHistoryHandler)
	apiRoutes.GET("/history/:id", routes.GetConversationHandler)
	apiRoutes.POST("/history", routes.PostHistoryHandler)
	apiRoutes.DELETE("/history/:id", routes.DeleteHistoryHandler)
	apiRoutes.GET("/history/:id/log", routes.GetHistoryLogHandler)

	// Execution stream
	apiRoutes.GET("/execute/ws", routes.ExecuteHandler)
}
