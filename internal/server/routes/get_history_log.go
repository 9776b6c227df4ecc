package routes

import (
	"errors"
	"net/http"

	"github.com/quorum-ai/quorum/backend/internal/db"
	"github.com/quorum-ai/quorum/backend/internal/server/middleware"
	"github.com/quorum-ai/quorum/backend/internal/storage"

	"github.com/jackc/pgx/v5"
	"github.com/labstack/echo/v4"
)

// GetHistoryLogHandler streams the archived NDJSON transcript of one
// conversation.
func GetHistoryLogHandler(c echo.Context) error {
	id := c.Param("id")

	ctx := c.Request().Context()
	app := c.(*middleware.AppContext).App
	q := db.New(app.DBConn)

	row, err := q.GetConversation(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "Conversation not found"})
		}
		return c.String(http.StatusInternalServerError, err.Error())
	}
	if row.LogKey == "" || app.S3 == nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "No transcript archived"})
	}

	transcript, err := storage.GetTranscript(ctx, app.S3, row.LogKey)
	if err != nil {
		return c.String(http.StatusInternalServerError, err.Error())
	}

	return c.Blob(http.StatusOK, "application/x-ndjson", transcript)
}
