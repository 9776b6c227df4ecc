package routes

import (
	"errors"
	"net/http"

	"github.com/quorum-ai/quorum/backend/internal/db"
	"github.com/quorum-ai/quorum/backend/internal/server/middleware"
	"github.com/quorum-ai/quorum/backend/internal/storage"
	"github.com/quorum-ai/quorum/backend/pkg/logger"

	"github.com/jackc/pgx/v5"
	"github.com/labstack/echo/v4"
)

// DeleteHistoryHandler removes a record and its archived transcript.
// Deleting an id that does not exist is a no-op.
func DeleteHistoryHandler(c echo.Context) error {
	id := c.Param("id")

	ctx := c.Request().Context()
	app := c.(*middleware.AppContext).App
	q := db.New(app.DBConn)

	row, err := q.GetConversation(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return c.NoContent(http.StatusNoContent)
		}
		return c.String(http.StatusInternalServerError, err.Error())
	}

	if row.LogKey != "" && app.S3 != nil {
		if err := storage.DeleteTranscript(ctx, app.S3, row.LogKey); err != nil {
			logger.Warn("[History] Failed to delete transcript", "conversation_id", id, "key", row.LogKey, "err", err)
		}
	}

	if err := q.DeleteConversation(ctx, id); err != nil {
		return c.String(http.StatusInternalServerError, err.Error())
	}

	return c.NoContent(http.StatusNoContent)
}
