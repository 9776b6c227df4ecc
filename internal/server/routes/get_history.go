package routes

import (
	"encoding/json"
	"net/http"

	"github.com/quorum-ai/quorum/backend/internal/db"
	"github.com/quorum-ai/quorum/backend/internal/server/middleware"
	"github.com/quorum-ai/quorum/backend/internal/util"
	"github.com/quorum-ai/quorum/backend/pkg/history"
	"github.com/quorum-ai/quorum/backend/pkg/logger"

	"github.com/labstack/echo/v4"
)

// GetHistoryHandler lists the archived conversation records, most recent
// first. Rows whose payload no longer parses are skipped rather than
// failing the whole listing.
func GetHistoryHandler(c echo.Context) error {
	ctx := c.Request().Context()
	conn := c.(*middleware.AppContext).App.DBConn
	q := db.New(conn)

	limit := int32(util.GetEnvNumeric("HISTORY_LIMIT", history.DefaultWindow))
	rows, err := q.ListConversations(ctx, limit)
	if err != nil {
		return c.String(http.StatusInternalServerError, err.Error())
	}

	records := make([]history.Record, 0, len(rows))
	for _, row := range rows {
		var r history.Record
		if err := json.Unmarshal(row.Payload, &r); err != nil {
			logger.Warn("[History] Skipping unreadable record", "conversation_id", row.ID, "err", err)
			continue
		}
		r.LogKey = row.LogKey
		records = append(records, r)
	}

	return c.JSON(http.StatusOK, records)
}
