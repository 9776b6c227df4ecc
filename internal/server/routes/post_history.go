package routes

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/quorum-ai/quorum/backend/internal/db"
	"github.com/quorum-ai/quorum/backend/internal/server/middleware"
	"github.com/quorum-ai/quorum/backend/pkg/history"

	"github.com/labstack/echo/v4"
)

// PostHistoryHandler accepts a record pushed by a client and stores it.
// Pushing an id that already exists overwrites the stored record, so the
// most recent writer wins.
func PostHistoryHandler(c echo.Context) error {
	req := new(history.Record)
	if err := c.Bind(req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
	}
	if req.ID == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Record has no id"})
	}
	if req.CreatedAt.IsZero() {
		req.CreatedAt = time.Now().UTC()
	}

	payload, err := json.Marshal(req)
	if err != nil {
		return c.String(http.StatusInternalServerError, err.Error())
	}

	finalAnswer := ""
	if req.FinalAnswer != nil {
		finalAnswer = req.FinalAnswer.Content
	}

	ctx := c.Request().Context()
	conn := c.(*middleware.AppContext).App.DBConn
	q := db.New(conn)

	if err := q.UpsertConversation(ctx, db.UpsertConversationParams{
		ID:          req.ID,
		Query:       req.Query,
		Payload:     payload,
		FinalAnswer: finalAnswer,
		TotalTokens: int32(req.Tokens),
		TotalCost:   req.Cost,
		LogKey:      req.LogKey,
		CreatedAt:   req.CreatedAt,
	}); err != nil {
		return c.String(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, req)
}
