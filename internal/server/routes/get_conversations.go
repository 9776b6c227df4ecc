package routes

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/quorum-ai/quorum/backend/internal/db"
	"github.com/quorum-ai/quorum/backend/internal/server/middleware"
	"github.com/quorum-ai/quorum/backend/internal/util"
	"github.com/quorum-ai/quorum/backend/pkg/history"

	"github.com/jackc/pgx/v5"
	"github.com/labstack/echo/v4"
)

// conversationSummary is the list-view shape of one archived
// conversation, without the full payload.
type conversationSummary struct {
	ID          string    `json:"id"`
	Query       string    `json:"query"`
	FinalAnswer string    `json:"final_answer,omitempty"`
	TotalTokens int32     `json:"total_tokens"`
	TotalCost   float64   `json:"total_cost"`
	HasLog      bool      `json:"has_log"`
	CreatedAt   time.Time `json:"created_at"`
}

// ListConversationsHandler lists archived conversations as lightweight
// summaries, most recent first.
func ListConversationsHandler(c echo.Context) error {
	ctx := c.Request().Context()
	conn := c.(*middleware.AppContext).App.DBConn
	q := db.New(conn)

	limit := int32(util.GetEnvNumeric("HISTORY_LIMIT", history.DefaultWindow))
	rows, err := q.ListConversations(ctx, limit)
	if err != nil {
		return c.String(http.StatusInternalServerError, err.Error())
	}

	summaries := make([]conversationSummary, 0, len(rows))
	for _, row := range rows {
		summaries = append(summaries, conversationSummary{
			ID:          row.ID,
			Query:       row.Query,
			FinalAnswer: row.FinalAnswer,
			TotalTokens: row.TotalTokens,
			TotalCost:   row.TotalCost,
			HasLog:      row.LogKey != "",
			CreatedAt:   row.CreatedAt,
		})
	}
	return c.JSON(http.StatusOK, summaries)
}

// GetConversationHandler returns the full record of one archived
// conversation.
func GetConversationHandler(c echo.Context) error {
	id := c.Param("id")

	ctx := c.Request().Context()
	conn := c.(*middleware.AppContext).App.DBConn
	q := db.New(conn)

	row, err := q.GetConversation(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "Conversation not found"})
		}
		return c.String(http.StatusInternalServerError, err.Error())
	}

	var r history.Record
	if err := json.Unmarshal(row.Payload, &r); err != nil {
		return c.String(http.StatusInternalServerError, err.Error())
	}
	r.LogKey = row.LogKey
	return c.JSON(http.StatusOK, r)
}
