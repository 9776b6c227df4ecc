package routes

import (
	"bytes"
	"encoding/json"
	"net/http"
	"time"

	"github.com/quorum-ai/quorum/backend/internal/engine"
	"github.com/quorum-ai/quorum/backend/internal/queue"
	"github.com/quorum-ai/quorum/backend/internal/server/middleware"
	"github.com/quorum-ai/quorum/backend/internal/util"
	"github.com/quorum-ai/quorum/backend/pkg/history"
	"github.com/quorum-ai/quorum/backend/pkg/logger"
	"github.com/quorum-ai/quorum/backend/pkg/protocol"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

const wsWriteWait = 10 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// ExecuteHandler runs one council execution over a WebSocket. The client
// sends a single execute command after the upgrade; every event of the
// run is written back as one JSON frame. The finished execution is
// published to the archive queue before the socket closes.
func ExecuteHandler(c echo.Context) error {
	app := c.(*middleware.AppContext).App

	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	var cmd protocol.ExecuteCommand
	if err := conn.ReadJSON(&cmd); err != nil {
		logger.Warn("[Execute] Failed to read command", "err", err)
		return nil
	}
	if cmd.Type != "execute" || cmd.Query == "" {
		writeEvent(conn, protocol.Event{Type: protocol.EventError, Error: "expected an execute command with a query"})
		return nil
	}

	conversationID := util.NewPrefixedID("conv")
	ctx := c.Request().Context()

	var transcript bytes.Buffer
	sink := func(ev protocol.Event) error {
		frame, err := ev.Encode()
		if err != nil {
			return err
		}
		transcript.Write(frame)
		transcript.WriteByte('\n')

		conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
		return conn.WriteMessage(websocket.TextMessage, frame)
	}

	outcome, err := engine.New(app.AiClient).Run(ctx, conversationID, cmd.Query, cmd.Config, sink)
	if err != nil {
		logger.Warn("[Execute] Execution failed", "conversation_id", conversationID, "err", err)
		return nil
	}

	archive(app, outcome, cmd, transcript.Bytes())
	return nil
}

func writeEvent(conn *websocket.Conn, ev protocol.Event) {
	frame, err := ev.Encode()
	if err != nil {
		return
	}
	conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
	if err := conn.WriteMessage(websocket.TextMessage, frame); err != nil {
		logger.Warn("[Execute] Failed to write frame", "err", err)
	}
}

// archive publishes the finished execution to the archive queue. Failures
// are logged; the client already has the full event stream.
func archive(app *middleware.App, outcome *engine.Outcome, cmd protocol.ExecuteCommand, transcript []byte) {
	if app.Queue == nil {
		return
	}

	msg := queue.ArchiveMsg{
		Record: history.Record{
			ID:          outcome.ConversationID,
			Query:       outcome.Query,
			Config:      cmd.Config,
			Responses:   outcome.Responses,
			Rankings:    outcome.Rankings,
			FinalAnswer: outcome.FinalAnswer,
			Tokens:      outcome.TotalTokens,
			Cost:        outcome.TotalCost,
			CreatedAt:   time.Now().UTC(),
		},
		Transcript: transcript,
	}

	body, err := json.Marshal(msg)
	if err != nil {
		logger.Error("[Execute] Failed to marshal archive message", "conversation_id", outcome.ConversationID, "err", err)
		return
	}
	if err := queue.PublishFIFO(app.Queue, queue.ArchiveQueue, body); err != nil {
		logger.Error("[Execute] Failed to publish archive message", "conversation_id", outcome.ConversationID, "err", err)
	}
}
