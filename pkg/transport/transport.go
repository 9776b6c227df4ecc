// Package transport opens one websocket connection per execution request,
// sends the execute command, and hands every inbound frame to the caller
// in arrival order. Protocol semantics live with the caller; this layer
// only moves frames.
package transport

import (
	"context"
	"errors"
	"time"

	"github.com/gorilla/websocket"

	"github.com/quorum-ai/quorum/backend/pkg/council"
	"github.com/quorum-ai/quorum/backend/pkg/logger"
	"github.com/quorum-ai/quorum/backend/pkg/protocol"
)

const (
	// Time allowed to complete the websocket handshake.
	dialTimeout = 10 * time.Second

	// Time allowed to write the execute command.
	writeWait = 10 * time.Second
)

// ErrClosedEarly is returned when the connection closes cleanly before a
// complete or error event arrived. The execution is stalled, not finished;
// callers must surface this rather than treat it as success.
var ErrClosedEarly = errors.New("connection closed before execution completed")

// Handler receives every decoded event, synchronously and in arrival
// order. The read loop blocks until the handler returns.
type Handler func(typ protocol.EventType, ev protocol.Event)

// Client dials a quorum server's execution endpoint.
type Client struct {
	url    string
	apiKey string
	dialer *websocket.Dialer
}

// NewClient creates a transport client for the websocket url
// (e.g. "ws://localhost:8080/api/execute/ws").
func NewClient(url, apiKey string) *Client {
	return &Client{
		url:    url,
		apiKey: apiKey,
		dialer: &websocket.Dialer{
			HandshakeTimeout: dialTimeout,
		},
	}
}

// Execute opens one connection, sends {type: "execute", query, config} and
// pumps inbound frames to onEvent until the stream ends.
//
// The protocol's own complete/error events are the authoritative end of an
// execution; a clean close without one returns ErrClosedEarly and no event
// is synthesized. A transport-level failure synthesizes one error event
// and returns. There is no automatic retry; retry policy belongs to the
// caller.
func (c *Client) Execute(ctx context.Context, query string, cfg council.Config, onEvent Handler) error {
	headers := map[string][]string{}
	if c.apiKey != "" {
		headers["Authorization"] = []string{"Bearer " + c.apiKey}
	}

	conn, _, err := c.dialer.DialContext(ctx, c.url, headers)
	if err != nil {
		return err
	}
	defer conn.Close()

	// close the socket when the context ends so the blocked read returns
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteJSON(protocol.NewExecuteCommand(query, cfg)); err != nil {
		return err
	}

	terminal := false
	for {
		_, frame, err := conn.ReadMessage()
		if err != nil {
			if terminal {
				// the execution already ended; however the socket went
				// away afterwards is uninteresting
				return nil
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return ErrClosedEarly
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			onEvent(protocol.EventError, protocol.Event{
				Type:  protocol.EventError,
				Error: err.Error(),
			})
			return err
		}

		ev, err := protocol.Decode(frame)
		if err != nil {
			// a malformed frame is dropped, not fatal to the stream
			logger.Warn("Dropping malformed frame", "err", err)
			continue
		}

		onEvent(ev.Type, ev)

		if ev.Type == protocol.EventComplete ||
			(ev.Type == protocol.EventError && ev.NodeID == "") {
			terminal = true
		}
	}
}
