package transport

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/quorum-ai/quorum/backend/pkg/council"
	"github.com/quorum-ai/quorum/backend/pkg/protocol"
)

var testUpgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// serve runs handle for each websocket connection and returns the ws url.
func serve(t *testing.T, handle func(t *testing.T, conn *websocket.Conn)) string {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := testUpgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade failed: %v", err)
			return
		}
		defer conn.Close()
		handle(t, conn)
	}))
	t.Cleanup(srv.Close)
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func readCommand(t *testing.T, conn *websocket.Conn) protocol.ExecuteCommand {
	t.Helper()
	var cmd protocol.ExecuteCommand
	if err := conn.ReadJSON(&cmd); err != nil {
		t.Errorf("reading execute command: %v", err)
	}
	return cmd
}

func testConfig() council.Config {
	return council.Config{Name: "test", Nodes: []council.Node{{ID: "n1"}}}
}

func TestExecuteDeliversEventsInOrder(t *testing.T) {
	url := serve(t, func(t *testing.T, conn *websocket.Conn) {
		cmd := readCommand(t, conn)
		if cmd.Type != "execute" || cmd.Query != "why?" {
			t.Errorf("unexpected command %+v", cmd)
		}
		if len(cmd.Config.Nodes) != 1 {
			t.Errorf("config lost in transit: %+v", cmd.Config)
		}
		for _, ev := range []protocol.Event{
			{Type: protocol.EventStageUpdate, Stage: 1, ConversationID: "conv-1"},
			{Type: protocol.EventResponse, NodeID: "n1", Content: "answer", Tokens: 5},
			{Type: protocol.EventComplete},
		} {
			if err := conn.WriteJSON(ev); err != nil {
				t.Errorf("write: %v", err)
			}
		}
		conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	})

	var got []protocol.EventType
	err := NewClient(url, "").Execute(context.Background(), "why?", testConfig(),
		func(typ protocol.EventType, ev protocol.Event) {
			got = append(got, typ)
		})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	want := []protocol.EventType{protocol.EventStageUpdate, protocol.EventResponse, protocol.EventComplete}
	if len(got) != len(want) {
		t.Fatalf("expected %d events, got %v", len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("event %d: expected %s, got %s", i, want[i], got[i])
		}
	}
}

func TestExecuteSendsBearerToken(t *testing.T) {
	var header string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header = r.Header.Get("Authorization")
		conn, err := testUpgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		readCommand(t, conn)
		conn.WriteJSON(protocol.Event{Type: protocol.EventComplete})
		conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	}))
	defer srv.Close()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")

	err := NewClient(url, "sekret").Execute(context.Background(), "q", testConfig(),
		func(protocol.EventType, protocol.Event) {})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if header != "Bearer sekret" {
		t.Errorf("unexpected auth header %q", header)
	}
}

func TestExecuteCleanCloseWithoutTerminalEvent(t *testing.T) {
	url := serve(t, func(t *testing.T, conn *websocket.Conn) {
		readCommand(t, conn)
		conn.WriteJSON(protocol.Event{Type: protocol.EventStageUpdate, Stage: 1})
		conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	})

	var sawError bool
	err := NewClient(url, "").Execute(context.Background(), "q", testConfig(),
		func(typ protocol.EventType, ev protocol.Event) {
			if typ == protocol.EventError {
				sawError = true
			}
		})
	if !errors.Is(err, ErrClosedEarly) {
		t.Fatalf("expected ErrClosedEarly, got %v", err)
	}
	if sawError {
		t.Error("a clean early close must not synthesize an error event")
	}
}

func TestExecuteAbruptCloseSynthesizesError(t *testing.T) {
	url := serve(t, func(t *testing.T, conn *websocket.Conn) {
		readCommand(t, conn)
		conn.WriteJSON(protocol.Event{Type: protocol.EventStageUpdate, Stage: 1})
		// tear the tcp connection down without a close frame
		conn.UnderlyingConn().Close()
	})

	var synthesized *protocol.Event
	err := NewClient(url, "").Execute(context.Background(), "q", testConfig(),
		func(typ protocol.EventType, ev protocol.Event) {
			if typ == protocol.EventError {
				e := ev
				synthesized = &e
			}
		})
	if err == nil {
		t.Fatal("expected a transport error")
	}
	if synthesized == nil {
		t.Fatal("expected a synthesized error event")
	}
	if synthesized.NodeID != "" || synthesized.Error == "" {
		t.Errorf("unexpected synthesized event %+v", synthesized)
	}
}

func TestExecuteDropsMalformedFrames(t *testing.T) {
	url := serve(t, func(t *testing.T, conn *websocket.Conn) {
		readCommand(t, conn)
		conn.WriteMessage(websocket.TextMessage, []byte("{garbage"))
		conn.WriteMessage(websocket.TextMessage, []byte(`{"stage": 1}`))
		conn.WriteJSON(protocol.Event{Type: protocol.EventComplete})
		conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	})

	var got []protocol.EventType
	err := NewClient(url, "").Execute(context.Background(), "q", testConfig(),
		func(typ protocol.EventType, ev protocol.Event) {
			got = append(got, typ)
		})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if len(got) != 1 || got[0] != protocol.EventComplete {
		t.Errorf("malformed frames leaked to the handler: %v", got)
	}
}

func TestExecuteHonorsContextCancel(t *testing.T) {
	url := serve(t, func(t *testing.T, conn *websocket.Conn) {
		readCommand(t, conn)
		// never send anything; the client has to bail out on its own
		conn.ReadMessage()
	})

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	err := NewClient(url, "").Execute(ctx, "q", testConfig(),
		func(protocol.EventType, protocol.Event) {})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected context deadline, got %v", err)
	}
}
