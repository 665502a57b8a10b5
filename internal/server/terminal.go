package server

import (
	"context"
	"log"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/gamgui-io/gamgui/internal/runner"
)

// Terminal event names, shared with the browser client and the CLI.
const (
	EventJoinSession   = "join-session"
	EventLeaveSession  = "leave-session"
	EventTerminalInput = "terminal-input"
	EventTerminalOut   = "terminal-output"
	EventResize        = "resize"
	EventSessionStatus = "session-status"
	EventError         = "error"
)

// TerminalEvent is the JSON envelope spoken on /terminal.
type TerminalEvent struct {
	Event     string `json:"event"`
	SessionID string `json:"sessionId,omitempty"`
	Data      string `json:"data,omitempty"`
	Rows      int    `json:"rows,omitempty"`
	Cols      int    `json:"cols,omitempty"`
	Status    string `json:"status,omitempty"`
	Message   string `json:"message,omitempty"`
}

// terminalConn serializes writes to one WebSocket. The pump goroutine and
// the read loop both send events.
type terminalConn struct {
	ws *websocket.Conn
	mu sync.Mutex
}

func (c *terminalConn) send(ctx context.Context, ev TerminalEvent) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return wsjson.Write(ctx, c.ws, ev)
}

func (s *Server) handleTerminal(w http.ResponseWriter, r *http.Request) {
	user := r.Header.Get(HeaderUser)
	if user == "" {
		writeError(w, http.StatusUnauthorized, "missing "+HeaderUser+" header")
		return
	}

	ws, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		// Cross-origin policy is enforced by the fronting proxy.
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		log.Printf("Terminal accept failed: %v", err)
		return
	}
	defer ws.Close(websocket.StatusNormalClosure, "")

	ctx := r.Context()
	conn := &terminalConn{ws: ws}

	var (
		attached   runner.Handle
		subID      string
		pumpCancel context.CancelFunc
	)

	detach := func() {
		if attached != nil {
			attached.Unsubscribe(subID)
			pumpCancel()
			attached = nil
		}
	}
	defer detach()

	for {
		var ev TerminalEvent
		if err := wsjson.Read(ctx, ws, &ev); err != nil {
			return
		}

		switch ev.Event {
		case EventJoinSession:
			sess, err := s.sessions.Get(ev.SessionID)
			if err != nil || sess.UserID != user {
				_ = conn.send(ctx, TerminalEvent{Event: EventError, Message: "session not found"})
				continue
			}
			handle, err := s.sessions.Handle(ev.SessionID)
			if err != nil {
				_ = conn.send(ctx, TerminalEvent{Event: EventError, Message: "session not found"})
				continue
			}

			detach()
			attached = handle
			subID = uuid.NewString()
			sub := handle.Subscribe(subID)

			var pumpCtx context.Context
			pumpCtx, pumpCancel = context.WithCancel(ctx)
			go pumpOutput(pumpCtx, conn, handle, sub)

			// Replay the current screen so the client renders mid-session
			// state instead of a blank terminal.
			if screen := handle.Screen(); screen != "" {
				_ = conn.send(ctx, TerminalEvent{Event: EventTerminalOut, Data: screen})
			}
			_ = conn.send(ctx, TerminalEvent{Event: EventSessionStatus, Status: string(handle.Status())})

		case EventTerminalInput:
			if attached == nil {
				_ = conn.send(ctx, TerminalEvent{Event: EventError, Message: "no session joined"})
				continue
			}
			if err := attached.SendInput([]byte(ev.Data)); err != nil {
				_ = conn.send(ctx, TerminalEvent{Event: EventError, Message: err.Error()})
			}

		case EventResize:
			if attached == nil {
				continue
			}
			if ev.Rows > 0 && ev.Cols > 0 {
				if err := attached.Resize(ev.Rows, ev.Cols); err != nil {
					_ = conn.send(ctx, TerminalEvent{Event: EventError, Message: err.Error()})
				}
			}

		case EventLeaveSession:
			detach()

		default:
			_ = conn.send(ctx, TerminalEvent{Event: EventError, Message: "unknown event: " + ev.Event})
		}
	}
}

// pumpOutput forwards backend output chunks to the WebSocket until the
// subscription closes, the session ends, or the client detaches.
func pumpOutput(ctx context.Context, conn *terminalConn, handle runner.Handle, sub chan []byte) {
	for {
		select {
		case <-ctx.Done():
			return
		case chunk, ok := <-sub:
			if !ok {
				_ = conn.send(ctx, TerminalEvent{Event: EventSessionStatus, Status: string(handle.Status())})
				return
			}
			if err := conn.send(ctx, TerminalEvent{Event: EventTerminalOut, Data: string(chunk)}); err != nil {
				return
			}
		case <-handle.Done():
			// Drain whatever is buffered before reporting the exit.
			for {
				select {
				case chunk, ok := <-sub:
					if !ok {
						_ = conn.send(ctx, TerminalEvent{Event: EventSessionStatus, Status: string(handle.Status())})
						return
					}
					_ = conn.send(ctx, TerminalEvent{Event: EventTerminalOut, Data: string(chunk)})
				default:
					_ = conn.send(ctx, TerminalEvent{Event: EventSessionStatus, Status: string(handle.Status())})
					return
				}
			}
		}
	}
}
