package cli

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/gamgui-io/gamgui/internal/server"
)

// detachKey is Ctrl-], same as telnet.
const detachKey = 0x1d

// wsWriter serializes event writes; stdin forwarding and resize signals
// run on separate goroutines.
type wsWriter struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (w *wsWriter) send(ctx context.Context, ev server.TerminalEvent) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return wsjson.Write(ctx, w.conn, ev)
}

var attachCmd = &cobra.Command{
	Use:   "attach <session-id>",
	Short: "Attach the local terminal to a session",
	Long: `Attach connects the local terminal to a running session over the
server's WebSocket bridge. Detach with Ctrl-].`,
	Args: cobra.ExactArgs(1),
	RunE: runAttach,
}

func runAttach(cmd *cobra.Command, args []string) error {
	sessionID := args[0]

	c, err := connectServer()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	wsURL := "ws" + strings.TrimPrefix(c.baseURL, "http") + "/terminal"
	conn, _, err := websocket.Dial(ctx, wsURL, &websocket.DialOptions{
		HTTPHeader: http.Header{server.HeaderUser: []string{c.user}},
	})
	if err != nil {
		return fmt.Errorf("failed to connect to terminal: %w", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "")

	// Session output arrives as raw terminal bytes; the local terminal
	// must be raw too.
	stdinFd := int(os.Stdin.Fd())
	if !term.IsTerminal(stdinFd) {
		return fmt.Errorf("attach requires a terminal")
	}
	oldState, err := term.MakeRaw(stdinFd)
	if err != nil {
		return fmt.Errorf("failed to set raw mode: %w", err)
	}
	defer term.Restore(stdinFd, oldState)

	writer := &wsWriter{conn: conn}

	join := server.TerminalEvent{Event: server.EventJoinSession, SessionID: sessionID}
	if err := writer.send(ctx, join); err != nil {
		return fmt.Errorf("failed to join session: %w", err)
	}
	if err := sendResize(ctx, writer, stdinFd); err != nil {
		return err
	}

	go watchResize(ctx, writer, stdinFd)
	go forwardStdin(ctx, cancel, writer)

	var exitStatus string
	for {
		var ev server.TerminalEvent
		if err := wsjson.Read(ctx, conn, &ev); err != nil {
			break
		}

		switch ev.Event {
		case server.EventTerminalOut:
			os.Stdout.WriteString(ev.Data)
		case server.EventSessionStatus:
			if ev.Status == "Succeeded" || ev.Status == "Failed" {
				exitStatus = ev.Status
			}
		case server.EventError:
			term.Restore(stdinFd, oldState)
			return fmt.Errorf("%s", ev.Message)
		}
		if exitStatus != "" {
			break
		}
	}

	term.Restore(stdinFd, oldState)
	if exitStatus != "" {
		fmt.Printf("\n%s\n", styleHint.Render("Session "+strings.ToLower(exitStatus)+"."))
	} else {
		fmt.Printf("\n%s\n", styleHint.Render("Detached. Session keeps running."))
	}
	return nil
}

// forwardStdin pumps local keystrokes to the server until the detach key
// or EOF.
func forwardStdin(ctx context.Context, cancel context.CancelFunc, w *wsWriter) {
	defer cancel()

	buf := make([]byte, 1024)
	for {
		n, err := os.Stdin.Read(buf)
		if err != nil {
			return
		}
		data := buf[:n]

		for _, b := range data {
			if b == detachKey {
				_ = w.send(ctx, server.TerminalEvent{Event: server.EventLeaveSession})
				return
			}
		}

		ev := server.TerminalEvent{Event: server.EventTerminalInput, Data: string(data)}
		if err := w.send(ctx, ev); err != nil {
			return
		}
	}
}

func sendResize(ctx context.Context, w *wsWriter, fd int) error {
	cols, rows, err := term.GetSize(fd)
	if err != nil {
		return nil
	}
	return w.send(ctx, server.TerminalEvent{Event: server.EventResize, Rows: rows, Cols: cols})
}

// watchResize propagates window size changes on SIGWINCH.
func watchResize(ctx context.Context, w *wsWriter, fd int) {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGWINCH)
	defer signal.Stop(ch)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ch:
			_ = sendResize(ctx, w, fd)
		}
	}
}
