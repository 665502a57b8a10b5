package local

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"sync"
	"syscall"
	"time"

	"github.com/creack/pty"

	"github.com/gamgui-io/gamgui/internal/models"
	"github.com/gamgui-io/gamgui/internal/runner"
	"github.com/gamgui-io/gamgui/internal/runner/shared"
)

// ProcessOptions contains options for creating a new session process.
type ProcessOptions struct {
	SessionID string
	Cmd       *exec.Cmd
	Rows      int
	Cols      int
}

// Process manages a PTY-backed session process.
type Process struct {
	sessionID   string
	cmd         *exec.Cmd
	ptyFile     *os.File
	term        *shared.Terminal
	done        chan struct{}
	exitErr     error
	startedAt   time.Time
	cleanupOnce sync.Once
}

// NewProcess creates and starts a new session process with PTY and vt10x
// terminal emulation.
func NewProcess(opts ProcessOptions) (*Process, error) {
	term := shared.NewTerminal(opts.Rows, opts.Cols)
	rows, cols := term.Size()

	winSize := &pty.Winsize{
		Rows: uint16(rows),
		Cols: uint16(cols),
	}
	ptmx, err := pty.StartWithSize(opts.Cmd, winSize)
	if err != nil {
		return nil, fmt.Errorf("failed to start PTY: %w", err)
	}

	p := &Process{
		sessionID: opts.SessionID,
		cmd:       opts.Cmd,
		ptyFile:   ptmx,
		term:      term,
		done:      make(chan struct{}),
		startedAt: time.Now().UTC(),
	}

	go p.readLoop()

	return p, nil
}

// readLoop reads from the PTY and feeds the terminal state.
func (p *Process) readLoop() {
	buf := make([]byte, 32*1024)
	for {
		n, err := p.ptyFile.Read(buf)
		if n > 0 {
			data := make([]byte, n)
			copy(data, buf[:n])
			p.term.Feed(data)
		}
		if err != nil {
			break
		}
	}

	// Wait for process to finish
	p.exitErr = p.cmd.Wait()
	p.term.Flush()
	close(p.done)
	p.term.CloseSubscribers()
}

// SendInput writes data to the PTY (user input) and captures typed
// commands for the audit trail.
func (p *Process) SendInput(data []byte) error {
	select {
	case <-p.done:
		return runner.ErrSessionClosed
	default:
	}

	p.term.RecordInput(data)

	_, err := p.ptyFile.Write(data)
	return err
}

// Resize changes the PTY and emulated terminal size.
func (p *Process) Resize(rows, cols int) error {
	if err := pty.Setsize(p.ptyFile, &pty.Winsize{
		Rows: uint16(rows),
		Cols: uint16(cols),
	}); err != nil {
		return fmt.Errorf("failed to resize PTY: %w", err)
	}

	p.term.Resize(rows, cols)
	return nil
}

// Stop terminates the session process. Sends SIGTERM, waits 5 seconds,
// then SIGKILL.
func (p *Process) Stop(ctx context.Context) error {
	if p.cmd.Process == nil {
		return nil
	}

	_ = p.cmd.Process.Signal(syscall.SIGTERM)

	select {
	case <-p.done:
		p.cleanup()
		return nil
	case <-ctx.Done():
	case <-time.After(5 * time.Second):
	}

	// Force kill
	_ = p.cmd.Process.Kill()
	<-p.done
	p.cleanup()
	return nil
}

// cleanup releases the PTY file. Safe to call multiple times.
func (p *Process) cleanup() {
	p.cleanupOnce.Do(func() {
		if p.ptyFile != nil {
			_ = p.ptyFile.Close()
		}
	})
}

// Done returns a channel that is closed when the process exits.
func (p *Process) Done() <-chan struct{} {
	return p.done
}

// Status reports the session status derived from the process state.
func (p *Process) Status() models.SessionStatus {
	select {
	case <-p.done:
		return statusForExit(p.exitErr)
	default:
		return models.SessionStatusRunning
	}
}

// StartedAt returns when the process was created.
func (p *Process) StartedAt() time.Time {
	return p.startedAt
}

// Subscribe creates an output subscription for the given subscriber ID.
func (p *Process) Subscribe(id string) chan []byte {
	return p.term.Subscribe(id)
}

// Unsubscribe removes an output subscription.
func (p *Process) Unsubscribe(id string) {
	p.term.Unsubscribe(id)
}

// Screen renders the current terminal screen as ANSI text.
func (p *Process) Screen() string {
	return p.term.Screen()
}

// Entries returns the audit trail captured so far.
func (p *Process) Entries() []models.AuditEntry {
	return p.term.Entries()
}

var _ runner.Handle = (*Process)(nil)
