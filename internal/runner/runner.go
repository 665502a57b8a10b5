// Package runner defines the execution backends that host GAM sessions.
// A backend turns a session request into something that looks like a
// terminal: a local PTY process in development, a pod exec stream on GKE.
package runner

import (
	"context"
	"errors"
	"time"

	"github.com/gamgui-io/gamgui/internal/models"
)

// Errors shared by runner backends.
var (
	// ErrNotAvailable is returned when a backend cannot reach its runtime.
	ErrNotAvailable = errors.New("runner not available")

	// ErrSessionNotFound is returned when no backend session exists for an ID.
	ErrSessionNotFound = errors.New("session not found")

	// ErrSessionClosed is returned when writing to a finished session.
	ErrSessionClosed = errors.New("session closed")
)

// StartOptions contains options for starting a backend session.
type StartOptions struct {
	SessionID string
	UserID    string
	Rows      int
	Cols      int

	// Env is extra environment for the session process/container.
	Env map[string]string
}

// Handle is a running backend session.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Done: the returned channel is closed exactly once, when the session ends.
// - SendInput after the session ended returns ErrSessionClosed.
type Handle interface {
	// SendInput writes terminal input (user keystrokes) to the session.
	SendInput(data []byte) error

	// Resize changes the terminal dimensions.
	Resize(rows, cols int) error

	// Subscribe creates a buffered output subscription for the given
	// subscriber ID. Slow subscribers drop chunks rather than block.
	Subscribe(id string) chan []byte

	// Unsubscribe removes and closes a subscription.
	Unsubscribe(id string)

	// Screen returns the current terminal screen rendered as ANSI text,
	// used to replay state to a freshly attached client.
	Screen() string

	// Status reports the backend's view of the session.
	Status() models.SessionStatus

	// Entries returns the audit trail captured so far (commands + output).
	Entries() []models.AuditEntry

	// StartedAt returns when the backend session was created.
	StartedAt() time.Time

	// Done returns a channel that is closed when the session ends.
	Done() <-chan struct{}

	// Stop terminates the session and releases its resources.
	Stop(ctx context.Context) error
}

// Runner starts backend sessions.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Context: Start must honor cancellation and deadlines.
type Runner interface {
	// Kind identifies the backend ("local" or "kubernetes").
	Kind() string

	// Start creates a new backend session.
	Start(ctx context.Context, opts StartOptions) (Handle, error)
}
