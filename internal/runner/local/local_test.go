package local

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gamgui-io/gamgui/internal/models"
	"github.com/gamgui-io/gamgui/internal/runner"
)

func TestStatusForExit(t *testing.T) {
	assert.Equal(t, models.SessionStatusSucceeded, statusForExit(nil))
	assert.Equal(t, models.SessionStatusFailed, statusForExit(errors.New("exit status 1")))
}

func TestResolveCommandMissing(t *testing.T) {
	r := New(Config{Command: "/no/such/binary-xyz"})
	_, err := r.resolveCommand()
	assert.Error(t, err)
}

func TestResolveCommandFallsBackToShell(t *testing.T) {
	r := New(Config{})
	path, err := r.resolveCommand()
	require.NoError(t, err)
	assert.NotEmpty(t, path)
}

func startShellSession(t *testing.T) runner.Handle {
	t.Helper()

	r := New(Config{Command: "/bin/sh"})
	handle, err := r.Start(context.Background(), runner.StartOptions{
		SessionID: "test-session",
		Rows:      24,
		Cols:      80,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = handle.Stop(ctx)
	})
	return handle
}

func TestSessionEchoRoundTrip(t *testing.T) {
	handle := startShellSession(t)
	sub := handle.Subscribe("test")
	defer handle.Unsubscribe("test")

	require.NoError(t, handle.SendInput([]byte("echo gamgui-ok\n")))

	deadline := time.After(10 * time.Second)
	var output strings.Builder
	for !strings.Contains(output.String(), "gamgui-ok") {
		select {
		case chunk, ok := <-sub:
			if !ok {
				t.Fatalf("subscription closed before output arrived: %q", output.String())
			}
			output.Write(chunk)
		case <-deadline:
			t.Fatalf("timed out waiting for echo output, got: %q", output.String())
		}
	}
}

func TestSessionStop(t *testing.T) {
	handle := startShellSession(t)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	require.NoError(t, handle.Stop(ctx))

	select {
	case <-handle.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("session did not finish after Stop")
	}

	assert.True(t, handle.Status() == models.SessionStatusSucceeded ||
		handle.Status() == models.SessionStatusFailed)

	assert.ErrorIs(t, handle.SendInput([]byte("x")), runner.ErrSessionClosed)
}

func TestSessionExitRecordsAudit(t *testing.T) {
	handle := startShellSession(t)

	require.NoError(t, handle.SendInput([]byte("echo audit-line\n")))
	require.NoError(t, handle.SendInput([]byte("exit\n")))

	select {
	case <-handle.Done():
	case <-time.After(10 * time.Second):
		t.Fatal("session did not exit")
	}

	var commands []string
	for _, e := range handle.Entries() {
		if e.Type == models.AuditEntryCommand {
			commands = append(commands, e.Payload)
		}
	}
	assert.Contains(t, commands, "echo audit-line")
	assert.Contains(t, commands, "exit")
}

func TestResize(t *testing.T) {
	handle := startShellSession(t)
	assert.NoError(t, handle.Resize(40, 132))
}
