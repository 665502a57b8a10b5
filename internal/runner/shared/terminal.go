// Package shared holds terminal state common to all runner backends:
// vt10x screen emulation, output fan-out to subscribers, and audit capture.
package shared

import (
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/hinshun/vt10x"

	"github.com/gamgui-io/gamgui/internal/models"
)

// maxAuditEntries caps the in-memory audit trail per session.
const maxAuditEntries = 10000

// Terminal tracks the emulated screen, subscribers, and audit trail of a
// running session. Backends feed it PTY/exec-stream output and user input.
type Terminal struct {
	// mu guards vt and the dimensions. Feed writes from the backend read
	// loop while Screen reads cells from attach paths.
	mu         sync.RWMutex
	vt         vt10x.Terminal
	rows, cols int

	subMu sync.RWMutex
	subs  map[string]chan []byte

	auditMu sync.Mutex
	entries []models.AuditEntry
	lineBuf strings.Builder // accumulates partial output lines
	cmdBuf  strings.Builder // accumulates typed input until Enter
}

// NewTerminal creates terminal state with the given dimensions.
// Non-positive dimensions default to 24x80.
func NewTerminal(rows, cols int) *Terminal {
	if rows <= 0 {
		rows = 24
	}
	if cols <= 0 {
		cols = 80
	}
	return &Terminal{
		vt:      vt10x.New(vt10x.WithSize(cols, rows)),
		rows:    rows,
		cols:    cols,
		subs:    make(map[string]chan []byte),
		entries: make([]models.AuditEntry, 0, 256),
	}
}

// Feed processes session output: broadcasts it to subscribers, updates
// the screen emulation, and records audit entries per complete line.
func (t *Terminal) Feed(data []byte) {
	t.broadcast(data)

	t.mu.Lock()
	t.vt.Write(data)
	t.mu.Unlock()

	t.recordOutput(data)
}

// Resize updates the emulated terminal dimensions.
func (t *Terminal) Resize(rows, cols int) {
	t.mu.Lock()
	t.rows = rows
	t.cols = cols
	t.vt.Resize(cols, rows)
	t.mu.Unlock()
}

// Size returns the current terminal dimensions.
func (t *Terminal) Size() (rows, cols int) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.rows, t.cols
}

// Screen renders the current screen as ANSI-colored text, used to replay
// state to a freshly attached client.
func (t *Terminal) Screen() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return RenderScreenANSI(t.vt, t.rows, t.cols)
}

// Subscribe creates a buffered output subscription for the given
// subscriber ID.
func (t *Terminal) Subscribe(id string) chan []byte {
	t.subMu.Lock()
	defer t.subMu.Unlock()

	ch := make(chan []byte, 256)
	t.subs[id] = ch
	return ch
}

// Unsubscribe removes and closes an output subscription.
func (t *Terminal) Unsubscribe(id string) {
	t.subMu.Lock()
	defer t.subMu.Unlock()

	if ch, ok := t.subs[id]; ok {
		close(ch)
		delete(t.subs, id)
	}
}

// CloseSubscribers closes all remaining subscriptions. Called by backends
// when the session ends.
func (t *Terminal) CloseSubscribers() {
	t.subMu.Lock()
	defer t.subMu.Unlock()

	for id, ch := range t.subs {
		close(ch)
		delete(t.subs, id)
	}
}

// broadcast sends raw data to all subscribers. Non-blocking: drops if
// channel full.
func (t *Terminal) broadcast(data []byte) {
	t.subMu.RLock()
	defer t.subMu.RUnlock()

	for _, ch := range t.subs {
		select {
		case ch <- data:
		default:
			// Drop if subscriber can't keep up
		}
	}
}

// RecordInput accumulates typed bytes and emits a command entry per line.
// Control bytes other than Enter are ignored; this captures what the user
// ran, not every cursor movement.
func (t *Terminal) RecordInput(data []byte) {
	t.auditMu.Lock()
	defer t.auditMu.Unlock()

	for _, b := range data {
		switch {
		case b == '\r' || b == '\n':
			cmd := strings.TrimSpace(t.cmdBuf.String())
			t.cmdBuf.Reset()
			if cmd != "" {
				t.appendEntryLocked(models.AuditEntryCommand, cmd)
			}
		case b == 0x7f || b == '\b':
			// Backspace: drop the last buffered rune, not byte, so
			// multibyte input stays valid UTF-8
			s := t.cmdBuf.String()
			t.cmdBuf.Reset()
			if len(s) > 0 {
				_, size := utf8.DecodeLastRuneInString(s)
				t.cmdBuf.WriteString(s[:len(s)-size])
			}
		case b >= 0x20:
			t.cmdBuf.WriteByte(b)
		}
	}
}

// recordOutput accumulates output and emits an entry per complete line.
func (t *Terminal) recordOutput(data []byte) {
	t.auditMu.Lock()
	defer t.auditMu.Unlock()

	t.lineBuf.Write(data)

	content := t.lineBuf.String()
	lines := strings.Split(content, "\n")

	// Keep the last incomplete line in the buffer
	t.lineBuf.Reset()
	t.lineBuf.WriteString(lines[len(lines)-1])
	lines = lines[:len(lines)-1]

	for _, line := range lines {
		line = strings.TrimRight(line, "\r")
		if line == "" {
			continue
		}
		t.appendEntryLocked(models.AuditEntryOutput, line)
	}
}

// Flush records any partial output line. Backends call it once when the
// session ends.
func (t *Terminal) Flush() {
	t.auditMu.Lock()
	defer t.auditMu.Unlock()

	if rest := strings.TrimRight(t.lineBuf.String(), "\r"); rest != "" {
		t.appendEntryLocked(models.AuditEntryOutput, rest)
	}
	t.lineBuf.Reset()
}

// Entries returns a copy of the audit trail captured so far.
func (t *Terminal) Entries() []models.AuditEntry {
	t.auditMu.Lock()
	defer t.auditMu.Unlock()

	out := make([]models.AuditEntry, len(t.entries))
	copy(out, t.entries)
	return out
}

func (t *Terminal) appendEntryLocked(typ models.AuditEntryType, payload string) {
	if len(t.entries) >= maxAuditEntries {
		return
	}
	t.entries = append(t.entries, models.AuditEntry{
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Type:      typ,
		Payload:   payload,
	})
}
