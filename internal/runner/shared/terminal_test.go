package shared

import (
	"sync"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gamgui-io/gamgui/internal/models"
)

func TestNewTerminalDefaults(t *testing.T) {
	term := NewTerminal(0, -1)
	rows, cols := term.Size()
	assert.Equal(t, 24, rows)
	assert.Equal(t, 80, cols)

	term = NewTerminal(50, 120)
	rows, cols = term.Size()
	assert.Equal(t, 50, rows)
	assert.Equal(t, 120, cols)
}

func TestFeedBroadcastsToSubscribers(t *testing.T) {
	term := NewTerminal(24, 80)
	a := term.Subscribe("a")
	b := term.Subscribe("b")

	term.Feed([]byte("hello"))

	assert.Equal(t, "hello", string(<-a))
	assert.Equal(t, "hello", string(<-b))
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	term := NewTerminal(24, 80)
	ch := term.Subscribe("a")
	term.Unsubscribe("a")

	_, open := <-ch
	assert.False(t, open)

	// Feeding after unsubscribe must not panic.
	term.Feed([]byte("more"))
}

func TestSlowSubscriberDropsInsteadOfBlocking(t *testing.T) {
	term := NewTerminal(24, 80)
	term.Subscribe("slow") // never drained

	for i := 0; i < 1000; i++ {
		term.Feed([]byte("x\n"))
	}
	// Reaching here at all means broadcast never blocked.
}

func TestRecordInputCapturesCommands(t *testing.T) {
	term := NewTerminal(24, 80)

	term.RecordInput([]byte("gam info domain\r"))
	term.RecordInput([]byte("gam print users"))
	term.RecordInput([]byte("\r"))

	entries := term.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, models.AuditEntryCommand, entries[0].Type)
	assert.Equal(t, "gam info domain", entries[0].Payload)
	assert.Equal(t, "gam print users", entries[1].Payload)
}

func TestRecordInputBackspace(t *testing.T) {
	term := NewTerminal(24, 80)

	term.RecordInput([]byte("gam xx\x7f\x7finfo\r"))

	entries := term.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, "gam info", entries[0].Payload)
}

func TestRecordInputBackspaceMultibyte(t *testing.T) {
	term := NewTerminal(24, 80)

	// One backspace erases the whole rune, leaving valid UTF-8.
	term.RecordInput([]byte("gam info café\x7f\r"))

	entries := term.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, "gam info caf", entries[0].Payload)
	assert.True(t, utf8.ValidString(entries[0].Payload))
}

func TestRecordInputIgnoresControlBytes(t *testing.T) {
	term := NewTerminal(24, 80)

	// Control bytes and a bare Enter produce no command entries.
	term.RecordInput([]byte{0x1b, '\t', 0x03})
	term.RecordInput([]byte("\r"))

	assert.Empty(t, term.Entries())
}

func TestOutputRecordedPerLine(t *testing.T) {
	term := NewTerminal(24, 80)

	term.Feed([]byte("line one\r\nline "))
	term.Feed([]byte("two\r\npartial"))

	entries := term.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, models.AuditEntryOutput, entries[0].Type)
	assert.Equal(t, "line one", entries[0].Payload)
	assert.Equal(t, "line two", entries[1].Payload)

	term.Flush()
	entries = term.Entries()
	require.Len(t, entries, 3)
	assert.Equal(t, "partial", entries[2].Payload)
}

func TestScreenShowsFedOutput(t *testing.T) {
	term := NewTerminal(24, 80)
	term.Feed([]byte("hello world"))

	assert.Contains(t, term.Screen(), "hello world")
}

// A backend keeps feeding output while clients join and render the screen.
// Run with -race: Feed mutates the vt10x state that Screen reads.
func TestScreenConcurrentWithFeed(t *testing.T) {
	term := NewTerminal(24, 80)

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		for i := 0; i < 500; i++ {
			term.Feed([]byte("some output that scrolls the screen\r\n"))
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			_ = term.Screen()
		}
	}()

	term.Resize(30, 100)
	wg.Wait()

	assert.Contains(t, term.Screen(), "some output")
}

func TestResize(t *testing.T) {
	term := NewTerminal(24, 80)
	term.Resize(40, 132)

	rows, cols := term.Size()
	assert.Equal(t, 40, rows)
	assert.Equal(t, 132, cols)
}
