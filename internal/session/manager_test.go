package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gamgui-io/gamgui/internal/models"
	"github.com/gamgui-io/gamgui/internal/runner"
)

type fakeHandle struct {
	mu      sync.Mutex
	status  models.SessionStatus
	entries []models.AuditEntry
	started time.Time
	done    chan struct{}
	once    sync.Once
	stopped bool
}

func newFakeHandle() *fakeHandle {
	return &fakeHandle{
		status:  models.SessionStatusRunning,
		started: time.Now().UTC(),
		done:    make(chan struct{}),
	}
}

func (h *fakeHandle) SendInput(data []byte) error {
	select {
	case <-h.done:
		return runner.ErrSessionClosed
	default:
		return nil
	}
}

func (h *fakeHandle) Resize(rows, cols int) error    { return nil }
func (h *fakeHandle) Subscribe(id string) chan []byte { return make(chan []byte, 1) }
func (h *fakeHandle) Unsubscribe(id string)          {}
func (h *fakeHandle) Screen() string                 { return "" }

func (h *fakeHandle) Status() models.SessionStatus {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.status
}

func (h *fakeHandle) Entries() []models.AuditEntry {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.entries
}

func (h *fakeHandle) StartedAt() time.Time    { return h.started }
func (h *fakeHandle) Done() <-chan struct{}   { return h.done }

func (h *fakeHandle) Stop(ctx context.Context) error {
	h.finish(models.SessionStatusSucceeded)
	h.mu.Lock()
	h.stopped = true
	h.mu.Unlock()
	return nil
}

func (h *fakeHandle) finish(status models.SessionStatus) {
	h.mu.Lock()
	h.status = status
	h.mu.Unlock()
	h.once.Do(func() { close(h.done) })
}

type fakeRunner struct {
	mu      sync.Mutex
	kind    string
	handles map[string]*fakeHandle
}

func newFakeRunner(kind string) *fakeRunner {
	return &fakeRunner{kind: kind, handles: make(map[string]*fakeHandle)}
}

func (r *fakeRunner) Kind() string { return r.kind }

func (r *fakeRunner) Start(ctx context.Context, opts runner.StartOptions) (runner.Handle, error) {
	h := newFakeHandle()
	r.mu.Lock()
	r.handles[opts.SessionID] = h
	r.mu.Unlock()
	return h, nil
}

func (r *fakeRunner) handle(sessionID string) *fakeHandle {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.handles[sessionID]
}

func newTestManager(t *testing.T, kind string) (*Manager, *fakeRunner) {
	t.Helper()
	t.Setenv("GAMGUI_HOME", t.TempDir())

	fr := newFakeRunner(kind)
	m := NewManager(Options{Runner: fr, MaxAge: time.Hour, Namespace: "gamgui"})
	t.Cleanup(func() { m.StopAll(context.Background()) })
	return m, fr
}

func TestManagerCreate(t *testing.T) {
	m, _ := newTestManager(t, "local")

	sess, err := m.Create(context.Background(), CreateOptions{Name: "audit run", UserID: "alice"})
	require.NoError(t, err)

	assert.NotEmpty(t, sess.ID)
	assert.Equal(t, "audit run", sess.Name)
	assert.Equal(t, "alice", sess.UserID)
	assert.Equal(t, models.SessionStatusRunning, sess.Status)
	assert.Empty(t, sess.PodName)

	got, err := m.Get(sess.ID)
	require.NoError(t, err)
	assert.Equal(t, sess.ID, got.ID)
}

func TestManagerCreateKubernetesRecordsPod(t *testing.T) {
	m, _ := newTestManager(t, "kubernetes")

	sess, err := m.Create(context.Background(), CreateOptions{UserID: "alice"})
	require.NoError(t, err)

	assert.Equal(t, models.PodNameForSession(sess.ID), sess.PodName)
	assert.Equal(t, "gamgui", sess.PodNamespace)
}

func TestManagerGetUnknown(t *testing.T) {
	m, _ := newTestManager(t, "local")

	_, err := m.Get("nope")
	assert.ErrorIs(t, err, runner.ErrSessionNotFound)

	_, err = m.Handle("nope")
	assert.ErrorIs(t, err, runner.ErrSessionNotFound)
}

func TestManagerListFiltersByUser(t *testing.T) {
	m, _ := newTestManager(t, "local")

	_, err := m.Create(context.Background(), CreateOptions{UserID: "alice"})
	require.NoError(t, err)
	_, err = m.Create(context.Background(), CreateOptions{UserID: "bob"})
	require.NoError(t, err)

	assert.Len(t, m.List(""), 2)

	alice := m.List("alice")
	require.Len(t, alice, 1)
	assert.Equal(t, "alice", alice[0].UserID)
}

func TestManagerDeleteRemovesRecord(t *testing.T) {
	m, fr := newTestManager(t, "kubernetes")

	sess, err := m.Create(context.Background(), CreateOptions{UserID: "alice"})
	require.NoError(t, err)

	require.NoError(t, m.Delete(context.Background(), sess.ID))

	_, err = m.Get(sess.ID)
	assert.ErrorIs(t, err, runner.ErrSessionNotFound)

	h := fr.handle(sess.ID)
	require.NotNil(t, h)
	h.mu.Lock()
	stopped := h.stopped
	h.mu.Unlock()
	assert.True(t, stopped)

	assert.ErrorIs(t, m.Delete(context.Background(), sess.ID), runner.ErrSessionNotFound)
}

func TestManagerSweepStopsExpiredSessions(t *testing.T) {
	t.Setenv("GAMGUI_HOME", t.TempDir())

	fr := newFakeRunner("local")
	// Negative max age expires sessions the moment they are created.
	m := NewManager(Options{Runner: fr, MaxAge: -time.Minute, SweepInterval: 10 * time.Millisecond})
	t.Cleanup(func() { m.StopAll(context.Background()) })

	sess, err := m.Create(context.Background(), CreateOptions{UserID: "alice"})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		_, err := m.Get(sess.ID)
		return err != nil
	}, 2*time.Second, 10*time.Millisecond)

	h := fr.handle(sess.ID)
	require.NotNil(t, h)
	h.mu.Lock()
	stopped := h.stopped
	h.mu.Unlock()
	assert.True(t, stopped)
}

func TestManagerMonitorMarksTerminal(t *testing.T) {
	m, fr := newTestManager(t, "local")

	sess, err := m.Create(context.Background(), CreateOptions{UserID: "alice"})
	require.NoError(t, err)

	fr.handle(sess.ID).finish(models.SessionStatusFailed)

	require.Eventually(t, func() bool {
		got, err := m.Get(sess.ID)
		return err == nil && got.Status == models.SessionStatusFailed
	}, 2*time.Second, 10*time.Millisecond)

	// Record survives backend exit until explicitly deleted.
	assert.Equal(t, 0, m.ActiveCount())
	assert.Len(t, m.List("alice"), 1)
}
