package kubernetes

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	corev1 "k8s.io/api/core/v1"
	"k8s.io/client-go/kubernetes/scheme"
	"k8s.io/client-go/tools/remotecommand"

	"github.com/gamgui-io/gamgui/internal/models"
	"github.com/gamgui-io/gamgui/internal/runner"
	"github.com/gamgui-io/gamgui/internal/runner/shared"
)

type sessionOptions struct {
	Runner  *Runner
	PodName string
	Rows    int
	Cols    int
}

// Session is a pod-backed session handle. Terminal bytes flow over the pod
// exec stream; the pod itself idles until the stream shell starts.
type Session struct {
	runner    *Runner
	podName   string
	term      *shared.Terminal
	stdinW    *io.PipeWriter
	sizeCh    chan remotecommand.TerminalSize
	cancel    context.CancelFunc
	done      chan struct{}
	startedAt time.Time

	statusMu  sync.RWMutex
	status    models.SessionStatus
	finalized bool

	stopOnce sync.Once
	exitErr  error
}

// newSession attaches an exec stream to a running pod.
func newSession(opts sessionOptions) (*Session, error) {
	term := shared.NewTerminal(opts.Rows, opts.Cols)
	rows, cols := term.Size()

	stdinR, stdinW := io.Pipe()
	ctx, cancel := context.WithCancel(context.Background())

	s := &Session{
		runner:    opts.Runner,
		podName:   opts.PodName,
		term:      term,
		stdinW:    stdinW,
		sizeCh:    make(chan remotecommand.TerminalSize, 4),
		cancel:    cancel,
		done:      make(chan struct{}),
		startedAt: time.Now().UTC(),
		status:    models.SessionStatusRunning,
	}
	// Initial size for the TTY
	s.sizeCh <- remotecommand.TerminalSize{Width: uint16(cols), Height: uint16(rows)}

	req := opts.Runner.client.CoreV1().RESTClient().Post().
		Resource("pods").
		Name(opts.PodName).
		Namespace(opts.Runner.namespace).
		SubResource("exec").
		VersionedParams(&corev1.PodExecOptions{
			Container: containerName,
			Command:   []string{"/bin/sh"},
			Stdin:     true,
			Stdout:    true,
			Stderr:    false,
			TTY:       true,
		}, scheme.ParameterCodec)

	exec, err := remotecommand.NewSPDYExecutor(opts.Runner.restConfig, "POST", req.URL())
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to create exec stream: %w", err)
	}

	go s.stream(ctx, exec, stdinR)
	go s.pollStatus(ctx)

	return s, nil
}

// stream runs the exec stream until it ends, then finalizes the session.
func (s *Session) stream(ctx context.Context, exec remotecommand.Executor, stdin io.Reader) {
	err := exec.StreamWithContext(ctx, remotecommand.StreamOptions{
		Stdin:             stdin,
		Stdout:            termWriter{s.term},
		Tty:               true,
		TerminalSizeQueue: s,
	})

	s.exitErr = err
	s.term.Flush()

	final := models.SessionStatusSucceeded
	if err != nil && !errors.Is(err, context.Canceled) {
		final = models.SessionStatusFailed
	}
	s.finalize(final)

	close(s.done)
	s.term.CloseSubscribers()
}

// pollStatus mirrors the pod phase into the cached session status while the
// stream is alive. Session records are mutated by this polling, per the
// pod-as-source-of-truth model.
func (s *Session) pollStatus(ctx context.Context) {
	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.done:
			return
		case <-ticker.C:
			s.setStatus(s.runner.podPhase(ctx, s.podName))
		}
	}
}

// setStatus records a polled phase. A phase fetch still in flight when the
// stream finalizes must not overwrite the terminal status.
func (s *Session) setStatus(status models.SessionStatus) {
	s.statusMu.Lock()
	if !s.finalized {
		s.status = status
	}
	s.statusMu.Unlock()
}

// finalize records the terminal status once the exec stream has ended.
func (s *Session) finalize(status models.SessionStatus) {
	s.statusMu.Lock()
	s.status = status
	s.finalized = true
	s.statusMu.Unlock()
}

// Next implements remotecommand.TerminalSizeQueue.
func (s *Session) Next() *remotecommand.TerminalSize {
	select {
	case size := <-s.sizeCh:
		return &size
	case <-s.done:
		return nil
	}
}

// SendInput writes terminal input to the exec stream.
func (s *Session) SendInput(data []byte) error {
	select {
	case <-s.done:
		return runner.ErrSessionClosed
	default:
	}

	s.term.RecordInput(data)

	_, err := s.stdinW.Write(data)
	return err
}

// Resize propagates new dimensions to the remote TTY.
func (s *Session) Resize(rows, cols int) error {
	s.term.Resize(rows, cols)

	select {
	case s.sizeCh <- remotecommand.TerminalSize{Width: uint16(cols), Height: uint16(rows)}:
	default:
		// Queue full: the remote end is behind; the latest queued size wins
	}
	return nil
}

// Subscribe creates an output subscription for the given subscriber ID.
func (s *Session) Subscribe(id string) chan []byte {
	return s.term.Subscribe(id)
}

// Unsubscribe removes an output subscription.
func (s *Session) Unsubscribe(id string) {
	s.term.Unsubscribe(id)
}

// Screen renders the current terminal screen as ANSI text.
func (s *Session) Screen() string {
	return s.term.Screen()
}

// Entries returns the audit trail captured so far.
func (s *Session) Entries() []models.AuditEntry {
	return s.term.Entries()
}

// Status reports the cached session status.
func (s *Session) Status() models.SessionStatus {
	s.statusMu.RLock()
	defer s.statusMu.RUnlock()
	return s.status
}

// StartedAt returns when the exec stream was attached.
func (s *Session) StartedAt() time.Time {
	return s.startedAt
}

// Done returns a channel that is closed when the session ends.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Stop tears down the exec stream and deletes the session pod.
func (s *Session) Stop(ctx context.Context) error {
	s.stopOnce.Do(func() {
		_ = s.stdinW.Close()
		s.cancel()
		s.runner.deletePod(s.podName)
	})

	select {
	case <-s.done:
	case <-ctx.Done():
		return ctx.Err()
	}
	return nil
}

// termWriter feeds exec-stream output into the shared terminal state.
type termWriter struct {
	t *shared.Terminal
}

func (w termWriter) Write(p []byte) (int, error) {
	data := make([]byte, len(p))
	copy(data, p)
	w.t.Feed(data)
	return len(p), nil
}

var _ runner.Handle = (*Session)(nil)
