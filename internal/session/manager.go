// Package session handles session lifecycle management for the server.
package session

import (
	"context"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/gamgui-io/gamgui/internal/config"
	"github.com/gamgui-io/gamgui/internal/models"
	"github.com/gamgui-io/gamgui/internal/runner"
)

const sweepInterval = time.Minute

// Active tracks a session record together with its backend handle.
type Active struct {
	Session *models.Session
	Handle  runner.Handle
}

// Options configures a session manager.
type Options struct {
	Runner runner.Runner

	// MaxAge is how long a session may live before the expiry sweeper
	// stops it.
	MaxAge time.Duration

	// SweepInterval is how often the expiry sweeper runs.
	// Default: 1 minute.
	SweepInterval time.Duration

	// Namespace is recorded on sessions started by the kubernetes backend.
	Namespace string
}

// CreateOptions contains options for creating a session.
type CreateOptions struct {
	Name   string
	UserID string
	Rows   int
	Cols   int
	Env    map[string]string
}

// Manager handles session lifecycle operations.
type Manager struct {
	mu         sync.RWMutex
	sessions   map[string]*Active // keyed by session ID
	runner     runner.Runner
	maxAge     time.Duration
	sweepEvery time.Duration
	ns         string

	done     chan struct{}
	stopOnce sync.Once
}

// NewManager creates a new session manager and starts its expiry sweeper.
func NewManager(opts Options) *Manager {
	sweepEvery := opts.SweepInterval
	if sweepEvery <= 0 {
		sweepEvery = sweepInterval
	}

	m := &Manager{
		sessions:   make(map[string]*Active),
		runner:     opts.Runner,
		maxAge:     opts.MaxAge,
		sweepEvery: sweepEvery,
		ns:         opts.Namespace,
		done:       make(chan struct{}),
	}
	go m.sweepExpired()
	return m
}

// Create starts a new session on the configured backend.
func (m *Manager) Create(ctx context.Context, opts CreateOptions) (*models.Session, error) {
	id := uuid.NewString()

	name := opts.Name
	if name == "" {
		name = "gam-session"
	}

	sess := models.NewSession(id, name, opts.UserID, m.runner.Kind(), m.maxAge)
	if m.runner.Kind() == "kubernetes" {
		sess.PodName = models.PodNameForSession(id)
		sess.PodNamespace = m.ns
	}

	handle, err := m.runner.Start(ctx, runner.StartOptions{
		SessionID: id,
		UserID:    opts.UserID,
		Rows:      opts.Rows,
		Cols:      opts.Cols,
		Env:       opts.Env,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to start session: %w", err)
	}

	sess.SetStatus(models.SessionStatusRunning)

	m.mu.Lock()
	m.sessions[id] = &Active{Session: sess, Handle: handle}
	m.persistStateLocked()
	m.mu.Unlock()

	log.Printf("Session %s started for user %s (%s runner)", id, opts.UserID, m.runner.Kind())

	go m.monitorSession(id, handle)

	return sess, nil
}

// monitorSession waits for a backend session to end, records its audit log,
// and marks the session record terminal. The record stays until deleted.
func (m *Manager) monitorSession(id string, handle runner.Handle) {
	<-handle.Done()

	m.mu.Lock()
	active, ok := m.sessions[id]
	if !ok || active.Handle != handle {
		m.mu.Unlock()
		return
	}

	status := handle.Status()
	active.Session.SetStatus(status)
	m.persistStateLocked()
	m.mu.Unlock()

	log.Printf("Session %s ended (%s)", id, status)

	m.writeAuditLog(active.Session, handle)
}

// writeAuditLog persists the session's captured commands and output.
func (m *Manager) writeAuditLog(sess *models.Session, handle runner.Handle) {
	entries := handle.Entries()
	if len(entries) == 0 {
		return
	}

	entry, err := config.WriteAuditLog(
		sess.ID,
		sess.UserID,
		sess.Runner,
		string(handle.Status()),
		handle.StartedAt(),
		entries,
	)
	if err != nil {
		log.Printf("Failed to write audit log for session %s: %v", sess.ID, err)
		return
	}
	log.Printf("Audit log written: %s", entry.LogID)
}

// Get returns a session record by ID.
func (m *Manager) Get(id string) (*models.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	active, ok := m.sessions[id]
	if !ok {
		return nil, runner.ErrSessionNotFound
	}
	return active.Session, nil
}

// Handle returns the backend handle for a session, used by terminal
// attachments.
func (m *Manager) Handle(id string) (runner.Handle, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	active, ok := m.sessions[id]
	if !ok {
		return nil, runner.ErrSessionNotFound
	}
	return active.Handle, nil
}

// List returns session records, optionally filtered by user ID, newest
// first.
func (m *Manager) List(userID string) []*models.Session {
	m.mu.RLock()
	defer m.mu.RUnlock()

	sessions := make([]*models.Session, 0, len(m.sessions))
	for _, a := range m.sessions {
		if userID != "" && a.Session.UserID != userID {
			continue
		}
		sessions = append(sessions, a.Session)
	}
	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].CreatedAt.After(sessions[j].CreatedAt)
	})
	return sessions
}

// Delete stops a session's backend and removes its record. For the
// kubernetes backend this also deletes the pod.
func (m *Manager) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	active, ok := m.sessions[id]
	if !ok {
		m.mu.Unlock()
		return runner.ErrSessionNotFound
	}
	delete(m.sessions, id)
	m.persistStateLocked()
	m.mu.Unlock()

	// Stop is blocking and may take seconds, do it outside the lock.
	if err := active.Handle.Stop(ctx); err != nil {
		return fmt.Errorf("failed to stop session %s: %w", id, err)
	}
	return nil
}

// ActiveCount returns the number of sessions whose backend is still
// running.
func (m *Manager) ActiveCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	count := 0
	for _, a := range m.sessions {
		if !a.Session.IsTerminal() {
			count++
		}
	}
	return count
}

// StopAll stops all sessions. Used during server shutdown.
func (m *Manager) StopAll(ctx context.Context) {
	m.stopOnce.Do(func() { close(m.done) })

	m.mu.Lock()
	handles := make(map[string]runner.Handle, len(m.sessions))
	for id, a := range m.sessions {
		handles[id] = a.Handle
	}
	m.mu.Unlock()

	for id, h := range handles {
		log.Printf("Stopping session %s", id)
		if err := h.Stop(ctx); err != nil {
			log.Printf("Failed to stop session %s: %v", id, err)
		}
	}
}

// sweepExpired periodically stops sessions past their expiry time.
func (m *Manager) sweepExpired() {
	ticker := time.NewTicker(m.sweepEvery)
	defer ticker.Stop()
	for {
		select {
		case <-m.done:
			return
		case now := <-ticker.C:
			m.mu.RLock()
			var expired []string
			for id, a := range m.sessions {
				if a.Session.Expired(now.UTC()) {
					expired = append(expired, id)
				}
			}
			m.mu.RUnlock()

			for _, id := range expired {
				log.Printf("Session %s expired, stopping", id)
				ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
				if err := m.Delete(ctx, id); err != nil {
					log.Printf("Failed to stop expired session %s: %v", id, err)
				}
				cancel()
			}
		}
	}
}

// persistStateLocked writes the current session records to
// ~/.gamgui/sessions.yaml. Must be called while holding m.mu.
func (m *Manager) persistStateLocked() {
	state := models.NewSessionState()
	for _, a := range m.sessions {
		state.Sessions = append(state.Sessions, a.Session)
	}
	if err := config.SaveSessionState(state); err != nil {
		log.Printf("Failed to persist session state: %v", err)
	}
}
