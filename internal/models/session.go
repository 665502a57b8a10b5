package models

import (
	"strings"
	"time"
)

// SessionStatus represents the status of a session.
type SessionStatus string

const (
	SessionStatusPending   SessionStatus = "Pending"
	SessionStatusRunning   SessionStatus = "Running"
	SessionStatusSucceeded SessionStatus = "Succeeded"
	SessionStatusFailed    SessionStatus = "Failed"
	SessionStatusUnknown   SessionStatus = "Unknown"
)

// Session represents a user-initiated execution context, typically backed by
// a Kubernetes pod. This corresponds to entries in ~/.gamgui/sessions.yaml.
type Session struct {
	Version      int           `yaml:"version" json:"-"`
	ID           string        `yaml:"id" json:"id"`
	Name         string        `yaml:"name" json:"name"`
	UserID       string        `yaml:"user_id" json:"userId"`
	Status       SessionStatus `yaml:"status" json:"status"`
	Runner       string        `yaml:"runner" json:"runner"` // "local" | "kubernetes"
	PodName      string        `yaml:"pod_name,omitempty" json:"podName,omitempty"`
	PodNamespace string        `yaml:"pod_namespace,omitempty" json:"podNamespace,omitempty"`
	CreatedAt    time.Time     `yaml:"created_at" json:"createdAt"`
	UpdatedAt    time.Time     `yaml:"updated_at" json:"updatedAt"`
	ExpiresAt    time.Time     `yaml:"expires_at" json:"expiresAt"`
}

// NewSession creates a new session in Pending state.
func NewSession(id, name, userID, runner string, maxAge time.Duration) *Session {
	now := time.Now().UTC()
	return &Session{
		Version:   1,
		ID:        id,
		Name:      name,
		UserID:    userID,
		Status:    SessionStatusPending,
		Runner:    runner,
		CreatedAt: now,
		UpdatedAt: now,
		ExpiresAt: now.Add(maxAge),
	}
}

// PodNameForSession derives the pod name from the session ID prefix.
// Session IDs are UUIDs; the first 8 characters are unique enough per
// namespace and keep pod names well under the DNS label limit.
func PodNameForSession(sessionID string) string {
	id := strings.ToLower(sessionID)
	if len(id) > 8 {
		id = id[:8]
	}
	return "gam-" + id
}

// IsTerminal returns true if the session has reached a final state.
func (s *Session) IsTerminal() bool {
	return s.Status == SessionStatusSucceeded || s.Status == SessionStatusFailed
}

// Expired returns true if the session is past its expiry time.
func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && now.After(s.ExpiresAt)
}

// SetStatus updates the status and the updated timestamp.
func (s *Session) SetStatus(status SessionStatus) {
	s.Status = status
	s.UpdatedAt = time.Now().UTC()
}

// SessionState represents running sessions persisted across restarts.
// This corresponds to ~/.gamgui/sessions.yaml.
type SessionState struct {
	Version  int        `yaml:"version"`
	Sessions []*Session `yaml:"sessions"`
}

// NewSessionState creates an empty session state.
func NewSessionState() *SessionState {
	return &SessionState{Version: 1, Sessions: []*Session{}}
}
