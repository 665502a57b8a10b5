package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPodNameForSession(t *testing.T) {
	tests := []struct {
		name      string
		sessionID string
		expected  string
	}{
		{"uuid", "a1b2c3d4-e5f6-7890-1234-567890abcdef", "gam-a1b2c3d4"},
		{"uppercase uuid", "A1B2C3D4-E5F6-7890-1234-567890ABCDEF", "gam-a1b2c3d4"},
		{"short id", "abc", "gam-abc"},
		{"exactly eight", "12345678", "gam-12345678"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, PodNameForSession(tt.sessionID))
		})
	}
}

func TestPodNameDeterministic(t *testing.T) {
	id := "f00dcafe-0000-1111-2222-333344445555"
	assert.Equal(t, PodNameForSession(id), PodNameForSession(id))
}

func TestNewSession(t *testing.T) {
	s := NewSession("id-1", "audit", "alice", "kubernetes", 2*time.Hour)

	assert.Equal(t, SessionStatusPending, s.Status)
	assert.Equal(t, "alice", s.UserID)
	assert.Equal(t, "kubernetes", s.Runner)
	assert.WithinDuration(t, s.CreatedAt.Add(2*time.Hour), s.ExpiresAt, time.Second)
	assert.False(t, s.IsTerminal())
}

func TestSessionExpired(t *testing.T) {
	s := NewSession("id-1", "", "alice", "local", time.Hour)

	assert.False(t, s.Expired(time.Now().UTC()))
	assert.True(t, s.Expired(time.Now().UTC().Add(2*time.Hour)))
}

func TestSessionSetStatus(t *testing.T) {
	s := NewSession("id-1", "", "alice", "local", time.Hour)
	before := s.UpdatedAt

	time.Sleep(time.Millisecond)
	s.SetStatus(SessionStatusSucceeded)

	assert.Equal(t, SessionStatusSucceeded, s.Status)
	assert.True(t, s.UpdatedAt.After(before))
	assert.True(t, s.IsTerminal())
}
