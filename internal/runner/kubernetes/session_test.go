package kubernetes

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/gamgui-io/gamgui/internal/models"
)

func TestSetStatusDoesNotOverwriteFinalStatus(t *testing.T) {
	s := &Session{
		done:   make(chan struct{}),
		status: models.SessionStatusRunning,
	}

	// Status polling runs while the stream is alive.
	s.setStatus(models.SessionStatusPending)
	assert.Equal(t, models.SessionStatusPending, s.Status())

	s.finalize(models.SessionStatusSucceeded)

	// A phase fetch that was already in flight when the stream ended
	// completes late; its result must not win.
	s.setStatus(models.SessionStatusRunning)
	assert.Equal(t, models.SessionStatusSucceeded, s.Status())
}
