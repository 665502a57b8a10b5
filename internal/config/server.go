package config

import (
	"os"
	"syscall"

	"github.com/gamgui-io/gamgui/internal/models"
)

// LoadServerInfo loads the server connection info from ~/.gamgui/server.yaml.
// Returns nil if the file doesn't exist.
func LoadServerInfo() (*models.ServerInfo, error) {
	path, err := GlobalServerFile()
	if err != nil {
		return nil, err
	}

	if !FileExists(path) {
		return nil, nil
	}

	var info models.ServerInfo
	if err := LoadYAML(path, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// SaveServerInfo saves the server connection info to ~/.gamgui/server.yaml.
func SaveServerInfo(info *models.ServerInfo) error {
	if err := EnsureGlobalDir(); err != nil {
		return err
	}

	path, err := GlobalServerFile()
	if err != nil {
		return err
	}
	return SaveYAML(path, info)
}

// RemoveServerInfo removes the server.yaml file.
func RemoveServerInfo() error {
	path, err := GlobalServerFile()
	if err != nil {
		return err
	}

	if !FileExists(path) {
		return nil
	}
	return os.Remove(path)
}

// RemoveSessionState removes the sessions.yaml file.
func RemoveSessionState() error {
	path, err := GlobalSessionsFile()
	if err != nil {
		return err
	}

	if !FileExists(path) {
		return nil
	}
	return os.Remove(path)
}

// IsServerRunning checks if the server process is still running.
// Returns true if server.yaml exists and the PID is alive.
func IsServerRunning() (bool, *models.ServerInfo, error) {
	info, err := LoadServerInfo()
	if err != nil {
		return false, nil, err
	}
	if info == nil {
		return false, nil, nil
	}

	process, err := os.FindProcess(info.PID)
	if err != nil {
		// On Unix, FindProcess always succeeds
		return false, info, nil
	}

	// Send signal 0 to check if process exists
	err = process.Signal(syscall.Signal(0))
	if err != nil {
		// Process doesn't exist, clean up stale file
		_ = RemoveServerInfo()
		return false, info, nil
	}

	return true, info, nil
}

// LoadSessionState loads persisted sessions from ~/.gamgui/sessions.yaml.
func LoadSessionState() (*models.SessionState, error) {
	path, err := GlobalSessionsFile()
	if err != nil {
		return nil, err
	}
	return LoadYAMLOrDefault(path, models.NewSessionState)
}

// SaveSessionState saves the session state to ~/.gamgui/sessions.yaml.
// The file lists every user's sessions, so it is owner-only.
func SaveSessionState(state *models.SessionState) error {
	path, err := GlobalSessionsFile()
	if err != nil {
		return err
	}
	return SaveYAMLPrivate(path, state)
}
