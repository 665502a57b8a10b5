package models

import "time"

// ServerInfo represents the server connection information.
// This corresponds to ~/.gamgui/server.yaml.
type ServerInfo struct {
	Version   int       `yaml:"version"`
	Host      string    `yaml:"host"`
	Port      int       `yaml:"port"`
	PID       int       `yaml:"pid"`
	StartedAt time.Time `yaml:"started_at"`
}

// NewServerInfo creates a new server info with current values.
func NewServerInfo(host string, port, pid int) *ServerInfo {
	return &ServerInfo{
		Version:   1,
		Host:      host,
		Port:      port,
		PID:       pid,
		StartedAt: time.Now().UTC(),
	}
}
