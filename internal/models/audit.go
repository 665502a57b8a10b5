package models

// AuditEntryType tags an audit entry as a command or its output.
type AuditEntryType string

const (
	AuditEntryCommand AuditEntryType = "command"
	AuditEntryOutput  AuditEntryType = "output"
)

// AuditEntry is one line of a session's audit trail.
type AuditEntry struct {
	Timestamp string         `json:"timestamp"`
	Type      AuditEntryType `json:"type"`
	Payload   string         `json:"payload"`
}

// AuditLog represents metadata for a single session audit log file.
type AuditLog struct {
	LogID     string `yaml:"log_id" json:"logId"`
	SessionID string `yaml:"session_id" json:"sessionId"`
	UserID    string `yaml:"user_id" json:"userId"`
	Runner    string `yaml:"runner" json:"runner"`
	StartedAt string `yaml:"started_at" json:"startedAt"`
	EndedAt   string `yaml:"ended_at" json:"endedAt"`
	Status    string `yaml:"status" json:"status"`
}
