// Package config handles configuration loading, saving, and path management.
package config

import (
	"os"
	"path/filepath"
)

const (
	// GlobalDirName is the name of the global GAMGUI directory.
	GlobalDirName = ".gamgui"

	// SecretsDirName is the name of the local credential store directory.
	SecretsDirName = "secrets"

	// AuditDirName is the name of the audit logs directory.
	AuditDirName = "audit"
)

// File names
const (
	ServerFileName   = "server.yaml"
	SettingsFileName = "settings.yaml"
	SessionsFileName = "sessions.yaml"
)

// GlobalDir returns the path to the global GAMGUI directory (~/.gamgui/).
// GAMGUI_HOME overrides the default, which containerized deployments use to
// point at a mounted volume.
func GlobalDir() (string, error) {
	if dir := os.Getenv("GAMGUI_HOME"); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, GlobalDirName), nil
}

// GlobalServerFile returns the path to the server.yaml file.
func GlobalServerFile() (string, error) {
	dir, err := GlobalDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, ServerFileName), nil
}

// GlobalSettingsFile returns the path to the settings.yaml file.
func GlobalSettingsFile() (string, error) {
	dir, err := GlobalDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, SettingsFileName), nil
}

// GlobalSessionsFile returns the path to the sessions.yaml file.
func GlobalSessionsFile() (string, error) {
	dir, err := GlobalDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, SessionsFileName), nil
}

// GlobalSecretsDir returns the path to the local credential store directory.
func GlobalSecretsDir() (string, error) {
	dir, err := GlobalDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, SecretsDirName), nil
}

// GlobalAuditDir returns the path to the audit logs directory.
func GlobalAuditDir() (string, error) {
	dir, err := GlobalDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, AuditDirName), nil
}

// EnsureGlobalDir creates the global GAMGUI directory if it doesn't exist.
func EnsureGlobalDir() error {
	dir, err := GlobalDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0755)
}

// EnsureSecretsDir creates the local credential store directory if it doesn't exist.
// Credentials get a tighter mode than the rest of the tree.
func EnsureSecretsDir() error {
	dir, err := GlobalSecretsDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0700)
}

// EnsureAuditDir creates the audit logs directory if it doesn't exist.
func EnsureAuditDir() error {
	dir, err := GlobalAuditDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0755)
}
