package config

import (
	"os"
	"strconv"

	"github.com/gamgui-io/gamgui/internal/models"
)

// Environment variables recognized by the server. These match the names the
// deployment scripts and Terraform outputs use.
const (
	EnvProjectID     = "PROJECT_ID"
	EnvK8sNamespace  = "K8S_NAMESPACE"
	EnvGKECluster    = "GKE_CLUSTER_NAME"
	EnvGAMImage      = "GAM_IMAGE"
	EnvMaxSessionAge = "MAX_SESSION_AGE_HOURS"
	EnvPort          = "GAMGUI_PORT"
	EnvRunner        = "GAMGUI_RUNNER"
	EnvSecretsStore  = "GAMGUI_SECRETS_STORE"
)

// ApplyEnv overrides settings fields from the environment.
// Unset variables leave the file values untouched.
func ApplyEnv(s *models.Settings) {
	if v := os.Getenv(EnvProjectID); v != "" {
		s.Secrets.Project = v
	}
	if v := os.Getenv(EnvK8sNamespace); v != "" {
		s.Kubernetes.Namespace = v
	}
	if v := os.Getenv(EnvGKECluster); v != "" {
		s.Kubernetes.Cluster = v
	}
	if v := os.Getenv(EnvGAMImage); v != "" {
		s.Kubernetes.Image = v
	}
	if v := os.Getenv(EnvRunner); v != "" {
		s.Runner = v
	}
	if v := os.Getenv(EnvSecretsStore); v != "" {
		s.Secrets.Store = v
	}
	if v := os.Getenv(EnvMaxSessionAge); v != "" {
		if hours, err := strconv.Atoi(v); err == nil && hours > 0 {
			s.Session.MaxAgeHours = hours
		}
	}
}

// PortFromEnv returns the port from GAMGUI_PORT, or fallback if unset
// or unparsable.
func PortFromEnv(fallback int) int {
	v := os.Getenv(EnvPort)
	if v == "" {
		return fallback
	}
	port, err := strconv.Atoi(v)
	if err != nil || port < 0 || port > 65535 {
		return fallback
	}
	return port
}
