package server

import (
	"net/http"
	"time"

	"github.com/gamgui-io/gamgui/internal/buildinfo"
)

type healthInfoResponse struct {
	Status      string `json:"status"`
	Version     string `json:"version"`
	CommitHash  string `json:"commitHash"`
	Runner      string `json:"runner"`
	Project     string `json:"project,omitempty"`
	Namespace   string `json:"namespace,omitempty"`
	Cluster     string `json:"cluster,omitempty"`
	Image       string `json:"image,omitempty"`
	SecretStore string `json:"secretStore"`
	Sessions    int    `json:"activeSessions"`
	StartedAt   string `json:"startedAt"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleHealthInfo(w http.ResponseWriter, r *http.Request) {
	info := healthInfoResponse{
		Status:      "ok",
		Version:     buildinfo.Version,
		CommitHash:  buildinfo.CommitHash,
		Runner:      s.settings.Runner,
		SecretStore: s.secrets.Kind(),
		Sessions:    s.sessions.ActiveCount(),
		StartedAt:   s.startedAt.Format(time.RFC3339),
	}

	if s.settings.Runner == "kubernetes" {
		info.Namespace = s.settings.Kubernetes.Namespace
		info.Cluster = s.settings.Kubernetes.Cluster
		info.Image = s.settings.Kubernetes.Image
	}
	if s.settings.Secrets.Store == "gsm" {
		info.Project = s.settings.Secrets.Project
	}

	writeJSON(w, http.StatusOK, info)
}
