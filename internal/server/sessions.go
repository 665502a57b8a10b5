package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gamgui-io/gamgui/internal/config"
	"github.com/gamgui-io/gamgui/internal/models"
	"github.com/gamgui-io/gamgui/internal/runner"
	"github.com/gamgui-io/gamgui/internal/session"
)

type createSessionRequest struct {
	Name string `json:"name"`
	Rows int    `json:"rows"`
	Cols int    `json:"cols"`
}

type sessionLogsResponse struct {
	SessionID string         `json:"sessionId"`
	Logs      []auditLogView `json:"logs"`
}

type auditLogView struct {
	models.AuditLog
	Entries []models.AuditEntry `json:"entries"`
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, s.sessions.List(user))
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req createSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && err != io.EOF {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	sess, err := s.sessions.Create(r.Context(), session.CreateOptions{
		Name:   req.Name,
		UserID: user,
		Rows:   req.Rows,
		Cols:   req.Cols,
	})
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, sess)
}

// ownedSession resolves the {id} path value to a session owned by the
// requesting user. Sessions of other users read as not found.
func (s *Server) ownedSession(w http.ResponseWriter, r *http.Request, user string) (*models.Session, bool) {
	id := r.PathValue("id")

	sess, err := s.sessions.Get(id)
	if err != nil || sess.UserID != user {
		writeError(w, http.StatusNotFound, "session not found")
		return nil, false
	}
	return sess, true
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}

	sess, ok := s.ownedSession(w, r, user)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}

	sess, ok := s.ownedSession(w, r, user)
	if !ok {
		return
	}

	if err := s.sessions.Delete(r.Context(), sess.ID); err != nil {
		if errors.Is(err, runner.ErrSessionNotFound) {
			writeError(w, http.StatusNotFound, "session not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSessionLogs(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}

	id := r.PathValue("id")

	// The session record may already be gone; audit files outlive it.
	// Still scope access: a live record must belong to the caller.
	if sess, err := s.sessions.Get(id); err == nil && sess.UserID != user {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}

	logs, err := config.ListAuditLogs(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	resp := sessionLogsResponse{SessionID: id, Logs: make([]auditLogView, 0, len(logs))}
	for _, l := range logs {
		if l.UserID != "" && l.UserID != user {
			continue
		}
		_, entries, err := config.ReadAuditLog(id, l.LogID)
		if err != nil {
			continue
		}
		resp.Logs = append(resp.Logs, auditLogView{AuditLog: *l, Entries: entries})
	}

	// A running session contributes its in-flight trail.
	if handle, err := s.sessions.Handle(id); err == nil {
		select {
		case <-handle.Done():
		default:
			resp.Logs = append(resp.Logs, auditLogView{
				AuditLog: models.AuditLog{
					LogID:     "current",
					SessionID: id,
					UserID:    user,
					StartedAt: handle.StartedAt().UTC().Format(time.RFC3339),
					Status:    string(handle.Status()),
				},
				Entries: handle.Entries(),
			})
		}
	}

	writeJSON(w, http.StatusOK, resp)
}
