package server

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gamgui-io/gamgui/internal/models"
	"github.com/gamgui-io/gamgui/internal/secrets"
)

// maxSecretSize bounds uploaded credential files. GAM credentials are
// small JSON documents; anything bigger is a mistake.
const maxSecretSize = 1 << 20

func (s *Server) handleSecretsStatus(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}

	status, err := s.secrets.Status(r.Context(), user)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, status)
}

func (s *Server) handleSecretUpload(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}

	secretType := models.SecretType(r.PathValue("secretType"))
	if !models.ValidSecretType(secretType) {
		writeError(w, http.StatusBadRequest, "unknown secret type: "+string(secretType))
		return
	}

	data, err := readSecretBody(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if len(data) == 0 {
		writeError(w, http.StatusBadRequest, "empty credential upload")
		return
	}

	if err := s.secrets.Upload(r.Context(), user, secretType, data); err != nil {
		if errors.Is(err, secrets.ErrInvalidSecretType) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	// Respond with the full status so the client can refresh its view
	// without a second round trip.
	status, err := s.secrets.Status(r.Context(), user)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, status)
}

// readSecretBody accepts either a multipart form with a "file" field or a
// raw request body.
func readSecretBody(r *http.Request) ([]byte, error) {
	contentType := r.Header.Get("Content-Type")
	if strings.HasPrefix(contentType, "multipart/form-data") {
		if err := r.ParseMultipartForm(maxSecretSize); err != nil {
			return nil, errors.New("invalid multipart form")
		}
		file, _, err := r.FormFile("file")
		if err != nil {
			return nil, errors.New("multipart form is missing a file field")
		}
		defer file.Close()
		return io.ReadAll(io.LimitReader(file, maxSecretSize))
	}

	return io.ReadAll(io.LimitReader(r.Body, maxSecretSize))
}
