package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/user"
	"time"

	"github.com/gamgui-io/gamgui/internal/config"
	"github.com/gamgui-io/gamgui/internal/server"
)

// client is a small REST client against a running gamgui server.
type client struct {
	baseURL string
	user    string
	http    *http.Client
}

// connectServer locates the running server via ~/.gamgui/server.yaml.
func connectServer() (*client, error) {
	running, info, err := config.IsServerRunning()
	if err != nil {
		return nil, fmt.Errorf("failed to check server status: %w", err)
	}
	if !running || info == nil {
		return nil, fmt.Errorf("server not running (start it with gamguid)")
	}

	host := info.Host
	if host == "" {
		host = "localhost"
	}

	return &client{
		baseURL: fmt.Sprintf("http://%s:%d", host, info.Port),
		user:    currentUser(),
		http:    &http.Client{Timeout: 30 * time.Second},
	}, nil
}

// currentUser resolves the identity sent in the user header. The server
// trusts it the same way it trusts the fronting proxy in production.
func currentUser() string {
	if v := os.Getenv("GAMGUI_USER"); v != "" {
		return v
	}
	if u, err := user.Current(); err == nil && u.Username != "" {
		return u.Username
	}
	return "unknown"
}

func (c *client) do(method, path string, body io.Reader, contentType string) (*http.Response, error) {
	req, err := http.NewRequest(method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set(server.HeaderUser, c.user)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	return c.http.Do(req)
}

// doJSON performs a request and decodes the JSON response into out.
// Error responses surface the server's error message.
func (c *client) doJSON(method, path string, in, out any) error {
	var body io.Reader
	contentType := ""
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
		contentType = "application/json"
	}

	resp, err := c.do(method, path, body, contentType)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return decodeError(resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// upload sends raw file content to an upload endpoint and decodes the
// response.
func (c *client) upload(path string, data []byte, out any) error {
	resp, err := c.do(http.MethodPost, path, bytes.NewReader(data), "application/octet-stream")
	if err != nil {
		return fmt.Errorf("upload failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return decodeError(resp)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func decodeError(resp *http.Response) error {
	var body struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err == nil && body.Error != "" {
		return fmt.Errorf("%s", body.Error)
	}
	return fmt.Errorf("server returned %s", resp.Status)
}
