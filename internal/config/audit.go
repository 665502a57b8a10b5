package config

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/x/ansi"

	"github.com/gamgui-io/gamgui/internal/models"
)

// WriteAuditLog writes a session audit trail to disk with a YAML header
// followed by one entry per line. Output payloads are stripped of ANSI
// escapes before they hit disk.
func WriteAuditLog(sessionID, userID, runner, status string, startedAt time.Time, entries []models.AuditEntry) (*models.AuditLog, error) {
	if err := EnsureAuditDir(); err != nil {
		return nil, fmt.Errorf("failed to ensure audit dir: %w", err)
	}

	auditDir, err := GlobalAuditDir()
	if err != nil {
		return nil, err
	}

	sessionDir := filepath.Join(auditDir, sessionID)
	if err := os.MkdirAll(sessionDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create session audit dir: %w", err)
	}

	endedAt := time.Now().UTC()
	logID := startedAt.Format("2006-01-02T15-04-05")

	log := &models.AuditLog{
		LogID:     logID,
		SessionID: sessionID,
		UserID:    userID,
		Runner:    runner,
		StartedAt: startedAt.UTC().Format(time.RFC3339),
		EndedAt:   endedAt.Format(time.RFC3339),
		Status:    status,
	}

	filePath := filepath.Join(sessionDir, logID+".log")
	f, err := os.Create(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to create audit log file: %w", err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	fmt.Fprintln(w, "---")
	fmt.Fprintf(w, "session_id: %s\n", sessionID)
	fmt.Fprintf(w, "user_id: %s\n", userID)
	fmt.Fprintf(w, "runner: %s\n", runner)
	fmt.Fprintf(w, "started_at: %s\n", log.StartedAt)
	fmt.Fprintf(w, "ended_at: %s\n", log.EndedAt)
	fmt.Fprintf(w, "status: %s\n", status)
	fmt.Fprintln(w, "---")

	for _, e := range entries {
		payload := e.Payload
		if e.Type == models.AuditEntryOutput {
			payload = ansi.Strip(payload)
		}
		// One entry per line; newlines inside a payload would break parsing
		payload = strings.ReplaceAll(payload, "\n", " ")
		fmt.Fprintf(w, "%s\t%s\t%s\n", e.Timestamp, e.Type, payload)
	}

	return log, w.Flush()
}

// ListAuditLogs reads all audit log files for a session and returns their
// metadata (newest first).
func ListAuditLogs(sessionID string) ([]*models.AuditLog, error) {
	auditDir, err := GlobalAuditDir()
	if err != nil {
		return nil, err
	}

	sessionDir := filepath.Join(auditDir, sessionID)
	dirEntries, err := os.ReadDir(sessionDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var logs []*models.AuditLog
	for _, e := range dirEntries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".log") {
			continue
		}

		log, err := parseAuditHeader(filepath.Join(sessionDir, e.Name()))
		if err != nil {
			continue
		}
		logs = append(logs, log)
	}

	sort.Slice(logs, func(i, j int) bool {
		return logs[i].StartedAt > logs[j].StartedAt
	})

	return logs, nil
}

// ReadAuditLog reads a specific audit log file and returns metadata + entries.
func ReadAuditLog(sessionID, logID string) (*models.AuditLog, []models.AuditEntry, error) {
	auditDir, err := GlobalAuditDir()
	if err != nil {
		return nil, nil, err
	}

	filePath := filepath.Join(auditDir, sessionID, logID+".log")
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, nil, fmt.Errorf("audit log not found: %w", err)
	}

	log, entries := parseAuditContent(string(data))
	if log == nil {
		return nil, nil, fmt.Errorf("invalid audit log format")
	}
	log.LogID = logID

	return log, entries, nil
}

func parseAuditHeader(path string) (*models.AuditLog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	log := &models.AuditLog{}
	inHeader := false

	for scanner.Scan() {
		line := scanner.Text()
		if line == "---" {
			if !inHeader {
				inHeader = true
				continue
			}
			break
		}
		if inHeader {
			parseAuditHeaderLine(log, line)
		}
	}

	if log.LogID == "" {
		log.LogID = strings.TrimSuffix(filepath.Base(path), ".log")
	}

	return log, nil
}

func parseAuditContent(content string) (*models.AuditLog, []models.AuditEntry) {
	lines := strings.Split(content, "\n")
	log := &models.AuditLog{}
	headerEnd := -1
	inHeader := false

	for i, line := range lines {
		if line == "---" {
			if !inHeader {
				inHeader = true
				continue
			}
			headerEnd = i
			break
		}
		if inHeader {
			parseAuditHeaderLine(log, line)
		}
	}

	if headerEnd < 0 {
		return nil, nil
	}

	var entries []models.AuditEntry
	for _, line := range lines[headerEnd+1:] {
		if line == "" {
			continue
		}
		parts := strings.SplitN(line, "\t", 3)
		if len(parts) != 3 {
			continue
		}
		entries = append(entries, models.AuditEntry{
			Timestamp: parts[0],
			Type:      models.AuditEntryType(parts[1]),
			Payload:   parts[2],
		})
	}

	return log, entries
}

func parseAuditHeaderLine(log *models.AuditLog, line string) {
	parts := strings.SplitN(line, ": ", 2)
	if len(parts) != 2 {
		return
	}
	key := strings.TrimSpace(parts[0])
	val := strings.TrimSpace(parts[1])

	switch key {
	case "session_id":
		log.SessionID = val
	case "user_id":
		log.UserID = val
	case "runner":
		log.Runner = val
	case "started_at":
		log.StartedAt = val
	case "ended_at":
		log.EndedAt = val
	case "status":
		log.Status = val
	}
}
