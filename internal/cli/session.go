package cli

import (
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/gamgui-io/gamgui/internal/models"
)

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Manage GAM sessions",
	Long:  `Manage GAM sessions on the gamgui server.`,
}

var sessionListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List your sessions",
	RunE:    runSessionList,
}

var sessionCreateCmd = &cobra.Command{
	Use:   "create [name]",
	Short: "Create a new session",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runSessionCreate,
}

var sessionDeleteCmd = &cobra.Command{
	Use:     "delete <session-id>",
	Aliases: []string{"rm"},
	Short:   "Stop and delete a session",
	Args:    cobra.ExactArgs(1),
	RunE:    runSessionDelete,
}

var sessionLogsCmd = &cobra.Command{
	Use:   "logs <session-id>",
	Short: "Show a session's audit log",
	Args:  cobra.ExactArgs(1),
	RunE:  runSessionLogs,
}

func init() {
	sessionCmd.AddCommand(sessionListCmd)
	sessionCmd.AddCommand(sessionCreateCmd)
	sessionCmd.AddCommand(sessionDeleteCmd)
	sessionCmd.AddCommand(sessionLogsCmd)
}

func runSessionList(cmd *cobra.Command, args []string) error {
	c, err := connectServer()
	if err != nil {
		return err
	}

	var sessions []models.Session
	if err := c.doJSON(http.MethodGet, "/api/sessions", nil, &sessions); err != nil {
		return err
	}

	if len(sessions) == 0 {
		fmt.Println(styleHint.Render("No sessions. Create one with: gamgui session create"))
		return nil
	}

	for _, s := range sessions {
		fmt.Printf("%s  %-20s %-10s %s\n",
			styleValue.Render(s.ID),
			s.Name,
			statusBadge(string(s.Status)),
			styleLabel.Render(s.CreatedAt.Local().Format("2006-01-02 15:04")),
		)
	}
	return nil
}

func runSessionCreate(cmd *cobra.Command, args []string) error {
	c, err := connectServer()
	if err != nil {
		return err
	}

	name := ""
	if len(args) > 0 {
		name = args[0]
	}

	var sess models.Session
	req := map[string]string{"name": name}
	if err := c.doJSON(http.MethodPost, "/api/sessions", req, &sess); err != nil {
		return err
	}

	fmt.Printf("%s %s\n", styleSuccess.Render("Session created:"), sess.ID)
	fmt.Println(styleHint.Render("Attach with: gamgui attach " + sess.ID))
	return nil
}

func runSessionDelete(cmd *cobra.Command, args []string) error {
	c, err := connectServer()
	if err != nil {
		return err
	}

	if err := c.doJSON(http.MethodDelete, "/api/sessions/"+args[0], nil, nil); err != nil {
		return err
	}

	fmt.Printf("%s %s\n", styleSuccess.Render("Session deleted:"), args[0])
	return nil
}

func runSessionLogs(cmd *cobra.Command, args []string) error {
	c, err := connectServer()
	if err != nil {
		return err
	}

	var resp struct {
		SessionID string `json:"sessionId"`
		Logs      []struct {
			models.AuditLog
			Entries []models.AuditEntry `json:"entries"`
		} `json:"logs"`
	}
	if err := c.doJSON(http.MethodGet, "/api/sessions/"+args[0]+"/logs", nil, &resp); err != nil {
		return err
	}

	if len(resp.Logs) == 0 {
		fmt.Println(styleHint.Render("No audit logs for this session."))
		return nil
	}

	for _, l := range resp.Logs {
		fmt.Printf("%s %s  %s\n",
			styleBrand.Render("log"),
			styleValue.Render(l.LogID),
			styleLabel.Render(l.StartedAt),
		)
		for _, e := range l.Entries {
			marker := " "
			if e.Type == models.AuditEntryCommand {
				marker = styleSuccess.Render("$")
			}
			fmt.Printf("  %s %s\n", marker, e.Payload)
		}
	}
	return nil
}
