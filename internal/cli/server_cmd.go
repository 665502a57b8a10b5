package cli

import (
	"fmt"
	"net/http"
	"os"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/gamgui-io/gamgui/internal/config"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Manage the gamgui server",
	Long:  `Manage the gamgui server process.`,
}

var serverStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show server status",
	RunE:  runServerStatus,
}

var serverStopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the server",
	RunE:  runServerStop,
}

func init() {
	serverCmd.AddCommand(serverStatusCmd)
	serverCmd.AddCommand(serverStopCmd)
}

func runServerStatus(cmd *cobra.Command, args []string) error {
	running, info, err := config.IsServerRunning()
	if err != nil {
		return fmt.Errorf("failed to check server status: %w", err)
	}

	if !running || info == nil {
		fmt.Println("Server is not running.")
		return nil
	}

	uptime := time.Since(info.StartedAt).Truncate(time.Second)

	fmt.Println("Server is running.")
	fmt.Printf("  Host:       %s\n", info.Host)
	fmt.Printf("  Port:       %d\n", info.Port)
	fmt.Printf("  PID:        %d\n", info.PID)
	fmt.Printf("  Uptime:     %s\n", uptime)

	// Ask the server for its environment. Non-fatal: the record above is
	// enough when the HTTP round trip fails.
	c, err := connectServer()
	if err != nil {
		return nil
	}
	var health struct {
		Runner      string `json:"runner"`
		Namespace   string `json:"namespace"`
		Cluster     string `json:"cluster"`
		Image       string `json:"image"`
		SecretStore string `json:"secretStore"`
		Sessions    int    `json:"activeSessions"`
	}
	if err := c.doJSON(http.MethodGet, "/health/info", nil, &health); err != nil {
		return nil
	}

	fmt.Printf("  Runner:     %s\n", health.Runner)
	if health.Runner == "kubernetes" {
		fmt.Printf("  Namespace:  %s\n", health.Namespace)
		fmt.Printf("  Cluster:    %s\n", health.Cluster)
		fmt.Printf("  Image:      %s\n", health.Image)
	}
	fmt.Printf("  Secrets:    %s\n", health.SecretStore)
	fmt.Printf("  Sessions:   %d active\n", health.Sessions)
	return nil
}

func runServerStop(cmd *cobra.Command, args []string) error {
	running, info, err := config.IsServerRunning()
	if err != nil {
		return fmt.Errorf("failed to check server status: %w", err)
	}

	if !running || info == nil {
		fmt.Println("Server is not running.")
		return nil
	}

	process, err := os.FindProcess(info.PID)
	if err != nil {
		return fmt.Errorf("failed to find server process: %w", err)
	}

	if err := process.Signal(syscall.SIGTERM); err != nil {
		return fmt.Errorf("failed to send stop signal: %w", err)
	}

	// Poll for shutdown (max 15 seconds, stopping sessions can be slow)
	for i := 0; i < 150; i++ {
		time.Sleep(100 * time.Millisecond)
		stillRunning, _, err := config.IsServerRunning()
		if err == nil && !stillRunning {
			fmt.Println("Server stopped.")
			return nil
		}
	}

	return fmt.Errorf("server did not stop within timeout")
}
