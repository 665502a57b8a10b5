package cli

import (
	"fmt"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"github.com/gamgui-io/gamgui/internal/models"
)

var secretsCmd = &cobra.Command{
	Use:   "secrets",
	Short: "Manage GAM credentials",
	Long: `Manage the GAM credential files stored on the server. Sessions can
only run GAM commands once all three credentials are uploaded.`,
}

var secretsStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show which credentials are uploaded",
	RunE:  runSecretsStatus,
}

var secretsUploadCmd = &cobra.Command{
	Use:   "upload <type> <file>",
	Short: "Upload one credential file",
	Long: `Upload one GAM credential file. Valid types are client_secrets,
oauth2, and oauth2service.`,
	Args: cobra.ExactArgs(2),
	RunE: runSecretsUpload,
}

func init() {
	secretsCmd.AddCommand(secretsStatusCmd)
	secretsCmd.AddCommand(secretsUploadCmd)
}

func printSecretsStatus(status *models.SecretsStatus) {
	for _, s := range status.Secrets {
		mark := styleError.Render("missing")
		detail := ""
		if s.Uploaded {
			mark = styleSuccess.Render("uploaded")
			if s.UpdatedAt != nil {
				detail = styleLabel.Render(s.UpdatedAt.Local().Format("2006-01-02 15:04"))
			}
		}
		fmt.Printf("  %-16s %-10s %s\n", string(s.Type), mark, detail)
	}
	if status.Ready {
		fmt.Println(styleSuccess.Render("All credentials uploaded."))
	} else {
		fmt.Println(styleHint.Render("Upload missing credentials with: gamgui secrets upload <type> <file>"))
	}
}

func runSecretsStatus(cmd *cobra.Command, args []string) error {
	c, err := connectServer()
	if err != nil {
		return err
	}

	var status models.SecretsStatus
	if err := c.doJSON(http.MethodGet, "/secrets/status", nil, &status); err != nil {
		return err
	}

	printSecretsStatus(&status)
	return nil
}

func runSecretsUpload(cmd *cobra.Command, args []string) error {
	secretType := models.SecretType(args[0])
	if !models.ValidSecretType(secretType) {
		return fmt.Errorf("unknown secret type %q (want client_secrets, oauth2, or oauth2service)", args[0])
	}

	data, err := os.ReadFile(args[1])
	if err != nil {
		return fmt.Errorf("failed to read credential file: %w", err)
	}

	c, err := connectServer()
	if err != nil {
		return err
	}

	var status models.SecretsStatus
	if err := c.upload("/secrets/upload/"+string(secretType), data, &status); err != nil {
		return err
	}

	fmt.Printf("%s %s\n", styleSuccess.Render("Uploaded:"), string(secretType))
	printSecretsStatus(&status)
	return nil
}
