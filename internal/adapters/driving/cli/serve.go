package cli

import (
	"github.com/spf13/cobra"

	"github.com/custodia-labs/chatrelay/internal/adapters/driving/httpapi"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP message endpoint",
	Long: `Start an HTTP server that accepts the same action messages as the page
agent, so other tools can trigger previews and transfers.

Endpoints:
  POST /v1/messages           {"action": "...", "source": "...", "destination": "..."}
  GET  /v1/sites
  GET  /v1/transfers?limit=N
  GET  /v1/transfers/current
  GET  /health`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "127.0.0.1:8765", "listen address")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	if messageHandler == nil {
		return errNotConfigured("message handler")
	}

	server := httpapi.NewServer(messageHandler, transferService, orchestrator)
	cmd.Printf("Listening on http://%s\n", serveAddr)
	return server.Run(cmd.Context(), serveAddr)
}
