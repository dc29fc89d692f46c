package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	smcp "github.com/spardhafest/spardha/internal/mcp"
	"github.com/spardhafest/spardha/internal/registration"
)

func newMCPCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Serve registration data to MCP clients over stdio",
		Long: `Start a Model Context Protocol server on stdin/stdout. It offers read-only
tools for the event catalog, the registration list and per-event stats, so an
organizer's assistant can answer questions about sign-ups.

The server reads the same database as 'spardha serve'. Run it only for clients
you would trust with 'spardha registrations list'.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			settings := currentSettings()
			// stdout carries the protocol; logs go to stderr.
			logger := newLogger(os.Stderr, settings.Logging.Level, settings.Logging.Format, false)

			store, err := openStore()
			if err != nil {
				return fmt.Errorf("open store: %w", err)
			}
			defer store.Close()

			srv := smcp.NewMCPServer(settings.Site.FestivalName, versionString(),
				registration.NewService(store, logger), logger)
			return srv.ServeStdio()
		},
	}

	return cmd
}
