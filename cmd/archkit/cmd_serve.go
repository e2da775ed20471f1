package main

import (
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/HendryAvila/archkit/internal/server"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	var noUpdateCheck bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server over stdio",
		Long: "Serves archkit tools, prompts and resources over the MCP stdio transport.\n" +
			"stdout carries the protocol; logs go to stderr.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			w, err := opts.openWorkspace()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if !noUpdateCheck {
				go logAvailableUpdate(ctx)
			}

			slog.Info("starting MCP server", "version", server.Version, "root", w.Root)
			srv := mcpserver.NewStdioServer(server.New(w))
			if err := srv.Listen(ctx, os.Stdin, os.Stdout); err != nil && ctx.Err() == nil {
				return err
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&noUpdateCheck, "no-update-check", false, "Skip the background release check")
	return cmd
}
