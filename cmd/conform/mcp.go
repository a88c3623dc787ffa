package main

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/aretw0/conform/internal/cli"
	"github.com/aretw0/conform/pkg/adapters/mcp"
	"github.com/spf13/cobra"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run the Model Context Protocol (MCP) server",
	Long: `Exposes validation, normalization and the schema catalogue to AI agents as MCP tools and resources.

Supported Transports:
- stdio (default): Uses Standard Input/Output. Ideal for local process integration.
- sse: Uses Server-Sent Events over HTTP. Ideal for remote agents or debuggers.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		transport, _ := cmd.Flags().GetString("transport")
		port, _ := cmd.Flags().GetInt("port")

		checker, closeFn, err := cli.NewChecker(globalOpts, logger)
		if err != nil {
			return err
		}
		defer closeFn()

		srv := mcp.NewServer(checker)

		switch transport {
		case "stdio":
			logger.Info("Starting MCP server (stdio)")
			return srv.ServeStdio()
		case "sse":
			logger.Info("Starting MCP server (SSE)", "port", port)
			ctx := cli.NewSignalContext(cmd.Context())
			defer ctx.Cancel()

			if err := srv.ServeSSE(ctx, port); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			logger.Info("MCP server stopped gracefully")
			return nil
		}
		return fmt.Errorf("unknown transport: %s. Supported: stdio, sse", transport)
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)

	mcpCmd.Flags().String("transport", "stdio", "Transport protocol to use: 'stdio' or 'sse'")
	mcpCmd.Flags().Int("port", 8080, "Port to listen on (only for SSE)")
}
