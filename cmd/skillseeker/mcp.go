package main

import (
	"log/slog"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"

	"github.com/skillseeker/skillseeker/ingest"
	"github.com/skillseeker/skillseeker/skill"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run the extraction tools as an MCP server on stdio",
	RunE: func(cmd *cobra.Command, args []string) error {
		srv := mcp.NewServer(&mcp.Implementation{
			Name:    "skillseeker",
			Version: "1.0.0",
		}, nil)

		pipe := ingest.New(ingest.Config{Logger: slog.Default()})
		skill.NewMCPAdapter(pipe).Register(srv)

		slog.Info("MCP server starting on stdio")
		return srv.Run(cmd.Context(), &mcp.StdioTransport{})
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
